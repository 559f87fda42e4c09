// Package ollama asks a local multimodal model for vision data.
package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout  time.Duration
	Executor *resilience.Executor
}

func New(baseURL, model string) *Client {
	return NewWithOptions(baseURL, model, Options{})
}

func NewWithOptions(baseURL, model string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	executor := opts.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

type visionReply struct {
	Labels     []string `json:"labels"`
	Objects    []string `json:"objects"`
	Landmarks  []string `json:"landmarks"`
	Colors     []string `json:"colors"`
	SafeSearch struct {
		Adult    string `json:"adult"`
		Violence string `json:"violence"`
		Racy     string `json:"racy"`
	} `json:"safeSearch"`
}

func (c *Client) Analyze(ctx context.Context, image domain.Image, opts domain.AnalyzeOptions) (domain.VisionData, error) {
	if len(image.Data) == 0 {
		return domain.UnknownVisionData(), domain.WrapError(domain.ErrInvalidInput, "ollama analyze", errors.New("empty image"))
	}

	reqBody := map[string]any{
		"model":  c.model,
		"prompt": buildVisionPrompt(opts.PromptTemplate, image.Name),
		"images": []string{base64.StdEncoding.EncodeToString(image.Data)},
		"stream": false,
		"format": "json",
	}

	raw, err := resilience.Do(ctx, c.executor, "vision.ollama.generate", func(callCtx context.Context) (string, error) {
		return c.generate(callCtx, reqBody)
	}, classifyOllamaError)
	if err != nil {
		return domain.UnknownVisionData(), wrapTemporaryIfNeeded("ollama analyze", err)
	}

	var reply visionReply
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &reply); err != nil {
		return domain.UnknownVisionData(), fmt.Errorf("parse vision json: %w", err)
	}

	data := domain.VisionData{
		Labels:    reply.Labels,
		Objects:   reply.Objects,
		Landmarks: reply.Landmarks,
		Colors:    reply.Colors,
		SafeSearch: domain.SafeSearch{
			Adult:    domain.Likelihood(reply.SafeSearch.Adult),
			Violence: domain.Likelihood(reply.SafeSearch.Violence),
			Racy:     domain.Likelihood(reply.SafeSearch.Racy),
		},
	}
	if missing := data.MissingFields(); len(missing) > 0 {
		slog.Warn("vision_reply_incomplete", "provider", "ollama", "model", c.model, "image", image.Name, "missing", missing)
	}
	return data.Normalize(), nil
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
