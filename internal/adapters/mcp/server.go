// Package mcpadapter exposes scoring as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
	"github.com/fintechsquad01/imagescout/internal/core/ports"
	"github.com/fintechsquad01/imagescout/internal/core/scoring"
)

const (
	ToolCalculateScore = "calculate_score"
	ToolScoreImage     = "score_image"
)

type Tools struct {
	scorer  ports.ImageScorer
	configs ports.ScoringConfigService
	images  ports.ImageStore
}

func NewTools(scorer ports.ImageScorer, configs ports.ScoringConfigService, images ports.ImageStore) *Tools {
	return &Tools{scorer: scorer, configs: configs, images: images}
}

// NewServer registers the scoring tools on a fresh MCP server.
func NewServer(name, version string, tools *Tools) *server.MCPServer {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(false), server.WithRecovery())

	s.AddTool(mcp.NewTool(ToolCalculateScore,
		mcp.WithDescription("Score existing vision analysis data under a scoring config without calling a vision provider. Also reports content weights, the primary content type and a safety check."),
		mcp.WithObject("vision_data",
			mcp.Description("Vision data with labels, objects, landmarks, colors and safeSearch. Omit to score the fallback case."),
		),
		mcp.WithString("config_id",
			mcp.Description("Scoring config to use. Defaults to the active config."),
		),
	), tools.CalculateScore)

	s.AddTool(mcp.NewTool(ToolScoreImage,
		mcp.WithDescription("Analyze an image and score it under one or several scoring configs."),
		mcp.WithString("image_key", mcp.Description("Key of an image previously uploaded through the API.")),
		mcp.WithString("image_base64", mcp.Description("Image bytes, base64 encoded. Used when image_key is empty.")),
		mcp.WithString("filename", mcp.Description("Name reported for an inline image.")),
		mcp.WithBoolean("compare", mcp.Description("Score under every requested config instead of the active one.")),
		mcp.WithBoolean("force_mock", mcp.Description("Use deterministic mock analysis.")),
		mcp.WithBoolean("skip_cache", mcp.Description("Ignore cached scores on read.")),
		mcp.WithArray("model_ids", mcp.Description("Scoring config ids, in result order."), mcp.WithStringItems()),
	), tools.ScoreImage)

	return s
}

func (t *Tools) CalculateScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var visionData *domain.VisionData
	if raw, ok := request.GetArguments()["vision_data"]; ok && raw != nil {
		visionData = &domain.VisionData{}
		if err := remarshal(raw, visionData); err != nil {
			return mcp.NewToolResultError("vision_data: " + err.Error()), nil
		}
	}

	cfg, err := t.config(ctx, request.GetString("config_id", ""))
	if err != nil {
		return toolError(err), nil
	}

	score, err := t.scorer.CalculateScore(visionData, cfg)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(struct {
		Score    int    `json:"score"`
		ConfigID string `json:"configId"`
		scoring.Insights
	}{score, cfg.ID, scoring.Describe(visionData)})
}

func (t *Tools) ScoreImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	image, err := t.image(ctx, request)
	if err != nil {
		return toolError(err), nil
	}

	opts := domain.ScoreOptions{
		CompareModels: request.GetBool("compare", false),
		ForceMock:     request.GetBool("force_mock", false),
		SkipCache:     request.GetBool("skip_cache", false),
		ImageKey:      strings.TrimSpace(request.GetString("image_key", "")),
	}
	ids := request.GetStringSlice("model_ids", nil)
	switch {
	case len(ids) > 0:
		opts.ModelsToCompare, err = t.configs.GetByIDs(ctx, ids)
	case opts.CompareModels:
		opts.ModelsToCompare, err = t.configs.List(ctx)
	}
	if err != nil {
		return toolError(err), nil
	}

	results, err := t.scorer.ScoreImage(ctx, image, opts)
	if err != nil && !domain.IsKind(err, domain.ErrTimeout) {
		return toolError(err), nil
	}
	payload := map[string]any{"results": results}
	if err != nil {
		payload["error"] = err.Error()
	}
	return jsonResult(payload)
}

func (t *Tools) config(ctx context.Context, id string) (domain.ScoringConfig, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return t.configs.Active(ctx)
	}
	found, err := t.configs.GetByIDs(ctx, []string{id})
	if err != nil {
		return domain.ScoringConfig{}, err
	}
	return found[0], nil
}

func (t *Tools) image(ctx context.Context, request mcp.CallToolRequest) (domain.Image, error) {
	if key := strings.TrimSpace(request.GetString("image_key", "")); key != "" {
		return t.images.Load(ctx, key)
	}
	encoded := strings.TrimSpace(request.GetString("image_base64", ""))
	if encoded == "" {
		return domain.Image{}, domain.WrapError(domain.ErrInvalidInput, "score image", errors.New("image_key or image_base64 is required"))
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return domain.Image{}, domain.WrapError(domain.ErrInvalidInput, "score image", fmt.Errorf("decode image_base64: %w", err))
	}
	return domain.Image{
		Name: request.GetString("filename", "inline"),
		Size: int64(len(data)),
		Data: data,
	}, nil
}

func remarshal(in any, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func toolError(err error) *mcp.CallToolResult {
	if !domain.IsKind(err, domain.ErrInvalidInput) && !domain.IsKind(err, domain.ErrConfigNotFound) && !domain.IsKind(err, domain.ErrImageNotFound) {
		slog.Error("mcp_tool_failed", "error", err)
	}
	return mcp.NewToolResultError(err.Error())
}
