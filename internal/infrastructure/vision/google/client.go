// Package google calls the Cloud Vision images:annotate endpoint.
package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/resilience"
)

const DefaultEndpoint = "https://vision.googleapis.com/v1/images:annotate"

type Options struct {
	Endpoint          string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Executor          *resilience.Executor
}

type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

func New(opts Options) *Client {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	executor := opts.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     opts.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		executor:   executor,
	}
}

type feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

var requestedFeatures = []feature{
	{Type: "LABEL_DETECTION", MaxResults: 10},
	{Type: "IMAGE_PROPERTIES", MaxResults: 5},
	{Type: "OBJECT_LOCALIZATION", MaxResults: 5},
	{Type: "LANDMARK_DETECTION", MaxResults: 3},
	{Type: "SAFE_SEARCH_DETECTION"},
}

type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image struct {
		Content string `json:"content"`
	} `json:"image"`
	Features []feature `json:"features"`
}

type annotateResponse struct {
	Responses []imageResponse `json:"responses"`
}

type imageResponse struct {
	LabelAnnotations []struct {
		Description string `json:"description"`
	} `json:"labelAnnotations"`
	LocalizedObjectAnnotations []struct {
		Name string `json:"name"`
	} `json:"localizedObjectAnnotations"`
	LandmarkAnnotations []struct {
		Description string `json:"description"`
	} `json:"landmarkAnnotations"`
	ImagePropertiesAnnotation *struct {
		DominantColors struct {
			Colors []struct {
				Color struct {
					Red   float64 `json:"red"`
					Green float64 `json:"green"`
					Blue  float64 `json:"blue"`
				} `json:"color"`
			} `json:"colors"`
		} `json:"dominantColors"`
	} `json:"imagePropertiesAnnotation"`
	SafeSearchAnnotation *struct {
		Adult    string `json:"adult"`
		Violence string `json:"violence"`
		Racy     string `json:"racy"`
	} `json:"safeSearchAnnotation"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze annotates image. On any error the returned data is UnknownVisionData.
func (c *Client) Analyze(ctx context.Context, image domain.Image, _ domain.AnalyzeOptions) (domain.VisionData, error) {
	if len(image.Data) == 0 {
		return domain.UnknownVisionData(), domain.WrapError(domain.ErrInvalidInput, "vision annotate", errors.New("empty image"))
	}
	if strings.TrimSpace(c.apiKey) == "" {
		return domain.UnknownVisionData(), errors.New("vision annotate: api key is not configured")
	}

	var req imageRequest
	req.Image.Content = base64.StdEncoding.EncodeToString(image.Data)
	req.Features = requestedFeatures
	payload := annotateRequest{Requests: []imageRequest{req}}

	var response annotateResponse
	err := c.executor.Execute(ctx, "vision.google.annotate", func(callCtx context.Context) error {
		if err := c.limiter.Wait(callCtx); err != nil {
			return err
		}
		response = annotateResponse{}
		return c.postJSON(callCtx, payload, &response)
	}, classifyVisionError)
	if err != nil {
		return domain.UnknownVisionData(), wrapTemporaryIfNeeded("vision annotate", err)
	}

	if len(response.Responses) == 0 {
		return domain.UnknownVisionData(), errors.New("vision annotate: empty response")
	}
	first := response.Responses[0]
	if first.Error != nil && first.Error.Message != "" {
		return domain.UnknownVisionData(), fmt.Errorf("vision annotate: %d %s", first.Error.Code, first.Error.Message)
	}
	return toVisionData(first), nil
}

func toVisionData(r imageResponse) domain.VisionData {
	out := domain.VisionData{
		Labels:    make([]string, 0, len(r.LabelAnnotations)),
		Objects:   make([]string, 0, len(r.LocalizedObjectAnnotations)),
		Landmarks: make([]string, 0, len(r.LandmarkAnnotations)),
		Colors:    []string{},
		SafeSearch: domain.SafeSearch{
			Adult:    domain.LikelihoodUnlikely,
			Violence: domain.LikelihoodUnlikely,
			Racy:     domain.LikelihoodUnlikely,
		},
	}
	for _, label := range r.LabelAnnotations {
		out.Labels = append(out.Labels, label.Description)
	}
	for _, object := range r.LocalizedObjectAnnotations {
		out.Objects = append(out.Objects, object.Name)
	}
	for _, landmark := range r.LandmarkAnnotations {
		out.Landmarks = append(out.Landmarks, landmark.Description)
	}
	if r.ImagePropertiesAnnotation != nil {
		for _, c := range r.ImagePropertiesAnnotation.DominantColors.Colors {
			out.Colors = append(out.Colors, rgb(c.Color.Red, c.Color.Green, c.Color.Blue))
		}
	}
	if s := r.SafeSearchAnnotation; s != nil {
		out.SafeSearch.Adult = likelihoodOr(s.Adult, domain.LikelihoodUnlikely)
		out.SafeSearch.Violence = likelihoodOr(s.Violence, domain.LikelihoodUnlikely)
		out.SafeSearch.Racy = likelihoodOr(s.Racy, domain.LikelihoodUnlikely)
	}
	return out
}

func rgb(r, g, b float64) string {
	return fmt.Sprintf("rgb(%d, %d, %d)", int(math.Round(r)), int(math.Round(g)), int(math.Round(b)))
}

// likelihoodOr treats an omitted rating as fallback.
func likelihoodOr(raw string, fallback domain.Likelihood) domain.Likelihood {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	return domain.ParseLikelihood(raw)
}
