package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
	"github.com/fintechsquad01/imagescout/internal/core/scoring"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/report/xlsx"
)

type scoreResponse struct {
	ImageKey string                         `json:"imageKey,omitempty"`
	Results  []domain.ModelComparisonResult `json:"results"`
	Error    string                         `json:"error,omitempty"`
}

type calculateResponse struct {
	Score    int    `json:"score"`
	ConfigID string `json:"configId"`
	scoring.Insights
}

type scoreParams struct {
	ImageKey  string
	Compare   bool
	ForceMock bool
	SkipCache bool
	ModelIDs  []string
	ProjectID string
	UserID    string
	IsTest    bool
}

func bindScoreParams(r *http.Request) (scoreParams, error) {
	var p scoreParams
	q := r.URL.Query()
	bindings := []struct {
		name    string
		explode bool
		dest    any
	}{
		{"image_key", true, &p.ImageKey},
		{"compare", true, &p.Compare},
		{"force_mock", true, &p.ForceMock},
		{"skip_cache", true, &p.SkipCache},
		{"model_ids", false, &p.ModelIDs},
		{"project_id", true, &p.ProjectID},
		{"user_id", true, &p.UserID},
		{"is_test", true, &p.IsTest},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", b.explode, false, b.name, q, b.dest); err != nil {
			return scoreParams{}, domain.WrapError(domain.ErrInvalidInput, "bind "+b.name, err)
		}
	}
	ids := p.ModelIDs[:0]
	for _, id := range p.ModelIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	p.ModelIDs = ids
	return p, nil
}

// scoreRequest resolves the image (uploaded file first, stored key second) and the score options.
func (rt *Router) scoreRequest(w http.ResponseWriter, r *http.Request) (domain.Image, string, domain.ScoreOptions, error) {
	params, err := bindScoreParams(r)
	if err != nil {
		return domain.Image{}, "", domain.ScoreOptions{}, err
	}

	image, uploaded, err := rt.readUpload(w, r)
	if err != nil {
		return domain.Image{}, "", domain.ScoreOptions{}, err
	}

	imageKey := strings.TrimSpace(params.ImageKey)
	switch {
	case uploaded:
		if rt.keyer != nil {
			imageKey = rt.keyer.Key(image)
		}
	case imageKey != "":
		image, err = rt.images.Load(r.Context(), imageKey)
		if err != nil {
			return domain.Image{}, "", domain.ScoreOptions{}, err
		}
	default:
		return domain.Image{}, "", domain.ScoreOptions{}, domain.WrapError(domain.ErrInvalidInput, "score image", errors.New("multipart field 'file' or query 'image_key' is required"))
	}

	opts := domain.ScoreOptions{
		ProjectID:     params.ProjectID,
		UserID:        params.UserID,
		ForceMock:     params.ForceMock,
		CompareModels: params.Compare,
		SkipCache:     params.SkipCache,
		IsTest:        params.IsTest,
		ImageKey:      imageKey,
	}
	switch {
	case len(params.ModelIDs) > 0:
		opts.ModelsToCompare, err = rt.configs.GetByIDs(r.Context(), params.ModelIDs)
	case params.Compare:
		opts.ModelsToCompare, err = rt.configs.List(r.Context())
	}
	if err != nil {
		return domain.Image{}, "", domain.ScoreOptions{}, err
	}
	return image, imageKey, opts, nil
}

// readUpload reads the optional multipart "file" field. uploaded is false when no file was sent.
func (rt *Router) readUpload(w http.ResponseWriter, r *http.Request) (domain.Image, bool, error) {
	if !isMultipart(r) {
		return domain.Image{}, false, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return domain.Image{}, false, nil
	}
	if err != nil {
		return domain.Image{}, false, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return domain.Image{}, false, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
	}
	return domain.Image{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		Data:        data,
	}, true, nil
}

func (rt *Router) uploadImage(w http.ResponseWriter, r *http.Request) {
	image, uploaded, err := rt.readUpload(w, r)
	if err != nil {
		writeDomainError(w, r, "upload image", err)
		return
	}
	if !uploaded {
		writeError(w, r, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}

	key, err := rt.images.Upload(r.Context(), image)
	if err != nil {
		writeDomainError(w, r, "upload image", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"imageKey": key})
}

func (rt *Router) scoreImage(w http.ResponseWriter, r *http.Request) {
	image, imageKey, opts, err := rt.scoreRequest(w, r)
	if err != nil {
		writeDomainError(w, r, "score image", err)
		return
	}

	results, err := rt.scorer.ScoreImage(r.Context(), image, opts)
	if err != nil {
		if domain.IsKind(err, domain.ErrTimeout) {
			writeJSON(w, http.StatusGatewayTimeout, scoreResponse{ImageKey: imageKey, Results: results, Error: err.Error()})
			return
		}
		writeDomainError(w, r, "score image", err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{ImageKey: imageKey, Results: results})
}

func (rt *Router) exportScore(w http.ResponseWriter, r *http.Request) {
	image, imageKey, opts, err := rt.scoreRequest(w, r)
	if err != nil {
		writeDomainError(w, r, "export score", err)
		return
	}

	results, err := rt.scorer.ScoreImage(r.Context(), image, opts)
	if err != nil {
		writeDomainError(w, r, "export score", err)
		return
	}

	var buf bytes.Buffer
	if err := xlsx.WriteComparison(&buf, image.Name, results); err != nil {
		writeDomainError(w, r, "export score", err)
		return
	}

	name := "comparison.xlsx"
	if len(imageKey) >= 12 {
		name = fmt.Sprintf("comparison-%s.xlsx", imageKey[:12])
	}
	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (rt *Router) calculateScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VisionData *domain.VisionData    `json:"visionData"`
		Config     *domain.ScoringConfig `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	var cfg domain.ScoringConfig
	if req.Config != nil {
		cfg = *req.Config
	} else {
		active, err := rt.configs.Active(r.Context())
		if err != nil {
			writeDomainError(w, r, "calculate score", err)
			return
		}
		cfg = active
	}

	score, err := rt.scorer.CalculateScore(req.VisionData, cfg)
	if err != nil {
		writeDomainError(w, r, "calculate score", err)
		return
	}
	writeJSON(w, http.StatusOK, calculateResponse{
		Score:    score,
		ConfigID: cfg.ID,
		Insights: scoring.Describe(req.VisionData),
	})
}
