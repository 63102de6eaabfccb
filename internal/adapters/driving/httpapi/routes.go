package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/logger"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, s.handleHealth)

	huma.Register(s.api, huma.Operation{
		OperationID: "ask",
		Method:      http.MethodPost,
		Path:        "/v1/ask",
		Summary:     "Answer a question from the indexed documents",
		Tags:        []string{"query"},
	}, s.handleAsk)

	huma.Register(s.api, huma.Operation{
		OperationID: "retrieve",
		Method:      http.MethodPost,
		Path:        "/v1/retrieve",
		Summary:     "Retrieve the passages relevant to a query",
		Tags:        []string{"query"},
	}, s.handleRetrieve)

	huma.Register(s.api, huma.Operation{
		OperationID: "reload",
		Method:      http.MethodPost,
		Path:        "/v1/reload",
		Summary:     "Serve the latest index store generation",
		Tags:        []string{"system"},
	}, s.handleReload)
}

// --- Request/Response types for huma ---

type healthOutput struct {
	Body struct {
		Status     string `json:"status" example:"ok" doc:"Health status"`
		Generation string `json:"generation,omitempty" doc:"Serving index store generation"`
	}
}

type askInput struct {
	Body struct {
		Question string `json:"question" doc:"Question to answer"`
	}
}

type askOutput struct {
	Body *domain.AnswerRecord
}

type retrieveInput struct {
	Body struct {
		Query         string   `json:"query" doc:"Query to retrieve passages for"`
		TopK          int      `json:"top_k,omitempty" doc:"Maximum number of passages"`
		MinSimilarity *float64 `json:"min_similarity,omitempty" doc:"Similarity floor override"`
	}
}

type retrieveOutput struct {
	Body struct {
		Results []domain.RetrievalResult `json:"results"`
		Count   int                      `json:"count"`
	}
}

type reloadOutput struct {
	Body domain.StoreInfo
}

// --- Handlers ---

func (s *Server) handleHealth(_ context.Context, _ *struct{}) (*healthOutput, error) {
	info, err := s.query.Info()
	if err != nil {
		return nil, huma.Error503ServiceUnavailable("index store not loaded")
	}
	out := &healthOutput{}
	out.Body.Status = "ok"
	out.Body.Generation = info.Generation
	return out, nil
}

func (s *Server) handleAsk(ctx context.Context, input *askInput) (*askOutput, error) {
	rec, err := s.query.Answer(ctx, input.Body.Question)
	if err != nil {
		return nil, mapError(err)
	}
	return &askOutput{Body: rec}, nil
}

func (s *Server) handleRetrieve(ctx context.Context, input *retrieveInput) (*retrieveOutput, error) {
	opts := s.query.RetrieveOptions()
	if input.Body.TopK > 0 {
		opts.TopK = input.Body.TopK
	}
	if input.Body.MinSimilarity != nil {
		opts.MinSimilarity = *input.Body.MinSimilarity
	}

	results, err := s.query.Retrieve(ctx, input.Body.Query, opts)
	if err != nil {
		return nil, mapError(err)
	}

	out := &retrieveOutput{}
	out.Body.Results = results
	out.Body.Count = len(results)
	return out, nil
}

func (s *Server) handleReload(ctx context.Context, _ *struct{}) (*reloadOutput, error) {
	info, err := s.query.Reload(ctx)
	if err != nil {
		logger.Warn("Reload failed, previous generation keeps serving: %v", err)
		return nil, mapError(err)
	}
	return &reloadOutput{Body: info}, nil
}

// mapError translates domain errors to HTTP statuses.
func mapError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, domain.ErrStoreNotFound):
		return huma.Error503ServiceUnavailable(err.Error())
	case errors.Is(err, domain.ErrDimensionMismatch), errors.Is(err, domain.ErrStoreCorrupt):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return huma.Error503ServiceUnavailable(err.Error())
	default:
		return huma.Error500InternalServerError("internal server error", err)
	}
}
