package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/logger"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer     string            `json:"answer"`
	State      string            `json:"state"`
	Reason     string            `json:"reason"`
	Confidence float64           `json:"confidence"`
	Citations  []domain.Citation `json:"citations"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the query to find passages for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default from settings)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput represents a single retrieved passage.
type PassageOutput struct {
	SourceID   string  `json:"source_id"`
	Location   string  `json:"location"`
	VariantTag string  `json:"variant_tag,omitempty"`
	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
	Text       string  `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ask",
		Description: "Answer a question using only the indexed documents. " +
			"Returns a fixed abstention sentence when the documents do not support an answer.",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Retrieve the passages most relevant to a query, without generating an answer",
	}, s.handleRetrieve)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	logger.Debug("mcp ask %s: %q", uuid.NewString(), input.Question)

	rec, err := s.ports.Query.Answer(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:     rec.Answer,
		State:      rec.State.String(),
		Reason:     string(rec.Reason),
		Confidence: rec.Confidence,
		Citations:  rec.Citations,
	}, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	logger.Debug("mcp retrieve %s: %q", uuid.NewString(), input.Query)

	opts := s.ports.Query.RetrieveOptions()
	if input.TopK > 0 {
		opts.TopK = input.TopK
	}

	results, err := s.ports.Query.Retrieve(ctx, input.Query, opts)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Passages: make([]PassageOutput, len(results)),
		Count:    len(results),
	}
	for i, r := range results {
		output.Passages[i] = PassageOutput{
			SourceID:   r.Passage.SourceID,
			Location:   domain.NewCitation(r).Location(),
			VariantTag: r.Passage.VariantTag,
			Score:      r.AdjustedScore,
			Similarity: r.RawSimilarity,
			Text:       r.Passage.Text,
		}
	}

	return nil, output, nil
}
