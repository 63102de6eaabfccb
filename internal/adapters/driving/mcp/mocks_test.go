package mcp

import (
	"context"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// --- Mock implementations ---

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	record   *domain.AnswerRecord
	results  []domain.RetrievalResult
	info     domain.StoreInfo
	err      error
	lastOpts domain.RetrieveOptions
}

func (m *mockQueryService) Answer(_ context.Context, q string) (*domain.AnswerRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.record != nil {
		return m.record, nil
	}
	return &domain.AnswerRecord{Query: q, Answer: domain.AbstainAnswer, State: domain.StateAbstain}, nil
}

func (m *mockQueryService) Retrieve(
	_ context.Context, _ string, opts domain.RetrieveOptions,
) ([]domain.RetrievalResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockQueryService) RetrieveOptions() domain.RetrieveOptions {
	return domain.DefaultRetrieveOptions()
}

func (m *mockQueryService) Reload(_ context.Context) (domain.StoreInfo, error) {
	return m.info, m.err
}

func (m *mockQueryService) Info() (domain.StoreInfo, error) {
	return m.info, m.err
}
