package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
	"github.com/custodia-labs/kurator/internal/core/ports/driving"
	"github.com/custodia-labs/kurator/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// PassageSeparator marks passage boundaries in the generation context.
const PassageSeparator = "\n\n---\n\n"

// AnswerConfig holds the tunables of the grounding gate.
type AnswerConfig struct {
	Retrieve    domain.RetrieveOptions
	Gate        domain.GateSettings
	Temperature float64
	MaxTokens   int

	// Timeout bounds the generation call. Zero means no bound beyond the
	// caller's context.
	Timeout time.Duration
}

// AnswerConfigFrom derives the gate configuration from app settings.
func AnswerConfigFrom(s *domain.AppSettings) AnswerConfig {
	return AnswerConfig{
		Retrieve:    s.Retrieval.RetrieveOptions,
		Gate:        s.Gate,
		Temperature: s.LLM.Temperature,
		MaxTokens:   s.LLM.MaxTokens,
		Timeout:     s.LLM.Timeout,
	}
}

// AnswerService runs the grounding gate:
// NO_QUERY -> RETRIEVED -> {ABSTAIN, GENERATING} -> {ANSWERED, ABSTAIN, FAILED}.
// It holds no per-query state, so one instance serves concurrent queries.
type AnswerService struct {
	retriever driving.RetrievalService
	llm       driven.LLMService
	prompts   driven.PromptStore
	lexicon   domain.Lexicon
	cfg       AnswerConfig
}

// NewAnswerService creates a grounding gate.
func NewAnswerService(
	retriever driving.RetrievalService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	lexicon domain.Lexicon,
	cfg AnswerConfig,
) *AnswerService {
	return &AnswerService{
		retriever: retriever,
		llm:       llm,
		prompts:   prompts,
		lexicon:   lexicon,
		cfg:       cfg,
	}
}

// gateRun accumulates the record of one query as it moves through states.
type gateRun struct {
	rec *domain.AnswerRecord
}

func (g *gateRun) enter(s domain.GateState) {
	g.rec.Trace = append(g.rec.Trace, s)
	g.rec.State = s
}

func (g *gateRun) finish(s domain.GateState, reason domain.OutcomeReason, answer string, err error) *domain.AnswerRecord {
	g.enter(s)
	g.rec.Reason = reason
	g.rec.Answer = answer
	g.rec.Err = err
	logger.Debug("Gate: %s (%s) confidence=%.3f threshold=%.3f", s, reason, g.rec.Confidence, g.rec.Threshold)
	return g.rec
}

// Answer runs one question through the gate. Service failures end in
// ABSTAIN or FAILED inside the record; only an empty question is an error.
func (a *AnswerService) Answer(ctx context.Context, question string) (*domain.AnswerRecord, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	logger.Section("Grounding Gate")
	logger.Debug("Question: %q", question)

	run := &gateRun{rec: &domain.AnswerRecord{
		Query:     question,
		Citations: []domain.Citation{},
		Threshold: a.cfg.Gate.ThresholdFor(a.lexicon.IsSpecQuery(question)),
	}}
	run.enter(domain.StateNoQuery)

	results, err := a.retriever.Retrieve(ctx, question, a.cfg.Retrieve)
	run.enter(domain.StateRetrieved)
	if err != nil {
		logger.Warn("Retrieval failed for %q: %v", question, err)
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return run.finish(domain.StateAbstain, domain.ReasonEmbeddingUnavailable, domain.AbstainAnswer, err), nil
		}
		return run.finish(domain.StateFailed, domain.ReasonRetrievalError, domain.FailureAnswer, err), nil
	}

	if len(results) == 0 {
		return run.finish(domain.StateAbstain, domain.ReasonNoRelevantPassages, domain.AbstainAnswer, nil), nil
	}

	run.rec.Confidence = Confidence(results)
	if run.rec.Confidence < run.rec.Threshold {
		return run.finish(domain.StateAbstain, domain.ReasonLowConfidence, domain.AbstainAnswer, nil), nil
	}

	run.enter(domain.StateGenerating)
	prompt, err := a.buildPrompt(question, results)
	if err != nil {
		logger.Warn("Prompt assembly failed: %v", err)
		return run.finish(domain.StateFailed, domain.ReasonGenerationError, domain.FailureAnswer, err), nil
	}

	answer, err := a.generate(ctx, prompt)
	if err != nil {
		logger.Warn("Generation failed for %q: %v", question, err)
		reason := domain.ReasonGenerationError
		if errors.Is(err, domain.ErrGenerationTimeout) {
			reason = domain.ReasonGenerationTimeout
		}
		return run.finish(domain.StateFailed, reason, domain.FailureAnswer, err), nil
	}

	answer = strings.TrimSpace(answer)
	if answer == "" || a.lexicon.IsRefusal(answer) {
		return run.finish(domain.StateAbstain, domain.ReasonModelRefusal, domain.AbstainAnswer, nil), nil
	}

	for _, r := range results {
		run.rec.Citations = append(run.rec.Citations, domain.NewCitation(r))
	}
	return run.finish(domain.StateAnswered, domain.ReasonAnswered, answer, nil), nil
}

// Confidence returns the highest pre-boost similarity among results,
// or 0 when there are none.
func Confidence(results []domain.RetrievalResult) float64 {
	best := 0.0
	for i, r := range results {
		if i == 0 || r.RawSimilarity > best {
			best = r.RawSimilarity
		}
	}
	return best
}

// BuildContext joins passage texts in rank order.
func BuildContext(results []domain.RetrievalResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Passage.Text
	}
	return strings.Join(texts, PassageSeparator)
}

func (a *AnswerService) buildPrompt(question string, results []domain.RetrievalResult) (string, error) {
	if a.prompts == nil {
		return "", errors.New("no prompt store configured")
	}
	tmpl, err := a.prompts.Load(driven.PromptGrounded)
	if err != nil {
		return "", fmt.Errorf("load grounding prompt: %w", err)
	}
	return renderPrompt(tmpl, map[string]string{
		"context":  BuildContext(results),
		"question": question,
		"refusal":  domain.AbstainAnswer,
	}), nil
}

// generate calls the provider and maps deadline expiry to
// ErrGenerationTimeout. The call runs in its own goroutine so a provider
// that ignores its context cannot hang the query.
func (a *AnswerService) generate(ctx context.Context, prompt string) (string, error) {
	if a.llm == nil {
		return "", fmt.Errorf("%w: no generation provider configured", domain.ErrGenerationUnavailable)
	}

	genCtx := ctx
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		text, err := a.llm.Generate(genCtx, prompt, driven.GenerateOptions{
			MaxTokens:   a.cfg.MaxTokens,
			Temperature: a.cfg.Temperature,
		})
		done <- reply{text: text, err: err}
	}()

	defer logger.Timed("generation")()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
				return "", fmt.Errorf("%w: %w", domain.ErrGenerationTimeout, res.err)
			}
			return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, res.err)
		}
		return res.text, nil
	case <-genCtx.Done():
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", domain.ErrGenerationTimeout, a.cfg.Timeout)
		}
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, genCtx.Err())
	}
}

// renderPrompt substitutes {name} placeholders.
func renderPrompt(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
