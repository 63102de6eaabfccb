package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
	"github.com/custodia-labs/kurator/internal/core/ports/driving"
	"github.com/custodia-labs/kurator/internal/logger"
)

// Ensure EvaluationService implements the interface.
var _ driving.EvaluationService = (*EvaluationService)(nil)

// judgeContextLimit caps the context shown to the judge, in characters.
const judgeContextLimit = 3000

// judgeFallback is the score used when the judge fails or gives no number.
const judgeFallback = 0.5

var scorePattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// EvaluationService measures retrieval hit rate and MRR on a keyword
// dataset and optionally scores answers with an LLM judge.
type EvaluationService struct {
	retriever driving.RetrievalService
	answers   driving.AnswerService
	judge     driven.LLMService
	prompts   driven.PromptStore
	opts      domain.RetrieveOptions
}

// NewEvaluationService creates an evaluation service. answers, judge and
// prompts are only needed for the answer and judge stages.
func NewEvaluationService(
	retriever driving.RetrievalService,
	answers driving.AnswerService,
	judge driven.LLMService,
	prompts driven.PromptStore,
	opts domain.RetrieveOptions,
) *EvaluationService {
	return &EvaluationService{
		retriever: retriever,
		answers:   answers,
		judge:     judge,
		prompts:   prompts,
		opts:      opts,
	}
}

// Evaluate runs every question and aggregates the metrics.
func (s *EvaluationService) Evaluate(
	ctx context.Context, questions []domain.EvalQuestion, opts domain.EvalOptions,
) (*domain.EvalReport, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: empty evaluation dataset", domain.ErrInvalidInput)
	}
	if opts.Judge {
		opts.Answers = true
		if s.judge == nil || s.prompts == nil {
			return nil, fmt.Errorf("%w: judging needs a generation provider", domain.ErrGenerationUnavailable)
		}
	}
	if opts.Answers && s.answers == nil {
		return nil, fmt.Errorf("%w: no answer service", domain.ErrInvalidInput)
	}

	logger.Section("Evaluation")
	report := &domain.EvalReport{Questions: len(questions)}
	if opts.Answers {
		report.Outcomes = make(map[domain.GateState]int)
	}

	var (
		hits     int
		rrSum    float64
		judgeSum domain.Judgement
		judged   int
	)
	for _, q := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		results, err := s.retriever.Retrieve(ctx, q.Question, s.opts)
		if err != nil {
			logger.Warn("%s: retrieval failed: %v", q.ID, err)
		}

		item := domain.EvalItemResult{
			ID:       q.ID,
			Question: q.Question,
			FirstHit: FirstHit(results, q.ExpectedKeywords),
		}
		if item.FirstHit > 0 {
			hits++
			rrSum += 1.0 / float64(item.FirstHit)
		}

		if opts.Answers {
			rec, err := s.answers.Answer(ctx, q.Question)
			if err != nil {
				return nil, fmt.Errorf("evaluate %s: %w", q.ID, err)
			}
			item.State = rec.State
			item.Answer = rec.Answer
			report.Outcomes[rec.State]++

			if opts.Judge {
				j := s.score(ctx, q.Question, BuildContext(results), rec.Answer)
				item.Judgement = &j
				judgeSum.ContextRelevance += j.ContextRelevance
				judgeSum.Faithfulness += j.Faithfulness
				judgeSum.AnswerRelevance += j.AnswerRelevance
				judged++
			}
		}

		logger.Debug("%s: first hit %d", q.ID, item.FirstHit)
		report.Items = append(report.Items, item)
	}

	n := float64(len(questions))
	report.HitRate = float64(hits) / n
	report.MRR = rrSum / n
	if judged > 0 {
		report.Judgement = &domain.Judgement{
			ContextRelevance: judgeSum.ContextRelevance / float64(judged),
			Faithfulness:     judgeSum.Faithfulness / float64(judged),
			AnswerRelevance:  judgeSum.AnswerRelevance / float64(judged),
		}
	}

	logger.Info("Hit rate %.3f, MRR %.3f over %d questions", report.HitRate, report.MRR, report.Questions)
	return report, nil
}

// FirstHit returns the 1-based rank of the first result containing any
// keyword, case-insensitively, or 0 when none does.
func FirstHit(results []domain.RetrievalResult, keywords []string) int {
	for i, r := range results {
		text := strings.ToLower(r.Passage.Text)
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(text, kw) {
				return i + 1
			}
		}
	}
	return 0
}

func (s *EvaluationService) score(ctx context.Context, question, passages, answer string) domain.Judgement {
	if len(passages) > judgeContextLimit {
		passages = passages[:judgeContextLimit]
	}
	vars := map[string]string{"question": question, "context": passages, "answer": answer}
	return domain.Judgement{
		ContextRelevance: s.ask(ctx, driven.PromptJudgeContext, vars),
		Faithfulness:     s.ask(ctx, driven.PromptJudgeFaithfulness, vars),
		AnswerRelevance:  s.ask(ctx, driven.PromptJudgeAnswer, vars),
	}
}

func (s *EvaluationService) ask(ctx context.Context, prompt string, vars map[string]string) float64 {
	tmpl, err := s.prompts.Load(prompt)
	if err != nil {
		logger.Warn("judge prompt %s: %v", prompt, err)
		return judgeFallback
	}
	out, err := s.judge.Generate(ctx, renderPrompt(tmpl, vars), driven.GenerateOptions{MaxTokens: 16})
	if err != nil {
		logger.Warn("judge %s failed: %v", prompt, err)
		return judgeFallback
	}
	return ParseJudgeScore(out)
}

// ParseJudgeScore reads the first number in a judge reply as a 0-10 score
// and rescales it to [0, 1]. Replies without a number score 0.5.
func ParseJudgeScore(reply string) float64 {
	m := scorePattern.FindString(reply)
	if m == "" {
		return judgeFallback
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return judgeFallback
	}
	return min(1.0, max(0.0, v/10))
}
