package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

var (
	evalDataset string
	evalAnswers bool
	evalJudge   bool
	evalJSON    bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Measure retrieval and answer quality",
	Long: `Runs every question of an evaluation dataset through retrieval and reports
the hit rate and mean reciprocal rank of the first passage containing an
expected keyword.

With --answers each question also goes through the grounding gate and the
outcome states are counted. With --judge the generation model scores context
relevance, faithfulness and answer relevance (implies --answers).

Without --dataset a built-in set of 911 questions is used. Dataset files are
YAML lists of {id, question, expected_keywords}.`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVarP(&evalDataset, "dataset", "d", "", "YAML dataset path (default: built-in questions)")
	evalCmd.Flags().BoolVar(&evalAnswers, "answers", false, "also run the grounding gate and count outcomes")
	evalCmd.Flags().BoolVar(&evalJudge, "judge", false, "score answers with the generation model")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, _ []string) error {
	if evaluationService == nil {
		return notConfigured("evaluation")
	}
	if datasetLoader == nil {
		return notConfigured("dataset")
	}
	ctx := commandContext(cmd)

	questions, err := datasetLoader.Load(evalDataset)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}
	if _, err := openQueryService(ctx); err != nil {
		return err
	}

	report, err := evaluationService.Evaluate(ctx, questions, domain.EvalOptions{
		Answers: evalAnswers,
		Judge:   evalJudge,
	})
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if evalJSON {
		return printJSON(cmd, report)
	}
	printEvalReport(cmd, report)
	return nil
}

func printEvalReport(cmd *cobra.Command, report *domain.EvalReport) {
	cmd.Printf("Evaluation (%d questions)\n", report.Questions)
	cmd.Println("==========")
	cmd.Printf("  Hit rate: %.3f\n", report.HitRate)
	cmd.Printf("  MRR:      %.3f\n", report.MRR)
	cmd.Println()

	for _, item := range report.Items {
		hit := "miss"
		if item.FirstHit > 0 {
			hit = fmt.Sprintf("hit@%d", item.FirstHit)
		}
		cmd.Printf("  [%s] %-7s %s\n", item.ID, hit, item.Question)
		if item.State != "" {
			cmd.Printf("          %s: %s\n", item.State, snippet(item.Answer, 100))
		}
	}

	if len(report.Outcomes) > 0 {
		states := make([]string, 0, len(report.Outcomes))
		for s := range report.Outcomes {
			states = append(states, string(s))
		}
		sort.Strings(states)
		cmd.Println()
		cmd.Println("[Outcomes]")
		for _, s := range states {
			cmd.Printf("  %s: %d\n", s, report.Outcomes[domain.GateState(s)])
		}
	}

	if j := report.Judgement; j != nil {
		cmd.Println()
		cmd.Println("[Judge]")
		cmd.Printf("  Context relevance: %.2f\n", j.ContextRelevance)
		cmd.Printf("  Faithfulness:      %.2f\n", j.Faithfulness)
		cmd.Printf("  Answer relevance:  %.2f\n", j.AnswerRelevance)
	}
}
