package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

var (
	askJSON bool

	retrieveTopK          int
	retrieveMinSimilarity float64
	retrieveJSON          bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieves the passages most relevant to the question and asks the
generation model to answer using only those passages.

If the best passage is not similar enough, the answer is a fixed abstention
sentence and no model call is made. Service failures produce a distinct
failure message so they are never mistaken for an abstention.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Show the passages retrieved for a query",
	Long: `Runs retrieval only: embeds the query, searches the index store and
applies the similarity floor, length filter, deduplication and variant boost.
No answer is generated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer record as JSON")
	rootCmd.AddCommand(askCmd)

	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "maximum number of passages (0 = configured default)")
	retrieveCmd.Flags().Float64Var(&retrieveMinSimilarity, "min-similarity", -1,
		"similarity floor (negative = configured default)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	query, err := openQueryService(ctx)
	if err != nil {
		return err
	}

	rec, err := query.Answer(ctx, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, rec)
	}
	printAnswer(cmd.OutOrStdout(), rec)
	return nil
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	query, err := openQueryService(ctx)
	if err != nil {
		return err
	}

	opts := query.RetrieveOptions()
	if retrieveTopK > 0 {
		opts.TopK = retrieveTopK
	}
	if retrieveMinSimilarity >= 0 {
		opts.MinSimilarity = retrieveMinSimilarity
	}

	results, err := query.Retrieve(ctx, strings.Join(args, " "), opts)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		return printJSON(cmd, results)
	}
	printResults(cmd.OutOrStdout(), results)
	return nil
}

// printAnswer renders an answer record for humans.
func printAnswer(w io.Writer, rec *domain.AnswerRecord) {
	fmt.Fprintln(w, rec.Answer)

	if len(rec.Citations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sources:")
		for i, c := range rec.Citations {
			variant := ""
			if c.VariantTag != "" {
				variant = " [" + c.VariantTag + "]"
			}
			fmt.Fprintf(w, "  [%d] %s, %s%s (%.2f)\n", i+1, c.SourceID, c.Location(), variant, c.Score)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "State: %s (%s), confidence %.3f, threshold %.3f\n",
		rec.State, rec.Reason, rec.Confidence, rec.Threshold)
	if rec.Err != nil {
		fmt.Fprintf(w, "Error: %v\n", rec.Err)
	}
}

// printResults renders retrieval results for humans.
func printResults(w io.Writer, results []domain.RetrievalResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No relevant passages found.")
		return
	}

	fmt.Fprintln(w, "Results:")
	fmt.Fprintln(w)
	for i, r := range results {
		c := domain.NewCitation(r)
		boost := ""
		if r.Boosted() {
			boost = fmt.Sprintf(", boosted from %.3f", r.RawSimilarity)
		}
		fmt.Fprintf(w, "  [%d] %s, %s (%.3f%s)\n", i+1, c.SourceID, c.Location(), r.AdjustedScore, boost)
		if r.Passage.VariantTag != "" {
			fmt.Fprintf(w, "      Variant: %s\n", r.Passage.VariantTag)
		}
		fmt.Fprintf(w, "      %s\n", snippet(r.Passage.Text, 160))
		fmt.Fprintln(w)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// snippet shortens text to at most n runes on a single line.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
