package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kurator/internal/connectors/filesystem"
	"github.com/custodia-labs/kurator/internal/core/domain"
)

var (
	ingestIncremental bool
	ingestWorkers     int
	ingestWatch       bool
	ingestDebounce    time.Duration
	ingestJSON        bool
)

// changeWatcher reports batches of changed corpus paths.
type changeWatcher interface {
	Watch(ctx context.Context) (<-chan []string, error)
	Close() error
}

// newWatcher is swapped in tests.
var newWatcher = func(paths []string, debounce time.Duration) changeWatcher {
	return filesystem.New(paths, debounce)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Build the index store from a document set",
	Long: `Parses every supported document (.txt, .md, .html, .pdf, .docx, .pptx)
under the given paths, normalises and chunks the text, embeds each passage and
persists the result as a new index store generation.

Without paths the configured corpus directory is used. Readers keep serving
the previous generation until they reload.

With --incremental only new or modified documents are re-embedded.
With --watch the command keeps running and re-ingests incrementally whenever
the corpus changes.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestIncremental, "incremental", "i", false, "only process new or modified documents")
	ingestCmd.Flags().IntVarP(&ingestWorkers, "workers", "w", 0, "parallel documents (0 = configured default)")
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "keep watching the corpus and re-ingest on change")
	ingestCmd.Flags().DurationVar(&ingestDebounce, "debounce", filesystem.DefaultDebounce,
		"quiet period before a watched change is ingested")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the ingest report as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return notConfigured("ingest")
	}
	ctx := commandContext(cmd)

	paths, err := ingestPaths(args)
	if err != nil {
		return err
	}

	opts := domain.IngestOptions{Incremental: ingestIncremental, Workers: ingestWorkers}
	if err := ingestOnce(ctx, cmd, paths, opts); err != nil {
		return err
	}
	if !ingestWatch {
		return nil
	}
	return watchAndIngest(ctx, cmd, paths)
}

// ingestPaths returns args, or the configured corpus directory.
func ingestPaths(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if settingsService == nil {
		return nil, errors.New("no paths given and settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if settings.Ingest.CorpusDir == "" {
		return nil, errors.New("no paths given and ingest.corpus_dir is not set")
	}
	return []string{settings.Ingest.CorpusDir}, nil
}

func ingestOnce(ctx context.Context, cmd *cobra.Command, paths []string, opts domain.IngestOptions) error {
	report, err := ingestService.Ingest(ctx, paths, opts)
	if report != nil {
		if ingestJSON {
			if jerr := printJSON(cmd, report); jerr != nil {
				return jerr
			}
		} else {
			printIngestReport(cmd, report)
		}
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

func watchAndIngest(ctx context.Context, cmd *cobra.Command, paths []string) error {
	w := newWatcher(paths, ingestDebounce)
	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	defer func() { _ = w.Close() }()

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	opts := domain.IngestOptions{Incremental: true, Workers: ingestWorkers}
	for batch := range changes {
		cmd.Printf("\n%d change(s) detected, re-ingesting...\n", len(batch))
		// A failed run keeps the previous generation; keep watching.
		if err := ingestOnce(ctx, cmd, paths, opts); err != nil {
			cmd.PrintErrf("Error: %v\n", err)
		}
	}
	return nil
}

func printIngestReport(cmd *cobra.Command, report *domain.IngestReport) {
	if report.Generation != "" {
		cmd.Printf("Generation %s: %d passages\n", report.Generation, report.Passages)
	}
	cmd.Printf("  Processed: %d\n", len(report.Processed))
	cmd.Printf("  Unchanged: %d\n", len(report.Unchanged))
	cmd.Printf("  Failed:    %d\n", len(report.Failed))

	if len(report.Failed) > 0 {
		ids := make([]string, 0, len(report.Failed))
		for id := range report.Failed {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		cmd.Println()
		for _, id := range ids {
			cmd.Printf("  %s: %s\n", id, report.Failed[id])
		}
	}
	cmd.Printf("Completed in %s\n", report.Duration.Round(time.Millisecond))
}
