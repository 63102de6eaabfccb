package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

var (
	storeInfoJSON  bool
	storeInfoFiles bool
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the index store",
	Long: `Commands for inspecting persisted index store generations.

Each ingestion writes a new generation. The newest three are kept so a
reader that opened an older one can finish before it is removed.`,
}

var storeInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe the current generation",
	RunE:  runStoreInfo,
}

var storeVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the current generation can be served",
	Long: `Loads the current generation exactly as the query engine would at startup
and checks it against the configured embedding model. A store that fails
verification will not be served.`,
	RunE: runStoreVerify,
}

func init() {
	storeInfoCmd.Flags().BoolVar(&storeInfoJSON, "json", false, "output as JSON")
	storeInfoCmd.Flags().BoolVar(&storeInfoFiles, "sources", false, "list ingested source documents")
	storeCmd.AddCommand(storeInfoCmd)
	storeCmd.AddCommand(storeVerifyCmd)
	rootCmd.AddCommand(storeCmd)
}

func runStoreInfo(cmd *cobra.Command, _ []string) error {
	if storeInspector == nil {
		return notConfigured("store")
	}

	store, err := storeInspector.Load(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("loading store from %s: %w", storeInspector.Location(), err)
	}
	info := store.Info()

	if storeInfoJSON {
		return printJSON(cmd, info)
	}

	cmd.Printf("Location:        %s\n", storeInspector.Location())
	cmd.Printf("Generation:      %s\n", info.Generation)
	cmd.Printf("Created:         %s\n", info.CreatedAt.Local().Format(time.RFC3339))
	cmd.Printf("Embedding model: %s (%d dimensions)\n", info.EmbeddingModel, info.Dimensions)
	cmd.Printf("Passages:        %d\n", info.Passages)
	cmd.Printf("Sources:         %d\n", info.Sources)

	gens, err := storeInspector.Generations()
	if err == nil && len(gens) > 1 {
		cmd.Printf("On disk:         %d generations\n", len(gens))
	}

	if storeInfoFiles {
		cmd.Println()
		for _, src := range store.Sources() {
			cmd.Printf("  %s (%d passages)\n", src.SourceID, src.Passages)
		}
	}
	return nil
}

func runStoreVerify(cmd *cobra.Command, _ []string) error {
	if storeInspector == nil {
		return notConfigured("store")
	}

	store, err := storeInspector.Load(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("store verification failed: %w", err)
	}
	info := store.Info()

	if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		if err := checkEmbeddingModel(info, settings.Embedding.Model); err != nil {
			return fmt.Errorf("store verification failed: %w", err)
		}
	}

	cmd.Printf("Generation %s is valid: %d passages, %d dimensions.\n",
		info.Generation, info.Passages, info.Dimensions)
	return nil
}

// checkEmbeddingModel compares the store with the configured model. Unknown
// models are only checked by name.
func checkEmbeddingModel(info domain.StoreInfo, model string) error {
	if want, ok := domain.EmbeddingDimensions()[model]; ok && want != info.Dimensions {
		return fmt.Errorf("%w: %s produces %d dimensions, store has %d",
			domain.ErrDimensionMismatch, model, want, info.Dimensions)
	}
	if info.EmbeddingModel != "" && info.EmbeddingModel != model {
		return fmt.Errorf("%w: store was built with %s, configured model is %s",
			domain.ErrDimensionMismatch, info.EmbeddingModel, model)
	}
	return nil
}
