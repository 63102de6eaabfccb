package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure providers, retrieval parameters and gate thresholds.

Settings live in ~/.kurator/config.toml. API keys are never stored there;
they are read from the environment (OPENAI_API_KEY, ANTHROPIC_API_KEY,
GEMINI_API_KEY), optionally loaded from a .env file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a setting",
	Long: `Set one setting by its dotted key, for example:

  kurator settings set llm.provider anthropic
  kurator settings set gate.spec_threshold 0.4
  kurator settings set retrieval.top_k 8

Run 'kurator settings keys' for the full list.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	RunE:  runSettingsKeys,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check settings and ping the configured providers",
	RunE:  runSettingsValidate,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return notConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Printf("  Temperature: %.2f\n", settings.LLM.Temperature)
	cmd.Printf("  Max tokens: %d\n", settings.LLM.MaxTokens)
	cmd.Printf("  Timeout: %s\n", settings.LLM.Timeout)
	cmd.Println()

	r := settings.Retrieval
	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", r.TopK)
	cmd.Printf("  Min similarity: %.2f\n", r.MinSimilarity)
	cmd.Printf("  Min chunk length: %d\n", r.MinChunkLength)
	cmd.Printf("  Variant boost: %.2f\n", r.VariantBoost)
	cmd.Printf("  Cache size: %d\n", r.CacheSize)
	cmd.Println()

	cmd.Println("[Gate]")
	cmd.Printf("  Descriptive threshold: %.2f\n", settings.Gate.DescriptiveThreshold)
	cmd.Printf("  Spec threshold: %.2f\n", settings.Gate.SpecThreshold)
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Corpus: %s\n", settings.Ingest.CorpusDir)
	cmd.Printf("  Workers: %d\n", settings.Ingest.Workers)
	cmd.Printf("  Batch size: %d\n", settings.Ingest.BatchSize)
	cmd.Printf("  Chunk size: %d chars, %d sentence overlap\n",
		settings.Chunking.MaxChars, settings.Chunking.SentenceOverlap)
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Directory: %s\n", settings.StoreDir)
	if settings.LexiconPath != "" {
		cmd.Printf("  Lexicon: %s\n", settings.LexiconPath)
	} else {
		cmd.Println("  Lexicon: (built-in)")
	}
	cmd.Println()

	if err := settingsService.Validate(commandContext(cmd)); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'kurator settings set' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set, export %s)\n", provider.APIKeyEnv())
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return notConfigured("settings")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return notConfigured("settings")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return notConfigured("settings")
	}
	if err := settingsService.Validate(commandContext(cmd)); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
