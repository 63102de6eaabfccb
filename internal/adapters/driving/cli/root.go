package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
	"github.com/custodia-labs/kurator/internal/core/ports/driving"
	"github.com/custodia-labs/kurator/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// annotationNoServices marks commands that run without wiring services.
const annotationNoServices = "no-services"

var (
	verbose    bool
	envFile    string
	configPath string
)

// StoreInspector reads persisted index store generations.
type StoreInspector interface {
	// Load opens and validates the current generation.
	Load(ctx context.Context) (driven.IndexStore, error)

	// Generations lists the generation identifiers on disk.
	Generations() ([]string, error)

	// Location returns the store directory.
	Location() string
}

// DatasetLoader reads evaluation datasets.
type DatasetLoader interface {
	// Load reads the dataset at path. An empty path returns the built-in set.
	Load(path string) ([]domain.EvalQuestion, error)
}

// Services are the core services the commands drive.
type Services struct {
	Settings   driving.SettingsService
	Ingest     driving.IngestService
	Query      driving.QueryService
	Evaluation driving.EvaluationService
	Store      StoreInspector
	Datasets   DatasetLoader

	// Unavailable explains why provider-backed services are nil. Settings
	// stay usable so a broken configuration can be repaired.
	Unavailable error
}

// ServicesLoader builds the services once flags and environment are known.
// An empty configPath selects the default config file.
type ServicesLoader func(ctx context.Context, configPath string) (*Services, error)

var (
	loadServices ServicesLoader

	settingsService   driving.SettingsService
	ingestService     driving.IngestService
	queryService      driving.QueryService
	evaluationService driving.EvaluationService
	storeInspector    StoreInspector
	datasetLoader     DatasetLoader
	unavailable       error
)

var rootCmd = &cobra.Command{
	Use:   "kurator",
	Short: "Grounded question answering over the 911 document corpus",
	Long: `Kurator indexes a fixed set of technical documents and answers questions
using only the passages it retrieves. When the retrieved evidence is too weak
it abstains instead of guessing.

Typical workflow:
  kurator ingest data/raw
  kurator ask "What is the top speed of the 911 GT3?"`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with provider API keys")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.kurator/config.toml)")
}

// SetServicesLoader registers the function that wires services before a
// command runs.
func SetServicesLoader(loader ServicesLoader) {
	loadServices = loader
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if loadServices == nil || cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}
	svc, err := loadServices(commandContext(cmd), configPath)
	if err != nil {
		return err
	}
	applyServices(svc)
	return nil
}

func applyServices(svc *Services) {
	settingsService = svc.Settings
	ingestService = svc.Ingest
	queryService = svc.Query
	evaluationService = svc.Evaluation
	storeInspector = svc.Store
	datasetLoader = svc.Datasets
	unavailable = svc.Unavailable
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// notConfigured reports a missing service, with the wiring failure if known.
func notConfigured(name string) error {
	if unavailable != nil {
		return fmt.Errorf("%s service not configured: %w", name, unavailable)
	}
	return fmt.Errorf("%s service not configured", name)
}

// opener is implemented by query services that load their store lazily.
type opener interface {
	Open(ctx context.Context) error
}

// openQueryService returns the query service with its store loaded.
// A missing or mismatched store stops the command before any query runs.
func openQueryService(ctx context.Context) (driving.QueryService, error) {
	if queryService == nil {
		return nil, notConfigured("query")
	}
	if o, ok := queryService.(opener); ok {
		if err := o.Open(ctx); err != nil {
			if errors.Is(err, domain.ErrStoreNotFound) {
				return nil, fmt.Errorf("%w (run 'kurator ingest' first)", err)
			}
			return nil, err
		}
	}
	return queryService, nil
}
