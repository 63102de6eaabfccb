package driving

import (
	"context"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, defaults filled in.
	Get() (*domain.AppSettings, error)

	// Set updates one setting by its dotted key and persists it.
	Set(key, value string) error

	// Keys returns every recognised setting key.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Validate checks setting ranges and that the configured providers
	// answer a ping.
	Validate(ctx context.Context) error
}
