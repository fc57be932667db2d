package driving

import "github.com/custodia-labs/synindex/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the current settings with defaults applied.
	Get() (domain.Settings, error)

	// Save validates and persists settings.
	Save(settings domain.Settings) error

	// SetEmbeddingProvider switches the embedding provider and model.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SchedulerConfig returns the scheduler configuration for settings.
	SchedulerConfig(settings domain.Settings) domain.SchedulerConfig
}
