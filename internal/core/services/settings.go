package services

import (
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/ports/driven"
	"github.com/custodia-labs/synindex/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyIndexRoots        = "index.roots"
	keyIndexExtensions   = "index.extensions"
	keyIndexPollInterval = "index.poll_interval"
	keyStoreDriver       = "store.driver"
	keyStorePath         = "store.path"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedDimensions   = "embedding.dimensions"
	keyEmbedRPS          = "embedding.requests_per_second"
	keyChunkerBudget     = "chunker.token_budget"
	keyChunkerMinToken   = "chunker.min_token_length"
	keySearchLimit       = "search.default_limit"
	keySearchCacheSize   = "search.cache_size"
	keyTelemetryStdout   = "telemetry.stdout"
	keySchedulerEnabled  = "scheduler.enabled"
	keySchedulerHistory  = "scheduler.history_limit"
)

// EnvOpenAIKey is read when embedding.api_key is not configured.
const EnvOpenAIKey = "OPENAI_API_KEY"

// SettingsService reads and writes typed settings over a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// LoadSettings reads and validates settings from store.
func LoadSettings(store driven.ConfigStore) (domain.Settings, error) {
	return NewSettingsService(store).Get()
}

// Get returns the current settings. Missing keys take their defaults and
// unknown enum values fall back to the default. The result is validated.
func (s *SettingsService) Get() (domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := domain.Settings{
		Index: domain.IndexSettings{
			Roots:        s.getStrings(keyIndexRoots, d.Index.Roots),
			Extensions:   s.getStrings(keyIndexExtensions, d.Index.Extensions),
			PollInterval: s.getDuration(keyIndexPollInterval, d.Index.PollInterval),
		},
		Store: domain.StoreSettings{
			Driver: s.getDriver(d.Store.Driver),
			Path:   s.configStore.GetString(keyStorePath),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(d.Embedding.Provider),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
		},
		Chunker: domain.ChunkerSettings{
			TokenBudget:    s.getInt(keyChunkerBudget, d.Chunker.TokenBudget),
			MinTokenLength: s.getInt(keyChunkerMinToken, d.Chunker.MinTokenLength),
		},
		Search: domain.SearchSettings{
			DefaultLimit: s.getInt(keySearchLimit, d.Search.DefaultLimit),
			CacheSize:    s.getInt(keySearchCacheSize, d.Search.CacheSize),
		},
		Telemetry: domain.TelemetrySettings{
			Stdout: s.getBool(keyTelemetryStdout, d.Telemetry.Stdout),
		},
	}

	emb := &settings.Embedding
	emb.Model = s.configStore.GetString(keyEmbedModel)
	if emb.Model == "" {
		emb.Model = domain.DefaultEmbeddingModels()[emb.Provider]
	}
	if emb.BaseURL == "" && emb.Provider == domain.AIProviderOllama {
		emb.BaseURL = d.Embedding.BaseURL
	}
	if emb.APIKey == "" && emb.Provider == domain.AIProviderOpenAI {
		emb.APIKey = os.Getenv(EnvOpenAIKey)
	}
	emb.Dimensions = s.configStore.GetInt(keyEmbedDimensions)
	if emb.Dimensions == 0 {
		emb.Dimensions = dimensionsFor(emb.Model)
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// Save persists settings.
func (s *SettingsService) Save(settings domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyIndexRoots, settings.Index.Roots},
		{keyIndexExtensions, settings.Index.Extensions},
		{keyIndexPollInterval, settings.Index.PollInterval.String()},
		{keyStoreDriver, settings.Store.Driver.String()},
		{keyStorePath, settings.Store.Path},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedAPIKey, settings.Embedding.APIKey},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyChunkerBudget, settings.Chunker.TokenBudget},
		{keyChunkerMinToken, settings.Chunker.MinTokenLength},
		{keySearchLimit, settings.Search.DefaultLimit},
		{keySearchCacheSize, settings.Search.CacheSize},
		{keyTelemetryStdout, settings.Telemetry.Stdout},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("setting %s: %w", v.key, err)
		}
	}

	return s.configStore.Save()
}

// SetEmbeddingProvider configures the embedding provider. An empty model
// selects the provider's default, and dimensions follow the model.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && os.Getenv(EnvOpenAIKey) == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		settings = domain.DefaultSettings()
	}

	settings.Embedding.Provider = provider
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.Model = model

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" && provider == domain.AIProviderOllama {
			settings.Embedding.BaseURL = domain.DefaultSettings().Embedding.BaseURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey
	if apiKey == "" && provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = os.Getenv(EnvOpenAIKey)
	}
	settings.Embedding.Dimensions = dimensionsFor(model)

	if err := s.Save(settings); err != nil {
		return err
	}
	// Keep the key out of the file when it came from the environment.
	if apiKey == "" {
		if err := s.configStore.Set(keyEmbedAPIKey, ""); err != nil {
			return err
		}
		return s.configStore.Save()
	}
	return nil
}

// SchedulerConfig returns the scheduler configuration for settings.
func (s *SettingsService) SchedulerConfig(settings domain.Settings) domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig(settings.Index.PollInterval)
	cfg.Enabled = s.getBool(keySchedulerEnabled, cfg.Enabled)
	cfg.HistoryLimit = s.getInt(keySchedulerHistory, cfg.HistoryLimit)
	return cfg
}

// dimensionsFor returns the known output size of model, or the default.
func dimensionsFor(model string) int {
	if d, ok := domain.EmbeddingDimensions()[model]; ok {
		return d
	}
	return domain.DefaultDimensions
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetDuration(key)
}

func (s *SettingsService) getStrings(key string, defaultVal []string) []string {
	if val := s.configStore.GetStringSlice(key); len(val) > 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(keyEmbedProvider)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getDriver(defaultVal domain.StoreDriver) domain.StoreDriver {
	val := s.configStore.GetString(keyStoreDriver)
	if val == "" {
		return defaultVal
	}
	driver := domain.StoreDriver(val)
	if !driver.IsValid() {
		return defaultVal
	}
	return driver
}
