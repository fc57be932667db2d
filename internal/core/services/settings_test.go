package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/synindex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/synindex/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("index.roots", []any{"/etc/synapse", "/srv/flows"})
	_ = store.Set("index.poll_interval", "2m")
	_ = store.Set("store.driver", "memory")
	_ = store.Set("embedding.provider", "ollama")
	_ = store.Set("embedding.model", "nomic-embed-text")
	_ = store.Set("embedding.requests_per_second", 2.5)
	_ = store.Set("chunker.token_budget", int64(64))
	_ = store.Set("search.cache_size", int64(0))
	_ = store.Set("telemetry.stdout", true)

	settings, err := LoadSettings(store)

	require.NoError(t, err)
	assert.Equal(t, []string{"/etc/synapse", "/srv/flows"}, settings.Index.Roots)
	assert.Equal(t, []string{".xml"}, settings.Index.Extensions)
	assert.Equal(t, 2*time.Minute, settings.Index.PollInterval)
	assert.Equal(t, domain.StoreDriverMemory, settings.Store.Driver)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, 768, settings.Embedding.Dimensions)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	assert.InDelta(t, 2.5, settings.Embedding.RequestsPerSecond, 1e-9)
	assert.Equal(t, 64, settings.Chunker.TokenBudget)
	assert.Zero(t, settings.Search.CacheSize)
	assert.True(t, settings.Telemetry.Stdout)
}

func TestSettingsService_Get_InvalidEnumsReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "invalid_provider")
	_ = store.Set("store.driver", "postgres")

	settings, err := LoadSettings(store)

	require.NoError(t, err)
	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Store.Driver, settings.Store.Driver)
}

func TestSettingsService_Get_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"zero poll interval", "index.poll_interval", "0s"},
		{"zero budget", "chunker.token_budget", 0},
		{"negative cache", "search.cache_size", -1},
		{"zero limit", "search.default_limit", 0},
		{"negative rate", "embedding.requests_per_second", -1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			require.NoError(t, store.Set(tt.key, tt.value))

			_, err := LoadSettings(store)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_Get_OpenAIKeyFromEnv(t *testing.T) {
	t.Setenv(EnvOpenAIKey, "sk-env")
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "openai")

	settings, err := LoadSettings(store)

	require.NoError(t, err)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
	assert.Equal(t, 1536, settings.Embedding.Dimensions)
	assert.Empty(t, settings.Embedding.BaseURL)
}

func TestSettingsService_Get_OpenAIRequiresKey(t *testing.T) {
	t.Setenv(EnvOpenAIKey, "")
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "openai")

	_, err := LoadSettings(store)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings := domain.DefaultSettings()
	settings.Index.Roots = []string{"/srv/flows"}
	settings.Index.PollInterval = 45 * time.Second
	settings.Store.Driver = domain.StoreDriverMemory
	settings.Search.DefaultLimit = 10
	require.NoError(t, service.Save(settings))

	loaded, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)
}

func TestSettingsService_SaveRejectsInvalid(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings := domain.DefaultSettings()
	settings.Index.Roots = nil

	assert.ErrorIs(t, service.Save(settings), domain.ErrInvalidInput)
	_, exists := store.Get("index.roots")
	assert.False(t, exists)
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Setenv(EnvOpenAIKey, "")

	t.Run("hashing default model", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore())
		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderHashing, "", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderHashing, settings.Embedding.Provider)
		assert.Equal(t, "hashing-v1", settings.Embedding.Model)
		assert.Equal(t, domain.DefaultDimensions, settings.Embedding.Dimensions)
	})

	t.Run("openai with key", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore())
		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk-test"))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, 3072, settings.Embedding.Dimensions)
		assert.Equal(t, "sk-test", settings.Embedding.APIKey)
		assert.Empty(t, settings.Embedding.BaseURL)
	})

	t.Run("openai key from environment is not stored", func(t *testing.T) {
		t.Setenv(EnvOpenAIKey, "sk-env")
		store := memory.NewConfigStore()
		service := NewSettingsService(store)
		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))

		assert.Empty(t, store.GetString("embedding.api_key"))
	})

	t.Run("openai without key", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore())
		err := service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("invalid provider", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore())
		err := service.SetEmbeddingProvider(domain.AIProvider("anthropic"), "", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSettingsService_SchedulerConfig(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)
	settings := domain.DefaultSettings()
	settings.Index.PollInterval = time.Minute

	cfg := service.SchedulerConfig(settings)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, time.Minute, cfg.GetTaskConfig(domain.TaskIDIndexPoll).Interval)

	_ = store.Set("scheduler.enabled", false)
	_ = store.Set("scheduler.history_limit", int64(5))
	cfg = service.SchedulerConfig(settings)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 5, cfg.HistoryLimit)
}
