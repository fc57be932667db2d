package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// Defaults used when configuration leaves a value unset.
const (
	DefaultPollInterval   = 30 * time.Second
	DefaultTokenBudget    = 150
	DefaultMinTokenLength = 3
	DefaultSearchLimit    = 5
	DefaultCacheSize      = 256
	DefaultEmbeddingModel = "all-minilm"
	DefaultDimensions     = 384
)

// AIProvider identifies an embedding provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderHashing is an offline feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderHashing:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderHashing:
		return "Feature hashing (offline)"
	default:
		return unknownDescription
	}
}

// StoreDriver selects the FragmentStore implementation.
type StoreDriver string

// Available store drivers.
const (
	StoreDriverSQLite StoreDriver = "sqlite"
	StoreDriverMemory StoreDriver = "memory"
)

// IsValid returns true if the driver is recognised.
func (d StoreDriver) IsValid() bool {
	return d == StoreDriverSQLite || d == StoreDriverMemory
}

// String returns the string representation.
func (d StoreDriver) String() string {
	return string(d)
}

// IndexSettings controls document discovery.
type IndexSettings struct {
	// Roots are the directories scanned for documents.
	Roots []string

	// Extensions filters discovered files. Empty accepts every file.
	Extensions []string

	// PollInterval is the fixed delay between poll cycles.
	PollInterval time.Duration
}

// StoreSettings selects and locates the fragment store.
type StoreSettings struct {
	// Driver is sqlite or memory.
	Driver StoreDriver

	// Path is the directory holding the SQLite database. Empty uses
	// ~/.synindex/data.
	Path string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (Ollama, or an OpenAI-compatible server).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size the model produces.
	Dimensions int

	// RequestsPerSecond limits embedding calls. Zero disables the limit.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ChunkerSettings bounds the text built for each fragment.
type ChunkerSettings struct {
	// TokenBudget caps the content tokens per fragment.
	TokenBudget int

	// MinTokenLength drops shorter content tokens.
	MinTokenLength int
}

// SearchSettings holds query defaults.
type SearchSettings struct {
	// DefaultLimit is used when a query does not set one.
	DefaultLimit int

	// CacheSize is the number of query vectors kept. Zero disables caching.
	CacheSize int
}

// TelemetrySettings controls trace export.
type TelemetrySettings struct {
	// Stdout exports spans to stderr when set.
	Stdout bool
}

// Settings holds all application settings.
type Settings struct {
	Index     IndexSettings
	Store     StoreSettings
	Embedding EmbeddingSettings
	Chunker   ChunkerSettings
	Search    SearchSettings
	Telemetry TelemetrySettings
}

// DefaultSettings returns settings that work against a local Ollama.
func DefaultSettings() Settings {
	return Settings{
		Index: IndexSettings{
			Roots:        []string{"."},
			Extensions:   []string{".xml"},
			PollInterval: DefaultPollInterval,
		},
		Store: StoreSettings{
			Driver: StoreDriverSQLite,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOllama,
			Model:      DefaultEmbeddingModel,
			BaseURL:    "http://localhost:11434",
			Dimensions: DefaultDimensions,
		},
		Chunker: ChunkerSettings{
			TokenBudget:    DefaultTokenBudget,
			MinTokenLength: DefaultMinTokenLength,
		},
		Search: SearchSettings{
			DefaultLimit: DefaultSearchLimit,
			CacheSize:    DefaultCacheSize,
		},
	}
}

// Validate checks the settings for values no component can run with.
func (s Settings) Validate() error {
	if len(s.Index.Roots) == 0 {
		return fmt.Errorf("%w: index.roots must not be empty", ErrInvalidInput)
	}
	if s.Index.PollInterval <= 0 {
		return fmt.Errorf("%w: index.poll_interval must be positive", ErrInvalidInput)
	}
	if !s.Store.Driver.IsValid() {
		return fmt.Errorf("%w: unknown store.driver %q", ErrInvalidInput, s.Store.Driver)
	}
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding.provider %q", ErrInvalidInput, s.Embedding.Provider)
	}
	if s.Embedding.Provider.RequiresAPIKey() && s.Embedding.APIKey == "" {
		return fmt.Errorf("%w: embedding.api_key is required for %s", ErrInvalidInput, s.Embedding.Provider)
	}
	if s.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding.dimensions must be positive", ErrInvalidInput)
	}
	if s.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: embedding.requests_per_second must not be negative", ErrInvalidInput)
	}
	if s.Chunker.TokenBudget <= 0 {
		return fmt.Errorf("%w: chunker.token_budget must be positive", ErrInvalidInput)
	}
	if s.Chunker.MinTokenLength < 1 {
		return fmt.Errorf("%w: chunker.min_token_length must be at least 1", ErrInvalidInput)
	}
	if s.Search.DefaultLimit <= 0 {
		return fmt.Errorf("%w: search.default_limit must be positive", ErrInvalidInput)
	}
	if s.Search.CacheSize < 0 {
		return fmt.Errorf("%w: search.cache_size must not be negative", ErrInvalidInput)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderHashing,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:  DefaultEmbeddingModel,
		AIProviderOpenAI:  "text-embedding-3-small",
		AIProviderHashing: "hashing-v1",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"all-minilm":        384,
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
