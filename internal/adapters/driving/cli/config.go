package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/synindex/internal/adapters/driven/config/file"
	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/services"
)

var (
	configInitForce    bool
	configInitRoots    []string
	configInitProvider string
	configInitModel    string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Create, inspect and locate the TOML configuration file.`,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Writes config.toml with default settings. Use --root to choose the
directories to index and --provider to pick the embedding provider
(ollama, openai or hashing). The OpenAI key is read from OPENAI_API_KEY and
is not written to the file.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing config file")
	configInitCmd.Flags().StringSliceVar(&configInitRoots, "root", nil, "directory to index (repeatable)")
	configInitCmd.Flags().StringVar(&configInitProvider, "provider", "", "embedding provider: ollama, openai or hashing")
	configInitCmd.Flags().StringVar(&configInitModel, "model", "", "embedding model (default per provider)")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	dir, err := resolveConfigDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, file.ConfigFile)
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	store, err := file.NewConfigStore(dir)
	if err != nil {
		return err
	}
	svc := services.NewSettingsService(store)

	settings := domain.DefaultSettings()
	if len(configInitRoots) > 0 {
		roots := make([]string, 0, len(configInitRoots))
		for _, root := range configInitRoots {
			abs, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", root, err)
			}
			roots = append(roots, abs)
		}
		settings.Index.Roots = roots
	}
	if err := svc.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	if configInitProvider != "" || configInitModel != "" {
		provider := domain.AIProvider(strings.ToLower(configInitProvider))
		if provider == "" {
			provider = settings.Embedding.Provider
		}
		if err := svc.SetEmbeddingProvider(provider, configInitModel, ""); err != nil {
			return fmt.Errorf("failed to set embedding provider: %w", err)
		}
	}

	cmd.Printf("Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	_, settings, err := loadSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("[Index]")
	cmd.Printf("  Roots: %s\n", strings.Join(settings.Index.Roots, ", "))
	cmd.Printf("  Extensions: %s\n", strings.Join(settings.Index.Extensions, ", "))
	cmd.Printf("  Poll interval: %s\n", settings.Index.PollInterval)
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Driver: %s\n", settings.Store.Driver)
	if settings.Store.Driver == domain.StoreDriverSQLite {
		path := settings.Store.Path
		if path == "" {
			path = "(default ~/.synindex/data)"
		}
		cmd.Printf("  Path: %s\n", path)
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s (%d dimensions)\n", settings.Embedding.Model, settings.Embedding.Dimensions)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if settings.Embedding.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %.1f requests/s\n", settings.Embedding.RequestsPerSecond)
	}
	cmd.Println()

	cmd.Println("[Chunker]")
	cmd.Printf("  Token budget: %d\n", settings.Chunker.TokenBudget)
	cmd.Printf("  Min token length: %d\n", settings.Chunker.MinTokenLength)
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Default limit: %d\n", settings.Search.DefaultLimit)
	cmd.Printf("  Query cache: %d\n", settings.Search.CacheSize)

	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	dir, err := resolveConfigDir()
	if err != nil {
		return err
	}
	cmd.Println(filepath.Join(dir, file.ConfigFile))
	return nil
}

// maskAPIKey masks an API key for display.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
