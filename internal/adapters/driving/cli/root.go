// Package cli provides the cobra command tree for synindex.
package cli

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/synindex/internal/adapters/driven/config/file"
	"github.com/custodia-labs/synindex/internal/bootstrap"
	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/services"
	"github.com/custodia-labs/synindex/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configDir string
	verbose   bool
)

// openRuntime is replaced in tests.
var openRuntime = bootstrap.Open

var rootCmd = &cobra.Command{
	Use:   "synindex",
	Short: "Semantic index for Synapse integration configuration",
	Long: `synindex chunks Synapse XML (APIs, proxies, sequences, endpoints) into
hierarchical fragments, embeds them and keeps the index in step with the
files on disk. Query it from the command line or over MCP.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.synindex)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetOutput(cmd.ErrOrStderr())

	envFiles := []string{".env"}
	if dir, err := resolveConfigDir(); err == nil {
		envFiles = append(envFiles, filepath.Join(dir, ".env"))
	}
	for _, path := range envFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("loading %s: %v", path, err)
		}
	}
	return nil
}

func resolveConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	return file.DefaultDir()
}

// loadSettings opens the config store and reads typed settings.
func loadSettings() (*services.SettingsService, domain.Settings, error) {
	dir, err := resolveConfigDir()
	if err != nil {
		return nil, domain.Settings{}, err
	}
	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, domain.Settings{}, err
	}
	svc := services.NewSettingsService(store)
	settings, err := svc.Get()
	if err != nil {
		return nil, domain.Settings{}, err
	}
	return svc, settings, nil
}

// openApp loads settings and opens a runtime. Offline skips the
// embedding service.
func openApp(cmd *cobra.Command, offline bool) (*bootstrap.Runtime, error) {
	svc, settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	sched := svc.SchedulerConfig(settings)
	return openRuntime(cmd.Context(), settings, bootstrap.Options{
		Offline:     offline,
		TraceWriter: cmd.ErrOrStderr(),
		Version:     version,
		Scheduler:   &sched,
	})
}
