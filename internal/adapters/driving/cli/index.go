package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/synindex/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index documents once",
	Long: `Runs a single bootstrap pass: every document under the configured roots
is reconciled against the store, and documents that no longer exist on
disk are removed. Unchanged fragments are not re-embedded.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	rt, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	cmd.Printf("Indexing %s...\n", strings.Join(rt.Settings.Index.Roots, ", "))

	run, err := rt.Index.Bootstrap(cmd.Context())
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	printRun(cmd, run)
	return nil
}

func printRun(cmd *cobra.Command, run domain.IndexRun) {
	s := run.Stats
	cmd.Printf("Reconciled %d documents, removed %d.\n", run.Documents, run.Removed)
	cmd.Printf("  Fragments: %d (inserted %d, updated %d, moved %d, reparented %d, deleted %d, unchanged %d)\n",
		s.Fragments, s.Inserted, s.Updated, s.Moved, s.Reparented, s.Deleted, s.Unchanged)
	cmd.Printf("  Embedding calls: %d\n", s.EmbedCalls)
	if s.Skipped > 0 {
		cmd.Printf("  Skipped: %d (retried next cycle)\n", s.Skipped)
	}
	if len(run.Failed) > 0 {
		cmd.Printf("  Failed: %s\n", strings.Join(run.Failed, ", "))
	}
}
