package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/synindex/internal/core/domain"
)

var statusHistory int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Long: `Shows the stored document and fragment counts, the embedding model the
index was built with, and the most recent scheduler runs. Does not contact
the embedding service.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusHistory, "history", 5, "number of recent runs to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	rt, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	status, err := rt.Index.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	cmd.Println("Index")
	cmd.Printf("  Model: %s (%s)\n", status.Model, rt.Settings.Embedding.Provider.Description())
	cmd.Printf("  Store: %s\n", rt.Settings.Store.Driver)
	cmd.Printf("  Documents: %d\n", status.Documents)
	cmd.Printf("  Fragments: %d\n", status.Fragments)
	cmd.Println()

	for _, taskID := range []string{domain.TaskIDIndexBootstrap, domain.TaskIDIndexPoll} {
		task, err := rt.SchedulerStore.GetTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("reading task %s: %w", taskID, err)
		}
		if task == nil {
			continue
		}
		cmd.Printf("%s\n", task.Name)
		cmd.Printf("  Last run: %s\n", formatTime(task.LastRun))
		if task.LastError != "" {
			cmd.Printf("  Last error: %s\n", task.LastError)
		}

		history, err := rt.SchedulerStore.GetTaskHistory(ctx, taskID, statusHistory)
		if err != nil {
			return fmt.Errorf("reading history of %s: %w", taskID, err)
		}
		for i := range history {
			r := &history[i]
			outcome := "ok"
			if !r.Success {
				outcome = "failed: " + r.Error
			}
			cmd.Printf("  %s  %3d items  %8s  %s\n",
				formatTime(r.StartedAt), r.ItemsProcessed, r.Duration().Round(time.Millisecond), outcome)
		}
		cmd.Println()
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}
