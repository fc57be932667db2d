package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/synindex/internal/adapters/driving/mcp"
	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/logger"
)

var watchPort int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the index up to date",
	Long: `Runs a bootstrap pass and then polls the configured roots every
index.poll_interval, reconciling changed documents and removing deleted
ones. Stops after the current cycle on SIGINT or SIGTERM.

Use --port to serve MCP over HTTP against the live index at the same time.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVarP(&watchPort, "port", "p", 0, "also serve MCP over HTTP on this port (0 = off)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.Scheduler.OnCycle = func(taskID string, run domain.IndexRun, err error) {
		stamp := time.Now().Format(time.TimeOnly)
		if err != nil {
			logger.Error("%s failed: %v", taskID, err)
			return
		}
		if taskID == domain.TaskIDIndexPoll && run.Documents == 0 && run.Removed == 0 {
			logger.Debug("%s: no changes", taskID)
			return
		}
		cmd.Printf("[%s] %s: %d documents, %d removed, %d embedding calls\n",
			stamp, taskID, run.Documents, run.Removed, run.Stats.EmbedCalls)
	}

	var server *mcp.Server
	if watchPort > 0 {
		server, err = mcp.NewServer(&mcp.Ports{Search: rt.Search, Documents: rt.Store})
		if err != nil {
			return err
		}
		cmd.Printf("MCP server listening on http://localhost:%d\n", watchPort)
	}

	cmd.Printf("Watching %d root(s) every %s. Press Ctrl+C to stop.\n",
		len(rt.Settings.Index.Roots), rt.Settings.Index.PollInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.Scheduler.Start(gctx)
	})
	if server != nil {
		addr := fmt.Sprintf(":%d", watchPort)
		g.Go(func() error {
			return server.RunHTTP(gctx, addr)
		})
	}

	return g.Wait()
}
