package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/synindex/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var (
	scoreStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	titleStyle = lipgloss.NewStyle().Bold(true)
	pathStyle  = lipgloss.NewStyle().Faint(true)
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed fragments",
	Long: `Embeds the query and ranks every stored fragment by cosine similarity.
Results show the enclosing container, the fragment kind and name, and the
line range in the source document.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from settings)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	rt, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	results, err := rt.Search.Search(cmd.Context(), args[0], domain.SearchOptions{Limit: searchLimit})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	outputSearchTable(cmd, results)
	return nil
}

type searchResultJSON struct {
	Score         float64 `json:"score"`
	ID            int64   `json:"id"`
	ParentID      *int64  `json:"parent_id,omitempty"`
	Path          string  `json:"path"`
	StartLine     int     `json:"start_line"`
	EndLine       int     `json:"end_line"`
	ContainerKind string  `json:"container_kind"`
	ContainerName string  `json:"container_name"`
	Level         string  `json:"level"`
	Kind          string  `json:"kind"`
	Name          string  `json:"name,omitempty"`
	Summary       string  `json:"summary"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, len(results))
	for i := range results {
		f := &results[i].Fragment
		out[i] = searchResultJSON{
			Score:         results[i].Score,
			ID:            f.ID,
			ParentID:      f.ParentID,
			Path:          f.DocumentPath,
			StartLine:     f.Span.Start,
			EndLine:       f.Span.End,
			ContainerKind: f.ContainerKind.String(),
			ContainerName: f.ContainerName,
			Level:         f.Level.String(),
			Kind:          f.Kind,
			Name:          f.Name,
			Summary:       f.EmbeddingText,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		f := &results[i].Fragment
		cmd.Printf("  [%d] %s %s\n", i+1, scoreStyle.Render(fmt.Sprintf("%.3f", results[i].Score)),
			titleStyle.Render(describeFragment(f)))
		cmd.Printf("      %s\n", pathStyle.Render(fmt.Sprintf("%s:%s", f.DocumentPath, f.Span)))
		cmd.Println()
	}
}

// describeFragment renders "api orders > leaf log (audit)".
func describeFragment(f *domain.Fragment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s > %s %s", f.ContainerKind, f.ContainerName, f.Level, f.Kind)
	if f.Name != "" && f.Name != f.Kind {
		fmt.Fprintf(&b, " (%s)", f.Name)
	}
	return b.String()
}
