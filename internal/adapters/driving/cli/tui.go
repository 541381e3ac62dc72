package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui"
)

var errNotTerminal = errors.New("tui needs an interactive terminal")

// isTerminal reports whether stdin and stdout are terminals.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse and search the index interactively",
	Long: `Opens a terminal interface for similarity and keyword search, reading
and removing documents, and exploring the entity graph.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if !isTerminal() {
		return errNotTerminal
	}
	a, err := tui.NewApp(cmd.Context(), &tui.Ports{
		Search:    app.Search,
		Keyword:   app.Keyword,
		Documents: app.Documents,
		Indexer:   app.Indexer,
		Graph:     app.Graph,
	})
	if err != nil {
		return err
	}
	return a.Run()
}
