package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/connectors/filesystem"
)

var (
	watchRecursive bool
	watchMeta      []string
	watchDebounce  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Keep a directory indexed as files change",
	Long: `Indexes every supported file in the directory, then watches it.
New and modified files are (re)indexed once they have been quiet for the
debounce period, and deleted files are removed from every index.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchRecursive, "recursive", "r", false, "watch subdirectories")
	watchCmd.Flags().StringArrayVarP(&watchMeta, "meta", "m", nil, "metadata key=value (repeatable)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", filesystem.DefaultDebounce, "quiet period before reindexing")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	meta, err := parseMeta(watchMeta)
	if err != nil {
		return err
	}

	w := filesystem.NewWatcher(args[0], app.Indexer, app.Documents, app.Loaders,
		filesystem.WithRecursive(watchRecursive),
		filesystem.WithMetadata(meta),
		filesystem.WithDebounce(watchDebounce),
	)
	cmd.Printf("Watching %s (Ctrl-C to stop)\n", args[0])
	return w.Run(cmd.Context())
}
