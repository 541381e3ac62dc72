// Package cli implements the ragcore command line with cobra.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// noServices marks commands that run without opening the database.
const noServices = "no-services"

// App bundles the services commands run against.
type App struct {
	Config    file.Config
	Indexer   driving.IndexerService
	Documents driving.DocumentService
	Search    driving.SearchService
	Keyword   driving.KeywordService
	Graph     driving.GraphService
	Loaders   driven.LoaderRegistry

	// Close releases stores and model workers. May be nil.
	Close func() error
}

// Builder opens the stores and wires the services for cfg.
type Builder func(ctx context.Context, cfg file.Config) (*App, error)

var (
	builder Builder
	app     *App
	owned   bool

	configPath string
	dbPath     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ragcore",
	Short: "Local document retrieval with vector, keyword and entity search",
	Long: `ragcore ingests documents, splits them into chunks and keeps three
views of them in one SQLite database: a vector similarity index, a full-text
keyword index and an entity co-occurrence graph.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.ragcore/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetBuilder sets how commands obtain their services.
func SetBuilder(b Builder) {
	builder = b
}

// Execute runs the root command and releases any services it opened.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeApp(); cerr != nil {
		logger.Warn("closing services: %v", cerr)
	}
	return err
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrNotFound):
		return 3
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidQuery),
		errors.Is(err, domain.ErrUnsupportedFileType),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrUnknownStrategy):
		return 2
	default:
		return 1
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}
	if cmd.Annotations[noServices] != "" || app != nil {
		return nil
	}

	cfg, err := file.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if cfg.Log.Verbose {
		logger.SetVerbose(true)
	}
	if builder == nil {
		return errors.New("no service builder configured")
	}

	a, err := builder(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	app, owned = a, true
	return nil
}

func closeApp() error {
	if app == nil || !owned {
		return nil
	}
	a := app
	app, owned = nil, false
	if a.Close == nil {
		return nil
	}
	return a.Close()
}
