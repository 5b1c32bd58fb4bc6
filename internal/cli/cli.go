// Package cli implements the pageflow command-line interface.
//
// This package provides commands for paginating documents, inspecting
// produced layouts, and managing the measure store. The CLI is built using
// cobra and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - layout: Paginate a document into a layout file
//   - pages: Summarize the pages of a layout file
//   - store: Manage the on-disk measure store
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/JoaaoVerona/pageflow/pkg/buildinfo"
	"github.com/JoaaoVerona/pageflow/pkg/flow"
	"github.com/JoaaoVerona/pageflow/pkg/flowcache"
	"github.com/JoaaoVerona/pageflow/pkg/measurestore"
	"github.com/JoaaoVerona/pageflow/pkg/reflow"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "pageflow"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Measure is the measurement port commands run with. Tests inject a
	// fake; nil selects the built-in text measurer for the run geometry.
	Measure flow.MeasureFunc
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The --verbose flag switches the shared logger to debug level, and the
// logger rides the command context for subcommands.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "pageflow",
		Short:        "Pageflow paginates measured documents incrementally",
		Long:         `Pageflow is a CLI tool for paginating documents: it measures blocks through a content-addressed store, reuses prior measurements across runs, and iterates footnote reservations until the layout settles.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.pagesCommand())
	root.AddCommand(c.storeCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a run executor for CLI use.
func (c *CLI) newRunner(ctx context.Context, backend, redisAddr string, measure flow.MeasureFunc) (*reflow.Runner, error) {
	store, err := newStore(ctx, backend, redisAddr)
	if err != nil {
		return nil, err
	}
	return reflow.NewRunner(flowcache.New(), store, measure, c.Logger), nil
}

// newStore builds the measure store for the selected backend. A backend that
// cannot initialize degrades to a null store: memoization is an optimization,
// not a requirement.
func newStore(ctx context.Context, backend, redisAddr string) (measurestore.Store, error) {
	switch backend {
	case "none":
		return measurestore.NewNullStore(), nil
	case "memory":
		return measurestore.NewMemoryStore(), nil
	case "redis":
		store, err := measurestore.NewRedisStore(ctx, measurestore.RedisConfig{Addr: redisAddr})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "file", "":
		dir, err := storeDir()
		if err != nil {
			return measurestore.NewNullStore(), nil
		}
		return measurestore.NewFileStore(dir)
	}
	return nil, &unknownBackendError{backend}
}

type unknownBackendError struct{ backend string }

func (e *unknownBackendError) Error() string {
	return "unknown store backend " + e.backend + " (must be one of: file, memory, redis, none)"
}

// =============================================================================
// Paths
// =============================================================================

// storeDir returns the measure store directory using XDG standard
// (~/.cache/pageflow/).
func storeDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
