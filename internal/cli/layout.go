package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JoaaoVerona/pageflow/pkg/paginate"
	"github.com/JoaaoVerona/pageflow/pkg/reflow"
)

// layoutCommand creates the layout command for paginating documents.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output          string
		configPath      string
		pageSize        string
		maxPasses       int
		externalChanges bool
		backend         string
	)

	cmd := &cobra.Command{
		Use:   "layout [document.json]",
		Short: "Paginate a document into a layout file",
		Long: `Paginate a document into a layout file.

The layout command takes a document.json file (body blocks plus footnotes)
and produces a layout.json file with exact per-page fragment placement.
Footnote reservations are iterated until the layout settles.

Measures are memoized in a content-addressed store, so repeated runs over
unchanged content skip the measurement work.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd, args[0], layoutFlags{
				output:          output,
				configPath:      configPath,
				pageSize:        pageSize,
				maxPasses:       maxPasses,
				externalChanges: externalChanges,
				backend:         backend,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: pageflow.toml if present)")
	cmd.Flags().StringVar(&pageSize, "page", "", "page size preset: a4, a3, a5, letter, legal")
	cmd.Flags().IntVar(&maxPasses, "max-passes", 0, "cap on footnote reservation passes")
	cmd.Flags().BoolVar(&externalChanges, "external-changes", false, "verify cached content instead of trusting revision markers")
	cmd.Flags().StringVar(&backend, "store", "", "measure store backend: file (default), memory, redis, none")
	cmd.Flags().String("redis-addr", "localhost:6379", "redis address for --store redis")

	return cmd
}

type layoutFlags struct {
	output          string
	configPath      string
	pageSize        string
	maxPasses       int
	externalChanges bool
	backend         string
}

// runLayout loads the document, executes the run, and writes the layout.
func (c *CLI) runLayout(cmd *cobra.Command, input string, flags layoutFlags) error {
	ctx := cmd.Context()
	prog := newProgress(loggerFromContext(ctx))

	doc, err := reflow.ReadDocumentFile(input)
	if err != nil {
		return fmt.Errorf("load document %s: %w", input, err)
	}

	cfg, err := LoadConfig(flags.configPath)
	if err != nil {
		return err
	}
	if flags.pageSize != "" {
		cfg.Page.Size = flags.pageSize
		cfg.Page.Width, cfg.Page.Height = 0, 0
	}
	if flags.maxPasses > 0 {
		cfg.Footnotes.MaxPasses = flags.maxPasses
	}
	if flags.backend == "" {
		flags.backend = cfg.Store.Backend
	}
	addr := resolveRedisAddr(cmd, cfg)

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	opts.ExternalChanges = flags.externalChanges
	opts.Logger = c.Logger

	measure := c.Measure
	if measure == nil {
		measure = textMeasurer(opts.Geometry.ContentWidth())
	}

	runner, err := c.newRunner(ctx, flags.backend, addr, measure)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Store.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Paginating %d blocks...", len(doc.Blocks)))
	spinner.Start()

	result, err := runner.Execute(ctx, doc.Blocks, doc.Footnotes, opts)
	if err != nil {
		spinner.StopWithError("Pagination failed")
		return fmt.Errorf("paginate: %w", err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Paginated %d blocks across %d pages", len(doc.Blocks), result.Layout.PageCount()))

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := flags.output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}

	if err := paginate.WriteLayoutFile(result.Layout, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	if result.Oscillated {
		printWarning("Reservations oscillated; settled on the smallest vector")
	}
	printSuccess("Layout complete")
	printFile(outputPath)
	printRunStats(result.Layout.PageCount(), result.Passes,
		result.Stats.CacheHits+result.Stats.StoreHits, result.Stats.CacheMisses, result.Converged)
	printNewline()
	printNextStep("Inspect", "pageflow pages "+outputPath)

	return nil
}

// resolveRedisAddr picks the redis address for the measure store: an explicit
// --redis-addr flag wins, then the config file, then the flag default.
func resolveRedisAddr(cmd *cobra.Command, cfg Config) string {
	if !cmd.Flags().Changed("redis-addr") && cfg.Store.RedisAddr != "" {
		return cfg.Store.RedisAddr
	}
	addr, _ := cmd.Flags().GetString("redis-addr")
	return addr
}
