// Package reflow provides the incremental repagination orchestrator.
//
// This package ties the other layers together into one run that CLI and
// embedding applications share: measure the body blocks through the
// generation-scoped flow cache and the content-addressed measure store,
// then iterate the pagination engine until the per-page footnote
// reservations agree with where the footnote references actually land.
//
// # Architecture
//
// A run consists of two phases:
//
//  1. Measure: every body block is resolved to measured flow blocks, from
//     the flow cache when valid, from the measure store when the content
//     was seen before, and from the measurement port otherwise. The whole
//     phase runs inside a single cache generation.
//  2. Reserve loop: paginate under the current reservation vector, resolve
//     each footnote reference to the page of its anchor block, propose the
//     reservation vector those assignments imply, and repeat until the
//     proposal matches the vector it was produced under. Cycles and pass
//     budget exhaustion both resolve to a usable final layout, never an
//     error.
//
// # Usage
//
// Create a Runner and execute a run:
//
//	runner := reflow.NewRunner(cache, store, measureFn, logger)
//	opts := reflow.Options{Geometry: geom}
//	result, err := runner.Execute(ctx, blocks, notes, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Layout.PageCount())
package reflow

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/JoaaoVerona/pageflow/pkg/errors"
	"github.com/JoaaoVerona/pageflow/pkg/flow"
	"github.com/JoaaoVerona/pageflow/pkg/paginate"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultMaxPasses caps the reserve loop. Real documents converge in
	// two or three passes; the cap only matters for adversarial inputs
	// whose reservations keep drifting without ever cycling.
	DefaultMaxPasses = 8
)

// =============================================================================
// Options - Run Configuration
// =============================================================================

// Options contains all configuration for one run.
// This struct supports JSON serialization for config files.
type Options struct {
	// Geometry is the page geometry every page of the run shares.
	Geometry paginate.Geometry `json:"geometry"`

	// Footnote band constants. Zero values take the engine defaults.
	FootnoteTopPadding    float64 `json:"footnote_top_padding,omitempty"`
	FootnoteDividerHeight float64 `json:"footnote_divider_height,omitempty"`

	// MaxPasses caps the reserve loop. Zero takes DefaultMaxPasses.
	MaxPasses int `json:"max_passes,omitempty"`

	// ExternalChanges reports that something other than the tracked editing
	// session may have modified block content since the last run. It routes
	// every cache lookup onto the verified content comparison for this run.
	ExternalChanges bool `json:"external_changes,omitempty"`

	// Revisions carries the per-block revision markers of the editing
	// session, keyed by block id. Blocks without a marker fall back to
	// verified content comparison on lookup.
	Revisions map[string]uint64 `json:"revisions,omitempty"`

	// StoreTTL bounds the lifetime of measure store writes. Zero means the
	// entries never expire.
	StoreTTL time.Duration `json:"store_ttl,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.Geometry.Validate(); err != nil {
		return err
	}
	if o.FootnoteTopPadding < 0 || o.FootnoteDividerHeight < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "footnote band constants must be non-negative")
	}
	if o.MaxPasses < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "max_passes must be non-negative")
	}
	if o.FootnoteTopPadding == 0 {
		o.FootnoteTopPadding = paginate.DefaultFootnoteTopPadding
	}
	if o.FootnoteDividerHeight == 0 {
		o.FootnoteDividerHeight = paginate.DefaultFootnoteDividerHeight
	}
	if o.MaxPasses == 0 {
		o.MaxPasses = DefaultMaxPasses
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// revision returns the revision marker for a block id, or nil when the
// session tracks none.
func (o Options) revision(id string) *uint64 {
	if o.Revisions == nil {
		return nil
	}
	v, ok := o.Revisions[id]
	if !ok {
		return nil
	}
	return &v
}

// =============================================================================
// Footnotes
// =============================================================================

// FootnoteRef anchors a footnote at a character position in the body text.
type FootnoteRef struct {
	// ID names the footnote body in FootnoteSet.BlocksByID.
	ID string `json:"id"`

	// Pos is the character position of the reference mark in the body.
	Pos int `json:"pos"`
}

// FootnoteSet carries the footnotes of a document: the ordered references
// and the body blocks of each footnote.
type FootnoteSet struct {
	Refs       []FootnoteRef           `json:"refs,omitempty"`
	BlocksByID map[string][]flow.Block `json:"blocks_by_id,omitempty"`
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a run.
type Result struct {
	// RunID uniquely identifies this run in logs and artifacts.
	RunID string

	// Layout is the final paginated layout, footnote fragments included.
	Layout paginate.Layout

	// Reserved is the reservation vector the final layout was produced
	// under.
	Reserved []float64

	// Passes is the number of engine passes the reserve loop took.
	Passes int

	// Converged reports that the final vector reproduced itself exactly.
	Converged bool

	// Oscillated reports that the loop ended by breaking a reservation
	// cycle rather than by convergence or budget exhaustion.
	Oscillated bool

	// Stats contains timing and cache information.
	Stats Stats
}

// Stats contains run execution statistics.
type Stats struct {
	BlockCount  int
	MeasureTime time.Duration
	LayoutTime  time.Duration
	CacheHits   int
	CacheMisses int
	StoreHits   int
}
