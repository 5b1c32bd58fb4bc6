package reflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/JoaaoVerona/pageflow/pkg/errors"
	"github.com/JoaaoVerona/pageflow/pkg/flow"
	"github.com/JoaaoVerona/pageflow/pkg/flowcache"
	"github.com/JoaaoVerona/pageflow/pkg/measurestore"
	"github.com/JoaaoVerona/pageflow/pkg/observability"
	"github.com/JoaaoVerona/pageflow/pkg/paginate"
)

// Runner encapsulates run execution with caching.
// Both CLI and embedding applications can use this to avoid duplicating
// caching logic.
//
// The Runner is stateless except for the cache, store, and logger - it
// doesn't retain run results. The flow cache serializes runs through its
// generation protocol, so one Runner handles one run at a time.
type Runner struct {
	Cache   *flowcache.Cache
	Store   measurestore.Store
	Measure flow.MeasureFunc
	Logger  *log.Logger
}

// NewRunner creates a runner with the given cache, store, and measurement
// port. If cache is nil, a fresh empty cache is used. If store is nil, a
// NullStore is used (measure memoization disabled). If logger is nil, run
// logging is discarded; callers that want output inject their own logger.
func NewRunner(c *flowcache.Cache, store measurestore.Store, measure flow.MeasureFunc, logger *log.Logger) *Runner {
	if c == nil {
		c = flowcache.New()
	}
	if store == nil {
		store = measurestore.NewNullStore()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Cache:   c,
		Store:   store,
		Measure: measure,
		Logger:  logger,
	}
}

// Execute runs the complete measure → reserve-loop → layout run.
func (r *Runner) Execute(ctx context.Context, blocks []flow.Block, notes FootnoteSet, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if r.Measure == nil {
		return nil, errors.New(errors.ErrCodeInvalidOptions, "runner has no measurement port")
	}
	if err := validateBlocks(blocks); err != nil {
		return nil, err
	}

	result := &Result{
		RunID: uuid.NewString(),
		Stats: Stats{BlockCount: len(blocks)},
	}

	// Phase 1: Measure
	measureStart := time.Now()
	observability.Pass().OnMeasureStart(ctx, len(blocks))

	engineBlocks, measures, err := r.measureAll(ctx, blocks, opts, &result.Stats)
	result.Stats.MeasureTime = time.Since(measureStart)
	observability.Pass().OnMeasureComplete(ctx, len(blocks), result.Stats.MeasureTime, err)
	if err != nil {
		return nil, fmt.Errorf("measure: %w", err)
	}

	bodies, err := r.measureFootnotes(ctx, notes, opts, &result.Stats)
	if err != nil {
		return nil, fmt.Errorf("measure footnotes: %w", err)
	}

	opts.Logger.Info("measured blocks",
		"blocks", len(blocks),
		"cache_hits", result.Stats.CacheHits,
		"cache_misses", result.Stats.CacheMisses,
		"store_hits", result.Stats.StoreHits,
		"duration", result.Stats.MeasureTime)

	// Phase 2: Reserve loop
	layoutStart := time.Now()
	err = r.reserveLoop(ctx, engineBlocks, measures, notes, bodies, opts, result)
	result.Stats.LayoutTime = time.Since(layoutStart)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	observability.Pass().OnConverged(ctx, result.Passes, result.Oscillated)

	opts.Logger.Info("reserve loop finished",
		"passes", result.Passes,
		"converged", result.Converged,
		"oscillated", result.Oscillated,
		"pages", result.Layout.PageCount(),
		"duration", result.Stats.LayoutTime)

	return result, nil
}

// validateBlocks checks ids and kinds of the body sequence.
func validateBlocks(blocks []flow.Block) error {
	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if !b.Kind.Valid() {
			return errors.New(errors.ErrCodeInvalidBlock, "unknown block kind %q", b.Kind)
		}
		ids = append(ids, b.ID)
	}
	return errors.ValidateBlockIDs(ids)
}

// measureAll resolves every body block to measured flow blocks inside one
// cache generation. The returned block sequence preserves document order,
// break blocks included, and the measure map covers every non-break block.
func (r *Runner) measureAll(ctx context.Context, blocks []flow.Block, opts Options, stats *Stats) ([]flow.Block, map[string]flow.Measure, error) {
	r.Cache.SetHasExternalChanges(opts.ExternalChanges)
	gen, err := r.Cache.Begin()
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		// A failed pass must not evict the blocks it never reached.
		if !committed {
			_ = r.Cache.Abort(gen)
		}
	}()

	engineBlocks := make([]flow.Block, 0, len(blocks))
	measures := make(map[string]flow.Measure, len(blocks))

	for i, b := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if b.Kind.IsBreak() {
			engineBlocks = append(engineBlocks, b)
			continue
		}

		measured, err := r.resolveBlock(ctx, b, i, opts, stats)
		if err != nil {
			return nil, nil, err
		}
		for _, mb := range measured {
			engineBlocks = append(engineBlocks, mb.Block)
			measures[mb.Block.ID] = mb.Measure
		}
	}

	if err := r.Cache.Commit(gen); err != nil {
		return nil, nil, err
	}
	committed = true
	return engineBlocks, measures, nil
}

// resolveBlock produces the measured flow blocks for one body block: from
// the flow cache when the entry validates, otherwise through the measure
// store and the measurement port.
//
// A cache hit whose content shifted position is realigned in place: the
// trusted regime deliberately accepts such hits, and the span algebra moves
// the cached blocks to the block's current position without remeasuring.
func (r *Runner) resolveBlock(ctx context.Context, b flow.Block, orderIndex int, opts Options, stats *Stats) ([]flow.Measured, error) {
	source, err := flow.Canonical(b)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidBlock, err, "serialize block %q", b.ID)
	}
	rev := opts.revision(b.ID)

	cached, hit, err := r.Cache.Get(b.ID, source, rev)
	if err != nil {
		return nil, err
	}
	if hit {
		stats.CacheHits++
		observability.Cache().OnCacheHit(ctx, "flow")

		if delta, ok := spanDelta(b, cached); ok && delta != 0 {
			cached = flow.ShiftMeasured(cached, delta)
			if err := r.Cache.Set(b.ID, source, rev, cached, orderIndex); err != nil {
				return nil, err
			}
		}
		return cached, nil
	}
	stats.CacheMisses++
	observability.Cache().OnCacheMiss(ctx, "flow")

	m, err := r.measureOne(ctx, b, source, opts, stats)
	if err != nil {
		return nil, err
	}
	measured := []flow.Measured{{Block: b, Measure: m}}
	if err := r.Cache.Set(b.ID, source, rev, measured, orderIndex); err != nil {
		return nil, err
	}
	return measured, nil
}

// spanDelta returns the shift between a block's current position and the
// position its cached flow blocks carry. It reports false when either side
// has no position.
func spanDelta(b flow.Block, cached []flow.Measured) (int, bool) {
	cur := b.SpanBounds().Start
	if cur == nil || len(cached) == 0 {
		return 0, false
	}
	old := cached[0].Block.SpanBounds().Start
	if old == nil {
		return 0, false
	}
	return *cur - *old, true
}

// measureOne obtains the measure for one block: from the measure store when
// the same content was measured before, from the measurement port otherwise.
// Store failures degrade to the port and never fail the run.
func (r *Runner) measureOne(ctx context.Context, b flow.Block, source []byte, opts Options, stats *Stats) (flow.Measure, error) {
	key := measurestore.Key(source)

	if data, ok, err := r.Store.Get(ctx, key); err == nil && ok {
		var m flow.Measure
		if json.Unmarshal(data, &m) == nil {
			stats.StoreHits++
			observability.Cache().OnCacheHit(ctx, "measure")
			return m, nil
		}
	} else if err != nil {
		opts.Logger.Warn("measure store lookup failed", "key", key, "error", err)
	}
	observability.Cache().OnCacheMiss(ctx, "measure")

	m, err := r.Measure(ctx, b)
	if err != nil {
		return flow.Measure{}, errors.Wrap(errors.ErrCodeMeasure, err, "measure block %q", b.ID)
	}

	if data, err := json.Marshal(m); err == nil {
		if err := r.Store.Set(ctx, key, data, opts.StoreTTL); err != nil {
			opts.Logger.Warn("measure store write failed", "key", key, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "measure", len(data))
		}
	}
	return m, nil
}

// measureFootnotes measures every footnote body through the store and the
// measurement port. Footnote bodies never enter the flow cache: their
// placement depends on the page their reference resolves to, not only on
// their content.
func (r *Runner) measureFootnotes(ctx context.Context, notes FootnoteSet, opts Options, stats *Stats) (map[string][]flow.Measured, error) {
	if len(notes.BlocksByID) == 0 {
		return nil, nil
	}

	bodies := make(map[string][]flow.Measured, len(notes.BlocksByID))
	for id, noteBlocks := range notes.BlocksByID {
		measured := make([]flow.Measured, 0, len(noteBlocks))
		for _, b := range noteBlocks {
			source, err := flow.Canonical(b)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidBlock, err, "serialize footnote block %q", b.ID)
			}
			m, err := r.measureOne(ctx, b, source, opts, stats)
			if err != nil {
				return nil, err
			}
			measured = append(measured, flow.Measured{Block: b, Measure: m})
		}
		bodies[id] = measured
	}
	return bodies, nil
}

// =============================================================================
// Reserve Loop
// =============================================================================

// reserveLoop iterates the engine until the reservation vector reproduces
// itself, a cycle is broken, or the pass budget runs out. It fills the
// layout fields of result and never fails for convergence reasons: the only
// errors are engine errors.
func (r *Runner) reserveLoop(ctx context.Context, engineBlocks []flow.Block, measures map[string]flow.Measure, notes FootnoteSet, bodies map[string][]flow.Measured, opts Options, result *Result) error {
	engine := paginate.NewEngine(opts.Geometry)
	engine.FootnoteTopPadding = opts.FootnoteTopPadding
	engine.FootnoteDividerHeight = opts.FootnoteDividerHeight

	doc := paginate.Document{Blocks: engineBlocks, Measures: measures}

	var reserved []float64
	history := [][]float64{trimTrailingZeros(reserved)}

	for pass := 1; pass <= opts.MaxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "reserve loop cancelled before pass %d", pass)
		}

		observability.Pass().OnPassStart(ctx, pass)
		passStart := time.Now()

		layout, err := engine.Layout(doc, reserved)
		observability.Pass().OnPassComplete(ctx, pass, layout.PageCount(), time.Since(passStart), err)
		if err != nil {
			return err
		}
		result.Passes = pass

		byPage := r.assignFootnotes(layout, engineBlocks, notes, bodies, opts.Logger)
		proposed := trimTrailingZeros(reserveVector(byPage, opts))

		if vectorsEqual(proposed, trimTrailingZeros(reserved)) {
			result.Converged = true
			return r.finish(engine, doc, byPage, reserved, result)
		}

		if idx := indexOfVector(history, proposed); idx >= 0 {
			// The proposal closes a cycle: the loop would revisit these
			// vectors forever. Settle on the smallest total reservation in
			// the cycle, earliest seen on a tie.
			result.Oscillated = true
			final := pickSmallest(append(history[idx:], proposed))
			opts.Logger.Warn("reservation cycle detected",
				"pass", pass,
				"cycle_length", len(history)-idx,
				"reserved_total", vectorTotal(final))
			return r.relayout(engine, doc, notes, bodies, final, opts, result)
		}

		history = append(history, proposed)
		reserved = proposed

		opts.Logger.Debug("reservation pass",
			"pass", pass,
			"pages", layout.PageCount(),
			"reserved_total", vectorTotal(proposed))
	}

	// Budget exhausted: settle on the last proposal.
	opts.Logger.Warn("reservation loop did not converge", "passes", opts.MaxPasses)
	return r.relayout(engine, doc, notes, bodies, reserved, opts, result)
}

// relayout produces the final layout under a settled vector: one body pass
// to resolve references, then the footnote-bearing layout. Footnote
// placement never moves body fragments, so the resolution stays valid.
func (r *Runner) relayout(engine *paginate.Engine, doc paginate.Document, notes FootnoteSet, bodies map[string][]flow.Measured, reserved []float64, opts Options, result *Result) error {
	layout, err := engine.Layout(doc, reserved)
	if err != nil {
		return err
	}
	byPage := r.assignFootnotes(layout, doc.Blocks, notes, bodies, opts.Logger)
	return r.finish(engine, doc, byPage, reserved, result)
}

// finish runs the footnote-bearing final layout and records it.
func (r *Runner) finish(engine *paginate.Engine, doc paginate.Document, byPage map[int][]flow.Measured, reserved []float64, result *Result) error {
	doc.FootnotesByPage = byPage
	layout, err := engine.Layout(doc, reserved)
	if err != nil {
		return err
	}
	result.Layout = layout
	result.Reserved = trimTrailingZeros(reserved)
	return nil
}

// assignFootnotes maps each footnote to the page of the body block its
// reference position falls in. Unresolved references contribute nothing
// beyond a warning: a missing anchor must not sink the run.
func (r *Runner) assignFootnotes(layout paginate.Layout, blocks []flow.Block, notes FootnoteSet, bodies map[string][]flow.Measured, logger *log.Logger) map[int][]flow.Measured {
	if len(notes.Refs) == 0 {
		return nil
	}

	byPage := make(map[int][]flow.Measured)
	for _, ref := range notes.Refs {
		measured, ok := bodies[ref.ID]
		if !ok {
			logger.Warn("footnote has no body", "id", ref.ID)
			continue
		}

		page := -1
		for _, b := range blocks {
			if b.Kind.IsBreak() {
				continue
			}
			if b.SpanBounds().Contains(ref.Pos) {
				page = layout.PageOf(b.ID)
				break
			}
		}
		if page < 0 {
			logger.Warn("footnote reference unresolved", "id", ref.ID, "pos", ref.Pos)
			continue
		}
		byPage[page] = append(byPage[page], measured...)
	}
	return byPage
}

// reserveVector derives the per-page reservation a footnote assignment
// implies: body heights plus the band's padding and divider on every page
// that holds footnotes.
func reserveVector(byPage map[int][]flow.Measured, opts Options) []float64 {
	maxPage := -1
	for page := range byPage {
		if page > maxPage {
			maxPage = page
		}
	}
	if maxPage < 0 {
		return nil
	}

	vec := make([]float64, maxPage+1)
	for page, measured := range byPage {
		var h float64
		for _, m := range measured {
			h += m.Measure.Height
		}
		vec[page] = h + opts.FootnoteTopPadding + opts.FootnoteDividerHeight
	}
	return vec
}

// =============================================================================
// Vector Helpers
// =============================================================================

// trimTrailingZeros normalizes a vector so that padding with zero-reserve
// pages never masks equality.
func trimTrailingZeros(v []float64) []float64 {
	end := len(v)
	for end > 0 && v[end-1] == 0 {
		end--
	}
	return v[:end]
}

func vectorsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func indexOfVector(history [][]float64, v []float64) int {
	for i, h := range history {
		if vectorsEqual(h, v) {
			return i
		}
	}
	return -1
}

func vectorTotal(v []float64) float64 {
	var total float64
	for _, x := range v {
		total += x
	}
	return total
}

// pickSmallest returns the vector with the smallest total reservation,
// preferring the earlier one on ties.
func pickSmallest(vectors [][]float64) []float64 {
	best := vectors[0]
	for _, v := range vectors[1:] {
		if vectorTotal(v) < vectorTotal(best) {
			best = v
		}
	}
	return best
}
