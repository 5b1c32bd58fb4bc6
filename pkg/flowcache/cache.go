// Package flowcache implements the generation-scoped flow-block cache.
//
// The cache maps a block id to the measured result produced for it in an
// earlier layout pass, so unchanged blocks skip the measurement port
// entirely. Validity is decided by one of two regimes:
//
//   - Trusted fast path: an integer revision marker maintained by the caller.
//     Local edits always bump the marker, so an equal marker means unchanged
//     content, without inspecting the content at all.
//   - Verified fallback: a byte comparison of the block's canonical
//     serialization. Authoritative but slower; used when the caller flags
//     that content may have been mutated through a channel that does not own
//     the revision-increment contract (e.g. a collaborative merge), or when
//     a marker is absent on either side.
//
// # Generations
//
// Every layout pass brackets its cache traffic in a generation:
//
//	gen, err := cache.Begin()
//	// ... Get / Set per block ...
//	err = cache.Commit(gen)
//
// Commit sweeps entries not touched during the generation, which is how
// deleted blocks leave the cache without an explicit delete API. A pass that
// fails midway calls Abort instead, which closes the generation and keeps
// every entry. Exactly one generation is open at a time; Begin while open and
// Get/Set/Commit/Abort outside one are precondition violations.
//
// The cache is not safe for concurrent use. A generation is a logical
// single-writer epoch: callers may parallelize the pure measurement calls,
// but all Get/Set traffic must be serialized on the owning goroutine.
package flowcache

import (
	"bytes"

	"github.com/JoaaoVerona/pageflow/pkg/errors"
	"github.com/JoaaoVerona/pageflow/pkg/flow"
)

// Generation is the token handed out by Begin and redeemed by Commit.
// Commit validates token identity so interleaved epochs are caught even if
// call ordering alone would look plausible.
type Generation struct {
	seq uint64
}

// entry is one cached measured result plus the bookkeeping needed by the two
// validity regimes and the generation sweep.
type entry struct {
	source     []byte
	revision   *uint64
	blocks     []flow.Measured
	orderIndex int
	touched    uint64
}

// Cache is the flow-block cache. The zero value is not usable; construct
// with New.
type Cache struct {
	entries         map[string]*entry
	seq             uint64
	open            bool
	externalChanges bool
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// Begin opens a new generation and returns its token.
// Returns ErrCodeCacheGenerationOpen if a generation is already open;
// generations never nest.
func (c *Cache) Begin() (Generation, error) {
	if c.open {
		return Generation{}, errors.New(errors.ErrCodeCacheGenerationOpen, "generation %d still open", c.seq)
	}
	c.seq++
	c.open = true
	return Generation{seq: c.seq}, nil
}

// Get looks up the cached result for a block id.
//
// source is the block's canonical serialization and revision its
// caller-maintained marker (nil when the caller has none). The decision
// order is:
//
//  1. No entry: miss.
//  2. Both markers present and the external-changes flag clear: marker
//     equality decides. An equal marker is a hit even when content actually
//     differs; the fast path trusts the caller's revision discipline.
//  3. Flag set, or a marker absent on either side: canonical bytes decide.
//
// A hit marks the entry as touched in the open generation.
func (c *Cache) Get(id string, source []byte, revision *uint64) ([]flow.Measured, bool, error) {
	if !c.open {
		return nil, false, errors.New(errors.ErrCodeCacheNoGeneration, "get %q outside an open generation", id)
	}

	e, ok := c.entries[id]
	if !ok {
		return nil, false, nil
	}

	if !c.validate(e, source, revision) {
		return nil, false, nil
	}

	e.touched = c.seq
	return e.blocks, true, nil
}

// validate applies the trusted/verified decision for one entry.
func (c *Cache) validate(e *entry, source []byte, revision *uint64) bool {
	if !c.externalChanges && e.revision != nil && revision != nil {
		return *e.revision == *revision
	}
	return bytes.Equal(e.source, source)
}

// Set inserts or replaces the entry for a block id in the current generation
// and marks it as touched.
func (c *Cache) Set(id string, source []byte, revision *uint64, blocks []flow.Measured, orderIndex int) error {
	if !c.open {
		return errors.New(errors.ErrCodeCacheNoGeneration, "set %q outside an open generation", id)
	}

	c.entries[id] = &entry{
		source:     source,
		revision:   revision,
		blocks:     blocks,
		orderIndex: orderIndex,
		touched:    c.seq,
	}
	return nil
}

// SetHasExternalChanges sets the flag that routes Get onto the verified
// comparison path. Commit clears it, so callers must re-assert it for each
// pass where it applies.
func (c *Cache) SetHasExternalChanges(v bool) {
	c.externalChanges = v
}

// HasExternalChanges reports the current flag state.
func (c *Cache) HasExternalChanges() bool {
	return c.externalChanges
}

// Commit closes the generation identified by gen, evicts every entry not
// touched during it, and clears the external-changes flag.
func (c *Cache) Commit(gen Generation) error {
	if !c.open {
		return errors.New(errors.ErrCodeCacheNoGeneration, "commit without an open generation")
	}
	if gen.seq != c.seq {
		return errors.New(errors.ErrCodeCacheBadGeneration, "commit of generation %d while %d is open", gen.seq, c.seq)
	}

	c.sweep()
	c.open = false
	c.externalChanges = false
	return nil
}

// Abort closes the generation identified by gen without sweeping, keeping
// every entry alive for the next generation. Used when a pass fails midway:
// blocks the pass never reached must not be evicted for it.
func (c *Cache) Abort(gen Generation) error {
	if !c.open {
		return errors.New(errors.ErrCodeCacheNoGeneration, "abort without an open generation")
	}
	if gen.seq != c.seq {
		return errors.New(errors.ErrCodeCacheBadGeneration, "abort of generation %d while %d is open", gen.seq, c.seq)
	}

	c.open = false
	return nil
}

// sweep removes entries whose touched generation lags the current one.
// It is a pure bookkeeping operation, independent of the trust logic, and
// returns the number of evicted entries.
func (c *Cache) sweep() int {
	evicted := 0
	for id, e := range c.entries {
		if e.touched != c.seq {
			delete(c.entries, id)
			evicted++
		}
	}
	return evicted
}

// Clear resets all cache state unconditionally, including any open
// generation. Used when starting a layout for a structurally unrelated
// document.
func (c *Cache) Clear() {
	c.entries = make(map[string]*entry)
	c.seq = 0
	c.open = false
	c.externalChanges = false
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return len(c.entries)
}
