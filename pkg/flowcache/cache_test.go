package flowcache

import (
	"testing"

	"github.com/JoaaoVerona/pageflow/pkg/errors"
	"github.com/JoaaoVerona/pageflow/pkg/flow"
)

func revp(v uint64) *uint64 { return &v }

func measured(text string, height float64) []flow.Measured {
	return []flow.Measured{
		{
			Block:   flow.Block{Kind: flow.KindParagraph, ID: "p1", Runs: []flow.Run{{Text: text}}},
			Measure: flow.Measure{Height: height, Lines: []flow.Line{{LineHeight: height}}},
		},
	}
}

// begin opens a generation or fails the test.
func begin(t *testing.T, c *Cache) Generation {
	t.Helper()
	gen, err := c.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return gen
}

func TestGetMissOnEmptyCache(t *testing.T) {
	c := New()
	gen := begin(t, c)

	_, hit, err := c.Get("p1", []byte("hello"), revp(1))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hit {
		t.Error("empty cache should miss")
	}

	if err := c.Commit(gen); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestTrustedHitIgnoresContent(t *testing.T) {
	c := New()
	gen := begin(t, c)

	if err := c.Set("p1", []byte("hello"), revp(5), measured("hello", 20), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Same revision, different content: the fast path trusts the marker and
	// returns the stale cached result. Documented behavior, not a bug.
	blocks, hit, err := c.Get("p1", []byte("hello world"), revp(5))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("equal revision markers should hit without inspecting content")
	}
	if got := blocks[0].Block.Runs[0].Text; got != "hello" {
		t.Errorf("hit returned %q, want the original cached %q", got, "hello")
	}

	if err := c.Commit(gen); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestTrustedMissOnBumpedRevision(t *testing.T) {
	c := New()
	gen := begin(t, c)

	c.Set("p1", []byte("hello"), revp(5), measured("hello", 20), 0)

	_, hit, _ := c.Get("p1", []byte("hello world"), revp(6))
	if hit {
		t.Error("bumped revision should miss")
	}

	c.Commit(gen)
}

func TestExternalChangesForcesVerifiedPath(t *testing.T) {
	c := New()
	gen := begin(t, c)

	c.Set("p1", []byte("hello"), revp(5), measured("hello", 20), 0)
	c.SetHasExternalChanges(true)

	// Same revision but changed content: verified comparison catches it.
	_, hit, _ := c.Get("p1", []byte("hello world"), revp(5))
	if hit {
		t.Error("external-changes flag must route to content comparison")
	}

	// Unchanged content still hits despite an unreliable marker.
	_, hit, _ = c.Get("p1", []byte("hello"), revp(99))
	if !hit {
		t.Error("identical content should hit on the verified path")
	}

	c.Commit(gen)
}

func TestCommitClearsExternalChangesFlag(t *testing.T) {
	c := New()
	gen := begin(t, c)
	c.Set("p1", []byte("hello"), revp(5), measured("hello", 20), 0)
	c.SetHasExternalChanges(true)
	c.Commit(gen)

	if c.HasExternalChanges() {
		t.Fatal("commit should clear the flag")
	}

	gen = begin(t, c)
	// Without re-asserting the flag, the same-revision different-content
	// lookup is back on the trusted path.
	_, hit, _ := c.Get("p1", []byte("hello world"), revp(5))
	if !hit {
		t.Error("after commit the trusted fast path should apply again")
	}
	c.Commit(gen)
}

func TestAbsentRevisionAlwaysVerifies(t *testing.T) {
	tests := []struct {
		name      string
		storedRev *uint64
		lookupRev *uint64
	}{
		{name: "stored absent", storedRev: nil, lookupRev: revp(5)},
		{name: "lookup absent", storedRev: revp(5), lookupRev: nil},
		{name: "both absent", storedRev: nil, lookupRev: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			gen := begin(t, c)
			c.Set("p1", []byte("hello"), tt.storedRev, measured("hello", 20), 0)

			if _, hit, _ := c.Get("p1", []byte("hello world"), tt.lookupRev); hit {
				t.Error("changed content must miss when a marker is absent")
			}
			if _, hit, _ := c.Get("p1", []byte("hello"), tt.lookupRev); !hit {
				t.Error("identical content must hit when a marker is absent")
			}

			c.Commit(gen)
		})
	}
}

func TestGenerationPruning(t *testing.T) {
	c := New()

	gen := begin(t, c)
	c.Set("p1", []byte("one"), revp(1), measured("one", 20), 0)
	c.Set("p2", []byte("two"), revp(1), measured("two", 20), 1)
	c.Commit(gen)

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}

	// Next generation touches only p1.
	gen = begin(t, c)
	if _, hit, _ := c.Get("p1", []byte("one"), revp(1)); !hit {
		t.Fatal("p1 should hit")
	}
	c.Commit(gen)

	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1 after pruning", c.Len())
	}

	gen = begin(t, c)
	if _, hit, _ := c.Get("p2", []byte("two"), revp(1)); hit {
		t.Error("p2 should have been evicted")
	}
	c.Commit(gen)
}

func TestPreconditionViolations(t *testing.T) {
	c := New()

	// Get/Set outside a generation
	if _, _, err := c.Get("p1", nil, nil); !errors.Is(err, errors.ErrCodeCacheNoGeneration) {
		t.Errorf("Get outside generation: %v", err)
	}
	if err := c.Set("p1", nil, nil, nil, 0); !errors.Is(err, errors.ErrCodeCacheNoGeneration) {
		t.Errorf("Set outside generation: %v", err)
	}
	if err := c.Commit(Generation{}); !errors.Is(err, errors.ErrCodeCacheNoGeneration) {
		t.Errorf("Commit outside generation: %v", err)
	}

	// Nested Begin
	gen := begin(t, c)
	if _, err := c.Begin(); !errors.Is(err, errors.ErrCodeCacheGenerationOpen) {
		t.Errorf("nested Begin: %v", err)
	}

	// Commit with a stale token
	if err := c.Commit(Generation{seq: gen.seq + 7}); !errors.Is(err, errors.ErrCodeCacheBadGeneration) {
		t.Errorf("Commit with foreign token: %v", err)
	}

	// The matching token still commits.
	if err := c.Commit(gen); err != nil {
		t.Errorf("Commit with own token: %v", err)
	}
}

func TestClear(t *testing.T) {
	c := New()
	gen := begin(t, c)
	c.Set("p1", []byte("one"), revp(1), measured("one", 20), 0)
	c.SetHasExternalChanges(true)

	c.Clear()

	if c.Len() != 0 {
		t.Error("Clear should drop all entries")
	}
	if c.HasExternalChanges() {
		t.Error("Clear should reset the flag")
	}
	// The old token is dead; a fresh generation opens normally.
	if err := c.Commit(gen); !errors.Is(err, errors.ErrCodeCacheNoGeneration) {
		t.Errorf("Commit after Clear: %v", err)
	}
	gen2 := begin(t, c)
	if err := c.Commit(gen2); err != nil {
		t.Errorf("fresh generation after Clear: %v", err)
	}
}

func TestSweepIsPure(t *testing.T) {
	c := New()
	gen := begin(t, c)
	c.Set("p1", []byte("one"), revp(1), measured("one", 20), 0)
	c.Set("p2", []byte("two"), revp(1), measured("two", 20), 1)
	c.Commit(gen)

	gen = begin(t, c)
	c.Get("p1", []byte("one"), revp(1))

	if evicted := c.sweep(); evicted != 1 {
		t.Errorf("sweep evicted %d, want 1", evicted)
	}
	// A second sweep in the same generation finds nothing more to do.
	if evicted := c.sweep(); evicted != 0 {
		t.Errorf("second sweep evicted %d, want 0", evicted)
	}
	c.Commit(gen)
}

func TestAbortKeepsUntouchedEntries(t *testing.T) {
	c := New()
	gen := begin(t, c)
	c.Set("p1", []byte("one"), revp(1), measured("one", 20), 0)
	c.Set("p2", []byte("two"), revp(1), measured("two", 20), 1)
	c.Commit(gen)

	// Touch only p1, then abort: p2 must survive.
	gen = begin(t, c)
	c.Get("p1", []byte("one"), revp(1))
	if err := c.Abort(gen); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d after abort, want 2", c.Len())
	}

	// The cache is usable again, and both entries still validate.
	gen = begin(t, c)
	if _, hit, _ := c.Get("p2", []byte("two"), revp(1)); !hit {
		t.Error("p2 should still hit after an aborted generation")
	}
	if _, hit, _ := c.Get("p1", []byte("one"), revp(1)); !hit {
		t.Error("p1 should still hit after an aborted generation")
	}
	c.Commit(gen)
}

func TestAbortPreconditions(t *testing.T) {
	c := New()
	if err := c.Abort(Generation{seq: 1}); !errors.Is(err, errors.ErrCodeCacheNoGeneration) {
		t.Errorf("Abort without generation: %v", err)
	}

	gen := begin(t, c)
	if err := c.Abort(Generation{seq: gen.seq + 3}); !errors.Is(err, errors.ErrCodeCacheBadGeneration) {
		t.Errorf("Abort with foreign token: %v", err)
	}
	if err := c.Abort(gen); err != nil {
		t.Errorf("Abort with own token: %v", err)
	}
}
