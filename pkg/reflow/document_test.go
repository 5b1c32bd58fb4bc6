package reflow

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/JoaaoVerona/pageflow/pkg/flow"
)

func TestDocumentRoundTrip(t *testing.T) {
	doc := &Document{
		Blocks: bodyBlocks(3, 0),
		Footnotes: FootnoteSet{
			Refs:       []FootnoteRef{{ID: "fn1", Pos: 4}},
			BlocksByID: map[string][]flow.Block{"fn1": {paragraph("fn1.1", "note", 0)}},
		},
	}

	var buf bytes.Buffer
	if err := WriteDocument(&buf, doc); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}

	got, err := ReadDocument(&buf)
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if len(got.Blocks) != 3 {
		t.Errorf("blocks = %d, want 3", len(got.Blocks))
	}
	if got.Blocks[0].ID != "p1" || got.Blocks[0].Runs[0].Text != "paragraph01" {
		t.Errorf("first block = %+v", got.Blocks[0])
	}
	if len(got.Footnotes.Refs) != 1 || got.Footnotes.Refs[0].Pos != 4 {
		t.Errorf("refs = %+v", got.Footnotes.Refs)
	}
	if len(got.Footnotes.BlocksByID["fn1"]) != 1 {
		t.Errorf("footnote bodies = %+v", got.Footnotes.BlocksByID)
	}
}

func TestReadDocumentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	doc := &Document{Blocks: bodyBlocks(2, 0)}

	var buf bytes.Buffer
	if err := WriteDocument(&buf, doc); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ReadDocumentFile(path)
	if err != nil {
		t.Fatalf("ReadDocumentFile: %v", err)
	}
	if len(got.Blocks) != 2 {
		t.Errorf("blocks = %d, want 2", len(got.Blocks))
	}

	if _, err := ReadDocumentFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ReadDocumentFile(bad); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
