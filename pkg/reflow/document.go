package reflow

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/JoaaoVerona/pageflow/pkg/flow"
)

// Document is the serialized run input: the ordered body blocks and the
// document's footnotes. This is the format the CLI reads.
type Document struct {
	Blocks    []flow.Block `json:"blocks"`
	Footnotes FootnoteSet  `json:"footnotes,omitempty"`
}

// ReadDocument parses a document from JSON.
func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// ReadDocumentFile reads a document from a JSON file.
func ReadDocumentFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	return ReadDocument(f)
}

// WriteDocument serializes a document as indented JSON.
func WriteDocument(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}
