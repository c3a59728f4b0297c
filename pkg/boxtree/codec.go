package boxtree

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Decode reads a tree snapshot from r and validates it.
func Decode(r io.Reader) (*Tree, error) {
	var t Tree
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode tree snapshot: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tree snapshot: %w", err)
	}
	return &t, nil
}

// Encode writes a tree snapshot to w.
func Encode(t *Tree, w io.Writer) error {
	if err := json.NewEncoder(w).Encode(t); err != nil {
		return fmt.Errorf("failed to encode tree snapshot: %w", err)
	}
	return nil
}

// LoadFile reads and validates a tree snapshot from a file.
func LoadFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tree snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
