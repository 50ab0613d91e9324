package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadSource loads the raw record collection from a JSON array file.
// Records are kept raw so one malformed record cannot fail the whole file.
func ReadSource(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	return ReadRecords(f)
}

// ReadRecords decodes a JSON array into raw records.
func ReadRecords(r io.Reader) ([]json.RawMessage, error) {
	var raws []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}
	return raws, nil
}
