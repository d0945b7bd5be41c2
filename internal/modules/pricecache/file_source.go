package pricecache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// FileSource reads quotes from a local JSON file, keyed by fund name:
//
//	{"fund name": {"price": "123.45", "units": "10.5"}, ...}
//
// It stands in for a scraping client in development and single-user
// deployments where prices are maintained by hand. Names without an entry
// are skipped silently.
type FileSource struct {
	path string
}

// NewFileSource creates a new file-backed price source
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

type fileQuote struct {
	Price decimal.Decimal `json:"price"`
	Units decimal.Decimal `json:"units"`
}

// Fetch reads the quote file and returns an entry per requested name that
// has one. The file is re-read on every call so edits are picked up by the
// next scrape run.
func (s *FileSource) Fetch(ctx context.Context, names []string) ([]Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote file: %w", err)
	}

	var entries map[string]fileQuote
	if err := json.Unmarshal(content, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse quote file %s: %w", s.path, err)
	}

	var quotes []Quote
	for _, name := range names {
		entry, ok := entries[name]
		if !ok {
			continue
		}
		quotes = append(quotes, Quote{Name: name, Price: entry.Price, Units: entry.Units})
	}

	return quotes, nil
}
