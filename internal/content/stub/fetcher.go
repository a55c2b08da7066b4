// Package stub provides an in-memory content fetcher for tests.
package stub

import (
	"context"
	"fmt"
	"sync"

	"evm-token-gateway/internal/content"
)

// Fetcher answers from configured documents and records every call.
type Fetcher struct {
	mu sync.Mutex

	Documents map[string][]byte // uri -> JSON document
	Contents  map[string][]byte // hash -> payload

	FetchErr error
	CatErr   error

	Calls []string
}

// NewFetcher creates an empty stub fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Documents: make(map[string][]byte),
		Contents:  make(map[string][]byte),
	}
}

// CallLog returns a copy of the recorded calls.
func (f *Fetcher) CallLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}

// FetchJSON returns the configured document for uri.
func (f *Fetcher) FetchJSON(_ context.Context, uri string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "FetchJSON "+uri)
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	doc, ok := f.Documents[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", content.ErrNotFound, uri)
	}
	return append([]byte(nil), doc...), nil
}

// Cat returns the configured payload for hash.
func (f *Fetcher) Cat(_ context.Context, hash string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "Cat "+hash)
	if f.CatErr != nil {
		return nil, f.CatErr
	}
	data, ok := f.Contents[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", content.ErrNotFound, hash)
	}
	return append([]byte(nil), data...), nil
}
