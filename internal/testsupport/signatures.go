package testsupport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pmpayout/internal/signature"
)

// FakeSignatures is an in-memory signature provider keyed by link. Unknown
// links fail. It is safe for concurrent use.
type FakeSignatures struct {
	mu       sync.Mutex
	hashes   map[string]uint64
	failures map[string]error
	delays   map[string]time.Duration
	calls    map[string]int
}

// NewFakeSignatures returns an empty provider.
func NewFakeSignatures() *FakeSignatures {
	return &FakeSignatures{
		hashes:   make(map[string]uint64),
		failures: make(map[string]error),
		delays:   make(map[string]time.Duration),
		calls:    make(map[string]int),
	}
}

// Set registers the hash returned for link.
func (f *FakeSignatures) Set(link string, hash uint64) *FakeSignatures {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hashes[link] = hash
	return f
}

// Fail makes lookups for link return err.
func (f *FakeSignatures) Fail(link string, err error) *FakeSignatures {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[link] = err
	return f
}

// Delay blocks lookups for link for d or until the context ends.
func (f *FakeSignatures) Delay(link string, d time.Duration) *FakeSignatures {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[link] = d
	return f
}

// Signature implements contentid.SignatureProvider. The lookup budget in
// ctx starts on entry, as for a real provider.
func (f *FakeSignatures) Signature(ctx context.Context, link string) (uint64, error) {
	ctx, cancel := signature.StartLookup(ctx)
	defer cancel()
	f.mu.Lock()
	f.calls[link]++
	delay := f.delays[link]
	hash, ok := f.hashes[link]
	failure := f.failures[link]
	f.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
		}
	}
	if failure != nil {
		return 0, failure
	}
	if !ok {
		return 0, fmt.Errorf("no signature registered for %s", link)
	}
	return hash, nil
}

// Calls reports how many lookups were made for link.
func (f *FakeSignatures) Calls(link string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[link]
}

// TotalCalls reports the number of lookups across all links.
func (f *FakeSignatures) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}
