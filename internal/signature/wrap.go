package signature

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"pmpayout/internal/logging"
)

type memoEntry struct {
	hash uint64
	err  error
}

// Memo ensures each link is computed at most once for its lifetime. Failures
// are remembered too, so a broken link is not retried within a run.
type Memo struct {
	next    Provider
	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]memoEntry
}

// NewMemo wraps next.
func NewMemo(next Provider) *Memo {
	return &Memo{next: next, entries: make(map[string]memoEntry)}
}

// Signature implements Provider.
func (m *Memo) Signature(ctx context.Context, link string) (uint64, error) {
	m.mu.Lock()
	entry, ok := m.entries[link]
	m.mu.Unlock()
	if ok {
		return entry.hash, entry.err
	}

	value, err, _ := m.group.Do(link, func() (any, error) {
		hash, err := m.next.Signature(ctx, link)
		if ctx.Err() == nil {
			m.mu.Lock()
			m.entries[link] = memoEntry{hash: hash, err: err}
			m.mu.Unlock()
		}
		return hash, err
	})
	if err != nil {
		return 0, err
	}
	return value.(uint64), nil
}

// Limited bounds concurrent lookups on next.
type Limited struct {
	next Provider
	sem  *semaphore.Weighted
}

// NewLimited wraps next with a limit of n concurrent lookups.
func NewLimited(next Provider, n int) *Limited {
	if n <= 0 {
		n = 1
	}
	return &Limited{next: next, sem: semaphore.NewWeighted(int64(n))}
}

// Signature implements Provider. The lookup budget starts once a slot is
// held.
func (l *Limited) Signature(ctx context.Context, link string) (uint64, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return 0, newFailure(ctx, KindTimeout, link, "waiting for lookup slot", err)
	}
	defer l.sem.Release(1)
	ctx, cancel := StartLookup(ctx)
	defer cancel()
	return l.next.Signature(ctx, link)
}

// Cache persists successful lookups across runs.
type Cache interface {
	LookupSignature(ctx context.Context, link string) (uint64, bool, error)
	SaveSignature(ctx context.Context, link string, hash uint64) error
}

// Cached consults cache before calling next. Cache errors are logged and
// otherwise ignored.
type Cached struct {
	next   Provider
	cache  Cache
	logger *slog.Logger
}

// NewCached wraps next with cache.
func NewCached(next Provider, cache Cache, logger *slog.Logger) *Cached {
	return &Cached{next: next, cache: cache, logger: logging.NewComponentLogger(logger, "signature")}
}

// Signature implements Provider.
func (c *Cached) Signature(ctx context.Context, link string) (uint64, error) {
	key := strings.TrimSpace(link)
	if hash, ok, err := c.cache.LookupSignature(ctx, key); err != nil {
		c.logger.Debug("signature cache read failed", logging.String(logging.FieldLink, key), logging.Error(err))
	} else if ok {
		return hash, nil
	}
	hash, err := c.next.Signature(ctx, link)
	if err != nil {
		return 0, err
	}
	if err := c.cache.SaveSignature(ctx, key, hash); err != nil {
		c.logger.Debug("signature cache write failed", logging.String(logging.FieldLink, key), logging.Error(err))
	}
	return hash, nil
}
