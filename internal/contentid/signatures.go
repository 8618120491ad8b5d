package contentid

import (
	"context"
	"errors"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"pmpayout/internal/signature"
)

// SignatureProvider returns the 64-bit perceptual hash of the first frame of
// the video at link. The per-lookup timeout arrives in ctx and is started
// with signature.StartLookup once the lookup is running; implementations that
// queue must call it after leaving the queue.
type SignatureProvider interface {
	Signature(ctx context.Context, link string) (uint64, error)
}

// ErrMissingLink is reported for records that have no link to look up.
var ErrMissingLink = errors.New("video has no link")

type lookupResult struct {
	hash uint64
	err  error
}

// prefetch resolves every link not already in r.signatures. Lookups run
// concurrently but results are stored by link, so callers read them back in
// whatever order the algorithm dictates.
func (r *creatorRun) prefetch(ctx context.Context, links []string) {
	seen := make(map[string]struct{}, len(links))
	pending := make([]string, 0, len(links))
	for _, link := range links {
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		if _, ok := r.signatures[link]; ok {
			continue
		}
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		pending = append(pending, link)
	}
	if len(pending) == 0 {
		return
	}
	sort.Strings(pending)

	results := make([]lookupResult, len(pending))
	var g errgroup.Group
	g.SetLimit(r.policy.LookupConcurrency)
	for i, link := range pending {
		g.Go(func() error {
			results[i] = r.lookup(ctx, link)
			return nil
		})
	}
	_ = g.Wait()

	for i, link := range pending {
		r.signatures[link] = results[i]
	}
}

func (r *creatorRun) lookup(ctx context.Context, link string) lookupResult {
	ctx = signature.WithLookupTimeout(ctx, r.policy.LookupTimeout)
	hash, err := r.provider.Signature(ctx, link)
	return lookupResult{hash: hash, err: err}
}

// signature returns the prefetched hash for link, looking it up synchronously
// if it was not part of a prefetch batch.
func (r *creatorRun) signature(ctx context.Context, link string) (uint64, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return 0, ErrMissingLink
	}
	res, ok := r.signatures[link]
	if !ok {
		res = r.lookup(ctx, link)
		r.signatures[link] = res
	}
	return res.hash, res.err
}
