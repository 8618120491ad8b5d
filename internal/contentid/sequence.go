package contentid

import (
	"context"

	"pmpayout/internal/payout"
	"pmpayout/internal/signature"
	"pmpayout/internal/video"
)

// sequencePhase pairs records at equal positions. Pairs rejected on duration
// or distance stay unmatched for the fallback phase; pairs whose signature
// lookup fails are excluded on both sides.
func (r *creatorRun) sequencePhase(ctx context.Context) error {
	n := min(len(r.pool.tiktok), len(r.pool.instagram))

	links := make([]string, 0, 2*n)
	for i := range n {
		tt, ig := r.pool.tiktok[i].rec, r.pool.instagram[i].rec
		if tt.DurationSeconds == ig.DurationSeconds {
			links = append(links, tt.Link, ig.Link)
		}
	}
	r.prefetch(ctx, links)
	if err := ctx.Err(); err != nil {
		return err
	}

	for i := range n {
		tt, ig := r.pool.tiktok[i].rec, r.pool.instagram[i].rec
		if tt.DurationSeconds != ig.DurationSeconds {
			continue
		}
		ttHash, ttErr := r.signature(ctx, tt.Link)
		igHash, igErr := r.signature(ctx, ig.Link)
		if ttErr != nil || igErr != nil {
			cause := ttErr
			if cause == nil {
				cause = igErr
			}
			r.fail(video.TikTok, i, cause)
			r.fail(video.Instagram, i, cause)
			continue
		}
		distance := signature.Distance(ttHash, igHash)
		if distance > r.policy.HashThreshold {
			continue
		}
		if err := r.pair(i, i, payout.MethodSequence, &distance); err != nil {
			return err
		}
	}
	return ctx.Err()
}
