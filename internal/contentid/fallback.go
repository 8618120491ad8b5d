package contentid

import (
	"context"
	"time"

	"pmpayout/internal/payout"
	"pmpayout/internal/signature"
	"pmpayout/internal/video"
)

// candidate is an Instagram slot that survived the fallback filters.
type candidate struct {
	idx      int
	distance int
	gap      time.Duration
}

// better reports whether c should be preferred over best. Candidates are
// visited in position order, so a tie on distance and gap keeps the earlier one.
func (c candidate) better(best candidate) bool {
	if c.distance != best.distance {
		return c.distance < best.distance
	}
	return c.gap < best.gap
}

func creationGap(a, b video.Record) time.Duration {
	gap := a.CreatedAt.Sub(b.CreatedAt)
	if gap < 0 {
		return -gap
	}
	return gap
}

// durationCandidates lists unmatched Instagram slots whose duration equals rec's.
func (r *creatorRun) durationCandidates(rec video.Record) []int {
	var out []int
	for _, idx := range r.pool.unmatched(video.Instagram) {
		if r.pool.instagram[idx].rec.DurationSeconds == rec.DurationSeconds {
			out = append(out, idx)
		}
	}
	return out
}

// fallbackPHash searches the remaining Instagram slots for each unmatched
// TikTok slot in creation order, confirming candidates by hash distance.
func (r *creatorRun) fallbackPHash(ctx context.Context) error {
	pending := r.pool.unmatched(video.TikTok)

	var links []string
	for _, idx := range pending {
		rec := r.pool.tiktok[idx].rec
		candidates := r.durationCandidates(rec)
		if len(candidates) == 0 {
			continue
		}
		links = append(links, rec.Link)
		for _, c := range candidates {
			links = append(links, r.pool.instagram[c].rec.Link)
		}
	}
	r.prefetch(ctx, links)
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, idx := range pending {
		if r.pool.tiktok[idx].status != slotUnmatched {
			continue
		}
		rec := r.pool.tiktok[idx].rec
		candidates := r.durationCandidates(rec)
		if len(candidates) == 0 {
			continue
		}
		hash, err := r.signature(ctx, rec.Link)
		if err != nil {
			r.fail(video.TikTok, idx, err)
			continue
		}

		best := candidate{idx: -1}
		for _, c := range candidates {
			other := r.pool.instagram[c].rec
			otherHash, err := r.signature(ctx, other.Link)
			if err != nil {
				r.fail(video.Instagram, c, err)
				continue
			}
			next := candidate{idx: c, distance: signature.Distance(hash, otherHash), gap: creationGap(rec, other)}
			if next.distance > r.policy.HashThreshold {
				continue
			}
			if best.idx < 0 || next.better(best) {
				best = next
			}
		}
		if best.idx < 0 {
			continue
		}
		distance := best.distance
		if err := r.pair(idx, best.idx, payout.MethodFallback, &distance); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// fallbackUploadDate pairs each unmatched TikTok slot with the unmatched
// Instagram slot of equal duration uploaded on the same calendar date,
// preferring the closest creation time. No signatures are consulted.
func (r *creatorRun) fallbackUploadDate(ctx context.Context) error {
	for _, idx := range r.pool.unmatched(video.TikTok) {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := r.pool.tiktok[idx].rec
		if !rec.HasUploadDate() {
			continue
		}
		best := candidate{idx: -1}
		for _, c := range r.durationCandidates(rec) {
			other := r.pool.instagram[c].rec
			if !other.HasUploadDate() || !sameDate(rec.UploadDate, other.UploadDate) {
				continue
			}
			next := candidate{idx: c, gap: creationGap(rec, other)}
			if best.idx < 0 || next.better(best) {
				best = next
			}
		}
		if best.idx < 0 {
			continue
		}
		if err := r.pair(idx, best.idx, payout.MethodFallback, nil); err != nil {
			return err
		}
	}
	return nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
