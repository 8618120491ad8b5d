package contentid

import (
	"fmt"

	"pmpayout/internal/identity"
	"pmpayout/internal/video"
)

type slotStatus uint8

const (
	slotUnmatched slotStatus = iota
	slotUsed
	slotExcluded
)

type slot struct {
	rec    video.Record
	status slotStatus
	reason video.Reason
}

// matchPool is the per-creator arena of record slots. Only the matcher for
// that creator mutates it.
type matchPool struct {
	creator   string
	tiktok    []slot
	instagram []slot
}

func newMatchPool(pool identity.Pool) *matchPool {
	p := &matchPool{
		creator:   pool.Creator,
		tiktok:    make([]slot, len(pool.TikTok)),
		instagram: make([]slot, len(pool.Instagram)),
	}
	for i, rec := range pool.TikTok {
		p.tiktok[i] = slot{rec: rec}
	}
	for i, rec := range pool.Instagram {
		p.instagram[i] = slot{rec: rec}
	}
	return p
}

func (p *matchPool) side(platform video.Platform) []slot {
	if platform == video.TikTok {
		return p.tiktok
	}
	return p.instagram
}

// consume marks a TikTok slot and an Instagram slot as used together.
func (p *matchPool) consume(tiktokIdx, instagramIdx int) error {
	tt := &p.tiktok[tiktokIdx]
	ig := &p.instagram[instagramIdx]
	if tt.status != slotUnmatched || ig.status != slotUnmatched {
		return fmt.Errorf("slot already consumed: tiktok[%d]=%d instagram[%d]=%d", tiktokIdx, tt.status, instagramIdx, ig.status)
	}
	tt.status = slotUsed
	ig.status = slotUsed
	return nil
}

// exclude removes an unmatched slot from further matching. Slots that are
// already used or excluded are left alone.
func (p *matchPool) exclude(platform video.Platform, idx int, reason video.Reason) bool {
	s := &p.side(platform)[idx]
	if s.status != slotUnmatched {
		return false
	}
	s.status = slotExcluded
	s.reason = reason
	return true
}

func (p *matchPool) unmatched(platform video.Platform) []int {
	var out []int
	for i, s := range p.side(platform) {
		if s.status == slotUnmatched {
			out = append(out, i)
		}
	}
	return out
}
