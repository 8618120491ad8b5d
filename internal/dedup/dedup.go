package dedup

import (
	"fmt"
	"sort"
	"strings"

	"pmpayout/internal/video"
)

// Result is the outcome of a dedup pass.
type Result struct {
	Records   []video.Record
	Conflicts []video.Exception
	// Removed counts records collapsed into a newer or identical copy.
	Removed int
}

// Records deduplicates records. The output never depends on input order.
func Records(records []video.Record) Result {
	var result Result
	var conflicts []video.Record
	reduce := func(group []video.Record) []video.Record {
		kept, lost, removed := collapse(group)
		conflicts = append(conflicts, lost...)
		result.Removed += removed
		return kept
	}

	byLink := make(map[string][]video.Record)
	var linkless []video.Record
	for _, rec := range records {
		link := strings.TrimSpace(rec.Link)
		if link == "" {
			linkless = append(linkless, rec)
			continue
		}
		byLink[link] = append(byLink[link], rec)
	}

	survivors := append([]video.Record(nil), linkless...)
	for _, key := range sortedKeys(byLink) {
		survivors = append(survivors, reduce(byLink[key])...)
	}

	byID := make(map[string][]video.Record)
	var final []video.Record
	for _, rec := range survivors {
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			final = append(final, rec)
			continue
		}
		key := string(rec.Platform) + ":" + id
		byID[key] = append(byID[key], rec)
	}
	for _, key := range sortedKeys(byID) {
		final = append(final, reduce(byID[key])...)
	}

	sort.SliceStable(final, func(i, j int) bool { return less(final[i], final[j]) })
	sort.SliceStable(conflicts, func(i, j int) bool { return less(conflicts[i], conflicts[j]) })
	result.Records = final
	for _, rec := range conflicts {
		result.Conflicts = append(result.Conflicts, video.NewException(rec, video.ReasonDuplicateConflict))
	}
	return result
}

// collapse reduces one duplicate group to its surviving record. It returns
// the survivor, the conflicting losers, and the number of silently removed
// copies.
func collapse(group []video.Record) (kept, conflicts []video.Record, removed int) {
	if len(group) == 1 {
		return group, nil, 0
	}
	latest := group[0].UpdatedAt
	for _, rec := range group[1:] {
		if rec.UpdatedAt.After(latest) {
			latest = rec.UpdatedAt
		}
	}

	var tied []video.Record
	for _, rec := range group {
		if rec.UpdatedAt.Equal(latest) {
			tied = append(tied, rec)
		}
	}
	removed = len(group) - len(tied)

	sort.SliceStable(tied, func(i, j int) bool {
		if tied[i].Views != tied[j].Views {
			return tied[i].Views > tied[j].Views
		}
		return fingerprint(tied[i]) < fingerprint(tied[j])
	})
	winner := tied[0]
	for _, rec := range tied[1:] {
		if fingerprint(rec) == fingerprint(winner) {
			removed++
			continue
		}
		conflicts = append(conflicts, rec)
	}
	return []video.Record{winner}, conflicts, removed
}

// fingerprint renders the material fields of rec. Two records with equal
// fingerprints are interchangeable.
func fingerprint(rec video.Record) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d|%d|%s|%s",
		rec.Platform,
		rec.Username,
		rec.Link,
		rec.ID,
		rec.UploadDate.Format("2006-01-02"),
		rec.CreatedAt.UTC().Format("2006-01-02T15:04:05.999999999Z"),
		rec.DurationSeconds,
		rec.Views,
		rec.Creator,
		rec.Title,
	)
}

func less(a, b video.Record) bool {
	if a.Platform != b.Platform {
		return a.Platform < b.Platform
	}
	if a.Creator != b.Creator {
		return a.Creator < b.Creator
	}
	if a.Before(b) {
		return true
	}
	if b.Before(a) {
		return false
	}
	return fingerprint(a) < fingerprint(b)
}

func sortedKeys(groups map[string][]video.Record) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
