package identity

import (
	"slices"
	"sort"
	"strings"

	"pmpayout/internal/video"
)

// Attach stamps the resolved creator onto every record and exception. Entries
// that do not resolve keep an empty creator.
func Attach(resolver Resolver, records []video.Record, exceptions []video.Exception) {
	if resolver == nil {
		return
	}
	for i := range records {
		if creator, ok := resolver.Resolve(records[i].Platform, records[i].Username); ok {
			records[i].Creator = creator
		}
	}
	for i := range exceptions {
		if creator, ok := resolver.Resolve(exceptions[i].Platform, exceptions[i].Username); ok {
			exceptions[i].Creator = creator
		}
	}
}

// Pool holds one creator's records split by platform, each side sorted
// ascending by creation time.
type Pool struct {
	Creator   string
	TikTok    []video.Record
	Instagram []video.Record
}

// Size returns the number of records in the pool.
func (p Pool) Size() int {
	return len(p.TikTok) + len(p.Instagram)
}

// Group partitions records by creator. Records with no creator become
// "not in creator list" exceptions. Pools are returned sorted by creator name.
func Group(records []video.Record) ([]Pool, []video.Exception) {
	byCreator := make(map[string]*Pool)
	var unresolved []video.Exception
	for _, rec := range records {
		if !rec.HasCreator() {
			unresolved = append(unresolved, video.NewException(rec, video.ReasonNotInCreatorList))
			continue
		}
		pool, ok := byCreator[rec.Creator]
		if !ok {
			pool = &Pool{Creator: rec.Creator}
			byCreator[rec.Creator] = pool
		}
		switch rec.Platform {
		case video.TikTok:
			pool.TikTok = append(pool.TikTok, rec)
		case video.Instagram:
			pool.Instagram = append(pool.Instagram, rec)
		}
	}

	pools := make([]Pool, 0, len(byCreator))
	for _, pool := range byCreator {
		sortRecords(pool.TikTok)
		sortRecords(pool.Instagram)
		pools = append(pools, *pool)
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].Creator < pools[j].Creator })
	slices.SortStableFunc(unresolved, compareExceptions)
	return pools, unresolved
}

func sortRecords(records []video.Record) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Before(records[j]) })
}

func compareExceptions(a, b video.Exception) int {
	switch {
	case a.Platform != b.Platform:
		return strings.Compare(string(a.Platform), string(b.Platform))
	case a.Username != b.Username:
		return strings.Compare(a.Username, b.Username)
	case !a.CreatedAt.Equal(b.CreatedAt):
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return strings.Compare(a.Link, b.Link)
	}
}
