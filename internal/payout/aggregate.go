package payout

import (
	"sort"

	"pmpayout/internal/video"
)

// CreatorAggregate sums one creator's priced units and exceptions.
type CreatorAggregate struct {
	Creator        string `json:"creator"`
	TotalPayout    int64  `json:"total_payout"`
	QualifiedUnits int    `json:"qualified_units"`
	PairedUnits    int    `json:"paired_units"`
	UnpairedUnits  int    `json:"unpaired_units"`
	Exceptions     int    `json:"exceptions"`
}

// Summarize builds one aggregate per creator named in creators, units, or
// exceptions. Only paired units contribute to the total. Exceptions without a
// creator are not attributable and are ignored. The result is sorted by
// creator.
func Summarize(creators []string, units []Unit, exceptions []video.Exception) []CreatorAggregate {
	byCreator := make(map[string]*CreatorAggregate)
	get := func(creator string) *CreatorAggregate {
		agg, ok := byCreator[creator]
		if !ok {
			agg = &CreatorAggregate{Creator: creator}
			byCreator[creator] = agg
		}
		return agg
	}

	for _, creator := range creators {
		if creator != "" {
			get(creator)
		}
	}
	for _, unit := range units {
		if unit.Creator == "" {
			continue
		}
		agg := get(unit.Creator)
		if unit.Kind != KindPaired {
			agg.UnpairedUnits++
			continue
		}
		agg.PairedUnits++
		agg.TotalPayout += unit.Payout
		if unit.Qualified() {
			agg.QualifiedUnits++
		}
	}
	for _, exc := range exceptions {
		if exc.Creator == "" {
			continue
		}
		get(exc.Creator).Exceptions++
	}

	out := make([]CreatorAggregate, 0, len(byCreator))
	for _, agg := range byCreator {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Creator < out[j].Creator })
	return out
}

// Total sums TotalPayout across aggregates.
func Total(aggregates []CreatorAggregate) int64 {
	var total int64
	for _, agg := range aggregates {
		total += agg.TotalPayout
	}
	return total
}
