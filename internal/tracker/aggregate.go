package tracker

import (
	"sort"
	"time"
)

// Aggregate groups per-title sizes into per-agency totals using the
// static title-to-agency table. It is pure and deterministic apart from
// the supplied timestamp: the same input always yields the same records
// in the same order.
//
// Titles sharing an agency code are summed into one record, appended in
// input order. Duplicate title numbers are summed, not deduplicated.
// Per-agency totals are rounded to two decimals after summation, and the
// output is sorted descending by total size with the stable tie-break
// preserving first-discovered order. Empty input yields empty output.
func Aggregate(sizes []TitleSize, now time.Time) []AgencyRecord {
	byCode := make(map[string]*AgencyRecord, len(sizes))
	order := make([]string, 0, len(sizes))

	for _, ts := range sizes {
		identity := AgencyForTitle(ts.TitleNumber)
		rec, ok := byCode[identity.Code]
		if !ok {
			rec = &AgencyRecord{
				Name: identity.Name,
				Code: identity.Code,
			}
			byCode[identity.Code] = rec
			order = append(order, identity.Code)
		}
		rec.RegulationSizeMB += ts.SizeMB
		rec.Titles = append(rec.Titles, TitleRollup{
			TitleNumber: ts.TitleNumber,
			TitleName:   ts.TitleName,
			SizeMB:      ts.SizeMB,
		})
	}

	updated := FormatTime(now)
	agencies := make([]AgencyRecord, 0, len(order))
	for _, code := range order {
		rec := byCode[code]
		rec.RegulationSizeMB = RoundMB(rec.RegulationSizeMB)
		rec.LastUpdated = updated
		agencies = append(agencies, *rec)
	}

	sort.SliceStable(agencies, func(i, j int) bool {
		return agencies[i].RegulationSizeMB > agencies[j].RegulationSizeMB
	})
	return agencies
}
