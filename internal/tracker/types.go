// Package tracker defines core types shared across subsystems.
package tracker

import (
	"math"
	"strings"
	"time"
)

// TitleDescriptor identifies one retrievable CFR title. Descriptors are
// sourced fresh from the eCFR API on every cycle and never persisted.
type TitleDescriptor struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// TitleSize is the result of one successful content fetch.
type TitleSize struct {
	TitleNumber int     `json:"title_number"`
	TitleName   string  `json:"title_name"`
	SizeBytes   int64   `json:"size_bytes"`
	SizeMB      float64 `json:"size_mb"`
}

// TitleRollup is the per-title entry carried inside an AgencyRecord.
type TitleRollup struct {
	TitleNumber int     `json:"title_number"`
	TitleName   string  `json:"title_name"`
	SizeMB      float64 `json:"size_mb"`
}

// AgencyRecord aggregates regulation sizes for one agency. Exactly one
// record exists per agency code within a snapshot.
type AgencyRecord struct {
	Name             string        `json:"name"`
	Code             string        `json:"code"`
	RegulationSizeMB float64       `json:"regulation_size_mb"`
	LastUpdated      string        `json:"last_updated"`
	Titles           []TitleRollup `json:"titles"`
}

// Snapshot is the complete, internally consistent result of one fetch
// cycle. It is immutable once constructed; the store only ever swaps
// whole snapshots.
type Snapshot struct {
	Agencies             []AgencyRecord `json:"agencies"`
	TotalAgencies        int            `json:"total_agencies"`
	TotalSizeMB          float64        `json:"total_size_mb"`
	LastSync             string         `json:"last_sync"`
	FetchDurationSeconds float64        `json:"fetch_duration_seconds"`
}

// Agency looks up an agency record by code, case-insensitively.
func (s Snapshot) Agency(code string) (AgencyRecord, bool) {
	for _, a := range s.Agencies {
		if strings.EqualFold(a.Code, code) {
			return a, true
		}
	}
	return AgencyRecord{}, false
}

// RoundMB rounds a megabyte figure to two decimal places, the precision
// used everywhere a size appears in a snapshot.
func RoundMB(v float64) float64 {
	return math.Round(v*100) / 100
}

// BytesToMB converts an exact byte count to rounded megabytes.
func BytesToMB(n int64) float64 {
	return RoundMB(float64(n) / (1024 * 1024))
}

// FormatTime renders a timestamp in the ISO-8601 UTC form used in
// snapshots and API responses.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
