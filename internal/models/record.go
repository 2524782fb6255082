// Package models defines core data structures for the workspace snapshot,
// schedule state, and search records.
package models

// ResultType categorizes a search record by the kind of workspace entity it
// points at.
type ResultType string

const (
	TypePipeline     ResultType = "pipeline"
	TypeSchedule     ResultType = "schedule"
	TypeSensor       ResultType = "sensor"
	TypeResource     ResultType = "resource"
	TypePartitionSet ResultType = "partition_set"
	TypeAsset        ResultType = "asset"
)

// SearchRecord is one searchable workspace entity. Records are immutable
// value objects with no identity beyond structural equality; a new snapshot
// produces a new record list rather than mutating an old one.
type SearchRecord struct {
	// Label is the primary matchable display name.
	Label string `json:"label"`
	// Description is secondary human-readable context ("Job", "Schedule in
	// repo@location", "Asset"). It is displayed but never matched.
	Description string `json:"description"`
	// Href is the navigation target. Opaque to search logic.
	Href string `json:"href"`
	// Type is the entity category. Matchable.
	Type ResultType `json:"type"`
	// Segments holds decomposed asset key path tokens. Matchable. Only
	// populated for hierarchical entities (assets).
	Segments []string `json:"segments,omitempty"`
	// Tags are optional matchable labels. Normalizers currently leave this
	// empty; the field exists so indexes and API responses keep a stable
	// shape when tagging lands upstream.
	Tags []string `json:"tags,omitempty"`
}

// ScoredRecord is a search hit: a record plus its relevance score and,
// when highlighting is enabled, per-field match fragments.
type ScoredRecord struct {
	SearchRecord
	Score float64 `json:"score"`
	// Matches maps matched field names to highlight fragments.
	Matches map[string][]string `json:"matches,omitempty"`
}
