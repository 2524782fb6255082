package models

import "time"

// SearchRequest is the body of a search API call.
type SearchRequest struct {
	Query string `json:"query"`
	// IncludeSecondary forces the secondary (asset) index fetch even when
	// the query alone would not trigger it.
	IncludeSecondary bool `json:"include_secondary,omitempty"`
}

// SearchResponse is the response for a search request. Results from the
// bootstrap index always precede results from the secondary index.
type SearchResponse struct {
	Query string `json:"query"`
	// Loading reports whether either index fetch was still in flight when
	// the query ran; callers typically re-query once it clears.
	Loading   bool           `json:"loading"`
	Results   []ScoredRecord `json:"results"`
	QueryTime int64          `json:"query_time_ms"`
}

// ScheduleList is the response for a schedule listing request. Rows for
// schedules under active watch carry live state; the rest are static rows
// derived from the workspace snapshot.
type ScheduleList struct {
	FetchedAt time.Time     `json:"fetched_at,omitempty"`
	Schedules []ScheduleRow `json:"schedules"`
}

// IndexStatus describes one search index slot.
type IndexStatus struct {
	// State is the slot fetch lifecycle: "not_fetched", "in_flight",
	// "ready", or "failed".
	State   string `json:"state"`
	Records int    `json:"records"`
	// Stale marks an index seeded from the local snapshot cache and not
	// yet confirmed by a live fetch.
	Stale      bool      `json:"stale"`
	Generation string    `json:"generation,omitempty"`
	FetchedAt  time.Time `json:"fetched_at,omitempty"`
}

// StatusReport is the response for a status request.
type StatusReport struct {
	Bootstrap      IndexStatus `json:"bootstrap"`
	Secondary      IndexStatus `json:"secondary"`
	Loading        bool        `json:"loading"`
	ActiveWatchers int         `json:"active_watchers"`
	CacheBytes     int64       `json:"cache_bytes,omitempty"`
	Version        string      `json:"version,omitempty"`
}
