package models

import "time"

// RepoAddress identifies a repository within a workspace. The canonical
// string form "name@location" is used in navigation paths and in
// multi-repository result descriptions.
type RepoAddress struct {
	RepoName     string `json:"repo_name"`
	LocationName string `json:"location_name"`
}

func (a RepoAddress) String() string {
	return a.RepoName + "@" + a.LocationName
}

// Workspace is a point-in-time snapshot of every load-able code location
// and the repositories it serves.
type Workspace struct {
	FetchedAt time.Time  `json:"fetched_at"`
	Locations []Location `json:"locations"`
}

// Location is one code location. Locations that failed to load upstream are
// omitted from the snapshot entirely.
type Location struct {
	Name         string       `json:"name"`
	Repositories []Repository `json:"repositories"`
}

// Repository is a named collection of definitions inside a location.
type Repository struct {
	Name          string                `json:"name"`
	LocationName  string                `json:"location_name"`
	Pipelines     []Pipeline            `json:"pipelines,omitempty"`
	Schedules     []ScheduleSummary     `json:"schedules,omitempty"`
	Sensors       []SensorSummary       `json:"sensors,omitempty"`
	PartitionSets []PartitionSetSummary `json:"partition_sets,omitempty"`
	Resources     []ResourceSummary     `json:"resources,omitempty"`
}

// Address returns the repository's workspace-unique address.
func (r *Repository) Address() RepoAddress {
	return RepoAddress{RepoName: r.Name, LocationName: r.LocationName}
}

// HasJob reports whether name refers to a job (as opposed to a legacy
// pipeline) in this repository.
func (r *Repository) HasJob(name string) bool {
	if r == nil {
		return false
	}
	for _, p := range r.Pipelines {
		if p.IsJob && p.Name == name {
			return true
		}
	}
	return false
}

// Pipeline is a pipeline or job definition. IsJob distinguishes the two
// for navigation purposes only.
type Pipeline struct {
	Name  string `json:"name"`
	IsJob bool   `json:"is_job"`
}

// ScheduleSummary is the per-repository schedule listing entry. It carries
// enough static definition data to render a row before any live state has
// been polled.
type ScheduleSummary struct {
	Name              string `json:"name"`
	CronSchedule      string `json:"cron_schedule,omitempty"`
	ExecutionTimezone string `json:"execution_timezone,omitempty"`
	PipelineName      string `json:"pipeline_name,omitempty"`
}

// SensorSummary is the per-repository sensor listing entry.
type SensorSummary struct {
	Name string `json:"name"`
}

// PartitionSetSummary describes a partition set and the pipeline it
// partitions.
type PartitionSetSummary struct {
	Name         string `json:"name"`
	PipelineName string `json:"pipeline_name"`
}

// ResourceSummary is a top-level resource definition entry.
type ResourceSummary struct {
	Name string `json:"name"`
}

// RepositoryCount returns the total number of repositories across all
// locations.
func (w *Workspace) RepositoryCount() int {
	if w == nil {
		return 0
	}
	n := 0
	for _, loc := range w.Locations {
		n += len(loc.Repositories)
	}
	return n
}

// FindRepository returns the repository at addr, or nil when the snapshot
// has no such repository.
func (w *Workspace) FindRepository(addr RepoAddress) *Repository {
	if w == nil {
		return nil
	}
	for li := range w.Locations {
		loc := &w.Locations[li]
		if loc.Name != addr.LocationName {
			continue
		}
		for ri := range loc.Repositories {
			if loc.Repositories[ri].Name == addr.RepoName {
				return &loc.Repositories[ri]
			}
		}
	}
	return nil
}

// AssetKey identifies an asset by its hierarchical path.
type AssetKey struct {
	Path []string `json:"path"`
}

// AssetCatalog is a snapshot of all known asset keys.
type AssetCatalog struct {
	FetchedAt time.Time  `json:"fetched_at"`
	Keys      []AssetKey `json:"keys"`
}
