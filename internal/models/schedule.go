package models

import "time"

// InstigationStatus is the running state of a schedule or sensor.
type InstigationStatus string

const (
	StatusRunning InstigationStatus = "RUNNING"
	StatusStopped InstigationStatus = "STOPPED"
)

// TickStatus is the outcome of a single evaluation tick.
type TickStatus string

const (
	TickStarted TickStatus = "STARTED"
	TickSkipped TickStatus = "SKIPPED"
	TickSuccess TickStatus = "SUCCESS"
	TickFailure TickStatus = "FAILURE"
)

// RunStatus is the upstream run state. Values are passed through verbatim;
// listing every possible state here would couple us to the upstream run
// lifecycle, and rows only display the string.
type RunStatus string

// ScheduleSelector addresses one schedule definition.
type ScheduleSelector struct {
	LocationName   string `json:"location_name"`
	RepositoryName string `json:"repository_name"`
	ScheduleName   string `json:"schedule_name"`
}

// RepoAddress returns the repository portion of the selector.
func (s ScheduleSelector) RepoAddress() RepoAddress {
	return RepoAddress{RepoName: s.RepositoryName, LocationName: s.LocationName}
}

func (s ScheduleSelector) String() string {
	return s.ScheduleName + " (" + s.RepositoryName + "@" + s.LocationName + ")"
}

// Tick is one recorded schedule evaluation.
type Tick struct {
	Status    TickStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
}

// Run is the most recent run launched by a schedule.
type Run struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	StartTime time.Time `json:"start_time,omitempty"`
}

// ScheduleState is the live instigation state of a schedule.
type ScheduleState struct {
	Status     InstigationStatus `json:"status"`
	LatestTick *Tick             `json:"latest_tick,omitempty"`
	LatestRun  *Run              `json:"latest_run,omitempty"`
	NextTick   *time.Time        `json:"next_tick,omitempty"`
}

// ScheduleDetail is the full definition plus live state for one schedule,
// as returned by a single-schedule fetch.
type ScheduleDetail struct {
	Name              string               `json:"name"`
	CronSchedule      string               `json:"cron_schedule"`
	ExecutionTimezone string               `json:"execution_timezone,omitempty"`
	PipelineName      string               `json:"pipeline_name"`
	Mode              string               `json:"mode,omitempty"`
	PartitionSet      *PartitionSetSummary `json:"partition_set,omitempty"`
	State             ScheduleState        `json:"state"`
}

// ScheduleRow is the derived presentation state for one schedule row.
// Loaded is false until a successful fetch has populated the row; consumers
// render a loading placeholder in that case.
type ScheduleRow struct {
	Selector ScheduleSelector `json:"selector"`
	Loaded   bool             `json:"loaded"`

	Name         string `json:"name"`
	CronSchedule string `json:"cron_schedule,omitempty"`
	// CronText is the humanized cron description with a trailing timezone,
	// or the raw expression when the schedule cannot be described.
	CronText   string `json:"cron_text,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
	TargetName string `json:"target_name,omitempty"`
	// TargetKind is "job" or "pipeline" depending on how the target is
	// defined in the repository snapshot.
	TargetKind      string            `json:"target_kind,omitempty"`
	ScheduleHref    string            `json:"schedule_href,omitempty"`
	TargetHref      string            `json:"target_href,omitempty"`
	Status          InstigationStatus `json:"status,omitempty"`
	LatestTick      *Tick             `json:"latest_tick,omitempty"`
	LatestRun       *Run              `json:"latest_run,omitempty"`
	NextTick        *time.Time        `json:"next_tick,omitempty"`
	HasPartitionSet bool              `json:"has_partition_set"`
	FetchedAt       time.Time         `json:"fetched_at,omitempty"`
	// Note carries a degradation message ("schedule not found", upstream
	// error text) without discarding the last good row content.
	Note string `json:"note,omitempty"`
}
