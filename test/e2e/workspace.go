// Package e2e exercises the assembled HTTP API against a generated
// multi-location workspace served by a fake upstream.
package e2e

import (
	"encoding/json"
	"fmt"

	"github.com/takeru911/dagster/internal/models"
)

// PartitionSetFixture is one partition set definition in a repository.
type PartitionSetFixture struct {
	Name   string
	Target string
}

// RepositoryFixture is one repository definition. Jobs and Pipelines both
// become pipeline entries upstream; only the isJob flag differs.
type RepositoryFixture struct {
	Name          string
	Jobs          []string
	Pipelines     []string
	Sensors       []string
	PartitionSets []PartitionSetFixture
	Resources     []string
}

// LocationFixture is one workspace location with its repositories.
type LocationFixture struct {
	Name         string
	Repositories []RepositoryFixture
}

// ScheduleFixture is the definition and live state the fake upstream
// reports for one schedule. An empty Timezone is reported as null; a zero
// NextTick omits the next tick.
type ScheduleFixture struct {
	Location   string
	Repository string
	Name       string
	Cron       string
	Timezone   string
	Target     string

	Status       models.InstigationStatus
	TickStatus   models.TickStatus
	TickTime     int64
	RunID        string
	RunStatus    string
	NextTick     int64
	PartitionSet string
}

// QueryTestCase defines a query and the record label(s) of which at least
// one must appear in the results with the given type.
type QueryTestCase struct {
	Query          string
	ExpectedLabels []string
	ExpectedType   models.ResultType
	Description    string
}

// Fixture holds the generated workspace, asset catalog, schedule states,
// and query test cases for E2E tests.
type Fixture struct {
	Locations []LocationFixture
	Assets    [][]string
	Schedules []ScheduleFixture
	TestCases []QueryTestCase

	// TotalWorkspaceRecords counts pipelines, schedules, sensors, partition
	// sets, and resources across every location.
	TotalWorkspaceRecords int
	TotalQueries          int
}

// BuildFixture returns a workspace spanning four locations with jobs,
// legacy pipelines, schedules, sensors, partition sets, and resources, an
// asset catalog, and query test cases targeting each entity kind.
func BuildFixture() *Fixture {
	f := &Fixture{
		Locations: []LocationFixture{
			{Name: "etl-prod", Repositories: []RepositoryFixture{
				{
					Name:          "etl_repo",
					Jobs:          []string{"orders_ingest", "daily_revenue_rollup", "customer_dedupe", "inventory_sync"},
					Sensors:       []string{"new_orders_sensor", "failed_runs_sensor"},
					PartitionSets: []PartitionSetFixture{{Name: "daily_revenue_partitions", Target: "daily_revenue_rollup"}},
					Resources:     []string{"warehouse_io", "snowflake_conn"},
				},
			}},
			{Name: "ml-platform", Repositories: []RepositoryFixture{
				{
					Name:          "training_repo",
					Jobs:          []string{"feature_backfill", "churn_model_train", "embedding_refresh"},
					Sensors:       []string{"model_drift_sensor"},
					PartitionSets: []PartitionSetFixture{{Name: "churn_training_windows", Target: "churn_model_train"}},
					Resources:     []string{"gpu_cluster"},
				},
				{
					Name:      "serving_repo",
					Jobs:      []string{"model_promote", "canary_eval"},
					Sensors:   []string{"endpoint_latency_sensor"},
					Resources: []string{"model_registry"},
				},
			}},
			{Name: "analytics", Repositories: []RepositoryFixture{
				{
					Name:          "dashboards_repo",
					Jobs:          []string{"exec_summary_build"},
					Pipelines:     []string{"legacy_kpi_export", "marketing_attribution"},
					PartitionSets: []PartitionSetFixture{{Name: "attribution_by_month", Target: "marketing_attribution"}},
					Resources:     []string{"looker_api"},
				},
			}},
			{Name: "ingest-edge", Repositories: []RepositoryFixture{
				{
					Name:      "streaming_repo",
					Jobs:      []string{"clickstream_compact", "sessionize_events"},
					Sensors:   []string{"kafka_lag_sensor"},
					Resources: []string{"kafka_consumer_cfg"},
				},
			}},
		},
		Assets: [][]string{
			{"warehouse", "orders", "raw"},
			{"warehouse", "orders", "cleaned"},
			{"warehouse", "revenue", "daily"},
			{"warehouse", "inventory", "levels"},
			{"ml", "features", "customer_churn"},
			{"ml", "models", "churn_v2"},
			{"ml", "embeddings", "products"},
			{"analytics", "kpi", "daily_summary"},
			{"analytics", "marketing", "attribution"},
			{"clickstream", "events", "raw"},
			{"clickstream", "sessions", "rolled"},
			{"finance", "ledger", "entries"},
			{"finance", "ledger", "balances"},
			{"crm", "contacts", "master"},
			{"crm", "accounts", "scored"},
			{"telemetry", "spans", "sampled"},
		},
		Schedules: []ScheduleFixture{
			{
				Location: "etl-prod", Repository: "etl_repo", Name: "nightly_revenue",
				Cron: "0 2 * * *", Timezone: "America/New_York", Target: "daily_revenue_rollup",
				Status: models.StatusRunning, TickStatus: models.TickSuccess, TickTime: 1755900000,
				RunID: "run-7f3a", RunStatus: "SUCCESS", NextTick: 1755903600,
				PartitionSet: "daily_revenue_partitions",
			},
			{
				Location: "etl-prod", Repository: "etl_repo", Name: "hourly_inventory",
				Cron: "0 * * * *", Target: "inventory_sync",
				Status: models.StatusRunning, TickStatus: models.TickSkipped, TickTime: 1755901800,
				RunID: "run-91c2", RunStatus: "STARTED", NextTick: 1755902700,
			},
			{
				Location: "ml-platform", Repository: "training_repo", Name: "weekly_churn_train",
				Cron: "0 6 * * 1", Timezone: "US/Central", Target: "churn_model_train",
				Status: models.StatusStopped,
			},
			{
				Location: "analytics", Repository: "dashboards_repo", Name: "morning_kpi_export",
				Cron: "30 5 * * *", Timezone: "Europe/Berlin", Target: "legacy_kpi_export",
				Status: models.StatusRunning, TickStatus: models.TickFailure, TickTime: 1755895500,
				RunID: "run-04bd", RunStatus: "FAILURE", NextTick: 1755981900,
			},
			{
				Location: "ingest-edge", Repository: "streaming_repo", Name: "nightly_compaction",
				Cron: "45 1 * * *", Target: "clickstream_compact",
				Status: models.StatusStopped, TickStatus: models.TickSuccess, TickTime: 1755826200,
				RunID: "run-5e10", RunStatus: "SUCCESS",
			},
		},
	}
	f.TestCases = buildQueryTestCases()
	f.TotalWorkspaceRecords = f.countWorkspaceRecords()
	f.TotalQueries = len(f.TestCases)
	return f
}

func buildQueryTestCases() []QueryTestCase {
	cases := []QueryTestCase{
		{Query: "revenue rollup", ExpectedLabels: []string{"daily_revenue_rollup"}, ExpectedType: models.TypePipeline},
		{Query: "orders ingest", ExpectedLabels: []string{"orders_ingest"}, ExpectedType: models.TypePipeline},
		{Query: "invento", ExpectedLabels: []string{"inventory_sync"}, ExpectedType: models.TypePipeline},
		{Query: "customer dedupe", ExpectedLabels: []string{"customer_dedupe"}, ExpectedType: models.TypePipeline},
		{Query: "churn model", ExpectedLabels: []string{"churn_model_train"}, ExpectedType: models.TypePipeline},
		{Query: "embedding refresh", ExpectedLabels: []string{"embedding_refresh"}, ExpectedType: models.TypePipeline},
		{Query: "feature backfill", ExpectedLabels: []string{"feature_backfill"}, ExpectedType: models.TypePipeline},
		{Query: "canary", ExpectedLabels: []string{"canary_eval"}, ExpectedType: models.TypePipeline},
		{Query: "promote", ExpectedLabels: []string{"model_promote"}, ExpectedType: models.TypePipeline},
		{Query: "exec summary", ExpectedLabels: []string{"exec_summary_build"}, ExpectedType: models.TypePipeline},
		{Query: "attribution", ExpectedLabels: []string{"marketing_attribution"}, ExpectedType: models.TypePipeline},
		{Query: "clickstrem compact", ExpectedLabels: []string{"clickstream_compact"}, ExpectedType: models.TypePipeline},
		{Query: "sessionize", ExpectedLabels: []string{"sessionize_events"}, ExpectedType: models.TypePipeline},
		{Query: "nightly", ExpectedLabels: []string{"nightly_revenue", "nightly_compaction"}, ExpectedType: models.TypeSchedule},
		{Query: "hourly inventory", ExpectedLabels: []string{"hourly_inventory"}, ExpectedType: models.TypeSchedule},
		{Query: "weekly churn", ExpectedLabels: []string{"weekly_churn_train"}, ExpectedType: models.TypeSchedule},
		{Query: "morning kpi", ExpectedLabels: []string{"morning_kpi_export"}, ExpectedType: models.TypeSchedule},
		{Query: "drift sensor", ExpectedLabels: []string{"model_drift_sensor"}, ExpectedType: models.TypeSensor},
		{Query: "kafka lag", ExpectedLabels: []string{"kafka_lag_sensor"}, ExpectedType: models.TypeSensor},
		{Query: "revenue partitions", ExpectedLabels: []string{"daily_revenue_partitions"}, ExpectedType: models.TypePartitionSet},
		{Query: "training windows", ExpectedLabels: []string{"churn_training_windows"}, ExpectedType: models.TypePartitionSet},
		{Query: "gpu cluster", ExpectedLabels: []string{"gpu_cluster"}, ExpectedType: models.TypeResource},
		{Query: "snowflake", ExpectedLabels: []string{"snowflake_conn"}, ExpectedType: models.TypeResource},
		{Query: "looker", ExpectedLabels: []string{"looker_api"}, ExpectedType: models.TypeResource},
		{Query: "warehouse orders", ExpectedLabels: []string{"warehouse/orders/raw", "warehouse/orders/cleaned"}, ExpectedType: models.TypeAsset},
		{Query: "ledger balances", ExpectedLabels: []string{"finance/ledger/balances"}, ExpectedType: models.TypeAsset},
		{Query: "embeddings products", ExpectedLabels: []string{"ml/embeddings/products"}, ExpectedType: models.TypeAsset},
		{Query: "contacts master", ExpectedLabels: []string{"crm/contacts/master"}, ExpectedType: models.TypeAsset},
		{Query: "revnue daily", ExpectedLabels: []string{"warehouse/revenue/daily"}, ExpectedType: models.TypeAsset},
		{Query: "telemetry spans", ExpectedLabels: []string{"telemetry/spans/sampled"}, ExpectedType: models.TypeAsset},
	}
	for i := range cases {
		tc := &cases[i]
		tc.Description = fmt.Sprintf("query %q surfaces %s %q", tc.Query, tc.ExpectedType, tc.ExpectedLabels[0])
	}
	return cases
}

func (f *Fixture) countWorkspaceRecords() int {
	n := 0
	for _, loc := range f.Locations {
		for _, repo := range loc.Repositories {
			n += len(repo.Jobs) + len(repo.Pipelines) + len(repo.Sensors) + len(repo.PartitionSets) + len(repo.Resources)
			n += len(f.schedulesFor(loc.Name, repo.Name))
		}
	}
	return n
}

// Schedule returns the fixture for the named schedule, or nil. Schedule
// names are unique across the fixture.
func (f *Fixture) Schedule(name string) *ScheduleFixture {
	for i := range f.Schedules {
		if f.Schedules[i].Name == name {
			return &f.Schedules[i]
		}
	}
	return nil
}

func (f *Fixture) schedulesFor(location, repository string) []ScheduleFixture {
	var out []ScheduleFixture
	for _, s := range f.Schedules {
		if s.Location == location && s.Repository == repository {
			out = append(out, s)
		}
	}
	return out
}

// Wire shapes for the fake upstream's responses. The tests build these
// rather than reusing gateway internals so a wire regression cannot hide
// in shared code.

type wireWorkspace struct {
	Typename        string              `json:"__typename"`
	LocationEntries []wireLocationEntry `json:"locationEntries"`
}

type wireLocationEntry struct {
	Name     string        `json:"name"`
	Location *wireLocation `json:"locationOrLoadError"`
}

type wireLocation struct {
	Typename     string           `json:"__typename"`
	Name         string           `json:"name"`
	Repositories []wireRepository `json:"repositories"`
}

type wireRepository struct {
	Name          string             `json:"name"`
	Pipelines     []wirePipeline     `json:"pipelines"`
	Schedules     []wireSchedule     `json:"schedules"`
	Sensors       []wireNamed        `json:"sensors"`
	PartitionSets []wirePartitionSet `json:"partitionSets"`
	Resources     []wireNamed        `json:"allTopLevelResourceDetails"`
}

type wirePipeline struct {
	Name  string `json:"name"`
	IsJob bool   `json:"isJob"`
}

type wireSchedule struct {
	Name              string  `json:"name"`
	CronSchedule      string  `json:"cronSchedule"`
	ExecutionTimezone *string `json:"executionTimezone"`
	PipelineName      string  `json:"pipelineName"`
}

type wireNamed struct {
	Name string `json:"name"`
}

type wirePartitionSet struct {
	Name         string `json:"name"`
	PipelineName string `json:"pipelineName"`
}

type wireAssetConnection struct {
	Typename string          `json:"__typename"`
	Nodes    []wireAssetNode `json:"nodes"`
}

type wireAssetNode struct {
	Key wireAssetKey `json:"key"`
}

type wireAssetKey struct {
	Path []string `json:"path"`
}

type wireScheduleDetail struct {
	Typename          string            `json:"__typename"`
	Name              string            `json:"name"`
	CronSchedule      string            `json:"cronSchedule"`
	ExecutionTimezone *string           `json:"executionTimezone"`
	PipelineName      string            `json:"pipelineName"`
	Mode              string            `json:"mode"`
	PartitionSet      *wirePartitionSet `json:"partitionSet"`
	ScheduleState     wireScheduleState `json:"scheduleState"`
}

type wireScheduleState struct {
	Status   string        `json:"status"`
	Ticks    []wireTick    `json:"ticks"`
	Runs     []wireRun     `json:"runs"`
	NextTick *wireNextTick `json:"nextTick"`
}

type wireTick struct {
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
}

type wireRun struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	StartTime float64 `json:"startTime"`
}

type wireNextTick struct {
	Timestamp float64 `json:"timestamp"`
}

func envelope(data interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{"data": data})
}

// WorkspaceResponse renders the fixture as the upstream's workspace query
// response body.
func (f *Fixture) WorkspaceResponse() ([]byte, error) {
	entries := make([]wireLocationEntry, 0, len(f.Locations))
	for _, loc := range f.Locations {
		repos := make([]wireRepository, 0, len(loc.Repositories))
		for _, repo := range loc.Repositories {
			wr := wireRepository{Name: repo.Name}
			for _, name := range repo.Jobs {
				wr.Pipelines = append(wr.Pipelines, wirePipeline{Name: name, IsJob: true})
			}
			for _, name := range repo.Pipelines {
				wr.Pipelines = append(wr.Pipelines, wirePipeline{Name: name})
			}
			for _, sched := range f.schedulesFor(loc.Name, repo.Name) {
				wr.Schedules = append(wr.Schedules, wireSchedule{
					Name:              sched.Name,
					CronSchedule:      sched.Cron,
					ExecutionTimezone: nullable(sched.Timezone),
					PipelineName:      sched.Target,
				})
			}
			for _, name := range repo.Sensors {
				wr.Sensors = append(wr.Sensors, wireNamed{Name: name})
			}
			for _, ps := range repo.PartitionSets {
				wr.PartitionSets = append(wr.PartitionSets, wirePartitionSet{Name: ps.Name, PipelineName: ps.Target})
			}
			for _, name := range repo.Resources {
				wr.Resources = append(wr.Resources, wireNamed{Name: name})
			}
			repos = append(repos, wr)
		}
		entries = append(entries, wireLocationEntry{
			Name: loc.Name,
			Location: &wireLocation{
				Typename:     "RepositoryLocation",
				Name:         loc.Name,
				Repositories: repos,
			},
		})
	}
	return envelope(map[string]interface{}{
		"workspaceOrError": wireWorkspace{Typename: "Workspace", LocationEntries: entries},
	})
}

// AssetsResponse renders the fixture's asset catalog as the upstream's
// asset query response body.
func (f *Fixture) AssetsResponse() ([]byte, error) {
	nodes := make([]wireAssetNode, 0, len(f.Assets))
	for _, path := range f.Assets {
		nodes = append(nodes, wireAssetNode{Key: wireAssetKey{Path: path}})
	}
	return envelope(map[string]interface{}{
		"assetsOrError": wireAssetConnection{Typename: "AssetConnection", Nodes: nodes},
	})
}

// ScheduleResponse renders the schedule query response for the named
// schedule, or a ScheduleNotFoundError when the fixture has no such
// schedule.
func (f *Fixture) ScheduleResponse(name string) ([]byte, error) {
	fx := f.Schedule(name)
	if fx == nil {
		return envelope(map[string]interface{}{
			"scheduleOrError": map[string]string{
				"__typename": "ScheduleNotFoundError",
				"message":    "no schedule named " + name,
			},
		})
	}
	state := wireScheduleState{Status: string(fx.Status)}
	if fx.TickStatus != "" {
		state.Ticks = append(state.Ticks, wireTick{Status: string(fx.TickStatus), Timestamp: float64(fx.TickTime)})
	}
	if fx.RunID != "" {
		state.Runs = append(state.Runs, wireRun{ID: fx.RunID, Status: fx.RunStatus, StartTime: float64(fx.TickTime)})
	}
	if fx.NextTick != 0 {
		state.NextTick = &wireNextTick{Timestamp: float64(fx.NextTick)}
	}
	detail := wireScheduleDetail{
		Typename:          "Schedule",
		Name:              fx.Name,
		CronSchedule:      fx.Cron,
		ExecutionTimezone: nullable(fx.Timezone),
		PipelineName:      fx.Target,
		Mode:              "default",
		ScheduleState:     state,
	}
	if fx.PartitionSet != "" {
		detail.PartitionSet = &wirePartitionSet{Name: fx.PartitionSet, PipelineName: fx.Target}
	}
	return envelope(map[string]interface{}{"scheduleOrError": detail})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
