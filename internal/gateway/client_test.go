package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/takeru911/dagster/internal/models"
)

const workspaceJSON = `{"data":{"workspaceOrError":{"__typename":"Workspace","locationEntries":[
  {"id":"1","name":"prod","locationOrLoadError":{"__typename":"RepositoryLocation","id":"1","name":"prod","repositories":[
    {"id":"r1","name":"analytics",
     "pipelines":[{"id":"p1","name":"daily_rollup","isJob":true},{"id":"p2","name":"legacy_ingest","isJob":false}],
     "schedules":[{"id":"s1","name":"nightly","cronSchedule":"0 0 * * *","executionTimezone":null,"pipelineName":"daily_rollup"}],
     "sensors":[{"id":"sn1","name":"on_new_file"}],
     "partitionSets":[{"id":"ps1","name":"rollup_partitions","pipelineName":"daily_rollup"}],
     "allTopLevelResourceDetails":[{"id":"io","name":"warehouse_io"}]}]}},
  {"id":"2","name":"broken","locationOrLoadError":{"__typename":"PythonError","message":"import failed"}}
]}}}`

const assetsJSON = `{"data":{"assetsOrError":{"__typename":"AssetConnection","nodes":[
  {"id":"a1","key":{"path":["warehouse","events","daily"]}},
  {"id":"a2","key":{"path":[]}}
]}}}`

const scheduleJSON = `{"data":{"scheduleOrError":{"__typename":"Schedule","id":"sched","name":"nightly",
  "cronSchedule":"0 0 * * *","executionTimezone":"America/Chicago","pipelineName":"daily_rollup","mode":"default",
  "partitionSet":{"id":"ps1","name":"rollup_partitions","pipelineName":"daily_rollup"},
  "scheduleState":{"id":"st","status":"RUNNING",
    "ticks":[{"id":"t1","status":"SUCCESS","timestamp":1700000000.5}],
    "runs":[{"id":"run-1","status":"SUCCESS","startTime":1700000100}],
    "nextTick":{"timestamp":1700003600}}}}}`

// fakeUpstream dispatches on the operation named in the request body.
func fakeUpstream(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read request body: %v", err)
		}
		var req struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		for marker, resp := range responses {
			if strings.Contains(req.Query, marker) {
				_, _ = io.WriteString(w, resp)
				return
			}
		}
		_, _ = io.WriteString(w, `{"errors":[{"message":"unknown operation"}]}`)
	}))
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	c, err := NewClient(&Config{Endpoint: endpoint, RateLimit: -1})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	if _, err := NewClient(&Config{}); err == nil {
		t.Error("expected error for missing endpoint")
	}
	if _, err := NewClient(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestFetchWorkspace(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{"workspaceOrError": workspaceJSON})
	defer ts.Close()
	c := newTestClient(t, ts.URL)

	res := c.FetchWorkspace(context.Background())
	if res.Err != nil {
		t.Fatalf("FetchWorkspace: %v", res.Err)
	}
	ws := res.Snapshot
	if len(ws.Locations) != 1 {
		t.Fatalf("got %d locations, want 1 (failed location dropped)", len(ws.Locations))
	}
	repo := ws.Locations[0].Repositories[0]
	if repo.Name != "analytics" || repo.LocationName != "prod" {
		t.Errorf("repo = %s@%s", repo.Name, repo.LocationName)
	}
	if len(repo.Pipelines) != 2 || !repo.Pipelines[0].IsJob || repo.Pipelines[1].IsJob {
		t.Errorf("pipelines = %+v", repo.Pipelines)
	}
	if len(repo.Schedules) != 1 || repo.Schedules[0].CronSchedule != "0 0 * * *" {
		t.Errorf("schedules = %+v", repo.Schedules)
	}
	if repo.Schedules[0].ExecutionTimezone != "" {
		t.Errorf("null timezone mapped to %q, want empty", repo.Schedules[0].ExecutionTimezone)
	}
	if len(repo.Sensors) != 1 || len(repo.PartitionSets) != 1 || len(repo.Resources) != 1 {
		t.Errorf("definition counts: sensors=%d partitionSets=%d resources=%d",
			len(repo.Sensors), len(repo.PartitionSets), len(repo.Resources))
	}
	if ws.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestFetchWorkspace_UpstreamError(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{
		"workspaceOrError": `{"data":{"workspaceOrError":{"__typename":"PythonError","message":"daemon down"}}}`,
	})
	defer ts.Close()
	c := newTestClient(t, ts.URL)

	res := c.FetchWorkspace(context.Background())
	if res.Err == nil {
		t.Fatal("expected upstream error")
	}
	if res.Err.Kind != models.ErrorUpstream {
		t.Errorf("kind = %q, want upstream", res.Err.Kind)
	}
	if res.Snapshot != nil {
		t.Error("snapshot should be nil on error")
	}
}

func TestFetchWorkspace_TransportError(t *testing.T) {
	ts := fakeUpstream(t, nil)
	c := newTestClient(t, ts.URL)
	ts.Close()

	res := c.FetchWorkspace(context.Background())
	if res.Err == nil {
		t.Fatal("expected transport error")
	}
	if res.Err.Kind != models.ErrorTransport {
		t.Errorf("kind = %q, want transport", res.Err.Kind)
	}
}

func TestFetchWorkspace_MalformedUnion(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{
		"workspaceOrError": `{"data":{"workspaceOrError":{"__typename":"SomethingNew"}}}`,
	})
	defer ts.Close()
	c := newTestClient(t, ts.URL)

	res := c.FetchWorkspace(context.Background())
	if res.Err == nil || res.Err.Kind != models.ErrorMalformed {
		t.Fatalf("result = %+v, want malformed error", res)
	}
}

func TestFetchAssets(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{"assetsOrError": assetsJSON})
	defer ts.Close()
	c := newTestClient(t, ts.URL)

	res := c.FetchAssets(context.Background())
	if res.Err != nil {
		t.Fatalf("FetchAssets: %v", res.Err)
	}
	if len(res.Catalog.Keys) != 1 {
		t.Fatalf("got %d keys, want 1 (empty path dropped)", len(res.Catalog.Keys))
	}
	key := res.Catalog.Keys[0]
	if len(key.Path) != 3 || key.Path[2] != "daily" {
		t.Errorf("key path = %v", key.Path)
	}
}

func TestFetchSchedule(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{"scheduleOrError": scheduleJSON})
	defer ts.Close()
	c := newTestClient(t, ts.URL)

	sel := models.ScheduleSelector{LocationName: "prod", RepositoryName: "analytics", ScheduleName: "nightly"}
	res := c.FetchSchedule(context.Background(), sel)
	if res.Err != nil {
		t.Fatalf("FetchSchedule: %v", res.Err)
	}
	if res.NotFound {
		t.Fatal("unexpected not-found")
	}
	d := res.Detail
	if d.Name != "nightly" || d.CronSchedule != "0 0 * * *" {
		t.Errorf("detail = %+v", d)
	}
	if d.ExecutionTimezone != "America/Chicago" {
		t.Errorf("timezone = %q", d.ExecutionTimezone)
	}
	if d.PartitionSet == nil || d.PartitionSet.Name != "rollup_partitions" {
		t.Errorf("partition set = %+v", d.PartitionSet)
	}
	if d.State.Status != models.StatusRunning {
		t.Errorf("status = %q, want RUNNING", d.State.Status)
	}
	if d.State.LatestTick == nil || d.State.LatestTick.Status != models.TickSuccess {
		t.Fatalf("latest tick = %+v", d.State.LatestTick)
	}
	if got := d.State.LatestTick.Timestamp.Unix(); got != 1700000000 {
		t.Errorf("tick timestamp = %d, want 1700000000", got)
	}
	if d.State.LatestRun == nil || d.State.LatestRun.ID != "run-1" {
		t.Fatalf("latest run = %+v", d.State.LatestRun)
	}
	if d.State.NextTick == nil || d.State.NextTick.Unix() != 1700003600 {
		t.Errorf("next tick = %v", d.State.NextTick)
	}
}

func TestFetchSchedule_NotFound(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{
		"scheduleOrError": `{"data":{"scheduleOrError":{"__typename":"ScheduleNotFoundError","message":"no such schedule"}}}`,
	})
	defer ts.Close()
	c := newTestClient(t, ts.URL)

	sel := models.ScheduleSelector{LocationName: "prod", RepositoryName: "analytics", ScheduleName: "gone"}
	res := c.FetchSchedule(context.Background(), sel)
	if !res.NotFound {
		t.Fatalf("result = %+v, want not-found", res)
	}
	if res.Err != nil || res.Detail != nil {
		t.Errorf("not-found result carries extras: %+v", res)
	}
}

func TestFetchSchedule_GraphQLErrors(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{
		"scheduleOrError": `{"errors":[{"message":"variable mismatch"}]}`,
	})
	defer ts.Close()
	c := newTestClient(t, ts.URL)

	res := c.FetchSchedule(context.Background(), models.ScheduleSelector{})
	if res.Err == nil {
		t.Fatal("expected error result")
	}
	if res.Err.Kind != models.ErrorUpstream {
		t.Errorf("kind = %q, want upstream", res.Err.Kind)
	}
}

func TestPing(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{"version": `{"data":{"version":"1.0.17"}}`})
	defer ts.Close()
	c := newTestClient(t, ts.URL)

	v, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if v != "1.0.17" {
		t.Errorf("version = %q, want 1.0.17", v)
	}
}
