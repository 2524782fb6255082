package e2e

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/takeru911/dagster/internal/models"
)

func TestBuildFixture_Counts(t *testing.T) {
	f := BuildFixture()
	if len(f.Locations) != 4 {
		t.Errorf("expected 4 locations, got %d", len(f.Locations))
	}
	if len(f.Schedules) != 5 {
		t.Errorf("expected 5 schedules, got %d", len(f.Schedules))
	}
	if len(f.Assets) != 16 {
		t.Errorf("expected 16 assets, got %d", len(f.Assets))
	}
	if f.TotalWorkspaceRecords != 33 {
		t.Errorf("expected 33 workspace records, got %d", f.TotalWorkspaceRecords)
	}
	if f.TotalQueries == 0 || f.TotalQueries != len(f.TestCases) {
		t.Errorf("TotalQueries = %d, len(TestCases) = %d", f.TotalQueries, len(f.TestCases))
	}
}

func TestBuildFixture_ScheduleDefinitionsResolve(t *testing.T) {
	f := BuildFixture()
	for _, sched := range f.Schedules {
		repo := findRepo(f, sched.Location, sched.Repository)
		if repo == nil {
			t.Errorf("schedule %s: repository %s@%s not in fixture", sched.Name, sched.Repository, sched.Location)
			continue
		}
		if !contains(repo.Jobs, sched.Target) && !contains(repo.Pipelines, sched.Target) {
			t.Errorf("schedule %s: target %q not defined in %s", sched.Name, sched.Target, repo.Name)
		}
		if sched.PartitionSet != "" {
			found := false
			for _, ps := range repo.PartitionSets {
				if ps.Name == sched.PartitionSet {
					found = true
				}
			}
			if !found {
				t.Errorf("schedule %s: partition set %q not defined in %s", sched.Name, sched.PartitionSet, repo.Name)
			}
		}
	}
}

func TestBuildFixture_QueryCasesTargetExistingEntities(t *testing.T) {
	f := BuildFixture()
	byType := map[models.ResultType]map[string]bool{
		models.TypePipeline:     {},
		models.TypeSchedule:     {},
		models.TypeSensor:       {},
		models.TypePartitionSet: {},
		models.TypeResource:     {},
		models.TypeAsset:        {},
	}
	for _, loc := range f.Locations {
		for _, repo := range loc.Repositories {
			for _, name := range repo.Jobs {
				byType[models.TypePipeline][name] = true
			}
			for _, name := range repo.Pipelines {
				byType[models.TypePipeline][name] = true
			}
			for _, name := range repo.Sensors {
				byType[models.TypeSensor][name] = true
			}
			for _, ps := range repo.PartitionSets {
				byType[models.TypePartitionSet][ps.Name] = true
			}
			for _, name := range repo.Resources {
				byType[models.TypeResource][name] = true
			}
		}
	}
	for _, sched := range f.Schedules {
		byType[models.TypeSchedule][sched.Name] = true
	}
	for _, path := range f.Assets {
		byType[models.TypeAsset][strings.Join(path, "/")] = true
	}

	for i, tc := range f.TestCases {
		if tc.Query == "" {
			t.Errorf("test case %d: empty query", i)
		}
		if len(tc.ExpectedLabels) == 0 {
			t.Errorf("test case %d: no expected labels", i)
		}
		for _, label := range tc.ExpectedLabels {
			if !byType[tc.ExpectedType][label] {
				t.Errorf("test case %d: expected %s %q not in fixture", i, tc.ExpectedType, label)
			}
		}
	}
}

func TestFixture_WorkspaceResponseShape(t *testing.T) {
	f := BuildFixture()
	body, err := f.WorkspaceResponse()
	if err != nil {
		t.Fatal(err)
	}
	var resp struct {
		Data struct {
			WorkspaceOrError struct {
				Typename        string `json:"__typename"`
				LocationEntries []struct {
					Name     string `json:"name"`
					Location struct {
						Typename     string `json:"__typename"`
						Repositories []struct {
							Name      string `json:"name"`
							Pipelines []struct {
								Name  string `json:"name"`
								IsJob bool   `json:"isJob"`
							} `json:"pipelines"`
						} `json:"repositories"`
					} `json:"locationOrLoadError"`
				} `json:"locationEntries"`
			} `json:"workspaceOrError"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatal(err)
	}
	ws := resp.Data.WorkspaceOrError
	if ws.Typename != "Workspace" {
		t.Errorf("__typename = %q, want Workspace", ws.Typename)
	}
	if len(ws.LocationEntries) != len(f.Locations) {
		t.Fatalf("expected %d location entries, got %d", len(f.Locations), len(ws.LocationEntries))
	}
	entry := ws.LocationEntries[0]
	if entry.Location.Typename != "RepositoryLocation" {
		t.Errorf("location __typename = %q", entry.Location.Typename)
	}
	if len(entry.Location.Repositories) == 0 {
		t.Fatal("first location has no repositories")
	}
	jobs := 0
	for _, p := range entry.Location.Repositories[0].Pipelines {
		if p.IsJob {
			jobs++
		}
	}
	if jobs != len(f.Locations[0].Repositories[0].Jobs) {
		t.Errorf("expected %d jobs in first repo, got %d", len(f.Locations[0].Repositories[0].Jobs), jobs)
	}
}

func TestFixture_ScheduleResponse(t *testing.T) {
	f := BuildFixture()

	body, err := f.ScheduleResponse("nightly_revenue")
	if err != nil {
		t.Fatal(err)
	}
	var resp struct {
		Data struct {
			ScheduleOrError struct {
				Typename string `json:"__typename"`
				Name     string `json:"name"`
			} `json:"scheduleOrError"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.ScheduleOrError.Typename != "Schedule" {
		t.Errorf("__typename = %q, want Schedule", resp.Data.ScheduleOrError.Typename)
	}
	if resp.Data.ScheduleOrError.Name != "nightly_revenue" {
		t.Errorf("name = %q, want nightly_revenue", resp.Data.ScheduleOrError.Name)
	}

	body, err = f.ScheduleResponse("ghost_schedule")
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.ScheduleOrError.Typename != "ScheduleNotFoundError" {
		t.Errorf("__typename = %q, want ScheduleNotFoundError", resp.Data.ScheduleOrError.Typename)
	}
}

func findRepo(f *Fixture, location, repository string) *RepositoryFixture {
	for li := range f.Locations {
		if f.Locations[li].Name != location {
			continue
		}
		for ri := range f.Locations[li].Repositories {
			if f.Locations[li].Repositories[ri].Name == repository {
				return &f.Locations[li].Repositories[ri]
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
