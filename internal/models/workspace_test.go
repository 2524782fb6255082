package models

import (
	"testing"
)

func testWorkspace() *Workspace {
	return &Workspace{
		Locations: []Location{
			{
				Name: "prod",
				Repositories: []Repository{
					{
						Name:         "analytics",
						LocationName: "prod",
						Pipelines: []Pipeline{
							{Name: "daily_rollup", IsJob: true},
							{Name: "legacy_ingest", IsJob: false},
						},
					},
				},
			},
			{
				Name: "staging",
				Repositories: []Repository{
					{Name: "sandbox", LocationName: "staging"},
				},
			},
		},
	}
}

func TestRepoAddress_String(t *testing.T) {
	addr := RepoAddress{RepoName: "analytics", LocationName: "prod"}
	if got := addr.String(); got != "analytics@prod" {
		t.Errorf("String() = %q, want %q", got, "analytics@prod")
	}
}

func TestWorkspace_RepositoryCount(t *testing.T) {
	ws := testWorkspace()
	if got := ws.RepositoryCount(); got != 2 {
		t.Errorf("RepositoryCount() = %d, want 2", got)
	}
	var nilWS *Workspace
	if got := nilWS.RepositoryCount(); got != 0 {
		t.Errorf("RepositoryCount() on nil = %d, want 0", got)
	}
}

func TestWorkspace_FindRepository(t *testing.T) {
	ws := testWorkspace()

	repo := ws.FindRepository(RepoAddress{RepoName: "analytics", LocationName: "prod"})
	if repo == nil {
		t.Fatal("FindRepository() returned nil for existing repository")
	}
	if repo.Name != "analytics" {
		t.Errorf("repo.Name = %q, want %q", repo.Name, "analytics")
	}

	if got := ws.FindRepository(RepoAddress{RepoName: "analytics", LocationName: "staging"}); got != nil {
		t.Errorf("FindRepository() = %+v for wrong location, want nil", got)
	}
	if got := ws.FindRepository(RepoAddress{RepoName: "missing", LocationName: "prod"}); got != nil {
		t.Errorf("FindRepository() = %+v for missing repo, want nil", got)
	}
}

func TestRepository_HasJob(t *testing.T) {
	ws := testWorkspace()
	repo := ws.FindRepository(RepoAddress{RepoName: "analytics", LocationName: "prod"})

	tests := []struct {
		name string
		want bool
	}{
		{"daily_rollup", true},
		{"legacy_ingest", false},
		{"missing", false},
	}
	for _, tt := range tests {
		if got := repo.HasJob(tt.name); got != tt.want {
			t.Errorf("HasJob(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	var nilRepo *Repository
	if nilRepo.HasJob("daily_rollup") {
		t.Error("HasJob() on nil repository = true, want false")
	}
}

func TestScheduleSelector_RepoAddress(t *testing.T) {
	sel := ScheduleSelector{
		LocationName:   "prod",
		RepositoryName: "analytics",
		ScheduleName:   "nightly",
	}
	addr := sel.RepoAddress()
	if addr.RepoName != "analytics" || addr.LocationName != "prod" {
		t.Errorf("RepoAddress() = %+v, want analytics@prod", addr)
	}
	if got := sel.String(); got != "nightly (analytics@prod)" {
		t.Errorf("String() = %q, want %q", got, "nightly (analytics@prod)")
	}
}
