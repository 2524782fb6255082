package gateway

import (
	"time"

	"github.com/takeru911/dagster/internal/models"
)

// Wire shapes for upstream responses. Unions arrive discriminated by
// __typename; converters below map each arm onto a tagged result instead
// of letting unknown shapes leak past this package.

type workspaceEnvelope struct {
	WorkspaceOrError workspaceUnion `json:"workspaceOrError"`
}

type workspaceUnion struct {
	Typename        string          `json:"__typename"`
	LocationEntries []locationEntry `json:"locationEntries"`
	Message         string          `json:"message"`
}

type locationEntry struct {
	Name                string         `json:"name"`
	LocationOrLoadError *locationUnion `json:"locationOrLoadError"`
}

type locationUnion struct {
	Typename     string           `json:"__typename"`
	Name         string           `json:"name"`
	Repositories []repositoryNode `json:"repositories"`
	Message      string           `json:"message"`
}

type repositoryNode struct {
	Name          string             `json:"name"`
	Pipelines     []pipelineNode     `json:"pipelines"`
	Schedules     []scheduleDefNode  `json:"schedules"`
	Sensors       []namedNode        `json:"sensors"`
	PartitionSets []partitionSetNode `json:"partitionSets"`
	Resources     []namedNode        `json:"allTopLevelResourceDetails"`
}

type pipelineNode struct {
	Name  string `json:"name"`
	IsJob bool   `json:"isJob"`
}

type scheduleDefNode struct {
	Name              string  `json:"name"`
	CronSchedule      string  `json:"cronSchedule"`
	ExecutionTimezone *string `json:"executionTimezone"`
	PipelineName      string  `json:"pipelineName"`
}

type namedNode struct {
	Name string `json:"name"`
}

type partitionSetNode struct {
	Name         string `json:"name"`
	PipelineName string `json:"pipelineName"`
}

type assetsEnvelope struct {
	AssetsOrError assetsUnion `json:"assetsOrError"`
}

type assetsUnion struct {
	Typename string      `json:"__typename"`
	Nodes    []assetNode `json:"nodes"`
	Message  string      `json:"message"`
}

type assetNode struct {
	Key assetKeyNode `json:"key"`
}

type assetKeyNode struct {
	Path []string `json:"path"`
}

type scheduleEnvelope struct {
	ScheduleOrError scheduleUnion `json:"scheduleOrError"`
}

type scheduleUnion struct {
	Typename          string             `json:"__typename"`
	Name              string             `json:"name"`
	CronSchedule      string             `json:"cronSchedule"`
	ExecutionTimezone *string            `json:"executionTimezone"`
	PipelineName      string             `json:"pipelineName"`
	Mode              string             `json:"mode"`
	PartitionSet      *partitionSetNode  `json:"partitionSet"`
	ScheduleState     *scheduleStateNode `json:"scheduleState"`
	Message           string             `json:"message"`
}

type scheduleStateNode struct {
	Status   string        `json:"status"`
	Ticks    []tickNode    `json:"ticks"`
	Runs     []runNode     `json:"runs"`
	NextTick *nextTickNode `json:"nextTick"`
}

type tickNode struct {
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
}

type runNode struct {
	ID        string   `json:"id"`
	Status    string   `json:"status"`
	StartTime *float64 `json:"startTime"`
}

type nextTickNode struct {
	Timestamp float64 `json:"timestamp"`
}

type versionEnvelope struct {
	Version string `json:"version"`
}

// pythonError is the typename the upstream uses for structured errors.
const pythonError = "PythonError"

func (u *workspaceUnion) toModel(now time.Time) (*models.Workspace, *models.UpstreamError) {
	switch u.Typename {
	case "Workspace":
	case pythonError:
		return nil, &models.UpstreamError{Kind: models.ErrorUpstream, Message: u.Message}
	default:
		return nil, &models.UpstreamError{Kind: models.ErrorMalformed, Message: "unexpected workspace payload: " + u.Typename}
	}

	ws := &models.Workspace{FetchedAt: now}
	for _, entry := range u.LocationEntries {
		le := entry.LocationOrLoadError
		// Locations that failed to load carry a PythonError here; they are
		// dropped rather than failing the whole snapshot.
		if le == nil || le.Typename != "RepositoryLocation" {
			continue
		}
		locName := le.Name
		if locName == "" {
			locName = entry.Name
		}
		loc := models.Location{Name: locName}
		for _, repo := range le.Repositories {
			loc.Repositories = append(loc.Repositories, repo.toModel(locName))
		}
		ws.Locations = append(ws.Locations, loc)
	}
	return ws, nil
}

func (r *repositoryNode) toModel(locationName string) models.Repository {
	out := models.Repository{
		Name:         r.Name,
		LocationName: locationName,
	}
	for _, p := range r.Pipelines {
		out.Pipelines = append(out.Pipelines, models.Pipeline{Name: p.Name, IsJob: p.IsJob})
	}
	for _, s := range r.Schedules {
		out.Schedules = append(out.Schedules, models.ScheduleSummary{
			Name:              s.Name,
			CronSchedule:      s.CronSchedule,
			ExecutionTimezone: stringOrEmpty(s.ExecutionTimezone),
			PipelineName:      s.PipelineName,
		})
	}
	for _, s := range r.Sensors {
		out.Sensors = append(out.Sensors, models.SensorSummary{Name: s.Name})
	}
	for _, ps := range r.PartitionSets {
		out.PartitionSets = append(out.PartitionSets, models.PartitionSetSummary{
			Name:         ps.Name,
			PipelineName: ps.PipelineName,
		})
	}
	for _, res := range r.Resources {
		out.Resources = append(out.Resources, models.ResourceSummary{Name: res.Name})
	}
	return out
}

func (u *assetsUnion) toModel(now time.Time) (*models.AssetCatalog, *models.UpstreamError) {
	switch u.Typename {
	case "AssetConnection":
	case pythonError:
		return nil, &models.UpstreamError{Kind: models.ErrorUpstream, Message: u.Message}
	default:
		return nil, &models.UpstreamError{Kind: models.ErrorMalformed, Message: "unexpected assets payload: " + u.Typename}
	}

	cat := &models.AssetCatalog{FetchedAt: now}
	for _, node := range u.Nodes {
		if len(node.Key.Path) == 0 {
			continue
		}
		cat.Keys = append(cat.Keys, models.AssetKey{Path: node.Key.Path})
	}
	return cat, nil
}

func (u *scheduleUnion) toResult() models.ScheduleResult {
	switch u.Typename {
	case "Schedule":
	case "ScheduleNotFoundError":
		return models.ScheduleResult{NotFound: true}
	case pythonError:
		return models.ScheduleResult{Err: &models.UpstreamError{Kind: models.ErrorUpstream, Message: u.Message}}
	default:
		return models.ScheduleResult{Err: &models.UpstreamError{Kind: models.ErrorMalformed, Message: "unexpected schedule payload: " + u.Typename}}
	}

	detail := &models.ScheduleDetail{
		Name:              u.Name,
		CronSchedule:      u.CronSchedule,
		ExecutionTimezone: stringOrEmpty(u.ExecutionTimezone),
		PipelineName:      u.PipelineName,
		Mode:              u.Mode,
	}
	if u.PartitionSet != nil {
		detail.PartitionSet = &models.PartitionSetSummary{
			Name:         u.PartitionSet.Name,
			PipelineName: u.PartitionSet.PipelineName,
		}
	}
	if st := u.ScheduleState; st != nil {
		detail.State.Status = models.InstigationStatus(st.Status)
		if len(st.Ticks) > 0 {
			tick := st.Ticks[0]
			detail.State.LatestTick = &models.Tick{
				Status:    models.TickStatus(tick.Status),
				Timestamp: unixTime(tick.Timestamp),
			}
		}
		if len(st.Runs) > 0 {
			run := st.Runs[0]
			r := &models.Run{ID: run.ID, Status: models.RunStatus(run.Status)}
			if run.StartTime != nil {
				r.StartTime = unixTime(*run.StartTime)
			}
			detail.State.LatestRun = r
		}
		if st.NextTick != nil {
			next := unixTime(st.NextTick.Timestamp)
			detail.State.NextTick = &next
		}
	}
	return models.ScheduleResult{Detail: detail}
}

// unixTime converts upstream float seconds to UTC time.
func unixTime(sec float64) time.Time {
	s := int64(sec)
	ns := int64((sec - float64(s)) * float64(time.Second))
	return time.Unix(s, ns).UTC()
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
