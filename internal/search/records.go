// Package search holds the dual-index search session and the normalizers
// that turn upstream snapshots into flat searchable records.
package search

import (
	"strings"

	"github.com/takeru911/dagster/internal/models"
	"github.com/takeru911/dagster/internal/nav"
)

// hiddenJobPrefix marks jobs that exist only as materialization plumbing
// for assets. They never surface in search.
const hiddenJobPrefix = "__ASSET_JOB"

// IsHiddenJobName reports whether a job name is internal plumbing.
func IsHiddenJobName(name string) bool {
	return strings.HasPrefix(name, hiddenJobPrefix)
}

// WorkspaceRecords flattens a workspace snapshot into search records.
// Record order follows snapshot order: locations, then repositories, then
// pipelines, schedules, sensors, partition sets, and resources within each.
// Resources are included only when includeResources is set.
func WorkspaceRecords(ws *models.Workspace, includeResources bool) []models.SearchRecord {
	if ws == nil {
		return nil
	}
	multiRepo := ws.RepositoryCount() > 1
	var out []models.SearchRecord
	for _, loc := range ws.Locations {
		for ri := range loc.Repositories {
			repo := &loc.Repositories[ri]
			addr := repo.Address()

			for _, p := range repo.Pipelines {
				if IsHiddenJobName(p.Name) {
					continue
				}
				category := "Pipeline"
				if p.IsJob {
					category = "Job"
				}
				out = append(out, models.SearchRecord{
					Label:       p.Name,
					Description: describe(category, addr, multiRepo),
					Href:        nav.PipelinePath(addr, p.Name, p.IsJob),
					Type:        models.TypePipeline,
				})
			}
			for _, s := range repo.Schedules {
				out = append(out, models.SearchRecord{
					Label:       s.Name,
					Description: describe("Schedule", addr, multiRepo),
					Href:        nav.SchedulePath(addr, s.Name),
					Type:        models.TypeSchedule,
				})
			}
			for _, s := range repo.Sensors {
				out = append(out, models.SearchRecord{
					Label:       s.Name,
					Description: describe("Sensor", addr, multiRepo),
					Href:        nav.SensorPath(addr, s.Name),
					Type:        models.TypeSensor,
				})
			}
			for _, ps := range repo.PartitionSets {
				out = append(out, models.SearchRecord{
					Label:       ps.Name,
					Description: describe("Partition Set", addr, multiRepo),
					Href:        nav.PartitionSetPath(addr, ps.PipelineName, ps.Name, repo.HasJob(ps.PipelineName)),
					Type:        models.TypePartitionSet,
				})
			}
			if includeResources {
				for _, r := range repo.Resources {
					out = append(out, models.SearchRecord{
						Label:       r.Name,
						Description: describe("Resource", addr, multiRepo),
						Href:        nav.ResourcePath(addr, r.Name),
						Type:        models.TypeResource,
					})
				}
			}
		}
	}
	return out
}

// describe renders the secondary line for a workspace record. With a single
// repository the category alone is unambiguous; with several, the owning
// repository is appended.
func describe(category string, addr models.RepoAddress, multiRepo bool) string {
	if multiRepo {
		return category + " in " + addr.String()
	}
	return category
}

// AssetRecords flattens an asset catalog into search records. Key path
// tokens are carried as matchable segments alongside the joined label.
func AssetRecords(cat *models.AssetCatalog) []models.SearchRecord {
	if cat == nil {
		return nil
	}
	out := make([]models.SearchRecord, 0, len(cat.Keys))
	for _, key := range cat.Keys {
		if len(key.Path) == 0 {
			continue
		}
		segments := make([]string, len(key.Path))
		copy(segments, key.Path)
		out = append(out, models.SearchRecord{
			Label:       strings.Join(key.Path, "/"),
			Description: "Asset",
			Href:        nav.AssetPath(key),
			Type:        models.TypeAsset,
			Segments:    segments,
		})
	}
	return out
}
