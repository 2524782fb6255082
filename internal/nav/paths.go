// Package nav builds navigation paths for workspace entities. Paths are
// carried opaquely on search records and schedule rows; nothing in this
// module ever requests them.
package nav

import (
	"net/url"
	"strings"

	"github.com/takeru911/dagster/internal/models"
)

// WorkspacePath returns the path for a repository-scoped page. The tail
// must be empty or begin with "/".
func WorkspacePath(addr models.RepoAddress, tail string) string {
	return "/workspace/" + url.PathEscape(addr.RepoName) + "@" + url.PathEscape(addr.LocationName) + tail
}

// PipelinePath returns the path for a pipeline or job page. Jobs and
// legacy pipelines live under different URL segments.
func PipelinePath(addr models.RepoAddress, name string, isJob bool) string {
	segment := "/pipelines/"
	if isJob {
		segment = "/jobs/"
	}
	return WorkspacePath(addr, segment+url.PathEscape(name))
}

// SchedulePath returns the path for a schedule page.
func SchedulePath(addr models.RepoAddress, name string) string {
	return WorkspacePath(addr, "/schedules/"+url.PathEscape(name))
}

// SensorPath returns the path for a sensor page.
func SensorPath(addr models.RepoAddress, name string) string {
	return WorkspacePath(addr, "/sensors/"+url.PathEscape(name))
}

// ResourcePath returns the path for a top-level resource page.
func ResourcePath(addr models.RepoAddress, name string) string {
	return WorkspacePath(addr, "/resources/"+url.PathEscape(name))
}

// PartitionSetPath returns the path for a partition set, which is rendered
// as a partitions tab on its pipeline's page.
func PartitionSetPath(addr models.RepoAddress, pipelineName, name string, isJob bool) string {
	return PipelinePath(addr, pipelineName, isJob) + "/partitions?partitionSet=" + url.QueryEscape(name)
}

// AssetPath returns the instance-scoped path for an asset key.
func AssetPath(key models.AssetKey) string {
	parts := make([]string, len(key.Path))
	for i, p := range key.Path {
		parts[i] = url.PathEscape(p)
	}
	return "/instance/assets/" + strings.Join(parts, "/")
}
