// Package schedule derives presentation rows for schedules and keeps the
// watched ones fresh with per-row pollers.
package schedule

import (
	"sync"
	"time"

	"github.com/lnquy/cron"

	"github.com/takeru911/dagster/internal/models"
	"github.com/takeru911/dagster/internal/nav"
)

// defaultTimezone labels cron text for schedules that do not declare an
// execution timezone.
const defaultTimezone = "UTC"

var (
	descriptorOnce sync.Once
	descriptor     *cron.ExpressionDescriptor
)

func cronDescriptor() *cron.ExpressionDescriptor {
	descriptorOnce.Do(func() {
		d, err := cron.NewDescriptor(cron.Use24HourTimeFormat(true))
		if err == nil {
			descriptor = d
		}
	})
	return descriptor
}

// HumanCron renders a cron expression as an English description with the
// timezone appended, e.g. "At 00:00 (UTC)". Expressions the descriptor
// cannot parse fall back to the raw string; the timezone suffix is kept
// either way.
func HumanCron(expr, timezone string) string {
	if expr == "" {
		return ""
	}
	if timezone == "" {
		timezone = defaultTimezone
	}
	text := expr
	if d := cronDescriptor(); d != nil {
		if desc, err := d.ToDescription(expr, cron.Locale_en); err == nil {
			text = desc
		}
	}
	return text + " (" + timezone + ")"
}

// DeriveRow builds the full row for a fetched schedule. repo supplies the
// job-versus-pipeline classification for the target; a nil repo (snapshot
// missing or stale) classifies the target as a pipeline.
func DeriveRow(sel models.ScheduleSelector, detail *models.ScheduleDetail, repo *models.Repository) models.ScheduleRow {
	addr := sel.RepoAddress()
	isJob := repo.HasJob(detail.PipelineName)
	kind := "pipeline"
	if isJob {
		kind = "job"
	}
	timezone := detail.ExecutionTimezone
	if timezone == "" {
		timezone = defaultTimezone
	}
	return models.ScheduleRow{
		Selector:        sel,
		Loaded:          true,
		Name:            detail.Name,
		CronSchedule:    detail.CronSchedule,
		CronText:        HumanCron(detail.CronSchedule, detail.ExecutionTimezone),
		Timezone:        timezone,
		TargetName:      detail.PipelineName,
		TargetKind:      kind,
		ScheduleHref:    nav.SchedulePath(addr, detail.Name),
		TargetHref:      nav.PipelinePath(addr, detail.PipelineName, isJob),
		Status:          detail.State.Status,
		LatestTick:      detail.State.LatestTick,
		LatestRun:       detail.State.LatestRun,
		NextTick:        detail.State.NextTick,
		HasPartitionSet: detail.PartitionSet != nil,
		FetchedAt:       time.Now(),
	}
}

// PlaceholderRow builds an unloaded row from the static definition in the
// workspace snapshot. Live state stays empty until a poller fills it in.
func PlaceholderRow(sel models.ScheduleSelector, summary models.ScheduleSummary, repo *models.Repository) models.ScheduleRow {
	addr := sel.RepoAddress()
	timezone := summary.ExecutionTimezone
	if timezone == "" {
		timezone = defaultTimezone
	}
	row := models.ScheduleRow{
		Selector:     sel,
		Loaded:       false,
		Name:         summary.Name,
		CronSchedule: summary.CronSchedule,
		CronText:     HumanCron(summary.CronSchedule, summary.ExecutionTimezone),
		Timezone:     timezone,
		ScheduleHref: nav.SchedulePath(addr, summary.Name),
	}
	if summary.PipelineName != "" {
		isJob := repo.HasJob(summary.PipelineName)
		row.TargetName = summary.PipelineName
		row.TargetKind = "pipeline"
		if isJob {
			row.TargetKind = "job"
		}
		row.TargetHref = nav.PipelinePath(addr, summary.PipelineName, isJob)
	}
	return row
}
