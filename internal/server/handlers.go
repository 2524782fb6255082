package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/takeru911/dagster/internal/config"
	"github.com/takeru911/dagster/internal/metrics"
	"github.com/takeru911/dagster/internal/models"
	"github.com/takeru911/dagster/internal/schedule"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request",
		zap.String("query", req.Query),
		zap.Bool("include_secondary", req.IncludeSecondary))

	sess := s.currentSession()
	start := time.Now()
	results := sess.Search(req.Query, req.IncludeSecondary)
	metrics.SearchQueriesTotal.Inc()
	if results == nil {
		results = []models.ScoredRecord{}
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{
		Query:     req.Query,
		Loading:   sess.Loading(),
		Results:   results,
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleScheduleList(w http.ResponseWriter, r *http.Request) {
	ws := s.currentSession().Workspace()
	list := models.ScheduleList{Schedules: []models.ScheduleRow{}}
	if ws == nil {
		s.respondJSON(w, http.StatusOK, list)
		return
	}
	list.FetchedAt = ws.FetchedAt
	for li := range ws.Locations {
		loc := &ws.Locations[li]
		for ri := range loc.Repositories {
			repo := &loc.Repositories[ri]
			for _, sum := range repo.Schedules {
				sel := models.ScheduleSelector{
					LocationName:   loc.Name,
					RepositoryName: repo.Name,
					ScheduleName:   sum.Name,
				}
				// Listings do not create watchers or mark demand; only
				// rows already under watch show live state.
				if row, ok := s.registry.Peek(sel); ok && row.Loaded {
					list.Schedules = append(list.Schedules, row)
					continue
				}
				list.Schedules = append(list.Schedules, schedule.PlaceholderRow(sel, sum, repo))
			}
		}
	}
	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleScheduleRow(w http.ResponseWriter, r *http.Request) {
	sel := models.ScheduleSelector{
		LocationName:   chi.URLParam(r, "location"),
		RepositoryName: chi.URLParam(r, "repository"),
		ScheduleName:   chi.URLParam(r, "schedule"),
	}
	if sel.LocationName == "" || sel.RepositoryName == "" || sel.ScheduleName == "" {
		s.respondError(w, http.StatusBadRequest, "location, repository, and schedule are required")
		return
	}
	s.respondJSON(w, http.StatusOK, s.registry.Row(sel))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.currentSession().Status()
	report := models.StatusReport{
		Bootstrap:      st.Bootstrap,
		Secondary:      st.Secondary,
		Loading:        st.Loading,
		ActiveWatchers: s.registry.ActiveCount(),
	}
	if s.store != nil {
		report.CacheBytes = s.store.SizeBytes()
	}
	if s.version != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		v, err := s.version(ctx)
		if err != nil {
			s.logger.Debug("status: version probe failed", zap.Error(err))
		} else {
			report.Version = v
		}
	}
	s.respondJSON(w, http.StatusOK, report)
}

type searchConfigUpdateRequest struct {
	IncludeResources *bool `json:"include_resources,omitempty"`
	Highlight        *bool `json:"highlight,omitempty"`
}

func (s *Server) handleSearchConfigUpdate(w http.ResponseWriter, r *http.Request) {
	if s.configPath == "" {
		s.respondError(w, http.StatusNotImplemented, "config updates not enabled")
		return
	}
	var req searchConfigUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.IncludeResources == nil && req.Highlight == nil {
		s.respondError(w, http.StatusBadRequest, "no settings provided")
		return
	}

	// The file stays authoritative; the running session picks the change
	// up through the config watcher rather than from this handler.
	s.configMu.Lock()
	defer s.configMu.Unlock()
	cfg, err := config.Load(s.configPath)
	if err != nil {
		s.logger.Error("config load for update failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req.IncludeResources != nil {
		cfg.Search.IncludeResources = *req.IncludeResources
	}
	if req.Highlight != nil {
		cfg.Search.Highlight = req.Highlight
	}
	if err := config.Save(s.configPath, cfg); err != nil {
		s.logger.Error("config save failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("search config updated",
		zap.Bool("include_resources", cfg.Search.IncludeResources),
		zap.Bool("highlight", cfg.Search.HighlightOrDefault()))
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "saved",
		"include_resources": cfg.Search.IncludeResources,
		"highlight":         cfg.Search.HighlightOrDefault(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
