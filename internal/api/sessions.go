package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/arcontrol/internal/db"
	"github.com/banshee-data/arcontrol/internal/httputil"
	"github.com/banshee-data/arcontrol/internal/security"
	"github.com/banshee-data/arcontrol/internal/trace"
)

func (s *Server) requireDB(w http.ResponseWriter) bool {
	if s.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "recording is disabled")
		return false
	}
	return true
}

func queryLimit(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid 'limit' parameter %q", v)
	}
	return n, nil
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	limit, err := queryLimit(r, 100)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	sessions, err := s.db.ListSessions(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	httputil.WriteJSONOK(w, sessions)
}

// loadTrace writes the error response itself and reports whether to go on.
func (s *Server) loadTrace(w http.ResponseWriter, r *http.Request) (string, []db.TracePoint, bool) {
	if !s.requireDB(w) {
		return "", nil, false
	}
	limit, err := queryLimit(r, 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return "", nil, false
	}
	id := r.PathValue("id")
	points, err := s.db.SessionTrace(id, limit)
	if errors.Is(err, db.ErrSessionNotFound) {
		httputil.NotFound(w, fmt.Sprintf("session %s not found", id))
		return "", nil, false
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load trace: %v", err))
		return "", nil, false
	}
	if points == nil {
		points = []db.TracePoint{}
	}
	return id, points, true
}

func (s *Server) handleSessionTrace(w http.ResponseWriter, r *http.Request) {
	id, points, ok := s.loadTrace(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"session_id": id,
		"samples":    points,
	})
}

func (s *Server) handleSessionChart(w http.ResponseWriter, r *http.Request) {
	id, points, ok := s.loadTrace(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := trace.RenderHTML(&buf, "session "+id, points); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSessionPlot(w http.ResponseWriter, r *http.Request) {
	id, points, ok := s.loadTrace(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := trace.WritePNG(&buf, "session "+id, points, 10*vg.Inch, 4*vg.Inch)
	if errors.Is(err, trace.ErrEmptyTrace) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", security.SanitizeFilename("steering-"+id)+".png"))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleListPlacements(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	limit, err := queryLimit(r, 100)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	records, err := s.db.RecentPlacements(r.URL.Query().Get("site"), limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list placements: %v", err))
		return
	}
	if records == nil {
		records = []db.PlacementRecord{}
	}
	httputil.WriteJSONOK(w, records)
}
