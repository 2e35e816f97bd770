package api

import (
	"net/http"

	"github.com/banshee-data/arcontrol/internal/httputil"
	"github.com/banshee-data/arcontrol/internal/steering"
)

func (s *Server) sessionID() string {
	if s.drive == nil {
		return ""
	}
	return s.drive.ID()
}

type sampleRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Server) handleSteeringSample(w http.ResponseWriter, r *http.Request) {
	var req sampleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	tilt := s.drive.Ingest(steering.Sample{X: req.X, Y: req.Y, Time: s.clock.Now()})
	httputil.WriteJSONOK(w, map[string]float64{"tilt": tilt})
}

func (s *Server) handleSteeringState(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, s.drive.State())
}

func (s *Server) handleSteeringReset(w http.ResponseWriter, r *http.Request) {
	s.drive.Reset()
	httputil.WriteJSONOK(w, s.drive.State())
}

type touchesRequest struct {
	Touches *int `json:"touches"`
}

// handleTouches stores the touch count for the next tick and returns the
// command it maps to.
func (s *Server) handleTouches(w http.ResponseWriter, r *http.Request) {
	var req touchesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.Touches == nil {
		httputil.BadRequest(w, "missing touches")
		return
	}
	s.drive.SetTouches(*req.Touches)
	httputil.WriteJSONOK(w, s.drive.CommandFor(*req.Touches))
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]interface{}{
		"touches": s.drive.Touches(),
		"command": s.drive.Command(),
	})
}
