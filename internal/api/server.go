// Package api exposes placement, measuring and vehicle control to the scene
// over HTTP JSON.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/arcontrol/internal/config"
	"github.com/banshee-data/arcontrol/internal/db"
	"github.com/banshee-data/arcontrol/internal/drive"
	"github.com/banshee-data/arcontrol/internal/httputil"
	"github.com/banshee-data/arcontrol/internal/measure"
	"github.com/banshee-data/arcontrol/internal/monitoring"
	"github.com/banshee-data/arcontrol/internal/placement"
	"github.com/banshee-data/arcontrol/internal/serialmux"
	"github.com/banshee-data/arcontrol/internal/timeutil"
	"github.com/banshee-data/arcontrol/internal/version"
)

// ANSI escape codes for request logging
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// Options wires a Server. Drive and Config are required; DB and Sensor may
// be nil.
type Options struct {
	Sensor serialmux.SerialMuxInterface
	DB     *db.DB
	Drive  *drive.Session
	Config *config.TuningConfig
	Clock  timeutil.Clock
}

type Server struct {
	sensor serialmux.SerialMuxInterface
	db     *db.DB
	drive  *drive.Session
	cfg    *config.TuningConfig
	clock  timeutil.Clock

	places *placement.Calculator
	tape   *measure.Tape
	stroke *placement.Stroke
}

func NewServer(o Options) *Server {
	cfg := o.Config
	if cfg == nil {
		cfg = config.DefaultTuningConfig()
	}
	clock := o.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	d := cfg.GetDistances()
	return &Server{
		sensor: o.Sensor,
		db:     o.DB,
		drive:  o.Drive,
		cfg:    cfg,
		clock:  clock,
		places: placement.NewCalculator(d, cfg.GetValidatePoses()),
		tape:   measure.NewTape(d.Measure),
		stroke: placement.NewStroke(d.Draw),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/placement", s.handlePlacement)
	mux.HandleFunc("POST /api/anchor", s.handlePlaneAnchor)
	mux.HandleFunc("POST /api/draw", s.handleDrawTick)
	mux.HandleFunc("GET /api/draw", s.handleDrawPoints)
	mux.HandleFunc("DELETE /api/draw", s.handleDrawClear)

	mux.HandleFunc("POST /api/measure/start", s.handleMeasureStart)
	mux.HandleFunc("DELETE /api/measure/start", s.handleMeasureClear)
	mux.HandleFunc("POST /api/measure/toggle", s.handleMeasureToggle)
	mux.HandleFunc("POST /api/measure", s.handleMeasure)

	mux.HandleFunc("POST /api/steering/sample", s.handleSteeringSample)
	mux.HandleFunc("GET /api/steering", s.handleSteeringState)
	mux.HandleFunc("POST /api/steering/reset", s.handleSteeringReset)
	mux.HandleFunc("POST /api/vehicle/touches", s.handleTouches)
	mux.HandleFunc("GET /api/vehicle/command", s.handleCommand)

	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}/trace", s.handleSessionTrace)
	mux.HandleFunc("GET /api/sessions/{id}/chart", s.handleSessionChart)
	mux.HandleFunc("GET /api/sessions/{id}/plot.png", s.handleSessionPlot)
	mux.HandleFunc("GET /api/placements", s.handleListPlacements)

	mux.HandleFunc("POST /api/sensor/command", s.handleSensorCommand)
	mux.HandleFunc("GET /api/config", s.handleConfig)
	mux.HandleFunc("GET /api/version", s.handleVersion)
	return mux
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, s.cfg)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, version.Get())
}

type sensorCommandRequest struct {
	Command string `json:"command"`
}

func (s *Server) handleSensorCommand(w http.ResponseWriter, r *http.Request) {
	if s.sensor == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no sensor attached")
		return
	}
	var req sensorCommandRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.Command == "" {
		httputil.BadRequest(w, "missing command")
		return
	}
	if err := s.sensor.SendCommand(req.Command); err != nil {
		monitoring.Logf("sensor command %q failed: %v", req.Command, err)
		httputil.InternalServerError(w, "failed to send command")
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"sent": req.Command})
}
