package api

import (
	"errors"
	"fmt"
	"net/http"

	"gonum.org/v1/gonum/num/quat"

	"github.com/banshee-data/arcontrol/internal/db"
	"github.com/banshee-data/arcontrol/internal/geom"
	"github.com/banshee-data/arcontrol/internal/httputil"
	"github.com/banshee-data/arcontrol/internal/measure"
	"github.com/banshee-data/arcontrol/internal/monitoring"
	"github.com/banshee-data/arcontrol/internal/placement"
	"github.com/banshee-data/arcontrol/internal/units"
)

// orientation is a unit quaternion in x, y, z, w order.
type orientation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// poseInput accepts either a row-major 4x4 pose or a position plus
// orientation quaternion.
type poseInput struct {
	Pose        []float64    `json:"pose,omitempty"`
	Position    *geom.Point  `json:"position,omitempty"`
	Orientation *orientation `json:"orientation,omitempty"`
}

func (in poseInput) toPose() (geom.Pose, error) {
	switch {
	case in.Pose != nil:
		if len(in.Pose) != len(geom.Pose{}) {
			return geom.Pose{}, fmt.Errorf("pose must have 16 elements, got %d", len(in.Pose))
		}
		var p geom.Pose
		copy(p[:], in.Pose)
		return p, nil
	case in.Orientation != nil:
		o := in.Orientation
		q := quat.Number{Real: o.W, Imag: o.X, Jmag: o.Y, Kmag: o.Z}
		if quat.Abs(q) == 0 {
			return geom.Pose{}, errors.New("orientation quaternion must be non-zero")
		}
		var pos geom.Vec
		if in.Position != nil {
			pos = in.Position.Vec()
		}
		return geom.FromQuat(q, pos), nil
	default:
		return geom.Pose{}, errors.New("request needs a pose or an orientation")
	}
}

func writePlacementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, placement.ErrNonRigidPose), errors.Is(err, placement.ErrInvalidDistance),
		errors.Is(err, placement.ErrNonFinite):
		httputil.UnprocessableEntity(w, err.Error())
	case errors.Is(err, placement.ErrUnknownSite):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalServerError(w, err.Error())
	}
}

type placementRequest struct {
	poseInput
	Distance *float64 `json:"distance,omitempty"`
	Site     string   `json:"site,omitempty"`
}

type placementResponse struct {
	Site      string     `json:"site,omitempty"`
	Distance  float64    `json:"distance"`
	Point     geom.Point `json:"point"`
	Transform geom.Pose  `json:"transform"`
}

func (s *Server) handlePlacement(w http.ResponseWriter, r *http.Request) {
	var req placementRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	pose, err := req.toPose()
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	site := placement.SiteDraw
	if req.Site != "" {
		if site, err = placement.ParseSite(req.Site); err != nil {
			writePlacementError(w, err)
			return
		}
	}
	distance, err := s.places.Distances().For(site)
	if err != nil {
		writePlacementError(w, err)
		return
	}

	var point geom.Vec
	if req.Distance == nil {
		point, err = s.places.Place(pose, site)
	} else {
		distance = *req.Distance
		point, err = s.places.PlaceAt(pose, distance)
	}
	if err != nil {
		writePlacementError(w, err)
		return
	}
	transform, err := s.places.TransformAt(pose, distance)
	if err != nil {
		writePlacementError(w, err)
		return
	}

	if s.db != nil {
		rec := db.PlacementRecord{
			SessionID: s.sessionID(),
			Site:      string(site),
			Distance:  distance,
			Point:     geom.PointOf(point),
			Time:      s.clock.Now(),
		}
		if err := s.db.RecordPlacement(rec); err != nil {
			monitoring.Logf("failed to record placement: %v", err)
		}
	}

	httputil.WriteJSONOK(w, placementResponse{
		Site:      string(site),
		Distance:  distance,
		Point:     geom.PointOf(point),
		Transform: transform,
	})
}

type anchorRequest struct {
	Center geom.Point `json:"center"`
}

// handlePlaneAnchor returns the transform of a horizontal plane node for a
// detected plane anchor centre.
func (s *Server) handlePlaneAnchor(w http.ResponseWriter, r *http.Request) {
	var req anchorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	p := geom.PlaneAnchorPose(req.Center.Vec())
	httputil.WriteJSONOK(w, map[string]interface{}{
		"position":  geom.PointOf(p.Position()),
		"transform": p,
	})
}

type drawRequest struct {
	poseInput
	BrushDown bool `json:"brush_down"`
}

type drawResponse struct {
	Pointer geom.Point `json:"pointer"`
	Drawn   bool       `json:"drawn"`
	Points  int        `json:"points"`
}

func (s *Server) handleDrawTick(w http.ResponseWriter, r *http.Request) {
	var req drawRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	pose, err := req.toPose()
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if p := placement.ComputeForwardPoint(pose, s.stroke.Distance()); !geom.IsFinite(p) {
		httputil.UnprocessableEntity(w, "pointer position is not finite")
		return
	}
	pointer, drawn := s.stroke.Tick(pose, req.BrushDown)
	httputil.WriteJSONOK(w, drawResponse{
		Pointer: geom.PointOf(pointer),
		Drawn:   drawn,
		Points:  len(s.stroke.Points()),
	})
}

func (s *Server) handleDrawPoints(w http.ResponseWriter, r *http.Request) {
	points := s.stroke.Points()
	out := make([]geom.Point, len(points))
	for i, p := range points {
		out[i] = geom.PointOf(p)
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"pointer": geom.PointOf(s.stroke.Pointer()),
		"points":  out,
	})
}

func (s *Server) handleDrawClear(w http.ResponseWriter, r *http.Request) {
	s.stroke.Clear()
	w.WriteHeader(http.StatusNoContent)
}

type poseRequest struct {
	poseInput
}

func (s *Server) decodePose(w http.ResponseWriter, r *http.Request) (geom.Pose, bool) {
	var req poseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return geom.Pose{}, false
	}
	pose, err := req.toPose()
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return geom.Pose{}, false
	}
	return pose, true
}

func (s *Server) handleMeasureStart(w http.ResponseWriter, r *http.Request) {
	pose, ok := s.decodePose(w, r)
	if !ok {
		return
	}
	if !s.finiteTapeStart(w, pose) {
		return
	}
	marker := s.tape.Start(pose)
	httputil.WriteJSONOK(w, map[string]interface{}{
		"start":     geom.PointOf(marker.Position()),
		"transform": marker,
	})
}

func (s *Server) handleMeasureClear(w http.ResponseWriter, r *http.Request) {
	s.tape.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMeasureToggle(w http.ResponseWriter, r *http.Request) {
	pose, ok := s.decodePose(w, r)
	if !ok {
		return
	}
	if !s.finiteTapeStart(w, pose) {
		return
	}
	active := s.tape.Toggle(pose)
	resp := map[string]interface{}{"active": active}
	if start, ok := s.tape.StartPoint(); ok {
		resp["start"] = geom.PointOf(start)
	}
	httputil.WriteJSONOK(w, resp)
}

type measureResponse struct {
	measure.Measurement
	Units  string         `json:"units"`
	Labels measure.Labels `json:"labels"`
}

func (s *Server) handleMeasure(w http.ResponseWriter, r *http.Request) {
	unit := s.cfg.GetLengthUnits()
	if q := r.URL.Query().Get("units"); q != "" {
		if !units.IsValid(q) {
			httputil.BadRequest(w, fmt.Sprintf("units must be one of %s", units.GetValidUnitsString()))
			return
		}
		unit = q
	}
	pose, ok := s.decodePose(w, r)
	if !ok {
		return
	}
	m, err := s.tape.Measure(pose)
	if errors.Is(err, measure.ErrNoStart) {
		httputil.WriteJSONError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if !geom.IsFinite(geom.Vec{X: m.DX, Y: m.DY, Z: m.DZ}) || !geom.IsFinite(geom.Vec{X: m.Distance}) {
		httputil.UnprocessableEntity(w, "measurement is not finite")
		return
	}
	httputil.WriteJSONOK(w, measureResponse{Measurement: m, Units: unit, Labels: m.Format(unit)})
}

// finiteTapeStart rejects poses whose start marker would overflow.
func (s *Server) finiteTapeStart(w http.ResponseWriter, pose geom.Pose) bool {
	if !placement.ForwardTransform(pose, s.tape.Distance()).IsFinite() {
		httputil.UnprocessableEntity(w, "start marker is not finite")
		return false
	}
	return true
}
