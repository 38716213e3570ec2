// Package api provides HTTP API handlers for pose model management.
package api

import (
	"encoding/json"
	"errors"
	"image"
	"log"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/store"
)

// PoseHandler handles HTTP requests for pose model resources. Changes are
// applied to the live pose registry as well as the store.
type PoseHandler struct {
	store    *store.Store
	registry *pose.Estimator
}

// NewPoseHandler creates a new PoseHandler. registry may be nil when no
// pipeline is running.
func NewPoseHandler(s *store.Store, registry *pose.Estimator) *PoseHandler {
	return &PoseHandler{store: s, registry: registry}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *PoseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/poses or /api/poses/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/poses")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type poseRequest struct {
	Name   string            `json:"name"`
	Points []point           `json:"points"`
	Labels []pose.LabelRange `json:"labels"`
}

type poseResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Points    []point           `json:"points"`
	Labels    []pose.LabelRange `json:"labels"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

type listPosesResponse struct {
	Poses []poseResponse `json:"poses"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(p *store.Pose) poseResponse {
	pts := make([]point, len(p.Points))
	for i, q := range p.Points {
		pts[i] = point{X: q.X, Y: q.Y}
	}
	return poseResponse{
		ID:        p.ID,
		Name:      p.Name,
		Points:    pts,
		Labels:    p.Labels,
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (req *poseRequest) points() []image.Point {
	pts := make([]image.Point, len(req.Points))
	for i, q := range req.Points {
		pts[i] = image.Point{X: q.X, Y: q.Y}
	}
	return pts
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// register mirrors a stored pose into the live registry.
func (h *PoseHandler) register(p *store.Pose) {
	if h.registry == nil {
		return
	}
	m := p.Model
	if err := h.registry.Add(&m); err != nil {
		log.Printf("pose %s not registered: %v", p.Name, err)
	}
}

// list handles GET /api/poses and returns all poses.
func (h *PoseHandler) list(w http.ResponseWriter, r *http.Request) {
	poses, err := h.store.Poses().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list poses")
		return
	}

	response := listPosesResponse{
		Poses: make([]poseResponse, 0, len(poses)),
	}
	for _, p := range poses {
		response.Poses = append(response.Poses, toResponse(p))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/poses/{id} and returns a single pose.
func (h *PoseHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Poses().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get pose")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

// create handles POST /api/poses and creates a new pose.
func (h *PoseHandler) create(w http.ResponseWriter, r *http.Request) {
	var req poseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p := &store.Pose{Model: pose.Model{
		Name:   req.Name,
		Points: req.points(),
		Labels: req.Labels,
	}}
	if err := h.store.Poses().Create(p); err != nil {
		if errors.Is(err, pose.ErrInvalidModel) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create pose")
		return
	}
	h.register(p)

	writeJSON(w, http.StatusCreated, toResponse(p))
}

// update handles PUT /api/poses/{id}. Omitted fields keep their stored
// values; points and labels are replaced as a whole.
func (h *PoseHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Poses().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get pose")
		return
	}

	var req poseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	oldName := p.Name
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Points != nil {
		p.Points = req.points()
	}
	if req.Labels != nil {
		p.Labels = req.Labels
	}

	if err := h.store.Poses().Update(p); err != nil {
		if errors.Is(err, pose.ErrInvalidModel) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update pose")
		return
	}
	if h.registry != nil && oldName != p.Name {
		h.registry.Remove(oldName)
	}
	h.register(p)

	writeJSON(w, http.StatusOK, toResponse(p))
}

// delete handles DELETE /api/poses/{id} and removes a pose.
func (h *PoseHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Poses().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete pose")
		return
	}

	if err := h.store.Poses().Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete pose")
		return
	}
	if h.registry != nil {
		h.registry.Remove(p.Name)
	}

	w.WriteHeader(http.StatusNoContent)
}
