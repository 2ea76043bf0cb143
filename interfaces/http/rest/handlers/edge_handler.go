package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"conceptmap/application/ports"
	"conceptmap/application/services"
	pkgerrors "conceptmap/pkg/errors"
)

// EdgeHandler handles edge-related HTTP requests
type EdgeHandler struct {
	base
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(service *services.EditorService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *EdgeHandler {
	return &EdgeHandler{base: newBase(service, errs, logger)}
}

// CreateEdgeRequest represents the request body for drawing an edge
type CreateEdgeRequest struct {
	Source string             `json:"source" validate:"required"`
	Target string             `json:"target" validate:"required"`
	Label  string             `json:"label,omitempty"`
	Style  *ports.StyleRecord `json:"style,omitempty"`
}

// CreateEdgeResponse is returned by CreateEdge
type CreateEdgeResponse struct {
	ID  string            `json:"id"`
	Map *services.MapView `json:"map"`
}

// CreateEdge handles POST /maps/{mapID}/edges
func (h *EdgeHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req CreateEdgeRequest
	if !h.decode(w, r, &req) {
		return
	}

	view, id, err := h.service.AddEdge(r.Context(), userID, mapID, services.AddEdgeInput{
		Source: req.Source,
		Target: req.Target,
		Label:  req.Label,
		Style:  req.Style,
	})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, CreateEdgeResponse{ID: id, Map: view}, nil)
}

// DeleteEdge handles DELETE /maps/{mapID}/edges/{edgeID}
func (h *EdgeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	view, err := h.service.RemoveEdge(r.Context(), userID, mapID, chi.URLParam(r, "edgeID"))
	h.respond(w, r, http.StatusOK, view, err)
}
