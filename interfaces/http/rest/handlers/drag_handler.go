package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"conceptmap/application/services"
	pkgerrors "conceptmap/pkg/errors"
)

// DragHandler maps pointer events on the canvas to the drag controller
type DragHandler struct {
	base
}

// NewDragHandler creates a new drag handler
func NewDragHandler(service *services.EditorService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *DragHandler {
	return &DragHandler{base: newBase(service, errs, logger)}
}

// StartDragRequest names the node under the pointer
type StartDragRequest struct {
	NodeID string `json:"nodeId" validate:"required"`
}

// DragPositionRequest is a pointer position
type DragPositionRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

// Start handles POST /maps/{mapID}/drag/start
func (h *DragHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req StartDragRequest
	if !h.decode(w, r, &req) {
		return
	}

	outcome, err := h.service.StartDrag(r.Context(), userID, mapID, req.NodeID)
	h.respond(w, r, http.StatusOK, outcome, err)
}

// Move handles POST /maps/{mapID}/drag/move
func (h *DragHandler) Move(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req DragPositionRequest
	if !h.decode(w, r, &req) {
		return
	}

	outcome, err := h.service.MoveDrag(r.Context(), userID, mapID, *req.X, *req.Y)
	h.respond(w, r, http.StatusOK, outcome, err)
}

// Stop handles POST /maps/{mapID}/drag/stop
func (h *DragHandler) Stop(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req DragPositionRequest
	if !h.decode(w, r, &req) {
		return
	}

	outcome, err := h.service.StopDrag(r.Context(), userID, mapID, *req.X, *req.Y)
	h.respond(w, r, http.StatusOK, outcome, err)
}

// Abort handles POST /maps/{mapID}/drag/abort
func (h *DragHandler) Abort(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	outcome, err := h.service.AbortDrag(r.Context(), userID, mapID)
	h.respond(w, r, http.StatusOK, outcome, err)
}
