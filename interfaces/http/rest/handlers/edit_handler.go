package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"conceptmap/application/editor"
	"conceptmap/application/services"
	pkgerrors "conceptmap/pkg/errors"
)

// EditHandler drives the edit panel
type EditHandler struct {
	base
}

// NewEditHandler creates a new edit handler
func NewEditHandler(service *services.EditorService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *EditHandler {
	return &EditHandler{base: newBase(service, errs, logger)}
}

// OpenEditRequest selects the entity to edit
type OpenEditRequest struct {
	Kind string `json:"kind" validate:"required,oneof=node edge"`
	ID   string `json:"id" validate:"required"`
}

// SetFieldRequest changes one draft field
type SetFieldRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// Open handles POST /maps/{mapID}/edit/open
func (h *EditHandler) Open(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req OpenEditRequest
	if !h.decode(w, r, &req) {
		return
	}

	view, err := h.service.OpenEdit(r.Context(), userID, mapID, editor.EntityKind(req.Kind), req.ID)
	h.respond(w, r, http.StatusOK, view, err)
}

// SetField handles POST /maps/{mapID}/edit/field
func (h *EditHandler) SetField(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req SetFieldRequest
	if !h.decode(w, r, &req) {
		return
	}

	view, err := h.service.SetEditField(r.Context(), userID, mapID, req.Field, req.Value)
	h.respond(w, r, http.StatusOK, view, err)
}

// Save handles POST /maps/{mapID}/edit/save
func (h *EditHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	view, err := h.service.SaveEdit(r.Context(), userID, mapID)
	h.respond(w, r, http.StatusOK, view, err)
}

// Cancel handles POST /maps/{mapID}/edit/cancel
func (h *EditHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	view, err := h.service.CancelEdit(r.Context(), userID, mapID)
	h.respond(w, r, http.StatusOK, view, err)
}
