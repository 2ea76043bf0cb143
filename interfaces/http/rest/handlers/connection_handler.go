package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"conceptmap/application/services"
	pkgerrors "conceptmap/pkg/errors"
)

// ConnectionHandler subscribes websocket connections to map snapshots
type ConnectionHandler struct {
	base
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(service *services.EditorService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{base: newBase(service, errs, logger)}
}

// RegisterConnectionRequest names an API Gateway websocket connection
type RegisterConnectionRequest struct {
	ConnectionID string `json:"connectionId" validate:"required"`
}

// Register handles POST /maps/{mapID}/connections
func (h *ConnectionHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req RegisterConnectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.RegisterConnection(r.Context(), userID, mapID, req.ConnectionID); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unregister handles DELETE /maps/{mapID}/connections/{connectionID}
func (h *ConnectionHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.caller(w, r); !ok {
		return
	}

	if err := h.service.UnregisterConnection(r.Context(), chi.URLParam(r, "connectionID")); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
