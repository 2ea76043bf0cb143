package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"conceptmap/application/ports"
	"conceptmap/application/services"
	pkgerrors "conceptmap/pkg/errors"
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	base
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(service *services.EditorService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{base: newBase(service, errs, logger)}
}

// CreateNodeRequest represents the request body for creating a node
type CreateNodeRequest struct {
	Type     string               `json:"type" validate:"omitempty,oneof=customNode annotationNode content annotation"`
	Data     ports.NodeData       `json:"data"`
	Position ports.PositionRecord `json:"position"`
}

// CreateNodeResponse is returned by CreateNode
type CreateNodeResponse struct {
	ID  string            `json:"id"`
	Map *services.MapView `json:"map"`
}

// CreateNode handles POST /maps/{mapID}/nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req CreateNodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	view, id, err := h.service.AddNode(r.Context(), userID, mapID, services.AddNodeInput{
		Type: req.Type,
		Data: req.Data,
		X:    req.Position.X,
		Y:    req.Position.Y,
	})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, CreateNodeResponse{ID: id, Map: view}, nil)
}

// DeleteNode handles DELETE /maps/{mapID}/nodes/{nodeID}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	view, err := h.service.RemoveNode(r.Context(), userID, mapID, chi.URLParam(r, "nodeID"))
	h.respond(w, r, http.StatusOK, view, err)
}
