package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"conceptmap/application/ports"
	"conceptmap/application/services"
	"conceptmap/pkg/auth"
	"conceptmap/pkg/common"
	pkgerrors "conceptmap/pkg/errors"
)

// MapHandler handles whole-map requests
type MapHandler struct {
	base
}

// NewMapHandler creates a new map handler
func NewMapHandler(service *services.EditorService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *MapHandler {
	return &MapHandler{base: newBase(service, errs, logger)}
}

// SaveMapRequest carries optional metadata changes
type SaveMapRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,max=255"`
	LessonID *string `json:"lessonId,omitempty" validate:"omitempty,max=128"`
}

// ListMaps handles GET /maps
func (h *MapHandler) ListMaps(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errs.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	summaries, err := h.service.ListMaps(r.Context(), user.UserID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	page, meta := common.Paginate(summaries, common.ExtractPaginationParams(r))
	common.RespondWithMeta(w, r, http.StatusOK, page, &common.MetaInfo{Pagination: meta})
}

// GetMap handles GET /maps/{mapID}
func (h *MapHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetMap(r.Context(), userID, mapID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	if etag := view.ETag(); etag != "" {
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	common.RespondJSON(w, r, http.StatusOK, view)
}

// ReplaceMap handles PUT /maps/{mapID}
func (h *MapHandler) ReplaceMap(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var doc ports.MapDocument
	if !h.decode(w, r, &doc) {
		return
	}

	view, err := h.service.ReplaceMap(r.Context(), userID, mapID, &doc)
	if err == nil {
		w.Header().Set("ETag", view.ETag())
	}
	h.respond(w, r, http.StatusOK, view, err)
}

// SaveMap handles POST /maps/{mapID}/save. The body is optional.
func (h *MapHandler) SaveMap(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req SaveMapRequest
	if r.ContentLength > 0 && !h.decode(w, r, &req) {
		return
	}

	view, err := h.service.SaveMap(r.Context(), userID, mapID, services.SaveInput{
		Title:    req.Title,
		LessonID: req.LessonID,
	})
	if err == nil {
		h.logger.Info("Map saved via API",
			zap.String("map_id", mapID),
			zap.String("user_id", userID),
			zap.Int("version", view.Version),
		)
		w.Header().Set("ETag", view.ETag())
	}
	h.respond(w, r, http.StatusOK, view, err)
}

// ReloadMap handles POST /maps/{mapID}/reload
func (h *MapHandler) ReloadMap(w http.ResponseWriter, r *http.Request) {
	userID, mapID, ok := h.caller(w, r)
	if !ok {
		return
	}

	view, err := h.service.ReloadMap(r.Context(), userID, mapID)
	h.respond(w, r, http.StatusOK, view, err)
}
