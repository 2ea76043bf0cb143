// Package handlers exposes the editor operations over HTTP. Every route is
// scoped to one map and runs as the authenticated user.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"conceptmap/application/services"
	"conceptmap/pkg/auth"
	"conceptmap/pkg/common"
	pkgerrors "conceptmap/pkg/errors"
	"conceptmap/pkg/utils"
)

// base carries what every handler needs
type base struct {
	service *services.EditorService
	errs    *pkgerrors.ErrorHandler
	logger  *zap.Logger
}

func newBase(service *services.EditorService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) base {
	return base{service: service, errs: errs, logger: logger}
}

// caller returns the authenticated user id and the map id from the path.
// It writes the error response itself and reports false on failure.
func (b base) caller(w http.ResponseWriter, r *http.Request) (userID, mapID string, ok bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		b.errs.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return "", "", false
	}
	return user.UserID, chi.URLParam(r, "mapID"), true
}

// decode reads and validates a JSON body
func (b base) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := common.DecodeJSON(w, r, v); err != nil {
		b.errs.Handle(w, r, err)
		return false
	}
	if err := utils.ValidateStruct(v); err != nil {
		b.errs.Handle(w, r, err)
		return false
	}
	return true
}

func (b base) respond(w http.ResponseWriter, r *http.Request, status int, data interface{}, err error) {
	if err != nil {
		b.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, status, data)
}
