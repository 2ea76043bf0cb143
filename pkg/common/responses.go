package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	pkgerrors "conceptmap/pkg/errors"
	"conceptmap/pkg/utils"
)

// MaxBodyBytes bounds request bodies. A full map document is the largest.
const MaxBodyBytes = 8 << 20

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// MetaInfo contains metadata about the response
type MetaInfo struct {
	RequestID  string          `json:"request_id,omitempty"`
	Timestamp  string          `json:"timestamp,omitempty"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

// PaginationInfo contains pagination details
type PaginationInfo struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	RespondWithMeta(w, r, status, data, nil)
}

// RespondWithMeta sends a response with metadata. Request id and timestamp
// are always filled in.
func RespondWithMeta(w http.ResponseWriter, r *http.Request, status int, data interface{}, meta *MetaInfo) {
	if meta == nil {
		meta = &MetaInfo{}
	}
	meta.RequestID = middleware.GetReqID(r.Context())
	meta.Timestamp = utils.NowRFC3339()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
		Meta:    meta,
	})
}

// DecodeJSON parses a JSON request body with a size limit
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return pkgerrors.NewValidationError("request body too large").WithCode("BODY_TOO_LARGE")
		case errors.Is(err, io.EOF):
			return pkgerrors.NewValidationError("request body is required")
		default:
			return pkgerrors.NewValidationError("invalid request body: " + err.Error())
		}
	}
	return nil
}
