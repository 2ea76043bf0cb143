package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body written for every failed request
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	MapID     string                 `json:"map_id,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// retryAfterSeconds matches the one minute rate limit window
const retryAfterSeconds = "60"

// ErrorHandler turns errors into HTTP responses and logs them
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates a new error handler. In debug mode plain error
// messages and stack traces are returned to the client.
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle writes err as a JSON error response. AppErrors keep their type and
// status; anything else becomes an internal error.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	appErr := GetAppError(err)
	if appErr == nil {
		status := http.StatusInternalServerError
		h.logger.Error("Unhandled error", append(requestFields(r, status), zap.Error(err))...)

		message := "An internal error occurred"
		if h.debug {
			message = err.Error()
		}
		h.write(w, r, status, ErrorResponse{Type: string(ErrorTypeInternal), Message: message})
		return
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	h.logAppError(r, appErr, status)

	resp := ErrorResponse{
		Type:    string(appErr.Type),
		Message: appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	}
	if h.debug && appErr.StackTrace != "" {
		resp.Details = withEntry(appErr.Details, "stack_trace", appErr.StackTrace)
	}
	if appErr.Type == ErrorTypeRateLimited {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	h.write(w, r, status, resp)
}

// HandleStatus sends an error response for a bare status code, such as an
// unmatched route
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.logger.Warn(message, requestFields(r, status)...)
	h.write(w, r, status, ErrorResponse{Type: statusToErrorType(status), Message: message})
}

// Middleware recovers panics and reports them as internal errors
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (h *ErrorHandler) logAppError(r *http.Request, err *AppError, status int) {
	fields := append(requestFields(r, status), zap.String("error_type", string(err.Type)))
	if err.Code != "" {
		fields = append(fields, zap.String("error_code", err.Code))
	}
	if err.Cause != nil {
		fields = append(fields, zap.Error(err.Cause))
	}
	if err.Details != nil {
		fields = append(fields, zap.Any("details", err.Details))
	}

	switch {
	case status >= 500:
		h.logger.Error(err.Message, fields...)
	case status >= 400:
		h.logger.Warn(err.Message, fields...)
	default:
		h.logger.Info(err.Message, fields...)
	}
}

func (h *ErrorHandler) write(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse) {
	resp.Error = true
	resp.MapID = chi.URLParam(r, "mapID")
	resp.RequestID = middleware.GetReqID(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

func requestFields(r *http.Request, status int) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	}
	if mapID := chi.URLParam(r, "mapID"); mapID != "" {
		fields = append(fields, zap.String("map_id", mapID))
	}
	return fields
}

// withEntry copies details and adds one key, leaving the error's map intact
func withEntry(details map[string]interface{}, key string, value interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	out[key] = value
	return out
}

func statusToErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(ErrorTypeValidation)
	case http.StatusUnauthorized:
		return string(ErrorTypeUnauthorized)
	case http.StatusNotFound:
		return string(ErrorTypeNotFound)
	case http.StatusTooManyRequests:
		return string(ErrorTypeRateLimited)
	case http.StatusConflict:
		return string(ErrorTypeConflict)
	case http.StatusUnprocessableEntity:
		return string(ErrorTypeInvalidReference)
	case http.StatusServiceUnavailable:
		return string(ErrorTypeUnavailable)
	case http.StatusBadGateway:
		return string(ErrorTypeExternal)
	default:
		return string(ErrorTypeInternal)
	}
}
