package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"conceptmap/pkg/auth"
	pkgerrors "conceptmap/pkg/errors"
)

// Headers set by the Lambda entry point once API Gateway has validated
// the caller's JWT. Incoming copies are stripped before they are set.
const (
	HeaderGatewayAuthorized = "X-API-Gateway-Authorized"
	HeaderUserID            = "X-User-ID"
	HeaderUserEmail         = "X-User-Email"
	HeaderUserRoles         = "X-User-Roles"
)

// AuthConfig controls how requests are authenticated
type AuthConfig struct {
	// Disabled skips token checks and runs every request as DevUserID
	Disabled  bool
	DevUserID string

	// TrustGatewayHeaders accepts the user headers set by the Lambda handler
	TrustGatewayHeaders bool

	IPRequestsPerMinute   int
	UserRequestsPerMinute int
}

// DefaultAuthConfig returns the production limits
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		IPRequestsPerMinute:   600,
		UserRequestsPerMinute: 1200,
	}
}

// Authenticate resolves the caller and stores it in the request context
func Authenticate(
	validator *auth.JWTValidator,
	cfg AuthConfig,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) func(next http.Handler) http.Handler {
	ipLimiter := auth.NewIPRateLimiter(cfg.IPRequestsPerMinute)
	userLimiter := auth.NewUserRateLimiter(cfg.UserRequestsPerMinute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r, cfg.TrustGatewayHeaders)

			allowed, err := ipLimiter.Allow(r.Context(), clientIP)
			if err != nil {
				errs.Handle(w, r, pkgerrors.NewInternalError("rate limiter failure").WithCause(err))
				return
			}
			if !allowed {
				errs.Handle(w, r, pkgerrors.NewRateLimitError("IP"))
				return
			}

			user, err := resolveUser(r, validator, cfg)
			if err != nil {
				logger.Warn("Authentication failed",
					zap.Error(err),
					zap.String("ip", clientIP),
					zap.String("path", r.URL.Path),
				)
				errs.Handle(w, r, unauthorized(err))
				return
			}

			allowed, err = userLimiter.Allow(r.Context(), user.UserID)
			if err != nil {
				errs.Handle(w, r, pkgerrors.NewInternalError("rate limiter failure").WithCause(err))
				return
			}
			if !allowed {
				errs.Handle(w, r, pkgerrors.NewRateLimitError("user"))
				return
			}

			logger.Debug("Request authenticated",
				zap.String("user_id", user.UserID),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
			)

			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
		})
	}
}

func resolveUser(r *http.Request, validator *auth.JWTValidator, cfg AuthConfig) (*auth.UserContext, error) {
	if cfg.Disabled {
		return &auth.UserContext{UserID: cfg.DevUserID, Roles: []string{"developer"}}, nil
	}

	if cfg.TrustGatewayHeaders && r.Header.Get(HeaderGatewayAuthorized) == "true" {
		userID := r.Header.Get(HeaderUserID)
		if userID == "" {
			return nil, errors.New("missing user context from API Gateway")
		}
		roles := []string{"authenticated"}
		if raw := r.Header.Get(HeaderUserRoles); raw != "" {
			roles = strings.Split(raw, ",")
		}
		return &auth.UserContext{
			UserID: userID,
			Email:  r.Header.Get(HeaderUserEmail),
			Roles:  roles,
		}, nil
	}

	if validator == nil {
		return nil, errors.New("token validation is not configured")
	}

	token := extractToken(r)
	if token == "" {
		return nil, auth.ErrMissingToken
	}

	claims, err := validator.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &auth.UserContext{
		UserID: claims.UserID,
		Email:  claims.Email,
		Roles:  claims.Roles,
	}, nil
}

func unauthorized(err error) *pkgerrors.AppError {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return pkgerrors.NewUnauthorizedError("Token has expired").WithCode("TOKEN_EXPIRED")
	case errors.Is(err, auth.ErrInvalidSignature):
		return pkgerrors.NewUnauthorizedError("Invalid token signature").WithCode("INVALID_SIGNATURE")
	case errors.Is(err, auth.ErrMissingToken):
		return pkgerrors.NewUnauthorizedError("Missing authentication token").WithCode("MISSING_TOKEN")
	default:
		return pkgerrors.NewUnauthorizedError("Invalid token").WithCode("INVALID_TOKEN")
	}
}

// extractToken extracts the JWT token from the Authorization header or
// the auth_token cookie
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return header
	}

	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// getClientIP extracts the client IP address. Forwarding headers are only
// read behind the API gateway; otherwise they are caller controlled.
func getClientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			return strings.TrimSpace(parts[0])
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
