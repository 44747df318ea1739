package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"campusreservation/internal/auth"
	"campusreservation/pkg/config"
)

// Authenticate validates the bearer token and attaches the principal.
//
// Outside prod, a request without Authorization may identify itself with
// X-User-Id and X-User-Role headers to keep local testing simple.
func Authenticate(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token := strings.TrimSpace(authz[7:])
				p, err := auth.VerifyToken(token, cfg.Auth.JWTSecret, cfg.Auth.Issuer, time.Now())
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
				return
			}

			// Dev fallback
			if cfg.AppEnv != "prod" {
				userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
				role, err := auth.ParseRole(r.Header.Get("X-User-Role"))
				if userID != "" && err == nil {
					p := &auth.Principal{UserID: userID, Role: role}
					next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
					return
				}
			}

			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		})
	}
}

// RequireManager rejects callers that are not staff or admin.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		if p == nil {
			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
			return
		}
		if !p.CanManage() {
			WriteError(w, http.StatusForbidden, "FORBIDDEN", "staff role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			}
			entry := log.WithFields(fields)
			if ww.Status() >= 500 {
				entry.Error("request failed")
				return
			}
			entry.Info("request handled")
		})
	}
}
