// Package api implements the Raido REST API using chi.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/ferrand/raido/internal/auth"
	"github.com/ferrand/raido/internal/metrics"
	"github.com/ferrand/raido/internal/models"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeJWT      = "jwt"
)

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	AccountID string
	Email     string
	Role      string
	ProjectID string // set for client accounts only
}

type ctxKey int

const identityKey ctxKey = 0

// identityFrom returns the caller identity stored by AuthMiddleware.
func identityFrom(r *http.Request) Identity {
	id, _ := r.Context().Value(identityKey).(Identity)
	return id
}

// AuthMiddleware returns middleware that validates a Bearer session token.
// In disabled mode every request passes through with an implicit admin
// identity (local development and tests).
func AuthMiddleware(mode, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mode != AuthModeJWT {
				ctx := context.WithValue(r.Context(), identityKey, Identity{Role: models.RoleAdmin})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			claims, err := auth.ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, Identity{
				AccountID: claims.Subject,
				Role:      claims.Role,
				ProjectID: claims.ProjectID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identityFrom(r).Role != models.RoleAdmin {
			writeJSON(w, http.StatusForbidden, errorBody("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// canAccessProject reports whether the caller may touch the given project.
// Admins see everything; clients only their own project.
func canAccessProject(id Identity, projectID string) bool {
	if id.Role == models.RoleAdmin {
		return true
	}
	return id.Role == models.RoleClient && id.ProjectID == projectID
}

// MetricsMiddleware counts requests by method and status class.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		class := strconv.Itoa(rec.status/100) + "xx"
		metrics.HTTPRequests.WithLabelValues(r.Method, class).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
