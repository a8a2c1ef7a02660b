package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ferrand/raido/internal/blob"
	"github.com/ferrand/raido/internal/projectservice"
	"github.com/ferrand/raido/internal/store"
)

// RouterConfig carries the dependencies and auth settings for the API router.
type RouterConfig struct {
	Service  *projectservice.Service
	Accounts store.AccountStore
	Blobs    *blob.Store

	AuthMode  string // AuthModeDisabled or AuthModeJWT
	JWTSecret string
	TokenTTL  time.Duration

	// SSEHandler, if non-nil, is mounted at GET /events inside the auth group.
	SSEHandler http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(cfg RouterConfig) chi.Router {
	h := NewHandler(cfg.Service, cfg.Accounts)
	ah := NewAuthHandler(cfg.Accounts, cfg.JWTSecret, cfg.TokenTTL)
	uh := NewUploadHandler(cfg.Blobs)

	r := chi.NewRouter()
	r.Use(MetricsMiddleware)

	// Login is the only unauthenticated endpoint.
	r.Post("/login", ah.Login)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.AuthMode, cfg.JWTSecret))

		// Projects.
		r.Get("/projects", h.ListProjects)
		r.Get("/projects/{projectID}", h.GetProject)

		// Client-visible workflow operations.
		r.Post("/projects/{projectID}/comments", h.AddComment)
		r.Post("/projects/{projectID}/proposals", h.CreateProposal)
		r.Put("/projects/{projectID}/proposals/{proposalID}", h.UpdateProposal)
		r.Delete("/projects/{projectID}/proposals/{proposalID}", h.DeleteProposal)
		r.Post("/projects/{projectID}/stages/{stageID}/feedback", h.SubmitFeedback)
		r.Post("/projects/{projectID}/stages/{stageID}/attachments", h.AttachFile)

		// Uploads.
		r.Post("/uploads", uh.Upload)

		// SSE endpoint (protected by same auth middleware).
		if cfg.SSEHandler != nil {
			r.Get("/events", cfg.SSEHandler.ServeHTTP)
		}

		// Admin-only operations.
		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Post("/projects", h.CreateProject)
			r.Delete("/projects/{projectID}", h.DeleteProject)
			r.Post("/projects/{projectID}/advance", h.AdvanceStage)
			r.Post("/projects/{projectID}/revert", h.RevertStage)
			r.Put("/projects/{projectID}/stages/{stageID}/field", h.SetStageField)
			r.Put("/projects/{projectID}/late", h.SetLate)

			r.Get("/accounts", ah.ListAccounts)
			r.Post("/accounts", ah.CreateAccount)
			r.Delete("/accounts/{accountID}", ah.DeleteAccount)

			r.Delete("/uploads/{fileID}", uh.Delete)
		})
	})

	return r
}

// AttachmentsHandler serves stored blobs at GET /attachments/{fileID}. It is
// mounted outside /api so attachment links work in a plain browser tab.
func AttachmentsHandler(blobs *blob.Store) http.Handler {
	uh := NewUploadHandler(blobs)
	r := chi.NewRouter()
	r.Get("/{fileID}", uh.Serve)
	return r
}
