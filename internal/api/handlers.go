package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ferrand/raido/internal/apperr"
	"github.com/ferrand/raido/internal/models"
	"github.com/ferrand/raido/internal/projectservice"
	"github.com/ferrand/raido/internal/store"
)

const maxBodyBytes = 1 << 20 // 1 MB for JSON bodies

// Handler holds the project API route handlers.
type Handler struct {
	svc      *projectservice.Service
	accounts store.AccountStore
}

// NewHandler creates a new Handler.
func NewHandler(svc *projectservice.Service, accounts store.AccountStore) *Handler {
	return &Handler{svc: svc, accounts: accounts}
}

// decode reads and validates a JSON request body.
func decode[T interface{ Validate() error }](w http.ResponseWriter, r *http.Request, dst *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if err := (*dst).Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return false
	}
	return true
}

// ifMatchVersion extracts the optional optimistic-concurrency token. Standard
// ETag quoting is stripped. Returns 0 when the header is absent.
func ifMatchVersion(r *http.Request) (int64, error) {
	raw := strings.Trim(r.Header.Get("If-Match"), `"`)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid If-Match header")
	}
	return v, nil
}

// writeError maps engine and store errors onto stable HTTP responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrStageNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("stage not found"))
	case errors.Is(err, apperr.ErrProposalNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("proposal not found"))
	case errors.Is(err, apperr.ErrEmptyComment):
		writeJSON(w, http.StatusBadRequest, errorBody("comment text is empty"))
	case errors.Is(err, apperr.ErrFieldNotSupported):
		writeJSON(w, http.StatusBadRequest, errorBody("field not supported on stage"))
	case errors.Is(err, apperr.ErrNoNextStage):
		writeJSON(w, http.StatusConflict, errorBody("no next stage"))
	case errors.Is(err, apperr.ErrAlreadyAtFirstStage):
		writeJSON(w, http.StatusConflict, errorBody("already at first stage"))
	case errors.Is(err, apperr.ErrNoActiveStage):
		writeJSON(w, http.StatusConflict, errorBody("no active stage"))
	case errors.Is(err, apperr.ErrFeedbackLimitExceeded):
		writeJSON(w, http.StatusConflict, errorBody("feedback limit exceeded"))
	case errors.Is(err, apperr.ErrStaleProject):
		writeJSON(w, http.StatusConflict, errorBody("stale project version"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error, retry later"))
	}
}

// respondProject writes the aggregate with its version as ETag.
func respondProject(w http.ResponseWriter, status int, p *models.Project) {
	w.Header().Set("ETag", fmt.Sprintf(`"%d"`, p.Version))
	writeJSON(w, status, ProjectResponse{Project: p, Version: p.Version})
}

// projectID pulls the project id URL param and enforces access control.
func (h *Handler) projectID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "projectID")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("project id is required"))
		return "", false
	}
	if !canAccessProject(identityFrom(r), id) {
		writeJSON(w, http.StatusForbidden, errorBody("forbidden"))
		return "", false
	}
	return id, true
}

func stageID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "stageID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid stage id"))
		return 0, false
	}
	return id, true
}

// ListProjects handles GET /api/projects. Clients see only their own project.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ident := identityFrom(r)
	if ident.Role != models.RoleAdmin {
		filtered := summaries[:0]
		for _, s := range summaries {
			if canAccessProject(ident, s.ID) {
				filtered = append(filtered, s)
			}
		}
		summaries = filtered
	}
	writeJSON(w, http.StatusOK, ProjectListResponse{Projects: summaries, Total: len(summaries)})
}

// CreateProject handles POST /api/projects (admin).
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.Create(r.Context(), req.Name, req.Client, req.ClientEmail)
	if err != nil {
		writeError(w, err)
		return
	}
	respondProject(w, http.StatusCreated, p)
}

// GetProject handles GET /api/projects/{projectID}.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respondProject(w, http.StatusOK, p)
}

// DeleteProject handles DELETE /api/projects/{projectID} (admin).
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id, h.accounts); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdvanceStage handles POST /api/projects/{projectID}/advance (admin).
func (h *Handler) AdvanceStage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	version, err := ifMatchVersion(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	p, err := h.svc.AdvanceStage(r.Context(), id, version)
	if err != nil {
		writeError(w, err)
		return
	}
	respondProject(w, http.StatusOK, p)
}

// RevertStage handles POST /api/projects/{projectID}/revert (admin).
func (h *Handler) RevertStage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	version, err := ifMatchVersion(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	p, err := h.svc.RevertStage(r.Context(), id, version)
	if err != nil {
		writeError(w, err)
		return
	}
	respondProject(w, http.StatusOK, p)
}

// SetStageField handles PUT /api/projects/{projectID}/stages/{stageID}/field
// (admin). Locked stages are allowed: these are configuration values.
func (h *Handler) SetStageField(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	sid, ok := stageID(w, r)
	if !ok {
		return
	}
	var req SetStageFieldRequest
	if !decode(w, r, &req) {
		return
	}
	version, err := ifMatchVersion(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	var value any
	switch req.Field {
	case "url":
		var s string
		if err := json.Unmarshal(req.Value, &s); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("value must be a string"))
			return
		}
		value = s
	case "answers":
		var m map[string]string
		if err := json.Unmarshal(req.Value, &m); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("value must be a string map"))
			return
		}
		value = m
	}

	p, err := h.svc.SetStageField(r.Context(), id, sid, req.Field, value, version)
	if err != nil {
		writeError(w, err)
		return
	}
	respondProject(w, http.StatusOK, p)
}

// AddComment handles POST /api/projects/{projectID}/comments.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	var req CommentRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.AddComment(r.Context(), id, req.StageID, req.Author, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	respondProject(w, http.StatusCreated, p)
}

// CreateProposal handles POST /api/projects/{projectID}/proposals.
func (h *Handler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	var req ProposalCreateRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.ProposeMeeting(r.Context(), id, req.DateTime.UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	respondProject(w, http.StatusCreated, p)
}

// UpdateProposal handles PUT /api/projects/{projectID}/proposals/{proposalID}.
func (h *Handler) UpdateProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	propID := chi.URLParam(r, "proposalID")
	var req ProposalUpdateRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.ResolveProposal(r.Context(), id, propID, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	respondProject(w, http.StatusOK, p)
}

// DeleteProposal handles DELETE /api/projects/{projectID}/proposals/{proposalID}.
func (h *Handler) DeleteProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	propID := chi.URLParam(r, "proposalID")
	p, err := h.svc.DeleteProposal(r.Context(), id, propID)
	if err != nil {
		writeError(w, err)
		return
	}
	respondProject(w, http.StatusOK, p)
}

// SubmitFeedback handles POST /api/projects/{projectID}/stages/{stageID}/feedback.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	sid, ok := stageID(w, r)
	if !ok {
		return
	}
	var req FeedbackRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.SubmitFeedback(r.Context(), id, sid, req.Author, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	respondProject(w, http.StatusCreated, p)
}

// AttachFile handles POST /api/projects/{projectID}/stages/{stageID}/attachments.
// The blob must have been uploaded first via POST /api/uploads.
func (h *Handler) AttachFile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	sid, ok := stageID(w, r)
	if !ok {
		return
	}
	var req AttachmentRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.AttachFile(r.Context(), id, sid, models.Attachment{
		FileID:      req.FileID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	respondProject(w, http.StatusCreated, p)
}

// SetLate handles PUT /api/projects/{projectID}/late (admin).
func (h *Handler) SetLate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req LateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	p, err := h.svc.SetLate(r.Context(), id, req.IsLate)
	if err != nil {
		writeError(w, err)
		return
	}
	respondProject(w, http.StatusOK, p)
}
