package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ferrand/raido/internal/apperr"
	"github.com/ferrand/raido/internal/auth"
	"github.com/ferrand/raido/internal/models"
	"github.com/ferrand/raido/internal/store"
)

// AuthHandler serves login and account management endpoints.
type AuthHandler struct {
	accounts store.AccountStore
	secret   string
	tokenTTL time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts store.AccountStore, secret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{accounts: accounts, secret: secret, tokenTTL: tokenTTL}
}

// Login handles POST /api/login, exchanging credentials for a session token.
// Unknown emails and wrong passwords get the same answer.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}
	acc, err := h.accounts.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, apperr.ErrNotFound) || (err == nil && !auth.CheckPassword(req.Password, acc.PasswordHash)) {
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid credentials"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := auth.IssueToken(h.secret, acc.ID, acc.Role, acc.ProjectID, h.tokenTTL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Role: acc.Role})
}

// CreateAccount handles POST /api/accounts (admin).
func (h *AuthHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decode(w, r, &req) {
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	acc := &models.Account{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		ProjectID:    req.ProjectID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.accounts.Insert(r.Context(), acc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

// ListAccounts handles GET /api/accounts (admin). Password hashes never leave
// the store layer's List query.
func (h *AuthHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// DeleteAccount handles DELETE /api/accounts/{accountID} (admin).
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "accountID")
	if err := h.accounts.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
