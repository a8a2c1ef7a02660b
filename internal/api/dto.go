package api

import (
	"encoding/json"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/ferrand/raido/internal/models"
)

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Client      string `json:"client"`
	ClientEmail string `json:"client_email"`
}

// Validate validates the request.
func (r CreateProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Client, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.ClientEmail, validation.Required, is.Email),
	)
}

// SetStageFieldRequest updates a configuration value on a stage. Value is
// decoded according to Field (url: string, answers: string map).
type SetStageFieldRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// Validate validates the request.
func (r SetStageFieldRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Field, validation.Required, validation.In("url", "answers")),
		validation.Field(&r.Value, validation.Required.Error("value is required")),
	)
}

// CommentRequest appends a comment to a stage.
type CommentRequest struct {
	StageID int    `json:"stage_id"`
	Author  string `json:"author"`
	Text    string `json:"text"`
}

// Validate validates the request. Empty text is handled by the engine so the
// stable empty-comment message is returned.
func (r CommentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.StageID, validation.Required),
		validation.Field(&r.Author, validation.Required),
	)
}

// ProposalCreateRequest proposes a kickoff appointment.
type ProposalCreateRequest struct {
	DateTime time.Time `json:"date_time"`
}

// Validate validates the request.
func (r ProposalCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DateTime, validation.Required),
	)
}

// ProposalUpdateRequest accepts or rejects a proposal.
type ProposalUpdateRequest struct {
	Status string `json:"status"`
}

// Validate validates the request.
func (r ProposalUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required,
			validation.In(models.ProposalAccepted, models.ProposalRejected)),
	)
}

// FeedbackRequest submits one feedback round on a stage.
type FeedbackRequest struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// Validate validates the request.
func (r FeedbackRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Author, validation.Required),
	)
}

// AttachmentRequest records a confirmed upload on a stage.
type AttachmentRequest struct {
	FileID      string `json:"file_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// Validate validates the request.
func (r AttachmentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FileID, validation.Required),
		validation.Field(&r.FileName, validation.Required),
	)
}

// LateRequest flips the late flag.
type LateRequest struct {
	IsLate bool `json:"is_late"`
}

// LoginRequest exchanges credentials for a session token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the request.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// CreateAccountRequest creates a login account.
type CreateAccountRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	ProjectID string `json:"project_id"`
}

// Validate validates the request: client accounts must be bound to a project.
func (r CreateAccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&r.Role, validation.Required, validation.In(models.RoleAdmin, models.RoleClient)),
		validation.Field(&r.ProjectID,
			validation.Required.When(r.Role == models.RoleClient).Error("project_id is required for client accounts")),
	)
}

// ProjectResponse is the full aggregate plus its version token.
type ProjectResponse struct {
	*models.Project
	Version int64 `json:"version"`
}

// UploadResponse is returned after a successful blob upload.
type UploadResponse struct {
	FileID      string `json:"file_id"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// ProjectListResponse wraps project summaries.
type ProjectListResponse struct {
	Projects []models.ProjectSummary `json:"projects"`
	Total    int                     `json:"total"`
}
