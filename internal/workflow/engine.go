// Package workflow implements the stage transition engine: the state machine
// that moves a project through the fixed delivery pipeline.
//
// Every operation validates against the aggregate first and only then
// mutates, so a failed call never leaves a partially-applied project behind.
// Persistence is the caller's concern; operations here work purely on the
// in-memory aggregate.
package workflow

import (
	"strings"
	"time"

	"github.com/ferrand/raido/internal/apperr"
	"github.com/ferrand/raido/internal/catalog"
	"github.com/ferrand/raido/internal/models"
)

// NewProject seeds a project from the stage catalog: stage 1 in progress,
// the rest locked, current-stage pointer at 1.
func NewProject(id, name, client, clientEmail string, now time.Time, maxFeedbackRounds int) *models.Project {
	return &models.Project{
		ID:           id,
		Name:         name,
		Client:       client,
		ClientEmail:  clientEmail,
		StartDate:    now,
		CurrentStage: 1,
		Stages:       catalog.SeedStages(now, maxFeedbackRounds),
		Comments:     []models.Comment{},
	}
}

// CompleteCurrentStage marks the active stage done and unlocks its successor.
// One call is one forward step; the operation is deliberately not idempotent.
// Completing the last catalog stage fails with ErrNoNextStage.
func CompleteCurrentStage(p *models.Project, now time.Time) error {
	cur := p.StageByID(p.CurrentStage)
	if cur == nil {
		return apperr.ErrNoActiveStage
	}
	next := p.StageByID(p.CurrentStage + 1)
	if next == nil {
		return apperr.ErrNoNextStage
	}

	cur.Status = models.StatusDone
	cur.Date = now
	next.Status = models.StatusInProgress
	next.Date = now
	p.CurrentStage++
	return nil
}

// RevertToPreviousStage locks the active stage again and reopens its
// predecessor. Status-only: dates and stage payload are left as they were.
func RevertToPreviousStage(p *models.Project) error {
	if p.CurrentStage <= 1 {
		return apperr.ErrAlreadyAtFirstStage
	}
	cur := p.StageByID(p.CurrentStage)
	if cur == nil {
		return apperr.ErrNoActiveStage
	}
	prev := p.StageByID(p.CurrentStage - 1)

	cur.Status = models.StatusLocked
	prev.Status = models.StatusInProgress
	p.CurrentStage--
	return nil
}

// Stage field names accepted by SetStageField.
const (
	FieldURL     = "url"
	FieldAnswers = "answers"
)

// SetStageField updates a configuration value (external link, form answers)
// on a stage. Locked stages are allowed on purpose: these are configuration
// values an admin pre-fills, not progress signals. The field must match a
// capability the stage's catalog entry declares.
func SetStageField(p *models.Project, stageID int, field string, value any) error {
	st := p.StageByID(stageID)
	if st == nil {
		return apperr.ErrStageNotFound
	}
	tmpl, ok := catalog.ByID(stageID)
	if !ok {
		return apperr.ErrStageNotFound
	}

	switch field {
	case FieldURL:
		url, ok := value.(string)
		if !ok || !tmpl.Has(catalog.CapExternalLink) {
			return apperr.ErrFieldNotSupported
		}
		st.URL = url
	case FieldAnswers:
		answers, ok := value.(map[string]string)
		if !ok || !tmpl.Has(catalog.CapFormAnswers) {
			return apperr.ErrFieldNotSupported
		}
		st.Answers = answers
	default:
		return apperr.ErrFieldNotSupported
	}
	return nil
}

// AppendComment adds an entry to the project's append-only comment thread.
// Whitespace-only text is rejected.
func AppendComment(p *models.Project, stageID int, author, text string, now time.Time) error {
	if strings.TrimSpace(text) == "" {
		return apperr.ErrEmptyComment
	}
	if p.StageByID(stageID) == nil {
		return apperr.ErrStageNotFound
	}
	p.Comments = append(p.Comments, models.Comment{
		StageID:   stageID,
		Author:    author,
		Text:      text,
		CreatedAt: now,
	})
	return nil
}

// AttachFile records a blob-store reference on an upload-enabled stage. The
// caller invokes this only after the blob store has confirmed the upload, so
// a storage failure can never leave a dangling reference here.
func AttachFile(p *models.Project, stageID int, att models.Attachment) error {
	st := p.StageByID(stageID)
	if st == nil {
		return apperr.ErrStageNotFound
	}
	tmpl, _ := catalog.ByID(stageID)
	if !tmpl.Has(catalog.CapFileUpload) {
		return apperr.ErrFieldNotSupported
	}
	st.Attachments = append(st.Attachments, att)
	return nil
}
