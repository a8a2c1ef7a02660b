// Package projectservice coordinates the workflow engine with the document
// store, blob store, event broker, and notification boundary.
//
// Every mutating operation is read-modify-write: load the aggregate, run one
// engine operation on it in memory, write the whole aggregate back under the
// version it was read at. A concurrent writer makes the write fail with
// ErrStaleProject instead of silently reordering transitions.
package projectservice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ferrand/raido/internal/apperr"
	"github.com/ferrand/raido/internal/blob"
	"github.com/ferrand/raido/internal/catalog"
	"github.com/ferrand/raido/internal/metrics"
	"github.com/ferrand/raido/internal/models"
	"github.com/ferrand/raido/internal/notify"
	"github.com/ferrand/raido/internal/store"
	"github.com/ferrand/raido/internal/workflow"
)

// Events is the slice of the SSE broker the service needs.
type Events interface {
	PublishProjectEvent(kind, projectID string, stageID int)
}

type noopEvents struct{}

func (noopEvents) PublishProjectEvent(string, string, int) {}

// Service exposes the engine operations to the API layer.
type Service struct {
	projects store.ProjectStore
	blobs    *blob.Store
	notifier notify.Notifier
	events   Events
	logger   *slog.Logger
	now      func() time.Time

	maxFeedbackRounds int
}

// Option configures a Service.
type Option func(*Service)

// WithEvents sets the event broker.
func WithEvents(e Events) Option {
	return func(s *Service) { s.events = e }
}

// WithNotifier sets the notification boundary.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMaxFeedbackRounds overrides the catalog default for new projects.
func WithMaxFeedbackRounds(n int) Option {
	return func(s *Service) { s.maxFeedbackRounds = n }
}

// New creates a project service.
func New(projects store.ProjectStore, blobs *blob.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		projects: projects,
		blobs:    blobs,
		notifier: notify.NewLogNotifier(logger),
		events:   noopEvents{},
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create seeds a new project from the stage catalog and persists it.
func (s *Service) Create(ctx context.Context, name, client, clientEmail string) (*models.Project, error) {
	p := workflow.NewProject(uuid.NewString(), name, client, clientEmail, s.now(), s.maxFeedbackRounds)
	if err := s.projects.Insert(ctx, p); err != nil {
		return nil, err
	}
	s.events.PublishProjectEvent("created", p.ID, 0)
	return p, nil
}

// Get loads a project aggregate.
func (s *Service) Get(ctx context.Context, id string) (*models.Project, error) {
	return s.projects.Get(ctx, id)
}

// List returns project summaries.
func (s *Service) List(ctx context.Context) ([]models.ProjectSummary, error) {
	return s.projects.List(ctx)
}

// Delete destroys a project and its bound client accounts. Blobs referenced
// by the stages are removed best effort.
func (s *Service) Delete(ctx context.Context, id string, accounts store.AccountStore) error {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return err
	}
	if accounts != nil {
		if err := accounts.DeleteByProject(ctx, id); err != nil {
			s.logger.Warn("delete project accounts failed",
				slog.String("project_id", id), slog.String("error", err.Error()))
		}
	}
	if s.blobs != nil {
		for _, st := range p.Stages {
			for _, att := range st.Attachments {
				if err := s.blobs.Delete(att.FileID); err != nil {
					s.logger.Warn("delete blob failed",
						slog.String("file_id", att.FileID), slog.String("error", err.Error()))
				}
			}
		}
	}
	s.events.PublishProjectEvent("deleted", id, 0)
	return nil
}

// mutate runs one engine operation against a fresh read of the aggregate and
// writes it back under compare-and-swap. ifMatch > 0 additionally pins the
// expected version the caller read earlier.
func (s *Service) mutate(ctx context.Context, id string, ifMatch int64, op func(*models.Project) error) (*models.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ifMatch > 0 && ifMatch != p.Version {
		return nil, apperr.ErrStaleProject
	}
	if err := op(p); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, p, p.Version); err != nil {
		return nil, err
	}
	return p, nil
}

// AdvanceStage completes the active stage and unlocks the next one.
func (s *Service) AdvanceStage(ctx context.Context, id string, ifMatch int64) (*models.Project, error) {
	p, err := s.mutate(ctx, id, ifMatch, func(p *models.Project) error {
		return workflow.CompleteCurrentStage(p, s.now())
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordTransition("advance")
	s.events.PublishProjectEvent("advanced", p.ID, p.CurrentStage)
	if entered := p.StageByID(p.CurrentStage); entered != nil {
		s.notifier.StageAdvanced(ctx, p, *entered)
	}
	return p, nil
}

// RevertStage reopens the previous stage.
func (s *Service) RevertStage(ctx context.Context, id string, ifMatch int64) (*models.Project, error) {
	p, err := s.mutate(ctx, id, ifMatch, workflow.RevertToPreviousStage)
	if err != nil {
		return nil, err
	}
	metrics.RecordTransition("revert")
	s.events.PublishProjectEvent("reverted", p.ID, p.CurrentStage)
	if reopened := p.StageByID(p.CurrentStage); reopened != nil {
		s.notifier.StageReverted(ctx, p, *reopened)
	}
	return p, nil
}

// SetStageField updates a configuration value on a stage.
func (s *Service) SetStageField(ctx context.Context, id string, stageID int, field string, value any, ifMatch int64) (*models.Project, error) {
	p, err := s.mutate(ctx, id, ifMatch, func(p *models.Project) error {
		return workflow.SetStageField(p, stageID, field, value)
	})
	if err != nil {
		return nil, err
	}
	s.events.PublishProjectEvent("field", p.ID, stageID)
	return p, nil
}

// AddComment appends to the project comment thread.
func (s *Service) AddComment(ctx context.Context, id string, stageID int, author, text string) (*models.Project, error) {
	p, err := s.mutate(ctx, id, 0, func(p *models.Project) error {
		return workflow.AppendComment(p, stageID, author, text, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.events.PublishProjectEvent("comment", p.ID, stageID)
	return p, nil
}

// ProposeMeeting adds a kickoff appointment candidate to the discovery stage.
func (s *Service) ProposeMeeting(ctx context.Context, id string, at time.Time) (*models.Project, error) {
	p, err := s.mutate(ctx, id, 0, func(p *models.Project) error {
		_, err := workflow.ProposeMeeting(p, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordProposal("proposed")
	s.events.PublishProjectEvent("proposal", p.ID, 1)
	return p, nil
}

// ResolveProposal accepts or rejects a meeting proposal.
func (s *Service) ResolveProposal(ctx context.Context, id, proposalID, status string) (*models.Project, error) {
	var accepted *models.MeetingProposal
	p, err := s.mutate(ctx, id, 0, func(p *models.Project) error {
		switch status {
		case models.ProposalAccepted:
			if err := workflow.AcceptProposal(p, proposalID); err != nil {
				return err
			}
			st := p.StageByID(1)
			for i := range st.MeetingProposals {
				if st.MeetingProposals[i].ID == proposalID {
					accepted = &st.MeetingProposals[i]
				}
			}
			return nil
		case models.ProposalRejected:
			return workflow.RejectProposal(p, proposalID)
		default:
			return apperr.ErrProposalNotFound
		}
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordProposal(status)
	s.events.PublishProjectEvent("proposal", p.ID, 1)
	if accepted != nil {
		s.notifier.MeetingAccepted(ctx, p, *accepted)
	}
	return p, nil
}

// DeleteProposal removes a proposal unconditionally.
func (s *Service) DeleteProposal(ctx context.Context, id, proposalID string) (*models.Project, error) {
	p, err := s.mutate(ctx, id, 0, func(p *models.Project) error {
		return workflow.DeleteProposal(p, proposalID)
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordProposal("deleted")
	s.events.PublishProjectEvent("proposal", p.ID, 1)
	return p, nil
}

// SubmitFeedback records one feedback round on a feedback-limited stage. The
// round check and the write happen under the same version guard, so two
// racing submissions cannot both slip under the limit.
func (s *Service) SubmitFeedback(ctx context.Context, id string, stageID int, author, text string) (*models.Project, error) {
	p, err := s.mutate(ctx, id, 0, func(p *models.Project) error {
		return workflow.RecordFeedback(p, stageID, author, text, s.now())
	})
	if err != nil {
		if errors.Is(err, apperr.ErrFeedbackLimitExceeded) {
			metrics.RecordFeedback("limit_exceeded")
		}
		return nil, err
	}
	metrics.RecordFeedback("recorded")
	s.events.PublishProjectEvent("feedback", p.ID, stageID)
	if st := p.StageByID(stageID); st != nil {
		s.notifier.FeedbackReceived(ctx, p, *st)
	}
	return p, nil
}

// AttachFile records a confirmed blob upload on a stage. The blob must
// already exist: attaching is the separate final step invoked only after the
// blob store reported success.
func (s *Service) AttachFile(ctx context.Context, id string, stageID int, att models.Attachment) (*models.Project, error) {
	if s.blobs != nil && !s.blobs.Exists(att.FileID) {
		return nil, apperr.ErrNotFound
	}
	att.UploadedAt = s.now()
	p, err := s.mutate(ctx, id, 0, func(p *models.Project) error {
		return workflow.AttachFile(p, stageID, att)
	})
	if err != nil {
		return nil, err
	}
	s.events.PublishProjectEvent("attachment", p.ID, stageID)
	return p, nil
}

// SetLate flips the alerting flag. It is advisory only and does not interact
// with the workflow.
func (s *Service) SetLate(ctx context.Context, id string, late bool) (*models.Project, error) {
	return s.mutate(ctx, id, 0, func(p *models.Project) error {
		p.IsLate = late
		return nil
	})
}

// MaxFeedbackRounds reports the limit applied to newly created projects.
func (s *Service) MaxFeedbackRounds() int {
	if s.maxFeedbackRounds > 0 {
		return s.maxFeedbackRounds
	}
	return catalog.DefaultMaxFeedbackRounds
}
