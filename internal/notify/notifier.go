// Package notify is the outbound notification boundary. Actual email
// delivery is an external collaborator; the shipped implementation records
// intents in the log. Notification failures never affect project state; the
// service calls these methods only after a successful persistence write.
package notify

import (
	"context"
	"log/slog"

	"github.com/ferrand/raido/internal/models"
)

// Notifier receives workflow milestones worth telling the client about.
type Notifier interface {
	StageAdvanced(ctx context.Context, p *models.Project, entered models.Stage)
	StageReverted(ctx context.Context, p *models.Project, reopened models.Stage)
	FeedbackReceived(ctx context.Context, p *models.Project, stage models.Stage)
	MeetingAccepted(ctx context.Context, p *models.Project, prop models.MeetingProposal)
}

// LogNotifier logs every notification intent.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a Notifier backed by the given logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) StageAdvanced(_ context.Context, p *models.Project, entered models.Stage) {
	n.logger.Info("notify: stage advanced",
		slog.String("project_id", p.ID),
		slog.String("client_email", p.ClientEmail),
		slog.Int("stage_id", entered.ID),
		slog.String("stage_name", entered.Name))
}

func (n *LogNotifier) StageReverted(_ context.Context, p *models.Project, reopened models.Stage) {
	n.logger.Info("notify: stage reverted",
		slog.String("project_id", p.ID),
		slog.String("client_email", p.ClientEmail),
		slog.Int("stage_id", reopened.ID))
}

func (n *LogNotifier) FeedbackReceived(_ context.Context, p *models.Project, stage models.Stage) {
	n.logger.Info("notify: feedback received",
		slog.String("project_id", p.ID),
		slog.Int("stage_id", stage.ID),
		slog.Int("rounds_used", stage.FeedbackRounds),
		slog.Int("rounds_max", stage.MaxFeedbackRounds))
}

func (n *LogNotifier) MeetingAccepted(_ context.Context, p *models.Project, prop models.MeetingProposal) {
	n.logger.Info("notify: meeting accepted",
		slog.String("project_id", p.ID),
		slog.String("client_email", p.ClientEmail),
		slog.Time("date_time", prop.DateTime))
}

// Verify LogNotifier satisfies Notifier at compile time.
var _ Notifier = (*LogNotifier)(nil)
