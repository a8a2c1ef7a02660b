package workflow

import (
	"strings"
	"time"

	"github.com/ferrand/raido/internal/apperr"
	"github.com/ferrand/raido/internal/catalog"
	"github.com/ferrand/raido/internal/models"
)

// RecordFeedback appends one revision request to a feedback-limited stage and
// increments its round counter. The check and the increment happen together
// on the aggregate, so persisting the result under the project version guard
// closes the submit/submit race. The counter is monotonic: it is never
// decremented, and the limit is surfaced rather than silently capped.
func RecordFeedback(p *models.Project, stageID int, author, text string, now time.Time) error {
	if strings.TrimSpace(text) == "" {
		return apperr.ErrEmptyComment
	}
	st := p.StageByID(stageID)
	if st == nil {
		return apperr.ErrStageNotFound
	}
	tmpl, _ := catalog.ByID(stageID)
	if !tmpl.Has(catalog.CapFeedbackRounds) {
		return apperr.ErrFieldNotSupported
	}
	if st.FeedbackRounds >= st.MaxFeedbackRounds {
		return apperr.ErrFeedbackLimitExceeded
	}
	st.Feedback = append(st.Feedback, models.FeedbackEntry{
		Author:    author,
		Text:      text,
		CreatedAt: now,
	})
	st.FeedbackRounds++
	return nil
}

// FeedbackRoundsLeft reports how many revision cycles remain on a stage, or
// zero for stages without feedback rounds.
func FeedbackRoundsLeft(st *models.Stage) int {
	if st == nil || st.MaxFeedbackRounds == 0 {
		return 0
	}
	if left := st.MaxFeedbackRounds - st.FeedbackRounds; left > 0 {
		return left
	}
	return 0
}
