package workflow

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrand/raido/internal/apperr"
	"github.com/ferrand/raido/internal/catalog"
)

func TestRecordFeedback_UpToLimit(t *testing.T) {
	p := newTestProject(t)
	now := time.Now().UTC()

	for i := 0; i < catalog.DefaultMaxFeedbackRounds; i++ {
		require.NoError(t, RecordFeedback(p, 8, "client", fmt.Sprintf("round %d", i+1), now))
	}
	branding := p.StageByID(8)
	assert.Equal(t, catalog.DefaultMaxFeedbackRounds, branding.FeedbackRounds)
	assert.Len(t, branding.Feedback, catalog.DefaultMaxFeedbackRounds)

	err := RecordFeedback(p, 8, "client", "one more", now)
	assert.ErrorIs(t, err, apperr.ErrFeedbackLimitExceeded)
	// Counter stays at the limit, no entry appended.
	assert.Equal(t, catalog.DefaultMaxFeedbackRounds, branding.FeedbackRounds)
	assert.Len(t, branding.Feedback, catalog.DefaultMaxFeedbackRounds)
}

func TestRecordFeedback_Rejections(t *testing.T) {
	p := newTestProject(t)
	now := time.Now().UTC()

	assert.ErrorIs(t, RecordFeedback(p, 8, "client", "  ", now), apperr.ErrEmptyComment)
	assert.ErrorIs(t, RecordFeedback(p, 99, "client", "hi", now), apperr.ErrStageNotFound)
	// Development stage has no feedback rounds.
	assert.ErrorIs(t, RecordFeedback(p, 13, "client", "hi", now), apperr.ErrFieldNotSupported)
}

func TestFeedbackRoundsLeft(t *testing.T) {
	p := newTestProject(t)
	branding := p.StageByID(8)

	assert.Equal(t, 3, FeedbackRoundsLeft(branding))
	require.NoError(t, RecordFeedback(p, 8, "client", "r1", time.Now()))
	assert.Equal(t, 2, FeedbackRoundsLeft(branding))
	assert.Zero(t, FeedbackRoundsLeft(p.StageByID(13)))
	assert.Zero(t, FeedbackRoundsLeft(nil))
}

func TestCustomFeedbackLimit(t *testing.T) {
	p := NewProject("p2", "Shop", "Beta", "b@beta.test", time.Now().UTC(), 1)

	require.NoError(t, RecordFeedback(p, 8, "client", "r1", time.Now()))
	assert.ErrorIs(t, RecordFeedback(p, 8, "client", "r2", time.Now()), apperr.ErrFeedbackLimitExceeded)
}
