package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrand/raido/internal/models"
)

func TestTemplates_DenseOrderedIDs(t *testing.T) {
	ts := Templates()
	require.Equal(t, Count(), len(ts))
	for i, tmpl := range ts {
		assert.Equal(t, i+1, tmpl.ID)
		assert.NotEmpty(t, tmpl.Name)
	}
}

func TestByID(t *testing.T) {
	first, ok := ByID(1)
	require.True(t, ok)
	assert.True(t, first.Has(CapMeetingProposals))

	branding, ok := ByID(8)
	require.True(t, ok)
	assert.True(t, branding.Has(CapExternalLink))
	assert.True(t, branding.Has(CapFeedbackRounds))

	_, ok = ByID(0)
	assert.False(t, ok)
	_, ok = ByID(Count() + 1)
	assert.False(t, ok)
}

func TestSeedStages(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	stages := SeedStages(now, 0)

	require.Len(t, stages, Count())
	assert.Equal(t, models.StatusInProgress, stages[0].Status)
	assert.Equal(t, now, stages[0].Date)
	for _, s := range stages[1:] {
		assert.Equal(t, models.StatusLocked, s.Status)
		assert.True(t, s.Date.IsZero())
	}

	assert.Equal(t, DefaultMaxFeedbackRounds, stages[7].MaxFeedbackRounds)
	assert.Zero(t, stages[0].MaxFeedbackRounds)
}

func TestSeedStages_FeedbackOverride(t *testing.T) {
	stages := SeedStages(time.Now(), 5)
	assert.Equal(t, 5, stages[7].MaxFeedbackRounds)
}

func TestExactlyOneProposalStage(t *testing.T) {
	n := 0
	for _, tmpl := range Templates() {
		if tmpl.Has(CapMeetingProposals) {
			n++
		}
	}
	assert.Equal(t, 1, n)
}
