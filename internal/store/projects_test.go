package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrand/raido/internal/apperr"
	"github.com/ferrand/raido/internal/models"
	"github.com/ferrand/raido/internal/testutil"
	"github.com/ferrand/raido/internal/workflow"
)

func TestProjects_InsertAndGet(t *testing.T) {
	db := testutil.TestDB(t).Projects
	ctx := context.Background()

	p := workflow.NewProject("p1", "Relaunch", "ACME", "c@acme.test",
		time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), 0)
	require.NoError(t, db.Insert(ctx, p))
	assert.EqualValues(t, 1, p.Version)

	got, err := db.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Relaunch", got.Name)
	assert.Equal(t, 1, got.CurrentStage)
	assert.Len(t, got.Stages, len(p.Stages))
	assert.EqualValues(t, 1, got.Version)
	assert.Equal(t, models.StatusInProgress, got.Stages[0].Status)
}

func TestProjects_InsertDuplicate(t *testing.T) {
	db := testutil.TestDB(t).Projects
	ctx := context.Background()

	p := workflow.NewProject("p1", "One", "A", "a@a.test", time.Now().UTC(), 0)
	require.NoError(t, db.Insert(ctx, p))
	err := db.Insert(ctx, workflow.NewProject("p1", "Two", "B", "b@b.test", time.Now().UTC(), 0))
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
}

func TestProjects_GetNotFound(t *testing.T) {
	db := testutil.TestDB(t).Projects

	_, err := db.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProjects_UpdateBumpsVersion(t *testing.T) {
	db := testutil.TestDB(t).Projects
	ctx := context.Background()

	p := workflow.NewProject("p1", "Relaunch", "ACME", "c@acme.test", time.Now().UTC(), 0)
	require.NoError(t, db.Insert(ctx, p))

	require.NoError(t, workflow.CompleteCurrentStage(p, time.Now().UTC()))
	require.NoError(t, db.Update(ctx, p, 1))
	assert.EqualValues(t, 2, p.Version)

	got, err := db.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentStage)
	assert.EqualValues(t, 2, got.Version)
}

func TestProjects_UpdateStaleVersion(t *testing.T) {
	db := testutil.TestDB(t).Projects
	ctx := context.Background()

	p := workflow.NewProject("p1", "Relaunch", "ACME", "c@acme.test", time.Now().UTC(), 0)
	require.NoError(t, db.Insert(ctx, p))

	// Two stale reads of the same aggregate.
	a, err := db.Get(ctx, "p1")
	require.NoError(t, err)
	b, err := db.Get(ctx, "p1")
	require.NoError(t, err)

	require.NoError(t, workflow.CompleteCurrentStage(a, time.Now().UTC()))
	require.NoError(t, db.Update(ctx, a, a.Version))

	require.NoError(t, workflow.CompleteCurrentStage(b, time.Now().UTC()))
	err = db.Update(ctx, b, b.Version)
	assert.ErrorIs(t, err, apperr.ErrStaleProject)

	// The losing write did not land: still one step forward only.
	got, err := db.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentStage)
}

func TestProjects_UpdateDeleted(t *testing.T) {
	db := testutil.TestDB(t).Projects
	ctx := context.Background()

	p := workflow.NewProject("p1", "Relaunch", "ACME", "c@acme.test", time.Now().UTC(), 0)
	require.NoError(t, db.Insert(ctx, p))
	require.NoError(t, db.Delete(ctx, "p1"))

	err := db.Update(ctx, p, p.Version)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProjects_List(t *testing.T) {
	db := testutil.TestDB(t).Projects
	ctx := context.Background()

	older := workflow.NewProject("p1", "Older", "A", "a@a.test",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 0)
	newer := workflow.NewProject("p2", "Newer", "B", "b@b.test",
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), 0)
	newer.IsLate = true
	require.NoError(t, db.Insert(ctx, older))
	require.NoError(t, db.Insert(ctx, newer))

	list, err := db.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p2", list[0].ID)
	assert.True(t, list[0].IsLate)
	assert.Equal(t, "p1", list[1].ID)
}

func TestProjects_DeleteNotFound(t *testing.T) {
	db := testutil.TestDB(t).Projects
	assert.ErrorIs(t, db.Delete(context.Background(), "missing"), apperr.ErrNotFound)
}

func TestProjects_RoundTripPayload(t *testing.T) {
	db := testutil.TestDB(t).Projects
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	p := workflow.NewProject("p1", "Relaunch", "ACME", "c@acme.test", now, 0)
	prop, err := workflow.ProposeMeeting(p, now)
	require.NoError(t, err)
	require.NoError(t, workflow.AcceptProposal(p, prop.ID))
	require.NoError(t, workflow.AppendComment(p, 1, "admin", "scheduled", now))
	require.NoError(t, db.Insert(ctx, p))

	got, err := db.Get(ctx, "p1")
	require.NoError(t, err)
	st := got.StageByID(1)
	require.Len(t, st.MeetingProposals, 1)
	assert.Equal(t, models.ProposalAccepted, st.MeetingProposals[0].Status)
	assert.True(t, st.Date.Equal(now))
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "scheduled", got.Comments[0].Text)
}
