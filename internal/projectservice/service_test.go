package projectservice

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrand/raido/internal/apperr"
	"github.com/ferrand/raido/internal/models"
	"github.com/ferrand/raido/internal/testutil"
)

type recordingEvents struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recordingEvents) PublishProjectEvent(kind, _ string, _ int) {
	r.mu.Lock()
	r.kinds = append(r.kinds, kind)
	r.mu.Unlock()
}

func (r *recordingEvents) has(kind string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func testService(t *testing.T) (*Service, *recordingEvents) {
	t.Helper()
	db := testutil.TestDB(t)
	_, blobs := testutil.TestBlobStore(t)
	events := &recordingEvents{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc := New(db.Projects, blobs, logger, WithEvents(events))
	return svc, events
}

func TestCreateAndGet(t *testing.T) {
	svc, events := testService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Relaunch", "ACME", "c@acme.test")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 1, p.CurrentStage)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Relaunch", got.Name)
	assert.True(t, events.has("created"))
}

func TestAdvanceAndRevert(t *testing.T) {
	svc, events := testService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, "Relaunch", "ACME", "c@acme.test")
	require.NoError(t, err)

	advanced, err := svc.AdvanceStage(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, advanced.CurrentStage)
	assert.True(t, events.has("advanced"))

	reverted, err := svc.RevertStage(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, reverted.CurrentStage)
	assert.Equal(t, models.StatusLocked, reverted.Stages[1].Status)
	assert.True(t, events.has("reverted"))

	_, err = svc.RevertStage(ctx, p.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrAlreadyAtFirstStage)
}

func TestAdvance_IfMatchStale(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, "Relaunch", "ACME", "c@acme.test")
	require.NoError(t, err)

	// Version 1 read, then someone advances.
	_, err = svc.AdvanceStage(ctx, p.ID, 0)
	require.NoError(t, err)

	// A caller still holding version 1 is refused.
	_, err = svc.AdvanceStage(ctx, p.ID, 1)
	assert.ErrorIs(t, err, apperr.ErrStaleProject)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentStage)
}

func TestProposalLifecycle(t *testing.T) {
	svc, events := testService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, "Relaunch", "ACME", "c@acme.test")
	require.NoError(t, err)

	at := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	withProp, err := svc.ProposeMeeting(ctx, p.ID, at)
	require.NoError(t, err)
	props := withProp.StageByID(1).MeetingProposals
	require.Len(t, props, 1)

	accepted, err := svc.ResolveProposal(ctx, p.ID, props[0].ID, models.ProposalAccepted)
	require.NoError(t, err)
	st := accepted.StageByID(1)
	assert.Equal(t, models.ProposalAccepted, st.MeetingProposals[0].Status)
	assert.True(t, st.Date.Equal(at))
	assert.Equal(t, 1, accepted.CurrentStage)
	assert.True(t, events.has("proposal"))

	gone, err := svc.DeleteProposal(ctx, p.ID, props[0].ID)
	require.NoError(t, err)
	assert.Empty(t, gone.StageByID(1).MeetingProposals)

	_, err = svc.ResolveProposal(ctx, p.ID, props[0].ID, models.ProposalAccepted)
	assert.ErrorIs(t, err, apperr.ErrProposalNotFound)
}

func TestResolveProposal_UnknownStatus(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, "Relaunch", "ACME", "c@acme.test")
	require.NoError(t, err)

	_, err = svc.ResolveProposal(ctx, p.ID, "whatever", "maybe")
	assert.Error(t, err)
}

func TestSubmitFeedback_Limit(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, "Relaunch", "ACME", "c@acme.test")
	require.NoError(t, err)

	for i := 0; i < svc.MaxFeedbackRounds(); i++ {
		_, err := svc.SubmitFeedback(ctx, p.ID, 8, "client", "round")
		require.NoError(t, err)
	}
	_, err = svc.SubmitFeedback(ctx, p.ID, 8, "client", "extra")
	assert.ErrorIs(t, err, apperr.ErrFeedbackLimitExceeded)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, svc.MaxFeedbackRounds(), got.StageByID(8).FeedbackRounds)
}

func TestAttachFile_RequiresExistingBlob(t *testing.T) {
	db := testutil.TestDB(t)
	_, blobs := testutil.TestBlobStore(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc := New(db.Projects, blobs, logger)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Relaunch", "ACME", "c@acme.test")
	require.NoError(t, err)

	_, err = svc.AttachFile(ctx, p.ID, 3, models.Attachment{FileID: "missing.pdf", FileName: "x.pdf"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	info, err := blobs.Put("spec.pdf", strings.NewReader("content"))
	require.NoError(t, err)

	got, err := svc.AttachFile(ctx, p.ID, 3, models.Attachment{
		FileID: info.ID, FileName: "spec.pdf", ContentType: "application/pdf",
	})
	require.NoError(t, err)
	require.Len(t, got.StageByID(3).Attachments, 1)
	assert.False(t, got.StageByID(3).Attachments[0].UploadedAt.IsZero())
}

func TestDelete_CascadesAccountsAndBlobs(t *testing.T) {
	db := testutil.TestDB(t)
	_, blobs := testutil.TestBlobStore(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc := New(db.Projects, blobs, logger)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Relaunch", "ACME", "c@acme.test")
	require.NoError(t, err)

	info, err := blobs.Put("spec.pdf", strings.NewReader("content"))
	require.NoError(t, err)
	_, err = svc.AttachFile(ctx, p.ID, 3, models.Attachment{FileID: info.ID, FileName: "spec.pdf"})
	require.NoError(t, err)

	client := &models.Account{ID: "a1", Email: "c@acme.test", PasswordHash: "h", Role: models.RoleClient, ProjectID: p.ID}
	require.NoError(t, db.Accounts.Insert(ctx, client))

	require.NoError(t, svc.Delete(ctx, p.ID, db.Accounts))

	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = db.Accounts.GetByEmail(ctx, "c@acme.test")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.False(t, blobs.Exists(info.ID))
}

func TestSetLate(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, "Relaunch", "ACME", "c@acme.test")
	require.NoError(t, err)

	got, err := svc.SetLate(ctx, p.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsLate)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsLate)
}
