package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/ferrand/raido/internal/apperr"
	"github.com/ferrand/raido/internal/catalog"
	"github.com/ferrand/raido/internal/models"
)

// proposalStage returns the stage carrying meeting proposals (discovery).
func proposalStage(p *models.Project) *models.Stage {
	for _, t := range catalog.Templates() {
		if t.Has(catalog.CapMeetingProposals) {
			return p.StageByID(t.ID)
		}
	}
	return nil
}

// ProposeMeeting appends a fresh proposal in the "proposed" state. There is
// no bound on how many proposals may be open at once.
func ProposeMeeting(p *models.Project, at time.Time) (*models.MeetingProposal, error) {
	st := proposalStage(p)
	if st == nil {
		return nil, apperr.ErrStageNotFound
	}
	prop := models.MeetingProposal{
		ID:       uuid.NewString(),
		DateTime: at,
		Status:   models.ProposalProposed,
	}
	st.MeetingProposals = append(st.MeetingProposals, prop)
	return &st.MeetingProposals[len(st.MeetingProposals)-1], nil
}

// AcceptProposal marks the proposal accepted and copies its appointment time
// onto the discovery stage, re-affirming the stage as in progress. It never
// advances the current-stage pointer: the admin still completes the stage
// explicitly once the meeting has actually happened. A previously accepted
// proposal, if any, is demoted to rejected so at most one acceptance stands.
func AcceptProposal(p *models.Project, proposalID string) error {
	st := proposalStage(p)
	if st == nil {
		return apperr.ErrStageNotFound
	}
	target := findProposal(st, proposalID)
	if target == nil {
		return apperr.ErrProposalNotFound
	}
	for i := range st.MeetingProposals {
		if st.MeetingProposals[i].Status == models.ProposalAccepted && st.MeetingProposals[i].ID != proposalID {
			st.MeetingProposals[i].Status = models.ProposalRejected
		}
	}
	target.Status = models.ProposalAccepted
	st.Date = target.DateTime
	st.Status = models.StatusInProgress
	return nil
}

// RejectProposal marks the proposal rejected. No other side effect.
func RejectProposal(p *models.Project, proposalID string) error {
	st := proposalStage(p)
	if st == nil {
		return apperr.ErrStageNotFound
	}
	target := findProposal(st, proposalID)
	if target == nil {
		return apperr.ErrProposalNotFound
	}
	target.Status = models.ProposalRejected
	return nil
}

// DeleteProposal removes the proposal from the stage regardless of its state.
func DeleteProposal(p *models.Project, proposalID string) error {
	st := proposalStage(p)
	if st == nil {
		return apperr.ErrStageNotFound
	}
	for i := range st.MeetingProposals {
		if st.MeetingProposals[i].ID == proposalID {
			st.MeetingProposals = append(st.MeetingProposals[:i], st.MeetingProposals[i+1:]...)
			return nil
		}
	}
	return apperr.ErrProposalNotFound
}

func findProposal(st *models.Stage, id string) *models.MeetingProposal {
	for i := range st.MeetingProposals {
		if st.MeetingProposals[i].ID == id {
			return &st.MeetingProposals[i]
		}
	}
	return nil
}
