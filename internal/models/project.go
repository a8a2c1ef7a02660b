// Package models defines the domain types for Raido.
package models

import "time"

// Stage statuses. At most one stage is in progress per project; stages
// before the current one are done, stages after it are locked.
const (
	StatusLocked     = "locked"
	StatusInProgress = "in-progress"
	StatusDone       = "done"
)

// Meeting proposal statuses. Accepted and rejected are terminal.
const (
	ProposalProposed = "proposed"
	ProposalAccepted = "accepted"
	ProposalRejected = "rejected"
)

// Project is the aggregate root: one client engagement moving through the
// fixed delivery pipeline. The whole aggregate is persisted as a single
// document; Version is the optimistic-concurrency token maintained by the
// store.
type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Client       string    `json:"client"`
	ClientEmail  string    `json:"client_email"`
	StartDate    time.Time `json:"start_date"`
	CurrentStage int       `json:"current_stage"`
	Stages       []Stage   `json:"stages"`
	Comments     []Comment `json:"comments"`
	IsLate       bool      `json:"is_late"`
	Version      int64     `json:"-"`
}

// Stage is one gated phase of the pipeline. Identity (ID, Name) is fixed at
// project creation; only the mutable payload changes afterwards.
type Stage struct {
	ID     int       `json:"id"`
	Name   string    `json:"name"`
	Status string    `json:"status"`
	Date   time.Time `json:"date"`

	// Optional payload, populated only on stages whose catalog entry
	// carries the matching capability.
	URL               string            `json:"url,omitempty"`
	Answers           map[string]string `json:"answers,omitempty"`
	Attachments       []Attachment      `json:"attachments,omitempty"`
	MeetingProposals  []MeetingProposal `json:"meeting_proposals,omitempty"`
	Feedback          []FeedbackEntry   `json:"feedback,omitempty"`
	FeedbackRounds    int               `json:"feedback_rounds,omitempty"`
	MaxFeedbackRounds int               `json:"max_feedback_rounds,omitempty"`
}

// Comment is one append-only entry in the project's comment thread,
// addressed at a specific stage.
type Comment struct {
	StageID   int       `json:"stage_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// MeetingProposal is a candidate kickoff appointment on the discovery stage.
type MeetingProposal struct {
	ID       string    `json:"id"`
	DateTime time.Time `json:"date_time"`
	Status   string    `json:"status"`
}

// Attachment references a file stored in the blob store by opaque id.
type Attachment struct {
	FileID      string    `json:"file_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// FeedbackEntry is one client revision request on a feedback-limited stage.
type FeedbackEntry struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectSummary is a lightweight representation returned by list operations.
type ProjectSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Client       string    `json:"client"`
	CurrentStage int       `json:"current_stage"`
	IsLate       bool      `json:"is_late"`
	StartDate    time.Time `json:"start_date"`
}

// StageByID returns a pointer into the project's stage list, or nil when the
// id is outside the catalog range.
func (p *Project) StageByID(id int) *Stage {
	for i := range p.Stages {
		if p.Stages[i].ID == id {
			return &p.Stages[i]
		}
	}
	return nil
}

// Complete reports whether every stage has been finished (the current-stage
// pointer sits one past the last stage).
func (p *Project) Complete() bool {
	return len(p.Stages) > 0 && p.CurrentStage > p.Stages[len(p.Stages)-1].ID
}
