// Package apperr defines the sentinel errors shared across the service.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a project or account does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique key is already taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrStageNotFound is returned when an operation addresses a stage id
	// outside the catalog range.
	ErrStageNotFound = errors.New("stage not found")
	// ErrNoActiveStage is returned when no stage matches the project's
	// current stage pointer.
	ErrNoActiveStage = errors.New("no active stage")
	// ErrNoNextStage is returned when completing the last pipeline stage.
	ErrNoNextStage = errors.New("no next stage")
	// ErrAlreadyAtFirstStage is returned when reverting at stage 1.
	ErrAlreadyAtFirstStage = errors.New("already at first stage")
	// ErrProposalNotFound is returned when a meeting proposal id does not
	// match any proposal on the discovery stage.
	ErrProposalNotFound = errors.New("proposal not found")
	// ErrEmptyComment is returned for empty or whitespace-only comment text.
	ErrEmptyComment = errors.New("empty comment")
	// ErrFeedbackLimitExceeded is returned when a stage's feedback round
	// limit has been reached.
	ErrFeedbackLimitExceeded = errors.New("feedback limit exceeded")
	// ErrFieldNotSupported is returned when a stage field is set on a stage
	// whose catalog entry does not carry that capability.
	ErrFieldNotSupported = errors.New("field not supported on stage")
	// ErrStaleProject is returned when a write carries a version that no
	// longer matches the stored project.
	ErrStaleProject = errors.New("stale project version")
)
