// Package catalog holds the fixed, ordered definition of the delivery
// pipeline: stage ids, names, and the optional behaviors each stage supports.
// It is pure configuration: the workflow engine consults it to decide which
// operations apply to which stage, and projects are seeded from it at
// creation time.
package catalog

import (
	"time"

	"github.com/ferrand/raido/internal/models"
)

// Capability flags the optional payload a stage supports. A stage may carry
// several (branding has both a preview link and feedback rounds).
type Capability uint8

const (
	CapMeetingProposals Capability = 1 << iota
	CapFormAnswers
	CapFileUpload
	CapExternalLink
	CapFeedbackRounds
)

// DefaultMaxFeedbackRounds bounds revision cycles on feedback-enabled stages.
const DefaultMaxFeedbackRounds = 3

// Template describes one catalog position.
type Template struct {
	ID   int
	Name string
	Caps Capability
}

// Has reports whether the template carries the given capability.
func (t Template) Has(c Capability) bool { return t.Caps&c != 0 }

// templates is the closed, ordered stage set. Ids are 1-based and dense;
// extending the pipeline means appending here and handling the new
// capability where payloads are dispatched.
var templates = []Template{
	{ID: 1, Name: "Discovery call", Caps: CapMeetingProposals},
	{ID: 2, Name: "Requirements questionnaire", Caps: CapFormAnswers},
	{ID: 3, Name: "Specification", Caps: CapFileUpload},
	{ID: 4, Name: "Quote", Caps: CapExternalLink},
	{ID: 5, Name: "Signature", Caps: CapExternalLink},
	{ID: 6, Name: "Initial payment", Caps: CapExternalLink},
	{ID: 7, Name: "Asset collection", Caps: CapFileUpload},
	{ID: 8, Name: "Branding", Caps: CapExternalLink | CapFeedbackRounds},
	{ID: 9, Name: "Copywriting", Caps: CapFileUpload},
	{ID: 10, Name: "Content review", Caps: CapFormAnswers},
	{ID: 11, Name: "Design preview", Caps: CapExternalLink},
	{ID: 12, Name: "Design validation"},
	{ID: 13, Name: "Development"},
	{ID: 14, Name: "Internal QA"},
	{ID: 15, Name: "Acceptance testing", Caps: CapExternalLink},
	{ID: 16, Name: "Final payment", Caps: CapExternalLink},
	{ID: 17, Name: "Go-live"},
}

// Count returns the number of pipeline stages.
func Count() int { return len(templates) }

// Templates returns the ordered catalog.
func Templates() []Template { return templates }

// ByID looks up a catalog entry by stage id.
func ByID(id int) (Template, bool) {
	if id < 1 || id > len(templates) {
		return Template{}, false
	}
	return templates[id-1], true
}

// SeedStages builds a fresh stage list for a new project: stage 1 in
// progress, everything else locked. maxFeedbackRounds <= 0 falls back to the
// default limit.
func SeedStages(now time.Time, maxFeedbackRounds int) []models.Stage {
	if maxFeedbackRounds <= 0 {
		maxFeedbackRounds = DefaultMaxFeedbackRounds
	}
	stages := make([]models.Stage, len(templates))
	for i, t := range templates {
		s := models.Stage{
			ID:     t.ID,
			Name:   t.Name,
			Status: models.StatusLocked,
		}
		if t.Has(CapFeedbackRounds) {
			s.MaxFeedbackRounds = maxFeedbackRounds
		}
		if i == 0 {
			s.Status = models.StatusInProgress
			s.Date = now
		}
		stages[i] = s
	}
	return stages
}
