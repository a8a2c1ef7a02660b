package mcpserver

import (
	"fmt"
	"strings"

	"github.com/ferrand/raido/internal/catalog"
)

// PipelineContract renders the workflow rules and the ordered stage catalog
// that LLM consumers should consult before driving a project.
func PipelineContract() string {
	var b strings.Builder

	b.WriteString(`# Raido Pipeline Contract

A project moves through a fixed, ordered pipeline. Exactly one stage is
in progress at a time; everything before it is done, everything after it
is locked.

## Rules

1. **Advancing** marks the active stage done and opens the next one. It fails
   on the last stage (the project is finished, there is nowhere to go).
2. **Reverting** reopens the previous stage. The stage that was active goes
   back to locked, but its payload (links, answers, files) and dates are kept.
   Reverting fails on the first stage.
3. **Meeting proposals** live on the discovery stage only. Accepting one slot
   rejects any previously accepted slot; at most one slot is accepted.
4. **Feedback rounds** are limited per stage. Once the limit is reached,
   further feedback on that stage is refused.
5. Stage ids are 1-based and dense; they never change for existing projects.

## Stages

| ID | Name | Supports |
|----|------|----------|
`)

	for _, t := range catalog.Templates() {
		fmt.Fprintf(&b, "| %d | %s | %s |\n", t.ID, t.Name, capsLabel(t.Caps))
	}

	return b.String()
}

func capsLabel(c catalog.Capability) string {
	var parts []string
	if c&catalog.CapMeetingProposals != 0 {
		parts = append(parts, "meeting proposals")
	}
	if c&catalog.CapFormAnswers != 0 {
		parts = append(parts, "form answers")
	}
	if c&catalog.CapFileUpload != 0 {
		parts = append(parts, "file upload")
	}
	if c&catalog.CapExternalLink != 0 {
		parts = append(parts, "external link")
	}
	if c&catalog.CapFeedbackRounds != 0 {
		parts = append(parts, "feedback rounds")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
