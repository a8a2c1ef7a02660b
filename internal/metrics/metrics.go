// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StageTransitions counts pipeline moves by direction (advance/revert).
	StageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raido_stage_transitions_total",
			Help: "Total number of stage transitions",
		},
		[]string{"direction"},
	)

	// MeetingProposals counts proposal operations by action.
	MeetingProposals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raido_meeting_proposals_total",
			Help: "Total number of meeting proposal operations",
		},
		[]string{"action"}, // action: proposed, accepted, rejected, deleted
	)

	// FeedbackRounds counts recorded feedback rounds and limit rejections.
	FeedbackRounds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raido_feedback_rounds_total",
			Help: "Total number of feedback round submissions",
		},
		[]string{"outcome"}, // outcome: recorded, limit_exceeded
	)

	// HTTPRequests counts API requests by method and status class.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raido_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)
)

// RecordTransition increments the transition counter.
func RecordTransition(direction string) {
	StageTransitions.WithLabelValues(direction).Inc()
}

// RecordProposal increments the proposal counter.
func RecordProposal(action string) {
	MeetingProposals.WithLabelValues(action).Inc()
}

// RecordFeedback increments the feedback counter.
func RecordFeedback(outcome string) {
	FeedbackRounds.WithLabelValues(outcome).Inc()
}
