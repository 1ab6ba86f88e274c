package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// gradedSubject is the NATS subject graded events are published on.
const gradedSubject = "classwork.submissions.graded"

// GradedEvent describes a grade that has been committed.
type GradedEvent struct {
	SubmissionID uint      `json:"submission_id"`
	AssignmentID uint      `json:"assignment_id"`
	StudentID    uint      `json:"student_id"`
	Grade        int       `json:"grade"`
	GradedBy     uint      `json:"graded_by"`
	GradedAt     time.Time `json:"graded_at"`
}

// GradedNotifier fans out graded events to interested consumers. Delivery is
// best effort; grading never fails because a notification could not be sent.
type GradedNotifier interface {
	SubmissionGraded(ctx context.Context, event GradedEvent)
}

type natsGradedNotifier struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewNATSGradedNotifier publishes graded events over NATS. A nil connection
// yields a notifier that silently drops events, which keeps single-node
// deployments free of a broker requirement.
func NewNATSGradedNotifier(conn *nats.Conn, logger zerolog.Logger) GradedNotifier {
	return &natsGradedNotifier{
		conn:   conn,
		logger: logger.With().Str("component", "graded_notifier").Logger(),
	}
}

func (n *natsGradedNotifier) SubmissionGraded(_ context.Context, event GradedEvent) {
	if n.conn == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error().Err(err).Msg("failed to encode graded event")
		return
	}

	if err := n.conn.Publish(gradedSubject, payload); err != nil {
		n.logger.Warn().Err(err).Uint("submission_id", event.SubmissionID).Msg("failed to publish graded event")
	}
}
