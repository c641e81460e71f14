// Package events publishes HR lifecycle events for downstream consumers
// (analytics, notification fan-out). Publishing is fire-and-forget from the
// domain's point of view: a broker outage never fails an HR operation.
package events

import (
	"context"
	"time"
)

// LifecycleTopic carries all participant lifecycle events.
const LifecycleTopic = "hr.participant.lifecycle.v1"

// Event types.
const (
	TypeParticipantCreated = "participant.created"
	TypeStatusChanged      = "participant.status_changed"
	TypeLeaveApproved      = "leave.approved"
	TypePaymentRecorded    = "payment.recorded"
)

// LifecycleEvent is the wire shape published to the lifecycle topic.
type LifecycleEvent struct {
	EventType     string    `json:"event_type"`
	ParticipantID string    `json:"participant_id"`
	LedgerTx      string    `json:"ledger_tx,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher emits lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, e LifecycleEvent) error
	Close() error
}

// Nop is the Publisher used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, LifecycleEvent) error { return nil }

func (Nop) Close() error { return nil }
