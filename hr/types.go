/*
types.go - Core domain types for the HR chain-mirroring system

PURPOSE:
  Defines the entities that flow between the relational system of record
  and the blockchain verification ledger:

  Participant:         An employee registered in HR (and optionally on-chain)
  OnboardingRequest:   A signup awaiting an approval decision
  LeaveRequest:        A time-off request awaiting an approval decision
  StatusChangeRecord:  Append-only audit entry for employment status moves
  PayrollRecord:       A payment that MUST carry a ledger transaction ref

STATUS ENUMS:
  Statuses are closed string types validated once at the boundary via the
  Parse* helpers. Downstream code never re-validates; it can rely on the
  type carrying only known values.

LEDGER REFERENCES:
  A nil LedgerTx means "not yet mirrored to the chain". PayrollRecord is
  the exception: it is never persisted without a ledger reference, so the
  field is a plain string there.

SEE ALSO:
  - service.go: Operations that mutate these types
  - store.go: Persistence interface
*/
package hr

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STATUS ENUMS
// =============================================================================

// ParticipantStatus is the employment status of a Participant.
type ParticipantStatus string

const (
	StatusActive     ParticipantStatus = "ACTIVE"
	StatusOnLeave    ParticipantStatus = "ON_LEAVE"
	StatusSuspended  ParticipantStatus = "SUSPENDED"
	StatusTerminated ParticipantStatus = "TERMINATED"
)

// ParseParticipantStatus validates a raw status string. Input is
// case-insensitive; the canonical uppercase form is returned.
func ParseParticipantStatus(raw string) (ParticipantStatus, error) {
	s := ParticipantStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StatusActive, StatusOnLeave, StatusSuspended, StatusTerminated:
		return s, nil
	}
	return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", raw)}
}

// RequestStatus is the decision lifecycle shared by onboarding and leave
// requests. A request transitions out of PENDING exactly once.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// ParseRequestStatus validates a raw request status string.
func ParseRequestStatus(raw string) (RequestStatus, error) {
	s := RequestStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return s, nil
	}
	return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown request status %q", raw)}
}

// =============================================================================
// ENTITIES
// =============================================================================

// Participant is an employee in the system of record. Wallet and LedgerTx
// are nil until a wallet is connected / the on-chain registration succeeds.
type Participant struct {
	ID         string
	Name       string
	Email      string
	Role       string
	Department string
	HireDate   time.Time
	Status     ParticipantStatus
	Wallet     *string
	LedgerTx   *string
	CreatedAt  time.Time
}

// OnboardingRequest is a candidate signup. Once decided it is immutable.
type OnboardingRequest struct {
	ID              string
	Name            string
	Email           string
	CredentialHash  string
	Role            string
	Department      string
	Status          RequestStatus
	DecidedBy       *string
	DecidedAt       *time.Time
	RejectionReason *string
	CreatedAt       time.Time
}

// LeaveRequest is a time-off request owned by a Participant. LedgerTx is
// set only when the request was approved AND the ledger write succeeded.
type LeaveRequest struct {
	ID            string
	ParticipantID string
	Reason        string
	Days          int
	StartDate     time.Time
	Status        RequestStatus
	DecidedBy     *string
	DecidedAt     *time.Time
	LedgerTx      *string
	CreatedAt     time.Time
}

// StatusChangeRecord is one append-only audit row per transition attempt.
// The row is recorded even when ledger mirroring is skipped or fails; in
// that case LedgerTx stays nil.
type StatusChangeRecord struct {
	ID            string
	ParticipantID string
	FromStatus    ParticipantStatus
	ToStatus      ParticipantStatus
	Actor         string
	Reason        string
	LedgerTx      *string
	ChangedAt     time.Time
}

// PayrollRecord is a completed payment. Invariant: a PayrollRecord is never
// persisted without a successful ledger write, so LedgerTx is required.
type PayrollRecord struct {
	ID            string
	ParticipantID string
	Amount        decimal.Decimal
	LedgerTx      string
	PaidAt        time.Time
}
