/*
store.go - Persistence interface for the HR system of record

PURPOSE:
  Defines the Store interface consumed by the domain service. Implementations:
  - store/sqlite: SQLite-backed, production
  - store/memory: in-memory, tests

  Implementations return (*T, nil) with a nil pointer when a record is
  absent; the service converts that into ErrNotFound. Store-level failures
  surface unchanged and map to 500 at the HTTP layer.

NOTE ON TRANSACTIONS:
  No transaction ever spans this store and the ledger. The gateway's
  compensating actions are the only cross-store consistency mechanism.
*/
package hr

import "context"

// Store is the relational system of record for all HR entities.
type Store interface {
	// Participants
	SaveParticipant(ctx context.Context, p Participant) error
	UpdateParticipant(ctx context.Context, p Participant) error
	DeleteParticipant(ctx context.Context, id string) error
	GetParticipant(ctx context.Context, id string) (*Participant, error)
	GetParticipantByWallet(ctx context.Context, wallet string) (*Participant, error)
	ListParticipants(ctx context.Context) ([]Participant, error)
	ListUnsyncedParticipants(ctx context.Context) ([]Participant, error)

	// Onboarding requests
	SaveOnboardingRequest(ctx context.Context, r OnboardingRequest) error
	UpdateOnboardingRequest(ctx context.Context, r OnboardingRequest) error
	GetOnboardingRequest(ctx context.Context, id string) (*OnboardingRequest, error)
	ListOnboardingRequests(ctx context.Context, status RequestStatus) ([]OnboardingRequest, error)

	// Leave requests
	SaveLeaveRequest(ctx context.Context, r LeaveRequest) error
	UpdateLeaveRequest(ctx context.Context, r LeaveRequest) error
	GetLeaveRequest(ctx context.Context, id string) (*LeaveRequest, error)
	ListLeaveRequests(ctx context.Context, status RequestStatus) ([]LeaveRequest, error)
	ListLeaveByParticipant(ctx context.Context, participantID string) ([]LeaveRequest, error)

	// Status history (append-only; Update only sets the ledger reference)
	SaveStatusChange(ctx context.Context, rec StatusChangeRecord) error
	UpdateStatusChange(ctx context.Context, rec StatusChangeRecord) error
	ListStatusChanges(ctx context.Context, participantID string) ([]StatusChangeRecord, error)

	// Payroll
	SavePayrollRecord(ctx context.Context, rec PayrollRecord) error
	ListPayrollByParticipant(ctx context.Context, participantID string) ([]PayrollRecord, error)
}
