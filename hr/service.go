/*
service.go - Domain operations

PURPOSE:
  Thin orchestrators over Store + reconcile.Gateway. Each operation:
  validate input -> look up referenced entities -> apply the mirroring
  policy -> return the entity plus the mirroring Outcome.

POLICY ASSIGNMENT:
  Policy B (ledger success is a precondition):
    ApproveOnboarding  creates the Participant; compensating delete on failure
    ApproveLeave       request stays PENDING on failure
    RunPayroll         record persisted only after ledger success

  Policy A (best-effort, DB authoritative):
    ChangeStatus, ConnectWallet, DisconnectWallet

  RejectOnboarding and RejectLeave never touch the ledger.

IDEMPOTENCE:
  Deciding a request that is no longer PENDING fails with a ConflictError
  and performs zero store or ledger mutations. Approvals of the same
  request are additionally serialized by the gateway's per-key lock so two
  concurrent approvals cannot both pass the PENDING check.

EVENTS:
  Lifecycle events are published after the local commit. Publish failures
  are logged and swallowed; the broker is not part of the consistency
  boundary.
*/
package hr

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/hrchain/events"
	"github.com/warp/hrchain/ledger"
	"github.com/warp/hrchain/reconcile"
)

// Service exposes the domain operations. All dependencies are injected;
// tests wire the in-memory store and the fake ledger.
type Service struct {
	store       Store
	gateway     *reconcile.Gateway
	events      events.Publisher
	transitions *TransitionTable
}

// NewService creates a Service. publisher may be nil (no events);
// transitions may be nil (default table, advisory only).
func NewService(store Store, gateway *reconcile.Gateway, publisher events.Publisher, transitions *TransitionTable) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if transitions == nil {
		transitions = DefaultTransitions(false)
	}
	return &Service{store: store, gateway: gateway, events: publisher, transitions: transitions}
}

// Transitions returns the configured transition table.
func (s *Service) Transitions() *TransitionTable { return s.transitions }

// =============================================================================
// ONBOARDING
// =============================================================================

// SignupInput is a candidate signup.
type SignupInput struct {
	Name           string
	Email          string
	CredentialHash string
	Role           string
	Department     string
}

// Signup creates a PENDING onboarding request. No ledger interaction.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*OnboardingRequest, error) {
	if err := requireFields(map[string]string{
		"name":            in.Name,
		"email":           in.Email,
		"credential_hash": in.CredentialHash,
		"role":            in.Role,
		"department":      in.Department,
	}); err != nil {
		return nil, err
	}

	req := OnboardingRequest{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Email:          in.Email,
		CredentialHash: in.CredentialHash,
		Role:           in.Role,
		Department:     in.Department,
		Status:         RequestPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.SaveOnboardingRequest(ctx, req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ApproveOnboarding promotes a PENDING request to a Participant. Ledger
// success is a precondition: on a failed ledger write the just-created
// Participant row is compensated away and the request stays PENDING.
func (s *Service) ApproveOnboarding(ctx context.Context, requestID, actor string) (*Participant, reconcile.Outcome, error) {
	release := s.gateway.Lock("onboarding/" + requestID)
	defer release()

	req, err := s.store.GetOnboardingRequest(ctx, requestID)
	if err != nil {
		return nil, reconcile.Outcome{}, err
	}
	if req == nil {
		return nil, reconcile.Outcome{}, ErrNotFound
	}
	if req.Status != RequestPending {
		return nil, reconcile.Outcome{}, &ConflictError{Message: "onboarding request already " + strings.ToLower(string(req.Status))}
	}

	// Fail fast before any local mutation.
	if err := s.gateway.CheckAvailable(ctx); err != nil {
		return nil, reconcile.Outcome{}, err
	}

	now := time.Now().UTC()
	p := Participant{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Email:      req.Email,
		Role:       req.Role,
		Department: req.Department,
		HireDate:   now,
		Status:     StatusActive,
		CreatedAt:  now,
	}
	if err := s.store.SaveParticipant(ctx, p); err != nil {
		return nil, reconcile.Outcome{}, err
	}

	outcome, err := s.gateway.MirrorRequired(ctx,
		func(ctx context.Context) (ledger.Result, error) {
			return s.gateway.Client().RegisterParticipant(ctx, ledger.RegisterParams{
				ID:         p.ID,
				Name:       p.Name,
				Wallet:     p.Wallet,
				Role:       p.Role,
				Department: p.Department,
				HireDate:   p.HireDate,
			})
		},
		func(ctx context.Context) error {
			return s.store.DeleteParticipant(ctx, p.ID)
		},
	)
	if err != nil {
		return nil, outcome, err
	}

	if outcome.Success {
		p.LedgerTx = &outcome.TxRef
		if err := s.store.UpdateParticipant(ctx, p); err != nil {
			// Ledger has the registration, DB lost the reference. The
			// sweep reports this row until repaired.
			return nil, outcome, err
		}
	}

	req.Status = RequestApproved
	req.DecidedBy = &actor
	req.DecidedAt = &now
	if err := s.store.UpdateOnboardingRequest(ctx, *req); err != nil {
		return nil, outcome, err
	}

	s.publish(ctx, events.LifecycleEvent{
		EventType:     events.TypeParticipantCreated,
		ParticipantID: p.ID,
		LedgerTx:      outcome.TxRef,
		OccurredAt:    now,
	})
	return &p, outcome, nil
}

// RejectOnboarding terminally rejects a PENDING request. No ledger interaction.
func (s *Service) RejectOnboarding(ctx context.Context, requestID, actor, reason string) (*OnboardingRequest, error) {
	release := s.gateway.Lock("onboarding/" + requestID)
	defer release()

	req, err := s.store.GetOnboardingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.Status != RequestPending {
		return nil, &ConflictError{Message: "onboarding request already " + strings.ToLower(string(req.Status))}
	}

	now := time.Now().UTC()
	req.Status = RequestRejected
	req.DecidedBy = &actor
	req.DecidedAt = &now
	if reason != "" {
		req.RejectionReason = &reason
	}
	if err := s.store.UpdateOnboardingRequest(ctx, *req); err != nil {
		return nil, err
	}
	return req, nil
}

// =============================================================================
// STATUS CHANGES (Policy A)
// =============================================================================

// ChangeStatus commits a status transition locally, records the audit row,
// then mirrors best-effort. The local change is never rolled back.
func (s *Service) ChangeStatus(ctx context.Context, participantID string, to ParticipantStatus, actor, reason string) (*Participant, *StatusChangeRecord, reconcile.Outcome, error) {
	p, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, nil, reconcile.Outcome{}, err
	}
	if p == nil {
		return nil, nil, reconcile.Outcome{}, ErrNotFound
	}

	from := p.Status
	if s.transitions.Enforce && !s.transitions.Allowed(from, to) {
		return nil, nil, reconcile.Outcome{}, &ConflictError{
			Message: "transition " + string(from) + " -> " + string(to) + " not allowed",
		}
	}

	now := time.Now().UTC()
	p.Status = to
	if err := s.store.UpdateParticipant(ctx, *p); err != nil {
		return nil, nil, reconcile.Outcome{}, err
	}

	// Audit row is recorded regardless of mirroring outcome.
	rec := StatusChangeRecord{
		ID:            uuid.NewString(),
		ParticipantID: p.ID,
		FromStatus:    from,
		ToStatus:      to,
		Actor:         actor,
		Reason:        reason,
		ChangedAt:     now,
	}
	if err := s.store.SaveStatusChange(ctx, rec); err != nil {
		return nil, nil, reconcile.Outcome{}, err
	}

	outcome := s.gateway.MirrorBestEffort(ctx, p.ID, false,
		func(ctx context.Context) (ledger.Result, error) {
			return s.gateway.Client().RecordStatusChange(ctx, p.ID, string(to), reason)
		})

	if outcome.Success {
		rec.LedgerTx = &outcome.TxRef
		if err := s.store.UpdateStatusChange(ctx, rec); err != nil {
			zap.L().Warn("status change mirrored but reference not persisted",
				zap.String("participant", p.ID), zap.Error(err))
		}
	}

	s.publish(ctx, events.LifecycleEvent{
		EventType:     events.TypeStatusChanged,
		ParticipantID: p.ID,
		LedgerTx:      outcome.TxRef,
		Detail:        string(from) + " -> " + string(to),
		OccurredAt:    now,
	})
	return p, &rec, outcome, nil
}

// =============================================================================
// WALLET (Policy A)
// =============================================================================

// ConnectWallet binds a wallet address to a participant. The address must
// not already be bound to a different participant.
func (s *Service) ConnectWallet(ctx context.Context, participantID, wallet string) (*Participant, reconcile.Outcome, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, reconcile.Outcome{}, &ValidationError{Field: "wallet", Message: "must not be empty"}
	}

	p, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, reconcile.Outcome{}, err
	}
	if p == nil {
		return nil, reconcile.Outcome{}, ErrNotFound
	}

	existing, err := s.store.GetParticipantByWallet(ctx, wallet)
	if err != nil {
		return nil, reconcile.Outcome{}, err
	}
	if existing != nil && existing.ID != p.ID {
		return nil, reconcile.Outcome{}, &WalletTakenError{Wallet: wallet, BoundTo: existing.ID}
	}

	p.Wallet = &wallet
	if err := s.store.UpdateParticipant(ctx, *p); err != nil {
		return nil, reconcile.Outcome{}, err
	}

	outcome := s.gateway.MirrorBestEffort(ctx, p.ID, false,
		func(ctx context.Context) (ledger.Result, error) {
			return s.gateway.Client().UpdateWallet(ctx, p.ID, wallet)
		})

	if outcome.Success {
		p.LedgerTx = &outcome.TxRef
		if err := s.store.UpdateParticipant(ctx, *p); err != nil {
			zap.L().Warn("wallet mirrored but reference not persisted",
				zap.String("participant", p.ID), zap.Error(err))
		}
	}
	return p, outcome, nil
}

// DisconnectWallet removes the participant's wallet binding.
func (s *Service) DisconnectWallet(ctx context.Context, participantID string) (*Participant, reconcile.Outcome, error) {
	p, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, reconcile.Outcome{}, err
	}
	if p == nil {
		return nil, reconcile.Outcome{}, ErrNotFound
	}
	if p.Wallet == nil {
		return nil, reconcile.Outcome{}, &ConflictError{Message: "no wallet connected"}
	}

	p.Wallet = nil
	if err := s.store.UpdateParticipant(ctx, *p); err != nil {
		return nil, reconcile.Outcome{}, err
	}

	outcome := s.gateway.MirrorBestEffort(ctx, p.ID, false,
		func(ctx context.Context) (ledger.Result, error) {
			return s.gateway.Client().UpdateWallet(ctx, p.ID, "")
		})
	return p, outcome, nil
}

// =============================================================================
// LEAVE
// =============================================================================

// SubmitLeaveInput is a new leave request.
type SubmitLeaveInput struct {
	ParticipantID string
	Reason        string
	Days          int
	StartDate     time.Time
}

// SubmitLeave creates a PENDING leave request. No ledger interaction.
func (s *Service) SubmitLeave(ctx context.Context, in SubmitLeaveInput) (*LeaveRequest, error) {
	if in.Days <= 0 {
		return nil, &ValidationError{Field: "days", Message: "must be positive"}
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, &ValidationError{Field: "reason", Message: "must not be empty"}
	}
	if in.StartDate.IsZero() {
		return nil, &ValidationError{Field: "start_date", Message: "must be set"}
	}

	p, err := s.store.GetParticipant(ctx, in.ParticipantID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}

	req := LeaveRequest{
		ID:            uuid.NewString(),
		ParticipantID: p.ID,
		Reason:        in.Reason,
		Days:          in.Days,
		StartDate:     in.StartDate,
		Status:        RequestPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.SaveLeaveRequest(ctx, req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ApproveLeave transitions a PENDING leave request to APPROVED. Ledger
// success is a precondition: on failure the request stays PENDING (the
// "compensation" here is simply not committing the transition).
func (s *Service) ApproveLeave(ctx context.Context, leaveID, actor string) (*LeaveRequest, reconcile.Outcome, error) {
	release := s.gateway.Lock("leave/" + leaveID)
	defer release()

	req, err := s.store.GetLeaveRequest(ctx, leaveID)
	if err != nil {
		return nil, reconcile.Outcome{}, err
	}
	if req == nil {
		return nil, reconcile.Outcome{}, ErrNotFound
	}
	if req.Status != RequestPending {
		return nil, reconcile.Outcome{}, &ConflictError{Message: "leave request already " + strings.ToLower(string(req.Status))}
	}

	if err := s.gateway.CheckAvailable(ctx); err != nil {
		return nil, reconcile.Outcome{}, err
	}

	outcome, err := s.gateway.MirrorRequired(ctx,
		func(ctx context.Context) (ledger.Result, error) {
			return s.gateway.Client().RecordLeaveApproval(ctx, req.ParticipantID, req.Days, req.Reason)
		},
		nil, // nothing to undo: the request has not left PENDING yet
	)
	if err != nil {
		return nil, outcome, err
	}

	now := time.Now().UTC()
	req.Status = RequestApproved
	req.DecidedBy = &actor
	req.DecidedAt = &now
	if outcome.Success {
		req.LedgerTx = &outcome.TxRef
	}
	if err := s.store.UpdateLeaveRequest(ctx, *req); err != nil {
		return nil, outcome, err
	}

	s.publish(ctx, events.LifecycleEvent{
		EventType:     events.TypeLeaveApproved,
		ParticipantID: req.ParticipantID,
		LedgerTx:      outcome.TxRef,
		OccurredAt:    now,
	})
	return req, outcome, nil
}

// RejectLeave terminally rejects a PENDING leave request. No ledger interaction.
func (s *Service) RejectLeave(ctx context.Context, leaveID, actor string) (*LeaveRequest, error) {
	release := s.gateway.Lock("leave/" + leaveID)
	defer release()

	req, err := s.store.GetLeaveRequest(ctx, leaveID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.Status != RequestPending {
		return nil, &ConflictError{Message: "leave request already " + strings.ToLower(string(req.Status))}
	}

	now := time.Now().UTC()
	req.Status = RequestRejected
	req.DecidedBy = &actor
	req.DecidedAt = &now
	if err := s.store.UpdateLeaveRequest(ctx, *req); err != nil {
		return nil, err
	}
	return req, nil
}

// =============================================================================
// PAYROLL
// =============================================================================

// RunPayroll records a payment. A PayrollRecord is never persisted without
// a successful ledger write, so ledger success is required here in every
// mode, best-effort included.
func (s *Service) RunPayroll(ctx context.Context, participantID string, amount decimal.Decimal) (*PayrollRecord, reconcile.Outcome, error) {
	if !amount.IsPositive() {
		return nil, reconcile.Outcome{}, &ValidationError{Field: "amount", Message: "must be positive"}
	}

	p, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, reconcile.Outcome{}, err
	}
	if p == nil {
		return nil, reconcile.Outcome{}, ErrNotFound
	}

	release := s.gateway.Lock("payroll/" + participantID)
	defer release()

	if err := s.gateway.CheckAvailable(ctx); err != nil {
		return nil, reconcile.Outcome{}, err
	}

	outcome, err := s.gateway.MirrorRequired(ctx,
		func(ctx context.Context) (ledger.Result, error) {
			return s.gateway.Client().RecordPayment(ctx, p.ID, amount)
		},
		nil, // nothing local to undo: the record is written after success
	)
	if err != nil {
		return nil, outcome, err
	}
	if !outcome.Success {
		// Mode is best-effort or disabled: the mandatory ledger reference
		// cannot be produced, so the payment is refused outright.
		return nil, outcome, &reconcile.WriteError{Reason: outcome.Reason}
	}

	now := time.Now().UTC()
	rec := PayrollRecord{
		ID:            uuid.NewString(),
		ParticipantID: p.ID,
		Amount:        amount,
		LedgerTx:      outcome.TxRef,
		PaidAt:        now,
	}
	if err := s.store.SavePayrollRecord(ctx, rec); err != nil {
		// Ledger has the payment, DB does not: acknowledged inconsistency
		// window, surfaced to the caller, not auto-repaired.
		return nil, outcome, err
	}

	s.publish(ctx, events.LifecycleEvent{
		EventType:     events.TypePaymentRecorded,
		ParticipantID: p.ID,
		LedgerTx:      outcome.TxRef,
		Detail:        amount.String(),
		OccurredAt:    now,
	})
	return &rec, outcome, nil
}

// =============================================================================
// RECONCILIATION SWEEP
// =============================================================================

// Unsynced lists participants lacking a ledger reference.
func (s *Service) Unsynced(ctx context.Context) ([]Participant, error) {
	return s.store.ListUnsyncedParticipants(ctx)
}

// Sweep compares every unsynced participant against ledger exists() truth
// and re-registers the ones genuinely missing, persisting the returned
// reference. This is the recovery path for lost registrations and failed
// compensating deletes.
func (s *Service) Sweep(ctx context.Context) ([]reconcile.SyncState, error) {
	unsynced, err := s.store.ListUnsyncedParticipants(ctx)
	if err != nil {
		return nil, err
	}

	states := make([]reconcile.SyncState, 0, len(unsynced))
	for _, p := range unsynced {
		p := p
		state := s.gateway.EnsureRegistered(ctx, p.ID,
			func(ctx context.Context) (ledger.Result, error) {
				return s.gateway.Client().RegisterParticipant(ctx, ledger.RegisterParams{
					ID:         p.ID,
					Name:       p.Name,
					Wallet:     p.Wallet,
					Role:       p.Role,
					Department: p.Department,
					HireDate:   p.HireDate,
				})
			})
		if state.Repaired {
			p.LedgerTx = &state.TxRef
			if err := s.store.UpdateParticipant(ctx, p); err != nil {
				state.Reason = "registered but reference not persisted: " + err.Error()
			}
		}
		states = append(states, state)
	}
	return states, nil
}

// =============================================================================
// READS
// =============================================================================

func (s *Service) GetParticipant(ctx context.Context, id string) (*Participant, error) {
	p, err := s.store.GetParticipant(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListParticipants(ctx context.Context) ([]Participant, error) {
	return s.store.ListParticipants(ctx)
}

func (s *Service) PendingOnboarding(ctx context.Context) ([]OnboardingRequest, error) {
	return s.store.ListOnboardingRequests(ctx, RequestPending)
}

func (s *Service) PendingLeave(ctx context.Context) ([]LeaveRequest, error) {
	return s.store.ListLeaveRequests(ctx, RequestPending)
}

func (s *Service) LeaveByParticipant(ctx context.Context, participantID string) ([]LeaveRequest, error) {
	return s.store.ListLeaveByParticipant(ctx, participantID)
}

func (s *Service) StatusHistory(ctx context.Context, participantID string) ([]StatusChangeRecord, error) {
	return s.store.ListStatusChanges(ctx, participantID)
}

func (s *Service) PayrollHistory(ctx context.Context, participantID string) ([]PayrollRecord, error) {
	return s.store.ListPayrollByParticipant(ctx, participantID)
}

// LedgerAvailable reports current ledger liveness.
func (s *Service) LedgerAvailable(ctx context.Context) bool {
	return s.gateway.Available(ctx)
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Service) publish(ctx context.Context, e events.LifecycleEvent) {
	if err := s.events.Publish(ctx, e); err != nil {
		zap.L().Warn("lifecycle event publish failed",
			zap.String("event", e.EventType), zap.Error(err))
	}
}

func requireFields(fields map[string]string) error {
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: name, Message: "must not be empty"}
		}
	}
	return nil
}
