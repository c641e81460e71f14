/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Envelope wrappers pairing an entity with its blockchain
    mirroring outcome

THE BLOCKCHAIN ENVELOPE:
  Every mutating endpoint that mirrors to the ledger returns
  `blockchain: {success, transaction, reason?}` alongside the entity, so
  clients can always distinguish "your HR action succeeded" from
  "blockchain mirroring succeeded".

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/hrchain/hr"
	"github.com/warp/hrchain/reconcile"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// BlockchainDTO reports one ledger mirroring attempt.
type BlockchainDTO struct {
	Success     bool    `json:"success"`
	Transaction *string `json:"transaction"`
	Reason      string  `json:"reason,omitempty"`
}

func toBlockchainDTO(o reconcile.Outcome) BlockchainDTO {
	dto := BlockchainDTO{Success: o.Success, Reason: o.Reason}
	if o.Success {
		tx := o.TxRef
		dto.Transaction = &tx
	}
	return dto
}

// ParticipantDTO represents an employee in API responses.
type ParticipantDTO struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	Department string  `json:"department"`
	HireDate   string  `json:"hire_date"`
	Status     string  `json:"status"`
	Wallet     *string `json:"wallet"`
	LedgerTx   *string `json:"ledger_tx"`
	CreatedAt  string  `json:"created_at,omitempty"`
}

func toParticipantDTO(p hr.Participant) ParticipantDTO {
	return ParticipantDTO{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Role:       p.Role,
		Department: p.Department,
		HireDate:   p.HireDate.Format("2006-01-02"),
		Status:     string(p.Status),
		Wallet:     p.Wallet,
		LedgerTx:   p.LedgerTx,
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
	}
}

// OnboardingRequestDTO represents a signup request.
type OnboardingRequestDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Role            string  `json:"role"`
	Department      string  `json:"department"`
	Status          string  `json:"status"`
	DecidedBy       *string `json:"decided_by,omitempty"`
	DecidedAt       *string `json:"decided_at,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at,omitempty"`
}

func toOnboardingDTO(r hr.OnboardingRequest) OnboardingRequestDTO {
	return OnboardingRequestDTO{
		ID:              r.ID,
		Name:            r.Name,
		Email:           r.Email,
		Role:            r.Role,
		Department:      r.Department,
		Status:          string(r.Status),
		DecidedBy:       r.DecidedBy,
		DecidedAt:       formatTimePtr(r.DecidedAt),
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
}

// LeaveRequestDTO represents a leave request.
type LeaveRequestDTO struct {
	ID            string  `json:"id"`
	ParticipantID string  `json:"participant_id"`
	Reason        string  `json:"reason"`
	Days          int     `json:"days"`
	StartDate     string  `json:"start_date"`
	Status        string  `json:"status"`
	DecidedBy     *string `json:"decided_by,omitempty"`
	DecidedAt     *string `json:"decided_at,omitempty"`
	LedgerTx      *string `json:"ledger_tx"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

func toLeaveDTO(r hr.LeaveRequest) LeaveRequestDTO {
	return LeaveRequestDTO{
		ID:            r.ID,
		ParticipantID: r.ParticipantID,
		Reason:        r.Reason,
		Days:          r.Days,
		StartDate:     r.StartDate.Format("2006-01-02"),
		Status:        string(r.Status),
		DecidedBy:     r.DecidedBy,
		DecidedAt:     formatTimePtr(r.DecidedAt),
		LedgerTx:      r.LedgerTx,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
}

// StatusChangeDTO represents one audit-log entry.
type StatusChangeDTO struct {
	ID            string  `json:"id"`
	ParticipantID string  `json:"participant_id"`
	FromStatus    string  `json:"from_status"`
	ToStatus      string  `json:"to_status"`
	Actor         string  `json:"actor"`
	Reason        string  `json:"reason,omitempty"`
	LedgerTx      *string `json:"ledger_tx"`
	ChangedAt     string  `json:"changed_at"`
}

func toStatusChangeDTO(rec hr.StatusChangeRecord) StatusChangeDTO {
	return StatusChangeDTO{
		ID:            rec.ID,
		ParticipantID: rec.ParticipantID,
		FromStatus:    string(rec.FromStatus),
		ToStatus:      string(rec.ToStatus),
		Actor:         rec.Actor,
		Reason:        rec.Reason,
		LedgerTx:      rec.LedgerTx,
		ChangedAt:     rec.ChangedAt.Format(time.RFC3339),
	}
}

// PayrollRecordDTO represents a completed payment.
type PayrollRecordDTO struct {
	ID            string `json:"id"`
	ParticipantID string `json:"participant_id"`
	Amount        string `json:"amount"`
	LedgerTx      string `json:"ledger_tx"`
	PaidAt        string `json:"paid_at"`
}

func toPayrollDTO(rec hr.PayrollRecord) PayrollRecordDTO {
	return PayrollRecordDTO{
		ID:            rec.ID,
		ParticipantID: rec.ParticipantID,
		Amount:        rec.Amount.String(),
		LedgerTx:      rec.LedgerTx,
		PaidAt:        rec.PaidAt.Format(time.RFC3339),
	}
}

// Envelope responses: entity + blockchain outcome.

type ParticipantResponse struct {
	Participant ParticipantDTO `json:"participant"`
	Blockchain  BlockchainDTO  `json:"blockchain"`
}

type StatusChangeResponse struct {
	Participant ParticipantDTO  `json:"participant"`
	Change      StatusChangeDTO `json:"change"`
	Blockchain  BlockchainDTO   `json:"blockchain"`
}

type LeaveResponse struct {
	Leave      LeaveRequestDTO `json:"leave"`
	Blockchain BlockchainDTO   `json:"blockchain"`
}

type PayrollResponse struct {
	Payroll    PayrollRecordDTO `json:"payroll"`
	Blockchain BlockchainDTO    `json:"blockchain"`
}

// LedgerHealthDTO reports probe state.
type LedgerHealthDTO struct {
	Available bool   `json:"available"`
	Mode      string `json:"mode"`
}

// ErrorResponse is the error envelope for all 4xx/5xx responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SignupRequest creates an onboarding request.
type SignupRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	CredentialHash string `json:"credential_hash"`
	Role           string `json:"role"`
	Department     string `json:"department"`
}

// DecisionRequest approves or rejects a pending request.
type DecisionRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason,omitempty"`
}

// ChangeStatusRequest moves a participant to a new status.
type ChangeStatusRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
	Reason string `json:"reason,omitempty"`
}

// ConnectWalletRequest binds a wallet address.
type ConnectWalletRequest struct {
	Wallet string `json:"wallet"`
}

// SubmitLeaveRequest creates a leave request.
type SubmitLeaveRequest struct {
	Reason    string `json:"reason"`
	Days      int    `json:"days"`
	StartDate string `json:"start_date"`
}

// RunPayrollRequest records a payment.
type RunPayrollRequest struct {
	Amount string `json:"amount"`
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
