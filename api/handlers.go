/*
handlers.go - HTTP API handlers for the HR chain-mirroring service

PURPOSE:
  Exposes the domain operations via REST. Handles HTTP request/response,
  JSON serialization, and delegates to hr.Service.

ENDPOINTS:
  Onboarding:
    POST   /api/onboarding                 Signup (creates PENDING request)
    GET    /api/onboarding/pending         List pending requests
    POST   /api/onboarding/{id}/approve    Approve (ledger-gated)
    POST   /api/onboarding/{id}/reject     Reject (terminal)

  Employees:
    GET    /api/employees                  List participants
    GET    /api/employees/{id}             Get participant
    POST   /api/employees/{id}/status      Change status (best-effort mirror)
    POST   /api/employees/{id}/wallet      Connect wallet
    DELETE /api/employees/{id}/wallet      Disconnect wallet
    GET    /api/employees/{id}/history     Status change audit log
    POST   /api/employees/{id}/leave       Submit leave request
    GET    /api/employees/{id}/leave       List leave requests
    POST   /api/employees/{id}/payroll     Run payroll (ledger-gated)
    GET    /api/employees/{id}/payroll     Payroll history

  Leave:
    GET    /api/leave/pending              List pending leave
    POST   /api/leave/{id}/approve         Approve (ledger-gated)
    POST   /api/leave/{id}/reject          Reject (terminal)

  Ledger:
    GET    /api/ledger/health              Availability probe
    GET    /api/reconciliation/unsynced    Participants lacking a ledger ref
    POST   /api/reconciliation/sweep       Repair unsynced participants

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (already decided, wallet taken, forbidden transition)
  - 503: Ledger unavailable / required ledger write failed
  - 500: Store failures, failed compensation, unexpected errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/hrchain/hr"
	"github.com/warp/hrchain/reconcile"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *hr.Service
	Mode    reconcile.Mode
}

// NewHandler creates a new handler around the domain service.
func NewHandler(service *hr.Service, mode reconcile.Mode) *Handler {
	return &Handler{Service: service, Mode: mode}
}

// =============================================================================
// ONBOARDING HANDLERS
// =============================================================================

// Signup creates a PENDING onboarding request.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := h.Service.Signup(r.Context(), hr.SignupInput{
		Name:           req.Name,
		Email:          req.Email,
		CredentialHash: req.CredentialHash,
		Role:           req.Role,
		Department:     req.Department,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOnboardingDTO(*created))
}

// ListPendingOnboarding returns undecided signup requests.
func (h *Handler) ListPendingOnboarding(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Service.PendingOnboarding(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list onboarding requests", err)
		return
	}

	dtos := make([]OnboardingRequestDTO, len(reqs))
	for i, req := range reqs {
		dtos[i] = toOnboardingDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApproveOnboarding promotes a request to a Participant. Ledger success is
// a precondition: on failure the request stays PENDING and no participant
// row survives.
func (h *Handler) ApproveOnboarding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required", nil)
		return
	}

	p, outcome, err := h.Service.ApproveOnboarding(r.Context(), id, req.Actor)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ParticipantResponse{
		Participant: toParticipantDTO(*p),
		Blockchain:  toBlockchainDTO(outcome),
	})
}

// RejectOnboarding terminally rejects a PENDING request.
func (h *Handler) RejectOnboarding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required", nil)
		return
	}

	rejected, err := h.Service.RejectOnboarding(r.Context(), id, req.Actor, req.Reason)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOnboardingDTO(*rejected))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all participants.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Service.ListParticipants(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]ParticipantDTO, len(ps))
	for i, p := range ps {
		dtos[i] = toParticipantDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single participant.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetParticipant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toParticipantDTO(*p))
}

// ChangeStatus moves a participant to a new status (Policy A: the local
// change is committed even when mirroring fails).
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required", nil)
		return
	}

	status, err := hr.ParseParticipantStatus(req.Status)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	p, change, outcome, err := h.Service.ChangeStatus(r.Context(), id, status, req.Actor, req.Reason)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusChangeResponse{
		Participant: toParticipantDTO(*p),
		Change:      toStatusChangeDTO(*change),
		Blockchain:  toBlockchainDTO(outcome),
	})
}

// ConnectWallet binds a wallet address to a participant.
func (h *Handler) ConnectWallet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ConnectWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, outcome, err := h.Service.ConnectWallet(r.Context(), id, req.Wallet)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ParticipantResponse{
		Participant: toParticipantDTO(*p),
		Blockchain:  toBlockchainDTO(outcome),
	})
}

// DisconnectWallet removes the participant's wallet binding.
func (h *Handler) DisconnectWallet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, outcome, err := h.Service.DisconnectWallet(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ParticipantResponse{
		Participant: toParticipantDTO(*p),
		Blockchain:  toBlockchainDTO(outcome),
	})
}

// StatusHistory returns the participant's status change audit log.
func (h *Handler) StatusHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Service.StatusHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get status history", err)
		return
	}

	dtos := make([]StatusChangeDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toStatusChangeDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// SubmitLeave creates a PENDING leave request for an employee.
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}

	created, err := h.Service.SubmitLeave(r.Context(), hr.SubmitLeaveInput{
		ParticipantID: id,
		Reason:        req.Reason,
		Days:          req.Days,
		StartDate:     start,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveDTO(*created))
}

// ListEmployeeLeave returns an employee's leave requests.
func (h *Handler) ListEmployeeLeave(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Service.LeaveByParticipant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leave requests", err)
		return
	}

	dtos := make([]LeaveRequestDTO, len(reqs))
	for i, req := range reqs {
		dtos[i] = toLeaveDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListPendingLeave returns undecided leave requests.
func (h *Handler) ListPendingLeave(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Service.PendingLeave(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leave requests", err)
		return
	}

	dtos := make([]LeaveRequestDTO, len(reqs))
	for i, req := range reqs {
		dtos[i] = toLeaveDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApproveLeave approves a PENDING leave request. Ledger success is a
// precondition: on failure the request stays PENDING and may be retried.
func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required", nil)
		return
	}

	approved, outcome, err := h.Service.ApproveLeave(r.Context(), id, req.Actor)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LeaveResponse{
		Leave:      toLeaveDTO(*approved),
		Blockchain: toBlockchainDTO(outcome),
	})
}

// RejectLeave terminally rejects a PENDING leave request.
func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required", nil)
		return
	}

	rejected, err := h.Service.RejectLeave(r.Context(), id, req.Actor)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(*rejected))
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// RunPayroll records a payment for an employee. The payment is refused
// outright when the ledger write cannot succeed: a payroll record without
// a ledger reference must never exist.
func (h *Handler) RunPayroll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RunPayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	rec, outcome, err := h.Service.RunPayroll(r.Context(), id, amount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, PayrollResponse{
		Payroll:    toPayrollDTO(*rec),
		Blockchain: toBlockchainDTO(outcome),
	})
}

// PayrollHistory returns an employee's payments.
func (h *Handler) PayrollHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Service.PayrollHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get payroll history", err)
		return
	}

	dtos := make([]PayrollRecordDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toPayrollDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEDGER / RECONCILIATION HANDLERS
// =============================================================================

// LedgerHealth reports the availability probe result.
func (h *Handler) LedgerHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LedgerHealthDTO{
		Available: h.Service.LedgerAvailable(r.Context()),
		Mode:      string(h.Mode),
	})
}

// ListUnsynced returns participants lacking a ledger reference.
func (h *Handler) ListUnsynced(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Service.Unsynced(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list unsynced participants", err)
		return
	}

	dtos := make([]ParticipantDTO, len(ps))
	for i, p := range ps {
		dtos[i] = toParticipantDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Sweep compares unsynced participants against ledger truth and repairs
// genuinely missing registrations.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	states, err := h.Service.Sweep(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Reconciliation sweep failed", err)
		return
	}
	writeJSON(w, http.StatusOK, states)
}

// =============================================================================
// HELPERS
// =============================================================================

// writeDomainError maps domain and ledger errors onto HTTP status codes.
// This is the single place where the error taxonomy meets HTTP.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var compErr *reconcile.CompensationError

	switch {
	case errors.Is(err, hr.ErrValidation):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case errors.Is(err, hr.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, hr.ErrConflict):
		writeError(w, http.StatusConflict, "Conflict", err)
	case errors.As(err, &compErr):
		writeError(w, http.StatusInternalServerError, "Ledger write failed and local cleanup did not complete", err)
	case errors.Is(err, reconcile.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Blockchain ledger unavailable", err)
	case errors.Is(err, reconcile.ErrWrite):
		writeError(w, http.StatusServiceUnavailable, "Blockchain write failed", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
