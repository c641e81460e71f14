/*
Package reconcile implements the reconciliation gateway between the HR
system of record and the blockchain verification ledger.

Two stores, no shared transaction. Every mirrored operation follows one of
two policies:

  Policy A (best-effort, DB authoritative):
    The local state change commits first and is never rolled back. The
    gateway then probes the ledger, gates on the participant being
    registered, and performs a single write. A failed or skipped mirror is
    degraded service, not data corruption.

  Policy B (ledger success is a precondition):
    The gateway probes availability BEFORE any local mutation (fail fast).
    The caller performs the pending local write, the gateway performs the
    ledger write, and on failure runs the caller's compensating action
    (e.g. delete the just-created row). The originating request stays
    PENDING and may be retried.

Each ledger call is attempted exactly once with a hard timeout. Per-key
mutexes serialize Policy B sequences for the same request so two approvals
cannot both pass the PENDING check before either commits.

The injected Mode replaces the old environment-variable "test mode":
  required    - Policy B gates on the ledger as described
  best-effort - Policy B degrades to Policy A semantics (no fail-fast,
                no compensation)
  disabled    - the ledger is never touched
*/
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/hrchain/ledger"
)

// =============================================================================
// POLICY MODE
// =============================================================================

// Mode selects how strictly ledger mirroring is enforced.
type Mode string

const (
	ModeRequired   Mode = "required"
	ModeBestEffort Mode = "best-effort"
	ModeDisabled   Mode = "disabled"
)

// ParseMode validates a raw mode string.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeRequired, ModeBestEffort, ModeDisabled:
		return Mode(raw), nil
	case "":
		return ModeRequired, nil
	}
	return "", fmt.Errorf("unknown ledger mode %q", raw)
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnavailable is returned by Policy B operations when the
	// availability probe fails. No local mutation has happened yet.
	ErrUnavailable = errors.New("ledger unavailable")

	// ErrWrite is the root of all failed mutating ledger calls.
	ErrWrite = errors.New("ledger write failed")
)

// WriteError carries the ledger's failure reason.
type WriteError struct {
	Reason string
}

func (e *WriteError) Error() string { return "ledger write failed: " + e.Reason }

func (e *WriteError) Unwrap() error { return ErrWrite }

// CompensationError is returned when the compensating action itself failed
// after a ledger write failure. The system is left with an orphan local
// row; the sweep endpoint is the recovery path.
type CompensationError struct {
	WriteReason string
	Cause       error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensating action failed after ledger failure (%s): %v", e.WriteReason, e.Cause)
}

func (e *CompensationError) Unwrap() error { return e.Cause }

// =============================================================================
// OUTCOME
// =============================================================================

// Outcome describes one mirroring attempt. It feeds the
// `blockchain: {success, transaction, reason}` response envelope.
type Outcome struct {
	// Attempted is false when the gateway never reached the mutating call
	// (mode disabled, probe failed, participant not yet registered).
	Attempted bool
	Success   bool
	TxRef     string
	Reason    string
}

// WriteFunc performs the single mutating ledger call for an operation.
type WriteFunc func(ctx context.Context) (ledger.Result, error)

// =============================================================================
// GATEWAY
// =============================================================================

// Gateway wraps every domain operation that must be mirrored to the ledger.
type Gateway struct {
	client  ledger.Client
	mode    Mode
	timeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a gateway. timeout bounds the probe and each ledger call.
func New(client ledger.Client, mode Mode, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Gateway{
		client:  client,
		mode:    mode,
		timeout: timeout,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Mode returns the configured policy mode.
func (g *Gateway) Mode() Mode { return g.mode }

// Client exposes the underlying ledger client so callers can build the
// WriteFuncs handed back to MirrorRequired/MirrorBestEffort.
func (g *Gateway) Client() ledger.Client { return g.client }

// Lock acquires the per-key mutex serializing Policy B sequences for one
// request/participant. Returns the release function.
func (g *Gateway) Lock(key string) func() {
	g.mu.Lock()
	l, ok := g.locks[key]
	if !ok {
		l = &sync.Mutex{}
		g.locks[key] = l
	}
	g.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// =============================================================================
// POLICY B - ledger success is a precondition
// =============================================================================

// CheckAvailable is Policy B step 1: the fail-fast probe, called before
// any local mutation. Returns ErrUnavailable only in required mode.
func (g *Gateway) CheckAvailable(ctx context.Context) error {
	if g.mode != ModeRequired {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if !g.client.IsAvailable(cctx) {
		return ErrUnavailable
	}
	return nil
}

// MirrorRequired executes Policy B steps 3-5: the caller has already
// performed the pending local write; the gateway performs the ledger write
// and on failure runs compensate. On success the caller persists the
// returned TxRef and commits.
//
// In best-effort mode a failed write does NOT compensate: the outcome
// reports the failure and the local state stands. In disabled mode the
// write is skipped entirely.
func (g *Gateway) MirrorRequired(ctx context.Context, write WriteFunc, compensate func(context.Context) error) (Outcome, error) {
	if g.mode == ModeDisabled {
		return Outcome{Reason: "ledger disabled"}, nil
	}

	res, err := g.invoke(ctx, write)
	if err == nil && res.Success {
		return Outcome{Attempted: true, Success: true, TxRef: res.TxRef}, nil
	}

	reason := res.Reason
	if err != nil {
		reason = err.Error()
	}

	if g.mode == ModeBestEffort {
		return Outcome{Attempted: true, Reason: reason}, nil
	}

	zap.L().Warn("ledger write failed, compensating", zap.String("reason", reason))
	if compensate != nil {
		// Compensation runs on a fresh timeout: the original ctx may
		// already be past its deadline when the write timed out.
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()
		if cerr := compensate(cctx); cerr != nil {
			zap.L().Error("compensating action failed, orphan row left behind",
				zap.String("write_reason", reason), zap.Error(cerr))
			return Outcome{Attempted: true, Reason: reason}, &CompensationError{WriteReason: reason, Cause: cerr}
		}
	}
	return Outcome{Attempted: true, Reason: reason}, &WriteError{Reason: reason}
}

// =============================================================================
// POLICY A - best-effort mirror, DB is authoritative
// =============================================================================

// MirrorBestEffort executes Policy A steps 2-4. The caller has already
// committed the local state change; whatever happens here, that change is
// not rolled back.
//
// registration marks the write as the participant's on-chain registration
// itself, which skips the exists() gate.
func (g *Gateway) MirrorBestEffort(ctx context.Context, participantID string, registration bool, write WriteFunc) Outcome {
	if g.mode == ModeDisabled {
		return Outcome{Reason: "ledger disabled"}
	}

	pctx, cancel := context.WithTimeout(ctx, g.timeout)
	available := g.client.IsAvailable(pctx)
	cancel()
	if !available {
		zap.L().Warn("ledger unavailable, local change committed without mirror",
			zap.String("participant", participantID))
		return Outcome{Reason: "ledger unavailable"}
	}

	if !registration {
		exists, err := g.exists(ctx, participantID)
		if err != nil {
			return Outcome{Reason: "ledger existence check failed: " + err.Error()}
		}
		if !exists {
			// Mirror is not possible until the participant's first
			// registration lands on-chain; the sweep picks these up.
			return Outcome{Reason: "pending first registration"}
		}
	}

	res, err := g.invoke(ctx, write)
	if err != nil {
		return Outcome{Attempted: true, Reason: err.Error()}
	}
	if !res.Success {
		return Outcome{Attempted: true, Reason: res.Reason}
	}
	return Outcome{Attempted: true, Success: true, TxRef: res.TxRef}
}

// =============================================================================
// SYNCHRONIZATION CHECKS
// =============================================================================

// SyncState reports one entity's DB-vs-ledger agreement, produced by the
// reconciliation sweep for rows lacking a ledger reference.
type SyncState struct {
	ParticipantID string `json:"participant_id"`
	OnLedger      bool   `json:"on_ledger"`
	Repaired      bool   `json:"repaired"`
	TxRef         string `json:"tx_ref,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// EnsureRegistered is the idempotent "ensure synchronized" check: if the
// participant already exists on the ledger nothing is written; otherwise
// the registration write runs once. Used by the periodic sweep to repair
// rows whose original registration was skipped or lost.
func (g *Gateway) EnsureRegistered(ctx context.Context, participantID string, write WriteFunc) SyncState {
	state := SyncState{ParticipantID: participantID}

	if g.mode == ModeDisabled {
		state.Reason = "ledger disabled"
		return state
	}

	pctx, cancel := context.WithTimeout(ctx, g.timeout)
	available := g.client.IsAvailable(pctx)
	cancel()
	if !available {
		state.Reason = "ledger unavailable"
		return state
	}

	exists, err := g.exists(ctx, participantID)
	if err != nil {
		state.Reason = "ledger existence check failed: " + err.Error()
		return state
	}
	if exists {
		// Registered on-chain but the local row lacks the tx ref. The
		// original hash is unrecoverable; report agreement only.
		state.OnLedger = true
		state.Reason = "already registered"
		return state
	}

	res, err := g.invoke(ctx, write)
	if err != nil {
		state.Reason = err.Error()
		return state
	}
	if !res.Success {
		state.Reason = res.Reason
		return state
	}
	state.OnLedger = true
	state.Repaired = true
	state.TxRef = res.TxRef
	return state
}

// Available reports current ledger liveness (health endpoint).
func (g *Gateway) Available(ctx context.Context) bool {
	if g.mode == ModeDisabled {
		return false
	}
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.client.IsAvailable(cctx)
}

// Exists reports whether the participant is registered on the ledger.
func (g *Gateway) Exists(ctx context.Context, participantID string) (bool, error) {
	return g.exists(ctx, participantID)
}

func (g *Gateway) exists(ctx context.Context, participantID string) (bool, error) {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.client.Exists(cctx, participantID)
}

func (g *Gateway) invoke(ctx context.Context, write WriteFunc) (ledger.Result, error) {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return write(cctx)
}
