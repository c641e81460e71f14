/*
Package ledger defines the client contract for the blockchain verification
ledger and provides the chain-bridge HTTP adapter plus a scriptable fake.

The ledger is an external append-only smart-contract store used as a
tamper-evident mirror of select HR events. Every mutating call returns a
Result: the gateway never assumes the ledger and the relational store
succeed or fail together.
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Result is the typed outcome of a mutating ledger call.
type Result struct {
	Success bool   `json:"success"`
	TxRef   string `json:"txRef,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// RegisterParams carries the fields recorded on-chain when a participant
// is first registered.
type RegisterParams struct {
	ID         string
	Name       string
	Wallet     *string
	Role       string
	Department string
	HireDate   time.Time
}

// Client is the contract consumed by the reconciliation gateway.
//
// IsAvailable is a liveness probe: it never returns an error, only false
// on any transport failure. The mutating calls return a transport error
// OR a Result with Success=false and a Reason; the gateway treats both as
// a failed write.
type Client interface {
	IsAvailable(ctx context.Context) bool
	Exists(ctx context.Context, participantID string) (bool, error)
	RegisterParticipant(ctx context.Context, p RegisterParams) (Result, error)
	UpdateWallet(ctx context.Context, participantID, wallet string) (Result, error)
	RecordStatusChange(ctx context.Context, participantID, newStatus, reason string) (Result, error)
	RecordLeaveApproval(ctx context.Context, participantID string, days int, reason string) (Result, error)
	RecordPayment(ctx context.Context, participantID string, amount decimal.Decimal) (Result, error)
}
