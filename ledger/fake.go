/*
fake.go - Scriptable in-memory ledger for tests

The fake records every call it receives so tests can assert call counts
(e.g. at-most-one registration per participant). Failure modes are driven
by plain fields rather than a mock DSL.
*/
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var _ Client = (*Fake)(nil)

// Fake is an in-memory Client. Zero value: available, empty, every write
// succeeds with sequential tx refs. Safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	// Down makes IsAvailable report false.
	Down bool
	// FailWith, when non-empty, makes every mutating call return
	// Success=false with this reason.
	FailWith string
	// Err, when set, is returned as a transport error by Exists and every
	// mutating call.
	Err error
	// NextTxRef overrides the generated tx ref for the next successful write.
	NextTxRef string

	registered map[string]bool
	calls      []string
	seq        int
}

// NewFake returns an available, empty fake ledger.
func NewFake() *Fake {
	return &Fake{registered: make(map[string]bool)}
}

// Calls returns the ordered method names invoked so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many times the named method was invoked.
func (f *Fake) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

// Register marks a participant as already existing on the ledger.
func (f *Fake) Register(participantID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered[participantID] = true
}

func (f *Fake) IsAvailable(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "IsAvailable")
	return !f.Down
}

func (f *Fake) Exists(ctx context.Context, participantID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "Exists")
	if f.Err != nil {
		return false, f.Err
	}
	return f.registered[participantID], nil
}

func (f *Fake) RegisterParticipant(ctx context.Context, p RegisterParams) (Result, error) {
	res, err := f.write("RegisterParticipant")
	if err == nil && res.Success {
		f.mu.Lock()
		f.registered[p.ID] = true
		f.mu.Unlock()
	}
	return res, err
}

func (f *Fake) UpdateWallet(ctx context.Context, participantID, wallet string) (Result, error) {
	return f.write("UpdateWallet")
}

func (f *Fake) RecordStatusChange(ctx context.Context, participantID, newStatus, reason string) (Result, error) {
	return f.write("RecordStatusChange")
}

func (f *Fake) RecordLeaveApproval(ctx context.Context, participantID string, days int, reason string) (Result, error) {
	return f.write("RecordLeaveApproval")
}

func (f *Fake) RecordPayment(ctx context.Context, participantID string, amount decimal.Decimal) (Result, error) {
	return f.write("RecordPayment")
}

func (f *Fake) write(method string) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)
	if f.Err != nil {
		return Result{}, f.Err
	}
	if f.FailWith != "" {
		return Result{Success: false, Reason: f.FailWith}, nil
	}
	ref := f.NextTxRef
	f.NextTxRef = ""
	if ref == "" {
		f.seq++
		ref = fmt.Sprintf("0x%04x", f.seq)
	}
	return Result{Success: true, TxRef: ref}, nil
}
