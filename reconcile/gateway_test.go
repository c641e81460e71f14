/*
gateway_test.go - Policy mode and reconciliation primitive tests

Covers the three modes (required, best-effort, disabled), the compensation
path, the exists() gate for best-effort mirroring, and the idempotent
registration check used by the sweep.
*/
package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hrchain/ledger"
	"github.com/warp/hrchain/reconcile"
)

func registerWrite(fake *ledger.Fake, id string) reconcile.WriteFunc {
	return func(ctx context.Context) (ledger.Result, error) {
		return fake.RegisterParticipant(ctx, ledger.RegisterParams{ID: id})
	}
}

// =============================================================================
// MODE PARSING
// =============================================================================

func TestParseMode(t *testing.T) {
	for raw, want := range map[string]reconcile.Mode{
		"":            reconcile.ModeRequired,
		"required":    reconcile.ModeRequired,
		"best-effort": reconcile.ModeBestEffort,
		"disabled":    reconcile.ModeDisabled,
	} {
		got, err := reconcile.ParseMode(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := reconcile.ParseMode("test")
	assert.Error(t, err, "the old test-mode switch is not a valid mode")
}

// =============================================================================
// AVAILABILITY PROBE
// =============================================================================

func TestCheckAvailable_RequiredMode(t *testing.T) {
	fake := ledger.NewFake()
	g := reconcile.New(fake, reconcile.ModeRequired, time.Second)
	require.NoError(t, g.CheckAvailable(context.Background()))

	fake.Down = true
	err := g.CheckAvailable(context.Background())
	assert.True(t, errors.Is(err, reconcile.ErrUnavailable))
}

func TestCheckAvailable_OtherModesNeverProbe(t *testing.T) {
	// Best-effort and disabled modes must not fail fast.
	for _, mode := range []reconcile.Mode{reconcile.ModeBestEffort, reconcile.ModeDisabled} {
		fake := ledger.NewFake()
		fake.Down = true
		g := reconcile.New(fake, mode, time.Second)
		assert.NoError(t, g.CheckAvailable(context.Background()), string(mode))
		assert.Empty(t, fake.Calls(), string(mode))
	}
}

// =============================================================================
// MIRROR REQUIRED (Policy B)
// =============================================================================

func TestMirrorRequired_Success(t *testing.T) {
	fake := ledger.NewFake()
	fake.NextTxRef = "0xCC"
	g := reconcile.New(fake, reconcile.ModeRequired, time.Second)

	outcome, err := g.MirrorRequired(context.Background(), registerWrite(fake, "emp-1"), nil)
	require.NoError(t, err)
	assert.True(t, outcome.Attempted)
	assert.True(t, outcome.Success)
	assert.Equal(t, "0xCC", outcome.TxRef)
}

func TestMirrorRequired_FailureRunsCompensation(t *testing.T) {
	// GIVEN: A failing ledger write and a compensating action
	fake := ledger.NewFake()
	fake.FailWith = "out of gas"
	g := reconcile.New(fake, reconcile.ModeRequired, time.Second)

	compensated := false
	outcome, err := g.MirrorRequired(context.Background(), registerWrite(fake, "emp-1"),
		func(ctx context.Context) error {
			compensated = true
			return nil
		})

	// THEN: Compensation ran and the error unwraps to ErrWrite
	assert.True(t, compensated)
	assert.False(t, outcome.Success)
	assert.Equal(t, "out of gas", outcome.Reason)
	require.Error(t, err)
	assert.True(t, errors.Is(err, reconcile.ErrWrite))

	var werr *reconcile.WriteError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, "out of gas", werr.Reason)
}

func TestMirrorRequired_CompensationFailure(t *testing.T) {
	// GIVEN: Both the ledger write and the compensation fail
	fake := ledger.NewFake()
	fake.FailWith = "out of gas"
	g := reconcile.New(fake, reconcile.ModeRequired, time.Second)

	boom := errors.New("disk full")
	_, err := g.MirrorRequired(context.Background(), registerWrite(fake, "emp-1"),
		func(ctx context.Context) error { return boom })

	// THEN: The caller gets a CompensationError wrapping the cause
	var cerr *reconcile.CompensationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "out of gas", cerr.WriteReason)
	assert.True(t, errors.Is(err, boom))
}

func TestMirrorRequired_TransportErrorCompensates(t *testing.T) {
	// A transport-level error (not just Success=false) also compensates.
	fake := ledger.NewFake()
	fake.Err = errors.New("connection refused")
	g := reconcile.New(fake, reconcile.ModeRequired, time.Second)

	compensated := false
	_, err := g.MirrorRequired(context.Background(), registerWrite(fake, "emp-1"),
		func(ctx context.Context) error {
			compensated = true
			return nil
		})
	assert.True(t, compensated)
	assert.True(t, errors.Is(err, reconcile.ErrWrite))
}

func TestMirrorRequired_BestEffortMode_NoCompensation(t *testing.T) {
	// GIVEN: Best-effort mode and a failing write
	fake := ledger.NewFake()
	fake.FailWith = "out of gas"
	g := reconcile.New(fake, reconcile.ModeBestEffort, time.Second)

	compensated := false
	outcome, err := g.MirrorRequired(context.Background(), registerWrite(fake, "emp-1"),
		func(ctx context.Context) error {
			compensated = true
			return nil
		})

	// THEN: No error, no compensation; the outcome reports the failure
	require.NoError(t, err)
	assert.False(t, compensated)
	assert.True(t, outcome.Attempted)
	assert.False(t, outcome.Success)
	assert.Equal(t, "out of gas", outcome.Reason)
}

func TestMirrorRequired_DisabledMode_NeverTouchesLedger(t *testing.T) {
	fake := ledger.NewFake()
	g := reconcile.New(fake, reconcile.ModeDisabled, time.Second)

	outcome, err := g.MirrorRequired(context.Background(), registerWrite(fake, "emp-1"), nil)
	require.NoError(t, err)
	assert.False(t, outcome.Attempted)
	assert.False(t, outcome.Success)
	assert.Equal(t, "ledger disabled", outcome.Reason)
	assert.Empty(t, fake.Calls())
}

// =============================================================================
// MIRROR BEST-EFFORT (Policy A)
// =============================================================================

func TestMirrorBestEffort_Success(t *testing.T) {
	fake := ledger.NewFake()
	fake.Register("emp-1")
	fake.NextTxRef = "0xDD"
	g := reconcile.New(fake, reconcile.ModeRequired, time.Second)

	outcome := g.MirrorBestEffort(context.Background(), "emp-1", false,
		func(ctx context.Context) (ledger.Result, error) {
			return fake.RecordStatusChange(ctx, "emp-1", "ON_LEAVE", "")
		})
	assert.True(t, outcome.Success)
	assert.Equal(t, "0xDD", outcome.TxRef)
}

func TestMirrorBestEffort_Unavailable(t *testing.T) {
	fake := ledger.NewFake()
	fake.Down = true
	g := reconcile.New(fake, reconcile.ModeRequired, time.Second)

	outcome := g.MirrorBestEffort(context.Background(), "emp-1", false, registerWrite(fake, "emp-1"))
	assert.False(t, outcome.Attempted)
	assert.Equal(t, "ledger unavailable", outcome.Reason)
}

func TestMirrorBestEffort_ExistsGate(t *testing.T) {
	// GIVEN: The participant has never been registered on the ledger
	fake := ledger.NewFake()
	g := reconcile.New(fake, reconcile.ModeRequired, time.Second)

	// WHEN: A non-registration mirror is attempted
	outcome := g.MirrorBestEffort(context.Background(), "emp-1", false,
		func(ctx context.Context) (ledger.Result, error) {
			return fake.RecordStatusChange(ctx, "emp-1", "ON_LEAVE", "")
		})

	// THEN: The write is skipped, not failed
	assert.False(t, outcome.Attempted)
	assert.Equal(t, "pending first registration", outcome.Reason)
	assert.Equal(t, 0, fake.CallCount("RecordStatusChange"))
}

func TestMirrorBestEffort_RegistrationSkipsGate(t *testing.T) {
	// The registration write itself must not be gated on exists().
	fake := ledger.NewFake()
	g := reconcile.New(fake, reconcile.ModeRequired, time.Second)

	outcome := g.MirrorBestEffort(context.Background(), "emp-1", true, registerWrite(fake, "emp-1"))
	assert.True(t, outcome.Success)
	assert.Equal(t, 0, fake.CallCount("Exists"))
}

func TestMirrorBestEffort_Disabled(t *testing.T) {
	fake := ledger.NewFake()
	g := reconcile.New(fake, reconcile.ModeDisabled, time.Second)

	outcome := g.MirrorBestEffort(context.Background(), "emp-1", false, registerWrite(fake, "emp-1"))
	assert.False(t, outcome.Attempted)
	assert.Equal(t, "ledger disabled", outcome.Reason)
	assert.Empty(t, fake.Calls())
}

// =============================================================================
// ENSURE REGISTERED
// =============================================================================

func TestEnsureRegistered_WritesOnlyWhenMissing(t *testing.T) {
	// GIVEN: A participant missing from the ledger
	fake := ledger.NewFake()
	g := reconcile.New(fake, reconcile.ModeRequired, time.Second)

	// WHEN: The check runs twice
	first := g.EnsureRegistered(context.Background(), "emp-1", registerWrite(fake, "emp-1"))
	second := g.EnsureRegistered(context.Background(), "emp-1", registerWrite(fake, "emp-1"))

	// THEN: Exactly one registration write happened
	assert.True(t, first.Repaired)
	assert.True(t, first.OnLedger)
	assert.NotEmpty(t, first.TxRef)

	assert.False(t, second.Repaired)
	assert.True(t, second.OnLedger)
	assert.Equal(t, "already registered", second.Reason)
	assert.Equal(t, 1, fake.CallCount("RegisterParticipant"))
}

func TestEnsureRegistered_Unavailable(t *testing.T) {
	fake := ledger.NewFake()
	fake.Down = true
	g := reconcile.New(fake, reconcile.ModeRequired, time.Second)

	state := g.EnsureRegistered(context.Background(), "emp-1", registerWrite(fake, "emp-1"))
	assert.False(t, state.Repaired)
	assert.False(t, state.OnLedger)
	assert.Equal(t, "ledger unavailable", state.Reason)
}

// =============================================================================
// PER-KEY LOCKING
// =============================================================================

func TestLock_SerializesSameKey(t *testing.T) {
	// Two goroutines contending for the same key must run their critical
	// sections one at a time.
	g := reconcile.New(ledger.NewFake(), reconcile.ModeRequired, time.Second)

	var inside, maxInside int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := g.Lock("onboarding/req-1")
			defer release()

			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxInside)
}

func TestLock_DistinctKeysIndependent(t *testing.T) {
	g := reconcile.New(ledger.NewFake(), reconcile.ModeRequired, time.Second)

	release1 := g.Lock("onboarding/req-1")
	defer release1()

	// A different key must not block.
	done := make(chan struct{})
	go func() {
		release2 := g.Lock("onboarding/req-2")
		release2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a distinct key blocked")
	}
}
