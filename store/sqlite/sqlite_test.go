/*
sqlite_test.go - Round-trip and constraint tests against an in-memory database

Every test opens a fresh ":memory:" database so the auto-migration runs and
tests stay independent.
*/
package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hrchain/hr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func strPtr(s string) *string { return &s }

func testParticipant(id string) hr.Participant {
	return hr.Participant{
		ID:         id,
		Name:       "Dana Field",
		Email:      "dana@example.com",
		Role:       "engineer",
		Department: "platform",
		HireDate:   time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		Status:     hr.StatusActive,
		CreatedAt:  time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// PARTICIPANTS
// =============================================================================

func TestParticipant_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := testParticipant("emp-1")
	p.Wallet = strPtr("0xwallet1")
	p.LedgerTx = strPtr("0xAA")
	require.NoError(t, store.SaveParticipant(ctx, p))

	got, err := store.GetParticipant(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, hr.StatusActive, got.Status)
	assert.Equal(t, "0xwallet1", *got.Wallet)
	assert.Equal(t, "0xAA", *got.LedgerTx)
	assert.True(t, p.HireDate.Equal(got.HireDate))
}

func TestParticipant_NullableFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveParticipant(ctx, testParticipant("emp-1")))

	got, err := store.GetParticipant(ctx, "emp-1")
	require.NoError(t, err)
	assert.Nil(t, got.Wallet)
	assert.Nil(t, got.LedgerTx)
}

func TestParticipant_GetMissing_ReturnsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetParticipant(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParticipant_WalletUniqueConstraint(t *testing.T) {
	// The schema is the last line of defense for wallet uniqueness.
	store := newTestStore(t)
	ctx := context.Background()

	p1 := testParticipant("emp-1")
	p1.Wallet = strPtr("0xwallet1")
	require.NoError(t, store.SaveParticipant(ctx, p1))

	p2 := testParticipant("emp-2")
	p2.Wallet = strPtr("0xwallet1")
	assert.Error(t, store.SaveParticipant(ctx, p2))

	// Multiple NULL wallets coexist.
	require.NoError(t, store.SaveParticipant(ctx, testParticipant("emp-3")))
	require.NoError(t, store.SaveParticipant(ctx, testParticipant("emp-4")))
}

func TestParticipant_GetByWallet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := testParticipant("emp-1")
	p.Wallet = strPtr("0xwallet1")
	require.NoError(t, store.SaveParticipant(ctx, p))

	got, err := store.GetParticipantByWallet(ctx, "0xwallet1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "emp-1", got.ID)

	none, err := store.GetParticipantByWallet(ctx, "0xother")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestParticipant_DeleteAndUnsynced(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	synced := testParticipant("emp-1")
	synced.LedgerTx = strPtr("0xAA")
	require.NoError(t, store.SaveParticipant(ctx, synced))
	require.NoError(t, store.SaveParticipant(ctx, testParticipant("emp-2")))

	// Only the row without a ledger reference is reported.
	unsynced, err := store.ListUnsyncedParticipants(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, "emp-2", unsynced[0].ID)

	// Compensating delete removes the row entirely.
	require.NoError(t, store.DeleteParticipant(ctx, "emp-2"))
	unsynced, err = store.ListUnsyncedParticipants(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)
}

func TestParticipant_Update(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := testParticipant("emp-1")
	require.NoError(t, store.SaveParticipant(ctx, p))

	p.Status = hr.StatusSuspended
	p.LedgerTx = strPtr("0xBB")
	require.NoError(t, store.UpdateParticipant(ctx, p))

	got, err := store.GetParticipant(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, hr.StatusSuspended, got.Status)
	assert.Equal(t, "0xBB", *got.LedgerTx)
}

// =============================================================================
// ONBOARDING REQUESTS
// =============================================================================

func TestOnboarding_DecisionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := hr.OnboardingRequest{
		ID:             "req-1",
		Name:           "Avery Cole",
		Email:          "avery@example.com",
		CredentialHash: "sha256:abcd",
		Role:           "analyst",
		Department:     "finance",
		Status:         hr.RequestPending,
		CreatedAt:      time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveOnboardingRequest(ctx, req))

	pending, err := store.ListOnboardingRequests(ctx, hr.RequestPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	decidedAt := time.Date(2025, 2, 2, 10, 0, 0, 0, time.UTC)
	req.Status = hr.RequestRejected
	req.DecidedBy = strPtr("hr-admin")
	req.DecidedAt = &decidedAt
	req.RejectionReason = strPtr("failed background check")
	require.NoError(t, store.UpdateOnboardingRequest(ctx, req))

	got, err := store.GetOnboardingRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, hr.RequestRejected, got.Status)
	assert.Equal(t, "hr-admin", *got.DecidedBy)
	assert.True(t, decidedAt.Equal(*got.DecidedAt))
	assert.Equal(t, "failed background check", *got.RejectionReason)

	pending, err = store.ListOnboardingRequests(ctx, hr.RequestPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func TestLeave_RoundTripAndFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveParticipant(ctx, testParticipant("emp-1")))

	req := hr.LeaveRequest{
		ID:            "leave-1",
		ParticipantID: "emp-1",
		Reason:        "vacation",
		Days:          5,
		StartDate:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:        hr.RequestPending,
		CreatedAt:     time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveLeaveRequest(ctx, req))

	byStatus, err := store.ListLeaveRequests(ctx, hr.RequestPending)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, 5, byStatus[0].Days)

	byParticipant, err := store.ListLeaveByParticipant(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, byParticipant, 1)

	decidedAt := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	req.Status = hr.RequestApproved
	req.DecidedBy = strPtr("manager-1")
	req.DecidedAt = &decidedAt
	req.LedgerTx = strPtr("0xBB")
	require.NoError(t, store.UpdateLeaveRequest(ctx, req))

	got, err := store.GetLeaveRequest(ctx, "leave-1")
	require.NoError(t, err)
	assert.Equal(t, hr.RequestApproved, got.Status)
	assert.Equal(t, "0xBB", *got.LedgerTx)
}

func TestLeave_DaysCheckConstraint(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveParticipant(ctx, testParticipant("emp-1")))

	err := store.SaveLeaveRequest(ctx, hr.LeaveRequest{
		ID:            "leave-1",
		ParticipantID: "emp-1",
		Reason:        "vacation",
		Days:          0,
		StartDate:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:        hr.RequestPending,
	})
	assert.Error(t, err)
}

// =============================================================================
// STATUS CHANGES
// =============================================================================

func TestStatusChanges_AppendAndBackfillLedgerRef(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveParticipant(ctx, testParticipant("emp-1")))

	rec := hr.StatusChangeRecord{
		ID:            "chg-1",
		ParticipantID: "emp-1",
		FromStatus:    hr.StatusActive,
		ToStatus:      hr.StatusOnLeave,
		Actor:         "hr-admin",
		Reason:        "parental leave",
		ChangedAt:     time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveStatusChange(ctx, rec))

	rec.LedgerTx = strPtr("0xCC")
	require.NoError(t, store.UpdateStatusChange(ctx, rec))

	history, err := store.ListStatusChanges(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, hr.StatusActive, history[0].FromStatus)
	assert.Equal(t, hr.StatusOnLeave, history[0].ToStatus)
	assert.Equal(t, "0xCC", *history[0].LedgerTx)
}

func TestStatusChanges_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveParticipant(ctx, testParticipant("emp-1")))

	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	for i, to := range []hr.ParticipantStatus{hr.StatusOnLeave, hr.StatusActive, hr.StatusSuspended} {
		require.NoError(t, store.SaveStatusChange(ctx, hr.StatusChangeRecord{
			ID:            "chg-" + string(rune('a'+i)),
			ParticipantID: "emp-1",
			FromStatus:    hr.StatusActive,
			ToStatus:      to,
			Actor:         "hr-admin",
			ChangedAt:     base.Add(time.Duration(i) * time.Hour),
		}))
	}

	history, err := store.ListStatusChanges(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, hr.StatusSuspended, history[0].ToStatus)
	assert.Equal(t, hr.StatusOnLeave, history[2].ToStatus)
}

// =============================================================================
// PAYROLL
// =============================================================================

func TestPayroll_DecimalRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveParticipant(ctx, testParticipant("emp-1")))

	rec := hr.PayrollRecord{
		ID:            "pay-1",
		ParticipantID: "emp-1",
		Amount:        decimal.RequireFromString("1500.33"),
		LedgerTx:      "0xDD",
		PaidAt:        time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SavePayrollRecord(ctx, rec))

	history, err := store.ListPayrollByParticipant(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Amount.Equal(decimal.RequireFromString("1500.33")),
		"amount survives storage without float drift")
	assert.Equal(t, "0xDD", history[0].LedgerTx)
}
