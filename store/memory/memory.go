// Package memory provides an in-memory hr.Store implementation
// (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/hrchain/hr"
)

var _ hr.Store = (*Store)(nil)

// Store keeps every entity in maps guarded by one RWMutex. Returned
// pointers are copies; callers cannot mutate internal state.
type Store struct {
	mu            sync.RWMutex
	participants  map[string]hr.Participant
	onboarding    map[string]hr.OnboardingRequest
	leave         map[string]hr.LeaveRequest
	statusChanges map[string]hr.StatusChangeRecord
	payroll       map[string]hr.PayrollRecord
}

func New() *Store {
	return &Store{
		participants:  make(map[string]hr.Participant),
		onboarding:    make(map[string]hr.OnboardingRequest),
		leave:         make(map[string]hr.LeaveRequest),
		statusChanges: make(map[string]hr.StatusChangeRecord),
		payroll:       make(map[string]hr.PayrollRecord),
	}
}

// =============================================================================
// PARTICIPANTS
// =============================================================================

func (s *Store) SaveParticipant(_ context.Context, p hr.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.ID] = p
	return nil
}

func (s *Store) UpdateParticipant(_ context.Context, p hr.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.ID] = p
	return nil
}

func (s *Store) DeleteParticipant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.participants, id)
	return nil
}

func (s *Store) GetParticipant(_ context.Context, id string) (*hr.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.participants[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *Store) GetParticipantByWallet(_ context.Context, wallet string) (*hr.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.participants {
		if p.Wallet != nil && *p.Wallet == wallet {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (s *Store) ListParticipants(_ context.Context) ([]hr.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]hr.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	sortByCreated(out, func(p hr.Participant) int64 { return p.CreatedAt.UnixNano() })
	return out, nil
}

func (s *Store) ListUnsyncedParticipants(_ context.Context) ([]hr.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []hr.Participant
	for _, p := range s.participants {
		if p.LedgerTx == nil {
			out = append(out, p)
		}
	}
	sortByCreated(out, func(p hr.Participant) int64 { return p.CreatedAt.UnixNano() })
	return out, nil
}

// =============================================================================
// ONBOARDING REQUESTS
// =============================================================================

func (s *Store) SaveOnboardingRequest(_ context.Context, r hr.OnboardingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onboarding[r.ID] = r
	return nil
}

func (s *Store) UpdateOnboardingRequest(_ context.Context, r hr.OnboardingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onboarding[r.ID] = r
	return nil
}

func (s *Store) GetOnboardingRequest(_ context.Context, id string) (*hr.OnboardingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.onboarding[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *Store) ListOnboardingRequests(_ context.Context, status hr.RequestStatus) ([]hr.OnboardingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []hr.OnboardingRequest
	for _, r := range s.onboarding {
		if r.Status == status {
			out = append(out, r)
		}
	}
	sortByCreated(out, func(r hr.OnboardingRequest) int64 { return r.CreatedAt.UnixNano() })
	return out, nil
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func (s *Store) SaveLeaveRequest(_ context.Context, r hr.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leave[r.ID] = r
	return nil
}

func (s *Store) UpdateLeaveRequest(_ context.Context, r hr.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leave[r.ID] = r
	return nil
}

func (s *Store) GetLeaveRequest(_ context.Context, id string) (*hr.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.leave[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *Store) ListLeaveRequests(_ context.Context, status hr.RequestStatus) ([]hr.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []hr.LeaveRequest
	for _, r := range s.leave {
		if r.Status == status {
			out = append(out, r)
		}
	}
	sortByCreated(out, func(r hr.LeaveRequest) int64 { return r.CreatedAt.UnixNano() })
	return out, nil
}

func (s *Store) ListLeaveByParticipant(_ context.Context, participantID string) ([]hr.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []hr.LeaveRequest
	for _, r := range s.leave {
		if r.ParticipantID == participantID {
			out = append(out, r)
		}
	}
	sortByCreated(out, func(r hr.LeaveRequest) int64 { return r.CreatedAt.UnixNano() })
	return out, nil
}

// =============================================================================
// STATUS CHANGES
// =============================================================================

func (s *Store) SaveStatusChange(_ context.Context, rec hr.StatusChangeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusChanges[rec.ID] = rec
	return nil
}

func (s *Store) UpdateStatusChange(_ context.Context, rec hr.StatusChangeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusChanges[rec.ID] = rec
	return nil
}

func (s *Store) ListStatusChanges(_ context.Context, participantID string) ([]hr.StatusChangeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []hr.StatusChangeRecord
	for _, rec := range s.statusChanges {
		if rec.ParticipantID == participantID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChangedAt.After(out[j].ChangedAt) })
	return out, nil
}

// =============================================================================
// PAYROLL
// =============================================================================

func (s *Store) SavePayrollRecord(_ context.Context, rec hr.PayrollRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payroll[rec.ID] = rec
	return nil
}

func (s *Store) ListPayrollByParticipant(_ context.Context, participantID string) ([]hr.PayrollRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []hr.PayrollRecord
	for _, rec := range s.payroll {
		if rec.ParticipantID == participantID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.After(out[j].PaidAt) })
	return out, nil
}

func sortByCreated[T any](items []T, key func(T) int64) {
	sort.Slice(items, func(i, j int) bool { return key(items[i]) < key(items[j]) })
}
