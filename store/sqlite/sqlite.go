/*
Package sqlite provides the SQLite-backed implementation of hr.Store.

PURPOSE:
  The relational system of record for participants, onboarding requests,
  leave requests, status history, and payroll. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  participants:        Current employee records (wallet UNIQUE)
  onboarding_requests: Signups and their single decision
  leave_requests:      Time-off requests and their single decision
  status_changes:      Append-only status transition audit log
  payroll_records:     Payments; ledger_tx is NOT NULL by schema

LEDGER REFERENCES:
  ledger_tx columns are nullable everywhere except payroll_records: a
  payroll row is never written without a successful ledger write, and the
  schema enforces that.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/hrchain.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - hr/store.go: Interface definition
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/hrchain/hr"
)

// Compile-time check: *Store must satisfy hr.Store.
var _ hr.Store = (*Store)(nil)

// Store implements hr.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS participants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		department TEXT NOT NULL,
		hire_date TEXT NOT NULL,
		status TEXT NOT NULL,
		wallet TEXT UNIQUE,
		ledger_tx TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_participants_status
		ON participants(status);
	-- Sweep hot path: rows not yet mirrored
	CREATE INDEX IF NOT EXISTS idx_participants_unsynced
		ON participants(id) WHERE ledger_tx IS NULL;

	CREATE TABLE IF NOT EXISTS onboarding_requests (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		credential_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		department TEXT NOT NULL,
		status TEXT NOT NULL,
		decided_by TEXT,
		decided_at TEXT,
		rejection_reason TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_onboarding_status
		ON onboarding_requests(status);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		participant_id TEXT NOT NULL REFERENCES participants(id),
		reason TEXT NOT NULL,
		days INTEGER NOT NULL CHECK (days > 0),
		start_date TEXT NOT NULL,
		status TEXT NOT NULL,
		decided_by TEXT,
		decided_at TEXT,
		ledger_tx TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leave_participant
		ON leave_requests(participant_id);
	CREATE INDEX IF NOT EXISTS idx_leave_status
		ON leave_requests(status);

	-- Append-only audit log: one row per transition attempt
	CREATE TABLE IF NOT EXISTS status_changes (
		id TEXT PRIMARY KEY,
		participant_id TEXT NOT NULL REFERENCES participants(id),
		from_status TEXT NOT NULL,
		to_status TEXT NOT NULL,
		actor TEXT NOT NULL,
		reason TEXT,
		ledger_tx TEXT,
		changed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_status_changes_participant
		ON status_changes(participant_id, changed_at DESC);

	CREATE TABLE IF NOT EXISTS payroll_records (
		id TEXT PRIMARY KEY,
		participant_id TEXT NOT NULL REFERENCES participants(id),
		amount TEXT NOT NULL,
		ledger_tx TEXT NOT NULL,
		paid_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_participant
		ON payroll_records(participant_id, paid_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PARTICIPANTS
// =============================================================================

func (s *Store) SaveParticipant(ctx context.Context, p hr.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (id, name, email, role, department, hire_date, status, wallet, ledger_tx, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Email, p.Role, p.Department,
		p.HireDate.Format(time.RFC3339), string(p.Status),
		nullString(p.Wallet), nullString(p.LedgerTx),
		p.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) UpdateParticipant(ctx context.Context, p hr.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		UPDATE participants
		SET name = ?, email = ?, role = ?, department = ?, hire_date = ?, status = ?, wallet = ?, ledger_tx = ?
		WHERE id = ?`,
		p.Name, p.Email, p.Role, p.Department,
		p.HireDate.Format(time.RFC3339), string(p.Status),
		nullString(p.Wallet), nullString(p.LedgerTx), p.ID)
	return err
}

func (s *Store) DeleteParticipant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM participants WHERE id = ?`, id)
	return err
}

func (s *Store) GetParticipant(ctx context.Context, id string) (*hr.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, err := s.queryParticipants(ctx, `SELECT `+participantCols+` FROM participants WHERE id = ?`, id)
	if err != nil || len(ps) == 0 {
		return nil, err
	}
	return &ps[0], nil
}

func (s *Store) GetParticipantByWallet(ctx context.Context, wallet string) (*hr.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, err := s.queryParticipants(ctx, `SELECT `+participantCols+` FROM participants WHERE wallet = ?`, wallet)
	if err != nil || len(ps) == 0 {
		return nil, err
	}
	return &ps[0], nil
}

func (s *Store) ListParticipants(ctx context.Context) ([]hr.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryParticipants(ctx, `SELECT `+participantCols+` FROM participants ORDER BY created_at`)
}

func (s *Store) ListUnsyncedParticipants(ctx context.Context) ([]hr.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryParticipants(ctx, `SELECT `+participantCols+` FROM participants WHERE ledger_tx IS NULL ORDER BY created_at`)
}

const participantCols = `id, name, email, role, department, hire_date, status, wallet, ledger_tx, created_at`

func (s *Store) queryParticipants(ctx context.Context, query string, args ...any) ([]hr.Participant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hr.Participant
	for rows.Next() {
		var (
			p                 hr.Participant
			hireDate, created string
			status            string
			wallet, ledgerTx  sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Role, &p.Department,
			&hireDate, &status, &wallet, &ledgerTx, &created); err != nil {
			return nil, err
		}
		p.Status = hr.ParticipantStatus(status)
		p.Wallet = fromNullString(wallet)
		p.LedgerTx = fromNullString(ledgerTx)
		if p.HireDate, err = time.Parse(time.RFC3339, hireDate); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// ONBOARDING REQUESTS
// =============================================================================

func (s *Store) SaveOnboardingRequest(ctx context.Context, r hr.OnboardingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO onboarding_requests (id, name, email, credential_hash, role, department, status, decided_by, decided_at, rejection_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Email, r.CredentialHash, r.Role, r.Department, string(r.Status),
		nullString(r.DecidedBy), nullTime(r.DecidedAt), nullString(r.RejectionReason),
		r.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) UpdateOnboardingRequest(ctx context.Context, r hr.OnboardingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		UPDATE onboarding_requests
		SET status = ?, decided_by = ?, decided_at = ?, rejection_reason = ?
		WHERE id = ?`,
		string(r.Status), nullString(r.DecidedBy), nullTime(r.DecidedAt),
		nullString(r.RejectionReason), r.ID)
	return err
}

func (s *Store) GetOnboardingRequest(ctx context.Context, id string) (*hr.OnboardingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs, err := s.queryOnboarding(ctx, `SELECT `+onboardingCols+` FROM onboarding_requests WHERE id = ?`, id)
	if err != nil || len(rs) == 0 {
		return nil, err
	}
	return &rs[0], nil
}

func (s *Store) ListOnboardingRequests(ctx context.Context, status hr.RequestStatus) ([]hr.OnboardingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryOnboarding(ctx,
		`SELECT `+onboardingCols+` FROM onboarding_requests WHERE status = ? ORDER BY created_at`,
		string(status))
}

const onboardingCols = `id, name, email, credential_hash, role, department, status, decided_by, decided_at, rejection_reason, created_at`

func (s *Store) queryOnboarding(ctx context.Context, query string, args ...any) ([]hr.OnboardingRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hr.OnboardingRequest
	for rows.Next() {
		var (
			r                 hr.OnboardingRequest
			status, created   string
			decidedBy, reason sql.NullString
			decidedAt         sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.CredentialHash, &r.Role, &r.Department,
			&status, &decidedBy, &decidedAt, &reason, &created); err != nil {
			return nil, err
		}
		r.Status = hr.RequestStatus(status)
		r.DecidedBy = fromNullString(decidedBy)
		r.RejectionReason = fromNullString(reason)
		if r.DecidedAt, err = fromNullTime(decidedAt); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func (s *Store) SaveLeaveRequest(ctx context.Context, r hr.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_requests (id, participant_id, reason, days, start_date, status, decided_by, decided_at, ledger_tx, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ParticipantID, r.Reason, r.Days, r.StartDate.Format(time.RFC3339),
		string(r.Status), nullString(r.DecidedBy), nullTime(r.DecidedAt),
		nullString(r.LedgerTx), r.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) UpdateLeaveRequest(ctx context.Context, r hr.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		UPDATE leave_requests
		SET status = ?, decided_by = ?, decided_at = ?, ledger_tx = ?
		WHERE id = ?`,
		string(r.Status), nullString(r.DecidedBy), nullTime(r.DecidedAt),
		nullString(r.LedgerTx), r.ID)
	return err
}

func (s *Store) GetLeaveRequest(ctx context.Context, id string) (*hr.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs, err := s.queryLeave(ctx, `SELECT `+leaveCols+` FROM leave_requests WHERE id = ?`, id)
	if err != nil || len(rs) == 0 {
		return nil, err
	}
	return &rs[0], nil
}

func (s *Store) ListLeaveRequests(ctx context.Context, status hr.RequestStatus) ([]hr.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryLeave(ctx,
		`SELECT `+leaveCols+` FROM leave_requests WHERE status = ? ORDER BY created_at`,
		string(status))
}

func (s *Store) ListLeaveByParticipant(ctx context.Context, participantID string) ([]hr.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryLeave(ctx,
		`SELECT `+leaveCols+` FROM leave_requests WHERE participant_id = ? ORDER BY created_at`,
		participantID)
}

const leaveCols = `id, participant_id, reason, days, start_date, status, decided_by, decided_at, ledger_tx, created_at`

func (s *Store) queryLeave(ctx context.Context, query string, args ...any) ([]hr.LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hr.LeaveRequest
	for rows.Next() {
		var (
			r                   hr.LeaveRequest
			start, status       string
			created             string
			decidedBy, ledgerTx sql.NullString
			decidedAt           sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.ParticipantID, &r.Reason, &r.Days, &start,
			&status, &decidedBy, &decidedAt, &ledgerTx, &created); err != nil {
			return nil, err
		}
		r.Status = hr.RequestStatus(status)
		r.DecidedBy = fromNullString(decidedBy)
		r.LedgerTx = fromNullString(ledgerTx)
		if r.DecidedAt, err = fromNullTime(decidedAt); err != nil {
			return nil, err
		}
		if r.StartDate, err = time.Parse(time.RFC3339, start); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// STATUS CHANGES
// =============================================================================

func (s *Store) SaveStatusChange(ctx context.Context, rec hr.StatusChangeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO status_changes (id, participant_id, from_status, to_status, actor, reason, ledger_tx, changed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ParticipantID, string(rec.FromStatus), string(rec.ToStatus),
		rec.Actor, rec.Reason, nullString(rec.LedgerTx),
		rec.ChangedAt.Format(time.RFC3339))
	return err
}

// UpdateStatusChange only sets the ledger reference; the audit log is
// otherwise append-only.
func (s *Store) UpdateStatusChange(ctx context.Context, rec hr.StatusChangeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE status_changes SET ledger_tx = ? WHERE id = ?`,
		nullString(rec.LedgerTx), rec.ID)
	return err
}

func (s *Store) ListStatusChanges(ctx context.Context, participantID string) ([]hr.StatusChangeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, participant_id, from_status, to_status, actor, reason, ledger_tx, changed_at
		FROM status_changes WHERE participant_id = ? ORDER BY changed_at DESC`,
		participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hr.StatusChangeRecord
	for rows.Next() {
		var (
			rec              hr.StatusChangeRecord
			from, to, at     string
			reason, ledgerTx sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.ParticipantID, &from, &to,
			&rec.Actor, &reason, &ledgerTx, &at); err != nil {
			return nil, err
		}
		rec.FromStatus = hr.ParticipantStatus(from)
		rec.ToStatus = hr.ParticipantStatus(to)
		rec.Reason = reason.String
		rec.LedgerTx = fromNullString(ledgerTx)
		if rec.ChangedAt, err = time.Parse(time.RFC3339, at); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// PAYROLL
// =============================================================================

func (s *Store) SavePayrollRecord(ctx context.Context, rec hr.PayrollRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_records (id, participant_id, amount, ledger_tx, paid_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.ParticipantID, rec.Amount.String(), rec.LedgerTx,
		rec.PaidAt.Format(time.RFC3339))
	return err
}

func (s *Store) ListPayrollByParticipant(ctx context.Context, participantID string) ([]hr.PayrollRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, participant_id, amount, ledger_tx, paid_at
		FROM payroll_records WHERE participant_id = ? ORDER BY paid_at DESC`,
		participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hr.PayrollRecord
	for rows.Next() {
		var (
			rec        hr.PayrollRecord
			amount, at string
		)
		if err := rows.Scan(&rec.ID, &rec.ParticipantID, &amount, &rec.LedgerTx, &at); err != nil {
			return nil, err
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if rec.PaidAt, err = time.Parse(time.RFC3339, at); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func fromNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
