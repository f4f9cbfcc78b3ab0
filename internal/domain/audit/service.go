package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matiasleandrokruk/toolhost/pkg/uuid"
)

var (
	ErrRecordNotFound = errors.New("invocation record not found")
	ErrInvalidRecord  = errors.New("invalid invocation record")
)

// AuditService persists invocation records. It only inserts and reads.
//
//nolint:revive // audit.AuditService is referenced across the api and cmd packages
type AuditService struct {
	db  *sql.DB
	now func() time.Time
}

func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db, now: time.Now}
}

// Record inserts rec, filling ID and CreatedAt when they are empty.
func (s *AuditService) Record(ctx context.Context, rec *InvocationRecord) error {
	if rec.Tool == "" {
		return fmt.Errorf("%w: tool is required", ErrInvalidRecord)
	}
	if rec.Outcome != OutcomeSuccess && rec.Outcome != OutcomeError {
		return fmt.Errorf("%w: outcome %q", ErrInvalidRecord, rec.Outcome)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewV7()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_invocation (
			id, tool_name, caller, transport, outcome, error_kind, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Tool, rec.Caller, string(rec.Transport), string(rec.Outcome),
		nullableString(rec.ErrorKind), rec.DurationMs, rec.CreatedAt.Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("audit: record %s: %w", rec.Tool, err)
	}
	return nil
}

// GetByID returns a single record.
func (s *AuditService) GetByID(ctx context.Context, id string) (*InvocationRecord, error) {
	row := s.db.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("audit: get %s: %w", id, err)
	}
	return rec, nil
}

// List returns records newest first together with the total matching count.
func (s *AuditService) List(ctx context.Context, filter ListFilter) ([]*InvocationRecord, int, error) {
	filter = filter.normalized()

	var (
		where []string
		args  []any
	)
	if filter.Tool != "" {
		where = append(where, "tool_name = ?")
		args = append(args, filter.Tool)
	}
	if filter.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tool_invocation`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("audit: count: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		selectRecord+clause+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("audit: list: %w", err)
	}
	defer rows.Close()

	records := make([]*InvocationRecord, 0, filter.Limit)
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("audit: list: %w", scanErr)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("audit: list: %w", err)
	}
	return records, total, nil
}

// Fixed-width so created_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectRecord = `
	SELECT id, tool_name, caller, transport, outcome, error_kind, duration_ms, created_at
	FROM tool_invocation`

type recordScanner interface {
	Scan(dest ...any) error
}

func scanRecord(scan recordScanner) (*InvocationRecord, error) {
	var (
		rec       InvocationRecord
		transport string
		outcome   string
		errorKind sql.NullString
		createdAt string
	)
	if err := scan.Scan(&rec.ID, &rec.Tool, &rec.Caller, &transport, &outcome, &errorKind, &rec.DurationMs, &createdAt); err != nil {
		return nil, err
	}
	ts, err := time.Parse(timestampLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	rec.Transport = Transport(transport)
	rec.Outcome = Outcome(outcome)
	rec.ErrorKind = errorKind.String
	rec.CreatedAt = ts
	return &rec, nil
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
