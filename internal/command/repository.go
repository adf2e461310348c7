package command

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for command persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	Create(ctx context.Context, c *Command) error
	GetByID(ctx context.Context, id string) (*Command, error)
	ListByDevice(ctx context.Context, deviceID string, limit int) ([]Command, error)
	ListByRoom(ctx context.Context, roomID string, limit int) ([]Command, error)
	ListByRoomStatus(ctx context.Context, roomID string, status Status, limit int) ([]Command, error)

	// Transition atomically moves a command to a new status, but only if
	// its current status is one of from. Returns ErrInvalidTransition when
	// the command exists in a different state.
	Transition(ctx context.Context, id string, to Status, from ...Status) error

	// Reissue resets a FAILED command for retry: status back to PENDING
	// with a fresh issued_at.
	Reissue(ctx context.Context, id string, issuedAt time.Time) error

	// UpdateParams replaces the stored params document.
	UpdateParams(ctx context.Context, id string, params map[string]any) error

	// Statistics aggregates command outcomes for a room since a point in time.
	Statistics(ctx context.Context, roomID string, since time.Time) (*Statistics, error)

	// DeleteOlderThan removes terminal commands issued before the cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// commandColumns is the SELECT column list for command queries.
const commandColumns = `id, device_id, command, params, status, issued_by,
			issuer_kind, rule_id, issued_at, updated_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new command record.
func (r *SQLiteRepository) Create(ctx context.Context, c *Command) error {
	now := time.Now().UTC()
	if c.IssuedAt.IsZero() {
		c.IssuedAt = now
	}
	c.UpdatedAt = now

	paramsJSON, err := marshalParams(c.Params)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO commands (
			id, device_id, command, params, status, issued_by,
			issuer_kind, rule_id, issued_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		c.ID,
		c.DeviceID,
		c.Command,
		paramsJSON,
		string(c.Status),
		c.IssuedBy,
		string(c.IssuerKind),
		nullableString(c.RuleID),
		c.IssuedAt.Format(time.RFC3339),
		c.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrCommandExists
		}
		return fmt.Errorf("inserting command: %w", err)
	}
	return nil
}

// GetByID retrieves a command by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Command, error) {
	query := `SELECT ` + commandColumns + ` FROM commands WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	c, err := scanCommandRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommandNotFound
		}
		return nil, fmt.Errorf("querying command by id: %w", err)
	}
	return c, nil
}

// ListByDevice retrieves a device's commands, newest first.
func (r *SQLiteRepository) ListByDevice(ctx context.Context, deviceID string, limit int) ([]Command, error) {
	query := `SELECT ` + commandColumns + `
		FROM commands
		WHERE device_id = ?
		ORDER BY issued_at DESC, id
		LIMIT ?`
	return r.queryCommands(ctx, query, deviceID, clampLimit(limit))
}

// ListByRoom retrieves the commands issued to any device in a room,
// newest first.
func (r *SQLiteRepository) ListByRoom(ctx context.Context, roomID string, limit int) ([]Command, error) {
	query := `SELECT c.id, c.device_id, c.command, c.params, c.status, c.issued_by,
			c.issuer_kind, c.rule_id, c.issued_at, c.updated_at
		FROM commands c
		JOIN devices d ON d.id = c.device_id
		WHERE d.room_id = ?
		ORDER BY c.issued_at DESC, c.id
		LIMIT ?`
	return r.queryCommands(ctx, query, roomID, clampLimit(limit))
}

// ListByRoomStatus retrieves a room's commands in one lifecycle state,
// newest first.
func (r *SQLiteRepository) ListByRoomStatus(ctx context.Context, roomID string, status Status, limit int) ([]Command, error) {
	query := `SELECT c.id, c.device_id, c.command, c.params, c.status, c.issued_by,
			c.issuer_kind, c.rule_id, c.issued_at, c.updated_at
		FROM commands c
		JOIN devices d ON d.id = c.device_id
		WHERE d.room_id = ? AND c.status = ?
		ORDER BY c.issued_at DESC, c.id
		LIMIT ?`
	return r.queryCommands(ctx, query, roomID, string(status), clampLimit(limit))
}

// Transition performs a compare-and-set status change. The WHERE clause
// carries the legal source states, so a concurrent transition can never
// double-apply.
func (r *SQLiteRepository) Transition(ctx context.Context, id string, to Status, from ...Status) error {
	if len(from) == 0 {
		return fmt.Errorf("%w: no source states", ErrInvalidTransition)
	}

	placeholders := strings.Repeat("?, ", len(from)-1) + "?"
	query := fmt.Sprintf(
		"UPDATE commands SET status = ?, updated_at = ? WHERE id = ? AND status IN (%s)",
		placeholders,
	)

	args := make([]any, 0, len(from)+3)
	args = append(args, string(to), time.Now().UTC().Format(time.RFC3339), id)
	for _, s := range from {
		args = append(args, string(s))
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transitioning command: %w", err)
	}
	return r.checkTransitionApplied(ctx, result, id, to)
}

// Reissue resets a FAILED command back to PENDING with a fresh issue time.
func (r *SQLiteRepository) Reissue(ctx context.Context, id string, issuedAt time.Time) error {
	query := `
		UPDATE commands SET status = ?, issued_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query,
		string(StatusPending),
		issuedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		id,
		string(StatusFailed),
	)
	if err != nil {
		return fmt.Errorf("reissuing command: %w", err)
	}
	return r.checkTransitionApplied(ctx, result, id, StatusPending)
}

// UpdateParams replaces the command's params document.
func (r *SQLiteRepository) UpdateParams(ctx context.Context, id string, params map[string]any) error {
	paramsJSON, err := marshalParams(params)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE commands SET params = ?, updated_at = ? WHERE id = ?`,
		paramsJSON,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating command params: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCommandNotFound
	}
	return nil
}

// Statistics aggregates a room's command outcomes in a single pass.
func (r *SQLiteRepository) Statistics(ctx context.Context, roomID string, since time.Time) (*Statistics, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN c.status = 'ACKNOWLEDGED' THEN 1 END),
			COUNT(CASE WHEN c.status = 'FAILED' THEN 1 END),
			COUNT(CASE WHEN c.status = 'PENDING' THEN 1 END),
			COUNT(CASE WHEN c.status = 'SENT' THEN 1 END)
		FROM commands c
		JOIN devices d ON d.id = c.device_id
		WHERE d.room_id = ? AND c.issued_at >= ?`

	var stats Statistics
	err := r.db.QueryRowContext(ctx, query, roomID, since.UTC().Format(time.RFC3339)).Scan(
		&stats.Total,
		&stats.Acknowledged,
		&stats.Failed,
		&stats.Pending,
		&stats.Sent,
	)
	if err != nil {
		return nil, fmt.Errorf("querying command statistics: %w", err)
	}

	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Acknowledged) / float64(stats.Total)
	}
	return &stats, nil
}

// DeleteOlderThan removes terminal commands issued before the cutoff.
// PENDING and SENT commands are kept regardless of age.
func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM commands WHERE issued_at < ? AND status IN (?, ?)`,
		cutoff.UTC().Format(time.RFC3339),
		string(StatusAcknowledged),
		string(StatusFailed),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old commands: %w", err)
	}
	return result.RowsAffected()
}

// checkTransitionApplied distinguishes "wrong state" from "no such command"
// after a zero-row conditional update.
func (r *SQLiteRepository) checkTransitionApplied(ctx context.Context, result sql.Result, id string, to Status) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var current string
	err = r.db.QueryRowContext(ctx, "SELECT status FROM commands WHERE id = ?", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCommandNotFound
	}
	if err != nil {
		return fmt.Errorf("checking command status: %w", err)
	}
	return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, current, to)
}

// queryCommands executes a query and returns a slice of commands.
func (r *SQLiteRepository) queryCommands(ctx context.Context, query string, args ...any) ([]Command, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying commands: %w", err)
	}
	defer rows.Close()

	var commands []Command
	for rows.Next() {
		c, scanErr := scanCommandRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning command: %w", scanErr)
		}
		commands = append(commands, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating commands: %w", err)
	}
	return commands, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 500 {
		return 500
	}
	return limit
}

// ─── Row Scanning Helpers ───────────────────────────────────────────────────

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCommandRow(scanner rowScanner) (*Command, error) {
	var c Command
	var params, ruleID sql.NullString
	var status, issuerKind string
	var issuedAt, updatedAt string

	err := scanner.Scan(
		&c.ID,
		&c.DeviceID,
		&c.Command,
		&params,
		&status,
		&c.IssuedBy,
		&issuerKind,
		&ruleID,
		&issuedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Status = Status(status)
	c.IssuerKind = IssuerKind(issuerKind)

	if ruleID.Valid {
		c.RuleID = &ruleID.String
	}
	if params.Valid && params.String != "" {
		if unmarshalErr := json.Unmarshal([]byte(params.String), &c.Params); unmarshalErr != nil {
			return nil, fmt.Errorf("parsing command params: %w", unmarshalErr)
		}
	}

	if t, parseErr := time.Parse(time.RFC3339, issuedAt); parseErr == nil {
		c.IssuedAt = t
	}
	if t, parseErr := time.Parse(time.RFC3339, updatedAt); parseErr == nil {
		c.UpdatedAt = t
	}

	return &c, nil
}

// ─── SQL Helpers ────────────────────────────────────────────────────────────

func marshalParams(params map[string]any) (sql.NullString, error) {
	if len(params) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding command params: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
