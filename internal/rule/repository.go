package rule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for rule persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// Rule CRUD
	GetByID(ctx context.Context, id string) (*Rule, error)
	ListByRoom(ctx context.Context, roomID string) ([]Rule, error)
	ListByParameter(ctx context.Context, roomID string, param Parameter) ([]Rule, error)
	ListEnabledByRoom(ctx context.Context, roomID string) ([]Rule, error)
	Create(ctx context.Context, r *Rule) error
	Update(ctx context.Context, r *Rule) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	Delete(ctx context.Context, id string) error

	// Execution logging
	CreateExecution(ctx context.Context, exec *Execution) error
	ListExecutions(ctx context.Context, ruleID string, limit int) ([]Execution, error)
}

// ruleColumns is the SELECT column list for rule queries.
const ruleColumns = `id, room_id, name, parameter, comparison, threshold, action,
			target_device_id, enabled, created_by, created_at, updated_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a rule by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM automation_rules WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	rule, err := scanRuleRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("querying rule by id: %w", err)
	}
	return rule, nil
}

// ListByRoom retrieves all rules for a room.
func (r *SQLiteRepository) ListByRoom(ctx context.Context, roomID string) ([]Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM automation_rules WHERE room_id = ? ORDER BY created_at, id`
	return r.queryRules(ctx, query, roomID)
}

// ListByParameter retrieves a room's rules watching one sensor parameter.
func (r *SQLiteRepository) ListByParameter(ctx context.Context, roomID string, param Parameter) ([]Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM automation_rules WHERE room_id = ? AND parameter = ? ORDER BY created_at, id`
	return r.queryRules(ctx, query, roomID, string(param))
}

// ListEnabledByRoom retrieves the enabled rules for a room.
// This is the evaluation-path query; disabled rules are never evaluated.
func (r *SQLiteRepository) ListEnabledByRoom(ctx context.Context, roomID string) ([]Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM automation_rules WHERE room_id = ? AND enabled = 1 ORDER BY created_at, id`
	return r.queryRules(ctx, query, roomID)
}

// Create inserts a new rule.
func (r *SQLiteRepository) Create(ctx context.Context, rule *Rule) error {
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	query := `
		INSERT INTO automation_rules (
			id, room_id, name, parameter, comparison, threshold, action,
			target_device_id, enabled, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rule.ID,
		rule.RoomID,
		rule.Name,
		string(rule.Parameter),
		string(rule.Comparator),
		rule.Threshold,
		rule.ActionCommand,
		rule.ActionDeviceID,
		boolToInt(rule.Enabled),
		rule.CreatedBy,
		rule.CreatedAt.Format(time.RFC3339),
		rule.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrRuleExists
		}
		return fmt.Errorf("inserting rule: %w", err)
	}
	return nil
}

// Update modifies an existing rule.
func (r *SQLiteRepository) Update(ctx context.Context, rule *Rule) error {
	rule.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE automation_rules SET
			name = ?, parameter = ?, comparison = ?, threshold = ?,
			action = ?, target_device_id = ?, enabled = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		rule.Name,
		string(rule.Parameter),
		string(rule.Comparator),
		rule.Threshold,
		rule.ActionCommand,
		rule.ActionDeviceID,
		boolToInt(rule.Enabled),
		rule.UpdatedAt.Format(time.RFC3339),
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("updating rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// SetEnabled toggles a rule without touching its other fields.
func (r *SQLiteRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	query := `UPDATE automation_rules SET enabled = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		boolToInt(enabled),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("toggling rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// Delete removes a rule by ID. Execution history cascades with the rule;
// historical commands are untouched.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM automation_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// CreateExecution inserts a new execution record.
func (r *SQLiteRepository) CreateExecution(ctx context.Context, exec *Execution) error {
	query := `
		INSERT INTO rule_executions (
			id, rule_id, command_id, triggered_at, sensor_value, success, detail
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		exec.ID,
		exec.RuleID,
		nullableString(exec.CommandID),
		exec.TriggeredAt.Format(time.RFC3339),
		nullableFloat(exec.SensorValue),
		boolToInt(exec.Success),
		nullableString(exec.Detail),
	)
	if err != nil {
		return fmt.Errorf("inserting execution: %w", err)
	}
	return nil
}

// ListExecutions retrieves recent executions for a rule, newest first.
func (r *SQLiteRepository) ListExecutions(ctx context.Context, ruleID string, limit int) ([]Execution, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	query := `
		SELECT id, rule_id, command_id, triggered_at, sensor_value, success, detail
		FROM rule_executions
		WHERE rule_id = ?
		ORDER BY triggered_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, ruleID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying executions: %w", err)
	}
	defer rows.Close()

	var executions []Execution
	for rows.Next() {
		exec, scanErr := scanExecutionRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning execution: %w", scanErr)
		}
		executions = append(executions, *exec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating executions: %w", err)
	}
	return executions, nil
}

// queryRules executes a query and returns a slice of rules.
func (r *SQLiteRepository) queryRules(ctx context.Context, query string, args ...any) ([]Rule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		rule, scanErr := scanRuleRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning rule: %w", scanErr)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules: %w", err)
	}
	return rules, nil
}

// ─── Row Scanning Helpers ───────────────────────────────────────────────────

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRuleRow(scanner rowScanner) (*Rule, error) {
	var r Rule
	var parameter, comparator string
	var enabled int
	var createdAt, updatedAt string

	err := scanner.Scan(
		&r.ID,
		&r.RoomID,
		&r.Name,
		&parameter,
		&comparator,
		&r.Threshold,
		&r.ActionCommand,
		&r.ActionDeviceID,
		&enabled,
		&r.CreatedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Parameter = Parameter(parameter)
	r.Comparator = Comparator(comparator)
	r.Enabled = enabled != 0

	if t, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
		r.CreatedAt = t
	}
	if t, parseErr := time.Parse(time.RFC3339, updatedAt); parseErr == nil {
		r.UpdatedAt = t
	}

	return &r, nil
}

func scanExecutionRow(scanner rowScanner) (*Execution, error) {
	var e Execution
	var commandID, detail sql.NullString
	var sensorValue sql.NullFloat64
	var triggeredAt string
	var success int

	err := scanner.Scan(
		&e.ID,
		&e.RuleID,
		&commandID,
		&triggeredAt,
		&sensorValue,
		&success,
		&detail,
	)
	if err != nil {
		return nil, err
	}

	if commandID.Valid {
		e.CommandID = &commandID.String
	}
	if detail.Valid {
		e.Detail = &detail.String
	}
	if sensorValue.Valid {
		e.SensorValue = &sensorValue.Float64
	}
	e.Success = success != 0

	if t, parseErr := time.Parse(time.RFC3339, triggeredAt); parseErr == nil {
		e.TriggeredAt = t
	}

	return &e, nil
}

// ─── SQL Helpers ────────────────────────────────────────────────────────────

func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
