package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// RoomAccessStore defines the interface for room access persistence.
type RoomAccessStore interface {
	HasAccessToRoom(ctx context.Context, roomID, userID string) (bool, error)
	Grant(ctx context.Context, userID, roomID string) error
	Revoke(ctx context.Context, userID, roomID string) error
	ListRooms(ctx context.Context, userID string) ([]string, error)
}

// SQLiteRoomAccess implements RoomAccessStore over the user_room_access
// table. It is the single authorization gate shared by the rule service,
// the command dispatcher, and the HTTP layer.
type SQLiteRoomAccess struct {
	db *sql.DB
}

// NewRoomAccess creates a new SQLite-backed room access store.
func NewRoomAccess(db *sql.DB) *SQLiteRoomAccess {
	return &SQLiteRoomAccess{db: db}
}

// HasAccessToRoom reports whether a user holds a grant for a room.
func (r *SQLiteRoomAccess) HasAccessToRoom(ctx context.Context, roomID, userID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM user_room_access WHERE user_id = ? AND room_id = ?",
		userID, roomID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking room access: %w", err)
	}
	return true, nil
}

// Grant gives a user access to a room. Granting twice is a no-op.
func (r *SQLiteRoomAccess) Grant(ctx context.Context, userID, roomID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO user_room_access (user_id, room_id, granted_at) VALUES (?, ?, ?)",
		userID, roomID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint") {
			return nil
		}
		return fmt.Errorf("granting room access: %w", err)
	}
	return nil
}

// Revoke removes a user's access to a room.
func (r *SQLiteRoomAccess) Revoke(ctx context.Context, userID, roomID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM user_room_access WHERE user_id = ? AND room_id = ?",
		userID, roomID,
	)
	if err != nil {
		return fmt.Errorf("revoking room access: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrGrantNotFound
	}
	return nil
}

// ListRooms returns the room IDs a user can access, sorted.
func (r *SQLiteRoomAccess) ListRooms(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT room_id FROM user_room_access WHERE user_id = ? ORDER BY room_id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing accessible rooms: %w", err)
	}
	defer rows.Close()

	var roomIDs []string
	for rows.Next() {
		var roomID string
		if err := rows.Scan(&roomID); err != nil {
			return nil, fmt.Errorf("scanning room ID: %w", err)
		}
		roomIDs = append(roomIDs, roomID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating room IDs: %w", err)
	}

	if roomIDs == nil {
		roomIDs = []string{}
	}
	return roomIDs, nil
}
