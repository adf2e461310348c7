package device

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates a temporary SQLite database with the devices schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE devices (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			type       TEXT NOT NULL,
			farm_id    TEXT NOT NULL,
			room_id    TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'offline',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

func seedDevice(id, roomID string) *Device {
	return &Device{
		ID:     id,
		Name:   "Device " + id,
		Type:   TypeFan,
		FarmID: "farm-1",
		RoomID: roomID,
	}
}

func TestSQLiteRepositoryCRUD(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		d := seedDevice("device-1", "room-1")
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		if d.Status != StatusOffline {
			t.Errorf("new device status = %s, want offline", d.Status)
		}

		got, err := repo.GetByID(ctx, "device-1")
		if err != nil {
			t.Fatalf("GetByID() error: %v", err)
		}
		if got.Name != "Device device-1" || got.Type != TypeFan || got.RoomID != "room-1" {
			t.Errorf("GetByID() = %+v", got)
		}
		if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
			t.Error("timestamps not round-tripped")
		}
	})

	t.Run("duplicate create", func(t *testing.T) {
		if err := repo.Create(ctx, seedDevice("device-1", "room-1")); !errors.Is(err, ErrDeviceExists) {
			t.Errorf("Create() error = %v, want ErrDeviceExists", err)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("GetByID() error = %v, want ErrDeviceNotFound", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		d, err := repo.GetByID(ctx, "device-1")
		if err != nil {
			t.Fatalf("GetByID() error: %v", err)
		}
		d.Name = "Renamed fan"
		d.RoomID = "room-2"

		if err := repo.Update(ctx, d); err != nil {
			t.Fatalf("Update() error: %v", err)
		}

		got, err := repo.GetByID(ctx, "device-1")
		if err != nil {
			t.Fatalf("GetByID() error: %v", err)
		}
		if got.Name != "Renamed fan" || got.RoomID != "room-2" {
			t.Errorf("after update = %+v", got)
		}
	})

	t.Run("update missing", func(t *testing.T) {
		if err := repo.Update(ctx, seedDevice("nope", "room-1")); !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("Update() error = %v, want ErrDeviceNotFound", err)
		}
	})

	t.Run("update status only", func(t *testing.T) {
		if err := repo.UpdateStatus(ctx, "device-1", StatusOnline); err != nil {
			t.Fatalf("UpdateStatus() error: %v", err)
		}
		got, err := repo.GetByID(ctx, "device-1")
		if err != nil {
			t.Fatalf("GetByID() error: %v", err)
		}
		if got.Status != StatusOnline {
			t.Errorf("status = %s, want online", got.Status)
		}
		if got.Name != "Renamed fan" {
			t.Errorf("UpdateStatus() touched name: %q", got.Name)
		}
	})

	t.Run("update status missing", func(t *testing.T) {
		if err := repo.UpdateStatus(ctx, "nope", StatusOnline); !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("UpdateStatus() error = %v, want ErrDeviceNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete(ctx, "device-1"); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		if _, err := repo.GetByID(ctx, "device-1"); !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("GetByID() after delete error = %v, want ErrDeviceNotFound", err)
		}
		if err := repo.Delete(ctx, "device-1"); !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("second Delete() error = %v, want ErrDeviceNotFound", err)
		}
	})
}

func TestSQLiteRepositoryListing(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	seed := []*Device{
		seedDevice("device-a", "room-1"),
		seedDevice("device-b", "room-1"),
		seedDevice("device-c", "room-2"),
	}
	other := seedDevice("device-d", "room-9")
	other.FarmID = "farm-2"
	seed = append(seed, other)

	for _, d := range seed {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create(%s) error: %v", d.ID, err)
		}
	}

	t.Run("list all", func(t *testing.T) {
		devices, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error: %v", err)
		}
		if len(devices) != 4 {
			t.Errorf("List() returned %d devices, want 4", len(devices))
		}
	})

	t.Run("list by room", func(t *testing.T) {
		devices, err := repo.ListByRoom(ctx, "room-1")
		if err != nil {
			t.Fatalf("ListByRoom() error: %v", err)
		}
		if len(devices) != 2 {
			t.Fatalf("ListByRoom() returned %d devices, want 2", len(devices))
		}
		for _, d := range devices {
			if d.RoomID != "room-1" {
				t.Errorf("device %s in room %s leaked into room-1 listing", d.ID, d.RoomID)
			}
		}
	})

	t.Run("list by farm", func(t *testing.T) {
		devices, err := repo.ListByFarm(ctx, "farm-1")
		if err != nil {
			t.Fatalf("ListByFarm() error: %v", err)
		}
		if len(devices) != 3 {
			t.Errorf("ListByFarm() returned %d devices, want 3", len(devices))
		}
	})

	t.Run("empty room", func(t *testing.T) {
		devices, err := repo.ListByRoom(ctx, "room-404")
		if err != nil {
			t.Fatalf("ListByRoom() error: %v", err)
		}
		if len(devices) != 0 {
			t.Errorf("ListByRoom() returned %d devices, want 0", len(devices))
		}
	})
}
