package rule

import (
	"context"
	"errors"
	"testing"
	"time"
)

// ─── Mocks ──────────────────────────────────────────────────────────────────

type mockAccess struct {
	allowed map[string]bool // "roomID/userID"
	err     error
}

func (m *mockAccess) HasAccessToRoom(_ context.Context, roomID, userID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.allowed[roomID+"/"+userID], nil
}

type mockDeviceLookup struct {
	rooms map[string]string
}

func (m *mockDeviceLookup) GetDeviceRoom(_ context.Context, deviceID string) (string, error) {
	room, ok := m.rooms[deviceID]
	if !ok {
		return "", errors.New("device: not found")
	}
	return room, nil
}

type mockActionValidator struct {
	err error
}

func (m *mockActionValidator) ValidateAction(string) error { return m.err }

func newTestService(t *testing.T) (*Service, *SQLiteRepository) {
	t.Helper()
	repo := NewSQLiteRepository(setupTestDB(t))
	access := &mockAccess{allowed: map[string]bool{
		"room-1/user-1": true,
	}}
	devices := &mockDeviceLookup{rooms: map[string]string{
		"device-1":     "room-1",
		"device-other": "room-2",
	}}
	svc := NewService(repo, access, devices, &mockActionValidator{}, nil)
	return svc, repo
}

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates with generated ID and caller as creator", func(t *testing.T) {
		svc, _ := newTestService(t)
		r := testRule("")
		r.CreatedBy = "someone-else" // Must be overwritten

		created, err := svc.Create(ctx, "user-1", r)
		if err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		if created.ID == "" {
			t.Error("Create() left ID empty")
		}
		if created.CreatedBy != "user-1" {
			t.Errorf("CreatedBy = %q, want user-1", created.CreatedBy)
		}
	})

	t.Run("denied without room access", func(t *testing.T) {
		svc, _ := newTestService(t)
		r := testRule("")
		if _, err := svc.Create(ctx, "stranger", r); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Create() = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("rejects device in another room", func(t *testing.T) {
		svc, _ := newTestService(t)
		r := testRule("")
		r.ActionDeviceID = "device-other"
		if _, err := svc.Create(ctx, "user-1", r); !errors.Is(err, ErrDeviceRoomMismatch) {
			t.Errorf("Create() = %v, want ErrDeviceRoomMismatch", err)
		}
	})

	t.Run("rejects unknown device", func(t *testing.T) {
		svc, _ := newTestService(t)
		r := testRule("")
		r.ActionDeviceID = "device-missing"
		if _, err := svc.Create(ctx, "user-1", r); err == nil {
			t.Error("Create() error = nil, want device resolution error")
		}
	})

	t.Run("rejects invalid threshold", func(t *testing.T) {
		svc, _ := newTestService(t)
		r := testRule("")
		r.Parameter = ParamHumidity
		r.Threshold = 100.5
		if _, err := svc.Create(ctx, "user-1", r); !errors.Is(err, ErrThresholdOutOfRange) {
			t.Errorf("Create() = %v, want ErrThresholdOutOfRange", err)
		}
	})

	t.Run("rejects action outside catalog", func(t *testing.T) {
		repo := NewSQLiteRepository(setupTestDB(t))
		access := &mockAccess{allowed: map[string]bool{"room-1/user-1": true}}
		devices := &mockDeviceLookup{rooms: map[string]string{"device-1": "room-1"}}
		actions := &mockActionValidator{err: errors.New("command: unknown command")}
		svc := NewService(repo, access, devices, actions, nil)

		if _, err := svc.Create(ctx, "user-1", testRule("")); !errors.Is(err, ErrInvalidRule) {
			t.Errorf("Create() = %v, want ErrInvalidRule", err)
		}
	})
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("room and creator are immutable", func(t *testing.T) {
		svc, repo := newTestService(t)
		created, err := svc.Create(ctx, "user-1", testRule(""))
		if err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		originalCreated := created.CreatedAt

		update := created.DeepCopy()
		update.Name = "Renamed"
		update.RoomID = "room-hijack"
		update.CreatedBy = "attacker"
		update.CreatedAt = time.Now().Add(time.Hour)

		got, err := svc.Update(ctx, "user-1", update)
		if err != nil {
			t.Fatalf("Update() error: %v", err)
		}
		if got.RoomID != "room-1" || got.CreatedBy != "user-1" {
			t.Errorf("immutable fields changed: room=%q creator=%q", got.RoomID, got.CreatedBy)
		}
		if !got.CreatedAt.Equal(originalCreated) {
			t.Errorf("CreatedAt changed: %v, want %v", got.CreatedAt, originalCreated)
		}

		stored, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetByID() error: %v", err)
		}
		if stored.Name != "Renamed" {
			t.Errorf("Name = %q, want Renamed", stored.Name)
		}
	})

	t.Run("missing rule", func(t *testing.T) {
		svc, _ := newTestService(t)
		r := testRule("nope")
		if _, err := svc.Update(ctx, "user-1", r); !errors.Is(err, ErrRuleNotFound) {
			t.Errorf("Update() = %v, want ErrRuleNotFound", err)
		}
	})

	t.Run("denied without room access", func(t *testing.T) {
		svc, _ := newTestService(t)
		created, err := svc.Create(ctx, "user-1", testRule(""))
		if err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		if _, err := svc.Update(ctx, "stranger", created); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Update() = %v, want ErrUnauthorized", err)
		}
	})
}

func TestServiceSetEnabledAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	created, err := svc.Create(ctx, "user-1", testRule(""))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	t.Run("toggle off", func(t *testing.T) {
		got, err := svc.SetEnabled(ctx, "user-1", created.ID, false)
		if err != nil {
			t.Fatalf("SetEnabled() error: %v", err)
		}
		if got.Enabled {
			t.Error("SetEnabled(false) returned enabled rule")
		}
		stored, _ := repo.GetByID(ctx, created.ID)
		if stored.Enabled {
			t.Error("toggle not persisted")
		}
	})

	t.Run("toggle denied without access", func(t *testing.T) {
		if _, err := svc.SetEnabled(ctx, "stranger", created.ID, true); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("SetEnabled() = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("delete denied without access", func(t *testing.T) {
		if err := svc.Delete(ctx, "stranger", created.ID); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Delete() = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := svc.Delete(ctx, "user-1", created.ID); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		if _, err := repo.GetByID(ctx, created.ID); !errors.Is(err, ErrRuleNotFound) {
			t.Errorf("GetByID(deleted) = %v, want ErrRuleNotFound", err)
		}
	})
}

func TestServiceListExecutions(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	created, err := svc.Create(ctx, "user-1", testRule(""))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	exec := &Execution{
		ID:          GenerateID(),
		RuleID:      created.ID,
		TriggeredAt: time.Now().UTC(),
		Success:     true,
	}
	if err := repo.CreateExecution(ctx, exec); err != nil {
		t.Fatalf("CreateExecution() error: %v", err)
	}

	execs, err := svc.ListExecutions(ctx, "user-1", created.ID, 10)
	if err != nil {
		t.Fatalf("ListExecutions() error: %v", err)
	}
	if len(execs) != 1 {
		t.Errorf("ListExecutions() returned %d, want 1", len(execs))
	}

	if _, err := svc.ListExecutions(ctx, "stranger", created.ID, 10); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ListExecutions() = %v, want ErrUnauthorized", err)
	}
}
