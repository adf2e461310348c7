package device

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides device management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups.
//
// The cache matters on the hot paths: every sensor reading resolves its
// device, and every dispatched command resolves its target's location for
// the topic. Neither should touch the database per message.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by cache-invalidating CRUD operations.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Device // Cached devices by ID
	cacheMu sync.RWMutex       // Protects cache
	logger  Logger
}

// NewRegistry creates a new device registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Device),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all devices from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Device, len(devices))
	for i := range devices {
		d := devices[i]
		r.cache[d.ID] = d.DeepCopy()
	}

	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// GetDevice retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
// The returned device is a deep copy; callers can safely modify it.
func (r *Registry) GetDevice(ctx context.Context, id string) (*Device, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if ok {
		return cached.DeepCopy(), nil
	}

	// Fall back to repository (might be a new device not yet cached)
	d, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = d.DeepCopy()
	r.cacheMu.Unlock()

	return d, nil
}

// GetDeviceRoom returns the room a device belongs to.
// Satisfies the rule engine's device lookup.
func (r *Registry) GetDeviceRoom(ctx context.Context, id string) (string, error) {
	d, err := r.GetDevice(ctx, id)
	if err != nil {
		return "", err
	}
	return d.RoomID, nil
}

// GetDeviceLocation returns the farm and room a device belongs to.
// Satisfies the command dispatcher's device directory.
func (r *Registry) GetDeviceLocation(ctx context.Context, id string) (farmID, roomID string, err error) {
	d, err := r.GetDevice(ctx, id)
	if err != nil {
		return "", "", err
	}
	return d.FarmID, d.RoomID, nil
}

// ListDevices retrieves all devices.
// The returned devices are deep copies; callers can safely modify them.
func (r *Registry) ListDevices(ctx context.Context) ([]Device, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		devices := make([]Device, 0, len(r.cache))
		for _, d := range r.cache {
			devices = append(devices, *d.DeepCopy())
		}
		r.cacheMu.RUnlock()
		return devices, nil
	}
	r.cacheMu.RUnlock()

	return r.repo.List(ctx)
}

// ListByRoom retrieves the devices installed in a room.
func (r *Registry) ListByRoom(ctx context.Context, roomID string) ([]Device, error) {
	return r.repo.ListByRoom(ctx, roomID)
}

// CreateDevice validates and persists a new device, then caches it.
func (r *Registry) CreateDevice(ctx context.Context, d *Device) error {
	if err := validateDevice(d); err != nil {
		return err
	}

	if err := r.repo.Create(ctx, d); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[d.ID] = d.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("device created",
		"device_id", d.ID,
		"type", d.Type,
		"farm_id", d.FarmID,
		"room_id", d.RoomID,
	)
	return nil
}

// UpdateDevice validates and persists changes, then refreshes the cache entry.
func (r *Registry) UpdateDevice(ctx context.Context, d *Device) error {
	if err := validateDevice(d); err != nil {
		return err
	}

	if err := r.repo.Update(ctx, d); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[d.ID] = d.DeepCopy()
	r.cacheMu.Unlock()

	return nil
}

// SetStatus records a device's reachability, keeping the cache in sync.
// Called from the MQTT status topic handler.
func (r *Registry) SetStatus(ctx context.Context, id string, status ConnectionStatus) error {
	if err := r.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	r.cacheMu.Lock()
	if cached, ok := r.cache[id]; ok {
		cached.Status = status
	}
	r.cacheMu.Unlock()

	r.logger.Debug("device status changed", "device_id", id, "status", status)
	return nil
}

// DeleteDevice removes a device and evicts it from the cache.
func (r *Registry) DeleteDevice(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.logger.Info("device deleted", "device_id", id)
	return nil
}

// validateDevice checks the fields every device must carry.
func validateDevice(d *Device) error {
	if d == nil {
		return ErrInvalidDevice
	}
	if d.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDevice)
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidDevice)
	}
	if d.FarmID == "" || d.RoomID == "" {
		return fmt.Errorf("%w: farm_id and room_id are required", ErrInvalidDevice)
	}

	valid := false
	for _, t := range AllTypes() {
		if d.Type == t {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDevice, d.Type)
	}
	return nil
}
