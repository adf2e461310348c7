package rule

import (
	"context"
	"fmt"
)

// RoomAccess is the authorization interface consumed by the service.
type RoomAccess interface {
	HasAccessToRoom(ctx context.Context, roomID, userID string) (bool, error)
}

// DeviceLookup resolves a device to its room for the same-room invariant.
type DeviceLookup interface {
	// GetDeviceRoom returns the room a device belongs to.
	GetDeviceRoom(ctx context.Context, deviceID string) (string, error)
}

// ActionValidator checks a rule's raw action against the command catalog.
// Implemented by the command package.
type ActionValidator interface {
	ValidateAction(raw string) error
}

// Service exposes user-facing rule management.
//
// Every mutation checks room access and validates the rule, including the
// same-room invariant for the action device and the action command against
// the catalog. Validation failures never partially apply a mutation.
type Service struct {
	repo    Repository
	access  RoomAccess
	devices DeviceLookup
	actions ActionValidator
	logger  Logger
}

// NewService creates a new rule service.
func NewService(repo Repository, access RoomAccess, devices DeviceLookup, actions ActionValidator, logger Logger) *Service {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Service{
		repo:    repo,
		access:  access,
		devices: devices,
		actions: actions,
		logger:  logger,
	}
}

// Get retrieves a rule the user has access to.
func (s *Service) Get(ctx context.Context, userID, ruleID string) (*Rule, error) {
	r, err := s.repo.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(ctx, r.RoomID, userID); err != nil {
		return nil, err
	}
	return r, nil
}

// ListByRoom retrieves all rules in a room the user has access to.
func (s *Service) ListByRoom(ctx context.Context, userID, roomID string) ([]Rule, error) {
	if err := s.checkAccess(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByRoom(ctx, roomID)
}

// ListByParameter retrieves a room's rules watching one sensor parameter.
func (s *Service) ListByParameter(ctx context.Context, userID, roomID string, param Parameter) ([]Rule, error) {
	if _, _, ok := ThresholdRange(param); !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidParameter, param)
	}
	if err := s.checkAccess(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByParameter(ctx, roomID, param)
}

// Create validates and persists a new rule. The caller becomes the rule's
// creator and the issuer for its rule-triggered commands.
func (s *Service) Create(ctx context.Context, userID string, r *Rule) (*Rule, error) {
	if r == nil {
		return nil, ErrInvalidRule
	}
	if err := s.checkAccess(ctx, r.RoomID, userID); err != nil {
		return nil, err
	}

	if r.ID == "" {
		r.ID = GenerateID()
	}
	r.CreatedBy = userID

	if err := s.validate(ctx, r); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("rule created",
		"rule_id", r.ID,
		"room_id", r.RoomID,
		"parameter", r.Parameter,
		"created_by", userID,
	)
	return r, nil
}

// Update validates and persists changes to an existing rule.
// The rule's room and creator are immutable; incoming values are ignored.
func (s *Service) Update(ctx context.Context, userID string, r *Rule) (*Rule, error) {
	if r == nil || r.ID == "" {
		return nil, ErrInvalidRule
	}

	existing, err := s.repo.GetByID(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(ctx, existing.RoomID, userID); err != nil {
		return nil, err
	}

	r.RoomID = existing.RoomID
	r.CreatedBy = existing.CreatedBy
	r.CreatedAt = existing.CreatedAt

	if err := s.validate(ctx, r); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("rule updated", "rule_id", r.ID, "room_id", r.RoomID)
	return r, nil
}

// SetEnabled toggles a rule. Disabled rules are never evaluated.
func (s *Service) SetEnabled(ctx context.Context, userID, ruleID string, enabled bool) (*Rule, error) {
	existing, err := s.repo.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(ctx, existing.RoomID, userID); err != nil {
		return nil, err
	}

	if err := s.repo.SetEnabled(ctx, ruleID, enabled); err != nil {
		return nil, err
	}

	existing.Enabled = enabled
	s.logger.Info("rule toggled", "rule_id", ruleID, "enabled", enabled)
	return existing, nil
}

// Delete removes a rule. Historical commands issued by the rule are untouched.
func (s *Service) Delete(ctx context.Context, userID, ruleID string) error {
	existing, err := s.repo.GetByID(ctx, ruleID)
	if err != nil {
		return err
	}
	if err := s.checkAccess(ctx, existing.RoomID, userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, ruleID); err != nil {
		return err
	}

	s.logger.Info("rule deleted", "rule_id", ruleID, "room_id", existing.RoomID)
	return nil
}

// ListExecutions retrieves recent firings for a rule the user has access to.
func (s *Service) ListExecutions(ctx context.Context, userID, ruleID string, limit int) ([]Execution, error) {
	existing, err := s.repo.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(ctx, existing.RoomID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListExecutions(ctx, ruleID, limit)
}

// validate runs structural validation plus the cross-entity checks that need
// collaborators: action catalog membership and the same-room invariant.
func (s *Service) validate(ctx context.Context, r *Rule) error {
	if err := ValidateRule(r); err != nil {
		return err
	}

	if err := s.actions.ValidateAction(r.ActionCommand); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}

	deviceRoom, err := s.devices.GetDeviceRoom(ctx, r.ActionDeviceID)
	if err != nil {
		return fmt.Errorf("resolving action device %q: %w", r.ActionDeviceID, err)
	}
	if deviceRoom != r.RoomID {
		return ErrDeviceRoomMismatch
	}

	return nil
}

func (s *Service) checkAccess(ctx context.Context, roomID, userID string) error {
	ok, err := s.access.HasAccessToRoom(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("checking room access: %w", err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}
