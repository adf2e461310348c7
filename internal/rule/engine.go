package rule

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger is the logging interface consumed by this package.
// Compatible with logging.Logger and slog.Logger.
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

// Dispatcher is the interface the engine uses to act on a triggered rule.
// It is implemented by the command dispatcher, which creates a command
// record and attempts delivery.
type Dispatcher interface {
	// DispatchRuleAction creates and sends a command for a triggered rule.
	// issuedBy is the rule's creator, recorded as the fallback issuer.
	// Returns the created command's ID; a non-empty ID with a non-nil error
	// means the command was recorded but delivery failed.
	DispatchRuleAction(ctx context.Context, ruleID, deviceID, rawAction, issuedBy string) (string, error)
}

// Engine evaluates a room's enabled rules against incoming sensor readings.
//
// One reading produces one evaluation pass over the room's enabled rules.
// Rules are independent: they are evaluated concurrently, a dispatch failure
// on one rule never prevents evaluation of its siblings, and a panic inside
// one rule's evaluation is recovered and isolated.
//
// Thread Safety: Evaluate is safe for concurrent use.
type Engine struct {
	repo       Repository
	dispatcher Dispatcher
	logger     Logger
}

// NewEngine creates a new rule engine.
func NewEngine(repo Repository, dispatcher Dispatcher, logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Evaluate runs all enabled rules for the reading's room and dispatches the
// actions of those that trigger.
//
// The returned slice contains the IDs of every triggered rule, including
// rules whose dispatch failed, so the caller can distinguish "logic fired"
// from "delivery succeeded". Order is not defined.
func (e *Engine) Evaluate(ctx context.Context, reading *Reading) ([]string, error) {
	if reading == nil {
		return nil, fmt.Errorf("%w: nil reading", ErrInvalidRule)
	}
	if reading.RoomID == "" {
		return nil, fmt.Errorf("%w: reading has no room", ErrInvalidRule)
	}

	rules, err := e.repo.ListEnabledByRoom(ctx, reading.RoomID)
	if err != nil {
		return nil, fmt.Errorf("loading rules for room %q: %w", reading.RoomID, err)
	}
	if len(rules) == 0 {
		return nil, nil
	}

	var (
		mu        sync.Mutex
		triggered []string
		wg        sync.WaitGroup
	)

	for i := range rules {
		wg.Add(1)
		go func(r Rule) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					e.logger.Error("rule evaluation panic recovered",
						"rule_id", r.ID,
						"room_id", r.RoomID,
						"panic", rec,
					)
				}
			}()

			if !Evaluate(&r, reading) {
				return
			}

			mu.Lock()
			triggered = append(triggered, r.ID)
			mu.Unlock()

			e.dispatch(ctx, &r, reading)
		}(rules[i])
	}

	wg.Wait()

	if len(triggered) > 0 {
		e.logger.Info("rules triggered",
			"room_id", reading.RoomID,
			"device_id", reading.DeviceID,
			"count", len(triggered),
		)
	}

	return triggered, nil
}

// dispatch sends a triggered rule's action and records the execution.
// Dispatch errors are logged, never propagated: failure isolation per rule.
func (e *Engine) dispatch(ctx context.Context, r *Rule, reading *Reading) {
	exec := &Execution{
		ID:          GenerateID(),
		RuleID:      r.ID,
		TriggeredAt: time.Now().UTC(),
		SensorValue: ExtractValue(reading, r.Parameter),
	}

	commandID, err := e.dispatcher.DispatchRuleAction(ctx, r.ID, r.ActionDeviceID, r.ActionCommand, r.CreatedBy)
	if commandID != "" {
		exec.CommandID = &commandID
	}
	if err != nil {
		detail := err.Error()
		exec.Detail = &detail
		e.logger.Warn("rule dispatch failed",
			"rule_id", r.ID,
			"device_id", r.ActionDeviceID,
			"error", err,
		)
	} else {
		exec.Success = true
		e.logger.Debug("rule dispatched",
			"rule_id", r.ID,
			"device_id", r.ActionDeviceID,
			"command_id", commandID,
		)
	}

	// Execution logging is best-effort; the dispatch outcome stands either way
	if logErr := e.repo.CreateExecution(ctx, exec); logErr != nil {
		e.logger.Error("failed to record rule execution",
			"rule_id", r.ID,
			"error", logErr,
		)
	}
}
