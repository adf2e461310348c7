// Package rule provides the threshold automation engine for Farm Core.
//
// Rules are per-room conditions (parameter, comparator, threshold) bound to
// an action device and command. When a sensor reading arrives, the engine
// evaluates every enabled rule in the reading's room and dispatches the
// actions of those that trigger.
//
// # Key Types
//
//   - Rule: a threshold condition with an action device and command
//   - Reading: one timestamped sensor measurement, possibly partial
//   - Execution: audit record of one rule firing
//   - Engine: evaluation orchestrator, invoked on reading arrival
//   - Service: user-facing CRUD with room-access and validation checks
//
// # Evaluation Semantics
//
// Evaluation is stateless and pure: a missing parameter value never triggers
// a rule, EQ comparisons use a 0.01 tolerance, and disabled rules are never
// evaluated. Rules within a pass are independent; they run concurrently and
// a failure (or panic) in one rule is isolated from its siblings. The engine
// returns every triggered rule ID regardless of dispatch outcome.
//
// # Usage
//
//	repo := rule.NewSQLiteRepository(db.DB)
//	engine := rule.NewEngine(repo, dispatcher, log)
//
//	triggered, err := engine.Evaluate(ctx, reading)
package rule
