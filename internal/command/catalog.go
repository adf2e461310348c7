package command

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// commandSpec describes one catalog entry.
type commandSpec struct {
	requiredParams []string
}

// catalog is the allow-list of device commands. Anything outside it is
// rejected at issue time, before a record is created.
var catalog = map[string]commandSpec{
	"turn_on":             {},
	"turn_off":            {},
	"set_temperature":     {requiredParams: []string{"temperature"}},
	"set_humidity":        {requiredParams: []string{"humidity"}},
	"set_light_intensity": {requiredParams: []string{"intensity"}},
	"start_irrigation":    {},
	"stop_irrigation":     {},
	"get_status":          {},
	"restart":             {},
	"calibrate":           {},
}

// KnownCommands returns the catalog's command names, sorted.
func KnownCommands() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateCommand checks a command name and its params against the catalog.
func ValidateCommand(name string, params map[string]any) error {
	spec, ok := catalog[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	for _, required := range spec.requiredParams {
		if _, present := params[required]; !present {
			return fmt.Errorf("%w: %q requires %q", ErrMissingParam, name, required)
		}
	}
	return nil
}

// Action is a parsed rule action: the command to issue and its params.
type Action struct {
	Command string         `json:"command"`
	Params  map[string]any `json:"params,omitempty"`
}

// ParseAction parses a rule's raw action string.
//
// Two forms are accepted: a bare command name ("turn_on"), or a JSON
// document ({"command": "set_temperature", "params": {"temperature": 22}})
// for commands that carry parameters. The parsed action is validated
// against the catalog.
func ParseAction(raw string) (*Action, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty action", ErrInvalidAction)
	}

	var action Action
	if strings.HasPrefix(raw, "{") {
		if err := json.Unmarshal([]byte(raw), &action); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
		if action.Command == "" {
			return nil, fmt.Errorf("%w: missing command field", ErrInvalidAction)
		}
	} else {
		action.Command = raw
	}

	if err := ValidateCommand(action.Command, action.Params); err != nil {
		return nil, err
	}
	return &action, nil
}

// Validator adapts the catalog for callers that validate raw action
// strings without issuing anything, such as rule validation.
type Validator struct{}

// ValidateAction checks that a raw rule action parses and names a catalog
// command with its required params.
func (Validator) ValidateAction(raw string) error {
	_, err := ParseAction(raw)
	return err
}
