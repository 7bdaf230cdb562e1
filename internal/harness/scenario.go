package harness

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of engine calls with expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Options configures the engine under test.
	Options Options `yaml:"options,omitempty"`

	// Setup establishes initial state. Every setup step must succeed.
	Setup []ActionStep `yaml:"setup,omitempty"`

	// Flow is the main sequence. Steps may expect a failure case.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Options are engine settings for a scenario run.
type Options struct {
	RollbackConflictCheck bool `yaml:"rollback_conflict_check"`
}

// ActionStep is a setup call.
type ActionStep struct {
	// Action is one of the Action* constants.
	Action string `yaml:"action"`

	// As is the acting principal's ID.
	As int64 `yaml:"as"`

	// Args are the action arguments.
	Args map[string]any `yaml:"args"`
}

// FlowStep is a flow call with an optional expectation.
type FlowStep struct {
	Invoke string         `yaml:"invoke"`
	As     int64          `yaml:"as"`
	Args   map[string]any `yaml:"args"`

	// Expect validates the completion. If nil the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected completion.
type ExpectClause struct {
	// Case is "ok" or an error kind such as "conflict".
	Case string `yaml:"case"`

	// Result is matched against the completion result with subset
	// semantics: maps may carry extra keys, lists must match in length.
	Result any `yaml:"result,omitempty"`

	// Details is matched against the error details (subset).
	Details map[string]string `yaml:"details,omitempty"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Action is used by trace_contains and trace_count.
	Action string `yaml:"action,omitempty"`

	// Args are matched with subset semantics by trace_contains.
	Args map[string]any `yaml:"args,omitempty"`

	// Actions is the expected order for trace_order.
	Actions []string `yaml:"actions,omitempty"`

	// Count is the expected number of matches for trace_count and
	// change_count.
	Count int `yaml:"count,omitempty"`

	// ChangeType and User filter change_count. Zero values match all.
	ChangeType string `yaml:"change_type,omitempty"`
	User       int64  `yaml:"user,omitempty"`

	// Table, Where and Expect drive final_state.
	Table  string         `yaml:"table,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertChangeCount   = "change_count"
	AssertFinalState    = "final_state"
)

// Actions a step may invoke.
const (
	ActionCreate        = "create"
	ActionUpdate        = "update"
	ActionShare         = "share"
	ActionRollback      = "rollback"
	ActionGet           = "get"
	ActionList          = "list"
	ActionHistory       = "history"
	ActionDiff          = "diff"
	ActionNotifications = "notifications"
	ActionMarkRead      = "mark_read"
)

var knownActions = map[string]bool{
	ActionCreate: true, ActionUpdate: true, ActionShare: true, ActionRollback: true,
	ActionGet: true, ActionList: true, ActionHistory: true, ActionDiff: true,
	ActionNotifications: true, ActionMarkRead: true,
}

var knownCases = map[string]bool{
	CaseOK: true, "not_found": true, "forbidden": true, "conflict": true,
	"validation": true, "storage_failure": true,
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos like "assertion:" fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validIdentifier matches table and column names usable in final_state.
// Identifiers cannot be bound as SQL parameters, so they are whitelisted.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step.Action, step.As); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(step.Invoke, step.As); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if step.Expect != nil {
			if step.Expect.Case == "" {
				return fmt.Errorf("flow[%d].expect: case is required", i)
			}
			if !knownCases[step.Expect.Case] {
				return fmt.Errorf("flow[%d].expect: unknown case %q", i, step.Expect.Case)
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(action string, as int64) error {
	if action == "" {
		return fmt.Errorf("action is required")
	}
	if !knownActions[action] {
		return fmt.Errorf("unknown action %q", action)
	}
	if as <= 0 {
		return fmt.Errorf("as must be a positive user id")
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertChangeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for change_count", index)
		}
	case AssertFinalState:
		if !validIdentifier.MatchString(a.Table) {
			return fmt.Errorf("assertions[%d]: invalid table name %q for final_state", index, a.Table)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
