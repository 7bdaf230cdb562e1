package harness

import (
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/collabevents/internal/domain"
)

// TraceSnapshot captures the complete trace for a scenario execution.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// MarshalTrace renders a scenario trace as canonical JSON. This is the
// golden file format.
func MarshalTrace(scenarioName string, trace []TraceEvent) ([]byte, error) {
	s := TraceSnapshot{ScenarioName: scenarioName, Trace: trace}
	m, err := s.toCanonicalMap()
	if err != nil {
		return nil, err
	}
	return domain.MarshalCanonical(m)
}

// toCanonicalMap converts the snapshot to the plain values accepted by
// domain.MarshalCanonical. Empty fields are omitted.
func (s *TraceSnapshot) toCanonicalMap() (map[string]any, error) {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"type": event.Type,
			"seq":  event.Seq,
		}
		if event.Action != "" {
			eventMap["action"] = event.Action
		}
		if event.Actor != 0 {
			eventMap["actor"] = event.Actor
		}
		if event.Args != nil {
			args, err := canonicalValue(event.Args)
			if err != nil {
				return nil, fmt.Errorf("trace[%d].args: %w", i, err)
			}
			eventMap["args"] = args
		}
		if event.Case != "" {
			eventMap["case"] = event.Case
		}
		if event.Result != nil {
			result, err := canonicalValue(event.Result)
			if err != nil {
				return nil, fmt.Errorf("trace[%d].result: %w", i, err)
			}
			eventMap["result"] = result
		}
		if event.Type == TraceChange {
			eventMap["user_id"] = event.UserID
			eventMap["change_type"] = event.ChangeType
			eventMap["event_id"] = event.EventID
			if event.Version != 0 {
				eventMap["version"] = event.Version
			}
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}, nil
}

// canonicalValue normalizes YAML- and engine-produced values: timestamps
// become RFC 3339 strings and integral floats become integers.
func canonicalValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string, bool, int, int64:
		return val, nil
	case float64:
		if n, ok := toInt64(val); ok {
			return n, nil
		}
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	case time.Time:
		return formatTime(val), nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			c, err := canonicalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = c
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			c, err := canonicalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = c
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
