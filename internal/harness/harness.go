package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/collabevents/internal/apperr"
	"github.com/roach88/collabevents/internal/engine"
	"github.com/roach88/collabevents/internal/store"
	"github.com/roach88/collabevents/internal/testutil"
)

// clockStart is the first timestamp handed out by the scenario clock.
var clockStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness executes one scenario against a real engine.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	emitter *testutil.RecordingEmitter
	seq     int64
}

// Run executes a scenario and returns its result.
//
// Each scenario runs against a fresh in-memory database with a
// deterministic clock and change IDs, so identical scenarios produce
// identical traces.
//
// Execution flow:
// 1. Create fresh in-memory database and engine
// 2. Execute setup steps (each must succeed)
// 3. Execute flow steps, checking expect clauses
// 4. Evaluate assertions against the trace and final state
//
// The returned error covers infrastructure and setup failures only;
// unmet expectations are reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	rec := &testutil.RecordingEmitter{}
	eng := engine.New(st, rec,
		engine.WithClock(testutil.NewDeterministicClock(clockStart, time.Minute)),
		engine.WithChangeIDs(testutil.NewSequenceIDs("change")),
		engine.WithRollbackConflictCheck(scenario.Options.RollbackConflictCheck),
	)

	h := &Harness{store: st, engine: eng, emitter: rec}
	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Setup {
		outputCase, err := h.step(ctx, step.Action, step.As, step.Args, result)
		if err != nil {
			return nil, fmt.Errorf("setup step %d (%s): %w", i, step.Action, err)
		}
		if outputCase != CaseOK {
			return nil, fmt.Errorf("setup step %d (%s): completed with %s", i, step.Action, outputCase)
		}
	}

	for i, step := range scenario.Flow {
		outputCase, err := h.step(ctx, step.Invoke, step.As, step.Args, result)
		if err != nil {
			return nil, fmt.Errorf("flow step %d (%s): %w", i, step.Invoke, err)
		}
		h.checkExpect(i, step, outputCase, result)
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// step runs one call and appends its invocation, completion and changes to
// the trace. It returns the completion case. Engine errors with a kind are
// outcomes, not failures; only malformed arguments return an error.
func (h *Harness) step(ctx context.Context, action string, actor int64, args map[string]any, result *Result) (string, error) {
	if err := rejectNulls(args); err != nil {
		return "", err
	}

	h.seq++
	result.AddInvocationTrace(action, actor, args, h.seq)

	out, err := h.invoke(ctx, action, actor, args)
	var argErr *argumentError
	if errors.As(err, &argErr) {
		return "", argErr
	}

	outputCase := CaseOK
	if err != nil {
		outputCase = string(apperr.KindOf(err))
		if outputCase == "" {
			outputCase = string(apperr.KindStorage)
		}
		out = detailsResult(apperr.DetailsOf(err))
	}

	h.seq++
	result.AddCompletionTrace(outputCase, out, h.seq)

	for _, c := range h.emitter.Changes() {
		h.seq++
		result.AddChangeTrace(c.UserID, string(c.Type), c.EventID, c.Version, h.seq)
	}
	h.emitter.Reset()

	return outputCase, nil
}

func (h *Harness) checkExpect(index int, step FlowStep, outputCase string, result *Result) {
	expected := CaseOK
	if step.Expect != nil {
		expected = step.Expect.Case
	}

	var completion TraceEvent
	for i := len(result.Trace) - 1; i >= 0; i-- {
		if result.Trace[i].Type == TraceCompletion {
			completion = result.Trace[i]
			break
		}
	}

	if outputCase != expected {
		result.AddError(fmt.Sprintf("flow[%d] %s: expected case %q, got %q (result: %v)",
			index, step.Invoke, expected, outputCase, completion.Result))
		return
	}
	if step.Expect == nil {
		return
	}

	if step.Expect.Result != nil && !matchValue(completion.Result, step.Expect.Result) {
		result.AddError(fmt.Sprintf("flow[%d] %s: result mismatch\n  Expected: %v\n  Actual: %v",
			index, step.Invoke, step.Expect.Result, completion.Result))
	}
	if len(step.Expect.Details) > 0 {
		expected := make(map[string]any, len(step.Expect.Details))
		for k, v := range step.Expect.Details {
			expected[k] = v
		}
		if !matchValue(completion.Result, expected) {
			result.AddError(fmt.Sprintf("flow[%d] %s: details mismatch\n  Expected: %v\n  Actual: %v",
				index, step.Invoke, step.Expect.Details, completion.Result))
		}
	}
}

func detailsResult(details map[string]string) any {
	if len(details) == 0 {
		return nil
	}
	out := make(map[string]any, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}
