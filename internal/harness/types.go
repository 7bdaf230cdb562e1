package harness

// Trace event types.
const (
	TraceInvocation = "invocation"
	TraceCompletion = "completion"
	TraceChange     = "change"
)

// CaseOK is the completion case of a step that returned no error. Failed
// steps complete with their error kind (not_found, forbidden, ...).
const CaseOK = "ok"

// TraceEvent is one entry of a scenario trace: an engine call, its
// outcome, or a live change emitted by the call.
type TraceEvent struct {
	Type   string `json:"type"` // invocation, completion or change
	Seq    int64  `json:"seq"`
	Action string `json:"action,omitempty"`
	Actor  int64  `json:"actor,omitempty"`
	Args   any    `json:"args,omitempty"`
	Case   string `json:"case,omitempty"`
	Result any    `json:"result,omitempty"`

	// Change fields.
	UserID     int64  `json:"user_id,omitempty"`
	ChangeType string `json:"change_type,omitempty"`
	EventID    int64  `json:"event_id,omitempty"`
	Version    int    `json:"version,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds invocations, completions and changes in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists every failed expectation. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddInvocationTrace appends an engine call.
func (r *Result) AddInvocationTrace(action string, actor int64, args map[string]any, seq int64) {
	ev := TraceEvent{Type: TraceInvocation, Action: action, Actor: actor, Seq: seq}
	if len(args) > 0 {
		ev.Args = args
	}
	r.Trace = append(r.Trace, ev)
}

// AddCompletionTrace appends the outcome of the preceding invocation.
func (r *Result) AddCompletionTrace(outputCase string, result any, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   TraceCompletion,
		Case:   outputCase,
		Result: result,
		Seq:    seq,
	})
}

// AddChangeTrace appends a live change delivered by the preceding call.
func (r *Result) AddChangeTrace(userID int64, changeType string, eventID int64, version int, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:       TraceChange,
		UserID:     userID,
		ChangeType: changeType,
		EventID:    eventID,
		Version:    version,
		Seq:        seq,
	})
}
