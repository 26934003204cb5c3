package harness

// TraceEvent records one applied step and the registry it left behind.
type TraceEvent struct {
	Step     int      `json:"step"`
	Op       string   `json:"op"`
	Filter   string   `json:"filter,omitempty"` // constraint notation
	Attr     string   `json:"attr,omitempty"`
	Cube     string   `json:"cube,omitempty"` // hypercube of Filter
	Registry []string `json:"registry"`       // cubes after the step, insertion order
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success.
	// True if every step applied and every assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Generation is the generation token of the final registry.
	Generation string `json:"generation,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStepTrace appends the trace of one step.
func (r *Result) AddStepTrace(event TraceEvent) {
	if event.Registry == nil {
		event.Registry = []string{}
	}
	r.Trace = append(r.Trace, event)
}
