package views

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/churnboard/internal/filter"
)

// State is the lifecycle state of a view.
type State int

const (
	Stale State = iota
	Computing
	Fresh
)

func (s State) String() string {
	switch s {
	case Computing:
		return "computing"
	case Fresh:
		return "fresh"
	default:
		return "stale"
	}
}

// MarshalText renders the state name in JSON output.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Inputs is everything a view may read: the filter selection and the number
// of times each trigger (e.g. a "more insights" action) has fired.
type Inputs struct {
	Selection filter.Selection `json:"selection"`
	Triggers  map[string]int   `json:"triggers,omitempty"`
}

// Count returns how often trigger name has fired.
func (in Inputs) Count(name string) int { return in.Triggers[name] }

// Clone returns a deep copy so computations never observe later changes.
func (in Inputs) Clone() Inputs {
	out := Inputs{Selection: in.Selection.Clone(), Triggers: make(map[string]int, len(in.Triggers))}
	for k, v := range in.Triggers {
		out.Triggers[k] = v
	}
	return out
}

// ComputationTimeoutError reports a view that did not finish within the
// configured budget. The view stays Stale.
type ComputationTimeoutError struct {
	View    string
	Timeout time.Duration
}

func (e *ComputationTimeoutError) Error() string {
	return fmt.Sprintf("view %s: computation exceeded %s", e.View, e.Timeout)
}

// ViewError wraps a failed computation of one view.
type ViewError struct {
	View string
	Err  error
}

func (e *ViewError) Error() string { return fmt.Sprintf("view %s: %v", e.View, e.Err) }

func (e *ViewError) Unwrap() error { return e.Err }
