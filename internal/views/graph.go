package views

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/churnboard/internal/logging"
)

// ComputeFunc derives a view's output from the current inputs.
type ComputeFunc func(ctx context.Context, in Inputs) (any, error)

// View is a named output with a static set of input dependencies. Deps name
// filter dimensions or triggers.
type View struct {
	ID      string
	Deps    []string
	Compute ComputeFunc
}

type node struct {
	view   View
	deps   map[string]bool
	state  State
	output any
	err    error
	runs   int
	ok     bool
}

// Graph maps views to the inputs they read and recomputes only the views
// affected by a change. A Graph holds one session's state and is not safe for
// concurrent use; callers serialize access per session.
type Graph struct {
	nodes   []*node
	byID    map[string]*node
	inputs  Inputs
	timeout time.Duration
	log     *zap.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithTimeout bounds each view computation. Zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(g *Graph) { g.timeout = d } }

// WithLogger sets the logger used for recompute tracing.
func WithLogger(l *zap.Logger) Option { return func(g *Graph) { g.log = logging.OrNop(l) } }

// New creates an empty graph with the given initial inputs.
func New(initial Inputs, opts ...Option) *Graph {
	g := &Graph{byID: make(map[string]*node), inputs: initial.Clone(), log: zap.NewNop()}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Register adds a view in the Stale state.
func (g *Graph) Register(v View) error {
	if v.ID == "" {
		return errors.New("register view: empty id")
	}
	if v.Compute == nil {
		return fmt.Errorf("register view %s: nil compute", v.ID)
	}
	if _, dup := g.byID[v.ID]; dup {
		return fmt.Errorf("register view %s: duplicate id", v.ID)
	}
	n := &node{view: v, deps: make(map[string]bool, len(v.Deps)), state: Stale}
	for _, d := range v.Deps {
		n.deps[d] = true
	}
	g.nodes = append(g.nodes, n)
	g.byID[v.ID] = n
	return nil
}

// Inputs returns a copy of the current inputs.
func (g *Graph) Inputs() Inputs { return g.inputs.Clone() }

// Report describes one dispatch round.
type Report struct {
	Recomputed []string         `json:"recomputed"`
	Errors     map[string]error `json:"-"`
}

// Err joins the per-view errors, nil if every view succeeded.
func (r Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	ids := make([]string, 0, len(r.Errors))
	for id := range r.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	errs := make([]error, 0, len(ids))
	for _, id := range ids {
		errs = append(errs, r.Errors[id])
	}
	return errors.Join(errs...)
}

// SetFilter changes one filter dimension and recomputes the views that depend
// on it. Setting the current value again is a no-op.
func (g *Graph) SetFilter(ctx context.Context, dim, value string) Report {
	if cur, ok := g.inputs.Selection[dim]; ok && cur == value {
		return Report{}
	}
	if g.inputs.Selection == nil {
		g.inputs.Selection = map[string]string{}
	}
	g.inputs.Selection[dim] = value
	g.log.Debug("filter changed", zap.String("dim", dim), zap.String("value", value))
	return g.invalidate(ctx, dim)
}

// Trigger increments the named trigger count and recomputes its dependents.
func (g *Graph) Trigger(ctx context.Context, name string) Report {
	if g.inputs.Triggers == nil {
		g.inputs.Triggers = map[string]int{}
	}
	g.inputs.Triggers[name]++
	g.log.Debug("trigger fired", zap.String("trigger", name), zap.Int("count", g.inputs.Triggers[name]))
	return g.invalidate(ctx, name)
}

// Refresh recomputes every Stale view.
func (g *Graph) Refresh(ctx context.Context) Report {
	var targets []*node
	for _, n := range g.nodes {
		if n.state == Stale {
			targets = append(targets, n)
		}
	}
	return g.run(ctx, targets)
}

func (g *Graph) invalidate(ctx context.Context, input string) Report {
	var targets []*node
	for _, n := range g.nodes {
		if n.deps[input] {
			n.state = Stale
			targets = append(targets, n)
		}
	}
	return g.run(ctx, targets)
}

func (g *Graph) run(ctx context.Context, targets []*node) Report {
	rep := Report{Recomputed: []string{}}
	in := g.inputs.Clone()
	for _, n := range targets {
		rep.Recomputed = append(rep.Recomputed, n.view.ID)
		if err := g.compute(ctx, n, in); err != nil {
			if rep.Errors == nil {
				rep.Errors = map[string]error{}
			}
			rep.Errors[n.view.ID] = err
			g.log.Warn("view failed", zap.String("view", n.view.ID), zap.Error(err))
		}
	}
	return rep
}

type result struct {
	out any
	err error
}

// compute moves n through Stale→Computing→Fresh, or back to Stale on error.
// The previous output is kept when the computation fails.
func (g *Graph) compute(ctx context.Context, n *node, in Inputs) error {
	n.state = Computing
	n.runs++
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		out, err := n.view.Compute(ctx, in)
		done <- result{out: out, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}
	if res.err != nil {
		n.state = Stale
		if errors.Is(res.err, context.DeadlineExceeded) && g.timeout > 0 {
			n.err = &ComputationTimeoutError{View: n.view.ID, Timeout: g.timeout}
		} else {
			n.err = &ViewError{View: n.view.ID, Err: res.err}
		}
		return n.err
	}
	n.output = res.out
	n.ok = true
	n.err = nil
	n.state = Fresh
	return nil
}

// State returns the state of view id.
func (g *Graph) State(id string) (State, bool) {
	n, ok := g.byID[id]
	if !ok {
		return Stale, false
	}
	return n.state, true
}

// Output returns the last successfully computed output of view id.
func (g *Graph) Output(id string) (any, bool) {
	n, ok := g.byID[id]
	if !ok {
		return nil, false
	}
	return n.output, n.ok
}

// Err returns the last computation error of view id.
func (g *Graph) Err(id string) error {
	if n, ok := g.byID[id]; ok {
		return n.err
	}
	return nil
}

// Runs returns how many times view id has been computed.
func (g *Graph) Runs(id string) int {
	if n, ok := g.byID[id]; ok {
		return n.runs
	}
	return 0
}

// Entry is one view in a Snapshot.
type Entry struct {
	ID     string   `json:"id"`
	Deps   []string `json:"deps"`
	State  State    `json:"state"`
	Output any      `json:"output"`
	Error  string   `json:"error,omitempty"`
}

// Snapshot lists every view in registration order.
func (g *Graph) Snapshot() []Entry {
	out := make([]Entry, 0, len(g.nodes))
	for _, n := range g.nodes {
		e := Entry{ID: n.view.ID, Deps: append([]string{}, n.view.Deps...), State: n.state, Output: n.output}
		if n.err != nil {
			e.Error = n.err.Error()
		}
		out = append(out, e)
	}
	return out
}
