// Package dashboard binds the telecom dashboard's views to the dependency graph.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/churnboard/internal/dataset"
	"github.com/KaramelBytes/churnboard/internal/filter"
	"github.com/KaramelBytes/churnboard/internal/logging"
	"github.com/KaramelBytes/churnboard/internal/views"
)

// MoreInsights is the trigger gating the extended insight view.
const MoreInsights = "more_insights"

var (
	// ErrUnknownDimension is returned when a filter names a dimension no view reads.
	ErrUnknownDimension = errors.New("unknown filter dimension")
	// ErrUnknownTrigger is returned for any trigger other than MoreInsights.
	ErrUnknownTrigger = errors.New("unknown trigger")
)

// Dashboard holds the shared base table and builds per-session graphs.
type Dashboard struct {
	table    *dataset.Table
	timeout  time.Duration
	log      *zap.Logger
	defaults filter.Selection
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithTimeout bounds every view computation.
func WithTimeout(d time.Duration) Option { return func(db *Dashboard) { db.timeout = d } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(db *Dashboard) { db.log = logging.OrNop(l) } }

// WithDefaults sets selections applied to new sessions before first-category defaults.
func WithDefaults(sel filter.Selection) Option {
	return func(db *Dashboard) { db.defaults = sel.Clone() }
}

// New creates a dashboard over t. t is never mutated.
func New(t *dataset.Table, opts ...Option) *Dashboard {
	d := &Dashboard{table: t, defaults: filter.Selection{}, log: zap.NewNop()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Table returns the shared base table.
func (d *Dashboard) Table() *dataset.Table { return d.table }

// Dimensions lists the filter dimensions views depend on.
func (d *Dashboard) Dimensions() []string {
	if d.table.CategoryColumn() == dataset.ColContract {
		return []string{dataset.ColContract}
	}
	return []string{d.table.CategoryColumn(), dataset.ColContract}
}

// Domains returns the selectable values per dimension, All first.
func (d *Dashboard) Domains() map[string][]string {
	out := make(map[string][]string)
	for _, dim := range d.Dimensions() {
		out[dim] = append([]string{filter.All}, d.table.Categories(dim)...)
	}
	return out
}

func (d *Dashboard) isDimension(dim string) bool {
	for _, x := range d.Dimensions() {
		if x == dim {
			return true
		}
	}
	return false
}

// Session is one user's isolated dashboard state. Methods are safe for
// concurrent use; calls on one session are serialized.
type Session struct {
	mu    sync.Mutex
	d     *Dashboard
	graph *views.Graph
}

// NewSession resolves sel against the defaults, registers every view and
// computes them once. An empty value counts as unset.
func (d *Dashboard) NewSession(ctx context.Context, sel filter.Selection) (*Session, views.Report, error) {
	merged := filter.Selection{}
	for k, v := range sel {
		if !d.isDimension(k) {
			return nil, views.Report{}, fmt.Errorf("%w: %s", ErrUnknownDimension, k)
		}
		merged[k] = v
	}
	for _, dim := range d.Dimensions() {
		if merged[dim] == "" {
			merged[dim] = d.defaultFor(dim)
		}
	}
	for dim, v := range merged {
		d.warnUnknown(dim, v)
	}

	g := views.New(views.Inputs{Selection: merged, Triggers: map[string]int{MoreInsights: 0}},
		views.WithTimeout(d.timeout), views.WithLogger(d.log))
	for _, v := range d.Views() {
		if err := g.Register(v); err != nil {
			return nil, views.Report{}, err
		}
	}
	rep := g.Refresh(ctx)
	return &Session{d: d, graph: g}, rep, nil
}

// defaultFor is the value an unset dimension takes: the configured default,
// else the first observed category for the category column and All otherwise.
func (d *Dashboard) defaultFor(dim string) string {
	if v := d.defaults[dim]; v != "" {
		return v
	}
	if dim == d.table.CategoryColumn() {
		return filter.Resolve(nil, []string{dim}, d.table)[dim]
	}
	return filter.All
}

func (d *Dashboard) warnUnknown(dim, value string) {
	if !filter.Known(d.table, dim, value) {
		d.log.Debug("selection outside the data domain; views will report empty results",
			zap.String("dim", dim), zap.String("value", value))
	}
}

// SetFilter changes one dimension and recomputes its dependent views. An
// empty value restores the dimension's default, as in NewSession.
func (s *Session) SetFilter(ctx context.Context, dim, value string) (views.Report, error) {
	if !s.d.isDimension(dim) {
		return views.Report{}, fmt.Errorf("%w: %s", ErrUnknownDimension, dim)
	}
	if value == "" {
		value = s.d.defaultFor(dim)
	}
	s.d.warnUnknown(dim, value)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.SetFilter(ctx, dim, value), nil
}

// Trigger fires MoreInsights; other names are rejected.
func (s *Session) Trigger(ctx context.Context, name string) (views.Report, error) {
	if name != MoreInsights {
		return views.Report{}, fmt.Errorf("%w: %s", ErrUnknownTrigger, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Trigger(ctx, name), nil
}

// Refresh retries every Stale view, e.g. after a timeout.
func (s *Session) Refresh(ctx context.Context) views.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Refresh(ctx)
}

// Snapshot returns the current inputs and every view entry.
func (s *Session) Snapshot() (views.Inputs, []views.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Inputs(), s.graph.Snapshot()
}

// Output returns the last output of a view.
func (s *Session) Output(id string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Output(id)
}

// Runs reports how many times a view has been computed in this session.
func (s *Session) Runs(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Runs(id)
}
