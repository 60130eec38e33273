// Package query answers read-only questions about the current project
// snapshot. Nothing here triggers a reparse.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zulandar/planboard/internal/metrics"
	"github.com/zulandar/planboard/internal/models"
)

// ErrNotFound reports a missing sprint, summary or spec.
var ErrNotFound = errors.New("not found")

// ErrInvalidFilter reports an unknown ticket status filter.
var ErrInvalidFilter = errors.New("invalid filter")

// DefaultScreensRole is the spec role whose screens section feeds Screens.
const DefaultScreensRole = "frontend"

// Source supplies snapshots.
type Source interface {
	Get() *models.ProjectState
}

// SpecErrors reports the last structured-parse failure for a spec role.
type SpecErrors interface {
	SpecError(role string) error
}

// Opts holds parameters for creating a Reader.
type Opts struct {
	Source      Source
	SpecErrors  SpecErrors // optional
	ScreensRole string     // defaults to DefaultScreensRole
}

// Reader serves queries from the latest snapshot.
type Reader struct {
	source      Source
	specErrors  SpecErrors
	screensRole string
	metrics     *typedCache[metrics.Metrics]
}

// New creates a Reader.
func New(opts Opts) *Reader {
	role := opts.ScreensRole
	if role == "" {
		role = DefaultScreensRole
	}
	return &Reader{
		source:      opts.Source,
		specErrors:  opts.SpecErrors,
		screensRole: role,
		metrics:     newTypedCache[metrics.Metrics](DefaultExpiration, DefaultCleanupInterval),
	}
}

// State returns the full snapshot.
func (r *Reader) State() *models.ProjectState {
	return r.source.Get()
}

// Sprints returns every sprint in document order.
func (r *Reader) Sprints() []models.Sprint {
	st := r.source.Get()
	if st.Backlog == nil || st.Backlog.Sprints == nil {
		return []models.Sprint{}
	}
	return st.Backlog.Sprints
}

// Sprint returns the sprint numbered n.
func (r *Reader) Sprint(n int) (*models.Sprint, error) {
	sp, ok := r.source.Get().Backlog.SprintByNumber(n)
	if !ok {
		return nil, fmt.Errorf("sprint %d: %w", n, ErrNotFound)
	}
	return sp, nil
}

// SprintSummary returns the execution summary of sprint n.
func (r *Reader) SprintSummary(n int) (*models.SprintSummary, error) {
	sum, ok := r.source.Get().Summaries[n]
	if !ok {
		return nil, fmt.Errorf("summary for sprint %d: %w", n, ErrNotFound)
	}
	return sum, nil
}

// TicketRow is a ticket flattened out of its sprint. Bugs carry sprint 0
// and Bug set.
type TicketRow struct {
	models.Ticket
	Sprint int  `json:"sprint"`
	Bug    bool `json:"bug,omitempty"`
}

// TicketFilter narrows Tickets.
type TicketFilter struct {
	Status      string // empty matches every status
	IncludeBugs bool
}

// Tickets returns every sprint ticket, plus bugs when requested, in
// document order.
func (r *Reader) Tickets(f TicketFilter) ([]TicketRow, error) {
	status := models.TicketStatus(strings.ToLower(strings.TrimSpace(f.Status)))
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", f.Status, ErrInvalidFilter)
	}
	match := func(t models.Ticket) bool { return status == "" || t.Status == status }

	rows := []TicketRow{}
	st := r.source.Get()
	if st.Backlog == nil {
		return rows, nil
	}
	for _, sp := range st.Backlog.Sprints {
		for _, t := range sp.Tickets {
			if match(t) {
				rows = append(rows, TicketRow{Ticket: t, Sprint: sp.Number})
			}
		}
	}
	if f.IncludeBugs {
		for _, t := range st.Backlog.Bugs {
			if match(t) {
				rows = append(rows, TicketRow{Ticket: t, Bug: true})
			}
		}
	}
	return rows, nil
}

// Specs returns every spec ordered by role.
func (r *Reader) Specs() []*models.SpecDoc {
	return r.source.Get().SortedSpecs()
}

// Spec returns the spec for role. When the most recent load of that role
// failed to parse, the parse error is returned instead.
func (r *Reader) Spec(role string) (*models.SpecDoc, error) {
	if r.specErrors != nil {
		if err := r.specErrors.SpecError(role); err != nil {
			return nil, err
		}
	}
	spec, ok := r.source.Get().Specs[role]
	if !ok {
		return nil, fmt.Errorf("spec %q: %w", role, ErrNotFound)
	}
	return spec, nil
}

// Prompts returns prompt metadata ordered by name.
func (r *Reader) Prompts() []*models.PromptDoc {
	return r.source.Get().SortedPrompts()
}

// Screens returns the UI screens of the designated spec. When that spec
// is missing or lists none, the first spec (by role) that lists screens is
// used.
func (r *Reader) Screens() []models.Screen {
	st := r.source.Get()
	if spec, ok := st.Specs[r.screensRole]; ok && len(spec.Screens) > 0 {
		return spec.Screens
	}
	for _, spec := range st.SortedSpecs() {
		if len(spec.Screens) > 0 {
			return spec.Screens
		}
	}
	return []models.Screen{}
}

// Burndown returns the burndown series.
func (r *Reader) Burndown() []models.BurndownPoint {
	b := r.source.Get().Burndown
	if b == nil {
		return []models.BurndownPoint{}
	}
	return b
}

// Stats returns backlog statistics.
func (r *Reader) Stats() metrics.Stats {
	return r.Metrics().Stats
}

// Metrics returns the aggregate metrics, computed once per snapshot version.
func (r *Reader) Metrics() metrics.Metrics {
	st := r.source.Get()
	key := strconv.FormatUint(st.Version, 10)
	if m, ok := r.metrics.Get(key); ok {
		return m
	}
	m := metrics.Aggregate(st)
	r.metrics.Set(key, m)
	return m
}
