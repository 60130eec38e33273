// Package store owns the canonical project state. Readers get immutable
// snapshots through an atomic pointer; writers are serialized and publish a
// whole new snapshot per update.
package store

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/zulandar/planboard/internal/metrics"
	"github.com/zulandar/planboard/internal/models"
)

// Patch replaces one slice of a state copy. Apply receives a shallow clone
// whose maps are private to the update and may be written freely.
type Patch interface {
	Apply(next *models.ProjectState)
}

// BacklogPatch replaces the backlog. A nil backlog stands for a missing
// file and is stored as an empty one.
type BacklogPatch struct {
	Backlog *models.BacklogDocument
}

func (p BacklogPatch) Apply(next *models.ProjectState) {
	if p.Backlog == nil {
		next.Backlog = models.EmptyBacklog()
		return
	}
	next.Backlog = p.Backlog
}

// SummaryPatch sets or, when Summary is nil, removes a sprint summary.
type SummaryPatch struct {
	Sprint  int
	Summary *models.SprintSummary
}

func (p SummaryPatch) Apply(next *models.ProjectState) {
	if p.Summary == nil {
		delete(next.Summaries, p.Sprint)
		return
	}
	next.Summaries[p.Sprint] = p.Summary
}

// SpecPatch sets or, when Spec is nil, removes a role spec.
type SpecPatch struct {
	Role string
	Spec *models.SpecDoc
}

func (p SpecPatch) Apply(next *models.ProjectState) {
	if p.Spec == nil {
		delete(next.Specs, p.Role)
		return
	}
	next.Specs[p.Role] = p.Spec
}

// PromptPatch sets or, when Prompt is nil, removes prompt metadata.
type PromptPatch struct {
	Name   string
	Prompt *models.PromptDoc
}

func (p PromptPatch) Apply(next *models.ProjectState) {
	if p.Prompt == nil {
		delete(next.Prompts, p.Name)
		return
	}
	next.Prompts[p.Name] = p.Prompt
}

// FullPatch replaces every slice at once, as a full scan does.
type FullPatch struct {
	Backlog   *models.BacklogDocument
	Summaries map[int]*models.SprintSummary
	Specs     map[string]*models.SpecDoc
	Prompts   map[string]*models.PromptDoc
}

func (p FullPatch) Apply(next *models.ProjectState) {
	BacklogPatch{Backlog: p.Backlog}.Apply(next)
	next.Summaries = map[int]*models.SprintSummary{}
	for k, v := range p.Summaries {
		next.Summaries[k] = v
	}
	next.Specs = map[string]*models.SpecDoc{}
	for k, v := range p.Specs {
		next.Specs[k] = v
	}
	next.Prompts = map[string]*models.PromptDoc{}
	for k, v := range p.Prompts {
		next.Prompts[k] = v
	}
}

// Store holds the current snapshot.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[models.ProjectState]
	now     func() time.Time
}

// New creates a store seeded with initial, or with an empty state when
// initial is nil. The burndown is derived immediately.
func New(initial *models.ProjectState) *Store {
	s := &Store{now: time.Now}
	st := initial.ShallowClone()
	st.Burndown = metrics.ComputeBurndown(st)
	if st.LastUpdated.IsZero() {
		st.LastUpdated = s.now().UTC()
	}
	s.current.Store(st)
	return s
}

// Get returns the current snapshot. It never blocks and the returned value
// must not be modified.
func (s *Store) Get() *models.ProjectState {
	return s.current.Load()
}

// Replace applies p to a copy of the current snapshot, recomputes derived
// data, and publishes the result as the new snapshot.
func (s *Store) Replace(p Patch) *models.ProjectState {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Load().ShallowClone()
	p.Apply(next)
	next.Burndown = metrics.ComputeBurndown(next)
	next.Version++
	next.LastUpdated = s.now().UTC()
	s.current.Store(next)
	return next
}
