package models

import (
	"encoding/json"
	"maps"
	"slices"
	"time"
)

// BurndownPoint is one sample of remaining vs. completed story points.
type BurndownPoint struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Remaining int    `json:"remaining"`
	Completed int    `json:"completed"`
	Ideal     int    `json:"ideal"`
}

// ProjectState is the canonical project model. Snapshots handed out by the
// store are shared between readers and must be treated as read-only.
type ProjectState struct {
	Version     uint64
	Backlog     *BacklogDocument
	Summaries   map[int]*SprintSummary
	Specs       map[string]*SpecDoc
	Prompts     map[string]*PromptDoc
	Burndown    []BurndownPoint
	LastUpdated time.Time
}

// NewProjectState returns an empty state with every collection initialized.
func NewProjectState() *ProjectState {
	return &ProjectState{
		Backlog:   EmptyBacklog(),
		Summaries: map[int]*SprintSummary{},
		Specs:     map[string]*SpecDoc{},
		Prompts:   map[string]*PromptDoc{},
		Burndown:  []BurndownPoint{},
	}
}

// ShallowClone copies the state header and its maps. Values referenced by the
// maps are shared; callers replace them, never edit them.
func (s *ProjectState) ShallowClone() *ProjectState {
	if s == nil {
		return NewProjectState()
	}
	next := *s
	next.Summaries = maps.Clone(s.Summaries)
	next.Specs = maps.Clone(s.Specs)
	next.Prompts = maps.Clone(s.Prompts)
	if next.Summaries == nil {
		next.Summaries = map[int]*SprintSummary{}
	}
	if next.Specs == nil {
		next.Specs = map[string]*SpecDoc{}
	}
	if next.Prompts == nil {
		next.Prompts = map[string]*PromptDoc{}
	}
	if next.Backlog == nil {
		next.Backlog = EmptyBacklog()
	}
	return &next
}

// SortedSummaries returns summaries ordered by sprint number.
func (s *ProjectState) SortedSummaries() []*SprintSummary {
	keys := slices.Sorted(maps.Keys(s.Summaries))
	out := make([]*SprintSummary, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.Summaries[k])
	}
	return out
}

// SortedSpecs returns spec documents ordered by role.
func (s *ProjectState) SortedSpecs() []*SpecDoc {
	keys := slices.Sorted(maps.Keys(s.Specs))
	out := make([]*SpecDoc, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.Specs[k])
	}
	return out
}

// SortedPrompts returns prompt metadata ordered by name.
func (s *ProjectState) SortedPrompts() []*PromptDoc {
	keys := slices.Sorted(maps.Keys(s.Prompts))
	out := make([]*PromptDoc, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.Prompts[k])
	}
	return out
}

// wireState is the transport form: keyed collections travel as ordered lists
// and the receiver rebuilds its own index.
type wireState struct {
	Version     uint64           `json:"version"`
	Backlog     *BacklogDocument `json:"backlog"`
	Summaries   []*SprintSummary `json:"summaries"`
	Specs       []*SpecDoc       `json:"specs"`
	Prompts     []*PromptDoc     `json:"prompts"`
	Burndown    []BurndownPoint  `json:"burndown"`
	LastUpdated time.Time        `json:"lastUpdated"`
}

// MarshalJSON encodes the state in its list-based wire form.
func (s *ProjectState) MarshalJSON() ([]byte, error) {
	burndown := s.Burndown
	if burndown == nil {
		burndown = []BurndownPoint{}
	}
	backlog := s.Backlog
	if backlog == nil {
		backlog = EmptyBacklog()
	}
	return json.Marshal(wireState{
		Version:     s.Version,
		Backlog:     backlog,
		Summaries:   s.SortedSummaries(),
		Specs:       s.SortedSpecs(),
		Prompts:     s.SortedPrompts(),
		Burndown:    burndown,
		LastUpdated: s.LastUpdated,
	})
}

// UnmarshalJSON decodes the wire form and indexes the keyed lists.
func (s *ProjectState) UnmarshalJSON(data []byte) error {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	st := NewProjectState()
	st.Version = w.Version
	if w.Backlog != nil {
		st.Backlog = w.Backlog
	}
	for _, sum := range w.Summaries {
		if sum != nil {
			st.Summaries[sum.Sprint] = sum
		}
	}
	for _, spec := range w.Specs {
		if spec != nil {
			st.Specs[spec.Role] = spec
		}
	}
	for _, p := range w.Prompts {
		if p != nil {
			st.Prompts[p.Name] = p
		}
	}
	if w.Burndown != nil {
		st.Burndown = w.Burndown
	}
	st.LastUpdated = w.LastUpdated
	*s = *st
	return nil
}
