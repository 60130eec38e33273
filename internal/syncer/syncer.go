// Package syncer keeps the state store in step with the project files. A
// single event loop applies classified changes, periodic resyncs and
// watcher errors in arrival order, then broadcasts the result.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zulandar/planboard/internal/classify"
	"github.com/zulandar/planboard/internal/hub"
	"github.com/zulandar/planboard/internal/logging"
	"github.com/zulandar/planboard/internal/models"
	"github.com/zulandar/planboard/internal/parser"
	"github.com/zulandar/planboard/internal/store"
	"github.com/zulandar/planboard/internal/watch"
)

// EventResync names updates produced by a full rescan.
const EventResync = "resync"

// Opts holds parameters for creating a Service.
type Opts struct {
	Classifier classify.Classifier
	Store      *store.Store
	Hub        *hub.Hub // optional; nil disables broadcasting
	Parser     parser.Options
	ResyncCron string       // empty disables periodic resync
	Logger     *slog.Logger // defaults to logging.Logger()

	// ReadFile defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)
}

// Service is the synchronization service.
type Service struct {
	classifier classify.Classifier
	store      *store.Store
	hub        *hub.Hub
	parserOpts parser.Options
	schedule   cron.Schedule
	log        *slog.Logger
	readFile   func(string) ([]byte, error)

	// mu serializes loads; summaryPaths remembers which sprint each
	// summary file fed so a removal can clear it.
	mu           sync.Mutex
	summaryPaths map[string]int

	errMu      sync.RWMutex
	specErrors map[string]error
}

// New creates a Service.
func New(opts Opts) (*Service, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("syncer: store is required")
	}
	sched, err := parseSchedule(opts.ResyncCron)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logging.Logger()
	}
	readFile := opts.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	return &Service{
		classifier:   opts.Classifier,
		store:        opts.Store,
		hub:          opts.Hub,
		parserOpts:   opts.Parser,
		schedule:     sched,
		log:          log.With("component", "syncer"),
		readFile:     readFile,
		summaryPaths: map[string]int{},
		specErrors:   map[string]error{},
	}, nil
}

// SpecError returns the structured-parse error recorded for role by the
// most recent load of its spec file, or nil.
func (s *Service) SpecError(role string) error {
	s.errMu.RLock()
	defer s.errMu.RUnlock()
	return s.specErrors[role]
}

func (s *Service) setSpecError(role string, err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if err == nil {
		delete(s.specErrors, role)
		return
	}
	s.specErrors[role] = err
}

// Run processes changes, watcher errors and scheduled resyncs until ctx is
// cancelled. Either channel may be nil.
func (s *Service) Run(ctx context.Context, changes <-chan watch.Change, watchErrs <-chan error) error {
	var (
		timer  *time.Timer
		resync <-chan time.Time
	)
	if s.schedule != nil {
		timer = time.NewTimer(nextDelay(s.schedule, time.Now()))
		defer timer.Stop()
		resync = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ch, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			s.Apply(ch)
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			s.log.Warn("watcher error", "error", err)
			s.broadcastError("watch", "", err)
		case <-resync:
			st := s.Load()
			s.broadcastUpdate(EventResync, s.classifier.Dir("."), st)
			timer.Reset(nextDelay(s.schedule, time.Now()))
		}
	}
}

// Apply reloads one changed artifact. It reports whether the store was
// updated (and an update broadcast).
func (s *Service) Apply(ch watch.Change) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	patch, ok := s.load(ch)
	if !ok {
		return false
	}
	st := s.store.Replace(patch)
	s.log.Info("state updated", "kind", ch.Kind, "path", ch.Path, "version", st.Version)
	s.broadcastUpdate(string(ch.Kind), ch.Path, st)
	return true
}

// load reads and parses one artifact and returns the patch to apply.
func (s *Service) load(ch watch.Change) (store.Patch, bool) {
	if ch.Kind == classify.KindBacklog && !s.classifier.IsBacklog(ch.Path) {
		s.log.Debug("ignoring backlog change outside the backlog path", "path", ch.Path)
		return nil, false
	}
	var data []byte
	if !ch.Removed {
		b, err := s.readFile(ch.Path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			ch.Removed = true
		case err != nil:
			s.log.Error("read failed", "kind", ch.Kind, "path", ch.Path, "error", err)
			s.broadcastError(string(ch.Kind), ch.Path, fmt.Errorf("syncer: read %s: %w", ch.Path, err))
			return nil, false
		default:
			data = b
		}
	}

	switch ch.Kind {
	case classify.KindBacklog:
		if ch.Removed {
			return store.BacklogPatch{}, true
		}
		return store.BacklogPatch{Backlog: parser.ParseBacklog(string(data), s.parserOpts)}, true

	case classify.KindSprintSummary:
		return s.summaryPatch(ch, data)

	case classify.KindSpec:
		role := classify.Key(ch.Path)
		if ch.Removed {
			s.setSpecError(role, nil)
			return store.SpecPatch{Role: role}, true
		}
		spec, err := parser.ParseSpec(role, ch.Path, string(data), s.parserOpts)
		if err != nil {
			s.log.Warn("spec parse failed", "role", role, "path", ch.Path, "error", err)
			s.setSpecError(role, err)
			return nil, false
		}
		s.setSpecError(role, nil)
		return store.SpecPatch{Role: role, Spec: spec}, true

	case classify.KindPrompt:
		name := classify.Key(ch.Path)
		if ch.Removed {
			return store.PromptPatch{Name: name}, true
		}
		return store.PromptPatch{Name: name, Prompt: parser.ParsePrompt(name, ch.Path, string(data))}, true
	}
	return nil, false
}

// summaryPatch handles a summary file. A file whose sprint number changed
// clears its previous entry in the same update.
func (s *Service) summaryPatch(ch watch.Change, data []byte) (store.Patch, bool) {
	prev, hadPrev := s.summaryPaths[ch.Path]
	if ch.Removed {
		if !hadPrev {
			return nil, false
		}
		delete(s.summaryPaths, ch.Path)
		return store.SummaryPatch{Sprint: prev}, true
	}

	sum, ok := parser.ParseSprintSummary(ch.Path, string(data))
	if !ok {
		s.log.Debug("summary has no sprint number", "path", ch.Path)
		if !hadPrev {
			return nil, false
		}
		delete(s.summaryPaths, ch.Path)
		return store.SummaryPatch{Sprint: prev}, true
	}
	s.summaryPaths[ch.Path] = sum.Sprint
	if hadPrev && prev != sum.Sprint {
		return multiPatch{store.SummaryPatch{Sprint: prev}, store.SummaryPatch{Sprint: sum.Sprint, Summary: sum}}, true
	}
	return store.SummaryPatch{Sprint: sum.Sprint, Summary: sum}, true
}

// multiPatch applies several patches as one update.
type multiPatch []store.Patch

func (m multiPatch) Apply(next *models.ProjectState) {
	for _, p := range m {
		p.Apply(next)
	}
}

// Load performs a full scan of the project and replaces the whole state.
// Unreadable files are reported and skipped.
func (s *Service) Load() *models.ProjectState {
	s.mu.Lock()
	defer s.mu.Unlock()

	full := store.FullPatch{
		Summaries: map[int]*models.SprintSummary{},
		Specs:     map[string]*models.SpecDoc{},
		Prompts:   map[string]*models.PromptDoc{},
	}
	s.summaryPaths = map[string]int{}
	s.errMu.Lock()
	s.specErrors = map[string]error{}
	s.errMu.Unlock()

	backlogPath := s.classifier.BacklogPath()
	if p, ok := s.load(watch.Change{Path: backlogPath, Kind: classify.KindBacklog}); ok {
		full.Backlog = p.(store.BacklogPatch).Backlog
	} else {
		// Keep the last good backlog when the file could not be read.
		full.Backlog = s.store.Get().Backlog
	}

	for _, path := range s.scanFiles() {
		kind, ok := s.classifier.Classify(path)
		if !ok || kind == classify.KindBacklog {
			continue
		}
		p, ok := s.load(watch.Change{Path: path, Kind: kind})
		if !ok {
			if kind == classify.KindSpec {
				// Last good content survives a failed parse.
				role := classify.Key(path)
				if prev, ok := s.store.Get().Specs[role]; ok {
					full.Specs[role] = prev
				}
			}
			continue
		}
		switch v := p.(type) {
		case store.SummaryPatch:
			full.Summaries[v.Sprint] = v.Summary
		case store.SpecPatch:
			full.Specs[v.Role] = v.Spec
		case store.PromptPatch:
			full.Prompts[v.Name] = v.Prompt
		}
	}

	st := s.store.Replace(full)
	s.log.Info("full scan complete",
		"version", st.Version,
		"sprints", len(st.Backlog.Sprints),
		"summaries", len(st.Summaries),
		"specs", len(st.Specs),
		"prompts", len(st.Prompts))
	return st
}

// scanFiles lists every file below the artifact directories.
func (s *Service) scanFiles() []string {
	var files []string
	for _, dir := range s.classifier.WatchDirs() {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				s.log.Error("scan failed", "path", path, "error", err)
				s.broadcastError("scan", path, err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			s.log.Error("scan failed", "path", dir, "error", err)
		}
	}
	return files
}

func (s *Service) broadcastUpdate(event, path string, st *models.ProjectState) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastUpdate(event, path, st)
}

func (s *Service) broadcastError(event, path string, err error) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastError(event, path, err)
}
