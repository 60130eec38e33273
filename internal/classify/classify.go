// Package classify maps changed file paths to the artifact kinds the
// synchronizer knows how to reload.
package classify

import (
	"path/filepath"
	"strings"
)

// Kind is the closed set of artifact kinds.
type Kind string

const (
	KindBacklog       Kind = "backlog"
	KindSprintSummary Kind = "sprint_summary"
	KindSpec          Kind = "spec"
	KindPrompt        Kind = "prompt"
)

// Defaults relative to the project root.
const (
	DefaultBacklogFile = "BACKLOG.md"
	DefaultSprintsDir  = "sprints"
	DefaultSpecsDir    = "specs"
	DefaultPromptsDir  = "prompts"
)

// Classifier holds the project layout. Directory fields may be absolute or
// relative to Root.
type Classifier struct {
	Root        string
	BacklogFile string
	SprintsDir  string
	SpecsDir    string
	PromptsDir  string
}

// New returns a classifier for root using the default layout.
func New(root string) Classifier {
	return Classifier{
		Root:        root,
		BacklogFile: DefaultBacklogFile,
		SprintsDir:  DefaultSprintsDir,
		SpecsDir:    DefaultSpecsDir,
		PromptsDir:  DefaultPromptsDir,
	}
}

// Classify returns the artifact kind of path. Rules are checked in order:
// backlog file, sprint summary, spec, prompt. Anything that is not a
// markdown file, or matches no rule, reports false.
func (c Classifier) Classify(path string) (Kind, bool) {
	if !strings.EqualFold(filepath.Ext(path), ".md") {
		return "", false
	}
	base := filepath.Base(path)
	abs := c.abs(path)
	if c.IsBacklog(abs) {
		return KindBacklog, true
	}
	if c.under(abs, c.SprintsDir) && strings.Contains(strings.ToLower(base), "summary") {
		return KindSprintSummary, true
	}
	if c.under(abs, c.SpecsDir) {
		return KindSpec, true
	}
	if c.under(abs, c.PromptsDir) {
		return KindPrompt, true
	}
	return "", false
}

// Key returns the map key an artifact is stored under: the file name
// without its extension. Spec roles and prompt names use it.
func Key(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Dir resolves a layout directory against Root.
func (c Classifier) Dir(dir string) string {
	if dir == "" {
		return ""
	}
	return c.abs(dir)
}

// BacklogPath returns the resolved backlog file path.
func (c Classifier) BacklogPath() string {
	return c.abs(c.BacklogFile)
}

// WatchDirs returns the resolved directories a watcher should cover.
func (c Classifier) WatchDirs() []string {
	var dirs []string
	for _, d := range []string{c.SprintsDir, c.SpecsDir, c.PromptsDir} {
		if d != "" {
			dirs = append(dirs, c.abs(d))
		}
	}
	return dirs
}

func (c Classifier) abs(p string) string {
	if !filepath.IsAbs(p) && c.Root != "" {
		p = filepath.Join(c.Root, p)
	}
	return filepath.Clean(p)
}

// IsBacklog reports whether path is the configured backlog file. The file
// name compares case-insensitively; the directory must match exactly.
func (c Classifier) IsBacklog(path string) bool {
	if c.BacklogFile == "" {
		return false
	}
	path = c.abs(path)
	want := c.BacklogPath()
	return filepath.Dir(path) == filepath.Dir(want) &&
		strings.EqualFold(filepath.Base(path), filepath.Base(want))
}

// under reports whether path lies inside dir (at any depth).
func (c Classifier) under(path, dir string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(c.abs(dir), path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
