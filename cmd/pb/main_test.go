package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/zulandar/planboard/internal/config"
	"github.com/zulandar/planboard/internal/logging"
	"github.com/zulandar/planboard/internal/metrics"
	"github.com/zulandar/planboard/internal/models"
)

const testBacklog = `# Project Backlog: Shop

## Sprint 1: Setup — ACTIVE

**Goal:** Scaffold the service

| ID | Title | Status | Owner | Points |
|----|-------|--------|-------|--------|
| T-1 | Init | Done | be | 3 |
| T-2 | API | In Progress | be | 5 |
`

// writeProject creates a project with a backlog and returns the config path.
func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "BACKLOG.md"), []byte(testBacklog), 0644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "planboard.yaml")
	cfg := "root: " + dir + "\nlogging:\n  level: error\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "pb dev") {
		t.Errorf("expected output to contain 'pb dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	out, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	for _, want := range []string{"pb 1.0.0", "commit: abc123", "built: 2026-01-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %s", want, out)
		}
	}
}

func TestRootCmdHelp(t *testing.T) {
	out, err := runCmd(t, "--help")
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}
	for _, want := range []string{"Planboard", "serve", "mcp", "snapshot", "status", "version"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected help output to contain %q, got: %s", want, out)
		}
	}
}

func TestConfigNotFound(t *testing.T) {
	_, err := runCmd(t, "snapshot", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "load config") {
		t.Errorf("error = %v, want load config error", err)
	}
}

func TestSnapshotCmd(t *testing.T) {
	orig := isTerminal
	isTerminal = func(io.Writer) bool { return false }
	defer func() { isTerminal = orig }()

	out, err := runCmd(t, "snapshot", "--config", writeProject(t))
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if strings.Count(strings.TrimSpace(out), "\n") != 0 {
		t.Errorf("expected compact single-line JSON, got: %s", out)
	}

	var got struct {
		Version uint64 `json:"version"`
		Backlog struct {
			ProjectName string `json:"projectName"`
			Sprints     []struct {
				Number  int `json:"number"`
				Tickets []struct {
					ID string `json:"id"`
				} `json:"tickets"`
			} `json:"sprints"`
		} `json:"backlog"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode snapshot: %v\n%s", err, out)
	}
	if got.Version != 1 {
		t.Errorf("version = %d, want 1", got.Version)
	}
	if got.Backlog.ProjectName != "Shop" {
		t.Errorf("projectName = %q, want Shop", got.Backlog.ProjectName)
	}
	if len(got.Backlog.Sprints) != 1 || len(got.Backlog.Sprints[0].Tickets) != 2 {
		t.Errorf("sprints = %+v, want one sprint with two tickets", got.Backlog.Sprints)
	}
}

func TestSnapshotCmd_Pretty(t *testing.T) {
	orig := isTerminal
	isTerminal = func(io.Writer) bool { return false }
	defer func() { isTerminal = orig }()

	out, err := runCmd(t, "snapshot", "--pretty", "--config", writeProject(t))
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if !strings.Contains(out, "\n  \"version\": 1") {
		t.Errorf("expected indented JSON, got: %s", out)
	}
}

func TestStatusCmd(t *testing.T) {
	color.NoColor = true

	out, err := runCmd(t, "status", "--config", writeProject(t))
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	for _, want := range []string{
		"Shop",
		"Tickets: 1/2 done (50%)  Points: 3/8",
		"Current sprint: 1 Setup",
		"Sprint 1  Setup  [active]  1/2 tickets, 3/8 pts",
		"    Scaffold the service",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteStatus_NoSprints(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	writeStatus(&buf, models.EmptyBacklog(), metrics.Stats{}, 80)
	out := buf.String()
	if !strings.Contains(out, "Planboard") || !strings.Contains(out, "No sprints found.") {
		t.Errorf("output = %q", out)
	}
}

func TestWriteStatus_WrapsGoalsAndCountsBugs(t *testing.T) {
	color.NoColor = true
	backlog := &models.BacklogDocument{
		ProjectName: "Shop",
		Sprints: []models.Sprint{{
			Number: 2,
			Name:   "Checkout",
			Status: models.SprintPlanned,
			Goal:   "Customers can pay with cards and wallets and receive a receipt by email",
		}},
		Bugs: []models.Ticket{
			{ID: "BUG-1", Status: models.StatusTodo},
			{ID: "BUG-2", Status: models.StatusDone},
		},
	}
	var buf bytes.Buffer
	writeStatus(&buf, backlog, metrics.BacklogStats(backlog), 30)
	out := buf.String()

	var goalLines int
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "    ") {
			goalLines++
			if len(line) > 30 {
				t.Errorf("goal line too long (%d): %q", len(line), line)
			}
		}
	}
	if goalLines < 2 {
		t.Errorf("expected goal wrapped over several lines, got:\n%s", out)
	}
	if !strings.Contains(out, "[planned]") {
		t.Errorf("missing planned status:\n%s", out)
	}
	if !strings.Contains(out, "Open bugs: 1") {
		t.Errorf("missing open bug count:\n%s", out)
	}
}

func TestCreateAdapter(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.NotifierConfig
		wantErr bool
	}{
		{"slack", config.NotifierConfig{Platform: "slack", Channel: "C1", Slack: config.SlackConfig{BotToken: "xoxb-test"}}, false},
		{"discord", config.NotifierConfig{Platform: "discord", Channel: "123", Discord: config.DiscordConfig{BotToken: "token"}}, false},
		{"slack without token", config.NotifierConfig{Platform: "slack"}, true},
		{"unknown platform", config.NotifierConfig{Platform: "irc"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := createAdapter(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("createAdapter: %v", err)
			}
			if a == nil {
				t.Error("adapter is nil")
			}
		})
	}
}

func TestStartSync_ScansOnceWatching(t *testing.T) {
	cfg, err := loadConfig(writeProject(t))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	defer logging.Close()

	a, err := newApp(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.hub.Close()
	if v := a.store.Get().Version; v != 0 {
		t.Fatalf("version before sync = %d, want 0", v)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done, err := a.startSync(ctx)
	if err != nil {
		t.Fatalf("startSync: %v", err)
	}
	st := a.store.Get()
	if st.Version == 0 || st.Backlog.ProjectName != "Shop" {
		t.Errorf("state after startSync = version %d project %q, want a loaded backlog", st.Version, st.Backlog.ProjectName)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sync loop did not stop after cancel")
	}
}
