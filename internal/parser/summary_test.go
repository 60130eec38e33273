package parser

import (
	"testing"
	"time"
)

const sampleSummary = `# Sprint 1 Summary

**Started:** 2024-03-01 09:00
**Completed:** 2024-03-05 17:30
**Total Tokens:** 125,000
**Total Cost:** $4.75

## Ticket Execution

| Ticket | Agent | Model | Status | Duration | Tokens |
|--------|-------|-------|--------|----------|--------|
| S1-001 | backend | Sonnet | ✅ Done | 1h 30m | 50,000 |
| S1-002 | frontend | haiku | 🔄 In Progress | 45 min | 75,000 |

## Notes
- Cache warmed
- Retry flaky test
`

func TestParseSprintSummary(t *testing.T) {
	sum, ok := ParseSprintSummary("sprints/sprint-1-summary.md", sampleSummary)
	if !ok {
		t.Fatal("expected a summary")
	}
	if sum.Sprint != 1 {
		t.Errorf("Sprint = %d, want 1", sum.Sprint)
	}
	if sum.Title != "Sprint 1 Summary" {
		t.Errorf("Title = %q", sum.Title)
	}
	wantStart := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	if sum.StartedAt == nil || !sum.StartedAt.Equal(wantStart) {
		t.Errorf("StartedAt = %v, want %v", sum.StartedAt, wantStart)
	}
	if sum.CompletedAt == nil {
		t.Error("CompletedAt is nil")
	}
	if sum.TotalTokens != 125000 {
		t.Errorf("TotalTokens = %d, want 125000", sum.TotalTokens)
	}
	if sum.TotalCostUSD != 4.75 {
		t.Errorf("TotalCostUSD = %v, want 4.75", sum.TotalCostUSD)
	}
	if len(sum.Notes) != 2 || sum.Notes[1] != "Retry flaky test" {
		t.Errorf("Notes = %v", sum.Notes)
	}
	if len(sum.Executions) != 2 {
		t.Fatalf("got %d executions, want 2", len(sum.Executions))
	}

	first, ok := sum.Execution("S1-001")
	if !ok {
		t.Fatal("S1-001 execution missing")
	}
	if first.Agent != "backend" || first.ModelTier != "sonnet" || first.Status != "done" {
		t.Errorf("S1-001 = %+v", first)
	}
	if first.DurationMinutes == nil || *first.DurationMinutes != 90 {
		t.Errorf("S1-001 duration = %v, want 90", first.DurationMinutes)
	}
	if first.Tokens != 50000 {
		t.Errorf("S1-001 tokens = %d, want 50000", first.Tokens)
	}
	second, _ := sum.Execution("S1-002")
	if second.Status != "in_progress" {
		t.Errorf("S1-002 status = %q, want in_progress", second.Status)
	}
	if second.DurationMinutes == nil || *second.DurationMinutes != 45 {
		t.Errorf("S1-002 duration = %v, want 45", second.DurationMinutes)
	}
}

func TestParseSprintSummary_TokensFallBackToExecutions(t *testing.T) {
	text := `# Sprint 2

| Ticket | Agent | Model | Tokens |
|---|---|---|---|
| S2-001 | be | opus | 1,000 |
| S2-002 | fe | haiku | 2,500 |
`
	sum, ok := ParseSprintSummary("sprint-2.md", text)
	if !ok {
		t.Fatal("expected a summary")
	}
	if sum.TotalTokens != 3500 {
		t.Errorf("TotalTokens = %d, want 3500", sum.TotalTokens)
	}
}

func TestSummaryNumber(t *testing.T) {
	tests := []struct {
		path, text string
		want       int
		ok         bool
	}{
		{"sprints/sprint-3-summary.md", "", 3, true},
		{"sprints/SPRINT_12.md", "", 12, true},
		{"sprints/retro.md", "# Sprint 4 Retro", 4, true},
		{"sprints/retro.md", "# Retro", 0, false},
	}
	for _, tt := range tests {
		got, ok := SummaryNumber(tt.path, tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("SummaryNumber(%q) = %d, %v, want %d, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseDurationMinutes(t *testing.T) {
	tests := map[string]int{
		"45":        45,
		"45m":       45,
		"1h 30m":    90,
		"90 min":    90,
		"1.5 hours": 90,
	}
	for in, want := range tests {
		got := parseDurationMinutes(in)
		if got == nil || *got != want {
			t.Errorf("parseDurationMinutes(%q) = %v, want %d", in, got, want)
		}
	}
	if got := parseDurationMinutes("soon"); got != nil {
		t.Errorf("parseDurationMinutes(soon) = %d, want nil", *got)
	}
}
