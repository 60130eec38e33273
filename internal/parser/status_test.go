package parser

import (
	"testing"

	"github.com/zulandar/planboard/internal/models"
)

func TestResolveStatus_EmojiAndTextAgree(t *testing.T) {
	pairs := []struct {
		emoji string
		text  string
		want  models.TicketStatus
	}{
		{"🔲", "Todo", models.StatusTodo},
		{"🔄", "In Progress", models.StatusInProgress},
		{"🧪", "QA Review", models.StatusQAReview},
		{"✅", "Done", models.StatusDone},
		{"⏸️", "Blocked", models.StatusBlocked},
	}
	for _, p := range pairs {
		t.Run(string(p.want), func(t *testing.T) {
			if got := ResolveStatus(p.emoji); got != p.want {
				t.Errorf("ResolveStatus(%q) = %q, want %q", p.emoji, got, p.want)
			}
			if got := ResolveStatus(p.text); got != p.want {
				t.Errorf("ResolveStatus(%q) = %q, want %q", p.text, got, p.want)
			}
			if got := ResolveStatus(p.emoji + " " + p.text); got != p.want {
				t.Errorf("ResolveStatus(%q) = %q, want %q", p.emoji+" "+p.text, got, p.want)
			}
		})
	}
}

func TestResolveStatus_Precedence(t *testing.T) {
	tests := []struct {
		in   string
		want models.TicketStatus
	}{
		{"✅ in progress", models.StatusDone},          // emoji beats keyword
		{"IN PROGRESS", models.StatusInProgress},      // case-insensitive
		{"in_progress", models.StatusInProgress},      // enum spelling
		{"qa_review", models.StatusQAReview},
		{"⏸ Blocked", models.StatusBlocked},           // no variation selector
		{"shipping soon", models.StatusTodo},           // unknown defaults to todo
		{"", models.StatusTodo},
		{"Incomplete", models.StatusTodo},              // no substring false positive
	}
	for _, tt := range tests {
		if got := ResolveStatus(tt.in); got != tt.want {
			t.Errorf("ResolveStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDeriveSprintStatus(t *testing.T) {
	tk := func(statuses ...models.TicketStatus) []models.Ticket {
		out := make([]models.Ticket, len(statuses))
		for i, s := range statuses {
			out[i] = models.Ticket{ID: string(rune('a' + i)), Status: s}
		}
		return out
	}
	tests := []struct {
		name    string
		marker  string
		tickets []models.Ticket
		want    models.SprintStatus
	}{
		{"all done", "", tk(models.StatusDone, models.StatusDone, models.StatusDone), models.SprintComplete},
		{"done and in progress", "", tk(models.StatusDone, models.StatusInProgress), models.SprintActive},
		{"qa counts as active", "", tk(models.StatusTodo, models.StatusQAReview), models.SprintActive},
		{"all todo", "", tk(models.StatusTodo, models.StatusTodo), models.SprintPlanned},
		{"empty", "", nil, models.SprintPlanned},
		{"marker beats all done", "ACTIVE", tk(models.StatusDone, models.StatusDone, models.StatusDone), models.SprintActive},
		{"complete marker", "COMPLETE", tk(models.StatusTodo), models.SprintComplete},
		{"planned marker", "PLANNED", tk(models.StatusInProgress), models.SprintPlanned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveSprintStatus(tt.marker, tt.tickets); got != tt.want {
				t.Errorf("DeriveSprintStatus = %q, want %q", got, tt.want)
			}
		})
	}
}
