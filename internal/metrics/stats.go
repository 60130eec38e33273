package metrics

import (
	"sort"

	"github.com/zulandar/planboard/internal/models"
)

// Stats summarizes ticket and sprint progress across a backlog. Bugs are
// not counted.
type Stats struct {
	TotalTickets         int            `json:"totalTickets"`
	CompletedTickets     int            `json:"completedTickets"`
	InProgressTickets    int            `json:"inProgressTickets"`
	QATickets            int            `json:"qaTickets"`
	BlockedTickets       int            `json:"blockedTickets"`
	TodoTickets          int            `json:"todoTickets"`
	TotalPoints          int            `json:"totalPoints"`
	CompletedPoints      int            `json:"completedPoints"`
	CompletionPercentage int            `json:"completionPercentage"`
	TotalSprints         int            `json:"totalSprints"`
	CompletedSprints     int            `json:"completedSprints"`
	CurrentSprint        *models.Sprint `json:"currentSprint"`
}

// BacklogStats counts tickets by status and picks the current sprint: the
// first active sprint, else the first sprint that is not complete.
func BacklogStats(doc *models.BacklogDocument) Stats {
	var s Stats
	if doc == nil {
		return s
	}
	s.TotalSprints = len(doc.Sprints)
	for _, sp := range doc.Sprints {
		if sp.Status == models.SprintComplete {
			s.CompletedSprints++
		}
		for _, t := range sp.Tickets {
			s.TotalTickets++
			s.TotalPoints += t.StoryPoints
			switch t.Status {
			case models.StatusDone:
				s.CompletedTickets++
				s.CompletedPoints += t.StoryPoints
			case models.StatusInProgress:
				s.InProgressTickets++
			case models.StatusQAReview:
				s.QATickets++
			case models.StatusBlocked:
				s.BlockedTickets++
			default:
				s.TodoTickets++
			}
		}
	}
	s.CompletionPercentage = CompletionPercentage(s.CompletedTickets, s.TotalTickets)
	s.CurrentSprint = currentSprint(doc.Sprints)
	return s
}

func currentSprint(sprints []models.Sprint) *models.Sprint {
	for i := range sprints {
		if sprints[i].Status == models.SprintActive {
			return &sprints[i]
		}
	}
	for i := range sprints {
		if sprints[i].Status != models.SprintComplete {
			return &sprints[i]
		}
	}
	return nil
}

// SprintProgress is the per-sprint slice of the aggregate metrics.
type SprintProgress struct {
	Number               int                 `json:"number"`
	Name                 string              `json:"name"`
	Status               models.SprintStatus `json:"status"`
	Tickets              int                 `json:"tickets"`
	CompletedTickets     int                 `json:"completedTickets"`
	TotalPoints          int                 `json:"totalPoints"`
	CompletedPoints      int                 `json:"completedPoints"`
	CompletionPercentage int                 `json:"completionPercentage"`
	Tokens               int                 `json:"tokens,omitempty"`
	CostUSD              float64             `json:"costUsd,omitempty"`
}

// GroupCount counts tickets sharing an owner or model tier.
type GroupCount struct {
	Key       string `json:"key"`
	Tickets   int    `json:"tickets"`
	Completed int    `json:"completed"`
	Points    int    `json:"points"`
}

// BugCounts tallies bug tickets by status.
type BugCounts struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Resolved int `json:"resolved"`
	Blocked  int `json:"blocked"`
}

// Metrics is the aggregate metrics object served to queries.
type Metrics struct {
	Stats
	Sprints                []SprintProgress `json:"sprints"`
	ByOwner                []GroupCount     `json:"byOwner"`
	ByModelTier            []GroupCount     `json:"byModelTier"`
	AverageDurationMinutes float64          `json:"averageDurationMinutes"`
	TimedTickets           int              `json:"timedTickets"`
	Bugs                   BugCounts        `json:"bugs"`
	TotalTokens            int              `json:"totalTokens"`
	TotalCostUSD           float64          `json:"totalCostUsd"`
	Version                uint64           `json:"version"`
}

// Aggregate derives the full metrics object for a snapshot.
func Aggregate(state *models.ProjectState) Metrics {
	m := Metrics{
		Sprints:     []SprintProgress{},
		ByOwner:     []GroupCount{},
		ByModelTier: []GroupCount{},
	}
	if state == nil {
		return m
	}
	m.Version = state.Version
	m.Stats = BacklogStats(state.Backlog)
	if state.Backlog == nil {
		return m
	}

	owners := map[string]*GroupCount{}
	tiers := map[string]*GroupCount{}
	var durationTotal int
	for _, sp := range state.Backlog.Sprints {
		total, done := sp.Points()
		p := SprintProgress{
			Number:          sp.Number,
			Name:            sp.Name,
			Status:          sp.Status,
			Tickets:         len(sp.Tickets),
			TotalPoints:     total,
			CompletedPoints: done,
		}
		summary := state.Summaries[sp.Number]
		if summary != nil {
			p.Tokens = summary.TotalTokens
			p.CostUSD = summary.TotalCostUSD
		}
		for _, t := range sp.Tickets {
			if t.IsDone() {
				p.CompletedTickets++
			}
			countGroup(owners, t.Owner, t)
			countGroup(tiers, t.ModelTier, t)
			if d := ticketDuration(t, summary); d != nil {
				durationTotal += *d
				m.TimedTickets++
			}
		}
		p.CompletionPercentage = CompletionPercentage(p.CompletedTickets, p.Tickets)
		m.Sprints = append(m.Sprints, p)
	}
	if m.TimedTickets > 0 {
		m.AverageDurationMinutes = float64(durationTotal) / float64(m.TimedTickets)
	}
	m.ByOwner = sortedGroups(owners)
	m.ByModelTier = sortedGroups(tiers)

	for _, b := range state.Backlog.Bugs {
		m.Bugs.Total++
		switch b.Status {
		case models.StatusDone:
			m.Bugs.Resolved++
		case models.StatusBlocked:
			m.Bugs.Blocked++
		default:
			m.Bugs.Open++
		}
	}
	for _, sum := range state.Summaries {
		m.TotalTokens += sum.TotalTokens
		m.TotalCostUSD += sum.TotalCostUSD
	}
	return m
}

func ticketDuration(t models.Ticket, summary *models.SprintSummary) *int {
	if t.DurationMinutes != nil {
		return t.DurationMinutes
	}
	if e, ok := summary.Execution(t.ID); ok {
		return e.DurationMinutes
	}
	return nil
}

func countGroup(groups map[string]*GroupCount, key string, t models.Ticket) {
	if key == "" {
		key = "unassigned"
	}
	g, ok := groups[key]
	if !ok {
		g = &GroupCount{Key: key}
		groups[key] = g
	}
	g.Tickets++
	g.Points += t.StoryPoints
	if t.IsDone() {
		g.Completed++
	}
}

func sortedGroups(groups map[string]*GroupCount) []GroupCount {
	out := make([]GroupCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
