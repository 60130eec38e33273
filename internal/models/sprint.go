package models

// SprintStatus is derived from ticket states or an explicit heading marker.
type SprintStatus string

const (
	SprintPlanned  SprintStatus = "planned"
	SprintActive   SprintStatus = "active"
	SprintComplete SprintStatus = "complete"
)

// Sprint is a numbered container of tickets.
type Sprint struct {
	Number           int          `json:"number"`
	Name             string       `json:"name"`
	Goal             string       `json:"goal"`
	Status           SprintStatus `json:"status"`
	Marker           string       `json:"marker,omitempty"` // explicit heading marker, e.g. "ACTIVE"
	Tickets          []Ticket     `json:"tickets"`
	Dependencies     []string     `json:"dependencies"`
	DefinitionOfDone []string     `json:"definitionOfDone"`
}

// Points returns the total and completed story points of the sprint.
func (s Sprint) Points() (total, done int) {
	for _, t := range s.Tickets {
		total += t.StoryPoints
		if t.IsDone() {
			done += t.StoryPoints
		}
	}
	return total, done
}

// BacklogDocument is the aggregate root parsed from the backlog file.
type BacklogDocument struct {
	ProjectName string   `json:"projectName"`
	Created     string   `json:"created"`
	LastUpdated string   `json:"lastUpdated"`
	Sprints     []Sprint `json:"sprints"`
	Bugs        []Ticket `json:"bugs"`
}

// EmptyBacklog returns a backlog with non-nil, empty collections. It stands
// in for a missing backlog file.
func EmptyBacklog() *BacklogDocument {
	return &BacklogDocument{
		Sprints: []Sprint{},
		Bugs:    []Ticket{},
	}
}

// SprintByNumber returns the sprint with the given number.
func (b *BacklogDocument) SprintByNumber(n int) (*Sprint, bool) {
	if b == nil {
		return nil, false
	}
	for i := range b.Sprints {
		if b.Sprints[i].Number == n {
			return &b.Sprints[i], true
		}
	}
	return nil, false
}
