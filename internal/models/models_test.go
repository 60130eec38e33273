package models

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

// jsonTag extracts the json tag from a struct field.
func jsonTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("json")
}

// assertJSONName checks the wire name of a struct field.
func assertJSONName(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := jsonTag(t, typ, fieldName)
	name := strings.Split(tag, ",")[0]
	if name != expected {
		t.Errorf("%s.%s json name = %q, want %q", typ.Name(), fieldName, name, expected)
	}
}

func TestTicket_WireNames(t *testing.T) {
	typ := reflect.TypeOf(Ticket{})
	assertJSONName(t, typ, "ModelTier", "modelTier")
	assertJSONName(t, typ, "StoryPoints", "storyPoints")
	assertJSONName(t, typ, "StartedAt", "startedAt")
	assertJSONName(t, typ, "CompletedAt", "completedAt")
	assertJSONName(t, typ, "DurationMinutes", "durationMinutes")
}

func TestSprint_WireNames(t *testing.T) {
	typ := reflect.TypeOf(Sprint{})
	assertJSONName(t, typ, "DefinitionOfDone", "definitionOfDone")
	assertJSONName(t, typ, "Tickets", "tickets")
}

func TestTicketStatus_Valid(t *testing.T) {
	for _, s := range TicketStatuses {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if TicketStatus("shipped").Valid() {
		t.Error("unknown status should not be valid")
	}
}

func TestSprint_Points(t *testing.T) {
	s := Sprint{Tickets: []Ticket{
		{ID: "a", StoryPoints: 3, Status: StatusDone},
		{ID: "b", StoryPoints: 5, Status: StatusInProgress},
	}}
	total, done := s.Points()
	if total != 8 || done != 3 {
		t.Errorf("Points() = (%d, %d), want (8, 3)", total, done)
	}
}

func TestBacklogDocument_SprintByNumber(t *testing.T) {
	doc := &BacklogDocument{Sprints: []Sprint{{Number: 0}, {Number: 4}}}
	s, ok := doc.SprintByNumber(4)
	if !ok || s.Number != 4 {
		t.Fatalf("SprintByNumber(4) = %v, %v", s, ok)
	}
	if _, ok := doc.SprintByNumber(9); ok {
		t.Error("SprintByNumber(9) should not be found")
	}
	var nilDoc *BacklogDocument
	if _, ok := nilDoc.SprintByNumber(0); ok {
		t.Error("nil backlog should find nothing")
	}
}

func TestProjectState_WireFormUsesOrderedLists(t *testing.T) {
	st := NewProjectState()
	st.Summaries[3] = &SprintSummary{Sprint: 3}
	st.Summaries[1] = &SprintSummary{Sprint: 1}
	st.Specs["frontend"] = &SpecDoc{Role: "frontend"}
	st.Specs["backend"] = &SpecDoc{Role: "backend"}

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	var sums []SprintSummary
	if err := json.Unmarshal(raw["summaries"], &sums); err != nil {
		t.Fatalf("summaries should be a list: %v", err)
	}
	if len(sums) != 2 || sums[0].Sprint != 1 || sums[1].Sprint != 3 {
		t.Errorf("summaries = %+v, want sprint 1 then 3", sums)
	}
	var specs []SpecDoc
	if err := json.Unmarshal(raw["specs"], &specs); err != nil {
		t.Fatalf("specs should be a list: %v", err)
	}
	if len(specs) != 2 || specs[0].Role != "backend" {
		t.Errorf("specs = %+v, want backend first", specs)
	}

	var back ProjectState
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if _, ok := back.Summaries[3]; !ok {
		t.Error("receiver should index summaries by sprint")
	}
	if _, ok := back.Specs["frontend"]; !ok {
		t.Error("receiver should index specs by role")
	}
}

func TestProjectState_ShallowCloneIsolatesMaps(t *testing.T) {
	st := NewProjectState()
	st.Specs["api"] = &SpecDoc{Role: "api"}
	next := st.ShallowClone()
	delete(next.Specs, "api")
	if _, ok := st.Specs["api"]; !ok {
		t.Error("clone must not share map storage with the original")
	}
}
