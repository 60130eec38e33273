package models

// Priority of a requirement.
type Priority string

const (
	PriorityMustHave   Priority = "must_have"
	PriorityShouldHave Priority = "should_have"
	PriorityNiceToHave Priority = "nice_to_have"
)

// RequirementType distinguishes functional from non-functional requirements.
type RequirementType string

const (
	RequirementFunctional    RequirementType = "functional"
	RequirementNonFunctional RequirementType = "non_functional"
)

// Requirement is a single requirement extracted from a requirements document.
type Requirement struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Priority    Priority        `json:"priority"`
	Type        RequirementType `json:"type"`
}

// RequirementDoc is the structured form of a requirements/spec document.
type RequirementDoc struct {
	ProjectName      string        `json:"projectName"`
	Description      string        `json:"description"`
	ProblemStatement string        `json:"problemStatement,omitempty"`
	SuccessState     string        `json:"successState,omitempty"`
	Requirements     []Requirement `json:"requirements"`
	Constraints      []string      `json:"constraints"`
	Assumptions      []string      `json:"assumptions"`
	OutOfScope       []string      `json:"outOfScope"`
	TechStack        []string      `json:"techStack,omitempty"`
	Format           string        `json:"format"` // json, yaml, markdown or list
}
