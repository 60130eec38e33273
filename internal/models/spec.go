package models

// Section is one heading-delimited block of a markdown document.
type Section struct {
	Heading string   `json:"heading"`
	Level   int      `json:"level"`
	Body    string   `json:"body"`
	Bullets []string `json:"bullets"`
}

// Screen is a UI screen described in the designated screens spec.
type Screen struct {
	Name        string   `json:"name"`
	Route       string   `json:"route,omitempty"`
	Description string   `json:"description,omitempty"`
	Components  []string `json:"components"`
}

// SpecDoc is the parsed content of one role spec file.
type SpecDoc struct {
	Role         string          `json:"role"`
	Path         string          `json:"path"`
	Title        string          `json:"title"`
	Format       string          `json:"format"`
	Sections     []Section       `json:"sections"`
	Requirements *RequirementDoc `json:"requirements,omitempty"`
	Screens      []Screen        `json:"screens,omitempty"`
}

// PromptDoc is lightweight metadata about a generated prompt file.
type PromptDoc struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Title string `json:"title"`
	Words int    `json:"words"`
}
