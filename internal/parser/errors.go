package parser

import "fmt"

// ParseError reports that structured (JSON or YAML) input could not be
// decoded. Markdown input never produces one.
type ParseError struct {
	Format string // "json" or "yaml"
	Path   string // source path when known
	Err    error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parser: %s %s: %v", e.Format, e.Path, e.Err)
	}
	return fmt.Sprintf("parser: %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
