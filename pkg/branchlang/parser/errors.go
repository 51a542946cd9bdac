package parser

import "fmt"

// ParseError reports an address cell that does not end in a usable
// postal code.
type ParseError struct {
	Row    int
	Cell   string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d (%s): cannot parse postal code from %q: %s", e.Row, e.Cell, e.Value, e.Reason)
}

// SchemaError reports a misconfigured or mismatched cell range.
type SchemaError struct {
	Range  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("range %q: %s", e.Range, e.Reason)
}
