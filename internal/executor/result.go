package executor

import (
	"strconv"
	"strings"
)

// Path locates a value in the response: field names (string) and list
// indexes (int) from the root.
type Path []any

func (p Path) with(elem any) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = elem
	return out
}

// hasPrefix reports whether p is prefix or a descendant of it.
func (p Path) hasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// String renders p as "users[1].name".
func (p Path) String() string {
	var b strings.Builder
	for i, elem := range p {
		switch v := elem.(type) {
		case int:
			b.WriteString("[" + strconv.Itoa(v) + "]")
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v.(string))
		}
	}
	return b.String()
}

// GraphQLError is a located execution error.
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Location is a position in the request document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// ExecutionResult is the response of one operation. Data is nil when the
// operation failed before execution or a null reached the root.
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}
