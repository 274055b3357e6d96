package models

import (
	"strings"
)

// QuerySeed is a nested paginated fragment found inside a payload. It is kept
// unexpanded; a cursor can be built from it on demand.
type QuerySeed struct {
	// Locator is the continuation token for the next page.
	Locator string `json:"queryLocator,omitempty"`
	// Done is true when no further page exists.
	Done bool `json:"done"`
	// Size is the total number of records the server reported.
	Size int `json:"size"`
	// Records holds the raw first-page records.
	Records []Payload `json:"records"`
}

// Page is one normalized batch of query results.
type Page struct {
	Records []Record
	Locator string
	Done    bool
	Size    int
}

// Query describes a read against one remote object type.
type Query struct {
	// ObjectType is the remote object type to select from.
	ObjectType string
	// Fields lists the fields to select. Duplicates are removed keeping the
	// first occurrence.
	Fields []string
	// Where is an optional raw condition.
	Where string
	// Raw, when set, is sent verbatim instead of the built statement.
	Raw string
}

// ByID returns a query selecting fields of the record identified by id.
func ByID(objectType, id string, fields []string) Query {
	return Query{
		ObjectType: objectType,
		Fields:     fields,
		Where:      "Id = '" + EscapeQuoted(id) + "'",
	}
}

// String renders the query statement.
func (q Query) String() string {
	if q.Raw != "" {
		return q.Raw
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(Unique(q.Fields), ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.ObjectType)
	if q.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(q.Where)
	}
	return b.String()
}

// EscapeQuoted escapes a value for use inside a single-quoted literal.
func EscapeQuoted(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// Unique returns names without duplicates, preserving first occurrence order.
func Unique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
