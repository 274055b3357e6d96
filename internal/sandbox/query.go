package sandbox

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/MKhiriev/go-record-sync/models"
)

var (
	selectPattern = regexp.MustCompile(`(?is)^\s*SELECT\s+(.+?)\s+FROM\s+(\w+)(?:\s+WHERE\s+(.+?))?(?:\s+LIMIT\s+(\d+))?\s*$`)
	condPattern   = regexp.MustCompile(`(?is)^\s*(\w+)\s*=\s*(?:'((?:[^'\\]|\\.)*)'|(null))\s*`)
	andPattern    = regexp.MustCompile(`(?i)^AND\s+`)
	fieldPattern  = regexp.MustCompile(`^\w+$`)
)

// statement is a parsed SELECT.
type statement struct {
	objectType string
	fields     []string
	conds      []condition
	limit      int
}

// condition is one equality test. A nil value matches null or missing fields.
type condition struct {
	field string
	value *string
}

func parseQuery(text string) (statement, error) {
	m := selectPattern.FindStringSubmatch(text)
	if m == nil {
		return statement{}, fmt.Errorf("%w: %q", ErrMalformedQuery, text)
	}

	st := statement{objectType: m[2]}
	for _, f := range strings.Split(m[1], ",") {
		f = strings.TrimSpace(f)
		if !fieldPattern.MatchString(f) {
			return statement{}, fmt.Errorf("%w: bad field %q", ErrMalformedQuery, f)
		}
		st.fields = append(st.fields, f)
	}
	st.fields = models.Unique(st.fields)

	if where := m[3]; where != "" {
		conds, err := parseWhere(where)
		if err != nil {
			return statement{}, err
		}
		st.conds = conds
	}

	if m[4] != "" {
		limit, err := strconv.Atoi(m[4])
		if err != nil {
			return statement{}, fmt.Errorf("%w: bad limit %q", ErrMalformedQuery, m[4])
		}
		st.limit = limit
	}

	return st, nil
}

func parseWhere(where string) ([]condition, error) {
	var conds []condition
	rest := strings.TrimSpace(where)
	for rest != "" {
		if len(conds) > 0 {
			loc := andPattern.FindStringIndex(rest)
			if loc == nil {
				return nil, fmt.Errorf("%w: expected AND in %q", ErrMalformedQuery, rest)
			}
			rest = rest[loc[1]:]
		}

		m := condPattern.FindStringSubmatchIndex(rest)
		if m == nil {
			return nil, fmt.Errorf("%w: bad condition %q", ErrMalformedQuery, rest)
		}

		c := condition{field: rest[m[2]:m[3]]}
		if m[4] >= 0 {
			v := unescapeQuoted(rest[m[4]:m[5]])
			c.value = &v
		}
		conds = append(conds, c)
		rest = rest[m[1]:]
	}
	return conds, nil
}

func unescapeQuoted(s string) string {
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

func (c condition) matches(id string, fields map[string]any) bool {
	var (
		v  any
		ok bool
	)
	if c.field == models.FieldID {
		v, ok = id, true
	} else {
		v, ok = fields[c.field]
	}

	if c.value == nil {
		return !ok || v == nil
	}
	if !ok || v == nil {
		return false
	}
	return text(v) == *c.value
}
