package models

import (
	"encoding/json"
	"fmt"
)

// ValueKind tags the variant held by a [Value].
type ValueKind int

const (
	// KindNull is an explicit null (xsi:nil), distinct from an absent field.
	KindNull ValueKind = iota
	// KindScalar is a single scalar (string from fragments, any JSON scalar otherwise).
	KindScalar
	// KindRecord is one nested record.
	KindRecord
	// KindList is an ordered sequence of values: repeated fields, nested
	// record arrays and accumulated query seeds all use it.
	KindList
	// KindSeed is a nested paginated fragment that has not been expanded.
	KindSeed
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindRecord:
		return "record"
	case KindList:
		return "list"
	case KindSeed:
		return "seed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is the tagged union stored in a record field.
// The zero Value is an explicit null.
type Value struct {
	kind   ValueKind
	scalar any
	record *Record
	list   []Value
	seed   *QuerySeed
}

// Null returns an explicit null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Scalar wraps a scalar. A nil scalar yields [Null].
func Scalar(v any) Value {
	if v == nil {
		return Null()
	}
	return Value{kind: KindScalar, scalar: v}
}

// RecordValue wraps a nested record.
func RecordValue(r Record) Value {
	return Value{kind: KindRecord, record: &r}
}

// List wraps an ordered sequence of values.
func List(values ...Value) Value {
	return Value{kind: KindList, list: values}
}

// RecordsValue wraps a sequence of nested records.
func RecordsValue(records ...Record) Value {
	values := make([]Value, 0, len(records))
	for _, r := range records {
		values = append(values, RecordValue(r))
	}
	return List(values...)
}

// SeedValue wraps a nested paginated fragment.
func SeedValue(s QuerySeed) Value {
	return Value{kind: KindSeed, seed: &s}
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNull reports whether v is an explicit null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Interface returns the scalar payload, nil for null, or the structured
// payload (Record, []Value, QuerySeed) for the other kinds.
func (v Value) Interface() any {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindRecord:
		return *v.record
	case KindList:
		return v.list
	case KindSeed:
		return *v.seed
	default:
		return nil
	}
}

// String returns the scalar formatted as a string.
func (v Value) String() (string, bool) {
	if v.kind != KindScalar {
		return "", false
	}
	if s, ok := v.scalar.(string); ok {
		return s, true
	}
	return fmt.Sprint(v.scalar), true
}

// Record returns the nested record when v holds one.
func (v Value) Record() (Record, bool) {
	if v.kind != KindRecord {
		return Record{}, false
	}
	return *v.record, true
}

// List returns the sequence when v holds one.
func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// Seed returns the nested paginated fragment when v holds one.
func (v Value) Seed() (QuerySeed, bool) {
	if v.kind != KindSeed {
		return QuerySeed{}, false
	}
	return *v.seed, true
}

// Records returns every record held by v: the record itself, or the record
// elements of a list.
func (v Value) Records() []Record {
	switch v.kind {
	case KindRecord:
		return []Record{*v.record}
	case KindList:
		var out []Record
		for _, item := range v.list {
			if r, ok := item.Record(); ok {
				out = append(out, r)
			}
		}
		return out
	}
	return nil
}

// Seeds returns every query seed held by v.
func (v Value) Seeds() []QuerySeed {
	switch v.kind {
	case KindSeed:
		return []QuerySeed{*v.seed}
	case KindList:
		var out []QuerySeed
		for _, item := range v.list {
			if s, ok := item.Seed(); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Append returns a list value holding v's elements followed by next.
// A non-list v becomes the first element.
func (v Value) Append(next Value) Value {
	if v.kind == KindList {
		list := make([]Value, 0, len(v.list)+1)
		list = append(list, v.list...)
		return List(append(list, next)...)
	}
	return List(v, next)
}

// MarshalJSON encodes the held variant.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindScalar:
		return json.Marshal(v.scalar)
	case KindRecord:
		return json.Marshal(*v.record)
	case KindList:
		return json.Marshal(v.list)
	case KindSeed:
		return json.Marshal(*v.seed)
	default:
		return []byte("null"), nil
	}
}
