// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Reserved attribute names. They are promoted to first-class [Record]
// attributes and never appear as data fields.
const (
	FieldID           = "Id"
	FieldType         = "type"
	FieldAny          = "any"
	FieldFieldsToNull = "fieldsToNull"
)

// Field names under which the normalizer stores nested data that the remote
// payload does not give a name to.
const (
	// FieldChildren holds the single nested record carried by an "any" object.
	FieldChildren = "sobjects"
	// FieldSubqueries holds the nested paginated fragments found in "any".
	FieldSubqueries = "queryResult"
)

// Record is a typed view of one remote entity instance.
//
// An empty ID means the record does not exist remotely yet (pushing it creates
// it). Records are values: a copy can be modified with Set without affecting
// the record it was copied from.
type Record struct {
	// ID is the remote identifier. Empty when absent.
	ID string

	// Type is the remote object type name (e.g. "Contact").
	Type string

	// FieldsToNull lists the fields an update must explicitly clear.
	// Nil when no such list was produced.
	FieldsToNull []string

	fields  []field
	partial bool
}

type field struct {
	name  string
	value Value
}

// NewRecord returns an empty record of the given object type.
func NewRecord(objectType string) Record {
	return Record{Type: objectType}
}

// Set stores value under name, keeping the original declaration position when
// the field already exists. Reserved attribute names are routed to ID/Type.
// Set never writes into storage shared with copies of r.
func (r *Record) Set(name string, value Value) {
	switch name {
	case FieldID:
		if s, ok := value.String(); ok {
			r.ID = s
		}
		return
	case FieldType:
		if s, ok := value.String(); ok {
			r.Type = s
		}
		return
	}

	if i := r.find(name); i >= 0 {
		r.fields = slices.Clone(r.fields)
		r.fields[i].value = value
		return
	}
	r.fields = append(slices.Clip(r.fields), field{name: name, value: value})
}

func (r Record) find(name string) int {
	return slices.IndexFunc(r.fields, func(f field) bool { return f.name == name })
}

// Get returns the value stored under name and whether the field is present.
// An explicit null is present and has kind [KindNull].
func (r Record) Get(name string) (Value, bool) {
	i := r.find(name)
	if i < 0 {
		return Value{}, false
	}
	return r.fields[i].value, true
}

// Has reports whether name is present in the field set.
func (r Record) Has(name string) bool {
	return r.find(name) >= 0
}

// Names returns field names in declaration order.
func (r Record) Names() []string {
	names := make([]string, 0, len(r.fields))
	for _, f := range r.fields {
		names = append(names, f.name)
	}
	return names
}

// Len returns the number of data fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Range calls fn for every field in declaration order until fn returns false.
func (r Record) Range(fn func(name string, value Value) bool) {
	for _, f := range r.fields {
		if !fn(f.name, f.value) {
			return
		}
	}
}

// HasID reports whether the record carries a remote identifier.
func (r Record) HasID() bool {
	return r.ID != ""
}

// IsPartial reports whether the normalizer could only recover part of the
// record's field set.
func (r Record) IsPartial() bool {
	return r.partial
}

// MarkPartial flags the record as recovered from a malformed payload.
func (r *Record) MarkPartial() {
	r.partial = true
}

// Children returns the nested records stored under [FieldChildren].
func (r Record) Children() []Record {
	v, ok := r.Get(FieldChildren)
	if !ok {
		return nil
	}
	return v.Records()
}

// Subqueries returns the nested paginated fragments stored under
// [FieldSubqueries].
func (r Record) Subqueries() []QuerySeed {
	v, ok := r.Get(FieldSubqueries)
	if !ok {
		return nil
	}
	return v.Seeds()
}

// MarshalJSON encodes the record in the wire layout: type and Id first, then
// fieldsToNull (when produced) and data fields in declaration order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeMember := func(name string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	if r.Type != "" {
		if err := writeMember(FieldType, r.Type); err != nil {
			return nil, err
		}
	}
	if r.ID != "" {
		if err := writeMember(FieldID, r.ID); err != nil {
			return nil, err
		}
	}
	if r.FieldsToNull != nil {
		if err := writeMember(FieldFieldsToNull, r.FieldsToNull); err != nil {
			return nil, err
		}
	}
	for _, f := range r.fields {
		if err := writeMember(f.name, f.value); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
