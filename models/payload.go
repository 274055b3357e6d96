package models

import (
	"bytes"
	"encoding/json"
)

// Payload is the generic, self-describing shape returned by the remote RPC
// dialect before normalization. It is one of [PayloadScalar], [PayloadObject]
// or [PayloadArray].
type Payload interface {
	isPayload()
}

// PayloadScalar is a leaf value. A nil Value is an explicit null.
type PayloadScalar struct {
	Value any
}

// PayloadMember is one keyed entry of an object or array. Array entries use
// their position ("0", "1", ...) as key unless the transport supplies a name.
type PayloadMember struct {
	Key   string
	Value Payload
}

// PayloadObject is an associative structure with ordered members.
type PayloadObject struct {
	Members []PayloadMember
}

// PayloadArray is an ordered list of entries.
type PayloadArray struct {
	Items []PayloadMember
}

func (PayloadScalar) isPayload() {}
func (PayloadObject) isPayload() {}
func (PayloadArray) isPayload()  {}

// Get returns the member stored under key.
func (o PayloadObject) Get(key string) (Payload, bool) {
	for _, m := range o.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present with a non-null value.
func (o PayloadObject) Has(key string) bool {
	v, ok := o.Get(key)
	if !ok {
		return false
	}
	if s, isScalar := v.(PayloadScalar); isScalar && s.Value == nil {
		return false
	}
	return true
}

// MarshalJSON encodes the scalar value.
func (s PayloadScalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value)
}

// MarshalJSON encodes members in their original order.
func (o PayloadObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o.Members {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		val, err := marshalPayload(m.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes the items as a JSON array, dropping their keys.
func (a PayloadArray) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range a.Items {
		if i > 0 {
			buf.WriteByte(',')
		}
		val, err := marshalPayload(item.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalPayload(p Payload) ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	return json.Marshal(p)
}
