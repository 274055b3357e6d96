package service

import (
	"github.com/MKhiriev/go-record-sync/models"
)

// Producer returns the local value of a field to push. Returning nil means
// "no value"; returning [Ignore] leaves the field out of the pushed record.
type Producer func() any

// Consumer applies a pulled remote value to local state.
type Consumer func(v models.Value) error

type ignoreValue struct{}

// Ignore is the value a [Producer] returns when its field must not be pushed.
var Ignore any = ignoreValue{}

func isIgnore(v any) bool {
	_, ok := v.(ignoreValue)
	return ok
}

// Entity is a local type that knows its remote object type and the fields it
// syncs.
type Entity interface {
	ObjectType() string
	SyncFields() *FieldRegistry
}

type fieldFuncs struct {
	push Producer
	pull Consumer
}

// FieldRegistry maps remote field names to an optional producer (push side)
// and an optional consumer (pull side). Names keep registration order.
type FieldRegistry struct {
	order []string
	funcs map[string]*fieldFuncs
}

// NewFieldRegistry returns an empty registry.
func NewFieldRegistry() *FieldRegistry {
	return &FieldRegistry{funcs: make(map[string]*fieldFuncs)}
}

func (r *FieldRegistry) entry(name string) *fieldFuncs {
	if r.funcs == nil {
		r.funcs = make(map[string]*fieldFuncs)
	}
	f, ok := r.funcs[name]
	if !ok {
		f = &fieldFuncs{}
		r.funcs[name] = f
		r.order = append(r.order, name)
	}
	return f
}

// Push registers the producer of name.
func (r *FieldRegistry) Push(name string, p Producer) *FieldRegistry {
	r.entry(name).push = p
	return r
}

// Pull registers the consumer of name.
func (r *FieldRegistry) Pull(name string, c Consumer) *FieldRegistry {
	r.entry(name).pull = c
	return r
}

// Field registers both directions of name at once. Either may be nil.
func (r *FieldRegistry) Field(name string, p Producer, c Consumer) *FieldRegistry {
	f := r.entry(name)
	f.push = p
	f.pull = c
	return r
}

// Producer returns the producer registered for name.
func (r *FieldRegistry) Producer(name string) (Producer, bool) {
	if r == nil {
		return nil, false
	}
	f, ok := r.funcs[name]
	if !ok || f.push == nil {
		return nil, false
	}
	return f.push, true
}

// Consumer returns the consumer registered for name.
func (r *FieldRegistry) Consumer(name string) (Consumer, bool) {
	if r == nil {
		return nil, false
	}
	f, ok := r.funcs[name]
	if !ok || f.pull == nil {
		return nil, false
	}
	return f.pull, true
}

// PushNames returns the fields that have a producer.
func (r *FieldRegistry) PushNames() []string {
	if r == nil {
		return nil
	}
	var names []string
	for _, n := range r.order {
		if r.funcs[n].push != nil {
			names = append(names, n)
		}
	}
	return names
}

// PullNames returns the fields that have a consumer.
func (r *FieldRegistry) PullNames() []string {
	if r == nil {
		return nil
	}
	var names []string
	for _, n := range r.order {
		if r.funcs[n].pull != nil {
			names = append(names, n)
		}
	}
	return names
}
