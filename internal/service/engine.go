// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sort"

	"github.com/MKhiriev/go-record-sync/internal/adapter"
	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/models"
)

// DefaultRetry is the retry budget of a new engine.
const DefaultRetry = 10

// Result keys of a composite push.
const (
	ResultUpdated = "updated"
	ResultCreated = "created"
)

// SyncEngine synchronizes the fields of one logical entity with the remote
// store. It is configured through chained With* calls and is not safe for
// concurrent use.
//
// Push-only and pull-only restrictions are one-shot: Push clears the
// push-only list and Pull clears the pull-only list and the supplied remote
// record.
type SyncEngine struct {
	objectType string
	entity     Entity
	fields     *FieldRegistry

	writer adapter.RecordWriter
	reader adapter.RecordReader
	logger *logger.Logger

	id           string
	retry        int
	pushOnly     []string
	pullOnly     []string
	required     []string
	fieldsToNull []string
	pushValues   []pushValue
	pullFields   []string
	remote       *models.Record
}

type pushValue struct {
	name  string
	value any
}

// NewSyncEngine returns an ad-hoc engine for objectType without registered
// fields. Values are supplied with [SyncEngine.WithPushValues].
func NewSyncEngine(objectType string, writer adapter.RecordWriter, reader adapter.RecordReader, log *logger.Logger) *SyncEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &SyncEngine{
		objectType: objectType,
		fields:     NewFieldRegistry(),
		writer:     writer,
		reader:     reader,
		logger:     log.WithComponent("sync_engine"),
		retry:      DefaultRetry,
	}
}

// NewEntitySyncEngine returns an engine driven by the fields entity registers.
func NewEntitySyncEngine(entity Entity, writer adapter.RecordWriter, reader adapter.RecordReader, log *logger.Logger) *SyncEngine {
	e := NewSyncEngine(entity.ObjectType(), writer, reader, log)
	e.entity = entity
	if fields := entity.SyncFields(); fields != nil {
		e.fields = fields
	}
	return e
}

// WithID sets the remote identifier, overriding the registered Id producer.
func (e *SyncEngine) WithID(id string) *SyncEngine {
	e.id = id
	return e
}

// WithRetry sets the retry budget. Zero disables retries.
func (e *SyncEngine) WithRetry(limit int) *SyncEngine {
	e.retry = max(limit, 0)
	return e
}

// WithPushOnlyFields restricts the next push to names. Id and the required
// fields stay included.
func (e *SyncEngine) WithPushOnlyFields(names ...string) *SyncEngine {
	e.pushOnly = names
	return e
}

// WithPullOnlyFields restricts the next pull to names.
func (e *SyncEngine) WithPullOnlyFields(names ...string) *SyncEngine {
	e.pullOnly = names
	return e
}

// WithRequiredFields declares fields pushed even under a push-only
// restriction.
func (e *SyncEngine) WithRequiredFields(names ...string) *SyncEngine {
	e.required = names
	return e
}

// WithFieldsToNull seeds the list of fields an update clears.
func (e *SyncEngine) WithFieldsToNull(names ...string) *SyncEngine {
	e.fieldsToNull = names
	return e
}

// WithPushValues replaces the registered producers with fixed values. Fields
// are pushed in name order.
func (e *SyncEngine) WithPushValues(values map[string]any) *SyncEngine {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	e.pushValues = make([]pushValue, 0, len(names))
	for _, name := range names {
		if name == models.FieldID {
			if s, ok := values[name].(string); ok && e.id == "" {
				e.id = s
			}
			continue
		}
		e.pushValues = append(e.pushValues, pushValue{name: name, value: values[name]})
	}
	return e
}

// WithPullFields sets an explicit field list for pulls. Id is always added.
// Consumers are not invoked while an explicit list is set.
func (e *SyncEngine) WithPullFields(names ...string) *SyncEngine {
	if len(names) == 0 {
		e.pullFields = nil
		return e
	}
	e.pullFields = models.Unique(append(slices.Clone(names), models.FieldID))
	return e
}

// WithRemoteRecord makes the next pull use rec instead of querying the remote
// store, restricted to the fields rec carries.
func (e *SyncEngine) WithRemoteRecord(rec models.Record) *SyncEngine {
	e.remote = &rec
	e.pullOnly = rec.Names()
	return e
}

// ObjectType returns the remote object type.
func (e *SyncEngine) ObjectType() string {
	return e.objectType
}

// ID returns the explicit identifier, or the value of the registered Id
// producer.
func (e *SyncEngine) ID() string {
	if e.id != "" {
		return e.id
	}
	p, ok := e.fields.Producer(models.FieldID)
	if !ok {
		return ""
	}
	switch v := deref(p()).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		if isIgnore(v) {
			return ""
		}
		return fmt.Sprint(v)
	}
}

// PushFields returns the names of the fields the next push sends.
func (e *SyncEngine) PushFields() []string {
	if len(e.pushValues) > 0 {
		names := make([]string, 0, len(e.pushValues))
		for _, pv := range e.pushValues {
			names = append(names, pv.name)
		}
		return names
	}

	available := e.fields.PushNames()
	if !slices.Contains(available, models.FieldID) {
		available = append([]string{models.FieldID}, available...)
	}
	if len(e.pushOnly) == 0 {
		return available
	}

	allowed := models.Unique(append(append(slices.Clone(e.pushOnly), models.FieldID), e.required...))
	return intersect(allowed, available)
}

// PullFields returns the names of the fields the next pull selects.
func (e *SyncEngine) PullFields() []string {
	if len(e.pullFields) > 0 {
		return slices.Clone(e.pullFields)
	}
	available := e.fields.PullNames()
	if len(e.pullOnly) == 0 {
		return available
	}
	return intersect(e.pullOnly, available)
}

// LocalObject builds the outbound record of the entity.
//
// A nil field value clears the remote field through FieldsToNull when the
// record has an identifier and is left out otherwise. Fields whose producer
// returns [Ignore] are never sent.
func (e *SyncEngine) LocalObject() models.Record {
	rec := models.NewRecord(e.objectType)
	rec.ID = e.ID()

	toNull := slices.Clone(e.fieldsToNull)
	set := func(name string, raw any) {
		if isIgnore(raw) {
			return
		}
		v := toValue(raw)
		if v.IsNull() {
			toNull = append(toNull, name)
			return
		}
		rec.Set(name, v)
	}

	if len(e.pushValues) > 0 {
		for _, pv := range e.pushValues {
			set(pv.name, pv.value)
		}
	} else {
		for _, name := range e.PushFields() {
			if name == models.FieldID {
				continue
			}
			p, ok := e.fields.Producer(name)
			if !ok {
				continue
			}
			set(name, p())
		}
	}

	if rec.HasID() && len(toNull) > 0 {
		rec.FieldsToNull = models.Unique(toNull)
	}
	return rec
}

// RemoteObject returns the remote record identified by id (or by the engine
// identifier). A record supplied through WithRemoteRecord is returned as is.
// It returns nil when there is no identifier, no pull field or no match.
func (e *SyncEngine) RemoteObject(ctx context.Context, id string) (*models.Record, error) {
	if e.remote != nil {
		return e.remote, nil
	}
	if e.objectType == "" {
		return nil, ErrEmptyObjectType
	}
	if id == "" {
		id = e.ID()
	}
	fields := e.PullFields()
	if id == "" || len(fields) == 0 {
		return nil, nil
	}
	if e.reader == nil {
		return nil, fmt.Errorf("%w: record reader", ErrMissingDependency)
	}

	page, err := e.reader.Query(ctx, models.ByID(e.objectType, id, fields))
	if err != nil {
		return nil, fmt.Errorf("query %s %s: %w", e.objectType, id, err)
	}
	if len(page.Records) == 0 {
		return nil, nil
	}

	rec := page.Records[0]
	e.remote = &rec
	return e.remote, nil
}

// Pull fetches the remote record and hands every pulled field to its
// consumer. A field the remote record lacks is consumed as null.
func (e *SyncEngine) Pull(ctx context.Context, id string) (*models.Record, error) {
	defer func() {
		e.pullOnly = nil
		e.remote = nil
	}()

	if id == "" {
		id = e.ID()
	}
	if id == "" {
		return nil, nil
	}

	rec, err := e.RemoteObject(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil || len(e.pullFields) > 0 {
		return rec, nil
	}

	for _, name := range e.PullFields() {
		consume, ok := e.fields.Consumer(name)
		if !ok {
			continue
		}
		v, found := rec.Get(name)
		switch {
		case name == models.FieldID:
			v = models.Scalar(rec.ID)
		case !found:
			v = models.Null()
		}
		if err = consume(v); err != nil {
			return rec, fmt.Errorf("%w: %s: %w", ErrPullConsumer, name, err)
		}
	}

	return rec, nil
}

// PushResult holds the outcome of a push. Only the groups that were written
// are non-empty.
type PushResult struct {
	Updated []models.SyncResult
	Created []models.SyncResult
}

// Composite reports whether both an update and a create were written.
func (r PushResult) Composite() bool {
	return len(r.Updated) > 0 && len(r.Created) > 0
}

// Results returns the single written group, or both groups updates first.
func (r PushResult) Results() []models.SyncResult {
	out := make([]models.SyncResult, 0, len(r.Updated)+len(r.Created))
	out = append(out, r.Updated...)
	return append(out, r.Created...)
}

// ByOperation returns the written groups keyed by [ResultUpdated] and
// [ResultCreated].
func (r PushResult) ByOperation() map[string][]models.SyncResult {
	out := make(map[string][]models.SyncResult, 2)
	if len(r.Updated) > 0 {
		out[ResultUpdated] = r.Updated
	}
	if len(r.Created) > 0 {
		out[ResultCreated] = r.Created
	}
	return out
}

// Push writes objects, or the entity's local object when none are given.
// Records with an identifier are updated, the rest created; each group goes
// through the retry protocol on its own, updates first.
func (e *SyncEngine) Push(ctx context.Context, objects ...models.Record) (PushResult, error) {
	var res PushResult
	if e.objectType == "" {
		return res, ErrEmptyObjectType
	}
	if len(objects) == 0 {
		objects = []models.Record{e.LocalObject()}
	}
	e.pushOnly = nil

	var updates, creates []models.Record
	for _, o := range objects {
		if o.HasID() {
			updates = append(updates, o)
		} else {
			creates = append(creates, o)
		}
	}

	var err error
	if len(updates) > 0 {
		if res.Updated, err = e.attempt(ctx, models.OperationUpdate, updates); err != nil {
			return res, err
		}
	}
	if len(creates) > 0 {
		if res.Created, err = e.attempt(ctx, models.OperationCreate, creates); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Delete removes the records identified by ids, or the entity's own record.
// Deletes are not retried.
func (e *SyncEngine) Delete(ctx context.Context, ids ...string) ([]models.SyncResult, error) {
	if e.objectType == "" {
		return nil, ErrEmptyObjectType
	}
	if len(ids) == 0 {
		ids = []string{e.ID()}
	}

	records := make([]models.Record, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		records = append(records, models.Record{ID: id, Type: e.objectType})
	}
	if len(records) == 0 {
		return nil, nil
	}
	if e.writer == nil {
		return nil, fmt.Errorf("%w: record writer", ErrMissingDependency)
	}

	results := e.write(ctx, models.OperationDelete, records)
	return validate(results, e.failure(models.OperationDelete, records, nil))
}

func (e *SyncEngine) failure(op models.Operation, objects []models.Record, attempts [][]models.SyncResult) *SyncFailedError {
	return &SyncFailedError{
		Operation:  op,
		ObjectType: e.objectType,
		Attempts:   attempts,
		Entity:     e.entity,
		Objects:    objects,
	}
}

func intersect(names, available []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if slices.Contains(available, n) {
			out = append(out, n)
		}
	}
	return out
}

// toValue converts a produced value into a field value.
func toValue(raw any) models.Value {
	switch v := deref(raw).(type) {
	case nil:
		return models.Null()
	case models.Value:
		return v
	case models.Record:
		return models.RecordValue(v)
	case []models.Record:
		return models.RecordsValue(v...)
	default:
		return models.Scalar(v)
	}
}

// deref follows pointers down to the pointed-to value. A nil pointer yields
// nil.
func deref(raw any) any {
	if raw == nil {
		return nil
	}
	rv := reflect.ValueOf(raw)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}
