package sandbox

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/MKhiriev/go-record-sync/internal/utils"
	"github.com/MKhiriev/go-record-sync/models"
)

// DefaultPageSize is the query page size used when none is configured.
const DefaultPageSize = 500

// DefaultRequiredFields lists the fields the sandbox requires on a few
// common object types.
var DefaultRequiredFields = map[string][]string{
	"Account": {"Name"},
	"Contact": {"LastName"},
	"Lead":    {"LastName", "Company"},
}

// IDGenerator issues record identifiers and query locators.
type IDGenerator interface {
	Generate() string
	RecordID(objectType string) string
}

type pendingPage struct {
	records []rawRecord
	size    int
}

type entry struct {
	objectType string
	fields     map[string]any
}

// Store is a concurrency-safe in-memory record store.
type Store struct {
	mu sync.Mutex

	records map[string]*entry
	order   []string
	deleted map[string]struct{}
	cursors map[string]pendingPage

	required    map[string][]string
	pageSize    int
	lockedCalls int
	ids         IDGenerator
}

// Option configures a Store.
type Option func(*Store)

// WithPageSize sets the number of records per query page.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithRequiredFields replaces the required fields of objectType.
func WithRequiredFields(objectType string, names ...string) Option {
	return func(s *Store) {
		s.required[objectType] = names
	}
}

// WithLockedWrites makes the next n write calls fail every record with
// UNABLE_TO_LOCK_ROW, like a remote under row lock contention.
func WithLockedWrites(n int) Option {
	return func(s *Store) {
		s.lockedCalls = n
	}
}

// WithIDGenerator overrides the identifier source.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		s.ids = g
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		records:  make(map[string]*entry),
		deleted:  make(map[string]struct{}),
		cursors:  make(map[string]pendingPage),
		required: make(map[string][]string, len(DefaultRequiredFields)),
		pageSize: DefaultPageSize,
		ids:      utils.NewUUIDGenerator(),
	}
	for k, v := range DefaultRequiredFields {
		s.required[k] = v
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LockWrites makes the next n write calls fail with UNABLE_TO_LOCK_ROW.
func (s *Store) LockWrites(n int) {
	s.mu.Lock()
	s.lockedCalls = n
	s.mu.Unlock()
}

// Len returns the number of live records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Create inserts records of objectType. Records must not carry an Id.
func (s *Store) Create(objectType string, records []map[string]any) []models.SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if locked, results := s.locked(len(records)); locked {
		return results
	}

	results := make([]models.SyncResult, 0, len(records))
	for _, raw := range records {
		if id, _ := raw[models.FieldID].(string); id != "" {
			results = append(results, failed(models.StatusInvalidField, "cannot specify Id in an insert call", models.FieldID))
			continue
		}

		fields := dataFields(raw)
		if missing := s.missing(objectType, fields); len(missing) > 0 {
			results = append(results, failed(models.StatusRequiredFieldMissing, "Required fields are missing: ["+strings.Join(missing, ", ")+"]", missing...))
			continue
		}

		id := s.ids.RecordID(objectType)
		s.records[id] = &entry{objectType: objectType, fields: fields}
		s.order = append(s.order, id)
		results = append(results, models.SyncResult{ID: id, Success: true})
	}
	return results
}

// Update applies records of objectType by Id. Fields listed in fieldsToNull
// are cleared after the values are applied.
func (s *Store) Update(objectType string, records []map[string]any) []models.SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if locked, results := s.locked(len(records)); locked {
		return results
	}

	results := make([]models.SyncResult, 0, len(records))
	for _, raw := range records {
		id, _ := raw[models.FieldID].(string)
		e, res := s.lookup(id)
		if e == nil {
			results = append(results, res)
			continue
		}
		if e.objectType != objectType {
			results = append(results, failed(models.StatusInvalidIDField, "id "+id+" is not a "+objectType, models.FieldID))
			continue
		}

		next := make(map[string]any, len(e.fields))
		for k, v := range e.fields {
			next[k] = v
		}
		for k, v := range dataFields(raw) {
			next[k] = v
		}
		for _, name := range stringList(raw[models.FieldFieldsToNull]) {
			delete(next, name)
		}

		if missing := s.missing(objectType, next); len(missing) > 0 {
			results = append(results, models.SyncResult{ID: id, Errors: []models.SyncError{{
				StatusCode: models.StatusRequiredFieldMissing,
				Message:    "Required fields are missing: [" + strings.Join(missing, ", ") + "]",
				Fields:     missing,
			}}})
			continue
		}

		e.fields = next
		results = append(results, models.SyncResult{ID: id, Success: true})
	}
	return results
}

// Delete removes records by id.
func (s *Store) Delete(ids []string) []models.SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if locked, results := s.locked(len(ids)); locked {
		return results
	}

	results := make([]models.SyncResult, 0, len(ids))
	for _, id := range ids {
		if e, res := s.lookup(id); e == nil {
			results = append(results, res)
			continue
		}
		delete(s.records, id)
		s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
		s.deleted[id] = struct{}{}
		results = append(results, models.SyncResult{ID: id, Success: true})
	}
	return results
}

// Query runs a SELECT statement and returns the first page.
func (s *Store) Query(text string) (QueryResult, error) {
	st, err := parseQuery(text)
	if err != nil {
		return QueryResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []rawRecord
	for _, id := range s.order {
		e := s.records[id]
		if e.objectType != st.objectType || !matchesAll(st.conds, id, e.fields) {
			continue
		}
		matched = append(matched, render(id, e, st.fields))
		if st.limit > 0 && len(matched) == st.limit {
			break
		}
	}

	return s.page(matched, len(matched)), nil
}

// QueryMore returns the page following locator. A locator can be used once.
func (s *Store) QueryMore(locator string) (QueryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rest, ok := s.cursors[locator]
	if !ok {
		return QueryResult{}, fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	delete(s.cursors, locator)

	return s.page(rest.records, rest.size), nil
}

func (s *Store) page(records []rawRecord, size int) QueryResult {
	if records == nil {
		records = []rawRecord{}
	}
	if len(records) <= s.pageSize {
		return QueryResult{Done: true, Size: size, Records: records}
	}

	locator := s.ids.Generate()
	s.cursors[locator] = pendingPage{records: records[s.pageSize:], size: size}
	return QueryResult{
		Done:         false,
		QueryLocator: locator,
		Size:         size,
		Records:      records[:s.pageSize],
	}
}

func (s *Store) locked(n int) (bool, []models.SyncResult) {
	if s.lockedCalls <= 0 {
		return false, nil
	}
	s.lockedCalls--
	results := make([]models.SyncResult, n)
	for i := range results {
		results[i] = failed(models.StatusUnableToLockRow, "unable to obtain exclusive access to this record")
	}
	return true, results
}

func (s *Store) lookup(id string) (*entry, models.SyncResult) {
	if id == "" {
		return nil, failed(models.StatusInvalidIDField, "Id not specified", models.FieldID)
	}
	if e, ok := s.records[id]; ok {
		return e, models.SyncResult{}
	}
	if _, ok := s.deleted[id]; ok {
		return nil, models.SyncResult{ID: id, Errors: []models.SyncError{{
			StatusCode: models.StatusEntityIsDeleted,
			Message:    "entity is deleted",
		}}}
	}
	return nil, models.SyncResult{ID: id, Errors: []models.SyncError{{
		StatusCode: models.StatusInvalidIDField,
		Message:    "invalid id: " + id,
		Fields:     []string{models.FieldID},
	}}}
}

func (s *Store) missing(objectType string, fields map[string]any) []string {
	var out []string
	for _, name := range s.required[objectType] {
		if v, ok := fields[name]; !ok || v == nil || v == "" {
			out = append(out, name)
		}
	}
	return out
}

func matchesAll(conds []condition, id string, fields map[string]any) bool {
	for _, c := range conds {
		if !c.matches(id, fields) {
			return false
		}
	}
	return true
}

func failed(code, message string, fields ...string) models.SyncResult {
	return models.SyncResult{Errors: []models.SyncError{{
		StatusCode: code,
		Message:    message,
		Fields:     fields,
	}}}
}

// dataFields drops the reserved attributes and explicit nulls of a record.
func dataFields(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		switch k {
		case models.FieldID, models.FieldType, models.FieldFieldsToNull:
			continue
		}
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// text renders a decoded JSON value as fragment text.
func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
