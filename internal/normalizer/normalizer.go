// Package normalizer converts the generic, self-describing payload returned by
// the remote RPC dialect into typed [models.Record] values.
//
// Every object is classified by its markers, in priority order:
//   - a "type" member: a nested record;
//   - a "done" or "queryLocator" member: a nested paginated fragment, kept as
//     an unexpanded [models.QuerySeed];
//   - neither: raw field data.
//
// The "any" member of a record carries its loosely typed part. String entries
// of "any" are field fragments; they are reassembled into a single document
// and parsed field by field. A malformed fragment document never fails the
// normalization: the record is returned with the fields recovered so far and
// flagged partial, and the problem is logged.
package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/models"
)

// Normalizer turns raw payloads into records. It holds no state besides the
// logger used for malformed-payload diagnostics and is safe for concurrent use.
type Normalizer struct {
	logger *logger.Logger
}

// New returns a Normalizer reporting diagnostics to log.
func New(log *logger.Logger) *Normalizer {
	if log == nil {
		log = logger.Nop()
	}
	return &Normalizer{logger: log}
}

type shape int

const (
	shapeRecord shape = iota
	shapeSeed
	shapeFields
	shapeFragment
)

func classify(p models.Payload) shape {
	obj, ok := p.(models.PayloadObject)
	if !ok {
		return shapeFragment
	}
	switch {
	case obj.Has(models.FieldType):
		return shapeRecord
	case obj.Has("done"), obj.Has("queryLocator"):
		return shapeSeed
	default:
		return shapeFields
	}
}

// Normalize converts p into records: an object yields one record, an array
// yields one record per object entry. Nested paginated fragments found at the
// top level of an array contribute their first-page records.
func (n *Normalizer) Normalize(p models.Payload) ([]models.Record, error) {
	switch v := p.(type) {
	case models.PayloadObject:
		if classify(v) == shapeSeed {
			return n.seedRecords(n.Seed(v)), nil
		}
		return []models.Record{n.record(v)}, nil
	case models.PayloadArray:
		records := make([]models.Record, 0, len(v.Items))
		for _, item := range v.Items {
			obj, ok := item.Value.(models.PayloadObject)
			if !ok {
				n.logger.Warn().Str("key", item.Key).Msg("skipping non-object entry in record list")
				continue
			}
			if classify(obj) == shapeSeed {
				records = append(records, n.seedRecords(n.Seed(obj))...)
				continue
			}
			records = append(records, n.record(obj))
		}
		return records, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedPayload, p)
	}
}

// Record converts a single object payload into a record.
func (n *Normalizer) Record(p models.Payload) (models.Record, error) {
	obj, ok := p.(models.PayloadObject)
	if !ok {
		return models.Record{}, fmt.Errorf("%w: %T", ErrUnsupportedPayload, p)
	}
	return n.record(obj), nil
}

// Page converts a query-result payload into a page of normalized records.
func (n *Normalizer) Page(p models.Payload) (models.Page, error) {
	obj, ok := p.(models.PayloadObject)
	if !ok {
		return models.Page{}, fmt.Errorf("%w: %T", ErrUnsupportedPayload, p)
	}
	return n.PageFromSeed(n.Seed(obj)), nil
}

// PageFromSeed normalizes the first-page records of a nested fragment.
func (n *Normalizer) PageFromSeed(seed models.QuerySeed) models.Page {
	return models.Page{
		Records: n.seedRecords(seed),
		Locator: seed.Locator,
		Done:    seed.Done,
		Size:    seed.Size,
	}
}

// Seed reads the continuation state and raw records of a paginated fragment
// without normalizing the records.
func (n *Normalizer) Seed(obj models.PayloadObject) models.QuerySeed {
	var seed models.QuerySeed

	if v, ok := obj.Get("queryLocator"); ok {
		seed.Locator, _ = scalarString(v)
	}
	if v, ok := obj.Get("done"); ok {
		seed.Done = scalarBool(v)
	}
	if v, ok := obj.Get("size"); ok {
		seed.Size = scalarInt(v)
	}
	if v, ok := obj.Get("records"); ok {
		switch r := v.(type) {
		case models.PayloadArray:
			for _, item := range r.Items {
				seed.Records = append(seed.Records, item.Value)
			}
		case models.PayloadObject:
			seed.Records = append(seed.Records, r)
		}
	}

	return seed
}

func (n *Normalizer) seedRecords(seed models.QuerySeed) []models.Record {
	records := make([]models.Record, 0, len(seed.Records))
	for _, raw := range seed.Records {
		obj, ok := raw.(models.PayloadObject)
		if !ok {
			continue
		}
		records = append(records, n.record(obj))
	}
	return records
}

func (n *Normalizer) record(obj models.PayloadObject) models.Record {
	rec := models.NewRecord("")

	var anyPayload models.Payload
	for _, m := range obj.Members {
		switch m.Key {
		case models.FieldID:
			rec.ID = collapseID(m.Value)
		case models.FieldType:
			rec.Type, _ = scalarString(m.Value)
		case models.FieldAny:
			anyPayload = m.Value
		case models.FieldFieldsToNull:
		default:
			rec.Set(m.Key, n.value(m.Value))
		}
	}

	if anyPayload != nil {
		n.expandAny(&rec, anyPayload)
	}

	return rec
}

// value converts a keyed member into a field value.
func (n *Normalizer) value(p models.Payload) models.Value {
	switch v := p.(type) {
	case nil:
		return models.Null()
	case models.PayloadScalar:
		return models.Scalar(v.Value)
	case models.PayloadObject:
		switch classify(v) {
		case shapeSeed:
			return models.SeedValue(n.Seed(v))
		default:
			return models.RecordValue(n.record(v))
		}
	case models.PayloadArray:
		values := make([]models.Value, 0, len(v.Items))
		for _, item := range v.Items {
			values = append(values, n.value(item.Value))
		}
		return models.List(values...)
	}
	return models.Null()
}

func (n *Normalizer) expandAny(rec *models.Record, p models.Payload) {
	switch v := p.(type) {
	case models.PayloadScalar:
		if s, ok := v.Value.(string); ok {
			n.applyFragments(rec, s)
		}
	case models.PayloadObject:
		switch classify(v) {
		case shapeRecord:
			rec.Set(models.FieldChildren, models.RecordsValue(n.record(v)))
		case shapeSeed:
			rec.Set(models.FieldSubqueries, models.List(models.SeedValue(n.Seed(v))))
		default:
			n.expandAnyArray(rec, models.PayloadArray{Items: v.Members})
		}
	case models.PayloadArray:
		n.expandAnyArray(rec, v)
	}
}

func (n *Normalizer) expandAnyArray(rec *models.Record, arr models.PayloadArray) {
	type child struct {
		key    string
		record models.Record
	}

	var (
		fragments strings.Builder
		children  []child
		seeds     []models.Value
		plain     []models.PayloadMember
	)

	for _, item := range arr.Items {
		switch classify(item.Value) {
		case shapeRecord:
			obj := item.Value.(models.PayloadObject)
			children = append(children, child{key: item.Key, record: n.record(obj)})
		case shapeSeed:
			seeds = append(seeds, models.SeedValue(n.Seed(item.Value.(models.PayloadObject))))
		case shapeFields:
			plain = append(plain, item.Value.(models.PayloadObject).Members...)
		default:
			fragments.WriteString(fragmentText(item.Key, item.Value))
		}
	}

	if fragments.Len() > 0 {
		n.applyFragments(rec, fragments.String())
	}
	for _, m := range plain {
		rec.Set(m.Key, n.value(m.Value))
	}
	for _, c := range children {
		rec.Set(c.key, models.RecordValue(c.record))
	}
	if len(seeds) > 0 {
		rec.Set(models.FieldSubqueries, models.List(seeds...))
	}
}

func (n *Normalizer) applyFragments(rec *models.Record, doc string) {
	fields, err := parseFragments(doc)
	for _, f := range fields {
		if f.name == models.FieldID {
			if id := idFromValue(f.value); id != "" {
				rec.ID = id
			}
			continue
		}
		rec.Set(f.name, f.value)
	}
	if err != nil {
		rec.MarkPartial()
		n.logger.Warn().
			Err(errors.Join(ErrMalformedPayload, err)).
			Str("type", rec.Type).
			Str("id", rec.ID).
			Int("fragment_length", len(doc)).
			Int("recovered_fields", len(fields)).
			Msg("malformed field fragments, returning partial record")
	}
}

// fragmentText renders one non-object "any" entry as a field fragment.
// Entries already carrying the field namespace prefix are used verbatim;
// bare values are wrapped in an element named after their key.
func fragmentText(key string, p models.Payload) string {
	s, ok := p.(models.PayloadScalar)
	if !ok {
		return ""
	}
	if s.Value == nil {
		if !isElementName(key) {
			return ""
		}
		return fmt.Sprintf(`<sf:%s xsi:nil="true"/>`, key)
	}

	text, isString := s.Value.(string)
	if !isString {
		text = fmt.Sprint(s.Value)
	}
	if strings.Contains(text, "sf:") || !isElementName(key) {
		return text
	}
	return fmt.Sprintf("<sf:%s>%s</sf:%s>", key, escapeText(text), key)
}

func collapseID(p models.Payload) string {
	switch v := p.(type) {
	case models.PayloadScalar:
		s, _ := scalarString(v)
		return s
	case models.PayloadArray:
		if len(v.Items) == 0 {
			return ""
		}
		return collapseID(v.Items[0].Value)
	}
	return ""
}

func idFromValue(v models.Value) string {
	if list, ok := v.List(); ok {
		if len(list) == 0 {
			return ""
		}
		return idFromValue(list[0])
	}
	s, _ := v.String()
	return s
}

func scalarString(p models.Payload) (string, bool) {
	s, ok := p.(models.PayloadScalar)
	if !ok || s.Value == nil {
		return "", false
	}
	if str, isString := s.Value.(string); isString {
		return str, true
	}
	return fmt.Sprint(s.Value), true
}

func scalarBool(p models.Payload) bool {
	s, ok := p.(models.PayloadScalar)
	if !ok {
		return false
	}
	switch v := s.Value.(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func scalarInt(p models.Payload) int {
	s, ok := p.(models.PayloadScalar)
	if !ok {
		return 0
	}
	switch v := s.Value.(type) {
	case json.Number:
		i, _ := v.Int64()
		return int(i)
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		i, _ := strconv.Atoi(v)
		return i
	}
	return 0
}
