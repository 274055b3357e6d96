package sandbox

import (
	"encoding/xml"
	"strings"

	"github.com/MKhiriev/go-record-sync/models"
)

// QueryResult is the raw result of query and queryMore.
type QueryResult struct {
	Done         bool        `json:"done"`
	QueryLocator string      `json:"queryLocator,omitempty"`
	Size         int         `json:"size"`
	Records      []rawRecord `json:"records"`
}

// rawRecord is one record in the remote layout: the identifier appears twice
// and every selected field is a fragment inside "any".
type rawRecord struct {
	Type string   `json:"type"`
	ID   []string `json:"Id"`
	Any  []string `json:"any"`
}

func render(id string, e *entry, fields []string) rawRecord {
	rec := rawRecord{
		Type: e.objectType,
		ID:   []string{id, id},
		Any:  make([]string, 0, len(fields)),
	}
	for _, name := range fields {
		if name == models.FieldID {
			continue
		}
		v, ok := e.fields[name]
		if !ok || v == nil {
			rec.Any = append(rec.Any, `<sf:`+name+` xsi:nil="true"/>`)
			continue
		}
		rec.Any = append(rec.Any, `<sf:`+name+`>`+escape(text(v))+`</sf:`+name+`>`)
	}
	return rec
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
