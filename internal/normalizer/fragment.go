package normalizer

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"unicode"

	"github.com/MKhiriev/go-record-sync/models"
)

const (
	namespaceXSI    = "http://www.w3.org/2001/XMLSchema-instance"
	namespaceFields = "urn:sobject.partner.soap.sforce.com"

	fragmentRoot = "Object"
)

var fragmentOpen = `<` + fragmentRoot +
	` xmlns:xsi="` + namespaceXSI + `"` +
	` xmlns:xsd="http://www.w3.org/2001/XMLSchema"` +
	` xmlns:sf="` + namespaceFields + `">`

type parsedField struct {
	name  string
	value models.Value
}

type node struct {
	name     string
	null     bool
	text     strings.Builder
	children []*node
}

// parseFragments parses concatenated field fragments. Fields completed before
// a syntax error are returned together with the error.
func parseFragments(doc string) ([]parsedField, error) {
	src := fragmentOpen + doc + "</" + fragmentRoot + ">"
	dec := xml.NewDecoder(strings.NewReader(src))

	var (
		fields []parsedField
		index  = make(map[string]int)
		stack  []*node
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return fields, nil
		}
		if err != nil {
			return fields, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == fragmentRoot && len(stack) == 0 {
				stack = append(stack, &node{name: fragmentRoot})
				continue
			}
			n := &node{name: t.Name.Local, null: isNil(t.Attr)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.CharData:
			if len(stack) > 1 {
				stack[len(stack)-1].text.Write(bytes.Clone(t))
			}
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			// only direct children of the root are fields of the record
			if len(stack) != 1 {
				continue
			}
			v := n.value()
			if i, ok := index[n.name]; ok {
				fields[i].value = fields[i].value.Append(v)
				continue
			}
			index[n.name] = len(fields)
			fields = append(fields, parsedField{name: n.name, value: v})
		}
	}
}

func (n *node) value() models.Value {
	if n.null {
		return models.Null()
	}
	if len(n.children) == 0 {
		return models.Scalar(n.text.String())
	}

	rec := models.NewRecord("")
	for _, c := range n.children {
		v := c.value()
		if c.name == models.FieldID {
			if id := idFromValue(v); id != "" {
				rec.ID = id
			}
			continue
		}
		if existing, ok := rec.Get(c.name); ok {
			rec.Set(c.name, existing.Append(v))
			continue
		}
		rec.Set(c.name, v)
	}
	return models.RecordValue(rec)
}

func isNil(attrs []xml.Attr) bool {
	for _, a := range attrs {
		if a.Name.Local == "nil" && (a.Name.Space == namespaceXSI || a.Name.Space == "xsi") {
			return a.Value == "true" || a.Value == "1"
		}
	}
	return false
}

func escapeText(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// isElementName reports whether key can be used as an unprefixed element name.
func isElementName(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return !strings.HasPrefix(strings.ToLower(key), "xml")
}
