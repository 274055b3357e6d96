package adapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/MKhiriev/go-record-sync/models"
)

// decodePayload decodes a JSON document into the generic payload tree,
// keeping object members in document order. Numbers are kept as
// [json.Number] so large integers survive unchanged.
func decodePayload(data []byte) (models.Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	p, err := readPayload(dec)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if _, err = dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode payload: trailing data")
	}
	return p, nil
}

func readPayload(dec *json.Decoder) (models.Payload, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return models.PayloadScalar{Value: tok}, nil
	}

	switch delim {
	case '{':
		var obj models.PayloadObject
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			value, err := readPayload(dec)
			if err != nil {
				return nil, err
			}
			obj.Members = append(obj.Members, models.PayloadMember{Key: key, Value: value})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		var arr models.PayloadArray
		for i := 0; dec.More(); i++ {
			value, err := readPayload(dec)
			if err != nil {
				return nil, err
			}
			arr.Items = append(arr.Items, models.PayloadMember{Key: strconv.Itoa(i), Value: value})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}

	return nil, fmt.Errorf("unexpected delimiter %q", delim)
}
