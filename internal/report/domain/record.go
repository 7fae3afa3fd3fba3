package report

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is a single named value of an upstream record.
type Field struct {
	Name  string
	Value any
}

// Record is one upstream row with its fields in payload order.
// Values are float64, string, bool, nil or json.RawMessage for nested data.
type Record struct {
	Fields []Field
}

// NewRecord builds a record from fields.
func NewRecord(fields ...Field) Record {
	return Record{Fields: fields}
}

// Get returns the value of the field with the given name. When a name is
// repeated the last value wins, matching encoding/json.
func (r Record) Get(name string) (any, bool) {
	for i := len(r.Fields) - 1; i >= 0; i-- {
		if r.Fields[i].Name == name {
			return r.Fields[i].Value, true
		}
	}
	return nil, false
}

// UnmarshalJSON decodes a JSON object keeping field order. A repeated key
// keeps its first position and its last value.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected object", ErrInvalidRecord)
	}
	var fields []Field
	position := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: expected field name", ErrInvalidRecord)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		value, err := decodeValue(raw)
		if err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrInvalidRecord, name, err)
		}
		if i, dup := position[name]; dup {
			fields[i].Value = value
			continue
		}
		position[name] = len(fields)
		fields = append(fields, Field{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	r.Fields = fields
	return nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case 'n':
		return nil, nil
	case 't', 'f':
		var b bool
		err := json.Unmarshal(trimmed, &b)
		return b, err
	case '"':
		var s string
		err := json.Unmarshal(trimmed, &s)
		return s, err
	case '{', '[':
		return json.RawMessage(append([]byte(nil), trimmed...)), nil
	default:
		var f float64
		err := json.Unmarshal(trimmed, &f)
		return f, err
	}
}
