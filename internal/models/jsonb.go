package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB is a custom type for handling JSONB fields
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface
// Returns JSON as string for compatibility with pgx simple protocol mode
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}
}

// Decode re-reads the document into a typed struct
func (j JSONB) Decode(v interface{}) error {
	bytes, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, v)
}

// ToJSONB converts any JSON-serialisable value into a JSONB document.
// Values that do not encode to an object are wrapped under "value".
func ToJSONB(v interface{}) JSONB {
	if v == nil {
		return nil
	}

	var raw []byte
	switch t := v.(type) {
	case json.RawMessage:
		raw = t
	case []byte:
		raw = t
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return JSONB{"unencodable": fmt.Sprintf("%v", v)}
		}
		raw = encoded
	}

	var doc JSONB
	if err := json.Unmarshal(raw, &doc); err == nil {
		return doc
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err == nil {
		return JSONB{"value": value}
	}
	return JSONB{"raw": string(raw)}
}
