package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/dancancer/chargraph/helper"
)

// Metadata is a free-form JSON object.
// It is stored as JSONB and used as the payload of pipeline stage events.
type Metadata map[string]interface{}

// Value implements the driver.Valuer interface for database storage
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case Metadata:
		*m = v
		return nil
	case string:
		return json.Unmarshal([]byte(v), m)
	case []byte:
		return json.Unmarshal(v, m)
	default:
		return helper.NewError("metadata scan", fmt.Errorf("unsupported type %T", value))
	}
}

// Int returns the integer stored under key.
// Values decoded from JSON arrive as float64 and are converted.
func (m Metadata) Int(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// With returns a copy of m with the given key set
func (m Metadata) With(key string, value interface{}) Metadata {
	out := make(Metadata, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = value
	return out
}
