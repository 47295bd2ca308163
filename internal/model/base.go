package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap represents a generic JSON object column
type JSONMap map[string]interface{}

// Value implements driver.Valuer so a JSONMap can be written to a jsonb column
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}
	return json.Unmarshal(b, m)
}

// StringList represents a jsonb array of strings, e.g. doctor role tags
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	return json.Unmarshal(b, l)
}
