package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// OptionSelections maps a customization option name to the value a
// participant picked, persisted as JSONB.
type OptionSelections map[string]string

// Value marshals the map into JSON for Postgres.
func (o OptionSelections) Value() (driver.Value, error) {
	if o == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the map.
func (o *OptionSelections) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}

	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("option selections: unsupported scan type %T", value)
	}

	result := make(OptionSelections)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*o = result
	return nil
}

// StringList is a JSON-encoded list of strings. Customization option
// choices use it so the same column type works on Postgres and SQLite.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	buf, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("string list: unsupported scan type %T", value)
	}

	var result StringList
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*l = result
	return nil
}

// Contains reports whether the list holds the given value.
func (l StringList) Contains(value string) bool {
	for _, candidate := range l {
		if candidate == value {
			return true
		}
	}
	return false
}

func toBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	default:
		return nil, false
	}
}
