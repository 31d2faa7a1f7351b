package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonValue encodes v for a JSONB column.
func jsonValue(v interface{}) (driver.Value, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil // Return as string for JSONB type
}

// scanJSON decodes a JSONB column value into dst.
func scanJSON(value interface{}, dst interface{}, name string) error {
	if value == nil {
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal %s: unsupported type %T", name, value)
	}

	return json.Unmarshal(data, dst)
}
