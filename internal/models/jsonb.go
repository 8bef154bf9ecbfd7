package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// QtyMap maps an item id to a quantity, stored as a JSONB column.
// JSON object keys are strings, so item ids are encoded in decimal.
type QtyMap map[int64]float64

// Scan implements sql.Scanner interface
func (m *QtyMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(QtyMap)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal QtyMap value: %v", value)
	}

	raw := make(map[string]float64)
	if err := json.Unmarshal(bytes, &raw); err != nil {
		return err
	}

	result := make(QtyMap, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return fmt.Errorf("bad item id key %q: %w", k, err)
		}
		result[id] = v
	}
	*m = result
	return nil
}

// Value implements driver.Valuer interface
func (m QtyMap) Value() (driver.Value, error) {
	raw := make(map[string]float64, len(m))
	for k, v := range m {
		raw[strconv.FormatInt(k, 10)] = v
	}
	return json.Marshal(raw)
}
