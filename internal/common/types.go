package common

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Notification categories. The set is open: unknown categories are stored
// as-is so new domain events do not require a schema change.
const (
	CategoryInfo     = "info"
	CategorySuccess  = "success"
	CategoryWarning  = "warning"
	CategoryError    = "error"
	CategoryDonation = "donation"
	CategorySystem   = "system"
)

// Metadata is an opaque key/value bag stored as a JSON column.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into Metadata", value)
	}
}
