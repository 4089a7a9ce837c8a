package transport

import (
	"encoding/json"
	"fmt"
	"time"
)

// scheduleLayouts are tried in order. The last two are what HTML
// datetime-local and date inputs submit; they are read as UTC.
var scheduleLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

// OptionalTime is a patch field that tells an absent key apart from an
// explicit null or empty string, both of which clear the stored time.
type OptionalTime struct {
	Value *time.Time
	Set   bool
}

func (o OptionalTime) IsZero() bool {
	return !o.Set
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil
	if string(data) == "null" {
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("scheduled time must be a string: %w", err)
	}
	if raw == "" {
		return nil
	}

	for _, layout := range scheduleLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			utc := parsed.UTC()
			o.Value = &utc
			return nil
		}
	}
	return fmt.Errorf("scheduled time %q is not RFC 3339, YYYY-MM-DDTHH:MM or YYYY-MM-DD", raw)
}
