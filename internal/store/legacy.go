package store

import (
	"time"
)

// epochMillisFloor separates epoch seconds from epoch milliseconds: any
// value above it is read as milliseconds (after March 1973).
const epochMillisFloor = 1e11

var legacyTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// CoerceTimes rewrites, in place, the listed timestamp keys of a raw
// document into RFC 3339 so they decode into time.Time. Older clients wrote
// epoch numbers, date-only strings and empty strings; empty values are
// dropped. Values it cannot interpret are left alone.
func CoerceTimes(record map[string]any, keys ...string) {
	for _, key := range keys {
		value, ok := record[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			record[key] = epochTime(v).Format(time.RFC3339Nano)
		case string:
			if v == "" {
				delete(record, key)
				continue
			}
			if _, err := time.Parse(time.RFC3339Nano, v); err == nil {
				continue
			}
			for _, layout := range legacyTimeLayouts {
				if t, err := time.Parse(layout, v); err == nil {
					record[key] = t.UTC().Format(time.RFC3339Nano)
					break
				}
			}
		}
	}
}

func epochTime(v float64) time.Time {
	if v > epochMillisFloor {
		return time.UnixMilli(int64(v)).UTC()
	}
	return time.Unix(int64(v), 0).UTC()
}
