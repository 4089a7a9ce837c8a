package fieldcipher

import (
	"encoding/json"
	"fmt"
)

// Seal converts v into a JSON object map with the listed fields encrypted.
// v must marshal to a JSON object.
func (c *Cipher) Seal(v any, fields FieldSet) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("seal: value is not an object: %w", err)
	}
	if err := c.SealRecord(record, fields); err != nil {
		return nil, err
	}
	return record, nil
}

// Unseal decodes a stored document into dst. normalize, when non-nil, runs
// on the raw map before decryption so legacy key names can be rewritten.
// It returns the number of fields that could not be decrypted.
func (c *Cipher) Unseal(raw json.RawMessage, fields FieldSet, normalize func(map[string]any), dst any) (int, error) {
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return 0, fmt.Errorf("unseal: document is not an object: %w", err)
	}
	if normalize != nil {
		normalize(record)
	}
	fallbacks := c.OpenRecord(record, fields)

	data, err := json.Marshal(record)
	if err != nil {
		return fallbacks, err
	}
	return fallbacks, json.Unmarshal(data, dst)
}
