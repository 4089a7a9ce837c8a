package fieldcipher

// FieldSet is an allowlist of record keys that hold PII.
type FieldSet map[string]struct{}

// NewFieldSet builds a FieldSet from keys.
func NewFieldSet(keys ...string) FieldSet {
	set := make(FieldSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Has reports whether key is in the set.
func (s FieldSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// SealRecord encrypts, in place, every non-empty string value of record
// whose key is in fields. Other values are left in clear.
func (c *Cipher) SealRecord(record map[string]any, fields FieldSet) error {
	for key, value := range record {
		if !fields.Has(key) {
			continue
		}
		plain, ok := value.(string)
		if !ok || plain == "" {
			continue
		}
		sealed, err := c.Encrypt(plain)
		if err != nil {
			return err
		}
		record[key] = sealed
	}
	return nil
}

// OpenRecord decrypts, in place, the listed string values of record and
// returns how many of them fell back to the stored value.
func (c *Cipher) OpenRecord(record map[string]any, fields FieldSet) int {
	fallbacks := 0
	for key, value := range record {
		if !fields.Has(key) {
			continue
		}
		sealed, ok := value.(string)
		if !ok || sealed == "" {
			continue
		}
		plain, ok := c.Open(sealed)
		if !ok {
			fallbacks++
		}
		record[key] = plain
	}
	return fallbacks
}
