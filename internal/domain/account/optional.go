package account

import (
	"bytes"
	"encoding/json"
)

// Optional is a field that remembers whether the payload carried it at
// all. Partial updates need three states per field: absent, explicitly
// empty, and set; a plain pointer cannot tell the first two apart once
// the value is a slice or string.
type Optional[T any] struct {
	Value   T
	Present bool
}

// Set returns a present Optional holding v.
func Set[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Present: true}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Present = true
	return json.Unmarshal(b, &o.Value)
}

// BoolField is a boolean that distinguishes "absent", "present but not
// a boolean", and "boolean". A malformed value must not abort decoding
// of the whole payload, so the rules can still report every other
// field.
type BoolField struct {
	Value   bool
	Present bool
	Valid   bool
}

// Bool returns a present, valid BoolField holding v.
func Bool(v bool) BoolField {
	return BoolField{Value: v, Present: true, Valid: true}
}

func (f *BoolField) UnmarshalJSON(b []byte) error {
	f.Present = true
	// Unmarshaling null into a bool is a silent no-op, so it has to be
	// caught before it can masquerade as false.
	if bytes.Equal(b, []byte("null")) {
		f.Valid = false
		return nil
	}
	if err := json.Unmarshal(b, &f.Value); err != nil {
		f.Valid = false
		return nil
	}
	f.Valid = true
	return nil
}
