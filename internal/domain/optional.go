package domain

import "encoding/json"

// Optional holds a value that is either present or absent.
//
// Partial updates use Optional for every field so that an explicit empty
// value ("" or a nil location) is distinguishable from "not provided".
// JSON decoding marks the field present whenever the key appears, including
// an explicit null.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a present Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// Or returns the value if present, otherwise def.
func (o Optional[T]) Or(def T) T {
	if o.Set {
		return o.Value
	}
	return def
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = v
	o.Set = true
	return nil
}

// MarshalJSON implements json.Marshaler. Absent values encode as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
