// Package optional provides a value that may or may not be present.
package optional

import "encoding/json"

type Option[T any] struct {
	value   T
	defined bool
}

func Some[T any](value T) Option[T] {
	return Option[T]{value: value, defined: true}
}

func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.defined
}

func (o Option[T]) IsSome() bool {
	return o.defined
}

func (o Option[T]) OrElse(fallback T) T {
	if !o.defined {
		return fallback
	}

	return o.value
}

func (o Option[T]) MarshalJSON() ([]byte, error) {
	if !o.defined {
		return []byte("null"), nil
	}

	return json.Marshal(o.value)
}

func (o *Option[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None[T]()
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	*o = Some(v)
	return nil
}
