package optional

import "encoding/json"

// Field distingue en un PATCH entre "no enviado", "null" y un valor:
//   - ausente en el JSON  => Set=false
//   - "campo": null       => Set=true, Value=nil
//   - "campo": v          => Set=true, Value=&v
type Field[T any] struct {
	Set   bool
	Value *T
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// Apply escribe en dst si el campo vino en el request.
func (f Field[T]) Apply(dst **T) {
	if !f.Set {
		return
	}
	if f.Value == nil {
		*dst = nil
		return
	}
	v := *f.Value
	*dst = &v
}
