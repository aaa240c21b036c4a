package store

import "reflect"

// StrictEqual compares by identity: pointers, maps, slices, channels and
// funcs are equal only when they refer to the same memory; scalars and
// strings by value. Structs and arrays have no identity of their own and are
// compared field by field under the same rule.
func StrictEqual[T any](a, b T) bool {
	return EqualDepth(a, b, 0)
}

// EqualDepth compares a and b structurally through up to depth levels of
// slices, maps and pointers, then falls back to StrictEqual.
// A depth of 1 compares two slices of structs element by element.
func EqualDepth[T any](a, b T, depth int) bool {
	va := reflect.ValueOf(&a).Elem()
	vb := reflect.ValueOf(&b).Elem()
	return equalValue(va, vb, depth)
}

func equalValue(a, b reflect.Value, depth int) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return equalValue(a.Elem(), b.Elem(), depth)

	case reflect.Pointer:
		if a.Pointer() == b.Pointer() {
			return true
		}
		if depth <= 0 || a.IsNil() || b.IsNil() {
			return false
		}
		return equalValue(a.Elem(), b.Elem(), depth-1)

	case reflect.Slice:
		if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
			return false
		}
		if a.Pointer() == b.Pointer() {
			return true
		}
		if depth <= 0 {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !equalValue(a.Index(i), b.Index(i), depth-1) {
				return false
			}
		}
		return true

	case reflect.Map:
		if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
			return false
		}
		if a.Pointer() == b.Pointer() {
			return true
		}
		if depth <= 0 {
			return false
		}
		iter := a.MapRange()
		for iter.Next() {
			other := b.MapIndex(iter.Key())
			if !other.IsValid() || !equalValue(iter.Value(), other, depth-1) {
				return false
			}
		}
		return true

	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !equalValue(a.Field(i), b.Field(i), depth) {
				return false
			}
		}
		return true

	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !equalValue(a.Index(i), b.Index(i), depth) {
				return false
			}
		}
		return true

	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()

	default:
		return a.Equal(b)
	}
}
