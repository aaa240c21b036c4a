package store

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// Arg returns args[i] as T. Numbers decoded from JSON (float64,
// json.Number) are accepted for int arguments when they are whole.
func Arg[T any](args []any, i int) (T, error) {
	var zero T
	if i >= len(args) {
		return zero, fmt.Errorf("%w: missing argument %d", domain.ErrInvalidArgument, i)
	}
	return convert[T](args[i], i)
}

// OptionalArg is like Arg but returns def when the argument is absent or nil.
func OptionalArg[T any](args []any, i int, def T) (T, error) {
	if i >= len(args) || args[i] == nil {
		return def, nil
	}
	return convert[T](args[i], i)
}

func convert[T any](v any, i int) (T, error) {
	var zero T
	if t, ok := v.(T); ok {
		return t, nil
	}
	if _, wantInt := any(zero).(int); wantInt {
		if n, ok := toInt(v); ok {
			return any(n).(T), nil
		}
	}
	return zero, fmt.Errorf("%w: argument %d is %T, want %T", domain.ErrInvalidArgument, i, v, zero)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
