package store

import "fmt"

// Op is a filter predicate kind.
type Op int

const (
	// OpEqual matches documents whose field equals Value.
	OpEqual Op = iota
	// OpIsNull matches documents whose field is null or missing.
	OpIsNull
	// OpGreaterThan matches documents whose field is strictly greater than Value.
	OpGreaterThan
)

func (o Op) String() string {
	switch o {
	case OpEqual:
		return "equal"
	case OpIsNull:
		return "isNull"
	case OpGreaterThan:
		return "greaterThan"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Filter is a single predicate on one field. Filters passed together are ANDed.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Equal builds an equality predicate.
func Equal(field string, value any) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

// IsNull builds a null-or-missing predicate.
func IsNull(field string) Filter {
	return Filter{Field: field, Op: OpIsNull}
}

// GreaterThan builds a strict lower-bound predicate.
func GreaterThan(field string, value any) Filter {
	return Filter{Field: field, Op: OpGreaterThan, Value: value}
}

func (f Filter) String() string {
	if f.Op == OpIsNull {
		return fmt.Sprintf("%s(%s)", f.Op, f.Field)
	}
	return fmt.Sprintf("%s(%s, %v)", f.Op, f.Field, f.Value)
}
