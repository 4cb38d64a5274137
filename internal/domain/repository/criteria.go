package repository

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would break a uniqueness rule of the store.
	ErrConflict     = errors.New("conflict")
	ErrUnknownField = errors.New("unknown criteria field")
	ErrUnknownOp    = errors.New("unknown criteria operator")
)

type Op string

const (
	OpEq   Op = "="
	OpNe   Op = "!="
	OpLt   Op = "<"
	OpLte  Op = "<="
	OpGt   Op = ">"
	OpGte  Op = ">="
	OpLike Op = "like" // case-insensitive substring
	OpIn   Op = "in"
)

// Condition filters on a single column. Field names are the storage column names.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Criteria is a list of conditions combined with AND.
type Criteria []Condition

func Where(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

func WhereOp(field string, op Op, value any) Condition {
	return Condition{Field: field, Op: op, Value: value}
}

// Validate checks every condition against the allowed column set.
func (c Criteria) Validate(allowed map[string]struct{}) error {
	for _, cond := range c {
		if _, ok := allowed[cond.Field]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, cond.Field)
		}
		switch cond.Op {
		case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte, OpLike, OpIn:
		default:
			return fmt.Errorf("%w: %s", ErrUnknownOp, cond.Op)
		}
	}
	return nil
}

// NormalizeValue turns enum and date values into plain strings and times so that stores
// can compare them without knowing the entity types.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case time.Time:
		return x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	case fmt.Stringer:
		return x.String()
	case []string:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = NormalizeValue(x[i])
		}
		return out
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice {
			out := make([]any, rv.Len())
			for i := range out {
				out[i] = NormalizeValue(rv.Index(i).Interface())
			}
			return out
		}
		return x
	}
}
