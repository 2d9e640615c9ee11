package filter

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/fusedex/internal/domain"
)

// Parse decodes the wire-format filter produced by the natural-language
// filter extractor: {"field": v}, {"field": {"$op": v}}, {"$and": [...]},
// {"$or": [...]}. An empty object or empty input yields a nil predicate
// (no filter). Any unrecognized shape, field, or operator fails with
// ErrMalformedPredicate.
func Parse(raw []byte) (*Predicate, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPredicate, err)
	}
	if len(obj) == 0 {
		return nil, nil
	}

	p, err := parseObject(obj)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func parseObject(obj map[string]json.RawMessage) (Predicate, error) {
	if len(obj) != 1 {
		return Predicate{}, fmt.Errorf(
			"%w: condition object must have exactly one key, got %d", domain.ErrMalformedPredicate, len(obj))
	}

	for key, val := range obj {
		switch key {
		case "$and":
			children, err := parseGroup(val)
			if err != nil {
				return Predicate{}, err
			}
			return NewAnd(children...)
		case "$or":
			children, err := parseGroup(val)
			if err != nil {
				return Predicate{}, err
			}
			return NewOr(children...)
		default:
			return parseCondition(key, val)
		}
	}

	// unreachable: obj has exactly one entry
	return Predicate{}, domain.ErrMalformedPredicate
}

func parseGroup(raw json.RawMessage) ([]Predicate, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: group body must be an array: %v", domain.ErrMalformedPredicate, err)
	}

	children := make([]Predicate, 0, len(items))
	for _, item := range items {
		child, err := parseObject(item)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// parseCondition handles both {"field": {"$op": v}} and the {"field": v}
// equality shorthand.
func parseCondition(field string, raw json.RawMessage) (Predicate, error) {
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) != 1 {
			return Predicate{}, fmt.Errorf(
				"%w: operator object for %q must have exactly one operator", domain.ErrMalformedPredicate, field)
		}
		for op, operand := range nested {
			value, err := parseValue(operand)
			if err != nil {
				return Predicate{}, err
			}
			return NewLeaf(field, Op(op), value)
		}
	}

	// Shorthand: bare value means equality.
	value, err := parseValue(raw)
	if err != nil {
		return Predicate{}, err
	}
	if value.IsList() {
		return Predicate{}, fmt.Errorf(
			"%w: equality shorthand for %q takes a scalar", domain.ErrMalformedPredicate, field)
	}
	return NewLeaf(field, OpEq, value)
}

func parseValue(raw json.RawMessage) (Value, error) {
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		items := make([]string, 0, len(list))
		for _, item := range list {
			s, err := normalizeScalar(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, s)
		}
		return NewList(items), nil
	}

	var scalar any
	if err := json.Unmarshal(raw, &scalar); err != nil {
		return Value{}, fmt.Errorf("%w: %v", domain.ErrMalformedPredicate, err)
	}
	s, err := normalizeScalar(scalar)
	if err != nil {
		return Value{}, err
	}
	return NewScalar(s), nil
}

// normalizeScalar maps JSON scalars onto the flattened record's string
// representation: booleans to "true"/"false", integral numbers without a
// fraction part.
func normalizeScalar(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10), nil
		}
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: unsupported operand type %T", domain.ErrMalformedPredicate, v)
	}
}
