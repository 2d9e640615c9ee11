package filter

import (
	"fmt"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/document"
)

// Op is a comparison operator in a predicate leaf.
type Op string

// Supported leaf operators (Mongo-style wire names).
const (
	OpEq  Op = "$eq"
	OpNe  Op = "$ne"
	OpGt  Op = "$gt"
	OpGte Op = "$gte"
	OpLt  Op = "$lt"
	OpLte Op = "$lte"
	OpIn  Op = "$in"
	OpNin Op = "$nin"
)

// Kind discriminates predicate tree nodes.
type Kind int

const (
	// KindLeaf is a single field comparison.
	KindLeaf Kind = iota
	// KindAnd requires all children to hold.
	KindAnd
	// KindOr requires at least one child to hold.
	KindOr
)

var validOps = map[Op]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGte: true,
	OpLt: true, OpLte: true, OpIn: true, OpNin: true,
}

// recognizedFields are the metadata fields a predicate may reference.
// The wire format produced by the filter extractor uses the first four;
// effective_date and error_codes_str are evaluator-local extensions.
var recognizedFields = map[string]bool{
	document.FieldRegion:         true,
	document.FieldProductVersion: true,
	document.FieldCategory:       true,
	document.FieldDeprecated:     true,
	document.FieldEffectiveDate:  true,
	document.FieldErrorCodes:     true,
}

// Value is a leaf comparison operand: either a scalar or a list of scalars.
// Booleans and numbers are normalized to strings at construction so every
// comparison runs over the flattened metadata record uniformly.
type Value struct {
	scalar string
	list   []string
	isList bool
}

// NewScalar creates a scalar operand.
func NewScalar(s string) Value { return Value{scalar: s} }

// NewList creates a list operand.
func NewList(items []string) Value {
	return Value{list: append([]string(nil), items...), isList: true}
}

// IsList reports whether the operand is a list.
func (v Value) IsList() bool { return v.isList }

// Scalar returns the scalar operand.
func (v Value) Scalar() string { return v.scalar }

// List returns the list operand.
func (v Value) List() []string { return v.list }

// Leaf is a single field comparison.
type Leaf struct {
	field string
	op    Op
	value Value
}

// Field returns the metadata field name.
func (l Leaf) Field() string { return l.field }

// Op returns the comparison operator.
func (l Leaf) Op() Op { return l.op }

// Value returns the comparison operand.
func (l Leaf) Value() Value { return l.value }

// Predicate is a tagged filter tree: a leaf comparison, an AND group, or an
// OR group. A nil *Predicate means "no filter". Predicates are immutable
// after construction and never mutated during evaluation.
type Predicate struct {
	kind     Kind
	leaf     Leaf
	children []Predicate
}

// NewLeaf validates and creates a leaf predicate. Unknown fields and
// operators fail with ErrMalformedPredicate: silently ignoring them would
// silently over- or under-filter results.
func NewLeaf(field string, op Op, value Value) (Predicate, error) {
	if !recognizedFields[field] {
		return Predicate{}, fmt.Errorf("%w: unrecognized field %q", domain.ErrMalformedPredicate, field)
	}
	if !validOps[op] {
		return Predicate{}, fmt.Errorf("%w: unrecognized operator %q", domain.ErrMalformedPredicate, op)
	}
	if value.isList && op != OpIn && op != OpNin {
		return Predicate{}, fmt.Errorf(
			"%w: operator %q takes a scalar operand", domain.ErrMalformedPredicate, op)
	}
	return Predicate{kind: KindLeaf, leaf: Leaf{field: field, op: op, value: value}}, nil
}

// NewAnd creates a conjunction.
func NewAnd(children ...Predicate) (Predicate, error) {
	if len(children) == 0 {
		return Predicate{}, fmt.Errorf("%w: empty $and group", domain.ErrMalformedPredicate)
	}
	return Predicate{kind: KindAnd, children: children}, nil
}

// NewOr creates a disjunction.
func NewOr(children ...Predicate) (Predicate, error) {
	if len(children) == 0 {
		return Predicate{}, fmt.Errorf("%w: empty $or group", domain.ErrMalformedPredicate)
	}
	return Predicate{kind: KindOr, children: children}, nil
}

// Kind returns the node discriminator.
func (p *Predicate) Kind() Kind { return p.kind }

// Leaf returns the leaf comparison (valid only for KindLeaf).
func (p *Predicate) Leaf() Leaf { return p.leaf }

// Children returns the child predicates of an AND/OR group.
func (p *Predicate) Children() []Predicate { return p.children }
