package filter

import "strings"

// Eval evaluates the predicate against a flattened metadata record
// (document.Metadata.Flatten). A nil predicate matches everything.
//
// Comparison semantics: ordering operators use the string's natural order
// (ISO-8601 dates sort chronologically by construction). A field absent from
// the record fails every operator except $ne and $nin, which hold against
// the absence.
func (p *Predicate) Eval(record map[string]string) bool {
	if p == nil {
		return true
	}

	switch p.kind {
	case KindAnd:
		for i := range p.children {
			if !p.children[i].Eval(record) {
				return false
			}
		}
		return true
	case KindOr:
		for i := range p.children {
			if p.children[i].Eval(record) {
				return true
			}
		}
		return false
	default:
		return evalLeaf(p.leaf, record)
	}
}

func evalLeaf(l Leaf, record map[string]string) bool {
	got, present := record[l.field]

	switch l.op {
	case OpEq:
		return present && got == l.value.scalar
	case OpNe:
		return !present || got != l.value.scalar
	case OpGt:
		return present && got > l.value.scalar
	case OpGte:
		return present && got >= l.value.scalar
	case OpLt:
		return present && got < l.value.scalar
	case OpLte:
		return present && got <= l.value.scalar
	case OpIn:
		return present && contains(l.value, got)
	case OpNin:
		return !present || !contains(l.value, got)
	default:
		// NewLeaf rejects unknown operators; nothing reaches here.
		return false
	}
}

// contains implements membership: a list operand tests set membership of the
// record value; a scalar operand tests substring containment in the record
// value, which is how the comma-joined error_codes_str field answers
// "does this document carry code E-4012".
func contains(v Value, got string) bool {
	if v.isList {
		for _, item := range v.list {
			if item == got {
				return true
			}
		}
		return false
	}
	return strings.Contains(got, v.scalar)
}
