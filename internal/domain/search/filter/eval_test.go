package filter

import "testing"

func testRecord() map[string]string {
	return map[string]string{
		"region":          "EU",
		"product_version": "v2.0",
		"category":        "billing",
		"deprecated":      "false",
		"effective_date":  "2024-03-15",
		"error_codes_str": "E-4012,E-4013",
	}
}

func TestEval_NilMatchesEverything(t *testing.T) {
	var p *Predicate
	if !p.Eval(testRecord()) {
		t.Error("nil predicate must match")
	}
	if !p.Eval(map[string]string{}) {
		t.Error("nil predicate must match the empty record")
	}
}

func TestEval_Equality(t *testing.T) {
	p := mustParse(t, `{"region": {"$eq": "EU"}}`)
	if !p.Eval(testRecord()) {
		t.Error("expected match for region EU")
	}

	rec := testRecord()
	rec["region"] = "US"
	if p.Eval(rec) {
		t.Error("expected no match for region US")
	}
}

func TestEval_NotEqual(t *testing.T) {
	p := mustParse(t, `{"region": {"$ne": "US"}}`)
	if !p.Eval(testRecord()) {
		t.Error("$ne should hold when values differ")
	}

	rec := testRecord()
	rec["region"] = "US"
	if p.Eval(rec) {
		t.Error("$ne should fail when values match")
	}
}

func TestEval_DateOrdering(t *testing.T) {
	// ISO-8601 dates order chronologically as strings.
	cases := []struct {
		raw  string
		want bool
	}{
		{`{"effective_date": {"$gt": "2024-01-01"}}`, true},
		{`{"effective_date": {"$gt": "2024-03-15"}}`, false},
		{`{"effective_date": {"$gte": "2024-03-15"}}`, true},
		{`{"effective_date": {"$lt": "2025-01-01"}}`, true},
		{`{"effective_date": {"$lte": "2024-03-14"}}`, false},
	}
	for _, tc := range cases {
		p := mustParse(t, tc.raw)
		if got := p.Eval(testRecord()); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestEval_ScalarInIsSubstringMembership(t *testing.T) {
	// "does this document carry code E-4012" against the comma-joined field
	p := mustParse(t, `{"error_codes_str": {"$in": "E-4012"}}`)
	if !p.Eval(testRecord()) {
		t.Error("expected E-4012 to be found in error_codes_str")
	}

	p = mustParse(t, `{"error_codes_str": {"$in": "E-9999"}}`)
	if p.Eval(testRecord()) {
		t.Error("expected E-9999 not to be found")
	}
}

func TestEval_ListInIsSetMembership(t *testing.T) {
	p := mustParse(t, `{"region": {"$in": ["EU", "APAC"]}}`)
	if !p.Eval(testRecord()) {
		t.Error("expected EU to match the list")
	}

	rec := testRecord()
	rec["region"] = "US"
	if p.Eval(rec) {
		t.Error("expected US to miss the list")
	}
}

func TestEval_NinHoldsOnAbsence(t *testing.T) {
	p := mustParse(t, `{"region": {"$nin": ["US"]}}`)
	if !p.Eval(map[string]string{}) {
		t.Error("$nin should hold when the field is absent")
	}

	p = mustParse(t, `{"region": {"$ne": "US"}}`)
	if !p.Eval(map[string]string{}) {
		t.Error("$ne should hold when the field is absent")
	}
}

func TestEval_AbsentFieldFailsPositiveOps(t *testing.T) {
	for _, raw := range []string{
		`{"region": {"$eq": "EU"}}`,
		`{"region": {"$gt": "A"}}`,
		`{"region": {"$in": ["EU"]}}`,
	} {
		p := mustParse(t, raw)
		if p.Eval(map[string]string{}) {
			t.Errorf("%s should fail on an absent field", raw)
		}
	}
}

func TestEval_AndOr(t *testing.T) {
	p := mustParse(t, `{"$and": [
		{"region": {"$eq": "EU"}},
		{"deprecated": {"$eq": false}}
	]}`)
	if !p.Eval(testRecord()) {
		t.Error("expected $and to hold")
	}

	rec := testRecord()
	rec["deprecated"] = "true"
	if p.Eval(rec) {
		t.Error("expected $and to fail when one side fails")
	}

	p = mustParse(t, `{"$or": [
		{"region": {"$eq": "US"}},
		{"category": {"$eq": "billing"}}
	]}`)
	if !p.Eval(testRecord()) {
		t.Error("expected $or to hold on the second branch")
	}
}

func TestEval_DoesNotMutatePredicate(t *testing.T) {
	p := mustParse(t, `{"$and": [{"region": "EU"}, {"category": "billing"}]}`)
	recA := testRecord()
	recB := testRecord()
	recB["region"] = "US"

	first := p.Eval(recA)
	p.Eval(recB)
	if again := p.Eval(recA); again != first {
		t.Error("evaluation result changed between identical calls")
	}
}
