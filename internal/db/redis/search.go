package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/fusedex/internal/db"
	"github.com/kailas-cloud/fusedex/internal/domain/document"
	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
)

// SearchKNN runs a KNN vector similarity search via FT.SEARCH. The optional
// predicate is compiled into a native pre-filter so excluded documents never
// consume KNN slots.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	filterStr, err := buildPredicate(q.Predicate)
	if err != nil {
		return nil, err
	}

	knnPart := fmt.Sprintf("[KNN %d @vector $BLOB]", q.K)
	var queryStr string
	if filterStr != "" {
		queryStr = fmt.Sprintf("(%s)=>%s", filterStr, knnPart)
	} else {
		queryStr = fmt.Sprintf("*=>%s", knnPart)
	}

	args := []string{q.IndexName, queryStr}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	args = append(args, "PARAMS", "2", "BLOB", vectorToBytes(q.Vector), "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseKNNResult(raw)
}

func parseKNNResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		}

		if scoreStr, ok := entry.Fields["__vector_score"]; ok {
			if dist, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				entry.Score = max(0, 1.0-dist) // cosine distance → similarity, clamped to [0,1]
			}
			delete(entry.Fields, "__vector_score")
		}

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Predicate compilation ---

// buildPredicate translates a predicate tree into an FT.SEARCH filter query
// string. Range operators are only expressible on effective_date (indexed
// NUMERIC); a range on a tag field returns ErrPredicateNotIndexable so the
// caller can evaluate the predicate locally instead.
func buildPredicate(p *filter.Predicate) (string, error) {
	if p == nil {
		return "", nil
	}

	switch p.Kind() {
	case filter.KindAnd:
		return buildGroup(p.Children(), " ")
	case filter.KindOr:
		return buildGroup(p.Children(), " | ")
	default:
		return buildLeaf(p.Leaf())
	}
}

func buildGroup(children []filter.Predicate, sep string) (string, error) {
	parts := make([]string, 0, len(children))
	for i := range children {
		part, err := buildPredicate(&children[i])
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func buildLeaf(l filter.Leaf) (string, error) {
	if l.Field() == document.FieldEffectiveDate {
		return buildDateLeaf(l)
	}

	switch l.Op() {
	case filter.OpEq:
		return buildTagFilter(l.Field(), l.Value().Scalar()), nil

	case filter.OpNe:
		return "-" + buildTagFilter(l.Field(), l.Value().Scalar()), nil

	case filter.OpIn:
		return buildTagMembership(l.Field(), l.Value()), nil

	case filter.OpNin:
		return "-" + buildTagMembership(l.Field(), l.Value()), nil

	default:
		return "", fmt.Errorf("%w: operator %s on tag field %s", db.ErrPredicateNotIndexable, l.Op(), l.Field())
	}
}

// buildDateLeaf compiles effective_date comparisons against the NUMERIC
// yyyymmdd representation written at index time.
func buildDateLeaf(l filter.Leaf) (string, error) {
	field := l.Field()

	if l.Value().IsList() {
		alts := make([]string, 0, len(l.Value().List()))
		for _, s := range l.Value().List() {
			n, err := dateToNumeric(s)
			if err != nil {
				return "", err
			}
			alts = append(alts, fmt.Sprintf("@%s:[%d %d]", field, n, n))
		}
		clause := "(" + strings.Join(alts, " | ") + ")"
		if l.Op() == filter.OpNin {
			return "-" + clause, nil
		}
		return clause, nil
	}

	n, err := dateToNumeric(l.Value().Scalar())
	if err != nil {
		return "", err
	}

	switch l.Op() {
	case filter.OpEq:
		return fmt.Sprintf("@%s:[%d %d]", field, n, n), nil
	case filter.OpNe:
		return fmt.Sprintf("-@%s:[%d %d]", field, n, n), nil
	case filter.OpGt:
		return fmt.Sprintf("@%s:[(%d +inf]", field, n), nil
	case filter.OpGte:
		return fmt.Sprintf("@%s:[%d +inf]", field, n), nil
	case filter.OpLt:
		return fmt.Sprintf("@%s:[-inf (%d]", field, n), nil
	case filter.OpLte:
		return fmt.Sprintf("@%s:[-inf %d]", field, n), nil
	default:
		return "", fmt.Errorf("%w: operator %s on date field", db.ErrPredicateNotIndexable, l.Op())
	}
}

// dateToNumeric converts an ISO-8601 date into the yyyymmdd integer form
// used for NUMERIC indexing. Numeric order matches date order under this
// encoding.
func dateToNumeric(iso string) (int, error) {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid date %q: %v", db.ErrPredicateNotIndexable, iso, err)
	}
	return t.Year()*10000 + int(t.Month())*100 + t.Day(), nil
}

func buildTagFilter(key, value string) string {
	return fmt.Sprintf("@%s:{%s}", key, tagEscaper.Replace(value))
}

// buildTagMembership compiles $in. A list matches any of its alternatives;
// a scalar degrades to plain tag membership, which for the comma-separated
// error_codes_str field means "document carries this code".
func buildTagMembership(key string, v filter.Value) string {
	if !v.IsList() {
		return buildTagFilter(key, v.Scalar())
	}
	escaped := make([]string, 0, len(v.List()))
	for _, s := range v.List() {
		escaped = append(escaped, tagEscaper.Replace(s))
	}
	return fmt.Sprintf("@%s:{%s}", key, strings.Join(escaped, "|"))
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
