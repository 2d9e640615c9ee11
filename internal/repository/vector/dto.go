package vector

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/fusedex/internal/db"
	"github.com/kailas-cloud/fusedex/internal/domain/document"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
)

const (
	fieldTitle  = "title"
	fieldBody   = "body"
	fieldVector = "vector"
)

var returnFields = []string{
	fieldTitle, fieldBody,
	document.FieldRegion, document.FieldProductVersion,
	document.FieldCategory, document.FieldDeprecated,
	document.FieldEffectiveDate, document.FieldErrorCodes,
	"__vector_score",
}

// buildHashFields converts an article into a flat map[string]string for HSET.
// effective_date is stored twice: the ISO string for display and a yyyymmdd
// integer for NUMERIC range filtering.
func buildHashFields(doc *document.Document, vec []float32) map[string]string {
	meta := doc.Meta()
	return map[string]string{
		fieldTitle:                   doc.Title(),
		fieldBody:                    doc.Body(),
		fieldVector:                  vectorToBytes(vec),
		document.FieldRegion:         meta.Region(),
		document.FieldProductVersion: meta.ProductVersion(),
		document.FieldCategory:       meta.Category(),
		document.FieldDeprecated:     strconv.FormatBool(meta.Deprecated()),
		document.FieldEffectiveDate:  strconv.Itoa(dateToNumeric(meta.EffectiveDate())),
		document.FieldErrorCodes:     strings.Join(meta.ErrorCodes(), ","),
	}
}

// parseEntries converts db search entries into ranked result items.
func parseEntries(sr *db.SearchResult) []result.Item {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	items := make([]result.Item, 0, len(sr.Entries))
	for i, entry := range sr.Entries {
		docID := strings.TrimPrefix(entry.Key, docKeyPrefix)
		items = append(items, result.New(
			docID, entry.Score, i+1,
			entry.Fields[fieldTitle],
			entry.Fields[fieldBody],
			entry.Fields[document.FieldRegion],
			entry.Fields[document.FieldProductVersion],
			entry.Fields[document.FieldCategory],
			entry.Fields[document.FieldDeprecated] == "true",
		))
	}
	return items
}

// recordFromFields rebuilds the flattened metadata record from stored hash
// fields. effective_date comes back in its yyyymmdd form and is restored to
// ISO so local predicate evaluation compares the same strings the lexical
// branch does.
func recordFromFields(fields map[string]string) map[string]string {
	rec := make(map[string]string, 6)
	for _, f := range []string{
		document.FieldRegion, document.FieldProductVersion,
		document.FieldCategory, document.FieldDeprecated,
		document.FieldErrorCodes,
	} {
		if v, ok := fields[f]; ok {
			rec[f] = v
		}
	}
	if iso := numericToISO(fields[document.FieldEffectiveDate]); iso != "" {
		rec[document.FieldEffectiveDate] = iso
	}
	return rec
}

// numericToISO reverses dateToNumeric: "20240115" -> "2024-01-15".
func numericToISO(n string) string {
	if len(n) != 8 {
		return ""
	}
	return n[:4] + "-" + n[4:6] + "-" + n[6:8]
}

// dateToNumeric encodes an already-validated ISO date as yyyymmdd.
func dateToNumeric(iso string) int {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return 0
	}
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
