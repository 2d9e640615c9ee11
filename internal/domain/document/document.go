package document

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	idRegex        = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	errorCodeRegex = regexp.MustCompile(`^E-\d{4}$`)

	validRegions = map[string]bool{
		"EU": true, "US": true, "APAC": true,
	}
	validVersions = map[string]bool{
		"v1.0": true, "v2.0": true, "v3.0": true,
	}
	validCategories = map[string]bool{
		"authentication": true, "billing": true, "deployment": true, "networking": true,
	}
)

// Metadata flattened field names, shared with the filter evaluator and the
// Redis index schema.
const (
	FieldRegion         = "region"
	FieldProductVersion = "product_version"
	FieldCategory       = "category"
	FieldDeprecated     = "deprecated"
	FieldEffectiveDate  = "effective_date"
	FieldErrorCodes     = "error_codes_str"
)

// Metadata holds the structured fields of a knowledge base article.
type Metadata struct {
	region         string
	productVersion string
	category       string
	deprecated     bool
	effectiveDate  string
	errorCodes     []string
}

// NewMetadata validates and creates article metadata.
// effectiveDate must be an ISO-8601 date (lexicographic order is chronological);
// error codes must match E-#### .
func NewMetadata(
	region, productVersion, category string,
	deprecated bool,
	effectiveDate string,
	errorCodes []string,
) (Metadata, error) {
	if !validRegions[region] {
		return Metadata{}, fmt.Errorf("invalid region %q", region)
	}
	if !validVersions[productVersion] {
		return Metadata{}, fmt.Errorf("invalid product_version %q", productVersion)
	}
	if !validCategories[category] {
		return Metadata{}, fmt.Errorf("invalid category %q", category)
	}
	if _, err := time.Parse("2006-01-02", effectiveDate); err != nil {
		return Metadata{}, fmt.Errorf("invalid effective_date %q: %w", effectiveDate, err)
	}
	for _, code := range errorCodes {
		if !errorCodeRegex.MatchString(code) {
			return Metadata{}, fmt.Errorf("invalid error code %q", code)
		}
	}

	return Metadata{
		region:         region,
		productVersion: productVersion,
		category:       category,
		deprecated:     deprecated,
		effectiveDate:  effectiveDate,
		errorCodes:     append([]string(nil), errorCodes...),
	}, nil
}

// Region returns the article region (EU, US, APAC).
func (m *Metadata) Region() string { return m.region }

// ProductVersion returns the product version (v1.0, v2.0, v3.0).
func (m *Metadata) ProductVersion() string { return m.productVersion }

// Category returns the article category.
func (m *Metadata) Category() string { return m.category }

// Deprecated reports whether the article is deprecated.
func (m *Metadata) Deprecated() bool { return m.deprecated }

// EffectiveDate returns the ISO-8601 effective date.
func (m *Metadata) EffectiveDate() string { return m.effectiveDate }

// ErrorCodes returns the ordered error codes covered by the article.
func (m *Metadata) ErrorCodes() []string { return m.errorCodes }

// Flatten produces the uniform string record the filter evaluator compares
// against. deprecated becomes "true"/"false"; error codes collapse into one
// comma-joined string so membership checks reduce to substring containment.
func (m *Metadata) Flatten() map[string]string {
	return map[string]string{
		FieldRegion:         m.region,
		FieldProductVersion: m.productVersion,
		FieldCategory:       m.category,
		FieldDeprecated:     formatBool(m.deprecated),
		FieldEffectiveDate:  m.effectiveDate,
		FieldErrorCodes:     strings.Join(m.errorCodes, ","),
	}
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Document is an immutable knowledge base article.
type Document struct {
	id    string
	title string
	body  string
	meta  Metadata
}

// New validates and creates a Document.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Title is required; body may be empty.
func New(id, title, body string, meta Metadata) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("doc_id is required")
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("doc_id too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("doc_id must be alphanumeric with underscores and hyphens")
	}
	if title == "" {
		return Document{}, fmt.Errorf("title is required")
	}

	return Document{id: id, title: title, body: body, meta: meta}, nil
}

// ID returns the stable document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the article title.
func (d *Document) Title() string { return d.title }

// Body returns the article body text.
func (d *Document) Body() string { return d.body }

// Meta returns the article metadata.
func (d *Document) Meta() Metadata { return d.meta }

// SearchText returns the text indexed and embedded for retrieval.
func (d *Document) SearchText() string { return d.title + " " + d.body }
