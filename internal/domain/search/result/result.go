package result

// Item is a single ranked retrieval hit with its display fields.
// Within one branch's output, items are sorted by descending score and
// ranks are contiguous starting at 1.
type Item struct {
	docID string
	score float64
	rank  int

	title          string
	body           string
	region         string
	productVersion string
	category       string
	deprecated     bool
}

// New creates a ranked item.
func New(
	docID string, score float64, rank int,
	title, body, region, productVersion, category string,
	deprecated bool,
) Item {
	return Item{
		docID: docID, score: score, rank: rank,
		title: title, body: body,
		region: region, productVersion: productVersion, category: category,
		deprecated: deprecated,
	}
}

// WithScoreRank returns a copy with a new score and rank, keeping the
// display fields. Used when re-ranking after post-hoc filtering and when
// assigning fused scores.
func (i Item) WithScoreRank(score float64, rank int) Item {
	c := i
	c.score = score
	c.rank = rank
	return c
}

// DocID returns the document identifier.
func (i *Item) DocID() string { return i.docID }

// Score returns the relevance score (BM25, similarity, or RRF).
func (i *Item) Score() float64 { return i.score }

// Rank returns the 1-based position within the producing branch.
func (i *Item) Rank() int { return i.rank }

// Title returns the article title.
func (i *Item) Title() string { return i.title }

// Body returns the article body.
func (i *Item) Body() string { return i.body }

// Region returns the article region.
func (i *Item) Region() string { return i.region }

// ProductVersion returns the product version.
func (i *Item) ProductVersion() string { return i.productVersion }

// Category returns the article category.
func (i *Item) Category() string { return i.category }

// Deprecated reports whether the article is deprecated.
func (i *Item) Deprecated() bool { return i.deprecated }
