package record

import (
	"sort"
	"time"
)

// Product is the primary record of a crawl.
type Product struct {
	ASIN     string
	Name     string
	ModelNum string
	// ReviewCount is the count hint used to size the review fan-out.
	// Never negative.
	ReviewCount int
	UpdateDate  time.Time
	PageURL     string
	ImgURLHiRes string
	ImgURLLarge string
}

// HelpRatio is "Helpful / Total" votes as printed on the review.
type HelpRatio struct {
	Helpful int
	Total   int
}

func (h HelpRatio) IsZero() bool {
	return h.Helpful == 0 && h.Total == 0
}

// Review is a secondary record. Name is the review id and must be unique
// within a Collection.
type Review struct {
	Name      string
	Rate      int
	Title     string
	Date      time.Time
	Permalink string
	HelpRatio HelpRatio
	ModelNum  string
	Text      string
	// TextHTML is the inner HTML of the review body, used by the markdown
	// and html report formats.
	TextHTML string
	// CrawledTimes counts how many times this id was merged.
	CrawledTimes int
}

// Collection maps review id to review.
type Collection map[string]Review

func NewCollection() Collection {
	return make(Collection)
}

// Add inserts r, keeping the last write on an id collision. It reports
// whether the id was already present.
func (c Collection) Add(r Review) bool {
	prev, existed := c[r.Name]
	crawled := r.CrawledTimes
	if crawled < 1 {
		crawled = 1
	}
	if existed {
		crawled += prev.CrawledTimes
	}
	r.CrawledTimes = crawled
	c[r.Name] = r
	return existed
}

// Merge folds other into c and returns the ids that were already present,
// sorted.
func (c Collection) Merge(other Collection) []string {
	var collisions []string
	for _, id := range other.IDs() {
		if c.Add(other[id]) {
			collisions = append(collisions, id)
		}
	}
	return collisions
}

func (c Collection) Len() int {
	return len(c)
}

// IDs returns the review ids in ascending order.
func (c Collection) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sorted returns the reviews ordered by id.
func (c Collection) Sorted() []Review {
	out := make([]Review, 0, len(c))
	for _, id := range c.IDs() {
		out = append(out, c[id])
	}
	return out
}

// WithModelNum copies modelNum onto every review that has none.
func (c Collection) WithModelNum(modelNum string) {
	if modelNum == "" {
		return
	}
	for id, r := range c {
		if r.ModelNum == "" {
			r.ModelNum = modelNum
			c[id] = r
		}
	}
}
