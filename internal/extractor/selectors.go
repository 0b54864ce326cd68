package extractor

import "regexp"

// Amazon page layout. Product pages and review listings are matched with
// plain CSS selectors plus a few regular expressions over element text.
const (
	selProductTitle  = "#productTitle"
	selDetailHeader  = "tr > th"
	selDetailBullet  = "li"
	selReviewCount   = "#acrCustomerReviewText"
	selScript        = "script"
	labelModelNumber = "Item model number"
	selReview        = "div.a-section.review"
	selReviewRating  = "span.a-icon-alt"
	selReviewTitle   = "a.review-title"
	selReviewDate    = "span.review-date"
	selReviewVotes   = "span.review-votes"
	selReviewText    = "span.review-text"
	reviewDateLayout = "January 2, 2006"
)

//nolint:gochecknoglobals // compiled once
var (
	reReviewCount = regexp.MustCompile(`([,\d]+) customer review`)
	reHiResImage  = regexp.MustCompile(`(?s)'colorImages':.+?'initial':.+?"hiRes".+?(null|"http.+?")`)
	reLargeImage  = regexp.MustCompile(`(?s)'colorImages':.+?'initial':.+?"large".+?(null|"http.+?")`)
	reRating      = regexp.MustCompile(`(\d)(?:\.\d)? out of 5 stars`)
	reReviewDate  = regexp.MustCompile(`on (.+)`)
	reHelpVotes   = regexp.MustCompile(`(\d+) of (\d+) people found the following review helpful`)
)
