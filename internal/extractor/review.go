package extractor

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/review-crawler/internal/locator"
	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/internal/record"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
)

/*
Responsibilities
- Parse one review listing page into a record.Collection keyed by review id

A page without review elements yields an empty collection; that is the
pagination termination signal. Review elements without an id cannot be
keyed and are skipped.
*/
type AmazonReviewExtractor struct {
	metadataSink metadata.MetadataSink
	locator      locator.Locator
}

func NewAmazonReviewExtractor(
	metadataSink metadata.MetadataSink,
	loc locator.Locator,
) AmazonReviewExtractor {
	return AmazonReviewExtractor{
		metadataSink: metadataSink,
		locator:      loc,
	}
}

func (a *AmazonReviewExtractor) Extract(
	sourceURL url.URL,
	body []byte,
) (record.Collection, failure.ClassifiedError) {
	doc, err := parseDocument(body)
	if err != nil {
		a.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"AmazonReviewExtractor.Extract",
			mapExtractionErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, sourceURL.String()),
			},
		)
		return record.NewCollection(), err
	}

	reviews := record.NewCollection()
	doc.Find(selReview).Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		reviews.Add(a.review(id, s))
	})

	return reviews, nil
}

func (a *AmazonReviewExtractor) review(id string, s *goquery.Selection) record.Review {
	r := record.Review{
		Name:      id,
		Title:     firstText(s, selReviewTitle),
		Permalink: a.locator.ReviewPermalink(id),
		Rate:      rating(s),
		Date:      reviewDate(s),
		HelpRatio: helpRatio(s),
	}

	text := s.Find(selReviewText).First()
	r.Text = strings.TrimSpace(text.Text())
	if inner, err := text.Html(); err == nil {
		r.TextHTML = strings.TrimSpace(inner)
	}
	return r
}

func rating(s *goquery.Selection) int {
	m := submatch(reRating, s.Find(selReviewRating).First().Text())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[0])
	return n
}

// reviewDate parses "on January 2, 2006". Unparseable dates are zero.
func reviewDate(s *goquery.Selection) time.Time {
	raw := firstText(s, selReviewDate)
	if m := submatch(reReviewDate, raw); m != nil {
		raw = strings.TrimSpace(m[0])
	}
	date, err := time.Parse(reviewDateLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return date
}

func helpRatio(s *goquery.Selection) record.HelpRatio {
	m := submatch(reHelpVotes, s.Find(selReviewVotes).First().Text())
	if m == nil {
		return record.HelpRatio{}
	}
	helpful, _ := strconv.Atoi(m[0])
	total, _ := strconv.Atoi(m[1])
	return record.HelpRatio{Helpful: helpful, Total: total}
}
