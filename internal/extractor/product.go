package extractor

import (
	"bytes"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/internal/record"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
	"github.com/rohmanhakim/review-crawler/pkg/timeutil"
)

/*
Responsibilities
- Parse a product page into a record.Product
- Read the review count hint that sizes the review fan-out

Extraction is tolerant: a missing field stays at its zero value. A page
with no title at all (neither the product title, <title>, nor og:title)
is not a product page.

Image URLs come from the colorImages script blob; OpenGraph supplies the
large image and the name when the page markup does not.
*/
type AmazonProductExtractor struct {
	metadataSink metadata.MetadataSink
	clock        timeutil.Clock
}

func NewAmazonProductExtractor(
	metadataSink metadata.MetadataSink,
	clock timeutil.Clock,
) AmazonProductExtractor {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	return AmazonProductExtractor{
		metadataSink: metadataSink,
		clock:        clock,
	}
}

func (a *AmazonProductExtractor) Extract(
	sourceURL url.URL,
	body []byte,
) (record.Product, bool, failure.ClassifiedError) {
	doc, err := parseDocument(body)
	if err != nil {
		a.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"AmazonProductExtractor.Extract",
			mapExtractionErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, sourceURL.String()),
			},
		)
		return record.Product{}, false, err
	}

	og := opengraph.NewOpenGraph()
	// malformed OpenGraph only disables the fallback
	_ = og.ProcessHTML(bytes.NewReader(body))

	name := productName(doc, og)
	if name == "" {
		return record.Product{}, false, nil
	}

	product := record.Product{
		Name:        name,
		ModelNum:    modelNumber(doc),
		ReviewCount: reviewCount(doc),
		UpdateDate:  a.clock.Now(),
		PageURL:     sourceURL.String(),
	}
	product.ImgURLHiRes, product.ImgURLLarge = imageURLs(doc)
	if product.ImgURLLarge == "" && len(og.Images) > 0 {
		product.ImgURLLarge = og.Images[0].URL
	}

	return product, true, nil
}

func productName(doc *goquery.Document, og *opengraph.OpenGraph) string {
	if name := firstText(doc.Selection, selProductTitle); name != "" {
		return name
	}
	if name := ownText(doc.Find("title").First()); name != "" {
		return name
	}
	return strings.TrimSpace(og.Title)
}

// modelNumber reads the "Item model number" row of the detail table, or
// the detail bullet of the same name. Upper-cased.
func modelNumber(doc *goquery.Document) string {
	var model string
	doc.Find(selDetailHeader).EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if strings.Contains(ownText(th), labelModelNumber) {
			model = strings.TrimSpace(th.Next().Text())
			return false
		}
		return true
	})
	if model == "" {
		doc.Find(selDetailBullet).EachWithBreak(func(_ int, li *goquery.Selection) bool {
			text := strings.TrimSpace(li.Text())
			if !strings.HasPrefix(text, labelModelNumber) {
				return true
			}
			rest := strings.TrimPrefix(text, labelModelNumber)
			model = strings.TrimSpace(strings.TrimLeft(rest, ": \t\u00a0"))
			return false
		})
	}
	return strings.ToUpper(model)
}

// reviewCount is the count hint, 0 when absent or unreadable.
func reviewCount(doc *goquery.Document) int {
	m := submatch(reReviewCount, doc.Find(selReviewCount).First().Text())
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[0], ",", ""))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func imageURLs(doc *goquery.Document) (hiRes string, large string) {
	doc.Find(selScript).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if hiRes == "" {
			hiRes = imageValue(submatch(reHiResImage, text))
		}
		if large == "" {
			large = imageValue(submatch(reLargeImage, text))
		}
		return hiRes == "" || large == ""
	})
	return hiRes, large
}

func imageValue(m []string) string {
	if m == nil || m[0] == "null" {
		return ""
	}
	return strings.Trim(m[0], `"`)
}

