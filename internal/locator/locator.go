package locator

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/rohmanhakim/review-crawler/pkg/urlutil"
)

/*
Responsibilities
- Build the product, review listing and review permalink URLs for a
  resource id against a configurable base URL

Locators are pure functions of (base, id, page).
*/
type Locator struct {
	base url.URL
}

func New(base url.URL) Locator {
	return Locator{base: urlutil.Canonicalize(base)}
}

// Parse builds a Locator from a raw absolute base URL.
func Parse(rawBase string) (Locator, error) {
	u, err := url.Parse(rawBase)
	if err != nil {
		return Locator{}, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Locator{}, fmt.Errorf("base url must be absolute: %q", rawBase)
	}
	return New(*u), nil
}

func (l Locator) Base() url.URL {
	return l.base
}

// ProductURL is <base>/dp/<id>.
func (l Locator) ProductURL(resourceID string) url.URL {
	return urlutil.Resolve(l.base, nil, "dp", resourceID)
}

// ReviewPageURL is
// <base>/product-reviews/<id>/ref=cm_cr_pr_btm_link_<n>?ie=UTF8&pageNumber=<n>.
func (l Locator) ReviewPageURL(resourceID string, page int) url.URL {
	n := strconv.Itoa(page)
	query := url.Values{
		"ie":         {"UTF8"},
		"pageNumber": {n},
	}
	return urlutil.Resolve(l.base, query, "product-reviews", resourceID, "ref=cm_cr_pr_btm_link_"+n)
}

// ReviewPermalink is <base>/review/<reviewID>.
func (l Locator) ReviewPermalink(reviewID string) string {
	u := urlutil.Resolve(l.base, nil, "review", reviewID)
	return u.String()
}
