package extractor

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// parseDocument parses body into a goquery document. Blank bodies and
// documents without an <html> element are rejected.
func parseDocument(body []byte) (*goquery.Document, *ExtractionError) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &ExtractionError{
			Message:   "response body is empty",
			Retryable: true,
			Cause:     ErrCauseEmptyDocument,
		}
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: true,
			Cause:     ErrCauseNotHTML,
		}
	}
	if !hasElement(root, "html") {
		return nil, &ExtractionError{
			Message:   "input is not valid HTML document",
			Retryable: true,
			Cause:     ErrCauseNotHTML,
		}
	}

	return goquery.NewDocumentFromNode(root), nil
}

func hasElement(n *html.Node, tag string) bool {
	if n.Type == html.ElementNode && n.Data == tag {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasElement(c, tag) {
			return true
		}
	}
	return false
}

// ownText is the concatenated text of the direct text children of the
// first node in s, trimmed.
func ownText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for c := s.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// firstText is the trimmed text of the first match of selector under s.
func firstText(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}

// submatch returns capture group 1..n of the first match, or nil.
func submatch(re *regexp.Regexp, text string) []string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	return m[1:]
}
