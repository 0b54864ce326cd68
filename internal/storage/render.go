package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rohmanhakim/review-crawler/internal/mdconvert"
	"github.com/rohmanhakim/review-crawler/internal/record"
)

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// Text layout: one "Key: value" line per field, review body after a blank line.

func productText(p record.Product) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "ASIN: %s\n", p.ASIN)
	fmt.Fprintf(&b, "Model Number: %s\n", p.ModelNum)
	fmt.Fprintf(&b, "Review Count: %d\n", p.ReviewCount)
	fmt.Fprintf(&b, "Update Date: %s\n", formatDate(p.UpdateDate))
	fmt.Fprintf(&b, "Page URL: %s\n", p.PageURL)
	fmt.Fprintf(&b, "Image (hi-res): %s\n", p.ImgURLHiRes)
	fmt.Fprintf(&b, "Image (large): %s\n", p.ImgURLLarge)
	return []byte(b.String())
}

func reviewText(r record.Review) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", r.Name)
	fmt.Fprintf(&b, "Rate: %d\n", r.Rate)
	fmt.Fprintf(&b, "Title: %s\n", r.Title)
	fmt.Fprintf(&b, "Date: %s\n", formatDate(r.Date))
	fmt.Fprintf(&b, "Permalink: %s\n", r.Permalink)
	fmt.Fprintf(&b, "Helpful: %d/%d\n", r.HelpRatio.Helpful, r.HelpRatio.Total)
	fmt.Fprintf(&b, "Model Number: %s\n", r.ModelNum)
	fmt.Fprintf(&b, "Crawled Times: %d\n", r.CrawledTimes)
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(r.Text))
	b.WriteString("\n")
	return []byte(b.String())
}

func productMarkdown(p record.Product) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Name)
	fmt.Fprintf(&b, "- **ASIN:** %s\n", p.ASIN)
	if p.ModelNum != "" {
		fmt.Fprintf(&b, "- **Model number:** %s\n", p.ModelNum)
	}
	fmt.Fprintf(&b, "- **Reviews:** %d\n", p.ReviewCount)
	if !p.UpdateDate.IsZero() {
		fmt.Fprintf(&b, "- **Crawled:** %s\n", formatDate(p.UpdateDate))
	}
	if p.PageURL != "" {
		fmt.Fprintf(&b, "- **Page:** <%s>\n", p.PageURL)
	}
	img := p.ImgURLHiRes
	if img == "" {
		img = p.ImgURLLarge
	}
	if img != "" {
		fmt.Fprintf(&b, "\n![%s](%s)\n", p.Name, img)
	}
	return []byte(b.String())
}

func reviewMarkdown(r record.Review, body []byte) []byte {
	var b strings.Builder
	title := r.Title
	if title == "" {
		title = r.Name
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- **Review:** %s\n", r.Name)
	fmt.Fprintf(&b, "- **Rating:** %d/5\n", r.Rate)
	if !r.Date.IsZero() {
		fmt.Fprintf(&b, "- **Date:** %s\n", formatDate(r.Date))
	}
	if !r.HelpRatio.IsZero() {
		fmt.Fprintf(&b, "- **Helpful:** %d of %d\n", r.HelpRatio.Helpful, r.HelpRatio.Total)
	}
	if r.ModelNum != "" {
		fmt.Fprintf(&b, "- **Model number:** %s\n", r.ModelNum)
	}
	if r.Permalink != "" {
		fmt.Fprintf(&b, "- **Permalink:** <%s>\n", r.Permalink)
	}
	b.WriteString("\n")
	b.Write(body)
	b.WriteString("\n")
	return []byte(b.String())
}

func markdownToHTML(title string, md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Title: title,
		Flags: mdhtml.CommonFlags | mdhtml.CompletePage | mdhtml.HrefTargetBlank,
	})
	return markdown.ToHTML(md, p, renderer)
}

func renderProduct(format Format, p record.Product) []byte {
	switch format {
	case FormatMarkdown:
		return productMarkdown(p)
	case FormatHTML:
		return markdownToHTML(p.Name, productMarkdown(p))
	default:
		return productText(p)
	}
}

// renderReview falls back to the plain text body when conversion fails.
func renderReview(format Format, conv mdconvert.ConvertRule, r record.Review) []byte {
	if format == FormatText {
		return reviewText(r)
	}
	result, _ := conv.Convert(r)
	md := reviewMarkdown(r, result.GetMarkdownContent())
	if format == FormatHTML {
		return markdownToHTML(r.Title, md)
	}
	return md
}
