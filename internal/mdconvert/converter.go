package mdconvert

import (
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/internal/record"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Turn a review body (inner HTML as scraped) into Markdown
- Fall back to the plain text when no HTML was captured
- Report conversion failures as recoverable: a report can still be
  written with the plain text
*/

type ConvertRule interface {
	Convert(review record.Review) (ConversionResult, failure.ClassifiedError)
}

var _ ConvertRule = (*ReviewConverter)(nil)

type ReviewConverter struct {
	metadataSink metadata.MetadataSink
	conv         *converter.Converter
}

func NewReviewConverter(metadataSink metadata.MetadataSink) *ReviewConverter {
	return &ReviewConverter{
		metadataSink: metadataSink,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (r *ReviewConverter) Convert(review record.Review) (ConversionResult, failure.ClassifiedError) {
	if strings.TrimSpace(review.TextHTML) == "" {
		return NewConversionResult([]byte(strings.TrimSpace(review.Text))), nil
	}

	markdown, convErr := r.convert(review.TextHTML)
	if convErr != nil {
		r.metadataSink.RecordError(
			time.Now(),
			"mdconvert",
			"ReviewConverter.Convert",
			mapConversionErrorToMetadataCause(*convErr),
			convErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrResourceID, review.Name),
			},
		)
		return NewConversionResult([]byte(strings.TrimSpace(review.Text))), convErr
	}
	return NewConversionResult(markdown), nil
}

func (r *ReviewConverter) convert(fragment string) ([]byte, *ConversionError) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, &ConversionError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseParseFailure,
		}
	}

	markdown, err := r.conv.ConvertNode(doc)
	if err != nil {
		return nil, &ConversionError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseConversionFailure,
		}
	}
	return []byte(strings.TrimSpace(string(markdown))), nil
}
