package pagination

import (
	"context"
	"time"

	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/internal/record"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
)

/*
Responsibilities
- Walk review pages 1, 2, 3, ... on the caller's goroutine
- Merge every non-empty page into one collection
- Stop at the first page without records

Pages are never skipped or fetched twice. An exhausted fetch ends the run
like an empty page would, but the stop reason tells them apart. maxPages
bounds runaway pagination against a source that never returns an empty
page. Fatal page errors abort the run and are returned with whatever was
merged so far.
*/
type SequentialPaginator struct {
	metadataSink metadata.MetadataSink
	scraper      PageScraper
	maxPages     int
}

func NewSequentialPaginator(
	metadataSink metadata.MetadataSink,
	scraper PageScraper,
	maxPages int,
) SequentialPaginator {
	if maxPages < 1 {
		maxPages = DefaultMaxPages
	}
	return SequentialPaginator{
		metadataSink: metadataSink,
		scraper:      scraper,
		maxPages:     maxPages,
	}
}

func (p *SequentialPaginator) PaginateAll(
	ctx context.Context,
	resourceID string,
) (SequentialResult, failure.ClassifiedError) {
	result := SequentialResult{
		Reviews: record.NewCollection(),
	}

	for page := 1; ; page++ {
		if page > p.maxPages {
			result.StopReason = StopPageLimit
			result.StopPage = page - 1
			p.metadataSink.RecordError(
				time.Now(),
				"pagination",
				"SequentialPaginator.PaginateAll",
				metadata.CauseInvariantViolation,
				"page limit reached before an empty page",
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrResourceID, resourceID),
				},
			)
			break
		}

		outcome, err := p.scraper.ScrapePage(ctx, PageTask{ResourceID: resourceID, PageNumber: page})
		result.PagesFetched++
		if err != nil {
			result.StopPage = page
			p.finish(resourceID, &result)
			return result, err
		}

		if outcome.Status == PageRecords {
			result.Collisions = append(result.Collisions, result.Reviews.Merge(outcome.Records)...)
			continue
		}

		result.StopPage = page
		switch outcome.Status {
		case PageExhausted:
			result.StopReason = StopFetchExhausted
		case PageFailed:
			result.StopReason = StopExtractionFailed
		default:
			result.StopReason = StopEmptyPage
		}
		break
	}

	p.finish(resourceID, &result)
	return result, nil
}

func (p *SequentialPaginator) finish(resourceID string, result *SequentialResult) {
	p.metadataSink.RecordMerge(resourceID, result.Reviews.Len(), result.Collisions)
}
