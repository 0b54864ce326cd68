package storage

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/rohmanhakim/review-crawler/internal/mdconvert"
	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/internal/record"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
	"github.com/rohmanhakim/review-crawler/pkg/fileutil"
	"github.com/rohmanhakim/review-crawler/pkg/hashutil"
)

/*
Responsibilities
- Persist one product and its reviews as report files
- Ensure deterministic filenames

Output Characteristics
- <outputDir>/<asin>/product.<ext>
- <outputDir>/<asin>/review.<reviewId>.<ext>, written in review id order
- A review id that is not filename-safe is sanitized and suffixed with a
  short hash of the raw id, so distinct ids never share a file
- Overwrite-safe reruns (temp file + rename)
*/

type Sink interface {
	Write(
		outputDir string,
		product record.Product,
		reviews record.Collection,
	) ([]WriteResult, failure.ClassifiedError)
}

var _ Sink = (*LocalSink)(nil)

type LocalSink struct {
	metadataSink metadata.MetadataSink
	converter    mdconvert.ConvertRule
	format       Format
	dryRun       bool
}

func NewLocalSink(
	metadataSink metadata.MetadataSink,
	converter mdconvert.ConvertRule,
	format Format,
	dryRun bool,
) *LocalSink {
	return &LocalSink{
		metadataSink: metadataSink,
		converter:    converter,
		format:       format,
		dryRun:       dryRun,
	}
}

// Write stops at the first failed file. Results of the files written
// before it are returned alongside the error.
func (s *LocalSink) Write(
	outputDir string,
	product record.Product,
	reviews record.Collection,
) ([]WriteResult, failure.ClassifiedError) {
	dir := filepath.Join(outputDir, fileutil.SanitizeFilename(product.ASIN))
	if !s.dryRun {
		if err := fileutil.EnsureDir(dir); err != nil {
			return nil, s.fail(&StorageError{
				Message:   err.Error(),
				Retryable: false,
				Cause:     ErrCausePathError,
				Path:      dir,
			}, product.ASIN)
		}
	}

	results := make([]WriteResult, 0, reviews.Len()+1)

	productPath := filepath.Join(dir, "product."+s.format.Extension())
	res, err := s.writeFile(productPath, renderProduct(s.format, product), product.ASIN)
	if err != nil {
		return results, err
	}
	results = append(results, res)
	s.metadataSink.RecordArtifact(metadata.ArtifactProduct, res.Path(), []metadata.Attribute{
		metadata.NewAttr(metadata.AttrResourceID, product.ASIN),
		metadata.NewAttr(metadata.AttrHash, res.ContentHash()),
	})

	for _, review := range reviews.Sorted() {
		res, err := s.writeFile(
			filepath.Join(dir, reviewFilename(review.Name, s.format)),
			renderReview(s.format, s.converter, review),
			product.ASIN,
		)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		s.metadataSink.RecordArtifact(metadata.ArtifactReview, res.Path(), []metadata.Attribute{
			metadata.NewAttr(metadata.AttrResourceID, review.Name),
			metadata.NewAttr(metadata.AttrHash, res.ContentHash()),
		})
	}
	return results, nil
}

func reviewFilename(reviewID string, format Format) string {
	name := fileutil.SanitizeFilename(reviewID)
	if name != reviewID {
		name += "." + hashutil.Short(hashutil.Fingerprint([]byte(reviewID)), 8)
	}
	return "review." + name + "." + format.Extension()
}

func (s *LocalSink) writeFile(path string, content []byte, asin string) (WriteResult, failure.ClassifiedError) {
	result := NewWriteResult(path, hashutil.Fingerprint(content))
	if s.dryRun {
		return result, nil
	}
	if err := fileutil.WriteFile(path, content); err != nil {
		storageErr := &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      path,
		}
		var fileErr *fileutil.FileError
		if errors.As(err, &fileErr) && fileErr.Cause == fileutil.ErrCausePathError {
			storageErr.Cause = ErrCausePathError
		}
		return WriteResult{}, s.fail(storageErr, asin)
	}
	return result, nil
}

func (s *LocalSink) fail(err *StorageError, asin string) *StorageError {
	s.metadataSink.RecordError(
		time.Now(),
		"storage",
		"LocalSink.Write",
		mapStorageErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrResourceID, asin),
			metadata.NewAttr(metadata.AttrWritePath, err.Path),
		},
	)
	return err
}
