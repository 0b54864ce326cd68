package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rohmanhakim/review-crawler/pkg/failure"
)

// EnsureDir check if a given directory plus the following path exist, then create one if not
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := []string{dir}
	targetPath = append(targetPath, path...)

	if err := os.MkdirAll(filepath.Join(targetPath...), 0755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCausePathError,
		}
	}
	return nil
}

// WriteFile writes data to a temp file next to path and renames it into
// place, so readers never observe a half-written record.
func WriteFile(path string, data []byte) failure.ClassifiedError {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return &FileError{Message: fmt.Sprintf("%v", err), Cause: ErrCauseWriteError}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &FileError{Message: fmt.Sprintf("%v", err), Cause: ErrCauseWriteError}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &FileError{Message: fmt.Sprintf("%v", err), Cause: ErrCauseWriteError}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &FileError{Message: fmt.Sprintf("%v", err), Cause: ErrCauseWriteError}
	}
	return nil
}

// SanitizeFilename replaces path separators and characters that are not
// portable in file names with '_'. Empty input becomes "_".
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|' || r < 0x20:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
