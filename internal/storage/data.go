package storage

import "fmt"

type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatMarkdown, FormatHTML:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// Extension is the file extension, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatHTML:
		return "html"
	default:
		return "txt"
	}
}

type WriteResult struct {
	path        string
	contentHash string
}

func NewWriteResult(
	path string,
	contentHash string,
) WriteResult {
	return WriteResult{
		path:        path,
		contentHash: contentHash,
	}
}

func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) ContentHash() string {
	return w.contentHash
}
