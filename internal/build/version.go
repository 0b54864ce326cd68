// Package build holds the release identity of the review-crawler binary.
//
// The values are stamped at link time:
//
//	go build -ldflags "\
//	  -X github.com/rohmanhakim/review-crawler/internal/build.Version=1.2.0 \
//	  -X github.com/rohmanhakim/review-crawler/internal/build.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/rohmanhakim/review-crawler/internal/build.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	  ./cmd/review-crawler
package build

import "fmt"

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion returns the version string with commit hash appended.
// Format: "Version+Commit" (e.g., "1.0.0+abc123")
func FullVersion() string {
	return Version + "+" + Commit
}

// Summary is the line printed by `review-crawler --version`.
func Summary() string {
	return fmt.Sprintf("review-crawler %s (built %s)", FullVersion(), BuildTime)
}
