package scheduler

import (
	"bufio"
	"io"
	"strings"

	"github.com/rohmanhakim/review-crawler/internal/config"
)

const taskSeparator = "::"

// InvalidLine is a task file line that was skipped.
type InvalidLine struct {
	Number int
	Err    error
}

// ParseTasks reads "ASIN::product name" lines. The name part is optional.
// Blank lines and lines starting with '#' are ignored. Lines whose id fails
// validation are returned as invalid, 1-based.
func ParseTasks(r io.Reader, strictID bool) ([]Task, []InvalidLine, error) {
	var tasks []Task
	var invalid []InvalidLine

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		id, name, _ := strings.Cut(line, taskSeparator)
		id = strings.TrimSpace(id)
		if err := config.ValidateResourceID(id, strictID); err != nil {
			invalid = append(invalid, InvalidLine{Number: lineNumber, Err: err})
			continue
		}
		tasks = append(tasks, Task{ASIN: id, Name: strings.TrimSpace(name)})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return tasks, invalid, nil
}
