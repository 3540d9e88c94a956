package scrape

import (
	"errors"
	"fmt"
)

// ErrStructure matches every StructureError with errors.Is.
var ErrStructure = errors.New("unexpected page structure")

// StructureError reports a page that no longer has the shape the scraper
// expects.
type StructureError struct {
	URL    string
	Reason string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("unexpected page structure at %s: %s", e.URL, e.Reason)
}

func (e *StructureError) Is(target error) bool { return target == ErrStructure }

func structureErr(url, format string, args ...any) error {
	return &StructureError{URL: url, Reason: fmt.Sprintf(format, args...)}
}
