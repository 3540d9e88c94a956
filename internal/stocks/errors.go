package stocks

import (
	"errors"

	"stockserver/internal/scrape"
)

// ValidationError reports bad caller input. It is returned before any
// remote call is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// UpstreamError wraps a failure of the quotes provider or a page fetch.
// Its message is the underlying error's.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }

func (e *UpstreamError) Unwrap() error { return e.Err }

// pageErr leaves page structure errors as they are and marks anything else
// as an upstream failure.
func pageErr(op string, err error) error {
	if errors.Is(err, scrape.ErrStructure) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}
