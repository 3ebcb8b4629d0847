package crawler

import "fmt"

// ProbeError indicates an end-of-results probe that could not complete.
// It never implies the catalog is exhausted, only that the question
// went unanswered.
type ProbeError struct {
	URL string
	Err error
}

func (e ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.URL, e.Err)
}

func (e ProbeError) Unwrap() error {
	return e.Err
}

// ExtractionError indicates a page-level extraction failure: the
// adapter returned an error or unusable output for the whole page.
type ExtractionError struct {
	URL string
	Err error
}

func (e ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e ExtractionError) Unwrap() error {
	return e.Err
}
