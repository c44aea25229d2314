package extraction

import "fmt"

// ExtractionError represents a failed extraction service call: timeout,
// transport error, or a response missing the required structure. Callers
// treat it as an empty extraction rather than retrying.
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction failed: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
