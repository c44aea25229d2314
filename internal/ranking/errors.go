package ranking

import "fmt"

// RankingError represents a failed ranking service call. Ranking is a
// quality enhancement, never a correctness requirement: callers fall back to
// the unranked candidate prefix.
type RankingError struct {
	Message string
	Cause   error
}

func (e *RankingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ranking failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("ranking failed: %s", e.Message)
}

func (e *RankingError) Unwrap() error {
	return e.Cause
}
