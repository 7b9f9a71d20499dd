package extraction

import "fmt"

// ExtractionFailure means the text-to-structure capability errored, timed
// out, or returned unparseable output. The caller may retry with the same or
// a regenerated corpus; the engine itself never retries and never fabricates
// a fallback record.
type ExtractionFailure struct {
	Reason string
	Err    error
}

func (e *ExtractionFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed (%s)", e.Reason)
}

func (e *ExtractionFailure) Unwrap() error { return e.Err }

// EditError rejects a reconciliation edit: the path does not resolve against
// the schema, the index is out of range, or the value does not fit the
// addressed node's shape. The record under edit is left untouched.
type EditError struct {
	Path     string
	Expected string
	Reason   string
}

func (e *EditError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("edit rejected at %q: %s (expected %s)", e.Path, e.Reason, e.Expected)
	}
	return fmt.Sprintf("edit rejected at %q: %s", e.Path, e.Reason)
}

// InvalidSourceError rejects a request whose source list fails validation
// before any extraction work starts.
type InvalidSourceError struct {
	Err error
}

func (e *InvalidSourceError) Error() string {
	return fmt.Sprintf("invalid sources: %v", e.Err)
}

func (e *InvalidSourceError) Unwrap() error { return e.Err }

// NotFoundError means no current extraction exists for the visit.
type NotFoundError struct {
	VisitID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no extraction found for visit %s", e.VisitID)
}
