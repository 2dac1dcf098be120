package threshold

import "fmt"

// ParseError reports a malformed or ambiguous threshold expression. It is
// local-recoverable: the daemon logs it and keeps serving.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse threshold expression %q: %s", e.Input, e.Reason)
}

// RejectionError reports a well-formed expression whose resolved values are
// invalid (out of range, or start above end). No kernel write happens for a
// rejected request.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return "threshold rejected: " + e.Reason
}
