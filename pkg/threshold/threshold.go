// Package threshold defines battery charge-control threshold values and the
// expression grammar used to set them through the battpipe pipe.
package threshold

import "fmt"

// Percent is a charge percentage. It is only ever constructed inside [0, 100];
// out-of-range input fails parsing or resolution instead of being clamped.
type Percent int

// NewPercent validates i and returns it as a Percent.
func NewPercent(i int) (Percent, error) {
	if i < 0 || i > 100 {
		return 0, fmt.Errorf("percentage must be between 0 and 100, got %d", i)
	}
	return Percent(i), nil
}

// PartialSpec is the parser's output: at most one of the two thresholds named
// by an expression. Values are raw integers; range enforcement happens during
// resolution so malformed expressions and out-of-range values produce
// distinct errors.
type PartialSpec struct {
	Start *int
	End   *int
}

// Empty reports whether the spec names neither threshold. An empty spec is a
// valid parse (blank line) and resolves to a no-op.
func (s PartialSpec) Empty() bool {
	return s.Start == nil && s.End == nil
}

func (s PartialSpec) String() string {
	fmtField := func(v *int) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("%d", *v)
	}
	return fmt.Sprintf("{start: %s, end: %s}", fmtField(s.Start), fmtField(s.End))
}

// Resolved is a fully validated, default-filled threshold pair. Invariant:
// 0 <= Start <= End <= 100. Only Resolved values may reach the applier.
type Resolved struct {
	Start Percent `json:"start"`
	End   Percent `json:"end"`
}

func (r Resolved) String() string {
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}
