package threshold

import "fmt"

// Defaults are the configured fallback thresholds used to fill in whichever
// field an expression leaves out.
type Defaults struct {
	Start Percent
	End   Percent
}

// Resolve combines a partial spec with the configured defaults into a
// concrete, valid threshold pair.
//
// An empty spec resolves to (nil, nil): a no-op, not an error. A spec naming
// one threshold gets the other from defaults. Values outside [0, 100] and
// pairs with start above end are rejected; nothing is written to the kernel
// for a rejected request.
func Resolve(spec PartialSpec, defaults Defaults) (*Resolved, error) {
	if spec.Empty() {
		return nil, nil
	}

	start := int(defaults.Start)
	if spec.Start != nil {
		start = *spec.Start
	}
	end := int(defaults.End)
	if spec.End != nil {
		end = *spec.End
	}

	startPct, err := NewPercent(start)
	if err != nil {
		return nil, &RejectionError{Reason: fmt.Sprintf("start threshold out of range: %v", err)}
	}
	endPct, err := NewPercent(end)
	if err != nil {
		return nil, &RejectionError{Reason: fmt.Sprintf("end threshold out of range: %v", err)}
	}

	if startPct > endPct {
		return nil, &RejectionError{
			Reason: fmt.Sprintf("start threshold %d%% is above end threshold %d%%", startPct, endPct),
		}
	}

	return &Resolved{Start: startPct, End: endPct}, nil
}
