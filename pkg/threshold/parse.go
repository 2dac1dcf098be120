package threshold

import (
	"strconv"
	"strings"
)

// The bare-value band boundary: a lone integer below 50 names the start
// threshold, 50 and above names the end threshold. 50 itself is end-only;
// this is deliberate policy, pinned by tests.
const bareValueBand = 50

// Parse converts one line of pipe input into a PartialSpec.
//
// Accepted forms (whitespace around separators is insignificant, separators
// are case-insensitive):
//
//	X to Y, X..Y, X .. Y, XtoY  ->  start=X, end=Y
//	start=X                     ->  start=X
//	end=Y                       ->  end=Y
//	X.., X to                   ->  start=X
//	..Y, to Y                   ->  end=Y
//	N                           ->  start=N if N < 50, end=N if 50 <= N <= 100
//
// Empty and whitespace-only lines parse to the empty spec, which the resolver
// treats as a no-op so trailing newlines from echo pass through harmlessly.
// The parser extracts raw integers without range checks; those are the
// resolver's job.
func Parse(line string) (PartialSpec, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return PartialSpec{}, nil
	}

	if strings.Contains(s, "=") {
		return parseAssignment(line, s)
	}

	if left, right, ok := splitRange(s); ok {
		return parseRange(line, left, right)
	}

	return parseBare(line, s)
}

// splitRange splits s on the first ".." or "to" separator.
func splitRange(s string) (left, right string, ok bool) {
	if i := strings.Index(s, ".."); i >= 0 {
		return s[:i], s[i+2:], true
	}
	if i := strings.Index(strings.ToLower(s), "to"); i >= 0 {
		return s[:i], s[i+2:], true
	}
	return "", "", false
}

func parseRange(line, left, right string) (PartialSpec, error) {
	spec := PartialSpec{}

	if left = strings.TrimSpace(left); left != "" {
		n, err := parseToken(line, left)
		if err != nil {
			return PartialSpec{}, err
		}
		spec.Start = &n
	}
	if right = strings.TrimSpace(right); right != "" {
		n, err := parseToken(line, right)
		if err != nil {
			return PartialSpec{}, err
		}
		spec.End = &n
	}

	return spec, nil
}

func parseAssignment(line, s string) (PartialSpec, error) {
	key, value, _ := strings.Cut(s, "=")
	n, err := parseToken(line, strings.TrimSpace(value))
	if err != nil {
		return PartialSpec{}, err
	}

	switch strings.ToLower(strings.TrimSpace(key)) {
	case "start":
		return PartialSpec{Start: &n}, nil
	case "end":
		return PartialSpec{End: &n}, nil
	default:
		return PartialSpec{}, &ParseError{Input: line, Reason: "field must be \"start\" or \"end\""}
	}
}

func parseBare(line, s string) (PartialSpec, error) {
	n, err := parseToken(line, s)
	if err != nil {
		return PartialSpec{}, err
	}

	switch {
	case n < bareValueBand:
		return PartialSpec{Start: &n}, nil
	case n <= 100:
		return PartialSpec{End: &n}, nil
	default:
		// A single value above 100 belongs to neither band. Guessing which
		// threshold was meant would be worse than refusing.
		return PartialSpec{}, &ParseError{Input: line, Reason: "bare value is ambiguous, use start= or end="}
	}
}

func parseToken(line, tok string) (int, error) {
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, &ParseError{Input: line, Reason: "token " + strconv.Quote(tok) + " is not a non-negative integer"}
	}
	return n, nil
}
