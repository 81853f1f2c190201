package domain

import (
	"fmt"
	"strconv"
	"strings"

	dErrors "campus/pkg/domain-errors"
)

// AcademicYear is a "YYYY-YYYY" label whose second year follows the first.
// Construct via ParseAcademicYear at trust boundaries; direct casting bypasses validation.
type AcademicYear string

// ParseAcademicYear validates an academic year label such as "2024-2025".
func ParseAcademicYear(raw string) (AcademicYear, error) {
	raw = strings.TrimSpace(raw)
	first, second, ok := strings.Cut(raw, "-")
	if !ok || !isYear(first) || !isYear(second) {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "academic year %q must have the form YYYY-YYYY", raw)
	}
	start, _ := strconv.Atoi(first)
	end, _ := strconv.Atoi(second)
	if end != start+1 {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "academic year %q must span consecutive years", raw)
	}
	return AcademicYear(raw), nil
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (y AcademicYear) String() string { return string(y) }

// Term is one academic half-year within an AcademicYear.
type Term int

const (
	TermFall   Term = 1
	TermSpring Term = 2
)

// ParseTerm accepts 1 (fall) or 2 (spring).
func ParseTerm(n int) (Term, error) {
	t := Term(n)
	if !t.IsValid() {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "term must be 1 or 2, got %d", n)
	}
	return t, nil
}

func (t Term) IsValid() bool {
	return t == TermFall || t == TermSpring
}

func (t Term) String() string {
	switch t {
	case TermFall:
		return "fall"
	case TermSpring:
		return "spring"
	default:
		return fmt.Sprintf("term(%d)", int(t))
	}
}
