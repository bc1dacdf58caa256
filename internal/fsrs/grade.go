package fsrs

import (
	"fmt"
	"strconv"
	"strings"
)

// Grade is the learner's self-reported recall quality for one review.
type Grade int

const (
	Again Grade = iota + 1 // failed to recall
	Hard                   // recalled with significant effort
	Good                   // recalled
	Easy                   // recalled effortlessly
)

var gradeNames = [...]string{Again: "again", Hard: "hard", Good: "good", Easy: "easy"}

// IsValid reports whether g is one of Again..Easy.
func (g Grade) IsValid() bool { return g >= Again && g <= Easy }

// Recalled reports whether the grade counts as a successful recall.
func (g Grade) Recalled() bool { return g >= Hard && g <= Easy }

// String returns the lowercase name ("again", "hard", "good", "easy").
func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// ParseGrade accepts either the numeric form ("1".."4") or a name
// ("again", "Hard", ...).
func ParseGrade(s string) (Grade, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if g := Grade(n); g.IsValid() {
			return g, nil
		}
		return 0, fmt.Errorf("%w: %d", ErrInvalidGrade, n)
	}
	for g := Again; g <= Easy; g++ {
		if gradeNames[g] == s {
			return g, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
}
