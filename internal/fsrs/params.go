package fsrs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGrade      = errors.New("fsrs: invalid grade")
	ErrInvalidParameters = errors.New("fsrs: invalid parameters")
)

// DefaultWeights are the FSRS-6 default parameters.
var DefaultWeights = [21]float64{
	0.212, 1.2931, 2.3065, 8.2956, // w0..w3   initial stability per grade
	6.4133, 0.8334, 3.0194, 0.001, // w4..w7   difficulty
	1.8722, 0.1666, 0.796, 1.4835, // w8..w11  recall stability
	0.0614, 0.2629, 1.6483, 0.6014, // w12..w15 forget stability, hard penalty
	1.8729, 0.5425, 0.0912, 0.0658, // w16..w19 easy bonus, short-term
	0.1542, // w20 decay
}

var (
	lowerBounds = [21]float64{
		0.001, 0.001, 0.001, 0.001,
		1.0, 0.001, 0.001, 0.001,
		0.0, 0.0, 0.001, 0.001,
		0.001, 0.001, 0.0, 0.0,
		1.0, 0.0, 0.0, 0.0,
		0.1,
	}
	upperBounds = [21]float64{
		100.0, 100.0, 100.0, 100.0,
		10.0, 4.0, 4.0, 0.75,
		4.5, 0.8, 3.5, 5.0,
		0.25, 0.9, 4.0, 1.0,
		6.0, 2.0, 2.0, 0.8,
		0.8,
	}
)

// Parameters configures a Model.
type Parameters struct {
	Weights          [21]float64
	RequestRetention float64 // target recall probability at the next review
	StabilityFloor   float64 // applied to input stability
	DifficultyFloor  float64 // applied to input and output difficulty
	MaxDifficulty    float64
	MaxIntervalDays  int
}

// DefaultParameters returns the FSRS-6 weights with 0.9 retention and the
// standard floors.
func DefaultParameters() Parameters {
	return Parameters{
		Weights:          DefaultWeights,
		RequestRetention: 0.9,
		StabilityFloor:   0.1,
		DifficultyFloor:  0.3,
		MaxDifficulty:    10,
		MaxIntervalDays:  36500,
	}
}

// Validate checks weights against their bounds and the scalar settings.
func (p Parameters) Validate() error {
	for i, w := range p.Weights {
		if w < lowerBounds[i] || w > upperBounds[i] {
			return fmt.Errorf("%w: w[%d] = %g, bounds [%g, %g]",
				ErrInvalidParameters, i, w, lowerBounds[i], upperBounds[i])
		}
	}
	switch {
	case p.RequestRetention < 0.8 || p.RequestRetention > 0.98:
		return fmt.Errorf("%w: request retention %g outside [0.8, 0.98]", ErrInvalidParameters, p.RequestRetention)
	case p.StabilityFloor <= 0:
		return fmt.Errorf("%w: stability floor must be > 0", ErrInvalidParameters)
	case p.DifficultyFloor <= 0:
		return fmt.Errorf("%w: difficulty floor must be > 0", ErrInvalidParameters)
	case p.MaxDifficulty <= p.DifficultyFloor:
		return fmt.Errorf("%w: max difficulty must exceed the floor", ErrInvalidParameters)
	case p.MaxIntervalDays < 1:
		return fmt.Errorf("%w: max interval must be >= 1 day", ErrInvalidParameters)
	}
	return nil
}
