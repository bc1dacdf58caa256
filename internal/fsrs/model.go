// Package fsrs implements the FSRS-6 memory model used to schedule word
// reviews: forgetting curve, stability and difficulty updates, and the next
// interval for a target retention.
//
// A Model is immutable after New and safe for concurrent use. None of its
// methods perform I/O or return errors; inputs are floored and outputs are
// clamped to their valid ranges.
package fsrs

import "math"

const (
	minStability = 0.001
	maxStability = 36500.0
)

// Memory is the pre-review memory state of one word. Stability <= 0 means
// the word has no memory trace yet; Difficulty > 0 on such a word is a
// prior (for example from word frequency).
type Memory struct {
	Stability  float64
	Difficulty float64
}

// Result is the post-review memory state. Retrievability is the recall
// probability at the moment of the review, before the update.
type Result struct {
	Stability      float64
	Difficulty     float64
	Retrievability float64
}

// Model evaluates FSRS transitions for a fixed parameter set.
type Model struct {
	p      Parameters
	decay  float64 // -w20
	factor float64 // 0.9^(1/decay) - 1
}

// New validates p and precomputes the forgetting-curve constants.
func New(p Parameters) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	decay := -p.Weights[20]
	return &Model{
		p:      p,
		decay:  decay,
		factor: math.Pow(0.9, 1/decay) - 1,
	}, nil
}

// MustNew is New for parameters known to be valid.
func MustNew(p Parameters) *Model {
	m, err := New(p)
	if err != nil {
		panic(err)
	}
	return m
}

// Params returns the parameters the model was built with.
func (m *Model) Params() Parameters { return m.p }

// Retrievability is R(t,S) = (1 + F*t/S)^D. It is 0 without a memory trace
// and 1 at t <= 0.
func (m *Model) Retrievability(stability, elapsedDays float64) float64 {
	if stability <= 0 {
		return 0
	}
	if elapsedDays <= 0 || math.IsNaN(elapsedDays) {
		return 1
	}
	return clamp01(math.Pow(1+m.factor*elapsedDays/stability, m.decay))
}

// NextInterval returns the whole number of days until retrievability falls
// to the request retention, in [1, MaxIntervalDays].
func (m *Model) NextInterval(stability float64) int {
	if stability <= 0 || math.IsNaN(stability) {
		return 1
	}
	ivl := stability / m.factor * (math.Pow(m.p.RequestRetention, 1/m.decay) - 1)
	days := int(math.Round(math.Min(ivl, float64(m.p.MaxIntervalDays))))
	if days < 1 {
		return 1
	}
	if days > m.p.MaxIntervalDays {
		return m.p.MaxIntervalDays
	}
	return days
}

// NextState applies one grade to cur after elapsedDays. Grades outside
// Again..Easy are clamped into range.
func (m *Model) NextState(cur Memory, g Grade, elapsedDays float64) Result {
	g = clampGrade(g)
	if elapsedDays < 0 || math.IsNaN(elapsedDays) {
		elapsedDays = 0
	}

	if cur.Stability <= 0 || math.IsNaN(cur.Stability) {
		d := m.initDifficulty(g)
		if cur.Difficulty > 0 {
			prior := m.ClampDifficulty(cur.Difficulty)
			d = m.nextDifficulty(prior, g)
			if g <= Hard {
				d = math.Max(d, prior)
			}
		}
		return Result{
			Stability:      clampStability(m.p.Weights[g-1]),
			Difficulty:     m.ClampDifficulty(d),
			Retrievability: 0,
		}
	}

	s := math.Max(cur.Stability, m.p.StabilityFloor)
	d := m.ClampDifficulty(cur.Difficulty)
	r := m.Retrievability(s, elapsedDays)

	var next float64
	switch {
	case elapsedDays < 1:
		next = m.shortTermStability(s, g)
	case g == Again:
		next = m.forgetStability(d, s, r)
	default:
		next = m.recallStability(d, s, r, g)
	}
	next = clampStability(next)
	if g == Again && cur.Stability > minStability && next >= cur.Stability {
		next = math.Nextafter(cur.Stability, 0)
	}

	nd := m.nextDifficulty(d, g)
	if g == Again || g == Hard {
		nd = math.Max(nd, d)
	}

	return Result{
		Stability:      next,
		Difficulty:     m.ClampDifficulty(nd),
		Retrievability: r,
	}
}

// ClampDifficulty bounds d to [DifficultyFloor, MaxDifficulty].
func (m *Model) ClampDifficulty(d float64) float64 {
	if math.IsNaN(d) {
		return m.p.DifficultyFloor
	}
	return math.Min(math.Max(d, m.p.DifficultyFloor), m.p.MaxDifficulty)
}

// D0(G) = w4 - e^(w5*(G-1)) + 1, unclamped.
func (m *Model) initDifficulty(g Grade) float64 {
	w := &m.p.Weights
	return w[4] - math.Exp(w[5]*float64(g-1)) + 1
}

// Linear damping towards 10, then mean reversion to D0(Easy).
func (m *Model) nextDifficulty(d float64, g Grade) float64 {
	w := &m.p.Weights
	delta := -w[6] * (float64(g) - 3)
	damped := d + (10-d)*delta/9
	return w[7]*m.initDifficulty(Easy) + (1-w[7])*damped
}

// Same-day review: S * e^(w17*(G-3+w18)) * S^-w19. A recall never lowers
// stability; a lapse never raises it.
func (m *Model) shortTermStability(s float64, g Grade) float64 {
	w := &m.p.Weights
	inc := math.Exp(w[17]*(float64(g)-3+w[18])) * math.Pow(s, -w[19])
	if g.Recalled() {
		inc = math.Max(inc, 1)
	} else {
		inc = math.Min(inc, 1)
	}
	return s * inc
}

func (m *Model) recallStability(d, s, r float64, g Grade) float64 {
	w := &m.p.Weights
	hardPenalty, easyBonus := 1.0, 1.0
	switch g {
	case Hard:
		hardPenalty = w[15]
	case Easy:
		easyBonus = w[16]
	}
	return s * (1 + math.Exp(w[8])*
		(11-d)*
		math.Pow(s, -w[9])*
		(math.Exp((1-r)*w[10])-1)*
		hardPenalty*easyBonus)
}

func (m *Model) forgetStability(d, s, r float64) float64 {
	w := &m.p.Weights
	long := w[11] *
		math.Pow(d, -w[12]) *
		(math.Pow(s+1, w[13]) - 1) *
		math.Exp((1-r)*w[14])
	short := s / math.Exp(w[17]*w[18])
	return math.Min(long, short)
}

func clampGrade(g Grade) Grade {
	if g < Again {
		return Again
	}
	if g > Easy {
		return Easy
	}
	return g
}

func clampStability(s float64) float64 {
	if math.IsNaN(s) {
		return minStability
	}
	return math.Min(math.Max(s, minStability), maxStability)
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
