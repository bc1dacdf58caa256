package fsrs

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-4

func assertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %.6f, want %.6f (diff %.6f)", name, got, want, math.Abs(got-want))
	}
}

func defaultModel(t *testing.T) *Model {
	t.Helper()
	m, err := New(DefaultParameters())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestNew_RejectsInvalidParameters(t *testing.T) {
	cases := map[string]func(p *Parameters){
		"weight out of bounds": func(p *Parameters) { p.Weights[20] = 2 },
		"retention low":        func(p *Parameters) { p.RequestRetention = 0.5 },
		"retention high":       func(p *Parameters) { p.RequestRetention = 0.99 },
		"stability floor":      func(p *Parameters) { p.StabilityFloor = 0 },
		"difficulty floor":     func(p *Parameters) { p.DifficultyFloor = -1 },
		"max difficulty":       func(p *Parameters) { p.MaxDifficulty = p.DifficultyFloor },
		"max interval":         func(p *Parameters) { p.MaxIntervalDays = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := DefaultParameters()
			mutate(&p)
			if _, err := New(p); !errors.Is(err, ErrInvalidParameters) {
				t.Fatalf("expected ErrInvalidParameters, got %v", err)
			}
		})
	}
}

func TestMustNew_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	p := DefaultParameters()
	p.RequestRetention = 0
	MustNew(p)
}

func TestRetrievability_Curve(t *testing.T) {
	m := defaultModel(t)

	assertFloat(t, "R(S, 0)", m.Retrievability(5, 0), 1)
	assertFloat(t, "R(S, S)", m.Retrievability(5, 5), 0.9)
	if got := m.Retrievability(0, 3); got != 0 {
		t.Fatalf("R without trace = %v; want 0", got)
	}

	prev := 1.0
	for _, days := range []float64{0.5, 1, 2, 5, 30, 365, 3650} {
		r := m.Retrievability(4, days)
		if r >= prev {
			t.Fatalf("R not strictly decreasing at t=%v: %v >= %v", days, r, prev)
		}
		prev = r
	}

	prev = 0
	for _, s := range []float64{0.1, 1, 3, 10, 100} {
		r := m.Retrievability(s, 7)
		if r <= prev {
			t.Fatalf("R not strictly increasing at S=%v: %v <= %v", s, r, prev)
		}
		prev = r
	}
}

func TestNextInterval(t *testing.T) {
	m := defaultModel(t)

	if got := m.NextInterval(0); got != 1 {
		t.Fatalf("NextInterval(0) = %d; want 1", got)
	}
	if got := m.NextInterval(0.01); got != 1 {
		t.Fatalf("NextInterval(0.01) = %d; want 1", got)
	}
	// At 0.9 retention the interval equals stability.
	if got := m.NextInterval(2.3065); got != 2 {
		t.Fatalf("NextInterval(2.3065) = %d; want 2", got)
	}
	if got := m.NextInterval(1e9); got != m.Params().MaxIntervalDays {
		t.Fatalf("NextInterval(huge) = %d; want max", got)
	}

	prev := 0
	for s := 0.1; s < 5000; s *= 1.7 {
		ivl := m.NextInterval(s)
		if ivl < 1 || ivl < prev {
			t.Fatalf("interval not monotone at S=%v: %d after %d", s, ivl, prev)
		}
		prev = ivl
	}
}

func TestNextInterval_LowerRetentionMeansLongerInterval(t *testing.T) {
	p := DefaultParameters()
	p.RequestRetention = 0.85
	lenient := MustNew(p)
	strict := defaultModel(t)
	if lenient.NextInterval(10) <= strict.NextInterval(10) {
		t.Fatalf("expected 0.85 retention to schedule further out than 0.9")
	}
}

func TestNextState_FreshWord(t *testing.T) {
	m := defaultModel(t)

	cases := []struct {
		g     Grade
		wantS float64
		wantD float64
	}{
		{Again, 0.212, 6.4133},
		{Hard, 1.2931, 5.112171},
		{Good, 2.3065, 2.118104},
		{Easy, 8.2956, 0.3}, // D0(Easy) is negative, floored
	}
	for _, tc := range cases {
		t.Run(tc.g.String(), func(t *testing.T) {
			res := m.NextState(Memory{}, tc.g, 0)
			assertFloat(t, "stability", res.Stability, tc.wantS)
			assertFloat(t, "difficulty", res.Difficulty, tc.wantD)
			if res.Retrievability != 0 {
				t.Fatalf("retrievability without trace = %v", res.Retrievability)
			}
		})
	}
}

func TestNextState_FreshWordWithPrior(t *testing.T) {
	m := defaultModel(t)

	good := m.NextState(Memory{Difficulty: 4}, Good, 0)
	assertFloat(t, "good difficulty", good.Difficulty, 0.001*-4.771631+0.999*4)
	if good.Difficulty > 4 {
		t.Fatalf("good on prior 4 raised difficulty: %v", good.Difficulty)
	}

	again := m.NextState(Memory{Difficulty: 4}, Again, 0)
	if again.Difficulty < 4 {
		t.Fatalf("again lowered prior difficulty: %v", again.Difficulty)
	}
	hard := m.NextState(Memory{Difficulty: 4}, Hard, 0)
	if hard.Difficulty < 4 {
		t.Fatalf("hard lowered prior difficulty: %v", hard.Difficulty)
	}
}

func TestNextState_GoodAfterThreeDays(t *testing.T) {
	m := defaultModel(t)
	res := m.NextState(Memory{Stability: 2.3065, Difficulty: 2.118104}, Good, 3)
	assertFloat(t, "retrievability", res.Retrievability, 0.880948)
	assertFloat(t, "stability", res.Stability, 13.826904)
	assertFloat(t, "difficulty", res.Difficulty, 2.111214)
}

func TestNextState_RecallGrowsMoreForEasierGrades(t *testing.T) {
	m := defaultModel(t)
	cur := Memory{Stability: 5, Difficulty: 5}
	hard := m.NextState(cur, Hard, 6)
	good := m.NextState(cur, Good, 6)
	easy := m.NextState(cur, Easy, 6)
	if !(cur.Stability < hard.Stability && hard.Stability < good.Stability && good.Stability < easy.Stability) {
		t.Fatalf("expected S < hard < good < easy, got %v %v %v", hard.Stability, good.Stability, easy.Stability)
	}
	if !(easy.Difficulty < good.Difficulty && good.Difficulty < hard.Difficulty) {
		t.Fatalf("expected easy < good < hard difficulty, got %v %v %v", easy.Difficulty, good.Difficulty, hard.Difficulty)
	}
	if hard.Difficulty <= cur.Difficulty {
		t.Fatalf("hard should raise difficulty: %v", hard.Difficulty)
	}
}

func TestNextState_LowerRetrievabilityStrengthensMore(t *testing.T) {
	m := defaultModel(t)
	cur := Memory{Stability: 5, Difficulty: 5}
	early := m.NextState(cur, Good, 2)
	late := m.NextState(cur, Good, 20)
	if late.Stability <= early.Stability {
		t.Fatalf("late recall should strengthen more: early=%v late=%v", early.Stability, late.Stability)
	}
}

func TestNextState_AgainLowersStabilityRaisesDifficulty(t *testing.T) {
	m := defaultModel(t)
	stabilities := []float64{0.002, 0.05, 0.1, 0.5, 2, 10, 100, 5000}
	difficulties := []float64{0.3, 1, 5, 9.9, 10}
	elapsed := []float64{0, 0.4, 1, 3, 40, 400}
	for _, s := range stabilities {
		for _, d := range difficulties {
			for _, e := range elapsed {
				res := m.NextState(Memory{Stability: s, Difficulty: d}, Again, e)
				if !(res.Stability < s) {
					t.Fatalf("S=%v D=%v t=%v: stability' %v not < stability", s, d, e, res.Stability)
				}
				if res.Difficulty < d {
					t.Fatalf("S=%v D=%v t=%v: difficulty' %v < difficulty", s, d, e, res.Difficulty)
				}
				if res.Stability <= 0 {
					t.Fatalf("stability reset to zero")
				}
			}
		}
	}
}

func TestNextState_SameDayRecallNeverShrinks(t *testing.T) {
	m := defaultModel(t)
	for _, g := range []Grade{Hard, Good, Easy} {
		res := m.NextState(Memory{Stability: 3, Difficulty: 5}, g, 0)
		if res.Stability < 3 {
			t.Fatalf("%v same-day shrank stability to %v", g, res.Stability)
		}
	}
}

func TestNextState_FloorsAndClamps(t *testing.T) {
	m := defaultModel(t)

	res := m.NextState(Memory{Stability: 0.0001, Difficulty: 0}, Good, 0)
	if res.Stability <= 0.1 {
		t.Fatalf("floored input should yield stability > floor, got %v", res.Stability)
	}
	if res.Difficulty < 0.3 || res.Difficulty > 10 {
		t.Fatalf("difficulty out of range: %v", res.Difficulty)
	}

	res = m.NextState(Memory{Stability: 4, Difficulty: 50}, Again, -3)
	if res.Difficulty != 10 {
		t.Fatalf("difficulty should clamp at max, got %v", res.Difficulty)
	}
	if res.Retrievability != 1 {
		t.Fatalf("negative elapsed should be treated as 0, R=%v", res.Retrievability)
	}

	res = m.NextState(Memory{Stability: 30000, Difficulty: 1}, Easy, 20000)
	if res.Stability > maxStability {
		t.Fatalf("stability above max: %v", res.Stability)
	}

	res = m.NextState(Memory{Stability: math.NaN(), Difficulty: math.NaN()}, Grade(9), math.NaN())
	if math.IsNaN(res.Stability) || math.IsNaN(res.Difficulty) || math.IsNaN(res.Retrievability) {
		t.Fatalf("NaN leaked: %+v", res)
	}
	assertFloat(t, "clamped grade uses Easy", res.Stability, 8.2956)
}

func TestNextState_Deterministic(t *testing.T) {
	m := defaultModel(t)
	cur := Memory{Stability: 7.5, Difficulty: 6.2}
	a := m.NextState(cur, Hard, 9.25)
	b := m.NextState(cur, Hard, 9.25)
	if a != b {
		t.Fatalf("non-deterministic: %+v vs %+v", a, b)
	}
}
