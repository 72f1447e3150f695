package negotiation

import "testing"

func TestEvaluate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		min, max  float64
		proposed  float64
		attempts  int
		cap       int
		days      int
		wantKind  Kind
		wantBound float64
		wantTotal float64
	}{
		{name: "below minimum", min: 100, max: 200, proposed: 50, cap: 3, days: 1, wantKind: TooLow, wantBound: 100},
		{name: "above maximum", min: 100, max: 200, proposed: 250, cap: 3, days: 1, wantKind: TooHigh, wantBound: 200},
		{name: "within bounds", min: 100, max: 200, proposed: 150, cap: 3, days: 3, wantKind: Acceptable, wantTotal: 450},
		{name: "at minimum", min: 100, max: 200, proposed: 100, cap: 3, days: 1, wantKind: Acceptable, wantTotal: 100},
		{name: "at maximum", min: 100, max: 200, proposed: 200, cap: 3, days: 2, wantKind: Acceptable, wantTotal: 400},
		{name: "exhausted beats too low", min: 100, max: 200, proposed: 80, attempts: 3, cap: 3, days: 1, wantKind: AttemptsExhausted},
		{name: "exhausted beats acceptable", min: 100, max: 200, proposed: 150, attempts: 3, cap: 3, days: 1, wantKind: AttemptsExhausted},
		{name: "exhausted past cap", min: 100, max: 200, proposed: 150, attempts: 5, cap: 3, days: 1, wantKind: AttemptsExhausted},
		{name: "zero days treated as one", min: 100, max: 200, proposed: 150, cap: 3, days: 0, wantKind: Acceptable, wantTotal: 150},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Evaluate(tc.min, tc.max, tc.proposed, tc.attempts, tc.cap, tc.days)
			if got.Kind != tc.wantKind {
				t.Fatalf("Kind = %s, want %s", got.Kind, tc.wantKind)
			}
			if got.Bound != tc.wantBound {
				t.Fatalf("Bound = %v, want %v", got.Bound, tc.wantBound)
			}
			if got.Total != tc.wantTotal {
				t.Fatalf("Total = %v, want %v", got.Total, tc.wantTotal)
			}
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	t.Parallel()

	// Calling Evaluate repeatedly must never change the outcome: the
	// attempt counter belongs to the caller, not the engine.
	for i := 0; i < 10; i++ {
		got := Evaluate(100, 200, 150, 1, 3, 2)
		if got.Kind != Acceptable || got.Total != 300 {
			t.Fatalf("iteration %d: got %+v", i, got)
		}
	}
}
