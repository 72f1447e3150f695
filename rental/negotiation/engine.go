// Package negotiation evaluates proposed rental rates against the
// item's policy bounds. Evaluate is pure: it can be called any number
// of times without touching the transaction's attempt counter, which
// only the orchestrator's Propose advances.
package negotiation

// Kind classifies an offer evaluation.
type Kind string

const (
	TooLow            Kind = "too_low"
	TooHigh           Kind = "too_high"
	Acceptable        Kind = "acceptable"
	AttemptsExhausted Kind = "attempts_exhausted"
)

// Outcome carries the classification and the figure the caller should
// relay: the violated bound for rejections, the total for acceptance.
type Outcome struct {
	Kind  Kind
	Bound float64
	Total float64
}

// Evaluate applies the negotiation policy. Exhaustion takes precedence
// over the bound checks once attempts have reached the cap, so a
// negotiation always ends deterministically instead of looping.
func Evaluate(minRate, maxRate, proposed float64, attempts, maxAttempts, days int) Outcome {
	if attempts >= maxAttempts {
		return Outcome{Kind: AttemptsExhausted}
	}
	if proposed < minRate {
		return Outcome{Kind: TooLow, Bound: minRate}
	}
	if proposed > maxRate {
		return Outcome{Kind: TooHigh, Bound: maxRate}
	}
	if days < 1 {
		days = 1
	}
	return Outcome{Kind: Acceptable, Total: proposed * float64(days)}
}
