package contract

// ItemStatus is the lifecycle status of an inventory item.
type ItemStatus string

const (
	StatusAvailable   ItemStatus = "AVAILABLE"
	StatusRented      ItemStatus = "RENTED"
	StatusMaintenance ItemStatus = "MAINTENANCE"
)

// Item is an inventory record shared across concurrent transactions.
// The core only ever writes the AVAILABLE -> RENTED transition, and only
// through InventoryStore.TryReserve.
type Item struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	DailyRate    float64    `json:"daily_rate"`
	MaxRate      float64    `json:"max_rate"`
	Status       ItemStatus `json:"status"`
	RequiredCert string     `json:"required_cert"`
	MinInsurance float64    `json:"min_insurance"`
	Location     string     `json:"location"`
	WeightClass  string     `json:"weight_class"`
}

// Code is a machine-checkable outcome the external decision-maker can
// branch on deterministically. Tests assert on codes, not prose.
type Code string

const (
	CodeOK                 Code = "ok"
	CodeVerificationFailed Code = "verification_failed"
	CodeNotFound           Code = "not_found"
	CodeUnavailable        Code = "unavailable"
	CodeRateTooLow         Code = "rate_too_low"
	CodeRateTooHigh        Code = "rate_too_high"
	CodeRateAcceptable     Code = "rate_acceptable"
	CodeRateAccepted       Code = "rate_accepted"
	CodeAttemptsExhausted  Code = "attempts_exhausted"
	CodeBookingConfirmed   Code = "booking_confirmed"
	CodeBookingConflict    Code = "booking_conflict"
	CodeCallEnded          Code = "call_ended"
	CodeInvalidInput       Code = "invalid_input"
)

// Result is what every orchestrator operation hands back for relay:
// a branchable code plus a human-readable message.
type Result struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Verification is the answer a gateway gives to a pass/fail question.
// Fields carries whatever identity data the gateway extracted, e.g. the
// business name behind a license number.
type Verification struct {
	Passed bool              `json:"passed"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Reservation is the outcome of an atomic conditional reserve.
// Exactly one of Committed/AlreadyUnavailable semantics applies: when
// Committed is false, CurrentStatus holds the status that blocked it.
type Reservation struct {
	Committed     bool       `json:"committed"`
	Ref           string     `json:"ref,omitempty"`
	CurrentStatus ItemStatus `json:"current_status,omitempty"`
}

// ToolResult is the envelope returned to the decision-maker for one
// tool invocation.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
