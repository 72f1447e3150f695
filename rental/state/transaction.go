package state

import (
	"fmt"
	"time"

	contractx "github.com/metroequip/rentflow/rental/contract"
)

// Stage is one position in the fixed rental workflow order.
type Stage string

const (
	StageGreeting             Stage = "greeting"
	StageCustomerVerification Stage = "customer_verification"
	StageItemDiscovery        Stage = "item_discovery"
	StageRequirements         Stage = "requirements_confirmation"
	StageNegotiation          Stage = "price_negotiation"
	StageOperatorCert         Stage = "operator_certification"
	StageInsurance            Stage = "insurance_verification"
	StageBooking              Stage = "booking_completion"
	StageEnded                Stage = "ended"
)

// stageOrder is the total order of live stages. A transaction only ever
// moves forward through it, or jumps straight to StageEnded.
var stageOrder = []Stage{
	StageGreeting,
	StageCustomerVerification,
	StageItemDiscovery,
	StageRequirements,
	StageNegotiation,
	StageOperatorCert,
	StageInsurance,
	StageBooking,
}

const (
	// ContextEndReason records why a transaction ended.
	ContextEndReason = "end_reason"

	// DefaultMaxNegotiationAttempts caps propose calls per transaction.
	DefaultMaxNegotiationAttempts = 3
)

// End reasons recorded in the context bag.
const (
	EndReasonCompleted          = "completed"
	EndReasonFailedVerification = "failed_verification"
	EndReasonNegotiationFailed  = "negotiation_failed"
)

// Transaction holds all mutable state for one negotiated booking
// attempt. It is owned by exactly one workflow instance; operations on
// it are serialized by the caller.
type Transaction struct {
	SessionID string `json:"session_id"`
	Stage     Stage  `json:"stage"`

	// Customer
	BusinessLicense  string `json:"business_license,omitempty"`
	BusinessName     string `json:"business_name,omitempty"`
	CustomerVerified bool   `json:"customer_verified"`

	// Item selection. SelectedItem is a point-in-time snapshot; the
	// authoritative status lives in the inventory store until commit.
	SelectedItem *contractx.Item `json:"selected_item,omitempty"`

	// Requirements
	JobAddress   string `json:"job_address,omitempty"`
	SiteVerified bool   `json:"site_verified"`

	// Negotiation
	AgreedRate             *float64 `json:"agreed_rate,omitempty"`
	RentalDays             int      `json:"rental_days,omitempty"`
	ProposedDays           int      `json:"proposed_days,omitempty"`
	NegotiationAttempts    int      `json:"negotiation_attempts"`
	MaxNegotiationAttempts int      `json:"max_negotiation_attempts"`

	// Operator
	OperatorName     string `json:"operator_name,omitempty"`
	OperatorLicense  string `json:"operator_license,omitempty"`
	OperatorPhone    string `json:"operator_phone,omitempty"`
	OperatorVerified bool   `json:"operator_verified"`

	// Insurance
	InsurancePolicy   string `json:"insurance_policy,omitempty"`
	InsuranceVerified bool   `json:"insurance_verified"`

	// Booking
	BookingConfirmed bool   `json:"booking_confirmed"`
	BookingRef       string `json:"booking_ref,omitempty"`

	// Context is an append-only key/value bag: a key, once written,
	// keeps its first value. Guarantees abort idempotency for end_reason.
	Context map[string]string `json:"context,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewTransaction(sessionID string, now time.Time) *Transaction {
	return &Transaction{
		SessionID:              sessionID,
		Stage:                  StageGreeting,
		MaxNegotiationAttempts: DefaultMaxNegotiationAttempts,
		Context:                make(map[string]string, 4),
		UpdatedAt:              now.UTC(),
	}
}

func (t *Transaction) Touch(now time.Time) {
	t.UpdatedAt = now.UTC()
}

// Ended reports whether the transaction reached its terminal stage.
func (t *Transaction) Ended() bool {
	return t != nil && t.Stage == StageEnded
}

// ItemID returns the selected item's id, or "" when nothing is selected.
func (t *Transaction) ItemID() string {
	if t == nil || t.SelectedItem == nil {
		return ""
	}
	return t.SelectedItem.ID
}

// SetContext writes key only if it has no value yet.
func (t *Transaction) SetContext(key, val string) {
	if t.Context == nil {
		t.Context = make(map[string]string, 4)
	}
	if _, exists := t.Context[key]; exists {
		return
	}
	t.Context[key] = val
}

// CanAdvance is the per-stage exit gate.
func (t *Transaction) CanAdvance() bool {
	if t == nil {
		return false
	}
	switch t.Stage {
	case StageGreeting:
		return true
	case StageCustomerVerification:
		return t.CustomerVerified
	case StageItemDiscovery:
		return t.SelectedItem != nil
	case StageRequirements:
		return t.SiteVerified
	case StageNegotiation:
		return t.AgreedRate != nil
	case StageOperatorCert:
		return t.OperatorVerified
	case StageInsurance:
		return t.InsuranceVerified
	case StageBooking:
		return t.BookingConfirmed
	default:
		return false
	}
}

// Advance moves to the next stage in order. The final live stage
// advances to StageEnded. Fails without mutating anything when the
// current gate does not hold or the transaction already ended.
func (t *Transaction) Advance() error {
	if t == nil {
		return fmt.Errorf("%w: nil transaction", contractx.ErrIllegalTransition)
	}
	if t.Stage == StageEnded {
		return fmt.Errorf("%w: transaction already ended", contractx.ErrIllegalTransition)
	}
	if !t.CanAdvance() {
		return fmt.Errorf("%w: stage=%s", contractx.ErrIllegalTransition, t.Stage)
	}

	for i, s := range stageOrder {
		if s != t.Stage {
			continue
		}
		if i == len(stageOrder)-1 {
			t.Stage = StageEnded
			t.SetContext(ContextEndReason, EndReasonCompleted)
		} else {
			t.Stage = stageOrder[i+1]
		}
		return nil
	}
	return fmt.Errorf("%w: unknown stage=%s", contractx.ErrIllegalTransition, t.Stage)
}

// End aborts (or completes) the transaction from any stage. Idempotent:
// ending an already-ended transaction changes nothing, and the first
// recorded reason wins.
func (t *Transaction) End(reason string) {
	if t == nil || t.Stage == StageEnded {
		return
	}
	t.Stage = StageEnded
	t.SetContext(ContextEndReason, reason)
}

// EndReason returns the recorded end reason, if any.
func (t *Transaction) EndReason() string {
	if t == nil || t.Context == nil {
		return ""
	}
	return t.Context[ContextEndReason]
}

// Validate checks structural invariants before persisting.
func (t *Transaction) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil transaction", contractx.ErrValidation)
	}
	if t.SessionID == "" {
		return fmt.Errorf("%w: session id is empty", contractx.ErrValidation)
	}
	if !knownStage(t.Stage) {
		return fmt.Errorf("%w: unknown stage=%s", contractx.ErrValidation, t.Stage)
	}
	if t.MaxNegotiationAttempts <= 0 {
		return fmt.Errorf("%w: max negotiation attempts must be positive", contractx.ErrValidation)
	}
	if t.NegotiationAttempts < 0 {
		return fmt.Errorf("%w: negative negotiation attempts", contractx.ErrValidation)
	}
	if t.BookingConfirmed && t.BookingRef == "" {
		return fmt.Errorf("%w: confirmed booking has no reference", contractx.ErrValidation)
	}
	if t.Ended() && t.EndReason() == "" {
		return fmt.Errorf("%w: ended transaction has no end reason", contractx.ErrValidation)
	}
	return nil
}

func knownStage(s Stage) bool {
	if s == StageEnded {
		return true
	}
	for _, live := range stageOrder {
		if s == live {
			return true
		}
	}
	return false
}
