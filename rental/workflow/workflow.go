// Package workflow is the operation surface of the rental transaction.
// The external decision-maker calls one method per workflow action;
// each method checks the stage precondition, performs its domain
// action, updates the transaction, and returns a Result carrying a
// branchable outcome code plus a message to relay.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	contractx "github.com/metroequip/rentflow/rental/contract"
	"github.com/metroequip/rentflow/rental/negotiation"
	statex "github.com/metroequip/rentflow/rental/state"
	validatex "github.com/metroequip/rentflow/rental/validate"
)

// Workflow drives one transaction. Operations on a single workflow are
// serialized by the caller; the only cross-workflow contention point is
// the inventory store's TryReserve.
type Workflow struct {
	txn     *statex.Transaction
	inv     contractx.InventoryStore
	gateway contractx.VerificationGateway
	store   statex.Store
	log     zerolog.Logger
	now     func() time.Time
}

type Option func(*Workflow)

// WithStateStore persists the transaction after every mutating
// operation.
func WithStateStore(store statex.Store) Option {
	return func(w *Workflow) { w.store = store }
}

func WithLogger(log zerolog.Logger) Option {
	return func(w *Workflow) { w.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		if now != nil {
			w.now = now
		}
	}
}

// WithTransaction resumes an existing transaction instead of starting
// at the greeting stage.
func WithTransaction(txn *statex.Transaction) Option {
	return func(w *Workflow) {
		if txn != nil {
			w.txn = txn
		}
	}
}

// WithMaxNegotiationAttempts overrides the negotiation cap for new
// transactions.
func WithMaxNegotiationAttempts(max int) Option {
	return func(w *Workflow) {
		if max > 0 {
			w.txn.MaxNegotiationAttempts = max
		}
	}
}

func New(sessionID string, inv contractx.InventoryStore, gateway contractx.VerificationGateway, opts ...Option) (*Workflow, error) {
	if inv == nil {
		return nil, errors.New("inventory store is required")
	}
	if gateway == nil {
		return nil, errors.New("verification gateway is required")
	}

	w := &Workflow{
		inv:     inv,
		gateway: gateway,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	w.txn = statex.NewTransaction(sessionID, w.now())
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	if err := w.txn.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// Transaction exposes the underlying state. The workflow stays the
// single writer; callers read.
func (w *Workflow) Transaction() *statex.Transaction {
	return w.txn
}

// VerifyCustomer checks the business license with the gateway. The
// greeting stage has no gate of its own, so the first verification call
// carries the transaction out of it.
func (w *Workflow) VerifyCustomer(ctx context.Context, licenseNumber string) (contractx.Result, error) {
	if err := w.requireStage("verify_customer", statex.StageGreeting, statex.StageCustomerVerification); err != nil {
		return contractx.Result{}, err
	}
	if err := validatex.LicenseNumber(licenseNumber); err != nil {
		return invalidInput(err), nil
	}

	if w.txn.Stage == statex.StageGreeting {
		if err := w.txn.Advance(); err != nil {
			return contractx.Result{}, err
		}
	}

	v, err := w.gateway.VerifyLicense(ctx, licenseNumber)
	if err != nil || !v.Passed {
		return w.failVerification(ctx, "license verification failed", v, err)
	}

	w.txn.BusinessLicense = licenseNumber
	w.txn.BusinessName = v.Fields["business_name"]
	w.txn.CustomerVerified = true
	if err := w.txn.Advance(); err != nil {
		return contractx.Result{}, err
	}
	if err := w.persist(ctx); err != nil {
		return contractx.Result{}, err
	}

	w.log.Info().Str("session", w.txn.SessionID).Str("license", licenseNumber).Msg("customer verified")
	msg := "Business license verified."
	if w.txn.BusinessName != "" {
		msg = fmt.Sprintf("Business license verified. Customer: %s", w.txn.BusinessName)
	}
	return contractx.Result{Code: contractx.CodeOK, Message: msg}, nil
}

// SearchItems is read-only: it never mutates the transaction or its
// stage. It is legal during discovery and again after a booking
// conflict cleared the selection.
func (w *Workflow) SearchItems(ctx context.Context, query string) ([]contractx.Item, contractx.Result, error) {
	if err := w.requireSelectableStage("search_items"); err != nil {
		return nil, contractx.Result{}, err
	}

	items, err := w.inv.ListAvailable(ctx, query)
	if err != nil {
		return nil, contractx.Result{}, fmt.Errorf("search items: %w", err)
	}
	return items, contractx.Result{
		Code:    contractx.CodeOK,
		Message: fmt.Sprintf("Found %d available items.", len(items)),
	}, nil
}

// SelectItem snapshots the chosen item. This is a point-in-time read:
// no reservation is taken until CompleteBooking, so availability is
// rechecked at commit.
func (w *Workflow) SelectItem(ctx context.Context, itemID string) (contractx.Result, error) {
	if err := w.requireSelectableStage("select_item"); err != nil {
		return contractx.Result{}, err
	}
	if err := validatex.ItemID(itemID); err != nil {
		return invalidInput(err), nil
	}

	item, err := w.inv.Get(ctx, itemID)
	if errors.Is(err, contractx.ErrNotFound) {
		return contractx.Result{
			Code:    contractx.CodeNotFound,
			Message: fmt.Sprintf("Item %s not found.", itemID),
		}, nil
	}
	if err != nil {
		return contractx.Result{}, fmt.Errorf("select item: %w", err)
	}
	if item.Status != contractx.StatusAvailable {
		return contractx.Result{
			Code:    contractx.CodeUnavailable,
			Message: fmt.Sprintf("Item %s is not available (status: %s).", itemID, item.Status),
		}, nil
	}

	w.txn.SelectedItem = &item
	if w.txn.Stage == statex.StageItemDiscovery {
		if err := w.txn.Advance(); err != nil {
			return contractx.Result{}, err
		}
	}
	if err := w.persist(ctx); err != nil {
		return contractx.Result{}, err
	}

	w.log.Info().Str("session", w.txn.SessionID).Str("item", itemID).Msg("item selected")
	return contractx.Result{
		Code:    contractx.CodeOK,
		Message: fmt.Sprintf("Selected: %s at $%.2f/day. Location: %s", item.Name, item.DailyRate, item.Location),
	}, nil
}

// VerifySite confirms the job site can host the selected item.
func (w *Workflow) VerifySite(ctx context.Context, address string) (contractx.Result, error) {
	if err := w.requireStage("verify_site", statex.StageRequirements); err != nil {
		return contractx.Result{}, err
	}
	if err := validatex.Address(address); err != nil {
		return invalidInput(err), nil
	}

	item := w.txn.SelectedItem
	v, err := w.gateway.VerifySite(ctx, address, item.Category, item.WeightClass)
	if err != nil || !v.Passed {
		return w.failVerification(ctx, "site does not meet safety requirements", v, err)
	}

	w.txn.JobAddress = address
	w.txn.SiteVerified = true
	if err := w.txn.Advance(); err != nil {
		return contractx.Result{}, err
	}
	if err := w.persist(ctx); err != nil {
		return contractx.Result{}, err
	}

	return contractx.Result{
		Code:    contractx.CodeOK,
		Message: fmt.Sprintf("Site verified for %s equipment at %s.", item.WeightClass, address),
	}, nil
}

// Propose evaluates a rate against the selected item's bounds. It is
// the only operation that advances the attempt counter, exactly once
// per call; evaluation itself is free of side effects and may be
// retried speculatively through Accept.
func (w *Workflow) Propose(ctx context.Context, rate float64, days int) (contractx.Result, error) {
	if err := w.requireStage("propose", statex.StageNegotiation); err != nil {
		return contractx.Result{}, err
	}
	if days == 0 {
		days = 1
	}
	if err := validatex.Rate(rate); err != nil {
		return invalidInput(err), nil
	}
	if err := validatex.RentalDays(days); err != nil {
		return invalidInput(err), nil
	}

	item := w.txn.SelectedItem
	outcome := negotiation.Evaluate(
		item.DailyRate, item.MaxRate, rate,
		w.txn.NegotiationAttempts, w.txn.MaxNegotiationAttempts, days,
	)
	w.txn.NegotiationAttempts++

	switch outcome.Kind {
	case negotiation.AttemptsExhausted:
		w.txn.End(statex.EndReasonNegotiationFailed)
		if err := w.persist(ctx); err != nil {
			return contractx.Result{}, err
		}
		return contractx.Result{
			Code:    contractx.CodeAttemptsExhausted,
			Message: "Maximum negotiation attempts reached. Thank you for your interest.",
		}, nil
	case negotiation.TooLow:
		if err := w.persist(ctx); err != nil {
			return contractx.Result{}, err
		}
		return contractx.Result{
			Code:    contractx.CodeRateTooLow,
			Message: fmt.Sprintf("Rate $%.2f/day is below our minimum of $%.2f/day. Can you work with a higher rate?", rate, outcome.Bound),
		}, nil
	case negotiation.TooHigh:
		if err := w.persist(ctx); err != nil {
			return contractx.Result{}, err
		}
		return contractx.Result{
			Code:    contractx.CodeRateTooHigh,
			Message: fmt.Sprintf("Rate $%.2f/day exceeds our maximum of $%.2f/day.", rate, outcome.Bound),
		}, nil
	default:
		w.txn.ProposedDays = days
		if err := w.persist(ctx); err != nil {
			return contractx.Result{}, err
		}
		return contractx.Result{
			Code: contractx.CodeRateAcceptable,
			Message: fmt.Sprintf("Rate of $%.2f/day for %d days is acceptable. Total would be $%.2f. Please confirm this rate to proceed.",
				rate, days, outcome.Total),
		}, nil
	}
}

// Accept commits the rate the caller already validated through Propose.
// No bound recheck happens here by design.
func (w *Workflow) Accept(ctx context.Context, confirmedRate float64) (contractx.Result, error) {
	if err := w.requireStage("accept", statex.StageNegotiation); err != nil {
		return contractx.Result{}, err
	}
	if err := validatex.Rate(confirmedRate); err != nil {
		return invalidInput(err), nil
	}

	days := w.txn.ProposedDays
	if days < 1 {
		days = 1
	}
	w.txn.AgreedRate = &confirmedRate
	w.txn.RentalDays = days
	if err := w.txn.Advance(); err != nil {
		return contractx.Result{}, err
	}
	if err := w.persist(ctx); err != nil {
		return contractx.Result{}, err
	}

	total := confirmedRate * float64(days)
	return contractx.Result{
		Code:    contractx.CodeRateAccepted,
		Message: fmt.Sprintf("Price confirmed at $%.2f/day. Total cost: $%.2f. Now let's verify your operator credentials.", confirmedRate, total),
	}, nil
}

// VerifyOperator checks the operator's certification against the
// selected item's requirement.
func (w *Workflow) VerifyOperator(ctx context.Context, name, license, phone string) (contractx.Result, error) {
	if err := w.requireStage("verify_operator", statex.StageOperatorCert); err != nil {
		return contractx.Result{}, err
	}
	if err := validatex.OperatorName(name); err != nil {
		return invalidInput(err), nil
	}
	if err := validatex.LicenseNumber(license); err != nil {
		return invalidInput(err), nil
	}
	if err := validatex.PhoneNumber(phone); err != nil {
		return invalidInput(err), nil
	}

	requiredCert := w.txn.SelectedItem.RequiredCert
	v, err := w.gateway.VerifyOperator(ctx, license, requiredCert)
	if err != nil || !v.Passed {
		return w.failVerification(ctx, "operator credentials could not be verified", v, err)
	}

	w.txn.OperatorName = name
	w.txn.OperatorLicense = license
	w.txn.OperatorPhone = phone
	w.txn.OperatorVerified = true
	if err := w.txn.Advance(); err != nil {
		return contractx.Result{}, err
	}
	if err := w.persist(ctx); err != nil {
		return contractx.Result{}, err
	}

	return contractx.Result{
		Code:    contractx.CodeOK,
		Message: fmt.Sprintf("Operator %s verified for %s. Phone: %s", name, requiredCert, phone),
	}, nil
}

// VerifyInsurance checks coverage against the item's minimum.
func (w *Workflow) VerifyInsurance(ctx context.Context, policyNumber string) (contractx.Result, error) {
	if err := w.requireStage("verify_insurance", statex.StageInsurance); err != nil {
		return contractx.Result{}, err
	}
	if err := validatex.PolicyNumber(policyNumber); err != nil {
		return invalidInput(err), nil
	}

	minCoverage := w.txn.SelectedItem.MinInsurance
	v, err := w.gateway.VerifyInsurance(ctx, policyNumber, minCoverage)
	if err != nil || !v.Passed {
		return w.failVerification(ctx, "insurance coverage is insufficient", v, err)
	}

	w.txn.InsurancePolicy = policyNumber
	w.txn.InsuranceVerified = true
	if err := w.txn.Advance(); err != nil {
		return contractx.Result{}, err
	}
	if err := w.persist(ctx); err != nil {
		return contractx.Result{}, err
	}

	return contractx.Result{
		Code:    contractx.CodeOK,
		Message: fmt.Sprintf("Insurance policy %s verified with $%.0f coverage.", policyNumber, minCoverage),
	}, nil
}

// CompleteBooking performs the atomic AVAILABLE -> RENTED commit. At
// most one concurrent transaction wins a given item; losers get a
// recoverable conflict with the selection cleared so discovery can
// reopen, never an abort.
func (w *Workflow) CompleteBooking(ctx context.Context) (contractx.Result, error) {
	if err := w.requireStage("complete_booking", statex.StageBooking); err != nil {
		return contractx.Result{}, err
	}
	item := w.txn.SelectedItem
	if item == nil {
		return contractx.Result{
			Code:    contractx.CodeInvalidInput,
			Message: "No item selected. Search and select an item before booking.",
		}, nil
	}

	res, err := w.inv.TryReserve(ctx, item.ID)
	if err != nil {
		return contractx.Result{}, fmt.Errorf("complete booking: %w", err)
	}

	if !res.Committed {
		w.txn.SelectedItem = nil
		if err := w.persist(ctx); err != nil {
			return contractx.Result{}, err
		}
		w.log.Warn().Str("session", w.txn.SessionID).Str("item", item.ID).
			Str("status", string(res.CurrentStatus)).Msg("booking conflict")
		return contractx.Result{
			Code:    contractx.CodeBookingConflict,
			Message: fmt.Sprintf("Sorry, %s was just booked by another customer. Let me show you alternatives.", item.Name),
		}, nil
	}

	w.txn.BookingConfirmed = true
	w.txn.BookingRef = res.Ref
	if err := w.txn.Advance(); err != nil {
		return contractx.Result{}, err
	}
	if err := w.persist(ctx); err != nil {
		return contractx.Result{}, err
	}

	rate := 0.0
	if w.txn.AgreedRate != nil {
		rate = *w.txn.AgreedRate
	}
	days := w.txn.RentalDays
	if days < 1 {
		days = 1
	}
	w.log.Info().Str("session", w.txn.SessionID).Str("item", item.ID).Str("ref", res.Ref).Msg("booking confirmed")
	return contractx.Result{
		Code: contractx.CodeBookingConfirmed,
		Message: fmt.Sprintf(
			"Booking confirmed!\nReference Number: %s\nEquipment: %s (%s)\nDaily Rate: $%.2f\nRental Period: %d days\nTotal Cost: $%.2f\nPickup Location: %s",
			res.Ref, item.Name, item.ID, rate, days, rate*float64(days), item.Location),
	}, nil
}

// EndCall aborts from any stage. Idempotent.
func (w *Workflow) EndCall(ctx context.Context, reason string) (contractx.Result, error) {
	if reason == "" {
		reason = statex.EndReasonCompleted
	}
	w.txn.End(reason)
	if err := w.persist(ctx); err != nil {
		return contractx.Result{}, err
	}
	return contractx.Result{
		Code:    contractx.CodeCallEnded,
		Message: "Thank you for contacting Metro Equipment Rentals. Have a great day!",
	}, nil
}

// StageContext returns the per-stage data the caller needs to prompt
// with: rates during negotiation, certification and coverage while
// verifying, and so on.
func (w *Workflow) StageContext() map[string]string {
	ctx := map[string]string{"stage": string(w.txn.Stage)}
	item := w.txn.SelectedItem
	if item == nil {
		return ctx
	}
	switch w.txn.Stage {
	case statex.StageRequirements:
		ctx["selected_item"] = item.Name
		ctx["required_cert"] = item.RequiredCert
		ctx["weight_class"] = item.WeightClass
	case statex.StageNegotiation:
		ctx["daily_rate"] = fmt.Sprintf("%.2f", item.DailyRate)
		ctx["max_rate"] = fmt.Sprintf("%.2f", item.MaxRate)
		ctx["negotiation_attempts"] = fmt.Sprintf("%d", w.txn.NegotiationAttempts)
		ctx["max_attempts"] = fmt.Sprintf("%d", w.txn.MaxNegotiationAttempts)
	case statex.StageOperatorCert:
		ctx["required_cert"] = item.RequiredCert
	case statex.StageInsurance:
		ctx["min_insurance"] = fmt.Sprintf("%.0f", item.MinInsurance)
	}
	return ctx
}

/* ------------------------------- internals ------------------------------- */

func (w *Workflow) requireStage(op string, stages ...statex.Stage) error {
	for _, s := range stages {
		if w.txn.Stage == s {
			return nil
		}
	}
	return fmt.Errorf("%w: op=%s stage=%s", contractx.ErrStageMismatch, op, w.txn.Stage)
}

// requireSelectableStage covers discovery plus the conflict-recovery
// window: the stage never regresses, so after a lost booking race the
// transaction stays in booking_completion with its selection cleared
// and item search/selection become legal again there.
func (w *Workflow) requireSelectableStage(op string) error {
	if w.txn.Stage == statex.StageItemDiscovery {
		return nil
	}
	if w.txn.Stage == statex.StageBooking && w.txn.SelectedItem == nil {
		return nil
	}
	return fmt.Errorf("%w: op=%s stage=%s", contractx.ErrStageMismatch, op, w.txn.Stage)
}

// failVerification ends the transaction the way every verification
// step does: record the reason, persist, relay the failure.
func (w *Workflow) failVerification(ctx context.Context, fallback string, v contractx.Verification, cause error) (contractx.Result, error) {
	detail := v.Detail
	if cause != nil {
		detail = fallback
		w.log.Warn().Err(cause).Str("session", w.txn.SessionID).Msg("verification call failed")
	}
	if detail == "" {
		detail = fallback
	}

	w.txn.End(statex.EndReasonFailedVerification)
	if err := w.persist(ctx); err != nil {
		return contractx.Result{}, err
	}
	return contractx.Result{
		Code:    contractx.CodeVerificationFailed,
		Message: fmt.Sprintf("%s Cannot proceed with rental.", capitalizeSentence(detail)),
	}, nil
}

func (w *Workflow) persist(ctx context.Context) error {
	w.txn.Touch(w.now())
	if w.store == nil {
		return nil
	}
	if err := w.txn.Validate(); err != nil {
		return err
	}
	if err := w.store.Save(ctx, w.txn); err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}
	return nil
}

func invalidInput(err error) contractx.Result {
	return contractx.Result{
		Code:    contractx.CodeInvalidInput,
		Message: err.Error(),
	}
}

func capitalizeSentence(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	if b[len(b)-1] != '.' && b[len(b)-1] != '!' {
		return string(b) + "."
	}
	return string(b)
}
