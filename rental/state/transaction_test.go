package state

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/metroequip/rentflow/rental/contract"
)

func now() time.Time {
	return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func readyTransaction(t *testing.T, target Stage) *Transaction {
	t.Helper()

	txn := NewTransaction("s1", now())
	rate := 150.0
	item := &contractx.Item{ID: "EQ001", Name: "Excavator", Status: contractx.StatusAvailable}

	steps := []func(){
		func() {},                             // greeting has no gate
		func() { txn.CustomerVerified = true },
		func() { txn.SelectedItem = item },
		func() { txn.SiteVerified = true },
		func() { txn.AgreedRate = &rate },
		func() { txn.OperatorVerified = true },
		func() { txn.InsuranceVerified = true },
	}
	for _, satisfy := range steps {
		if txn.Stage == target {
			return txn
		}
		satisfy()
		if err := txn.Advance(); err != nil {
			t.Fatalf("Advance() from %s: %v", txn.Stage, err)
		}
	}
	if txn.Stage != target {
		t.Fatalf("could not reach stage %s, stuck at %s", target, txn.Stage)
	}
	return txn
}

func TestAdvanceFollowsFixedOrder(t *testing.T) {
	t.Parallel()

	txn := NewTransaction("s1", now())
	rate := 150.0

	want := []Stage{
		StageCustomerVerification,
		StageItemDiscovery,
		StageRequirements,
		StageNegotiation,
		StageOperatorCert,
		StageInsurance,
		StageBooking,
		StageEnded,
	}

	satisfy := map[Stage]func(){
		StageGreeting:             func() {},
		StageCustomerVerification: func() { txn.CustomerVerified = true },
		StageItemDiscovery:        func() { txn.SelectedItem = &contractx.Item{ID: "EQ001"} },
		StageRequirements:         func() { txn.SiteVerified = true },
		StageNegotiation:          func() { txn.AgreedRate = &rate },
		StageOperatorCert:         func() { txn.OperatorVerified = true },
		StageInsurance:            func() { txn.InsuranceVerified = true },
		StageBooking: func() {
			txn.BookingConfirmed = true
			txn.BookingRef = "BK-EQ001-1"
		},
	}

	for _, next := range want {
		satisfy[txn.Stage]()
		if err := txn.Advance(); err != nil {
			t.Fatalf("Advance() from %s: %v", txn.Stage, err)
		}
		if txn.Stage != next {
			t.Fatalf("Stage = %s, want %s", txn.Stage, next)
		}
	}
	if txn.EndReason() != EndReasonCompleted {
		t.Fatalf("EndReason() = %q, want %q", txn.EndReason(), EndReasonCompleted)
	}
}

func TestAdvanceBlockedByGate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		stage Stage
	}{
		{StageCustomerVerification},
		{StageItemDiscovery},
		{StageRequirements},
		{StageNegotiation},
		{StageOperatorCert},
		{StageInsurance},
		{StageBooking},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.stage), func(t *testing.T) {
			t.Parallel()

			txn := readyTransaction(t, tc.stage)
			before := txn.Stage
			err := txn.Advance()
			if !errors.Is(err, contractx.ErrIllegalTransition) {
				t.Fatalf("Advance() error = %v, want ErrIllegalTransition", err)
			}
			if txn.Stage != before {
				t.Fatalf("Stage changed to %s after failed advance", txn.Stage)
			}
		})
	}
}

func TestAdvanceFromEndedAlwaysFails(t *testing.T) {
	t.Parallel()

	txn := NewTransaction("s1", now())
	txn.End("no_equipment")
	if err := txn.Advance(); !errors.Is(err, contractx.ErrIllegalTransition) {
		t.Fatalf("Advance() error = %v, want ErrIllegalTransition", err)
	}
}

func TestEndIsIdempotent(t *testing.T) {
	t.Parallel()

	txn := NewTransaction("s1", now())
	txn.End("failed_verification")
	txn.End("completed")

	if txn.Stage != StageEnded {
		t.Fatalf("Stage = %s, want %s", txn.Stage, StageEnded)
	}
	if got := txn.EndReason(); got != "failed_verification" {
		t.Fatalf("EndReason() = %q, first reason must win", got)
	}
}

func TestEndFromAnyStage(t *testing.T) {
	t.Parallel()

	txn := readyTransaction(t, StageNegotiation)
	txn.End("customer_hung_up")
	if !txn.Ended() {
		t.Fatal("transaction must be ended")
	}
}

func TestSetContextIsAppendOnly(t *testing.T) {
	t.Parallel()

	txn := NewTransaction("s1", now())
	txn.SetContext("note", "first")
	txn.SetContext("note", "second")
	if txn.Context["note"] != "first" {
		t.Fatalf("Context[note] = %q, want first write preserved", txn.Context["note"])
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr bool
	}{
		{name: "fresh transaction", mutate: func(*Transaction) {}},
		{name: "empty session", mutate: func(txn *Transaction) { txn.SessionID = "" }, wantErr: true},
		{name: "unknown stage", mutate: func(txn *Transaction) { txn.Stage = "limbo" }, wantErr: true},
		{name: "confirmed without ref", mutate: func(txn *Transaction) { txn.BookingConfirmed = true }, wantErr: true},
		{name: "ended without reason", mutate: func(txn *Transaction) { txn.Stage = StageEnded }, wantErr: true},
		{name: "negative attempts", mutate: func(txn *Transaction) { txn.NegotiationAttempts = -1 }, wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			txn := NewTransaction("s1", now())
			tc.mutate(txn)
			err := txn.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}
