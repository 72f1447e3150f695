package validate

import (
	"errors"
	"testing"

	contractx "github.com/metroequip/rentflow/rental/contract"
)

func TestLicenseNumber(t *testing.T) {
	t.Parallel()

	valid := []string{"BL-12345", "ABC99", "LIC-2026-001"}
	for _, lic := range valid {
		if err := LicenseNumber(lic); err != nil {
			t.Fatalf("LicenseNumber(%q) = %v, want nil", lic, err)
		}
	}

	invalid := []string{"", "AB1", "BL 12345", "lic#99999"}
	for _, lic := range invalid {
		if err := LicenseNumber(lic); !errors.Is(err, contractx.ErrValidation) {
			t.Fatalf("LicenseNumber(%q) = %v, want ErrValidation", lic, err)
		}
	}
}

func TestItemID(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"EQ001", "ITM123456", "ABCD999"} {
		if err := ItemID(id); err != nil {
			t.Fatalf("ItemID(%q) = %v, want nil", id, err)
		}
	}
	for _, id := range []string{"", "eq001", "E1", "EQUIPMENT0000001"} {
		if err := ItemID(id); !errors.Is(err, contractx.ErrValidation) {
			t.Fatalf("ItemID(%q) = %v, want ErrValidation", id, err)
		}
	}
}

func TestAddress(t *testing.T) {
	t.Parallel()

	if err := Address("450 Harbor Way, Oakland CA"); err != nil {
		t.Fatalf("Address() = %v, want nil", err)
	}
	for _, addr := range []string{"", "short st"} {
		if err := Address(addr); !errors.Is(err, contractx.ErrValidation) {
			t.Fatalf("Address(%q) = %v, want ErrValidation", addr, err)
		}
	}
}

func TestRateAndDays(t *testing.T) {
	t.Parallel()

	if err := Rate(350); err != nil {
		t.Fatalf("Rate() = %v", err)
	}
	if err := Rate(-1); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Rate(-1) = %v, want ErrValidation", err)
	}
	if err := Rate(100001); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Rate(100001) = %v, want ErrValidation", err)
	}

	if err := RentalDays(14); err != nil {
		t.Fatalf("RentalDays() = %v", err)
	}
	if err := RentalDays(0); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("RentalDays(0) = %v, want ErrValidation", err)
	}
	if err := RentalDays(366); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("RentalDays(366) = %v, want ErrValidation", err)
	}
}

func TestOperatorNameAndPhone(t *testing.T) {
	t.Parallel()

	if err := OperatorName("Sam O'Neil-Baker"); err != nil {
		t.Fatalf("OperatorName() = %v", err)
	}
	if err := OperatorName("R2D2"); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("OperatorName(R2D2) = %v, want ErrValidation", err)
	}

	for _, phone := range []string{"(510) 555-0142", "510.555.0142", "15105550142"} {
		if err := PhoneNumber(phone); err != nil {
			t.Fatalf("PhoneNumber(%q) = %v, want nil", phone, err)
		}
	}
	for _, phone := range []string{"", "555-0142", "call-me-maybe"} {
		if err := PhoneNumber(phone); !errors.Is(err, contractx.ErrValidation) {
			t.Fatalf("PhoneNumber(%q) = %v, want ErrValidation", phone, err)
		}
	}
}

func TestPolicyNumber(t *testing.T) {
	t.Parallel()

	if err := PolicyNumber("POL-889100"); err != nil {
		t.Fatalf("PolicyNumber() = %v", err)
	}
	if err := PolicyNumber("P1"); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("PolicyNumber(P1) = %v, want ErrValidation", err)
	}
}
