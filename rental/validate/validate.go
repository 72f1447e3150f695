// Package validate checks the shape of caller-supplied arguments before
// any external call is made. A failed check is a domain outcome, not a
// transport error.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	contractx "github.com/metroequip/rentflow/rental/contract"
)

var (
	licensePattern  = regexp.MustCompile(`^[A-Za-z0-9\-]+$`)
	itemIDPattern   = regexp.MustCompile(`^[A-Z]{2,4}\d{3,6}$`)
	operatorPattern = regexp.MustCompile(`^[A-Za-z\s\-']+$`)
	phoneStrip      = regexp.MustCompile(`[\s\-\(\)\.]`)
	digitsOnly      = regexp.MustCompile(`^\d+$`)
)

const (
	maxRate       = 100000
	maxRentalDays = 365
)

func LicenseNumber(license string) error {
	switch {
	case license == "":
		return fmt.Errorf("%w: license number cannot be empty", contractx.ErrValidation)
	case len(license) < 5:
		return fmt.Errorf("%w: license number must be at least 5 characters", contractx.ErrValidation)
	case len(license) > 50:
		return fmt.Errorf("%w: license number is too long", contractx.ErrValidation)
	case !licensePattern.MatchString(license):
		return fmt.Errorf("%w: license number contains invalid characters", contractx.ErrValidation)
	}
	return nil
}

func ItemID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: item id cannot be empty", contractx.ErrValidation)
	case len(id) > 20:
		return fmt.Errorf("%w: item id is too long", contractx.ErrValidation)
	case !itemIDPattern.MatchString(id):
		return fmt.Errorf("%w: item id must be 2-4 letters followed by 3-6 digits", contractx.ErrValidation)
	}
	return nil
}

func Address(address string) error {
	switch {
	case strings.TrimSpace(address) == "":
		return fmt.Errorf("%w: address cannot be empty", contractx.ErrValidation)
	case len(address) < 10:
		return fmt.Errorf("%w: address seems too short", contractx.ErrValidation)
	case len(address) > 200:
		return fmt.Errorf("%w: address is too long", contractx.ErrValidation)
	}
	return nil
}

func Rate(rate float64) error {
	switch {
	case rate < 0:
		return fmt.Errorf("%w: rate cannot be negative", contractx.ErrValidation)
	case rate > maxRate:
		return fmt.Errorf("%w: rate cannot exceed $%d", contractx.ErrValidation, maxRate)
	}
	return nil
}

func RentalDays(days int) error {
	switch {
	case days < 1:
		return fmt.Errorf("%w: rental duration must be at least 1 day", contractx.ErrValidation)
	case days > maxRentalDays:
		return fmt.Errorf("%w: rental duration cannot exceed %d days", contractx.ErrValidation, maxRentalDays)
	}
	return nil
}

func OperatorName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: operator name cannot be empty", contractx.ErrValidation)
	case len(name) < 2:
		return fmt.Errorf("%w: operator name is too short", contractx.ErrValidation)
	case len(name) > 100:
		return fmt.Errorf("%w: operator name is too long", contractx.ErrValidation)
	case !operatorPattern.MatchString(name):
		return fmt.Errorf("%w: operator name contains invalid characters", contractx.ErrValidation)
	}
	return nil
}

func PhoneNumber(phone string) error {
	if phone == "" {
		return fmt.Errorf("%w: phone number cannot be empty", contractx.ErrValidation)
	}
	cleaned := phoneStrip.ReplaceAllString(phone, "")
	switch {
	case !digitsOnly.MatchString(cleaned):
		return fmt.Errorf("%w: phone number must contain only digits and formatting characters", contractx.ErrValidation)
	case len(cleaned) < 10:
		return fmt.Errorf("%w: phone number is too short", contractx.ErrValidation)
	case len(cleaned) > 15:
		return fmt.Errorf("%w: phone number is too long", contractx.ErrValidation)
	}
	return nil
}

func PolicyNumber(policy string) error {
	switch {
	case policy == "":
		return fmt.Errorf("%w: policy number cannot be empty", contractx.ErrValidation)
	case len(policy) < 5:
		return fmt.Errorf("%w: policy number is too short", contractx.ErrValidation)
	case len(policy) > 50:
		return fmt.Errorf("%w: policy number is too long", contractx.ErrValidation)
	case !licensePattern.MatchString(policy):
		return fmt.Errorf("%w: policy number contains invalid characters", contractx.ErrValidation)
	}
	return nil
}
