package contract

import "context"

// InventoryStore is the narrow contract the core needs from inventory
// persistence. TryReserve is the single synchronization point: the
// status read and the RENTED write must not interleave with another
// caller's read-then-write on the same item.
type InventoryStore interface {
	ListAvailable(ctx context.Context, query string) ([]Item, error)
	Get(ctx context.Context, id string) (Item, error)
	TryReserve(ctx context.Context, id string) (Reservation, error)
}

// VerificationGateway answers the external pass/fail questions. A
// transport error is reported by the orchestrator as a verification
// failure; the core never retries.
type VerificationGateway interface {
	VerifyLicense(ctx context.Context, licenseNumber string) (Verification, error)
	VerifySite(ctx context.Context, address, category, weightClass string) (Verification, error)
	VerifyOperator(ctx context.Context, operatorLicense, requiredCert string) (Verification, error)
	VerifyInsurance(ctx context.Context, policyNumber string, minCoverage float64) (Verification, error)
}
