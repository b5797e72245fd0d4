package engine

import (
	"fmt"
	"time"

	pkgerrors "github.com/xkartlabs/xkart-backend/pkg/errors"
)

// Constructors for the structured business errors the ledger and game
// operations return. Details payloads are part of the public contract:
// callers branch on them programmatically.

func errNotFound(entity string, id any) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s %v not found", entity, id))
}

func errUnauthorized(message string) error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, message)
}

func errValidation(message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message)
}

func errStateConflict(message string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, message)
}

func errAlreadyFinalized(message string) error {
	return pkgerrors.New(pkgerrors.CodeAlreadyFinalized, message)
}

func errInsufficientFunds(balance uint64) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient funds").
		WithDetails(map[string]uint64{"balance": balance})
}

func errBadFee(expected uint64) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "fee does not match ledger fee").
		WithDetails(map[string]uint64{"expected_fee": expected})
}

func errTooOld() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "created_at_time is older than the transaction window")
}

func errCreatedInFuture(ledgerTime time.Time) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "created_at_time is ahead of ledger time").
		WithDetails(map[string]time.Time{"ledger_time": ledgerTime})
}

func errDuplicate(duplicateOf uint64) error {
	return pkgerrors.New(pkgerrors.CodeDuplicate, "transfer already applied").
		WithDetails(map[string]uint64{"duplicate_of": duplicateOf})
}

func errOverflow() error {
	return pkgerrors.New(pkgerrors.CodeOverflow, "amount overflows balance representation")
}

// errInvariant marks an accounting defect, not a business error. It aborts
// the operation before any state is touched and surfaces as INTERNAL so
// callers can never confuse it with a rejectable request.
func errInvariant(format string, args ...any) error {
	return pkgerrors.New(pkgerrors.CodeInternal, "accounting invariant violated: "+fmt.Sprintf(format, args...))
}

func errCode(err error) string {
	if err == nil {
		return "ok"
	}
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return string(pkgerrors.CodeInternal)
}
