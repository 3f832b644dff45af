package access

import "fmt"

// Kind tags an Error so every caller can branch on the failure class
// without string matching.
type Kind int

const (
	// KindValidation marks malformed input, rejected before any
	// transaction is opened. No audit row is written.
	KindValidation Kind = iota
	// KindDomainRule marks an access denied by a business rule. The state
	// mutation is rolled back but the attempt is still audited.
	KindDomainRule
	// KindConflict marks an optimistic-concurrency conflict detected at
	// commit time. The engine never retries; that is the caller's call.
	KindConflict
	// KindFault marks an unexpected storage failure. Nothing is persisted,
	// not even an audit row.
	KindFault
)

// Stable machine-readable codes carried to the boundary.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeVehicleAlreadyInside = "VEHICLE_ALREADY_INSIDE"
	CodeVehicleNotInside     = "VEHICLE_NOT_INSIDE"
	CodeUserHasActiveVehicle = "USER_HAS_ACTIVE_VEHICLE"
	CodeConcurrencyConflict  = "CONCURRENCY_CONFLICT"
	CodeInternal             = "INTERNAL_ERROR"
)

// Error is the typed result of a failed transition. Exactly one is returned
// per failed ProcessAccess call.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: msg}
}

func errVehicleAlreadyInside(plate string) *Error {
	return &Error{
		Kind:    KindDomainRule,
		Code:    CodeVehicleAlreadyInside,
		Message: fmt.Sprintf("vehicle %s is already inside the parking facility", plate),
	}
}

func errVehicleNotInside(plate string) *Error {
	return &Error{
		Kind:    KindDomainRule,
		Code:    CodeVehicleNotInside,
		Message: fmt.Sprintf("vehicle %s is not inside the parking facility", plate),
	}
}

func errUserHasActiveVehicle(activePlate string) *Error {
	return &Error{
		Kind:    KindDomainRule,
		Code:    CodeUserHasActiveVehicle,
		Message: fmt.Sprintf("user already has an active vehicle (%s) inside the parking facility", activePlate),
	}
}

func errConcurrencyConflict() *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeConcurrencyConflict,
		Message: "the record was modified by another process, please retry",
	}
}

func faultError(err error) *Error {
	return &Error{
		Kind:    KindFault,
		Code:    CodeInternal,
		Message: "access processing failed",
		cause:   err,
	}
}
