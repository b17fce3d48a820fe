package lifecycle

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error for callers that need to branch on it.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindStore          Kind = "store"
	KindPartialFailure Kind = "partial_failure"
)

// Steps of multi-step operations, reported on store and partial failures.
const (
	StepLoadListing    = "load_listing"
	StepLoadRequest    = "load_request"
	StepCheckRequests  = "check_requests"
	StepInsertListing  = "insert_listing"
	StepUpdateListing  = "update_listing"
	StepInsertRequest  = "insert_request"
	StepUpdateRequest  = "update_request"
	StepDeleteRequests = "delete_requests"
	StepDeleteListing  = "delete_listing"
	StepQueryListings  = "query_listings"
	StepQueryRequests  = "query_requests"
	StepCountRequests  = "count_requests"
	StepQueryEvents    = "query_events"
)

// Error is returned by every Engine operation that fails.
// Message is safe to show to the end user; Err (if set) is the underlying cause.
type Error struct {
	Kind    Kind
	Op      string
	Step    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Step != "" {
		msg = fmt.Sprintf("%s (step: %s)", msg, e.Step)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind and message, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// KindOf returns the kind of err, or "" when err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// StepOf returns the failed step of a store or partial failure.
func StepOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Step
	}
	return ""
}

func validationError(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}

func authorizationError(op, msg string) *Error {
	return &Error{Kind: KindAuthorization, Op: op, Message: msg}
}

func notFoundError(op, msg string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: msg}
}

func conflictError(op, msg string) *Error {
	return &Error{Kind: KindConflict, Op: op, Message: msg}
}

func storeError(op, step string, err error) *Error {
	return &Error{Kind: KindStore, Op: op, Step: step, Message: "Storage operation failed", Err: err}
}

func partialFailure(op, step, msg string, err error) *Error {
	return &Error{Kind: KindPartialFailure, Op: op, Step: step, Message: msg, Err: err}
}

// Sentinels for errors.Is checks in callers and tests.
var (
	ErrNotSignedIn         = &Error{Kind: KindAuthorization, Message: "Please sign in to continue"}
	ErrDonorsCannotRequest = &Error{Kind: KindAuthorization, Message: "Donors cannot request food"}
	ErrOnlyDonorsCanList   = &Error{Kind: KindAuthorization, Message: "Only donors can create food listings"}
	ErrNotListingOwner     = &Error{Kind: KindAuthorization, Message: "Only the donor who owns this listing can do that"}
	ErrListingNotFound     = &Error{Kind: KindNotFound, Message: "Listing not found"}
	ErrRequestNotFound     = &Error{Kind: KindNotFound, Message: "Request not found"}
	ErrHasAcceptedRequests = &Error{Kind: KindConflict, Message: "Cannot delete listing with accepted requests"}
	ErrRequestRejected     = &Error{Kind: KindConflict, Message: "Request was already rejected"}
	ErrRequestAccepted     = &Error{Kind: KindConflict, Message: "Request was already accepted"}
	ErrListingNotAvailable = &Error{Kind: KindConflict, Message: "Listing is not available"}
	ErrListingExpired      = &Error{Kind: KindConflict, Message: "Listing has expired"}
	ErrExceedsRemaining    = &Error{Kind: KindConflict, Message: "Accepting this request would exceed the listing quantity"}
	ErrListingNotReserved  = &Error{Kind: KindConflict, Message: "Only reserved listings can be completed"}
	ErrInvalidQuantity     = &Error{Kind: KindValidation, Message: "Please enter a valid quantity"}
	ErrRequiredFields      = &Error{Kind: KindValidation, Message: "Please fill in all required fields"}
	ErrExpiryNotFuture     = &Error{Kind: KindValidation, Message: "Please enter a valid future expiry time"}
	ErrExpiryImmutable     = &Error{Kind: KindValidation, Message: "Expiry time cannot be changed"}
	ErrInvalidUnit         = &Error{Kind: KindValidation, Message: "Invalid unit"}
	ErrInvalidEventType    = &Error{Kind: KindValidation, Message: "Invalid event type"}
	ErrInvalidStatus       = &Error{Kind: KindValidation, Message: "Status must be accepted or rejected"}
	ErrNoChanges           = &Error{Kind: KindValidation, Message: "No valid changes provided"}
	ErrFilterRequired      = &Error{Kind: KindValidation, Message: "A recipient, listing or donor filter is required"}
)

// with returns a copy of the sentinel tagged with the operation name.
func with(op string, sentinel *Error) *Error {
	e := *sentinel
	e.Op = op
	return &e
}
