// Package errors contains helper functions and types to work with errors
package errors

import (
	"errors"
	"net/http"
)

// Category defines error category
type Category int

const (
	// CategoryNoError is for the datadog request tracking, in case if internal services (GRPC) returns no error.
	CategoryNoError Category = iota
	// CategoryDataError The client sends some invalid data in the request,
	// for example, missing or incorrect content in the payload or parameters.
	// Could also represent a generic client error.
	CategoryDataError
	// CategoryUnauthorized The client is not authorized to access the requested resource
	CategoryUnauthorized
	// CategoryForbidden The client is not authenticated to access the requested resource
	CategoryForbidden
	// CategoryResourceNotFound The client is attempting to access a resource that does not exist
	CategoryResourceNotFound
	// CategoryNotSupported The requested functionality is not supported
	CategoryNotSupported
	// CategoryDataConflict The client send some data that can create conflict with existing data
	CategoryDataConflict
	// CategoryLocked The client is not able to access the requested resource due to its locked state
	CategoryLocked
	// CategoryDependencyFailure A dependent service is throwing errors
	CategoryDependencyFailure
	// CategoryGeneralError The service failed in an unexpected way
	CategoryGeneralError
	// CategoryRecovering The service is failing but is expected to recover
	CategoryRecovering
	// CategoryConnectionTimeout Connection to a dependent service timing out
	CategoryConnectionTimeout
	// CategoryUnprocessable The request is well formed but cannot be applied to current state
	CategoryUnprocessable
	// CategoryRateLimited The request hit a limit or time window
	CategoryRateLimited
)

func (c Category) String() string {
	switch c {
	case CategoryDataError:
		return "CategoryDataError"
	case CategoryUnauthorized:
		return "CategoryUnauthorized"
	case CategoryForbidden:
		return "CategoryForbidden"
	case CategoryResourceNotFound:
		return "CategoryResourceNotFound"
	case CategoryNotSupported:
		return "CategoryNotSupported"
	case CategoryDataConflict:
		return "CategoryDataConflict"
	case CategoryLocked:
		return "CategoryLocked"
	case CategoryDependencyFailure:
		return "CategoryDependencyFailure"
	case CategoryRecovering:
		return "CategoryRecovering"
	case CategoryConnectionTimeout:
		return "CategoryConnectionTimeout"
	case CategoryUnprocessable:
		return "CategoryUnprocessable"
	case CategoryRateLimited:
		return "CategoryRateLimited"
	default:
		return "CategoryGeneralError"
	}
}

// Kind is the stable, client-visible tag of a failure.
type Kind string

// Error kinds surfaced by the ledger and its collaborators.
const (
	KindInvalidInput          Kind = "InvalidInput"
	KindInsufficientFunds     Kind = "InsufficientFunds"
	KindInsufficientLiquidity Kind = "InsufficientLiquidity"
	KindLimitExceeded         Kind = "LimitExceeded"
	KindCooldown              Kind = "Cooldown"
	KindProviderTransient     Kind = "ProviderTransient"
	KindProviderPermanent     Kind = "ProviderPermanent"
	KindConflict              Kind = "Conflict"
	KindInvariantViolation    Kind = "InvariantViolation"
	KindUnauthorized          Kind = "Unauthorized"
	KindForbidden             Kind = "Forbidden"
	KindNotFound              Kind = "NotFound"
	KindNotSupported          Kind = "NotSupported"
	KindInternal              Kind = "Internal"
)

// ServiceError represents service specific type that
// is used all over the services.
type ServiceError struct {
	Category Category
	Kind     Kind
	Message  string
	Err      error
}

// Error method to comply with error interface
func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

// Unwrap returns the underlying error
func (err ServiceError) Unwrap() error {
	return err.Err
}

// Is implements the custom condition to check an error is equal to a service error
func (err ServiceError) Is(target error) bool {
	var other *ServiceError
	if errors.As(target, &other) {
		return err.Kind == other.Kind && err.Message == other.Message
	}
	return err.Message == target.Error()
}

// KindOf returns the kind tag of err, or KindInternal for untagged errors.
func KindOf(err error) Kind {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Kind != "" {
		return svcErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind tag.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func newKindError(cat Category, kind Kind, err error, message string) error {
	if err == nil {
		err = errors.New(message)
	}
	return &ServiceError{
		Category: cat,
		Kind:     kind,
		Message:  message,
		Err:      err,
	}
}

// InvalidInputError reports a malformed request, unknown currency or bad address.
func InvalidInputError(err error, message string) error {
	return newKindError(CategoryDataError, KindInvalidInput, err, message)
}

// InsufficientFundsError reports a debit that would take a sub-balance negative.
func InsufficientFundsError(err error, message string) error {
	return newKindError(CategoryUnprocessable, KindInsufficientFunds, err, message)
}

// InsufficientLiquidityError reports a withdrawal above the available pool.
func InsufficientLiquidityError(err error, message string) error {
	return newKindError(CategoryDataConflict, KindInsufficientLiquidity, err, message)
}

// LimitExceededError reports a per-transaction or daily cap hit.
func LimitExceededError(err error, message string) error {
	return newKindError(CategoryRateLimited, KindLimitExceeded, err, message)
}

// CooldownError reports an attempt inside an active cooldown window.
func CooldownError(err error, message string) error {
	return newKindError(CategoryRateLimited, KindCooldown, err, message)
}

// ProviderTransientError reports a rate limit or timeout from a chain provider.
func ProviderTransientError(err error, message string) error {
	return newKindError(CategoryRecovering, KindProviderTransient, err, message)
}

// ProviderPermanentError reports malformed or rejected provider data.
func ProviderPermanentError(err error, message string) error {
	return newKindError(CategoryDependencyFailure, KindProviderPermanent, err, message)
}

// InvariantViolationError reports an internal bug detected before commit.
func InvariantViolationError(err error, message string) error {
	return newKindError(CategoryGeneralError, KindInvariantViolation, err, message)
}

// Is checks that provided error is a ServiceError with desired Category
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Category == cat {
		return true
	}
	return false
}

// IsInternalError reports whether err is a failure of the service or its
// dependencies rather than a rejected request. Untagged errors are internal.
func IsInternalError(err error) bool {
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		return true
	}
	switch svcErr.Category {
	case CategoryDependencyFailure, CategoryGeneralError, CategoryRecovering, CategoryConnectionTimeout:
		return true
	}
	return false
}

// GeneralError returns a general service error
// this error mesage sent to the user is "Internal Server Error"
// the error passed is logged in the logger
func GeneralError(err error) error {
	if err == nil {
		err = errors.New("internal server error")
	}
	return &ServiceError{
		Category: CategoryGeneralError,
		Kind:     KindInternal,
		Message:  "Internal Server Error",
		Err:      err,
	}
}

// ResourceNotFoundError returns an error with category ResourceNotFound
// the error message provided is returned to the user
// the err object provided is logged in logger
func ResourceNotFoundError(err error, message string) error {
	if err == nil {
		err = errors.New("resource not found:" + message)
	}
	return &ServiceError{
		Category: CategoryResourceNotFound,
		Kind:     KindNotFound,
		Message:  message,
		Err:      err,
	}
}

// BadRequestError returns  an error with category DataError
// the error message provided is returned to the user
// the error object provided is logged in logger
func BadRequestError(err error, message string) error {
	if err == nil {
		err = errors.New("bad request:" + message)
	}
	return &ServiceError{
		Category: CategoryDataError,
		Kind:     KindInvalidInput,
		Message:  message,
		Err:      err,
	}
}

// NotSupportedError returns  an error with category NotSupported
// the error message provided is returned to the user
// the error object provided is logged in logger
func NotSupportedError(err error, message string) error {
	if err == nil {
		err = errors.New("not supported:" + message)
	}
	return &ServiceError{
		Category: CategoryNotSupported,
		Kind:     KindNotSupported,
		Message:  message,
		Err:      err,
	}
}

// ForbiddenError returns a an error with category CategoryForbidden
// the error message provided is returned to the user
// the error object provided is logged in logger
func ForbiddenError(err error, message string) error {
	if err == nil {
		err = errors.New("request forbidden")
	}
	return &ServiceError{
		Category: CategoryForbidden,
		Kind:     KindForbidden,
		Message:  message,
		Err:      err,
	}
}

// UnAuthorizedError returns an error with category CategoryUnauthorized
// the error message provided is returned to the user
// the error object provided is logged in logger
func UnAuthorizedError(err error, message string) error {
	if err == nil {
		err = errors.New("unauthorized")
	}
	return &ServiceError{
		Category: CategoryUnauthorized,
		Kind:     KindUnauthorized,
		Message:  message,
		Err:      err,
	}
}

// ConflictError returns an error with category CategoryDataConflict
// the error message provided is returned to the user
// the error object provided is logged in logger
func ConflictError(err error, message string) error {
	if err == nil {
		err = errors.New("conflict")
	}
	return &ServiceError{
		Category: CategoryDataConflict,
		Kind:     KindConflict,
		Message:  message,
		Err:      err,
	}
}

// StatusCode returns the HTTP status code for the error category
func (err ServiceError) StatusCode() int {
	switch err.Category {
	case CategoryDataError:
		return http.StatusBadRequest
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	case CategoryForbidden:
		return http.StatusForbidden
	case CategoryResourceNotFound:
		return http.StatusNotFound
	case CategoryNotSupported:
		return http.StatusMethodNotAllowed
	case CategoryDataConflict:
		return http.StatusConflict
	case CategoryLocked:
		return http.StatusLocked
	case CategoryDependencyFailure:
		return http.StatusBadGateway
	case CategoryGeneralError:
		return http.StatusInternalServerError
	case CategoryRecovering:
		return http.StatusServiceUnavailable
	case CategoryConnectionTimeout:
		return http.StatusGatewayTimeout
	case CategoryUnprocessable:
		return http.StatusUnprocessableEntity
	case CategoryRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
