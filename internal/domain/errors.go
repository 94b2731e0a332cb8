package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation               = "VALIDATION_ERROR"
	ErrCodeNotFound                 = "NOT_FOUND"
	ErrCodeUnauthorized             = "UNAUTHORIZED"
	ErrCodePayloadTooLarge          = "PAYLOAD_TOO_LARGE"
	ErrCodeStoreUnavailable         = "STORE_UNAVAILABLE"
	ErrCodePersistenceInconsistency = "PERSISTENCE_INCONSISTENCY"
	ErrCodeExternalService          = "EXTERNAL_SERVICE_FAILURE"
	ErrCodeInternalError            = "INTERNAL_ERROR"
)

// Not found errors
var (
	ErrThreadNotFound    = NewDomainError(ErrCodeNotFound, "chat thread not found")
	ErrMessageNotFound   = NewDomainError(ErrCodeNotFound, "chat message not found")
	ErrDocumentNotFound  = NewDomainError(ErrCodeNotFound, "chat document not found")
	ErrCitationNotFound  = NewDomainError(ErrCodeNotFound, "citation not found")
	ErrExtensionNotFound = NewDomainError(ErrCodeNotFound, "extension not found")
	ErrPromptNotFound    = NewDomainError(ErrCodeNotFound, "prompt not found")
	ErrSecretNotFound    = NewDomainError(ErrCodeNotFound, "secret not found")
)

// Authorization errors
var (
	ErrNotThreadOwner    = NewDomainError(ErrCodeUnauthorized, "chat thread is owned by another user")
	ErrNotExtensionOwner = NewDomainError(ErrCodeUnauthorized, "extension is owned by another user")
	ErrAdminOnly         = NewDomainError(ErrCodeUnauthorized, "operation requires admin privileges")
)

// Validation errors
var (
	ErrMissingFunctionName   = NewDomainError(ErrCodeValidation, "function name is required")
	ErrNoExtensionFunctions  = NewDomainError(ErrCodeValidation, "at least one function is required")
	ErrMissingRequiredField  = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidMessageRole    = NewDomainError(ErrCodeValidation, "invalid chat message role")
	ErrDuplicateExtensionIDs = NewDomainError(ErrCodeValidation, "thread extension ids must be unique")
)

// Persistence errors
var (
	// ErrUpsertNotApplied signals that the store acknowledged neither an
	// update nor an insert. This points at a store bug or an unresolvable
	// race and must be surfaced rather than retried blindly.
	ErrUpsertNotApplied = NewDomainError(ErrCodePersistenceInconsistency, "upsert applied neither an update nor an insert")
)

// ErrUploadTooLarge builds a PAYLOAD_TOO_LARGE error for an oversized upload.
func ErrUploadTooLarge(limit int64) *DomainError {
	return NewDomainError(ErrCodePayloadTooLarge, fmt.Sprintf("file is too large and must be less than %d bytes", limit))
}
