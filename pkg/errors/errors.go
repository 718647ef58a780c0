package errors

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	// Format errors
	ErrInvalidContainer   = errors.New("invalid fingerprint container")
	ErrMissingEntry       = errors.New("required container entry missing")
	ErrUnsupportedVersion = errors.New("unsupported fingerprint version")
	ErrMalformedManifest  = errors.New("malformed manifest")
	ErrMalformedComponent = errors.New("malformed fingerprint component")

	// Integrity errors
	ErrChecksumMismatch = errors.New("entry checksum mismatch")
	ErrSignatureInvalid = errors.New("signature verification failed")
	ErrNotSigned        = errors.New("container is not signed")

	// Privacy errors
	ErrBudgetExhausted   = errors.New("privacy budget exhausted")
	ErrInvalidEpsilon    = errors.New("epsilon must be positive")
	ErrInvalidKAnonymity = errors.New("k-anonymity threshold must be at least 1")

	// Statistical errors
	ErrInsufficientData = errors.New("insufficient data for extraction")
	ErrEmptyColumn      = errors.New("column contains no values")
	ErrDegenerateData   = errors.New("degenerate data distribution")

	// Synthesis errors
	ErrNotPositiveDefinite = errors.New("correlation matrix is not positive definite")
	ErrNoCopula            = errors.New("fingerprint carries no copula for requested columns")
	ErrFitFailed           = errors.New("distribution fit failed")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMissingConfiguration = errors.New("missing configuration")
	ErrConfigurationLoad    = errors.New("failed to load configuration")

	// Internal errors
	ErrInternal       = errors.New("internal error")
	ErrNotImplemented = errors.New("not implemented")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeFormat        ErrorType = "format"
	ErrorTypeIntegrity     ErrorType = "integrity"
	ErrorTypePrivacy       ErrorType = "privacy"
	ErrorTypeStatistical   ErrorType = "statistical"
	ErrorTypeSynthesis     ErrorType = "synthesis"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeIO            ErrorType = "io"
	ErrorTypeInternal      ErrorType = "internal"
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target, either another AppError
// with the same type and code or the sentinel registered for the code.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return sentinelByCode[e.Code] == target && target != nil
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewFormatError creates a container format error
func NewFormatError(code, message string) *AppError {
	return NewAppError(ErrorTypeFormat, code, message)
}

// NewIntegrityError creates an integrity error
func NewIntegrityError(code, message string) *AppError {
	return NewAppError(ErrorTypeIntegrity, code, message)
}

// NewPrivacyError creates a privacy error
func NewPrivacyError(code, message string) *AppError {
	return NewAppError(ErrorTypePrivacy, code, message)
}

// NewStatisticalError creates a statistical error
func NewStatisticalError(code, message string) *AppError {
	return NewAppError(ErrorTypeStatistical, code, message)
}

// NewSynthesisError creates a synthesis error
func NewSynthesisError(code, message string) *AppError {
	return NewAppError(ErrorTypeSynthesis, code, message)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(code, message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, code, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, CodeInternalError, message)
}

// BudgetExhaustedError reports a privacy budget spend that would exceed the
// limit. Spent carries the total the rejected request would have reached; the
// committed total is unchanged by the failure.
type BudgetExhaustedError struct {
	Spent float64 `json:"spent"`
	Limit float64 `json:"limit"`
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("%s: privacy budget exhausted - request would reach %.4f of limit %.4f",
		CodeBudgetExhausted, e.Spent, e.Limit)
}

// Is allows errors.Is(err, ErrBudgetExhausted) to match.
func (e *BudgetExhaustedError) Is(target error) bool {
	return target == ErrBudgetExhausted
}

// ChecksumMismatchError reports a container entry whose content does not match
// the checksum recorded in the manifest.
type ChecksumMismatchError struct {
	Entry    string `json:"entry"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("%s: checksum mismatch for entry %q - expected %s, got %s",
		CodeChecksumMismatch, e.Entry, e.Expected, e.Actual)
}

func (e *ChecksumMismatchError) Is(target error) bool {
	return target == ErrChecksumMismatch
}

// InsufficientDataError reports a source too small for a requested extraction.
type InsufficientDataError struct {
	Table    string `json:"table"`
	Required int    `json:"required"`
	Actual   int    `json:"actual"`
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: table %q has %d rows, %d required",
		CodeInsufficientData, e.Table, e.Actual, e.Required)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// UnsupportedVersionError reports a container written by an incompatible format version.
type UnsupportedVersionError struct {
	Version   string   `json:"version"`
	Supported []string `json:"supported"`
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s: container version %q is not supported (supported: %v)",
		CodeUnsupportedVersion, e.Version, e.Supported)
}

func (e *UnsupportedVersionError) Is(target error) bool {
	return target == ErrUnsupportedVersion
}

// Error codes for different error scenarios
const (
	// Format error codes
	CodeInvalidContainer   = "INVALID_CONTAINER"
	CodeMissingEntry       = "MISSING_ENTRY"
	CodeUnsupportedVersion = "UNSUPPORTED_VERSION"
	CodeMalformedManifest  = "MALFORMED_MANIFEST"
	CodeMalformedComponent = "MALFORMED_COMPONENT"

	// Integrity error codes
	CodeChecksumMismatch = "CHECKSUM_MISMATCH"
	CodeSignatureInvalid = "SIGNATURE_INVALID"
	CodeNotSigned        = "NOT_SIGNED"

	// Privacy error codes
	CodeBudgetExhausted = "PRIVACY_BUDGET_EXHAUSTED"
	CodeInvalidEpsilon  = "INVALID_EPSILON"
	CodeInvalidKAnon    = "INVALID_K_ANONYMITY"

	// Statistical error codes
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeEmptyColumn      = "EMPTY_COLUMN"
	CodeDegenerateData   = "DEGENERATE_DATA"

	// Synthesis error codes
	CodeNotPositiveDefinite = "NOT_POSITIVE_DEFINITE"
	CodeNoCopula            = "NO_COPULA"
	CodeFitFailed           = "FIT_FAILED"

	// Configuration error codes
	CodeInvalidInput  = "INVALID_INPUT"
	CodeMissingField  = "MISSING_FIELD"
	CodeOutOfRange    = "OUT_OF_RANGE"
	CodeInvalidConfig = "INVALID_CONFIGURATION"

	// IO error codes
	CodeReadFailed  = "READ_FAILED"
	CodeWriteFailed = "WRITE_FAILED"

	// Internal error codes
	CodeInternalError  = "INTERNAL_ERROR"
	CodeNotImplemented = "NOT_IMPLEMENTED"
)

// sentinelByCode lets AppError values match the package sentinels
// through errors.Is without callers knowing which construction path
// produced the error.
var sentinelByCode = map[string]error{
	CodeInvalidContainer:    ErrInvalidContainer,
	CodeMissingEntry:        ErrMissingEntry,
	CodeUnsupportedVersion:  ErrUnsupportedVersion,
	CodeMalformedManifest:   ErrMalformedManifest,
	CodeMalformedComponent:  ErrMalformedComponent,
	CodeChecksumMismatch:    ErrChecksumMismatch,
	CodeSignatureInvalid:    ErrSignatureInvalid,
	CodeNotSigned:           ErrNotSigned,
	CodeBudgetExhausted:     ErrBudgetExhausted,
	CodeInvalidEpsilon:      ErrInvalidEpsilon,
	CodeInvalidKAnon:        ErrInvalidKAnonymity,
	CodeInsufficientData:    ErrInsufficientData,
	CodeEmptyColumn:         ErrEmptyColumn,
	CodeDegenerateData:      ErrDegenerateData,
	CodeNotPositiveDefinite: ErrNotPositiveDefinite,
	CodeNoCopula:            ErrNoCopula,
	CodeFitFailed:           ErrFitFailed,
	CodeInvalidConfig:       ErrInvalidConfiguration,
	CodeInternalError:       ErrInternal,
	CodeNotImplemented:      ErrNotImplemented,
}
