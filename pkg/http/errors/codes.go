package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeEmptyInput       = "empty_input"

	// Resource errors
	ErrCodeNotFound = "not_found"
	ErrCodeConflict = "conflict"

	// Session errors
	ErrCodeNoDocument      = "no_document"
	ErrCodeEmptyPool       = "empty_pool"
	ErrCodeNoActiveQuiz    = "no_active_quiz"
	ErrCodeNoResults       = "no_results"
	ErrCodeNoSavedSession  = "no_saved_session"
	ErrCodeNothingToRetry  = "nothing_to_retry"
	ErrCodeSessionOutdated = "session_outdated"

	// Collaborator errors
	ErrCodeExtractionFailed = "extraction_failed"
	ErrCodeExportFailed     = "export_failed"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
)
