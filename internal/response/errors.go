package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// Authentication.
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// Validation.
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// Resources.
	ErrNotFound ErrCode = "NOT_FOUND"

	// Engine-specific.
	ErrBankUnavailable      ErrCode = "BANK_UNAVAILABLE"
	ErrConfirmationRequired ErrCode = "CONFIRMATION_REQUIRED"
	ErrExamNotActive        ErrCode = "EXAM_NOT_ACTIVE"
	ErrExamAlreadyActive    ErrCode = "EXAM_ALREADY_ACTIVE"
	ErrNoRecoveryPending    ErrCode = "NO_RECOVERY_PENDING"

	// Server.
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "The request payload is invalid."
	case ErrNotFound:
		return "Resource not found."
	case ErrBankUnavailable:
		return "The question bank could not be loaded."
	case ErrConfirmationRequired:
		return "This action is irreversible and requires explicit confirmation."
	case ErrExamNotActive:
		return "No exam is currently in progress."
	case ErrExamAlreadyActive:
		return "An exam is already in progress."
	case ErrNoRecoveryPending:
		return "There is no interrupted exam to resume."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
