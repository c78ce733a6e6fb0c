package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Session-specific ──────────────────────────────────────────────
	ErrSessionNotFound ErrCode = "SESSION_NOT_FOUND"
	ErrInvalidAnswer   ErrCode = "INVALID_ANSWER"
	ErrAnswerRequired  ErrCode = "ANSWER_REQUIRED"
	ErrIncomplete      ErrCode = "INCOMPLETE"
	ErrNotStarted      ErrCode = "EXAM_NOT_STARTED"
	ErrSessionFinished ErrCode = "SESSION_FINISHED"
	ErrSessionRunning  ErrCode = "EXAM_RUNNING"

	// ─── Results ───────────────────────────────────────────────────────
	ErrResultsDisabled ErrCode = "RESULTS_DISABLED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "A session token is required."
	case ErrTokenInvalid:
		return "The session token is invalid or has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "This token does not belong to the requested session."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Session-specific ──────────────────────────────────────────────
	case ErrSessionNotFound:
		return "Session not found. It may have expired."
	case ErrInvalidAnswer:
		return "That answer is not one of the options."
	case ErrAnswerRequired:
		return "Please select an answer before continuing."
	case ErrIncomplete:
		return "Please answer all questions before submitting."
	case ErrNotStarted:
		return "The exam has not started yet."
	case ErrSessionFinished:
		return "This session is already finished."
	case ErrSessionRunning:
		return "The exam is still running. Leaving now discards your answers."

	// ─── Results ───────────────────────────────────────────────────────
	case ErrResultsDisabled:
		return "Result recording is disabled on this server."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
