package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument = 1000
	ErrCodeInvalidJSON     = 1001
	ErrCodeRequestTooLarge = 1002
	ErrCodeInvalidQuery    = 1003
	ErrCodeInvalidID       = 1004
	ErrCodeInvalidStatus   = 1005
	ErrCodeInvalidRole     = 1006
	ErrCodeMissingRequired = 1009
	ErrCodeInvalidIdentity = 1010
	ErrCodeInvalidRating   = 1011

	// Domain state (2xxx)
	ErrCodeJobNotFound       = 2001
	ErrCodeInvalidTransition = 2101
	ErrCodeConflict          = 2102

	// Auth & limits (3xxx)
	ErrCodeUnauthorized      = 3001
	ErrCodeResourceExhausted = 3003

	// Internal/system (4xxx)
	ErrCodeInternal       = 4001
	ErrCodeStoreFailure   = 4002
	ErrCodeContentAddress = 4003
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 401:
		return ErrCodeUnauthorized
	case 404:
		return ErrCodeJobNotFound
	case 409:
		return ErrCodeConflict
	case 429:
		return ErrCodeResourceExhausted
	case 500:
		return ErrCodeInternal
	default:
		return 0
	}
}

// validationErrorCodes refines ErrCodeInvalidArgument by the rejected field.
var validationErrorCodes = map[string]int{
	"status":   ErrCodeInvalidStatus,
	"role":     ErrCodeInvalidRole,
	"rating":   ErrCodeInvalidRating,
	"identity": ErrCodeInvalidIdentity,
	"title":    ErrCodeMissingRequired,
	"text":     ErrCodeMissingRequired,
}
