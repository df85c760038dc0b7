package handlers

// Stable machine-readable error codes returned in ErrorResponse.Code.
const (
	codeBadRequest      = "bad_request"
	codeValidation      = "validation_error"
	codeSessionNotFound = "session_not_found"
	codeInternal        = "internal_error"
)
