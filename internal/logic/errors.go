package logic

import "errors"

// Sentinel errors returned by the services. Handlers map them to status codes.
var (
	ErrInvalidSteamID  = errors.New("invalid steam id")
	ErrProfileNotFound = errors.New("profile not found")
	ErrLoginRequired   = errors.New("login required")
	ErrNotAdmin        = errors.New("admin required")
	ErrAlreadyBanned   = errors.New("player is already overwatch banned")
	ErrReportNotFound  = errors.New("report not found")
	ErrInvalidTab      = errors.New("invalid report tab")
	ErrEmptyQuery      = errors.New("missing query")
	ErrAdminTokenUnset = errors.New("admin stats token not configured")
	ErrBadAdminToken   = errors.New("invalid admin token")
)

// ValidationError carries a user-facing message for a rejected input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ResolveError explains why a query could not be resolved to a Steam id.
type ResolveError struct {
	Message string
	Err     error
}

func (e *ResolveError) Error() string {
	return e.Message
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}
