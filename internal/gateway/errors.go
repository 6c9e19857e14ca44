package gateway

// ErrorType categorizes gateway errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNetwork           // request never completed
	ErrTypeHTTP              // non-2xx status
	ErrTypeParse             // malformed response body
)

// Error is an error from a backend call. All gateway calls are fire-once:
// transient errors propagate as a single value and recovery is user-initiated.
type Error struct {
	Type    ErrorType
	Message string
	Status  int // HTTP status for ErrTypeHTTP
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func networkErr(op string, cause error) *Error {
	return &Error{Type: ErrTypeNetwork, Message: op + " request failed", Cause: cause}
}

func httpErr(op string, status int) *Error {
	return &Error{Type: ErrTypeHTTP, Message: op + " returned non-2xx status", Status: status}
}

func parseErr(op string, cause error) *Error {
	return &Error{Type: ErrTypeParse, Message: op + " response malformed", Cause: cause}
}
