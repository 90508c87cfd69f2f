package response

import "errors"

// Error pairs an HTTP status code with the underlying error so handlers can
// map domain sentinels without matching on message strings.
type Error struct {
	Code int
	Err  error
}

func NewError(code int, msg string) error {
	return &Error{Code: code, Err: errors.New(msg)}
}

func (e *Error) Error() string {
	return e.Err.Error()
}

// Is matches another *Error carrying the same code and message, so the
// per-domain sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}
