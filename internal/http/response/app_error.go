package response

import "fmt"

// AppError is a reply code with the message shown to the caller.
// Err is the cause; it is logged and never sent.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// WrapError builds an AppError, falling back to the code text for an empty message
func WrapError(code int, message string, err error) *AppError {
	if message == "" {
		message = Text(code)
	}
	return &AppError{Code: code, Message: message, Err: err}
}
