package errors

import "fmt"

// Error is the structured error returned by directio operations.
//
// It is compatible with the standard library: errors.Is and errors.As walk
// through Unwrap to the underlying cause.
type Error interface {
	error

	// Code returns the failure code.
	Code() ErrorCode

	// Classification reports whether the failure is retryable.
	Classification() ErrorClassification

	// Message returns the message without the cause.
	Message() string

	// Context returns a copy of the attached metadata, or nil.
	Context() map[string]interface{}

	// Unwrap returns the cause, or nil.
	Unwrap() error
}

type directioError struct {
	code           ErrorCode
	classification ErrorClassification
	message        string
	context        map[string]interface{}
	cause          error
}

// Error renders the error as "[CODE] message: cause".
func (e *directioError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

func (e *directioError) Code() ErrorCode {
	return e.code
}

func (e *directioError) Classification() ErrorClassification {
	return e.classification
}

func (e *directioError) Message() string {
	return e.message
}

func (e *directioError) Context() map[string]interface{} {
	return copyContext(e.context)
}

func (e *directioError) Unwrap() error {
	return e.cause
}

func copyContext(ctx map[string]interface{}) map[string]interface{} {
	if ctx == nil {
		return nil
	}
	out := make(map[string]interface{}, len(ctx))
	for k, v := range ctx {
		out[k] = v
	}
	return out
}
