package errors

import (
	stderrors "errors"
	"fmt"
)

// New creates an error with the default classification of its code.
func New(code ErrorCode, message string) Error {
	return &directioError{
		code:           code,
		classification: classify(code),
		message:        message,
	}
}

// Newf creates an error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a code and message to err. Returns nil if err is nil.
//
// When err already carries a classification it is preserved, so wrapping a
// retryable I/O failure as a configuration error does not silently make it
// permanent, and vice versa.
func Wrap(err error, code ErrorCode, message string) Error {
	return WrapWithContext(err, code, message, nil)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) Error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WrapWithContext is Wrap with metadata attached in one step.
func WrapWithContext(err error, code ErrorCode, message string, ctx map[string]interface{}) Error {
	if err == nil {
		return nil
	}

	classification := classify(code)
	var inner Error
	if stderrors.As(err, &inner) {
		classification = inner.Classification()
	}

	return &directioError{
		code:           code,
		classification: classification,
		message:        message,
		context:        copyContext(ctx),
		cause:          err,
	}
}
