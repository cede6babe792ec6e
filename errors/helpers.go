package errors

import (
	"context"
	stderrors "errors"
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// GetCode returns the code of the outermost Error in err's chain, or
// CodeUnknown.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	var e Error
	if stderrors.As(err, &e) {
		return e.Code()
	}
	return CodeUnknown
}

// GetClassification returns the classification of the outermost Error in
// err's chain. Plain errors are permanent.
func GetClassification(err error) ErrorClassification {
	if err == nil {
		return ClassificationPermanent
	}
	var e Error
	if stderrors.As(err, &e) {
		return e.Classification()
	}
	return ClassificationPermanent
}

// IsRetryable reports whether err is classified as retryable.
//
// Interruption is never retryable, even when it surfaces wrapped inside an I/O
// error.
func IsRetryable(err error) bool {
	if IsInterrupted(err) {
		return false
	}
	return GetClassification(err).IsRetryable()
}

// HasCode reports whether any Error in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var e Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Code() == code {
			return true
		}
		err = e.Unwrap()
	}
	return false
}

// IsInterrupted reports whether err was caused by cancellation.
func IsInterrupted(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return HasCode(err, CodeInterrupted)
}

// Interrupted wraps a cancellation cause as a CodeInterrupted error.
func Interrupted(cause error, message string) Error {
	if cause == nil {
		cause = context.Canceled
	}
	return &directioError{
		code:           CodeInterrupted,
		classification: ClassificationPermanent,
		message:        message,
		cause:          cause,
	}
}

// CheckContext returns a CodeInterrupted error if ctx is done, or nil.
// Blocking operations call it between steps so that cancellation is reported
// distinctly from I/O failure.
func CheckContext(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return Interrupted(err, op+" interrupted")
	}
	return nil
}
