package errors

// ErrorCode identifies a failure condition.
type ErrorCode string

const (
	// CodeNotFound indicates a requested resource does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a resource already exists.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeInvalidInput indicates a malformed argument.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates an invalid data source configuration, such as
	// two data sources registered on the same mount path.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIG"

	// CodeInvalidPattern indicates a path pattern failed to compile.
	CodeInvalidPattern ErrorCode = "INVALID_PATTERN"

	// CodeNoBackend indicates no data source covers a logical path.
	CodeNoBackend ErrorCode = "NO_BACKEND"

	// CodeIO indicates a storage operation failed. Attempt-scoped I/O failures
	// are retryable by re-running the attempt.
	CodeIO ErrorCode = "IO"

	// CodeTransaction indicates a transaction-level commit or cleanup failed.
	// The caller must roll the transaction forward or discard it.
	CodeTransaction ErrorCode = "TRANSACTION"

	// CodeInterrupted indicates a blocking operation was cancelled.
	CodeInterrupted ErrorCode = "INTERRUPTED"

	// CodeUnsupported indicates an operation is not supported by a backend.
	CodeUnsupported ErrorCode = "UNSUPPORTED"

	// CodeInternal indicates a programming or invariant error.
	CodeInternal ErrorCode = "INTERNAL"

	// CodeUnknown indicates an unclassified error.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// ErrorClassification indicates whether a failed operation may succeed when
// repeated.
type ErrorClassification string

const (
	// ClassificationRetryable marks failures that may succeed when the attempt
	// is re-run.
	ClassificationRetryable ErrorClassification = "RETRYABLE"

	// ClassificationPermanent marks failures that will not succeed on retry.
	ClassificationPermanent ErrorClassification = "PERMANENT"
)

// IsRetryable reports whether the classification allows a retry.
func (c ErrorClassification) IsRetryable() bool {
	return c == ClassificationRetryable
}

var defaultClassifications = map[ErrorCode]ErrorClassification{
	CodeIO: ClassificationRetryable,

	CodeNotFound:       ClassificationPermanent,
	CodeAlreadyExists:  ClassificationPermanent,
	CodeInvalidInput:   ClassificationPermanent,
	CodeInvalidConfig:  ClassificationPermanent,
	CodeInvalidPattern: ClassificationPermanent,
	CodeNoBackend:      ClassificationPermanent,
	CodeTransaction:    ClassificationPermanent,
	CodeInterrupted:    ClassificationPermanent,
	CodeUnsupported:    ClassificationPermanent,
	CodeInternal:       ClassificationPermanent,
	CodeUnknown:        ClassificationPermanent,
}

// classify returns the default classification of a code. Unknown codes are
// permanent.
func classify(code ErrorCode) ErrorClassification {
	if class, ok := defaultClassifications[code]; ok {
		return class
	}
	return ClassificationPermanent
}
