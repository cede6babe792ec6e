package errors

import stderrors "errors"

// WithContext returns a copy of err with key set to value in its metadata.
// Plain errors are first converted to CodeUnknown errors wrapping themselves.
func WithContext(err error, key string, value interface{}) Error {
	return WithContextMap(err, map[string]interface{}{key: value})
}

// WithContextMap returns a copy of err with every entry of ctx merged into its
// metadata. Entries in ctx win over existing keys.
func WithContextMap(err error, ctx map[string]interface{}) Error {
	if err == nil {
		return nil
	}
	base := asError(err)
	merged := base.Context()
	if merged == nil {
		merged = make(map[string]interface{}, len(ctx))
	}
	for k, v := range ctx {
		merged[k] = v
	}
	return &directioError{
		code:           base.Code(),
		classification: base.Classification(),
		message:        base.Message(),
		context:        merged,
		cause:          base.Unwrap(),
	}
}

// WithClassification returns a copy of err with its classification replaced.
func WithClassification(err error, classification ErrorClassification) Error {
	if err == nil {
		return nil
	}
	base := asError(err)
	return &directioError{
		code:           base.Code(),
		classification: classification,
		message:        base.Message(),
		context:        base.Context(),
		cause:          base.Unwrap(),
	}
}

func asError(err error) Error {
	var e Error
	if stderrors.As(err, &e) {
		return e
	}
	return &directioError{
		code:           CodeUnknown,
		classification: ClassificationPermanent,
		message:        err.Error(),
		cause:          err,
	}
}
