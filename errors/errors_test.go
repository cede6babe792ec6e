package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeNoBackend, "no data source for path")

	require.Equal(t, CodeNoBackend, err.Code())
	require.Equal(t, ClassificationPermanent, err.Classification())
	require.Equal(t, "no data source for path", err.Message())
	require.Nil(t, err.Context())
	require.Nil(t, err.Unwrap())
	require.Equal(t, "[NO_BACKEND] no data source for path", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(CodeInvalidConfig, "duplicate path %q", "in/raw")
	require.Equal(t, `duplicate path "in/raw"`, err.Message())
}

func TestDefaultClassification(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		retryable bool
	}{
		{CodeIO, true},
		{CodeInvalidConfig, false},
		{CodeInvalidPattern, false},
		{CodeNoBackend, false},
		{CodeTransaction, false},
		{CodeInterrupted, false},
		{ErrorCode("SOMETHING_ELSE"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			require.Equal(t, tt.retryable, New(tt.code, "x").Classification().IsRetryable())
		})
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(cause, CodeIO, "failed to write attempt output")

	require.Equal(t, CodeIO, err.Code())
	require.Equal(t, cause, err.Unwrap())
	require.True(t, Is(err, cause))
	require.Equal(t, "[IO] failed to write attempt output: disk full", err.Error())
}

func TestWrap_Nil(t *testing.T) {
	require.Nil(t, Wrap(nil, CodeIO, "x"))
	require.Nil(t, Wrapf(nil, CodeIO, "x %d", 1))
	require.Nil(t, WrapWithContext(nil, CodeIO, "x", nil))
}

func TestWrap_PreservesClassification(t *testing.T) {
	retryable := New(CodeIO, "rename failed")
	wrapped := Wrap(retryable, CodeTransaction, "commit failed")
	require.True(t, wrapped.Classification().IsRetryable())

	permanent := New(CodeInvalidPattern, "bad pattern")
	wrapped = Wrap(permanent, CodeIO, "delete failed")
	require.False(t, wrapped.Classification().IsRetryable())
}

func TestWrapWithContext_CopiesMap(t *testing.T) {
	ctx := map[string]interface{}{"transaction": "tx-1"}
	err := WrapWithContext(stderrors.New("boom"), CodeTransaction, "commit failed", ctx)
	ctx["transaction"] = "changed"

	require.Equal(t, "tx-1", err.Context()["transaction"])
}

func TestWithContext(t *testing.T) {
	err := New(CodeIO, "failed")
	err = WithContext(err, "backend", "in")
	err = WithContextMap(err, map[string]interface{}{"attempt": "a-1", "backend": "out"})

	require.Equal(t, CodeIO, err.Code())
	require.Equal(t, map[string]interface{}{"attempt": "a-1", "backend": "out"}, err.Context())
}

func TestWithContext_PlainError(t *testing.T) {
	err := WithContext(stderrors.New("plain"), "path", "a/b")
	require.Equal(t, CodeUnknown, err.Code())
	require.Equal(t, "plain", err.Message())
	require.Equal(t, "a/b", err.Context()["path"])
}

func TestWithClassification(t *testing.T) {
	err := WithClassification(New(CodeTransaction, "x"), ClassificationRetryable)
	require.Equal(t, CodeTransaction, err.Code())
	require.True(t, IsRetryable(err))
	require.Nil(t, WithClassification(nil, ClassificationRetryable))
}

func TestGetCode(t *testing.T) {
	require.Equal(t, CodeUnknown, GetCode(nil))
	require.Equal(t, CodeUnknown, GetCode(stderrors.New("x")))

	err := fmt.Errorf("outer: %w", New(CodeNotFound, "missing"))
	require.Equal(t, CodeNotFound, GetCode(err))
}

func TestHasCode(t *testing.T) {
	inner := New(CodeInvalidPattern, "bad")
	outer := Wrap(inner, CodeInvalidConfig, "bad delete pattern")

	require.True(t, HasCode(outer, CodeInvalidPattern))
	require.True(t, HasCode(outer, CodeInvalidConfig))
	require.False(t, HasCode(outer, CodeIO))
	require.False(t, HasCode(nil, CodeIO))
}

func TestInterruption(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, CheckContext(ctx, "commit"))
	cancel()

	err := CheckContext(ctx, "commit")
	require.Error(t, err)
	require.Equal(t, CodeInterrupted, GetCode(err))
	require.True(t, IsInterrupted(err))
	require.True(t, Is(err, context.Canceled))

	// Interruption hidden behind a retryable wrapper is still not retried.
	wrapped := Wrap(context.Canceled, CodeIO, "read failed")
	require.True(t, IsInterrupted(wrapped))
	require.False(t, IsRetryable(wrapped))

	require.False(t, IsInterrupted(New(CodeIO, "x")))
	require.False(t, IsInterrupted(nil))
}

func TestToJSON(t *testing.T) {
	require.Nil(t, ToJSON(nil))

	err := WithContext(New(CodeNoBackend, "no data source"), "path", "x/y")
	resp := ToJSON(err)
	require.Equal(t, "NO_BACKEND", resp.Code)
	require.Equal(t, "no data source", resp.Message)
	require.Equal(t, "PERMANENT", resp.Classification)
	require.Equal(t, "x/y", resp.Context["path"])

	plain := ToJSON(stderrors.New("plain"))
	require.Equal(t, "UNKNOWN", plain.Code)
	require.Equal(t, "plain", plain.Message)
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal(New(CodeIO, "rename failed"))
	require.NoError(t, err)
	require.JSONEq(t, `{"code":"IO","message":"rename failed","classification":"RETRYABLE"}`, string(data))
}
