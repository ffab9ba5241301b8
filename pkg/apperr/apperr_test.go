package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind   Kind
		status int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindAlreadyUsed, http.StatusConflict},
		{KindCancelled, http.StatusConflict},
		{KindInsufficientBalance, http.StatusUnprocessableEntity},
		{KindExpired, http.StatusGone},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.status, HTTPStatus(New(tc.kind, "x")), string(tc.kind))
	}

	// Unclassified errors fall through to 500.
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestKindOfUnwrapsChains(t *testing.T) {
	inner := New(KindNotFound, "missing")
	wrapped := fmt.Errorf("loading booking: %w", inner)
	require.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestInsufficientBalance(t *testing.T) {
	err := InsufficientBalance(125, 1875)
	require.Equal(t, KindInsufficientBalance, err.Kind)
	require.Equal(t, int64(125), err.Available)
	require.Equal(t, int64(1875), err.Required)
	require.Contains(t, err.Error(), "available 125")
	require.Contains(t, err.Error(), "required 1875")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("db down")
	err := Wrap(KindInternal, "failed to load user", cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "db down")
}
