package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("text", "must not be empty"), http.StatusBadRequest},
		{"auth", ErrAuthRequired, http.StatusUnauthorized},
		{"credentials", ErrInvalidCredentials, http.StatusUnauthorized},
		{"locked", ErrModuleLocked, http.StatusForbidden},
		{"not found", ErrAnalysisNotFound.WithID("a1"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound},
		{"duplicate email", ErrEmailRegistered, http.StatusConflict},
		{"no verdict", fmt.Errorf("all 2 providers failed: %w", ErrNoVerdict), http.StatusBadGateway},
		{"unconfigured", ErrProviderUnavailable, http.StatusServiceUnavailable},
		{"storage", &StorageError{Op: "create analysis", Err: errors.New("disk full")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusFor(tc.err))
		})
	}
}

func TestNotFoundMatching(t *testing.T) {
	err := ErrModuleNotFound.WithID("m1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrModuleNotFound)
	assert.NotErrorIs(t, err, ErrAnalysisNotFound)
	assert.Equal(t, "learning module m1 not found", err.Error())
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, DefaultHistoryLimit, ParseLimit("", DefaultHistoryLimit, MaxHistoryLimit))
	assert.Equal(t, DefaultHistoryLimit, ParseLimit("-4", DefaultHistoryLimit, MaxHistoryLimit))
	assert.Equal(t, 25, ParseLimit("25", DefaultHistoryLimit, MaxHistoryLimit))
	assert.Equal(t, MaxHistoryLimit, ParseLimit("5000", DefaultHistoryLimit, MaxHistoryLimit))
}
