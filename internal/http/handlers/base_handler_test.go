// README: Tests for id validation and failure-kind status mapping.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"routecab/internal/types"
)

func TestIsValidID(t *testing.T) {
	cases := map[string]bool{
		"":                                     false,
		"abc123":                               true,
		"9b2f6c1e-4a1d-4c57-9d0e-2c8f1a7b3e10": true,
		"firebase_UID_x":                       true,
		"has space":                            false,
		"semi;colon":                           false,
	}
	for in, want := range cases {
		if got := isValidID(in); got != want {
			t.Errorf("isValidID(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWriteDomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", types.ErrBadRequest), http.StatusBadRequest},
		{fmt.Errorf("x: %w", types.ErrUnauthorized), http.StatusForbidden},
		{fmt.Errorf("x: %w", types.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", types.ErrInvalidTransition), http.StatusConflict},
		{fmt.Errorf("x: %w", types.ErrRoleConflict), http.StatusConflict},
		{fmt.Errorf("x: %w", types.ErrInvalidAccountState), http.StatusConflict},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		writeDomainError(c, tc.err)
		if w.Code != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, w.Code)
		}
	}
}
