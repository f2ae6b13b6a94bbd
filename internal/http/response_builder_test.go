package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"motoinvest/internal/core"
	"motoinvest/internal/services"
	"motoinvest/internal/store"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusCreated).Header("X-Test", "1").Body(map[string]int{"n": 1}).Write(rr)
	if rr.Code != http.StatusCreated || rr.Header().Get("X-Test") != "1" {
		t.Fatalf("status=%d headers=%v", rr.Code, rr.Header())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	if rr.Body.String() != "{\"n\":1}\n" {
		t.Fatalf("body = %q", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	ErrorResponse(http.StatusBadRequest, "nope").Write(rr)
	if rr.Code != http.StatusBadRequest || rr.Body.String() != "{\"error\":\"nope\"}\n" {
		t.Fatalf("error response = %d %q", rr.Code, rr.Body.String())
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", services.ErrAccessDenied), http.StatusPaymentRequired},
		{services.ErrChatBusy, http.StatusConflict},
		{services.ErrOnboarding, http.StatusConflict},
		{services.ErrAlreadyOnboarded, http.StatusConflict},
		{fmt.Errorf("save bill: %w: %w", services.ErrWriteFailed, errors.New("reset")), http.StatusBadGateway},
		{fmt.Errorf("bill x: %w", store.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("amount: %w", core.ErrInvalidAmount), http.StatusBadRequest},
		{services.ErrEmptyPrompt, http.StatusBadRequest},
		{services.ErrNothingToClose, http.StatusBadRequest},
		{services.ErrNoSession, http.StatusUnauthorized},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := errorStatus(tt.err); got != tt.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
	if _, msg := errorStatus(errors.New("sql: connection refused")); msg != msgInternal {
		t.Fatalf("internal errors must not leak: %q", msg)
	}
}
