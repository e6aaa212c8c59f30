package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/cleanfile/internal/service"
	"github.com/JonMunkholm/cleanfile/internal/tabular"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{tabular.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{&http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{tabular.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
		{service.ErrNoFile, http.StatusBadRequest},
		{tabular.ErrEmptyFile, http.StatusBadRequest},
		{fmt.Errorf("write delimited text: %w", errors.New("disk full")), http.StatusInternalServerError},
		{service.ErrTooManyRuns, http.StatusServiceUnavailable},
		{service.ErrRunNotFound, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{service.ErrHistoryDisabled, http.StatusNotImplemented},
		{errRateLimited, http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRespondError_HTMLForBrowsers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/runs/x", nil)
	rec := httptest.NewRecorder()
	respondError(rec, req, service.ErrRunNotFound, http.StatusNotFound)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, "RUN002") || strings.Contains(body, "run not found") {
		t.Errorf("body should carry the user message only: %s", body)
	}
}

func TestWantsJSON(t *testing.T) {
	api := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	page := httptest.NewRequest(http.MethodGet, "/", nil)
	accept := httptest.NewRequest(http.MethodGet, "/", nil)
	accept.Header.Set("Accept", "application/json")

	if !wantsJSON(api) || wantsJSON(page) || !wantsJSON(accept) {
		t.Error("wantsJSON picked the wrong format")
	}
}

func TestRateLimiter_Window(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("a") || !rl.allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("a") {
		t.Error("third request in window should be limited")
	}
	if !rl.allow("b") {
		t.Error("other clients have their own bucket")
	}

	now = now.Add(61 * time.Second)
	if !rl.allow("a") {
		t.Error("bucket should refill after the window")
	}
}

func TestRateLimiter_ZeroRateBlocks(t *testing.T) {
	rl := newRateLimiter(0, time.Minute)
	defer rl.stop()
	if rl.allow("a") {
		t.Error("zero rate should block")
	}
}
