package reliability

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type statusErr struct{ code int }

func (e *statusErr) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e *statusErr) StatusCode() int { return e.code }

func TestIsRetryableHTTPStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		if !IsRetryableHTTPStatus(code) {
			t.Fatalf("IsRetryableHTTPStatus(%d) = false, want true", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404} {
		if IsRetryableHTTPStatus(code) {
			t.Fatalf("IsRetryableHTTPStatus(%d) = true, want false", code)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Fatalf("IsRetryable(nil) = true")
	}
	if !IsRetryable(context.DeadlineExceeded) {
		t.Fatalf("deadline exceeded should be retryable")
	}
	if !IsRetryable(fmt.Errorf("wrapped: %w", &statusErr{code: 503})) {
		t.Fatalf("wrapped 503 should be retryable")
	}
	if IsRetryable(fmt.Errorf("wrapped: %w", &statusErr{code: 400})) {
		t.Fatalf("wrapped 400 should not be retryable")
	}
	if IsRetryable(errors.New("opaque")) {
		t.Fatalf("opaque error should not be retryable")
	}
}
