package httpx

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type statusErr int

func (s statusErr) Error() string       { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, true},
		{statusErr(429), true},
		{fmt.Errorf("wrapped: %w", statusErr(503)), true},
		{statusErr(400), false},
	}
	for _, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Fatalf("IsRetryableError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "30")
	if got := RetryAfterDuration(resp, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("expected cap, got %v", got)
	}
	if got := RetryAfterDuration(nil, time.Second, 0); got != time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
}

func TestBackoffAndJitter(t *testing.T) {
	if got := Backoff(3, 750*time.Millisecond, 10*time.Second); got != 6*time.Second {
		t.Fatalf("unexpected backoff: %v", got)
	}
	if got := Backoff(10, 750*time.Millisecond, 10*time.Second); got != 10*time.Second {
		t.Fatalf("expected max, got %v", got)
	}
	for i := 0; i < 50; i++ {
		j := JitterSleep(time.Second)
		if j < 800*time.Millisecond || j > 1200*time.Millisecond {
			t.Fatalf("jitter out of range: %v", j)
		}
	}
}
