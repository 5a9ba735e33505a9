package reliability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryableStatus(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{401, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tc := range cases {
		if got := RetryableStatus(tc.code); got != tc.want {
			t.Fatalf("RetryableStatus(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestBackoffCap(t *testing.T) {
	base := 100 * time.Millisecond
	capDur := 700 * time.Millisecond
	if got := Backoff(0, base, capDur); got != base {
		t.Fatalf("attempt 0 = %v, want %v", got, base)
	}
	if got := Backoff(1, base, capDur); got != 200*time.Millisecond {
		t.Fatalf("attempt 1 = %v, want 200ms", got)
	}
	if got := Backoff(10, base, capDur); got != capDur {
		t.Fatalf("attempt 10 = %v, want %v", got, capDur)
	}
}

func TestDoRetriesRetryableStatus(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 3, Base: time.Millisecond, Cap: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 3 {
			return &StatusError{Code: 503}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	want := &StatusError{Code: 401, Body: "bad key"}
	err := Do(context.Background(), Policy{Attempts: 5, Base: time.Millisecond, Cap: time.Millisecond}, func(context.Context) error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("Do() error = %v, want %v", err, want)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoGivesUpAfterAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 2, Base: time.Millisecond, Cap: time.Millisecond}, func(context.Context) error {
		calls++
		return &StatusError{Code: 429}
	})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 429 {
		t.Fatalf("Do() error = %v, want status 429", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}
