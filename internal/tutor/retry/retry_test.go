package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoWithInterval_BoundedAttempts(t *testing.T) {
	errTransient := errors.New("transient failure")

	tests := []struct {
		name         string
		maxRetries   uint64
		failUntil    int
		expectError  bool
		expectCalls  int
		permanentErr bool
	}{
		{
			name:        "succeeds first attempt",
			maxRetries:  3,
			failUntil:   0,
			expectError: false,
			expectCalls: 1,
		},
		{
			name:        "succeeds after two failures",
			maxRetries:  3,
			failUntil:   2,
			expectError: false,
			expectCalls: 3,
		},
		{
			name:        "exhausts retries",
			maxRetries:  2,
			failUntil:   10,
			expectError: true,
			expectCalls: 3, // initial attempt plus two retries
		},
		{
			name:         "permanent error stops immediately",
			maxRetries:   5,
			failUntil:    10,
			expectError:  true,
			expectCalls:  1,
			permanentErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			op := func() error {
				calls++
				if calls <= tt.failUntil {
					if tt.permanentErr {
						return Permanent(errTransient)
					}
					return errTransient
				}
				return nil
			}

			err := DoWithInterval(context.Background(), tt.maxRetries, time.Millisecond, op)
			if tt.expectError && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if calls != tt.expectCalls {
				t.Errorf("expected %d calls, got %d", tt.expectCalls, calls)
			}
		})
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, 5, func() error {
		calls++
		return errors.New("always fails")
	})
	if err == nil {
		t.Fatal("expected error after context cancellation")
	}
	if calls > 1 {
		t.Errorf("expected at most one call after cancellation, got %d", calls)
	}
}
