package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var (
	errTemporary = errors.New("temporary")
	errPermanent = errors.New("permanent")
)

func isTemporary(err error) bool { return errors.Is(err, errTemporary) }

func fastConfig(attempts uint) *RetryConfig {
	return &RetryConfig{Attempts: attempts, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastConfig(3), isTemporary, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTemporary
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("got %q, %v", got, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(5), isTemporary, func(context.Context) (int, error) {
		calls++
		return 0, errPermanent
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected the permanent error unwrapped, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ReturnsLastErrorAfterAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(2), isTemporary, func(context.Context) (int, error) {
		calls++
		return 0, errTemporary
	})
	if !errors.Is(err, errTemporary) {
		t.Fatalf("expected the last error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDo_NilConfigUsesDefaults(t *testing.T) {
	calls := 0
	Do(context.Background(), nil, func(error) bool { return false }, func(context.Context) (int, error) {
		calls++
		return 0, errPermanent
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if d := DefaultRetryConfig(); d.Attempts != defaultAttempts {
		t.Errorf("default attempts = %d", d.Attempts)
	}
}
