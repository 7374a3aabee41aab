package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyDo(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2}

	t.Run("first attempt success", func(t *testing.T) {
		var calls int
		err := policy.Do(context.Background(), func() error { calls++; return nil })
		if err != nil {
			t.Fatalf("Do: %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("succeeds after failures", func(t *testing.T) {
		var calls int
		err := policy.Do(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Do: %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("exhausted returns last error", func(t *testing.T) {
		wantErr := errors.New("permanent")
		var calls int
		err := policy.Do(context.Background(), func() error { calls++; return wantErr })
		if !errors.Is(err, wantErr) {
			t.Errorf("err = %v, want %v", err, wantErr)
		}
		if calls != policy.MaxRetries+1 {
			t.Errorf("calls = %d, want %d", calls, policy.MaxRetries+1)
		}
	})

	t.Run("canceled context stops retries", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slow := RetryPolicy{MaxRetries: 10, InitialDelay: time.Hour, BackoffFactor: 2}

		var calls int
		done := make(chan error, 1)
		go func() {
			done <- slow.Do(ctx, func() error { calls++; return errors.New("fail") })
		}()

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("err = %v, want context.Canceled", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Do did not return after context cancel")
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}
