package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(Config{
		Retry: RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, Multiplier: 2},
	})

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, errTemp),
			RecordFailure: true,
		}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(Config{
		Retry: RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, Multiplier: 2},
	})

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		Retry: RetryPolicy{MaxAttempts: 1},
		Breaker: BreakerPolicy{
			Enabled:       true,
			MinRequests:   2,
			FailureRatio:  0.5,
			OpenTimeout:   50 * time.Millisecond,
			HalfOpenCalls: 1,
		},
	})

	errTemp := errors.New("temporary")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errTemp
		}, classifier)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
}

func TestExecuteValueReturnsResult(t *testing.T) {
	exec := NewExecutor(ImageConfig())

	calls := 0
	got, err := ExecuteValue(context.Background(), exec, "fetch:img.example", func(context.Context) (string, error) {
		calls++
		return "bytes", nil
	}, nil)
	if err != nil {
		t.Fatalf("ExecuteValue() error = %v", err)
	}
	if got != "bytes" || calls != 1 {
		t.Fatalf("expected single call returning bytes, got %q after %d calls", got, calls)
	}
}

func TestImageConfigNeverRetries(t *testing.T) {
	exec := NewExecutor(ImageConfig())

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "fetch:img.example", func(context.Context) error {
		attempts++
		return errTemp
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestNilExecutorCallsOnce(t *testing.T) {
	var exec *Executor

	attempts := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return nil
	}, nil)
	if err != nil || attempts != 1 {
		t.Fatalf("expected one successful call, got attempts=%d err=%v", attempts, err)
	}
}

func TestImageConfigTripsPerHostOnConsecutiveFailures(t *testing.T) {
	exec := NewExecutor(ImageConfig())
	errDown := errors.New("host down")
	failing := func(context.Context) error { return errDown }

	for i := 0; i < 5; i++ {
		if err := exec.Execute(context.Background(), "fetch:a.example", failing, nil); !errors.Is(err, errDown) {
			t.Fatalf("call %d: expected host error, got %v", i, err)
		}
	}
	if got := exec.State("fetch:a.example"); got != gobreaker.StateOpen {
		t.Fatalf("expected open breaker for failing host, got %s", got)
	}

	calls := 0
	err := exec.Execute(context.Background(), "fetch:b.example", func(context.Context) error {
		calls++
		return nil
	}, nil)
	if err != nil || calls != 1 {
		t.Fatalf("expected other host to stay usable, got err=%v calls=%d", err, calls)
	}
}

func TestImageConfigSuccessResetsFailureRun(t *testing.T) {
	exec := NewExecutor(ImageConfig())
	errDown := errors.New("host down")

	for round := 0; round < 3; round++ {
		for i := 0; i < 4; i++ {
			_ = exec.Execute(context.Background(), "fetch:a.example", func(context.Context) error { return errDown }, nil)
		}
		if err := exec.Execute(context.Background(), "fetch:a.example", func(context.Context) error { return nil }, nil); err != nil {
			t.Fatalf("round %d: expected success, got %v", round, err)
		}
	}
	if got := exec.State("fetch:a.example"); got != gobreaker.StateClosed {
		t.Fatalf("interleaved successes must keep the breaker closed, got %s", got)
	}
}

func TestBreakerClosesAfterSingleHalfOpenSuccess(t *testing.T) {
	exec := NewExecutor(Config{
		Retry:   RetryPolicy{MaxAttempts: 1},
		Breaker: BreakerPolicy{Enabled: true, ConsecutiveFailures: 1, OpenTimeout: 10 * time.Millisecond, HalfOpenCalls: 1},
	})
	_ = exec.Execute(context.Background(), "fetch:a.example", func(context.Context) error { return errors.New("down") }, nil)
	if got := exec.State("fetch:a.example"); got != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", got)
	}

	time.Sleep(20 * time.Millisecond)
	if err := exec.Execute(context.Background(), "fetch:a.example", func(context.Context) error { return nil }, nil); err != nil {
		t.Fatalf("expected half-open call to pass, got %v", err)
	}
	if got := exec.State("fetch:a.example"); got != gobreaker.StateClosed {
		t.Fatalf("expected closed breaker after recovery, got %s", got)
	}
}

func TestRetryStopsWhenContextCancelledDuringBackoff(t *testing.T) {
	exec := NewExecutor(Config{
		Retry: RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Second, MaxBackoff: time.Second, Multiplier: 1},
	})
	ctx, cancel := context.WithCancel(context.Background())
	errTemp := errors.New("temporary")

	attempts := 0
	err := exec.Execute(ctx, "op", func(context.Context) error {
		attempts++
		cancel()
		return errTemp
	}, func(error) ErrorClassification { return ErrorClassification{Retryable: true} })
	if !errors.Is(err, errTemp) || attempts != 1 {
		t.Fatalf("expected first error after cancellation, got err=%v attempts=%d", err, attempts)
	}
}

func TestRetryDelayGrowsToCap(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 4, InitialBackoff: 100 * time.Millisecond, MaxBackoff: 250 * time.Millisecond, Multiplier: 2}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 250 * time.Millisecond}
	for i, w := range want {
		if got := p.delay(i + 1); got != w {
			t.Fatalf("delay(%d) = %s, want %s", i+1, got, w)
		}
	}
}
