package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("publish")
	cfg.FailureThreshold = 3
	cfg.Timeout = time.Minute

	cb, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	calls := 0
	boom := errors.New("upstream 500")
	fail := func() (interface{}, error) {
		calls++
		return nil, boom
	}

	for i := 0; i < 3; i++ {
		if _, err := cb.Execute(context.Background(), fail); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected upstream error, got %v", i, err)
		}
	}
	if !cb.IsOpen() {
		t.Fatalf("expected open circuit, got %s", cb.GetState())
	}

	_, err = cb.Execute(context.Background(), fail)
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if calls != 3 {
		t.Errorf("open circuit must not call through, got %d calls", calls)
	}
}

func TestCircuitBreaker_CanceledIsNotAFailure(t *testing.T) {
	cfg := DefaultConfig("publish")
	cfg.FailureThreshold = 1

	cb, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = cb.Execute(context.Background(), func() (interface{}, error) {
		return nil, context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("expected closed circuit, got %s", cb.GetState())
	}
}

func TestManager_HealthStatus(t *testing.T) {
	m := NewManager(nil)
	a, err := m.GetOrCreate("b-breaker", DefaultConfig(""))
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	again, _ := m.GetOrCreate("b-breaker", DefaultConfig(""))
	if a != again {
		t.Error("expected the same breaker for the same name")
	}
	m.GetOrCreate("a-breaker", DefaultConfig(""))

	statuses := m.GetHealthStatus()
	if len(statuses) != 2 || statuses[0].Name != "a-breaker" {
		t.Fatalf("unexpected statuses: %+v", statuses)
	}
	if !statuses[1].Healthy || statuses[1].State != StateClosed {
		t.Errorf("expected healthy closed breaker: %+v", statuses[1])
	}
}
