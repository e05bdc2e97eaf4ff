package health_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/quantstream/marketd/internal/platform/health"
)

// stubChecker is a minimal ports.HealthChecker for tests.
type stubChecker struct {
	name string
	err  error
}

func (s *stubChecker) Name() string                        { return s.name }
func (s *stubChecker) HealthCheck(_ context.Context) error { return s.err }

func TestCheckAll_Empty(t *testing.T) {
	t.Parallel()

	r := health.New()
	results := r.CheckAll(context.Background())

	if results == nil {
		t.Fatal("expected non-nil map, got nil")
	}
	if len(results) != 0 {
		t.Errorf("expected empty map, got %d entries", len(results))
	}
}

func TestCheckAll_MixedHealth(t *testing.T) {
	t.Parallel()

	errDown := errors.New("circuit open")

	r := health.New()
	r.Register(&stubChecker{name: "quote-api", err: errDown})
	r.Register(&stubChecker{name: "bar-store"})

	results := r.CheckAll(context.Background())

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !errors.Is(results["quote-api"], errDown) {
		t.Errorf("quote-api check = %v, want %v", results["quote-api"], errDown)
	}
	if results["bar-store"] != nil {
		t.Errorf("bar-store check = %v, want nil", results["bar-store"])
	}
}

func TestRegister_SameNameReplaces(t *testing.T) {
	t.Parallel()

	r := health.New()
	r.Register(&stubChecker{name: "quote-api", err: errors.New("old")})
	r.Register(&stubChecker{name: "quote-api"})

	results := r.CheckAll(context.Background())
	if len(results) != 1 {
		t.Fatalf("expected 1 result after replacement, got %d", len(results))
	}
	if results["quote-api"] != nil {
		t.Errorf("quote-api check = %v, want nil (replaced)", results["quote-api"])
	}
}

func TestRegister_ConcurrentSafe(t *testing.T) {
	t.Parallel()

	r := health.New()
	var wg sync.WaitGroup

	for i := range 10 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Register(&stubChecker{name: string(rune('a' + n))})
			r.CheckAll(context.Background())
		}(i)
	}
	wg.Wait()

	if len(r.CheckAll(context.Background())) != 10 {
		t.Error("expected 10 registered checkers after concurrent registration")
	}
}
