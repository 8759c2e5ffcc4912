package middleware_test

import (
	"context"
	"errors"
	"testing"

	"staybook/internal/app/commands"
	"staybook/internal/app/middleware"
	"staybook/internal/infra/storage/memory"
)

type retriedCommand struct {
	key string
}

func (retriedCommand) Key() string              { return "test.retried" }
func (c retriedCommand) IdempotencyKey() string { return c.key }
func (retriedCommand) ResultPrototype() any     { return &retriedResult{} }

type retriedResult struct {
	Value string `json:"value"`
}

type plainCommand struct{}

func (plainCommand) Key() string { return "test.plain" }

func newCountingBus(t *testing.T, result any, fail error) (*commands.InMemoryBus, *int) {
	t.Helper()
	calls := 0
	bus := commands.NewInMemoryBus()
	handler := func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		if fail != nil {
			return nil, fail
		}
		return result, nil
	}
	bus.RegisterRaw("test.retried", handler)
	bus.RegisterRaw("test.plain", handler)
	return bus, &calls
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	bus, calls := newCountingBus(t, &retriedResult{Value: "booked"}, nil)
	wrapped := middleware.ChainCommands(bus, middleware.Idempotency(memory.NewIdempotencyStore(0), nil))

	cmd := retriedCommand{key: "idem-1"}
	first, err := wrapped.Dispatch(context.Background(), cmd)
	if err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	second, err := wrapped.Dispatch(context.Background(), cmd)
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if *calls != 1 {
		t.Fatalf("handler ran %d times, want 1", *calls)
	}
	if first.(*retriedResult).Value != "booked" || second.(*retriedResult).Value != "booked" {
		t.Fatalf("results = %+v / %+v", first, second)
	}
}

func TestIdempotencyReplaysFailure(t *testing.T) {
	bus, calls := newCountingBus(t, nil, errors.New("dates are gone"))
	wrapped := middleware.ChainCommands(bus, middleware.Idempotency(memory.NewIdempotencyStore(0), nil))

	cmd := retriedCommand{key: "idem-2"}
	if _, err := wrapped.Dispatch(context.Background(), cmd); err == nil {
		t.Fatal("want error on first dispatch")
	}
	if _, err := wrapped.Dispatch(context.Background(), cmd); err == nil || err.Error() != "dates are gone" {
		t.Fatalf("replayed err = %v", err)
	}
	if *calls != 1 {
		t.Fatalf("handler ran %d times, want 1", *calls)
	}
}

func TestCommandsWithoutKeyPassThrough(t *testing.T) {
	bus, calls := newCountingBus(t, &retriedResult{Value: "ok"}, nil)
	wrapped := middleware.ChainCommands(bus, middleware.Idempotency(memory.NewIdempotencyStore(0), nil))

	for i := 0; i < 2; i++ {
		if _, err := wrapped.Dispatch(context.Background(), plainCommand{}); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	if *calls != 2 {
		t.Fatalf("handler ran %d times, want 2", *calls)
	}
}
