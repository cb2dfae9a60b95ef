package workflow

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inline runs tasks on the caller's goroutine and swallows panics the way the
// worker pool does.
type inline struct{}

func (inline) Go(_ string, task func(ctx context.Context)) {
	defer func() { _ = recover() }()
	task(context.Background())
}

type sink struct {
	mu   sync.Mutex
	sent []Message
}

func (s *sink) Send(_ context.Context, msg Message) (Sent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return Sent{MessageID: int64(len(s.sent))}, nil
}

func newAsync() (*Async, *Locks, *sink) {
	locks := NewLocks()
	out := &sink{}
	return NewAsync(inline{}, locks, out, slog.New(slog.NewTextHandler(io.Discard, nil))), locks, out
}

func TestLaterDelivers(t *testing.T) {
	a, _, out := newAsync()
	Later(a, 5, "lookup",
		func(context.Context) string { return "Paris" },
		func(_ context.Context, city string) *Reply { return Say(5, city) },
	)
	require.Len(t, out.sent, 1)
	assert.Equal(t, "Paris", out.sent[0].Text)
}

func TestLaterReleasesLockOnPanic(t *testing.T) {
	a, locks, out := newAsync()
	Later(a, 5, "lookup",
		func(context.Context) int { return 1 },
		func(context.Context, int) *Reply { panic("boom") },
	)
	assert.Empty(t, out.sent)

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock(5)
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("user lock still held after a panicking continuation")
	}
}
