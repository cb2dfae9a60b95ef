package workflow

import (
	"context"
	"log/slog"

	"TripBot/internal/lib/sl"
)

// Async runs slow lookups on an Executor and applies their results under the
// user's lock, so a continuation never interleaves with the user's events.
type Async struct {
	exec      Executor
	locks     *Locks
	messenger Messenger
	log       *slog.Logger
}

func NewAsync(exec Executor, locks *Locks, messenger Messenger, log *slog.Logger) *Async {
	return &Async{
		exec:      exec,
		locks:     locks,
		messenger: messenger,
		log:       log.With(sl.Module("workflow.async")),
	}
}

func (a *Async) Messenger() Messenger {
	return a.messenger
}

// Locks exposes the lock table for continuations that need it.
func (a *Async) Locks() *Locks {
	return a.locks
}

// Deliver sends every message of the reply, logging failures.
func (a *Async) Deliver(ctx context.Context, reply *Reply) {
	if reply == nil {
		return
	}
	for _, msg := range reply.Messages {
		if _, err := a.messenger.Send(ctx, msg); err != nil {
			a.log.Error("deliver message", slog.Int64("chat_id", msg.ChatID), sl.Err(err))
		}
	}
}

// Later runs fetch without holding any lock, then apply with the user's lock
// held, and delivers apply's reply.
func Later[T any](a *Async, user int64, name string, fetch func(ctx context.Context) T, apply func(ctx context.Context, v T) *Reply) {
	a.exec.Go(name, func(ctx context.Context) {
		v := fetch(ctx)
		unlock := a.locks.Lock(user)
		reply := func() *Reply {
			defer unlock()
			return apply(ctx, v)
		}()
		a.Deliver(ctx, reply)
	})
}
