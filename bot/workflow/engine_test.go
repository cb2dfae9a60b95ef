package workflow

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probe is a flow that records what reached it.
type probe struct {
	name        string
	prefix      string
	claims      string
	got         []int64
	interrupted int
	resets      int
	confirms    int
}

func (p *probe) Name() string { return p.name }

func (p *probe) Routes() []Route {
	return []Route{{Prefix: p.prefix, IDs: 1, Handle: func(_ context.Context, ev Event, ids []int64) *Reply {
		p.got = append(p.got, ids...)
		return Say(ev.ChatID, p.name)
	}}}
}

func (p *probe) Reset(int64) { p.resets++ }

func (p *probe) Interrupt(int64) { p.interrupted++ }

func (p *probe) HandleMessage(_ context.Context, ev Event) *Reply {
	if ev.Text != p.claims {
		return nil
	}
	return Say(ev.ChatID, p.name)
}

func (p *probe) HandleStart(context.Context, Event) *Reply { return nil }

func (p *probe) HandleConfirm(_ context.Context, ev Event, yes bool) *Reply {
	if !yes {
		return nil
	}
	p.confirms++
	return Say(ev.ChatID, p.name)
}

func newRouter() (*Router, *probe, *probe) {
	r := NewRouter(NewLocks(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	a := &probe{name: "a", prefix: "trip", claims: "hello"}
	b := &probe{name: "b", prefix: "trip_note", claims: "bye"}
	r.Register(a, b)
	r.OnStart(a)
	r.OnMessage(a, b)
	r.OnConfirm(a, b)
	r.Fallback(func(ev Event) *Reply { return Say(ev.ChatID, "menu") })
	return r, a, b
}

func text(r *Reply) string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].Text
}

func TestDispatchCallback(t *testing.T) {
	r, a, b := newRouter()
	ctx := context.Background()

	reply := r.Dispatch(ctx, Event{UserID: 1, ChatID: 1, Data: "trip_note_5"})
	assert.Equal(t, "b", text(reply))
	assert.Equal(t, []int64{5}, b.got)
	assert.Equal(t, 1, a.interrupted)
	assert.Zero(t, b.interrupted)

	reply = r.Dispatch(ctx, Event{UserID: 1, ChatID: 1, Data: "trip_7"})
	assert.Equal(t, "a", text(reply))
	assert.Equal(t, []int64{7}, a.got)

	reply = r.Dispatch(ctx, Event{UserID: 1, ChatID: 1, Data: "trip_7_8"})
	require.NotNil(t, reply)
	assert.Empty(t, reply.Messages)

	reply = r.Dispatch(ctx, Event{UserID: 1, ChatID: 1, Data: ActionNoop})
	require.NotNil(t, reply)
	assert.Empty(t, reply.Messages)
}

func TestDispatchChains(t *testing.T) {
	r, a, _ := newRouter()
	ctx := context.Background()

	assert.Equal(t, "b", text(r.Dispatch(ctx, Event{UserID: 1, ChatID: 1, Text: "bye"})))
	assert.Equal(t, "a", text(r.Dispatch(ctx, Event{UserID: 1, ChatID: 1, Text: "hello"})))
	assert.Equal(t, unknownCommand, text(r.Dispatch(ctx, Event{UserID: 1, ChatID: 1, Text: "what"})))
	assert.Equal(t, "menu", text(r.Dispatch(ctx, Event{UserID: 1, ChatID: 1, Text: CommandStart})))

	assert.Equal(t, "a", text(r.Dispatch(ctx, Event{UserID: 1, ChatID: 1, Data: ActionYes})))
	assert.Equal(t, 1, a.confirms)
	reply := r.Dispatch(ctx, Event{UserID: 1, ChatID: 1, Data: ActionNo})
	require.NotNil(t, reply)
	assert.Empty(t, reply.Messages)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	r, _, _ := newRouter()
	assert.Panics(t, func() {
		r.Register(&probe{name: "c", prefix: "trip"})
	})
}

func TestReset(t *testing.T) {
	r, a, b := newRouter()
	r.Reset(1)
	assert.Equal(t, 1, a.resets)
	assert.Equal(t, 1, b.resets)
}

func TestIsStart(t *testing.T) {
	assert.True(t, isStart("/start"))
	assert.True(t, isStart("/start ref42"))
	assert.False(t, isStart("/started"))
}
