package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"TripBot/internal/lib/sl"
)

const unknownCommand = "Sorry, I don't understand this command 🤔"

type route struct {
	flow   string
	handle func(ctx context.Context, ev Event, ids []int64) *Reply
}

// Router hands every event to exactly one flow. Events of one user are
// serialized by the user's lock.
type Router struct {
	locks    *Locks
	flows    []Flow
	routes   map[string]route
	starters []StartHandler
	messages []MessageHandler
	confirms []ConfirmHandler
	cancels  []CancelHandler
	fallback func(ev Event) *Reply
	log      *slog.Logger
}

func NewRouter(locks *Locks, log *slog.Logger) *Router {
	return &Router{
		locks:  locks,
		routes: make(map[string]route),
		log:    log.With(sl.Module("workflow.router")),
	}
}

func routeKey(prefix string, ids int) string {
	return fmt.Sprintf("%s/%d", prefix, ids)
}

// Register adds the flow's callback routes. A duplicate route panics since it
// is a wiring mistake.
func (r *Router) Register(flows ...Flow) {
	for _, f := range flows {
		r.flows = append(r.flows, f)
		for _, rt := range f.Routes() {
			key := routeKey(rt.Prefix, rt.IDs)
			if prev, ok := r.routes[key]; ok {
				panic(fmt.Sprintf("route %s registered by %s and %s", key, prev.flow, f.Name()))
			}
			r.routes[key] = route{flow: f.Name(), handle: rt.Handle}
		}
		r.log.Debug("registered flow", slog.String("flow", f.Name()), slog.Int("routes", len(f.Routes())))
	}
}

// OnStart, OnMessage, OnConfirm and OnCancel append to ordered chains; the
// first handler returning a non-nil reply wins.
func (r *Router) OnStart(h ...StartHandler) {
	r.starters = append(r.starters, h...)
}

func (r *Router) OnMessage(h ...MessageHandler) {
	r.messages = append(r.messages, h...)
}

func (r *Router) OnConfirm(h ...ConfirmHandler) {
	r.confirms = append(r.confirms, h...)
}

func (r *Router) OnCancel(h ...CancelHandler) {
	r.cancels = append(r.cancels, h...)
}

// Fallback sets the reply for /start when no start handler answers.
func (r *Router) Fallback(f func(ev Event) *Reply) {
	r.fallback = f
}

// Dispatch never returns nil for text messages; button presses that nobody
// claims get an empty reply so the platform can acknowledge them.
func (r *Router) Dispatch(ctx context.Context, ev Event) *Reply {
	unlock := r.locks.Lock(ev.UserID)
	defer unlock()

	if ev.IsCallback() {
		if reply := r.dispatchCallback(ctx, ev); reply != nil {
			return reply
		}
		return &Reply{}
	}

	if isStart(ev.Text) {
		for _, h := range r.starters {
			if reply := h.HandleStart(ctx, ev); reply != nil {
				return reply
			}
		}
		if r.fallback != nil {
			return r.fallback(ev)
		}
	}

	for _, h := range r.messages {
		if reply := h.HandleMessage(ctx, ev); reply != nil {
			return reply
		}
	}
	return Say(ev.ChatID, unknownCommand)
}

func (r *Router) dispatchCallback(ctx context.Context, ev Event) *Reply {
	switch ev.Data {
	case ActionYes, ActionNo:
		yes := ev.Data == ActionYes
		for _, h := range r.confirms {
			if reply := h.HandleConfirm(ctx, ev, yes); reply != nil {
				return reply
			}
		}
		return nil
	case ActionCancel:
		for _, h := range r.cancels {
			if reply := h.HandleCancel(ctx, ev); reply != nil {
				return reply
			}
		}
		return nil
	case ActionNoop:
		return &Reply{}
	}

	cb, ok := ParseCallback(ev.Data)
	if !ok {
		return nil
	}
	rt, ok := r.routes[routeKey(cb.Prefix, len(cb.IDs))]
	if !ok {
		r.log.Debug("unmatched callback", sl.User(ev.UserID), slog.String("data", ev.Data))
		return nil
	}
	for _, f := range r.flows {
		if f.Name() == rt.flow {
			continue
		}
		if i, ok := f.(Interruptible); ok {
			i.Interrupt(ev.UserID)
		}
	}
	return rt.handle(ctx, ev, cb.IDs)
}

// Reset drops every in-flight session of the user.
func (r *Router) Reset(user int64) {
	unlock := r.locks.Lock(user)
	defer unlock()
	for _, f := range r.flows {
		f.Reset(user)
	}
	r.log.Info("sessions reset", sl.User(user))
}

func isStart(text string) bool {
	return text == CommandStart || strings.HasPrefix(text, CommandStart+" ")
}
