package cityedit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"TripBot/bot/workflow"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
	"TripBot/internal/lib/sl"
)

const FlowName = "cityedit"

type State int

const (
	StateNone State = iota
	StateSelectAddLeavingDate
	StateAddLeavingDate
	StateConfirmLeavingDate
	StateSelectCityToAddAfter
	StateAddCity
	StateConfirmAddCity
	StateSelectCityToRemove
	StateConfirmRemoveCity
)

var sequence = workflow.NewSequence(
	StateNone,
	StateSelectAddLeavingDate,
	StateAddLeavingDate,
	StateConfirmLeavingDate,
	StateSelectCityToAddAfter,
	StateAddCity,
	StateConfirmAddCity,
	StateSelectCityToRemove,
	StateConfirmRemoveCity,
)

// session tracks one edit of one trip. VisitID is the selected visit: the
// one getting a date, the anchor of a new city or the one to remove.
type session struct {
	TripID  int64
	State   State
	VisitID int64
	Date    time.Time
	City    entity.City
}

// Flow edits the itinerary of an existing trip.
type Flow struct {
	deps     shared.Deps
	sessions *workflow.Store[*session]
	steps    map[State]step
	log      *slog.Logger
}

func New(deps shared.Deps) *Flow {
	f := &Flow{
		deps:     deps,
		sessions: workflow.NewStore[*session](),
		steps:    make(map[State]step),
		log:      deps.Log.With(sl.Module(FlowName)),
	}
	f.registerSteps()
	return f
}

func (f *Flow) Name() string {
	return FlowName
}

func (f *Flow) Routes() []workflow.Route {
	return []workflow.Route{
		{Prefix: shared.CmdEdit, IDs: 1, Handle: f.handleMenu},
		{Prefix: shared.CmdEditDate, IDs: 1, Handle: f.opener(StateSelectAddLeavingDate)},
		{Prefix: shared.CmdEditAddCity, IDs: 1, Handle: f.opener(StateSelectCityToAddAfter)},
		{Prefix: shared.CmdEditRmCity, IDs: 1, Handle: f.opener(StateSelectCityToRemove)},
		{Prefix: shared.CmdCity, IDs: 2, Handle: f.handleSelect},
	}
}

func (f *Flow) Reset(user int64) {
	f.sessions.Remove(user)
}

// Interrupt abandons the itinerary edit.
func (f *Flow) Interrupt(user int64) {
	if _, ok := f.sessions.Take(user); ok {
		f.log.Debug("itinerary edit abandoned", sl.User(user))
	}
}

func (f *Flow) CurrentState(user int64) State {
	s, ok := f.sessions.Get(user)
	if !ok {
		return StateNone
	}
	return s.State
}

func (f *Flow) handleMenu(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	trip, reply := f.deps.LoadOwnedTrip(ctx, ev, ids[0])
	if trip == nil {
		return reply
	}
	f.sessions.Remove(ev.UserID)
	return editMenu(ev.ChatID, trip)
}

// opener starts one of the three edits with the visit selection.
func (f *Flow) opener(state State) func(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	return func(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
		trip, reply := f.deps.LoadOwnedTrip(ctx, ev, ids[0])
		if trip == nil {
			return reply
		}
		if state == StateSelectCityToRemove && !trip.CanRemoveVisit() {
			return workflow.Notify(textLastCity)
		}
		s := &session{TripID: trip.ID, State: state}
		f.sessions.Set(ev.UserID, s)
		return f.steps[state].prompt(ev.ChatID, s, trip)
	}
}

// handleSelect takes the visit picked from the selection keyboard.
func (f *Flow) handleSelect(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	s, ok := f.sessions.Get(ev.UserID)
	if !ok || s.TripID != ids[0] {
		return nil
	}
	switch s.State {
	case StateSelectAddLeavingDate, StateSelectCityToAddAfter, StateSelectCityToRemove:
	default:
		return nil
	}
	trip, reply := f.deps.LoadOwnedTrip(ctx, ev, s.TripID)
	if trip == nil {
		return reply
	}
	if trip.VisitIndex(ids[1]) < 0 {
		return nil
	}
	s.VisitID = ids[1]
	return f.advance(ev.ChatID, s, trip, sequence.Next(s.State))
}

func (f *Flow) HandleMessage(ctx context.Context, ev workflow.Event) *workflow.Reply {
	s, ok := f.sessions.Get(ev.UserID)
	if !ok {
		return nil
	}
	st := f.steps[s.State]
	if st.handle == nil {
		return workflow.Say(ev.ChatID, textUseButtons)
	}
	trip, reply := f.deps.LoadOwnedTrip(ctx, ev, s.TripID)
	if trip == nil {
		f.sessions.Remove(ev.UserID)
		if reply == nil {
			return workflow.Say(ev.ChatID, textTripGone)
		}
		return reply
	}
	return st.handle(ctx, ev, s, trip)
}

func (f *Flow) HandleConfirm(ctx context.Context, ev workflow.Event, yes bool) *workflow.Reply {
	s, ok := f.sessions.Get(ev.UserID)
	if !ok {
		return nil
	}
	switch s.State {
	case StateConfirmLeavingDate, StateConfirmAddCity, StateConfirmRemoveCity:
	default:
		return nil
	}
	if !yes {
		trip, reply := f.deps.LoadOwnedTrip(ctx, ev, s.TripID)
		if trip == nil {
			f.sessions.Remove(ev.UserID)
			return reply
		}
		return f.advance(ev.ChatID, s, trip, sequence.Previous(s.State))
	}

	// The session is taken before the trip is touched so a repeated "yes"
	// finds nothing to commit.
	f.sessions.Remove(ev.UserID)
	trip, reply := f.deps.LoadOwnedTrip(ctx, ev, s.TripID)
	if trip == nil {
		return reply
	}
	return f.commit(ctx, ev, s, trip)
}

func (f *Flow) HandleCancel(ctx context.Context, ev workflow.Event) *workflow.Reply {
	s, ok := f.sessions.Take(ev.UserID)
	if !ok {
		return nil
	}
	trip, reply := f.deps.LoadOwnedTrip(ctx, ev, s.TripID)
	if trip == nil {
		if reply == nil {
			return shared.MainMenu(ev.ChatID)
		}
		return reply
	}
	return editMenu(ev.ChatID, trip)
}

func (f *Flow) advance(chatID int64, s *session, trip *entity.Trip, next State) *workflow.Reply {
	s.State = next
	st, ok := f.steps[next]
	if !ok {
		return &workflow.Reply{}
	}
	return st.prompt(chatID, s, trip)
}

// commit applies a confirmed edit. On a failed save the session is put back
// so the user can confirm again.
func (f *Flow) commit(ctx context.Context, ev workflow.Event, s *session, trip *entity.Trip) *workflow.Reply {
	var err error
	switch s.State {
	case StateConfirmLeavingDate:
		err = trip.SetLeavingDate(s.VisitID, s.Date)
	case StateConfirmAddCity:
		_, err = trip.InsertAfter(s.VisitID, s.City)
	case StateConfirmRemoveCity:
		err = trip.RemoveVisit(s.VisitID)
	}
	switch {
	case errors.Is(err, entity.ErrDateOrder):
		return workflow.Say(ev.ChatID, textDateOrder).Then(editMenu(ev.ChatID, trip))
	case errors.Is(err, entity.ErrLastVisit):
		return workflow.Say(ev.ChatID, textLastCity).Then(editMenu(ev.ChatID, trip))
	case err != nil:
		return editMenu(ev.ChatID, trip)
	}

	if err := f.deps.Trips.SaveTrip(ctx, trip); err != nil {
		f.log.Error("save trip", sl.User(ev.UserID), slog.Int64("trip_id", trip.ID), sl.Err(err))
		f.sessions.Set(ev.UserID, s)
		return workflow.Say(ev.ChatID, shared.TextApology).Then(f.steps[s.State].prompt(ev.ChatID, s, trip))
	}
	f.log.Info("itinerary changed",
		sl.User(ev.UserID),
		slog.Int64("trip_id", trip.ID),
		slog.Int("state", int(s.State)),
	)
	return workflow.Say(ev.ChatID, textSaved).Then(editMenu(ev.ChatID, trip))
}
