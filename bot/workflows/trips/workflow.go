package trips

import (
	"context"
	"log/slog"

	"TripBot/bot/workflow"
	"TripBot/bot/workflow/ui"
	"TripBot/bot/workflows/shared"
	"TripBot/internal/lib/sl"
)

const FlowName = "trips"

type State int

const (
	StateNone State = iota
	StateCompanionInvite
	StateCompanionRemove
	StateArchiveTrip
	StateRenameTrip
	StateConfirmRenameTrip
)

var sequence = workflow.NewSequence(
	StateNone,
	StateCompanionInvite,
	StateCompanionRemove,
	StateArchiveTrip,
	StateRenameTrip,
	StateConfirmRenameTrip,
)

type session struct {
	TripID int64
	State  State
	Name   string
}

// Flow lists trips and manages their name, archive flag and companions.
type Flow struct {
	deps     shared.Deps
	sessions *workflow.Store[*session]
	invites  *invitations
	active   *ui.Pager
	archived *ui.Pager
	log      *slog.Logger
}

func New(deps shared.Deps) *Flow {
	return &Flow{
		deps:     deps,
		sessions: workflow.NewStore[*session](),
		invites:  newInvitations(),
		active:   ui.NewPager(shared.PageSize),
		archived: ui.NewPager(shared.PageSize),
		log:      deps.Log.With(sl.Module(FlowName)),
	}
}

func (f *Flow) Name() string {
	return FlowName
}

func (f *Flow) Routes() []workflow.Route {
	return []workflow.Route{
		{Prefix: shared.CmdTrips, Handle: f.listFirst(false)},
		{Prefix: shared.CmdTripsPrev, Handle: f.listMove(false, -1)},
		{Prefix: shared.CmdTripsNext, Handle: f.listMove(false, 1)},
		{Prefix: shared.CmdArchive, Handle: f.listFirst(true)},
		{Prefix: shared.CmdArchivePrev, Handle: f.listMove(true, -1)},
		{Prefix: shared.CmdArchiveNext, Handle: f.listMove(true, 1)},
		{Prefix: shared.CmdTrip, IDs: 1, Handle: f.handleShow},
		{Prefix: shared.CmdCompanions, IDs: 1, Handle: f.handleCompanions},
		{Prefix: shared.CmdInvite, IDs: 1, Handle: f.opener(StateCompanionInvite)},
		{Prefix: shared.CmdUninvite, IDs: 1, Handle: f.opener(StateCompanionRemove)},
		{Prefix: shared.CmdArchiveTrip, IDs: 1, Handle: f.opener(StateArchiveTrip)},
		{Prefix: shared.CmdRename, IDs: 1, Handle: f.opener(StateRenameTrip)},
	}
}

func (f *Flow) Reset(user int64) {
	f.sessions.Remove(user)
	f.invites.drop(user)
	f.active.Reset(user)
	f.archived.Reset(user)
}

// Interrupt drops an unanswered prompt about a trip. Pending invitations
// belong to the invitee and stay.
func (f *Flow) Interrupt(user int64) {
	if _, ok := f.sessions.Take(user); ok {
		f.log.Debug("trip prompt abandoned", sl.User(user))
	}
}

func (f *Flow) CurrentState(user int64) State {
	s, ok := f.sessions.Get(user)
	if !ok {
		return StateNone
	}
	return s.State
}

// opener starts a management action on a trip the user owns.
func (f *Flow) opener(state State) func(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	return func(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
		trip, reply := f.deps.LoadOwnedTrip(ctx, ev, ids[0])
		if trip == nil {
			return reply
		}
		if state == StateCompanionRemove && len(trip.Companions) == 0 {
			return workflow.Notify(textNoCompanions)
		}
		s := &session{TripID: trip.ID, State: state}
		f.sessions.Set(ev.UserID, s)
		return f.prompt(ev.ChatID, s, trip.Name)
	}
}

func (f *Flow) prompt(chatID int64, s *session, tripName string) *workflow.Reply {
	switch s.State {
	case StateCompanionInvite:
		reply := workflow.Say(chatID, textInvitePrompt, ui.UserRequestKeyboard())
		return reply.Add(chatID, textChangedMind, ui.CancelKeyboard())
	case StateCompanionRemove:
		return workflow.Say(chatID, textUninvitePrompt, ui.CancelKeyboard())
	case StateArchiveTrip:
		return workflow.Say(chatID, textArchivePrompt(tripName), ui.YesNoKeyboard())
	case StateRenameTrip:
		return workflow.Say(chatID, textRenamePrompt(tripName), ui.CancelKeyboard())
	case StateConfirmRenameTrip:
		return workflow.Say(chatID, textRenameConfirm(s.Name), ui.YesNoKeyboard())
	}
	return &workflow.Reply{}
}

func (f *Flow) HandleMessage(ctx context.Context, ev workflow.Event) *workflow.Reply {
	s, ok := f.sessions.Get(ev.UserID)
	if !ok {
		return nil
	}
	switch s.State {
	case StateCompanionInvite:
		return f.handleInvite(ctx, ev, s)
	case StateCompanionRemove:
		return f.handleUninvite(ctx, ev, s)
	case StateRenameTrip:
		return f.handleRename(ctx, ev, s)
	}
	return workflow.Say(ev.ChatID, textUseButtons)
}

// HandleConfirm answers invitations first: the pressed message decides
// whether a yes/no belongs to an invitation or to the user's own session.
func (f *Flow) HandleConfirm(ctx context.Context, ev workflow.Event, yes bool) *workflow.Reply {
	if inv, ok := f.invites.take(ev.UserID, ev.MessageID); ok {
		return f.answerInvitation(ctx, ev, inv, yes)
	}
	s, ok := f.sessions.Get(ev.UserID)
	if !ok {
		return nil
	}
	switch s.State {
	case StateArchiveTrip:
		f.sessions.Remove(ev.UserID)
		if !yes {
			return f.handleShow(ctx, ev, []int64{s.TripID})
		}
		return f.archive(ctx, ev, s)
	case StateConfirmRenameTrip:
		f.sessions.Remove(ev.UserID)
		if !yes {
			return workflow.Say(ev.ChatID, textRenameReverted).Then(f.handleShow(ctx, ev, []int64{s.TripID}))
		}
		return f.rename(ctx, ev, s)
	}
	return nil
}

func (f *Flow) HandleCancel(ctx context.Context, ev workflow.Event) *workflow.Reply {
	s, ok := f.sessions.Take(ev.UserID)
	if !ok {
		return nil
	}
	reply := workflow.Say(ev.ChatID, textCancelled, ui.RemoveKeyboard())
	if card := f.handleShow(ctx, ev, []int64{s.TripID}); card != nil {
		return reply.Then(card)
	}
	return reply.Then(shared.MainMenu(ev.ChatID))
}

func (f *Flow) archive(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply {
	trip, reply := f.deps.LoadOwnedTrip(ctx, ev, s.TripID)
	if trip == nil {
		return reply
	}
	trip.Archived = true
	if err := f.deps.Trips.SaveTrip(ctx, trip); err != nil {
		f.log.Error("archive trip", sl.User(ev.UserID), slog.Int64("trip_id", trip.ID), sl.Err(err))
		f.sessions.Set(ev.UserID, s)
		return workflow.Say(ev.ChatID, shared.TextApology, ui.YesNoKeyboard())
	}
	f.log.Info("trip archived", sl.User(ev.UserID), slog.Int64("trip_id", trip.ID))
	return workflow.Say(ev.ChatID, textArchived(trip.Name)).Then(shared.MainMenu(ev.ChatID))
}

func (f *Flow) rename(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply {
	trip, reply := f.deps.LoadOwnedTrip(ctx, ev, s.TripID)
	if trip == nil {
		return reply
	}
	trip.Name = s.Name
	if err := f.deps.Trips.SaveTrip(ctx, trip); err != nil {
		f.log.Error("rename trip", sl.User(ev.UserID), slog.Int64("trip_id", trip.ID), sl.Err(err))
		f.sessions.Set(ev.UserID, s)
		return workflow.Say(ev.ChatID, shared.TextApology, ui.YesNoKeyboard())
	}
	return workflow.Say(ev.ChatID, textRenamed).Then(f.card(ctx, ev, trip))
}
