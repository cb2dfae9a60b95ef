package trips

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"TripBot/bot/workflow"
	"TripBot/bot/workflow/ui"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
	"TripBot/internal/lib/sl"
	"TripBot/internal/lib/validate"
)

const (
	textUseButtons     = "Please use the buttons below."
	textCancelled      = "Cancelled."
	textChangedMind    = "Changed your mind?"
	textNoCompanions   = "This trip has no companions yet."
	textInvitePrompt   = "Send the username of your companion or choose them from your contacts."
	textUninvitePrompt = "Send the username of the companion to remove."
	textNoSuchUser     = "I don't know such a user 🤷 They have to start the bot first."
	textInviteSelf     = "You can't invite yourself 🙂"
	textAlreadyMember  = "This user is already in the trip."
	textAlreadyInvited = "This user already has an invitation to the trip."
	textNotCompanion   = "This user is not a companion of the trip."
	textNameInvalid    = "The name must be 1 to 100 characters long."
	textRenamed        = "The trip is renamed ✅"
	textRenameReverted = "The name is left as it was."
	textTripGone       = "This trip is no longer available."
	textDeclinedSelf   = "Invitation declined."
)

func textArchivePrompt(name string) string {
	return fmt.Sprintf("Archive \"%s\"? Archived trips can't be changed any more.", name)
}

func textArchived(name string) string {
	return fmt.Sprintf("\"%s\" is in the archive now 🗄", name)
}

func textRenamePrompt(name string) string {
	return fmt.Sprintf("Send a new name for \"%s\".", name)
}

func textRenameConfirm(name string) string {
	return fmt.Sprintf("Rename the trip to \"%s\"?", name)
}

func textInvitation(inviter, trip string) string {
	return fmt.Sprintf("%s invites you to the trip \"%s\". Join?", inviter, trip)
}

// findUser resolves the target of a companion action from a shared contact or
// a typed handle.
func (f *Flow) findUser(ctx context.Context, ev workflow.Event) (*entity.User, error) {
	if ev.SharedUserID != 0 {
		return f.deps.Users.FindUser(ctx, ev.SharedUserID)
	}
	handle := strings.TrimPrefix(strings.TrimSpace(ev.Text), "@")
	if handle == "" {
		return nil, nil
	}
	return f.deps.Users.FindUserByHandle(ctx, handle)
}

func (f *Flow) handleInvite(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply {
	trip, reply := f.deps.LoadOwnedTrip(ctx, ev, s.TripID)
	if trip == nil {
		f.sessions.Remove(ev.UserID)
		if reply == nil {
			return workflow.Say(ev.ChatID, textTripGone, ui.RemoveKeyboard())
		}
		return reply
	}
	invitee, err := f.findUser(ctx, ev)
	if err != nil {
		f.log.Error("find invitee", sl.User(ev.UserID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	switch {
	case invitee == nil:
		return workflow.Say(ev.ChatID, textNoSuchUser)
	case invitee.ID == ev.UserID:
		return workflow.Say(ev.ChatID, textInviteSelf)
	case trip.IsMember(invitee.ID):
		return workflow.Say(ev.ChatID, textAlreadyMember)
	case f.invites.has(invitee.ID, trip.ID):
		return workflow.Say(ev.ChatID, textAlreadyInvited)
	}

	inviter, err := f.deps.Users.FindUser(ctx, ev.UserID)
	if err != nil || inviter == nil {
		f.log.Error("load inviter", sl.User(ev.UserID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	sent, err := f.deps.Async.Messenger().Send(ctx, workflow.Message{
		ChatID:   invitee.ID,
		Text:     textInvitation(inviter.Handle, trip.Name),
		Keyboard: ui.YesNoKeyboard(),
	})
	if err != nil {
		f.log.Error("send invitation", sl.User(ev.UserID), slog.Int64("invitee", invitee.ID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	inv := invitation{
		ID:        uuid.New(),
		TripID:    trip.ID,
		InviterID: ev.UserID,
		MessageID: sent.MessageID,
		CreatedAt: f.deps.Now(),
	}
	f.invites.add(invitee.ID, inv)
	f.sessions.Remove(ev.UserID)
	f.log.Info("invitation sent",
		sl.User(ev.UserID),
		slog.Int64("invitee", invitee.ID),
		slog.Int64("trip_id", trip.ID),
		slog.String("invitation", inv.ID.String()),
	)
	reply = workflow.Say(ev.ChatID, fmt.Sprintf("Invitation sent to %s ✉️", invitee.Handle), ui.RemoveKeyboard())
	return reply.Then(f.companions(ctx, ev, trip))
}

// answerInvitation runs for the invitee. The invitation is already taken,
// so a repeated answer finds nothing.
func (f *Flow) answerInvitation(ctx context.Context, ev workflow.Event, inv invitation, yes bool) *workflow.Reply {
	log := f.log.With(sl.User(ev.UserID), slog.String("invitation", inv.ID.String()))
	trip, err := f.deps.Trips.FindTrip(ctx, inv.TripID)
	if err != nil {
		log.Error("load trip", sl.Err(err))
		f.invites.add(ev.UserID, inv)
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	if trip == nil || trip.Archived {
		return workflow.Say(ev.ChatID, textTripGone)
	}
	invitee, err := f.deps.Users.FindUser(ctx, ev.UserID)
	if err != nil || invitee == nil {
		log.Error("load invitee", sl.Err(err))
		f.invites.add(ev.UserID, inv)
		return workflow.Say(ev.ChatID, shared.TextApology)
	}

	if !yes {
		log.Info("invitation declined")
		reply := workflow.Say(ev.ChatID, textDeclinedSelf)
		return reply.Add(inv.InviterID, fmt.Sprintf("%s declined the invitation to \"%s\".", invitee.Handle, trip.Name))
	}

	if !trip.AddCompanion(ev.UserID) {
		return workflow.Say(ev.ChatID, textAlreadyMember)
	}
	if err := f.deps.Trips.SaveTrip(ctx, trip); err != nil {
		log.Error("add companion", sl.Err(err))
		f.invites.add(ev.UserID, inv)
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	log.Info("companion joined", slog.Int64("trip_id", trip.ID))

	reply := &workflow.Reply{}
	for _, member := range trip.Members() {
		if member == ev.UserID {
			reply.Add(member, fmt.Sprintf("You joined \"%s\" 🎉", trip.Name), ui.Inline(
				ui.Row(ui.Btn("🧳 Open trip", workflow.BuildCallback(shared.CmdTrip, trip.ID))),
			))
			continue
		}
		reply.Add(member, fmt.Sprintf("%s joined \"%s\" 🎉", invitee.Handle, trip.Name))
	}
	return reply
}

func (f *Flow) handleUninvite(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply {
	trip, reply := f.deps.LoadOwnedTrip(ctx, ev, s.TripID)
	if trip == nil {
		f.sessions.Remove(ev.UserID)
		if reply == nil {
			return workflow.Say(ev.ChatID, textTripGone)
		}
		return reply
	}
	target, err := f.findUser(ctx, ev)
	if err != nil {
		f.log.Error("find companion", sl.User(ev.UserID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	if target == nil || !trip.RemoveCompanion(target.ID) {
		return workflow.Say(ev.ChatID, textNotCompanion)
	}
	if err := f.deps.Trips.SaveTrip(ctx, trip); err != nil {
		f.log.Error("remove companion", sl.User(ev.UserID), slog.Int64("trip_id", trip.ID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	f.sessions.Remove(ev.UserID)
	f.log.Info("companion removed", sl.User(ev.UserID), slog.Int64("companion", target.ID), slog.Int64("trip_id", trip.ID))

	reply = workflow.Say(ev.ChatID, fmt.Sprintf("%s is no longer in the trip.", target.Handle))
	reply.Add(target.ID, fmt.Sprintf("You were removed from the trip \"%s\".", trip.Name))
	return reply.Then(f.companions(ctx, ev, trip))
}

func (f *Flow) handleRename(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply {
	name := strings.TrimSpace(ev.Text)
	if err := validate.Var(name, entity.TripNameRules); err != nil {
		return workflow.Say(ev.ChatID, textNameInvalid)
	}
	s.Name = name
	s.State = sequence.Next(s.State)
	return f.prompt(ev.ChatID, s, name)
}
