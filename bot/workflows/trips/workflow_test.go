package trips

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripBot/bot/workflow"
	"TripBot/bot/workflow/ui"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
	"TripBot/internal/testutil"
)

const (
	owner  = int64(1)
	friend = int64(2)
)

type fixture struct {
	f    *Flow
	env  *testutil.Env
	trip *entity.Trip
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := testutil.NewEnv()
	env.AddUser(owner, "owner1", testutil.Moscow)
	env.AddUser(friend, "friend2", testutil.Berlin)
	trip := env.AddTrip(owner, "Euro Trip", []entity.City{testutil.Berlin, testutil.Paris}, testutil.Day(2030, 2, 1))
	return &fixture{f: New(env.Deps), env: env, trip: trip}
}

func (fx *fixture) press(user int64, prefix string, ids ...int64) *workflow.Reply {
	for _, r := range fx.f.Routes() {
		if r.Prefix == prefix && r.IDs == len(ids) {
			return r.Handle(context.Background(), testutil.Press(user, workflow.BuildCallback(prefix, ids...)), ids)
		}
	}
	panic("no route " + prefix)
}

func (fx *fixture) say(user int64, text string) *workflow.Reply {
	return fx.f.HandleMessage(context.Background(), testutil.Text(user, text))
}

func (fx *fixture) answer(user, messageID int64, yes bool) *workflow.Reply {
	ev := testutil.Press(user, workflow.ActionNo)
	if yes {
		ev.Data = workflow.ActionYes
	}
	ev.MessageID = messageID
	return fx.f.HandleConfirm(context.Background(), ev, yes)
}

func (fx *fixture) stored(t *testing.T) *entity.Trip {
	t.Helper()
	trip, err := fx.env.Store.FindTrip(context.Background(), fx.trip.ID)
	require.NoError(t, err)
	require.NotNil(t, trip)
	return trip
}

func TestInviteRejections(t *testing.T) {
	fx := newFixture(t)
	fx.press(owner, shared.CmdInvite, fx.trip.ID)
	require.Equal(t, StateCompanionInvite, fx.f.CurrentState(owner))

	assert.Equal(t, textInviteSelf, testutil.LastText(fx.say(owner, "owner1")))
	assert.Equal(t, textNoSuchUser, testutil.LastText(fx.say(owner, "nobody")))

	trip := fx.stored(t)
	trip.AddCompanion(friend)
	require.NoError(t, fx.env.Store.SaveTrip(context.Background(), trip))
	assert.Equal(t, textAlreadyMember, testutil.LastText(fx.say(owner, "@Friend2")))

	assert.Empty(t, fx.env.Messenger.Messages())
	assert.Equal(t, 0, fx.f.invites.count(friend))
	assert.Equal(t, StateCompanionInvite, fx.f.CurrentState(owner))
}

func TestInviteAcceptedOnce(t *testing.T) {
	fx := newFixture(t)
	fx.press(owner, shared.CmdInvite, fx.trip.ID)
	fx.say(owner, "friend2")
	assert.Equal(t, StateNone, fx.f.CurrentState(owner))

	sent := fx.env.Messenger.To(friend)
	require.Len(t, sent, 1)
	assert.Equal(t, 1, fx.f.invites.count(friend))

	// A second invitation to the same trip is refused while one is open.
	fx.press(owner, shared.CmdInvite, fx.trip.ID)
	assert.Equal(t, textAlreadyInvited, testutil.LastText(fx.say(owner, "friend2")))
	fx.f.HandleCancel(context.Background(), testutil.Press(owner, workflow.ActionCancel))

	// Pressing yes on some other message does not touch the invitation.
	assert.Nil(t, fx.answer(friend, 999, true))

	messageID := int64(1)
	reply := fx.answer(friend, messageID, true)
	require.NotNil(t, reply)
	chats := map[int64]bool{}
	for _, m := range reply.Messages {
		chats[m.ChatID] = true
	}
	assert.Equal(t, map[int64]bool{owner: true, friend: true}, chats)

	assert.Nil(t, fx.answer(friend, messageID, true))
	trip := fx.stored(t)
	assert.Equal(t, []int64{friend}, trip.Companions)
	assert.Equal(t, 0, fx.f.invites.count(friend))
}

func TestInviteDeclined(t *testing.T) {
	fx := newFixture(t)
	fx.press(owner, shared.CmdInvite, fx.trip.ID)
	fx.say(owner, "friend2")

	reply := fx.answer(friend, 1, false)
	require.Len(t, reply.Messages, 2)
	assert.Equal(t, friend, reply.Messages[0].ChatID)
	assert.Equal(t, owner, reply.Messages[1].ChatID)
	assert.Empty(t, fx.stored(t).Companions)
}

func TestRemoveCompanion(t *testing.T) {
	fx := newFixture(t)
	reply := fx.press(owner, shared.CmdUninvite, fx.trip.ID)
	assert.Equal(t, textNoCompanions, reply.Notice)

	trip := fx.stored(t)
	trip.AddCompanion(friend)
	require.NoError(t, fx.env.Store.SaveTrip(context.Background(), trip))

	fx.press(owner, shared.CmdUninvite, fx.trip.ID)
	assert.Equal(t, textNotCompanion, testutil.LastText(fx.say(owner, "owner1")))
	reply = fx.say(owner, "friend2")
	assert.Equal(t, friend, reply.Messages[1].ChatID)
	assert.Empty(t, fx.stored(t).Companions)
	assert.Equal(t, StateNone, fx.f.CurrentState(owner))
}

func TestRename(t *testing.T) {
	fx := newFixture(t)
	fx.press(owner, shared.CmdRename, fx.trip.ID)
	assert.Equal(t, textNameInvalid, testutil.LastText(fx.say(owner, "   ")))
	fx.say(owner, "Alps")
	require.Equal(t, StateConfirmRenameTrip, fx.f.CurrentState(owner))
	fx.answer(owner, 100, false)
	assert.Equal(t, "Euro Trip", fx.stored(t).Name)

	fx.press(owner, shared.CmdRename, fx.trip.ID)
	fx.say(owner, "Alps")
	fx.answer(owner, 100, true)
	assert.Nil(t, fx.answer(owner, 100, true))
	assert.Equal(t, "Alps", fx.stored(t).Name)
	assert.Equal(t, StateNone, fx.f.CurrentState(owner))
}

func TestArchive(t *testing.T) {
	fx := newFixture(t)
	trip := fx.stored(t)
	trip.AddCompanion(friend)
	require.NoError(t, fx.env.Store.SaveTrip(context.Background(), trip))

	assert.NotEmpty(t, fx.press(friend, shared.CmdArchiveTrip, fx.trip.ID).Notice)

	fx.press(owner, shared.CmdArchiveTrip, fx.trip.ID)
	fx.answer(owner, 100, true)
	assert.True(t, fx.stored(t).Archived)

	reply := fx.press(owner, shared.CmdRename, fx.trip.ID)
	assert.Equal(t, shared.TextArchived, reply.Notice)
	assert.Equal(t, StateNone, fx.f.CurrentState(owner))

	reply = fx.press(friend, shared.CmdArchive)
	assert.Contains(t, testutil.LastText(reply), "Archived trips")
	reply = fx.press(friend, shared.CmdTrips)
	assert.Equal(t, textNoTrips, testutil.LastText(reply))
}

func TestListPaging(t *testing.T) {
	fx := newFixture(t)
	for i := 2; i <= 7; i++ {
		fx.env.AddTrip(owner, fmt.Sprintf("Trip %d", i), []entity.City{testutil.Rome}, testutil.Day(2030, 3, i))
	}

	reply := fx.press(owner, shared.CmdTrips)
	assert.Contains(t, testutil.LastText(reply), "page 1 of 3")

	fx.press(owner, shared.CmdTripsNext)
	reply = fx.press(owner, shared.CmdTripsNext)
	assert.Contains(t, testutil.LastText(reply), "page 3 of 3")
	assert.Equal(t, int64(100), reply.Messages[0].EditID)

	reply = fx.press(owner, shared.CmdTripsNext)
	assert.Equal(t, ui.PageMissing, reply.Notice)
	assert.Equal(t, 2, fx.f.active.Current(owner))

	fx.press(owner, shared.CmdTripsPrev)
	fx.press(owner, shared.CmdTripsPrev)
	reply = fx.press(owner, shared.CmdTripsPrev)
	assert.Equal(t, ui.PageMissing, reply.Notice)
	assert.Equal(t, 0, fx.f.active.Current(owner))

	reply = fx.press(friend, shared.CmdTrips)
	assert.Equal(t, textNoTrips, testutil.LastText(reply))
	assert.Equal(t, ui.PageMissing, fx.press(friend, shared.CmdTripsNext).Notice)
}

func TestShowTrip(t *testing.T) {
	fx := newFixture(t)
	assert.Nil(t, fx.press(owner, shared.CmdTrip, 404))
	assert.Equal(t, shared.TextNotMember, fx.press(friend, shared.CmdTrip, fx.trip.ID).Notice)

	reply := fx.press(owner, shared.CmdTrip, fx.trip.ID)
	require.Len(t, reply.Messages, 1)
	assert.Contains(t, reply.Messages[0].Text, "Euro Trip")
	assert.Nil(t, reply.Messages[0].Media)
}
