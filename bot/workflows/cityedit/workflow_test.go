package cityedit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripBot/bot/workflow"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
	"TripBot/internal/testutil"
)

const owner = int64(1)

type fixture struct {
	f    *Flow
	env  *testutil.Env
	trip *entity.Trip
}

func newFixture(t *testing.T, cities []entity.City) *fixture {
	t.Helper()
	env := testutil.NewEnv()
	env.AddUser(owner, "owner1", testutil.Moscow)
	trip := env.AddTrip(owner, "Trip", cities,
		testutil.Day(2030, 2, 1),
		testutil.Day(2030, 2, 5),
		testutil.Day(2030, 2, 10),
	)
	return &fixture{f: New(env.Deps), env: env, trip: trip}
}

func (fx *fixture) press(prefix string, ids ...int64) *workflow.Reply {
	return fx.pressAs(owner, prefix, ids...)
}

func (fx *fixture) pressAs(user int64, prefix string, ids ...int64) *workflow.Reply {
	for _, r := range fx.f.Routes() {
		if r.Prefix == prefix && r.IDs == len(ids) {
			return r.Handle(context.Background(), testutil.Press(user, workflow.BuildCallback(prefix, ids...)), ids)
		}
	}
	panic("no route " + prefix)
}

func (fx *fixture) say(text string) *workflow.Reply {
	return fx.f.HandleMessage(context.Background(), testutil.Text(owner, text))
}

func (fx *fixture) confirm(yes bool) *workflow.Reply {
	return fx.f.HandleConfirm(context.Background(), testutil.Press(owner, workflow.ActionYes), yes)
}

func (fx *fixture) stored(t *testing.T) *entity.Trip {
	t.Helper()
	trip, err := fx.env.Store.FindTrip(context.Background(), fx.trip.ID)
	require.NoError(t, err)
	require.NotNil(t, trip)
	return trip
}

func threeCities() []entity.City {
	return []entity.City{testutil.Berlin, testutil.Paris, testutil.Rome}
}

func TestMiddleDateMustFit(t *testing.T) {
	fx := newFixture(t, threeCities())
	middle := fx.trip.Visits[1].ID

	fx.press(shared.CmdEditDate, fx.trip.ID)
	require.Equal(t, StateSelectAddLeavingDate, fx.f.CurrentState(owner))
	fx.press(shared.CmdCity, fx.trip.ID, middle)
	require.Equal(t, StateAddLeavingDate, fx.f.CurrentState(owner))

	assert.Equal(t, textDateOrder, testutil.LastText(fx.say("31.01.2030")))
	assert.Equal(t, textDateOrder, testutil.LastText(fx.say("11.02.2030")))
	assert.Equal(t, textBadDate, testutil.LastText(fx.say("soon")))
	require.Equal(t, StateAddLeavingDate, fx.f.CurrentState(owner))

	fx.say("03.02.2030")
	require.Equal(t, StateConfirmLeavingDate, fx.f.CurrentState(owner))
	fx.confirm(true)
	assert.Nil(t, fx.confirm(true))

	trip := fx.stored(t)
	require.NotNil(t, trip.Visits[1].LeavingDate)
	assert.Equal(t, testutil.Day(2030, 2, 3), *trip.Visits[1].LeavingDate)
	assert.Equal(t, StateNone, fx.f.CurrentState(owner))
}

func TestDateBoundariesAreInclusive(t *testing.T) {
	fx := newFixture(t, threeCities())
	fx.press(shared.CmdEditDate, fx.trip.ID)
	fx.press(shared.CmdCity, fx.trip.ID, fx.trip.Visits[1].ID)

	fx.say("01.02.2030")
	assert.Equal(t, StateConfirmLeavingDate, fx.f.CurrentState(owner))
	fx.confirm(false)
	assert.Equal(t, StateAddLeavingDate, fx.f.CurrentState(owner))
	fx.say("10.02.2030")
	assert.Equal(t, StateConfirmLeavingDate, fx.f.CurrentState(owner))
}

func TestRemoveKeepsOneCity(t *testing.T) {
	fx := newFixture(t, []entity.City{testutil.Berlin, testutil.Paris})

	fx.press(shared.CmdEditRmCity, fx.trip.ID)
	fx.press(shared.CmdCity, fx.trip.ID, fx.trip.Visits[0].ID)
	require.Equal(t, StateConfirmRemoveCity, fx.f.CurrentState(owner))
	fx.confirm(false)
	require.Equal(t, StateSelectCityToRemove, fx.f.CurrentState(owner))
	fx.press(shared.CmdCity, fx.trip.ID, fx.trip.Visits[0].ID)
	fx.confirm(true)

	trip := fx.stored(t)
	require.Len(t, trip.Visits, 1)
	assert.Equal(t, testutil.Paris, trip.Visits[0].City)
	require.NotNil(t, trip.LeavingDate)
	assert.Equal(t, testutil.Day(2030, 2, 5), *trip.LeavingDate)

	reply := fx.press(shared.CmdEditRmCity, fx.trip.ID)
	assert.Equal(t, textLastCity, reply.Notice)
	assert.Equal(t, StateNone, fx.f.CurrentState(owner))
	assert.Len(t, fx.stored(t).Visits, 1)
}

func TestAddCityAfterAnchor(t *testing.T) {
	fx := newFixture(t, threeCities())
	anchor := fx.trip.Visits[0].ID

	fx.press(shared.CmdEditAddCity, fx.trip.ID)
	fx.press(shared.CmdCity, fx.trip.ID, anchor)
	require.Equal(t, StateAddCity, fx.f.CurrentState(owner))

	assert.Equal(t, textSameCity, testutil.LastText(fx.say("Berlin")))
	fx.say("Nice")
	fx.env.Queue.Run()
	require.Equal(t, StateConfirmAddCity, fx.f.CurrentState(owner))
	fx.confirm(true)

	trip := fx.stored(t)
	require.Len(t, trip.Visits, 4)
	assert.Equal(t, []entity.City{testutil.Berlin, testutil.Nice, testutil.Paris, testutil.Rome}, trip.Cities())
	assert.Nil(t, trip.Visits[1].LeavingDate)
}

func TestOnlyOwnerEdits(t *testing.T) {
	fx := newFixture(t, threeCities())
	companion := int64(2)
	fx.trip.AddCompanion(companion)
	require.NoError(t, fx.env.Store.SaveTrip(context.Background(), fx.trip))

	reply := fx.pressAs(companion, shared.CmdEdit, fx.trip.ID)
	require.NotNil(t, reply)
	assert.NotEmpty(t, reply.Notice)
	assert.Empty(t, reply.Messages)

	fx.trip.Archived = true
	require.NoError(t, fx.env.Store.SaveTrip(context.Background(), fx.trip))
	reply = fx.press(shared.CmdEditDate, fx.trip.ID)
	assert.NotEmpty(t, reply.Notice)
	assert.Equal(t, StateNone, fx.f.CurrentState(owner))
}

func TestStaleSelectionAndCancel(t *testing.T) {
	fx := newFixture(t, threeCities())

	assert.Nil(t, fx.press(shared.CmdCity, fx.trip.ID, fx.trip.Visits[0].ID))
	assert.Nil(t, fx.press(shared.CmdEdit, 999))

	fx.press(shared.CmdEditDate, fx.trip.ID)
	assert.Nil(t, fx.press(shared.CmdCity, 999, fx.trip.Visits[0].ID))
	assert.Nil(t, fx.press(shared.CmdCity, fx.trip.ID, 999))

	reply := fx.f.HandleCancel(context.Background(), testutil.Press(owner, workflow.ActionCancel))
	require.NotNil(t, reply)
	assert.Contains(t, testutil.LastText(reply), "Editing")
	assert.Equal(t, StateNone, fx.f.CurrentState(owner))
	assert.Nil(t, fx.say("01.03.2030"))
}

func TestSaveFailureKeepsConfirmation(t *testing.T) {
	fx := newFixture(t, threeCities())
	fx.press(shared.CmdEditRmCity, fx.trip.ID)
	fx.press(shared.CmdCity, fx.trip.ID, fx.trip.Visits[2].ID)

	fx.env.Store.FailSaves = true
	fx.confirm(true)
	assert.Equal(t, StateConfirmRemoveCity, fx.f.CurrentState(owner))
	assert.Len(t, fx.stored(t).Visits, 3)

	fx.env.Store.FailSaves = false
	fx.confirm(true)
	assert.Len(t, fx.stored(t).Visits, 2)
}
