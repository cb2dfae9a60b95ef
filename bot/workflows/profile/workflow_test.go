package profile

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

const user = int64(5)

func setup(t *testing.T) (*Flow, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv()
	env.AddUser(user, "walker", testutil.Moscow)
	return New(env.Deps), env
}

func press(f *Flow, prefix string) *workflow.Reply {
	for _, r := range f.Routes() {
		if r.Prefix == prefix {
			return r.Handle(context.Background(), testutil.Press(user, prefix), nil)
		}
	}
	panic("no route " + prefix)
}

func load(t *testing.T, env *testutil.Env) *entity.User {
	t.Helper()
	u, err := env.Store.FindUser(context.Background(), user)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func TestChangeCity(t *testing.T) {
	f, env := setup(t)
	press(f, shared.CmdProfileCity)
	require.Equal(t, StateCity, f.CurrentState(user))

	f.HandleMessage(context.Background(), testutil.Text(user, "Atlantis"))
	env.Queue.Run()
	assert.Equal(t, StateCity, f.CurrentState(user))

	f.HandleMessage(context.Background(), workflow.Event{
		UserID:   user,
		ChatID:   user,
		Location: &workflow.Location{Lat: 52.5, Lon: 13.4},
	})
	env.Queue.Run()
	require.Equal(t, StateConfirmCity, f.CurrentState(user))

	f.HandleConfirm(context.Background(), testutil.Press(user, workflow.ActionNo), false)
	assert.Equal(t, StateCity, f.CurrentState(user))
	assert.Equal(t, testutil.Moscow, load(t, env).City)

	f.HandleMessage(context.Background(), testutil.Text(user, "Rome"))
	f.HandleConfirm(context.Background(), testutil.Press(user, workflow.ActionYes), true)
	assert.Equal(t, StateNone, f.CurrentState(user))
	assert.Equal(t, testutil.Rome, load(t, env).City)
}

func TestChangeAgeAndBio(t *testing.T) {
	f, env := setup(t)

	press(f, shared.CmdProfileAge)
	reply := f.HandleMessage(context.Background(), testutil.Text(user, "-1"))
	assert.Equal(t, textAgeInvalid, testutil.LastText(reply))
	f.HandleMessage(context.Background(), testutil.Text(user, "27"))
	require.NotNil(t, load(t, env).Age)
	assert.Equal(t, 27, *load(t, env).Age)

	press(f, shared.CmdProfileBio)
	f.HandleMessage(context.Background(), testutil.Text(user, "Hiker"))
	require.NotNil(t, load(t, env).Bio)

	press(f, shared.CmdProfileAge)
	f.HandleMessage(context.Background(), testutil.Text(user, "Skip"))
	assert.Nil(t, load(t, env).Age)
	assert.Equal(t, "Hiker", *load(t, env).Bio)
}

func TestSaveFailureKeepsSession(t *testing.T) {
	f, env := setup(t)
	press(f, shared.CmdProfileBio)
	env.Store.FailSaves = true
	reply := f.HandleMessage(context.Background(), testutil.Text(user, "Hi"))
	assert.Equal(t, shared.TextApology, testutil.LastText(reply))
	assert.Equal(t, StateBio, f.CurrentState(user))

	reply = f.HandleCancel(context.Background(), testutil.Press(user, workflow.ActionCancel))
	assert.Contains(t, testutil.LastText(reply), "walker")
	assert.Equal(t, StateNone, f.CurrentState(user))
}

func TestUnknownUser(t *testing.T) {
	env := testutil.NewEnv()
	f := New(env.Deps)
	reply := f.handleShow(context.Background(), testutil.Press(77, shared.CmdProfile), nil)
	assert.Equal(t, textSignUpFirst, testutil.LastText(reply))
}
