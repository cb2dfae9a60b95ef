package signup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripBot/bot/workflow"
	"TripBot/bot/workflows/shared"
	"TripBot/internal/testutil"
)

const user = int64(42)

func newFlow(t *testing.T) (*Flow, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv()
	return New(env.Deps), env
}

func start(t *testing.T, f *Flow) {
	t.Helper()
	reply := f.HandleStart(context.Background(), testutil.Text(user, workflow.CommandStart))
	require.NotNil(t, reply)
	require.Equal(t, StateUsername, f.CurrentState(user))
}

func say(f *Flow, text string) *workflow.Reply {
	return f.HandleMessage(context.Background(), testutil.Text(user, text))
}

func confirm(f *Flow, yes bool) *workflow.Reply {
	data := workflow.ActionNo
	if yes {
		data = workflow.ActionYes
	}
	return f.HandleConfirm(context.Background(), testutil.Press(user, data), yes)
}

func TestStateSequence(t *testing.T) {
	assert.Equal(t, StateNone, sequence.Previous(StateUsername))
	assert.Equal(t, StateNone, sequence.Next(StateDone))
	assert.Equal(t, StateBio, sequence.Skip(StateAge))
	assert.Equal(t, StateDone, sequence.Skip(StateBio))
	assert.Equal(t, StateNone, sequence.Skip(StateConfirmBio))

	for s := StateUsername; s < StateDone; s++ {
		assert.Equal(t, s, sequence.Previous(sequence.Next(s)))
	}
}

func TestUsernameValidation(t *testing.T) {
	f, env := newFlow(t)
	env.AddUser(7, "TakenName", testutil.Paris)
	start(t, f)

	assert.Equal(t, textUsernameShort, testutil.LastText(say(f, "abcd")))
	assert.Equal(t, StateUsername, f.CurrentState(user))

	assert.Equal(t, textUsernameLong, testutil.LastText(say(f, "a123456789012345678901234567890123")))
	assert.Equal(t, textUsernameChars, testutil.LastText(say(f, "bad name!")))
	assert.Equal(t, textUsernameChars, testutil.LastText(say(f, "пользователь")))
	assert.Equal(t, textUsernameTaken, testutil.LastText(say(f, "takenname")))
	assert.Equal(t, StateUsername, f.CurrentState(user))

	say(f, "abcde")
	assert.Equal(t, StateConfirmUsername, f.CurrentState(user))

	confirm(f, false)
	assert.Equal(t, StateUsername, f.CurrentState(user))
	s, _ := f.sessions.Get(user)
	assert.Empty(t, s.Handle)
}

func TestFullSignup(t *testing.T) {
	f, env := newFlow(t)
	start(t, f)

	say(f, "alice1")
	confirm(f, true)
	require.Equal(t, StateLocation, f.CurrentState(user))

	say(f, "Berlin")
	require.Equal(t, StateConfirmLocation, f.CurrentState(user))
	confirm(f, true)
	require.Equal(t, StateAge, f.CurrentState(user))

	say(f, "Skip")
	require.Equal(t, StateBio, f.CurrentState(user))

	say(f, "I like trains")
	require.Equal(t, StateConfirmBio, f.CurrentState(user))
	reply := confirm(f, true)
	require.NotNil(t, reply)
	assert.Equal(t, StateNone, f.CurrentState(user))
	assert.Equal(t, shared.MainMenu(user).Messages[0].Text, testutil.LastText(reply))

	u, err := env.Store.FindUser(context.Background(), user)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "alice1", u.Handle)
	assert.Equal(t, testutil.Berlin, u.City)
	assert.Nil(t, u.Age)
	require.NotNil(t, u.Bio)
	assert.Equal(t, "I like trains", *u.Bio)

	// A second "yes" finds no session.
	assert.Nil(t, confirm(f, true))
}

func TestAgeAndBioSkip(t *testing.T) {
	f, env := newFlow(t)
	start(t, f)
	say(f, "bobby")
	confirm(f, true)
	say(f, "Rome")
	confirm(f, true)

	assert.Equal(t, textAgeInvalid, testutil.LastText(say(f, "150")))
	assert.Equal(t, textAgeInvalid, testutil.LastText(say(f, "old")))
	say(f, "30")
	require.Equal(t, StateConfirmAge, f.CurrentState(user))
	confirm(f, false)
	require.Equal(t, StateAge, f.CurrentState(user))
	say(f, "31")
	confirm(f, true)

	say(f, "skip")
	assert.Equal(t, StateNone, f.CurrentState(user))

	u, _ := env.Store.FindUser(context.Background(), user)
	require.NotNil(t, u)
	require.NotNil(t, u.Age)
	assert.Equal(t, 31, *u.Age)
	assert.Nil(t, u.Bio)
}

func TestLocationResolvedInBackground(t *testing.T) {
	f, env := newFlow(t)
	start(t, f)
	say(f, "alice1")
	confirm(f, true)

	reply := say(f, "Atlantis")
	assert.Equal(t, shared.TextResolving, testutil.LastText(reply))
	env.Queue.Run()
	assert.Equal(t, StateLocation, f.CurrentState(user))
	sent := env.Messenger.To(user)
	require.NotEmpty(t, sent)
	assert.Equal(t, shared.TextUnknownCity, sent[len(sent)-1].Text)

	say(f, "Nice")
	assert.Equal(t, StateLocation, f.CurrentState(user))
	env.Queue.Run()
	assert.Equal(t, StateConfirmLocation, f.CurrentState(user))
	s, _ := f.sessions.Get(user)
	assert.Equal(t, testutil.Nice, s.City)
}

func TestStaleLocationIsDropped(t *testing.T) {
	f, env := newFlow(t)
	start(t, f)
	say(f, "alice1")
	confirm(f, true)

	say(f, "Nice")
	f.Reset(user)
	start(t, f)
	env.Queue.Run()

	assert.Equal(t, StateUsername, f.CurrentState(user))
	assert.Empty(t, env.Messenger.Messages())
}

func TestSaveFailureKeepsSession(t *testing.T) {
	f, env := newFlow(t)
	start(t, f)
	say(f, "alice1")
	confirm(f, true)
	say(f, "Paris")
	confirm(f, true)
	say(f, "Skip")
	say(f, "Hello there")

	env.Store.FailSaves = true
	reply := confirm(f, true)
	assert.Equal(t, shared.TextApology, testutil.LastText(reply))
	assert.Equal(t, StateConfirmBio, f.CurrentState(user))

	env.Store.FailSaves = false
	confirm(f, true)
	assert.Equal(t, StateNone, f.CurrentState(user))
	exists, _ := env.Store.UserExists(context.Background(), user)
	assert.True(t, exists)
}

func TestSkippedBioSurvivesFailedSave(t *testing.T) {
	f, env := newFlow(t)
	start(t, f)
	say(f, "alice1")
	confirm(f, true)
	say(f, "Paris")
	confirm(f, true)
	say(f, "Skip")

	env.Store.FailSaves = true
	reply := say(f, "Skip")
	assert.Equal(t, shared.TextApology, testutil.LastText(reply))
	require.Equal(t, StateConfirmBio, f.CurrentState(user))

	var again *workflow.Reply
	require.NotPanics(t, func() {
		again = f.HandleStart(context.Background(), testutil.Text(user, workflow.CommandStart))
	})
	assert.Contains(t, testutil.LastText(again), textNoBio)
	require.NotPanics(t, func() {
		again = say(f, "hello")
	})
	assert.Contains(t, testutil.LastText(again), textNoBio)

	env.Store.FailSaves = false
	confirm(f, true)
	assert.Equal(t, StateNone, f.CurrentState(user))
	saved, err := env.Store.FindUser(context.Background(), user)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Nil(t, saved.Bio)
	assert.Nil(t, saved.Age)
}

func TestStartIsIdempotent(t *testing.T) {
	f, env := newFlow(t)
	env.AddUser(user, "already", testutil.Rome)
	assert.Nil(t, f.HandleStart(context.Background(), testutil.Text(user, workflow.CommandStart)))
	assert.Nil(t, say(f, "hello"))

	f2, _ := newFlow(t)
	start(t, f2)
	say(f2, "alice1")
	reply := f2.HandleStart(context.Background(), testutil.Text(user, workflow.CommandStart))
	assert.Equal(t, StateConfirmUsername, f2.CurrentState(user))
	assert.Contains(t, testutil.LastText(reply), "alice1")
}
