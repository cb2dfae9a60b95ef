package guide

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripBot/bot/workflow"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
	"TripBot/internal/testutil"
)

const (
	owner = int64(1)
	minor = int64(2)
)

type placesStub struct {
	mu    sync.Mutex
	calls []string
	list  []entity.Place
}

func (p *placesStub) PlacesNear(_ context.Context, city entity.City, kinds, minRate string) []entity.Place {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, city.ID+"|"+kinds+"|"+minRate)
	return p.list
}

func setup(t *testing.T) (*Flow, *testutil.Env, *placesStub, *entity.Trip) {
	t.Helper()
	env := testutil.NewEnv()
	adult, young := 30, 16
	u := env.AddUser(owner, "walker", testutil.Moscow)
	u.Age = &adult
	require.NoError(t, env.Store.SaveUser(context.Background(), u))
	m := env.AddUser(minor, "junior", testutil.Moscow)
	m.Age = &young
	require.NoError(t, env.Store.SaveUser(context.Background(), m))

	trip := env.AddTrip(owner, "Tour", []entity.City{testutil.Berlin, testutil.Paris, testutil.Berlin})
	trip.AddCompanion(minor)
	require.NoError(t, env.Store.SaveTrip(context.Background(), trip))

	stub := &placesStub{list: []entity.Place{
		{XID: "W1", Name: "Brandenburg Gate", Rate: "3h", Kinds: []string{"historic", "monuments"}, URL: "https://example.org/w1"},
	}}
	return New(env.Deps, stub), env, stub, trip
}

func press(f *Flow, user int64, prefix string, ids ...int64) *workflow.Reply {
	for _, r := range f.Routes() {
		if r.Prefix == prefix && r.IDs == len(ids) {
			ev := testutil.Press(user, workflow.BuildCallback(prefix, ids...))
			return r.Handle(context.Background(), ev, ids)
		}
	}
	panic("no route " + prefix)
}

func buttons(r *workflow.Reply) []string {
	var out []string
	for _, row := range r.Messages[0].Keyboard.Inline {
		for _, b := range row {
			out = append(out, b.Data)
		}
	}
	return out
}

func TestRoutesCoverCategories(t *testing.T) {
	f, _, _, _ := setup(t)
	assert.Len(t, f.Routes(), 2+len(entity.PlaceCategories))
}

func TestCitiesAreDistinct(t *testing.T) {
	f, _, _, trip := setup(t)
	reply := press(f, owner, shared.CmdGuide, trip.ID)
	require.Len(t, reply.Messages, 1)
	assert.Equal(t, int64(100), reply.Messages[0].EditID)
	assert.Equal(t, []string{
		workflow.BuildCallback(shared.CmdGuideCity, trip.ID, trip.Visits[0].ID),
		workflow.BuildCallback(shared.CmdGuideCity, trip.ID, trip.Visits[1].ID),
		workflow.BuildCallback(shared.CmdTrip, trip.ID),
	}, buttons(reply))
}

func TestSearchPlaces(t *testing.T) {
	f, env, stub, trip := setup(t)

	reply := press(f, owner, shared.CmdGuideCity, trip.ID, trip.Visits[0].ID)
	assert.Contains(t, buttons(reply), workflow.BuildCallback("guide_adult", trip.ID))

	reply = press(f, owner, "guide_cultural", trip.ID)
	assert.Equal(t, textSearching, testutil.LastText(reply))
	env.Queue.Run()

	require.Equal(t, []string{"DE-BE|cultural,historic,religion,architecture|3h"}, stub.calls)
	sent := env.Messenger.To(owner)
	require.Len(t, sent, 1)
	assert.Equal(t, int64(100), sent[0].EditID)
	assert.Contains(t, sent[0].Text, "Brandenburg Gate ⭐⭐⭐")
	assert.Contains(t, sent[0].Text, "https://example.org/w1")
}

func TestNothingFound(t *testing.T) {
	f, env, stub, trip := setup(t)
	stub.list = nil

	press(f, owner, shared.CmdGuideCity, trip.ID, trip.Visits[1].ID)
	press(f, owner, "guide_foods", trip.ID)
	env.Queue.Run()

	sent := env.Messenger.To(owner)
	require.Len(t, sent, 1)
	assert.Equal(t, textNothing, sent[0].Text)
}

func TestAdultSectionNeedsAge(t *testing.T) {
	f, env, stub, trip := setup(t)

	reply := press(f, minor, shared.CmdGuideCity, trip.ID, trip.Visits[0].ID)
	assert.NotContains(t, buttons(reply), workflow.BuildCallback("guide_adult", trip.ID))

	reply = press(f, minor, "guide_adult", trip.ID)
	assert.Equal(t, textAdultOnly, reply.Notice)
	assert.Zero(t, env.Queue.Pending())
	assert.Empty(t, stub.calls)
}

func TestCategoryNeedsCity(t *testing.T) {
	f, env, _, trip := setup(t)

	reply := press(f, owner, "guide_shops", trip.ID)
	assert.Equal(t, textPickFirst, reply.Notice)

	other := env.AddTrip(owner, "Other", []entity.City{testutil.Rome})
	press(f, owner, shared.CmdGuideCity, trip.ID, trip.Visits[0].ID)
	reply = press(f, owner, "guide_shops", other.ID)
	assert.Equal(t, textPickFirst, reply.Notice)
}

func TestStars(t *testing.T) {
	assert.Equal(t, "⭐⭐⭐", stars("3h"))
	assert.Equal(t, "⭐⭐⭐", stars("7"))
	assert.Equal(t, "⭐", stars("1"))
	assert.Equal(t, "", stars(""))
}
