package weather

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripBot/bot/workflow"
	"TripBot/bot/workflow/ui"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
	"TripBot/internal/testutil"
)

const (
	owner    = int64(1)
	stranger = int64(2)
)

// sky answers a sunny day for every request and keeps what it was asked.
type sky struct {
	mu      sync.Mutex
	horizon time.Time
	asked   map[string]time.Time
}

func (s *sky) ForecastFor(_ context.Context, city entity.City, date time.Time) entity.Forecast {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked[city.ID] = date
	return entity.Forecast{City: city, Date: s.Clamp(date), Code: entity.WeatherCodeOf(0), TemperatureMax: 21, TemperatureMin: 12, Humidity: 40}
}

func (s *sky) Clamp(date time.Time) time.Time {
	if date.After(s.horizon) {
		return s.horizon
	}
	return date
}

func setup(t *testing.T) (*Flow, *testutil.Env, *sky) {
	t.Helper()
	env := testutil.NewEnv()
	env.AddUser(owner, "walker", testutil.Moscow)
	env.AddUser(stranger, "outsider", testutil.Moscow)
	s := &sky{horizon: env.Now.AddDate(0, 0, 15), asked: map[string]time.Time{}}
	return New(env.Deps, s), env, s
}

func press(f *Flow, user int64, prefix string, tripID int64) *workflow.Reply {
	for _, r := range f.Routes() {
		if r.Prefix == prefix {
			ev := testutil.Press(user, workflow.BuildCallback(prefix, tripID))
			return r.Handle(context.Background(), ev, []int64{tripID})
		}
	}
	panic("no route " + prefix)
}

func TestArrivals(t *testing.T) {
	today := testutil.Day(2030, 1, 10)
	d1 := testutil.Day(2030, 1, 12)
	trip := entity.NewTrip(owner, "Loop", []entity.City{testutil.Berlin, testutil.Paris, testutil.Rome}, []time.Time{d1})

	stops := arrivals(trip, today)
	require.Len(t, stops, 3)
	assert.Equal(t, d1, stops[0].Arrival)
	assert.Equal(t, d1, stops[1].Arrival)
	assert.False(t, stops[1].Inherited)
	assert.Equal(t, d1, stops[2].Arrival)
	assert.True(t, stops[2].Inherited)

	undated := entity.NewTrip(owner, "Later", []entity.City{testutil.Berlin}, nil)
	assert.Equal(t, today, arrivals(undated, today)[0].Arrival)
}

func TestForecastPages(t *testing.T) {
	f, env, s := setup(t)
	trip := env.AddTrip(owner, "Grand tour",
		[]entity.City{testutil.Berlin, testutil.Paris, testutil.Rome, testutil.Moscow},
		testutil.Day(2030, 1, 12), testutil.Day(2030, 1, 14), testutil.Day(2030, 1, 16), testutil.Day(2030, 1, 18),
	)

	reply := press(f, owner, shared.CmdWeather, trip.ID)
	assert.Equal(t, textLooking, testutil.LastText(reply))
	require.Equal(t, 1, env.Queue.Pending())
	env.Queue.Run()

	sent := env.Messenger.To(owner)
	require.Len(t, sent, 1)
	text := sent[0].Text
	assert.Contains(t, text, "Berlin")
	assert.Contains(t, text, "Paris")
	assert.Contains(t, text, "Rome")
	assert.NotContains(t, text, "Moscow")
	assert.Equal(t, testutil.Day(2030, 1, 12), s.asked[testutil.Paris.ID])
	require.NotEmpty(t, sent[0].Keyboard.Inline)
	assert.Len(t, sent[0].Keyboard.Inline[0], 3)

	press(f, owner, shared.CmdWeatherNext, trip.ID)
	env.Queue.Run()
	sent = env.Messenger.To(owner)
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1].Text, "Moscow")
	assert.NotContains(t, sent[1].Text, "Berlin")

	reply = press(f, owner, shared.CmdWeatherNext, trip.ID)
	assert.Equal(t, ui.PageMissing, reply.Notice)
	assert.Zero(t, env.Queue.Pending())
}

func TestForecastNotes(t *testing.T) {
	f, env, _ := setup(t)
	trip := env.AddTrip(owner, "Far away",
		[]entity.City{testutil.Berlin, testutil.Paris, testutil.Rome},
		testutil.Day(2030, 3, 1),
	)

	press(f, owner, shared.CmdWeather, trip.ID)
	env.Queue.Run()

	sent := env.Messenger.To(owner)
	require.Len(t, sent, 1)
	assert.Equal(t, 1, strings.Count(sent[0].Text, "arrival date is not set"))
	assert.Equal(t, 3, strings.Count(sent[0].Text, "too far ahead"))
}

func TestForecastMembersOnly(t *testing.T) {
	f, env, _ := setup(t)
	trip := env.AddTrip(owner, "Private", []entity.City{testutil.Berlin})

	reply := press(f, stranger, shared.CmdWeather, trip.ID)
	require.NotNil(t, reply)
	assert.Equal(t, shared.TextNotMember, reply.Notice)
	assert.Zero(t, env.Queue.Pending())

	assert.Nil(t, press(f, owner, shared.CmdWeather, 999))
}
