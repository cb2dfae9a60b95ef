package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"TripBot/bot/workflow"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
)

func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Recorder is a Messenger that keeps every message it is asked to send.
type Recorder struct {
	mu   sync.Mutex
	sent []workflow.Message
	Fail bool
}

func (r *Recorder) Send(_ context.Context, msg workflow.Message) (workflow.Sent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail {
		return workflow.Sent{}, fmt.Errorf("send failed")
	}
	r.sent = append(r.sent, msg)
	out := workflow.Sent{MessageID: int64(len(r.sent))}
	if msg.Photo != nil {
		out.FileID = fmt.Sprintf("photo-%d", len(r.sent))
	}
	return out, nil
}

func (r *Recorder) Messages() []workflow.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]workflow.Message(nil), r.sent...)
}

// To returns the messages sent to one chat.
func (r *Recorder) To(chatID int64) []workflow.Message {
	var out []workflow.Message
	for _, m := range r.Messages() {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

// Queue is an Executor that holds tasks until Run is called, so tests decide
// when background work happens.
type Queue struct {
	mu    sync.Mutex
	tasks []func(ctx context.Context)
}

func (q *Queue) Go(_ string, task func(ctx context.Context)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
}

func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Run executes queued tasks, including ones queued while running.
func (q *Queue) Run() {
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()
		task(context.Background())
	}
}

// Geo is a Geocoder over fixed tables.
type Geo struct {
	Catalog map[string]entity.City
	Remote  map[string]entity.City
	Points  map[entity.Point]entity.City
}

func (g *Geo) CatalogCity(name string) (entity.City, bool) {
	c, ok := g.Catalog[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

func (g *Geo) CityFromText(_ context.Context, name string) entity.City {
	if c, ok := g.CatalogCity(name); ok {
		return c
	}
	return g.Remote[strings.ToLower(strings.TrimSpace(name))]
}

func (g *Geo) CityFromCoordinates(_ context.Context, lat, lon float64) entity.City {
	return g.Points[entity.Point{Lat: lat, Lon: lon}]
}

var (
	Moscow = entity.City{ID: "RU-MOW", Name: "Moscow", Country: "Russia", Lat: 55.75, Lon: 37.61}
	Berlin = entity.City{ID: "DE-BE", Name: "Berlin", Country: "Germany", Lat: 52.52, Lon: 13.40}
	Paris  = entity.City{ID: "FR-75C", Name: "Paris", Country: "France", Lat: 48.85, Lon: 2.35}
	Rome   = entity.City{ID: "IT-RM", Name: "Rome", Country: "Italy", Lat: 41.90, Lon: 12.49}
	Nice   = entity.City{ID: "osm:R170100", Name: "Nice", Country: "France", Lat: 43.70, Lon: 7.26}
)

// Env wires the fakes into shared.Deps. Now is fixed at 2030-01-10 12:00 UTC.
type Env struct {
	Store     *Store
	Geo       *Geo
	Queue     *Queue
	Messenger *Recorder
	Locks     *workflow.Locks
	Now       time.Time
	Deps      shared.Deps
}

func NewEnv() *Env {
	e := &Env{
		Store: NewStore(),
		Geo: &Geo{
			Catalog: map[string]entity.City{
				"moscow": Moscow,
				"berlin": Berlin,
				"paris":  Paris,
				"rome":   Rome,
			},
			Remote: map[string]entity.City{"nice": Nice},
			Points: map[entity.Point]entity.City{{Lat: 52.5, Lon: 13.4}: Berlin},
		},
		Queue:     &Queue{},
		Messenger: &Recorder{},
		Locks:     workflow.NewLocks(),
		Now:       time.Date(2030, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	log := Logger()
	e.Deps = shared.Deps{
		Users: e.Store,
		Trips: e.Store,
		Notes: e.Store,
		Geo:   e.Geo,
		Async: workflow.NewAsync(e.Queue, e.Locks, e.Messenger, log),
		Now:   func() time.Time { return e.Now },
		Log:   log,
	}
	return e
}

// AddUser registers a user living in home.
func (e *Env) AddUser(id int64, handle string, home entity.City) *entity.User {
	u := &entity.User{ID: id, Handle: handle, City: home, CreatedAt: e.Now}
	_ = e.Store.SaveUser(context.Background(), u)
	return u
}

// AddTrip stores a trip owned by owner through the given cities; dates are
// optional and match cities by position.
func (e *Env) AddTrip(owner int64, name string, cities []entity.City, dates ...time.Time) *entity.Trip {
	t := entity.NewTrip(owner, name, cities, dates)
	_ = e.Store.SaveTrip(context.Background(), t)
	return t
}

// Day returns midnight UTC of the given date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Text builds a plain message event from user to their private chat.
func Text(user int64, text string) workflow.Event {
	return workflow.Event{UserID: user, ChatID: user, Text: text}
}

// Press builds a button press event.
func Press(user int64, data string) workflow.Event {
	return workflow.Event{UserID: user, ChatID: user, Data: data, MessageID: 100}
}

// LastText returns the text of the reply's last message, or "".
func LastText(r *workflow.Reply) string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Text
}
