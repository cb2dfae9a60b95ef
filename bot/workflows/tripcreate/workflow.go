package tripcreate

import (
	"context"
	"log/slog"
	"time"

	"TripBot/bot/workflow"
	"TripBot/bot/workflow/ui"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
	"TripBot/internal/lib/sl"
)

const FlowName = "tripcreate"

type State int

const (
	StateNone State = iota
	StateAddLocation
	StateConfirmLocation
	StateConfirmLocations
	StateAddLeavingDate
	StateConfirmLeavingDate
	StateAddName
	StateConfirmName
	StateDone
)

var sequence = workflow.NewSequence(
	StateNone,
	StateAddLocation,
	StateConfirmLocation,
	StateConfirmLocations,
	StateAddLeavingDate,
	StateConfirmLeavingDate,
	StateAddName,
	StateConfirmName,
	StateDone,
)

// Illustrator draws the route through the given points.
type Illustrator interface {
	Illustrate(ctx context.Context, points []entity.Point) ([]byte, error)
}

// session collects the itinerary. Dates[i] belongs to Cities[i]; the home
// city is only the starting point of the route.
type session struct {
	State  State
	Home   entity.City
	Cities []entity.City
	Dates  []time.Time
	Name   string
}

func (s *session) lastCity() entity.City {
	if len(s.Cities) == 0 {
		return s.Home
	}
	return s.Cities[len(s.Cities)-1]
}

// Flow creates trips.
type Flow struct {
	deps     shared.Deps
	maps     Illustrator
	sessions *workflow.Store[*session]
	steps    map[State]step
	log      *slog.Logger
}

func New(deps shared.Deps, maps Illustrator) *Flow {
	f := &Flow{
		deps:     deps,
		maps:     maps,
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
		{Prefix: workflow.ActionNewTrip, Handle: f.handleNewTrip},
		{Prefix: workflow.ActionRemoveLast, Handle: f.handleRemoveLast},
	}
}

func (f *Flow) Reset(user int64) {
	f.sessions.Remove(user)
}

// Interrupt abandons the trip being created.
func (f *Flow) Interrupt(user int64) {
	if _, ok := f.sessions.Take(user); ok {
		f.log.Debug("trip creation abandoned", sl.User(user))
	}
}

func (f *Flow) CurrentState(user int64) State {
	s, ok := f.sessions.Get(user)
	if !ok {
		return StateNone
	}
	return s.State
}

func (f *Flow) handleNewTrip(ctx context.Context, ev workflow.Event, _ []int64) *workflow.Reply {
	user, err := f.deps.Users.FindUser(ctx, ev.UserID)
	if err != nil {
		f.log.Error("load user", sl.User(ev.UserID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	if user == nil {
		return workflow.Say(ev.ChatID, textSignUpFirst)
	}
	s := &session{State: StateAddLocation, Home: user.City}
	f.sessions.Set(ev.UserID, s)
	return f.prompt(ev.ChatID, s)
}

func (f *Flow) handleRemoveLast(_ context.Context, ev workflow.Event, _ []int64) *workflow.Reply {
	s, ok := f.sessions.Get(ev.UserID)
	if !ok || s.State != StateConfirmLocations || len(s.Cities) == 0 {
		return nil
	}
	s.Cities = s.Cities[:len(s.Cities)-1]
	if len(s.Cities) == 0 {
		s.State = StateAddLocation
	}
	return f.prompt(ev.ChatID, s)
}

func (f *Flow) HandleMessage(ctx context.Context, ev workflow.Event) *workflow.Reply {
	s, ok := f.sessions.Get(ev.UserID)
	if !ok {
		return nil
	}
	st := f.steps[s.State]
	if st.handle == nil {
		return workflow.Say(ev.ChatID, textUseButtons).Then(f.prompt(ev.ChatID, s))
	}
	return st.handle(ctx, ev, s)
}

func (f *Flow) HandleConfirm(ctx context.Context, ev workflow.Event, yes bool) *workflow.Reply {
	s, ok := f.sessions.Get(ev.UserID)
	if !ok {
		return nil
	}
	switch s.State {
	case StateConfirmLocation:
		if yes {
			return f.advance(ctx, ev, s, sequence.Next(s.State))
		}
		s.Cities = s.Cities[:len(s.Cities)-1]
		return f.advance(ctx, ev, s, sequence.Previous(s.State))
	case StateConfirmLocations:
		if yes {
			return f.advance(ctx, ev, s, sequence.Next(s.State))
		}
		return f.advance(ctx, ev, s, StateAddLocation)
	case StateConfirmLeavingDate:
		if !yes {
			s.Dates = s.Dates[:len(s.Dates)-1]
			return f.advance(ctx, ev, s, sequence.Previous(s.State))
		}
		if len(s.Dates) < len(s.Cities) {
			return f.advance(ctx, ev, s, StateAddLeavingDate)
		}
		return f.advance(ctx, ev, s, sequence.Next(s.State))
	case StateConfirmName:
		if yes {
			return f.advance(ctx, ev, s, sequence.Next(s.State))
		}
		s.Name = ""
		return f.advance(ctx, ev, s, sequence.Previous(s.State))
	}
	return nil
}

func (f *Flow) HandleCancel(_ context.Context, ev workflow.Event) *workflow.Reply {
	s, ok := f.sessions.Take(ev.UserID)
	if !ok {
		return nil
	}
	f.log.Debug("trip creation cancelled", sl.User(ev.UserID), slog.Int("state", int(s.State)))
	return workflow.Say(ev.ChatID, textCancelled, ui.RemoveKeyboard()).Then(shared.MainMenu(ev.ChatID))
}

func (f *Flow) advance(ctx context.Context, ev workflow.Event, s *session, next State) *workflow.Reply {
	s.State = next
	switch next {
	case StateDone:
		return f.save(ctx, ev, s)
	case StateNone:
		f.sessions.Remove(ev.UserID)
		return &workflow.Reply{}
	}
	return f.prompt(ev.ChatID, s)
}

func (f *Flow) prompt(chatID int64, s *session) *workflow.Reply {
	st, ok := f.steps[s.State]
	if !ok || st.prompt == nil {
		return &workflow.Reply{}
	}
	return st.prompt(chatID, s)
}

// illustration is the outcome of drawing and uploading the route picture.
type illustration struct {
	fileID string
}

// save draws the route in the background and stores the trip once the
// picture is uploaded. The trip is stored without a picture when drawing fails.
func (f *Flow) save(_ context.Context, ev workflow.Event, s *session) *workflow.Reply {
	points := make([]entity.Point, 0, len(s.Cities)+1)
	if s.Home.Known() {
		points = append(points, s.Home.Point())
	}
	for _, c := range s.Cities {
		points = append(points, c.Point())
	}
	name := s.Name

	draw := func(ctx context.Context) illustration {
		picture, err := f.maps.Illustrate(ctx, points)
		if err != nil {
			f.log.Warn("route picture", sl.User(ev.UserID), sl.Err(err))
			return illustration{}
		}
		sent, err := f.deps.Async.Messenger().Send(ctx, workflow.Message{
			ChatID: ev.ChatID,
			Text:   "🗺 " + name,
			Photo:  picture,
		})
		if err != nil {
			f.log.Warn("send route picture", sl.User(ev.UserID), sl.Err(err))
			return illustration{}
		}
		return illustration{fileID: sent.FileID}
	}
	workflow.Later(f.deps.Async, ev.UserID, "trip picture", draw, func(ctx context.Context, pic illustration) *workflow.Reply {
		if cur, ok := f.sessions.Get(ev.UserID); !ok || cur != s || s.State != StateDone {
			return nil
		}
		return f.commit(ctx, ev, s, pic.fileID)
	})
	return workflow.Say(ev.ChatID, textSaving, ui.RemoveKeyboard())
}

func (f *Flow) commit(ctx context.Context, ev workflow.Event, s *session, imageID string) *workflow.Reply {
	trip := entity.NewTrip(ev.UserID, s.Name, s.Cities, s.Dates)
	trip.ImageID = imageID
	trip.CreatedAt = f.deps.Now()
	if err := f.deps.Trips.SaveTrip(ctx, trip); err != nil {
		f.log.Error("save trip", sl.User(ev.UserID), sl.Err(err))
		s.State = StateConfirmName
		return workflow.Say(ev.ChatID, shared.TextApology).Then(f.prompt(ev.ChatID, s))
	}
	f.sessions.Remove(ev.UserID)
	f.log.Info("trip created",
		sl.User(ev.UserID),
		slog.Int64("trip_id", trip.ID),
		slog.Int("cities", len(trip.Visits)),
	)
	return workflow.Say(ev.ChatID, textSaved(trip), ui.Inline(
		ui.Row(ui.Btn("🧳 Open trip", workflow.BuildCallback(shared.CmdTrip, trip.ID))),
		shared.BackToMenu(),
	))
}
