package signup

import (
	"context"
	"log/slog"

	"TripBot/bot/workflow"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
	"TripBot/internal/lib/sl"
)

const FlowName = "signup"

type State int

const (
	StateNone State = iota
	StateUsername
	StateConfirmUsername
	StateLocation
	StateConfirmLocation
	StateAge
	StateConfirmAge
	StateBio
	StateConfirmBio
	StateDone
)

var sequence = workflow.NewSequence(
	StateNone,
	StateUsername,
	StateConfirmUsername,
	StateLocation,
	StateConfirmLocation,
	StateAge,
	StateConfirmAge,
	StateBio,
	StateConfirmBio,
	StateDone,
)

// session holds the answers collected so far.
type session struct {
	State  State
	Handle string
	City   entity.City
	Age    *int
	Bio    *string
}

// Flow registers new users.
type Flow struct {
	deps     shared.Deps
	sessions *workflow.Store[*session]
	steps    map[State]step
	log      *slog.Logger
}

func New(deps shared.Deps) *Flow {
	f := &Flow{
		deps:     deps,
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
	return nil
}

func (f *Flow) Reset(user int64) {
	f.sessions.Remove(user)
}

// CurrentState returns StateNone for users outside the flow.
func (f *Flow) CurrentState(user int64) State {
	s, ok := f.sessions.Get(user)
	if !ok {
		return StateNone
	}
	return s.State
}

// HandleStart opens the flow for unknown users and repeats the current prompt
// for users already in it. Registered users are left to the main menu.
func (f *Flow) HandleStart(ctx context.Context, ev workflow.Event) *workflow.Reply {
	if s, ok := f.sessions.Get(ev.UserID); ok {
		return f.prompt(ev.ChatID, s)
	}
	exists, err := f.deps.Users.UserExists(ctx, ev.UserID)
	if err != nil {
		f.log.Error("check user", sl.User(ev.UserID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	if exists {
		return nil
	}
	s := &session{State: StateUsername}
	f.sessions.Set(ev.UserID, s)
	f.log.Debug("signup started", sl.User(ev.UserID))
	return workflow.Say(ev.ChatID, textWelcome).Then(f.prompt(ev.ChatID, s))
}

func (f *Flow) HandleMessage(ctx context.Context, ev workflow.Event) *workflow.Reply {
	s, ok := f.sessions.Get(ev.UserID)
	if !ok {
		return nil
	}
	st, ok := f.steps[s.State]
	if !ok {
		return nil
	}
	if st.handle == nil {
		return workflow.Say(ev.ChatID, textUseButtons).Then(f.prompt(ev.ChatID, s))
	}
	return st.handle(ctx, ev, s)
}

func (f *Flow) HandleConfirm(ctx context.Context, ev workflow.Event, yes bool) *workflow.Reply {
	s, ok := f.sessions.Get(ev.UserID)
	if !ok || !isConfirmation(s.State) {
		return nil
	}
	if yes {
		return f.advance(ctx, ev, s, sequence.Next(s.State))
	}
	switch s.State {
	case StateConfirmUsername:
		s.Handle = ""
	case StateConfirmLocation:
		s.City = entity.UnknownCity
	case StateConfirmAge:
		s.Age = nil
	case StateConfirmBio:
		s.Bio = nil
	}
	return f.advance(ctx, ev, s, sequence.Previous(s.State))
}

func isConfirmation(s State) bool {
	switch s {
	case StateConfirmUsername, StateConfirmLocation, StateConfirmAge, StateConfirmBio:
		return true
	}
	return false
}

// advance moves the session and renders the new state's prompt. Reaching
// StateDone commits the profile.
func (f *Flow) advance(ctx context.Context, ev workflow.Event, s *session, next State) *workflow.Reply {
	s.State = next
	switch next {
	case StateDone:
		return f.commit(ctx, ev, s)
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

// commit saves the profile. The session survives a failed save so the user
// can confirm again.
func (f *Flow) commit(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply {
	user := &entity.User{
		ID:        ev.UserID,
		Handle:    s.Handle,
		City:      s.City,
		Age:       s.Age,
		Bio:       s.Bio,
		CreatedAt: f.deps.Now(),
	}
	if err := f.deps.Users.SaveUser(ctx, user); err != nil {
		f.log.Error("save user", sl.User(ev.UserID), sl.Err(err))
		s.State = StateConfirmBio
		return workflow.Say(ev.ChatID, shared.TextApology, confirmKeyboard())
	}
	f.sessions.Remove(ev.UserID)
	f.log.Info("user registered", sl.User(ev.UserID), slog.String("handle", user.Handle))

	reply := workflow.Say(ev.ChatID, textRegistered(user.Handle))
	return reply.Then(shared.MainMenu(ev.ChatID))
}
