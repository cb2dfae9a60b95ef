package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"TripBot/bot/workflow"
	"TripBot/bot/workflow/ui"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
	"TripBot/internal/lib/sl"
	"TripBot/internal/lib/validate"
)

const FlowName = "profile"

type State int

const (
	StateNone State = iota
	StateCity
	StateConfirmCity
	StateAge
	StateBio
)

var sequence = workflow.NewSequence(StateNone, StateCity, StateConfirmCity, StateAge, StateBio)

const (
	textSignUpFirst = "Please sign up first with /start."
	textUseButtons  = "Please use the buttons below."
	textCityPrompt  = "Which city do you live in now? Type its name or send your location."
	textAgePrompt   = "How old are you? Skip to hide your age."
	textAgeInvalid  = "Send your age as a number from 0 to 100."
	textBioPrompt   = "Tell about yourself. Skip to clear the bio."
	textBioTooLong  = "That's too long, please keep it under 255 characters."
	textUpdated     = "Profile updated ✅"
)

type session struct {
	State State
	City  entity.City
}

// Flow shows and edits the user's own profile.
type Flow struct {
	deps     shared.Deps
	sessions *workflow.Store[*session]
	log      *slog.Logger
}

func New(deps shared.Deps) *Flow {
	return &Flow{
		deps:     deps,
		sessions: workflow.NewStore[*session](),
		log:      deps.Log.With(sl.Module(FlowName)),
	}
}

func (f *Flow) Name() string {
	return FlowName
}

func (f *Flow) Routes() []workflow.Route {
	return []workflow.Route{
		{Prefix: shared.CmdProfile, Handle: f.handleShow},
		{Prefix: shared.CmdProfileCity, Handle: f.opener(StateCity)},
		{Prefix: shared.CmdProfileAge, Handle: f.opener(StateAge)},
		{Prefix: shared.CmdProfileBio, Handle: f.opener(StateBio)},
	}
}

func (f *Flow) Reset(user int64) {
	f.sessions.Remove(user)
}

// Interrupt abandons the profile change.
func (f *Flow) Interrupt(user int64) {
	if _, ok := f.sessions.Take(user); ok {
		f.log.Debug("profile change abandoned", sl.User(user))
	}
}

func (f *Flow) CurrentState(user int64) State {
	s, ok := f.sessions.Get(user)
	if !ok {
		return StateNone
	}
	return s.State
}

func (f *Flow) loadUser(ctx context.Context, ev workflow.Event) (*entity.User, *workflow.Reply) {
	user, err := f.deps.Users.FindUser(ctx, ev.UserID)
	if err != nil {
		f.log.Error("load user", sl.User(ev.UserID), sl.Err(err))
		return nil, workflow.Say(ev.ChatID, shared.TextApology)
	}
	if user == nil {
		return nil, workflow.Say(ev.ChatID, textSignUpFirst)
	}
	return user, nil
}

func (f *Flow) handleShow(ctx context.Context, ev workflow.Event, _ []int64) *workflow.Reply {
	user, reply := f.loadUser(ctx, ev)
	if user == nil {
		return reply
	}
	return view(ev.ChatID, user)
}

func view(chatID int64, u *entity.User) *workflow.Reply {
	age, bio := "hidden", "empty"
	if u.Age != nil {
		age = strconv.Itoa(*u.Age)
	}
	if u.Bio != nil {
		bio = *u.Bio
	}
	text := fmt.Sprintf("👤 %s\n\n🏙 %s\n🎂 %s\n\n%s", u.Handle, u.City, age, bio)
	return workflow.Say(chatID, text, ui.Inline(
		ui.Row(ui.Btn("🏙 City", shared.CmdProfileCity), ui.Btn("🎂 Age", shared.CmdProfileAge), ui.Btn("✍️ Bio", shared.CmdProfileBio)),
		shared.BackToMenu(),
	))
}

func (f *Flow) opener(state State) func(ctx context.Context, ev workflow.Event, _ []int64) *workflow.Reply {
	return func(ctx context.Context, ev workflow.Event, _ []int64) *workflow.Reply {
		if user, reply := f.loadUser(ctx, ev); user == nil {
			return reply
		}
		f.sessions.Set(ev.UserID, &session{State: state})
		switch state {
		case StateCity:
			reply := workflow.Say(ev.ChatID, textCityPrompt, ui.LocationKeyboard(false))
			return reply.Add(ev.ChatID, "Changed your mind?", ui.CancelKeyboard())
		case StateAge:
			return workflow.Say(ev.ChatID, textAgePrompt, ui.SkipKeyboard())
		default:
			return workflow.Say(ev.ChatID, textBioPrompt, ui.SkipKeyboard())
		}
	}
}

func (f *Flow) HandleMessage(ctx context.Context, ev workflow.Event) *workflow.Reply {
	s, ok := f.sessions.Get(ev.UserID)
	if !ok {
		return nil
	}
	switch s.State {
	case StateCity:
		return f.handleCity(ctx, ev, s)
	case StateAge:
		return f.handleAge(ctx, ev)
	case StateBio:
		return f.handleBio(ctx, ev)
	}
	return workflow.Say(ev.ChatID, textUseButtons)
}

func (f *Flow) handleCity(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply {
	reply := f.deps.ResolveCity(ctx, ev, func(ctx context.Context, city entity.City) *workflow.Reply {
		if cur, ok := f.sessions.Get(ev.UserID); !ok || cur != s || s.State != StateCity {
			return nil
		}
		if !city.Known() {
			return workflow.Say(ev.ChatID, shared.TextUnknownCity, ui.LocationKeyboard(false))
		}
		s.City = city
		s.State = sequence.Next(s.State)
		reply := workflow.Say(ev.ChatID, "📍 "+city.String(), ui.RemoveKeyboard())
		return reply.Add(ev.ChatID, fmt.Sprintf("Move to %s?", city), ui.YesNoKeyboard())
	})
	if reply == nil {
		return workflow.Say(ev.ChatID, textCityPrompt)
	}
	return reply
}

func (f *Flow) handleAge(ctx context.Context, ev workflow.Event) *workflow.Reply {
	var age *int
	if !ui.IsSkip(ev.Text) {
		n, err := strconv.Atoi(strings.TrimSpace(ev.Text))
		if err != nil || validate.Var(n, entity.AgeRules) != nil {
			return workflow.Say(ev.ChatID, textAgeInvalid, ui.SkipKeyboard())
		}
		age = &n
	}
	return f.update(ctx, ev, func(u *entity.User) { u.Age = age })
}

func (f *Flow) handleBio(ctx context.Context, ev workflow.Event) *workflow.Reply {
	var bio *string
	if !ui.IsSkip(ev.Text) {
		text := strings.TrimSpace(ev.Text)
		if text == "" {
			return workflow.Say(ev.ChatID, textBioPrompt, ui.SkipKeyboard())
		}
		if validate.Var(text, entity.BioRules) != nil {
			return workflow.Say(ev.ChatID, textBioTooLong, ui.SkipKeyboard())
		}
		bio = &text
	}
	return f.update(ctx, ev, func(u *entity.User) { u.Bio = bio })
}

func (f *Flow) HandleConfirm(ctx context.Context, ev workflow.Event, yes bool) *workflow.Reply {
	s, ok := f.sessions.Get(ev.UserID)
	if !ok || s.State != StateConfirmCity {
		return nil
	}
	if !yes {
		s.City = entity.UnknownCity
		s.State = sequence.Previous(s.State)
		return workflow.Say(ev.ChatID, textCityPrompt, ui.LocationKeyboard(false))
	}
	city := s.City
	return f.update(ctx, ev, func(u *entity.User) { u.City = city })
}

func (f *Flow) HandleCancel(ctx context.Context, ev workflow.Event) *workflow.Reply {
	if _, ok := f.sessions.Take(ev.UserID); !ok {
		return nil
	}
	return f.handleShow(ctx, ev, nil)
}

// update applies change to the stored profile. The session ends only when the
// profile is saved.
func (f *Flow) update(ctx context.Context, ev workflow.Event, change func(u *entity.User)) *workflow.Reply {
	user, reply := f.loadUser(ctx, ev)
	if user == nil {
		f.sessions.Remove(ev.UserID)
		return reply
	}
	change(user)
	if err := f.deps.Users.SaveUser(ctx, user); err != nil {
		f.log.Error("save profile", sl.User(ev.UserID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	f.sessions.Remove(ev.UserID)
	return workflow.Say(ev.ChatID, textUpdated, ui.RemoveKeyboard()).Then(view(ev.ChatID, user))
}
