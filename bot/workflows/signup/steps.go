package signup

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"TripBot/bot/workflow"
	"TripBot/bot/workflow/ui"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
	"TripBot/internal/lib/sl"
	"TripBot/internal/lib/validate"
)

const (
	textWelcome       = "Hi! 👋 I'll help you plan your trips. First, a few questions about you."
	textUsernameShort = "The username is too short, use at least 5 characters."
	textUsernameLong  = "The username is too long, use at most 32 characters."
	textUsernameChars = "Only latin letters and digits are allowed."
	textUsernameTaken = "This username is already taken 😕 Try another one."
	textAgeInvalid    = "Send your age as a number from 0 to 100 or skip this step."
	textBioTooLong    = "That's too long, please keep it under 255 characters."
	textUseButtons    = "Please answer with the buttons below."
	textNoBio         = "(empty)"
)

func textRegistered(handle string) string {
	return fmt.Sprintf("Nice to meet you, %s! 🎉 You are registered.", handle)
}

// step pairs a state's prompt with its input handler. Confirmation states have
// no handler; they are answered through HandleConfirm.
type step struct {
	prompt func(chatID int64, s *session) *workflow.Reply
	handle func(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply
}

func confirmKeyboard() workflow.Keyboard {
	return ui.YesNoKeyboard()
}

func (f *Flow) registerSteps() {
	f.steps[StateUsername] = step{
		prompt: func(chatID int64, _ *session) *workflow.Reply {
			return workflow.Say(chatID, "Choose a username: 5 to 32 latin letters or digits.", ui.RemoveKeyboard())
		},
		handle: f.handleUsername,
	}
	f.steps[StateConfirmUsername] = step{
		prompt: func(chatID int64, s *session) *workflow.Reply {
			return workflow.Say(chatID, fmt.Sprintf("Your username is %s. Correct?", s.Handle), confirmKeyboard())
		},
	}
	f.steps[StateLocation] = step{
		prompt: func(chatID int64, _ *session) *workflow.Reply {
			return workflow.Say(chatID, "Which city do you live in? Type its name or send your location.", ui.LocationKeyboard(false))
		},
		handle: f.handleLocation,
	}
	f.steps[StateConfirmLocation] = step{
		prompt: func(chatID int64, s *session) *workflow.Reply {
			return workflow.Say(chatID, fmt.Sprintf("You live in %s. Correct?", s.City), confirmKeyboard())
		},
	}
	f.steps[StateAge] = step{
		prompt: func(chatID int64, _ *session) *workflow.Reply {
			return workflow.Say(chatID, "How old are you?", ui.SkipKeyboard())
		},
		handle: f.handleAge,
	}
	f.steps[StateConfirmAge] = step{
		prompt: func(chatID int64, s *session) *workflow.Reply {
			return workflow.Say(chatID, fmt.Sprintf("You are %d. Correct?", *s.Age), confirmKeyboard())
		},
	}
	f.steps[StateBio] = step{
		prompt: func(chatID int64, _ *session) *workflow.Reply {
			return workflow.Say(chatID, "Tell your future companions a little about yourself.", ui.SkipKeyboard())
		},
		handle: f.handleBio,
	}
	f.steps[StateConfirmBio] = step{
		prompt: func(chatID int64, s *session) *workflow.Reply {
			bio := textNoBio
			if s.Bio != nil {
				bio = *s.Bio
			}
			return workflow.Say(chatID, fmt.Sprintf("About you:\n%s\n\nCorrect?", bio), confirmKeyboard())
		},
	}
}

func (f *Flow) handleUsername(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply {
	handle := strings.TrimSpace(ev.Text)
	if err := validate.Var(handle, entity.HandleRules); err != nil {
		switch validate.FailedTag(err) {
		case "min":
			return workflow.Say(ev.ChatID, textUsernameShort)
		case "max":
			return workflow.Say(ev.ChatID, textUsernameLong)
		default:
			return workflow.Say(ev.ChatID, textUsernameChars)
		}
	}
	taken, err := f.deps.Users.HandleExists(ctx, handle)
	if err != nil {
		f.log.Error("check handle", sl.User(ev.UserID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	if taken {
		return workflow.Say(ev.ChatID, textUsernameTaken)
	}
	s.Handle = handle
	return f.advance(ctx, ev, s, sequence.Next(s.State))
}

func (f *Flow) handleLocation(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply {
	reply := f.deps.ResolveCity(ctx, ev, func(ctx context.Context, city entity.City) *workflow.Reply {
		if cur, ok := f.sessions.Get(ev.UserID); !ok || cur != s || s.State != StateLocation {
			return nil
		}
		if !city.Known() {
			return workflow.Say(ev.ChatID, shared.TextUnknownCity, ui.LocationKeyboard(false))
		}
		s.City = city
		found := workflow.Say(ev.ChatID, "📍 "+city.String(), ui.RemoveKeyboard())
		return found.Then(f.advance(ctx, ev, s, sequence.Next(s.State)))
	})
	if reply == nil {
		return f.prompt(ev.ChatID, s)
	}
	return reply
}

func (f *Flow) handleAge(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply {
	if ui.IsSkip(ev.Text) {
		s.Age = nil
		return f.advance(ctx, ev, s, sequence.Skip(s.State))
	}
	age, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if err != nil || validate.Var(age, entity.AgeRules) != nil {
		return workflow.Say(ev.ChatID, textAgeInvalid, ui.SkipKeyboard())
	}
	s.Age = &age
	reply := workflow.Say(ev.ChatID, "👍", ui.RemoveKeyboard())
	return reply.Then(f.advance(ctx, ev, s, sequence.Next(s.State)))
}

func (f *Flow) handleBio(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply {
	if ui.IsSkip(ev.Text) {
		s.Bio = nil
		return f.advance(ctx, ev, s, sequence.Skip(s.State))
	}
	bio := strings.TrimSpace(ev.Text)
	if bio == "" {
		return f.prompt(ev.ChatID, s)
	}
	if err := validate.Var(bio, entity.BioRules); err != nil {
		return workflow.Say(ev.ChatID, textBioTooLong, ui.SkipKeyboard())
	}
	s.Bio = &bio
	reply := workflow.Say(ev.ChatID, "👍", ui.RemoveKeyboard())
	return reply.Then(f.advance(ctx, ev, s, sequence.Next(s.State)))
}
