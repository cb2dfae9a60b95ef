package tripcreate

import (
	"context"
	"fmt"
	"strings"

	"TripBot/bot/workflow"
	"TripBot/bot/workflow/ui"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
	"TripBot/internal/lib/validate"
)

const (
	textSignUpFirst  = "Please sign up first with /start."
	textUseButtons   = "Please answer with the buttons below."
	textCancelled    = "Trip creation cancelled."
	textSaving       = "Saving the trip... ⏳"
	textSameCity     = "You are already in this city 🙂 Choose another one."
	textBadDate      = "Send the date as DD.MM.YYYY."
	textPastDate     = "The date must be in the future."
	textFirstDate    = "At least the first date is required."
	textNameInvalid  = "The name must be 1 to 100 characters long."
	textDateTooEarly = "You can't leave before %s, the date of the previous city."
)

func textSaved(trip *entity.Trip) string {
	return fmt.Sprintf("Trip \"%s\" is saved ✅\n\n%s", trip.Name, shared.Itinerary(trip))
}

type step struct {
	prompt func(chatID int64, s *session) *workflow.Reply
	handle func(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply
}

func cancelRow() []workflow.Button {
	return ui.Row(ui.Btn("✖️ Cancel", workflow.ActionCancel))
}

func (f *Flow) registerSteps() {
	f.steps[StateAddLocation] = step{
		prompt: func(chatID int64, s *session) *workflow.Reply {
			text := "Where are you going? Type a city or send a location."
			if len(s.Cities) > 0 {
				text = "Which city is next? Type a city or send a location."
			}
			reply := workflow.Say(chatID, text, ui.LocationKeyboard(false))
			return reply.Add(chatID, "You can stop at any time.", ui.Inline(cancelRow()))
		},
		handle: f.handleCity,
	}
	f.steps[StateConfirmLocation] = step{
		prompt: func(chatID int64, s *session) *workflow.Reply {
			return workflow.Say(chatID, fmt.Sprintf("Add %s to the trip?", s.lastCity()), ui.YesNoKeyboard())
		},
	}
	f.steps[StateConfirmLocations] = step{
		prompt: func(chatID int64, s *session) *workflow.Reply {
			var b strings.Builder
			b.WriteString("Your route so far:\n")
			for i, c := range s.Cities {
				fmt.Fprintf(&b, "%d. %s\n", i+1, c)
			}
			b.WriteString("\nType the next city or finish the route.")
			return workflow.Say(chatID, b.String(), ui.Inline(
				ui.Row(ui.Btn("✅ That's all", workflow.ActionYes)),
				ui.Row(ui.Btn("➕ Add a city", workflow.ActionNo), ui.Btn("↩️ Remove last", workflow.ActionRemoveLast)),
				cancelRow(),
			))
		},
		handle: f.handleCity,
	}
	f.steps[StateAddLeavingDate] = step{
		prompt: func(chatID int64, s *session) *workflow.Reply {
			city := s.Cities[len(s.Dates)]
			text := fmt.Sprintf("When do you leave %s? Send the date as DD.MM.YYYY.", city)
			if len(s.Dates) > 0 {
				return workflow.Say(chatID, text, ui.SkipKeyboard())
			}
			return workflow.Say(chatID, text, ui.RemoveKeyboard())
		},
		handle: f.handleDate,
	}
	f.steps[StateConfirmLeavingDate] = step{
		prompt: func(chatID int64, s *session) *workflow.Reply {
			i := len(s.Dates) - 1
			date := s.Dates[i]
			text := fmt.Sprintf("Leaving %s on %s?", s.Cities[i], shared.FormatDate(&date))
			return workflow.Say(chatID, text, ui.YesNoKeyboard())
		},
	}
	f.steps[StateAddName] = step{
		prompt: func(chatID int64, _ *session) *workflow.Reply {
			return workflow.Say(chatID, "How shall we call the trip?", ui.RemoveKeyboard())
		},
		handle: f.handleName,
	}
	f.steps[StateConfirmName] = step{
		prompt: func(chatID int64, s *session) *workflow.Reply {
			return workflow.Say(chatID, fmt.Sprintf("Call the trip \"%s\"?", s.Name), ui.YesNoKeyboard())
		},
	}
	f.steps[StateDone] = step{
		prompt: func(chatID int64, _ *session) *workflow.Reply {
			return workflow.Say(chatID, textSaving)
		},
	}
}

// handleCity adds a city while the route is being collected. A city may not
// repeat the one right before it.
func (f *Flow) handleCity(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply {
	waiting := s.State
	reply := f.deps.ResolveCity(ctx, ev, func(ctx context.Context, city entity.City) *workflow.Reply {
		if cur, ok := f.sessions.Get(ev.UserID); !ok || cur != s || s.State != waiting {
			return nil
		}
		if !city.Known() {
			return workflow.Say(ev.ChatID, shared.TextUnknownCity, ui.LocationKeyboard(false))
		}
		if city.Equal(s.lastCity()) {
			return workflow.Say(ev.ChatID, textSameCity, ui.LocationKeyboard(false))
		}
		s.Cities = append(s.Cities, city)
		found := workflow.Say(ev.ChatID, "📍 "+city.String(), ui.RemoveKeyboard())
		return found.Then(f.advance(ctx, ev, s, StateConfirmLocation))
	})
	if reply == nil {
		return f.prompt(ev.ChatID, s)
	}
	return reply
}

func (f *Flow) handleDate(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply {
	if ui.IsSkip(ev.Text) {
		if len(s.Dates) == 0 {
			return workflow.Say(ev.ChatID, textFirstDate)
		}
		return f.advance(ctx, ev, s, sequence.Skip(s.State))
	}
	date, ok := shared.ParseDate(ev.Text)
	if !ok {
		return workflow.Say(ev.ChatID, textBadDate)
	}
	if !date.After(f.deps.Now()) {
		return workflow.Say(ev.ChatID, textPastDate)
	}
	if n := len(s.Dates); n > 0 && date.Before(s.Dates[n-1]) {
		prev := s.Dates[n-1]
		return workflow.Say(ev.ChatID, fmt.Sprintf(textDateTooEarly, shared.FormatDate(&prev)))
	}
	s.Dates = append(s.Dates, date)
	return f.advance(ctx, ev, s, sequence.Next(s.State))
}

func (f *Flow) handleName(ctx context.Context, ev workflow.Event, s *session) *workflow.Reply {
	name := strings.TrimSpace(ev.Text)
	if err := validate.Var(name, entity.TripNameRules); err != nil {
		return workflow.Say(ev.ChatID, textNameInvalid)
	}
	s.Name = name
	return f.advance(ctx, ev, s, sequence.Next(s.State))
}
