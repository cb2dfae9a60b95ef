package cityedit

import (
	"context"
	"fmt"

	"TripBot/bot/workflow"
	"TripBot/bot/workflow/ui"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
)

const (
	textUseButtons = "Please use the buttons below."
	textTripGone   = "This trip is no longer available."
	textLastCity   = "A trip needs at least one city."
	textDateOrder  = "This date doesn't fit the order of the cities."
	textSameCity   = "This is the same city, choose another one."
	textBadDate    = "Send the date as DD.MM.YYYY."
	textPastDate   = "The date must be in the future."
	textSaved      = "Saved ✅"
)

type step struct {
	prompt func(chatID int64, s *session, trip *entity.Trip) *workflow.Reply
	handle func(ctx context.Context, ev workflow.Event, s *session, trip *entity.Trip) *workflow.Reply
}

func editMenu(chatID int64, trip *entity.Trip) *workflow.Reply {
	text := fmt.Sprintf("Editing \"%s\"\n\n%s", trip.Name, shared.Itinerary(trip))
	return workflow.Say(chatID, text, ui.Inline(
		ui.Row(ui.Btn("📅 Leaving dates", workflow.BuildCallback(shared.CmdEditDate, trip.ID))),
		ui.Row(
			ui.Btn("➕ Add city", workflow.BuildCallback(shared.CmdEditAddCity, trip.ID)),
			ui.Btn("➖ Remove city", workflow.BuildCallback(shared.CmdEditRmCity, trip.ID)),
		),
		ui.Row(ui.Btn("⬅️ Back", workflow.BuildCallback(shared.CmdTrip, trip.ID))),
	))
}

// visitKeyboard lists the trip's visits as trip_city_<trip>_<visit> buttons.
func visitKeyboard(trip *entity.Trip) workflow.Keyboard {
	rows := make([][]workflow.Button, 0, len(trip.Visits)+1)
	for _, v := range trip.Visits {
		label := fmt.Sprintf("%s (%s)", v.City.Name, shared.FormatDate(v.LeavingDate))
		rows = append(rows, ui.Row(ui.Btn(label, workflow.BuildCallback(shared.CmdCity, trip.ID, v.ID))))
	}
	rows = append(rows, ui.Row(ui.Btn("✖️ Cancel", workflow.ActionCancel)))
	return ui.Inline(rows...)
}

func visitCity(trip *entity.Trip, visitID int64) entity.City {
	if i := trip.VisitIndex(visitID); i >= 0 {
		return trip.Visits[i].City
	}
	return entity.UnknownCity
}

func (f *Flow) registerSteps() {
	f.steps[StateSelectAddLeavingDate] = step{
		prompt: func(chatID int64, _ *session, trip *entity.Trip) *workflow.Reply {
			return workflow.Say(chatID, "Which city's leaving date do you want to change?", visitKeyboard(trip))
		},
	}
	f.steps[StateAddLeavingDate] = step{
		prompt: func(chatID int64, s *session, trip *entity.Trip) *workflow.Reply {
			text := fmt.Sprintf("When do you leave %s? Send the date as DD.MM.YYYY.", visitCity(trip, s.VisitID))
			return workflow.Say(chatID, text, ui.CancelKeyboard())
		},
		handle: f.handleDate,
	}
	f.steps[StateConfirmLeavingDate] = step{
		prompt: func(chatID int64, s *session, trip *entity.Trip) *workflow.Reply {
			text := fmt.Sprintf("Leaving %s on %s?", visitCity(trip, s.VisitID), shared.FormatDate(&s.Date))
			return workflow.Say(chatID, text, ui.YesNoKeyboard())
		},
	}
	f.steps[StateSelectCityToAddAfter] = step{
		prompt: func(chatID int64, _ *session, trip *entity.Trip) *workflow.Reply {
			return workflow.Say(chatID, "After which city shall the new one go?", visitKeyboard(trip))
		},
	}
	f.steps[StateAddCity] = step{
		prompt: func(chatID int64, s *session, trip *entity.Trip) *workflow.Reply {
			text := fmt.Sprintf("Which city comes after %s? Type a city or send a location.", visitCity(trip, s.VisitID))
			reply := workflow.Say(chatID, text, ui.LocationKeyboard(false))
			return reply.Add(chatID, "Changed your mind?", ui.CancelKeyboard())
		},
		handle: f.handleCity,
	}
	f.steps[StateConfirmAddCity] = step{
		prompt: func(chatID int64, s *session, trip *entity.Trip) *workflow.Reply {
			text := fmt.Sprintf("Add %s after %s?", s.City, visitCity(trip, s.VisitID))
			return workflow.Say(chatID, text, ui.YesNoKeyboard())
		},
	}
	f.steps[StateSelectCityToRemove] = step{
		prompt: func(chatID int64, _ *session, trip *entity.Trip) *workflow.Reply {
			return workflow.Say(chatID, "Which city shall we remove?", visitKeyboard(trip))
		},
	}
	f.steps[StateConfirmRemoveCity] = step{
		prompt: func(chatID int64, s *session, trip *entity.Trip) *workflow.Reply {
			text := fmt.Sprintf("Remove %s from the trip?", visitCity(trip, s.VisitID))
			return workflow.Say(chatID, text, ui.YesNoKeyboard())
		},
	}
}

func (f *Flow) handleDate(_ context.Context, ev workflow.Event, s *session, trip *entity.Trip) *workflow.Reply {
	date, ok := shared.ParseDate(ev.Text)
	if !ok {
		return workflow.Say(ev.ChatID, textBadDate)
	}
	if !date.After(f.deps.Now()) {
		return workflow.Say(ev.ChatID, textPastDate)
	}
	i := trip.VisitIndex(s.VisitID)
	if i < 0 {
		f.sessions.Remove(ev.UserID)
		return editMenu(ev.ChatID, trip)
	}
	if !trip.DateFits(i, date) {
		return workflow.Say(ev.ChatID, textDateOrder)
	}
	s.Date = date
	return f.advance(ev.ChatID, s, trip, sequence.Next(s.State))
}

func (f *Flow) handleCity(ctx context.Context, ev workflow.Event, s *session, trip *entity.Trip) *workflow.Reply {
	anchor := visitCity(trip, s.VisitID)
	reply := f.deps.ResolveCity(ctx, ev, func(ctx context.Context, city entity.City) *workflow.Reply {
		if cur, ok := f.sessions.Get(ev.UserID); !ok || cur != s || s.State != StateAddCity {
			return nil
		}
		if !city.Known() {
			return workflow.Say(ev.ChatID, shared.TextUnknownCity, ui.LocationKeyboard(false))
		}
		if city.Equal(anchor) {
			return workflow.Say(ev.ChatID, textSameCity, ui.LocationKeyboard(false))
		}
		s.City = city
		found := workflow.Say(ev.ChatID, "📍 "+city.String(), ui.RemoveKeyboard())
		return found.Then(f.advance(ev.ChatID, s, trip, sequence.Next(s.State)))
	})
	if reply == nil {
		return workflow.Say(ev.ChatID, textUseButtons)
	}
	return reply
}
