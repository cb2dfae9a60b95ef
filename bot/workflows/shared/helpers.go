package shared

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"TripBot/bot/workflow"
	"TripBot/bot/workflow/ui"
	"TripBot/entity"
	"TripBot/internal/lib/sl"
)

const (
	DateLayout = "02.01.2006"

	TextApology     = "Something went wrong on our side 😔 Please try again a bit later."
	TextResolving   = "Determining the city... ⏳"
	TextUnknownCity = "I couldn't find such a city 🤷 Try another name or send a location."
	TextNotMember   = "You are not a member of this trip."
	TextArchived    = "This trip is archived, it can't be changed."
)

// ParseDate reads DD.MM.YYYY as a UTC calendar day.
func ParseDate(text string) (time.Time, bool) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(text), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func FormatDate(t *time.Time) string {
	if t == nil {
		return "not set"
	}
	return t.Format(DateLayout)
}

// ResolveCity turns a text or location answer into a city. Catalog hits call
// onCity right away; anything else goes to the geocoder in the background and
// the caller gets an interim reply. onCity always runs with the user's lock
// held and must check that its session is still waiting for the city. A nil
// result means the event carries nothing that could name a city.
func (d Deps) ResolveCity(ctx context.Context, ev workflow.Event, onCity func(ctx context.Context, city entity.City) *workflow.Reply) *workflow.Reply {
	var lookup func(ctx context.Context) entity.City
	switch {
	case ev.Location != nil:
		lat, lon := ev.Location.Lat, ev.Location.Lon
		lookup = func(ctx context.Context) entity.City {
			return d.Geo.CityFromCoordinates(ctx, lat, lon)
		}
	case strings.TrimSpace(ev.Text) != "":
		name := strings.TrimSpace(ev.Text)
		if city, ok := d.Geo.CatalogCity(name); ok {
			return onCity(ctx, city)
		}
		lookup = func(ctx context.Context) entity.City {
			return d.Geo.CityFromText(ctx, name)
		}
	default:
		return nil
	}

	workflow.Later(d.Async, ev.UserID, "geocode", lookup, onCity)
	return workflow.Say(ev.ChatID, TextResolving, ui.RemoveKeyboard())
}

// LoadMemberTrip fetches a trip the user may see. A nil trip with a nil
// reply means the id is stale and the event should be ignored.
func (d Deps) LoadMemberTrip(ctx context.Context, ev workflow.Event, tripID int64) (*entity.Trip, *workflow.Reply) {
	trip, err := d.Trips.FindTrip(ctx, tripID)
	if err != nil {
		d.Log.Error("load trip", slog.Int64("trip_id", tripID), sl.Err(err))
		return nil, workflow.Say(ev.ChatID, TextApology)
	}
	if trip == nil {
		return nil, nil
	}
	if !trip.IsMember(ev.UserID) {
		return nil, workflow.Notify(TextNotMember)
	}
	return trip, nil
}

// LoadOwnedTrip is LoadMemberTrip restricted to the owner of an active trip.
func (d Deps) LoadOwnedTrip(ctx context.Context, ev workflow.Event, tripID int64) (*entity.Trip, *workflow.Reply) {
	trip, reply := d.LoadMemberTrip(ctx, ev, tripID)
	if trip == nil {
		return nil, reply
	}
	if trip.OwnerID != ev.UserID {
		return nil, workflow.Notify("Only the trip owner can do this.")
	}
	if trip.Archived {
		return nil, workflow.Notify(TextArchived)
	}
	return trip, nil
}

// Itinerary renders the visits as a numbered list.
func Itinerary(trip *entity.Trip) string {
	var b strings.Builder
	for i, v := range trip.Visits {
		fmt.Fprintf(&b, "%d. %s (leaving %s)\n", i+1, v.City, FormatDate(v.LeavingDate))
	}
	return b.String()
}

func MainMenu(chatID int64) *workflow.Reply {
	return workflow.Say(chatID, "What shall we do? 👇", MainMenuKeyboard())
}

func MainMenuKeyboard() workflow.Keyboard {
	return ui.Inline(
		ui.Row(ui.Btn("🧳 New trip", workflow.ActionNewTrip)),
		ui.Row(ui.Btn("🗺 My trips", CmdTrips), ui.Btn("🗄 Archive", CmdArchive)),
		ui.Row(ui.Btn("👤 Profile", CmdProfile)),
	)
}

func BackToMenu() []workflow.Button {
	return ui.Row(ui.Btn("🏠 Main menu", workflow.ActionMainMenu))
}
