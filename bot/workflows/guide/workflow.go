package guide

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"TripBot/bot/workflow"
	"TripBot/bot/workflow/ui"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
	"TripBot/internal/lib/sl"
)

const FlowName = "guide"

const (
	textPickCity    = "Pick a city to explore 👇"
	textPickKind    = "Showing places in %s. What would you like to see?"
	textSearching   = "Looking for interesting places... 🔎 It may take a while."
	textNothing     = "Sadly I found nothing interesting there 😔"
	textPlacesIn    = "Interesting places in %s:"
	textAdultOnly   = "This section is for adults only."
	textPickFirst   = "Pick a city first."
	textSignUpFirst = "Please sign up first with /start."
)

// Places never fails; an empty list stands for both "nothing" and errors.
type Places interface {
	PlacesNear(ctx context.Context, city entity.City, kinds, minRate string) []entity.Place
}

// selection is the city a user browses, remembered between button presses.
type selection struct {
	TripID  int64
	VisitID int64
	City    entity.City
}

// Flow browses points of interest around the cities of a trip.
type Flow struct {
	deps     shared.Deps
	places   Places
	selected *workflow.Store[selection]
	log      *slog.Logger
}

func New(deps shared.Deps, places Places) *Flow {
	return &Flow{
		deps:     deps,
		places:   places,
		selected: workflow.NewStore[selection](),
		log:      deps.Log.With(sl.Module(FlowName)),
	}
}

func (f *Flow) Name() string {
	return FlowName
}

func (f *Flow) Routes() []workflow.Route {
	routes := []workflow.Route{
		{Prefix: shared.CmdGuide, IDs: 1, Handle: f.handleCities},
		{Prefix: shared.CmdGuideCity, IDs: 2, Handle: f.handleCity},
	}
	for _, c := range entity.PlaceCategories {
		routes = append(routes, workflow.Route{Prefix: shared.CmdGuidePrefix + c.Key, IDs: 1, Handle: f.handleCategory(c)})
	}
	return routes
}

func (f *Flow) Reset(user int64) {
	f.selected.Remove(user)
}

func (f *Flow) handleCities(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	trip, reply := f.deps.LoadMemberTrip(ctx, ev, ids[0])
	if trip == nil {
		return reply
	}

	var rows [][]workflow.Button
	seen := make(map[string]bool)
	for _, v := range trip.Visits {
		if seen[v.City.ID] {
			continue
		}
		seen[v.City.ID] = true
		rows = append(rows, ui.Row(ui.Btn(v.City.String(), workflow.BuildCallback(shared.CmdGuideCity, trip.ID, v.ID))))
	}
	rows = append(rows, ui.Row(ui.Btn("⬅️ Back", workflow.BuildCallback(shared.CmdTrip, trip.ID))))
	return edit(ev, textPickCity, ui.Inline(rows...))
}

func (f *Flow) handleCity(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	trip, reply := f.deps.LoadMemberTrip(ctx, ev, ids[0])
	if trip == nil {
		return reply
	}
	i := trip.VisitIndex(ids[1])
	if i < 0 {
		return nil
	}
	user, err := f.deps.Users.FindUser(ctx, ev.UserID)
	if err != nil {
		f.log.Error("load user", sl.User(ev.UserID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	if user == nil {
		return workflow.Say(ev.ChatID, textSignUpFirst)
	}

	city := trip.Visits[i].City
	f.selected.Set(ev.UserID, selection{TripID: trip.ID, VisitID: ids[1], City: city})
	return edit(ev, fmt.Sprintf(textPickKind, city), categoryMenu(trip.ID, user.IsAdult()))
}

func categoryMenu(tripID int64, adult bool) workflow.Keyboard {
	var rows [][]workflow.Button
	var row []workflow.Button
	for _, c := range entity.PlaceCategories {
		if c.Adult && !adult {
			continue
		}
		row = append(row, ui.Btn(c.Title, workflow.BuildCallback(shared.CmdGuidePrefix+c.Key, tripID)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if row != nil {
		rows = append(rows, row)
	}
	rows = append(rows, ui.Row(ui.Btn("⬅️ Cities", workflow.BuildCallback(shared.CmdGuide, tripID))))
	return ui.Inline(rows...)
}

func (f *Flow) handleCategory(c entity.PlaceCategory) func(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	return func(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
		trip, reply := f.deps.LoadMemberTrip(ctx, ev, ids[0])
		if trip == nil {
			return reply
		}
		sel, ok := f.selected.Get(ev.UserID)
		if !ok || sel.TripID != trip.ID {
			return workflow.Notify(textPickFirst)
		}
		if c.Adult {
			user, err := f.deps.Users.FindUser(ctx, ev.UserID)
			if err != nil {
				f.log.Error("load user", sl.User(ev.UserID), sl.Err(err))
				return workflow.Say(ev.ChatID, shared.TextApology)
			}
			if user == nil || !user.IsAdult() {
				return workflow.Notify(textAdultOnly)
			}
		}

		chatID, messageID := ev.ChatID, ev.MessageID
		fetch := func(ctx context.Context) []entity.Place {
			return f.places.PlacesNear(ctx, sel.City, c.Kinds, c.MinRate)
		}
		workflow.Later(f.deps.Async, ev.UserID, "places", fetch, func(_ context.Context, list []entity.Place) *workflow.Reply {
			f.log.Debug("places found", sl.User(ev.UserID), slog.String("category", c.Key), slog.Int("count", len(list)))
			back := ui.Inline(ui.Row(ui.Btn("⬅️ Back", workflow.BuildCallback(shared.CmdGuideCity, sel.TripID, sel.VisitID))))
			return &workflow.Reply{Messages: []workflow.Message{{
				ChatID:   chatID,
				Text:     placesText(sel.City, list),
				Keyboard: back,
				EditID:   messageID,
			}}}
		})
		return edit(ev, textSearching, workflow.Keyboard{})
	}
}

func placesText(city entity.City, list []entity.Place) string {
	if len(list) == 0 {
		return textNothing
	}
	var b strings.Builder
	fmt.Fprintf(&b, textPlacesIn, city)
	for _, p := range list {
		fmt.Fprintf(&b, "\n\n%s %s", p.Name, stars(p.Rate))
		if len(p.Kinds) > 0 {
			fmt.Fprintf(&b, "\n%s", strings.ReplaceAll(strings.Join(p.Kinds, ", "), "_", " "))
		}
		if p.URL != "" {
			fmt.Fprintf(&b, "\n%s", p.URL)
		}
	}
	return b.String()
}

// stars renders an OpenTripMap rate such as "3h" as three stars.
func stars(rate string) string {
	n := 0
	if rate != "" && rate[0] >= '1' && rate[0] <= '7' {
		n = min(int(rate[0]-'0'), 3)
	}
	return strings.Repeat("⭐", n)
}

// edit replaces the message holding the pressed button.
func edit(ev workflow.Event, text string, kb workflow.Keyboard) *workflow.Reply {
	return &workflow.Reply{Messages: []workflow.Message{{
		ChatID:   ev.ChatID,
		Text:     text,
		Keyboard: kb,
		EditID:   ev.MessageID,
	}}}
}
