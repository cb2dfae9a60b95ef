package weather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"TripBot/bot/workflow"
	"TripBot/bot/workflow/ui"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
	"TripBot/internal/lib/sl"
)

const FlowName = "weather"

const (
	textLooking  = "Looking at the sky... ⏳"
	textNoVisits = "The trip has no cities."
	fetchLimit   = 3
)

// Forecaster never fails; it answers a default forecast when it has to.
type Forecaster interface {
	ForecastFor(ctx context.Context, city entity.City, date time.Time) entity.Forecast
	Clamp(date time.Time) time.Time
}

// Flow shows forecasts for the cities of a trip, a page of visits at a time.
type Flow struct {
	deps  shared.Deps
	sky   Forecaster
	pages *ui.Pager
	log   *slog.Logger
}

func New(deps shared.Deps, sky Forecaster) *Flow {
	return &Flow{
		deps:  deps,
		sky:   sky,
		pages: ui.NewPager(shared.PageSize),
		log:   deps.Log.With(sl.Module(FlowName)),
	}
}

func (f *Flow) Name() string {
	return FlowName
}

func (f *Flow) Routes() []workflow.Route {
	return []workflow.Route{
		{Prefix: shared.CmdWeather, IDs: 1, Handle: f.handleShow},
		{Prefix: shared.CmdWeatherPrev, IDs: 1, Handle: f.handleMove(-1)},
		{Prefix: shared.CmdWeatherNext, IDs: 1, Handle: f.handleMove(1)},
	}
}

func (f *Flow) Reset(user int64) {
	f.pages.Reset(user)
}

func (f *Flow) handleShow(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	trip, reply := f.deps.LoadMemberTrip(ctx, ev, ids[0])
	if trip == nil {
		return reply
	}
	f.pages.Reset(ev.UserID)
	return f.render(ev, trip, 0)
}

func (f *Flow) handleMove(delta int) func(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	return func(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
		trip, reply := f.deps.LoadMemberTrip(ctx, ev, ids[0])
		if trip == nil {
			return reply
		}
		page, ok := f.pages.Move(ev.UserID, delta, len(trip.Visits))
		if !ok {
			return workflow.Notify(ui.PageMissing)
		}
		return f.render(ev, trip, page)
	}
}

// stop is a visit with the day its forecast is shown for.
type stop struct {
	City      entity.City
	Arrival   time.Time
	Inherited bool
}

// arrivals dates every visit by the day the traveller gets there: the leaving
// date of the previous visit. Undated predecessors pass on the last known
// date, and the first visit uses its own date or today.
func arrivals(trip *entity.Trip, today time.Time) []stop {
	stops := make([]stop, len(trip.Visits))
	last := today
	if len(trip.Visits) > 0 && trip.Visits[0].LeavingDate != nil {
		last = *trip.Visits[0].LeavingDate
	}
	for i, v := range trip.Visits {
		s := stop{City: v.City, Arrival: last}
		if i > 0 {
			prev := trip.Visits[i-1].LeavingDate
			if prev != nil {
				s.Arrival = *prev
				last = *prev
			} else {
				s.Inherited = true
			}
		}
		stops[i] = s
	}
	return stops
}

// render answers with an interim message and sends the forecasts once every
// city of the page is fetched.
func (f *Flow) render(ev workflow.Event, trip *entity.Trip, page int) *workflow.Reply {
	if len(trip.Visits) == 0 {
		return workflow.Say(ev.ChatID, textNoVisits)
	}
	stops := ui.GetPageSlice(arrivals(trip, f.deps.Now()), page, shared.PageSize)
	total := ui.TotalPages(len(trip.Visits), shared.PageSize)
	tripID, name := trip.ID, trip.Name

	fetch := func(ctx context.Context) []entity.Forecast {
		out := make([]entity.Forecast, len(stops))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(fetchLimit)
		for i, s := range stops {
			g.Go(func() error {
				out[i] = f.sky.ForecastFor(gctx, s.City, s.Arrival)
				return nil
			})
		}
		_ = g.Wait()
		return out
	}
	workflow.Later(f.deps.Async, ev.UserID, "forecast", fetch, func(_ context.Context, list []entity.Forecast) *workflow.Reply {
		f.log.Debug("forecast ready", sl.User(ev.UserID), slog.Int64("trip_id", tripID), slog.Int("page", page))
		return f.forecastMessage(ev.ChatID, tripID, name, stops, list, page, total)
	})
	return workflow.Say(ev.ChatID, textLooking)
}

func (f *Flow) forecastMessage(chatID, tripID int64, name string, stops []stop, list []entity.Forecast, page, total int) *workflow.Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "🌤 %s, page %d of %d\n", name, page+1, total)
	for i, fc := range list {
		s := stops[i]
		fmt.Fprintf(&b, "\n%s %s, %s\n", fc.Code.Emoji(), s.City.Name, fc.Date.Format(shared.DateLayout))
		if s.Inherited {
			b.WriteString("(the arrival date is not set, using the last known one)\n")
		}
		if clamped := f.sky.Clamp(s.Arrival); clamped.Before(truncate(s.Arrival)) {
			b.WriteString("(that's too far ahead, showing the furthest forecast)\n")
		}
		fmt.Fprintf(&b, "%s\n🌡 %.0f…%.0f °C, feels like %.0f…%.0f °C\n☔ %d%%  💧 %.0f%%\n",
			fc.Code.Description(),
			fc.TemperatureMin, fc.TemperatureMax,
			fc.ApparentMin, fc.ApparentMax,
			fc.PrecipitationChance, fc.Humidity,
		)
	}

	var rows [][]workflow.Button
	nav := ui.NavRow(
		workflow.BuildCallback(shared.CmdWeatherPrev, tripID),
		workflow.BuildCallback(shared.CmdWeatherNext, tripID),
		page, total,
	)
	if nav != nil {
		rows = append(rows, nav)
	}
	rows = append(rows, ui.Row(ui.Btn("⬅️ Back", workflow.BuildCallback(shared.CmdTrip, tripID))))
	return workflow.Say(chatID, b.String(), ui.Inline(rows...))
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
