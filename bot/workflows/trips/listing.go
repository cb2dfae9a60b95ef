package trips

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

const (
	textNoTrips    = "You have no trips yet. Let's plan one! 🧳"
	textNoArchived = "The archive is empty."
)

func (f *Flow) pager(archived bool) *ui.Pager {
	if archived {
		return f.archived
	}
	return f.active
}

func (f *Flow) listFirst(archived bool) func(ctx context.Context, ev workflow.Event, _ []int64) *workflow.Reply {
	return func(ctx context.Context, ev workflow.Event, _ []int64) *workflow.Reply {
		f.pager(archived).Reset(ev.UserID)
		return f.renderList(ctx, ev, archived, 0)
	}
}

func (f *Flow) listMove(archived bool, delta int) func(ctx context.Context, ev workflow.Event, _ []int64) *workflow.Reply {
	return func(ctx context.Context, ev workflow.Event, _ []int64) *workflow.Reply {
		count, err := f.deps.Trips.CountTripsByMember(ctx, ev.UserID, archived)
		if err != nil {
			f.log.Error("count trips", sl.User(ev.UserID), sl.Err(err))
			return workflow.Say(ev.ChatID, shared.TextApology)
		}
		page, ok := f.pager(archived).Move(ev.UserID, delta, count)
		if !ok {
			return workflow.Notify(ui.PageMissing)
		}
		return f.renderList(ctx, ev, archived, page)
	}
}

// renderList shows one page of the user's trips, editing the list message
// in place when the user pages through it.
func (f *Flow) renderList(ctx context.Context, ev workflow.Event, archived bool, page int) *workflow.Reply {
	count, err := f.deps.Trips.CountTripsByMember(ctx, ev.UserID, archived)
	if err != nil {
		f.log.Error("count trips", sl.User(ev.UserID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	list, err := f.deps.Trips.FindTripsByMember(ctx, ev.UserID, archived, page, shared.PageSize)
	if err != nil {
		f.log.Error("list trips", sl.User(ev.UserID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}

	total := ui.TotalPages(count, shared.PageSize)
	var text string
	var rows [][]workflow.Button
	switch {
	case len(list) == 0 && archived:
		text = textNoArchived
	case len(list) == 0:
		text = textNoTrips
	case archived:
		text = fmt.Sprintf("Archived trips, page %d of %d:", page+1, total)
	default:
		text = fmt.Sprintf("Your trips, page %d of %d:", page+1, total)
	}
	for _, t := range list {
		label := fmt.Sprintf("%s · %s", t.Name, shared.FormatDate(t.LeavingDate))
		rows = append(rows, ui.Row(ui.Btn(label, workflow.BuildCallback(shared.CmdTrip, t.ID))))
	}
	prev, next := shared.CmdTripsPrev, shared.CmdTripsNext
	if archived {
		prev, next = shared.CmdArchivePrev, shared.CmdArchiveNext
	}
	if nav := ui.NavRow(prev, next, page, total); nav != nil {
		rows = append(rows, nav)
	}
	if !archived {
		rows = append(rows, ui.Row(ui.Btn("🧳 New trip", workflow.ActionNewTrip)))
	}
	rows = append(rows, shared.BackToMenu())

	msg := workflow.Message{ChatID: ev.ChatID, Text: text, Keyboard: ui.Inline(rows...)}
	if isPaging(ev.Data) {
		msg.EditID = ev.MessageID
	}
	return (&workflow.Reply{}).With(msg)
}

func isPaging(data string) bool {
	return strings.HasSuffix(data, "_prev") || strings.HasSuffix(data, "_next")
}

func (f *Flow) handleShow(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	trip, reply := f.deps.LoadMemberTrip(ctx, ev, ids[0])
	if trip == nil {
		return reply
	}
	return f.card(ctx, ev, trip)
}

// card renders a trip with the actions available to the user. Archived trips
// keep only viewing actions.
func (f *Flow) card(_ context.Context, ev workflow.Event, trip *entity.Trip) *workflow.Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "🧳 %s", trip.Name)
	if trip.Archived {
		b.WriteString(" (archived)")
	}
	fmt.Fprintf(&b, "\n\n%s", shared.Itinerary(trip))
	if n := len(trip.Companions); n > 0 {
		fmt.Fprintf(&b, "\nCompanions: %d", n)
	}

	id := trip.ID
	rows := [][]workflow.Button{
		ui.Row(
			ui.Btn("📝 Notes", workflow.BuildCallback(shared.CmdNotes, id)),
			ui.Btn("👥 Companions", workflow.BuildCallback(shared.CmdCompanions, id)),
		),
		ui.Row(
			ui.Btn("🌤 Weather", workflow.BuildCallback(shared.CmdWeather, id)),
			ui.Btn("🏛 Guide", workflow.BuildCallback(shared.CmdGuide, id)),
		),
	}
	if trip.OwnerID == ev.UserID && !trip.Archived {
		rows = append(rows,
			ui.Row(
				ui.Btn("✏️ Edit route", workflow.BuildCallback(shared.CmdEdit, id)),
				ui.Btn("🔤 Rename", workflow.BuildCallback(shared.CmdRename, id)),
			),
			ui.Row(ui.Btn("🗄 Archive", workflow.BuildCallback(shared.CmdArchiveTrip, id))),
		)
	}
	back := shared.CmdTrips
	if trip.Archived {
		back = shared.CmdArchive
	}
	rows = append(rows, ui.Row(ui.Btn("⬅️ Back", back)))

	msg := workflow.Message{ChatID: ev.ChatID, Text: b.String(), Keyboard: ui.Inline(rows...)}
	if trip.ImageID != "" {
		msg.Media = &workflow.Media{Kind: entity.NotePhoto, FileID: trip.ImageID}
	}
	return (&workflow.Reply{}).With(msg)
}

func (f *Flow) handleCompanions(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	trip, reply := f.deps.LoadMemberTrip(ctx, ev, ids[0])
	if trip == nil {
		return reply
	}
	return f.companions(ctx, ev, trip)
}

func (f *Flow) companions(ctx context.Context, ev workflow.Event, trip *entity.Trip) *workflow.Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 %s\n\n", trip.Name)
	for i, id := range trip.Members() {
		name := fmt.Sprintf("user %d", id)
		u, err := f.deps.Users.FindUser(ctx, id)
		if err != nil {
			f.log.Warn("load member", slog.Int64("member", id), sl.Err(err))
		}
		if u != nil {
			name = u.Handle
		}
		if i == 0 {
			name += " (owner)"
		}
		fmt.Fprintf(&b, "• %s\n", name)
	}

	var rows [][]workflow.Button
	if trip.OwnerID == ev.UserID && !trip.Archived {
		row := ui.Row(ui.Btn("➕ Invite", workflow.BuildCallback(shared.CmdInvite, trip.ID)))
		if len(trip.Companions) > 0 {
			row = append(row, ui.Btn("➖ Remove", workflow.BuildCallback(shared.CmdUninvite, trip.ID)))
		}
		rows = append(rows, row)
	}
	rows = append(rows, ui.Row(ui.Btn("⬅️ Back", workflow.BuildCallback(shared.CmdTrip, trip.ID))))
	return workflow.Say(ev.ChatID, b.String(), ui.Inline(rows...))
}
