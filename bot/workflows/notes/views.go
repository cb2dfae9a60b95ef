package notes

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
	textCapturePrompt = "Send me the note: text, a photo, a video, a video note, a voice message, audio or a document."
	textEditPrompt    = "Send the new content of the note."
	textUnsupported   = "I can't keep this kind of message, send one text or one file."
	textUseButtons    = "Please use the buttons below."
	textSaved         = "The note is saved 📝"
	textRemoved       = "The note is removed."
	textCancelled     = "Cancelled."
	textNoteGone      = "This note no longer exists."
	textNoNotes       = "There are no notes yet."
	textOwnerOnly     = "Only the author can do this."
	textRemovePrompt  = "Remove this note?"

	nameLimit = 30
)

var kindTitles = map[entity.NoteKind]string{
	entity.NoteText:      "Text",
	entity.NotePhoto:     "Photo",
	entity.NoteVideo:     "Video",
	entity.NoteVideoNote: "Video note",
	entity.NoteAudio:     "Audio",
	entity.NoteVoice:     "Voice",
	entity.NoteDocument:  "Document",
}

func kindTitle(kind entity.NoteKind) string {
	if t, ok := kindTitles[kind]; ok {
		return t
	}
	return string(kind)
}

func shorten(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= nameLimit {
		return s
	}
	return string(r[:nameLimit-1]) + "…"
}

func visibilityIcon(v entity.Visibility) string {
	if v == entity.Public {
		return "🌐"
	}
	return "🔒"
}

func (f *Flow) handleList(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	f.pages.Reset(ev.UserID)
	return f.renderList(ctx, ev, ids[0], 0)
}

func (f *Flow) handleMove(delta int) func(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	return func(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
		trip, reply := f.deps.LoadMemberTrip(ctx, ev, ids[0])
		if trip == nil {
			return reply
		}
		count, err := f.deps.Notes.CountVisibleNotes(ctx, trip.ID, ev.UserID)
		if err != nil {
			f.log.Error("count notes", sl.User(ev.UserID), sl.Err(err))
			return workflow.Say(ev.ChatID, shared.TextApology)
		}
		page, ok := f.pages.Move(ev.UserID, delta, count)
		if !ok {
			return workflow.Notify(ui.PageMissing)
		}
		reply = f.renderList(ctx, ev, trip.ID, page)
		if reply != nil && len(reply.Messages) == 1 {
			reply.Messages[0].EditID = ev.MessageID
		}
		return reply
	}
}

// renderList shows the notes the user can see: public ones and their own.
func (f *Flow) renderList(ctx context.Context, ev workflow.Event, tripID int64, page int) *workflow.Reply {
	trip, reply := f.deps.LoadMemberTrip(ctx, ev, tripID)
	if trip == nil {
		return reply
	}
	count, err := f.deps.Notes.CountVisibleNotes(ctx, trip.ID, ev.UserID)
	if err != nil {
		f.log.Error("count notes", sl.User(ev.UserID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	list, err := f.deps.Notes.FindVisibleNotes(ctx, trip.ID, ev.UserID, page, shared.PageSize)
	if err != nil {
		f.log.Error("list notes", sl.User(ev.UserID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}

	total := ui.TotalPages(count, shared.PageSize)
	text := fmt.Sprintf("📝 Notes of \"%s\", page %d of %d", trip.Name, page+1, total)
	if len(list) == 0 {
		text = fmt.Sprintf("📝 %s\n\n%s", trip.Name, textNoNotes)
	}
	var rows [][]workflow.Button
	for _, n := range list {
		label := fmt.Sprintf("%s %s · %s", visibilityIcon(n.Visibility), n.Name, kindTitle(n.Kind))
		rows = append(rows, ui.Row(ui.Btn(label, workflow.BuildCallback(shared.CmdNote, n.ID))))
	}
	nav := ui.NavRow(
		workflow.BuildCallback(shared.CmdNotesPrev, trip.ID),
		workflow.BuildCallback(shared.CmdNotesNext, trip.ID),
		page, total,
	)
	if nav != nil {
		rows = append(rows, nav)
	}
	rows = append(rows,
		ui.Row(ui.Btn("➕ New note", workflow.BuildCallback(shared.CmdNoteNew, trip.ID))),
		ui.Row(ui.Btn("⬅️ Back", workflow.BuildCallback(shared.CmdTrip, trip.ID))),
	)
	return workflow.Say(ev.ChatID, text, ui.Inline(rows...))
}

// visibleNote loads a note the user may see. A nil note with a nil reply
// means the id is stale.
func (f *Flow) visibleNote(ctx context.Context, ev workflow.Event, noteID int64) (*entity.Note, *workflow.Reply) {
	note, err := f.deps.Notes.FindNote(ctx, noteID)
	if err != nil {
		f.log.Error("load note", slog.Int64("note_id", noteID), sl.Err(err))
		return nil, workflow.Say(ev.ChatID, shared.TextApology)
	}
	if note == nil {
		return nil, nil
	}
	trip, err := f.deps.Trips.FindTripByNote(ctx, note)
	if err != nil {
		f.log.Error("load note trip", slog.Int64("note_id", noteID), sl.Err(err))
		return nil, workflow.Say(ev.ChatID, shared.TextApology)
	}
	if trip == nil {
		return nil, nil
	}
	if !trip.IsMember(ev.UserID) || !note.VisibleTo(ev.UserID) {
		return nil, workflow.Notify(shared.TextNotMember)
	}
	return note, nil
}

func (f *Flow) ownNote(ctx context.Context, ev workflow.Event, noteID int64) (*entity.Note, *workflow.Reply) {
	note, reply := f.visibleNote(ctx, ev, noteID)
	if note == nil {
		return nil, reply
	}
	if note.OwnerID != ev.UserID {
		return nil, workflow.Notify(textOwnerOnly)
	}
	return note, nil
}

// handleShow sends the note itself followed by its menu.
func (f *Flow) handleShow(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	note, reply := f.visibleNote(ctx, ev, ids[0])
	if note == nil {
		return reply
	}
	content := workflow.Message{ChatID: ev.ChatID, Text: note.Content}
	if note.Kind != entity.NoteText {
		content.Text = note.Name
		content.Media = &workflow.Media{Kind: note.Kind, FileID: note.Content, FileName: note.Name}
	}
	return (&workflow.Reply{}).With(content).Then(noteMenu(ev.ChatID, ev.UserID, note))
}

func noteMenu(chatID, user int64, note *entity.Note) *workflow.Reply {
	text := fmt.Sprintf("%s %s · %s, added %s",
		visibilityIcon(note.Visibility), note.Name, kindTitle(note.Kind), note.CreatedAt.Format(shared.DateLayout))
	var rows [][]workflow.Button
	if note.OwnerID == user {
		toggle := "🌐 Make public"
		if note.Visibility == entity.Public {
			toggle = "🔒 Make private"
		}
		rows = append(rows,
			ui.Row(
				ui.Btn("✏️ Replace", workflow.BuildCallback(shared.CmdNoteEdit, note.ID)),
				ui.Btn(toggle, workflow.BuildCallback(shared.CmdNoteVisible, note.ID)),
			),
			ui.Row(ui.Btn("🗑 Remove", workflow.BuildCallback(shared.CmdNoteRemove, note.ID))),
		)
	}
	rows = append(rows, ui.Row(ui.Btn("⬅️ All notes", workflow.BuildCallback(shared.CmdNotes, note.TripID))))
	return workflow.Say(chatID, text, ui.Inline(rows...))
}

func (f *Flow) handleVisibility(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	note, reply := f.ownNote(ctx, ev, ids[0])
	if note == nil {
		return reply
	}
	note.ToggleVisibility()
	if err := f.deps.Notes.SaveNote(ctx, note); err != nil {
		f.log.Error("toggle visibility", sl.User(ev.UserID), slog.Int64("note_id", note.ID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	reply = noteMenu(ev.ChatID, ev.UserID, note)
	reply.Messages[0].EditID = ev.MessageID
	reply.Notice = fmt.Sprintf("The note is %s now", note.Visibility)
	return reply
}

func (f *Flow) handleRemove(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	note, reply := f.ownNote(ctx, ev, ids[0])
	if note == nil {
		return reply
	}
	f.sessions.Set(ev.UserID, &session{State: StateConfirmRemove, TripID: note.TripID, NoteID: note.ID})
	return workflow.Say(ev.ChatID, textRemovePrompt, ui.YesNoKeyboard())
}
