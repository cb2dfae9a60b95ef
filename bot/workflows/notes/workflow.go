package notes

import (
	"context"
	"log/slog"

	"TripBot/bot/workflow"
	"TripBot/bot/workflow/ui"
	"TripBot/bot/workflows/shared"
	"TripBot/entity"
	"TripBot/internal/lib/sl"
)

const FlowName = "notes"

type State int

const (
	StateNone State = iota
	StateCapture
	StateConfirmRemove
)

// session is either a capture for a trip, optionally overwriting NoteID, or a
// pending removal of NoteID.
type session struct {
	State  State
	TripID int64
	NoteID int64
}

// Flow captures and browses trip notes.
type Flow struct {
	deps     shared.Deps
	sessions *workflow.Store[*session]
	pages    *ui.Pager
	log      *slog.Logger
}

func New(deps shared.Deps) *Flow {
	return &Flow{
		deps:     deps,
		sessions: workflow.NewStore[*session](),
		pages:    ui.NewPager(shared.PageSize),
		log:      deps.Log.With(sl.Module(FlowName)),
	}
}

func (f *Flow) Name() string {
	return FlowName
}

func (f *Flow) Routes() []workflow.Route {
	return []workflow.Route{
		{Prefix: shared.CmdNotes, IDs: 1, Handle: f.handleList},
		{Prefix: shared.CmdNotesPrev, IDs: 1, Handle: f.handleMove(-1)},
		{Prefix: shared.CmdNotesNext, IDs: 1, Handle: f.handleMove(1)},
		{Prefix: shared.CmdNoteNew, IDs: 1, Handle: f.handleNew},
		{Prefix: shared.CmdNote, IDs: 1, Handle: f.handleShow},
		{Prefix: shared.CmdNoteEdit, IDs: 1, Handle: f.handleEdit},
		{Prefix: shared.CmdNoteVisible, IDs: 1, Handle: f.handleVisibility},
		{Prefix: shared.CmdNoteRemove, IDs: 1, Handle: f.handleRemove},
	}
}

func (f *Flow) Reset(user int64) {
	f.sessions.Remove(user)
	f.pages.Reset(user)
}

// Interrupt abandons note capture or removal.
func (f *Flow) Interrupt(user int64) {
	if _, ok := f.sessions.Take(user); ok {
		f.log.Debug("note session abandoned", sl.User(user))
	}
}

func (f *Flow) CurrentState(user int64) State {
	s, ok := f.sessions.Get(user)
	if !ok {
		return StateNone
	}
	return s.State
}

func (f *Flow) handleNew(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	trip, reply := f.deps.LoadMemberTrip(ctx, ev, ids[0])
	if trip == nil {
		return reply
	}
	f.sessions.Set(ev.UserID, &session{State: StateCapture, TripID: trip.ID})
	return workflow.Say(ev.ChatID, textCapturePrompt, ui.CancelKeyboard())
}

func (f *Flow) handleEdit(ctx context.Context, ev workflow.Event, ids []int64) *workflow.Reply {
	note, reply := f.ownNote(ctx, ev, ids[0])
	if note == nil {
		return reply
	}
	f.sessions.Set(ev.UserID, &session{State: StateCapture, TripID: note.TripID, NoteID: note.ID})
	return workflow.Say(ev.ChatID, textEditPrompt, ui.CancelKeyboard())
}

func (f *Flow) HandleMessage(ctx context.Context, ev workflow.Event) *workflow.Reply {
	s, ok := f.sessions.Get(ev.UserID)
	if !ok {
		return nil
	}
	if s.State != StateCapture {
		return workflow.Say(ev.ChatID, textUseButtons)
	}
	kind, content, name, ok := noteContent(ev)
	if !ok {
		return workflow.Say(ev.ChatID, textUnsupported, ui.CancelKeyboard())
	}

	trip, reply := f.deps.LoadMemberTrip(ctx, ev, s.TripID)
	if trip == nil {
		f.sessions.Remove(ev.UserID)
		if reply == nil {
			return workflow.Say(ev.ChatID, shared.TextNotMember)
		}
		return reply
	}

	note := &entity.Note{
		TripID:     trip.ID,
		OwnerID:    ev.UserID,
		Visibility: entity.Private,
		CreatedAt:  f.deps.Now(),
	}
	if s.NoteID != 0 {
		existing, reply := f.ownNote(ctx, ev, s.NoteID)
		if existing == nil {
			f.sessions.Remove(ev.UserID)
			if reply == nil {
				return workflow.Say(ev.ChatID, textNoteGone)
			}
			return reply
		}
		note = existing
	}
	note.Kind = kind
	note.Content = content
	note.Name = name

	if err := f.deps.Notes.SaveNote(ctx, note); err != nil {
		f.log.Error("save note", sl.User(ev.UserID), slog.Int64("trip_id", trip.ID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	f.sessions.Remove(ev.UserID)
	f.log.Debug("note saved",
		sl.User(ev.UserID),
		slog.Int64("note_id", note.ID),
		slog.String("kind", string(note.Kind)),
	)
	return workflow.Say(ev.ChatID, textSaved).Then(noteMenu(ev.ChatID, ev.UserID, note))
}

func (f *Flow) HandleConfirm(ctx context.Context, ev workflow.Event, yes bool) *workflow.Reply {
	s, ok := f.sessions.Get(ev.UserID)
	if !ok || s.State != StateConfirmRemove {
		return nil
	}
	f.sessions.Remove(ev.UserID)
	if !yes {
		return f.handleShow(ctx, ev, []int64{s.NoteID})
	}
	note, reply := f.ownNote(ctx, ev, s.NoteID)
	if note == nil {
		return reply
	}
	if err := f.deps.Notes.DeleteNote(ctx, note.ID); err != nil {
		f.log.Error("delete note", sl.User(ev.UserID), slog.Int64("note_id", note.ID), sl.Err(err))
		f.sessions.Set(ev.UserID, s)
		return workflow.Say(ev.ChatID, shared.TextApology, ui.YesNoKeyboard())
	}
	f.pages.Reset(ev.UserID)
	return workflow.Say(ev.ChatID, textRemoved).Then(f.renderList(ctx, ev, note.TripID, 0))
}

func (f *Flow) HandleCancel(ctx context.Context, ev workflow.Event) *workflow.Reply {
	s, ok := f.sessions.Take(ev.UserID)
	if !ok {
		return nil
	}
	return workflow.Say(ev.ChatID, textCancelled).Then(f.renderList(ctx, ev, s.TripID, f.pages.Current(ev.UserID)))
}

// noteContent picks the single payload of a message. Media wins over text,
// which is then a caption.
func noteContent(ev workflow.Event) (kind entity.NoteKind, content, name string, ok bool) {
	if ev.Unsupported {
		return "", "", "", false
	}
	if ev.Media != nil && ev.Media.FileID != "" {
		name = ev.Media.FileName
		if name == "" {
			name = ev.Text
		}
		if name == "" {
			name = kindTitle(ev.Media.Kind)
		}
		return ev.Media.Kind, ev.Media.FileID, shorten(name), true
	}
	if ev.Text != "" && ev.Location == nil {
		return entity.NoteText, ev.Text, shorten(ev.Text), true
	}
	return "", "", "", false
}
