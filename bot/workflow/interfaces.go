package workflow

import (
	"context"

	"TripBot/entity"
)

type Location struct {
	Lat float64
	Lon float64
}

// Media is a platform file attached to a message.
type Media struct {
	Kind     entity.NoteKind
	FileID   string
	FileName string
}

// Event is a platform-neutral inbound update. Data is set for button presses.
type Event struct {
	UserID       int64
	ChatID       int64
	MessageID    int64
	Text         string
	Data         string
	Location     *Location
	SharedUserID int64
	Media        *Media
	Unsupported  bool
}

func (e Event) IsCallback() bool {
	return e.Data != ""
}

// Button is an inline button; URL buttons ignore Data.
type Button struct {
	Text string
	Data string
	URL  string
}

// KeyButton is a reply keyboard button.
type KeyButton struct {
	Text            string
	RequestLocation bool
	RequestUser     bool
}

type Keyboard struct {
	Inline [][]Button
	Reply  [][]KeyButton
	Remove bool
}

// Message is an outbound message. Media or Photo replace plain text, which is
// then used as a caption. EditID edits an existing message instead.
type Message struct {
	ChatID   int64
	Text     string
	Media    *Media
	Photo    []byte
	Keyboard Keyboard
	EditID   int64
}

// Sent describes a delivered message; FileID is set for uploaded photos.
type Sent struct {
	MessageID int64
	FileID    string
}

// Reply is a flow's answer to an event. A nil *Reply means the flow does not
// handle the event; an empty non-nil Reply means it was handled silently.
type Reply struct {
	Messages []Message
	Notice   string
}

func Say(chatID int64, text string, kb ...Keyboard) *Reply {
	return (&Reply{}).Add(chatID, text, kb...)
}

func (r *Reply) Add(chatID int64, text string, kb ...Keyboard) *Reply {
	msg := Message{ChatID: chatID, Text: text}
	if len(kb) > 0 {
		msg.Keyboard = kb[0]
	}
	r.Messages = append(r.Messages, msg)
	return r
}

func (r *Reply) With(msg Message) *Reply {
	r.Messages = append(r.Messages, msg)
	return r
}

// Then appends the messages of next, which may be nil.
func (r *Reply) Then(next *Reply) *Reply {
	if next == nil {
		return r
	}
	r.Messages = append(r.Messages, next.Messages...)
	if r.Notice == "" {
		r.Notice = next.Notice
	}
	return r
}

// Notify answers a button press with a short toast and nothing else.
func Notify(text string) *Reply {
	return &Reply{Notice: text}
}

// Messenger delivers outbound messages.
type Messenger interface {
	Send(ctx context.Context, msg Message) (Sent, error)
}

// Executor runs slow work off the update-handling goroutine.
type Executor interface {
	Go(name string, task func(ctx context.Context))
}

type MessageHandler interface {
	HandleMessage(ctx context.Context, ev Event) *Reply
}

type StartHandler interface {
	HandleStart(ctx context.Context, ev Event) *Reply
}

type ConfirmHandler interface {
	HandleConfirm(ctx context.Context, ev Event, yes bool) *Reply
}

type CancelHandler interface {
	HandleCancel(ctx context.Context, ev Event) *Reply
}

// Route binds a callback prefix with a fixed number of trailing ids.
type Route struct {
	Prefix string
	IDs    int
	Handle func(ctx context.Context, ev Event, ids []int64) *Reply
}

// Flow is a conversation family known to the router.
type Flow interface {
	Name() string
	Routes() []Route
	// Reset drops every session the flow keeps for the user.
	Reset(user int64)
}

// Interruptible flows are abandoned when the user presses a button owned by
// another flow.
type Interruptible interface {
	Interrupt(user int64)
}
