package entity

import "time"

type NoteKind string

const (
	NoteText      NoteKind = "text"
	NotePhoto     NoteKind = "photo"
	NoteVideo     NoteKind = "video"
	NoteVideoNote NoteKind = "video_note"
	NoteAudio     NoteKind = "audio"
	NoteVoice     NoteKind = "voice"
	NoteDocument  NoteKind = "document"
)

type Visibility string

const (
	Private Visibility = "private"
	Public  Visibility = "public"
)

// Note content is the text itself for NoteText and a platform file id otherwise.
type Note struct {
	ID         int64      `json:"id" bson:"_id"`
	TripID     int64      `json:"trip_id" bson:"trip_id"`
	OwnerID    int64      `json:"owner_id" bson:"owner_id"`
	Kind       NoteKind   `json:"kind" bson:"kind"`
	Content    string     `json:"content" bson:"content"`
	Name       string     `json:"name" bson:"name"`
	Visibility Visibility `json:"visibility" bson:"visibility"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
}

func (n *Note) VisibleTo(user int64) bool {
	return n.Visibility == Public || n.OwnerID == user
}

func (n *Note) ToggleVisibility() {
	if n.Visibility == Public {
		n.Visibility = Private
	} else {
		n.Visibility = Public
	}
}
