package bot

import (
	"TripBot/bot/workflow"
	"TripBot/entity"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// messageEvent converts an inbound message into a workflow event. Captions
// travel as Text so media notes can be named after them.
func messageEvent(userID int64, msg *tgbotapi.Message) workflow.Event {
	ev := workflow.Event{
		UserID:    userID,
		ChatID:    msg.Chat.Id,
		MessageID: msg.MessageId,
		Text:      msg.Text,
	}
	if ev.Text == "" {
		ev.Text = msg.Caption
	}

	switch {
	case msg.Location != nil:
		ev.Location = &workflow.Location{Lat: msg.Location.Latitude, Lon: msg.Location.Longitude}
	case msg.UsersShared != nil && len(msg.UsersShared.Users) > 0:
		ev.SharedUserID = msg.UsersShared.Users[0].UserId
	default:
		ev.Media = messageMedia(msg)
		if ev.Media == nil && ev.Text == "" {
			ev.Unsupported = true
		}
	}
	return ev
}

// messageMedia picks the attachment in a fixed order: round videos and voice
// messages are also videos and audio as far as the user is concerned.
func messageMedia(msg *tgbotapi.Message) *workflow.Media {
	switch {
	case msg.VideoNote != nil:
		return &workflow.Media{Kind: entity.NoteVideoNote, FileID: msg.VideoNote.FileId}
	case msg.Voice != nil:
		return &workflow.Media{Kind: entity.NoteVoice, FileID: msg.Voice.FileId}
	case msg.Audio != nil:
		return &workflow.Media{Kind: entity.NoteAudio, FileID: msg.Audio.FileId, FileName: msg.Audio.FileName}
	case msg.Document != nil:
		return &workflow.Media{Kind: entity.NoteDocument, FileID: msg.Document.FileId, FileName: msg.Document.FileName}
	case msg.Video != nil:
		return &workflow.Media{Kind: entity.NoteVideo, FileID: msg.Video.FileId, FileName: msg.Video.FileName}
	case len(msg.Photo) > 0:
		return &workflow.Media{Kind: entity.NotePhoto, FileID: msg.Photo[len(msg.Photo)-1].FileId}
	}
	return nil
}

func callbackEvent(cq *tgbotapi.CallbackQuery) workflow.Event {
	ev := workflow.Event{
		UserID: cq.From.Id,
		ChatID: cq.From.Id,
		Data:   cq.Data,
	}
	if cq.Message != nil {
		ev.ChatID = cq.Message.GetChat().Id
		ev.MessageID = cq.Message.GetMessageId()
	}
	return ev
}
