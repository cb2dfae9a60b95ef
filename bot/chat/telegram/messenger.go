package telegram

import (
	"bytes"
	"context"
	"fmt"

	"TripBot/bot/workflow"
	"TripBot/entity"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// TelegramAPI defines the Telegram bot methods needed by the messenger.
// This avoids importing the concrete bot type and keeps the messenger testable.
type TelegramAPI interface {
	SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error)
	EditMessageText(text string, opts *tgbotapi.EditMessageTextOpts) (*tgbotapi.Message, bool, error)
	SendPhoto(chatId int64, photo tgbotapi.InputFileOrString, opts *tgbotapi.SendPhotoOpts) (*tgbotapi.Message, error)
	SendVideo(chatId int64, video tgbotapi.InputFileOrString, opts *tgbotapi.SendVideoOpts) (*tgbotapi.Message, error)
	SendVideoNote(chatId int64, videoNote tgbotapi.InputFileOrString, opts *tgbotapi.SendVideoNoteOpts) (*tgbotapi.Message, error)
	SendAudio(chatId int64, audio tgbotapi.InputFileOrString, opts *tgbotapi.SendAudioOpts) (*tgbotapi.Message, error)
	SendVoice(chatId int64, voice tgbotapi.InputFileOrString, opts *tgbotapi.SendVoiceOpts) (*tgbotapi.Message, error)
	SendDocument(chatId int64, document tgbotapi.InputFileOrString, opts *tgbotapi.SendDocumentOpts) (*tgbotapi.Message, error)
}

type sendFunc func(api TelegramAPI, chatID int64, file tgbotapi.InputFileOrString, caption string, markup tgbotapi.ReplyMarkup) (*tgbotapi.Message, error)

// senders maps a note kind to the Telegram method that can resend it by file id.
var senders = map[entity.NoteKind]sendFunc{
	entity.NotePhoto: func(api TelegramAPI, chatID int64, file tgbotapi.InputFileOrString, caption string, markup tgbotapi.ReplyMarkup) (*tgbotapi.Message, error) {
		return api.SendPhoto(chatID, file, &tgbotapi.SendPhotoOpts{Caption: caption, ReplyMarkup: markup})
	},
	entity.NoteVideo: func(api TelegramAPI, chatID int64, file tgbotapi.InputFileOrString, caption string, markup tgbotapi.ReplyMarkup) (*tgbotapi.Message, error) {
		return api.SendVideo(chatID, file, &tgbotapi.SendVideoOpts{Caption: caption, ReplyMarkup: markup})
	},
	entity.NoteVideoNote: func(api TelegramAPI, chatID int64, file tgbotapi.InputFileOrString, _ string, markup tgbotapi.ReplyMarkup) (*tgbotapi.Message, error) {
		return api.SendVideoNote(chatID, file, &tgbotapi.SendVideoNoteOpts{ReplyMarkup: markup})
	},
	entity.NoteAudio: func(api TelegramAPI, chatID int64, file tgbotapi.InputFileOrString, caption string, markup tgbotapi.ReplyMarkup) (*tgbotapi.Message, error) {
		return api.SendAudio(chatID, file, &tgbotapi.SendAudioOpts{Caption: caption, ReplyMarkup: markup})
	},
	entity.NoteVoice: func(api TelegramAPI, chatID int64, file tgbotapi.InputFileOrString, caption string, markup tgbotapi.ReplyMarkup) (*tgbotapi.Message, error) {
		return api.SendVoice(chatID, file, &tgbotapi.SendVoiceOpts{Caption: caption, ReplyMarkup: markup})
	},
	entity.NoteDocument: func(api TelegramAPI, chatID int64, file tgbotapi.InputFileOrString, caption string, markup tgbotapi.ReplyMarkup) (*tgbotapi.Message, error) {
		return api.SendDocument(chatID, file, &tgbotapi.SendDocumentOpts{Caption: caption, ReplyMarkup: markup})
	},
}

// Messenger implements workflow.Messenger for Telegram using native keyboards.
type Messenger struct {
	api TelegramAPI
}

func NewMessenger(api TelegramAPI) *Messenger {
	return &Messenger{api: api}
}

func (m *Messenger) Send(_ context.Context, msg workflow.Message) (workflow.Sent, error) {
	switch {
	case msg.Photo != nil:
		file := tgbotapi.InputFileByReader("route.png", bytes.NewReader(msg.Photo))
		sent, err := m.api.SendPhoto(msg.ChatID, file, &tgbotapi.SendPhotoOpts{
			Caption:     msg.Text,
			ReplyMarkup: replyMarkup(msg.Keyboard),
		})
		if err != nil {
			return workflow.Sent{}, err
		}
		out := workflow.Sent{MessageID: sent.MessageId}
		if n := len(sent.Photo); n > 0 {
			out.FileID = sent.Photo[n-1].FileId
		}
		return out, nil

	case msg.Media != nil:
		send, ok := senders[msg.Media.Kind]
		if !ok {
			return workflow.Sent{}, fmt.Errorf("unsupported media kind %q", msg.Media.Kind)
		}
		sent, err := send(m.api, msg.ChatID, tgbotapi.InputFileByID(msg.Media.FileID), msg.Text, replyMarkup(msg.Keyboard))
		if err != nil {
			return workflow.Sent{}, err
		}
		return workflow.Sent{MessageID: sent.MessageId}, nil

	case msg.EditID != 0:
		_, _, err := m.api.EditMessageText(msg.Text, &tgbotapi.EditMessageTextOpts{
			ChatId:             msg.ChatID,
			MessageId:          msg.EditID,
			ReplyMarkup:        inlineMarkup(msg.Keyboard.Inline),
			LinkPreviewOptions: &tgbotapi.LinkPreviewOptions{IsDisabled: true},
		})
		if err != nil {
			return workflow.Sent{}, err
		}
		return workflow.Sent{MessageID: msg.EditID}, nil
	}

	sent, err := m.api.SendMessage(msg.ChatID, msg.Text, &tgbotapi.SendMessageOpts{
		ReplyMarkup:        replyMarkup(msg.Keyboard),
		LinkPreviewOptions: &tgbotapi.LinkPreviewOptions{IsDisabled: true},
	})
	if err != nil {
		return workflow.Sent{}, err
	}
	return workflow.Sent{MessageID: sent.MessageId}, nil
}

func replyMarkup(kb workflow.Keyboard) tgbotapi.ReplyMarkup {
	switch {
	case kb.Remove:
		return tgbotapi.ReplyKeyboardRemove{RemoveKeyboard: true}
	case len(kb.Inline) > 0:
		return inlineMarkup(kb.Inline)
	case len(kb.Reply) > 0:
		keyboard := make([][]tgbotapi.KeyboardButton, len(kb.Reply))
		for i, row := range kb.Reply {
			keyboard[i] = make([]tgbotapi.KeyboardButton, len(row))
			for j, btn := range row {
				b := tgbotapi.KeyboardButton{Text: btn.Text, RequestLocation: btn.RequestLocation}
				if btn.RequestUser {
					b.RequestUsers = &tgbotapi.KeyboardButtonRequestUsers{RequestId: 1, MaxQuantity: 1}
				}
				keyboard[i][j] = b
			}
		}
		return tgbotapi.ReplyKeyboardMarkup{
			Keyboard:        keyboard,
			ResizeKeyboard:  true,
			OneTimeKeyboard: true,
		}
	}
	return nil
}

func inlineMarkup(rows [][]workflow.Button) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, len(rows))
	for i, row := range rows {
		keyboard[i] = make([]tgbotapi.InlineKeyboardButton, len(row))
		for j, btn := range row {
			if btn.URL != "" {
				keyboard[i][j] = tgbotapi.InlineKeyboardButton{Text: btn.Text, Url: btn.URL}
				continue
			}
			keyboard[i][j] = tgbotapi.InlineKeyboardButton{
				Text:         btn.Text,
				CallbackData: btn.Data,
			}
		}
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}
