package ui

import (
	"strings"

	"TripBot/bot/workflow"
)

const (
	SkipText     = "Skip ⏭"
	LocationText = "📍 Send my location"
	ShareText    = "👤 Choose a user"
)

// IsSkip accepts the skip button text or a typed "skip".
func IsSkip(text string) bool {
	text = strings.TrimSpace(text)
	return text == SkipText || strings.EqualFold(text, "skip")
}

// YesNoKeyboard creates an inline keyboard with Yes/No buttons.
func YesNoKeyboard() workflow.Keyboard {
	return workflow.Keyboard{Inline: [][]workflow.Button{{
		{Text: "✅ Yes", Data: workflow.ActionYes},
		{Text: "❌ No", Data: workflow.ActionNo},
	}}}
}

func CancelKeyboard() workflow.Keyboard {
	return SingleButtonKeyboard("✖️ Cancel", workflow.ActionCancel)
}

// SingleButtonKeyboard creates an inline keyboard with a single button.
func SingleButtonKeyboard(text, data string) workflow.Keyboard {
	return workflow.Keyboard{Inline: [][]workflow.Button{{{Text: text, Data: data}}}}
}

// Inline stacks the given rows into an inline keyboard.
func Inline(rows ...[]workflow.Button) workflow.Keyboard {
	return workflow.Keyboard{Inline: rows}
}

func Row(buttons ...workflow.Button) []workflow.Button {
	return buttons
}

func Btn(text, data string) workflow.Button {
	return workflow.Button{Text: text, Data: data}
}

func LinkBtn(text, url string) workflow.Button {
	return workflow.Button{Text: text, URL: url}
}

// LocationKeyboard asks for a city as text or a shared location, optionally
// offering the skip button.
func LocationKeyboard(withSkip bool) workflow.Keyboard {
	rows := [][]workflow.KeyButton{{{Text: LocationText, RequestLocation: true}}}
	if withSkip {
		rows = append(rows, []workflow.KeyButton{{Text: SkipText}})
	}
	return workflow.Keyboard{Reply: rows}
}

func SkipKeyboard() workflow.Keyboard {
	return workflow.Keyboard{Reply: [][]workflow.KeyButton{{{Text: SkipText}}}}
}

func UserRequestKeyboard() workflow.Keyboard {
	return workflow.Keyboard{Reply: [][]workflow.KeyButton{{{Text: ShareText, RequestUser: true}}}}
}

// RemoveKeyboard hides any reply keyboard.
func RemoveKeyboard() workflow.Keyboard {
	return workflow.Keyboard{Remove: true}
}
