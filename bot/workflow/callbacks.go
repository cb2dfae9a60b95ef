package workflow

import (
	"strconv"
	"strings"
)

// Fixed callback payloads.
const (
	ActionYes        = "yes"
	ActionNo         = "no"
	ActionCancel     = "cancel"
	ActionMainMenu   = "main_menu"
	ActionNewTrip    = "new_trip"
	ActionRemoveLast = "remove_last"
	ActionNoop       = "noop"

	CommandStart = "/start"
)

const maxCallbackIDs = 2

// CallbackData is a parsed payload such as "trip_city_12_3":
// Prefix "trip_city", IDs [12 3].
type CallbackData struct {
	Prefix string
	IDs    []int64
}

// ParseCallback splits data on "_" and takes up to two trailing all-digit
// tokens as ids. ok is false for empty payloads and ids that overflow int64.
func ParseCallback(data string) (cb CallbackData, ok bool) {
	if data == "" {
		return cb, false
	}
	tokens := strings.Split(data, "_")
	end := len(tokens)
	var ids []int64
	for end > 1 && len(ids) < maxCallbackIDs && isDigits(tokens[end-1]) {
		id, err := strconv.ParseInt(tokens[end-1], 10, 64)
		if err != nil {
			return cb, false
		}
		ids = append([]int64{id}, ids...)
		end--
	}
	prefix := strings.Join(tokens[:end], "_")
	if prefix == "" {
		return cb, false
	}
	return CallbackData{Prefix: prefix, IDs: ids}, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// BuildCallback joins a prefix and ids into a payload.
func BuildCallback(prefix string, ids ...int64) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, id := range ids {
		b.WriteByte('_')
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}

func IsConfirmation(data string) bool {
	return data == ActionYes || data == ActionNo
}
