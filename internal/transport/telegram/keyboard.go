package telegram

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"typednotify/internal/transport"
)

// callbackPrefix namespaces the screen's callback data ("demo:<button>").
const callbackPrefix = "demo"

func CallbackData(b transport.Button) string {
	return callbackPrefix + ":" + string(b)
}

// ParseCallback maps callback data back to a button.
func ParseCallback(data string) (transport.Button, bool) {
	prefix, action, ok := strings.Cut(strings.TrimSpace(data), ":")
	if !ok || prefix != callbackPrefix {
		return "", false
	}
	return transport.ParseButton(action)
}

// Keyboard is the screen's inline keyboard, two buttons per row.
func Keyboard() *tele.ReplyMarkup {
	rm := &tele.ReplyMarkup{}
	btns := make([]tele.Btn, 0, 4)
	for _, b := range transport.Buttons() {
		btns = append(btns, tele.Btn{Text: b.Title(), Data: CallbackData(b)})
	}
	rm.Inline(rm.Split(2, btns)...)
	return rm
}
