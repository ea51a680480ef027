package demo

import (
	"net/http"
	"strings"

	"github.com/goflash/flash-messages"
	"github.com/goflash/flash-messages/messages"
)

// ReadMessagesPath is where SetMessages redirects to.
const ReadMessagesPath = "/read-messages"

// NoMessages is the body ReadMessages answers with when the queue is empty.
const NoMessages = "No messages yet!"

// SetMessages queues an info and a debug message and redirects to
// ReadMessagesPath.
func SetMessages(c flash.Ctx) error {
	messages.FromCtx(c).
		Info("Hello, world!").
		Debug("This is a debug message.")
	return c.Redirect(http.StatusFound, ReadMessagesPath)
}

// ReadMessages consumes the queue and answers with the messages as
// "level: text" joined by ", ".
func ReadMessages(c flash.Ctx) error {
	msgs := messages.FromCtx(c).Consume()
	if len(msgs) == 0 {
		return c.String(http.StatusOK, NoMessages)
	}
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = m.Format()
	}
	return c.String(http.StatusOK, strings.Join(parts, ", "))
}
