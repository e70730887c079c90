package send

import (
	"errors"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"google.golang.org/protobuf/proto"
)

// ErrEmptyMessage is returned when the message body is empty.
var ErrEmptyMessage = errors.New("message text is empty")

// Content is anything that can be turned into a WhatsApp message.
type Content interface {
	ToMessage() (*waE2E.Message, error)
}

// TextContent represents a plain text message.
type TextContent struct {
	Text string
}

// Text creates a plain text message.
func Text(text string) *TextContent {
	return &TextContent{Text: text}
}

// ToMessage implements Content.
func (t *TextContent) ToMessage() (*waE2E.Message, error) {
	if t.Text == "" {
		return nil, ErrEmptyMessage
	}
	return &waE2E.Message{
		Conversation: proto.String(t.Text),
	}, nil
}
