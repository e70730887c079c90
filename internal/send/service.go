package send

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/aaquinonez01/whatsapp-service/internal/utils/jid"
)

// ErrNotConnected is returned when the client has no live connection.
var ErrNotConnected = errors.New("whatsapp client is not connected")

// MessageSender is the send primitive of the WhatsApp client.
// *whatsmeow.Client satisfies it.
type MessageSender interface {
	SendMessage(ctx context.Context, to types.JID, message *waE2E.Message, extra ...whatsmeow.SendRequestExtra) (whatsmeow.SendResponse, error)
}

// Result describes a message accepted by the WhatsApp server.
type Result struct {
	MessageID types.MessageID
	Timestamp time.Time
	Recipient types.JID
}

// Service forwards outbound messages to WhatsApp.
type Service struct {
	client MessageSender
	log    waLog.Logger
}

// NewService creates a new send Service.
func NewService(client MessageSender, log waLog.Logger) *Service {
	return &Service{
		client: client,
		log:    log.Sub("Send"),
	}
}

// Send delivers content to a recipient. It makes exactly one attempt.
func (s *Service) Send(ctx context.Context, to types.JID, content Content) (*Result, error) {
	if s.client == nil {
		return nil, ErrNotConnected
	}

	msg, err := content.ToMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to build message: %w", err)
	}

	resp, err := s.client.SendMessage(ctx, to, msg)
	if errors.Is(err, whatsmeow.ErrNotConnected) {
		return nil, ErrNotConnected
	} else if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	s.log.Infof("Sent message %s to %s", resp.ID, to)
	return &Result{
		MessageID: resp.ID,
		Timestamp: resp.Timestamp,
		Recipient: to,
	}, nil
}

// SendText sends a plain text message to a phone number or JID.
func (s *Service) SendText(ctx context.Context, recipient, text string) (*Result, error) {
	to, err := jid.ParseRecipient(recipient)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, to, Text(text))
}
