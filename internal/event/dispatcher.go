package event

import (
	"fmt"
	"sync"

	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// Dispatcher translates raw whatsmeow events into lifecycle events and routes
// them to registered handlers.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
	log      waLog.Logger
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(log waLog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make([]Handler, 0),
		log:      log.Sub("Dispatcher"),
	}
}

// Register adds a handler to the dispatcher.
func (d *Dispatcher) Register(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Handle processes a whatsmeow event. It is meant to be passed to
// Client.AddEventHandler.
func (d *Dispatcher) Handle(evt interface{}) {
	switch e := evt.(type) {
	case *events.Connected:
		d.log.Infof("Connected to WhatsApp")
		d.each(func(h Handler) { h.OnReady() })

	case *events.QR:
		d.log.Debugf("Received %d QR codes", len(e.Codes))
		d.each(func(h Handler) { h.OnQR(e.Codes) })
	case *events.PairSuccess:
		d.log.Infof("Paired successfully as %s", e.ID)
	case *events.PairError:
		d.authFailure(fmt.Sprintf("pairing failed: %v", e.Error))

	case *events.LoggedOut:
		d.authFailure(fmt.Sprintf("logged out: %s", e.Reason))
	case *events.ConnectFailure:
		d.authFailure(fmt.Sprintf("connect failure: %s %s", e.Reason, e.Message))
	case *events.ClientOutdated:
		d.authFailure("client outdated")
	case *events.TemporaryBan:
		d.authFailure(fmt.Sprintf("temporary ban: %s", e.String()))

	case *events.StreamError:
		d.EmitError(fmt.Sprintf("stream error: %s", e.Code))
	case *events.KeepAliveTimeout:
		d.EmitError(fmt.Sprintf("keep alive timeout after %d errors", e.ErrorCount))

	case *events.Disconnected:
		d.close("disconnected")
	case *events.StreamReplaced:
		d.close("stream replaced by another client")

	default:
		d.log.Debugf("Unhandled event type: %T", evt)
	}
}

// EmitPairingCode notifies handlers that a phone pairing code is available.
func (d *Dispatcher) EmitPairingCode(code string) {
	d.log.Infof("Pairing code issued")
	d.each(func(h Handler) { h.OnPairingCode(code) })
}

func (d *Dispatcher) authFailure(reason string) {
	d.log.Errorf("Authentication failure: %s", reason)
	d.each(func(h Handler) { h.OnAuthFailure(reason) })
}

// EmitError reports a connection error that did not come from a whatsmeow
// event, such as a failed Connect call.
func (d *Dispatcher) EmitError(reason string) {
	d.log.Errorf("Connection error: %s", reason)
	d.each(func(h Handler) { h.OnError(reason) })
}

func (d *Dispatcher) close(reason string) {
	d.log.Warnf("Connection closed: %s", reason)
	d.each(func(h Handler) { h.OnClose(reason) })
}

func (d *Dispatcher) each(fn func(Handler)) {
	d.mu.RLock()
	handlers := make([]Handler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, h := range handlers {
		fn(h)
	}
}
