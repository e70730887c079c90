package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mau.fi/whatsmeow"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/aaquinonez01/whatsapp-service/internal/event"
	"github.com/aaquinonez01/whatsapp-service/internal/infra/config"
	"github.com/aaquinonez01/whatsapp-service/internal/utils/jid"
)

const pairTimeout = 30 * time.Second

// PhonePairer requests a pairing code for a phone number.
// *whatsmeow.Client satisfies it.
type PhonePairer interface {
	PairPhone(ctx context.Context, phone string, showPushNotification bool, clientType whatsmeow.PairClientType, clientDisplayName string) (string, error)
}

// CodeEmitter publishes pairing codes as lifecycle events.
type CodeEmitter interface {
	EmitPairingCode(code string)
}

// Pairer links this device to the configured WhatsApp account.
//
// In code mode the first QR event of a connection triggers one PairPhone
// request, and the resulting code is emitted as a pairing-code event. In QR
// mode the code is rendered for scanning instead.
type Pairer struct {
	event.BaseHandler

	client      PhonePairer
	emitter     CodeEmitter
	renderer    *QRRenderer
	mode        string
	phone       string
	displayName string
	log         waLog.Logger

	ctx       context.Context
	mu        sync.Mutex
	requested bool
}

// NewPairer creates a Pairer from configuration.
func NewPairer(ctx context.Context, cfg *config.Config, client PhonePairer, emitter CodeEmitter, log waLog.Logger) *Pairer {
	return &Pairer{
		client:      client,
		emitter:     emitter,
		renderer:    NewQRRenderer(cfg.QRImagePath, log),
		mode:        cfg.PairingMode,
		phone:       jid.Digits(cfg.PhoneNumber),
		displayName: cfg.DeviceName,
		log:         log.Sub("Pairing"),
		ctx:         ctx,
	}
}

// OnQR implements event.Handler.
func (p *Pairer) OnQR(codes []string) {
	if len(codes) == 0 {
		return
	}
	if p.mode == config.PairingModeQR {
		p.renderer.Render(codes[0])
		return
	}

	p.mu.Lock()
	if p.requested {
		p.mu.Unlock()
		return
	}
	p.requested = true
	p.mu.Unlock()

	// Event handlers run on the client's event loop; PairPhone waits on a
	// server response, so it must not block here.
	go p.requestCode()
}

// OnReady implements event.Handler.
func (p *Pairer) OnReady() {
	p.reset()
}

// OnAuthFailure implements event.Handler.
func (p *Pairer) OnAuthFailure(reason string) {
	p.reset()
}

// OnClose implements event.Handler.
func (p *Pairer) OnClose(reason string) {
	p.reset()
}

func (p *Pairer) requestCode() {
	ctx, cancel := context.WithTimeout(p.ctx, pairTimeout)
	defer cancel()

	code, err := p.client.PairPhone(ctx, p.phone, true, whatsmeow.PairClientChrome, p.displayName)
	if err != nil {
		p.log.Errorf("Failed to request pairing code for %s: %v", p.phone, err)
		p.mu.Lock()
		p.requested = false
		p.mu.Unlock()
		return
	}

	p.log.Infof("Pairing code: %s", code)
	p.log.Infof("Open WhatsApp > Linked Devices > Link with phone number and enter %s", strings.ToUpper(code))
	p.emitter.EmitPairingCode(code)
}

func (p *Pairer) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requested = false
}

var _ event.Handler = (*Pairer)(nil)
