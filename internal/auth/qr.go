package auth

import (
	"fmt"
	"io"
	"os"

	"github.com/skip2/go-qrcode"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// QRRenderer shows pairing QR codes to the operator.
type QRRenderer struct {
	out       io.Writer
	imagePath string
	log       waLog.Logger
}

// NewQRRenderer creates a QRRenderer writing to stdout. When imagePath is set
// each code is also saved there as a PNG.
func NewQRRenderer(imagePath string, log waLog.Logger) *QRRenderer {
	return &QRRenderer{
		out:       os.Stdout,
		imagePath: imagePath,
		log:       log.Sub("QR"),
	}
}

// Render prints the code as terminal art and optionally writes the PNG.
func (r *QRRenderer) Render(code string) {
	r.log.Infof("Scan the QR code below with WhatsApp (Linked Devices)")

	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		r.log.Errorf("Failed to generate QR code: %v", err)
		fmt.Fprintln(r.out, "QR Code content:", code)
		return
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, qr.ToSmallString(false))
	fmt.Fprintln(r.out)

	if r.imagePath != "" {
		if err := r.SaveToFile(code, r.imagePath); err != nil {
			r.log.Warnf("%v", err)
		}
	}
}

// SaveToFile saves the QR code to a PNG file.
func (r *QRRenderer) SaveToFile(code, path string) error {
	if err := qrcode.WriteFile(code, qrcode.Medium, 256, path); err != nil {
		return fmt.Errorf("failed to save QR code: %w", err)
	}
	r.log.Infof("QR code saved to %s", path)
	return nil
}
