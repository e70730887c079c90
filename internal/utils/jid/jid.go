package jid

import (
	"errors"
	"fmt"
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// ErrInvalidRecipient is returned when a recipient cannot be turned into a JID.
var ErrInvalidRecipient = errors.New("invalid recipient")

// Digits strips every non-digit character from a phone number.
func Digits(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// FromPhone creates a user JID from a phone number.
func FromPhone(phone string) types.JID {
	return types.JID{
		User:   Digits(phone),
		Server: types.DefaultUserServer,
	}
}

// ParseRecipient accepts either a bare phone number ("+55 11 99999-9999") or a
// full JID ("5511999999999@s.whatsapp.net") and returns the target JID.
func ParseRecipient(recipient string) (types.JID, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return types.JID{}, fmt.Errorf("%w: empty", ErrInvalidRecipient)
	}

	if strings.ContainsRune(recipient, '@') {
		parsed, err := types.ParseJID(recipient)
		if err != nil {
			return types.JID{}, fmt.Errorf("%w: %v", ErrInvalidRecipient, err)
		}
		if parsed.User == "" {
			return types.JID{}, fmt.Errorf("%w: %q has no user part", ErrInvalidRecipient, recipient)
		}
		return parsed, nil
	}

	jid := FromPhone(recipient)
	if len(jid.User) < 7 || len(jid.User) > 15 {
		return types.JID{}, fmt.Errorf("%w: %q is not a phone number", ErrInvalidRecipient, recipient)
	}
	return jid, nil
}
