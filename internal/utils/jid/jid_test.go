package jid

import (
	"errors"
	"testing"

	"go.mau.fi/whatsmeow/types"
)

func TestParseRecipient(t *testing.T) {
	tests := []struct {
		in     string
		user   string
		server string
	}{
		{"5511999999999", "5511999999999", types.DefaultUserServer},
		{"+55 (11) 99999-9999", "5511999999999", types.DefaultUserServer},
		{"5511999999999@s.whatsapp.net", "5511999999999", types.DefaultUserServer},
		{"120363000000000000@g.us", "120363000000000000", types.GroupServer},
	}

	for _, tt := range tests {
		got, err := ParseRecipient(tt.in)
		if err != nil {
			t.Fatalf("ParseRecipient(%q) returned error: %v", tt.in, err)
		}
		if got.User != tt.user || got.Server != tt.server {
			t.Fatalf("ParseRecipient(%q) = %s, want %s@%s", tt.in, got, tt.user, tt.server)
		}
	}
}

func TestParseRecipientRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "123", "@s.whatsapp.net", "1234567890123456"} {
		if _, err := ParseRecipient(in); !errors.Is(err, ErrInvalidRecipient) {
			t.Fatalf("ParseRecipient(%q) error = %v, want ErrInvalidRecipient", in, err)
		}
	}
}
