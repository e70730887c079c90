package app

import (
	"fmt"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// Client wraps whatsmeow.Client with the connection handling this service needs.
type Client struct {
	WAClient *whatsmeow.Client
	Device   *store.Device
	Log      waLog.Logger
}

// NewClient creates a new Client for the given device. It does not connect.
func NewClient(device *store.Device, log waLog.Logger) *Client {
	waClient := whatsmeow.NewClient(device, log.Sub("whatsmeow"))
	waClient.EnableAutoReconnect = true
	waClient.AutoTrustIdentity = true

	return &Client{
		WAClient: waClient,
		Device:   device,
		Log:      log.Sub("Client"),
	}
}

// AddEventHandler adds an event handler function.
func (c *Client) AddEventHandler(handler func(interface{})) {
	c.WAClient.AddEventHandler(handler)
}

// Connect opens the WhatsApp websocket. Without a stored session the server
// answers with QR events, which start the pairing flow.
func (c *Client) Connect() error {
	if c.IsLoggedIn() {
		c.Log.Infof("Using existing session for %s", c.GetJID())
	} else {
		c.Log.Infof("No existing session, waiting for device pairing")
	}
	if err := c.WAClient.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	return nil
}

// Reconnect drops the current socket, if any, and connects again.
func (c *Client) Reconnect() error {
	if c.WAClient.IsConnected() {
		c.WAClient.Disconnect()
	}
	return c.Connect()
}

// Disconnect disconnects from WhatsApp.
func (c *Client) Disconnect() {
	c.WAClient.Disconnect()
}

// IsLoggedIn returns true if the client has stored credentials.
func (c *Client) IsLoggedIn() bool {
	return c.WAClient.Store.ID != nil
}

// GetJID returns the client's JID.
func (c *Client) GetJID() types.JID {
	if c.WAClient.Store.ID != nil {
		return *c.WAClient.Store.ID
	}
	return types.JID{}
}

// Underlying returns the underlying whatsmeow.Client.
func (c *Client) Underlying() *whatsmeow.Client {
	return c.WAClient
}
