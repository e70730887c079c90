package server

import (
	"time"

	"github.com/aaquinonez01/whatsapp-service/internal/state"
)

type indexResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type statusResponse struct {
	IsConnected bool         `json:"isConnected"`
	Status      state.Status `json:"status"`
	Message     string       `json:"message"`
}

func newStatusResponse(s state.Snapshot) statusResponse {
	return statusResponse{
		IsConnected: s.IsConnected,
		Status:      s.Status,
		Message:     s.Message(),
	}
}

// statusFrame is pushed to stream subscribers.
type statusFrame struct {
	statusResponse
	UpdatedAt time.Time `json:"updatedAt"`
}

type sendMessageRequest struct {
	Number  string `json:"number"`
	Message string `json:"message"`
}

type sendMessageResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	To        string `json:"to"`
	MessageID string `json:"messageId,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Status  string `json:"status,omitempty"`
	Details string `json:"details,omitempty"`
}
