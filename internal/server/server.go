package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/aaquinonez01/whatsapp-service/internal/send"
	"github.com/aaquinonez01/whatsapp-service/internal/state"
)

// Version is reported by the index route.
const Version = "1.0.0"

const (
	maxBodySize = 1 << 20
	sendTimeout = 30 * time.Second
)

// TextSender forwards a text message to a phone number or JID.
type TextSender interface {
	SendText(ctx context.Context, recipient, text string) (*send.Result, error)
}

// Server serves the HTTP API in front of the WhatsApp client.
type Server struct {
	tracker *state.Tracker
	sender  TextSender
	metrics *metrics
	log     waLog.Logger
}

// New constructs a Server.
func New(tracker *state.Tracker, sender TextSender, metricsEnabled bool, log waLog.Logger) *Server {
	return &Server{
		tracker: tracker,
		sender:  sender,
		metrics: newMetrics(metricsEnabled),
		log:     log.Sub("Server"),
	}
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /status/stream", s.handleStatusStream)
	mux.HandleFunc("POST /send-message", s.handleSendMessage)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.handler())
	return s.withRequestID(s.withLogging(s.withRecovery(mux)))
}

// WatchStatus keeps the status metrics in sync with the tracker until ctx ends.
func (s *Server) WatchStatus(ctx context.Context) error {
	updates, cancel := s.tracker.Subscribe()
	defer cancel()

	s.metrics.observeStatus(s.tracker.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			s.metrics.observeStatus(snap)
		}
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{
		Message: "WhatsApp Bot API",
		Version: Version,
		Endpoints: map[string]string{
			"GET /":              "API information",
			"GET /status":        "WhatsApp connection status",
			"GET /status/stream": "WebSocket stream of connection status changes",
			"POST /send-message": "Send a text message. Body: {\"number\": \"5511999999999\", \"message\": \"Hello\"}",
		},
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newStatusResponse(s.tracker.Snapshot()))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeBody(w, r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.incrSend("invalid")
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: "Request body too large",
			})
			return
		}
		s.log.Debugf("Rejecting send request body: %v", err)
	}
	req.Number = strings.TrimSpace(req.Number)
	if req.Number == "" || req.Message == "" {
		s.metrics.incrSend("invalid")
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "Missing required fields: number and message",
		})
		return
	}

	if !s.tracker.IsConnected() {
		s.metrics.incrSend("not_connected")
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "WhatsApp is not connected",
			Status: "not_connected",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sendTimeout)
	defer cancel()

	result, err := s.sender.SendText(ctx, req.Number, req.Message)
	if errors.Is(err, send.ErrNotConnected) {
		// The connection dropped between the status check and the send.
		s.metrics.incrSend("not_connected")
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "WhatsApp is not connected",
			Status: "not_connected",
		})
		return
	}
	if err != nil {
		s.metrics.incrSend("failed")
		s.log.Errorf("Failed to send message to %s: %v", req.Number, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to send message",
			Details: err.Error(),
		})
		return
	}

	s.metrics.incrSend("sent")
	writeJSON(w, http.StatusOK, sendMessageResponse{
		Success:   true,
		Message:   "Message sent successfully",
		To:        req.Number,
		MessageID: string(result.MessageID),
	})
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
