// Package api exposes the chat operations over a thin HTTP facade.
// The production deployment sits behind the platform's own RPC and
// auth layers; this surface covers local use and integration tests.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"wachat/domain"
	chaterr "wachat/errors"
	"wachat/runtime"
	"wachat/services"
)

type Server struct {
	log          *slog.Logger
	chat         services.IChatService
	orchestrator *runtime.Orchestrator
}

func NewServer(log *slog.Logger, chat services.IChatService, orchestrator *runtime.Orchestrator) *Server {
	return &Server{log: log, chat: chat, orchestrator: orchestrator}
}

func (s *Server) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /send", s.handleSend)
	mux.HandleFunc("POST /receive", s.handleReceive)
	mux.HandleFunc("GET /transcript", s.handleTranscript)
	mux.HandleFunc("POST /rooms/{id}/read", s.handleMarkRead)
	mux.HandleFunc("POST /rooms/{id}/reference", s.handleLinkReference)
	mux.HandleFunc("GET /rooms/{id}/events", s.handleRoomEvents)
	return mux
}

type sendRequest struct {
	Content      string `json:"content"`
	User         string `json:"user"`
	RoomID       string `json:"room,omitempty"`
	Number       string `json:"number"`
	IsAttachment bool   `json:"attachment,omitempty"`
}

type receiveRequest struct {
	Content      string `json:"content"`
	Number       string `json:"number"`
	IsAttachment bool   `json:"attachment,omitempty"`
}

type referenceRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

type transcriptEntry struct {
	At          time.Time `json:"at"`
	SenderLabel string    `json:"sender_label"`
	Content     string    `json:"content"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd := domain.SendCommand{
		Content:            req.Content,
		User:               req.User,
		CounterpartyNumber: req.Number,
		IsAttachment:       req.IsAttachment,
	}
	if req.RoomID != "" {
		roomID, err := uuid.Parse(req.RoomID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cmd.RoomID = &roomID
	}
	message, err := s.chat.Send(r.Context(), cmd)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusCreated, messageResponse{
		ID:        message.ID.String(),
		Kind:      string(message.Kind),
		CreatedAt: message.CreatedAt,
	})
}

func (s *Server) handleReceive(w http.ResponseWriter, r *http.Request) {
	var req receiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	message, err := s.chat.Receive(r.Context(), domain.ReceiveCommand{
		Content:            req.Content,
		CounterpartyNumber: req.Number,
		IsAttachment:       req.IsAttachment,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusCreated, messageResponse{
		ID:        message.ID.String(),
		Kind:      string(message.Kind),
		CreatedAt: message.CreatedAt,
	})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	entries, err := s.chat.Transcript(r.Context(), r.URL.Query().Get("number"))
	if err != nil {
		s.fail(w, err)
		return
	}
	res := make([]transcriptEntry, 0, len(entries))
	for _, entry := range entries {
		res = append(res, transcriptEntry{At: entry.At, SenderLabel: entry.SenderLabel, Content: entry.Content})
	}
	s.respond(w, http.StatusOK, res)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err = s.chat.MarkRead(r.Context(), roomID); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLinkReference(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req referenceRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err = s.chat.LinkReference(r.Context(), roomID, domain.Reference{Kind: req.Kind, ID: req.ID}); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("Failed to encode response", "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs), errors.Is(err, chaterr.ErrEmptyNumber):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, chaterr.ErrRoomNotFound), errors.Is(err, chaterr.ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		s.log.Error("Request failed", "error", err)
		http.Error(w, fmt.Sprintf("internal error: %v", err), http.StatusInternalServerError)
	}
}
