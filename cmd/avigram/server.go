package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"avigram/internal/constants"
	apperrors "avigram/internal/errors"
	"avigram/internal/service"
	"avigram/pkg/chat"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server exposes the webhook the chat platform calls with reply events, for
// deployments that use webhooks instead of the websocket event stream.
type Server struct {
	router *mux.Router
	logger *logrus.Logger
	relay  *service.ReplyRelay
	token  string
	server *http.Server
}

func NewServer(relay *service.ReplyRelay, webhookToken string, logger *logrus.Logger) *Server {
	s := &Server{
		router: mux.NewRouter(),
		logger: logger,
		relay:  relay,
		token:  webhookToken,
	}

	s.router.Use(s.requestIDMiddleware)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)

	replies := s.router.PathPrefix("/webhook/reply").Subrouter()
	replies.HandleFunc("", s.handleReplyWebhook()).Methods(http.MethodPost)
}

func (s *Server) Start(port int) error {
	if port <= 0 {
		port = constants.DefaultServerPort
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  constants.DefaultServerReadTimeoutSec * time.Second,
		WriteTimeout: constants.DefaultServerWriteTimeoutSec * time.Second,
		IdleTimeout:  constants.DefaultServerIdleTimeoutSec * time.Second,
	}

	s.logger.Infof("Starting webhook server on port %d", port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			s.logger.WithError(err).Warn("Failed to write health response")
		}
	}
}

type replyResponse struct {
	Status      string `json:"status"`
	RemoteMsgID string `json:"remoteMsgId,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (s *Server) handleReplyWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			s.writeJSON(w, http.StatusUnauthorized, replyResponse{Status: "error", Error: "unauthorized"})
			return
		}

		var event chat.ReplyEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			s.writeJSON(w, http.StatusBadRequest, replyResponse{Status: "error", Error: "invalid payload"})
			return
		}

		if event.ReplyToMessageID == 0 || event.Text == "" {
			s.writeJSON(w, http.StatusBadRequest, replyResponse{Status: "error", Error: "replyToMessageId and text are required"})
			return
		}

		result, err := s.relay.Relay(r.Context(), service.ReplyRequest{
			LocalMessageID:   event.MessageID,
			ReplyToMessageID: event.ReplyToMessageID,
			Text:             event.Text,
		})
		if err != nil {
			s.logger.WithError(err).WithField("replyToMessageId", event.ReplyToMessageID).
				Warn("Reply relay failed")
			s.writeJSON(w, relayStatusCode(err), replyResponse{Status: "error", Error: relayErrorMessage(err)})
			return
		}

		s.writeJSON(w, http.StatusOK, replyResponse{Status: "ok", RemoteMsgID: result.RemoteMsgID})
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.token == "" {
		return true
	}
	provided := r.Header.Get("Authorization")
	expected := "Bearer " + s.token
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Warn("Failed to write response")
	}
}

// relayStatusCode maps relay error codes to HTTP statuses
func relayStatusCode(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeUnlinkedReply, apperrors.ErrCodeAccountNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeAuth:
		return http.StatusBadGateway
	case apperrors.ErrCodeGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// relayErrorMessage gives the operator-visible description for a failed relay
func relayErrorMessage(err error) string {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeUnlinkedReply:
		return "this message cannot be replied to"
	case apperrors.ErrCodeAccountNotFound:
		return "the linked account no longer exists"
	case apperrors.ErrCodeAuth:
		return "marketplace authentication failed, try again later"
	case apperrors.ErrCodeGateway:
		return "marketplace is unavailable, try again later"
	default:
		return "internal error"
	}
}
