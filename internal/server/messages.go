package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/buddiee-app/buddiee/internal/entities"
	mm "github.com/buddiee-app/buddiee/internal/middleware"
)

func (s server) sendMessage(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /messages Messages SendMessage
	//
	// Send a direct message from the acting user.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/SendMessageRequest"
	// responses:
	//   '201':
	//     description: Message
	//     schema:
	//       "$ref": "#/definitions/Message"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req SendMessageRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: failed to decode body", errInvalidRequest))
		return
	}

	actor, _ := mm.UserID(r.Context())

	msg, err := s.s.SendMessage(r.Context(), &entities.Message{
		Sender:   actor,
		Receiver: req.Receiver,
		Text:     req.Text,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeOK(w, r, http.StatusCreated, toMessageResponse(msg))
}

func (s server) inbox(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /messages Messages Inbox
	//
	// Return messages sent to the acting user, newest first.
	//
	// ---
	// produces:
	// - application/json
	// responses:
	//   '200':
	//     description: Messages

	actor, _ := mm.UserID(r.Context())

	messages, err := s.s.Inbox(r.Context(), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResponse(m))
	}

	s.writeOK(w, r, http.StatusOK, out)
}

func (s server) conversation(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /messages/{userID} Messages Conversation
	//
	// Return the acting user's conversation with another user, oldest first.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: userID
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '200':
	//     description: Messages

	actor, _ := mm.UserID(r.Context())

	messages, err := s.s.Conversation(r.Context(), actor, chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResponse(m))
	}

	s.writeOK(w, r, http.StatusOK, out)
}

func (s server) markMessageRead(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PUT /messages/{messageID}/read Messages MarkMessageRead
	//
	// Mark a received message as read.
	//
	// ---
	// parameters:
	// - name: messageID
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '204':
	//     description: message marked as read
	//   '404':
	//     description: message not found or not addressed to the acting user
	//     schema:
	//       "$ref": "#/definitions/Error"

	actor, _ := mm.UserID(r.Context())

	if err := s.s.MarkMessageRead(r.Context(), chi.URLParam(r, "messageID"), actor); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
