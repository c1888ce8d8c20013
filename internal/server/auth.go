package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/buddiee-app/buddiee/internal/entities"
	mm "github.com/buddiee-app/buddiee/internal/middleware"
)

func (s server) register(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /auth/register Auth Register
	//
	// Create an account and return an access token.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/RegisterRequest"
	// responses:
	//   '201':
	//     description: AuthResponse
	//     schema:
	//       "$ref": "#/definitions/AuthResponse"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '409':
	//     description: username is taken
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req RegisterRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: failed to decode body", errInvalidRequest))
		return
	}

	user, err := s.s.Register(r.Context(), &entities.User{
		Username:  req.Username,
		Avatar:    req.Avatar,
		Bio:       req.Bio,
		Location:  req.Location,
		Interests: req.Interests,
	}, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := mm.IssueToken(s.secret, user.ID, mm.TokenTTL)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to issue token: %w", err))
		return
	}

	s.writeOK(w, r, http.StatusCreated, AuthResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

func (s server) login(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /auth/login Auth Login
	//
	// Exchange credentials for an access token.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/LoginRequest"
	// responses:
	//   '200':
	//     description: AuthResponse
	//     schema:
	//       "$ref": "#/definitions/AuthResponse"
	//   '401':
	//     description: invalid credentials
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: failed to decode body", errInvalidRequest))
		return
	}

	user, err := s.s.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := mm.IssueToken(s.secret, user.ID, mm.TokenTTL)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to issue token: %w", err))
		return
	}

	s.writeOK(w, r, http.StatusOK, AuthResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}
