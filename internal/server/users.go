package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	mm "github.com/buddiee-app/buddiee/internal/middleware"
	"github.com/buddiee-app/buddiee/internal/storage"
)

func (s server) getUser(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /users/{userID} Users GetUser
	//
	// Return the user's profile. When the profile is missing and a username
	// query parameter is given, a transient profile with that username is
	// returned instead of 404.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: userID
	//   in: path
	//   required: true
	//   type: string
	// - name: username
	//   description: fallback username for a transient profile
	//   in: query
	//   required: false
	//   type: string
	// responses:
	//   '200':
	//     description: User
	//     schema:
	//       "$ref": "#/definitions/User"
	//   '404':
	//     description: user not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	id := chi.URLParam(r, "userID")

	if fallback := r.URL.Query().Get("username"); fallback != "" {
		user, err := s.s.ResolveUser(r.Context(), id, fallback)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.writeOK(w, r, http.StatusOK, toUserResponse(user))
		return
	}

	user, err := s.s.GetUser(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeOK(w, r, http.StatusOK, toUserResponse(user))
}

func (s server) getProfile(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /profile Users GetProfile
	//
	// Return the acting user's profile.
	//
	// ---
	// produces:
	// - application/json
	// responses:
	//   '200':
	//     description: User
	//     schema:
	//       "$ref": "#/definitions/User"
	//   '404':
	//     description: user not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	actor, _ := mm.UserID(r.Context())

	user, err := s.s.GetUser(r.Context(), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeOK(w, r, http.StatusOK, toUserResponse(user))
}

func (s server) updateProfile(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PUT /profile Users UpdateProfile
	//
	// Merge the given fields into the acting user's profile.
	//
	// ---
	// parameters:
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/UpdateProfileRequest"
	// responses:
	//   '204':
	//     description: profile updated
	//   '404':
	//     description: user not found
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '409':
	//     description: username is taken
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req UpdateProfileRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: failed to decode body", errInvalidRequest))
		return
	}

	actor, _ := mm.UserID(r.Context())

	if err := s.s.UpdateProfile(r.Context(), &storage.UpdateProfileParams{
		ID:        actor,
		Username:  req.Username,
		Avatar:    req.Avatar,
		Bio:       req.Bio,
		Location:  req.Location,
		Interests: req.Interests,
	}); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
