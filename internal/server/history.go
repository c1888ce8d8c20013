package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	mm "github.com/buddiee-app/buddiee/internal/middleware"
)

func (s server) trackView(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts/{postID}/view History TrackView
	//
	// Record the post in the acting user's browsing history. A no-op when
	// history tracking is disabled.
	//
	// ---
	// parameters:
	// - name: postID
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '204':
	//     description: view recorded
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	actor, _ := mm.UserID(r.Context())

	if err := s.s.TrackView(r.Context(), actor, chi.URLParam(r, "postID")); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) listHistory(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /history History ListHistory
	//
	// Return the acting user's browsing history, most recent first.
	//
	// ---
	// produces:
	// - application/json
	// responses:
	//   '200':
	//     description: Posts
	//     schema:
	//       "$ref": "#/definitions/ListPostsResponse"

	actor, _ := mm.UserID(r.Context())

	posts, err := s.s.History(r.Context(), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeOK(w, r, http.StatusOK, toListPostsResponse(posts))
}

func (s server) clearHistory(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /history History ClearHistory
	//
	// Remove every entry from the acting user's browsing history.
	//
	// ---
	// responses:
	//   '204':
	//     description: history cleared

	actor, _ := mm.UserID(r.Context())

	if err := s.s.ClearHistory(r.Context(), actor); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) getHistorySettings(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /history/settings History GetHistorySettings
	//
	// Return whether history tracking is enabled for the acting user.
	//
	// ---
	// produces:
	// - application/json
	// responses:
	//   '200':
	//     description: HistorySettings
	//     schema:
	//       "$ref": "#/definitions/HistorySettings"

	actor, _ := mm.UserID(r.Context())

	enabled, err := s.s.HistoryEnabled(r.Context(), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeOK(w, r, http.StatusOK, HistorySettings{Enabled: enabled})
}

func (s server) setHistorySettings(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PUT /history/settings History SetHistorySettings
	//
	// Enable or disable history tracking. Disabling clears the history.
	//
	// ---
	// parameters:
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/HistorySettings"
	// responses:
	//   '204':
	//     description: settings updated

	var req HistorySettings
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: failed to decode body", errInvalidRequest))
		return
	}

	actor, _ := mm.UserID(r.Context())

	if err := s.s.SetHistoryEnabled(r.Context(), actor, req.Enabled); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
