// Package server Buddiee
//
// The Buddiee service provides access to activity-partner posts, comments,
// profiles, direct messages and browsing history.
//
//     Schemes: https
//     BasePath: /v1
//     Version: 1.0.0
//
//     Produces:
//     - application/json
//     Consumes:
//     - application/json
//
// swagger:meta
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	mm "github.com/buddiee-app/buddiee/internal/middleware"
	"github.com/buddiee-app/buddiee/internal/service"
	"github.com/buddiee-app/buddiee/internal/storage"
)

const (
	maxBodySize = 64 * 1024

	suggestionsCacheTTL = 10 * time.Minute
)

var errInvalidRequest = errors.New("invalid request")

type server struct {
	s      service.Service
	secret []byte
}

// SetupRouter setups handlers to chi router.
func SetupRouter(s service.Service, r chi.Router, secret []byte, timeout time.Duration) {
	r.Use(
		chimiddleware.RequestID,
		mm.Logger,
		chimiddleware.StripSlashes,
		cors.AllowAll().Handler,
		mm.Recoverer,
		mm.Timeout(timeout),
		mm.BodyLimiter(maxBodySize),
		mm.Auth(secret),
	)

	srv := server{
		s:      s,
		secret: secret,
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/register", srv.register)
		r.Post("/auth/login", srv.login)

		r.Get("/posts", srv.listPosts)
		r.Get("/posts/pinned", srv.getPinnedPost)
		r.Get("/posts/{postID}", srv.getPost)
		r.Get("/posts/{postID}/comments", srv.listComments)
		r.Post("/posts/{postID}/like", srv.likePost)

		r.Get("/suggestions", mm.Cached(suggestionsCacheTTL, srv.listSuggestions))

		r.Get("/users/{userID}", srv.getUser)
		r.Get("/users/{userID}/posts", srv.listUserPosts)
		r.Get("/users/{userID}/posts/pinned", srv.getUserPinnedPost)

		r.Group(func(r chi.Router) {
			r.Use(mm.RequireAuth)

			r.Post("/posts", srv.createPost)
			r.Put("/posts/{postID}", srv.updatePost)
			r.Delete("/posts/{postID}", srv.deletePost)
			r.Put("/posts/{postID}/privacy", srv.setPostPrivacy)
			r.Post("/posts/{postID}/pin", srv.pinPost)
			r.Delete("/posts/{postID}/pin", srv.unpinPost)
			r.Post("/posts/{postID}/comments", srv.addComment)
			r.Post("/posts/{postID}/view", srv.trackView)

			r.Get("/profile", srv.getProfile)
			r.Put("/profile", srv.updateProfile)

			r.Post("/messages", srv.sendMessage)
			r.Get("/messages", srv.inbox)
			r.Get("/messages/{userID}", srv.conversation)
			r.Put("/messages/{messageID}/read", srv.markMessageRead)

			r.Get("/history", srv.listHistory)
			r.Delete("/history", srv.clearHistory)
			r.Get("/history/settings", srv.getHistorySettings)
			r.Put("/history/settings", srv.setHistorySettings)
		})
	})
}

func (s server) writeOK(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func (s server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int

	switch {
	case errors.Is(err, errInvalidRequest), errors.Is(err, service.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrUsernameTaken):
		status = http.StatusConflict
	default:
		mm.GetLogger(r.Context()).WithError(err).Error("request failed")

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, Error{Error: "internal error"})
		return
	}

	render.Status(r, status)
	render.JSON(w, r, Error{Error: err.Error()})
}
