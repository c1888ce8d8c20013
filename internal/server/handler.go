package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/buddiee-app/buddiee/internal/entities"
	mm "github.com/buddiee-app/buddiee/internal/middleware"
	"github.com/buddiee-app/buddiee/internal/storage"
)

func (s server) listPosts(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /posts Posts ListPosts
	//
	// Return posts ordered and filtered by query parameters.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: sortBy
	//   description: sets posts' field to be sorted by
	//   in: query
	//   required: false
	//   default: created_at
	//   type: string
	//   enum: [created_at, likes]
	// - name: orderBy
	//   description: sets sort's direction
	//   in: query
	//   required: false
	//   default: desc
	//   type: string
	//   enum: [asc, desc]
	// - name: owner
	//   description: filters posts by owner
	//   in: query
	//   required: false
	// - name: subject
	//   description: filters posts by subject
	//   in: query
	//   required: false
	// - name: source
	//   description: filters posts by source
	//   in: query
	//   required: false
	//   enum: [app, reddit]
	// - name: limit
	//   description: limits count of returned posts
	//   in: query
	//   required: false
	//   default: 20
	//   minimum: 1
	//   maximum: 100
	// - name: after
	//   description: sets not-including bound for list by post id
	//   in: query
	//   required: false
	// responses:
	//   '200':
	//     description: Posts
	//     schema:
	//       "$ref": "#/definitions/ListPostsResponse"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '500':
	//     description: internal server error
	//     schema:
	//       "$ref": "#/definitions/Error"

	params, err := extractListParamsFromQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if viewer, ok := mm.UserID(r.Context()); ok {
		params.VisibleTo = &viewer
	}

	posts, err := s.s.ListPosts(r.Context(), params)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to list posts: %w", err))
		return
	}

	s.writeOK(w, r, http.StatusOK, toListPostsResponse(posts))
}

func (s server) listSuggestions(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /suggestions Posts ListSuggestions
	//
	// Return the freshest suggested posts.
	//
	// ---
	// produces:
	// - application/json
	// responses:
	//   '200':
	//     description: Posts
	//     schema:
	//       "$ref": "#/definitions/ListPostsResponse"
	//   '500':
	//     description: internal server error
	//     schema:
	//       "$ref": "#/definitions/Error"

	source := entities.RedditSource

	posts, err := s.s.ListPosts(r.Context(), &storage.ListPostsParams{
		SortBy:  storage.CreatedAtSortType,
		OrderBy: storage.DescendingOrder,
		Limit:   defaultLimit,
		Source:  &source,
	})
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to list suggestions: %w", err))
		return
	}

	s.writeOK(w, r, http.StatusOK, toListPostsResponse(posts))
}

func (s server) getPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /posts/{postID} Posts GetPost
	//
	// Return a single post.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: postID
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '200':
	//     description: Post
	//     schema:
	//       "$ref": "#/definitions/Post"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '500':
	//     description: internal server error
	//     schema:
	//       "$ref": "#/definitions/Error"

	viewer, _ := mm.UserID(r.Context())

	post, err := s.s.GetPost(r.Context(), chi.URLParam(r, "postID"), viewer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeOK(w, r, http.StatusOK, toPostResponse(post))
}

func (s server) createPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts Posts CreatePost
	//
	// Create a post owned by the acting user.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/CreatePostRequest"
	// responses:
	//   '201':
	//     description: Post
	//     schema:
	//       "$ref": "#/definitions/Post"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '500':
	//     description: internal server error
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req CreatePostRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: failed to decode body", errInvalidRequest))
		return
	}

	actor, _ := mm.UserID(r.Context())

	post, err := s.s.CreatePost(r.Context(), &entities.Post{
		Owner:           actor,
		Photos:          req.Photos,
		MainCaption:     req.MainCaption,
		DetailedCaption: req.DetailedCaption,
		Subject:         req.Subject,
		Location:        req.Location,
		UserLocation:    req.UserLocation,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeOK(w, r, http.StatusCreated, toPostResponse(post))
}

func (s server) updatePost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PUT /posts/{postID} Posts UpdatePost
	//
	// Replace editable fields of an owned post.
	//
	// ---
	// parameters:
	// - name: postID
	//   in: path
	//   required: true
	//   type: string
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/UpdatePostRequest"
	// responses:
	//   '204':
	//     description: post updated
	//   '403':
	//     description: post is owned by another user
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req UpdatePostRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: failed to decode body", errInvalidRequest))
		return
	}

	actor, _ := mm.UserID(r.Context())

	if err := s.s.UpdatePost(r.Context(), actor, &storage.UpdatePostParams{
		ID:              chi.URLParam(r, "postID"),
		Photos:          req.Photos,
		MainCaption:     req.MainCaption,
		DetailedCaption: req.DetailedCaption,
		Subject:         req.Subject,
		Location:        req.Location,
		UserLocation:    req.UserLocation,
	}); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) deletePost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /posts/{postID} Posts DeletePost
	//
	// Delete an owned post together with its comments and history entries.
	//
	// ---
	// parameters:
	// - name: postID
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '204':
	//     description: post deleted
	//   '403':
	//     description: post is owned by another user
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	actor, _ := mm.UserID(r.Context())

	if err := s.s.DeletePost(r.Context(), actor, chi.URLParam(r, "postID")); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) likePost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts/{postID}/like Posts LikePost
	//
	// Increment the post's like counter.
	//
	// ---
	// parameters:
	// - name: postID
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '204':
	//     description: like counted
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	if err := s.s.LikePost(r.Context(), chi.URLParam(r, "postID")); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) setPostPrivacy(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PUT /posts/{postID}/privacy Posts SetPostPrivacy
	//
	// Toggle the post's privacy.
	//
	// ---
	// parameters:
	// - name: postID
	//   in: path
	//   required: true
	//   type: string
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/SetPrivacyRequest"
	// responses:
	//   '204':
	//     description: privacy updated
	//   '403':
	//     description: post is owned by another user
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req SetPrivacyRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: failed to decode body", errInvalidRequest))
		return
	}

	actor, _ := mm.UserID(r.Context())

	if err := s.s.SetPostPrivacy(r.Context(), actor, chi.URLParam(r, "postID"), req.IsPrivate); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) pinPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts/{postID}/pin Posts PinPost
	//
	// Pin an owned post, unpinning any previously pinned one.
	//
	// ---
	// parameters:
	// - name: postID
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '204':
	//     description: post pinned
	//   '403':
	//     description: post is owned by another user
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	actor, _ := mm.UserID(r.Context())

	if err := s.s.PinPost(r.Context(), actor, chi.URLParam(r, "postID")); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) unpinPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /posts/{postID}/pin Posts UnpinPost
	//
	// Unpin an owned post.
	//
	// ---
	// parameters:
	// - name: postID
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '204':
	//     description: post unpinned
	//   '403':
	//     description: post is owned by another user
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	actor, _ := mm.UserID(r.Context())

	if err := s.s.UnpinPost(r.Context(), actor, chi.URLParam(r, "postID")); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) getPinnedPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /posts/pinned Posts GetPinnedPost
	//
	// Return the pinned post of the given owner.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: owner
	//   in: query
	//   required: true
	//   type: string
	// responses:
	//   '200':
	//     description: Post
	//     schema:
	//       "$ref": "#/definitions/Post"
	//   '404':
	//     description: owner has no pinned post
	//     schema:
	//       "$ref": "#/definitions/Error"

	owner := r.URL.Query().Get("owner")
	if owner == "" {
		s.writeError(w, r, fmt.Errorf("%w: owner is required", errInvalidRequest))
		return
	}

	post, err := s.s.GetPinnedPost(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeOK(w, r, http.StatusOK, toPostResponse(post))
}

func (s server) listUserPosts(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /users/{userID}/posts Posts ListUserPosts
	//
	// Return the user's posts ordered and filtered by query parameters.
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
	//     description: Posts
	//     schema:
	//       "$ref": "#/definitions/ListPostsResponse"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '500':
	//     description: internal server error
	//     schema:
	//       "$ref": "#/definitions/Error"

	params, err := extractListParamsFromQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	owner := chi.URLParam(r, "userID")
	params.Owner = &owner

	if viewer, ok := mm.UserID(r.Context()); ok {
		params.VisibleTo = &viewer
	}

	posts, err := s.s.ListPosts(r.Context(), params)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to list user posts: %w", err))
		return
	}

	s.writeOK(w, r, http.StatusOK, toListPostsResponse(posts))
}

func (s server) getUserPinnedPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /users/{userID}/posts/pinned Posts GetUserPinnedPost
	//
	// Return the user's pinned post.
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
	//     description: Post
	//     schema:
	//       "$ref": "#/definitions/Post"
	//   '404':
	//     description: user has no pinned post
	//     schema:
	//       "$ref": "#/definitions/Error"

	post, err := s.s.GetPinnedPost(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeOK(w, r, http.StatusOK, toPostResponse(post))
}

func (s server) addComment(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts/{postID}/comments Comments AddComment
	//
	// Append a comment to the post.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: postID
	//   in: path
	//   required: true
	//   type: string
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/AddCommentRequest"
	// responses:
	//   '201':
	//     description: Comment
	//     schema:
	//       "$ref": "#/definitions/Comment"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req AddCommentRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: failed to decode body", errInvalidRequest))
		return
	}

	actor, _ := mm.UserID(r.Context())

	comment, err := s.s.AddComment(r.Context(), &entities.Comment{
		PostID: chi.URLParam(r, "postID"),
		Owner:  actor,
		Text:   req.Text,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeOK(w, r, http.StatusCreated, toCommentResponse(comment))
}

func (s server) listComments(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /posts/{postID}/comments Comments ListComments
	//
	// Return the post's comments, oldest first.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: postID
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '200':
	//     description: Comments
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	comments, err := s.s.ListComments(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]Comment, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}

	s.writeOK(w, r, http.StatusOK, out)
}
