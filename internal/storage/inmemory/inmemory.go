// Package inmemory is implementation of storage interface which keeps
// everything in process memory and optionally snapshots it to a JSON file.
package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/buddiee-app/buddiee/internal/entities"
	"github.com/buddiee-app/buddiee/internal/storage"
)

type userRecord struct {
	User         *entities.User `json:"user"`
	PasswordHash string         `json:"password_hash"`
}

type state struct {
	// Posts are kept most-recent-first, new posts are inserted at the head.
	Posts           []*entities.Post               `json:"posts"`
	Comments        map[string][]*entities.Comment `json:"comments"`
	Users           map[string]*userRecord         `json:"users"`
	Messages        []*entities.Message            `json:"messages"`
	History         map[string][]string            `json:"history"`
	HistoryDisabled map[string]bool                `json:"history_disabled"`
}

func newState() state {
	return state{
		Comments:        map[string][]*entities.Comment{},
		Users:           map[string]*userRecord{},
		History:         map[string][]string{},
		HistoryDisabled: map[string]bool{},
	}
}

type inMemory struct {
	mu    sync.RWMutex
	state state
	snap  *snapshotter
}

// New creates an empty in-memory storage.
func New() storage.Storage {
	return &inMemory{state: newState()}
}

// NewWithSnapshot creates an in-memory storage backed by a JSON snapshot file.
// The snapshot is loaded if it exists and rewritten after every mutation.
func NewWithSnapshot(path string) (storage.Storage, error) {
	s := &inMemory{state: newState(), snap: &snapshotter{path: path}}

	if err := s.snap.load(&s.state); err != nil {
		return nil, err
	}

	return s, nil
}

// InTx runs f under the write lock so no reader observes intermediate state.
// There is no rollback, partially applied callbacks stay applied.
func (s *inMemory) InTx(ctx context.Context, f func(s storage.Storage) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := f(tx{s: s}); err != nil {
		return err
	}

	return s.save()
}

func (s *inMemory) Ping(_ context.Context) error { return nil }

// save writes the snapshot, the caller must hold the write lock.
func (s *inMemory) save() error {
	if s.snap == nil {
		return nil
	}

	return s.snap.save(&s.state)
}

func (s *inMemory) write(f func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := f(); err != nil {
		return err
	}

	return s.save()
}

func (s *inMemory) findPost(id string) int {
	for i, p := range s.state.Posts {
		if p.ID == id {
			return i
		}
	}

	return -1
}

func (s *inMemory) createPost(p *entities.Post) error {
	if s.findPost(p.ID) >= 0 {
		return storage.ErrAlreadyExists
	}

	c := *p
	s.state.Posts = append([]*entities.Post{&c}, s.state.Posts...)

	return nil
}

func (s *inMemory) getPost(id string) (*entities.Post, error) {
	i := s.findPost(id)
	if i < 0 {
		return nil, storage.ErrNotFound
	}

	c := *s.state.Posts[i]

	return &c, nil
}

func (s *inMemory) listPosts(p *storage.ListPostsParams) ([]*entities.Post, error) {
	filtered := make([]*entities.Post, 0, len(s.state.Posts))
	for _, v := range s.state.Posts {
		if v.IsPrivate && (p.VisibleTo == nil || *p.VisibleTo != v.Owner) {
			continue
		}
		if p.Owner != nil && v.Owner != *p.Owner {
			continue
		}
		if p.Subject != nil && v.Subject != *p.Subject {
			continue
		}
		if p.Source != nil && v.Source != *p.Source {
			continue
		}
		filtered = append(filtered, v)
	}

	less := func(a, b *entities.Post) bool {
		if p.SortBy == storage.LikesSortType && a.Likes != b.Likes {
			return a.Likes < b.Likes
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return strings.Compare(a.ID, b.ID) < 0
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if p.OrderBy == storage.AscendingOrder {
			return less(filtered[i], filtered[j])
		}
		return less(filtered[j], filtered[i])
	})

	if p.After != nil {
		ai := s.findPost(*p.After)
		if ai < 0 {
			return nil, storage.ErrNotFound
		}
		anchor := s.state.Posts[ai]

		// keyset off the anchor even when filters exclude it from the page
		next := filtered[:0]
		for _, v := range filtered {
			if p.OrderBy == storage.AscendingOrder {
				if less(anchor, v) {
					next = append(next, v)
				}
			} else if less(v, anchor) {
				next = append(next, v)
			}
		}
		filtered = next
	}

	if p.Limit > 0 && len(filtered) > int(p.Limit) {
		filtered = filtered[:p.Limit]
	}

	out := make([]*entities.Post, len(filtered))
	for i, v := range filtered {
		c := *v
		out[i] = &c
	}

	return out, nil
}

func (s *inMemory) updatePost(p *storage.UpdatePostParams) error {
	i := s.findPost(p.ID)
	if i < 0 {
		return storage.ErrNotFound
	}

	v := s.state.Posts[i]
	v.Photos = p.Photos
	v.MainCaption = p.MainCaption
	v.DetailedCaption = p.DetailedCaption
	v.Subject = p.Subject
	v.Location = p.Location
	v.UserLocation = p.UserLocation

	return nil
}

func (s *inMemory) deletePost(id string) error {
	i := s.findPost(id)
	if i < 0 {
		return storage.ErrNotFound
	}

	s.state.Posts = append(s.state.Posts[:i], s.state.Posts[i+1:]...)
	delete(s.state.Comments, id)

	for user, ids := range s.state.History {
		s.state.History[user] = removeID(ids, id)
	}

	return nil
}

func (s *inMemory) likePost(id string) error {
	i := s.findPost(id)
	if i < 0 {
		return storage.ErrNotFound
	}

	s.state.Posts[i].Likes++

	return nil
}

func (s *inMemory) setPostPrivacy(id string, private bool) error {
	i := s.findPost(id)
	if i < 0 {
		return storage.ErrNotFound
	}

	s.state.Posts[i].IsPrivate = private

	return nil
}

func (s *inMemory) setPostPinned(id string, pinned bool) error {
	i := s.findPost(id)
	if i < 0 {
		return storage.ErrNotFound
	}

	s.state.Posts[i].IsPinned = pinned

	return nil
}

func (s *inMemory) unpinPosts(owner string) error {
	for _, p := range s.state.Posts {
		if p.Owner == owner {
			p.IsPinned = false
		}
	}

	return nil
}

func (s *inMemory) getPinnedPost(owner string) (*entities.Post, error) {
	for _, p := range s.state.Posts {
		if p.Owner == owner && p.IsPinned {
			c := *p
			return &c, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (s *inMemory) replacePostsBySource(source string, posts []*entities.Post) error {
	kept := make([]*entities.Post, 0, len(s.state.Posts)+len(posts))
	for _, p := range s.state.Posts {
		if p.Source != source {
			kept = append(kept, p)
			continue
		}

		delete(s.state.Comments, p.ID)
		for user, ids := range s.state.History {
			s.state.History[user] = removeID(ids, p.ID)
		}
	}

	s.state.Posts = kept
	for _, p := range posts {
		if err := s.createPost(p); err != nil {
			return err
		}
	}

	return nil
}

func (s *inMemory) addComment(c *entities.Comment) error {
	if s.findPost(c.PostID) < 0 {
		return storage.ErrNotFound
	}

	v := *c
	s.state.Comments[c.PostID] = append(s.state.Comments[c.PostID], &v)

	return nil
}

func (s *inMemory) listComments(postID string) ([]*entities.Comment, error) {
	out := make([]*entities.Comment, 0, len(s.state.Comments[postID]))
	for _, v := range s.state.Comments[postID] {
		c := *v
		out = append(out, &c)
	}

	return out, nil
}

func (s *inMemory) createUser(u *entities.User, passwordHash string) error {
	if _, ok := s.state.Users[u.ID]; ok {
		return storage.ErrAlreadyExists
	}
	for _, r := range s.state.Users {
		if r.User.Username == u.Username {
			return storage.ErrAlreadyExists
		}
	}

	c := *u
	s.state.Users[u.ID] = &userRecord{User: &c, PasswordHash: passwordHash}

	return nil
}

func (s *inMemory) getUser(id string) (*entities.User, error) {
	r, ok := s.state.Users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	c := *r.User

	return &c, nil
}

func (s *inMemory) getUserByUsername(username string) (*entities.User, error) {
	for _, r := range s.state.Users {
		if r.User.Username == username {
			c := *r.User
			return &c, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (s *inMemory) getPasswordHash(id string) (string, error) {
	r, ok := s.state.Users[id]
	if !ok {
		return "", storage.ErrNotFound
	}

	return r.PasswordHash, nil
}

func (s *inMemory) updateProfile(p *storage.UpdateProfileParams) error {
	r, ok := s.state.Users[p.ID]
	if !ok {
		return storage.ErrNotFound
	}

	if p.Username != nil {
		for id, o := range s.state.Users {
			if id != p.ID && o.User.Username == *p.Username {
				return storage.ErrAlreadyExists
			}
		}
		r.User.Username = *p.Username
	}
	if p.Avatar != nil {
		r.User.Avatar = *p.Avatar
	}
	if p.Bio != nil {
		r.User.Bio = *p.Bio
	}
	if p.Location != nil {
		r.User.Location = *p.Location
	}
	if p.Interests != nil {
		r.User.Interests = p.Interests
	}

	return nil
}

func (s *inMemory) createMessage(m *entities.Message) error {
	c := *m
	s.state.Messages = append(s.state.Messages, &c)

	return nil
}

func (s *inMemory) listConversation(a, b string) ([]*entities.Message, error) {
	var out []*entities.Message
	for _, m := range s.state.Messages {
		if (m.Sender == a && m.Receiver == b) || (m.Sender == b && m.Receiver == a) {
			c := *m
			out = append(out, &c)
		}
	}

	return out, nil
}

func (s *inMemory) listInbox(user string) ([]*entities.Message, error) {
	var out []*entities.Message
	for i := len(s.state.Messages) - 1; i >= 0; i-- {
		if m := s.state.Messages[i]; m.Receiver == user {
			c := *m
			out = append(out, &c)
		}
	}

	return out, nil
}

func (s *inMemory) markMessageRead(id, reader string) error {
	for _, m := range s.state.Messages {
		if m.ID == id && m.Receiver == reader {
			m.Read = true
			return nil
		}
	}

	return storage.ErrNotFound
}

func (s *inMemory) addToHistory(user, postID string, limit int) error {
	if s.findPost(postID) < 0 {
		return storage.ErrNotFound
	}

	ids := removeID(s.state.History[user], postID)
	ids = append([]string{postID}, ids...)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	s.state.History[user] = ids

	return nil
}

func (s *inMemory) listHistory(user string) ([]*entities.Post, error) {
	out := make([]*entities.Post, 0, len(s.state.History[user]))
	for _, id := range s.state.History[user] {
		if i := s.findPost(id); i >= 0 {
			c := *s.state.Posts[i]
			out = append(out, &c)
		}
	}

	return out, nil
}

func (s *inMemory) clearHistory(user string) error {
	delete(s.state.History, user)

	return nil
}

func (s *inMemory) setHistoryEnabled(user string, enabled bool) error {
	if enabled {
		delete(s.state.HistoryDisabled, user)
	} else {
		s.state.HistoryDisabled[user] = true
	}

	return nil
}

func (s *inMemory) isHistoryEnabled(user string) (bool, error) {
	return !s.state.HistoryDisabled[user], nil
}

func (s *inMemory) CreatePost(_ context.Context, p *entities.Post) error {
	return s.write(func() error { return s.createPost(p) })
}

func (s *inMemory) GetPost(_ context.Context, id string) (*entities.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getPost(id)
}

func (s *inMemory) ListPosts(_ context.Context, p *storage.ListPostsParams) ([]*entities.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listPosts(p)
}

func (s *inMemory) UpdatePost(_ context.Context, p *storage.UpdatePostParams) error {
	return s.write(func() error { return s.updatePost(p) })
}

func (s *inMemory) DeletePost(_ context.Context, id string) error {
	return s.write(func() error { return s.deletePost(id) })
}

func (s *inMemory) LikePost(_ context.Context, id string) error {
	return s.write(func() error { return s.likePost(id) })
}

func (s *inMemory) SetPostPrivacy(_ context.Context, id string, private bool) error {
	return s.write(func() error { return s.setPostPrivacy(id, private) })
}

func (s *inMemory) SetPostPinned(_ context.Context, id string, pinned bool) error {
	return s.write(func() error { return s.setPostPinned(id, pinned) })
}

func (s *inMemory) UnpinPosts(_ context.Context, owner string) error {
	return s.write(func() error { return s.unpinPosts(owner) })
}

func (s *inMemory) GetPinnedPost(_ context.Context, owner string) (*entities.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getPinnedPost(owner)
}

func (s *inMemory) ReplacePostsBySource(_ context.Context, source string, posts []*entities.Post) error {
	return s.write(func() error { return s.replacePostsBySource(source, posts) })
}

func (s *inMemory) AddComment(_ context.Context, c *entities.Comment) error {
	return s.write(func() error { return s.addComment(c) })
}

func (s *inMemory) ListComments(_ context.Context, postID string) ([]*entities.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listComments(postID)
}

func (s *inMemory) CreateUser(_ context.Context, u *entities.User, passwordHash string) error {
	return s.write(func() error { return s.createUser(u, passwordHash) })
}

func (s *inMemory) GetUser(_ context.Context, id string) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getUser(id)
}

func (s *inMemory) GetUserByUsername(_ context.Context, username string) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getUserByUsername(username)
}

func (s *inMemory) GetPasswordHash(_ context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getPasswordHash(id)
}

func (s *inMemory) UpdateProfile(_ context.Context, p *storage.UpdateProfileParams) error {
	return s.write(func() error { return s.updateProfile(p) })
}

func (s *inMemory) CreateMessage(_ context.Context, m *entities.Message) error {
	return s.write(func() error { return s.createMessage(m) })
}

func (s *inMemory) ListConversation(_ context.Context, a, b string) ([]*entities.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listConversation(a, b)
}

func (s *inMemory) ListInbox(_ context.Context, user string) ([]*entities.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listInbox(user)
}

func (s *inMemory) MarkMessageRead(_ context.Context, id, reader string) error {
	return s.write(func() error { return s.markMessageRead(id, reader) })
}

func (s *inMemory) AddToHistory(_ context.Context, user, postID string, limit int) error {
	return s.write(func() error { return s.addToHistory(user, postID, limit) })
}

func (s *inMemory) ListHistory(_ context.Context, user string) ([]*entities.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listHistory(user)
}

func (s *inMemory) ClearHistory(_ context.Context, user string) error {
	return s.write(func() error { return s.clearHistory(user) })
}

func (s *inMemory) SetHistoryEnabled(_ context.Context, user string, enabled bool) error {
	return s.write(func() error { return s.setHistoryEnabled(user, enabled) })
}

func (s *inMemory) IsHistoryEnabled(_ context.Context, user string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.isHistoryEnabled(user)
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}

	return out
}
