// Package postgres is implementation of storage interface.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/buddiee-app/buddiee/internal/entities"
	"github.com/buddiee-app/buddiee/internal/storage"
)

var log = logrus.WithField("layer", "storage").WithField("package", "postgres")
var errBeginCalledWithinTx = errors.New("can not run InTx in tx")

const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

type pg struct {
	ext sqlx.ExtContext
}

type postDTO struct {
	ID              string         `db:"id"`
	Owner           string         `db:"owner"`
	Username        string         `db:"username"`
	Photos          pq.StringArray `db:"photos"`
	MainCaption     string         `db:"main_caption"`
	DetailedCaption string         `db:"detailed_caption"`
	Subject         string         `db:"subject"`
	Location        string         `db:"location"`
	UserLocation    string         `db:"user_location"`
	Source          string         `db:"source"`
	CreatedAt       time.Time      `db:"created_at"`
	Likes           uint32         `db:"likes"`
	IsPrivate       bool           `db:"is_private"`
	IsPinned        bool           `db:"is_pinned"`
}

type commentDTO struct {
	ID        string    `db:"id"`
	PostID    string    `db:"post_id"`
	Owner     string    `db:"owner"`
	Username  string    `db:"username"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

type userDTO struct {
	ID        string         `db:"id"`
	Username  string         `db:"username"`
	Avatar    string         `db:"avatar"`
	Bio       string         `db:"bio"`
	Location  string         `db:"location"`
	Interests pq.StringArray `db:"interests"`
	CreatedAt time.Time      `db:"created_at"`
}

type messageDTO struct {
	ID        string    `db:"id"`
	Sender    string    `db:"sender"`
	Receiver  string    `db:"receiver"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
	Read      bool      `db:"read"`
}

// New creates new instance of pg.
func New(db *sql.DB) storage.Storage {
	return pg{
		ext: sqlx.NewDb(db, "postgres"),
	}
}

func (s pg) InTx(ctx context.Context, f func(s storage.Storage) error) error {
	db, ok := s.ext.(*sqlx.DB)
	if !ok {
		return errBeginCalledWithinTx
	}

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to create tx: %w", err)
	}

	if err := f(pg{ext: tx}); err != nil {
		if err := tx.Rollback(); err != nil {
			log.WithError(err).Error("failed to rollback tx")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}

	return nil
}

func (s pg) Ping(ctx context.Context) error {
	db, ok := s.ext.(*sqlx.DB)
	if !ok {
		return nil
	}

	return db.PingContext(ctx)
}

func (s pg) CreatePost(ctx context.Context, p *entities.Post) error {
	if _, err := sqlx.NamedExecContext(ctx, s.ext,
		`
			INSERT INTO post(id, owner, username, photos, main_caption, detailed_caption, subject,
				location, user_location, source, created_at, likes, is_private, is_pinned)
			VALUES(:id, :owner, :username, :photos, :main_caption, :detailed_caption, :subject,
				:location, :user_location, :source, :created_at, :likes, :is_private, :is_pinned)
		`, toPostDTO(p),
	); err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == uniqueViolation {
			return storage.ErrAlreadyExists
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) GetPost(ctx context.Context, id string) (*entities.Post, error) {
	var p postDTO

	if err := sqlx.GetContext(ctx, s.ext, &p, `
			SELECT id, owner, username, photos, main_caption, detailed_caption, subject,
				location, user_location, source, created_at, likes, is_private, is_pinned
			FROM post
			WHERE id = $1
		`, id,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return toPost(&p), nil
}

// nolint: gocyclo
func (s pg) ListPosts(ctx context.Context, p *storage.ListPostsParams) ([]*entities.Post, error) {
	where := []string{"TRUE"}
	args := make([]interface{}, 0, 8)

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if p.VisibleTo != nil {
		where = append(where, fmt.Sprintf("(NOT is_private OR owner = %s)", arg(*p.VisibleTo)))
	} else {
		where = append(where, "NOT is_private")
	}

	if p.Owner != nil {
		where = append(where, fmt.Sprintf("owner = %s", arg(*p.Owner)))
	}

	if p.Subject != nil {
		where = append(where, fmt.Sprintf("subject = %s", arg(*p.Subject)))
	}

	if p.Source != nil {
		where = append(where, fmt.Sprintf("source = %s", arg(*p.Source)))
	}

	cmp := "<"
	dir := "DESC"
	if p.OrderBy == storage.AscendingOrder {
		cmp = ">"
		dir = "ASC"
	}

	var order string
	switch p.SortBy {
	case storage.LikesSortType:
		order = fmt.Sprintf("likes %s, created_at %s, id %s", dir, dir, dir)
	default:
		order = fmt.Sprintf("created_at %s, id %s", dir, dir)
	}

	if p.After != nil {
		a, err := s.GetPost(ctx, *p.After)
		if err != nil {
			return nil, fmt.Errorf("failed to get cursor post: %w", err)
		}

		switch p.SortBy {
		case storage.LikesSortType:
			where = append(where, fmt.Sprintf("(likes, created_at, id) %s (%s, %s, %s)",
				cmp, arg(a.Likes), arg(a.CreatedAt.UTC()), arg(a.ID)))
		default:
			where = append(where, fmt.Sprintf("(created_at, id) %s (%s, %s)",
				cmp, arg(a.CreatedAt.UTC()), arg(a.ID)))
		}
	}

	query := fmt.Sprintf(`
			SELECT id, owner, username, photos, main_caption, detailed_caption, subject,
				location, user_location, source, created_at, likes, is_private, is_pinned
			FROM post
			WHERE %s
			ORDER BY %s
			LIMIT %s
		`, strings.Join(where, " AND "), order, arg(p.Limit))

	var out []*postDTO
	if err := sqlx.SelectContext(ctx, s.ext, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	posts := make([]*entities.Post, len(out))
	for i, v := range out {
		posts[i] = toPost(v)
	}

	return posts, nil
}

func (s pg) UpdatePost(ctx context.Context, p *storage.UpdatePostParams) error {
	res, err := s.ext.ExecContext(ctx, `
			UPDATE post SET photos=$2, main_caption=$3, detailed_caption=$4, subject=$5,
				location=$6, user_location=$7
			WHERE id=$1
		`,
		p.ID, pq.StringArray(p.Photos), p.MainCaption, p.DetailedCaption, p.Subject, p.Location, p.UserLocation,
	)
	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) DeletePost(ctx context.Context, id string) error {
	res, err := s.ext.ExecContext(ctx, `DELETE FROM post WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) LikePost(ctx context.Context, id string) error {
	res, err := s.ext.ExecContext(ctx, `UPDATE post SET likes = likes + 1 WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) SetPostPrivacy(ctx context.Context, id string, private bool) error {
	res, err := s.ext.ExecContext(ctx, `UPDATE post SET is_private=$2 WHERE id=$1`, id, private)
	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) SetPostPinned(ctx context.Context, id string, pinned bool) error {
	res, err := s.ext.ExecContext(ctx, `UPDATE post SET is_pinned=$2 WHERE id=$1`, id, pinned)
	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) UnpinPosts(ctx context.Context, owner string) error {
	if _, err := s.ext.ExecContext(ctx, `UPDATE post SET is_pinned=FALSE WHERE owner=$1 AND is_pinned`, owner); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) GetPinnedPost(ctx context.Context, owner string) (*entities.Post, error) {
	var p postDTO

	if err := sqlx.GetContext(ctx, s.ext, &p, `
			SELECT id, owner, username, photos, main_caption, detailed_caption, subject,
				location, user_location, source, created_at, likes, is_private, is_pinned
			FROM post
			WHERE owner = $1 AND is_pinned
		`, owner,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return toPost(&p), nil
}

func (s pg) ReplacePostsBySource(ctx context.Context, source string, posts []*entities.Post) error {
	if _, err := s.ext.ExecContext(ctx, `DELETE FROM post WHERE source=$1`, source); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	for _, p := range posts {
		if err := s.CreatePost(ctx, p); err != nil {
			return fmt.Errorf("failed to create post %s: %w", p.ID, err)
		}
	}

	return nil
}

func (s pg) AddComment(ctx context.Context, c *entities.Comment) error {
	if _, err := sqlx.NamedExecContext(ctx, s.ext,
		`
			INSERT INTO comment(id, post_id, owner, username, text, created_at)
			VALUES(:id, :post_id, :owner, :username, :text, :created_at)
		`, commentDTO{
			ID:        c.ID,
			PostID:    c.PostID,
			Owner:     c.Owner,
			Username:  c.Username,
			Text:      c.Text,
			CreatedAt: c.CreatedAt.UTC(),
		},
	); err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == foreignKeyViolation {
			return storage.ErrNotFound
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) ListComments(ctx context.Context, postID string) ([]*entities.Comment, error) {
	var out []*commentDTO

	if err := sqlx.SelectContext(ctx, s.ext, &out, `
			SELECT id, post_id, owner, username, text, created_at
			FROM comment
			WHERE post_id = $1
			ORDER BY created_at, id
		`, postID,
	); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	comments := make([]*entities.Comment, len(out))
	for i, v := range out {
		comments[i] = &entities.Comment{
			ID:        v.ID,
			PostID:    v.PostID,
			Owner:     v.Owner,
			Username:  v.Username,
			Text:      v.Text,
			CreatedAt: v.CreatedAt,
		}
	}

	return comments, nil
}

func (s pg) CreateUser(ctx context.Context, u *entities.User, passwordHash string) error {
	if _, err := s.ext.ExecContext(ctx,
		`
			INSERT INTO "user"(id, username, avatar, bio, location, interests, password_hash, created_at)
			VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		`,
		u.ID, u.Username, u.Avatar, u.Bio, u.Location, pq.StringArray(u.Interests), passwordHash, u.CreatedAt.UTC(),
	); err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == uniqueViolation {
			return storage.ErrAlreadyExists
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) GetUser(ctx context.Context, id string) (*entities.User, error) {
	var u userDTO

	if err := sqlx.GetContext(ctx, s.ext, &u, `
			SELECT id, username, avatar, bio, location, interests, created_at FROM "user" WHERE id = $1
		`, id,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return toUser(&u), nil
}

func (s pg) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	var u userDTO

	if err := sqlx.GetContext(ctx, s.ext, &u, `
			SELECT id, username, avatar, bio, location, interests, created_at FROM "user" WHERE username = $1
		`, username,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return toUser(&u), nil
}

func (s pg) GetPasswordHash(ctx context.Context, id string) (string, error) {
	var h string

	if err := sqlx.GetContext(ctx, s.ext, &h, `SELECT password_hash FROM "user" WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}

		return "", fmt.Errorf("failed to query: %w", err)
	}

	return h, nil
}

func (s pg) UpdateProfile(ctx context.Context, p *storage.UpdateProfileParams) error {
	var interests interface{}
	if p.Interests != nil {
		interests = pq.StringArray(p.Interests)
	}

	res, err := s.ext.ExecContext(ctx, `
			UPDATE "user" SET
				username=COALESCE($2, username),
				avatar=COALESCE($3, avatar),
				bio=COALESCE($4, bio),
				location=COALESCE($5, location),
				interests=COALESCE($6, interests)
			WHERE id=$1
		`,
		p.ID, p.Username, p.Avatar, p.Bio, p.Location, interests,
	)
	if err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == uniqueViolation {
			return storage.ErrAlreadyExists
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) CreateMessage(ctx context.Context, m *entities.Message) error {
	if _, err := sqlx.NamedExecContext(ctx, s.ext,
		`
			INSERT INTO message(id, sender, receiver, text, created_at, read)
			VALUES(:id, :sender, :receiver, :text, :created_at, :read)
		`, messageDTO{
			ID:        m.ID,
			Sender:    m.Sender,
			Receiver:  m.Receiver,
			Text:      m.Text,
			CreatedAt: m.CreatedAt.UTC(),
			Read:      m.Read,
		},
	); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) ListConversation(ctx context.Context, a, b string) ([]*entities.Message, error) {
	var out []*messageDTO

	if err := sqlx.SelectContext(ctx, s.ext, &out, `
			SELECT id, sender, receiver, text, created_at, read
			FROM message
			WHERE (sender = $1 AND receiver = $2) OR (sender = $2 AND receiver = $1)
			ORDER BY created_at, id
		`, a, b,
	); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return toMessages(out), nil
}

func (s pg) ListInbox(ctx context.Context, user string) ([]*entities.Message, error) {
	var out []*messageDTO

	if err := sqlx.SelectContext(ctx, s.ext, &out, `
			SELECT id, sender, receiver, text, created_at, read
			FROM message
			WHERE receiver = $1
			ORDER BY created_at DESC, id DESC
		`, user,
	); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return toMessages(out), nil
}

func (s pg) MarkMessageRead(ctx context.Context, id, reader string) error {
	res, err := s.ext.ExecContext(ctx, `UPDATE message SET read=TRUE WHERE id=$1 AND receiver=$2`, id, reader)
	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) AddToHistory(ctx context.Context, user, postID string, limit int) error {
	if _, err := s.ext.ExecContext(ctx, `
			INSERT INTO browsing_history(user_id, post_id, viewed_at) VALUES($1, $2, now())
			ON CONFLICT(user_id, post_id) DO UPDATE SET viewed_at=excluded.viewed_at
		`, user, postID,
	); err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == foreignKeyViolation {
			return storage.ErrNotFound
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	if _, err := s.ext.ExecContext(ctx, `
			DELETE FROM browsing_history WHERE user_id=$1 AND post_id NOT IN (
				SELECT post_id FROM browsing_history WHERE user_id=$1 ORDER BY viewed_at DESC LIMIT $2
			)
		`, user, limit,
	); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) ListHistory(ctx context.Context, user string) ([]*entities.Post, error) {
	var out []*postDTO

	if err := sqlx.SelectContext(ctx, s.ext, &out, `
			SELECT p.id, p.owner, p.username, p.photos, p.main_caption, p.detailed_caption, p.subject,
				p.location, p.user_location, p.source, p.created_at, p.likes, p.is_private, p.is_pinned
			FROM browsing_history h
			JOIN post p ON p.id = h.post_id
			WHERE h.user_id = $1
			ORDER BY h.viewed_at DESC
		`, user,
	); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	posts := make([]*entities.Post, len(out))
	for i, v := range out {
		posts[i] = toPost(v)
	}

	return posts, nil
}

func (s pg) ClearHistory(ctx context.Context, user string) error {
	if _, err := s.ext.ExecContext(ctx, `DELETE FROM browsing_history WHERE user_id=$1`, user); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) SetHistoryEnabled(ctx context.Context, user string, enabled bool) error {
	if _, err := s.ext.ExecContext(ctx, `
			INSERT INTO history_settings(user_id, enabled) VALUES($1, $2)
			ON CONFLICT(user_id) DO UPDATE SET enabled=excluded.enabled
		`, user, enabled,
	); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) IsHistoryEnabled(ctx context.Context, user string) (bool, error) {
	var enabled bool

	if err := sqlx.GetContext(ctx, s.ext, &enabled, `SELECT enabled FROM history_settings WHERE user_id=$1`, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// history is on until the user opts out
			return true, nil
		}

		return false, fmt.Errorf("failed to query: %w", err)
	}

	return enabled, nil
}

func toPostDTO(p *entities.Post) postDTO {
	return postDTO{
		ID:              p.ID,
		Owner:           p.Owner,
		Username:        p.Username,
		Photos:          pq.StringArray(p.Photos),
		MainCaption:     p.MainCaption,
		DetailedCaption: p.DetailedCaption,
		Subject:         p.Subject,
		Location:        p.Location,
		UserLocation:    p.UserLocation,
		Source:          p.Source,
		CreatedAt:       p.CreatedAt.UTC(),
		Likes:           p.Likes,
		IsPrivate:       p.IsPrivate,
		IsPinned:        p.IsPinned,
	}
}

func toPost(p *postDTO) *entities.Post {
	return &entities.Post{
		ID:              p.ID,
		Owner:           p.Owner,
		Username:        p.Username,
		Photos:          p.Photos,
		MainCaption:     p.MainCaption,
		DetailedCaption: p.DetailedCaption,
		Subject:         p.Subject,
		Location:        p.Location,
		UserLocation:    p.UserLocation,
		Source:          p.Source,
		CreatedAt:       p.CreatedAt,
		Likes:           p.Likes,
		IsPrivate:       p.IsPrivate,
		IsPinned:        p.IsPinned,
	}
}

func toUser(u *userDTO) *entities.User {
	return &entities.User{
		ID:        u.ID,
		Username:  u.Username,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		Location:  u.Location,
		Interests: u.Interests,
		CreatedAt: u.CreatedAt,
	}
}

func toMessages(out []*messageDTO) []*entities.Message {
	messages := make([]*entities.Message, len(out))
	for i, v := range out {
		messages[i] = &entities.Message{
			ID:        v.ID,
			Sender:    v.Sender,
			Receiver:  v.Receiver,
			Text:      v.Text,
			CreatedAt: v.CreatedAt,
			Read:      v.Read,
		}
	}

	return messages
}
