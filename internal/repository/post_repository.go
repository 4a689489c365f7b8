package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Post struct {
	ID        string
	GroupID   string
	AuthorID  string
	Title     string
	URL       *string
	Body      *string
	Status    string
	Score     int
	CreatedAt time.Time
	UpdatedAt time.Time
	Author    *User
}

type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	ParentID  *string
	Body      string
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
	Author    *User
}

type Vote struct {
	ID        string
	PostID    string
	UserID    string
	Value     int
	CreatedAt time.Time
}

// PostFilters narrows a post listing. Constraint order matters: the
// group scope and viewer tier fields are hard filters that a
// caller-supplied Status/Author/Title filter can only narrow, never
// widen.
type PostFilters struct {
	GroupID       string
	TitleContains string
	AuthorName    string
	Status        string

	// Viewer tier
	ViewerID       string // empty means anonymous
	ScopeToViewer  bool   // unscoped listing: restrict to groups the viewer can read
	IncludeRemoved bool   // moderator tier only
	IncludeDrafts  bool   // moderator tier; authors always see their own drafts

	Limit  int
	Offset int
}

type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	FindByID(ctx context.Context, id string) (*Post, error)
	FindAll(ctx context.Context, f *PostFilters) ([]*Post, int, error)
	Update(ctx context.Context, post *Post) error
	UpdateStatus(ctx context.Context, id, status string) error

	// Comments
	CreateComment(ctx context.Context, comment *Comment) error
	FindCommentByID(ctx context.Context, id string) (*Comment, error)
	FindCommentsByPost(ctx context.Context, postID string, limit, offset int) ([]*Comment, int, error)
	UpdateComment(ctx context.Context, comment *Comment) error
	SoftDeleteComment(ctx context.Context, id string) error

	// Votes
	UpsertVote(ctx context.Context, vote *Vote) error
	DeleteVote(ctx context.Context, postID, userID string) error
	FindVote(ctx context.Context, postID, userID string) (*Vote, error)
}

type pgPostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) PostRepository {
	return &pgPostRepository{pool: pool}
}

const postColumns = `
	p.id, p.group_id, p.author_id, p.title, p.url, p.body, p.status,
	COALESCE((SELECT SUM(v.value) FROM votes v WHERE v.post_id = p.id), 0),
	p.created_at, p.updated_at,
	u.username
`

func (r *pgPostRepository) Create(ctx context.Context, post *Post) error {
	query := `
		INSERT INTO posts (group_id, author_id, title, url, body, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		post.GroupID, post.AuthorID, post.Title, post.URL, post.Body, post.Status,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
}

func (r *pgPostRepository) FindByID(ctx context.Context, id string) (*Post, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM posts p
		INNER JOIN users u ON p.author_id = u.id
		WHERE p.id = $1
	`, postColumns)

	post, err := r.scanPost(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *pgPostRepository) scanPost(row pgx.Row) (*Post, error) {
	post := &Post{Author: &User{}}
	err := row.Scan(
		&post.ID, &post.GroupID, &post.AuthorID, &post.Title, &post.URL,
		&post.Body, &post.Status, &post.Score, &post.CreatedAt, &post.UpdatedAt,
		&post.Author.Username,
	)
	if err != nil {
		return nil, err
	}
	post.Author.ID = post.AuthorID
	return post, nil
}

// listConditions builds the WHERE clause in fixed order: ancestor
// scope, then viewer tier, then caller filters. Non-members may read
// inside public and restricted groups; only private groups are limited
// to membership.
func (f *PostFilters) listConditions() (string, []interface{}) {
	args := []interface{}{}
	var conditions []string

	// 1. ancestor scope
	if f.GroupID != "" {
		args = append(args, f.GroupID)
		conditions = append(conditions, fmt.Sprintf("p.group_id = $%d", len(args)))
	}
	if f.ScopeToViewer {
		if f.ViewerID != "" {
			args = append(args, f.ViewerID)
			conditions = append(conditions, fmt.Sprintf(
				`(g.visibility IN ('public', 'restricted') OR EXISTS (
					SELECT 1 FROM group_members gm
					WHERE gm.group_id = p.group_id AND gm.user_id = $%d
				))`, len(args)))
		} else {
			conditions = append(conditions, "g.visibility IN ('public', 'restricted')")
		}
	}

	// 2. viewer tier
	if !f.IncludeRemoved {
		conditions = append(conditions, "p.status <> 'removed'")
	}
	if !f.IncludeDrafts {
		if f.ViewerID != "" {
			args = append(args, f.ViewerID)
			conditions = append(conditions, fmt.Sprintf("(p.status <> 'draft' OR p.author_id = $%d)", len(args)))
		} else {
			conditions = append(conditions, "p.status <> 'draft'")
		}
	}

	// 3. caller filters
	if f.TitleContains != "" {
		args = append(args, "%"+f.TitleContains+"%")
		conditions = append(conditions, fmt.Sprintf("p.title ILIKE $%d", len(args)))
	}
	if f.AuthorName != "" {
		args = append(args, f.AuthorName)
		conditions = append(conditions, fmt.Sprintf("LOWER(u.username) = LOWER($%d)", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "TRUE", args
	}
	return strings.Join(conditions, " AND "), args
}

// FindAll lists posts. A nonexistent GroupID simply matches no rows.
func (r *pgPostRepository) FindAll(ctx context.Context, f *PostFilters) ([]*Post, int, error) {
	where, args := f.listConditions()

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM posts p
		INNER JOIN users u ON p.author_id = u.id
		INNER JOIN groups g ON p.group_id = g.id
		WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM posts p
		INNER JOIN users u ON p.author_id = u.id
		INNER JOIN groups g ON p.group_id = g.id
		WHERE %s
		ORDER BY p.id ASC
		LIMIT $%d OFFSET $%d
	`, postColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		post, err := r.scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, post)
	}
	return posts, total, nil
}

func (r *pgPostRepository) Update(ctx context.Context, post *Post) error {
	query := `
		UPDATE posts SET title = $2, url = $3, body = $4, status = $5, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, post.ID, post.Title, post.URL, post.Body, post.Status)
	return err
}

func (r *pgPostRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE posts SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, status)
	return err
}

// ============================================
// Comments
// ============================================

func (r *pgPostRepository) CreateComment(ctx context.Context, comment *Comment) error {
	query := `
		INSERT INTO comments (post_id, author_id, parent_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		comment.PostID, comment.AuthorID, comment.ParentID, comment.Body,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
}

func (r *pgPostRepository) FindCommentByID(ctx context.Context, id string) (*Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.author_id, c.parent_id, c.body, c.deleted,
		       c.created_at, c.updated_at, u.username
		FROM comments c
		INNER JOIN users u ON c.author_id = u.id
		WHERE c.id = $1
	`
	comment := &Comment{Author: &User{}}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&comment.ID, &comment.PostID, &comment.AuthorID, &comment.ParentID,
		&comment.Body, &comment.Deleted, &comment.CreatedAt, &comment.UpdatedAt,
		&comment.Author.Username,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	comment.Author.ID = comment.AuthorID
	return comment, nil
}

func (r *pgPostRepository) FindCommentsByPost(ctx context.Context, postID string, limit, offset int) ([]*Comment, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM comments WHERE post_id = $1`
	if err := r.pool.QueryRow(ctx, countQuery, postID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT c.id, c.post_id, c.author_id, c.parent_id, c.body, c.deleted,
		       c.created_at, c.updated_at, u.username
		FROM comments c
		INNER JOIN users u ON c.author_id = u.id
		WHERE c.post_id = $1
		ORDER BY c.id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, postID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		comment := &Comment{Author: &User{}}
		if err := rows.Scan(
			&comment.ID, &comment.PostID, &comment.AuthorID, &comment.ParentID,
			&comment.Body, &comment.Deleted, &comment.CreatedAt, &comment.UpdatedAt,
			&comment.Author.Username,
		); err != nil {
			return nil, 0, err
		}
		comment.Author.ID = comment.AuthorID
		comments = append(comments, comment)
	}
	return comments, total, nil
}

func (r *pgPostRepository) UpdateComment(ctx context.Context, comment *Comment) error {
	query := `UPDATE comments SET body = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, comment.ID, comment.Body)
	return err
}

func (r *pgPostRepository) SoftDeleteComment(ctx context.Context, id string) error {
	query := `UPDATE comments SET deleted = TRUE, body = '', updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// ============================================
// Votes
// ============================================

func (r *pgPostRepository) UpsertVote(ctx context.Context, vote *Vote) error {
	query := `
		INSERT INTO votes (post_id, user_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO UPDATE SET value = EXCLUDED.value
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query, vote.PostID, vote.UserID, vote.Value).
		Scan(&vote.ID, &vote.CreatedAt)
}

func (r *pgPostRepository) DeleteVote(ctx context.Context, postID, userID string) error {
	query := `DELETE FROM votes WHERE post_id = $1 AND user_id = $2`
	_, err := r.pool.Exec(ctx, query, postID, userID)
	return err
}

func (r *pgPostRepository) FindVote(ctx context.Context, postID, userID string) (*Vote, error) {
	query := `SELECT id, post_id, user_id, value, created_at FROM votes WHERE post_id = $1 AND user_id = $2`
	vote := &Vote{}
	err := r.pool.QueryRow(ctx, query, postID, userID).Scan(
		&vote.ID, &vote.PostID, &vote.UserID, &vote.Value, &vote.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return vote, nil
}
