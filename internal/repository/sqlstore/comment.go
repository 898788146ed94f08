package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/metrics"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

var (
	_ repository.CommentRepository = (*Store)(nil)
	_ repository.TagRepository     = (*Store)(nil)
)

const commentColumns = `id, body, article_id, author_id, created_at, updated_at`

func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) (err error) {
	defer func(start time.Time) { metrics.ObserveQuery("create_comment", start, err) }(time.Now())

	now := utcNow()
	err = s.queryRow(ctx, s.db,
		`INSERT INTO comments (body, article_id, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		comment.Body, comment.ArticleID, comment.AuthorID, now, now,
	).Scan(&comment.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting comment: %w", err)
	}
	comment.CreatedAt = now
	comment.UpdatedAt = now
	return nil
}

func (s *Store) GetComment(ctx context.Context, id int64) (*model.Comment, error) {
	row := s.queryRow(ctx, s.db, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	c, err := scanComment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("comment", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("sqlstore: getting comment %d: %w", id, err)
	}
	return c, nil
}

// ListComments returns the comments of one article, newest first.
func (s *Store) ListComments(ctx context.Context, articleID int64) (comments []model.Comment, err error) {
	defer func(start time.Time) { metrics.ObserveQuery("list_comments", start, err) }(time.Now())

	rows, err := s.query(ctx, s.db,
		`SELECT `+commentColumns+` FROM comments WHERE article_id = ? ORDER BY id DESC`, articleID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing comments: %w", err)
	}
	defer rows.Close()

	comments = []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning comment row: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating comments: %w", err)
	}
	return comments, nil
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	result, err := s.exec(ctx, s.db, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting comment %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("comment", fmt.Sprint(id))
	}
	return nil
}

func scanComment(r rowScanner) (*model.Comment, error) {
	var c model.Comment
	if err := r.Scan(&c.ID, &c.Body, &c.ArticleID, &c.AuthorID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

// ListTags returns every distinct tag name in use, sorted.
func (s *Store) ListTags(ctx context.Context) (tags []string, err error) {
	defer func(start time.Time) { metrics.ObserveQuery("list_tags", start, err) }(time.Now())

	rows, err := s.query(ctx, s.db, `SELECT DISTINCT name FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing tags: %w", err)
	}
	defer rows.Close()

	tags = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning tag: %w", err)
		}
		tags = append(tags, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating tags: %w", err)
	}
	return tags, nil
}
