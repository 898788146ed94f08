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

var _ repository.ArticleRepository = (*Store)(nil)

// CreateArticle inserts the article and one tags row per entry of TagList in
// a single transaction. ID, CreatedAt and UpdatedAt are set on success.
// A duplicate slug is reported as apperror.ErrConflict.
func (s *Store) CreateArticle(ctx context.Context, article *model.Article) (err error) {
	defer func(start time.Time) { metrics.ObserveQuery("create_article", start, err) }(time.Now())

	tagJSON, err := encodeTagList(article.TagList)
	if err != nil {
		return fmt.Errorf("sqlstore: %w", err)
	}
	now := utcNow()

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := s.queryRow(ctx, tx,
			`INSERT INTO articles (slug, title, description, body, tag_list, author_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			article.Slug, article.Title, article.Description, article.Body,
			tagJSON, article.AuthorID, now, now,
		).Scan(&id)
		if err != nil {
			return err
		}
		if err := s.insertTags(ctx, tx, id, article.AuthorID, article.TagList); err != nil {
			return err
		}
		article.ID = id
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("article", "slug")
		}
		return fmt.Errorf("sqlstore: creating article %q: %w", article.Slug, err)
	}

	article.CreatedAt = now
	article.UpdatedAt = now
	return nil
}

// GetArticleBySlug returns the article with its favorites count, or
// apperror.ErrNotFound.
func (s *Store) GetArticleBySlug(ctx context.Context, slug string) (article *model.Article, err error) {
	defer func(start time.Time) { metrics.ObserveQuery("get_article", start, err) }(time.Now())

	row := s.queryRow(ctx, s.db, articleSelect+` WHERE a.slug = ? GROUP BY a.id`, slug)
	article, err = scanArticle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("article", slug)
		}
		return nil, fmt.Errorf("sqlstore: getting article %q: %w", slug, err)
	}
	return article, nil
}

// UpdateArticle writes the editable fields of article and replaces its tag
// rows with TagList. UpdatedAt is refreshed.
func (s *Store) UpdateArticle(ctx context.Context, article *model.Article) (err error) {
	defer func(start time.Time) { metrics.ObserveQuery("update_article", start, err) }(time.Now())

	tagJSON, err := encodeTagList(article.TagList)
	if err != nil {
		return fmt.Errorf("sqlstore: %w", err)
	}
	now := utcNow()

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := s.exec(ctx, tx,
			`UPDATE articles
			 SET slug = ?, title = ?, description = ?, body = ?, tag_list = ?, updated_at = ?
			 WHERE id = ?`,
			article.Slug, article.Title, article.Description, article.Body, tagJSON, now, article.ID,
		)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.NotFound("article", article.Slug)
		}
		if _, err := s.exec(ctx, tx, `DELETE FROM tags WHERE article_id = ?`, article.ID); err != nil {
			return err
		}
		return s.insertTags(ctx, tx, article.ID, article.AuthorID, article.TagList)
	})
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound):
		return err
	case isUniqueViolation(err):
		return apperror.Conflict("article", "slug")
	default:
		return fmt.Errorf("sqlstore: updating article %d: %w", article.ID, err)
	}

	article.UpdatedAt = now
	return nil
}

// DeleteArticle removes the article with its comments, favorites and tag rows.
func (s *Store) DeleteArticle(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { metrics.ObserveQuery("delete_article", start, err) }(time.Now())

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM comments WHERE article_id = ?`,
			`DELETE FROM favorites WHERE article_id = ?`,
			`DELETE FROM tags WHERE article_id = ?`,
		} {
			if _, err := s.exec(ctx, tx, stmt, id); err != nil {
				return err
			}
		}
		result, err := s.exec(ctx, tx, `DELETE FROM articles WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.NotFound("article", fmt.Sprint(id))
		}
		return nil
	})
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("sqlstore: deleting article %d: %w", id, err)
	}
	return err
}

func (s *Store) insertTags(ctx context.Context, tx *sql.Tx, articleID, userID int64, tags []string) error {
	for _, name := range tags {
		if _, err := s.exec(ctx, tx,
			`INSERT INTO tags (name, article_id, user_id) VALUES (?, ?, ?)
			 ON CONFLICT (article_id, name) DO NOTHING`,
			name, articleID, userID,
		); err != nil {
			return fmt.Errorf("inserting tag %q: %w", name, err)
		}
	}
	return nil
}

// Favorite records that userID favorites articleID. Repeating it is a no-op.
func (s *Store) Favorite(ctx context.Context, userID, articleID int64) (err error) {
	defer func(start time.Time) { metrics.ObserveQuery("favorite", start, err) }(time.Now())

	_, err = s.exec(ctx, s.db,
		`INSERT INTO favorites (user_id, article_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, article_id) DO NOTHING`,
		userID, articleID, utcNow(),
	)
	if err != nil {
		return fmt.Errorf("sqlstore: favoriting article %d: %w", articleID, err)
	}
	return nil
}

// Unfavorite removes the favorite if present.
func (s *Store) Unfavorite(ctx context.Context, userID, articleID int64) (err error) {
	defer func(start time.Time) { metrics.ObserveQuery("unfavorite", start, err) }(time.Now())

	_, err = s.exec(ctx, s.db,
		`DELETE FROM favorites WHERE user_id = ? AND article_id = ?`, userID, articleID)
	if err != nil {
		return fmt.Errorf("sqlstore: unfavoriting article %d: %w", articleID, err)
	}
	return nil
}

func (s *Store) IsFavorited(ctx context.Context, userID, articleID int64) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM favorites WHERE user_id = ? AND article_id = ?`, userID, articleID)
}

// exists reports whether query returns at least one row.
func (s *Store) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.queryRow(ctx, s.db, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("sqlstore: %w", err)
	}
	return true, nil
}
