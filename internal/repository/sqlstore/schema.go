package sqlstore

import (
	"context"
	"fmt"
)

// schema is applied on every Open. Statements are idempotent; there is no
// migration history. {{...}} tokens are filled in per dialect.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            {{pk}},
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		bio           TEXT NOT NULL DEFAULT '',
		image         TEXT NOT NULL DEFAULT '',
		created_at    {{timestamp}} NOT NULL,
		updated_at    {{timestamp}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS articles (
		id          {{pk}},
		slug        TEXT NOT NULL UNIQUE,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		body        TEXT NOT NULL DEFAULT '',
		tag_list    TEXT NOT NULL DEFAULT '[]',
		author_id   {{bigint}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at  {{timestamp}} NOT NULL,
		updated_at  {{timestamp}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_author_id ON articles(author_id)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id         {{pk}},
		name       TEXT NOT NULL,
		article_id {{bigint}} NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		user_id    {{bigint}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		UNIQUE (article_id, name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tags_name ON tags(name)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		user_id    {{bigint}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		article_id {{bigint}} NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		created_at {{timestamp}} NOT NULL,
		PRIMARY KEY (user_id, article_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_favorites_article_id ON favorites(article_id)`,
	`CREATE TABLE IF NOT EXISTS follows (
		follower_id {{bigint}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		followee_id {{bigint}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at  {{timestamp}} NOT NULL,
		PRIMARY KEY (follower_id, followee_id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id         {{pk}},
		body       TEXT NOT NULL,
		article_id {{bigint}} NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		author_id  {{bigint}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at {{timestamp}} NOT NULL,
		updated_at {{timestamp}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_article_id ON comments(article_id)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, s.dialect.schemaVars.Replace(stmt)); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
