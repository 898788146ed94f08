package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sakif/conduit/internal/metrics"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

// articleSelect is shared by listing and single-article reads so both report
// the favorites count the same way.
const articleSelect = `SELECT a.id, a.slug, a.title, a.description, a.body, a.tag_list,
	a.author_id, a.created_at, a.updated_at, COUNT(f.user_id) AS favorites_count
	FROM articles a
	LEFT JOIN favorites f ON f.article_id = a.id`

// Predicates of an article listing. Each takes exactly one bound value.
const (
	predAuthor      = `a.author_id IN (SELECT id FROM users WHERE username = ?)`
	predTag         = `a.id IN (SELECT article_id FROM tags WHERE name = ?)`
	predFavoritedBy = `a.id IN (SELECT fv.article_id FROM favorites fv JOIN users u ON u.id = fv.user_id WHERE u.username = ?)`
	predFeedOwner   = `a.author_id IN (SELECT followee_id FROM follows WHERE follower_id = ?)`
)

// articleFilter accumulates WHERE predicates and their bound values in
// matching order.
type articleFilter struct {
	clauses []string
	args    []any
}

func (f *articleFilter) add(clause string, arg any) {
	f.clauses = append(f.clauses, clause)
	f.args = append(f.args, arg)
}

// where renders " WHERE c1 AND c2 ..." or "" when there are no predicates.
func (f *articleFilter) where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

// compileArticleQuery turns q into SQL with "?" placeholders and the values
// to bind, in order. Paging is clamped via ArticleQuery.Normalized.
func compileArticleQuery(q repository.ArticleQuery) (string, []any) {
	q = q.Normalized()

	var f articleFilter
	if q.Author != "" {
		f.add(predAuthor, q.Author)
	}
	if q.Tag != "" {
		f.add(predTag, q.Tag)
	}
	if q.FavoritedBy != "" {
		f.add(predFavoritedBy, q.FavoritedBy)
	}
	if q.FeedOwnerID != 0 {
		f.add(predFeedOwner, q.FeedOwnerID)
	}

	query := articleSelect + f.where() + ` GROUP BY a.id ORDER BY a.id DESC LIMIT ? OFFSET ?`
	args := append(f.args, q.Limit, q.Offset)
	return query, args
}

// QueryArticles returns one page of articles matching q, newest first, each
// with its favorites count. It issues a single query.
func (s *Store) QueryArticles(ctx context.Context, q repository.ArticleQuery) (articles []model.Article, err error) {
	defer func(start time.Time) { metrics.ObserveQuery("query_articles", start, err) }(time.Now())

	query, args := compileArticleQuery(q)

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: querying articles: %w", err)
	}
	defer rows.Close()

	articles = make([]model.Article, 0, q.Normalized().Limit)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning article row: %w", err)
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating articles: %w", err)
	}
	return articles, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(r rowScanner) (*model.Article, error) {
	var (
		a       model.Article
		tagJSON sql.NullString
	)
	if err := r.Scan(
		&a.ID, &a.Slug, &a.Title, &a.Description, &a.Body, &tagJSON,
		&a.AuthorID, &a.CreatedAt, &a.UpdatedAt, &a.FavoritesCount,
	); err != nil {
		return nil, err
	}
	a.TagList = decodeTagList(tagJSON.String)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

// decodeTagList parses the tag_list column. Unparsable content yields an
// empty list rather than an error; the result is sorted ascending.
func decodeTagList(raw string) []string {
	tags := []string{}
	if raw == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || tags == nil {
		return []string{}
	}
	sort.Strings(tags)
	return tags
}

func encodeTagList(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encoding tag list: %w", err)
	}
	return string(b), nil
}
