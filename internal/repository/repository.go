// Package repository declares the storage interfaces the service layer
// depends on. The sqlstore package implements all of them over database/sql.
package repository

import (
	"context"

	"github.com/sakif/conduit/internal/model"
)

// Page size bounds applied to every article listing.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ArticleQuery describes one article listing. Zero-valued fields impose no
// restriction; set fields combine with AND.
type ArticleQuery struct {
	Tag         string // articles carrying this tag
	Author      string // articles written by this username
	FavoritedBy string // articles favorited by this username
	FeedOwnerID int64  // articles by users this user follows
	Limit       int
	Offset      int
}

// Normalized returns q with Limit and Offset clamped to the allowed range:
// a non-positive limit becomes DefaultLimit, anything above MaxLimit becomes
// MaxLimit, and a negative offset becomes 0.
func (q ArticleQuery) Normalized() ArticleQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

// FollowRepository stores the follower graph. Follow and Unfollow are
// idempotent.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followeeID int64) error
	Unfollow(ctx context.Context, followerID, followeeID int64) error
	IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error)
}

// ArticleRepository stores articles, their tag rows and favorites.
// Favorite and Unfavorite are idempotent.
type ArticleRepository interface {
	QueryArticles(ctx context.Context, q ArticleQuery) ([]model.Article, error)
	CreateArticle(ctx context.Context, article *model.Article) error
	GetArticleBySlug(ctx context.Context, slug string) (*model.Article, error)
	UpdateArticle(ctx context.Context, article *model.Article) error
	DeleteArticle(ctx context.Context, id int64) error
	Favorite(ctx context.Context, userID, articleID int64) error
	Unfavorite(ctx context.Context, userID, articleID int64) error
	IsFavorited(ctx context.Context, userID, articleID int64) (bool, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, id int64) (*model.Comment, error)
	ListComments(ctx context.Context, articleID int64) ([]model.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

type TagRepository interface {
	ListTags(ctx context.Context) ([]string, error)
}
