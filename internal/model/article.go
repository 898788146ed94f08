package model

import "time"

// Article is a published post together with its favorites count.
//
// TagList is stored as a JSON array column; repositories always return it
// sorted ascending and never nil.
type Article struct {
	ID             int64
	Slug           string
	Title          string
	Description    string
	Body           string
	TagList        []string
	AuthorID       int64
	FavoritesCount int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ArticleView is an Article hydrated for one viewer.
type ArticleView struct {
	Article
	Author    Profile
	Favorited bool
}

// Comment belongs to one article and one author.
type Comment struct {
	ID        int64
	Body      string
	ArticleID int64
	AuthorID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentView is a Comment with its author's profile.
type CommentView struct {
	Comment
	Author Profile
}
