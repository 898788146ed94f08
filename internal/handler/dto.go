package handler

import (
	"time"

	"github.com/sakif/conduit/internal/model"
)

// timeLayout renders timestamps in UTC with millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

type userJSON struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

type userEnvelope struct {
	User userJSON `json:"user"`
}

func newUserEnvelope(u *model.User, token string) userEnvelope {
	return userEnvelope{User: userJSON{
		Email:    u.Email,
		Token:    token,
		Username: u.Username,
		Bio:      u.Bio,
		Image:    u.Image,
	}}
}

type profileJSON struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

type profileEnvelope struct {
	Profile profileJSON `json:"profile"`
}

func newProfileJSON(p model.Profile) profileJSON {
	return profileJSON{Username: p.Username, Bio: p.Bio, Image: p.Image, Following: p.Following}
}

type articleJSON struct {
	Slug           string      `json:"slug"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Body           string      `json:"body"`
	TagList        []string    `json:"tagList"`
	CreatedAt      string      `json:"createdAt"`
	UpdatedAt      string      `json:"updatedAt"`
	Favorited      bool        `json:"favorited"`
	FavoritesCount int64       `json:"favoritesCount"`
	Author         profileJSON `json:"author"`
}

type articleEnvelope struct {
	Article articleJSON `json:"article"`
}

type articlesEnvelope struct {
	Articles      []articleJSON `json:"articles"`
	ArticlesCount int           `json:"articlesCount"`
}

func newArticleJSON(v *model.ArticleView) articleJSON {
	tags := v.TagList
	if tags == nil {
		tags = []string{}
	}
	return articleJSON{
		Slug:           v.Slug,
		Title:          v.Title,
		Description:    v.Description,
		Body:           v.Body,
		TagList:        tags,
		CreatedAt:      formatTime(v.CreatedAt),
		UpdatedAt:      formatTime(v.UpdatedAt),
		Favorited:      v.Favorited,
		FavoritesCount: v.FavoritesCount,
		Author:         newProfileJSON(v.Author),
	}
}

// newArticlesEnvelope wraps one page. articlesCount is the page length.
func newArticlesEnvelope(views []model.ArticleView) articlesEnvelope {
	out := make([]articleJSON, len(views))
	for i := range views {
		out[i] = newArticleJSON(&views[i])
	}
	return articlesEnvelope{Articles: out, ArticlesCount: len(out)}
}

type commentJSON struct {
	ID        int64       `json:"id"`
	CreatedAt string      `json:"createdAt"`
	UpdatedAt string      `json:"updatedAt"`
	Body      string      `json:"body"`
	Author    profileJSON `json:"author"`
}

type commentEnvelope struct {
	Comment commentJSON `json:"comment"`
}

type commentsEnvelope struct {
	Comments []commentJSON `json:"comments"`
}

func newCommentJSON(v *model.CommentView) commentJSON {
	return commentJSON{
		ID:        v.ID,
		CreatedAt: formatTime(v.CreatedAt),
		UpdatedAt: formatTime(v.UpdatedAt),
		Body:      v.Body,
		Author:    newProfileJSON(v.Author),
	}
}

type tagsEnvelope struct {
	Tags []string `json:"tags"`
}
