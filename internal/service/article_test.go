package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

type articleFixture struct {
	store    *fakeStore
	articles *ArticleService
	profiles *ProfileService
	comments *CommentService
	tags     *TagService
	alice    *model.User
	bob      *model.User
}

func newArticleFixture(t *testing.T) *articleFixture {
	t.Helper()
	store := newFakeStore()
	ctx := context.Background()
	alice := &model.User{Username: "alice", Email: "alice@example.com"}
	bob := &model.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, store.CreateUser(ctx, alice))
	require.NoError(t, store.CreateUser(ctx, bob))

	log := discardLogger()
	return &articleFixture{
		store:    store,
		articles: NewArticleService(store, store, store, log),
		profiles: NewProfileService(store, store, log),
		comments: NewCommentService(store, store, store, store, log),
		tags:     NewTagService(store),
		alice:    alice,
		bob:      bob,
	}
}

func (f *articleFixture) publish(t *testing.T, author *model.User, title string, tags ...string) *model.ArticleView {
	t.Helper()
	v, err := f.articles.Create(context.Background(), author.ID, CreateArticleInput{
		Title: title, Description: "d", Body: "b", TagList: tags,
	})
	require.NoError(t, err)
	return v
}

func TestCreateArticle(t *testing.T) {
	f := newArticleFixture(t)

	v := f.publish(t, f.alice, "How to Train Your Dragon", "z", "a", " a ", "")

	assert.True(t, strings.HasPrefix(v.Slug, "how-to-train-your-dragon-"))
	assert.Equal(t, []string{"a", "z"}, v.TagList)
	assert.Equal(t, "alice", v.Author.Username)
	assert.False(t, v.Favorited)
	assert.Equal(t, int64(0), v.FavoritesCount)
}

func TestCreateArticle_SameTitleGetsDistinctSlugs(t *testing.T) {
	f := newArticleFixture(t)
	a := f.publish(t, f.alice, "Same")
	b := f.publish(t, f.alice, "Same")
	assert.NotEqual(t, a.Slug, b.Slug)
}

func TestCreateArticle_Validation(t *testing.T) {
	f := newArticleFixture(t)
	_, err := f.articles.Create(context.Background(), f.alice.ID, CreateArticleInput{Title: "  ", Description: "d", Body: "b"})
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, "title", fieldOf(t, err))
}

func TestListArticles_HydratesForViewer(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		f.publish(t, f.alice, fmt.Sprintf("post %d", i), "go")
	}
	first := f.publish(t, f.alice, "latest", "go")
	_, err := f.articles.Favorite(ctx, f.bob.ID, first.Slug)
	require.NoError(t, err)
	_, err = f.profiles.Follow(ctx, f.bob.ID, "alice")
	require.NoError(t, err)

	views, err := f.articles.List(ctx, f.bob.ID, repository.ArticleQuery{Tag: "go"})
	require.NoError(t, err)
	require.Len(t, views, 13)
	assert.Equal(t, first.Slug, views[0].Slug, "newest first and order preserved through hydration")
	assert.True(t, views[0].Favorited)
	assert.Equal(t, int64(1), views[0].FavoritesCount)
	assert.False(t, views[1].Favorited)
	for _, v := range views {
		assert.True(t, v.Author.Following)
	}

	anon, err := f.articles.List(ctx, 0, repository.ArticleQuery{Tag: "go", Limit: 2})
	require.NoError(t, err)
	require.Len(t, anon, 2)
	assert.False(t, anon[0].Favorited)
	assert.False(t, anon[0].Author.Following)
}

func TestListArticles_IgnoresFeedOwner(t *testing.T) {
	f := newArticleFixture(t)
	f.publish(t, f.alice, "one")

	views, err := f.articles.List(context.Background(), 0, repository.ArticleQuery{FeedOwnerID: f.bob.ID})
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestListArticles_StorageError(t *testing.T) {
	f := newArticleFixture(t)
	f.store.failWith = errStorageDown

	_, err := f.articles.List(context.Background(), 0, repository.ArticleQuery{})
	assert.ErrorIs(t, err, errStorageDown)
}

func TestFeed(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	f.publish(t, f.alice, "by alice")
	f.publish(t, f.bob, "by bob")

	views, err := f.articles.Feed(ctx, f.bob.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = f.profiles.Follow(ctx, f.bob.ID, "alice")
	require.NoError(t, err)
	views, err = f.articles.Feed(ctx, f.bob.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "by alice", views[0].Title)

	_, err = f.articles.Feed(ctx, 0, 0, 0)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestUpdateArticle(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	v := f.publish(t, f.alice, "Original", "old")

	body := "new body"
	updated, err := f.articles.Update(ctx, f.alice.ID, v.Slug, UpdateArticleInput{Body: &body})
	require.NoError(t, err)
	assert.Equal(t, v.Slug, updated.Slug, "slug kept when title unchanged")
	assert.Equal(t, "new body", updated.Body)
	assert.Equal(t, []string{"old"}, updated.TagList)

	title := "Renamed Post"
	tags := []string{"new"}
	updated, err = f.articles.Update(ctx, f.alice.ID, v.Slug, UpdateArticleInput{Title: &title, TagList: &tags})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.Slug, "renamed-post-"))
	assert.Equal(t, []string{"new"}, updated.TagList)

	_, err = f.articles.Get(ctx, 0, v.Slug)
	assert.ErrorIs(t, err, apperror.ErrNotFound, "old slug no longer resolves")
}

func TestUpdateAndDeleteArticle_OnlyAuthor(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	v := f.publish(t, f.alice, "Mine")

	body := "hijacked"
	_, err := f.articles.Update(ctx, f.bob.ID, v.Slug, UpdateArticleInput{Body: &body})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	assert.ErrorIs(t, f.articles.Delete(ctx, f.bob.ID, v.Slug), apperror.ErrForbidden)
	require.NoError(t, f.articles.Delete(ctx, f.alice.ID, v.Slug))
	assert.ErrorIs(t, f.articles.Delete(ctx, f.alice.ID, v.Slug), apperror.ErrNotFound)
}

func TestFavoriteUnfavorite(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	v := f.publish(t, f.alice, "Fav me")

	got, err := f.articles.Favorite(ctx, f.bob.ID, v.Slug)
	require.NoError(t, err)
	assert.True(t, got.Favorited)
	assert.Equal(t, int64(1), got.FavoritesCount)

	got, err = f.articles.Favorite(ctx, f.bob.ID, v.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.FavoritesCount, "favoriting twice counts once")

	got, err = f.articles.Unfavorite(ctx, f.bob.ID, v.Slug)
	require.NoError(t, err)
	assert.False(t, got.Favorited)
	assert.Equal(t, int64(0), got.FavoritesCount)

	_, err = f.articles.Favorite(ctx, f.bob.ID, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTags(t *testing.T) {
	f := newArticleFixture(t)
	f.publish(t, f.alice, "one", "go", "db")
	f.publish(t, f.bob, "two", "go")

	tags, err := f.tags.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"db", "go"}, tags)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":           "hello-world",
		"  Go -- is   Fun!  ":   "go-is-fun",
		"Ünïcode Tïtle":         "ünïcode-tïtle",
		"!!!":                   "article",
		"":                      "article",
		strings.Repeat("a", 80): strings.Repeat("a", 60),
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}
