package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

const maxTitleLen = 255

// ArticleService lists, edits and favorites articles. Every returned
// article is hydrated with its author's profile and the viewer's favorited
// flag.
type ArticleService struct {
	articles repository.ArticleRepository
	profiles profiles
	logger   *slog.Logger
}

func NewArticleService(
	articles repository.ArticleRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	logger *slog.Logger,
) *ArticleService {
	return &ArticleService{
		articles: articles,
		profiles: profiles{users: users, follows: follows},
		logger:   logger,
	}
}

// List returns one page of the public listing. q.FeedOwnerID is ignored;
// use Feed for followed authors.
func (s *ArticleService) List(ctx context.Context, viewerID int64, q repository.ArticleQuery) ([]model.ArticleView, error) {
	q.FeedOwnerID = 0
	return s.query(ctx, viewerID, q)
}

// Feed returns articles by authors viewerID follows, newest first.
func (s *ArticleService) Feed(ctx context.Context, viewerID int64, limit, offset int) ([]model.ArticleView, error) {
	if viewerID == 0 {
		return nil, apperror.Unauthorized("feed requires a signed-in user")
	}
	return s.query(ctx, viewerID, repository.ArticleQuery{FeedOwnerID: viewerID, Limit: limit, Offset: offset})
}

func (s *ArticleService) query(ctx context.Context, viewerID int64, q repository.ArticleQuery) ([]model.ArticleView, error) {
	articles, err := s.articles.QueryArticles(ctx, q.Normalized())
	if err != nil {
		return nil, fmt.Errorf("service: listing articles: %w", err)
	}
	return s.hydrate(ctx, viewerID, articles)
}

// hydrate resolves author profiles and favorited flags concurrently. The
// output order matches articles.
func (s *ArticleService) hydrate(ctx context.Context, viewerID int64, articles []model.Article) ([]model.ArticleView, error) {
	views := make([]model.ArticleView, len(articles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)
	for i := range articles {
		g.Go(func() error {
			v, err := s.view(gctx, viewerID, &articles[i])
			if err != nil {
				return err
			}
			views[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

func (s *ArticleService) view(ctx context.Context, viewerID int64, a *model.Article) (model.ArticleView, error) {
	author, err := s.profiles.byID(ctx, viewerID, a.AuthorID)
	if err != nil {
		return model.ArticleView{}, err
	}
	favorited := false
	if viewerID != 0 {
		favorited, err = s.articles.IsFavorited(ctx, viewerID, a.ID)
		if err != nil {
			return model.ArticleView{}, fmt.Errorf("service: checking favorite: %w", err)
		}
	}
	return model.ArticleView{Article: *a, Author: author, Favorited: favorited}, nil
}

// Get returns a single article by slug.
func (s *ArticleService) Get(ctx context.Context, viewerID int64, slug string) (*model.ArticleView, error) {
	a, err := s.articles.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	v, err := s.view(ctx, viewerID, a)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

type CreateArticleInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	TagList     []string `json:"tagList"`
}

func (in CreateArticleInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, maxTitleLen)),
		validation.Field(&in.Description, validation.Required),
		validation.Field(&in.Body, validation.Required),
	)
}

// Create publishes a new article authored by authorID.
func (s *ArticleService) Create(ctx context.Context, authorID int64, in CreateArticleInput) (*model.ArticleView, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validationError(in.Validate()); err != nil {
		return nil, err
	}

	a := &model.Article{
		Slug:        newSlug(in.Title),
		Title:       in.Title,
		Description: in.Description,
		Body:        in.Body,
		TagList:     normalizeTags(in.TagList),
		AuthorID:    authorID,
	}
	if err := s.articles.CreateArticle(ctx, a); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service: creating article: %w", err)
	}

	s.logger.Info("article created", slog.Int64("article_id", a.ID), slog.String("slug", a.Slug))
	v, err := s.view(ctx, authorID, a)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UpdateArticleInput is a partial update. A changed title produces a new
// slug. A non-nil TagList replaces the tags.
type UpdateArticleInput struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Body        *string   `json:"body"`
	TagList     *[]string `json:"tagList"`
}

func (in UpdateArticleInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.NilOrNotEmpty, validation.RuneLength(1, maxTitleLen)),
		validation.Field(&in.Description, validation.NilOrNotEmpty),
		validation.Field(&in.Body, validation.NilOrNotEmpty),
	)
}

// Update edits an article. Only its author may do so.
func (s *ArticleService) Update(ctx context.Context, userID int64, slug string, in UpdateArticleInput) (*model.ArticleView, error) {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
	}
	if err := validationError(in.Validate()); err != nil {
		return nil, err
	}

	a, err := s.ownedArticle(ctx, userID, slug)
	if err != nil {
		return nil, err
	}

	if in.Title != nil && *in.Title != a.Title {
		a.Title = *in.Title
		a.Slug = newSlug(a.Title)
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if in.Body != nil {
		a.Body = *in.Body
	}
	if in.TagList != nil {
		a.TagList = normalizeTags(*in.TagList)
	}

	if err := s.articles.UpdateArticle(ctx, a); err != nil {
		if errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service: updating article %q: %w", slug, err)
	}

	v, err := s.view(ctx, userID, a)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Delete removes an article. Only its author may do so.
func (s *ArticleService) Delete(ctx context.Context, userID int64, slug string) error {
	a, err := s.ownedArticle(ctx, userID, slug)
	if err != nil {
		return err
	}
	if err := s.articles.DeleteArticle(ctx, a.ID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service: deleting article %q: %w", slug, err)
	}
	s.logger.Info("article deleted", slog.Int64("article_id", a.ID), slog.String("slug", slug))
	return nil
}

func (s *ArticleService) ownedArticle(ctx context.Context, userID int64, slug string) (*model.Article, error) {
	a, err := s.articles.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if a.AuthorID != userID {
		return nil, apperror.Forbidden("only the author may change this article")
	}
	return a, nil
}

// Favorite marks the article as a favorite of userID and returns it with the
// updated count.
func (s *ArticleService) Favorite(ctx context.Context, userID int64, slug string) (*model.ArticleView, error) {
	return s.setFavorite(ctx, userID, slug, s.articles.Favorite)
}

func (s *ArticleService) Unfavorite(ctx context.Context, userID int64, slug string) (*model.ArticleView, error) {
	return s.setFavorite(ctx, userID, slug, s.articles.Unfavorite)
}

func (s *ArticleService) setFavorite(
	ctx context.Context,
	userID int64,
	slug string,
	apply func(ctx context.Context, userID, articleID int64) error,
) (*model.ArticleView, error) {
	a, err := s.articles.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := apply(ctx, userID, a.ID); err != nil {
		return nil, fmt.Errorf("service: updating favorite on %q: %w", slug, err)
	}
	return s.Get(ctx, userID, slug)
}
