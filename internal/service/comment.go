package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

type CommentService struct {
	comments repository.CommentRepository
	articles repository.ArticleRepository
	profiles profiles
	logger   *slog.Logger
}

func NewCommentService(
	comments repository.CommentRepository,
	articles repository.ArticleRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		comments: comments,
		articles: articles,
		profiles: profiles{users: users, follows: follows},
		logger:   logger,
	}
}

// List returns the comments on slug, newest first.
func (s *CommentService) List(ctx context.Context, viewerID int64, slug string) ([]model.CommentView, error) {
	a, err := s.articles.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListComments(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("service: listing comments on %q: %w", slug, err)
	}

	views := make([]model.CommentView, len(comments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)
	for i := range comments {
		g.Go(func() error {
			author, err := s.profiles.byID(gctx, viewerID, comments[i].AuthorID)
			if err != nil {
				return err
			}
			views[i] = model.CommentView{Comment: comments[i], Author: author}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

type AddCommentInput struct {
	Body string `json:"body"`
}

func (in AddCommentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Body, validation.Required),
	)
}

// Add posts a comment by userID on slug.
func (s *CommentService) Add(ctx context.Context, userID int64, slug string, in AddCommentInput) (*model.CommentView, error) {
	in.Body = strings.TrimSpace(in.Body)
	if err := validationError(in.Validate()); err != nil {
		return nil, err
	}

	a, err := s.articles.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	c := &model.Comment{Body: in.Body, ArticleID: a.ID, AuthorID: userID}
	if err := s.comments.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("service: adding comment on %q: %w", slug, err)
	}

	author, err := s.profiles.byID(ctx, userID, userID)
	if err != nil {
		return nil, err
	}
	return &model.CommentView{Comment: *c, Author: author}, nil
}

// Delete removes a comment. Only the comment's author may do so, and the
// comment must belong to slug.
func (s *CommentService) Delete(ctx context.Context, userID int64, slug string, commentID int64) error {
	a, err := s.articles.GetArticleBySlug(ctx, slug)
	if err != nil {
		return err
	}
	c, err := s.comments.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if c.ArticleID != a.ID {
		return apperror.NotFound("comment", fmt.Sprint(commentID))
	}
	if c.AuthorID != userID {
		return apperror.Forbidden("only the author may delete this comment")
	}
	if err := s.comments.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	s.logger.Debug("comment deleted", slog.Int64("comment_id", commentID))
	return nil
}
