package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

// ProfileService serves public profiles and the follow graph.
type ProfileService struct {
	profiles
	logger *slog.Logger
}

func NewProfileService(users repository.UserRepository, follows repository.FollowRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles{users: users, follows: follows}, logger: logger}
}

// Get returns the profile of username as seen by viewerID.
func (s *ProfileService) Get(ctx context.Context, viewerID int64, username string) (model.Profile, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return model.Profile{}, err
	}
	return s.of(ctx, viewerID, u)
}

// Follow makes viewerID follow username and returns the updated profile.
// Following an already followed user succeeds without change.
func (s *ProfileService) Follow(ctx context.Context, viewerID int64, username string) (model.Profile, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return model.Profile{}, err
	}
	if u.ID == viewerID {
		return model.Profile{}, apperror.ValidationFailed("username", "cannot follow yourself")
	}
	if err := s.follows.Follow(ctx, viewerID, u.ID); err != nil {
		return model.Profile{}, fmt.Errorf("service: following %q: %w", username, err)
	}
	s.logger.Debug("followed", slog.Int64("follower_id", viewerID), slog.Int64("followee_id", u.ID))
	return model.ProfileOf(u, true), nil
}

func (s *ProfileService) Unfollow(ctx context.Context, viewerID int64, username string) (model.Profile, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return model.Profile{}, err
	}
	if err := s.follows.Unfollow(ctx, viewerID, u.ID); err != nil {
		return model.Profile{}, fmt.Errorf("service: unfollowing %q: %w", username, err)
	}
	return model.ProfileOf(u, false), nil
}
