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

var (
	_ repository.UserRepository   = (*Store)(nil)
	_ repository.FollowRepository = (*Store)(nil)
)

const userColumns = `id, username, email, password_hash, bio, image, created_at, updated_at`

// CreateUser inserts user and sets its ID and timestamps. A taken username
// or email is reported as apperror.ErrConflict naming the column.
func (s *Store) CreateUser(ctx context.Context, user *model.User) (err error) {
	defer func(start time.Time) { metrics.ObserveQuery("create_user", start, err) }(time.Now())

	now := utcNow()
	err = s.queryRow(ctx, s.db,
		`INSERT INTO users (username, email, password_hash, bio, image, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		user.Username, user.Email, user.PasswordHash, user.Bio, user.Image, now, now,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", violatedColumn(err, "email", "username"))
		}
		return fmt.Errorf("sqlstore: inserting user %q: %w", user.Username, err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getUser(ctx, "username", username)
}

// getUser looks a user up by one unique column. column is always a literal
// from this file.
func (s *Store) getUser(ctx context.Context, column string, value any) (user *model.User, err error) {
	defer func(start time.Time) { metrics.ObserveQuery("get_user", start, err) }(time.Now())

	var u model.User
	err = s.queryRow(ctx, s.db,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Bio, &u.Image, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", fmt.Sprint(value))
		}
		return nil, fmt.Errorf("sqlstore: getting user by %s: %w", column, err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

// UpdateUser overwrites every editable column of user and refreshes
// UpdatedAt.
func (s *Store) UpdateUser(ctx context.Context, user *model.User) (err error) {
	defer func(start time.Time) { metrics.ObserveQuery("update_user", start, err) }(time.Now())

	now := utcNow()
	result, err := s.exec(ctx, s.db,
		`UPDATE users
		 SET username = ?, email = ?, password_hash = ?, bio = ?, image = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username, user.Email, user.PasswordHash, user.Bio, user.Image, now, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", violatedColumn(err, "email", "username"))
		}
		return fmt.Errorf("sqlstore: updating user %d: %w", user.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", fmt.Sprint(user.ID))
	}

	user.UpdatedAt = now
	return nil
}

// Follow makes followerID follow followeeID. Repeating it is a no-op.
func (s *Store) Follow(ctx context.Context, followerID, followeeID int64) (err error) {
	defer func(start time.Time) { metrics.ObserveQuery("follow", start, err) }(time.Now())

	_, err = s.exec(ctx, s.db,
		`INSERT INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (follower_id, followee_id) DO NOTHING`,
		followerID, followeeID, utcNow(),
	)
	if err != nil {
		return fmt.Errorf("sqlstore: following user %d: %w", followeeID, err)
	}
	return nil
}

func (s *Store) Unfollow(ctx context.Context, followerID, followeeID int64) (err error) {
	defer func(start time.Time) { metrics.ObserveQuery("unfollow", start, err) }(time.Now())

	_, err = s.exec(ctx, s.db,
		`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("sqlstore: unfollowing user %d: %w", followeeID, err)
	}
	return nil
}

func (s *Store) IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM follows WHERE follower_id = ? AND followee_id = ?`, followerID, followeeID)
}
