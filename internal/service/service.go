// Package service holds the business rules of the API. Services take plain
// values (viewer IDs, inputs) and return domain records; they never touch
// HTTP. A viewerID of 0 means an anonymous caller.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

// hydrateConcurrency bounds the per-row lookups made while building a page
// of articles or comments.
const hydrateConcurrency = 8

// validationError converts ozzo validation output into an apperror. The
// alphabetically first failing field is reported as the error's Field.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fmt.Errorf("service: validating input: %w", err)
	}
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return apperror.ValidationFailed(fields[0], errs.Error())
}

// profiles resolves author profiles relative to a viewer. Shared by the
// article, comment and profile services.
type profiles struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

func (p profiles) byID(ctx context.Context, viewerID, userID int64) (model.Profile, error) {
	u, err := p.users.GetUserByID(ctx, userID)
	if err != nil {
		return model.Profile{}, fmt.Errorf("service: loading author %d: %w", userID, err)
	}
	return p.of(ctx, viewerID, u)
}

func (p profiles) of(ctx context.Context, viewerID int64, u *model.User) (model.Profile, error) {
	if viewerID == 0 || viewerID == u.ID {
		return model.ProfileOf(u, false), nil
	}
	following, err := p.follows.IsFollowing(ctx, viewerID, u.ID)
	if err != nil {
		return model.Profile{}, fmt.Errorf("service: checking follow: %w", err)
	}
	return model.ProfileOf(u, following), nil
}

// normalizeTags trims, drops empty entries, removes duplicates and sorts.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
