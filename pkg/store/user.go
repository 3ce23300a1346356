package store

import (
	"context"

	"github.com/rgeron/next-hackaton/pkg/db/models"
)

// UserFilter narrows a user listing. Zero values match everything.
type UserFilter struct {
	School models.School
	// HasTeam filters on affiliation when set.
	HasTeam *bool
	// Skills matches users having every listed skill.
	Skills []string
}

// UserStore is an interface for managing user profiles and affiliations.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	FindUsers(ctx context.Context, filter UserFilter) ([]models.User, error)
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	// UpdateUserProfile writes the profile fields of user. Affiliation fields
	// are left untouched.
	UpdateUserProfile(ctx context.Context, user models.User) (models.User, error)

	// ClaimTeam affiliates a user with a team, provided the user currently
	// has none. It returns ErrConflict when the user is already affiliated.
	ClaimTeam(ctx context.Context, userID string, teamID int64, creator bool) error
	// ReleaseTeam clears a user's affiliation, provided it points to teamID.
	// It returns ErrConflict when the user is affiliated elsewhere or not
	// at all.
	ReleaseTeam(ctx context.Context, userID string, teamID int64) error
}
