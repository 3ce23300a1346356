package backend

import (
	"context"
	"errors"
	"strings"

	"github.com/rgeron/next-hackaton/pkg/db/models"
	"github.com/rgeron/next-hackaton/pkg/proto"
	"github.com/rgeron/next-hackaton/pkg/store"
)

func (d *Backend) getUser(ctx context.Context, id string) (models.User, error) {
	u, err := call(ctx, d, func(ctx context.Context) (models.User, error) {
		return d.store.GetUserByID(ctx, id)
	})
	return u, storeError(err, proto.ErrUserNotFound)
}

// displayName is the name shown on rosters and invitations.
func displayName(u models.User) string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	return u.Email
}

// CreateUserProfile creates the caller's profile on first sign in. Calling
// it again returns the existing profile.
func (d *Backend) CreateUserProfile(ctx context.Context, email string) (models.User, error) {
	u, err := d.createUserProfile(ctx, email)
	return u, observe("create_user_profile", err)
}

func (d *Backend) createUserProfile(ctx context.Context, email string) (models.User, error) {
	uid, err := d.caller(ctx)
	if err != nil {
		return models.User{}, err
	}
	email = strings.TrimSpace(email)
	if err := d.validate.Var(email, "required,email,max=320"); err != nil {
		return models.User{}, proto.InvalidArgument("Invalid email must be a valid email address")
	}

	user, err := d.getUser(ctx, uid)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, proto.ErrUserNotFound) {
		return models.User{}, err
	}

	now := d.now()
	user, err = call(ctx, d, func(ctx context.Context) (models.User, error) {
		return d.store.CreateUser(ctx, models.User{
			ID:        uid,
			Email:     email,
			School:    models.SchoolX,
			Skills:    []string{},
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if errors.Is(err, store.ErrDuplicate) {
		// Either the id raced with a concurrent sign in, or the email is
		// taken by another account.
		if existing, gerr := d.getUser(ctx, uid); gerr == nil {
			return existing, nil
		}
		return models.User{}, proto.InvalidArgument("Email is already in use")
	}
	if err != nil {
		return models.User{}, proto.StoreFailure(err)
	}

	d.logger.Info("user profile created", "user", uid)
	return user, nil
}

// UpdateUserProfile replaces the editable fields of the caller's profile.
func (d *Backend) UpdateUserProfile(ctx context.Context, opts ProfileOptions) (models.User, error) {
	u, err := d.updateUserProfile(ctx, opts)
	return u, observe("update_user_profile", err)
}

func (d *Backend) updateUserProfile(ctx context.Context, opts ProfileOptions) (models.User, error) {
	uid, err := d.caller(ctx)
	if err != nil {
		return models.User{}, err
	}
	if err := d.check(opts); err != nil {
		return models.User{}, err
	}

	user, err := d.getUser(ctx, uid)
	if err != nil {
		return models.User{}, err
	}
	user.FullName = strings.TrimSpace(opts.FullName)
	user.School = opts.School
	user.Bio = opts.Bio
	user.PhoneNumber = opts.PhoneNumber
	user.Skills = opts.Skills
	if user.Skills == nil {
		user.Skills = []string{}
	}
	user.Links = opts.Links

	user, err = call(ctx, d, func(ctx context.Context) (models.User, error) {
		return d.store.UpdateUserProfile(ctx, user)
	})
	if err != nil {
		return models.User{}, storeError(err, proto.ErrUserNotFound)
	}
	d.cache.Delete(uid)
	return user, nil
}

// GetUserProfile returns the profile of userID, or the caller's profile when
// userID is empty.
func (d *Backend) GetUserProfile(ctx context.Context, userID string) (models.User, error) {
	uid, err := d.caller(ctx)
	if err != nil {
		return models.User{}, err
	}
	if userID == "" {
		userID = uid
	}
	return d.getUser(ctx, userID)
}

// GetUsers lists profiles matching filter.
func (d *Backend) GetUsers(ctx context.Context, filter store.UserFilter) ([]models.User, error) {
	if _, err := d.caller(ctx); err != nil {
		return nil, err
	}
	users, err := call(ctx, d, func(ctx context.Context) ([]models.User, error) {
		return d.store.FindUsers(ctx, filter)
	})
	return users, storeError(err, nil)
}

// GetUsersByIDs returns the profiles of ids that exist.
func (d *Backend) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if _, err := d.caller(ctx); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	users, err := call(ctx, d, func(ctx context.Context) ([]models.User, error) {
		return d.store.GetUsersByIDs(ctx, ids)
	})
	return users, storeError(err, nil)
}

// IsTeamCreator reports whether the caller created the team they belong to.
func (d *Backend) IsTeamCreator(ctx context.Context) (bool, error) {
	uid, err := d.caller(ctx)
	if err != nil {
		return false, err
	}
	user, err := d.getUser(ctx, uid)
	if err != nil {
		return false, err
	}
	return user.HasTeam() && user.IsTeamCreator, nil
}
