package memdb

import (
	"context"
	"sort"

	"github.com/hashicorp/go-memdb"
	"github.com/rgeron/next-hackaton/pkg/db/models"
	"github.com/rgeron/next-hackaton/pkg/store"
)

func cloneUser(u *models.User) models.User {
	c := *u
	c.Skills = cloneStrings(u.Skills)
	if u.TeamID != nil {
		id := *u.TeamID
		c.TeamID = &id
	}
	return c
}

// GetUserByID implements store.UserStore.
func (s *datastore) GetUserByID(_ context.Context, id string) (models.User, error) {
	txn := s.db.Txn(false)
	u, err := first[models.User](txn, usersTable, pk, id)
	if err != nil {
		return models.User{}, err
	}
	return cloneUser(u), nil
}

// GetUserByEmail implements store.UserStore.
func (s *datastore) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	txn := s.db.Txn(false)
	u, err := first[models.User](txn, usersTable, "email", email)
	if err != nil {
		return models.User{}, err
	}
	return cloneUser(u), nil
}

// GetUsersByIDs implements store.UserStore.
func (s *datastore) GetUsersByIDs(_ context.Context, ids []string) ([]models.User, error) {
	txn := s.db.Txn(false)
	users := []models.User{}
	for _, id := range normalize(ids) {
		u, err := first[models.User](txn, usersTable, pk, id)
		if err == store.ErrNotFound { //nolint:errorlint
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, cloneUser(u))
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].FullName != users[j].FullName {
			return users[i].FullName < users[j].FullName
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

// FindUsers implements store.UserStore.
func (s *datastore) FindUsers(_ context.Context, filter store.UserFilter) ([]models.User, error) {
	txn := s.db.Txn(false)
	rows, err := all[models.User](txn, usersTable, pk)
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	for _, u := range rows {
		if filter.School != "" && u.School != filter.School {
			continue
		}
		if filter.HasTeam != nil && u.HasTeam() != *filter.HasTeam {
			continue
		}
		if !containsAll(u.Skills, filter.Skills) {
			continue
		}
		users = append(users, cloneUser(u))
	}
	sort.SliceStable(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

// CreateUser implements store.UserStore.
func (s *datastore) CreateUser(_ context.Context, user models.User) (models.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	user.Skills = normalize(user.Skills)
	user.TeamID = nil
	user.IsTeamCreator = false

	err := s.write(func(txn *memdb.Txn) error {
		if _, err := first[models.User](txn, usersTable, pk, user.ID); err == nil {
			return store.ErrDuplicate
		}
		if _, err := first[models.User](txn, usersTable, "email", user.Email); err == nil {
			return store.ErrDuplicate
		}
		row := cloneUser(&user)
		return txn.Insert(usersTable, &row)
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// UpdateUserProfile implements store.UserStore.
func (s *datastore) UpdateUserProfile(_ context.Context, user models.User) (models.User, error) {
	var updated models.User
	err := s.write(func(txn *memdb.Txn) error {
		cur, err := first[models.User](txn, usersTable, pk, user.ID)
		if err != nil {
			return err
		}
		row := cloneUser(cur)
		row.FullName = user.FullName
		row.School = user.School
		row.Bio = user.Bio
		row.PhoneNumber = user.PhoneNumber
		row.Links = user.Links
		row.Skills = normalize(user.Skills)
		row.UpdatedAt = s.now()
		updated = cloneUser(&row)
		return txn.Insert(usersTable, &row)
	})
	return updated, err
}

// ClaimTeam implements store.UserStore.
func (s *datastore) ClaimTeam(_ context.Context, userID string, teamID int64, creator bool) error {
	return s.write(func(txn *memdb.Txn) error {
		cur, err := first[models.User](txn, usersTable, pk, userID)
		if err != nil {
			return err
		}
		if cur.TeamID != nil {
			return store.ErrConflict
		}
		if _, err := first[models.Team](txn, teamsTable, pk, teamID); err != nil {
			return store.ErrConflict
		}
		row := cloneUser(cur)
		row.TeamID = &teamID
		row.IsTeamCreator = creator
		row.UpdatedAt = s.now()
		return txn.Insert(usersTable, &row)
	})
}

// ReleaseTeam implements store.UserStore.
func (s *datastore) ReleaseTeam(_ context.Context, userID string, teamID int64) error {
	return s.write(func(txn *memdb.Txn) error {
		cur, err := first[models.User](txn, usersTable, pk, userID)
		if err != nil {
			return err
		}
		if cur.TeamID == nil || *cur.TeamID != teamID {
			return store.ErrConflict
		}
		row := cloneUser(cur)
		row.TeamID = nil
		row.IsTeamCreator = false
		row.UpdatedAt = s.now()
		return txn.Insert(usersTable, &row)
	})
}
