package memdb

import (
	"context"
	"sort"

	"github.com/hashicorp/go-memdb"
	"github.com/rgeron/next-hackaton/pkg/db/models"
	"github.com/rgeron/next-hackaton/pkg/store"
)

func cloneTeam(t *models.Team) models.Team {
	c := *t
	c.LookingFor = cloneStrings(t.LookingFor)
	c.Members = make(models.Roster, len(t.Members))
	copy(c.Members, t.Members)
	for i, m := range c.Members {
		if m.UserID != nil {
			id := *m.UserID
			c.Members[i].UserID = &id
		}
	}
	return c
}

// CreateTeam implements store.TeamStore.
func (s *datastore) CreateTeam(_ context.Context, team models.Team) (models.Team, error) {
	if team.CreatedAt.IsZero() {
		team.CreatedAt = s.now()
	}
	if team.UpdatedAt.IsZero() {
		team.UpdatedAt = team.CreatedAt
	}
	team.LookingFor = normalize(team.LookingFor)
	team.Version = 1

	err := s.write(func(txn *memdb.Txn) error {
		if _, err := first[models.User](txn, usersTable, pk, team.CreatorID); err != nil {
			return store.ErrConflict
		}
		team.ID = s.teamSeq.Add(1)
		row := cloneTeam(&team)
		return txn.Insert(teamsTable, &row)
	})
	if err != nil {
		return models.Team{}, err
	}
	return cloneTeam(&team), nil
}

// GetTeamByID implements store.TeamStore.
func (s *datastore) GetTeamByID(_ context.Context, id int64) (models.Team, error) {
	txn := s.db.Txn(false)
	t, err := first[models.Team](txn, teamsTable, pk, id)
	if err != nil {
		return models.Team{}, err
	}
	return cloneTeam(t), nil
}

// FindTeams implements store.TeamStore.
func (s *datastore) FindTeams(_ context.Context, filter store.TeamFilter) ([]models.Team, error) {
	txn := s.db.Txn(false)
	var (
		rows []*models.Team
		err  error
	)
	if filter.CreatorID != "" {
		rows, err = all[models.Team](txn, teamsTable, "creator", filter.CreatorID)
	} else {
		rows, err = all[models.Team](txn, teamsTable, pk)
	}
	if err != nil {
		return nil, err
	}
	teams := []models.Team{}
	for _, t := range rows {
		if filter.ProjectType != "" && t.ProjectType != filter.ProjectType {
			continue
		}
		if filter.MaxMembers > 0 && t.MaxMembers != filter.MaxMembers {
			continue
		}
		if !containsAll(t.LookingFor, filter.LookingFor) {
			continue
		}
		teams = append(teams, cloneTeam(t))
	}
	sort.SliceStable(teams, func(i, j int) bool {
		if !teams[i].CreatedAt.Equal(teams[j].CreatedAt) {
			return teams[i].CreatedAt.After(teams[j].CreatedAt)
		}
		return teams[i].ID > teams[j].ID
	})
	return teams, nil
}

// UpdateTeam implements store.TeamStore.
func (s *datastore) UpdateTeam(_ context.Context, team models.Team) (models.Team, error) {
	var updated models.Team
	err := s.write(func(txn *memdb.Txn) error {
		cur, err := first[models.Team](txn, teamsTable, pk, team.ID)
		if err != nil {
			return err
		}
		if cur.Version != team.Version {
			return store.ErrConflict
		}
		row := cloneTeam(&team)
		row.CreatorID = cur.CreatorID
		row.CreatedAt = cur.CreatedAt
		row.LookingFor = normalize(team.LookingFor)
		row.Version = cur.Version + 1
		row.UpdatedAt = s.now()
		updated = cloneTeam(&row)
		return txn.Insert(teamsTable, &row)
	})
	return updated, err
}

// DeleteTeam implements store.TeamStore.
func (s *datastore) DeleteTeam(_ context.Context, id int64, version int64) error {
	return s.write(func(txn *memdb.Txn) error {
		cur, err := first[models.Team](txn, teamsTable, pk, id)
		if err != nil {
			return err
		}
		if cur.Version != version {
			return store.ErrConflict
		}

		// Users still affiliated with the team block the delete.
		users, err := all[models.User](txn, usersTable, pk)
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.TeamID != nil && *u.TeamID == id {
				return store.ErrConflict
			}
		}

		if _, err := txn.DeleteAll(interactionsTable, "team", id); err != nil {
			return err
		}
		return txn.Delete(teamsTable, cur)
	})
}
