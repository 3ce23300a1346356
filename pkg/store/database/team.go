package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"github.com/rgeron/next-hackaton/pkg/db"
	"github.com/rgeron/next-hackaton/pkg/db/models"
	"github.com/rgeron/next-hackaton/pkg/store"
)

type teamStore struct {
	db     *db.DB
	logger *log.Logger
}

var _ store.TeamStore = (*teamStore)(nil)

// CreateTeam implements store.TeamStore.
func (s *teamStore) CreateTeam(ctx context.Context, team models.Team) (models.Team, error) {
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	if team.UpdatedAt.IsZero() {
		team.UpdatedAt = team.CreatedAt
	}

	var created models.Team
	err := s.db.TransactionContext(ctx, func(tx *db.Tx) error {
		query := tx.Rebind(`INSERT INTO teams (name, description, project_type, max_members, creator_id, members, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?) RETURNING id;`)
		var id int64
		if err := tx.GetContext(ctx, &id, query,
			team.Name, team.Description, team.ProjectType, team.MaxMembers, team.CreatorID,
			team.Members, team.CreatedAt, team.UpdatedAt,
		); err != nil {
			return storeError(err)
		}
		if err := setLookingFor(ctx, tx, id, team.LookingFor); err != nil {
			return err
		}
		var err error
		created, err = getTeam(ctx, tx, id)
		return err
	})
	return created, err
}

// GetTeamByID implements store.TeamStore.
func (s *teamStore) GetTeamByID(ctx context.Context, id int64) (models.Team, error) {
	return getTeam(ctx, s.db, id)
}

// FindTeams implements store.TeamStore.
func (s *teamStore) FindTeams(ctx context.Context, filter store.TeamFilter) ([]models.Team, error) {
	var c conds
	if filter.ProjectType != "" {
		c.add("project_type = ?", filter.ProjectType)
	}
	if filter.MaxMembers > 0 {
		c.add("max_members = ?", filter.MaxMembers)
	}
	if filter.CreatorID != "" {
		c.add("creator_id = ?", filter.CreatorID)
	}
	if roles := distinct(filter.LookingFor); len(roles) > 0 {
		c.add(`id IN (
			SELECT team_id FROM team_looking_for
			WHERE role IN (?)
			GROUP BY team_id
			HAVING COUNT(DISTINCT role) = ?
		)`, roles, len(roles))
	}

	query, args, err := sqlx.In(`SELECT * FROM teams`+c.String()+` ORDER BY created_at DESC, id DESC;`, c.args...)
	if err != nil {
		return nil, err
	}
	teams := []models.Team{}
	if err := s.db.SelectContext(ctx, &teams, s.db.Rebind(query), args...); err != nil {
		return nil, storeError(err)
	}
	return teams, loadLookingFor(ctx, s.db, teams)
}

// UpdateTeam implements store.TeamStore.
func (s *teamStore) UpdateTeam(ctx context.Context, team models.Team) (models.Team, error) {
	var updated models.Team
	err := s.db.TransactionContext(ctx, func(tx *db.Tx) error {
		query := tx.Rebind(`UPDATE teams
			SET name = ?, description = ?, project_type = ?, max_members = ?, members = ?,
			  version = version + 1, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND version = ?;`)
		res, err := tx.ExecContext(ctx, query,
			team.Name, team.Description, team.ProjectType, team.MaxMembers, team.Members,
			team.ID, team.Version,
		)
		if err != nil {
			return storeError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if err := conditionalResult(ctx, tx, n, "teams", team.ID); err != nil {
			s.logger.Debug("conditional team update", "team", team.ID, "version", team.Version, "err", err)
			return err
		}
		if err := setLookingFor(ctx, tx, team.ID, team.LookingFor); err != nil {
			return err
		}
		updated, err = getTeam(ctx, tx, team.ID)
		return err
	})
	return updated, err
}

// DeleteTeam implements store.TeamStore.
func (s *teamStore) DeleteTeam(ctx context.Context, id int64, version int64) error {
	query := s.db.Rebind(`DELETE FROM teams WHERE id = ? AND version = ?;`)
	res, err := s.db.ExecContext(ctx, query, id, version)
	if err != nil {
		return storeError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	return conditionalResult(ctx, s.db, n, "teams", id)
}

func getTeam(ctx context.Context, h db.Handler, id int64) (models.Team, error) {
	var m models.Team
	query := h.Rebind(`SELECT * FROM teams WHERE id = ?;`)
	if err := h.GetContext(ctx, &m, query, id); err != nil {
		return models.Team{}, storeError(err)
	}
	teams := []models.Team{m}
	if err := loadLookingFor(ctx, h, teams); err != nil {
		return models.Team{}, err
	}
	return teams[0], nil
}

func loadLookingFor(ctx context.Context, h db.Handler, teams []models.Team) error {
	if len(teams) == 0 {
		return nil
	}
	ids := make([]int64, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	query, args, err := sqlx.In(`SELECT team_id, role FROM team_looking_for WHERE team_id IN (?) ORDER BY role;`, ids)
	if err != nil {
		return err
	}
	var rows []struct {
		TeamID int64  `db:"team_id"`
		Role   string `db:"role"`
	}
	if err := h.SelectContext(ctx, &rows, h.Rebind(query), args...); err != nil {
		return storeError(err)
	}
	roles := make(map[int64][]string, len(teams))
	for _, r := range rows {
		roles[r.TeamID] = append(roles[r.TeamID], r.Role)
	}
	for i := range teams {
		teams[i].LookingFor = roles[teams[i].ID]
		if teams[i].LookingFor == nil {
			teams[i].LookingFor = []string{}
		}
		if teams[i].Members == nil {
			teams[i].Members = models.Roster{}
		}
	}
	return nil
}

func setLookingFor(ctx context.Context, h db.Handler, teamID int64, roles []string) error {
	if _, err := h.ExecContext(ctx, h.Rebind(`DELETE FROM team_looking_for WHERE team_id = ?;`), teamID); err != nil {
		return storeError(err)
	}
	query := h.Rebind(`INSERT INTO team_looking_for (team_id, role) VALUES (?, ?);`)
	for _, role := range distinct(roles) {
		if _, err := h.ExecContext(ctx, query, teamID, role); err != nil {
			return storeError(err)
		}
	}
	return nil
}
