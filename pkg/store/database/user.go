package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rgeron/next-hackaton/pkg/db"
	"github.com/rgeron/next-hackaton/pkg/db/models"
	"github.com/rgeron/next-hackaton/pkg/store"
)

type userStore struct {
	db *db.DB
}

var _ store.UserStore = (*userStore)(nil)

// GetUserByID implements store.UserStore.
func (s *userStore) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return getUser(ctx, s.db, id)
}

// GetUserByEmail implements store.UserStore.
func (s *userStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var m models.User
	query := s.db.Rebind(`SELECT * FROM users WHERE email = ?;`)
	if err := s.db.GetContext(ctx, &m, query, email); err != nil {
		return models.User{}, storeError(err)
	}
	users := []models.User{m}
	if err := loadSkills(ctx, s.db, users); err != nil {
		return models.User{}, err
	}
	return users[0], nil
}

// GetUsersByIDs implements store.UserStore.
func (s *userStore) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	ids = distinct(ids)
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM users WHERE id IN (?) ORDER BY full_name, id;`, ids)
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := s.db.SelectContext(ctx, &users, s.db.Rebind(query), args...); err != nil {
		return nil, storeError(err)
	}
	return users, loadSkills(ctx, s.db, users)
}

// FindUsers implements store.UserStore.
func (s *userStore) FindUsers(ctx context.Context, filter store.UserFilter) ([]models.User, error) {
	var c conds
	if filter.School != "" {
		c.add("school = ?", filter.School)
	}
	if filter.HasTeam != nil {
		if *filter.HasTeam {
			c.add("team_id IS NOT NULL")
		} else {
			c.add("team_id IS NULL")
		}
	}
	if skills := distinct(filter.Skills); len(skills) > 0 {
		c.add(`id IN (
			SELECT user_id FROM user_skills
			WHERE skill IN (?)
			GROUP BY user_id
			HAVING COUNT(DISTINCT skill) = ?
		)`, skills, len(skills))
	}

	query, args, err := sqlx.In(`SELECT * FROM users`+c.String()+` ORDER BY created_at DESC, id;`, c.args...)
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := s.db.SelectContext(ctx, &users, s.db.Rebind(query), args...); err != nil {
		return nil, storeError(err)
	}
	return users, loadSkills(ctx, s.db, users)
}

// CreateUser implements store.UserStore.
func (s *userStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	var created models.User
	err := s.db.TransactionContext(ctx, func(tx *db.Tx) error {
		query := tx.Rebind(`INSERT INTO users (id, email, full_name, school, bio, phone_number, links, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`)
		if _, err := tx.ExecContext(ctx, query,
			user.ID, user.Email, user.FullName, user.School, user.Bio, user.PhoneNumber,
			user.Links, user.CreatedAt, user.UpdatedAt,
		); err != nil {
			return storeError(err)
		}
		if err := setSkills(ctx, tx, user.ID, user.Skills); err != nil {
			return err
		}
		var err error
		created, err = getUser(ctx, tx, user.ID)
		return err
	})
	return created, err
}

// UpdateUserProfile implements store.UserStore.
func (s *userStore) UpdateUserProfile(ctx context.Context, user models.User) (models.User, error) {
	var updated models.User
	err := s.db.TransactionContext(ctx, func(tx *db.Tx) error {
		query := tx.Rebind(`UPDATE users
			SET full_name = ?, school = ?, bio = ?, phone_number = ?, links = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?;`)
		res, err := tx.ExecContext(ctx, query,
			user.FullName, user.School, user.Bio, user.PhoneNumber, user.Links, user.ID,
		)
		if err != nil {
			return storeError(err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return store.ErrNotFound
		}
		if err := setSkills(ctx, tx, user.ID, user.Skills); err != nil {
			return err
		}
		updated, err = getUser(ctx, tx, user.ID)
		return err
	})
	return updated, err
}

// ClaimTeam implements store.UserStore.
func (s *userStore) ClaimTeam(ctx context.Context, userID string, teamID int64, creator bool) error {
	query := s.db.Rebind(`UPDATE users
		SET team_id = ?, is_team_creator = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND team_id IS NULL;`)
	res, err := s.db.ExecContext(ctx, query, teamID, creator, userID)
	if err != nil {
		return storeError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	return conditionalResult(ctx, s.db, n, "users", userID)
}

// ReleaseTeam implements store.UserStore.
func (s *userStore) ReleaseTeam(ctx context.Context, userID string, teamID int64) error {
	query := s.db.Rebind(`UPDATE users
		SET team_id = NULL, is_team_creator = false, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND team_id = ?;`)
	res, err := s.db.ExecContext(ctx, query, userID, teamID)
	if err != nil {
		return storeError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	return conditionalResult(ctx, s.db, n, "users", userID)
}

func getUser(ctx context.Context, h db.Handler, id string) (models.User, error) {
	var m models.User
	query := h.Rebind(`SELECT * FROM users WHERE id = ?;`)
	if err := h.GetContext(ctx, &m, query, id); err != nil {
		return models.User{}, storeError(err)
	}
	users := []models.User{m}
	if err := loadSkills(ctx, h, users); err != nil {
		return models.User{}, err
	}
	return users[0], nil
}

// loadSkills fills the Skills field of every user with a single query.
func loadSkills(ctx context.Context, h db.Handler, users []models.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	query, args, err := sqlx.In(`SELECT user_id, skill FROM user_skills WHERE user_id IN (?) ORDER BY skill;`, ids)
	if err != nil {
		return err
	}
	var rows []struct {
		UserID string `db:"user_id"`
		Skill  string `db:"skill"`
	}
	if err := h.SelectContext(ctx, &rows, h.Rebind(query), args...); err != nil {
		return storeError(err)
	}
	skills := make(map[string][]string, len(users))
	for _, r := range rows {
		skills[r.UserID] = append(skills[r.UserID], r.Skill)
	}
	for i := range users {
		users[i].Skills = skills[users[i].ID]
		if users[i].Skills == nil {
			users[i].Skills = []string{}
		}
	}
	return nil
}

func setSkills(ctx context.Context, h db.Handler, userID string, skills []string) error {
	if _, err := h.ExecContext(ctx, h.Rebind(`DELETE FROM user_skills WHERE user_id = ?;`), userID); err != nil {
		return storeError(err)
	}
	query := h.Rebind(`INSERT INTO user_skills (user_id, skill) VALUES (?, ?);`)
	for _, skill := range distinct(skills) {
		if _, err := h.ExecContext(ctx, query, userID, skill); err != nil {
			return storeError(err)
		}
	}
	return nil
}
