package store

import (
	"context"

	"github.com/rgeron/next-hackaton/pkg/db/models"
)

// TeamFilter narrows a team listing. Zero values match everything.
type TeamFilter struct {
	ProjectType models.ProjectType
	// LookingFor matches teams seeking every listed role.
	LookingFor []string
	MaxMembers int
	CreatorID  string
}

// TeamStore is an interface for managing teams.
type TeamStore interface {
	// CreateTeam inserts team at version 1 and returns it with its id.
	CreateTeam(ctx context.Context, team models.Team) (models.Team, error)
	GetTeamByID(ctx context.Context, id int64) (models.Team, error)
	FindTeams(ctx context.Context, filter TeamFilter) ([]models.Team, error)
	// UpdateTeam writes team if its stored version still equals
	// team.Version, and returns it with the bumped version. It returns
	// ErrConflict on a version mismatch and ErrNotFound if the team is gone.
	UpdateTeam(ctx context.Context, team models.Team) (models.Team, error)
	// DeleteTeam removes the team if its stored version equals version.
	// Interactions about the team are removed with it.
	DeleteTeam(ctx context.Context, id int64, version int64) error
}
