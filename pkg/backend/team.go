package backend

import (
	"context"
	"errors"

	"github.com/rgeron/next-hackaton/pkg/db/models"
	"github.com/rgeron/next-hackaton/pkg/membership"
	"github.com/rgeron/next-hackaton/pkg/proto"
	"github.com/rgeron/next-hackaton/pkg/store"
)

func (d *Backend) getTeam(ctx context.Context, id int64) (models.Team, error) {
	t, err := call(ctx, d, func(ctx context.Context) (models.Team, error) {
		return d.store.GetTeamByID(ctx, id)
	})
	return t, storeError(err, proto.ErrTeamNotFound)
}

// updateTeam writes team, conditional on its version. store.ErrConflict is
// passed through so that retry can pick it up.
func (d *Backend) updateTeam(ctx context.Context, team models.Team) (models.Team, error) {
	t, err := call(ctx, d, func(ctx context.Context) (models.Team, error) {
		return d.store.UpdateTeam(ctx, team)
	})
	if errors.Is(err, store.ErrConflict) {
		return t, err
	}
	return t, storeError(err, proto.ErrTeamNotFound)
}

// CreateTeam creates a team owned by the caller. The roster starts with the
// caller as project lead followed by the manual members of opts. If the
// caller's affiliation cannot be recorded, the team is deleted again.
func (d *Backend) CreateTeam(ctx context.Context, opts TeamOptions) (models.Team, error) {
	t, err := d.createTeam(ctx, opts)
	return t, observe("create_team", err)
}

func (d *Backend) createTeam(ctx context.Context, opts TeamOptions) (models.Team, error) {
	uid, err := d.caller(ctx)
	if err != nil {
		return models.Team{}, err
	}
	if err := d.check(opts); err != nil {
		return models.Team{}, err
	}

	user, err := d.getUser(ctx, uid)
	if err != nil {
		return models.Team{}, err
	}
	if err := membership.CanCreateTeam(user); err != nil {
		return models.Team{}, err
	}

	maxMembers := opts.MaxMembers
	if maxMembers == 0 {
		maxMembers = d.cfg.Teams.DefaultMaxMembers
	}

	now := d.now()
	roster := models.Roster{{
		UserID:       &uid,
		Name:         displayName(user),
		Role:         models.RoleProjectLead,
		JoinedAt:     now,
		IsRegistered: true,
	}}
	for _, m := range opts.Members {
		roster = append(roster, models.Member{Name: m.Name, Role: m.Role, JoinedAt: now})
	}
	if len(roster) > maxMembers {
		return models.Team{}, proto.ErrTeamFull
	}

	team, err := call(ctx, d, func(ctx context.Context) (models.Team, error) {
		return d.store.CreateTeam(ctx, models.Team{
			Name:        opts.Name,
			Description: opts.Description,
			ProjectType: opts.ProjectType,
			LookingFor:  opts.LookingFor,
			MaxMembers:  maxMembers,
			CreatorID:   uid,
			Members:     roster,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	})
	if err != nil {
		return models.Team{}, proto.StoreFailure(err)
	}

	if err := exec(ctx, d, func(ctx context.Context) error {
		return d.store.ClaimTeam(ctx, uid, team.ID, true)
	}); err != nil {
		d.compensate(ctx, "create_team", "delete team", func(ctx context.Context) error {
			return exec(ctx, d, func(ctx context.Context) error {
				return d.store.DeleteTeam(ctx, team.ID, team.Version)
			})
		})
		if errors.Is(err, store.ErrConflict) {
			return models.Team{}, proto.ErrAlreadyHasTeam
		}
		return models.Team{}, proto.StoreFailure(err)
	}

	d.logger.Info("team created", "team", team.ID, "creator", uid)
	return team, nil
}

// UpdateTeam applies patch to a team owned by the caller. The capacity can
// not drop below the current roster size.
func (d *Backend) UpdateTeam(ctx context.Context, teamID int64, patch TeamPatch) (models.Team, error) {
	t, err := d.updateTeamFields(ctx, teamID, patch)
	return t, observe("update_team", err)
}

func (d *Backend) updateTeamFields(ctx context.Context, teamID int64, patch TeamPatch) (models.Team, error) {
	uid, err := d.caller(ctx)
	if err != nil {
		return models.Team{}, err
	}
	if err := d.check(patch); err != nil {
		return models.Team{}, err
	}

	var updated models.Team
	err = d.retry(ctx, "update_team", func() error {
		team, err := d.getTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if err := membership.CanEdit(uid, team); err != nil {
			return err
		}
		if patch.Name != nil {
			team.Name = *patch.Name
		}
		if patch.Description != nil {
			team.Description = patch.Description
		}
		if patch.ProjectType != nil {
			team.ProjectType = *patch.ProjectType
		}
		if patch.LookingFor != nil {
			team.LookingFor = *patch.LookingFor
		}
		if patch.MaxMembers != nil {
			if err := membership.CanResize(team, *patch.MaxMembers); err != nil {
				return err
			}
			team.MaxMembers = *patch.MaxMembers
		}
		updated, err = d.updateTeam(ctx, team)
		return err
	})
	return updated, err
}

// AddManualMember appends a member without an account to a team owned by the
// caller.
func (d *Backend) AddManualMember(ctx context.Context, teamID int64, m ManualMember) (models.Team, error) {
	t, err := d.addManualMember(ctx, teamID, m)
	return t, observe("add_manual_member", err)
}

func (d *Backend) addManualMember(ctx context.Context, teamID int64, m ManualMember) (models.Team, error) {
	uid, err := d.caller(ctx)
	if err != nil {
		return models.Team{}, err
	}
	if err := d.check(m); err != nil {
		return models.Team{}, err
	}

	var updated models.Team
	err = d.retry(ctx, "add_manual_member", func() error {
		team, err := d.getTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if err := membership.CanAddMember(uid, team); err != nil {
			return err
		}
		team.Members = team.Members.With(models.Member{Name: m.Name, Role: m.Role, JoinedAt: d.now()})
		updated, err = d.updateTeam(ctx, team)
		return err
	})
	return updated, err
}

// RemoveManualMember removes the manual member at index from a team owned by
// the caller.
func (d *Backend) RemoveManualMember(ctx context.Context, teamID int64, index int) (models.Team, error) {
	t, err := d.removeManualMember(ctx, teamID, index)
	return t, observe("remove_manual_member", err)
}

func (d *Backend) removeManualMember(ctx context.Context, teamID int64, index int) (models.Team, error) {
	uid, err := d.caller(ctx)
	if err != nil {
		return models.Team{}, err
	}

	var updated models.Team
	err = d.retry(ctx, "remove_manual_member", func() error {
		team, err := d.getTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if err := membership.CanRemoveMember(uid, team, index); err != nil {
			return err
		}
		team.Members = team.Members.Without(index)
		updated, err = d.updateTeam(ctx, team)
		return err
	})
	return updated, err
}

// DeleteTeam deletes a team owned by the caller. The affiliation of every
// registered member, the creator included, is cleared before the team row
// is deleted. If the team cannot be deleted, the cleared affiliations are
// restored.
func (d *Backend) DeleteTeam(ctx context.Context, teamID int64) error {
	return observe("delete_team", d.deleteTeam(ctx, teamID))
}

func (d *Backend) deleteTeam(ctx context.Context, teamID int64) error {
	uid, err := d.caller(ctx)
	if err != nil {
		return err
	}

	// released maps the users whose affiliation was cleared to whether they
	// created the team.
	released := map[string]bool{}
	var creatorID string
	err = d.retry(ctx, "delete_team", func() error {
		team, err := d.getTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if err := membership.CanDelete(uid, team); err != nil {
			return err
		}
		creatorID = team.CreatorID

		ids := team.Members.RegisteredIDs()
		if !team.Members.Contains(team.CreatorID) {
			ids = append(ids, team.CreatorID)
		}
		for _, id := range ids {
			if _, ok := released[id]; ok {
				continue
			}
			err := exec(ctx, d, func(ctx context.Context) error {
				return d.store.ReleaseTeam(ctx, id, team.ID)
			})
			switch {
			case err == nil:
				released[id] = id == team.CreatorID
			case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrNotFound):
				// Not affiliated with this team, nothing to clear.
				d.logger.Warn("roster member not affiliated with team", "team", team.ID, "user", id)
			default:
				return proto.StoreFailure(err)
			}
		}

		err = exec(ctx, d, func(ctx context.Context) error {
			return d.store.DeleteTeam(ctx, team.ID, team.Version)
		})
		if errors.Is(err, store.ErrNotFound) {
			return proto.ErrTeamNotFound
		}
		if err != nil && !errors.Is(err, store.ErrConflict) {
			return proto.StoreFailure(err)
		}
		return err
	})
	if err != nil {
		if len(released) > 0 && !errors.Is(err, proto.ErrTeamNotFound) {
			d.compensate(ctx, "delete_team", "restore affiliations", func(ctx context.Context) error {
				var errs []error
				for id, creator := range released {
					errs = append(errs, exec(ctx, d, func(ctx context.Context) error {
						return d.store.ClaimTeam(ctx, id, teamID, creator)
					}))
				}
				return errors.Join(errs...)
			})
		}
		return err
	}

	d.logger.Info("team deleted", "team", teamID, "creator", creatorID, "released", len(released))
	return nil
}

// LeaveTeam removes the caller from a team's roster and clears their
// affiliation. If the affiliation cannot be cleared, the caller is put back
// on the roster.
func (d *Backend) LeaveTeam(ctx context.Context, teamID int64) error {
	return observe("leave_team", d.leaveTeam(ctx, teamID))
}

func (d *Backend) leaveTeam(ctx context.Context, teamID int64) error {
	uid, err := d.caller(ctx)
	if err != nil {
		return err
	}

	var removed models.Member
	err = d.retry(ctx, "leave_team", func() error {
		team, err := d.getTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if err := membership.CanLeave(uid, team); err != nil {
			return err
		}
		i := team.Members.IndexOf(uid)
		removed = team.Members[i]
		team.Members = team.Members.Without(i)
		_, err = d.updateTeam(ctx, team)
		return err
	})
	if err != nil {
		return err
	}

	err = exec(ctx, d, func(ctx context.Context) error {
		return d.store.ReleaseTeam(ctx, uid, teamID)
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrConflict):
		// Already not affiliated with this team.
		d.logger.Warn("leaving user was not affiliated with team", "team", teamID, "user", uid)
	default:
		d.compensate(ctx, "leave_team", "restore roster entry", func(ctx context.Context) error {
			return d.seat(ctx, "leave_team", teamID, removed)
		})
		return proto.StoreFailure(err)
	}

	d.logger.Info("member left team", "team", teamID, "user", uid)
	return nil
}

// seat appends m to the roster of a team, retrying on version conflicts and
// re-checking capacity against every fresh read. A registered member already
// on the roster is left as is.
func (d *Backend) seat(ctx context.Context, operation string, teamID int64, m models.Member) error {
	return d.retry(ctx, operation, func() error {
		team, err := d.getTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if m.UserID != nil && team.Members.Contains(*m.UserID) {
			return nil
		}
		if err := membership.CanSeat(team); err != nil {
			return err
		}
		team.Members = team.Members.With(m)
		_, err = d.updateTeam(ctx, team)
		return err
	})
}

// unseat removes the registered member userID from a team roster, retrying
// on version conflicts.
func (d *Backend) unseat(ctx context.Context, operation string, teamID int64, userID string) error {
	return d.retry(ctx, operation, func() error {
		team, err := d.getTeam(ctx, teamID)
		if err != nil {
			return err
		}
		i := team.Members.IndexOf(userID)
		if i < 0 {
			return nil
		}
		team.Members = team.Members.Without(i)
		_, err = d.updateTeam(ctx, team)
		return err
	})
}

// GetTeam returns a team.
func (d *Backend) GetTeam(ctx context.Context, teamID int64) (models.Team, error) {
	if _, err := d.caller(ctx); err != nil {
		return models.Team{}, err
	}
	return d.getTeam(ctx, teamID)
}

// GetTeams lists teams matching filter, newest first.
func (d *Backend) GetTeams(ctx context.Context, filter store.TeamFilter) ([]models.Team, error) {
	if _, err := d.caller(ctx); err != nil {
		return nil, err
	}
	teams, err := call(ctx, d, func(ctx context.Context) ([]models.Team, error) {
		return d.store.FindTeams(ctx, filter)
	})
	return teams, storeError(err, nil)
}

// GetUserTeam returns the caller's team, or nil when the caller has none.
func (d *Backend) GetUserTeam(ctx context.Context) (*models.Team, error) {
	uid, err := d.caller(ctx)
	if err != nil {
		return nil, err
	}
	user, err := d.getUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !user.HasTeam() {
		return nil, nil
	}
	team, err := d.getTeam(ctx, *user.TeamID)
	if errors.Is(err, proto.ErrTeamNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}
