package backend

import (
	"context"
	"errors"

	"github.com/rgeron/next-hackaton/pkg/db/models"
	"github.com/rgeron/next-hackaton/pkg/membership"
	"github.com/rgeron/next-hackaton/pkg/proto"
	"github.com/rgeron/next-hackaton/pkg/store"
)

// ApplicationView is a pending application along with the applicant's
// profile.
type ApplicationView struct {
	models.Interaction
	Applicant models.User `json:"applicant"`
}

// TeamSummary is the part of a team shown alongside an invitation.
type TeamSummary struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description *string            `json:"description"`
	ProjectType models.ProjectType `json:"project_type"`
	MaxMembers  int                `json:"max_members"`
	Members     int                `json:"members"`
}

// Sender identifies who sent an invitation.
type Sender struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

// InviteView is a pending invitation along with the team and the sender.
type InviteView struct {
	models.Interaction
	Team   TeamSummary `json:"team"`
	Sender Sender      `json:"sender"`
}

func (d *Backend) pending(ctx context.Context, typ models.InteractionType, teamID int64, senderID, receiverID string) (bool, error) {
	is, err := call(ctx, d, func(ctx context.Context) ([]models.Interaction, error) {
		return d.store.FindInteractions(ctx, store.InteractionFilter{
			Type:       typ,
			Status:     models.StatusPending,
			TeamID:     teamID,
			SenderID:   senderID,
			ReceiverID: receiverID,
		})
	})
	if err != nil {
		return false, proto.StoreFailure(err)
	}
	return len(is) > 0, nil
}

// ApplyToTeam records a pending application of the caller to a team. The
// application is addressed to the team creator.
func (d *Backend) ApplyToTeam(ctx context.Context, teamID int64, message *string) (models.Interaction, error) {
	i, err := d.applyToTeam(ctx, teamID, message)
	return i, observe("apply_to_team", err)
}

func (d *Backend) applyToTeam(ctx context.Context, teamID int64, message *string) (models.Interaction, error) {
	uid, err := d.caller(ctx)
	if err != nil {
		return models.Interaction{}, err
	}
	if err := d.check(messageOptions{Message: message}); err != nil {
		return models.Interaction{}, err
	}

	user, err := d.getUser(ctx, uid)
	if err != nil {
		return models.Interaction{}, err
	}

	var team *models.Team
	t, err := d.getTeam(ctx, teamID)
	switch {
	case err == nil:
		team = &t
	case !errors.Is(err, proto.ErrTeamNotFound):
		return models.Interaction{}, err
	}

	var pending bool
	if team != nil {
		pending, err = d.pending(ctx, models.InteractionApplication, team.ID, uid, "")
		if err != nil {
			return models.Interaction{}, err
		}
	}
	if err := membership.CanApply(user, team, pending); err != nil {
		return models.Interaction{}, err
	}

	i, err := call(ctx, d, func(ctx context.Context) (models.Interaction, error) {
		return d.store.CreateInteraction(ctx, models.Interaction{
			Type:           models.InteractionApplication,
			Status:         models.StatusPending,
			SenderID:       uid,
			ReceiverID:     team.CreatorID,
			TeamInvolvedID: team.ID,
			Message:        message,
			CreatedAt:      d.now(),
		})
	})
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return models.Interaction{}, proto.ErrAlreadyApplied
	case errors.Is(err, store.ErrConflict):
		// The team vanished in between.
		return models.Interaction{}, proto.ErrTeamNotFound
	case err != nil:
		return models.Interaction{}, proto.StoreFailure(err)
	}

	d.logger.Info("application sent", "team", team.ID, "user", uid, "interaction", i.ID)
	return i, nil
}

// InviteToTeam records a pending invitation of candidateID to a team owned
// by the caller.
func (d *Backend) InviteToTeam(ctx context.Context, teamID int64, candidateID string, message *string) (models.Interaction, error) {
	i, err := d.inviteToTeam(ctx, teamID, candidateID, message)
	return i, observe("invite_to_team", err)
}

func (d *Backend) inviteToTeam(ctx context.Context, teamID int64, candidateID string, message *string) (models.Interaction, error) {
	uid, err := d.caller(ctx)
	if err != nil {
		return models.Interaction{}, err
	}
	if err := d.check(messageOptions{Message: message}); err != nil {
		return models.Interaction{}, err
	}

	team, err := d.getTeam(ctx, teamID)
	if err != nil {
		return models.Interaction{}, err
	}

	// A missing candidate is reported after the authorization checks, so
	// that only the creator learns whether a user exists.
	missing := false
	candidate, err := d.getUser(ctx, candidateID)
	switch {
	case errors.Is(err, proto.ErrUserNotFound):
		missing = true
		candidate = models.User{ID: candidateID}
	case err != nil:
		return models.Interaction{}, err
	}

	pending, err := d.pending(ctx, models.InteractionInvite, team.ID, "", candidateID)
	if err != nil {
		return models.Interaction{}, err
	}
	if err := membership.CanInvite(uid, team, candidate, pending); err != nil {
		return models.Interaction{}, err
	}
	if missing {
		return models.Interaction{}, proto.ErrUserNotFound
	}

	i, err := call(ctx, d, func(ctx context.Context) (models.Interaction, error) {
		return d.store.CreateInteraction(ctx, models.Interaction{
			Type:           models.InteractionInvite,
			Status:         models.StatusPending,
			SenderID:       uid,
			ReceiverID:     candidateID,
			TeamInvolvedID: team.ID,
			Message:        message,
			CreatedAt:      d.now(),
		})
	})
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return models.Interaction{}, proto.ErrAlreadyInvited
	case errors.Is(err, store.ErrConflict):
		return models.Interaction{}, proto.ErrTeamNotFound
	case err != nil:
		return models.Interaction{}, proto.StoreFailure(err)
	}

	d.logger.Info("invitation sent", "team", team.ID, "user", candidateID, "interaction", i.ID)
	return i, nil
}

// RespondToApplication accepts or rejects a pending application. Only the
// creator of the team applied to may answer.
func (d *Backend) RespondToApplication(ctx context.Context, interactionID int64, accept bool) (models.Interaction, error) {
	i, err := d.respond(ctx, models.InteractionApplication, interactionID, accept)
	return i, observe("respond_to_application", err)
}

// RespondToInvite accepts or rejects a pending invitation addressed to the
// caller.
func (d *Backend) RespondToInvite(ctx context.Context, interactionID int64, accept bool) (models.Interaction, error) {
	i, err := d.respond(ctx, models.InteractionInvite, interactionID, accept)
	return i, observe("respond_to_invite", err)
}

// respond answers the interaction. Accepting affiliates the joining user,
// seats them on the roster and finally marks the interaction accepted. A
// failing step undoes the steps before it.
func (d *Backend) respond(ctx context.Context, typ models.InteractionType, interactionID int64, accept bool) (models.Interaction, error) {
	operation := "respond_to_application"
	if typ == models.InteractionInvite {
		operation = "respond_to_invite"
	}

	uid, err := d.caller(ctx)
	if err != nil {
		return models.Interaction{}, err
	}

	i, err := call(ctx, d, func(ctx context.Context) (models.Interaction, error) {
		return d.store.GetInteractionByID(ctx, interactionID)
	})
	if err != nil {
		return models.Interaction{}, storeError(err, proto.ErrInteractionNotFound)
	}
	if i.Type != typ {
		return models.Interaction{}, proto.ErrInteractionNotFound
	}

	team, err := d.getTeam(ctx, i.TeamInvolvedID)
	if err != nil {
		return models.Interaction{}, err
	}

	if !accept {
		if err := membership.CanReject(uid, i, team); err != nil {
			return models.Interaction{}, err
		}
		if err := d.answer(ctx, &i, models.StatusRejected); err != nil {
			return models.Interaction{}, err
		}
		d.logger.Info("interaction rejected", "type", typ, "interaction", i.ID, "team", team.ID)
		return i, nil
	}

	// The joining user is the applicant for applications and the invitee
	// for invitations.
	joinerID := i.ReceiverID
	affiliated := proto.ErrAlreadyHasTeam
	if typ == models.InteractionApplication {
		joinerID = i.SenderID
		affiliated = proto.ErrCandidateHasTeam
	}
	joiner, err := d.getUser(ctx, joinerID)
	if err != nil {
		return models.Interaction{}, err
	}
	if typ == models.InteractionApplication {
		err = membership.CanAcceptApplication(uid, i, team, joiner)
	} else {
		err = membership.CanAcceptInvite(uid, i, team, joiner)
	}
	if err != nil {
		return models.Interaction{}, err
	}

	if err := exec(ctx, d, func(ctx context.Context) error {
		return d.store.ClaimTeam(ctx, joinerID, team.ID, false)
	}); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return models.Interaction{}, affiliated
		}
		return models.Interaction{}, storeError(err, proto.ErrUserNotFound)
	}

	release := func(ctx context.Context) error {
		return exec(ctx, d, func(ctx context.Context) error {
			return d.store.ReleaseTeam(ctx, joinerID, team.ID)
		})
	}

	if err := d.seat(ctx, operation, team.ID, models.Member{
		UserID:       &joinerID,
		Name:         displayName(joiner),
		Role:         membership.RoleMember,
		JoinedAt:     d.now(),
		IsRegistered: true,
	}); err != nil {
		d.compensate(ctx, operation, "release affiliation", release)
		return models.Interaction{}, err
	}

	if err := d.answer(ctx, &i, models.StatusAccepted); err != nil {
		d.compensate(ctx, operation, "remove roster entry", func(ctx context.Context) error {
			return d.unseat(ctx, operation, team.ID, joinerID)
		})
		d.compensate(ctx, operation, "release affiliation", release)
		return models.Interaction{}, err
	}

	d.logger.Info("interaction accepted", "type", typ, "interaction", i.ID, "team", team.ID, "user", joinerID)
	return i, nil
}

// answer moves i out of pending. Losing the race against another answer
// yields proto.ErrInteractionAnswered.
func (d *Backend) answer(ctx context.Context, i *models.Interaction, status models.InteractionStatus) error {
	at := d.now()
	err := exec(ctx, d, func(ctx context.Context) error {
		return d.store.AnswerInteraction(ctx, i.ID, status, at)
	})
	switch {
	case errors.Is(err, store.ErrConflict):
		return proto.ErrInteractionAnswered
	case err != nil:
		return storeError(err, proto.ErrInteractionNotFound)
	}
	i.Status = status
	i.AnswerAt = &at
	return nil
}

// FetchTeamApplications lists the pending applications to a team owned by
// the caller, newest first.
func (d *Backend) FetchTeamApplications(ctx context.Context, teamID int64) ([]ApplicationView, error) {
	uid, err := d.caller(ctx)
	if err != nil {
		return nil, err
	}
	team, err := d.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if uid != team.CreatorID {
		return nil, proto.ErrNotAuthorized
	}

	is, err := call(ctx, d, func(ctx context.Context) ([]models.Interaction, error) {
		return d.store.FindInteractions(ctx, store.InteractionFilter{
			Type:   models.InteractionApplication,
			Status: models.StatusPending,
			TeamID: team.ID,
		})
	})
	if err != nil {
		return nil, proto.StoreFailure(err)
	}
	if len(is) == 0 {
		return []ApplicationView{}, nil
	}

	ids := make([]string, 0, len(is))
	for _, i := range is {
		ids = append(ids, i.SenderID)
	}
	users, err := call(ctx, d, func(ctx context.Context) ([]models.User, error) {
		return d.store.GetUsersByIDs(ctx, ids)
	})
	if err != nil {
		return nil, proto.StoreFailure(err)
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]ApplicationView, 0, len(is))
	for _, i := range is {
		applicant, ok := byID[i.SenderID]
		if !ok {
			continue
		}
		views = append(views, ApplicationView{Interaction: i, Applicant: applicant})
	}
	return views, nil
}

// FetchUserInvites lists the pending invitations addressed to the caller,
// newest first.
func (d *Backend) FetchUserInvites(ctx context.Context) ([]InviteView, error) {
	uid, err := d.caller(ctx)
	if err != nil {
		return nil, err
	}

	is, err := call(ctx, d, func(ctx context.Context) ([]models.Interaction, error) {
		return d.store.FindInteractions(ctx, store.InteractionFilter{
			Type:       models.InteractionInvite,
			Status:     models.StatusPending,
			ReceiverID: uid,
		})
	})
	if err != nil {
		return nil, proto.StoreFailure(err)
	}

	views := make([]InviteView, 0, len(is))
	teams := map[int64]models.Team{}
	for _, i := range is {
		team, ok := teams[i.TeamInvolvedID]
		if !ok {
			team, err = d.getTeam(ctx, i.TeamInvolvedID)
			if errors.Is(err, proto.ErrTeamNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			teams[team.ID] = team
		}
		name, err := d.senderName(ctx, i.SenderID)
		if err != nil {
			return nil, err
		}
		views = append(views, InviteView{
			Interaction: i,
			Team: TeamSummary{
				ID:          team.ID,
				Name:        team.Name,
				Description: team.Description,
				ProjectType: team.ProjectType,
				MaxMembers:  team.MaxMembers,
				Members:     len(team.Members),
			},
			Sender: Sender{ID: i.SenderID, FullName: name},
		})
	}
	return views, nil
}

func (d *Backend) senderName(ctx context.Context, userID string) (string, error) {
	if name, ok := d.cache.Get(userID); ok {
		return name, nil
	}
	user, err := d.getUser(ctx, userID)
	if errors.Is(err, proto.ErrUserNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	name := displayName(user)
	d.cache.Set(userID, name)
	return name, nil
}

// RespondToInteraction answers an application or an invitation, whichever
// interactionID refers to.
func (d *Backend) RespondToInteraction(ctx context.Context, interactionID int64, accept bool) (models.Interaction, error) {
	if _, err := d.caller(ctx); err != nil {
		return models.Interaction{}, err
	}
	i, err := call(ctx, d, func(ctx context.Context) (models.Interaction, error) {
		return d.store.GetInteractionByID(ctx, interactionID)
	})
	if err != nil {
		return models.Interaction{}, storeError(err, proto.ErrInteractionNotFound)
	}
	switch i.Type {
	case models.InteractionApplication:
		return d.RespondToApplication(ctx, interactionID, accept)
	case models.InteractionInvite:
		return d.RespondToInvite(ctx, interactionID, accept)
	}
	return models.Interaction{}, proto.ErrInteractionNotFound
}
