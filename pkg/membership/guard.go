// Package membership holds the rules deciding whether a membership change is
// legal. Functions here perform no I/O: they return nil when the change is
// allowed, or a *proto.Error describing the denial.
//
// Capacity is always checked against the team value passed in, which callers
// must read immediately before writing.
package membership

import (
	"github.com/rgeron/next-hackaton/pkg/db/models"
	"github.com/rgeron/next-hackaton/pkg/proto"
)

// RoleMember is the role given to members who joined through an application
// or an invitation.
const RoleMember = "Member"

// CanCreateTeam decides whether user may create a team.
func CanCreateTeam(user models.User) error {
	if user.HasTeam() {
		return proto.ErrAlreadyHasTeam
	}
	return nil
}

// CanApply decides whether user may apply to team. team is nil when it does
// not exist. pending reports whether the user already has a pending
// application to the team.
func CanApply(user models.User, team *models.Team, pending bool) error {
	switch {
	case user.HasTeam():
		return proto.ErrAlreadyHasTeam
	case team == nil:
		return proto.ErrTeamNotFound
	case team.IsFull():
		return proto.ErrTeamFull
	case pending:
		return proto.ErrAlreadyApplied
	}
	return nil
}

// CanInvite decides whether inviterID may invite candidate to team. pending
// reports whether the candidate already has a pending invitation to the team.
func CanInvite(inviterID string, team models.Team, candidate models.User, pending bool) error {
	switch {
	case inviterID != team.CreatorID:
		return proto.ErrNotAuthorized
	case candidate.ID == inviterID:
		return proto.ErrSelfInvite
	case team.IsFull():
		return proto.ErrTeamFull
	case candidate.HasTeam():
		return proto.ErrCandidateHasTeam
	case pending:
		return proto.ErrAlreadyInvited
	}
	return nil
}

// CanAcceptApplication decides whether responderID may accept the
// application i from applicant into team. Only the team creator answers
// applications, whatever the recorded receiver.
func CanAcceptApplication(responderID string, i models.Interaction, team models.Team, applicant models.User) error {
	if err := canAnswer(responderID, i, models.InteractionApplication, team.CreatorID); err != nil {
		return err
	}
	return canJoin(team, applicant, proto.ErrCandidateHasTeam)
}

// CanAcceptInvite decides whether responderID may accept the invitation i
// into team. Only the invited user answers an invitation.
func CanAcceptInvite(responderID string, i models.Interaction, team models.Team, invitee models.User) error {
	if err := canAnswer(responderID, i, models.InteractionInvite, i.ReceiverID); err != nil {
		return err
	}
	return canJoin(team, invitee, proto.ErrAlreadyHasTeam)
}

// CanReject decides whether responderID may reject i. Only authorization and
// the pending state are checked.
func CanReject(responderID string, i models.Interaction, team models.Team) error {
	answerer := i.ReceiverID
	if i.Type == models.InteractionApplication {
		answerer = team.CreatorID
	}
	return canAnswer(responderID, i, i.Type, answerer)
}

// CanLeave decides whether userID may leave team.
func CanLeave(userID string, team models.Team) error {
	switch {
	case userID == team.CreatorID:
		return proto.ErrCreatorCannotLeave
	case !team.Members.Contains(userID):
		return proto.ErrNotAMember
	}
	return nil
}

// CanDelete decides whether requesterID may delete team.
func CanDelete(requesterID string, team models.Team) error {
	return creatorOnly(requesterID, team)
}

// CanEdit decides whether requesterID may edit the fields of team.
func CanEdit(requesterID string, team models.Team) error {
	return creatorOnly(requesterID, team)
}

// CanAddMember decides whether requesterID may add a manual member to team.
func CanAddMember(requesterID string, team models.Team) error {
	if err := creatorOnly(requesterID, team); err != nil {
		return err
	}
	if team.IsFull() {
		return proto.ErrTeamFull
	}
	return nil
}

// CanRemoveMember decides whether requesterID may remove the roster entry at
// index. Only manual members go through this path. Registered members leave
// on their own.
func CanRemoveMember(requesterID string, team models.Team, index int) error {
	if err := creatorOnly(requesterID, team); err != nil {
		return err
	}
	if index < 0 || index >= len(team.Members) {
		return proto.ErrMemberNotFound
	}
	if team.Members[index].IsRegistered {
		return proto.ErrRegisteredMember
	}
	return nil
}

// CanSeat decides whether team has a free seat for one more member.
func CanSeat(team models.Team) error {
	if team.IsFull() {
		return proto.ErrTeamFull
	}
	return nil
}

// CanResize decides whether team may hold at most maxMembers members.
func CanResize(team models.Team, maxMembers int) error {
	if maxMembers < len(team.Members) {
		return proto.ErrCapacityBelowRoster
	}
	return nil
}

func creatorOnly(requesterID string, team models.Team) error {
	if requesterID != team.CreatorID {
		return proto.ErrNotAuthorized
	}
	return nil
}

// canAnswer checks that i is a pending interaction of the given type that
// responderID is entitled to answer.
func canAnswer(responderID string, i models.Interaction, typ models.InteractionType, answerer string) error {
	switch {
	case i.Type != typ:
		return proto.ErrInteractionNotFound
	case responderID != answerer:
		return proto.ErrNotAuthorized
	case i.Status != models.StatusPending:
		return proto.ErrInteractionAnswered
	}
	return nil
}

func canJoin(team models.Team, user models.User, affiliated error) error {
	switch {
	case user.HasTeam():
		return affiliated
	case team.IsFull():
		return proto.ErrTeamFull
	}
	return nil
}
