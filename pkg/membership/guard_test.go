package membership

import (
	"testing"

	"github.com/rgeron/next-hackaton/pkg/db/models"
	"github.com/rgeron/next-hackaton/pkg/proto"
)

func strp(s string) *string { return &s }

func int64p(i int64) *int64 { return &i }

func team(max int, members ...string) models.Team {
	t := models.Team{ID: 1, CreatorID: "c", MaxMembers: max}
	t.Members = models.Roster{{UserID: strp("c"), Role: models.RoleProjectLead, IsRegistered: true}}
	for _, m := range members {
		if m == "" {
			t.Members = append(t.Members, models.Member{Name: "manual"})
			continue
		}
		t.Members = append(t.Members, models.Member{UserID: strp(m), IsRegistered: true})
	}
	return t
}

var (
	free       = models.User{ID: "u"}
	affiliated = models.User{ID: "u", TeamID: int64p(7)}
)

func TestCanCreateTeam(t *testing.T) {
	if err := CanCreateTeam(free); err != nil {
		t.Errorf("CanCreateTeam(free) => %v, want nil", err)
	}
	if err := CanCreateTeam(affiliated); err != proto.ErrAlreadyHasTeam { //nolint:errorlint
		t.Errorf("CanCreateTeam(affiliated) => %v, want %v", err, proto.ErrAlreadyHasTeam)
	}
}

func TestCanApply(t *testing.T) {
	open := team(3)
	full := team(2, "m")
	cases := []struct {
		name    string
		user    models.User
		team    *models.Team
		pending bool
		want    error
	}{
		{"allowed", free, &open, false, nil},
		{"has team", affiliated, &open, false, proto.ErrAlreadyHasTeam},
		{"has team wins over missing", affiliated, nil, false, proto.ErrAlreadyHasTeam},
		{"missing team", free, nil, false, proto.ErrTeamNotFound},
		{"full", free, &full, false, proto.ErrTeamFull},
		{"full with manual member", free, ptr(team(2, "")), false, proto.ErrTeamFull},
		{"pending", free, &open, true, proto.ErrAlreadyApplied},
	}
	for _, c := range cases {
		if got := CanApply(c.user, c.team, c.pending); got != c.want { //nolint:errorlint
			t.Errorf("%s: CanApply() => %v, want %v", c.name, got, c.want)
		}
	}
}

func ptr(t models.Team) *models.Team { return &t }

func TestCanInvite(t *testing.T) {
	cases := []struct {
		name      string
		inviter   string
		team      models.Team
		candidate models.User
		pending   bool
		want      error
	}{
		{"allowed", "c", team(3), free, false, nil},
		{"not creator", "x", team(3), free, false, proto.ErrNotAuthorized},
		{"self", "c", team(3), models.User{ID: "c"}, false, proto.ErrSelfInvite},
		{"full", "c", team(1), free, false, proto.ErrTeamFull},
		{"candidate has team", "c", team(3), affiliated, false, proto.ErrCandidateHasTeam},
		{"pending", "c", team(3), free, true, proto.ErrAlreadyInvited},
	}
	for _, c := range cases {
		if got := CanInvite(c.inviter, c.team, c.candidate, c.pending); got != c.want { //nolint:errorlint
			t.Errorf("%s: CanInvite() => %v, want %v", c.name, got, c.want)
		}
	}
}

func TestCanAcceptApplication(t *testing.T) {
	app := models.Interaction{Type: models.InteractionApplication, Status: models.StatusPending, SenderID: "u", ReceiverID: "c"}
	answered := app
	answered.Status = models.StatusAccepted
	invite := app
	invite.Type = models.InteractionInvite

	cases := []struct {
		name      string
		responder string
		i         models.Interaction
		team      models.Team
		applicant models.User
		want      error
	}{
		{"allowed", "c", app, team(2), free, nil},
		{"not creator", "u", app, team(2), free, proto.ErrNotAuthorized},
		{"wrong type", "c", invite, team(2), free, proto.ErrInteractionNotFound},
		{"answered", "c", answered, team(2), free, proto.ErrInteractionAnswered},
		{"full at response time", "c", app, team(2, "m"), free, proto.ErrTeamFull},
		{"applicant joined elsewhere", "c", app, team(2), affiliated, proto.ErrCandidateHasTeam},
	}
	for _, c := range cases {
		if got := CanAcceptApplication(c.responder, c.i, c.team, c.applicant); got != c.want { //nolint:errorlint
			t.Errorf("%s: CanAcceptApplication() => %v, want %v", c.name, got, c.want)
		}
	}

	// Ownership decides, not the recorded receiver.
	moved := app
	moved.ReceiverID = "someone-else"
	if got := CanAcceptApplication("c", moved, team(2), free); got != nil {
		t.Errorf("CanAcceptApplication() by creator => %v, want nil", got)
	}
}

func TestCanAcceptInvite(t *testing.T) {
	inv := models.Interaction{Type: models.InteractionInvite, Status: models.StatusPending, SenderID: "c", ReceiverID: "u"}
	rejected := inv
	rejected.Status = models.StatusRejected

	cases := []struct {
		name      string
		responder string
		i         models.Interaction
		team      models.Team
		invitee   models.User
		want      error
	}{
		{"allowed", "u", inv, team(2), free, nil},
		{"creator cannot answer", "c", inv, team(2), free, proto.ErrNotAuthorized},
		{"answered", "u", rejected, team(2), free, proto.ErrInteractionAnswered},
		{"full", "u", inv, team(2, ""), free, proto.ErrTeamFull},
		{"invitee has team", "u", inv, team(2), affiliated, proto.ErrAlreadyHasTeam},
	}
	for _, c := range cases {
		if got := CanAcceptInvite(c.responder, c.i, c.team, c.invitee); got != c.want { //nolint:errorlint
			t.Errorf("%s: CanAcceptInvite() => %v, want %v", c.name, got, c.want)
		}
	}
}

func TestCanReject(t *testing.T) {
	app := models.Interaction{Type: models.InteractionApplication, Status: models.StatusPending, SenderID: "u", ReceiverID: "c"}
	inv := models.Interaction{Type: models.InteractionInvite, Status: models.StatusPending, SenderID: "c", ReceiverID: "u"}
	full := team(1)

	if err := CanReject("c", app, full); err != nil {
		t.Errorf("CanReject(application) => %v, want nil", err)
	}
	if err := CanReject("u", inv, full); err != nil {
		t.Errorf("CanReject(invite) => %v, want nil", err)
	}
	if err := CanReject("u", app, full); err != proto.ErrNotAuthorized { //nolint:errorlint
		t.Errorf("CanReject(application by applicant) => %v, want %v", err, proto.ErrNotAuthorized)
	}
	app.Status = models.StatusRejected
	if err := CanReject("c", app, full); err != proto.ErrInteractionAnswered { //nolint:errorlint
		t.Errorf("CanReject(answered) => %v, want %v", err, proto.ErrInteractionAnswered)
	}
}

func TestCanLeave(t *testing.T) {
	tm := team(3, "m")
	if err := CanLeave("m", tm); err != nil {
		t.Errorf("CanLeave(member) => %v, want nil", err)
	}
	if err := CanLeave("c", tm); err != proto.ErrCreatorCannotLeave { //nolint:errorlint
		t.Errorf("CanLeave(creator) => %v, want %v", err, proto.ErrCreatorCannotLeave)
	}
	if err := CanLeave("x", tm); err != proto.ErrNotAMember { //nolint:errorlint
		t.Errorf("CanLeave(stranger) => %v, want %v", err, proto.ErrNotAMember)
	}
}

func TestCreatorOnly(t *testing.T) {
	tm := team(2, "")
	for name, fn := range map[string]func(string, models.Team) error{
		"CanDelete": CanDelete,
		"CanEdit":   CanEdit,
	} {
		if err := fn("c", tm); err != nil {
			t.Errorf("%s(creator) => %v, want nil", name, err)
		}
		if err := fn("x", tm); err != proto.ErrNotAuthorized { //nolint:errorlint
			t.Errorf("%s(stranger) => %v, want %v", name, err, proto.ErrNotAuthorized)
		}
	}
}

func TestCanAddMember(t *testing.T) {
	if err := CanAddMember("c", team(3)); err != nil {
		t.Errorf("CanAddMember() => %v, want nil", err)
	}
	if err := CanAddMember("x", team(3)); err != proto.ErrNotAuthorized { //nolint:errorlint
		t.Errorf("CanAddMember(stranger) => %v, want %v", err, proto.ErrNotAuthorized)
	}
	if err := CanAddMember("c", team(2, "")); err != proto.ErrTeamFull { //nolint:errorlint
		t.Errorf("CanAddMember(full) => %v, want %v", err, proto.ErrTeamFull)
	}
}

func TestCanRemoveMember(t *testing.T) {
	tm := team(3, "m", "")
	cases := []struct {
		requester string
		index     int
		want      error
	}{
		{"c", 2, nil},
		{"x", 2, proto.ErrNotAuthorized},
		{"c", 1, proto.ErrRegisteredMember},
		{"c", 0, proto.ErrRegisteredMember},
		{"c", 3, proto.ErrMemberNotFound},
		{"c", -1, proto.ErrMemberNotFound},
	}
	for _, c := range cases {
		if got := CanRemoveMember(c.requester, tm, c.index); got != c.want { //nolint:errorlint
			t.Errorf("CanRemoveMember(%q, %d) => %v, want %v", c.requester, c.index, got, c.want)
		}
	}
}

func TestCanResize(t *testing.T) {
	tm := team(5, "m", "")
	if err := CanResize(tm, 3); err != nil {
		t.Errorf("CanResize(3) => %v, want nil", err)
	}
	if err := CanResize(tm, 2); err != proto.ErrCapacityBelowRoster { //nolint:errorlint
		t.Errorf("CanResize(2) => %v, want %v", err, proto.ErrCapacityBelowRoster)
	}
}

func TestCanSeat(t *testing.T) {
	if err := CanSeat(team(2)); err != nil {
		t.Errorf("CanSeat(open) => %v, want nil", err)
	}
	if err := CanSeat(team(2, "")); err != proto.ErrTeamFull { //nolint:errorlint
		t.Errorf("CanSeat(full) => %v, want %v", err, proto.ErrTeamFull)
	}
}
