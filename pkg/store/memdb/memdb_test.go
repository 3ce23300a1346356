package memdb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rgeron/next-hackaton/pkg/db/models"
	"github.com/rgeron/next-hackaton/pkg/store"
)

func strp(s string) *string { return &s }

func setup(t *testing.T) (context.Context, store.Store) {
	t.Helper()
	s, err := New()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.TODO()
	for _, id := range []string{"c", "u", "v"} {
		if _, err := s.CreateUser(ctx, models.User{
			ID:     id,
			Email:  id + "@example.com",
			School: models.SchoolX,
			Skills: []string{"go", id},
		}); err != nil {
			t.Fatal(err)
		}
	}
	return ctx, s
}

func createTeam(t *testing.T, ctx context.Context, s store.Store, lookingFor ...string) models.Team {
	t.Helper()
	tm, err := s.CreateTeam(ctx, models.Team{
		Name:        "t",
		ProjectType: models.ProjectSoftware,
		LookingFor:  lookingFor,
		MaxMembers:  2,
		CreatorID:   "c",
		Members: models.Roster{{
			UserID: strp("c"), Name: "C", Role: models.RoleProjectLead, IsRegistered: true,
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return tm
}

func TestUsers(t *testing.T) {
	is := is.New(t)
	ctx, s := setup(t)

	_, err := s.CreateUser(ctx, models.User{ID: "c", Email: "other@example.com"})
	is.True(errors.Is(err, store.ErrDuplicate))
	_, err = s.CreateUser(ctx, models.User{ID: "z", Email: "c@example.com"})
	is.True(errors.Is(err, store.ErrDuplicate))

	u, err := s.GetUserByEmail(ctx, "u@example.com")
	is.NoErr(err)
	is.Equal(u.ID, "u")
	is.Equal(u.Skills, []string{"go", "u"})

	// Returned values are copies.
	u.Skills[0] = "mutated"
	u, err = s.GetUserByID(ctx, "u")
	is.NoErr(err)
	is.Equal(u.Skills[0], "go")

	u.FullName = "Ursula"
	u.Skills = []string{"sql", "sql"}
	u, err = s.UpdateUserProfile(ctx, u)
	is.NoErr(err)
	is.Equal(u.FullName, "Ursula")
	is.Equal(u.Skills, []string{"sql"})

	_, err = s.UpdateUserProfile(ctx, models.User{ID: "missing"})
	is.True(errors.Is(err, store.ErrNotFound))

	us, err := s.FindUsers(ctx, store.UserFilter{Skills: []string{"go"}})
	is.NoErr(err)
	is.Equal(len(us), 2)

	us, err = s.GetUsersByIDs(ctx, []string{"v", "c", "missing"})
	is.NoErr(err)
	is.Equal(len(us), 2)
}

func TestClaimRelease(t *testing.T) {
	is := is.New(t)
	ctx, s := setup(t)
	tm := createTeam(t, ctx, s)

	is.True(errors.Is(s.ClaimTeam(ctx, "u", 999, false), store.ErrConflict))
	is.NoErr(s.ClaimTeam(ctx, "u", tm.ID, false))
	is.True(errors.Is(s.ClaimTeam(ctx, "u", tm.ID, false), store.ErrConflict))

	hasTeam := true
	us, err := s.FindUsers(ctx, store.UserFilter{HasTeam: &hasTeam})
	is.NoErr(err)
	is.Equal(len(us), 1)
	is.Equal(us[0].ID, "u")

	is.True(errors.Is(s.ReleaseTeam(ctx, "u", tm.ID+1), store.ErrConflict))
	is.NoErr(s.ReleaseTeam(ctx, "u", tm.ID))
	is.True(errors.Is(s.ReleaseTeam(ctx, "missing", tm.ID), store.ErrNotFound))
}

func TestTeamVersioning(t *testing.T) {
	is := is.New(t)
	ctx, s := setup(t)
	tm := createTeam(t, ctx, s, "designer", "backend", "designer")
	is.Equal(tm.Version, int64(1))
	is.Equal(tm.LookingFor, []string{"backend", "designer"})

	a := tm
	a.Members = a.Members.With(models.Member{Name: "manual"})
	updated, err := s.UpdateTeam(ctx, a)
	is.NoErr(err)
	is.Equal(updated.Version, int64(2))

	b := tm
	b.Name = "lost update"
	_, err = s.UpdateTeam(ctx, b)
	is.True(errors.Is(err, store.ErrConflict))

	got, err := s.GetTeamByID(ctx, tm.ID)
	is.NoErr(err)
	is.Equal(len(got.Members), 2)
	is.Equal(got.Name, "t")

	teams, err := s.FindTeams(ctx, store.TeamFilter{LookingFor: []string{"backend"}, CreatorID: "c"})
	is.NoErr(err)
	is.Equal(len(teams), 1)
	teams, err = s.FindTeams(ctx, store.TeamFilter{ProjectType: models.ProjectWebsite})
	is.NoErr(err)
	is.Equal(len(teams), 0)
}

func TestConcurrentUpdates(t *testing.T) {
	is := is.New(t)
	ctx, s := setup(t)
	tm := createTeam(t, ctx, s)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := tm
			next.Members = next.Members.With(models.Member{Name: "racer"})
			_, err := s.UpdateTeam(ctx, next)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		is.True(errors.Is(err, store.ErrConflict))
	}
	is.Equal(ok, 1)
}

func TestDeleteTeam(t *testing.T) {
	is := is.New(t)
	ctx, s := setup(t)
	tm := createTeam(t, ctx, s)
	_, err := s.CreateInteraction(ctx, models.Interaction{
		Type: models.InteractionApplication, SenderID: "u", ReceiverID: "c", TeamInvolvedID: tm.ID,
	})
	is.NoErr(err)

	is.NoErr(s.ClaimTeam(ctx, "c", tm.ID, true))
	is.True(errors.Is(s.DeleteTeam(ctx, tm.ID, tm.Version), store.ErrConflict))
	is.NoErr(s.ReleaseTeam(ctx, "c", tm.ID))
	is.True(errors.Is(s.DeleteTeam(ctx, tm.ID, tm.Version+1), store.ErrConflict))
	is.NoErr(s.DeleteTeam(ctx, tm.ID, tm.Version))

	_, err = s.GetTeamByID(ctx, tm.ID)
	is.True(errors.Is(err, store.ErrNotFound))
	list, err := s.FindInteractions(ctx, store.InteractionFilter{})
	is.NoErr(err)
	is.Equal(len(list), 0)
}

func TestInteractions(t *testing.T) {
	is := is.New(t)
	ctx, s := setup(t)
	tm := createTeam(t, ctx, s)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	app := models.Interaction{
		Type: models.InteractionApplication, SenderID: "u", ReceiverID: "c",
		TeamInvolvedID: tm.ID, CreatedAt: base,
	}
	first, err := s.CreateInteraction(ctx, app)
	is.NoErr(err)
	_, err = s.CreateInteraction(ctx, app)
	is.True(errors.Is(err, store.ErrDuplicate))

	second, err := s.CreateInteraction(ctx, models.Interaction{
		Type: models.InteractionApplication, SenderID: "v", ReceiverID: "c",
		TeamInvolvedID: tm.ID, CreatedAt: base.Add(time.Second),
	})
	is.NoErr(err)

	_, err = s.CreateInteraction(ctx, models.Interaction{
		Type: models.InteractionInvite, SenderID: "c", ReceiverID: "missing", TeamInvolvedID: tm.ID,
	})
	is.True(errors.Is(err, store.ErrConflict))

	list, err := s.FindInteractions(ctx, store.InteractionFilter{ReceiverID: "c", Status: models.StatusPending})
	is.NoErr(err)
	is.Equal(len(list), 2)
	is.Equal(list[0].ID, second.ID)

	at := base.Add(time.Hour)
	is.NoErr(s.AnswerInteraction(ctx, first.ID, models.StatusAccepted, at))
	is.True(errors.Is(s.AnswerInteraction(ctx, first.ID, models.StatusRejected, at), store.ErrConflict))
	is.True(errors.Is(s.AnswerInteraction(ctx, 999, models.StatusRejected, at), store.ErrNotFound))

	got, err := s.GetInteractionByID(ctx, first.ID)
	is.NoErr(err)
	is.Equal(got.Status, models.StatusAccepted)
	is.True(got.AnswerAt.Equal(at))

	_, err = s.CreateInteraction(ctx, app)
	is.NoErr(err)
}
