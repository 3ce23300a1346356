package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rgeron/next-hackaton/pkg/db"
	"github.com/rgeron/next-hackaton/pkg/db/migrate"
	"github.com/rgeron/next-hackaton/pkg/db/models"
	"github.com/rgeron/next-hackaton/pkg/store"
)

func setup(tb testing.TB) (context.Context, store.Store) {
	tb.Helper()
	ctx := context.TODO()
	dsn := filepath.Join(tb.TempDir(), "store.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	dbx, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() {
		if err := dbx.Close(); err != nil {
			tb.Error(err)
		}
	})
	if err := migrate.Migrate(ctx, dbx); err != nil {
		tb.Fatal(err)
	}
	return ctx, New(ctx, dbx)
}

func strp(s string) *string { return &s }

func newUser(t *testing.T, ctx context.Context, s store.Store, id string, school models.School, skills ...string) models.User {
	t.Helper()
	u, err := s.CreateUser(ctx, models.User{
		ID:       id,
		Email:    id + "@example.com",
		FullName: "User " + id,
		School:   school,
		Skills:   skills,
	})
	if err != nil {
		t.Fatalf("CreateUser(%q) => %v", id, err)
	}
	return u
}

func newTeam(t *testing.T, ctx context.Context, s store.Store, creator string, pt models.ProjectType, lookingFor ...string) models.Team {
	t.Helper()
	tm, err := s.CreateTeam(ctx, models.Team{
		Name:        "team of " + creator,
		ProjectType: pt,
		LookingFor:  lookingFor,
		MaxMembers:  3,
		CreatorID:   creator,
		Members: models.Roster{{
			UserID:       strp(creator),
			Name:         "User " + creator,
			Role:         models.RoleProjectLead,
			JoinedAt:     time.Now().UTC(),
			IsRegistered: true,
		}},
	})
	if err != nil {
		t.Fatalf("CreateTeam(%q) => %v", creator, err)
	}
	return tm
}

func TestUsers(t *testing.T) {
	is := is.New(t)
	ctx, s := setup(t)

	u := newUser(t, ctx, s, "u1", models.SchoolHEC, "go", "design", "go")
	is.Equal(u.Skills, []string{"design", "go"})
	is.Equal(u.TeamID, nil)

	_, err := s.CreateUser(ctx, models.User{ID: "u2", Email: "u1@example.com", School: models.SchoolX})
	is.True(errors.Is(err, store.ErrDuplicate))

	got, err := s.GetUserByEmail(ctx, "u1@example.com")
	is.NoErr(err)
	is.Equal(got.ID, "u1")

	_, err = s.GetUserByID(ctx, "nobody")
	is.True(errors.Is(err, store.ErrNotFound))

	u.FullName = "Renamed"
	u.Bio = strp("hello")
	u.Skills = []string{"rust"}
	u.Links = models.Links{GitHub: "https://github.com/u1"}
	u, err = s.UpdateUserProfile(ctx, u)
	is.NoErr(err)
	is.Equal(u.FullName, "Renamed")
	is.Equal(*u.Bio, "hello")
	is.Equal(u.Skills, []string{"rust"})
	is.Equal(u.Links.GitHub, "https://github.com/u1")

	_, err = s.UpdateUserProfile(ctx, models.User{ID: "nobody", School: models.SchoolX})
	is.True(errors.Is(err, store.ErrNotFound))
}

func TestFindUsers(t *testing.T) {
	is := is.New(t)
	ctx, s := setup(t)

	newUser(t, ctx, s, "a", models.SchoolX, "go", "sql")
	newUser(t, ctx, s, "b", models.SchoolX, "go")
	newUser(t, ctx, s, "c", models.SchoolHEC, "go", "sql", "figma")
	tm := newTeam(t, ctx, s, "c", models.ProjectWebsite)
	is.NoErr(s.ClaimTeam(ctx, "c", tm.ID, true))

	ids := func(us []models.User) map[string]bool {
		m := map[string]bool{}
		for _, u := range us {
			m[u.ID] = true
		}
		return m
	}

	us, err := s.FindUsers(ctx, store.UserFilter{})
	is.NoErr(err)
	is.Equal(len(us), 3)

	us, err = s.FindUsers(ctx, store.UserFilter{School: models.SchoolX})
	is.NoErr(err)
	is.Equal(ids(us), map[string]bool{"a": true, "b": true})

	us, err = s.FindUsers(ctx, store.UserFilter{Skills: []string{"go", "sql"}})
	is.NoErr(err)
	is.Equal(ids(us), map[string]bool{"a": true, "c": true})

	hasTeam := false
	us, err = s.FindUsers(ctx, store.UserFilter{Skills: []string{"go", "sql"}, HasTeam: &hasTeam})
	is.NoErr(err)
	is.Equal(ids(us), map[string]bool{"a": true})

	hasTeam = true
	us, err = s.FindUsers(ctx, store.UserFilter{HasTeam: &hasTeam})
	is.NoErr(err)
	is.Equal(ids(us), map[string]bool{"c": true})
	is.True(us[0].IsTeamCreator)

	us, err = s.GetUsersByIDs(ctx, []string{"b", "a", "b", "missing"})
	is.NoErr(err)
	is.Equal(ids(us), map[string]bool{"a": true, "b": true})

	us, err = s.GetUsersByIDs(ctx, nil)
	is.NoErr(err)
	is.Equal(len(us), 0)
}

func TestClaimAndRelease(t *testing.T) {
	is := is.New(t)
	ctx, s := setup(t)

	newUser(t, ctx, s, "c", models.SchoolX)
	newUser(t, ctx, s, "m", models.SchoolX)
	t1 := newTeam(t, ctx, s, "c", models.ProjectSoftware)
	t2 := newTeam(t, ctx, s, "c", models.ProjectSoftware)

	is.NoErr(s.ClaimTeam(ctx, "m", t1.ID, false))
	is.True(errors.Is(s.ClaimTeam(ctx, "m", t2.ID, false), store.ErrConflict))
	is.True(errors.Is(s.ClaimTeam(ctx, "nobody", t1.ID, false), store.ErrNotFound))

	u, err := s.GetUserByID(ctx, "m")
	is.NoErr(err)
	is.Equal(*u.TeamID, t1.ID)

	is.True(errors.Is(s.ReleaseTeam(ctx, "m", t2.ID), store.ErrConflict))
	is.NoErr(s.ReleaseTeam(ctx, "m", t1.ID))
	is.True(errors.Is(s.ReleaseTeam(ctx, "m", t1.ID), store.ErrConflict))

	u, err = s.GetUserByID(ctx, "m")
	is.NoErr(err)
	is.Equal(u.TeamID, nil)
}

func TestConcurrentClaim(t *testing.T) {
	is := is.New(t)
	ctx, s := setup(t)

	newUser(t, ctx, s, "c", models.SchoolX)
	newUser(t, ctx, s, "u", models.SchoolX)
	var teams []models.Team
	for i := 0; i < 4; i++ {
		teams = append(teams, newTeam(t, ctx, s, "c", models.ProjectSoftware))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(teams))
	for i, tm := range teams {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			errs[i] = s.ClaimTeam(ctx, "u", id, false)
		}(i, tm.ID)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			is.True(errors.Is(err, store.ErrConflict))
		}
	}
	is.Equal(ok, 1)
}

func TestTeams(t *testing.T) {
	is := is.New(t)
	ctx, s := setup(t)

	newUser(t, ctx, s, "c", models.SchoolX)
	tm := newTeam(t, ctx, s, "c", models.ProjectMobileApp, "designer", "backend")
	is.Equal(tm.Version, int64(1))
	is.Equal(tm.LookingFor, []string{"backend", "designer"})
	is.Equal(len(tm.Members), 1)
	is.Equal(*tm.Members[0].UserID, "c")

	got, err := s.GetTeamByID(ctx, tm.ID)
	is.NoErr(err)
	is.Equal(got.Name, tm.Name)
	is.Equal(got.Members[0].Role, models.RoleProjectLead)

	_, err = s.GetTeamByID(ctx, 999)
	is.True(errors.Is(err, store.ErrNotFound))

	stale := got
	got.Members = got.Members.With(models.Member{Name: "Manual", Role: "Designer", JoinedAt: time.Now().UTC()})
	got.LookingFor = []string{"backend"}
	updated, err := s.UpdateTeam(ctx, got)
	is.NoErr(err)
	is.Equal(updated.Version, int64(2))
	is.Equal(len(updated.Members), 2)
	is.Equal(updated.LookingFor, []string{"backend"})

	// A write based on the old version is rejected.
	stale.Name = "stale"
	_, err = s.UpdateTeam(ctx, stale)
	is.True(errors.Is(err, store.ErrConflict))
	got, err = s.GetTeamByID(ctx, tm.ID)
	is.NoErr(err)
	is.Equal(got.Name, tm.Name)
	is.Equal(got.LookingFor, []string{"backend"})

	_, err = s.UpdateTeam(ctx, models.Team{ID: 999, Version: 1, MaxMembers: 1})
	is.True(errors.Is(err, store.ErrNotFound))
}

func TestFindTeams(t *testing.T) {
	is := is.New(t)
	ctx, s := setup(t)

	newUser(t, ctx, s, "a", models.SchoolX)
	newUser(t, ctx, s, "b", models.SchoolX)
	ta := newTeam(t, ctx, s, "a", models.ProjectWebsite, "designer", "backend")
	tb := newTeam(t, ctx, s, "b", models.ProjectWebsite, "designer")
	newTeam(t, ctx, s, "b", models.ProjectSoftware, "backend")

	teams, err := s.FindTeams(ctx, store.TeamFilter{})
	is.NoErr(err)
	is.Equal(len(teams), 3)

	teams, err = s.FindTeams(ctx, store.TeamFilter{ProjectType: models.ProjectWebsite})
	is.NoErr(err)
	is.Equal(len(teams), 2)

	teams, err = s.FindTeams(ctx, store.TeamFilter{LookingFor: []string{"designer", "backend"}})
	is.NoErr(err)
	is.Equal(len(teams), 1)
	is.Equal(teams[0].ID, ta.ID)

	teams, err = s.FindTeams(ctx, store.TeamFilter{ProjectType: models.ProjectWebsite, CreatorID: "b"})
	is.NoErr(err)
	is.Equal(len(teams), 1)
	is.Equal(teams[0].ID, tb.ID)

	teams, err = s.FindTeams(ctx, store.TeamFilter{MaxMembers: 4})
	is.NoErr(err)
	is.Equal(len(teams), 0)
}

func TestDeleteTeam(t *testing.T) {
	is := is.New(t)
	ctx, s := setup(t)

	newUser(t, ctx, s, "c", models.SchoolX)
	newUser(t, ctx, s, "u", models.SchoolX)
	tm := newTeam(t, ctx, s, "c", models.ProjectSoftware, "backend")
	_, err := s.CreateInteraction(ctx, models.Interaction{
		Type:           models.InteractionApplication,
		SenderID:       "u",
		ReceiverID:     "c",
		TeamInvolvedID: tm.ID,
	})
	is.NoErr(err)

	is.True(errors.Is(s.DeleteTeam(ctx, tm.ID, tm.Version+1), store.ErrConflict))

	// An affiliated user blocks the delete.
	is.NoErr(s.ClaimTeam(ctx, "c", tm.ID, true))
	is.True(errors.Is(s.DeleteTeam(ctx, tm.ID, tm.Version), store.ErrConflict))
	is.NoErr(s.ReleaseTeam(ctx, "c", tm.ID))

	is.NoErr(s.DeleteTeam(ctx, tm.ID, tm.Version))
	_, err = s.GetTeamByID(ctx, tm.ID)
	is.True(errors.Is(err, store.ErrNotFound))
	is.True(errors.Is(s.DeleteTeam(ctx, tm.ID, tm.Version), store.ErrNotFound))

	is2, err := s.FindInteractions(ctx, store.InteractionFilter{TeamID: tm.ID})
	is.NoErr(err)
	is.Equal(len(is2), 0)
}

func TestInteractions(t *testing.T) {
	is := is.New(t)
	ctx, s := setup(t)

	newUser(t, ctx, s, "c", models.SchoolX)
	newUser(t, ctx, s, "u", models.SchoolX)
	tm := newTeam(t, ctx, s, "c", models.ProjectSoftware)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	app := models.Interaction{
		Type:           models.InteractionApplication,
		SenderID:       "u",
		ReceiverID:     "c",
		TeamInvolvedID: tm.ID,
		Message:        strp("let me in"),
		CreatedAt:      base,
	}
	created, err := s.CreateInteraction(ctx, app)
	is.NoErr(err)
	is.True(created.ID > 0)
	is.Equal(created.Status, models.StatusPending)

	_, err = s.CreateInteraction(ctx, app)
	is.True(errors.Is(err, store.ErrDuplicate))

	invite, err := s.CreateInteraction(ctx, models.Interaction{
		Type:           models.InteractionInvite,
		SenderID:       "c",
		ReceiverID:     "u",
		TeamInvolvedID: tm.ID,
		CreatedAt:      base.Add(time.Minute),
	})
	is.NoErr(err)

	got, err := s.GetInteractionByID(ctx, created.ID)
	is.NoErr(err)
	is.Equal(*got.Message, "let me in")
	is.True(got.CreatedAt.Equal(base))
	is.Equal(got.AnswerAt, nil)

	list, err := s.FindInteractions(ctx, store.InteractionFilter{TeamID: tm.ID, Status: models.StatusPending})
	is.NoErr(err)
	is.Equal(len(list), 2)
	is.Equal(list[0].ID, invite.ID) // newest first

	list, err = s.FindInteractions(ctx, store.InteractionFilter{Type: models.InteractionApplication, ReceiverID: "c"})
	is.NoErr(err)
	is.Equal(len(list), 1)

	at := base.Add(time.Hour)
	is.NoErr(s.AnswerInteraction(ctx, created.ID, models.StatusRejected, at))
	is.True(errors.Is(s.AnswerInteraction(ctx, created.ID, models.StatusAccepted, at), store.ErrConflict))
	is.True(errors.Is(s.AnswerInteraction(ctx, 999, models.StatusAccepted, at), store.ErrNotFound))

	got, err = s.GetInteractionByID(ctx, created.ID)
	is.NoErr(err)
	is.Equal(got.Status, models.StatusRejected)
	is.True(got.AnswerAt.Equal(at))

	// Once answered, a new application may be sent.
	_, err = s.CreateInteraction(ctx, app)
	is.NoErr(err)
}
