package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rgeron/next-hackaton/pkg/backend"
	"github.com/rgeron/next-hackaton/pkg/db/models"
	"github.com/rgeron/next-hackaton/pkg/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// APIController registers the team membership routes.
func APIController(_ context.Context, r *mux.Router) {
	// Routes are registered on r with full paths. A PathPrefix subrouter
	// reports method mismatches as 404 since its prefix matcher clears them.
	r.HandleFunc("/api/profile", getProfile).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", createProfile).Methods(http.MethodPost)
	r.HandleFunc("/api/profile", updateProfile).Methods(http.MethodPut)
	r.HandleFunc("/api/users", getUsers).Methods(http.MethodGet)

	r.HandleFunc("/api/teams", getTeams).Methods(http.MethodGet)
	r.HandleFunc("/api/teams", createTeam).Methods(http.MethodPost)
	r.HandleFunc("/api/teams/{id:[0-9]+}", getTeam).Methods(http.MethodGet)
	r.HandleFunc("/api/teams/{id:[0-9]+}", updateTeam).Methods(http.MethodPatch)
	r.HandleFunc("/api/teams/{id:[0-9]+}", deleteTeam).Methods(http.MethodDelete)
	r.HandleFunc("/api/teams/{id:[0-9]+}/leave", leaveTeam).Methods(http.MethodPost)
	r.HandleFunc("/api/teams/{id:[0-9]+}/members", addMember).Methods(http.MethodPost)
	r.HandleFunc("/api/teams/{id:[0-9]+}/members/{index:[0-9]+}", removeMember).Methods(http.MethodDelete)
	r.HandleFunc("/api/teams/{id:[0-9]+}/applications", withRateLimit("apply", applyToTeam)).Methods(http.MethodPost)
	r.HandleFunc("/api/teams/{id:[0-9]+}/applications", getApplications).Methods(http.MethodGet)
	r.HandleFunc("/api/teams/{id:[0-9]+}/invites", withRateLimit("invite", inviteToTeam)).Methods(http.MethodPost)

	r.HandleFunc("/api/me/team", getMyTeam).Methods(http.MethodGet)
	r.HandleFunc("/api/me/invites", getMyInvites).Methods(http.MethodGet)
	r.HandleFunc("/api/me/creator", getIsCreator).Methods(http.MethodGet)

	r.HandleFunc("/api/interactions/{id:[0-9]+}/respond", respond).Methods(http.MethodPost)
}

// decode reads the JSON body of r into v. It renders a bad request and
// returns false on failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		renderBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// pathID returns the numeric path variable name.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		renderBadRequest(w, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// queryList returns the values of a query parameter given either repeated or
// comma separated.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	u, err := be.GetUserProfile(ctx, r.URL.Query().Get("id"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, u)
}

type createProfileRequest struct {
	Email string `json:"email"`
}

func createProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	var req createProfileRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := be.CreateUserProfile(ctx, req.Email)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, u)
}

func updateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	var opts backend.ProfileOptions
	if !decode(w, r, &opts) {
		return
	}
	u, err := be.UpdateUserProfile(ctx, opts)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, u)
}

func getUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	q := r.URL.Query()

	var (
		users []models.User
		err   error
	)
	if ids := queryList(r, "ids"); len(ids) > 0 {
		users, err = be.GetUsersByIDs(ctx, ids)
	} else {
		filter := store.UserFilter{
			School: models.School(q.Get("school")),
			Skills: queryList(r, "skills"),
		}
		if v := q.Get("has_team"); v != "" {
			has, perr := strconv.ParseBool(v)
			if perr != nil {
				renderBadRequest(w, "Invalid has_team")
				return
			}
			filter.HasTeam = &has
		}
		users, err = be.GetUsers(ctx, filter)
	}
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, users)
}

func getTeams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	q := r.URL.Query()

	filter := store.TeamFilter{
		ProjectType: models.ProjectType(q.Get("project_type")),
		LookingFor:  queryList(r, "looking_for"),
		CreatorID:   q.Get("creator_id"),
	}
	if v := q.Get("max_members"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			renderBadRequest(w, "Invalid max_members")
			return
		}
		filter.MaxMembers = n
	}
	teams, err := be.GetTeams(ctx, filter)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, teams)
}

func createTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	var opts backend.TeamOptions
	if !decode(w, r, &opts) {
		return
	}
	t, err := be.CreateTeam(ctx, opts)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusCreated, t)
}

func getTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := be.GetTeam(ctx, id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, t)
}

func updateTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var patch backend.TeamPatch
	if !decode(w, r, &patch) {
		return
	}
	t, err := be.UpdateTeam(ctx, id, patch)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, t)
}

type successResponse struct {
	Success bool `json:"success"`
}

func deleteTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := be.DeleteTeam(ctx, id); err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, successResponse{Success: true})
}

func leaveTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := be.LeaveTeam(ctx, id); err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, successResponse{Success: true})
}

func addMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var m backend.ManualMember
	if !decode(w, r, &m) {
		return
	}
	t, err := be.AddManualMember(ctx, id, m)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, t)
}

func removeMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	index, ok := pathID(w, r, "index")
	if !ok {
		return
	}
	t, err := be.RemoveManualMember(ctx, id, int(index))
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, t)
}

type messageRequest struct {
	Message *string `json:"message"`
}

func applyToTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req messageRequest
	if !decode(w, r, &req) {
		return
	}
	i, err := be.ApplyToTeam(ctx, id, req.Message)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusCreated, i)
}

func getApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	apps, err := be.FetchTeamApplications(ctx, id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, apps)
}

type inviteRequest struct {
	UserID  string  `json:"user_id"`
	Message *string `json:"message"`
}

func inviteToTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req inviteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		renderBadRequest(w, "Invalid user_id")
		return
	}
	i, err := be.InviteToTeam(ctx, id, req.UserID, req.Message)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusCreated, i)
}

func getMyTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	t, err := be.GetUserTeam(ctx)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, t)
}

func getMyInvites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	invites, err := be.FetchUserInvites(ctx)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, invites)
}

type creatorResponse struct {
	IsTeamCreator bool `json:"is_team_creator"`
}

func getIsCreator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	creator, err := be.IsTeamCreator(ctx)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, creatorResponse{IsTeamCreator: creator})
}

type respondRequest struct {
	Accept *bool `json:"accept"`
}

func respond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req respondRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Accept == nil {
		renderBadRequest(w, "Invalid accept")
		return
	}
	i, err := be.RespondToInteraction(ctx, id, *req.Accept)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderData(w, http.StatusOK, i)
}
