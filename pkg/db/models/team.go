package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// ProjectType is the kind of project a team builds.
type ProjectType string

// Project types a team can pick.
const (
	ProjectPhysicalProduct ProjectType = "physical product"
	ProjectWebsite         ProjectType = "website"
	ProjectMobileApp       ProjectType = "mobile app"
	ProjectSoftware        ProjectType = "software"
)

// ProjectTypes returns every project type.
func ProjectTypes() []ProjectType {
	return []ProjectType{ProjectPhysicalProduct, ProjectWebsite, ProjectMobileApp, ProjectSoftware}
}

// Valid reports whether p is a known project type.
func (p ProjectType) Valid() bool {
	for _, v := range ProjectTypes() {
		if p == v {
			return true
		}
	}
	return false
}

// RoleProjectLead is the role held by a team creator.
const RoleProjectLead = "Project Lead"

// Member is one entry of a team roster. Registered members reference a user,
// manual members are placeholders with a name only.
type Member struct {
	UserID       *string   `json:"user_id,omitempty"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	JoinedAt     time.Time `json:"joined_at"`
	IsRegistered bool      `json:"is_registered"`
}

// Roster is the ordered member list of a team.
type Roster []Member

// Scan implements sql.Scanner.
func (r *Roster) Scan(src interface{}) error {
	return scanJSON(src, r)
}

// Value implements driver.Valuer.
func (r Roster) Value() (driver.Value, error) {
	if r == nil {
		r = Roster{}
	}
	b, err := json.Marshal(r)
	return string(b), err
}

// IndexOf returns the position of the registered member with the given user
// id, or -1.
func (r Roster) IndexOf(userID string) int {
	for i, m := range r {
		if m.IsRegistered && m.UserID != nil && *m.UserID == userID {
			return i
		}
	}
	return -1
}

// Contains reports whether userID is a registered member.
func (r Roster) Contains(userID string) bool {
	return r.IndexOf(userID) >= 0
}

// RegisteredIDs returns the user ids of every registered member in roster
// order.
func (r Roster) RegisteredIDs() []string {
	ids := make([]string, 0, len(r))
	for _, m := range r {
		if m.IsRegistered && m.UserID != nil {
			ids = append(ids, *m.UserID)
		}
	}
	return ids
}

// Without returns a copy of the roster without the entry at index i.
func (r Roster) Without(i int) Roster {
	out := make(Roster, 0, len(r))
	out = append(out, r[:i]...)
	return append(out, r[i+1:]...)
}

// With returns a copy of the roster with m appended.
func (r Roster) With(m Member) Roster {
	out := make(Roster, 0, len(r)+1)
	out = append(out, r...)
	return append(out, m)
}

// Team represents a hackathon team.
//
// Version is bumped on every write and is used as the optimistic concurrency
// token for roster changes.
type Team struct {
	ID          int64       `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	Description *string     `db:"description" json:"description,omitempty"`
	ProjectType ProjectType `db:"project_type" json:"project_type"`
	LookingFor  []string    `db:"-" json:"looking_for"`
	MaxMembers  int         `db:"max_members" json:"max_members"`
	CreatorID   string      `db:"creator_id" json:"creator_id"`
	Members     Roster      `db:"members" json:"members"`
	Version     int64       `db:"version" json:"version"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// IsFull reports whether the roster reached the team capacity.
func (t Team) IsFull() bool {
	return len(t.Members) >= t.MaxMembers
}
