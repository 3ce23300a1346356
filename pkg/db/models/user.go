package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// School is the school a student is enrolled in.
type School string

// Schools accepted on a profile.
const (
	SchoolX        School = "X"
	SchoolHEC      School = "HEC"
	SchoolENSAE    School = "ENSAE"
	SchoolCentrale School = "Centrale"
	SchoolENSTA    School = "ENSTA"
)

// Schools returns every accepted school.
func Schools() []School {
	return []School{SchoolX, SchoolHEC, SchoolENSAE, SchoolCentrale, SchoolENSTA}
}

// Valid reports whether s is an accepted school.
func (s School) Valid() bool {
	for _, v := range Schools() {
		if s == v {
			return true
		}
	}
	return false
}

// Links are the contact links shown on a profile.
type Links struct {
	GitHub   string `json:"github,omitempty" validate:"omitempty,url,max=300"`
	LinkedIn string `json:"linkedin,omitempty" validate:"omitempty,url,max=300"`
}

// Scan implements sql.Scanner.
func (l *Links) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Value implements driver.Valuer.
func (l Links) Value() (driver.Value, error) {
	b, err := json.Marshal(l)
	return string(b), err
}

// User represents a student profile.
//
// TeamID is the single affiliation record: a user has a team if and only if
// TeamID is set.
type User struct {
	ID            string    `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	FullName      string    `db:"full_name" json:"full_name"`
	School        School    `db:"school" json:"school"`
	Bio           *string   `db:"bio" json:"bio,omitempty"`
	PhoneNumber   *string   `db:"phone_number" json:"phone_number,omitempty"`
	Skills        []string  `db:"-" json:"skills"`
	Links         Links     `db:"links" json:"links"`
	TeamID        *int64    `db:"team_id" json:"team_id,omitempty"`
	IsTeamCreator bool      `db:"is_team_creator" json:"is_team_creator"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// HasTeam reports whether the user is affiliated with a team.
func (u User) HasTeam() bool {
	return u.TeamID != nil
}

func scanJSON(src interface{}, v interface{}) error {
	switch src := src.(type) {
	case nil:
		return nil
	case string:
		return json.Unmarshal([]byte(src), v)
	case []byte:
		return json.Unmarshal(src, v)
	default:
		return fmt.Errorf("unsupported type %T", src)
	}
}
