package models

import "time"

// InteractionType tells invitations and applications apart.
type InteractionType string

// Interaction types.
const (
	InteractionInvite      InteractionType = "team_invite"
	InteractionApplication InteractionType = "team_application"
)

// InteractionStatus is the state of an interaction. Accepted and rejected
// are terminal.
type InteractionStatus string

// Interaction statuses.
const (
	StatusPending  InteractionStatus = "pending"
	StatusAccepted InteractionStatus = "accepted"
	StatusRejected InteractionStatus = "rejected"
)

// Terminal reports whether no transition leaves s.
func (s InteractionStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Interaction is an invitation from a team creator to a user, or an
// application from a user to a team.
type Interaction struct {
	ID             int64             `db:"id" json:"id"`
	Type           InteractionType   `db:"type" json:"type"`
	Status         InteractionStatus `db:"status" json:"status"`
	SenderID       string            `db:"sender_id" json:"sender_id"`
	ReceiverID     string            `db:"receiver_id" json:"receiver_id"`
	TeamInvolvedID int64             `db:"team_involved_id" json:"team_involved_id"`
	Message        *string           `db:"message" json:"message,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	AnswerAt       *time.Time        `db:"answer_at" json:"answer_at,omitempty"`
}
