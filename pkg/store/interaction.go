package store

import (
	"context"
	"time"

	"github.com/rgeron/next-hackaton/pkg/db/models"
)

// InteractionFilter narrows an interaction listing. Zero values match
// everything. Results are ordered newest first.
type InteractionFilter struct {
	Type       models.InteractionType
	Status     models.InteractionStatus
	TeamID     int64
	SenderID   string
	ReceiverID string
}

// InteractionStore is an interface for managing invitations and
// applications.
type InteractionStore interface {
	// CreateInteraction inserts a pending interaction. It returns
	// ErrDuplicate when a pending interaction with the same type, team,
	// sender and receiver already exists.
	CreateInteraction(ctx context.Context, i models.Interaction) (models.Interaction, error)
	GetInteractionByID(ctx context.Context, id int64) (models.Interaction, error)
	FindInteractions(ctx context.Context, filter InteractionFilter) ([]models.Interaction, error)
	// AnswerInteraction moves a pending interaction to status and records
	// when it was answered. It returns ErrConflict if the interaction is no
	// longer pending.
	AnswerInteraction(ctx context.Context, id int64, status models.InteractionStatus, at time.Time) error
}
