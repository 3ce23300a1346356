package database

import (
	"context"
	"time"

	"github.com/rgeron/next-hackaton/pkg/db"
	"github.com/rgeron/next-hackaton/pkg/db/models"
	"github.com/rgeron/next-hackaton/pkg/store"
)

type interactionStore struct {
	db *db.DB
}

var _ store.InteractionStore = (*interactionStore)(nil)

// CreateInteraction implements store.InteractionStore.
func (s *interactionStore) CreateInteraction(ctx context.Context, i models.Interaction) (models.Interaction, error) {
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	i.Status = models.StatusPending
	i.AnswerAt = nil

	query := s.db.Rebind(`INSERT INTO interactions (type, status, sender_id, receiver_id, team_involved_id, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id;`)
	if err := s.db.GetContext(ctx, &i.ID, query,
		i.Type, i.Status, i.SenderID, i.ReceiverID, i.TeamInvolvedID, i.Message, i.CreatedAt,
	); err != nil {
		return models.Interaction{}, storeError(err)
	}
	return i, nil
}

// GetInteractionByID implements store.InteractionStore.
func (s *interactionStore) GetInteractionByID(ctx context.Context, id int64) (models.Interaction, error) {
	var m models.Interaction
	query := s.db.Rebind(`SELECT * FROM interactions WHERE id = ?;`)
	if err := s.db.GetContext(ctx, &m, query, id); err != nil {
		return models.Interaction{}, storeError(err)
	}
	return m, nil
}

// FindInteractions implements store.InteractionStore.
func (s *interactionStore) FindInteractions(ctx context.Context, filter store.InteractionFilter) ([]models.Interaction, error) {
	var c conds
	if filter.Type != "" {
		c.add("type = ?", filter.Type)
	}
	if filter.Status != "" {
		c.add("status = ?", filter.Status)
	}
	if filter.TeamID != 0 {
		c.add("team_involved_id = ?", filter.TeamID)
	}
	if filter.SenderID != "" {
		c.add("sender_id = ?", filter.SenderID)
	}
	if filter.ReceiverID != "" {
		c.add("receiver_id = ?", filter.ReceiverID)
	}

	query := s.db.Rebind(`SELECT * FROM interactions` + c.String() + ` ORDER BY created_at DESC, id DESC;`)
	interactions := []models.Interaction{}
	if err := s.db.SelectContext(ctx, &interactions, query, c.args...); err != nil {
		return nil, storeError(err)
	}
	return interactions, nil
}

// AnswerInteraction implements store.InteractionStore.
func (s *interactionStore) AnswerInteraction(ctx context.Context, id int64, status models.InteractionStatus, at time.Time) error {
	query := s.db.Rebind(`UPDATE interactions SET status = ?, answer_at = ? WHERE id = ? AND status = ?;`)
	res, err := s.db.ExecContext(ctx, query, status, at, id, models.StatusPending)
	if err != nil {
		return storeError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	return conditionalResult(ctx, s.db, n, "interactions", id)
}
