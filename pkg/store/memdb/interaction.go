package memdb

import (
	"context"
	"sort"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/rgeron/next-hackaton/pkg/db/models"
	"github.com/rgeron/next-hackaton/pkg/store"
)

func cloneInteraction(i *models.Interaction) models.Interaction {
	c := *i
	if i.Message != nil {
		m := *i.Message
		c.Message = &m
	}
	if i.AnswerAt != nil {
		at := *i.AnswerAt
		c.AnswerAt = &at
	}
	return c
}

// CreateInteraction implements store.InteractionStore.
func (s *datastore) CreateInteraction(_ context.Context, i models.Interaction) (models.Interaction, error) {
	if i.CreatedAt.IsZero() {
		i.CreatedAt = s.now()
	}
	i.Status = models.StatusPending
	i.AnswerAt = nil

	err := s.write(func(txn *memdb.Txn) error {
		if _, err := first[models.Team](txn, teamsTable, pk, i.TeamInvolvedID); err != nil {
			return store.ErrConflict
		}
		for _, id := range []string{i.SenderID, i.ReceiverID} {
			if _, err := first[models.User](txn, usersTable, pk, id); err != nil {
				return store.ErrConflict
			}
		}

		rows, err := all[models.Interaction](txn, interactionsTable, "team", i.TeamInvolvedID)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if r.Status == models.StatusPending && r.Type == i.Type &&
				r.SenderID == i.SenderID && r.ReceiverID == i.ReceiverID {
				return store.ErrDuplicate
			}
		}

		i.ID = s.interactionSeq.Add(1)
		row := cloneInteraction(&i)
		return txn.Insert(interactionsTable, &row)
	})
	if err != nil {
		return models.Interaction{}, err
	}
	return i, nil
}

// GetInteractionByID implements store.InteractionStore.
func (s *datastore) GetInteractionByID(_ context.Context, id int64) (models.Interaction, error) {
	txn := s.db.Txn(false)
	i, err := first[models.Interaction](txn, interactionsTable, pk, id)
	if err != nil {
		return models.Interaction{}, err
	}
	return cloneInteraction(i), nil
}

// FindInteractions implements store.InteractionStore.
func (s *datastore) FindInteractions(_ context.Context, filter store.InteractionFilter) ([]models.Interaction, error) {
	txn := s.db.Txn(false)
	var (
		rows []*models.Interaction
		err  error
	)
	switch {
	case filter.TeamID != 0:
		rows, err = all[models.Interaction](txn, interactionsTable, "team", filter.TeamID)
	case filter.ReceiverID != "":
		rows, err = all[models.Interaction](txn, interactionsTable, "receiver", filter.ReceiverID)
	default:
		rows, err = all[models.Interaction](txn, interactionsTable, pk)
	}
	if err != nil {
		return nil, err
	}

	out := []models.Interaction{}
	for _, i := range rows {
		switch {
		case filter.Type != "" && i.Type != filter.Type,
			filter.Status != "" && i.Status != filter.Status,
			filter.TeamID != 0 && i.TeamInvolvedID != filter.TeamID,
			filter.SenderID != "" && i.SenderID != filter.SenderID,
			filter.ReceiverID != "" && i.ReceiverID != filter.ReceiverID:
			continue
		}
		out = append(out, cloneInteraction(i))
	}
	sort.SliceStable(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].ID > out[b].ID
	})
	return out, nil
}

// AnswerInteraction implements store.InteractionStore.
func (s *datastore) AnswerInteraction(_ context.Context, id int64, status models.InteractionStatus, at time.Time) error {
	return s.write(func(txn *memdb.Txn) error {
		cur, err := first[models.Interaction](txn, interactionsTable, pk, id)
		if err != nil {
			return err
		}
		if cur.Status != models.StatusPending {
			return store.ErrConflict
		}
		row := cloneInteraction(cur)
		row.Status = status
		row.AnswerAt = &at
		return txn.Insert(interactionsTable, &row)
	})
}
