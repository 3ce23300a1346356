// Package database implements store.Store on top of a SQL database.
package database

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/rgeron/next-hackaton/pkg/db"
	"github.com/rgeron/next-hackaton/pkg/store"
)

type datastore struct {
	db     *db.DB
	logger *log.Logger

	*userStore
	*teamStore
	*interactionStore
}

var _ store.Store = (*datastore)(nil)

// New returns a new store.Store database.
func New(ctx context.Context, dbx *db.DB) store.Store {
	logger := log.FromContext(ctx).WithPrefix("store")

	s := &datastore{
		db:     dbx,
		logger: logger,

		userStore:        &userStore{dbx},
		teamStore:        &teamStore{dbx, logger},
		interactionStore: &interactionStore{dbx},
	}

	return s
}

// storeError translates database errors into store errors.
// A foreign key violation means a row the write depends on changed, so it
// is reported as a conflict.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	err = db.WrapError(err)
	switch {
	case errors.Is(err, db.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, db.ErrDuplicateKey):
		return store.ErrDuplicate
	case errors.Is(err, db.ErrForeignKey):
		return store.ErrConflict
	}
	return err
}

// conditionalResult maps a conditional write that affected no rows to
// store.ErrConflict when the row still exists, and store.ErrNotFound
// otherwise.
func conditionalResult(ctx context.Context, h db.Handler, affected int64, table string, id interface{}) error {
	if affected > 0 {
		return nil
	}
	var n int
	query := h.Rebind(`SELECT COUNT(*) FROM ` + table + ` WHERE id = ?`)
	if err := h.GetContext(ctx, &n, query, id); err != nil {
		return storeError(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

// conds accumulates WHERE clauses and their arguments.
type conds struct {
	clauses []string
	args    []interface{}
}

func (c *conds) add(clause string, args ...interface{}) {
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, args...)
}

func (c *conds) String() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// distinct returns the non-empty unique values of s in their original order.
func distinct(s []string) []string {
	seen := make(map[string]struct{}, len(s))
	out := make([]string, 0, len(s))
	for _, v := range s {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
