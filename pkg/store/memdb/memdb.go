// Package memdb implements store.Store in memory with go-memdb. It mirrors
// the constraints of the SQL schema and is used by tests and by the serve
// command when no database is wanted.
package memdb

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/rgeron/next-hackaton/pkg/store"
)

const (
	usersTable        = "users"
	teamsTable        = "teams"
	interactionsTable = "interactions"

	pk = "id"
)

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			usersTable: {
				Name: usersTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk: {
						Name:    pk,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"email": {
						Name:    "email",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Email"},
					},
				},
			},
			teamsTable: {
				Name: teamsTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk: {
						Name:    pk,
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
					"creator": {
						Name:    "creator",
						Indexer: &memdb.StringFieldIndex{Field: "CreatorID"},
					},
				},
			},
			interactionsTable: {
				Name: interactionsTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk: {
						Name:    pk,
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
					"team": {
						Name:    "team",
						Indexer: &memdb.IntFieldIndex{Field: "TeamInvolvedID"},
					},
					"receiver": {
						Name:    "receiver",
						Indexer: &memdb.StringFieldIndex{Field: "ReceiverID"},
					},
				},
			},
		},
	}
}

type datastore struct {
	db  *memdb.MemDB
	now func() time.Time

	teamSeq        atomic.Int64
	interactionSeq atomic.Int64
}

var _ store.Store = (*datastore)(nil)

// New returns an empty in-memory store.Store.
func New() (store.Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &datastore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// write runs fn in a write transaction, committing only if fn succeeds.
// go-memdb allows a single writer at a time, which makes every conditional
// write below atomic.
func (s *datastore) write(fn func(txn *memdb.Txn) error) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := fn(txn); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func first[T any](txn *memdb.Txn, table string, index string, args ...interface{}) (*T, error) {
	raw, err := txn.First(table, index, args...)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, store.ErrNotFound
	}
	return raw.(*T), nil
}

func all[T any](txn *memdb.Txn, table string, index string, args ...interface{}) ([]*T, error) {
	it, err := txn.Get(table, index, args...)
	if err != nil {
		return nil, err
	}
	var out []*T
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*T))
	}
	return out, nil
}

func cloneStrings(s []string) []string {
	out := make([]string, 0, len(s))
	return append(out, s...)
}

// normalize mirrors the join tables of the SQL store: unique, non-empty and
// sorted.
func normalize(s []string) []string {
	seen := make(map[string]struct{}, len(s))
	out := make([]string, 0, len(s))
	for _, v := range s {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func containsAll(have []string, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, v := range have {
		set[v] = struct{}{}
	}
	for _, v := range want {
		if v == "" {
			continue
		}
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}
