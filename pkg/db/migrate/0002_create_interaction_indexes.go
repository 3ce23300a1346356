package migrate

import (
	"context"

	"github.com/rgeron/next-hackaton/pkg/db"
)

const (
	createInteractionIndexesName    = "create interaction indexes"
	createInteractionIndexesVersion = 2
)

// createInteractionIndexes adds the partial unique index that allows a single
// pending interaction per (type, team, sender, receiver), plus the lookup
// indexes used by the application and invitation listings.
var createInteractionIndexes = Migration{
	Version: createInteractionIndexesVersion,
	Name:    createInteractionIndexesName,
	Migrate: func(ctx context.Context, tx *db.Tx) error {
		return migrateUp(ctx, tx, createInteractionIndexesVersion, createInteractionIndexesName)
	},
	Rollback: func(ctx context.Context, tx *db.Tx) error {
		return migrateDown(ctx, tx, createInteractionIndexesVersion, createInteractionIndexesName)
	},
}
