package backend

import (
	"errors"

	"github.com/rgeron/next-hackaton/pkg/proto"
	"github.com/rgeron/next-hackaton/pkg/store"
)

// storeError classifies a store error. Missing records become notFound,
// everything else a store failure.
func storeError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) && notFound != nil {
		return notFound
	}
	return proto.StoreFailure(err)
}
