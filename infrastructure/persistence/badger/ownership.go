package badger

import (
	"context"
	"errors"

	"linklist-backend/domain/core/valueobjects"

	"github.com/dgraph-io/badger/v4"
)

// OwnershipLookup resolves entity owners from owner/<TYPE>/<id> keys. The
// keys are written by SetOwner, standing in for the list and link tables
// in local runs.
type OwnershipLookup struct {
	store *Store
}

// NewOwnershipLookup creates an ownership lookup on store
func NewOwnershipLookup(store *Store) *OwnershipLookup {
	return &OwnershipLookup{store: store}
}

func ownerKey(ref valueobjects.EntityRef) string {
	return "owner/" + string(ref.Type()) + "/" + ref.ID()
}

func (o *OwnershipLookup) OwnerOf(ctx context.Context, ref valueobjects.EntityRef) (string, error) {
	var owner string
	err := o.store.view(ctx, "OwnerOf", func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(ownerKey(ref)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		owner = string(val)
		return nil
	})
	return owner, err
}

// SetOwner records userID as the owner of ref
func (o *OwnershipLookup) SetOwner(ctx context.Context, ref valueobjects.EntityRef, userID string) error {
	return o.store.update(ctx, "SetOwner", func(txn *badger.Txn) error {
		return txn.Set([]byte(ownerKey(ref)), []byte(userID))
	})
}
