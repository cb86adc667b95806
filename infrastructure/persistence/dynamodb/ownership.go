package dynamodb

import (
	"context"

	"linklist-backend/domain/core/valueobjects"
)

// OwnershipLookup reads the owner of a list or link from the entity items
// maintained by the rest of the backend.
type OwnershipLookup struct {
	store *Store
}

// NewOwnershipLookup creates an ownership lookup on store
func NewOwnershipLookup(store *Store) *OwnershipLookup {
	return &OwnershipLookup{store: store}
}

type entityOwnerItem struct {
	UserID  string `dynamodbav:"UserID"`
	OwnerID string `dynamodbav:"OwnerID"`
}

// OwnerOf returns "" when the entity is unknown
func (o *OwnershipLookup) OwnerOf(ctx context.Context, ref valueobjects.EntityRef) (string, error) {
	var item entityOwnerItem
	pk := string(ref.Type()) + "#" + ref.ID()
	found, err := o.store.getItem(ctx, "OwnerOf", key(pk, metadataSK), &item)
	if err != nil || !found {
		return "", err
	}
	if item.OwnerID != "" {
		return item.OwnerID, nil
	}
	return item.UserID, nil
}
