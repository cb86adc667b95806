package badger

import (
	"context"
	"errors"

	"linklist-backend/domain/core/entities"
	pkgerrors "linklist-backend/pkg/errors"

	"github.com/dgraph-io/badger/v4"
)

func notificationKey(id string) string { return "notification/" + id }

func recipientIndexPrefix(userID string) string {
	return "idx/notification-user/" + userID + "/"
}

// NotificationRepository implements ports.NotificationRepository
type NotificationRepository struct {
	store *Store
}

// NewNotificationRepository creates a notification repository on store
func NewNotificationRepository(store *Store) *NotificationRepository {
	return &NotificationRepository{store: store}
}

func (r *NotificationRepository) Create(ctx context.Context, n *entities.Notification) error {
	return r.store.update(ctx, "CreateNotification", func(txn *badger.Txn) error {
		if err := setJSON(txn, notificationKey(n.ID()), toNotificationRecord(n)); err != nil {
			return err
		}
		return txn.Set([]byte(recipientIndexPrefix(n.RecipientID())+n.ID()), nil)
	})
}

func (r *NotificationRepository) Get(ctx context.Context, notificationID string) (*entities.Notification, error) {
	var n *entities.Notification
	err := r.store.view(ctx, "GetNotification", func(txn *badger.Txn) error {
		var err error
		n, err = loadNotification(txn, notificationID)
		return err
	})
	return n, err
}

func loadNotification(txn *badger.Txn, id string) (*entities.Notification, error) {
	var rec notificationRecord
	err := getJSON(txn, notificationKey(id), &rec)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, pkgerrors.NewNotFoundError("notification")
	}
	if err != nil {
		return nil, err
	}
	return rec.toEntity()
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, userID string) ([]*entities.Notification, error) {
	var out []*entities.Notification
	err := r.store.view(ctx, "ListNotifications", func(txn *badger.Txn) error {
		for _, id := range scanKeys(txn, recipientIndexPrefix(userID)) {
			n, err := loadNotification(txn, id)
			if pkgerrors.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update persists the read flag of an existing notification
func (r *NotificationRepository) Update(ctx context.Context, n *entities.Notification) error {
	key := notificationKey(n.ID())
	return r.store.update(ctx, "UpdateNotification", func(txn *badger.Txn) error {
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		if !found {
			return pkgerrors.NewNotFoundError("notification")
		}
		return setJSON(txn, key, toNotificationRecord(n))
	})
}
