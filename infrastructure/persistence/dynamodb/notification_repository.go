package dynamodb

import (
	"context"

	"linklist-backend/domain/core/entities"
	pkgerrors "linklist-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// NotificationRepository implements ports.NotificationRepository
type NotificationRepository struct {
	store *Store
}

// NewNotificationRepository creates a notification repository on store
func NewNotificationRepository(store *Store) *NotificationRepository {
	return &NotificationRepository{store: store}
}

func (r *NotificationRepository) Create(ctx context.Context, n *entities.Notification) error {
	item, err := attributevalue.MarshalMap(toNotificationItem(n))
	if err != nil {
		return pkgerrors.NewDatabaseError("CreateNotification", err)
	}
	_, err = r.store.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.store.table.TableName),
		Item:      item,
	})
	if err != nil {
		return r.store.mapError("CreateNotification", err)
	}
	return nil
}

func (r *NotificationRepository) Get(ctx context.Context, notificationID string) (*entities.Notification, error) {
	var item notificationItem
	found, err := r.store.getItem(ctx, "GetNotification", key(notificationPK(notificationID), metadataSK), &item)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pkgerrors.NewNotFoundError("notification")
	}
	return item.toEntity()
}

// ListByRecipient returns all of a user's notifications, newest first
func (r *NotificationRepository) ListByRecipient(ctx context.Context, userID string) ([]*entities.Notification, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(recipientGSI1PK(userID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("ListNotifications", err)
	}

	notifications := []*entities.Notification{}
	err = r.store.queryAll(ctx, "ListNotifications", &dynamodb.QueryInput{
		TableName:                 aws.String(r.store.table.TableName),
		IndexName:                 aws.String(r.store.table.GSI1Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}, func(av map[string]types.AttributeValue) error {
		var item notificationItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return err
		}
		n, err := item.toEntity()
		if err != nil {
			return err
		}
		notifications = append(notifications, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// Update persists the read flag, the only mutable field
func (r *NotificationRepository) Update(ctx context.Context, n *entities.Notification) error {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("Read"), expression.Value(n.IsRead()))).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return pkgerrors.NewDatabaseError("UpdateNotification", err)
	}

	_, err = r.store.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.store.table.TableName),
		Key:                       key(notificationPK(n.ID()), metadataSK),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionalCheckFailed(err) {
		return pkgerrors.NewNotFoundError("notification")
	}
	if err != nil {
		return r.store.mapError("UpdateNotification", err)
	}
	return nil
}
