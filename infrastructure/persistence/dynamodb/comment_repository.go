package dynamodb

import (
	"context"

	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/core/valueobjects"
	pkgerrors "linklist-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// CommentRepository implements ports.CommentRepository
type CommentRepository struct {
	store *Store
}

// NewCommentRepository creates a comment repository on store
func NewCommentRepository(store *Store) *CommentRepository {
	return &CommentRepository{store: store}
}

// CreateTopLevel writes the comment and its (entity, user) guard in one
// transaction. The guard's attribute_not_exists condition enforces one
// top-level comment per user and entity.
func (r *CommentRepository) CreateTopLevel(ctx context.Context, comment *entities.Comment) error {
	commentAV, err := attributevalue.MarshalMap(toCommentItem(comment))
	if err != nil {
		return pkgerrors.NewDatabaseError("CreateTopLevel", err)
	}
	guardAV, err := attributevalue.MarshalMap(guardItem{
		PK:        topGuardPK(comment.Ref()),
		SK:        userSK(comment.UserID()),
		CommentID: comment.ID(),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("CreateTopLevel", err)
	}

	table := aws.String(r.store.table.TableName)
	notExists := aws.String("attribute_not_exists(PK)")
	_, err = r.store.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{TableName: table, Item: guardAV, ConditionExpression: notExists}},
			{Put: &types.Put{TableName: table, Item: commentAV, ConditionExpression: notExists}},
		},
	})
	if isTransactionConditionFailed(err) {
		return pkgerrors.NewDuplicatePostError("top-level comment already exists")
	}
	if err != nil {
		return r.store.mapError("CreateTopLevel", err)
	}
	return nil
}

func (r *CommentRepository) CreateReply(ctx context.Context, reply *entities.Comment) error {
	return r.put(ctx, "CreateReply", reply)
}

func (r *CommentRepository) put(ctx context.Context, op string, c *entities.Comment) error {
	item, err := attributevalue.MarshalMap(toCommentItem(c))
	if err != nil {
		return pkgerrors.NewDatabaseError(op, err)
	}
	_, err = r.store.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.store.table.TableName),
		Item:      item,
	})
	if err != nil {
		return r.store.mapError(op, err)
	}
	return nil
}

func (r *CommentRepository) GetComment(ctx context.Context, commentID string) (*entities.Comment, error) {
	var item commentItem
	found, err := r.store.getItem(ctx, "GetComment", key(commentPK(commentID), metadataSK), &item)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pkgerrors.NewNotFoundError("comment")
	}
	return item.toEntity()
}

// UpdateComment writes content and updatedAt of an existing comment
func (r *CommentRepository) UpdateComment(ctx context.Context, comment *entities.Comment) error {
	update := expression.Set(expression.Name("Content"), expression.Value(comment.Content())).
		Set(expression.Name("UpdatedAt"), expression.Value(formatTime(comment.UpdatedAt())))
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return pkgerrors.NewDatabaseError("UpdateComment", err)
	}

	_, err = r.store.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.store.table.TableName),
		Key:                       key(commentPK(comment.ID()), metadataSK),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionalCheckFailed(err) {
		return pkgerrors.NewNotFoundError("comment")
	}
	if err != nil {
		return r.store.mapError("UpdateComment", err)
	}
	return nil
}

// DeleteComment removes a comment. A top-level comment is removed together
// with its guard so the author may post again.
func (r *CommentRepository) DeleteComment(ctx context.Context, comment *entities.Comment) error {
	table := aws.String(r.store.table.TableName)
	if !comment.IsTopLevel() {
		_, err := r.store.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: table,
			Key:       key(commentPK(comment.ID()), metadataSK),
		})
		if err != nil {
			return r.store.mapError("DeleteComment", err)
		}
		return nil
	}

	_, err := r.store.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{TableName: table, Key: key(commentPK(comment.ID()), metadataSK)}},
			{Delete: &types.Delete{TableName: table, Key: key(topGuardPK(comment.Ref()), userSK(comment.UserID()))}},
		},
	})
	if err != nil {
		return r.store.mapError("DeleteComment", err)
	}
	return nil
}

func (r *CommentRepository) ListByEntity(ctx context.Context, ref valueobjects.EntityRef) ([]*entities.Comment, error) {
	return r.listIndexed(ctx, "ListByEntity", r.store.table.GSI1Name, "GSI1PK", entityGSI1PK(ref))
}

func (r *CommentRepository) ListReplies(ctx context.Context, parentID string) ([]*entities.Comment, error) {
	return r.listIndexed(ctx, "ListReplies", r.store.table.GSI2Name, "GSI2PK", parentGSI2PK(parentID))
}

func (r *CommentRepository) listIndexed(ctx context.Context, op, index, attr, value string) ([]*entities.Comment, error) {
	keyCond := expression.Key(attr).Equal(expression.Value(value))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError(op, err)
	}

	comments := []*entities.Comment{}
	err = r.store.queryAll(ctx, op, &dynamodb.QueryInput{
		TableName:                 aws.String(r.store.table.TableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, func(av map[string]types.AttributeValue) error {
		var item commentItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return err
		}
		c, err := item.toEntity()
		if err != nil {
			return err
		}
		comments = append(comments, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}
