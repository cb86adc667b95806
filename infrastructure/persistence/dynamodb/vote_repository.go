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

// VoteRepository implements ports.VoteRepository. All votes on one entity
// share a partition, so ListVotes is a single-partition query.
type VoteRepository struct {
	store      *Store
	legacyScan bool
}

// NewVoteRepository creates a vote repository on store
func NewVoteRepository(store *Store) *VoteRepository {
	return &VoteRepository{store: store}
}

// WithLegacyScan makes ListVotes fall back to ScanByEntity when the entity
// partition is empty
func (r *VoteRepository) WithLegacyScan(enabled bool) *VoteRepository {
	r.legacyScan = enabled
	return r
}

func (r *VoteRepository) FindVote(ctx context.Context, ref valueobjects.EntityRef, userID string) (*entities.Vote, error) {
	var item voteItem
	found, err := r.store.getItem(ctx, "FindVote", key(votePK(ref), userSK(userID)), &item)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pkgerrors.NewNotFoundError("vote")
	}
	return item.toEntity()
}

// CreateVote puts the vote only if no vote exists for (entity, user)
func (r *VoteRepository) CreateVote(ctx context.Context, vote *entities.Vote) error {
	item, err := attributevalue.MarshalMap(toVoteItem(vote))
	if err != nil {
		return pkgerrors.NewDatabaseError("CreateVote", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return pkgerrors.NewDatabaseError("CreateVote", err)
	}

	_, err = r.store.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.store.table.TableName),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if isConditionalCheckFailed(err) {
		return pkgerrors.NewConflictError("vote already exists")
	}
	if err != nil {
		return r.store.mapError("CreateVote", err)
	}
	return nil
}

// UpdateVote rewrites rating and version if the stored version matches
func (r *VoteRepository) UpdateVote(ctx context.Context, vote *entities.Vote, expectedVersion int) error {
	update := expression.Set(expression.Name("Rating"), expression.Value(vote.Rating().Int())).
		Set(expression.Name("UpdatedAt"), expression.Value(formatTime(vote.UpdatedAt()))).
		Set(expression.Name("Version"), expression.Value(vote.Version()))
	cond := expression.Name("Version").Equal(expression.Value(expectedVersion))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return pkgerrors.NewDatabaseError("UpdateVote", err)
	}

	_, err = r.store.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.store.table.TableName),
		Key:                       key(votePK(vote.Ref()), userSK(vote.UserID())),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionalCheckFailed(err) {
		return pkgerrors.NewConflictError("vote was modified concurrently")
	}
	if err != nil {
		return r.store.mapError("UpdateVote", err)
	}
	return nil
}

func (r *VoteRepository) ListVotes(ctx context.Context, ref valueobjects.EntityRef) ([]*entities.Vote, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(votePK(ref)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("ListVotes", err)
	}

	votes := []*entities.Vote{}
	err = r.store.queryAll(ctx, "ListVotes", &dynamodb.QueryInput{
		TableName:                 aws.String(r.store.table.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, collectVotes(&votes))
	if err != nil {
		return nil, err
	}
	if len(votes) == 0 && r.legacyScan {
		return r.ScanByEntity(ctx, ref)
	}
	return votes, nil
}

// ScanByEntity finds votes on ref with a filtered table scan. It serves
// tables written before votes were partitioned by entity.
func (r *VoteRepository) ScanByEntity(ctx context.Context, ref valueobjects.EntityRef) ([]*entities.Vote, error) {
	filter := expression.Name("EntityType").Equal(expression.Value("VOTE")).
		And(expression.Name("TargetEntity").Equal(expression.Value(string(ref.Type())))).
		And(expression.Name("EntityID").Equal(expression.Value(ref.ID())))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("ScanByEntity", err)
	}

	votes := []*entities.Vote{}
	err = r.store.scanAll(ctx, "ScanByEntity", &dynamodb.ScanInput{
		TableName:                 aws.String(r.store.table.TableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, collectVotes(&votes))
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func collectVotes(out *[]*entities.Vote) func(map[string]types.AttributeValue) error {
	return func(av map[string]types.AttributeValue) error {
		var item voteItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return err
		}
		v, err := item.toEntity()
		if err != nil {
			return err
		}
		*out = append(*out, v)
		return nil
	}
}
