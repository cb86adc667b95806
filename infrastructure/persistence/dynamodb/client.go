// Package dynamodb implements the entity store over a DynamoDB single table.
//
//	Vote            PK=VOTE#<TYPE>#<entityId>     SK=USER#<userId>
//	Comment         PK=COMMENT#<id>               SK=METADATA
//	                GSI1PK=ENTITY#<TYPE>#<entityId> GSI1SK=COMMENT#<createdAt>#<id>
//	                GSI2PK=PARENT#<parentId>        GSI2SK=COMMENT#<createdAt>#<id>
//	Top guard       PK=TOPCOMMENT#<TYPE>#<entityId> SK=USER#<userId>
//	Notification    PK=NOTIFICATION#<id>          SK=METADATA
//	                GSI1PK=RECIPIENT#<userId>       GSI1SK=NOTIFICATION#<createdAt>#<id>
//	Entity (owner)  PK=<TYPE>#<entityId>          SK=METADATA
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "linklist-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const (
	metadataSK = "METADATA"

	// fixed width so sort keys order chronologically
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// DynamoDBAPI is the subset of *dynamodb.Client used by the repositories
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// TableConfig names the table and its indexes
type TableConfig struct {
	TableName string
	GSI1Name  string
	GSI2Name  string
}

// Store is shared by the repositories of one table
type Store struct {
	client DynamoDBAPI
	table  TableConfig
	logger *zap.Logger
}

// NewStore creates a store over client
func NewStore(client DynamoDBAPI, table TableConfig, logger *zap.Logger) *Store {
	if table.GSI1Name == "" {
		table.GSI1Name = "GSI1"
	}
	if table.GSI2Name == "" {
		table.GSI2Name = "GSI2"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, table: table, logger: logger}
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func (s *Store) getItem(ctx context.Context, op string, k map[string]types.AttributeValue, out interface{}) (bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table.TableName),
		Key:       k,
	})
	if err != nil {
		return false, s.mapError(op, err)
	}
	if result.Item == nil {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return false, pkgerrors.NewDatabaseError(op, err)
	}
	return true, nil
}

// queryAll pages through a query and hands every item to each
func (s *Store) queryAll(ctx context.Context, op string, input *dynamodb.QueryInput, each func(map[string]types.AttributeValue) error) error {
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return s.mapError(op, err)
		}
		for _, item := range result.Items {
			if err := each(item); err != nil {
				return pkgerrors.NewDatabaseError(op, err)
			}
		}
		if len(result.LastEvaluatedKey) == 0 {
			return nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// scanAll pages through a filtered scan
func (s *Store) scanAll(ctx context.Context, op string, input *dynamodb.ScanInput, each func(map[string]types.AttributeValue) error) error {
	for {
		result, err := s.client.Scan(ctx, input)
		if err != nil {
			return s.mapError(op, err)
		}
		for _, item := range result.Items {
			if err := each(item); err != nil {
				return pkgerrors.NewDatabaseError(op, err)
			}
		}
		if len(result.LastEvaluatedKey) == 0 {
			return nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// mapError converts AWS errors into AppErrors. Conditional check failures
// are left to the caller, which knows what the condition meant.
func (s *Store) mapError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.NewDatabaseError(op, err)
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
			s.logger.Warn("DynamoDB throttled request", zap.String("operation", op), zap.String("code", ae.ErrorCode()))
			unavailable := pkgerrors.NewUnavailableError("dynamodb")
			unavailable.Cause = err
			return unavailable
		}
	}
	s.logger.Error("DynamoDB operation failed", zap.String("operation", op), zap.Error(err))
	return pkgerrors.NewDatabaseError(op, err)
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// isTransactionConditionFailed reports whether a transaction was cancelled
// because one of its conditions failed.
func isTransactionConditionFailed(err error) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	for _, reason := range tce.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a stored timestamp. Values without the fixed nanosecond
// width are accepted; anything else is a DATABASE error rather than a zero
// time that would sort first.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err == nil {
		return t, nil
	}
	if t, rerr := time.Parse(time.RFC3339Nano, s); rerr == nil {
		return t, nil
	}
	return time.Time{}, pkgerrors.NewDatabaseError("decode timestamp", fmt.Errorf("malformed timestamp %q: %w", s, err))
}

// parseTimes reads each stored timestamp, stopping at the first bad one
func parseTimes(values ...string) ([]time.Time, error) {
	out := make([]time.Time, len(values))
	for i, v := range values {
		t, err := parseTime(v)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
