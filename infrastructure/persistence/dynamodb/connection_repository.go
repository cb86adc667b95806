package dynamodb

import (
	"context"
	"time"

	pkgerrors "linklist-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Connection is an API Gateway WebSocket connection of a user
type Connection struct {
	ConnectionID string
	UserID       string
	Endpoint     string
	ConnectedAt  time.Time
}

type connectionItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	GSI1PK       string `dynamodbav:"GSI1PK"`
	GSI1SK       string `dynamodbav:"GSI1SK"`
	ConnectionID string `dynamodbav:"ConnectionID"`
	UserID       string `dynamodbav:"UserID"`
	Endpoint     string `dynamodbav:"Endpoint"`
	ConnectedAt  string `dynamodbav:"ConnectedAt"`
	TTL          int64  `dynamodbav:"TTL"`
}

// ConnectionRepository stores API Gateway connections in the connections
// table so stateless Lambdas can find a user's live connections. Records
// expire through the table's TTL attribute.
type ConnectionRepository struct {
	store *Store
	ttl   time.Duration
	now   func() time.Time
}

// NewConnectionRepository creates a connection repository. The store must
// point at the connections table.
func NewConnectionRepository(store *Store, ttl time.Duration) *ConnectionRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &ConnectionRepository{store: store, ttl: ttl, now: time.Now}
}

func connectionPK(id string) string { return "CONNECTION#" + id }

func (r *ConnectionRepository) Save(ctx context.Context, conn Connection) error {
	if conn.ConnectionID == "" || conn.UserID == "" {
		return pkgerrors.NewValidationError("connection id and user id are required")
	}
	now := r.now()
	if conn.ConnectedAt.IsZero() {
		conn.ConnectedAt = now
	}
	item, err := attributevalue.MarshalMap(connectionItem{
		PK:           connectionPK(conn.ConnectionID),
		SK:           metadataSK,
		GSI1PK:       "USER#" + conn.UserID,
		GSI1SK:       "CONNECTION#" + conn.ConnectionID,
		ConnectionID: conn.ConnectionID,
		UserID:       conn.UserID,
		Endpoint:     conn.Endpoint,
		ConnectedAt:  formatTime(conn.ConnectedAt),
		TTL:          now.Add(r.ttl).Unix(),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("SaveConnection", err)
	}

	_, err = r.store.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.store.table.TableName),
		Item:      item,
	})
	if err != nil {
		return r.store.mapError("SaveConnection", err)
	}
	return nil
}

func (r *ConnectionRepository) Delete(ctx context.Context, connectionID string) error {
	_, err := r.store.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.store.table.TableName),
		Key:       key(connectionPK(connectionID), metadataSK),
	})
	if err != nil {
		return r.store.mapError("DeleteConnection", err)
	}
	return nil
}

// ListByUser returns the user's connections that have not yet expired.
// DynamoDB deletes expired items lazily, so the TTL is also checked here.
func (r *ConnectionRepository) ListByUser(ctx context.Context, userID string) ([]Connection, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value("USER#" + userID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("ListConnections", err)
	}

	nowUnix := r.now().Unix()
	conns := []Connection{}
	err = r.store.queryAll(ctx, "ListConnections", &dynamodb.QueryInput{
		TableName:                 aws.String(r.store.table.TableName),
		IndexName:                 aws.String(r.store.table.GSI1Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, func(av map[string]types.AttributeValue) error {
		var item connectionItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return err
		}
		if item.TTL != 0 && item.TTL < nowUnix {
			return nil
		}
		connectedAt, err := parseTime(item.ConnectedAt)
		if err != nil {
			return err
		}
		conns = append(conns, Connection{
			ConnectionID: item.ConnectionID,
			UserID:       item.UserID,
			Endpoint:     item.Endpoint,
			ConnectedAt:  connectedAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conns, nil
}
