package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// sessionRecord is the DynamoDB item layout. The state travels as a JSON document so the
// item schema does not change when State grows fields.
type sessionRecord struct {
	SessionID   string `dynamodbav:"sessionId"`
	DialogState string `dynamodbav:"dialogState"`
	State       string `dynamodbav:"state"`
	UpdatedAt   string `dynamodbav:"updatedAt"`
	ExpiresAt   int64  `dynamodbav:"expiresAt,omitempty"`
}

// DynamoBackend stores sessions in a DynamoDB table keyed by sessionId.
// With a positive ttl, expiresAt is set for the table's TTL sweeper and expired items are ignored on read.
type DynamoBackend struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

// NewDynamoBackend builds a backend over client and tableName.
func NewDynamoBackend(client dynamoAPI, tableName string, ttl time.Duration) *DynamoBackend {
	if client == nil {
		panic("session: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("session: table name cannot be empty")
	}
	return &DynamoBackend{client: client, tableName: tableName, ttl: ttl, now: time.Now}
}

func (b *DynamoBackend) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"sessionId": &types.AttributeValueMemberS{Value: id},
	}
}

// Load implements Backend.
func (b *DynamoBackend) Load(ctx context.Context, id string) (*State, error) {
	out, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(b.tableName),
		Key:            b.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var rec sessionRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	if rec.ExpiresAt > 0 && b.now().Unix() > rec.ExpiresAt {
		return nil, nil
	}
	var st State
	if err := json.Unmarshal([]byte(rec.State), &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &st, nil
}

// Save implements Backend.
func (b *DynamoBackend) Save(ctx context.Context, st *State) error {
	doc, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	now := b.now().UTC()
	rec := sessionRecord{
		SessionID:   st.SessionID,
		DialogState: st.DialogState.String(),
		State:       string(doc),
		UpdatedAt:   now.Format(time.RFC3339Nano),
	}
	if b.ttl > 0 {
		rec.ExpiresAt = now.Add(b.ttl).Unix()
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	if _, err := b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("dynamodb put: %w", err)
	}
	return nil
}

// Delete implements Backend.
func (b *DynamoBackend) Delete(ctx context.Context, id string) error {
	if _, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(b.tableName),
		Key:       b.key(id),
	}); err != nil {
		return fmt.Errorf("dynamodb delete: %w", err)
	}
	return nil
}
