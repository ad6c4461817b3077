package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/redis/go-redis/v9"
)

// CacheEntry is a generated answer addressed by the hash of its question.
// Entries are never mutated; a different question yields a different entry.
type CacheEntry struct {
	Hash      string    `json:"hash" dynamodbav:"hash"`
	Question  string    `json:"question" dynamodbav:"question"`
	Answer    string    `json:"answer" dynamodbav:"answer"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"createdAt"`
}

// AnswerCache stores generated answers keyed by question hash. Concurrent
// writers for the same hash may race; either answer is acceptable.
type AnswerCache interface {
	Get(ctx context.Context, hash string) (CacheEntry, bool, error)
	Put(ctx context.Context, entry CacheEntry) error
}

// MemoryAnswerCache keeps answers in process.
type MemoryAnswerCache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
}

func NewMemoryAnswerCache() *MemoryAnswerCache {
	return &MemoryAnswerCache{entries: make(map[string]CacheEntry)}
}

func (c *MemoryAnswerCache) Get(_ context.Context, hash string) (CacheEntry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[hash]
	return entry, ok, nil
}

func (c *MemoryAnswerCache) Put(_ context.Context, entry CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Hash] = entry
	return nil
}

// Len returns the number of cached answers.
func (c *MemoryAnswerCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

const answerKeyPrefix = "responder:answer:"

// RedisAnswerCache persists answers as JSON values. A zero ttl keeps them forever.
type RedisAnswerCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAnswerCache(client *redis.Client, ttl time.Duration) *RedisAnswerCache {
	return &RedisAnswerCache{client: client, ttl: ttl}
}

func (c *RedisAnswerCache) Get(ctx context.Context, hash string) (CacheEntry, bool, error) {
	data, err := c.client.Get(ctx, answerKeyPrefix+hash).Bytes()
	if err == redis.Nil {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, fmt.Errorf("answer cache: get: %w", err)
	}
	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return CacheEntry{}, false, fmt.Errorf("answer cache: unmarshal: %w", err)
	}
	return entry, true, nil
}

func (c *RedisAnswerCache) Put(ctx context.Context, entry CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("answer cache: marshal: %w", err)
	}
	if err := c.client.Set(ctx, answerKeyPrefix+entry.Hash, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("answer cache: set: %w", err)
	}
	return nil
}

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoAnswerCache persists answers in a DynamoDB table keyed by "hash".
type DynamoAnswerCache struct {
	client    dynamoAPI
	tableName string
}

// NewDynamoAnswerCache builds a cache backed by the provided DynamoDB client.
func NewDynamoAnswerCache(client dynamoAPI, tableName string) *DynamoAnswerCache {
	if client == nil {
		panic("conversation: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("conversation: table name cannot be empty")
	}
	return &DynamoAnswerCache{client: client, tableName: tableName}
}

func (c *DynamoAnswerCache) Get(ctx context.Context, hash string) (CacheEntry, bool, error) {
	out, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"hash": &types.AttributeValueMemberS{Value: hash},
		},
	})
	if err != nil {
		return CacheEntry{}, false, fmt.Errorf("answer cache: get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return CacheEntry{}, false, nil
	}
	var entry CacheEntry
	if err := attributevalue.UnmarshalMap(out.Item, &entry); err != nil {
		return CacheEntry{}, false, fmt.Errorf("answer cache: unmarshal item: %w", err)
	}
	return entry, true, nil
}

// Put writes the entry unless one already exists for the hash.
func (c *DynamoAnswerCache) Put(ctx context.Context, entry CacheEntry) error {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("answer cache: marshal item: %w", err)
	}
	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#h)"),
		ExpressionAttributeNames: map[string]string{
			"#h": "hash",
		},
	})
	var conflict *types.ConditionalCheckFailedException
	if errors.As(err, &conflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("answer cache: put item: %w", err)
	}
	return nil
}
