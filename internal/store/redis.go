package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a RecordStore backend keeping each collection as a per-principal
// hash of JSON documents: loads:<principal> and expenses:<principal>.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed record store for the given address.
func NewRedis(addr string) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// FetchTrips returns all trip documents owned by the principal.
func (r *Redis) FetchTrips(ctx context.Context, principal string) ([]Document, error) {
	return r.fetchHash(ctx, "loads:"+principal)
}

// FetchExpenses returns all expense documents owned by the principal.
func (r *Redis) FetchExpenses(ctx context.Context, principal string) ([]Document, error) {
	return r.fetchHash(ctx, "expenses:"+principal)
}

// PutTrip creates or replaces one trip document.
func (r *Redis) PutTrip(ctx context.Context, principal, id string, doc Document) error {
	return r.putHash(ctx, "loads:"+principal, id, doc)
}

// PutExpense creates or replaces one expense document.
func (r *Redis) PutExpense(ctx context.Context, principal, id string, doc Document) error {
	return r.putHash(ctx, "expenses:"+principal, id, doc)
}

// DeleteTrip removes one trip document.
func (r *Redis) DeleteTrip(ctx context.Context, principal, id string) error {
	return r.client.HDel(ctx, "loads:"+principal, id).Err()
}

// DeleteExpense removes one expense document.
func (r *Redis) DeleteExpense(ctx context.Context, principal, id string) error {
	return r.client.HDel(ctx, "expenses:"+principal, id).Err()
}

func (r *Redis) fetchHash(ctx context.Context, key string) ([]Document, error) {
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	docs := make([]Document, 0, len(fields))
	for id, raw := range fields {
		var doc Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			// Undecodable entries are left for normalization to count;
			// carry the id so the record is at least identifiable.
			doc = Document{}
		}
		if doc.ID() == "" {
			doc["id"] = id
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *Redis) putHash(ctx context.Context, key, id string, doc Document) error {
	if doc == nil {
		doc = Document{}
	}
	if doc.ID() == "" {
		doc["id"] = id
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: encoding document: %w", err)
	}
	return r.client.HSet(ctx, key, id, string(raw)).Err()
}
