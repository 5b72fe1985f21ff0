// Package store provides access to the remote trip/expense record store and
// a local SQLite archive of the last successfully fetched snapshot.
package store

import (
	"context"
	"errors"
)

// Document is one flat key/value record as the remote store holds it.
// Field names and value types vary across legacy records; normalization
// happens downstream in the finance package.
type Document map[string]any

// ID returns the document's identity field, or "" if absent.
func (d Document) ID() string {
	if v, ok := d["id"].(string); ok {
		return v
	}
	return ""
}

var (
	// ErrUnauthorized indicates the store rejected the caller's credentials.
	ErrUnauthorized = errors.New("store: unauthorized")
	// ErrUnavailable indicates the store could not be reached.
	ErrUnavailable = errors.New("store: unavailable")
)

// RecordStore is the remote persistence service: two collections of flat
// documents keyed by an opaque principal. All filtering happens client-side.
// Point writes are pass-through operations with no transaction logic here.
type RecordStore interface {
	FetchTrips(ctx context.Context, principal string) ([]Document, error)
	FetchExpenses(ctx context.Context, principal string) ([]Document, error)

	PutTrip(ctx context.Context, principal, id string, doc Document) error
	PutExpense(ctx context.Context, principal, id string, doc Document) error
	DeleteTrip(ctx context.Context, principal, id string) error
	DeleteExpense(ctx context.Context, principal, id string) error
}
