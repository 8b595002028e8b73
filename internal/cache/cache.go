package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/domain"
)

// SnapshotCache holds the last CartSnapshot fetched per user. Entries are dropped
// after every cart mutation and refetched from the backend.
type SnapshotCache interface {
	Get(ctx context.Context, userID int64) (*domain.CartSnapshot, error)
	Set(ctx context.Context, userID int64, snapshot *domain.CartSnapshot) error
	Delete(ctx context.Context, userID int64) error
}

var ErrCacheMiss = errors.New("cache miss")
