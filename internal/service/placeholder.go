package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"

	"docflow/internal/repository"

	"go.uber.org/zap"
)

const (
	minPlaceholderID = 100
	maxPlaceholderID = 99999
)

// PlaceholderReserver claims a drawn id before it is handed out.
// Reserve reports false when someone else already holds the id.
type PlaceholderReserver interface {
	Reserve(ctx context.Context, placeholderID string) (bool, error)
}

type noopReserver struct{}

func (noopReserver) Reserve(context.Context, string) (bool, error) { return true, nil }

// PlaceholderAllocator draws short numeric ids for documents that do not
// have a file yet.
type PlaceholderAllocator struct {
	docs     repository.DocumentRepository
	reserver PlaceholderReserver
	logger   *zap.Logger
	intn     func(n int) int
}

// NewPlaceholderAllocator returns an allocator. reserver may be nil, in which
// case only the document store is consulted.
func NewPlaceholderAllocator(docs repository.DocumentRepository, reserver PlaceholderReserver, logger *zap.Logger) *PlaceholderAllocator {
	if reserver == nil {
		reserver = noopReserver{}
	}
	return &PlaceholderAllocator{
		docs:     docs,
		reserver: reserver,
		logger:   logger.Named("placeholder"),
		intn:     rand.IntN,
	}
}

// Allocate retries until it finds an id in [100, 99999] that no document
// uses. It stops only when ctx is done or the store fails.
func (a *PlaceholderAllocator) Allocate(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		id := strconv.Itoa(minPlaceholderID + a.intn(maxPlaceholderID-minPlaceholderID+1))

		inUse, err := a.docs.PlaceholderInUse(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check placeholder %s: %w", id, err)
		}
		if inUse {
			continue
		}

		ok, err := a.reserver.Reserve(ctx, id)
		if err != nil {
			// reservation is an extra guard; fall back to the store check
			a.logger.Warn("placeholder reservation unavailable", zap.String("placeholder_id", id), zap.Error(err))
			return id, nil
		}
		if !ok {
			continue
		}
		return id, nil
	}
}
