package service

import (
	"context"
	"sync"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"

	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []store.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev store.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// countingStores wraps a StoresRepository and counts attach writes.
type countingStores struct {
	repository.StoresRepository
	attachCalls int
	listErr     error
}

func (c *countingStores) AttachStores(ctx context.Context, ownerID string, ids []string) ([]*domain.Store, error) {
	c.attachCalls++
	return c.StoresRepository.AttachStores(ctx, ownerID, ids)
}

func (c *countingStores) ListStoresByOwner(ctx context.Context, ownerID string) ([]*domain.Store, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.StoresRepository.ListStoresByOwner(ctx, ownerID)
}

func seedOwner(t *testing.T, repos repository.Repositories, id string) *domain.Owner {
	t.Helper()
	o, err := repos.Owners.CreateOwner(context.Background(), &domain.Owner{ID: id, Name: id, Email: id + "@example.com"})
	require.NoError(t, err)
	return o
}

func seedStore(t *testing.T, repos repository.Repositories, ownerID, sub string) *domain.Store {
	t.Helper()
	s, err := repos.Stores.CreateStore(context.Background(), ownerID, &domain.Store{Name: sub, Subdomain: sub})
	require.NoError(t, err)
	return s
}
