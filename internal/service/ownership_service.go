package service

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"

	"go.uber.org/zap"
)

// OwnershipService 店铺归属核对
// Listing stores for an owner doubles as the repair point for orphaned
// stores: when the owner has none, every orphan is attached to them.
type OwnershipService struct {
	owners        repository.OwnersRepository
	stores        repository.StoresRepository
	cache         store.KV
	events        store.Publisher
	logger        *zap.Logger
	repairEnabled bool
}

func NewOwnershipService(owners repository.OwnersRepository, stores repository.StoresRepository, cache store.KV, events store.Publisher, logger *zap.Logger, repairEnabled bool) *OwnershipService {
	if events == nil {
		events = store.NopPublisher{}
	}
	return &OwnershipService{
		owners:        owners,
		stores:        stores,
		cache:         cache,
		events:        events,
		logger:        logger,
		repairEnabled: repairEnabled,
	}
}

// Reconcile returns the stores ownerID should be considered to own.
// The result is never nil.
func (s *OwnershipService) Reconcile(ctx context.Context, ownerID string) ([]*domain.Store, error) {
	if ownerID == "" {
		return nil, domain.ErrAuthRequired
	}

	if _, err := s.owners.GetOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	owned, err := s.stores.ListStoresByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores for owner %s: %w", ownerID, err)
	}
	if len(owned) > 0 || !s.repairEnabled {
		return nonNil(owned), nil
	}

	orphans, err := s.stores.ListOrphanStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphan stores: %w", err)
	}
	if len(orphans) == 0 {
		return []*domain.Store{}, nil
	}

	return s.attach(ctx, ownerID, domain.StoreIDs(orphans))
}

func (s *OwnershipService) attach(ctx context.Context, ownerID string, storeIDs []string) ([]*domain.Store, error) {
	attached, err := s.stores.AttachStores(ctx, ownerID, storeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to attach orphan stores to %s: %w", ownerID, err)
	}
	if len(attached) == 0 {
		return []*domain.Store{}, nil
	}

	ids := domain.StoreIDs(attached)
	subs := make([]string, 0, len(attached))
	for _, st := range attached {
		subs = append(subs, st.Subdomain)
	}
	invalidateStorefronts(ctx, s.cache, s.logger, subs...)

	s.logger.Warn("Attached orphan stores to owner",
		zap.String("owner_id", ownerID),
		zap.Strings("store_ids", ids),
		zap.Int("requested", len(storeIDs)))
	if err := s.events.Publish(ctx, store.Event{
		Type:     store.EventOwnershipRepaired,
		OwnerID:  ownerID,
		StoreIDs: ids,
	}); err != nil {
		s.logger.Warn("Failed to publish ownership event", zap.Error(err))
	}
	return attached, nil
}

// OwnershipReport 归属诊断结果
type OwnershipReport struct {
	OwnerID      string          `json:"userId"`
	OwnerExists  bool            `json:"userExists"`
	OwnedStores  []*domain.Store `json:"ownedStores"`
	OrphanStores []*domain.Store `json:"orphanStores"`
	Attached     []*domain.Store `json:"attached,omitempty"`
}

// Inspect reports ownership state for ownerID; with fix it attaches every
// orphan regardless of existing ownership.
func (s *OwnershipService) Inspect(ctx context.Context, ownerID string, fix bool) (*OwnershipReport, error) {
	if ownerID == "" {
		return nil, domain.ErrAuthRequired
	}
	report := &OwnershipReport{OwnerID: ownerID, OwnedStores: []*domain.Store{}, OrphanStores: []*domain.Store{}}

	_, err := s.owners.GetOwner(ctx, ownerID)
	switch {
	case err == nil:
		report.OwnerExists = true
	case domain.IsNotFound(err):
	default:
		return nil, err
	}

	orphans, err := s.stores.ListOrphanStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphan stores: %w", err)
	}
	report.OrphanStores = orphans

	if report.OwnerExists {
		if fix && len(orphans) > 0 {
			attached, err := s.attach(ctx, ownerID, domain.StoreIDs(orphans))
			if err != nil {
				return nil, err
			}
			report.Attached = attached
			report.OrphanStores = []*domain.Store{}
		}
		owned, err := s.stores.ListStoresByOwner(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to list stores for owner %s: %w", ownerID, err)
		}
		report.OwnedStores = owned
	}
	return report, nil
}

// ListOrphans is the operator view of unowned stores.
func (s *OwnershipService) ListOrphans(ctx context.Context) ([]*domain.Store, error) {
	orphans, err := s.stores.ListOrphanStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphan stores: %w", err)
	}
	return orphans, nil
}

// RepairOrphans attaches all current orphans to ownerID.
func (s *OwnershipService) RepairOrphans(ctx context.Context, ownerID string) ([]*domain.Store, error) {
	if _, err := s.owners.GetOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	orphans, err := s.ListOrphans(ctx)
	if err != nil {
		return nil, err
	}
	if len(orphans) == 0 {
		return []*domain.Store{}, nil
	}
	return s.attach(ctx, ownerID, domain.StoreIDs(orphans))
}

func nonNil(stores []*domain.Store) []*domain.Store {
	if stores == nil {
		return []*domain.Store{}
	}
	return stores
}
