package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"

	"go.uber.org/zap"
)

// StoreService 店铺管理（需登录，写操作需 OWNS 关系）
type StoreService interface {
	ListStores(ctx context.Context, ownerID string) ([]*domain.Store, error)
	GetStore(ctx context.Context, ownerID, storeID string) (*domain.Store, error)
	GetStoreBySubdomain(ctx context.Context, subdomain string) (*domain.Store, error)
	CreateStore(ctx context.Context, ownerID string, in CreateStoreInput) (*domain.Store, error)
	UpdateStore(ctx context.Context, ownerID, storeID string, patch domain.StorePatch) (*domain.Store, error)
	DeleteStore(ctx context.Context, ownerID, storeID string) error

	// RequireOwner loads the store and checks the OWNS edge.
	RequireOwner(ctx context.Context, ownerID, storeID string) (*domain.Store, error)
	StoreURL(subdomain string) string
}

type CreateStoreInput struct {
	Name      string `json:"name"`
	Industry  string `json:"industry"`
	Subdomain string `json:"subdomain"`
}

type storeService struct {
	stores     repository.StoresRepository
	ownership  *OwnershipService
	cache      store.KV
	events     store.Publisher
	apexDomain string
	reserved   map[string]struct{}
	logger     *zap.Logger
}

func NewStoreService(stores repository.StoresRepository, ownership *OwnershipService, cache store.KV, events store.Publisher, apexDomain string, logger *zap.Logger) StoreService {
	if events == nil {
		events = store.NopPublisher{}
	}
	reserved := map[string]struct{}{}
	for _, l := range []string{"www", "api", "app", "admin", "localhost"} {
		reserved[l] = struct{}{}
	}
	apexDomain = strings.ToLower(strings.TrimSpace(apexDomain))
	if label, _, _ := strings.Cut(apexDomain, "."); label != "" {
		reserved[label] = struct{}{}
	}
	return &storeService{
		stores:     stores,
		ownership:  ownership,
		cache:      cache,
		events:     events,
		apexDomain: apexDomain,
		reserved:   reserved,
		logger:     logger,
	}
}

// NormalizeSubdomain lower-cases and validates a requested subdomain label.
func (s *storeService) NormalizeSubdomain(raw string) (string, error) {
	sub := strings.ToLower(strings.TrimSpace(raw))
	if err := ValidateSubdomain(sub); err != nil {
		return "", err
	}
	if _, ok := s.reserved[sub]; ok {
		return "", domain.InvalidInput("subdomain %q is reserved", sub)
	}
	return sub, nil
}

// ValidateSubdomain checks the DNS label shape: [a-z0-9-], 3-63 chars,
// no leading or trailing hyphen.
func ValidateSubdomain(sub string) error {
	if len(sub) < 3 || len(sub) > 63 {
		return domain.InvalidInput("subdomain must be 3-63 characters")
	}
	if sub[0] == '-' || sub[len(sub)-1] == '-' {
		return domain.InvalidInput("subdomain cannot start or end with a hyphen")
	}
	for _, r := range sub {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return domain.InvalidInput("subdomain may contain only lowercase letters, digits and hyphens")
		}
	}
	return nil
}

func (s *storeService) StoreURL(subdomain string) string {
	return fmt.Sprintf("https://%s.%s", subdomain, s.apexDomain)
}

func (s *storeService) ListStores(ctx context.Context, ownerID string) ([]*domain.Store, error) {
	return s.ownership.Reconcile(ctx, ownerID)
}

func (s *storeService) RequireOwner(ctx context.Context, ownerID, storeID string) (*domain.Store, error) {
	if ownerID == "" {
		return nil, domain.ErrAuthRequired
	}
	st, err := s.stores.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	ok, err := s.stores.IsOwner(ctx, ownerID, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check store ownership: %w", err)
	}
	if !ok {
		return nil, domain.ErrForbidden
	}
	return st, nil
}

func (s *storeService) GetStore(ctx context.Context, ownerID, storeID string) (*domain.Store, error) {
	return s.RequireOwner(ctx, ownerID, storeID)
}

func (s *storeService) GetStoreBySubdomain(ctx context.Context, subdomain string) (*domain.Store, error) {
	return s.stores.GetStoreBySubdomain(ctx, strings.ToLower(strings.TrimSpace(subdomain)))
}

func (s *storeService) CreateStore(ctx context.Context, ownerID string, in CreateStoreInput) (*domain.Store, error) {
	if ownerID == "" {
		return nil, domain.ErrAuthRequired
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.InvalidInput("store name is required")
	}
	sub, err := s.NormalizeSubdomain(in.Subdomain)
	if err != nil {
		return nil, err
	}

	st, err := s.stores.CreateStore(ctx, ownerID, &domain.Store{
		Name:      name,
		Industry:  strings.TrimSpace(in.Industry),
		Subdomain: sub,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Store created",
		zap.String("store_id", st.ID),
		zap.String("owner_id", ownerID),
		zap.String("subdomain", st.Subdomain))
	s.publish(ctx, store.Event{
		Type:     store.EventStoreCreated,
		OwnerID:  ownerID,
		StoreIDs: []string{st.ID},
		Attrs:    map[string]any{"subdomain": st.Subdomain},
	})
	return st, nil
}

func (s *storeService) UpdateStore(ctx context.Context, ownerID, storeID string, patch domain.StorePatch) (*domain.Store, error) {
	current, err := s.RequireOwner(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, domain.InvalidInput("store name cannot be empty")
	}
	if patch.Subdomain != nil {
		sub, err := s.NormalizeSubdomain(*patch.Subdomain)
		if err != nil {
			return nil, err
		}
		patch.Subdomain = &sub
	}

	updated, err := s.stores.UpdateStore(ctx, storeID, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, current.Subdomain, updated.Subdomain)
	return updated, nil
}

func (s *storeService) DeleteStore(ctx context.Context, ownerID, storeID string) error {
	current, err := s.RequireOwner(ctx, ownerID, storeID)
	if err != nil {
		return err
	}
	if err := s.stores.DeleteStore(ctx, storeID); err != nil {
		return err
	}
	s.invalidate(ctx, current.Subdomain)
	s.logger.Info("Store deleted", zap.String("store_id", storeID), zap.String("owner_id", ownerID))
	s.publish(ctx, store.Event{
		Type:     store.EventStoreDeleted,
		OwnerID:  ownerID,
		StoreIDs: []string{storeID},
		Attrs:    map[string]any{"subdomain": current.Subdomain},
	})
	return nil
}

func (s *storeService) invalidate(ctx context.Context, subdomains ...string) {
	invalidateStorefronts(ctx, s.cache, s.logger, subdomains...)
}

// invalidateStorefronts 删除店铺公开页缓存，失败只记日志
func invalidateStorefronts(ctx context.Context, cache store.KV, logger *zap.Logger, subdomains ...string) {
	if cache == nil {
		return
	}
	keys := make([]string, 0, len(subdomains))
	for _, sub := range dedupeStrings(subdomains) {
		keys = append(keys, storefrontCacheKey(sub))
	}
	if len(keys) == 0 {
		return
	}
	if err := cache.Del(ctx, keys...); err != nil {
		logger.Warn("Storefront cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *storeService) publish(ctx context.Context, ev store.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish store event", zap.String("type", ev.Type), zap.Error(err))
	}
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
