package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"

	"go.uber.org/zap"
)

func storefrontCacheKey(subdomain string) string { return "storefront:store:" + subdomain }

// StorefrontService 公开店铺页（无需登录）
type StorefrontService interface {
	Store(ctx context.Context, subdomain string) (*domain.Store, error)
	Products(ctx context.Context, subdomain string) ([]*domain.Product, error)
	Product(ctx context.Context, subdomain, productID string) (*domain.Product, error)
	BlogPosts(ctx context.Context, subdomain string) ([]*domain.BlogPost, error)
}

type storefrontService struct {
	stores   repository.StoresRepository
	products repository.ProductsRepository
	posts    repository.BlogPostsRepository
	cache    store.KV
	ttl      time.Duration
	logger   *zap.Logger
}

func NewStorefrontService(stores repository.StoresRepository, products repository.ProductsRepository, posts repository.BlogPostsRepository, cache store.KV, ttl time.Duration, logger *zap.Logger) StorefrontService {
	return &storefrontService{
		stores:   stores,
		products: products,
		posts:    posts,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

func (s *storefrontService) Store(ctx context.Context, subdomain string) (*domain.Store, error) {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	if subdomain == "" {
		return nil, domain.ErrStoreNotFound
	}
	key := storefrontCacheKey(subdomain)

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var st domain.Store
			if jerr := json.Unmarshal([]byte(raw), &st); jerr == nil {
				return &st, nil
			}
			s.logger.Warn("Dropping corrupt storefront cache entry", zap.String("key", key))
		case !errors.Is(err, store.ErrMiss):
			s.logger.Warn("Storefront cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	st, err := s.stores.GetStoreBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		b, _ := json.Marshal(st)
		if err := s.cache.Set(ctx, key, string(b), s.ttl); err != nil {
			s.logger.Warn("Storefront cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return st, nil
}

func (s *storefrontService) Products(ctx context.Context, subdomain string) ([]*domain.Product, error) {
	st, err := s.Store(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	all, err := s.products.ListProducts(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Product, 0, len(all))
	for _, p := range all {
		if p.Status == domain.ProductStatusActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *storefrontService) Product(ctx context.Context, subdomain, productID string) (*domain.Product, error) {
	st, err := s.Store(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	// 其他店铺或未上架商品一律按不存在处理
	if p.StoreID != st.ID || p.Status != domain.ProductStatusActive {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (s *storefrontService) BlogPosts(ctx context.Context, subdomain string) ([]*domain.BlogPost, error) {
	st, err := s.Store(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	all, err := s.posts.ListBlogPosts(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.BlogPost, 0, len(all))
	for _, b := range all {
		if b.Status == domain.BlogPostStatusPublished {
			out = append(out, b)
		}
	}
	return out, nil
}
