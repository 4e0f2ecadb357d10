package repository

import (
	"context"

	"storefront/internal/domain"
)

// OwnersRepository 商户身份（:User）数据访问
type OwnersRepository interface {
	GetOwner(ctx context.Context, id string) (*domain.Owner, error)
	GetOwnerByEmail(ctx context.Context, email string) (*domain.Owner, error)
	CreateOwner(ctx context.Context, owner *domain.Owner) (*domain.Owner, error)

	// ReassignOwnerID moves the record matched by email to owner.ID and
	// refreshes name/image when non-empty. Ownership edges follow the record.
	ReassignOwnerID(ctx context.Context, email string, owner *domain.Owner) (*domain.Owner, error)

	UpdateOwner(ctx context.Context, id string, patch domain.OwnerPatch) (*domain.Owner, error)
	// DeleteOwner 删除身份及其 OWNS 关系（店铺保留，成为孤儿）
	DeleteOwner(ctx context.Context, id string) error
}

// StoresRepository 店铺及 OWNS 关系
// Store.OwnerID on returned values is derived from the ownership edge.
type StoresRepository interface {
	GetStore(ctx context.Context, id string) (*domain.Store, error)
	GetStoreBySubdomain(ctx context.Context, subdomain string) (*domain.Store, error)

	// ListStoresByOwner 通过 OWNS 边查询
	ListStoresByOwner(ctx context.Context, ownerID string) ([]*domain.Store, error)
	// ListOrphanStores 没有任何入边 OWNS 的店铺
	ListOrphanStores(ctx context.Context) ([]*domain.Store, error)
	// AttachStores creates OWNS edges from ownerID to each store in one write.
	// Orphan status is re-checked at write time; only stores that were still
	// orphaned are attached and returned.
	AttachStores(ctx context.Context, ownerID string, storeIDs []string) ([]*domain.Store, error)
	IsOwner(ctx context.Context, ownerID, storeID string) (bool, error)

	// CreateStore 创建店铺；ownerID 为空时创建孤儿店铺
	CreateStore(ctx context.Context, ownerID string, store *domain.Store) (*domain.Store, error)
	UpdateStore(ctx context.Context, id string, patch domain.StorePatch) (*domain.Store, error)
	// DeleteStore 级联删除商品与博客
	DeleteStore(ctx context.Context, id string) error
}

type ProductsRepository interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, storeID string) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type BlogPostsRepository interface {
	GetBlogPost(ctx context.Context, id string) (*domain.BlogPost, error)
	ListBlogPosts(ctx context.Context, storeID string) ([]*domain.BlogPost, error)
	CreateBlogPost(ctx context.Context, p *domain.BlogPost) (*domain.BlogPost, error)
	UpdateBlogPost(ctx context.Context, id string, patch domain.BlogPostPatch) (*domain.BlogPost, error)
	DeleteBlogPost(ctx context.Context, id string) error
}

type IndustriesRepository interface {
	GetIndustry(ctx context.Context, id string) (*domain.Industry, error)
	ListIndustries(ctx context.Context) ([]*domain.Industry, error)
	CreateIndustry(ctx context.Context, in *domain.Industry) (*domain.Industry, error)
	UpdateIndustry(ctx context.Context, id string, patch domain.IndustryPatch) (*domain.Industry, error)
}

// Repositories 一个后端的全部仓储
type Repositories struct {
	Owners     OwnersRepository
	Stores     StoresRepository
	Products   ProductsRepository
	BlogPosts  BlogPostsRepository
	Industries IndustriesRepository

	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}
