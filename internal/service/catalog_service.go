package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

// CatalogService 商品、博客、行业（店铺维度操作需 OWNS 关系）
type CatalogService interface {
	ListProducts(ctx context.Context, ownerID, storeID string) ([]*domain.Product, error)
	GetProduct(ctx context.Context, ownerID, productID string) (*domain.Product, error)
	CreateProduct(ctx context.Context, ownerID string, in ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, ownerID, productID string, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, ownerID, productID string) error

	ListBlogPosts(ctx context.Context, ownerID, storeID string) ([]*domain.BlogPost, error)
	GetBlogPost(ctx context.Context, ownerID, postID string) (*domain.BlogPost, error)
	CreateBlogPost(ctx context.Context, ownerID string, in BlogPostInput) (*domain.BlogPost, error)
	UpdateBlogPost(ctx context.Context, ownerID, postID string, patch domain.BlogPostPatch) (*domain.BlogPost, error)
	DeleteBlogPost(ctx context.Context, ownerID, postID string) error

	ListIndustries(ctx context.Context, ownerID string) ([]*domain.Industry, error)
	GetIndustry(ctx context.Context, ownerID, id string) (*domain.Industry, error)
	CreateIndustry(ctx context.Context, ownerID string, in IndustryInput) (*domain.Industry, error)
	UpdateIndustry(ctx context.Context, ownerID, id string, patch domain.IndustryPatch) (*domain.Industry, error)

	GenerateProduct(ctx context.Context, ownerID, prompt string) (*domain.ProductDraft, error)
	// GenerateBlogPost 生成并保存为 DRAFT
	GenerateBlogPost(ctx context.Context, ownerID, storeID, prompt string) (*domain.BlogPost, error)

	ExportProducts(ctx context.Context, ownerID, storeID string) ([]byte, error)
}

type ProductInput struct {
	StoreID     string  `json:"storeId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	SKU         string  `json:"sku"`
	Category    string  `json:"category"`
	Inventory   int64   `json:"inventory"`
	Status      string  `json:"status"`
}

type BlogPostInput struct {
	StoreID         string   `json:"storeId"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	MetaDescription string   `json:"metaDescription"`
	Tags            []string `json:"tags"`
	Category        string   `json:"category"`
	Status          string   `json:"status"`
}

type IndustryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var (
	productStatuses  = map[string]bool{"ACTIVE": true, "DRAFT": true, "ARCHIVED": true}
	blogPostStatuses = map[string]bool{domain.BlogPostStatusDraft: true, domain.BlogPostStatusPublished: true}
)

type catalogService struct {
	stores     StoreService
	products   repository.ProductsRepository
	posts      repository.BlogPostsRepository
	industries repository.IndustriesRepository
	generator  Generator
	logger     *zap.Logger
}

// NewCatalogService generator 为 nil 时生成接口返回错误
func NewCatalogService(stores StoreService, products repository.ProductsRepository, posts repository.BlogPostsRepository, industries repository.IndustriesRepository, generator Generator, logger *zap.Logger) CatalogService {
	return &catalogService{
		stores:     stores,
		products:   products,
		posts:      posts,
		industries: industries,
		generator:  generator,
		logger:     logger,
	}
}

// ==================== Products ====================

func (s *catalogService) ListProducts(ctx context.Context, ownerID, storeID string) ([]*domain.Product, error) {
	if _, err := s.stores.RequireOwner(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	return s.products.ListProducts(ctx, storeID)
}

func (s *catalogService) GetProduct(ctx context.Context, ownerID, productID string) (*domain.Product, error) {
	if ownerID == "" {
		return nil, domain.ErrAuthRequired
	}
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if _, err := s.stores.RequireOwner(ctx, ownerID, p.StoreID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, ownerID string, in ProductInput) (*domain.Product, error) {
	if _, err := s.stores.RequireOwner(ctx, ownerID, in.StoreID); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domain.InvalidInput("product name is required")
	}
	if in.Status == "" {
		in.Status = domain.ProductStatusActive
	}
	if err := validateProduct(&in.Price, &in.Inventory, &in.Status); err != nil {
		return nil, err
	}
	p, err := s.products.CreateProduct(ctx, &domain.Product{
		StoreID:     in.StoreID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		SKU:         strings.TrimSpace(in.SKU),
		Category:    in.Category,
		Inventory:   in.Inventory,
		Status:      in.Status,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Product created", zap.String("product_id", p.ID), zap.String("store_id", p.StoreID))
	return p, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, ownerID, productID string, patch domain.ProductPatch) (*domain.Product, error) {
	if _, err := s.GetProduct(ctx, ownerID, productID); err != nil {
		return nil, err
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, domain.InvalidInput("product name cannot be empty")
	}
	if err := validateProduct(patch.Price, patch.Inventory, patch.Status); err != nil {
		return nil, err
	}
	return s.products.UpdateProduct(ctx, productID, patch)
}

func (s *catalogService) DeleteProduct(ctx context.Context, ownerID, productID string) error {
	if _, err := s.GetProduct(ctx, ownerID, productID); err != nil {
		return err
	}
	return s.products.DeleteProduct(ctx, productID)
}

func validateProduct(price *float64, inventory *int64, status *string) error {
	if price != nil && *price < 0 {
		return domain.InvalidInput("price cannot be negative")
	}
	if inventory != nil && *inventory < 0 {
		return domain.InvalidInput("inventory cannot be negative")
	}
	if status != nil && !productStatuses[*status] {
		return domain.InvalidInput("unknown product status %q", *status)
	}
	return nil
}

// ==================== Blog posts ====================

func (s *catalogService) ListBlogPosts(ctx context.Context, ownerID, storeID string) ([]*domain.BlogPost, error) {
	if _, err := s.stores.RequireOwner(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	return s.posts.ListBlogPosts(ctx, storeID)
}

func (s *catalogService) GetBlogPost(ctx context.Context, ownerID, postID string) (*domain.BlogPost, error) {
	if ownerID == "" {
		return nil, domain.ErrAuthRequired
	}
	b, err := s.posts.GetBlogPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if _, err := s.stores.RequireOwner(ctx, ownerID, b.StoreID); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *catalogService) CreateBlogPost(ctx context.Context, ownerID string, in BlogPostInput) (*domain.BlogPost, error) {
	if _, err := s.stores.RequireOwner(ctx, ownerID, in.StoreID); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, domain.InvalidInput("blog post title is required")
	}
	if in.Status == "" {
		in.Status = domain.BlogPostStatusDraft
	}
	if !blogPostStatuses[in.Status] {
		return nil, domain.InvalidInput("unknown blog post status %q", in.Status)
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	b, err := s.posts.CreateBlogPost(ctx, &domain.BlogPost{
		StoreID:         in.StoreID,
		Title:           in.Title,
		Content:         in.Content,
		MetaDescription: in.MetaDescription,
		Tags:            tags,
		Category:        in.Category,
		Status:          in.Status,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Blog post created",
		zap.String("post_id", b.ID),
		zap.String("store_id", b.StoreID),
		zap.String("status", b.Status))
	return b, nil
}

func (s *catalogService) UpdateBlogPost(ctx context.Context, ownerID, postID string, patch domain.BlogPostPatch) (*domain.BlogPost, error) {
	if _, err := s.GetBlogPost(ctx, ownerID, postID); err != nil {
		return nil, err
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, domain.InvalidInput("blog post title cannot be empty")
	}
	if patch.Status != nil && !blogPostStatuses[*patch.Status] {
		return nil, domain.InvalidInput("unknown blog post status %q", *patch.Status)
	}
	return s.posts.UpdateBlogPost(ctx, postID, patch)
}

func (s *catalogService) DeleteBlogPost(ctx context.Context, ownerID, postID string) error {
	if _, err := s.GetBlogPost(ctx, ownerID, postID); err != nil {
		return err
	}
	return s.posts.DeleteBlogPost(ctx, postID)
}

// ==================== Industries ====================

func (s *catalogService) ListIndustries(ctx context.Context, ownerID string) ([]*domain.Industry, error) {
	if ownerID == "" {
		return nil, domain.ErrAuthRequired
	}
	return s.industries.ListIndustries(ctx)
}

func (s *catalogService) GetIndustry(ctx context.Context, ownerID, id string) (*domain.Industry, error) {
	if ownerID == "" {
		return nil, domain.ErrAuthRequired
	}
	return s.industries.GetIndustry(ctx, id)
}

func (s *catalogService) CreateIndustry(ctx context.Context, ownerID string, in IndustryInput) (*domain.Industry, error) {
	if ownerID == "" {
		return nil, domain.ErrAuthRequired
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.InvalidInput("industry name is required")
	}
	return s.industries.CreateIndustry(ctx, &domain.Industry{Name: name, Description: in.Description})
}

func (s *catalogService) UpdateIndustry(ctx context.Context, ownerID, id string, patch domain.IndustryPatch) (*domain.Industry, error) {
	if ownerID == "" {
		return nil, domain.ErrAuthRequired
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, domain.InvalidInput("industry name cannot be empty")
	}
	return s.industries.UpdateIndustry(ctx, id, patch)
}

// ==================== Generation ====================

func (s *catalogService) GenerateProduct(ctx context.Context, ownerID, prompt string) (*domain.ProductDraft, error) {
	if ownerID == "" {
		return nil, domain.ErrAuthRequired
	}
	if s.generator == nil {
		return nil, fmt.Errorf("AI generation is not configured")
	}
	return s.generator.GenerateProduct(ctx, prompt)
}

func (s *catalogService) GenerateBlogPost(ctx context.Context, ownerID, storeID, prompt string) (*domain.BlogPost, error) {
	if _, err := s.stores.RequireOwner(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	if s.generator == nil {
		return nil, fmt.Errorf("AI generation is not configured")
	}
	draft, err := s.generator.GenerateBlogPost(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return s.CreateBlogPost(ctx, ownerID, BlogPostInput{
		StoreID:         storeID,
		Title:           draft.Title,
		Content:         draft.Content,
		MetaDescription: draft.MetaDescription,
		Tags:            draft.Tags,
		Category:        draft.Category,
		Status:          domain.BlogPostStatusDraft,
	})
}
