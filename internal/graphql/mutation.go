package gql

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/service"

	"github.com/graph-gophers/graphql-go"
)

type createStoreInput struct {
	Name      string
	Industry  *string
	Subdomain string
}

type storeMetricsInput struct {
	Sales      *float64
	Visitors   *int32
	Conversion *float64
}

type updateStoreInput struct {
	Name      *string
	Industry  *string
	Subdomain *string
	Metrics   *storeMetricsInput
}

type updateUserInput struct {
	Name  *string
	Email *string
	Image *string
}

type createIndustryInput struct {
	Name        string
	Description *string
}

type updateIndustryInput struct {
	Name        *string
	Description *string
}

type createProductInput struct {
	StoreID     graphql.ID
	Name        string
	Description *string
	Price       float64
	SKU         *string
	Category    *string
	Inventory   *int32
	Status      *string
}

type updateProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	SKU         *string
	Category    *string
	Inventory   *int32
	Status      *string
}

type createBlogPostInput struct {
	StoreID         graphql.ID
	Title           string
	Content         *string
	MetaDescription *string
	Tags            *[]string
	Category        *string
	Status          *string
}

type updateBlogPostInput struct {
	Title           *string
	Content         *string
	MetaDescription *string
	Tags            *[]string
	Category        *string
	Status          *string
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ==================== Stores ====================

func (r *Resolver) CreateStore(ctx context.Context, args struct{ Input createStoreInput }) (*storeResolver, error) {
	id, err := mutator(ctx)
	if err != nil {
		return nil, err
	}
	s, err := r.stores.CreateStore(ctx, id, service.CreateStoreInput{
		Name:      args.Input.Name,
		Industry:  deref(args.Input.Industry),
		Subdomain: args.Input.Subdomain,
	})
	if err != nil {
		return nil, err
	}
	return r.store(s), nil
}

func (r *Resolver) UpdateStore(ctx context.Context, args struct {
	ID    graphql.ID
	Input updateStoreInput
}) (*storeResolver, error) {
	id, err := mutator(ctx)
	if err != nil {
		return nil, err
	}
	patch := domain.StorePatch{
		Name:      args.Input.Name,
		Industry:  args.Input.Industry,
		Subdomain: args.Input.Subdomain,
	}
	if m := args.Input.Metrics; m != nil {
		patch.Metrics = &domain.StoreMetricsPatch{
			Sales:      m.Sales,
			Visitors:   i32p(m.Visitors),
			Conversion: m.Conversion,
		}
	}
	s, err := r.stores.UpdateStore(ctx, id, string(args.ID), patch)
	if err != nil {
		return nil, err
	}
	return r.store(s), nil
}

func (r *Resolver) DeleteStore(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	id, err := mutator(ctx)
	if err != nil {
		return false, err
	}
	if err := r.stores.DeleteStore(ctx, id, string(args.ID)); err != nil {
		return false, err
	}
	return true, nil
}

// ==================== User ====================

func (r *Resolver) UpdateUser(ctx context.Context, args struct{ Input updateUserInput }) (*userResolver, error) {
	id, err := mutator(ctx)
	if err != nil {
		return nil, err
	}
	o, err := r.identity.UpdateOwner(ctx, id, domain.OwnerPatch{
		Name:  args.Input.Name,
		Email: args.Input.Email,
		Image: args.Input.Image,
	})
	if err != nil {
		return nil, err
	}
	return &userResolver{o: o}, nil
}

func (r *Resolver) DeleteUser(ctx context.Context) (bool, error) {
	id, err := mutator(ctx)
	if err != nil {
		return false, err
	}
	if err := r.identity.DeleteOwner(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// ==================== Industries ====================

func (r *Resolver) CreateIndustry(ctx context.Context, args struct{ Input createIndustryInput }) (*industryResolver, error) {
	owner, err := mutator(ctx)
	if err != nil {
		return nil, err
	}
	in, err := r.catalog.CreateIndustry(ctx, owner, service.IndustryInput{
		Name:        args.Input.Name,
		Description: deref(args.Input.Description),
	})
	if err != nil {
		return nil, err
	}
	return &industryResolver{in: in}, nil
}

func (r *Resolver) UpdateIndustry(ctx context.Context, args struct {
	ID    graphql.ID
	Input updateIndustryInput
}) (*industryResolver, error) {
	owner, err := mutator(ctx)
	if err != nil {
		return nil, err
	}
	in, err := r.catalog.UpdateIndustry(ctx, owner, string(args.ID), domain.IndustryPatch{
		Name:        args.Input.Name,
		Description: args.Input.Description,
	})
	if err != nil {
		return nil, err
	}
	return &industryResolver{in: in}, nil
}

// ==================== Products ====================

func (r *Resolver) CreateProduct(ctx context.Context, args struct{ Input createProductInput }) (*productResolver, error) {
	owner, err := mutator(ctx)
	if err != nil {
		return nil, err
	}
	in := args.Input
	var inventory int64
	if in.Inventory != nil {
		inventory = int64(*in.Inventory)
	}
	p, err := r.catalog.CreateProduct(ctx, owner, service.ProductInput{
		StoreID:     string(in.StoreID),
		Name:        in.Name,
		Description: deref(in.Description),
		Price:       in.Price,
		SKU:         deref(in.SKU),
		Category:    deref(in.Category),
		Inventory:   inventory,
		Status:      deref(in.Status),
	})
	if err != nil {
		return nil, err
	}
	return &productResolver{p: p}, nil
}

func (r *Resolver) UpdateProduct(ctx context.Context, args struct {
	ID    graphql.ID
	Input updateProductInput
}) (*productResolver, error) {
	owner, err := mutator(ctx)
	if err != nil {
		return nil, err
	}
	in := args.Input
	p, err := r.catalog.UpdateProduct(ctx, owner, string(args.ID), domain.ProductPatch{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		SKU:         in.SKU,
		Category:    in.Category,
		Inventory:   i32p(in.Inventory),
		Status:      in.Status,
	})
	if err != nil {
		return nil, err
	}
	return &productResolver{p: p}, nil
}

func (r *Resolver) DeleteProduct(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	owner, err := mutator(ctx)
	if err != nil {
		return false, err
	}
	if err := r.catalog.DeleteProduct(ctx, owner, string(args.ID)); err != nil {
		return false, err
	}
	return true, nil
}

// ==================== Blog posts ====================

func (r *Resolver) CreateBlogPost(ctx context.Context, args struct{ Input createBlogPostInput }) (*blogPostResolver, error) {
	owner, err := mutator(ctx)
	if err != nil {
		return nil, err
	}
	in := args.Input
	var tags []string
	if in.Tags != nil {
		tags = *in.Tags
	}
	b, err := r.catalog.CreateBlogPost(ctx, owner, service.BlogPostInput{
		StoreID:         string(in.StoreID),
		Title:           in.Title,
		Content:         deref(in.Content),
		MetaDescription: deref(in.MetaDescription),
		Tags:            tags,
		Category:        deref(in.Category),
		Status:          deref(in.Status),
	})
	if err != nil {
		return nil, err
	}
	return &blogPostResolver{b: b}, nil
}

func (r *Resolver) UpdateBlogPost(ctx context.Context, args struct {
	ID    graphql.ID
	Input updateBlogPostInput
}) (*blogPostResolver, error) {
	owner, err := mutator(ctx)
	if err != nil {
		return nil, err
	}
	in := args.Input
	patch := domain.BlogPostPatch{
		Title:           in.Title,
		Content:         in.Content,
		MetaDescription: in.MetaDescription,
		Category:        in.Category,
		Status:          in.Status,
	}
	if in.Tags != nil {
		patch.Tags = append([]string{}, *in.Tags...)
	}
	b, err := r.catalog.UpdateBlogPost(ctx, owner, string(args.ID), patch)
	if err != nil {
		return nil, err
	}
	return &blogPostResolver{b: b}, nil
}

func (r *Resolver) DeleteBlogPost(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	owner, err := mutator(ctx)
	if err != nil {
		return false, err
	}
	if err := r.catalog.DeleteBlogPost(ctx, owner, string(args.ID)); err != nil {
		return false, err
	}
	return true, nil
}

// ==================== Generation ====================

func (r *Resolver) GenerateProduct(ctx context.Context, args struct{ Prompt string }) (*productDraftResolver, error) {
	owner, err := mutator(ctx)
	if err != nil {
		return nil, err
	}
	d, err := r.catalog.GenerateProduct(ctx, owner, args.Prompt)
	if err != nil {
		return nil, err
	}
	return &productDraftResolver{d: d}, nil
}

func (r *Resolver) GenerateBlogPost(ctx context.Context, args struct {
	StoreID graphql.ID
	Prompt  string
}) (*blogPostResolver, error) {
	owner, err := mutator(ctx)
	if err != nil {
		return nil, err
	}
	b, err := r.catalog.GenerateBlogPost(ctx, owner, string(args.StoreID), args.Prompt)
	if err != nil {
		return nil, err
	}
	return &blogPostResolver{b: b}, nil
}
