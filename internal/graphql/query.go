package gql

import (
	"context"

	"storefront/internal/auth"
	"storefront/internal/domain"

	"github.com/graph-gophers/graphql-go"
)

func (r *Resolver) Hello() string { return "Hello from the storefront API" }

// Me 同步并返回当前登录用户
func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	ident, ok := auth.IdentityFrom(ctx)
	if !ok {
		return nil, domain.ErrAuthRequired
	}
	o, err := r.identity.EnsureOwner(ctx, ident)
	if err != nil {
		return nil, err
	}
	return &userResolver{o: o}, nil
}

// Stores runs the ownership reconciler for the caller.
func (r *Resolver) Stores(ctx context.Context) ([]*storeResolver, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	items, err := r.stores.ListStores(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]*storeResolver, 0, len(items))
	for _, s := range items {
		out = append(out, r.store(s))
	}
	return out, nil
}

func (r *Resolver) Store(ctx context.Context, args struct{ ID graphql.ID }) (*storeResolver, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	s, err := r.stores.GetStore(ctx, id, string(args.ID))
	if err != nil {
		return nil, err
	}
	return r.store(s), nil
}

func (r *Resolver) StoreBySubdomain(ctx context.Context, args struct{ Subdomain string }) (*storeResolver, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	s, err := r.stores.GetStoreBySubdomain(ctx, args.Subdomain)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return r.store(s), nil
}

func (r *Resolver) Industries(ctx context.Context) ([]*industryResolver, error) {
	items, err := r.catalog.ListIndustries(ctx, auth.OwnerID(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]*industryResolver, 0, len(items))
	for _, in := range items {
		out = append(out, &industryResolver{in: in})
	}
	return out, nil
}

func (r *Resolver) Industry(ctx context.Context, args struct{ ID graphql.ID }) (*industryResolver, error) {
	in, err := r.catalog.GetIndustry(ctx, auth.OwnerID(ctx), string(args.ID))
	if err != nil {
		return nil, err
	}
	return &industryResolver{in: in}, nil
}

func (r *Resolver) Products(ctx context.Context, args struct{ StoreID graphql.ID }) ([]*productResolver, error) {
	items, err := r.catalog.ListProducts(ctx, auth.OwnerID(ctx), string(args.StoreID))
	if err != nil {
		return nil, err
	}
	return products(items), nil
}

func (r *Resolver) Product(ctx context.Context, args struct{ ID graphql.ID }) (*productResolver, error) {
	p, err := r.catalog.GetProduct(ctx, auth.OwnerID(ctx), string(args.ID))
	if err != nil {
		return nil, err
	}
	return &productResolver{p: p}, nil
}

func (r *Resolver) BlogPosts(ctx context.Context, args struct{ StoreID graphql.ID }) ([]*blogPostResolver, error) {
	items, err := r.catalog.ListBlogPosts(ctx, auth.OwnerID(ctx), string(args.StoreID))
	if err != nil {
		return nil, err
	}
	return blogPosts(items), nil
}

func (r *Resolver) BlogPost(ctx context.Context, args struct{ ID graphql.ID }) (*blogPostResolver, error) {
	b, err := r.catalog.GetBlogPost(ctx, auth.OwnerID(ctx), string(args.ID))
	if err != nil {
		return nil, err
	}
	return &blogPostResolver{b: b}, nil
}
