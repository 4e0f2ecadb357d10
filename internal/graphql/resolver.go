package gql

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/service"

	"github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

//go:embed schema.graphql
var schemaSDL string

// Resolver GraphQL 根解析器
type Resolver struct {
	identity service.IdentityService
	stores   service.StoreService
	catalog  service.CatalogService
	logger   *zap.Logger
}

func NewResolver(identity service.IdentityService, stores service.StoreService, catalog service.CatalogService, logger *zap.Logger) *Resolver {
	return &Resolver{identity: identity, stores: stores, catalog: catalog, logger: logger}
}

// NewSchema parses the embedded SDL against r.
func NewSchema(r *Resolver) (*graphql.Schema, error) {
	return graphql.ParseSchema(schemaSDL, r, graphql.MaxDepth(12))
}

// caller returns the authenticated owner id or ErrAuthRequired.
func caller(ctx context.Context) (string, error) {
	id := auth.OwnerID(ctx)
	if id == "" {
		return "", domain.ErrAuthRequired
	}
	return id, nil
}

type readOnlyKey struct{}

// ErrReadOnly is returned by mutations executed from a GET request.
var ErrReadOnly = errors.New("mutations require POST")

// withReadOnly marks ctx as coming from a safe (GET) request.
func withReadOnly(ctx context.Context) context.Context {
	return context.WithValue(ctx, readOnlyKey{}, true)
}

// mutator is caller for mutations: read-only requests are refused first.
func mutator(ctx context.Context) (string, error) {
	if ro, _ := ctx.Value(readOnlyKey{}).(bool); ro {
		return "", ErrReadOnly
	}
	return caller(ctx)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func i32p(v *int32) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

// ==================== Object resolvers ====================

type userResolver struct{ o *domain.Owner }

func (u *userResolver) ID() graphql.ID    { return graphql.ID(u.o.ID) }
func (u *userResolver) Name() string      { return u.o.Name }
func (u *userResolver) Email() string     { return u.o.Email }
func (u *userResolver) CreatedAt() string { return formatTime(u.o.CreatedAt) }
func (u *userResolver) UpdatedAt() string { return formatTime(u.o.UpdatedAt) }
func (u *userResolver) Image() *string {
	if u.o.Image == "" {
		return nil
	}
	return &u.o.Image
}

type storeResolver struct {
	s    *domain.Store
	root *Resolver
}

func (r *Resolver) store(s *domain.Store) *storeResolver { return &storeResolver{s: s, root: r} }

func (s *storeResolver) ID() graphql.ID    { return graphql.ID(s.s.ID) }
func (s *storeResolver) Name() string      { return s.s.Name }
func (s *storeResolver) Industry() string  { return s.s.Industry }
func (s *storeResolver) Subdomain() string { return s.s.Subdomain }
func (s *storeResolver) URL() string       { return s.root.stores.StoreURL(s.s.Subdomain) }
func (s *storeResolver) CreatedAt() string { return formatTime(s.s.CreatedAt) }
func (s *storeResolver) UpdatedAt() string { return formatTime(s.s.UpdatedAt) }
func (s *storeResolver) Metrics() *metricsResolver {
	return &metricsResolver{m: s.s.Metrics}
}

// Owner 通过 OWNS 边解析；孤儿店铺返回 null
func (s *storeResolver) Owner(ctx context.Context) (*userResolver, error) {
	if s.s.OwnerID == "" {
		return nil, nil
	}
	o, err := s.root.identity.GetOwner(ctx, s.s.OwnerID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &userResolver{o: o}, nil
}

func (s *storeResolver) Products(ctx context.Context) ([]*productResolver, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.root.catalog.ListProducts(ctx, id, s.s.ID)
	if err != nil {
		return nil, err
	}
	return products(items), nil
}

func (s *storeResolver) BlogPosts(ctx context.Context) ([]*blogPostResolver, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.root.catalog.ListBlogPosts(ctx, id, s.s.ID)
	if err != nil {
		return nil, err
	}
	return blogPosts(items), nil
}

type metricsResolver struct{ m domain.StoreMetrics }

func (m *metricsResolver) Sales() float64      { return m.m.Sales }
func (m *metricsResolver) Visitors() int32     { return int32(m.m.Visitors) }
func (m *metricsResolver) Conversion() float64 { return m.m.Conversion }

type productResolver struct{ p *domain.Product }

func products(items []*domain.Product) []*productResolver {
	out := make([]*productResolver, 0, len(items))
	for _, p := range items {
		out = append(out, &productResolver{p: p})
	}
	return out
}

func (p *productResolver) ID() graphql.ID      { return graphql.ID(p.p.ID) }
func (p *productResolver) StoreID() graphql.ID { return graphql.ID(p.p.StoreID) }
func (p *productResolver) Name() string        { return p.p.Name }
func (p *productResolver) Description() string { return p.p.Description }
func (p *productResolver) Price() float64      { return p.p.Price }
func (p *productResolver) SKU() string         { return p.p.SKU }
func (p *productResolver) Category() string    { return p.p.Category }
func (p *productResolver) Inventory() int32    { return int32(p.p.Inventory) }
func (p *productResolver) Status() string      { return p.p.Status }
func (p *productResolver) CreatedAt() string   { return formatTime(p.p.CreatedAt) }
func (p *productResolver) UpdatedAt() string   { return formatTime(p.p.UpdatedAt) }

type blogPostResolver struct{ b *domain.BlogPost }

func blogPosts(items []*domain.BlogPost) []*blogPostResolver {
	out := make([]*blogPostResolver, 0, len(items))
	for _, b := range items {
		out = append(out, &blogPostResolver{b: b})
	}
	return out
}

func (b *blogPostResolver) ID() graphql.ID          { return graphql.ID(b.b.ID) }
func (b *blogPostResolver) StoreID() graphql.ID     { return graphql.ID(b.b.StoreID) }
func (b *blogPostResolver) Title() string           { return b.b.Title }
func (b *blogPostResolver) Content() string         { return b.b.Content }
func (b *blogPostResolver) MetaDescription() string { return b.b.MetaDescription }
func (b *blogPostResolver) Category() string        { return b.b.Category }
func (b *blogPostResolver) Status() string          { return b.b.Status }
func (b *blogPostResolver) CreatedAt() string       { return formatTime(b.b.CreatedAt) }
func (b *blogPostResolver) UpdatedAt() string       { return formatTime(b.b.UpdatedAt) }
func (b *blogPostResolver) Tags() []string {
	if b.b.Tags == nil {
		return []string{}
	}
	return b.b.Tags
}

type industryResolver struct{ in *domain.Industry }

func (i *industryResolver) ID() graphql.ID      { return graphql.ID(i.in.ID) }
func (i *industryResolver) Name() string        { return i.in.Name }
func (i *industryResolver) Description() string { return i.in.Description }
func (i *industryResolver) CreatedAt() string   { return formatTime(i.in.CreatedAt) }
func (i *industryResolver) UpdatedAt() string   { return formatTime(i.in.UpdatedAt) }

type productDraftResolver struct{ d *domain.ProductDraft }

func (d *productDraftResolver) Title() string            { return d.d.Title }
func (d *productDraftResolver) Description() string      { return d.d.Description }
func (d *productDraftResolver) Category() string         { return d.d.Category }
func (d *productDraftResolver) PriceSuggestion() float64 { return d.d.PriceSuggestion }
func (d *productDraftResolver) SKUSuggestion() string    { return d.d.SKUSuggestion }
