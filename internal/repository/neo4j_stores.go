package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/graph"

	"github.com/google/uuid"
)

// Neo4jRepository 图数据库后端
// Stores are (:Store) nodes owned through (:User)-[:OWNS]->(:Store); the
// ownerId property is written alongside the edge but reads use the edge.
type Neo4jRepository struct {
	run graph.Runner
}

func NewNeo4jRepository(run graph.Runner) *Neo4jRepository {
	return &Neo4jRepository{run: run}
}

// NewNeo4jRepositories wires r into every slot; ping/close are the driver's.
func NewNeo4jRepositories(r *graph.Neo4jRunner) Repositories {
	repo := NewNeo4jRepository(r)
	return Repositories{
		Owners:     repo,
		Stores:     repo,
		Products:   repo,
		BlogPosts:  repo,
		Industries: repo,
		Ping:       r.Ping,
		Close:      r.Close,
	}
}

var (
	_ OwnersRepository     = (*Neo4jRepository)(nil)
	_ StoresRepository     = (*Neo4jRepository)(nil)
	_ ProductsRepository   = (*Neo4jRepository)(nil)
	_ BlogPostsRepository  = (*Neo4jRepository)(nil)
	_ IndustriesRepository = (*Neo4jRepository)(nil)
)

const storeProjection = `s {.*} AS store, head([(o:User)-[:OWNS]->(s) | o.id]) AS ownerId`

func storeFromRecord(rec graph.Record) *domain.Store {
	m := rec.Map("store")
	return &domain.Store{
		ID:        graph.AsString(m["id"]),
		Name:      graph.AsString(m["name"]),
		Industry:  graph.AsString(m["industry"]),
		Subdomain: graph.AsString(m["subdomain"]),
		OwnerID:   rec.String("ownerId"),
		Metrics: domain.StoreMetrics{
			Sales:      graph.AsFloat64(m["sales"]),
			Visitors:   graph.AsInt64(m["visitors"]),
			Conversion: graph.AsFloat64(m["conversion"]),
		},
		CreatedAt: graph.AsTime(m["createdAt"]),
		UpdatedAt: graph.AsTime(m["updatedAt"]),
	}
}

func storesFromRecords(recs []graph.Record) []*domain.Store {
	out := make([]*domain.Store, 0, len(recs))
	for _, rec := range recs {
		out = append(out, storeFromRecord(rec))
	}
	return out
}

func (r *Neo4jRepository) oneStore(ctx context.Context, op, cypher string, params map[string]any) (*domain.Store, error) {
	recs, err := r.run.Run(ctx, cypher, params)
	if err != nil {
		if errors.Is(err, graph.ErrConstraint) {
			return nil, domain.ErrSubdomainTaken
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	if len(recs) == 0 {
		return nil, domain.ErrStoreNotFound
	}
	return storeFromRecord(recs[0]), nil
}

func (r *Neo4jRepository) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	return r.oneStore(ctx, "get store",
		`MATCH (s:Store {id: $id}) RETURN `+storeProjection,
		map[string]any{"id": id})
}

func (r *Neo4jRepository) GetStoreBySubdomain(ctx context.Context, subdomain string) (*domain.Store, error) {
	return r.oneStore(ctx, "get store by subdomain",
		`MATCH (s:Store {subdomain: $subdomain}) RETURN `+storeProjection,
		map[string]any{"subdomain": subdomain})
}

func (r *Neo4jRepository) ListStoresByOwner(ctx context.Context, ownerID string) ([]*domain.Store, error) {
	recs, err := r.run.Run(ctx, `
		MATCH (:User {id: $ownerId})-[:OWNS]->(s:Store)
		WITH DISTINCT s
		RETURN `+storeProjection+`
		ORDER BY store.createdAt, store.id`,
		map[string]any{"ownerId": ownerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list owned stores: %w", err)
	}
	return storesFromRecords(recs), nil
}

func (r *Neo4jRepository) ListOrphanStores(ctx context.Context) ([]*domain.Store, error) {
	recs, err := r.run.Run(ctx, `
		MATCH (s:Store)
		WHERE NOT EXISTS { ()-[:OWNS]->(s) }
		RETURN s {.*} AS store, null AS ownerId
		ORDER BY store.createdAt, store.id`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphan stores: %w", err)
	}
	return storesFromRecords(recs), nil
}

func (r *Neo4jRepository) AttachStores(ctx context.Context, ownerID string, storeIDs []string) ([]*domain.Store, error) {
	if _, err := r.GetOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	ids := dedupe(storeIDs)
	if len(ids) == 0 {
		return []*domain.Store{}, nil
	}
	// 写 updatedAt 先拿到节点写锁，再判断是否已有归属
	recs, err := r.run.Run(ctx, `
		MATCH (u:User {id: $ownerId})
		UNWIND $storeIds AS storeId
		MATCH (s:Store {id: storeId})
		SET s.updatedAt = datetime()
		WITH u, s
		WHERE NOT EXISTS { ()-[:OWNS]->(s) }
		CREATE (u)-[:OWNS]->(s)
		SET s.ownerId = u.id
		RETURN s {.*} AS store, u.id AS ownerId
		ORDER BY store.createdAt, store.id`,
		map[string]any{"ownerId": ownerID, "storeIds": ids})
	if err != nil {
		return nil, fmt.Errorf("failed to attach stores: %w", err)
	}
	return storesFromRecords(recs), nil
}

func (r *Neo4jRepository) IsOwner(ctx context.Context, ownerID, storeID string) (bool, error) {
	recs, err := r.run.Run(ctx,
		`RETURN EXISTS { (:User {id: $ownerId})-[:OWNS]->(:Store {id: $storeId}) } AS owns`,
		map[string]any{"ownerId": ownerID, "storeId": storeID})
	if err != nil {
		return false, fmt.Errorf("failed to check ownership: %w", err)
	}
	if len(recs) == 0 {
		return false, nil
	}
	owns, _ := recs[0]["owns"].(bool)
	return owns, nil
}

func (r *Neo4jRepository) CreateStore(ctx context.Context, ownerID string, store *domain.Store) (*domain.Store, error) {
	id := store.ID
	if id == "" {
		id = uuid.NewString()
	}
	params := map[string]any{
		"id":         id,
		"name":       store.Name,
		"industry":   store.Industry,
		"subdomain":  store.Subdomain,
		"sales":      store.Metrics.Sales,
		"visitors":   store.Metrics.Visitors,
		"conversion": store.Metrics.Conversion,
	}
	create := `CREATE (s:Store {
			id: $id, name: $name, industry: $industry, subdomain: $subdomain,
			sales: $sales, visitors: $visitors, conversion: $conversion,
			createdAt: datetime(), updatedAt: datetime()
		})`

	if ownerID == "" {
		return r.oneStore(ctx, "create store", create+`
		RETURN s {.*} AS store, null AS ownerId`, params)
	}

	params["ownerId"] = ownerID
	s, err := r.oneStore(ctx, "create store", `
		MATCH (u:User {id: $ownerId})
		`+create+`
		SET s.ownerId = u.id
		CREATE (u)-[:OWNS]->(s)
		RETURN s {.*} AS store, u.id AS ownerId`, params)
	if errors.Is(err, domain.ErrStoreNotFound) {
		return nil, domain.ErrOwnerNotFound
	}
	return s, err
}

func (r *Neo4jRepository) UpdateStore(ctx context.Context, id string, patch domain.StorePatch) (*domain.Store, error) {
	params := map[string]any{
		"id":         id,
		"name":       strOrNil(patch.Name),
		"industry":   strOrNil(patch.Industry),
		"subdomain":  strOrNil(patch.Subdomain),
		"sales":      nil,
		"visitors":   nil,
		"conversion": nil,
	}
	if m := patch.Metrics; m != nil {
		params["sales"] = floatOrNil(m.Sales)
		params["visitors"] = intOrNil(m.Visitors)
		params["conversion"] = floatOrNil(m.Conversion)
	}
	return r.oneStore(ctx, "update store", `
		MATCH (s:Store {id: $id})
		SET s.name = coalesce($name, s.name),
		    s.industry = coalesce($industry, s.industry),
		    s.subdomain = coalesce($subdomain, s.subdomain),
		    s.sales = coalesce($sales, s.sales),
		    s.visitors = coalesce($visitors, s.visitors),
		    s.conversion = coalesce($conversion, s.conversion),
		    s.updatedAt = datetime()
		RETURN `+storeProjection, params)
}

func (r *Neo4jRepository) DeleteStore(ctx context.Context, id string) error {
	recs, err := r.run.Run(ctx, `
		MATCH (s:Store {id: $id})
		WITH s, [(s)-[:HAS_PRODUCT|HAS_BLOG_POST]->(c) | c] AS children
		FOREACH (c IN children | DETACH DELETE c)
		DETACH DELETE s
		RETURN size(children) AS removed`,
		map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}
	if len(recs) == 0 {
		return domain.ErrStoreNotFound
	}
	return nil
}
