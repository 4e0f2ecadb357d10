package repository

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/graph"

	"github.com/google/uuid"
)

// --- Products: (:Store)-[:HAS_PRODUCT]->(:Product) ---

func productFromRecord(rec graph.Record) *domain.Product {
	m := rec.Map("product")
	return &domain.Product{
		ID:          graph.AsString(m["id"]),
		StoreID:     graph.AsString(m["storeId"]),
		Name:        graph.AsString(m["name"]),
		Description: graph.AsString(m["description"]),
		Price:       graph.AsFloat64(m["price"]),
		SKU:         graph.AsString(m["sku"]),
		Category:    graph.AsString(m["category"]),
		Inventory:   graph.AsInt64(m["inventory"]),
		Status:      graph.AsString(m["status"]),
		CreatedAt:   graph.AsTime(m["createdAt"]),
		UpdatedAt:   graph.AsTime(m["updatedAt"]),
	}
}

func (r *Neo4jRepository) oneProduct(ctx context.Context, op, cypher string, params map[string]any, notFound error) (*domain.Product, error) {
	recs, err := r.run.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	if len(recs) == 0 {
		return nil, notFound
	}
	return productFromRecord(recs[0]), nil
}

func (r *Neo4jRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return r.oneProduct(ctx, "get product",
		`MATCH (p:Product {id: $id}) RETURN p {.*} AS product`,
		map[string]any{"id": id}, domain.ErrProductNotFound)
}

func (r *Neo4jRepository) ListProducts(ctx context.Context, storeID string) ([]*domain.Product, error) {
	recs, err := r.run.Run(ctx, `
		MATCH (:Store {id: $storeId})-[:HAS_PRODUCT]->(p:Product)
		RETURN p {.*} AS product
		ORDER BY product.createdAt DESC, product.id`,
		map[string]any{"storeId": storeID})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	out := make([]*domain.Product, 0, len(recs))
	for _, rec := range recs {
		out = append(out, productFromRecord(rec))
	}
	return out, nil
}

func (r *Neo4jRepository) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := p.Status
	if status == "" {
		status = domain.ProductStatusActive
	}
	return r.oneProduct(ctx, "create product", `
		MATCH (s:Store {id: $storeId})
		CREATE (p:Product {
			id: $id, storeId: s.id, name: $name, description: $description,
			price: $price, sku: $sku, category: $category, inventory: $inventory,
			status: $status, createdAt: datetime(), updatedAt: datetime()
		})
		CREATE (s)-[:HAS_PRODUCT]->(p)
		RETURN p {.*} AS product`,
		map[string]any{
			"id":          id,
			"storeId":     p.StoreID,
			"name":        p.Name,
			"description": p.Description,
			"price":       p.Price,
			"sku":         p.SKU,
			"category":    p.Category,
			"inventory":   p.Inventory,
			"status":      status,
		}, domain.ErrStoreNotFound)
}

func (r *Neo4jRepository) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	return r.oneProduct(ctx, "update product", `
		MATCH (p:Product {id: $id})
		SET p.name = coalesce($name, p.name),
		    p.description = coalesce($description, p.description),
		    p.price = coalesce($price, p.price),
		    p.sku = coalesce($sku, p.sku),
		    p.category = coalesce($category, p.category),
		    p.inventory = coalesce($inventory, p.inventory),
		    p.status = coalesce($status, p.status),
		    p.updatedAt = datetime()
		RETURN p {.*} AS product`,
		map[string]any{
			"id":          id,
			"name":        strOrNil(patch.Name),
			"description": strOrNil(patch.Description),
			"price":       floatOrNil(patch.Price),
			"sku":         strOrNil(patch.SKU),
			"category":    strOrNil(patch.Category),
			"inventory":   intOrNil(patch.Inventory),
			"status":      strOrNil(patch.Status),
		}, domain.ErrProductNotFound)
}

func (r *Neo4jRepository) DeleteProduct(ctx context.Context, id string) error {
	return r.deleteNode(ctx, "Product", id, domain.ErrProductNotFound)
}

func (r *Neo4jRepository) deleteNode(ctx context.Context, label, id string, notFound error) error {
	recs, err := r.run.Run(ctx,
		fmt.Sprintf(`MATCH (n:%s {id: $id}) DETACH DELETE n RETURN $id AS id`, label),
		map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", label, err)
	}
	if len(recs) == 0 {
		return notFound
	}
	return nil
}

// --- Blog posts: (:Store)-[:HAS_BLOG_POST]->(:BlogPost) ---

func blogPostFromRecord(rec graph.Record) *domain.BlogPost {
	m := rec.Map("post")
	return &domain.BlogPost{
		ID:              graph.AsString(m["id"]),
		StoreID:         graph.AsString(m["storeId"]),
		Title:           graph.AsString(m["title"]),
		Content:         graph.AsString(m["content"]),
		MetaDescription: graph.AsString(m["metaDescription"]),
		Tags:            graph.AsStrings(m["tags"]),
		Category:        graph.AsString(m["category"]),
		Status:          graph.AsString(m["status"]),
		CreatedAt:       graph.AsTime(m["createdAt"]),
		UpdatedAt:       graph.AsTime(m["updatedAt"]),
	}
}

func (r *Neo4jRepository) oneBlogPost(ctx context.Context, op, cypher string, params map[string]any, notFound error) (*domain.BlogPost, error) {
	recs, err := r.run.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	if len(recs) == 0 {
		return nil, notFound
	}
	return blogPostFromRecord(recs[0]), nil
}

func (r *Neo4jRepository) GetBlogPost(ctx context.Context, id string) (*domain.BlogPost, error) {
	return r.oneBlogPost(ctx, "get blog post",
		`MATCH (b:BlogPost {id: $id}) RETURN b {.*} AS post`,
		map[string]any{"id": id}, domain.ErrBlogPostNotFound)
}

func (r *Neo4jRepository) ListBlogPosts(ctx context.Context, storeID string) ([]*domain.BlogPost, error) {
	recs, err := r.run.Run(ctx, `
		MATCH (:Store {id: $storeId})-[:HAS_BLOG_POST]->(b:BlogPost)
		RETURN b {.*} AS post
		ORDER BY post.createdAt DESC, post.id`,
		map[string]any{"storeId": storeID})
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	out := make([]*domain.BlogPost, 0, len(recs))
	for _, rec := range recs {
		out = append(out, blogPostFromRecord(rec))
	}
	return out, nil
}

func (r *Neo4jRepository) CreateBlogPost(ctx context.Context, p *domain.BlogPost) (*domain.BlogPost, error) {
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := p.Status
	if status == "" {
		status = domain.BlogPostStatusDraft
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return r.oneBlogPost(ctx, "create blog post", `
		MATCH (s:Store {id: $storeId})
		CREATE (b:BlogPost {
			id: $id, storeId: s.id, title: $title, content: $content,
			metaDescription: $metaDescription, tags: $tags, category: $category,
			status: $status, createdAt: datetime(), updatedAt: datetime()
		})
		CREATE (s)-[:HAS_BLOG_POST]->(b)
		RETURN b {.*} AS post`,
		map[string]any{
			"id":              id,
			"storeId":         p.StoreID,
			"title":           p.Title,
			"content":         p.Content,
			"metaDescription": p.MetaDescription,
			"tags":            tags,
			"category":        p.Category,
			"status":          status,
		}, domain.ErrStoreNotFound)
}

func (r *Neo4jRepository) UpdateBlogPost(ctx context.Context, id string, patch domain.BlogPostPatch) (*domain.BlogPost, error) {
	var tags any
	if patch.Tags != nil {
		tags = patch.Tags
	}
	return r.oneBlogPost(ctx, "update blog post", `
		MATCH (b:BlogPost {id: $id})
		SET b.title = coalesce($title, b.title),
		    b.content = coalesce($content, b.content),
		    b.metaDescription = coalesce($metaDescription, b.metaDescription),
		    b.tags = coalesce($tags, b.tags),
		    b.category = coalesce($category, b.category),
		    b.status = coalesce($status, b.status),
		    b.updatedAt = datetime()
		RETURN b {.*} AS post`,
		map[string]any{
			"id":              id,
			"title":           strOrNil(patch.Title),
			"content":         strOrNil(patch.Content),
			"metaDescription": strOrNil(patch.MetaDescription),
			"tags":            tags,
			"category":        strOrNil(patch.Category),
			"status":          strOrNil(patch.Status),
		}, domain.ErrBlogPostNotFound)
}

func (r *Neo4jRepository) DeleteBlogPost(ctx context.Context, id string) error {
	return r.deleteNode(ctx, "BlogPost", id, domain.ErrBlogPostNotFound)
}

// --- Industries ---

func industryFromRecord(rec graph.Record) *domain.Industry {
	m := rec.Map("industry")
	return &domain.Industry{
		ID:          graph.AsString(m["id"]),
		Name:        graph.AsString(m["name"]),
		Description: graph.AsString(m["description"]),
		CreatedAt:   graph.AsTime(m["createdAt"]),
		UpdatedAt:   graph.AsTime(m["updatedAt"]),
	}
}

func (r *Neo4jRepository) GetIndustry(ctx context.Context, id string) (*domain.Industry, error) {
	recs, err := r.run.Run(ctx,
		`MATCH (i:Industry {id: $id}) RETURN i {.*} AS industry`,
		map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get industry: %w", err)
	}
	if len(recs) == 0 {
		return nil, domain.ErrIndustryNotFound
	}
	return industryFromRecord(recs[0]), nil
}

func (r *Neo4jRepository) ListIndustries(ctx context.Context) ([]*domain.Industry, error) {
	recs, err := r.run.Run(ctx,
		`MATCH (i:Industry) RETURN i {.*} AS industry ORDER BY industry.name`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list industries: %w", err)
	}
	out := make([]*domain.Industry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, industryFromRecord(rec))
	}
	return out, nil
}

func (r *Neo4jRepository) CreateIndustry(ctx context.Context, in *domain.Industry) (*domain.Industry, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	recs, err := r.run.Run(ctx, `
		CREATE (i:Industry {id: $id, name: $name, description: $description,
		                    createdAt: datetime(), updatedAt: datetime()})
		RETURN i {.*} AS industry`,
		map[string]any{"id": id, "name": in.Name, "description": in.Description})
	if err != nil {
		return nil, fmt.Errorf("failed to create industry: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("failed to create industry: no row returned")
	}
	return industryFromRecord(recs[0]), nil
}

func (r *Neo4jRepository) UpdateIndustry(ctx context.Context, id string, patch domain.IndustryPatch) (*domain.Industry, error) {
	recs, err := r.run.Run(ctx, `
		MATCH (i:Industry {id: $id})
		SET i.name = coalesce($name, i.name),
		    i.description = coalesce($description, i.description),
		    i.updatedAt = datetime()
		RETURN i {.*} AS industry`,
		map[string]any{"id": id, "name": strOrNil(patch.Name), "description": strOrNil(patch.Description)})
	if err != nil {
		return nil, fmt.Errorf("failed to update industry: %w", err)
	}
	if len(recs) == 0 {
		return nil, domain.ErrIndustryNotFound
	}
	return industryFromRecord(recs[0]), nil
}
