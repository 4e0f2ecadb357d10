package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// --- Products ---

const productColumns = `id, store_id, name, description, price, sku, category, inventory, status, created_at, updated_at`

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.StoreID, &p.Name, &p.Description, &p.Price, &p.SKU,
		&p.Category, &p.Inventory, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListProducts(ctx context.Context, storeID string) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE store_id = $1 ORDER BY created_at DESC, id`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	out := []*domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := p.Status
	if status == "" {
		status = domain.ProductStatusActive
	}
	out, err := scanProduct(r.db.QueryRowContext(ctx, `
		INSERT INTO products (id, store_id, name, description, price, sku, category, inventory, status)
		SELECT $1, s.id, $3, $4, $5, $6, $7, $8, $9 FROM stores s WHERE s.id = $2
		RETURNING `+productColumns,
		id, p.StoreID, p.Name, p.Description, p.Price, p.SKU, p.Category, p.Inventory, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	out, err := scanProduct(r.db.QueryRowContext(ctx, `
		UPDATE products SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			price = COALESCE($4, price),
			sku = COALESCE($5, sku),
			category = COALESCE($6, category),
			inventory = COALESCE($7, inventory),
			status = COALESCE($8, status),
			updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		id, strOrNil(patch.Name), strOrNil(patch.Description), floatOrNil(patch.Price),
		strOrNil(patch.SKU), strOrNil(patch.Category), intOrNil(patch.Inventory), strOrNil(patch.Status)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) DeleteProduct(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "products", id, domain.ErrProductNotFound)
}

func (r *PostgresRepository) deleteByID(ctx context.Context, table, id string, notFound error) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound
	}
	return nil
}

// --- Blog posts ---

const blogPostColumns = `id, store_id, title, content, meta_description, tags, category, status, created_at, updated_at`

func scanBlogPost(row rowScanner) (*domain.BlogPost, error) {
	var b domain.BlogPost
	var tags pq.StringArray
	err := row.Scan(&b.ID, &b.StoreID, &b.Title, &b.Content, &b.MetaDescription, &tags,
		&b.Category, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Tags = []string(tags)
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return &b, nil
}

func (r *PostgresRepository) GetBlogPost(ctx context.Context, id string) (*domain.BlogPost, error) {
	b, err := scanBlogPost(r.db.QueryRowContext(ctx,
		`SELECT `+blogPostColumns+` FROM blog_posts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBlogPostNotFound
		}
		return nil, fmt.Errorf("failed to get blog post: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) ListBlogPosts(ctx context.Context, storeID string) ([]*domain.BlogPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+blogPostColumns+` FROM blog_posts WHERE store_id = $1 ORDER BY created_at DESC, id`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	defer rows.Close()

	out := []*domain.BlogPost{}
	for rows.Next() {
		b, err := scanBlogPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog post: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CreateBlogPost(ctx context.Context, p *domain.BlogPost) (*domain.BlogPost, error) {
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
	out, err := scanBlogPost(r.db.QueryRowContext(ctx, `
		INSERT INTO blog_posts (id, store_id, title, content, meta_description, tags, category, status)
		SELECT $1, s.id, $3, $4, $5, $6, $7, $8 FROM stores s WHERE s.id = $2
		RETURNING `+blogPostColumns,
		id, p.StoreID, p.Title, p.Content, p.MetaDescription, pq.Array(tags), p.Category, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to create blog post: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) UpdateBlogPost(ctx context.Context, id string, patch domain.BlogPostPatch) (*domain.BlogPost, error) {
	var tags any
	if patch.Tags != nil {
		tags = pq.Array(patch.Tags)
	}
	out, err := scanBlogPost(r.db.QueryRowContext(ctx, `
		UPDATE blog_posts SET
			title = COALESCE($2, title),
			content = COALESCE($3, content),
			meta_description = COALESCE($4, meta_description),
			tags = COALESCE($5, tags),
			category = COALESCE($6, category),
			status = COALESCE($7, status),
			updated_at = now()
		WHERE id = $1
		RETURNING `+blogPostColumns,
		id, strOrNil(patch.Title), strOrNil(patch.Content), strOrNil(patch.MetaDescription),
		tags, strOrNil(patch.Category), strOrNil(patch.Status)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBlogPostNotFound
		}
		return nil, fmt.Errorf("failed to update blog post: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) DeleteBlogPost(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "blog_posts", id, domain.ErrBlogPostNotFound)
}

// --- Industries ---

const industryColumns = `id, name, description, created_at, updated_at`

func scanIndustry(row rowScanner) (*domain.Industry, error) {
	var in domain.Industry
	if err := row.Scan(&in.ID, &in.Name, &in.Description, &in.CreatedAt, &in.UpdatedAt); err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *PostgresRepository) GetIndustry(ctx context.Context, id string) (*domain.Industry, error) {
	in, err := scanIndustry(r.db.QueryRowContext(ctx,
		`SELECT `+industryColumns+` FROM industries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIndustryNotFound
		}
		return nil, fmt.Errorf("failed to get industry: %w", err)
	}
	return in, nil
}

func (r *PostgresRepository) ListIndustries(ctx context.Context) ([]*domain.Industry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+industryColumns+` FROM industries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list industries: %w", err)
	}
	defer rows.Close()

	out := []*domain.Industry{}
	for rows.Next() {
		in, err := scanIndustry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan industry: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CreateIndustry(ctx context.Context, in *domain.Industry) (*domain.Industry, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	out, err := scanIndustry(r.db.QueryRowContext(ctx, `
		INSERT INTO industries (id, name, description) VALUES ($1, $2, $3)
		RETURNING `+industryColumns, id, in.Name, in.Description))
	if err != nil {
		return nil, fmt.Errorf("failed to create industry: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) UpdateIndustry(ctx context.Context, id string, patch domain.IndustryPatch) (*domain.Industry, error) {
	out, err := scanIndustry(r.db.QueryRowContext(ctx, `
		UPDATE industries SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			updated_at = now()
		WHERE id = $1
		RETURNING `+industryColumns, id, strOrNil(patch.Name), strOrNil(patch.Description)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIndustryNotFound
		}
		return nil, fmt.Errorf("failed to update industry: %w", err)
	}
	return out, nil
}
