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

const pqUniqueViolation = "23505"

// PostgresRepository 关系型后端；OWNS 关系存放在 store_ownerships
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func NewPostgresRepositories(db *sql.DB) Repositories {
	repo := NewPostgresRepository(db)
	return Repositories{
		Owners:     repo,
		Stores:     repo,
		Products:   repo,
		BlogPosts:  repo,
		Industries: repo,
		Ping:       db.PingContext,
		Close:      func(context.Context) error { return db.Close() },
	}
}

// 确保实现了接口
var (
	_ OwnersRepository     = (*PostgresRepository)(nil)
	_ StoresRepository     = (*PostgresRepository)(nil)
	_ ProductsRepository   = (*PostgresRepository)(nil)
	_ BlogPostsRepository  = (*PostgresRepository)(nil)
	_ IndustriesRepository = (*PostgresRepository)(nil)
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

type rowScanner interface {
	Scan(dest ...any) error
}

// owner_id is derived from store_ownerships, not read from stores.owner_id.
const storeSelect = `
	SELECT
		s.id,
		s.name,
		s.industry,
		s.subdomain,
		COALESCE((SELECT so.owner_id FROM store_ownerships so
		          WHERE so.store_id = s.id ORDER BY so.owner_id LIMIT 1), '') AS owner_id,
		s.sales,
		s.visitors,
		s.conversion,
		s.created_at,
		s.updated_at
	FROM stores s`

func scanStore(row rowScanner) (*domain.Store, error) {
	var s domain.Store
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Industry,
		&s.Subdomain,
		&s.OwnerID,
		&s.Metrics.Sales,
		&s.Metrics.Visitors,
		&s.Metrics.Conversion,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getStore(ctx context.Context, q queryer, where string, arg any) (*domain.Store, error) {
	s, err := scanStore(q.QueryRowContext(ctx, storeSelect+" WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return s, nil
}

func listStores(ctx context.Context, q queryer, query string, args ...any) ([]*domain.Store, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Store{}
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	return getStore(ctx, r.db, "s.id = $1", id)
}

func (r *PostgresRepository) GetStoreBySubdomain(ctx context.Context, subdomain string) (*domain.Store, error) {
	return getStore(ctx, r.db, "s.subdomain = $1", subdomain)
}

func (r *PostgresRepository) ListStoresByOwner(ctx context.Context, ownerID string) ([]*domain.Store, error) {
	stores, err := listStores(ctx, r.db, storeSelect+`
		WHERE EXISTS (SELECT 1 FROM store_ownerships so WHERE so.store_id = s.id AND so.owner_id = $1)
		ORDER BY s.created_at, s.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned stores: %w", err)
	}
	return stores, nil
}

func (r *PostgresRepository) ListOrphanStores(ctx context.Context) ([]*domain.Store, error) {
	stores, err := listStores(ctx, r.db, storeSelect+`
		WHERE NOT EXISTS (SELECT 1 FROM store_ownerships so WHERE so.store_id = s.id)
		ORDER BY s.created_at, s.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphan stores: %w", err)
	}
	return stores, nil
}

func ownerExists(ctx context.Context, q queryer, ownerID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM owners WHERE id = $1`, ownerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrOwnerNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get owner: %w", err)
	}
	return nil
}

func (r *PostgresRepository) AttachStores(ctx context.Context, ownerID string, storeIDs []string) ([]*domain.Store, error) {
	ids := dedupe(storeIDs)
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ownerExists(ctx, tx, ownerID); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*domain.Store{}, nil
	}

	// 先锁行；后续语句在 READ COMMITTED 下取新快照，能看到并发事务已提交的边
	lock, err := tx.QueryContext(ctx,
		`SELECT id FROM stores WHERE id = ANY($1) ORDER BY id FOR UPDATE`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to lock stores: %w", err)
	}
	lock.Close()
	if err := lock.Err(); err != nil {
		return nil, fmt.Errorf("failed to lock stores: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		WITH attached AS (
			INSERT INTO store_ownerships (owner_id, store_id)
			SELECT $1, s.id FROM stores s
			WHERE s.id = ANY($2)
			  AND NOT EXISTS (SELECT 1 FROM store_ownerships so WHERE so.store_id = s.id)
			RETURNING store_id
		)
		UPDATE stores SET owner_id = $1, updated_at = now()
		WHERE id IN (SELECT store_id FROM attached)
		RETURNING id`, ownerID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to attach stores: %w", err)
	}
	var attached []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to attach stores: %w", err)
		}
		attached = append(attached, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to attach stores: %w", err)
	}

	out := []*domain.Store{}
	if len(attached) > 0 {
		out, err = listStores(ctx, tx, storeSelect+`
			WHERE s.id = ANY($1)
			ORDER BY s.created_at, s.id`, pq.Array(attached))
		if err != nil {
			return nil, fmt.Errorf("failed to load attached stores: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit attach: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) IsOwner(ctx context.Context, ownerID, storeID string) (bool, error) {
	var owns bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM store_ownerships WHERE owner_id = $1 AND store_id = $2)`,
		ownerID, storeID).Scan(&owns)
	if err != nil {
		return false, fmt.Errorf("failed to check ownership: %w", err)
	}
	return owns, nil
}

func (r *PostgresRepository) CreateStore(ctx context.Context, ownerID string, store *domain.Store) (*domain.Store, error) {
	s := *store
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.OwnerID = ownerID

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if ownerID != "" {
		if err := ownerExists(ctx, tx, ownerID); err != nil {
			return nil, err
		}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO stores (id, name, industry, subdomain, owner_id, sales, visitors, conversion)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
		RETURNING created_at, updated_at`,
		s.ID, s.Name, s.Industry, s.Subdomain, ownerID,
		s.Metrics.Sales, s.Metrics.Visitors, s.Metrics.Conversion,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrSubdomainTaken
		}
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	if ownerID != "" {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO store_ownerships (owner_id, store_id) VALUES ($1, $2)`,
			ownerID, s.ID); err != nil {
			return nil, fmt.Errorf("failed to create ownership: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit store: %w", err)
	}
	return &s, nil
}

func (r *PostgresRepository) UpdateStore(ctx context.Context, id string, patch domain.StorePatch) (*domain.Store, error) {
	var sales, conversion *float64
	var visitors *int64
	if m := patch.Metrics; m != nil {
		sales, visitors, conversion = m.Sales, m.Visitors, m.Conversion
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE stores SET
			name = COALESCE($2, name),
			industry = COALESCE($3, industry),
			subdomain = COALESCE($4, subdomain),
			sales = COALESCE($5, sales),
			visitors = COALESCE($6, visitors),
			conversion = COALESCE($7, conversion),
			updated_at = now()
		WHERE id = $1`,
		id, strOrNil(patch.Name), strOrNil(patch.Industry), strOrNil(patch.Subdomain),
		floatOrNil(sales), intOrNil(visitors), floatOrNil(conversion))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrSubdomainTaken
		}
		return nil, fmt.Errorf("failed to update store: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrStoreNotFound
	}
	return r.GetStore(ctx, id)
}

// DeleteStore relies on ON DELETE CASCADE for products, posts and ownerships.
func (r *PostgresRepository) DeleteStore(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stores WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrStoreNotFound
	}
	return nil
}
