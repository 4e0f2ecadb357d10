//go:build integration

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a disposable PostgreSQL and applies the schema.
func setupTestDB(t *testing.T) *sql.DB {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("Skipping integration test: cannot start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db))
	return db
}

func TestPostgresIntegration_OwnershipLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	_, err := repo.CreateOwner(ctx, &domain.Owner{ID: "u1", Name: "One", Email: "one@example.com"})
	require.NoError(t, err)
	_, err = repo.CreateOwner(ctx, &domain.Owner{ID: "u2", Name: "Two", Email: "two@example.com"})
	require.NoError(t, err)

	owned, err := repo.CreateStore(ctx, "u1", &domain.Store{Name: "Acme", Subdomain: "acme"})
	require.NoError(t, err)
	orphan, err := repo.CreateStore(ctx, "", &domain.Store{Name: "Lost", Subdomain: "lost"})
	require.NoError(t, err)

	_, err = repo.CreateStore(ctx, "u2", &domain.Store{Name: "Dup", Subdomain: "acme"})
	require.ErrorIs(t, err, domain.ErrSubdomainTaken)

	orphans, err := repo.ListOrphanStores(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{orphan.ID}, domain.StoreIDs(orphans))

	attached, err := repo.AttachStores(ctx, "u2", []string{orphan.ID, owned.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{orphan.ID}, domain.StoreIDs(attached))
	assert.Equal(t, "u2", attached[0].OwnerID)

	again, err := repo.AttachStores(ctx, "u1", []string{orphan.ID})
	require.NoError(t, err)
	assert.Empty(t, again)

	// id reassignment keeps the edges
	_, err = repo.ReassignOwnerID(ctx, "two@example.com", &domain.Owner{ID: "u2-new"})
	require.NoError(t, err)
	list, err := repo.ListStoresByOwner(ctx, "u2-new")
	require.NoError(t, err)
	assert.Equal(t, []string{orphan.ID}, domain.StoreIDs(list))

	_, err = repo.CreateProduct(ctx, &domain.Product{StoreID: owned.ID, Name: "Mug", Price: 9.5})
	require.NoError(t, err)
	_, err = repo.CreateBlogPost(ctx, &domain.BlogPost{StoreID: owned.ID, Title: "Hi", Tags: []string{"a"}})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteStore(ctx, owned.ID))
	products, err := repo.ListProducts(ctx, owned.ID)
	require.NoError(t, err)
	assert.Empty(t, products)

	require.NoError(t, repo.DeleteOwner(ctx, "u2-new"))
	orphans, err = repo.ListOrphanStores(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{orphan.ID}, domain.StoreIDs(orphans))
}

func TestPostgresIntegration_ConcurrentAttachSingleWinner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	owners := []string{"u1", "u2", "u3", "u4"}
	for _, id := range owners {
		_, err := repo.CreateOwner(ctx, &domain.Owner{ID: id, Name: id, Email: id + "@example.com"})
		require.NoError(t, err)
	}

	for round := 0; round < 10; round++ {
		orphan, err := repo.CreateStore(ctx, "", &domain.Store{Name: "Lost", Subdomain: fmt.Sprintf("lost-%d", round)})
		require.NoError(t, err)

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins []string
		)
		for _, id := range owners {
			wg.Add(1)
			go func(ownerID string) {
				defer wg.Done()
				got, err := repo.AttachStores(ctx, ownerID, []string{orphan.ID})
				assert.NoError(t, err)
				if len(got) > 0 {
					mu.Lock()
					wins = append(wins, ownerID)
					mu.Unlock()
				}
			}(id)
		}
		wg.Wait()

		require.Len(t, wins, 1, "round %d", round)
		var edges int
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT count(*) FROM store_ownerships WHERE store_id = $1`, orphan.ID).Scan(&edges))
		assert.Equal(t, 1, edges)

		s, err := repo.GetStore(ctx, orphan.ID)
		require.NoError(t, err)
		assert.Equal(t, wins[0], s.OwnerID)
	}
}
