package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerCall struct {
	cypher string
	params map[string]any
}

type runnerReply struct {
	recs []graph.Record
	err  error
}

// scriptedRunner answers calls in order and records what it was asked.
type scriptedRunner struct {
	replies []runnerReply
	calls   []runnerCall
}

func (s *scriptedRunner) Run(_ context.Context, cypher string, params map[string]any) ([]graph.Record, error) {
	s.calls = append(s.calls, runnerCall{cypher: cypher, params: params})
	if len(s.replies) == 0 {
		return nil, fmt.Errorf("unexpected query: %s", cypher)
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.recs, r.err
}

func (s *scriptedRunner) reply(recs ...graph.Record) *scriptedRunner {
	s.replies = append(s.replies, runnerReply{recs: recs})
	return s
}

func (s *scriptedRunner) fail(err error) *scriptedRunner {
	s.replies = append(s.replies, runnerReply{err: err})
	return s
}

var testTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func storeRec(id, sub, ownerID string) graph.Record {
	rec := graph.Record{
		"store": map[string]any{
			"id": id, "name": "Store " + id, "industry": "retail", "subdomain": sub,
			"sales": 10.5, "visitors": int64(7), "conversion": 0.25,
			"createdAt": testTime, "updatedAt": testTime,
		},
		"ownerId": nil,
	}
	if ownerID != "" {
		rec["ownerId"] = ownerID
	}
	return rec
}

func userRec(id, email string) graph.Record {
	return graph.Record{"user": map[string]any{
		"id": id, "name": "Name " + id, "email": email, "image": "", "createdAt": testTime, "updatedAt": testTime,
	}}
}

func TestNeo4j_GetStoreMapsRecord(t *testing.T) {
	run := (&scriptedRunner{}).reply(storeRec("s1", "acme", "u1"))
	repo := NewNeo4jRepository(run)

	s, err := repo.GetStore(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "acme", s.Subdomain)
	assert.Equal(t, "u1", s.OwnerID)
	assert.Equal(t, domain.StoreMetrics{Sales: 10.5, Visitors: 7, Conversion: 0.25}, s.Metrics)
	assert.Equal(t, testTime, s.CreatedAt)
	assert.Equal(t, "s1", run.calls[0].params["id"])
	assert.Contains(t, run.calls[0].cypher, "[(o:User)-[:OWNS]->(s) | o.id]")
}

func TestNeo4j_GetStoreNotFound(t *testing.T) {
	repo := NewNeo4jRepository((&scriptedRunner{}).reply())
	_, err := repo.GetStore(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrStoreNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNeo4j_ListOrphanStores(t *testing.T) {
	run := (&scriptedRunner{}).reply(storeRec("a", "alpha", ""), storeRec("b", "beta", ""))
	repo := NewNeo4jRepository(run)

	stores, err := repo.ListOrphanStores(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, domain.StoreIDs(stores))
	assert.Empty(t, stores[0].OwnerID)
	assert.Contains(t, run.calls[0].cypher, "WHERE NOT EXISTS { ()-[:OWNS]->(s) }")
}

func TestNeo4j_AttachStoresBatchesAndRechecks(t *testing.T) {
	run := (&scriptedRunner{}).
		reply(userRec("u1", "u1@example.com")).
		reply(storeRec("a", "alpha", "u1"))
	repo := NewNeo4jRepository(run)

	stores, err := repo.AttachStores(context.Background(), "u1", []string{"a", "b", "a", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, domain.StoreIDs(stores))
	assert.Equal(t, "u1", stores[0].OwnerID)

	require.Len(t, run.calls, 2)
	attach := run.calls[1]
	assert.Equal(t, []string{"a", "b"}, attach.params["storeIds"])
	assert.Contains(t, attach.cypher, "UNWIND $storeIds AS storeId")
	assert.Contains(t, attach.cypher, "WHERE NOT EXISTS { ()-[:OWNS]->(s) }")
	assert.Contains(t, attach.cypher, "CREATE (u)-[:OWNS]->(s)")
	lock := strings.Index(attach.cypher, "SET s.updatedAt = datetime()")
	check := strings.Index(attach.cypher, "WHERE NOT EXISTS")
	require.True(t, lock >= 0 && lock < check, "store lock must precede the orphan check")
}

func TestNeo4j_AttachStoresUnknownOwner(t *testing.T) {
	run := (&scriptedRunner{}).reply()
	repo := NewNeo4jRepository(run)

	_, err := repo.AttachStores(context.Background(), "ghost", []string{"a"})
	require.ErrorIs(t, err, domain.ErrOwnerNotFound)
	assert.Len(t, run.calls, 1)
}

func TestNeo4j_CreateStore(t *testing.T) {
	t.Run("owned", func(t *testing.T) {
		run := (&scriptedRunner{}).reply(storeRec("s1", "acme", "u1"))
		repo := NewNeo4jRepository(run)
		s, err := repo.CreateStore(context.Background(), "u1", &domain.Store{Name: "Acme", Subdomain: "acme"})
		require.NoError(t, err)
		assert.Equal(t, "u1", s.OwnerID)
		assert.Contains(t, run.calls[0].cypher, "CREATE (u)-[:OWNS]->(s)")
		assert.NotEmpty(t, run.calls[0].params["id"])
	})

	t.Run("owner missing", func(t *testing.T) {
		repo := NewNeo4jRepository((&scriptedRunner{}).reply())
		_, err := repo.CreateStore(context.Background(), "ghost", &domain.Store{Name: "Acme", Subdomain: "acme"})
		require.ErrorIs(t, err, domain.ErrOwnerNotFound)
	})

	t.Run("subdomain taken", func(t *testing.T) {
		repo := NewNeo4jRepository((&scriptedRunner{}).fail(fmt.Errorf("%w: dup", graph.ErrConstraint)))
		_, err := repo.CreateStore(context.Background(), "", &domain.Store{Name: "Acme", Subdomain: "acme"})
		require.ErrorIs(t, err, domain.ErrSubdomainTaken)
	})
}

func TestNeo4j_UpdateStorePassesNullsForUnsetFields(t *testing.T) {
	run := (&scriptedRunner{}).reply(storeRec("s1", "acme", "u1"))
	repo := NewNeo4jRepository(run)

	name := "Renamed"
	_, err := repo.UpdateStore(context.Background(), "s1", domain.StorePatch{Name: &name})
	require.NoError(t, err)
	p := run.calls[0].params
	assert.Equal(t, "Renamed", p["name"])
	assert.Nil(t, p["subdomain"])
	assert.Nil(t, p["sales"])
}

func TestNeo4j_IsOwner(t *testing.T) {
	run := (&scriptedRunner{}).reply(graph.Record{"owns": true}).reply(graph.Record{"owns": false})
	repo := NewNeo4jRepository(run)

	ok, err := repo.IsOwner(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.IsOwner(context.Background(), "u2", "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNeo4j_ErrorsAreWrapped(t *testing.T) {
	repo := NewNeo4jRepository((&scriptedRunner{}).fail(errors.New("connection reset")))
	_, err := repo.ListStoresByOwner(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list owned stores")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestNeo4j_Owners(t *testing.T) {
	run := (&scriptedRunner{}).
		reply(userRec("new-id", "m@example.com")).
		reply().
		reply(graph.Record{"detached": int64(2)})
	repo := NewNeo4jRepository(run)
	ctx := context.Background()

	o, err := repo.ReassignOwnerID(ctx, "m@example.com", &domain.Owner{ID: "new-id", Name: "M"})
	require.NoError(t, err)
	assert.Equal(t, "new-id", o.ID)
	assert.Equal(t, "new-id", run.calls[0].params["id"])
	assert.Contains(t, run.calls[0].cypher, "SET s.ownerId = u.id")

	_, err = repo.GetOwner(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrOwnerNotFound)

	require.NoError(t, repo.DeleteOwner(ctx, "new-id"))
}

func TestNeo4j_Catalog(t *testing.T) {
	run := (&scriptedRunner{}).
		reply(graph.Record{"product": map[string]any{
			"id": "p1", "storeId": "s1", "name": "Mug", "price": int64(12),
			"inventory": int64(0), "status": "ACTIVE", "createdAt": testTime,
		}}).
		reply(graph.Record{"post": map[string]any{
			"id": "b1", "storeId": "s1", "title": "Hi", "tags": []any{"x", "y"}, "status": "DRAFT",
		}}).
		reply()
	repo := NewNeo4jRepository(run)
	ctx := context.Background()

	p, err := repo.CreateProduct(ctx, &domain.Product{StoreID: "s1", Name: "Mug", Price: 12})
	require.NoError(t, err)
	assert.Equal(t, 12.0, p.Price)
	assert.Equal(t, domain.ProductStatusActive, run.calls[0].params["status"])

	b, err := repo.CreateBlogPost(ctx, &domain.BlogPost{StoreID: "s1", Title: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, b.Tags)
	assert.Equal(t, []string{}, run.calls[1].params["tags"])
	assert.Equal(t, domain.BlogPostStatusDraft, run.calls[1].params["status"])

	require.ErrorIs(t, repo.DeleteProduct(ctx, "nope"), domain.ErrProductNotFound)
}
