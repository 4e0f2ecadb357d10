package gql

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/store"

	"github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	schema *graphql.Schema
	repos  repository.Repositories
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repos, _ := repository.NewMemoryRepositories()
	logger := zap.NewNop()
	kv := store.NewMemoryKV()
	identity := service.NewIdentityService(repos.Owners, kv, time.Minute, logger)
	ownership := service.NewOwnershipService(repos.Owners, repos.Stores, nil, nil, logger, true)
	stores := service.NewStoreService(repos.Stores, ownership, kv, nil, "shopfront.io", logger)
	catalog := service.NewCatalogService(stores, repos.Products, repos.BlogPosts, repos.Industries, nil, logger)

	schema, err := NewSchema(NewResolver(identity, stores, catalog, logger))
	require.NoError(t, err)
	return &testEnv{schema: schema, repos: repos}
}

func as(id string) context.Context {
	return auth.WithIdentity(context.Background(), domain.Identity{ID: id, Name: "Owner " + id, Email: id + "@example.com"})
}

func (e *testEnv) exec(t *testing.T, ctx context.Context, query string, vars map[string]any) (map[string]any, []string) {
	t.Helper()
	resp := e.schema.Exec(ctx, query, "", vars)
	var msgs []string
	for _, err := range resp.Errors {
		msgs = append(msgs, err.Message)
	}
	var data map[string]any
	if len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, &data))
	}
	return data, msgs
}

func TestHelloIsPublic(t *testing.T) {
	e := newTestEnv(t)
	data, errs := e.exec(t, context.Background(), `{ hello }`, nil)
	require.Empty(t, errs)
	assert.Equal(t, "Hello from the storefront API", data["hello"])
}

func TestQueriesRequireAuth(t *testing.T) {
	e := newTestEnv(t)
	for _, q := range []string{`{ stores { id } }`, `{ me { id } }`, `{ industries { id } }`} {
		_, errs := e.exec(t, context.Background(), q, nil)
		require.NotEmpty(t, errs, q)
		assert.Contains(t, errs[0], "authentication required")
	}
}

func TestMeCreatesOwner(t *testing.T) {
	e := newTestEnv(t)
	data, errs := e.exec(t, as("u1"), `{ me { id name email image } }`, nil)
	require.Empty(t, errs)
	me := data["me"].(map[string]any)
	assert.Equal(t, "u1", me["id"])
	assert.Equal(t, "u1@example.com", me["email"])
	assert.Nil(t, me["image"])

	_, err := e.repos.Owners.GetOwner(context.Background(), "u1")
	require.NoError(t, err)
}

func TestStoreLifecycle(t *testing.T) {
	e := newTestEnv(t)
	ctx := as("u1")
	_, errs := e.exec(t, ctx, `{ me { id } }`, nil)
	require.Empty(t, errs)

	data, errs := e.exec(t, ctx, `mutation($in: CreateStoreInput!) {
		createStore(input: $in) { id subdomain url owner { id } metrics { sales visitors conversion } }
	}`, map[string]any{"in": map[string]any{"name": "Acme", "subdomain": "acme", "industry": "Retail"}})
	require.Empty(t, errs)
	created := data["createStore"].(map[string]any)
	assert.Equal(t, "https://acme.shopfront.io", created["url"])
	assert.Equal(t, map[string]any{"id": "u1"}, created["owner"])
	assert.Equal(t, map[string]any{"sales": 0.0, "visitors": 0.0, "conversion": 0.0}, created["metrics"])
	storeID := created["id"].(string)

	_, errs = e.exec(t, ctx, `mutation { createStore(input: {name: "Dup", subdomain: "acme"}) { id } }`, nil)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "subdomain already taken")

	data, errs = e.exec(t, ctx, `mutation($id: ID!) {
		updateStore(id: $id, input: {name: "Acme Co", metrics: {visitors: 7}}) { name metrics { visitors } }
	}`, map[string]any{"id": storeID})
	require.Empty(t, errs)
	assert.Equal(t, "Acme Co", data["updateStore"].(map[string]any)["name"])

	data, errs = e.exec(t, ctx, `{ stores { id name } }`, nil)
	require.Empty(t, errs)
	assert.Len(t, data["stores"], 1)

	_, errs = e.exec(t, as("u2"), `mutation($id: ID!) { deleteStore(id: $id) }`, map[string]any{"id": storeID})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "permission denied")

	data, errs = e.exec(t, ctx, `mutation($id: ID!) { deleteStore(id: $id) }`, map[string]any{"id": storeID})
	require.Empty(t, errs)
	assert.Equal(t, true, data["deleteStore"])
}

func TestStoresRepairsOrphans(t *testing.T) {
	e := newTestEnv(t)
	bg := context.Background()
	_, err := e.repos.Owners.CreateOwner(bg, &domain.Owner{ID: "u1", Name: "u1", Email: "u1@example.com"})
	require.NoError(t, err)
	orphan, err := e.repos.Stores.CreateStore(bg, "", &domain.Store{Name: "Lost", Subdomain: "lost"})
	require.NoError(t, err)

	data, errs := e.exec(t, as("u1"), `{ stores { id owner { id } } }`, nil)
	require.Empty(t, errs)
	stores := data["stores"].([]any)
	require.Len(t, stores, 1)
	assert.Equal(t, orphan.ID, stores[0].(map[string]any)["id"])
	assert.Equal(t, map[string]any{"id": "u1"}, stores[0].(map[string]any)["owner"])
}

func TestCatalogMutations(t *testing.T) {
	e := newTestEnv(t)
	ctx := as("u1")
	_, errs := e.exec(t, ctx, `{ me { id } }`, nil)
	require.Empty(t, errs)
	data, errs := e.exec(t, ctx, `mutation { createStore(input: {name: "Acme", subdomain: "acme"}) { id } }`, nil)
	require.Empty(t, errs)
	storeID := data["createStore"].(map[string]any)["id"].(string)

	data, errs = e.exec(t, ctx, `mutation($s: ID!) {
		createProduct(input: {storeId: $s, name: "Mug", price: 12.5, inventory: 3}) { id status inventory price }
	}`, map[string]any{"s": storeID})
	require.Empty(t, errs)
	p := data["createProduct"].(map[string]any)
	assert.Equal(t, "ACTIVE", p["status"])
	assert.Equal(t, 3.0, p["inventory"])

	data, errs = e.exec(t, ctx, `mutation($s: ID!) {
		createBlogPost(input: {storeId: $s, title: "Hello", tags: ["a"]}) { id status tags }
	}`, map[string]any{"s": storeID})
	require.Empty(t, errs)
	b := data["createBlogPost"].(map[string]any)
	assert.Equal(t, "DRAFT", b["status"])
	assert.Equal(t, []any{"a"}, b["tags"])

	data, errs = e.exec(t, ctx, `query($s: ID!) {
		products(storeId: $s) { name }
		blogPosts(storeId: $s) { title }
		store(id: $s) { products { sku } blogPosts { id } }
	}`, map[string]any{"s": storeID})
	require.Empty(t, errs)
	assert.Len(t, data["products"], 1)
	assert.Len(t, data["blogPosts"], 1)

	data, errs = e.exec(t, ctx, `mutation {
		createIndustry(input: {name: "Retail"}) { id name }
	}`, nil)
	require.Empty(t, errs)
	assert.Equal(t, "Retail", data["createIndustry"].(map[string]any)["name"])

	_, errs = e.exec(t, ctx, `mutation { generateProduct(prompt: "short") { title } }`, nil)
	require.NotEmpty(t, errs)
}

func TestUpdateAndDeleteUser(t *testing.T) {
	e := newTestEnv(t)
	ctx := as("u1")
	_, errs := e.exec(t, ctx, `{ me { id } }`, nil)
	require.Empty(t, errs)

	data, errs := e.exec(t, ctx, `mutation { updateUser(input: {name: "Ada"}) { name email } }`, nil)
	require.Empty(t, errs)
	assert.Equal(t, map[string]any{"name": "Ada", "email": "u1@example.com"}, data["updateUser"])

	data, errs = e.exec(t, ctx, `mutation { deleteUser }`, nil)
	require.Empty(t, errs)
	assert.Equal(t, true, data["deleteUser"])
}
