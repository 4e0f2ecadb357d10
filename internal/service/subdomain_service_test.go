package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeVercel 模拟 Vercel DNS API
type fakeVercel struct {
	mu       sync.Mutex
	records  []DNSRecord
	creates  int
	failCode string
	teamIDs  []string
}

func (f *fakeVercel) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.teamIDs = append(f.teamIDs, r.URL.Query().Get("teamId"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")

		if f.failCode != "" {
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"code": f.failCode, "message": "nope"}})
			return
		}

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v4/domains/shopfront.io/records":
			_ = json.NewEncoder(w).Encode(map[string]any{"records": f.records})
		case r.Method == http.MethodPost && r.URL.Path == "/v2/domains/shopfront.io/records":
			var rec DNSRecord
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
			f.creates++
			rec.ID = "rec_" + rec.Name
			f.records = append(f.records, rec)
			_ = json.NewEncoder(w).Encode(map[string]string{"uid": rec.ID})
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/v2/domains/shopfront.io/records/"):
			id := strings.TrimPrefix(r.URL.Path, "/v2/domains/shopfront.io/records/")
			kept := f.records[:0]
			for _, rec := range f.records {
				if rec.ID != id {
					kept = append(kept, rec)
				}
			}
			f.records = kept
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"not_found","message":"no route"}}`))
		}
	})
}

func newSubdomainFixture(t *testing.T) (*serviceFixture, SubdomainService, *fakeVercel) {
	t.Helper()
	f := newServiceFixture(nil)
	fv := &fakeVercel{}
	srv := httptest.NewServer(fv.handler(t))
	t.Cleanup(srv.Close)
	client := NewVercelClient(srv.URL, "tok", "team_1", zap.NewNop())
	svc := NewSubdomainService(client, f.repos.Stores, f.stores, f.events, SubdomainConfig{
		ApexDomain:  "shopfront.io",
		CNAMETarget: "cname.vercel-dns.com",
		Configured:  true,
	}, zap.NewNop())
	return f, svc, fv
}

func TestSetupSubdomain_CreatesOnce(t *testing.T) {
	f, svc, fv := newSubdomainFixture(t)
	ctx := context.Background()
	seedOwner(t, f.repos, "u1")
	st := seedStore(t, f.repos, "u1", "acme")

	res, err := svc.Setup(ctx, "u1", SetupSubdomainRequest{StoreID: st.ID})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "https://acme.shopfront.io", res.Store.URL)
	assert.Equal(t, 1, fv.creates)
	require.Len(t, fv.records, 1)
	assert.Equal(t, DNSRecord{ID: "rec_acme", Name: "acme", Type: "CNAME", Value: "cname.vercel-dns.com", TTL: 60}, fv.records[0])
	assert.Equal(t, "team_1", fv.teamIDs[0])
	assert.Contains(t, f.events.types(), store.EventSubdomainProvisioned)

	// existing record short-circuits creation
	res, err = svc.Setup(ctx, "u1", SetupSubdomainRequest{Subdomain: "acme"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "already configured")
	assert.Equal(t, 1, fv.creates)
}

func TestSetupSubdomain_Errors(t *testing.T) {
	f, svc, _ := newSubdomainFixture(t)
	ctx := context.Background()
	seedOwner(t, f.repos, "u1")
	seedOwner(t, f.repos, "u2")
	st := seedStore(t, f.repos, "u1", "acme")

	_, err := svc.Setup(ctx, "", SetupSubdomainRequest{StoreID: st.ID})
	require.ErrorIs(t, err, domain.ErrAuthRequired)
	_, err = svc.Setup(ctx, "u1", SetupSubdomainRequest{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Setup(ctx, "u1", SetupSubdomainRequest{StoreID: "missing"})
	require.ErrorIs(t, err, domain.ErrStoreNotFound)
	_, err = svc.Setup(ctx, "u2", SetupSubdomainRequest{StoreID: st.ID})
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSetupSubdomain_ProviderErrorsMapped(t *testing.T) {
	f, svc, fv := newSubdomainFixture(t)
	ctx := context.Background()
	seedOwner(t, f.repos, "u1")
	st := seedStore(t, f.repos, "u1", "acme")

	fv.failCode = "forbidden"
	res, err := svc.Setup(ctx, "u1", SetupSubdomainRequest{StoreID: st.ID})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Permission denied. Check your Vercel API token and team ID.", res.Message)

	fv.failCode = "not_found"
	res, err = svc.Setup(ctx, "u1", SetupSubdomainRequest{StoreID: st.ID})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Make sure shopfront.io is added")
	assert.NotContains(t, f.events.types(), store.EventSubdomainProvisioned)
}

func TestProvision_NotConfigured(t *testing.T) {
	f := newServiceFixture(nil)
	svc := NewSubdomainService(nil, f.repos.Stores, f.stores, nil, SubdomainConfig{ApexDomain: "shopfront.io"}, zap.NewNop())
	res, err := svc.Provision(context.Background(), "acme")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Vercel API token is missing", res.Message)
}

func TestRemoveSubdomain(t *testing.T) {
	_, svc, fv := newSubdomainFixture(t)
	ctx := context.Background()
	fv.records = []DNSRecord{{ID: "rec_1", Name: "acme", Type: "CNAME"}, {ID: "rec_2", Name: "other", Type: "CNAME"}}

	require.NoError(t, svc.Remove(ctx, "acme"))
	require.Len(t, fv.records, 1)
	assert.Equal(t, "other", fv.records[0].Name)

	err := svc.Remove(ctx, "acme")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
