package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// MemoryRepository 内存后端（无数据库时联调、测试使用）
// One lock guards every collection so cascades stay consistent.
type MemoryRepository struct {
	mu         sync.RWMutex
	owners     map[string]*domain.Owner
	stores     map[string]*domain.Store
	owns       map[string]map[string]struct{} // storeID -> ownerIDs
	products   map[string]*domain.Product
	posts      map[string]*domain.BlogPost
	industries map[string]*domain.Industry
	now        func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		owners:     map[string]*domain.Owner{},
		stores:     map[string]*domain.Store{},
		owns:       map[string]map[string]struct{}{},
		products:   map[string]*domain.Product{},
		posts:      map[string]*domain.BlogPost{},
		industries: map[string]*domain.Industry{},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// NewMemoryRepositories wires one MemoryRepository into every slot.
func NewMemoryRepositories() (Repositories, *MemoryRepository) {
	m := NewMemoryRepository()
	return Repositories{
		Owners:     m,
		Stores:     m,
		Products:   m,
		BlogPosts:  m,
		Industries: m,
		Ping:       func(context.Context) error { return nil },
		Close:      func(context.Context) error { return nil },
	}, m
}

var (
	_ OwnersRepository     = (*MemoryRepository)(nil)
	_ StoresRepository     = (*MemoryRepository)(nil)
	_ ProductsRepository   = (*MemoryRepository)(nil)
	_ BlogPostsRepository  = (*MemoryRepository)(nil)
	_ IndustriesRepository = (*MemoryRepository)(nil)
)

// --- Owners ---

func (m *MemoryRepository) GetOwner(_ context.Context, id string) (*domain.Owner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.owners[id]
	if !ok {
		return nil, domain.ErrOwnerNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MemoryRepository) GetOwnerByEmail(_ context.Context, email string) (*domain.Owner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o := m.ownerByEmailLocked(email); o != nil {
		cp := *o
		return &cp, nil
	}
	return nil, domain.ErrOwnerNotFound
}

func (m *MemoryRepository) ownerByEmailLocked(email string) *domain.Owner {
	for _, o := range m.owners {
		if strings.EqualFold(o.Email, email) {
			return o
		}
	}
	return nil
}

func (m *MemoryRepository) CreateOwner(_ context.Context, owner *domain.Owner) (*domain.Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if owner.ID == "" {
		owner.ID = uuid.NewString()
	}
	if _, ok := m.owners[owner.ID]; ok {
		return nil, domain.InvalidInput("owner %s already exists", owner.ID)
	}
	if m.ownerByEmailLocked(owner.Email) != nil {
		return nil, domain.InvalidInput("email %s already registered", owner.Email)
	}
	now := m.now()
	o := *owner
	o.CreatedAt, o.UpdatedAt = now, now
	m.owners[o.ID] = &o
	cp := o
	return &cp, nil
}

func (m *MemoryRepository) ReassignOwnerID(_ context.Context, email string, owner *domain.Owner) (*domain.Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.ownerByEmailLocked(email)
	if o == nil {
		return nil, domain.ErrOwnerNotFound
	}
	oldID := o.ID
	if owner.ID != oldID {
		if _, taken := m.owners[owner.ID]; taken {
			return nil, domain.InvalidInput("owner %s already exists", owner.ID)
		}
		delete(m.owners, oldID)
		for _, edges := range m.owns {
			if _, ok := edges[oldID]; ok {
				delete(edges, oldID)
				edges[owner.ID] = struct{}{}
			}
		}
		o.ID = owner.ID
		m.owners[o.ID] = o
	}
	if owner.Name != "" {
		o.Name = owner.Name
	}
	if owner.Image != "" {
		o.Image = owner.Image
	}
	o.UpdatedAt = m.now()
	cp := *o
	return &cp, nil
}

func (m *MemoryRepository) UpdateOwner(_ context.Context, id string, patch domain.OwnerPatch) (*domain.Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.owners[id]
	if !ok {
		return nil, domain.ErrOwnerNotFound
	}
	if patch.Email != nil && !strings.EqualFold(*patch.Email, o.Email) {
		if other := m.ownerByEmailLocked(*patch.Email); other != nil {
			return nil, domain.InvalidInput("email %s already registered", *patch.Email)
		}
		o.Email = *patch.Email
	}
	if patch.Name != nil {
		o.Name = *patch.Name
	}
	if patch.Image != nil {
		o.Image = *patch.Image
	}
	o.UpdatedAt = m.now()
	cp := *o
	return &cp, nil
}

func (m *MemoryRepository) DeleteOwner(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.owners[id]; !ok {
		return domain.ErrOwnerNotFound
	}
	delete(m.owners, id)
	for _, edges := range m.owns {
		delete(edges, id)
	}
	return nil
}

// --- Stores ---

// storeLocked returns a copy with OwnerID derived from the edge set.
func (m *MemoryRepository) storeLocked(s *domain.Store) *domain.Store {
	cp := *s
	cp.OwnerID = ""
	if edges := m.owns[s.ID]; len(edges) > 0 {
		ids := make([]string, 0, len(edges))
		for id := range edges {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		cp.OwnerID = ids[0]
	}
	return &cp
}

func sortStores(out []*domain.Store) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
}

func (m *MemoryRepository) GetStore(_ context.Context, id string) (*domain.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stores[id]
	if !ok {
		return nil, domain.ErrStoreNotFound
	}
	return m.storeLocked(s), nil
}

func (m *MemoryRepository) GetStoreBySubdomain(_ context.Context, subdomain string) (*domain.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.stores {
		if s.Subdomain == subdomain {
			return m.storeLocked(s), nil
		}
	}
	return nil, domain.ErrStoreNotFound
}

func (m *MemoryRepository) ListStoresByOwner(_ context.Context, ownerID string) ([]*domain.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*domain.Store{}
	for id, s := range m.stores {
		if _, ok := m.owns[id][ownerID]; ok {
			out = append(out, m.storeLocked(s))
		}
	}
	sortStores(out)
	return out, nil
}

func (m *MemoryRepository) ListOrphanStores(_ context.Context) ([]*domain.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*domain.Store{}
	for id, s := range m.stores {
		if len(m.owns[id]) == 0 {
			out = append(out, m.storeLocked(s))
		}
	}
	sortStores(out)
	return out, nil
}

func (m *MemoryRepository) AttachStores(_ context.Context, ownerID string, storeIDs []string) ([]*domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.owners[ownerID]; !ok {
		return nil, domain.ErrOwnerNotFound
	}
	out := []*domain.Store{}
	for _, id := range storeIDs {
		s, ok := m.stores[id]
		if !ok || len(m.owns[id]) > 0 {
			continue
		}
		m.owns[id] = map[string]struct{}{ownerID: {}}
		s.OwnerID = ownerID
		out = append(out, m.storeLocked(s))
	}
	sortStores(out)
	return out, nil
}

func (m *MemoryRepository) IsOwner(_ context.Context, ownerID, storeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.owns[storeID][ownerID]
	return ok, nil
}

func (m *MemoryRepository) subdomainTakenLocked(subdomain, exceptID string) bool {
	for id, s := range m.stores {
		if id != exceptID && s.Subdomain == subdomain {
			return true
		}
	}
	return false
}

func (m *MemoryRepository) CreateStore(_ context.Context, ownerID string, store *domain.Store) (*domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ownerID != "" {
		if _, ok := m.owners[ownerID]; !ok {
			return nil, domain.ErrOwnerNotFound
		}
	}
	if m.subdomainTakenLocked(store.Subdomain, "") {
		return nil, domain.ErrSubdomainTaken
	}
	s := *store
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := m.now()
	s.CreatedAt, s.UpdatedAt = now, now
	s.OwnerID = ownerID
	m.stores[s.ID] = &s
	if ownerID != "" {
		m.owns[s.ID] = map[string]struct{}{ownerID: {}}
	}
	return m.storeLocked(&s), nil
}

func (m *MemoryRepository) UpdateStore(_ context.Context, id string, patch domain.StorePatch) (*domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[id]
	if !ok {
		return nil, domain.ErrStoreNotFound
	}
	if patch.Subdomain != nil && m.subdomainTakenLocked(*patch.Subdomain, id) {
		return nil, domain.ErrSubdomainTaken
	}
	patch.Apply(s)
	s.UpdatedAt = m.now()
	return m.storeLocked(s), nil
}

func (m *MemoryRepository) DeleteStore(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stores[id]; !ok {
		return domain.ErrStoreNotFound
	}
	delete(m.stores, id)
	delete(m.owns, id)
	for pid, p := range m.products {
		if p.StoreID == id {
			delete(m.products, pid)
		}
	}
	for bid, b := range m.posts {
		if b.StoreID == id {
			delete(m.posts, bid)
		}
	}
	return nil
}

// --- Products ---

func (m *MemoryRepository) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryRepository) ListProducts(_ context.Context, storeID string) ([]*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*domain.Product{}
	for _, p := range m.products {
		if p.StoreID == storeID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryRepository) CreateProduct(_ context.Context, p *domain.Product) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stores[p.StoreID]; !ok {
		return nil, domain.ErrStoreNotFound
	}
	cp := *p
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.Status == "" {
		cp.Status = domain.ProductStatusActive
	}
	now := m.now()
	cp.CreatedAt, cp.UpdatedAt = now, now
	m.products[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MemoryRepository) UpdateProduct(_ context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	patch.Apply(p)
	p.UpdatedAt = m.now()
	cp := *p
	return &cp, nil
}

func (m *MemoryRepository) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

// --- Blog posts ---

func clonePost(b *domain.BlogPost) *domain.BlogPost {
	cp := *b
	cp.Tags = append([]string{}, b.Tags...)
	return &cp
}

func (m *MemoryRepository) GetBlogPost(_ context.Context, id string) (*domain.BlogPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.posts[id]
	if !ok {
		return nil, domain.ErrBlogPostNotFound
	}
	return clonePost(b), nil
}

func (m *MemoryRepository) ListBlogPosts(_ context.Context, storeID string) ([]*domain.BlogPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*domain.BlogPost{}
	for _, b := range m.posts {
		if b.StoreID == storeID {
			out = append(out, clonePost(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryRepository) CreateBlogPost(_ context.Context, p *domain.BlogPost) (*domain.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stores[p.StoreID]; !ok {
		return nil, domain.ErrStoreNotFound
	}
	b := clonePost(p)
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = domain.BlogPostStatusDraft
	}
	now := m.now()
	b.CreatedAt, b.UpdatedAt = now, now
	m.posts[b.ID] = b
	return clonePost(b), nil
}

func (m *MemoryRepository) UpdateBlogPost(_ context.Context, id string, patch domain.BlogPostPatch) (*domain.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.posts[id]
	if !ok {
		return nil, domain.ErrBlogPostNotFound
	}
	patch.Apply(b)
	b.UpdatedAt = m.now()
	return clonePost(b), nil
}

func (m *MemoryRepository) DeleteBlogPost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return domain.ErrBlogPostNotFound
	}
	delete(m.posts, id)
	return nil
}

// --- Industries ---

func (m *MemoryRepository) GetIndustry(_ context.Context, id string) (*domain.Industry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	in, ok := m.industries[id]
	if !ok {
		return nil, domain.ErrIndustryNotFound
	}
	cp := *in
	return &cp, nil
}

func (m *MemoryRepository) ListIndustries(_ context.Context) ([]*domain.Industry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Industry, 0, len(m.industries))
	for _, in := range m.industries {
		cp := *in
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepository) CreateIndustry(_ context.Context, in *domain.Industry) (*domain.Industry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *in
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	now := m.now()
	cp.CreatedAt, cp.UpdatedAt = now, now
	m.industries[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MemoryRepository) UpdateIndustry(_ context.Context, id string, patch domain.IndustryPatch) (*domain.Industry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.industries[id]
	if !ok {
		return nil, domain.ErrIndustryNotFound
	}
	if patch.Name != nil {
		in.Name = *patch.Name
	}
	if patch.Description != nil {
		in.Description = *patch.Description
	}
	in.UpdatedAt = m.now()
	cp := *in
	return &cp, nil
}
