package domain

import "time"

// Store 商户店铺（租户记录），按 subdomain 唯一
type Store struct {
	// 主键
	ID string `json:"id"`

	// 基本信息
	Name      string `json:"name"`
	Industry  string `json:"industry"`
	Subdomain string `json:"subdomain"` // UNIQUE

	// OwnerID is derived from the OWNS edge on read; empty for orphaned stores.
	OwnerID string `json:"ownerId,omitempty"`

	Metrics StoreMetrics `json:"metrics"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StoreMetrics snapshot; zero until analytics writes it.
type StoreMetrics struct {
	Sales      float64 `json:"sales"`
	Visitors   int64   `json:"visitors"`
	Conversion float64 `json:"conversion"`
}

// StorePatch nil 表示不更新
type StorePatch struct {
	Name      *string
	Industry  *string
	Subdomain *string
	Metrics   *StoreMetricsPatch
}

type StoreMetricsPatch struct {
	Sales      *float64
	Visitors   *int64
	Conversion *float64
}

// Apply copies the non-nil fields of p onto s.
func (p StorePatch) Apply(s *Store) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Industry != nil {
		s.Industry = *p.Industry
	}
	if p.Subdomain != nil {
		s.Subdomain = *p.Subdomain
	}
	if p.Metrics != nil {
		if p.Metrics.Sales != nil {
			s.Metrics.Sales = *p.Metrics.Sales
		}
		if p.Metrics.Visitors != nil {
			s.Metrics.Visitors = *p.Metrics.Visitors
		}
		if p.Metrics.Conversion != nil {
			s.Metrics.Conversion = *p.Metrics.Conversion
		}
	}
}

// StoreIDs returns the ids of stores in order.
func StoreIDs(stores []*Store) []string {
	ids := make([]string, 0, len(stores))
	for _, s := range stores {
		ids = append(ids, s.ID)
	}
	return ids
}
