package domain

import "time"

const (
	ProductStatusActive = "ACTIVE"

	BlogPostStatusDraft     = "DRAFT"
	BlogPostStatusPublished = "PUBLISHED"
)

// Product 商品（(:Store)-[:HAS_PRODUCT]->(:Product)）
type Product struct {
	ID          string    `json:"id"`
	StoreID     string    `json:"storeId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	SKU         string    `json:"sku"`
	Category    string    `json:"category"`
	Inventory   int64     `json:"inventory"`
	Status      string    `json:"status"` // ACTIVE | DRAFT | ARCHIVED
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	SKU         *string
	Category    *string
	Inventory   *int64
	Status      *string
}

func (p ProductPatch) Apply(dst *Product) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.SKU != nil {
		dst.SKU = *p.SKU
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	if p.Inventory != nil {
		dst.Inventory = *p.Inventory
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
}

// BlogPost 店铺博客（(:Store)-[:HAS_BLOG_POST]->(:BlogPost)）
type BlogPost struct {
	ID              string    `json:"id"`
	StoreID         string    `json:"storeId"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	MetaDescription string    `json:"metaDescription"`
	Tags            []string  `json:"tags"`
	Category        string    `json:"category"`
	Status          string    `json:"status"` // DRAFT | PUBLISHED
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type BlogPostPatch struct {
	Title           *string
	Content         *string
	MetaDescription *string
	Tags            []string // nil 表示不更新
	Category        *string
	Status          *string
}

func (p BlogPostPatch) Apply(dst *BlogPost) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Content != nil {
		dst.Content = *p.Content
	}
	if p.MetaDescription != nil {
		dst.MetaDescription = *p.MetaDescription
	}
	if p.Tags != nil {
		dst.Tags = append([]string(nil), p.Tags...)
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
}

// Industry NAICS-style classifier used by stores.
type Industry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type IndustryPatch struct {
	Name        *string
	Description *string
}

// ProductDraft is an AI suggestion, not persisted.
type ProductDraft struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	PriceSuggestion float64 `json:"price_suggestion"`
	SKUSuggestion   string  `json:"sku_suggestion"`
}

type BlogPostDraft struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	MetaDescription string   `json:"meta_description"`
	Tags            []string `json:"tags"`
	Category        string   `json:"category"`
}
