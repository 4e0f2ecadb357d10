package domain

import "time"

// Owner 商户身份（对应图中 :User 节点）
type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"` // UNIQUE
	Image string `json:"image,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnerPatch nil 表示保留原值
type OwnerPatch struct {
	Name  *string
	Email *string
	Image *string
}

// Identity is what the session layer knows about the caller.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}

const DefaultOwnerName = "Anonymous"
