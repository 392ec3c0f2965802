package models

import (
	"time"

	"gorm.io/gorm"
)

// Identity links an on-chain wallet to (at most) one Farcaster account.
// The wallet address is the primary handle for everything gating-related;
// the social link is created once and only admins may relink it.
type Identity struct {
	ID            string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	WalletAddress string `gorm:"uniqueIndex;not null" json:"wallet_address"`
	Fid           *int64 `gorm:"uniqueIndex" json:"fid,omitempty"` // Farcaster numeric id
	Username      string `gorm:"index" json:"username"`
	PowerBadge    bool   `gorm:"default:false" json:"power_badge"`
	FollowerCount int64  `gorm:"default:0" json:"follower_count"`

	LinkedAt *time.Time `json:"linked_at,omitempty"` // when the FID link was established

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
