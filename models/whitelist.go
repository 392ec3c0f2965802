package models

import "time"

// WhitelistEntry is an admin-managed override: presence alone bypasses the
// reputation gate. Matched by exact FID, no expiry.
type WhitelistEntry struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Fid       int64     `gorm:"uniqueIndex;not null" json:"fid"`
	Username  string    `json:"username"`
	Reason    string    `json:"reason"` // e.g., "partner team", "appeal approved"
	AddedBy   string    `json:"added_by"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
