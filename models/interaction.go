package models

import "time"

// SharePlatform is where the user shared their message.
type SharePlatform string

const (
	PlatformTwitter   SharePlatform = "twitter"
	PlatformFarcaster SharePlatform = "farcaster"
)

// MaxMessageLength caps share/confession text (runes, NFC-normalized).
const MaxMessageLength = 280

// Interaction is one recorded social-share action. Creating the row is
// what starts the share cooldown window; ClaimAvailableAt is derived
// from the configured share interval at insert time.
type Interaction struct {
	ID               string        `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	WalletAddress    string        `gorm:"index;not null" json:"wallet_address"`
	Message          string        `gorm:"type:text;not null" json:"message"`
	Platform         SharePlatform `gorm:"not null" json:"platform"`
	ShareLink        string        `gorm:"type:text" json:"share_link"`
	Claimed          bool          `gorm:"default:false" json:"claimed"`
	ClaimAvailableAt time.Time     `json:"claim_available_at"`

	Timestamps
}
