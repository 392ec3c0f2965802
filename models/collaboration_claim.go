package models

import "time"

// CollaborationClaim tracks one wallet's progress against one
// collaboration: which social links were clicked, whether the click-set
// satisfies the collaboration's policy, and whether the bonus reward was
// already taken. Unique per (collaboration, wallet).
type CollaborationClaim struct {
	ID              string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CollaborationID string `gorm:"uniqueIndex:idx_collab_wallet;not null" json:"collaboration_id"`
	WalletAddress   string `gorm:"uniqueIndex:idx_collab_wallet;not null" json:"wallet_address"`

	ClickedTwitter   bool `gorm:"default:false" json:"clicked_twitter"`
	ClickedFarcaster bool `gorm:"default:false" json:"clicked_farcaster"`
	ClickedDiscord   bool `gorm:"default:false" json:"clicked_discord"`
	ClickedWebsite   bool `gorm:"default:false" json:"clicked_website"`

	CompletedSocials bool       `gorm:"default:false" json:"completed_socials"`
	ClaimedReward    bool       `gorm:"default:false" json:"claimed_reward"`
	ClaimedAt        *time.Time `json:"claimed_at,omitempty"`

	Timestamps
}

// Clicked reports whether the given channel was clicked.
func (cc *CollaborationClaim) Clicked(ch SocialChannel) bool {
	switch ch {
	case SocialTwitter:
		return cc.ClickedTwitter
	case SocialFarcaster:
		return cc.ClickedFarcaster
	case SocialDiscord:
		return cc.ClickedDiscord
	case SocialWebsite:
		return cc.ClickedWebsite
	}
	return false
}

// SetClicked flips on the flag for the given channel.
func (cc *CollaborationClaim) SetClicked(ch SocialChannel) {
	switch ch {
	case SocialTwitter:
		cc.ClickedTwitter = true
	case SocialFarcaster:
		cc.ClickedFarcaster = true
	case SocialDiscord:
		cc.ClickedDiscord = true
	case SocialWebsite:
		cc.ClickedWebsite = true
	}
}
