package models

import "time"

// SocialChannel identifies one of a collaboration's configured links.
type SocialChannel string

const (
	SocialTwitter   SocialChannel = "twitter"
	SocialFarcaster SocialChannel = "farcaster"
	SocialDiscord   SocialChannel = "discord"
	SocialWebsite   SocialChannel = "website"
)

// Collaboration is a partner-sponsored, budget-capped promotion. At most
// one collaboration is featured at any time; that invariant is enforced
// by CollaborationService.SetFeatured in a single transaction.
type Collaboration struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PartnerName    string `gorm:"not null" json:"partner_name"`
	Slug           string `gorm:"uniqueIndex;not null" json:"slug"`
	PartnerLogoURL string `gorm:"type:text" json:"partner_logo_url"`
	Description    string `gorm:"type:text" json:"description"`

	TokenSymbol         string  `gorm:"not null" json:"token_symbol"`
	TokenAmountPerClaim float64 `gorm:"not null;default:0" json:"token_amount_per_claim"`
	TotalBudget         float64 `gorm:"not null;default:0" json:"total_budget"`
	RemainingBudget     float64 `gorm:"not null;default:0" json:"remaining_budget"`

	TwitterURL        string `gorm:"type:text" json:"twitter_url"`
	FarcasterURL      string `gorm:"type:text" json:"farcaster_url"`
	DiscordURL        string `gorm:"type:text" json:"discord_url"`
	WebsiteURL        string `gorm:"type:text" json:"website_url"`
	RequireAllSocials bool   `gorm:"default:false" json:"require_all_socials"`

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"` // nil = no expiry

	IsActive   bool `gorm:"default:false;index" json:"is_active"`
	IsFeatured bool `gorm:"default:false;index" json:"is_featured"`

	ClaimsCount int64  `gorm:"default:0" json:"claims_count"`
	MaxClaims   *int64 `json:"max_claims,omitempty"` // nil = unlimited

	// Extends the confession cooldown while this collaboration is featured.
	ConfessionGraceHours int `gorm:"default:0" json:"confession_grace_hours"`

	Timestamps
}

// ConfiguredSocials lists the channels this collaboration actually set a
// URL for. The completion policy (ANY/ALL) only ranges over these.
func (c *Collaboration) ConfiguredSocials() []SocialChannel {
	var out []SocialChannel
	if c.TwitterURL != "" {
		out = append(out, SocialTwitter)
	}
	if c.FarcasterURL != "" {
		out = append(out, SocialFarcaster)
	}
	if c.DiscordURL != "" {
		out = append(out, SocialDiscord)
	}
	if c.WebsiteURL != "" {
		out = append(out, SocialWebsite)
	}
	return out
}

// IsLive reports whether the collaboration is inside its date window.
func (c *Collaboration) IsLive(now time.Time) bool {
	if now.Before(c.StartDate) {
		return false
	}
	if c.EndDate != nil && !c.EndDate.After(now) {
		return false
	}
	return true
}

// MaxClaimsReached reports whether the claim cap (if any) is exhausted.
func (c *Collaboration) MaxClaimsReached() bool {
	return c.MaxClaims != nil && c.ClaimsCount >= *c.MaxClaims
}
