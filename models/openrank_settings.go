package models

import "time"

// ComparisonMode selects which direction the OpenRank threshold cuts.
// The mini-app historically ran both policies; pick one per deployment.
type ComparisonMode string

const (
	// CompareScoreAbove passes identities whose score >= threshold.
	CompareScoreAbove ComparisonMode = "score_above"
	// CompareRankBelow passes identities whose global rank <= threshold.
	CompareRankBelow ComparisonMode = "rank_below"
)

// OpenRankSettings is the singleton reputation-gate configuration.
// Updates are full replacements; every change leaves an audit row.
type OpenRankSettings struct {
	ID                      string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Threshold               int64          `gorm:"not null;default:50" json:"threshold"`
	ComparisonMode          ComparisonMode `gorm:"not null;default:'score_above'" json:"comparison_mode"`
	PowerBadgeBypass        bool           `gorm:"default:true" json:"power_badge_bypass"`
	FollowerBypassThreshold int64          `gorm:"default:10000" json:"follower_bypass_threshold"`
	UpdatedBy               string         `json:"updated_by"`

	Timestamps
}

// OpenRankSettingsAudit records who replaced the settings and with what.
type OpenRankSettingsAudit struct {
	ID                      string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Threshold               int64          `json:"threshold"`
	ComparisonMode          ComparisonMode `json:"comparison_mode"`
	PowerBadgeBypass        bool           `json:"power_badge_bypass"`
	FollowerBypassThreshold int64          `json:"follower_bypass_threshold"`
	ChangedBy               string         `json:"changed_by"`
	ChangedAt               time.Time      `json:"changed_at" gorm:"autoCreateTime"`
}
