package models

import "time"

// DecisionOutcome is the terminal result of a gate evaluation.
type DecisionOutcome string

const (
	OutcomeAllowed DecisionOutcome = "allowed"
	OutcomeBlocked DecisionOutcome = "blocked"
)

// EligibilityDecision is the append-only audit trail: one row per gate
// evaluation, whatever the outcome. Exported rows are archived to R2 by
// the audit export worker.
type EligibilityDecision struct {
	ID            string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Fid           int64           `gorm:"index" json:"fid"`
	WalletAddress string          `gorm:"index" json:"wallet_address"`
	Rank          *int64          `json:"rank,omitempty"`
	Score         *float64        `json:"score,omitempty"`
	ThresholdUsed int64           `json:"threshold_used"`
	PowerBadge    bool            `json:"power_badge"`
	FollowerCount int64           `json:"follower_count"`
	Outcome       DecisionOutcome `gorm:"not null" json:"outcome"`
	Reason        string          `gorm:"not null" json:"reason"`
	Exported      bool            `gorm:"default:false;index" json:"-"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
}
