package models

// Confession is a posted secret. Confessions always post once the
// cooldown allows it; the bonus fields record whether a collaboration
// bonus was requested alongside and how that went. A failed bonus never
// rolls the confession back.
type Confession struct {
	ID            string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	WalletAddress string `gorm:"index;not null" json:"wallet_address"`
	Text          string `gorm:"type:text;not null" json:"text"`

	BonusRequested  bool    `gorm:"default:false" json:"bonus_requested"`
	BonusGranted    bool    `gorm:"default:false" json:"bonus_granted"`
	BonusReason     string  `json:"bonus_reason,omitempty"`
	CollaborationID *string `gorm:"index" json:"collaboration_id,omitempty"`

	Timestamps
}
