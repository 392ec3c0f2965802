package services

import (
	"errors"
	"log"
	"time"

	"confession-system/models"

	"gorm.io/gorm"
)

// Ledger failure modes. The handler layer maps these to user-facing
// "offer no longer available" style responses; none of them is retried
// automatically.
var (
	ErrBudgetExhausted      = errors.New("collaboration budget exhausted")
	ErrAlreadyClaimed       = errors.New("reward already claimed")
	ErrSocialsIncomplete    = errors.New("social tasks not completed")
	ErrNoFeaturedCollab     = errors.New("no featured collaboration")
	ErrCollabNotLive        = errors.New("collaboration outside its date window")
	ErrCollabNotFound       = errors.New("collaboration not found")
	ErrMaxClaimsReached     = errors.New("collaboration claim cap reached")
	ErrChannelNotConfigured = errors.New("social channel not configured for collaboration")
)

// CollaborationService is the budget ledger: featured lookup, the
// transactional featured toggle, social-click tracking, eligibility, and
// the atomic claim debit.
type CollaborationService struct {
	DB *gorm.DB
}

func NewCollaborationService(db *gorm.DB) *CollaborationService {
	return &CollaborationService{DB: db}
}

// GetFeatured returns the featured collaboration currently live, or nil
// if there is none. If admin data briefly holds two featured rows (race
// during the toggle), first match wins and the anomaly is logged.
func (s *CollaborationService) GetFeatured(now time.Time) (*models.Collaboration, error) {
	var collabs []models.Collaboration
	err := s.DB.
		Where("is_active = ? AND is_featured = ?", true, true).
		Where("start_date <= ?", now).
		Where("(end_date IS NULL OR end_date > ?)", now).
		Order("created_at ASC").
		Find(&collabs).Error
	if err != nil {
		return nil, err
	}
	if len(collabs) == 0 {
		return nil, nil
	}
	if len(collabs) > 1 {
		log.Printf("⚠️ [COLLAB] %d collaborations marked featured — invariant violated, using %s", len(collabs), collabs[0].ID)
	}
	return &collabs[0], nil
}

// SetFeatured atomically clears the featured flag everywhere else and
// sets it on the target. Single transaction so concurrent admin toggles
// cannot leave two featured rows behind.
func (s *CollaborationService) SetFeatured(id string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var collab models.Collaboration
		if err := tx.First(&collab, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCollabNotFound
			}
			return err
		}
		if err := tx.Model(&models.Collaboration{}).
			Where("id <> ? AND is_featured = ?", id, true).
			Update("is_featured", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Collaboration{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"is_featured": true, "is_active": true}).Error
	})
}

// RecordSocialClick upserts the wallet's claim row, flips the clicked
// flag for the channel, and recomputes completion against the
// collaboration's ANY/ALL policy.
func (s *CollaborationService) RecordSocialClick(collabID, wallet string, channel models.SocialChannel) (*models.CollaborationClaim, error) {
	var claim models.CollaborationClaim
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var collab models.Collaboration
		if err := tx.First(&collab, "id = ?", collabID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCollabNotFound
			}
			return err
		}
		if !channelConfigured(&collab, channel) {
			return ErrChannelNotConfigured
		}

		err := tx.Where("collaboration_id = ? AND wallet_address = ?", collabID, wallet).First(&claim).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			claim = models.CollaborationClaim{CollaborationID: collabID, WalletAddress: wallet}
		} else if err != nil {
			return err
		}

		claim.SetClicked(channel)
		claim.CompletedSocials = completedSocials(&collab, &claim)
		return tx.Save(&claim).Error
	})
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// CollabEligibility is the ledger's verdict for one wallet.
type CollabEligibility struct {
	Eligible      bool                  `json:"eligible"`
	Reason        string                `json:"reason,omitempty"`
	Collaboration *models.Collaboration `json:"collaboration,omitempty"`
}

// CheckEligibility runs the read-only pre-check: featured collaboration
// exists, is live, has budget and claim headroom, and the wallet has
// completed the social tasks without having claimed yet.
func (s *CollaborationService) CheckEligibility(wallet string, now time.Time) (CollabEligibility, error) {
	collab, err := s.GetFeatured(now)
	if err != nil {
		return CollabEligibility{}, err
	}
	if collab == nil {
		return CollabEligibility{Reason: ErrNoFeaturedCollab.Error()}, nil
	}

	var claim models.CollaborationClaim
	err = s.DB.Where("collaboration_id = ? AND wallet_address = ?", collab.ID, wallet).First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CollabEligibility{Reason: ErrSocialsIncomplete.Error(), Collaboration: collab}, nil
	}
	if err != nil {
		return CollabEligibility{}, err
	}

	if reason := claimBlockReason(collab, &claim, now); reason != "" {
		return CollabEligibility{Reason: reason, Collaboration: collab}, nil
	}
	return CollabEligibility{Eligible: true, Collaboration: collab}, nil
}

// MarkClaimed consumes the wallet's bonus: claimed_reward flips once,
// and in the same transaction the collaboration's budget is debited,
// its claim counter bumped, and — when the claim rides on a share —
// the interaction flagged claimed. The debit is a single conditional
// UPDATE checked by affected-row count, so two wallets racing for the
// last budget unit cannot both win. interactionID may be empty for
// claims with no backing interaction (the confession path).
func (s *CollaborationService) MarkClaimed(collabID, wallet string, amount float64, interactionID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Collaboration{}).
			Where("id = ? AND remaining_budget >= ? AND (max_claims IS NULL OR claims_count < max_claims)", collabID, amount).
			Updates(map[string]interface{}{
				"remaining_budget": gorm.Expr("remaining_budget - ?", amount),
				"claims_count":     gorm.Expr("claims_count + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBudgetExhausted
		}

		now := time.Now()
		res = tx.Model(&models.CollaborationClaim{}).
			Where("collaboration_id = ? AND wallet_address = ? AND completed_socials = ? AND claimed_reward = ?",
				collabID, wallet, true, false).
			Updates(map[string]interface{}{"claimed_reward": true, "claimed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Rolls back the budget debit above.
			return ErrAlreadyClaimed
		}

		if interactionID != "" {
			if err := tx.Model(&models.Interaction{}).
				Where("id = ?", interactionID).
				Update("claimed", true).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// removeCollaboration deactivates and soft-deletes in one transaction,
// so a failure cannot leave a half-removed row. Historical claims keep
// referencing the soft-deleted collaboration.
func (s *CollaborationService) removeCollaboration(id string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var collab models.Collaboration
		if err := tx.First(&collab, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCollabNotFound
			}
			return err
		}
		if err := tx.Model(&collab).
			Updates(map[string]interface{}{"is_active": false, "is_featured": false}).Error; err != nil {
			return err
		}
		return tx.Delete(&collab).Error
	})
}

// DeactivateExpired soft-disables collaborations whose end date passed.
// Run on a schedule; claims referencing them are kept.
func (s *CollaborationService) DeactivateExpired(now time.Time) (int64, error) {
	res := s.DB.Model(&models.Collaboration{}).
		Where("is_active = ? AND end_date IS NOT NULL AND end_date <= ?", true, now).
		Updates(map[string]interface{}{"is_active": false, "is_featured": false})
	return res.RowsAffected, res.Error
}

// --- pure policy helpers ---

func channelConfigured(c *models.Collaboration, ch models.SocialChannel) bool {
	for _, configured := range c.ConfiguredSocials() {
		if configured == ch {
			return true
		}
	}
	return false
}

// completedSocials applies the collaboration's requirement policy to the
// claim's click-set. ALL: every configured channel clicked. ANY: at
// least one clicked — vacuously satisfied when no channels are
// configured at all.
func completedSocials(c *models.Collaboration, claim *models.CollaborationClaim) bool {
	configured := c.ConfiguredSocials()
	if len(configured) == 0 {
		return true
	}
	if c.RequireAllSocials {
		for _, ch := range configured {
			if !claim.Clicked(ch) {
				return false
			}
		}
		return true
	}
	for _, ch := range configured {
		if claim.Clicked(ch) {
			return true
		}
	}
	return false
}

// claimBlockReason returns the first reason the wallet cannot claim, or
// "" when the claim may proceed. The budget pre-check here is repeated
// inside MarkClaimed under the transaction.
func claimBlockReason(c *models.Collaboration, claim *models.CollaborationClaim, now time.Time) string {
	if !c.IsLive(now) {
		return ErrCollabNotLive.Error()
	}
	if c.MaxClaimsReached() {
		return ErrMaxClaimsReached.Error()
	}
	if c.RemainingBudget < c.TokenAmountPerClaim {
		return ErrBudgetExhausted.Error()
	}
	if !claim.CompletedSocials {
		return ErrSocialsIncomplete.Error()
	}
	if claim.ClaimedReward {
		return ErrAlreadyClaimed.Error()
	}
	return ""
}
