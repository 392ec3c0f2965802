package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"confession-system/models"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message exceeds 280 characters")
	ErrBadPlatform    = errors.New("platform must be twitter or farcaster")
)

// ClaimService composes the gates in fixed order and performs the
// side-effecting writes once all of them pass.
type ClaimService struct {
	DB         *gorm.DB
	Reputation *ReputationService
	Cooldown   *CooldownService
	Collabs    *CollaborationService
}

func NewClaimService(db *gorm.DB, reputation *ReputationService, cooldown *CooldownService, collabs *CollaborationService) *ClaimService {
	return &ClaimService{DB: db, Reputation: reputation, Cooldown: cooldown, Collabs: collabs}
}

// ActorProfile is the social identity snapshot accompanying a request.
// Missing capability fields default to false/0 — explicitly, so the
// follower-bypass rule always has a value to work with.
type ActorProfile struct {
	Fid           int64 `json:"fid"`
	PowerBadge    bool  `json:"power_badge"`
	FollowerCount int64 `json:"follower_count"`
}

// ConfessionInput is one confession submission.
type ConfessionInput struct {
	Text       string
	ClaimBonus bool
	Profile    ActorProfile
}

// ConfessionResult reports what happened. The confession posts whenever
// the cooldown allows; bonus failures are reported here, never rolled back.
type ConfessionResult struct {
	Posted          bool               `json:"posted"`
	Confession      *models.Confession `json:"confession,omitempty"`
	NextAvailableAt *time.Time         `json:"next_available_at,omitempty"`
	BonusGranted    bool               `json:"bonus_granted"`
	BonusReason     string             `json:"bonus_reason,omitempty"`
	BonusAmount     float64            `json:"bonus_amount,omitempty"`
	TokenSymbol     string             `json:"token_symbol,omitempty"`
}

// SubmitConfession posts a confession and optionally attempts the
// collaboration bonus on top. Gate order for the bonus: collaboration
// eligibility → reputation → claim debit.
func (s *ClaimService) SubmitConfession(ctx context.Context, wallet string, in ConfessionInput) (ConfessionResult, error) {
	text, err := NormalizeMessage(in.Text)
	if err != nil {
		return ConfessionResult{}, err
	}

	now := time.Now()
	featured, err := s.Collabs.GetFeatured(now)
	if err != nil {
		return ConfessionResult{}, err
	}
	grace := 0
	if featured != nil {
		grace = featured.ConfessionGraceHours
	}

	status, err := s.Cooldown.CanAct(wallet, ActionConfession, grace)
	if err != nil {
		return ConfessionResult{}, err
	}
	if !status.Allowed {
		return ConfessionResult{NextAvailableAt: status.NextAvailableAt}, nil
	}

	confession := models.Confession{
		WalletAddress:  wallet,
		Text:           text,
		BonusRequested: in.ClaimBonus,
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Lock first, then re-check: two concurrent submissions from
		// the same wallet must not both pass the window check.
		if err := s.ensureIdentity(tx, wallet, in.Profile); err != nil {
			return err
		}
		st, err := s.Cooldown.canActTx(tx, wallet, ActionConfession, grace)
		if err != nil {
			return err
		}
		if !st.Allowed {
			status = st
			return errCooldownLost
		}
		return tx.Create(&confession).Error
	})
	if errors.Is(err, errCooldownLost) {
		return ConfessionResult{NextAvailableAt: status.NextAvailableAt}, nil
	}
	if err != nil {
		return ConfessionResult{}, err
	}

	result := ConfessionResult{Posted: true, Confession: &confession}
	if !in.ClaimBonus {
		return result, nil
	}

	// Bonus is best-effort from here: the confession is already kept.
	granted, reason, collab := s.tryCollabBonus(ctx, wallet, in.Profile, now)
	result.BonusGranted = granted
	result.BonusReason = reason
	if collab != nil {
		confession.CollaborationID = &collab.ID
		if granted {
			result.BonusAmount = collab.TokenAmountPerClaim
			result.TokenSymbol = collab.TokenSymbol
		}
	}
	confession.BonusGranted = granted
	confession.BonusReason = reason
	if err := s.DB.Save(&confession).Error; err != nil {
		log.Printf("[CLAIM] Failed to record bonus outcome on confession %s: %v", confession.ID, err)
	}
	return result, nil
}

// ShareInput is one social-share submission.
type ShareInput struct {
	Message    string
	Platform   models.SharePlatform
	ShareLink  string
	ClaimBonus bool
	Profile    ActorProfile
}

// ShareResult reports the share outcome. On a cooldown or reputation
// rejection nothing is written at all.
type ShareResult struct {
	Recorded        bool                `json:"recorded"`
	Interaction     *models.Interaction `json:"interaction,omitempty"`
	RejectReason    string              `json:"reject_reason,omitempty"`
	NextAvailableAt *time.Time          `json:"next_available_at,omitempty"`
	BonusGranted    bool                `json:"bonus_granted"`
	BonusReason     string              `json:"bonus_reason,omitempty"`
	BonusAmount     float64             `json:"bonus_amount,omitempty"`
	TokenSymbol     string              `json:"token_symbol,omitempty"`
}

// SubmitShare runs the share path: cooldown → (if claiming) reputation →
// record interaction → collaboration eligibility → claim debit.
func (s *ClaimService) SubmitShare(ctx context.Context, wallet string, in ShareInput) (ShareResult, error) {
	message, err := NormalizeMessage(in.Message)
	if err != nil {
		return ShareResult{}, err
	}
	if in.Platform != models.PlatformTwitter && in.Platform != models.PlatformFarcaster {
		return ShareResult{}, ErrBadPlatform
	}

	status, err := s.Cooldown.CanAct(wallet, ActionShare, 0)
	if err != nil {
		return ShareResult{}, err
	}
	if !status.Allowed {
		return ShareResult{RejectReason: "cooldown", NextAvailableAt: status.NextAvailableAt}, nil
	}

	if in.ClaimBonus {
		decision, err := s.Reputation.CheckReputation(ctx, ReputationInput{
			Fid:           in.Profile.Fid,
			WalletAddress: wallet,
			PowerBadge:    in.Profile.PowerBadge,
			FollowerCount: in.Profile.FollowerCount,
		})
		if err != nil {
			return ShareResult{}, err
		}
		if !decision.Eligible {
			// Gating happens before the write: a blocked claim leaves
			// no partial state and does not consume the cooldown.
			return ShareResult{RejectReason: decision.Reason}, nil
		}
	}

	now := time.Now()
	interaction := models.Interaction{
		WalletAddress:    wallet,
		Message:          message,
		Platform:         in.Platform,
		ShareLink:        in.ShareLink,
		ClaimAvailableAt: now.Add(s.Cooldown.ShareInterval),
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.ensureIdentity(tx, wallet, in.Profile); err != nil {
			return err
		}
		st, err := s.Cooldown.canActTx(tx, wallet, ActionShare, 0)
		if err != nil {
			return err
		}
		if !st.Allowed {
			status = st
			return errCooldownLost
		}
		return tx.Create(&interaction).Error
	})
	if errors.Is(err, errCooldownLost) {
		return ShareResult{RejectReason: "cooldown", NextAvailableAt: status.NextAvailableAt}, nil
	}
	if err != nil {
		return ShareResult{}, err
	}

	result := ShareResult{Recorded: true, Interaction: &interaction}
	if !in.ClaimBonus {
		return result, nil
	}

	granted, reason, collab := s.claimFeatured(wallet, now, interaction.ID)
	result.BonusGranted = granted
	result.BonusReason = reason
	if granted && collab != nil {
		result.BonusAmount = collab.TokenAmountPerClaim
		result.TokenSymbol = collab.TokenSymbol
		interaction.Claimed = true
	}
	return result, nil
}

// tryCollabBonus runs the bonus gates for the confession path. Order:
// collaboration eligibility first (cheap, local), then the reputation
// gate, then the atomic debit.
func (s *ClaimService) tryCollabBonus(ctx context.Context, wallet string, profile ActorProfile, now time.Time) (bool, string, *models.Collaboration) {
	elig, err := s.Collabs.CheckEligibility(wallet, now)
	if err != nil {
		log.Printf("[CLAIM] Collaboration eligibility check failed for %s: %v", wallet, err)
		return false, "eligibility check failed", nil
	}
	if !elig.Eligible {
		return false, elig.Reason, elig.Collaboration
	}

	decision, err := s.Reputation.CheckReputation(ctx, ReputationInput{
		Fid:           profile.Fid,
		WalletAddress: wallet,
		PowerBadge:    profile.PowerBadge,
		FollowerCount: profile.FollowerCount,
	})
	if err != nil {
		log.Printf("[CLAIM] Reputation check failed for %s: %v", wallet, err)
		return false, "reputation check failed", elig.Collaboration
	}
	if !decision.Eligible {
		return false, decision.Reason, elig.Collaboration
	}

	collab := elig.Collaboration
	if err := s.Collabs.MarkClaimed(collab.ID, wallet, collab.TokenAmountPerClaim, ""); err != nil {
		return false, err.Error(), collab
	}
	return true, "", collab
}

// claimFeatured is the share path's post-write bonus step: eligibility
// then debit (reputation already ran pre-write). The interaction's
// claimed flag flips inside the debit transaction.
func (s *ClaimService) claimFeatured(wallet string, now time.Time, interactionID string) (bool, string, *models.Collaboration) {
	elig, err := s.Collabs.CheckEligibility(wallet, now)
	if err != nil {
		log.Printf("[CLAIM] Collaboration eligibility check failed for %s: %v", wallet, err)
		return false, "eligibility check failed", nil
	}
	if !elig.Eligible {
		return false, elig.Reason, elig.Collaboration
	}
	collab := elig.Collaboration
	if err := s.Collabs.MarkClaimed(collab.ID, wallet, collab.TokenAmountPerClaim, interactionID); err != nil {
		return false, err.Error(), collab
	}
	return true, "", collab
}

// ensureIdentity upserts the wallet's Identity row and takes a row lock
// on it for the remainder of the transaction. The lock is the per-wallet
// serialization point: a concurrent submission from the same wallet
// blocks here until this transaction commits, so the cooldown re-check
// that follows always sees the winner's insert. The FID link is set
// once and never overwritten here; relinking is admin-only.
func (s *ClaimService) ensureIdentity(tx *gorm.DB, wallet string, profile ActorProfile) error {
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}},
		DoNothing: true,
	}).Create(&models.Identity{WalletAddress: wallet}).Error; err != nil {
		return err
	}

	var identity models.Identity
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("wallet_address = ?", wallet).
		First(&identity).Error; err != nil {
		return err
	}

	if identity.Fid == nil && profile.Fid > 0 {
		fid := profile.Fid
		now := time.Now()
		identity.Fid = &fid
		identity.LinkedAt = &now
	}
	identity.PowerBadge = profile.PowerBadge
	if profile.FollowerCount > 0 {
		identity.FollowerCount = profile.FollowerCount
	}
	return tx.Save(&identity).Error
}

// errCooldownLost signals that the in-transaction re-check failed after
// the pre-check passed; it only ever travels within this package.
var errCooldownLost = errors.New("cooldown re-check failed")

// NormalizeMessage NFC-normalizes and trims a user message, enforcing
// the 280-rune cap on the normalized form.
func NormalizeMessage(text string) (string, error) {
	normalized := strings.TrimSpace(norm.NFC.String(text))
	if normalized == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(normalized) > models.MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return normalized, nil
}
