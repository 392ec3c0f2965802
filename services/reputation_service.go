package services

import (
	"context"
	"log"

	"confession-system/models"

	"gorm.io/gorm"
)

// Gate reasons. Blocked users get an actionable message built from these
// by the handler layer, never a bare denial.
const (
	ReasonWhitelisted    = "whitelisted"
	ReasonPowerBadge     = "power_badge"
	ReasonFollowerBypass = "follower_bypass"
	ReasonAPIError       = "api_error"
	ReasonNotInGraph     = "not_in_graph"
	ReasonRankOK         = "rank_ok"
	ReasonRankTooLow     = "rank_too_low"
)

// ReputationInput is the full identity snapshot a gate check needs.
// Callers must always thread the follower count through — a missing
// value defaults to 0 at the handler, never to "skip the bypass rule".
type ReputationInput struct {
	Fid           int64
	WalletAddress string
	PowerBadge    bool
	FollowerCount int64
}

// ReputationDecision is data, not an error: the orchestrator branches on
// it without exception-style control flow.
type ReputationDecision struct {
	Eligible bool     `json:"eligible"`
	Reason   string   `json:"reason"`
	Rank     *int64   `json:"rank,omitempty"`
	Score    *float64 `json:"score,omitempty"`
}

// DecisionRecorder appends a gate decision to the audit log.
type DecisionRecorder interface {
	Record(decision models.EligibilityDecision)
}

// ReputationService runs the gate chain: whitelist → power badge →
// follower bypass → OpenRank lookup (fail open on upstream failure).
type ReputationService struct {
	Settings  SettingsProvider
	Whitelist WhitelistChecker
	Ranks     RankProvider
	Audit     DecisionRecorder
}

func NewReputationService(settings SettingsProvider, whitelist WhitelistChecker, ranks RankProvider, audit DecisionRecorder) *ReputationService {
	return &ReputationService{Settings: settings, Whitelist: whitelist, Ranks: ranks, Audit: audit}
}

// CheckReputation evaluates one identity against the current settings.
// Every call leaves an audit row whatever the outcome.
func (s *ReputationService) CheckReputation(ctx context.Context, in ReputationInput) (ReputationDecision, error) {
	settings, err := s.Settings.Get(ctx)
	if err != nil {
		return ReputationDecision{}, err
	}

	decision := s.evaluate(ctx, settings, in)

	outcome := models.OutcomeBlocked
	if decision.Eligible {
		outcome = models.OutcomeAllowed
	}
	s.Audit.Record(models.EligibilityDecision{
		Fid:           in.Fid,
		WalletAddress: in.WalletAddress,
		Rank:          decision.Rank,
		Score:         decision.Score,
		ThresholdUsed: settings.Threshold,
		PowerBadge:    in.PowerBadge,
		FollowerCount: in.FollowerCount,
		Outcome:       outcome,
		Reason:        decision.Reason,
	})
	return decision, nil
}

func (s *ReputationService) evaluate(ctx context.Context, settings *models.OpenRankSettings, in ReputationInput) ReputationDecision {
	whitelisted, err := s.Whitelist.IsWhitelisted(in.Fid)
	if err != nil {
		// Whitelist is an override, not a gate: a lookup failure just
		// means the override does not fire.
		log.Printf("[REPUTATION] Whitelist lookup failed for fid %d: %v", in.Fid, err)
	}
	if whitelisted {
		return ReputationDecision{Eligible: true, Reason: ReasonWhitelisted}
	}

	if in.PowerBadge && settings.PowerBadgeBypass {
		return ReputationDecision{Eligible: true, Reason: ReasonPowerBadge}
	}
	if settings.FollowerBypassThreshold > 0 && in.FollowerCount >= settings.FollowerBypassThreshold {
		return ReputationDecision{Eligible: true, Reason: ReasonFollowerBypass}
	}

	rank, err := s.Ranks.GetRank(ctx, in.Fid)
	return decideFromRank(settings, rank, err)
}

// decideFromRank applies the threshold policy to an OpenRank lookup
// result. An upstream failure fails open.
func decideFromRank(settings *models.OpenRankSettings, rank *RankResult, err error) ReputationDecision {
	if err != nil {
		log.Printf("[REPUTATION] OpenRank unavailable, failing open: %v", err)
		return ReputationDecision{Eligible: true, Reason: ReasonAPIError}
	}
	if rank == nil {
		return ReputationDecision{Eligible: false, Reason: ReasonNotInGraph}
	}

	var pass bool
	switch settings.ComparisonMode {
	case models.CompareRankBelow:
		pass = rank.Rank <= settings.Threshold
	default:
		pass = rank.Score >= float64(settings.Threshold)
	}

	decision := ReputationDecision{Rank: &rank.Rank, Score: &rank.Score}
	if pass {
		decision.Eligible = true
		decision.Reason = ReasonRankOK
	} else {
		decision.Reason = ReasonRankTooLow
	}
	return decision
}

// DBDecisionRecorder persists audit rows. Writes are best-effort: losing
// an audit row must not fail the user-facing decision.
type DBDecisionRecorder struct {
	DB *gorm.DB
}

func (r *DBDecisionRecorder) Record(decision models.EligibilityDecision) {
	if err := r.DB.Create(&decision).Error; err != nil {
		log.Printf("[REPUTATION] Failed to record eligibility decision for fid %d: %v", decision.Fid, err)
	}
}
