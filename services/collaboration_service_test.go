package services

import (
	"testing"
	"time"

	"confession-system/models"

	"github.com/stretchr/testify/assert"
)

func threeLinkCollab(requireAll bool) *models.Collaboration {
	return &models.Collaboration{
		TwitterURL:          "https://x.com/partner",
		FarcasterURL:        "https://warpcast.com/partner",
		DiscordURL:          "https://discord.gg/partner",
		RequireAllSocials:   requireAll,
		TokenAmountPerClaim: 100,
		RemainingBudget:     1000,
		TotalBudget:         1000,
		StartDate:           time.Now().Add(-time.Hour),
		IsActive:            true,
	}
}

func TestCompletedSocials_AnyPolicy(t *testing.T) {
	collab := threeLinkCollab(false)

	claim := &models.CollaborationClaim{}
	assert.False(t, completedSocials(collab, claim))

	// One click of three configured links satisfies ANY.
	claim.ClickedDiscord = true
	assert.True(t, completedSocials(collab, claim))
}

func TestCompletedSocials_AllPolicy(t *testing.T) {
	collab := threeLinkCollab(true)

	claim := &models.CollaborationClaim{ClickedTwitter: true, ClickedFarcaster: true}
	assert.False(t, completedSocials(collab, claim), "two of three configured links is not ALL")

	claim.ClickedDiscord = true
	assert.True(t, completedSocials(collab, claim))

	// Website was never configured, so its flag is irrelevant.
	claim.ClickedWebsite = false
	assert.True(t, completedSocials(collab, claim))
}

func TestCompletedSocials_NoLinksConfigured(t *testing.T) {
	collab := &models.Collaboration{RequireAllSocials: false}
	claim := &models.CollaborationClaim{}
	assert.True(t, completedSocials(collab, claim), "zero configured links is vacuously satisfied")

	collab.RequireAllSocials = true
	assert.True(t, completedSocials(collab, claim))
}

func TestChannelConfigured(t *testing.T) {
	collab := &models.Collaboration{TwitterURL: "https://x.com/partner"}
	assert.True(t, channelConfigured(collab, models.SocialTwitter))
	assert.False(t, channelConfigured(collab, models.SocialDiscord))
}

func TestClaimBlockReason(t *testing.T) {
	now := time.Now()

	base := func() (*models.Collaboration, *models.CollaborationClaim) {
		c := threeLinkCollab(false)
		claim := &models.CollaborationClaim{CompletedSocials: true}
		return c, claim
	}

	t.Run("all clear", func(t *testing.T) {
		c, claim := base()
		assert.Empty(t, claimBlockReason(c, claim, now))
	})

	t.Run("expired", func(t *testing.T) {
		c, claim := base()
		past := now.Add(-time.Minute)
		c.EndDate = &past
		assert.Equal(t, ErrCollabNotLive.Error(), claimBlockReason(c, claim, now))
	})

	t.Run("not started", func(t *testing.T) {
		c, claim := base()
		c.StartDate = now.Add(time.Hour)
		assert.Equal(t, ErrCollabNotLive.Error(), claimBlockReason(c, claim, now))
	})

	t.Run("claim cap reached", func(t *testing.T) {
		c, claim := base()
		max := int64(10)
		c.MaxClaims = &max
		c.ClaimsCount = 10
		assert.Equal(t, ErrMaxClaimsReached.Error(), claimBlockReason(c, claim, now))
	})

	t.Run("budget below per-claim amount", func(t *testing.T) {
		c, claim := base()
		c.RemainingBudget = 99.99
		assert.Equal(t, ErrBudgetExhausted.Error(), claimBlockReason(c, claim, now))
	})

	t.Run("socials incomplete", func(t *testing.T) {
		c, claim := base()
		claim.CompletedSocials = false
		assert.Equal(t, ErrSocialsIncomplete.Error(), claimBlockReason(c, claim, now))
	})

	t.Run("already claimed", func(t *testing.T) {
		c, claim := base()
		claim.ClaimedReward = true
		assert.Equal(t, ErrAlreadyClaimed.Error(), claimBlockReason(c, claim, now))
	})
}

func TestCollaborationIsLive(t *testing.T) {
	now := time.Now()
	c := models.Collaboration{StartDate: now.Add(-time.Hour)}
	assert.True(t, c.IsLive(now))

	// nil end date means no expiry
	future := now.Add(time.Hour)
	c.EndDate = &future
	assert.True(t, c.IsLive(now))

	boundary := now
	c.EndDate = &boundary
	assert.False(t, c.IsLive(now), "end date is exclusive")
}

func TestMaxClaimsReached(t *testing.T) {
	c := models.Collaboration{ClaimsCount: 1000000}
	assert.False(t, c.MaxClaimsReached(), "nil max means unlimited")

	max := int64(5)
	c.MaxClaims = &max
	c.ClaimsCount = 4
	assert.False(t, c.MaxClaimsReached())
	c.ClaimsCount = 5
	assert.True(t, c.MaxClaimsReached())
}
