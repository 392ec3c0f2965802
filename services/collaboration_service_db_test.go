package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"confession-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// These tests exercise row locks, conditional updates and transaction
// rollback, which need a real Postgres. Set TEST_DATABASE_URL to run
// them; they are skipped otherwise.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database-backed tests")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Identity{},
		&models.Interaction{},
		&models.Confession{},
		&models.Collaboration{},
		&models.CollaborationClaim{},
	))
	return db
}

func testWallet() string {
	return "0x" + uuid.NewString()
}

func seedLiveCollab(t *testing.T, db *gorm.DB, budget, perClaim float64) *models.Collaboration {
	t.Helper()
	collab := &models.Collaboration{
		ID:                  uuid.NewString(),
		PartnerName:         "Partner " + uuid.NewString()[:8],
		Slug:                "partner-" + uuid.NewString(),
		TokenSymbol:         "PTN",
		TokenAmountPerClaim: perClaim,
		TotalBudget:         budget,
		RemainingBudget:     budget,
		TwitterURL:          "https://x.com/partner",
		StartDate:           time.Now().Add(-time.Hour),
		IsActive:            true,
		IsFeatured:          true,
	}
	require.NoError(t, db.Create(collab).Error)
	t.Cleanup(func() {
		db.Unscoped().Where("collaboration_id = ?", collab.ID).Delete(&models.CollaborationClaim{})
		db.Unscoped().Delete(collab)
	})
	return collab
}

func seedCompletedClaim(t *testing.T, db *gorm.DB, collabID, wallet string) {
	t.Helper()
	claim := &models.CollaborationClaim{
		CollaborationID:  collabID,
		WalletAddress:    wallet,
		ClickedTwitter:   true,
		CompletedSocials: true,
	}
	require.NoError(t, db.Create(claim).Error)
}

func TestSetFeatured_ExactlyOneFeatured(t *testing.T) {
	db := testDB(t)
	svc := NewCollaborationService(db)

	first := seedLiveCollab(t, db, 1000, 100)
	second := seedLiveCollab(t, db, 1000, 100)

	require.NoError(t, svc.SetFeatured(first.ID))
	require.NoError(t, svc.SetFeatured(second.ID))

	var featured []models.Collaboration
	require.NoError(t, db.Where("is_featured = ?", true).Find(&featured).Error)
	require.Len(t, featured, 1, "featuring a second collaboration must clear the first")
	assert.Equal(t, second.ID, featured[0].ID)

	assert.ErrorIs(t, svc.SetFeatured(uuid.NewString()), ErrCollabNotFound)
}

func TestMarkClaimed_DebitsBudgetExactlyOnce(t *testing.T) {
	db := testDB(t)
	svc := NewCollaborationService(db)

	collab := seedLiveCollab(t, db, 1000, 100)
	wallet := testWallet()
	seedCompletedClaim(t, db, collab.ID, wallet)

	require.NoError(t, svc.MarkClaimed(collab.ID, wallet, 100, ""))

	var got models.Collaboration
	require.NoError(t, db.First(&got, "id = ?", collab.ID).Error)
	assert.Equal(t, float64(900), got.RemainingBudget)
	assert.Equal(t, int64(1), got.ClaimsCount)

	var claim models.CollaborationClaim
	require.NoError(t, db.Where("collaboration_id = ? AND wallet_address = ?", collab.ID, wallet).First(&claim).Error)
	assert.True(t, claim.ClaimedReward)
	require.NotNil(t, claim.ClaimedAt)

	// Second claim from the same wallet fails and rolls back its debit.
	assert.ErrorIs(t, svc.MarkClaimed(collab.ID, wallet, 100, ""), ErrAlreadyClaimed)
	require.NoError(t, db.First(&got, "id = ?", collab.ID).Error)
	assert.Equal(t, float64(900), got.RemainingBudget)
	assert.Equal(t, int64(1), got.ClaimsCount)
}

func TestMarkClaimed_BudgetNeverGoesNegative(t *testing.T) {
	db := testDB(t)
	svc := NewCollaborationService(db)

	collab := seedLiveCollab(t, db, 150, 100)
	winner, loser := testWallet(), testWallet()
	seedCompletedClaim(t, db, collab.ID, winner)
	seedCompletedClaim(t, db, collab.ID, loser)

	require.NoError(t, svc.MarkClaimed(collab.ID, winner, 100, ""))
	assert.ErrorIs(t, svc.MarkClaimed(collab.ID, loser, 100, ""), ErrBudgetExhausted)

	var got models.Collaboration
	require.NoError(t, db.First(&got, "id = ?", collab.ID).Error)
	assert.Equal(t, float64(50), got.RemainingBudget)
	assert.Equal(t, int64(1), got.ClaimsCount)
}

func TestMarkClaimed_FlagsInteractionAtomically(t *testing.T) {
	db := testDB(t)
	svc := NewCollaborationService(db)

	collab := seedLiveCollab(t, db, 1000, 100)
	wallet := testWallet()
	seedCompletedClaim(t, db, collab.ID, wallet)

	interaction := models.Interaction{
		WalletAddress:    wallet,
		Message:          "gm",
		Platform:         models.PlatformTwitter,
		ClaimAvailableAt: time.Now(),
	}
	require.NoError(t, db.Create(&interaction).Error)
	t.Cleanup(func() { db.Unscoped().Delete(&interaction) })

	require.NoError(t, svc.MarkClaimed(collab.ID, wallet, 100, interaction.ID))

	var got models.Interaction
	require.NoError(t, db.First(&got, "id = ?", interaction.ID).Error)
	assert.True(t, got.Claimed)

	// A failed claim must not flag its interaction either.
	other := models.Interaction{
		WalletAddress:    wallet,
		Message:          "gm again",
		Platform:         models.PlatformTwitter,
		ClaimAvailableAt: time.Now(),
	}
	require.NoError(t, db.Create(&other).Error)
	t.Cleanup(func() { db.Unscoped().Delete(&other) })

	assert.ErrorIs(t, svc.MarkClaimed(collab.ID, wallet, 100, other.ID), ErrAlreadyClaimed)
	require.NoError(t, db.First(&got, "id = ?", other.ID).Error)
	assert.False(t, got.Claimed, "rolled-back claim must leave the interaction unflagged")
}

func TestRemoveCollaboration(t *testing.T) {
	db := testDB(t)
	svc := NewCollaborationService(db)

	collab := seedLiveCollab(t, db, 1000, 100)
	require.NoError(t, svc.removeCollaboration(collab.ID))

	var got models.Collaboration
	err := db.First(&got, "id = ?", collab.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "soft-deleted rows disappear from default scope")

	require.NoError(t, db.Unscoped().First(&got, "id = ?", collab.ID).Error)
	assert.False(t, got.IsActive)
	assert.False(t, got.IsFeatured)

	assert.ErrorIs(t, svc.removeCollaboration(uuid.NewString()), ErrCollabNotFound)
}

func TestSubmitShare_ConcurrentSameWalletSingleWinner(t *testing.T) {
	db := testDB(t)

	cooldown := &CooldownService{
		DB:                 db,
		ShareInterval:      24 * time.Hour,
		ConfessionInterval: 24 * time.Hour,
	}
	reputation := NewReputationService(
		&fakeSettings{settings: defaultSettings()},
		&fakeWhitelist{fids: map[int64]bool{}},
		&fakeRanks{},
		&capturingRecorder{},
	)
	claims := NewClaimService(db, reputation, cooldown, NewCollaborationService(db))

	wallet := testWallet()
	t.Cleanup(func() {
		db.Unscoped().Where("wallet_address = ?", wallet).Delete(&models.Interaction{})
		db.Unscoped().Where("wallet_address = ?", wallet).Delete(&models.Identity{})
	})

	const attempts = 4
	results := make([]ShareResult, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = claims.SubmitShare(context.Background(), wallet, ShareInput{
				Message:  "my secret",
				Platform: models.PlatformTwitter,
			})
		}(i)
	}
	wg.Wait()

	recorded := 0
	for i := 0; i < attempts; i++ {
		require.NoError(t, errs[i])
		if results[i].Recorded {
			recorded++
		} else {
			assert.Equal(t, "cooldown", results[i].RejectReason)
			assert.NotNil(t, results[i].NextAvailableAt)
		}
	}
	assert.Equal(t, 1, recorded, "exactly one concurrent share may land inside a window")

	var count int64
	require.NoError(t, db.Model(&models.Interaction{}).Where("wallet_address = ?", wallet).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
