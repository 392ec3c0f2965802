package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"confession-system/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const settingsCacheKey = "openrank_settings"
const settingsCacheTTL = 5 * time.Minute

// SettingsProvider hands the reputation gate its current configuration.
type SettingsProvider interface {
	Get(ctx context.Context) (*models.OpenRankSettings, error)
}

// SettingsService owns the singleton OpenRankSettings row. Reads go
// through redis with explicit invalidation on every admin update, so a
// threshold change takes effect immediately instead of waiting out a TTL.
type SettingsService struct {
	DB  *gorm.DB
	Rdb *redis.Client // optional; nil disables caching
}

func NewSettingsService(db *gorm.DB, rdb *redis.Client) *SettingsService {
	return &SettingsService{DB: db, Rdb: rdb}
}

// EnsureDefault creates the settings row if none exists yet. Called at
// startup: a missing settings row is a configuration error everywhere else.
func (s *SettingsService) EnsureDefault() error {
	var count int64
	if err := s.DB.Model(&models.OpenRankSettings{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	def := models.OpenRankSettings{
		Threshold:               50,
		ComparisonMode:          models.CompareScoreAbove,
		PowerBadgeBypass:        true,
		FollowerBypassThreshold: 10000,
		UpdatedBy:               "system",
	}
	if err := s.DB.Create(&def).Error; err != nil {
		return err
	}
	log.Printf("[SETTINGS] Seeded default OpenRank settings (threshold=%d, mode=%s)", def.Threshold, def.ComparisonMode)
	return nil
}

// Get returns the active settings, preferring the redis cache.
func (s *SettingsService) Get(ctx context.Context) (*models.OpenRankSettings, error) {
	if s.Rdb != nil {
		raw, err := s.Rdb.Get(ctx, settingsCacheKey).Result()
		if err == nil && raw != "" {
			var cached models.OpenRankSettings
			if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
				return &cached, nil
			}
		}
	}

	var settings models.OpenRankSettings
	if err := s.DB.Order("created_at ASC").First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("openrank settings row missing — startup seeding did not run")
		}
		return nil, err
	}

	if s.Rdb != nil {
		if raw, err := json.Marshal(settings); err == nil {
			if err := s.Rdb.Set(ctx, settingsCacheKey, raw, settingsCacheTTL).Err(); err != nil {
				log.Printf("[SETTINGS] Failed to cache settings: %v", err)
			}
		}
	}
	return &settings, nil
}

// Update fully replaces the settings and writes an audit row in the same
// transaction, then drops the cache so the next read sees the new values.
func (s *SettingsService) Update(ctx context.Context, updated models.OpenRankSettings, changedBy string) (*models.OpenRankSettings, error) {
	var current models.OpenRankSettings
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("created_at ASC").First(&current).Error; err != nil {
			return err
		}
		current.Threshold = updated.Threshold
		current.ComparisonMode = updated.ComparisonMode
		current.PowerBadgeBypass = updated.PowerBadgeBypass
		current.FollowerBypassThreshold = updated.FollowerBypassThreshold
		current.UpdatedBy = changedBy
		if err := tx.Save(&current).Error; err != nil {
			return err
		}
		audit := models.OpenRankSettingsAudit{
			Threshold:               current.Threshold,
			ComparisonMode:          current.ComparisonMode,
			PowerBadgeBypass:        current.PowerBadgeBypass,
			FollowerBypassThreshold: current.FollowerBypassThreshold,
			ChangedBy:               changedBy,
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Rdb != nil {
		if err := s.Rdb.Del(ctx, settingsCacheKey).Err(); err != nil {
			log.Printf("[SETTINGS] Failed to invalidate settings cache: %v", err)
		}
	}
	return &current, nil
}
