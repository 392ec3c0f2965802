package services

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"confession-system/models"

	"gorm.io/gorm"
)

// ActionClass is one of the two independently rate-limited action kinds.
type ActionClass string

const (
	ActionShare      ActionClass = "share"
	ActionConfession ActionClass = "confession"
)

// CooldownStatus is the answer to "may this wallet act right now".
// NextAvailableAt is set only when blocked, for countdown display.
type CooldownStatus struct {
	Allowed         bool       `json:"allowed"`
	NextAvailableAt *time.Time `json:"next_available_at,omitempty"`
}

// CooldownService is a pure read-then-decide rate limiter: it never
// records anything. The orchestrator records the action only after all
// gates pass, so a rejected attempt never consumes the cooldown.
type CooldownService struct {
	DB                 *gorm.DB
	ShareInterval      time.Duration
	ConfessionInterval time.Duration
}

func NewCooldownService(db *gorm.DB) *CooldownService {
	return &CooldownService{
		DB:                 db,
		ShareInterval:      hoursFromEnv("SHARE_COOLDOWN_HOURS", 24),
		ConfessionInterval: hoursFromEnv("CONFESSION_COOLDOWN_HOURS", 24),
	}
}

func hoursFromEnv(key string, fallback int) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(fallback) * time.Hour
	}
	h, err := strconv.Atoi(raw)
	if err != nil || h <= 0 {
		log.Printf("⚠️  Invalid %s=%q, using default %dh", key, raw, fallback)
		return time.Duration(fallback) * time.Hour
	}
	return time.Duration(h) * time.Hour
}

// Interval returns the effective window for a class. A featured
// collaboration can stretch the confession window by its grace hours.
func (s *CooldownService) Interval(class ActionClass, graceHours int) time.Duration {
	switch class {
	case ActionConfession:
		return s.ConfessionInterval + time.Duration(graceHours)*time.Hour
	default:
		return s.ShareInterval
	}
}

// CanAct checks the most recent recorded action of the class for the
// wallet. First-ever action is always allowed.
func (s *CooldownService) CanAct(wallet string, class ActionClass, graceHours int) (CooldownStatus, error) {
	lastAt, err := s.lastActionAt(s.DB, wallet, class)
	if err != nil {
		return CooldownStatus{}, err
	}
	return cooldownAt(lastAt, s.Interval(class, graceHours), time.Now()), nil
}

// canActTx re-runs the check on a transaction handle. The orchestrator
// calls this while holding the wallet's identity row lock, immediately
// before the insert, so two concurrent requests from the same wallet
// cannot both slip through the pre-check.
func (s *CooldownService) canActTx(tx *gorm.DB, wallet string, class ActionClass, graceHours int) (CooldownStatus, error) {
	lastAt, err := s.lastActionAt(tx, wallet, class)
	if err != nil {
		return CooldownStatus{}, err
	}
	return cooldownAt(lastAt, s.Interval(class, graceHours), time.Now()), nil
}

func (s *CooldownService) lastActionAt(db *gorm.DB, wallet string, class ActionClass) (*time.Time, error) {
	var createdAt time.Time
	var err error
	switch class {
	case ActionConfession:
		var last models.Confession
		err = db.Where("wallet_address = ?", wallet).Order("created_at DESC").First(&last).Error
		createdAt = last.CreatedAt
	default:
		var last models.Interaction
		err = db.Where("wallet_address = ?", wallet).Order("created_at DESC").First(&last).Error
		createdAt = last.CreatedAt
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &createdAt, nil
}

// cooldownAt is the decision math, kept separate from storage.
func cooldownAt(lastAt *time.Time, interval time.Duration, now time.Time) CooldownStatus {
	if lastAt == nil {
		return CooldownStatus{Allowed: true}
	}
	next := lastAt.Add(interval)
	if !now.Before(next) {
		return CooldownStatus{Allowed: true}
	}
	return CooldownStatus{Allowed: false, NextAvailableAt: &next}
}
