package services

import (
	"errors"
	"log"

	"confession-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// WhitelistChecker answers the override lookup for the reputation gate.
type WhitelistChecker interface {
	IsWhitelisted(fid int64) (bool, error)
}

type WhitelistService struct {
	DB *gorm.DB
}

func NewWhitelistService(db *gorm.DB) *WhitelistService {
	return &WhitelistService{DB: db}
}

// IsWhitelisted is an exact-FID lookup, nothing fuzzy.
func (s *WhitelistService) IsWhitelisted(fid int64) (bool, error) {
	var count int64
	err := s.DB.Model(&models.WhitelistEntry{}).Where("fid = ?", fid).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// --- Admin Handlers ---

// ListEntries returns all whitelist entries (Admin only)
func (s *WhitelistService) ListEntries(c *fiber.Ctx) error {
	var entries []models.WhitelistEntry
	if err := s.DB.Order("created_at DESC").Find(&entries).Error; err != nil {
		log.Printf("DB Error fetching whitelist: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch whitelist"})
	}
	return c.JSON(entries)
}

// AddEntry adds a FID to the whitelist (Admin only)
func (s *WhitelistService) AddEntry(c *fiber.Ctx) error {
	var req struct {
		Fid      int64  `json:"fid"`
		Username string `json:"username"`
		Reason   string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Fid <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "fid is required"})
	}

	addedBy, _ := c.Locals("user_id").(string)
	entry := models.WhitelistEntry{
		Fid:      req.Fid,
		Username: req.Username,
		Reason:   req.Reason,
		AddedBy:  addedBy,
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "FID already whitelisted"})
		}
		log.Printf("DB Error adding whitelist entry: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add whitelist entry"})
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// RemoveEntry removes a FID from the whitelist (Admin only)
func (s *WhitelistService) RemoveEntry(c *fiber.Ctx) error {
	fid, err := c.ParamsInt("fid")
	if err != nil || fid <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid fid"})
	}

	result := s.DB.Where("fid = ?", fid).Delete(&models.WhitelistEntry{})
	if result.Error != nil {
		log.Printf("DB Error removing whitelist entry: %v", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove whitelist entry"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "FID not whitelisted"})
	}
	return c.JSON(fiber.Map{"message": "Whitelist entry removed", "fid": fid})
}
