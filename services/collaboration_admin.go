package services

import (
	"errors"
	"log"
	"time"

	"confession-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// --- Admin Handlers ---

// CreateCollaboration creates a new collaboration, inactive by default (Admin only)
func (s *CollaborationService) CreateCollaboration(c *fiber.Ctx) error {
	var req struct {
		PartnerName          string     `json:"partner_name"`
		PartnerLogoURL       string     `json:"partner_logo_url"`
		Description          string     `json:"description"`
		TokenSymbol          string     `json:"token_symbol"`
		TokenAmountPerClaim  float64    `json:"token_amount_per_claim"`
		TotalBudget          float64    `json:"total_budget"`
		TwitterURL           string     `json:"twitter_url"`
		FarcasterURL         string     `json:"farcaster_url"`
		DiscordURL           string     `json:"discord_url"`
		WebsiteURL           string     `json:"website_url"`
		RequireAllSocials    bool       `json:"require_all_socials"`
		StartDate            *time.Time `json:"start_date"`
		EndDate              *time.Time `json:"end_date"`
		MaxClaims            *int64     `json:"max_claims"`
		ConfessionGraceHours int        `json:"confession_grace_hours"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.PartnerName == "" || req.TokenSymbol == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "partner_name and token_symbol are required"})
	}
	if req.TokenAmountPerClaim < 0 || req.TotalBudget < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amounts must be non-negative"})
	}

	startDate := time.Now()
	if req.StartDate != nil {
		startDate = *req.StartDate
	}

	collab := models.Collaboration{
		ID:                   uuid.NewString(),
		PartnerName:          req.PartnerName,
		Slug:                 slug.Make(req.PartnerName),
		PartnerLogoURL:       req.PartnerLogoURL,
		Description:          req.Description,
		TokenSymbol:          req.TokenSymbol,
		TokenAmountPerClaim:  req.TokenAmountPerClaim,
		TotalBudget:          req.TotalBudget,
		RemainingBudget:      req.TotalBudget,
		TwitterURL:           req.TwitterURL,
		FarcasterURL:         req.FarcasterURL,
		DiscordURL:           req.DiscordURL,
		WebsiteURL:           req.WebsiteURL,
		RequireAllSocials:    req.RequireAllSocials,
		StartDate:            startDate,
		EndDate:              req.EndDate,
		IsActive:             false,
		IsFeatured:           false,
		MaxClaims:            req.MaxClaims,
		ConfessionGraceHours: req.ConfessionGraceHours,
	}
	if err := s.DB.Create(&collab).Error; err != nil {
		log.Printf("DB Error creating collaboration: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create collaboration"})
	}
	return c.Status(fiber.StatusCreated).JSON(collab)
}

// UpdateCollaboration updates partner metadata and limits (Admin only).
// Budget edits here are the only way remaining_budget may increase.
func (s *CollaborationService) UpdateCollaboration(c *fiber.Ctx) error {
	id := c.Params("id")
	var existing models.Collaboration
	if err := s.DB.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Collaboration not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		PartnerName          *string    `json:"partner_name"`
		PartnerLogoURL       *string    `json:"partner_logo_url"`
		Description          *string    `json:"description"`
		TokenSymbol          *string    `json:"token_symbol"`
		TokenAmountPerClaim  *float64   `json:"token_amount_per_claim"`
		TotalBudget          *float64   `json:"total_budget"`
		RemainingBudget      *float64   `json:"remaining_budget"`
		TwitterURL           *string    `json:"twitter_url"`
		FarcasterURL         *string    `json:"farcaster_url"`
		DiscordURL           *string    `json:"discord_url"`
		WebsiteURL           *string    `json:"website_url"`
		RequireAllSocials    *bool      `json:"require_all_socials"`
		StartDate            *time.Time `json:"start_date"`
		EndDate              *time.Time `json:"end_date"`
		IsActive             *bool      `json:"is_active"`
		MaxClaims            *int64     `json:"max_claims"`
		ConfessionGraceHours *int       `json:"confession_grace_hours"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.PartnerName != nil {
		existing.PartnerName = *req.PartnerName
		existing.Slug = slug.Make(*req.PartnerName)
	}
	if req.PartnerLogoURL != nil {
		existing.PartnerLogoURL = *req.PartnerLogoURL
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.TokenSymbol != nil {
		existing.TokenSymbol = *req.TokenSymbol
	}
	if req.TokenAmountPerClaim != nil {
		if *req.TokenAmountPerClaim < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "token_amount_per_claim must be non-negative"})
		}
		existing.TokenAmountPerClaim = *req.TokenAmountPerClaim
	}
	if req.TotalBudget != nil {
		if *req.TotalBudget < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "total_budget must be non-negative"})
		}
		existing.TotalBudget = *req.TotalBudget
	}
	if req.RemainingBudget != nil {
		if *req.RemainingBudget < 0 || *req.RemainingBudget > existing.TotalBudget {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "remaining_budget must stay within [0, total_budget]"})
		}
		existing.RemainingBudget = *req.RemainingBudget
	}
	if req.TwitterURL != nil {
		existing.TwitterURL = *req.TwitterURL
	}
	if req.FarcasterURL != nil {
		existing.FarcasterURL = *req.FarcasterURL
	}
	if req.DiscordURL != nil {
		existing.DiscordURL = *req.DiscordURL
	}
	if req.WebsiteURL != nil {
		existing.WebsiteURL = *req.WebsiteURL
	}
	if req.RequireAllSocials != nil {
		existing.RequireAllSocials = *req.RequireAllSocials
	}
	if req.StartDate != nil {
		existing.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		existing.EndDate = req.EndDate
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
		if !existing.IsActive {
			existing.IsFeatured = false
		}
	}
	if req.MaxClaims != nil {
		existing.MaxClaims = req.MaxClaims
	}
	if req.ConfessionGraceHours != nil {
		existing.ConfessionGraceHours = *req.ConfessionGraceHours
	}

	if err := s.DB.Save(&existing).Error; err != nil {
		log.Printf("DB Error updating collaboration: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update collaboration"})
	}
	return c.JSON(existing)
}

// DeleteCollaboration soft-deletes a collaboration (Admin only). Historical
// claims keep referencing it, which is why hard delete is not offered.
func (s *CollaborationService) DeleteCollaboration(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.removeCollaboration(id); err != nil {
		if errors.Is(err, ErrCollabNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Collaboration not found"})
		}
		log.Printf("DB Error deleting collaboration %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete collaboration"})
	}
	return c.JSON(fiber.Map{"message": "Collaboration deleted", "id": id})
}

// ListCollaborations returns all collaborations (Admin only)
func (s *CollaborationService) ListCollaborations(c *fiber.Ctx) error {
	var collabs []models.Collaboration
	if err := s.DB.Order("created_at DESC").Find(&collabs).Error; err != nil {
		log.Printf("DB Error fetching collaborations: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch collaborations"})
	}
	return c.JSON(collabs)
}

// FeatureCollaboration makes the collaboration the single featured one (Admin only)
func (s *CollaborationService) FeatureCollaboration(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.SetFeatured(id); err != nil {
		if errors.Is(err, ErrCollabNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Collaboration not found"})
		}
		log.Printf("DB Error featuring collaboration %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to feature collaboration"})
	}
	log.Printf("✅ [COLLAB] Collaboration %s is now featured", id)
	return c.JSON(fiber.Map{"message": "Collaboration featured", "id": id})
}
