// handlers/admin_routes.go
package handlers

import (
	"log"

	"confession-system/middleware"
	"confession-system/models"
	"confession-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, settings *services.SettingsService, whitelist *services.WhitelistService, collabs *services.CollaborationService) {
	admin := app.Group("/admin", middleware.AdminRequired())

	// --- Whitelist ---
	admin.Get("/whitelist", whitelist.ListEntries)
	admin.Post("/whitelist", whitelist.AddEntry)
	admin.Delete("/whitelist/:fid", whitelist.RemoveEntry)

	// --- OpenRank settings ---
	admin.Get("/settings", func(c *fiber.Ctx) error {
		current, err := settings.Get(c.Context())
		if err != nil {
			log.Printf("DB Error fetching settings: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch settings"})
		}
		return c.JSON(current)
	})

	admin.Put("/settings", func(c *fiber.Ctx) error {
		var req struct {
			Threshold               int64                 `json:"threshold"`
			ComparisonMode          models.ComparisonMode `json:"comparison_mode"`
			PowerBadgeBypass        bool                  `json:"power_badge_bypass"`
			FollowerBypassThreshold int64                 `json:"follower_bypass_threshold"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Threshold < 0 || req.FollowerBypassThreshold < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "thresholds must be non-negative"})
		}
		switch req.ComparisonMode {
		case models.CompareScoreAbove, models.CompareRankBelow:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "comparison_mode must be score_above or rank_below"})
		}

		changedBy, _ := c.Locals("user_id").(string)
		updated, err := settings.Update(c.Context(), models.OpenRankSettings{
			Threshold:               req.Threshold,
			ComparisonMode:          req.ComparisonMode,
			PowerBadgeBypass:        req.PowerBadgeBypass,
			FollowerBypassThreshold: req.FollowerBypassThreshold,
		}, changedBy)
		if err != nil {
			log.Printf("DB Error updating settings: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update settings"})
		}
		return c.JSON(updated)
	})

	// --- Collaborations ---
	admin.Get("/collaborations", collabs.ListCollaborations)
	admin.Post("/collaborations", collabs.CreateCollaboration)
	admin.Put("/collaborations/:id", collabs.UpdateCollaboration)
	admin.Delete("/collaborations/:id", collabs.DeleteCollaboration)
	admin.Post("/collaborations/:id/feature", collabs.FeatureCollaboration)
}
