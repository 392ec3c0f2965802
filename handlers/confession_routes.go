// handlers/confession_routes.go
package handlers

import (
	"errors"
	"log"
	"time"

	"confession-system/middleware"
	"confession-system/models"
	"confession-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupConfessionRoutes(app *fiber.App, claims *services.ClaimService, cooldown *services.CooldownService, collabs *services.CollaborationService) {
	secured := app.Group("/confessions", middleware.WalletContextMiddleware())

	// Post a confession, optionally requesting the collaboration bonus.
	// The confession posts even when the bonus is denied.
	secured.Post("/", func(c *fiber.Ctx) error {
		wallet := c.Locals("wallet_address").(string)

		var req struct {
			Text       string `json:"text"`
			ClaimBonus bool   `json:"claim_bonus"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		result, err := claims.SubmitConfession(c.Context(), wallet, services.ConfessionInput{
			Text:       req.Text,
			ClaimBonus: req.ClaimBonus,
			Profile:    profileFromLocals(c),
		})
		if err != nil {
			if errors.Is(err, services.ErrEmptyMessage) || errors.Is(err, services.ErrMessageTooLong) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			log.Printf("Confession submit failed for %s: %v", wallet, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit confession"})
		}
		if !result.Posted {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":             "confession cooldown active",
				"next_available_at": result.NextAvailableAt,
			})
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	})

	// Cooldown status for the client-side countdown
	secured.Get("/cooldown", func(c *fiber.Ctx) error {
		wallet := c.Locals("wallet_address").(string)

		grace := 0
		if featured, err := collabs.GetFeatured(time.Now()); err == nil && featured != nil {
			grace = featured.ConfessionGraceHours
		}
		status, err := cooldown.CanAct(wallet, services.ActionConfession, grace)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check cooldown"})
		}
		return c.JSON(status)
	})

	// Recent confessions for the feed (wallet addresses included; the
	// front end decides how to anonymize display)
	secured.Get("/", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		var confessions []models.Confession
		if err := claims.DB.Order("created_at DESC").Limit(limit).Find(&confessions).Error; err != nil {
			log.Printf("DB Error fetching confessions: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch confessions"})
		}
		return c.JSON(confessions)
	})
}

func profileFromLocals(c *fiber.Ctx) services.ActorProfile {
	profile := services.ActorProfile{}
	if fid, ok := c.Locals("fid").(int64); ok {
		profile.Fid = fid
	}
	if pb, ok := c.Locals("power_badge").(bool); ok {
		profile.PowerBadge = pb
	}
	if fc, ok := c.Locals("follower_count").(int64); ok {
		profile.FollowerCount = fc
	}
	return profile
}
