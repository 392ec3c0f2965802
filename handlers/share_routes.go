// handlers/share_routes.go
package handlers

import (
	"errors"
	"log"

	"confession-system/middleware"
	"confession-system/models"
	"confession-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupShareRoutes(app *fiber.App, claims *services.ClaimService, cooldown *services.CooldownService) {
	secured := app.Group("/shares", middleware.WalletContextMiddleware())

	// Record a social share, optionally claiming the collaboration bonus.
	// All gating runs before the write: a rejection leaves no state.
	secured.Post("/", func(c *fiber.Ctx) error {
		wallet := c.Locals("wallet_address").(string)

		var req struct {
			Message    string `json:"message"`
			Platform   string `json:"platform"`
			ShareLink  string `json:"share_link"`
			ClaimBonus bool   `json:"claim_bonus"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		result, err := claims.SubmitShare(c.Context(), wallet, services.ShareInput{
			Message:    req.Message,
			Platform:   models.SharePlatform(req.Platform),
			ShareLink:  req.ShareLink,
			ClaimBonus: req.ClaimBonus,
			Profile:    profileFromLocals(c),
		})
		if err != nil {
			if errors.Is(err, services.ErrEmptyMessage) || errors.Is(err, services.ErrMessageTooLong) || errors.Is(err, services.ErrBadPlatform) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			log.Printf("Share submit failed for %s: %v", wallet, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit share"})
		}
		if !result.Recorded {
			if result.RejectReason == "cooldown" {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error":             "share cooldown active",
					"next_available_at": result.NextAvailableAt,
				})
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "claim not allowed",
				"reason":  result.RejectReason,
				"message": appealMessage,
			})
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	})

	// Cooldown status for the client-side countdown
	secured.Get("/cooldown", func(c *fiber.Ctx) error {
		wallet := c.Locals("wallet_address").(string)
		status, err := cooldown.CanAct(wallet, services.ActionShare, 0)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check cooldown"})
		}
		return c.JSON(status)
	})

	// The wallet's own share history
	secured.Get("/", func(c *fiber.Ctx) error {
		wallet := c.Locals("wallet_address").(string)
		var interactions []models.Interaction
		if err := claims.DB.Where("wallet_address = ?", wallet).
			Order("created_at DESC").Limit(100).
			Find(&interactions).Error; err != nil {
			log.Printf("DB Error fetching shares for %s: %v", wallet, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch shares"})
		}
		return c.JSON(interactions)
	})
}
