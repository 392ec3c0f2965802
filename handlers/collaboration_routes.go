// handlers/collaboration_routes.go
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

func SetupCollaborationRoutes(app *fiber.App, collabs *services.CollaborationService) {
	secured := app.Group("/collaborations", middleware.WalletContextMiddleware())

	// The single featured collaboration, if one is live
	secured.Get("/featured", func(c *fiber.Ctx) error {
		collab, err := collabs.GetFeatured(time.Now())
		if err != nil {
			log.Printf("DB Error fetching featured collaboration: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch featured collaboration"})
		}
		if collab == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No featured collaboration"})
		}
		return c.JSON(collab)
	})

	// Record that the wallet clicked one of the collaboration's links
	secured.Post("/:id/clicks", func(c *fiber.Ctx) error {
		wallet := c.Locals("wallet_address").(string)
		collabID := c.Params("id")

		var req struct {
			Channel string `json:"channel"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		channel := models.SocialChannel(req.Channel)
		switch channel {
		case models.SocialTwitter, models.SocialFarcaster, models.SocialDiscord, models.SocialWebsite:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "channel must be one of twitter, farcaster, discord, website"})
		}

		claim, err := collabs.RecordSocialClick(collabID, wallet, channel)
		if err != nil {
			if errors.Is(err, services.ErrCollabNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Collaboration not found"})
			}
			if errors.Is(err, services.ErrChannelNotConfigured) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			log.Printf("DB Error recording social click: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record click"})
		}
		return c.JSON(claim)
	})

	// Whether this wallet could claim the featured bonus right now
	secured.Get("/eligibility", func(c *fiber.Ctx) error {
		wallet := c.Locals("wallet_address").(string)
		elig, err := collabs.CheckEligibility(wallet, time.Now())
		if err != nil {
			log.Printf("DB Error checking collaboration eligibility: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check eligibility"})
		}
		return c.JSON(elig)
	})
}
