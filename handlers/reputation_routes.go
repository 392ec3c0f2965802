// handlers/reputation_routes.go
package handlers

import (
	"context"

	"confession-system/services"

	"github.com/gofiber/fiber/v2"
)

// ReputationChecker is what this route needs from the reputation layer.
type ReputationChecker interface {
	CheckReputation(ctx context.Context, in services.ReputationInput) (services.ReputationDecision, error)
}

// Shown alongside a block so users know where to appeal instead of
// getting a bare denial.
const appealMessage = "Your account does not meet the reputation requirements yet. If you believe this is a mistake, reach out in the /confessions channel to appeal."

func SetupReputationRoutes(app *fiber.App, reputation ReputationChecker) {
	// Front end calls this before showing the claim button. The wallet
	// header is optional here: the check keys on the FID.
	app.Post("/check-reputation", func(c *fiber.Ctx) error {
		var req struct {
			ID            int64  `json:"id"`
			HasPowerBadge *bool  `json:"hasPowerBadge"`
			FollowerCount *int64 `json:"followerCount"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.ID <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id is required"})
		}

		in := services.ReputationInput{Fid: req.ID}
		if req.HasPowerBadge != nil {
			in.PowerBadge = *req.HasPowerBadge
		}
		if req.FollowerCount != nil {
			in.FollowerCount = *req.FollowerCount
		}
		if wallet, ok := c.Locals("wallet_address").(string); ok {
			in.WalletAddress = wallet
		}

		decision, err := reputation.CheckReputation(c.Context(), in)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Reputation check failed"})
		}

		resp := fiber.Map{
			"eligible": decision.Eligible,
			"reason":   decision.Reason,
		}
		if decision.Rank != nil {
			resp["rank"] = *decision.Rank
		}
		if !decision.Eligible {
			resp["message"] = appealMessage
		}
		return c.JSON(resp)
	})
}
