// middleware/wallet.go
package middleware

import (
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// WalletContextMiddleware extracts the wallet identity forwarded by the
// Gateway after wallet-connect auth, plus the optional Farcaster
// capability headers. Missing capability values default to false/0 so
// downstream gates always receive a defined value.
func WalletContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		wallet := strings.ToLower(strings.TrimSpace(c.Get("X-Wallet-Address")))
		if wallet == "" {
			log.Printf("❌ [WALLET_CTX] X-Wallet-Address missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Wallet-Address — request must come through gateway with wallet auth",
			})
		}

		fid, _ := strconv.ParseInt(c.Get("X-Fid"), 10, 64)
		powerBadge := strings.EqualFold(c.Get("X-Power-Badge"), "true")
		followerCount, _ := strconv.ParseInt(c.Get("X-Follower-Count"), 10, 64)

		c.Locals("wallet_address", wallet)
		c.Locals("fid", fid)
		c.Locals("power_badge", powerBadge)
		c.Locals("follower_count", followerCount)

		return c.Next()
	}
}

// AdminRequired guards admin routes using the roles header set by the
// Gateway.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rolesStr := c.Get("X-User-Roles")
		for _, r := range strings.Split(rolesStr, ",") {
			if strings.TrimSpace(r) == "admin" {
				c.Locals("user_id", c.Get("X-User-ID"))
				return c.Next()
			}
		}
		log.Printf("🚫 [ADMIN] Non-admin request rejected for %s", c.Path())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "admin role required",
		})
	}
}
