package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"outreachly/config"
	"outreachly/models"
	"outreachly/utils"
)

// Protected resolves the calling workspace from either a Bearer JWT or an
// API key header and stores it in the request locals. Session issuance
// itself lives outside this service.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey := c.Get("X-Api-Key"); apiKey != "" {
			return authenticateAPIKey(c, apiKey)
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization required",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization format",
			})
		}

		claims, err := utils.ParseJWTToken(tokenParts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		var workspace models.Workspace
		if err := config.DB.First(&workspace, claims.WorkspaceID).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Workspace not found",
			})
		}

		if !workspace.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Workspace is not active",
			})
		}

		if claims.TokenVersion != workspace.TokenVersion {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token version",
			})
		}

		c.Locals("workspace", &workspace)
		c.Locals("workspaceID", workspace.ID)

		return c.Next()
	}
}

// API keys look like "or_<prefix>_<secret>"; the prefix narrows the lookup
// and the secret is compared against the stored bcrypt hash.
func authenticateAPIKey(c *fiber.Ctx, apiKey string) error {
	parts := strings.SplitN(apiKey, "_", 3)
	if len(parts) != 3 || parts[0] != "or" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid API key format",
		})
	}

	var workspace models.Workspace
	if err := config.DB.Where("api_key_prefix = ?", parts[1]).First(&workspace).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid API key",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(workspace.APIKeyHash), []byte(parts[2])); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid API key",
		})
	}

	if !workspace.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Workspace is not active",
		})
	}

	now := time.Now().UTC()
	config.DB.Model(&workspace).Update("last_seen_at", now)

	c.Locals("workspace", &workspace)
	c.Locals("workspaceID", workspace.ID)

	return c.Next()
}
