package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MarcoWillems/Galleria/internal/pkg/ratelimit"
)

// webhookLimiterKey is the shared bucket key for the webhook route class.
// PayFast gives no stable per-caller identity, so all notification traffic
// shares one bucket; the class budget is sized for that.
const webhookLimiterKey = "global"

// RateLimit guards a route group with the given limiter and route class.
// Rejections return 429 so they stay distinguishable from signature failures
// (400) and processing errors (500): the provider treats 429 as retryable.
func RateLimit(limiter *ratelimit.Limiter, class ratelimit.RouteClass) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if class == ratelimit.RouteClassWebhook {
			key = webhookLimiterKey
		}

		if !limiter.Admit(class, key) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Too many requests, retry later",
			})
		}
		return c.Next()
	}
}
