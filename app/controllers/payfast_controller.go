package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/MarcoWillems/Galleria/internal/pkg/billing"
	"github.com/MarcoWillems/Galleria/internal/pkg/database"
	"github.com/MarcoWillems/Galleria/internal/pkg/jobqueue"
)

// HandlePayFastNotify receives PayFast Instant Transaction Notifications.
// PayFast retries until it sees a 200, so the response code is the whole
// contract: 200 for handled (including idempotent duplicates), 400 for
// business rejections PayFast should stop retrying, 500 for failures where
// a retry may succeed.
func HandlePayFastNotify(c *fiber.Ctx) error {
	fields := make(map[string]string)
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		fields[string(key)] = string(value)
	})

	dispatcher := jobqueue.NewQueueDispatcher(jobqueue.GetManager().GetQueue())
	svc := billing.NewServiceFromDB(database.GetDB(), dispatcher)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	handled, err := svc.ProcessWebhook(ctx, fields)
	if err != nil {
		log.Errorf("[PayFast] ITN processing error: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}
	if !handled {
		return c.Status(fiber.StatusBadRequest).SendString("Webhook processing failed")
	}

	// PayFast expects an empty 200 body
	return c.SendStatus(fiber.StatusOK)
}

// HandlePayFastNotifyHealth lets operators confirm the notify endpoint is
// reachable. No business logic runs here.
func HandlePayFastNotifyHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"endpoint": "payfast-notify",
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
