package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/MarcoWillems/Galleria/app/repository"
	"github.com/MarcoWillems/Galleria/internal/pkg/analytics"
	"github.com/MarcoWillems/Galleria/internal/pkg/jobqueue"
)

// HandleAdminDashboard returns the operational overview: catalog and order
// counts, today's event counters, and job queue health
func HandleAdminDashboard(c *fiber.Ctx) error {
	factory := repository.GetGlobalFactory()

	orderCount, err := factory.GetOrderRepository().Count()
	if err != nil {
		log.Errorf("[Admin] Failed to count orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load dashboard"})
	}
	artworkCount, err := factory.GetArtworkRepository().Count()
	if err != nil {
		log.Errorf("[Admin] Failed to count artworks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load dashboard"})
	}
	artistCount, err := factory.GetArtistRepository().Count()
	if err != nil {
		log.Errorf("[Admin] Failed to count artists: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load dashboard"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := analytics.GetEventCounts(ctx, time.Now())
	if err != nil {
		log.Errorf("[Admin] Failed to load event counters: %v", err)
		events = map[string]int64{}
	}

	jobStats, err := jobqueue.GetManager().GetQueue().GetJobStats(ctx)
	if err != nil {
		log.Errorf("[Admin] Failed to load job stats: %v", err)
		jobStats = nil
	}

	return c.JSON(fiber.Map{
		"orders":       orderCount,
		"artworks":     artworkCount,
		"artists":      artistCount,
		"events_today": events,
		"job_stats":    jobStats,
		"queue_running": jobqueue.GetManager().IsRunning(),
	})
}
