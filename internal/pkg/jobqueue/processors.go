package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/MarcoWillems/Galleria/app/models"
	"github.com/MarcoWillems/Galleria/app/repository"
	"github.com/MarcoWillems/Galleria/internal/pkg/analytics"
	"github.com/MarcoWillems/Galleria/internal/pkg/mail"
)

// processOrderConfirmationJob loads the paid order and sends the confirmation email
func (q *Queue) processOrderConfirmationJob(ctx context.Context, job *Job) error {
	payload, err := OrderConfirmationJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid order confirmation payload for job %s: %w", job.ID, err)
	}

	factory := repository.GetGlobalFactory()

	order, err := factory.GetOrderRepository().GetByID(payload.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order %d: %w", payload.OrderID, err)
	}

	// Paid pieces leave the reservation pool for good. The flip is a
	// conditional update, so a retried job that already sold an item is a
	// no-op rather than an error.
	artworkRepo := factory.GetArtworkRepository()
	for _, item := range order.Items {
		if _, err := artworkRepo.SetAvailability(item.ArtworkID, models.ArtworkReserved, models.ArtworkSold); err != nil {
			return fmt.Errorf("failed to mark artwork %d sold for order %s: %w", item.ArtworkID, order.OrderNo, err)
		}
	}

	if err := mail.SendOrderConfirmation(order); err != nil {
		return fmt.Errorf("failed to send confirmation for order %s: %w", order.OrderNo, err)
	}

	log.Infof("[JobQueue] Order confirmation sent for order %s to %s", order.OrderNo, order.CustomerEmail)
	return nil
}

// processAnalyticsEventJob records an analytics event counter in Redis
func (q *Queue) processAnalyticsEventJob(ctx context.Context, job *Job) error {
	payload, err := AnalyticsEventJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid analytics event payload for job %s: %w", job.ID, err)
	}

	if err := analytics.RecordEvent(ctx, payload.EventType, payload.Metadata); err != nil {
		return fmt.Errorf("failed to record analytics event %s: %w", payload.EventType, err)
	}

	return nil
}
