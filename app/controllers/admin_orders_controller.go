package controllers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/MarcoWillems/Galleria/app/repository"
	"github.com/MarcoWillems/Galleria/internal/pkg/billing"
	"github.com/MarcoWillems/Galleria/internal/pkg/database"
	"github.com/MarcoWillems/Galleria/internal/pkg/jobqueue"
	"github.com/MarcoWillems/Galleria/internal/pkg/orders"
	"github.com/MarcoWillems/Galleria/internal/pkg/usercontext"
)

// HandleAdminListOrders lists orders, optionally filtered by status
func HandleAdminListOrders(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	status := c.Query("status")

	repo := repository.GetGlobalFactory().GetOrderRepository()

	var err error
	var result interface{}
	if status != "" {
		if !orders.Status(status).IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown status"})
		}
		result, err = repo.ListByStatus(status, offset, limit)
	} else {
		result, err = repo.List(offset, limit)
	}
	if err != nil {
		log.Errorf("[Admin] Failed to list orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load orders"})
	}

	total, err := repo.Count()
	if err != nil {
		log.Errorf("[Admin] Failed to count orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load orders"})
	}

	return c.JSON(fiber.Map{"orders": result, "total": total, "offset": offset, "limit": limit})
}

// HandleAdminGetOrder returns an order with its full audit trail
func HandleAdminGetOrder(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}

	repo := repository.GetGlobalFactory().GetOrderRepository()

	order, err := repo.GetByID(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}

	events, err := repo.GetEvents(order.ID)
	if err != nil {
		log.Errorf("[Admin] Failed to load events for order %d: %v", order.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load order events"})
	}

	return c.JSON(fiber.Map{"order": order, "events": events})
}

// HandleAdminUpdateOrderStatus performs a manual status change (ship, cancel,
// refund). It goes through the same conditional update as the webhook path,
// so a concurrently arriving payment notification cannot be clobbered.
func HandleAdminUpdateOrderStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	target := orders.Status(req.Status)
	if !target.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown status"})
	}

	dispatcher := jobqueue.NewQueueDispatcher(jobqueue.GetManager().GetQueue())
	svc := billing.NewServiceFromDB(database.GetDB(), dispatcher)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actor := usercontext.GetUserContext(c).Username
	order, err := svc.ChangeOrderStatus(ctx, uint(id), target, actor)
	if err != nil {
		if errors.Is(err, billing.ErrTransitionConflict) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "order status changed concurrently, reload and retry"})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(order)
}
