package controllers

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/MarcoWillems/Galleria/app/models"
	"github.com/MarcoWillems/Galleria/app/repository"
	"github.com/MarcoWillems/Galleria/internal/pkg/env"
	"github.com/MarcoWillems/Galleria/internal/pkg/jobqueue"
	"github.com/MarcoWillems/Galleria/internal/pkg/payfast"
	"github.com/MarcoWillems/Galleria/internal/pkg/usercontext"
)

// CheckoutItemRequest is one line of a checkout request
type CheckoutItemRequest struct {
	ArtworkID uint `json:"artwork_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,min=1,max=10"`
}

// CheckoutRequest is the payload for creating an order
type CheckoutRequest struct {
	CustomerName    string                `json:"customer_name" validate:"required,min=2,max=150"`
	CustomerEmail   string                `json:"customer_email" validate:"required,email"`
	ShippingAddress string                `json:"shipping_address" validate:"required,min=10,max=1000"`
	Notes           string                `json:"notes" validate:"max=2000"`
	Items           []CheckoutItemRequest `json:"items" validate:"required,min=1,max=20,dive"`
}

var checkoutValidator = validator.New()

// HandleCheckout creates a pending order from the cart contents, reserves the
// artworks, and returns the signed PayFast payment fields the client posts to
// the processor. The order stays pending until the ITN webhook confirms
// payment.
func HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := checkoutValidator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	factory := repository.GetGlobalFactory()
	artworkRepo := factory.GetArtworkRepository()
	orderRepo := factory.GetOrderRepository()

	// Reserve each artwork with a conditional update so two checkouts racing
	// for the same piece cannot both win.
	reserved := make([]uint, 0, len(req.Items))
	release := func() {
		for _, id := range reserved {
			if _, err := artworkRepo.SetAvailability(id, models.ArtworkReserved, models.ArtworkAvailable); err != nil {
				log.Errorf("[Checkout] Failed to release artwork %d: %v", id, err)
			}
		}
	}

	var items []models.OrderItem
	var subtotal int64
	for _, line := range req.Items {
		artwork, err := artworkRepo.GetByID(line.ArtworkID)
		if err != nil {
			release()
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": fmt.Sprintf("artwork %d not found", line.ArtworkID)})
		}

		ok, err := artworkRepo.SetAvailability(artwork.ID, models.ArtworkAvailable, models.ArtworkReserved)
		if err != nil {
			release()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reservation failed"})
		}
		if !ok {
			release()
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": fmt.Sprintf("artwork %q is no longer available", artwork.Title)})
		}
		reserved = append(reserved, artwork.ID)

		lineTotal := artwork.PriceCents * int64(line.Quantity)
		subtotal += lineTotal
		items = append(items, models.OrderItem{
			ArtworkID:      artwork.ID,
			Quantity:       line.Quantity,
			UnitPriceCents: artwork.PriceCents,
			LineTotalCents: lineTotal,
		})
	}

	shipping := shippingCents()
	order := &models.Order{
		OrderNo:       generateOrderNo(),
		UserID:        currentUserID(c),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		ShippingAddr:  req.ShippingAddress,
		Notes:         req.Notes,
		Items:         items,
		SubtotalCents: subtotal,
		ShippingCents: shipping,
		TotalCents:    subtotal + shipping,
		Currency:      "ZAR",
		Status:        models.OrderStatusPending,
		PaymentMethod: "payfast",
	}

	if err := orderRepo.Create(order); err != nil {
		release()
		log.Errorf("[Checkout] Failed to create order: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create order"})
	}

	log.Infof("[Checkout] Created order %s (total %d cents, %d items)", order.OrderNo, order.TotalCents, len(items))

	dispatcher := jobqueue.NewQueueDispatcher(jobqueue.GetManager().GetQueue())
	if err := dispatcher.DispatchAnalyticsEvent("order_placed", map[string]string{"order_no": order.OrderNo}); err != nil {
		log.Errorf("[Checkout] Failed to enqueue analytics for order=%s: %v", order.OrderNo, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order_no":    order.OrderNo,
		"total_cents": order.TotalCents,
		"payment_url": payfastProcessURL(),
		"fields":      buildPaymentFields(order),
	})
}

// HandleGetOrder returns the order for a confirmation page lookup by order
// number. Requires the email used at checkout as a lightweight access check
// for guest orders.
func HandleGetOrder(c *fiber.Ctx) error {
	orderNo := c.Params("orderNo")
	email := strings.TrimSpace(c.Query("email"))

	order, err := repository.GetGlobalFactory().GetOrderRepository().GetByOrderNo(orderNo)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}

	userCtx := usercontext.GetUserContext(c)
	if !strings.EqualFold(order.CustomerEmail, email) && !(userCtx.IsLoggedIn && userCtx.IsAdmin) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}

	return c.JSON(order)
}

// buildPaymentFields assembles the signed redirect form for PayFast
func buildPaymentFields(order *models.Order) map[string]string {
	first, last := splitName(order.CustomerName)
	baseURL := env.GetEnv("APP_BASE_URL", "http://localhost:8080")

	fields := map[string]string{
		"merchant_id":   env.GetEnv("PAYFAST_MERCHANT_ID", ""),
		"merchant_key":  env.GetEnv("PAYFAST_MERCHANT_KEY", ""),
		"return_url":    baseURL + "/checkout/return",
		"cancel_url":    baseURL + "/checkout/cancel",
		"notify_url":    baseURL + "/api/v1/payfast/notify",
		"name_first":    first,
		"name_last":     last,
		"email_address": order.CustomerEmail,
		"m_payment_id":  order.OrderNo,
		"amount":        fmt.Sprintf("%.2f", float64(order.TotalCents)/100),
		"item_name":     fmt.Sprintf("Galleria order %s", order.OrderNo),
	}
	fields["signature"] = payfast.Sign(fields, env.GetEnv("PAYFAST_PASSPHRASE", ""))
	return fields
}

func payfastProcessURL() string {
	if env.GetEnv("PAYFAST_SANDBOX", "true") == "true" {
		return "https://sandbox.payfast.co.za/eng/process"
	}
	return "https://www.payfast.co.za/eng/process"
}

func shippingCents() int64 {
	// Flat national shipping rate
	if v := env.GetEnv("SHIPPING_FLAT_CENTS", ""); v != "" {
		var cents int64
		if _, err := fmt.Sscanf(v, "%d", &cents); err == nil && cents >= 0 {
			return cents
		}
	}
	return 15000
}

func generateOrderNo() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return fmt.Sprintf("GAL-%s-%s", time.Now().UTC().Format("20060102"), id[:10])
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func currentUserID(c *fiber.Ctx) uint {
	userCtx := usercontext.GetUserContext(c)
	if userCtx.IsLoggedIn {
		return userCtx.UserID
	}
	return 0
}
