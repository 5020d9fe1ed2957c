package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/MarcoWillems/Galleria/app/models"
	"github.com/MarcoWillems/Galleria/app/repository"
	"github.com/MarcoWillems/Galleria/internal/pkg/env"
	"github.com/MarcoWillems/Galleria/internal/pkg/orders"
	"github.com/MarcoWillems/Galleria/internal/pkg/payfast"
)

// ErrTransitionConflict is returned when an admin status change loses its
// compare-and-swap because the order moved concurrently.
var ErrTransitionConflict = errors.New("order status changed concurrently")

// Dispatcher hands side effects (confirmation email, analytics) to the
// background queue. Implementations must be quick and non-blocking; the
// webhook path never waits on delivery.
type Dispatcher interface {
	DispatchOrderConfirmation(orderID uint) error
	DispatchAnalyticsEvent(eventType string, metadata map[string]string) error
}

// Service is the webhook orchestrator: it composes signature verification,
// payload normalization, the order state machine, and the order repository
// into one end-to-end ITN handler.
type Service struct {
	repo       repository.OrderRepository
	dispatcher Dispatcher
	passphrase string
}

// NewService creates a billing service from an injected repository and dispatcher.
func NewService(repo repository.OrderRepository, dispatcher Dispatcher, passphrase string) *Service {
	return &Service{repo: repo, dispatcher: dispatcher, passphrase: passphrase}
}

// NewServiceFromDB creates a billing service from a GORM DB handle, reading
// the PayFast passphrase from the environment.
func NewServiceFromDB(db *gorm.DB, dispatcher Dispatcher) *Service {
	return NewService(
		repository.NewOrderRepository(db),
		dispatcher,
		env.GetEnv("PAYFAST_PASSPHRASE", ""),
	)
}

// ProcessWebhook handles one ITN delivery end to end.
//
//	(true, nil)  - fully handled, including idempotent no-ops: respond 200
//	(false, nil) - business rejection (bad signature, unknown order,
//	               illegal transition): respond 400
//	(_, err)     - malformed payload or repository failure: respond 500
//
// PayFast delivers at least once and retries on non-2xx, so every duplicate
// must resolve to (true, nil) without re-firing side effects.
func (s *Service) ProcessWebhook(ctx context.Context, fields map[string]string) (bool, error) {
	if !payfast.VerifySignature(fields, s.passphrase) {
		// Log the order reference but never the signing material.
		log.Warnf("[Billing] ITN signature verification failed order=%q pf_payment=%q",
			fields["m_payment_id"], fields["pf_payment_id"])
		return false, nil
	}

	n, err := payfast.ParseNotification(fields)
	if err != nil {
		return false, err
	}

	order, err := s.repo.GetByOrderNo(n.MerchantOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Retries will never resolve an unknown order, so report failure
			// and let the provider give up.
			log.Warnf("[Billing] ITN for unknown order=%q pf_payment=%q", n.MerchantOrderID, n.PaymentID)
			return false, nil
		}
		return false, err
	}

	digest := payfast.PayloadDigest(fields)
	decision := orders.Transition(orders.Status(order.Status), n.PaymentStatus)

	switch decision.Outcome {
	case orders.OutcomeApply:
		return s.applyTransition(order, n, decision, digest)

	case orders.OutcomeNoop:
		s.appendAudit(order, decision, digest)
		log.Infof("[Billing] ITN no-op order=%s status=%s payment_status=%s reason=%q",
			order.OrderNo, order.Status, n.PaymentStatus, decision.Reason)
		return true, nil

	default: // orders.OutcomeReject
		s.appendAudit(order, decision, digest)
		log.Warnf("[Billing] ITN rejected order=%s status=%s payment_status=%s reason=%q",
			order.OrderNo, order.Status, n.PaymentStatus, decision.Reason)
		return false, nil
	}
}

// applyTransition persists an accepted transition via the repository's
// compare-and-swap. Losing the swap means a concurrent delivery won the
// race; the loser re-reads and resolves to the duplicate path.
func (s *Service) applyTransition(order *models.Order, n *payfast.Notification, decision orders.Decision, digest string) (bool, error) {
	event := &models.OrderEvent{
		OrderID:       order.ID,
		EventType:     decision.Event,
		FromStatus:    order.Status,
		ToStatus:      string(decision.Next),
		PayloadDigest: digest,
	}

	applied, err := s.repo.ApplyTransition(order.ID, order.Status, string(decision.Next), n.PaymentID, event)
	if err != nil {
		return false, err
	}

	if !applied {
		fresh, err := s.repo.GetByOrderNo(order.OrderNo)
		if err != nil {
			return false, err
		}
		retry := orders.Transition(orders.Status(fresh.Status), n.PaymentStatus)
		if retry.Outcome == orders.OutcomeApply {
			// The concurrent change moved the order to another state this
			// notification still applies from (e.g. pending -> processing).
			// One more attempt; a second loss resolves as duplicate.
			event.FromStatus = fresh.Status
			applied, err = s.repo.ApplyTransition(fresh.ID, fresh.Status, string(retry.Next), n.PaymentID, event)
			if err != nil {
				return false, err
			}
		}
		if !applied {
			dup := orders.Decision{
				Outcome: orders.OutcomeNoop,
				Event:   models.OrderEventPaymentDuplicate,
				Reason:  "lost transition race to concurrent delivery",
			}
			s.appendAudit(fresh, dup, digest)
			log.Infof("[Billing] ITN duplicate after race order=%s status=%s", fresh.OrderNo, fresh.Status)
			return true, nil
		}
	}

	log.Infof("[Billing] ITN applied order=%s from=%s to=%s pf_payment=%s",
		order.OrderNo, order.Status, decision.Next, n.PaymentID)

	// Side effects are best effort: the transition is already durable and a
	// failed enqueue must not turn a processed payment into a 400.
	if err := s.dispatcher.DispatchOrderConfirmation(order.ID); err != nil {
		log.Errorf("[Billing] Failed to enqueue confirmation for order=%s: %v", order.OrderNo, err)
	}
	if err := s.dispatcher.DispatchAnalyticsEvent(models.OrderEventPaymentCompleted, map[string]string{
		"order_no":     order.OrderNo,
		"pf_payment":   n.PaymentID,
		"amount_gross": n.AmountGross,
	}); err != nil {
		log.Errorf("[Billing] Failed to enqueue analytics for order=%s: %v", order.OrderNo, err)
	}

	return true, nil
}

// appendAudit writes the audit event for a no-op or rejected notification.
// Audit failures are logged, not surfaced: the decision already stands.
func (s *Service) appendAudit(order *models.Order, decision orders.Decision, digest string) {
	event := &models.OrderEvent{
		OrderID:       order.ID,
		EventType:     decision.Event,
		FromStatus:    order.Status,
		ToStatus:      order.Status,
		Detail:        decision.Reason,
		PayloadDigest: digest,
	}
	if err := s.repo.AppendEvent(event); err != nil {
		log.Errorf("[Billing] Failed to append %s event for order=%s: %v", decision.Event, order.OrderNo, err)
	}
}

// ChangeOrderStatus applies an explicit admin transition (ship, deliver,
// cancel, refund) through the same state machine and compare-and-swap path
// the webhook uses.
func (s *Service) ChangeOrderStatus(ctx context.Context, orderID uint, target orders.Status, actor string) (*models.Order, error) {
	order, err := s.repo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	decision := orders.AdminTransition(orders.Status(order.Status), target)
	switch decision.Outcome {
	case orders.OutcomeNoop:
		return order, nil
	case orders.OutcomeReject:
		return nil, errors.New(decision.Reason)
	}

	event := &models.OrderEvent{
		OrderID:    order.ID,
		EventType:  models.OrderEventStatusChanged,
		FromStatus: order.Status,
		ToStatus:   string(target),
		Detail:     "changed by " + strings.TrimSpace(actor),
	}
	applied, err := s.repo.ApplyTransition(order.ID, order.Status, string(target), "", event)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrTransitionConflict
	}

	log.Infof("[Billing] Admin transition order=%s from=%s to=%s actor=%s",
		order.OrderNo, order.Status, target, actor)
	return s.repo.GetByID(orderID)
}
