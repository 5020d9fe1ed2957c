package orders

import "fmt"

// PaymentStatus is the payment outcome reported by a PayFast ITN.
type PaymentStatus string

const (
	PaymentComplete  PaymentStatus = "COMPLETE"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentCancelled PaymentStatus = "CANCELLED"
	PaymentPending   PaymentStatus = "PENDING"
)

// Outcome classifies what a notification means for an order.
type Outcome int

const (
	// OutcomeApply advances the order to Decision.Next.
	OutcomeApply Outcome = iota
	// OutcomeNoop acknowledges the notification without changing status.
	// Duplicate and late deliveries land here so the provider stops
	// retrying, as does a failed payment that leaves the order open.
	OutcomeNoop
	// OutcomeReject refuses the notification as a business error.
	OutcomeReject
)

// Decision is the result of evaluating a notification against the current
// persisted status. Event names the order event to append for audit; Reason
// is human-readable context for logs and rejection events.
type Decision struct {
	Outcome Outcome
	Next    Status
	Event   string
	Reason  string
}

// Transition decides what a payment notification does to an order in the
// given status. It is a pure function: persistence and side effects are the
// caller's job. Notifications can arrive out of order and more than once, so
// decisions depend only on (current, payment), never on arrival sequence.
func Transition(current Status, payment PaymentStatus) Decision {
	if !current.IsValid() {
		return Decision{
			Outcome: OutcomeReject,
			Event:   "payment_rejected",
			Reason:  fmt.Sprintf("order has unknown status %q", current),
		}
	}

	switch payment {
	case PaymentComplete:
		if current == StatusPending || current == StatusProcessing {
			return Decision{
				Outcome: OutcomeApply,
				Next:    StatusPaid,
				Event:   "payment_completed",
			}
		}
		// Already paid or further advanced: this is a provider retry or a
		// late delivery. Acknowledge it so PayFast stops retrying, but do
		// not re-fire side effects.
		return Decision{
			Outcome: OutcomeNoop,
			Event:   "payment_duplicate",
			Reason:  "duplicate or late notification",
		}

	case PaymentFailed, PaymentCancelled:
		if current == StatusPending || current == StatusProcessing {
			// Policy: the order stays pending so the customer can retry
			// checkout; cancelling is an explicit admin or customer action.
			return Decision{
				Outcome: OutcomeNoop,
				Event:   "payment_failed",
				Reason:  "payment failed, order left open for retry",
			}
		}
		return Decision{
			Outcome: OutcomeReject,
			Event:   "payment_rejected",
			Reason:  fmt.Sprintf("stale %s notification for %s order", payment, current),
		}

	case PaymentPending:
		// PayFast sends PENDING for e.g. EFT awaiting clearance. Nothing to
		// do until the final outcome arrives.
		return Decision{
			Outcome: OutcomeNoop,
			Event:   "payment_pending",
			Reason:  "payment still pending at provider",
		}

	default:
		return Decision{
			Outcome: OutcomeReject,
			Event:   "payment_rejected",
			Reason:  fmt.Sprintf("unsupported payment status %q", payment),
		}
	}
}

// AdminTransition decides whether an explicit admin action may move an order
// from current to target. Legal moves: paid -> shipped -> delivered,
// pending/processing -> processing/cancelled, and paid/shipped -> refunded.
func AdminTransition(current, target Status) Decision {
	if !target.IsValid() {
		return Decision{
			Outcome: OutcomeReject,
			Event:   "payment_rejected",
			Reason:  fmt.Sprintf("unknown target status %q", target),
		}
	}
	if current.IsTerminal() {
		return Decision{
			Outcome: OutcomeReject,
			Event:   "payment_rejected",
			Reason:  fmt.Sprintf("order is %s and cannot change", current),
		}
	}
	if current == target {
		return Decision{
			Outcome: OutcomeNoop,
			Event:   "status_changed",
			Reason:  "order already in target status",
		}
	}

	allowed := map[Status][]Status{
		StatusPending:    {StatusProcessing, StatusCancelled},
		StatusProcessing: {StatusCancelled},
		StatusPaid:       {StatusShipped, StatusRefunded},
		StatusShipped:    {StatusDelivered, StatusRefunded},
	}
	for _, next := range allowed[current] {
		if next == target {
			return Decision{
				Outcome: OutcomeApply,
				Next:    target,
				Event:   "status_changed",
			}
		}
	}
	return Decision{
		Outcome: OutcomeReject,
		Event:   "payment_rejected",
		Reason:  fmt.Sprintf("illegal transition %s -> %s", current, target),
	}
}
