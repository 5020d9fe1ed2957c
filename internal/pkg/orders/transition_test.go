package orders_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MarcoWillems/Galleria/internal/pkg/orders"
)

func TestTransitionComplete(t *testing.T) {
	tests := []struct {
		name    string
		current orders.Status
		outcome orders.Outcome
		next    orders.Status
	}{
		{"pending becomes paid", orders.StatusPending, orders.OutcomeApply, orders.StatusPaid},
		{"processing becomes paid", orders.StatusProcessing, orders.OutcomeApply, orders.StatusPaid},
		{"paid is a duplicate", orders.StatusPaid, orders.OutcomeNoop, ""},
		{"shipped is a late delivery", orders.StatusShipped, orders.OutcomeNoop, ""},
		{"delivered is a late delivery", orders.StatusDelivered, orders.OutcomeNoop, ""},
		{"cancelled is a late delivery", orders.StatusCancelled, orders.OutcomeNoop, ""},
		{"refunded is a late delivery", orders.StatusRefunded, orders.OutcomeNoop, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := orders.Transition(tt.current, orders.PaymentComplete)
			assert.Equal(t, tt.outcome, d.Outcome)
			if tt.outcome == orders.OutcomeApply {
				assert.Equal(t, tt.next, d.Next)
				assert.Equal(t, "payment_completed", d.Event)
			} else {
				assert.Equal(t, "payment_duplicate", d.Event)
			}
		})
	}
}

func TestTransitionFailedLeavesOrderOpen(t *testing.T) {
	for _, current := range []orders.Status{orders.StatusPending, orders.StatusProcessing} {
		for _, payment := range []orders.PaymentStatus{orders.PaymentFailed, orders.PaymentCancelled} {
			d := orders.Transition(current, payment)
			assert.Equal(t, orders.OutcomeNoop, d.Outcome, "%s + %s", current, payment)
			assert.Equal(t, "payment_failed", d.Event)
		}
	}
}

func TestTransitionFailedAfterPaidIsRejected(t *testing.T) {
	for _, current := range []orders.Status{orders.StatusPaid, orders.StatusShipped, orders.StatusDelivered} {
		d := orders.Transition(current, orders.PaymentFailed)
		assert.Equal(t, orders.OutcomeReject, d.Outcome, "status %s", current)
		assert.Equal(t, "payment_rejected", d.Event)
		assert.NotEmpty(t, d.Reason)
	}
}

func TestTransitionPendingPaymentIsNoop(t *testing.T) {
	d := orders.Transition(orders.StatusPending, orders.PaymentPending)
	assert.Equal(t, orders.OutcomeNoop, d.Outcome)

	d = orders.Transition(orders.StatusPaid, orders.PaymentPending)
	assert.Equal(t, orders.OutcomeNoop, d.Outcome)
}

func TestTransitionUnknownPaymentStatus(t *testing.T) {
	d := orders.Transition(orders.StatusPending, orders.PaymentStatus("AUTHORISED"))
	assert.Equal(t, orders.OutcomeReject, d.Outcome)
}

func TestTransitionUnknownOrderStatus(t *testing.T) {
	d := orders.Transition(orders.Status("archived"), orders.PaymentComplete)
	assert.Equal(t, orders.OutcomeReject, d.Outcome)
}

func TestTransitionIsPureAndOrderIndependent(t *testing.T) {
	// Out-of-order and duplicate deliveries must not change the decision for
	// a given (status, payment) pair.
	first := orders.Transition(orders.StatusPending, orders.PaymentComplete)
	for i := 0; i < 10; i++ {
		again := orders.Transition(orders.StatusPending, orders.PaymentComplete)
		assert.Equal(t, first, again)
	}
}

func TestAdminTransition(t *testing.T) {
	tests := []struct {
		name    string
		current orders.Status
		target  orders.Status
		outcome orders.Outcome
	}{
		{"pending to processing", orders.StatusPending, orders.StatusProcessing, orders.OutcomeApply},
		{"pending to cancelled", orders.StatusPending, orders.StatusCancelled, orders.OutcomeApply},
		{"processing to cancelled", orders.StatusProcessing, orders.StatusCancelled, orders.OutcomeApply},
		{"paid to shipped", orders.StatusPaid, orders.StatusShipped, orders.OutcomeApply},
		{"paid to refunded", orders.StatusPaid, orders.StatusRefunded, orders.OutcomeApply},
		{"shipped to delivered", orders.StatusShipped, orders.StatusDelivered, orders.OutcomeApply},
		{"shipped to refunded", orders.StatusShipped, orders.StatusRefunded, orders.OutcomeApply},
		{"pending to paid is payment's job", orders.StatusPending, orders.StatusPaid, orders.OutcomeReject},
		{"pending to shipped skips payment", orders.StatusPending, orders.StatusShipped, orders.OutcomeReject},
		{"paid to delivered skips shipping", orders.StatusPaid, orders.StatusDelivered, orders.OutcomeReject},
		{"delivered is terminal", orders.StatusDelivered, orders.StatusRefunded, orders.OutcomeReject},
		{"cancelled is terminal", orders.StatusCancelled, orders.StatusProcessing, orders.OutcomeReject},
		{"refunded is terminal", orders.StatusRefunded, orders.StatusShipped, orders.OutcomeReject},
		{"same status is a noop", orders.StatusPaid, orders.StatusPaid, orders.OutcomeNoop},
		{"unknown target", orders.StatusPaid, orders.Status("archived"), orders.OutcomeReject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := orders.AdminTransition(tt.current, tt.target)
			assert.Equal(t, tt.outcome, d.Outcome)
			if tt.outcome == orders.OutcomeApply {
				assert.Equal(t, tt.target, d.Next)
			}
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, orders.StatusDelivered.IsTerminal())
	assert.True(t, orders.StatusCancelled.IsTerminal())
	assert.True(t, orders.StatusRefunded.IsTerminal())
	assert.False(t, orders.StatusPending.IsTerminal())
	assert.False(t, orders.StatusPaid.IsTerminal())

	assert.True(t, orders.StatusPending.IsValid())
	assert.False(t, orders.Status("archived").IsValid())
	assert.False(t, orders.Status("").IsValid())
}
