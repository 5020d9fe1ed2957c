package billing_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MarcoWillems/Galleria/app/models"
	"github.com/MarcoWillems/Galleria/internal/pkg/billing"
	"github.com/MarcoWillems/Galleria/internal/pkg/orders"
	"github.com/MarcoWillems/Galleria/internal/pkg/payfast"
)

const servicePassphrase = "test-passphrase"

// fakeOrderRepo is an in-memory OrderRepository with the same conditional
// update semantics as the GORM implementation.
type fakeOrderRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.Order
	events []models.OrderEvent

	// beforeApply runs before each ApplyTransition attempt, letting tests
	// interleave a concurrent status change.
	beforeApply func(r *fakeOrderRepo)
	applyErr    error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{nextID: 1, byID: make(map[uint]*models.Order)}
}

func (r *fakeOrderRepo) add(orderNo, status string) *models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := &models.Order{
		ID:            r.nextID,
		OrderNo:       orderNo,
		CustomerName:  "Thandi Nkosi",
		CustomerEmail: "thandi@example.com",
		TotalCents:    250000,
		Currency:      "ZAR",
		Status:        status,
	}
	r.byID[o.ID] = o
	r.nextID++
	return cloneOrder(o)
}

func (r *fakeOrderRepo) setStatus(orderNo, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.byID {
		if o.OrderNo == orderNo {
			o.Status = status
		}
	}
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	return &c
}

func (r *fakeOrderRepo) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.ID = r.nextID
	r.nextID++
	r.byID[order.ID] = cloneOrder(order)
	return nil
}

func (r *fakeOrderRepo) GetByID(id uint) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneOrder(o), nil
}

func (r *fakeOrderRepo) GetByOrderNo(orderNo string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.byID {
		if o.OrderNo == orderNo {
			return cloneOrder(o), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) List(offset, limit int) ([]models.Order, error) { return nil, nil }
func (r *fakeOrderRepo) ListByStatus(status string, offset, limit int) ([]models.Order, error) {
	return nil, nil
}
func (r *fakeOrderRepo) Count() (int64, error) { return int64(len(r.byID)), nil }

func (r *fakeOrderRepo) ApplyTransition(orderID uint, expectedStatus, nextStatus, paymentID string, event *models.OrderEvent) (bool, error) {
	if r.beforeApply != nil {
		r.beforeApply(r)
	}
	if r.applyErr != nil {
		return false, r.applyErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[orderID]
	if !ok || o.Status != expectedStatus {
		return false, nil
	}
	o.Status = nextStatus
	if paymentID != "" && o.PaymentID == "" {
		o.PaymentID = paymentID
	}
	if event != nil {
		r.events = append(r.events, *event)
	}
	return true, nil
}

func (r *fakeOrderRepo) AppendEvent(event *models.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeOrderRepo) GetEvents(orderID uint) ([]models.OrderEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.OrderEvent
	for _, e := range r.events {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.EventType)
	}
	return types
}

// fakeDispatcher records dispatched side effects.
type fakeDispatcher struct {
	mu            sync.Mutex
	confirmations []uint
	analytics     []string
	err           error
}

func (d *fakeDispatcher) DispatchOrderConfirmation(orderID uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.confirmations = append(d.confirmations, orderID)
	return nil
}

func (d *fakeDispatcher) DispatchAnalyticsEvent(eventType string, metadata map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.analytics = append(d.analytics, eventType)
	return nil
}

func (d *fakeDispatcher) confirmationCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.confirmations)
}

func signedITN(orderNo, paymentStatus string) map[string]string {
	fields := map[string]string{
		"m_payment_id":   orderNo,
		"pf_payment_id":  "payment-123",
		"payment_status": paymentStatus,
		"amount_gross":   "2500.00",
		"email_address":  "thandi@example.com",
		"merchant_id":    "10000100",
	}
	fields["signature"] = payfast.Sign(fields, servicePassphrase)
	return fields
}

func newTestService(repo *fakeOrderRepo, dispatcher *fakeDispatcher) *billing.Service {
	return billing.NewService(repo, dispatcher, servicePassphrase)
}

func TestProcessWebhookCompletesPendingOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add("order-456", models.OrderStatusPending)
	dispatcher := &fakeDispatcher{}
	svc := newTestService(repo, dispatcher)

	handled, err := svc.ProcessWebhook(context.Background(), signedITN("order-456", "COMPLETE"))
	require.NoError(t, err)
	assert.True(t, handled)

	order, err := repo.GetByOrderNo("order-456")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, "payment-123", order.PaymentID)

	assert.Equal(t, 1, dispatcher.confirmationCount())
	assert.Equal(t, []string{models.OrderEventPaymentCompleted}, repo.eventTypes())
}

func TestProcessWebhookDuplicateIsIdempotent(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add("order-456", models.OrderStatusPending)
	dispatcher := &fakeDispatcher{}
	svc := newTestService(repo, dispatcher)

	itn := signedITN("order-456", "COMPLETE")

	handled, err := svc.ProcessWebhook(context.Background(), itn)
	require.NoError(t, err)
	assert.True(t, handled)

	// The provider redelivers the identical notification.
	handled, err = svc.ProcessWebhook(context.Background(), itn)
	require.NoError(t, err)
	assert.True(t, handled, "duplicate must succeed so the provider stops retrying")

	order, _ := repo.GetByOrderNo("order-456")
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, 1, dispatcher.confirmationCount(), "no second confirmation email")
	assert.Equal(t, []string{models.OrderEventPaymentCompleted, models.OrderEventPaymentDuplicate}, repo.eventTypes())
}

func TestProcessWebhookInvalidSignature(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add("order-456", models.OrderStatusPending)
	dispatcher := &fakeDispatcher{}
	svc := newTestService(repo, dispatcher)

	itn := signedITN("order-456", "COMPLETE")
	itn["signature"] = "00000000000000000000000000000000"

	handled, err := svc.ProcessWebhook(context.Background(), itn)
	require.NoError(t, err)
	assert.False(t, handled)

	order, _ := repo.GetByOrderNo("order-456")
	assert.Equal(t, models.OrderStatusPending, order.Status, "order must be untouched")
	assert.Equal(t, 0, dispatcher.confirmationCount())
	assert.Empty(t, repo.eventTypes())
}

func TestProcessWebhookTamperedAmount(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add("order-456", models.OrderStatusPending)
	dispatcher := &fakeDispatcher{}
	svc := newTestService(repo, dispatcher)

	itn := signedITN("order-456", "COMPLETE")
	itn["amount_gross"] = "1.00"

	handled, err := svc.ProcessWebhook(context.Background(), itn)
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestProcessWebhookUnknownOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	dispatcher := &fakeDispatcher{}
	svc := newTestService(repo, dispatcher)

	handled, err := svc.ProcessWebhook(context.Background(), signedITN("no-such-order", "COMPLETE"))
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestProcessWebhookMalformedPayload(t *testing.T) {
	repo := newFakeOrderRepo()
	dispatcher := &fakeDispatcher{}
	svc := newTestService(repo, dispatcher)

	// Signed but missing the merchant order id entirely.
	fields := map[string]string{
		"pf_payment_id":  "payment-123",
		"payment_status": "COMPLETE",
	}
	fields["signature"] = payfast.Sign(fields, servicePassphrase)

	handled, err := svc.ProcessWebhook(context.Background(), fields)
	require.Error(t, err)
	assert.ErrorIs(t, err, payfast.ErrMalformedPayload)
	assert.False(t, handled)
}

func TestProcessWebhookFailedPaymentLeavesOrderOpen(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add("order-456", models.OrderStatusPending)
	dispatcher := &fakeDispatcher{}
	svc := newTestService(repo, dispatcher)

	handled, err := svc.ProcessWebhook(context.Background(), signedITN("order-456", "FAILED"))
	require.NoError(t, err)
	assert.True(t, handled, "failed payment is acknowledged, not rejected")

	order, _ := repo.GetByOrderNo("order-456")
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, 0, dispatcher.confirmationCount())
	assert.Equal(t, []string{models.OrderEventPaymentFailed}, repo.eventTypes())
}

func TestProcessWebhookStaleFailureAfterPaid(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add("order-456", models.OrderStatusPaid)
	dispatcher := &fakeDispatcher{}
	svc := newTestService(repo, dispatcher)

	handled, err := svc.ProcessWebhook(context.Background(), signedITN("order-456", "FAILED"))
	require.NoError(t, err)
	assert.False(t, handled)

	order, _ := repo.GetByOrderNo("order-456")
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, []string{models.OrderEventPaymentRejected}, repo.eventTypes())
}

func TestProcessWebhookLostRaceResolvesAsDuplicate(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add("order-456", models.OrderStatusPending)
	dispatcher := &fakeDispatcher{}
	svc := newTestService(repo, dispatcher)

	// A concurrent delivery pays the order between our read and our
	// conditional update.
	repo.beforeApply = func(r *fakeOrderRepo) {
		r.beforeApply = nil
		r.setStatus("order-456", models.OrderStatusPaid)
	}

	handled, err := svc.ProcessWebhook(context.Background(), signedITN("order-456", "COMPLETE"))
	require.NoError(t, err)
	assert.True(t, handled, "the losing delivery still acknowledges")

	order, _ := repo.GetByOrderNo("order-456")
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, 0, dispatcher.confirmationCount(), "only the winning delivery fires side effects")
	assert.Equal(t, []string{models.OrderEventPaymentDuplicate}, repo.eventTypes())
}

func TestProcessWebhookRetriesWhenOrderMovedButStillApplies(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add("order-456", models.OrderStatusPending)
	dispatcher := &fakeDispatcher{}
	svc := newTestService(repo, dispatcher)

	// An admin moves the order to processing mid-flight; COMPLETE still
	// applies from processing, so the second attempt wins.
	repo.beforeApply = func(r *fakeOrderRepo) {
		r.beforeApply = nil
		r.setStatus("order-456", models.OrderStatusProcessing)
	}

	handled, err := svc.ProcessWebhook(context.Background(), signedITN("order-456", "COMPLETE"))
	require.NoError(t, err)
	assert.True(t, handled)

	order, _ := repo.GetByOrderNo("order-456")
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, 1, dispatcher.confirmationCount())
}

func TestProcessWebhookRepositoryFailure(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add("order-456", models.OrderStatusPending)
	repo.applyErr = errors.New("connection reset")
	dispatcher := &fakeDispatcher{}
	svc := newTestService(repo, dispatcher)

	_, err := svc.ProcessWebhook(context.Background(), signedITN("order-456", "COMPLETE"))
	require.Error(t, err)
	assert.Equal(t, 0, dispatcher.confirmationCount())
}

func TestProcessWebhookDispatcherFailureDoesNotFailRequest(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add("order-456", models.OrderStatusPending)
	dispatcher := &fakeDispatcher{err: errors.New("queue down")}
	svc := newTestService(repo, dispatcher)

	handled, err := svc.ProcessWebhook(context.Background(), signedITN("order-456", "COMPLETE"))
	require.NoError(t, err)
	assert.True(t, handled, "the payment is processed even if side effects cannot be enqueued")

	order, _ := repo.GetByOrderNo("order-456")
	assert.Equal(t, models.OrderStatusPaid, order.Status)
}

func TestProcessWebhookConcurrentDeliveries(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add("order-456", models.OrderStatusPending)
	dispatcher := &fakeDispatcher{}
	svc := newTestService(repo, dispatcher)

	itn := signedITN("order-456", "COMPLETE")

	const deliveries = 8
	var wg sync.WaitGroup
	results := make([]bool, deliveries)
	errs := make([]error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.ProcessWebhook(context.Background(), itn)
		}(i)
	}
	wg.Wait()

	for i := 0; i < deliveries; i++ {
		require.NoError(t, errs[i])
		assert.True(t, results[i], "delivery %d must be acknowledged", i)
	}

	order, _ := repo.GetByOrderNo("order-456")
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, 1, dispatcher.confirmationCount(), "exactly one confirmation across all deliveries")
}

func TestChangeOrderStatus(t *testing.T) {
	repo := newFakeOrderRepo()
	created := repo.add("order-456", models.OrderStatusPaid)
	dispatcher := &fakeDispatcher{}
	svc := newTestService(repo, dispatcher)

	order, err := svc.ChangeOrderStatus(context.Background(), created.ID, orders.StatusShipped, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, order.Status)

	// Illegal move is rejected without touching the order.
	_, err = svc.ChangeOrderStatus(context.Background(), created.ID, orders.StatusPending, "admin")
	require.Error(t, err)

	fresh, _ := repo.GetByID(created.ID)
	assert.Equal(t, models.OrderStatusShipped, fresh.Status)
}

func TestChangeOrderStatusConflict(t *testing.T) {
	repo := newFakeOrderRepo()
	created := repo.add("order-456", models.OrderStatusPaid)
	dispatcher := &fakeDispatcher{}
	svc := newTestService(repo, dispatcher)

	repo.beforeApply = func(r *fakeOrderRepo) {
		r.beforeApply = nil
		r.setStatus("order-456", models.OrderStatusRefunded)
	}

	_, err := svc.ChangeOrderStatus(context.Background(), created.ID, orders.StatusShipped, "admin")
	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrTransitionConflict)
}
