package jobqueue

// QueueDispatcher hands order side effects to the background queue. It
// satisfies the billing service's Dispatcher interface so the webhook path
// returns as soon as the jobs are enqueued.
type QueueDispatcher struct {
	queue *Queue
}

// NewQueueDispatcher wraps the given queue as a side-effect dispatcher.
func NewQueueDispatcher(queue *Queue) *QueueDispatcher {
	return &QueueDispatcher{queue: queue}
}

// DispatchOrderConfirmation enqueues the confirmation email job for the order.
func (d *QueueDispatcher) DispatchOrderConfirmation(orderID uint) error {
	payload := OrderConfirmationJobPayload{OrderID: orderID}
	_, err := d.queue.EnqueueJob(JobTypeOrderConfirmation, payload.ToMap())
	return err
}

// DispatchAnalyticsEvent enqueues an analytics counter job.
func (d *QueueDispatcher) DispatchAnalyticsEvent(eventType string, metadata map[string]string) error {
	payload := AnalyticsEventJobPayload{EventType: eventType, Metadata: metadata}
	_, err := d.queue.EnqueueJob(JobTypeAnalyticsEvent, payload.ToMap())
	return err
}
