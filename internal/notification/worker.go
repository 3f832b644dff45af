package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"parking-access-backend/internal/model"
)

// Event is one granted access to fan out to subscribers of the plate.
type Event struct {
	Plate string
	Type  model.AccessType
}

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool fans granted-access events out to push subscribers. Denied
// attempts are never dispatched.
type WorkerPool struct {
	size    int
	jobs    chan Event
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Event, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case ev := <-wp.jobs:
			wp.notifyWatchers(ctx, ev)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends an event to the worker pool.
func (wp *WorkerPool) Dispatch(ev Event) {
	wp.jobs <- ev
}

// notifyWatchers fetches the subscriptions watching the event's plate and
// pushes a notification to each.
func (wp *WorkerPool) notifyWatchers(ctx context.Context, ev Event) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_plates sp ON sp.subscription_endpoint = push_subscriptions.endpoint").
		Where("sp.plate = ?", ev.Plate).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("error fetching subscriptions for plate %s: %v", ev.Plate, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	verb := "entered"
	if ev.Type == model.AccessExit {
		verb = "left"
	}
	payload := []byte(fmt.Sprintf("Vehicle %s has %s the parking facility", ev.Plate, verb))

	log.Printf("sending %d notifications for plate %s", len(subscriptions), ev.Plate)
	for _, sub := range subscriptions {
		wp.push(ctx, sub, payload)
	}
}

// push sends a single web push notification.
func (wp *WorkerPool) push(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// 410 Gone means the subscription expired upstream.
	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription %s is expired, deleting", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
