package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"parking-access-backend/internal/access"
	"parking-access-backend/internal/notification"
	"parking-access-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	engine   *access.Engine
	webpush  *webpush.Options
	notifier *notification.WorkerPool
}

// NewHandler creates a new API handler. notifier may be nil when push
// notifications are not configured.
func NewHandler(s store.Store, engine *access.Engine, webpushOptions *webpush.Options, notifier *notification.WorkerPool) *Handler {
	return &Handler{
		store:    s,
		engine:   engine,
		webpush:  webpushOptions,
		notifier: notifier,
	}
}
