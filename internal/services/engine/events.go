package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

const eventBuffer = 64

// Типы событий профиля.
const (
	EventStatusChanged     = "status_changed"
	EventDeletionsRecorded = "deletions_recorded"
	EventTrialStarted      = "trial_started"
)

// Event: событие изменения профиля для внешних подписчиков.
type Event struct {
	Type    string             `json:"type"`
	At      time.Time          `json:"at"`
	Profile models.UserProfile `json:"profile"`
	From    string             `json:"from,omitempty"`
	Count   int                `json:"count,omitempty"`
}

// Notifier описывает контракт публикации событий профиля.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) error { return nil }

// emit ставит событие в очередь публикации. При переполнении событие отбрасывается.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.log.Warn("event buffer full, dropping event", slog.String("type", ev.Type))
	}
}

func (e *Engine) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-e.events:
			if err := e.deps.Notifier.Notify(ctx, ev); err != nil {
				e.log.Warn("failed to publish profile event",
					slog.String("op", "engine.dispatch"),
					slog.String("type", ev.Type),
					sl.Err(err))
			}
		}
	}
}
