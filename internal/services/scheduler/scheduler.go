// Package scheduler периодически пересчитывает статус подписки, пока процесс
// работает без перезапуска и без обновлений из очереди.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/subscription"
)

// Refresher описывает контракт пересчёта статуса.
type Refresher interface {
	Refresh(ctx context.Context, trigger subscription.Trigger) (models.UserProfile, error)
}

// Scheduler вызывает Refresh с интервалом interval.
type Scheduler struct {
	refresher Refresher
	interval  time.Duration
	log       *slog.Logger
}

// New создает новый экземпляр Scheduler.
func New(refresher Refresher, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		interval:  interval,
		log:       log,
	}
}

// Run блокируется до отмены ctx. Неположительный интервал отключает планировщик.
func (s *Scheduler) Run(ctx context.Context) {
	const op = "scheduler.Run"
	log := s.log.With(slog.String("op", op))
	if s.interval <= 0 {
		log.Info("periodic refresh disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info("periodic refresh started", slog.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, log)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, log *slog.Logger) {
	p, err := s.refresher.Refresh(ctx, subscription.TriggerForeground)
	if err != nil {
		log.Warn("periodic refresh failed", sl.Err(err))
		return
	}
	log.Debug("periodic refresh done", slog.String("status", string(p.SubscriptionStatus)))
}
