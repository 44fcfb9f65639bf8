package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/subscription"
)

// Snapshot возвращает копию текущего профиля после проверки смены дня.
func (e *Engine) Snapshot(ctx context.Context) (models.UserProfile, error) {
	const op = "engine.Snapshot"
	var (
		p       models.UserProfile
		saveErr error
	)
	if err := e.do(ctx, func(runCtx context.Context) {
		saveErr = e.touch(runCtx)
		p = e.profile.Clone()
	}); err != nil {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	if saveErr != nil {
		return p, fmt.Errorf("%s: %w", op, saveErr)
	}
	return p, nil
}

// Authorize решает, сколько из n файлов можно удалить сейчас.
// Файлы в незавершённых пакетах удаления считаются уже израсходованными.
func (e *Engine) Authorize(ctx context.Context, n int) (models.Decision, error) {
	const op = "engine.Authorize"
	if n < 0 {
		return models.Decision{}, fmt.Errorf("%s: %w", op, models.ErrNegativeCount)
	}
	var (
		d       models.Decision
		saveErr error
	)
	if err := e.do(ctx, func(runCtx context.Context) {
		saveErr = e.touch(runCtx)
		d = e.authorize(n)
	}); err != nil {
		return models.Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	if saveErr != nil {
		return d, fmt.Errorf("%s: %w", op, saveErr)
	}
	return d, nil
}

// authorize выполняется в горутине владельца после touch.
func (e *Engine) authorize(n int) models.Decision {
	e.pruneReservations()
	p, d := e.deps.Authorizer.AuthorizeReserved(e.profile, n, e.reserved())
	e.profile = p
	e.deps.Metrics.Authorization(d, n)
	e.log.Debug("deletion authorized",
		slog.String("op", "engine.authorize"),
		slog.Int("requested", n),
		slog.Bool("allowed", d.Allowed),
		slog.Int("count", d.Count))
	return d
}

// RecordDeletions учитывает n фактически удалённых файлов и сразу сохраняет профиль.
func (e *Engine) RecordDeletions(ctx context.Context, n int) (models.UserProfile, error) {
	const op = "engine.RecordDeletions"
	var (
		p      models.UserProfile
		runErr error
	)
	if err := e.do(ctx, func(runCtx context.Context) {
		runErr = e.record(runCtx, n)
		p = e.profile.Clone()
	}); err != nil {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	if runErr != nil {
		return p, fmt.Errorf("%s: %w", op, runErr)
	}
	return p, nil
}

func (e *Engine) record(ctx context.Context, n int) error {
	p, err := e.deps.Tracker.RecordDeletions(e.profile, n)
	if err != nil {
		return err
	}
	e.profile = p
	e.deps.Metrics.Deleted(n)
	e.emit(Event{Type: EventDeletionsRecorded, At: e.deps.Tracker.Now(), Profile: p.Clone(), Count: n})
	return e.persist(ctx)
}

// ApplyEntitlements пересчитывает статус подписки по набору прав.
func (e *Engine) ApplyEntitlements(ctx context.Context, ents []models.Entitlement, trigger subscription.Trigger) (models.UserProfile, error) {
	const op = "engine.ApplyEntitlements"
	var (
		p       models.UserProfile
		saveErr error
	)
	if err := e.do(ctx, func(runCtx context.Context) {
		saveErr = e.apply(runCtx, ents, trigger)
		p = e.profile.Clone()
	}); err != nil {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	if saveErr != nil {
		return p, fmt.Errorf("%s: %w", op, saveErr)
	}
	return p, nil
}

func (e *Engine) apply(ctx context.Context, ents []models.Entitlement, trigger subscription.Trigger) error {
	p, tr := e.deps.Machine.Recompute(e.profile, ents, e.deps.Tracker.Now(), trigger)
	return e.commitTransition(ctx, p, tr)
}

func (e *Engine) commitTransition(ctx context.Context, p models.UserProfile, tr subscription.Transition) error {
	e.profile = p
	if !tr.Changed() {
		return nil
	}
	e.deps.Metrics.Transition(tr.From, tr.To, tr.Legal)
	e.deps.Metrics.Status(tr.To)
	e.emit(Event{
		Type:    EventStatusChanged,
		At:      e.deps.Tracker.Now(),
		Profile: p.Clone(),
		From:    string(tr.From),
	})
	return e.persist(ctx)
}

// Refresh заново вычисляет права и применяет их к профилю. Просмотр истории
// транзакций выполняется вне горутины владельца. Если магазин недоступен,
// кэшированный профиль остаётся в силе, но истёкший пробный период всё равно
// переводится в expired.
func (e *Engine) Refresh(ctx context.Context, trigger subscription.Trigger) (models.UserProfile, error) {
	const op = "engine.Refresh"

	ents, scanErr := e.deps.Entitlements.CurrentEntitlements(ctx)

	var (
		p       models.UserProfile
		saveErr error
	)
	if err := e.do(ctx, func(runCtx context.Context) {
		if scanErr != nil {
			saveErr = e.recomputeCached(runCtx, trigger)
		} else {
			saveErr = e.apply(runCtx, ents, trigger)
		}
		p = e.profile.Clone()
	}); err != nil {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}

	if scanErr != nil {
		e.log.Warn("entitlement refresh failed, keeping cached profile",
			slog.String("op", op),
			slog.String("trigger", string(trigger)),
			sl.Err(scanErr))
		return p, fmt.Errorf("%s: %w", op, scanErr)
	}
	if saveErr != nil {
		return p, fmt.Errorf("%s: %w", op, saveErr)
	}
	return p, nil
}

// recomputeCached пересчитывает статус без свежего набора прав. Premium
// сохраняется, так как права неизвестны, остальные статусы выводятся по часам.
func (e *Engine) recomputeCached(ctx context.Context, trigger subscription.Trigger) error {
	if e.profile.SubscriptionStatus == models.StatusPremium {
		return nil
	}
	p, tr := e.deps.Machine.Recompute(e.profile, nil, e.deps.Tracker.Now(), trigger)
	return e.commitTransition(ctx, p, tr)
}

// StartTrial запускает пробный период.
func (e *Engine) StartTrial(ctx context.Context) (models.UserProfile, error) {
	const op = "engine.StartTrial"
	var (
		p      models.UserProfile
		runErr error
	)
	if err := e.do(ctx, func(runCtx context.Context) {
		var next models.UserProfile
		next, runErr = subscription.StartTrial(e.profile, e.deps.Tracker.Now(), e.cfg.TrialDuration)
		if runErr == nil {
			from := e.profile.SubscriptionStatus
			e.profile = next
			e.deps.Metrics.Transition(from, next.SubscriptionStatus, true)
			e.deps.Metrics.Status(next.SubscriptionStatus)
			e.emit(Event{Type: EventTrialStarted, At: e.deps.Tracker.Now(), Profile: next.Clone(), From: string(from)})
			runErr = e.persist(runCtx)
		}
		p = e.profile.Clone()
	}); err != nil {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	if runErr != nil {
		return p, fmt.Errorf("%s: %w", op, runErr)
	}
	return p, nil
}

// History возвращает историю очистки, новые записи первыми.
func (e *Engine) History(ctx context.Context) []models.CleanupRecord {
	return e.deps.Profiles.History(ctx)
}
