// Package subscription выводит статус подписки из подтверждённых прав
// и состояния пробного периода.
//
// Переходы вычисляются лениво: окончание пробного периода обнаруживается
// при следующем пересчёте, а не по таймеру.
package subscription

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// Trigger: событие, по которому пересчитывается статус.
type Trigger string

const (
	TriggerLaunch            Trigger = "launch"
	TriggerForeground        Trigger = "foreground"
	TriggerPurchase          Trigger = "purchase"
	TriggerRestore           Trigger = "restore"
	TriggerTransactionUpdate Trigger = "transaction_update"
)

// Valid сообщает, является ли значение известным триггером.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerLaunch, TriggerForeground, TriggerPurchase, TriggerRestore, TriggerTransactionUpdate:
		return true
	default:
		return false
	}
}

// Transition описывает результат пересчёта статуса.
type Transition struct {
	From    models.SubscriptionStatus
	To      models.SubscriptionStatus
	Trigger Trigger
	Legal   bool
}

// Changed сообщает, изменился ли статус.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Derive вычисляет статус: непустой набор прав даёт premium, активный пробный
// период даёт trial, истёкший пробный период даёт expired, иначе free.
func Derive(entitlements []models.Entitlement, trialEndDate *time.Time, now time.Time) models.SubscriptionStatus {
	switch {
	case len(entitlements) > 0:
		return models.StatusPremium
	case trialEndDate != nil && trialEndDate.After(now):
		return models.StatusTrial
	case trialEndDate != nil:
		return models.StatusExpired
	default:
		return models.StatusFree
	}
}

// Allowed сообщает, является ли переход from → to допустимым.
func Allowed(from, to models.SubscriptionStatus) bool {
	if from == to || to == models.StatusPremium {
		return true
	}
	switch from {
	case models.StatusFree:
		return to == models.StatusTrial
	case models.StatusTrial:
		return to == models.StatusExpired
	case models.StatusPremium:
		return to == models.StatusExpired || to == models.StatusTrial
	case models.StatusExpired:
		return false
	default:
		return false
	}
}

// Machine применяет выведенный статус к профилю.
type Machine struct {
	log *slog.Logger
}

// NewMachine создает новый экземпляр Machine.
func NewMachine(log *slog.Logger) *Machine {
	return &Machine{log: log}
}

// Recompute пересчитывает статус профиля на момент now.
func (m *Machine) Recompute(p models.UserProfile, entitlements []models.Entitlement, now time.Time, trigger Trigger) (models.UserProfile, Transition) {
	const op = "subscription.Recompute"

	to := Derive(entitlements, p.TrialEndDate, now)
	if to == models.StatusFree && (p.SubscriptionStatus == models.StatusPremium || p.SubscriptionStatus == models.StatusExpired) {
		to = models.StatusExpired
	}

	tr := Transition{
		From:    p.SubscriptionStatus,
		To:      to,
		Trigger: trigger,
		Legal:   Allowed(p.SubscriptionStatus, to),
	}
	log := m.log.With(
		slog.String("op", op),
		slog.String("from", string(tr.From)),
		slog.String("to", string(tr.To)),
		slog.String("trigger", string(trigger)),
	)
	switch {
	case !tr.Legal:
		log.Warn("unexpected subscription transition", slog.Int("entitlements", len(entitlements)))
	case tr.Changed():
		log.Info("subscription status changed")
	}

	p.SubscriptionStatus = to
	return p, tr
}

// StartTrial запускает пробный период длительностью d. Доступно только
// из статуса free и только если пробный период ещё не использовался.
func StartTrial(p models.UserProfile, now time.Time, d time.Duration) (models.UserProfile, error) {
	const op = "subscription.StartTrial"
	if p.SubscriptionStatus != models.StatusFree || p.TrialEndDate != nil {
		return p, fmt.Errorf("%s: %w", op, models.ErrTrialUnavailable)
	}
	if d <= 0 {
		return p, fmt.Errorf("%s: %w: non-positive duration", op, models.ErrTrialUnavailable)
	}
	end := now.Add(d)
	p.TrialEndDate = &end
	p.SubscriptionStatus = models.StatusTrial
	return p, nil
}
