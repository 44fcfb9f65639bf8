// Package authorizer принимает решение о допустимом числе удалений
// на основе статуса подписки и дневной квоты.
package authorizer

import (
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// QuotaTracker описывает контракт трекера дневной квоты.
type QuotaTracker interface {
	ResetIfNewDay(p models.UserProfile) (models.UserProfile, bool)
}

// Authorizer выдаёт решения Allowed(n) или Denied(reason).
type Authorizer struct {
	quota QuotaTracker
}

// New создает новый экземпляр Authorizer.
func New(quota QuotaTracker) *Authorizer {
	return &Authorizer{quota: quota}
}

// Authorize решает, сколько из requested файлов можно удалить.
// Возвращаемый профиль может отличаться от входного только сбросом счётчика при смене дня.
// При requested == 0 и ненулевом остатке возвращается Allowed(0), а не Denied:
// отказ с QuotaExhausted означает только исчерпанную квоту.
func (a *Authorizer) Authorize(p models.UserProfile, requested int) (models.UserProfile, models.Decision) {
	return a.AuthorizeReserved(p, requested, 0)
}

// AuthorizeReserved работает как Authorize, но считает reserved файлов
// уже израсходованными. Используется для пакетов, ожидающих завершения.
func (a *Authorizer) AuthorizeReserved(p models.UserProfile, requested, reserved int) (models.UserProfile, models.Decision) {
	requested = max(requested, 0)
	reserved = max(reserved, 0)

	p, _ = a.quota.ResetIfNewDay(p)

	if p.SubscriptionStatus.Unlimited() {
		return p, models.Allow(requested)
	}

	remaining := max(0, p.RemainingFreeFiles()-reserved)
	if remaining == 0 {
		return p, models.Deny(models.ReasonQuotaExhausted)
	}
	return p, models.Allow(min(requested, remaining))
}
