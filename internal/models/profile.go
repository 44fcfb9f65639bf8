// Package models содержит доменные структуры движка прав доступа и квоты удаления:
// профиль пользователя, статус подписки, права (entitlements), группы дубликатов
// и записи истории очистки. Структуры используются в бизнес-логике, хранилище и HTTP-слое.
package models

import "time"

// FreeFileLimit: дневной лимит удалений для бесплатного тарифа.
const FreeFileLimit = 50

// SubscriptionStatus описывает статус подписки пользователя.
type SubscriptionStatus string

const (
	// StatusFree: бесплатный тариф с дневной квотой.
	StatusFree SubscriptionStatus = "free"
	// StatusTrial: активный пробный период.
	StatusTrial SubscriptionStatus = "trial"
	// StatusPremium: есть хотя бы одно подтверждённое право.
	StatusPremium SubscriptionStatus = "premium"
	// StatusExpired: пробный период или подписка закончились.
	StatusExpired SubscriptionStatus = "expired"
)

// Valid сообщает, является ли значение одним из известных статусов.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusFree, StatusTrial, StatusPremium, StatusExpired:
		return true
	default:
		return false
	}
}

// Unlimited сообщает, снимает ли статус дневную квоту.
func (s SubscriptionStatus) Unlimited() bool {
	return s == StatusPremium || s == StatusTrial
}

// UserProfile: единственная на устройство запись о статусе подписки и квоте.
// Хранится целиком как JSON-блоб под ключом ProfileKey.
type UserProfile struct {
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	TrialEndDate       *time.Time         `json:"trialEndDate,omitempty"`
	FilesDeletedToday  int                `json:"filesDeletedToday"`
	LastCleanupDate    *time.Time         `json:"lastCleanupDate,omitempty"`
}

// ProfileKey: ключ профиля в key/value хранилище.
const ProfileKey = "userProfile"

// DefaultProfile возвращает профиль, создаваемый при первом запуске.
func DefaultProfile() UserProfile {
	return UserProfile{SubscriptionStatus: StatusFree}
}

// CanDeleteFiles сообщает, разрешено ли пользователю удалять файлы прямо сейчас.
func (p UserProfile) CanDeleteFiles() bool {
	return p.SubscriptionStatus.Unlimited() || p.FilesDeletedToday < FreeFileLimit
}

// RemainingFreeFiles возвращает остаток бесплатных удалений на сегодня.
func (p UserProfile) RemainingFreeFiles() int {
	return max(0, FreeFileLimit-p.FilesDeletedToday)
}

// Equal сравнивает профили по всем полям, включая даты с точностью до момента времени.
func (p UserProfile) Equal(o UserProfile) bool {
	return p.SubscriptionStatus == o.SubscriptionStatus &&
		p.FilesDeletedToday == o.FilesDeletedToday &&
		timePtrEqual(p.TrialEndDate, o.TrialEndDate) &&
		timePtrEqual(p.LastCleanupDate, o.LastCleanupDate)
}

// Clone возвращает копию профиля, не разделяющую указатели на даты.
func (p UserProfile) Clone() UserProfile {
	c := p
	if p.TrialEndDate != nil {
		t := *p.TrialEndDate
		c.TrialEndDate = &t
	}
	if p.LastCleanupDate != nil {
		t := *p.LastCleanupDate
		c.LastCleanupDate = &t
	}
	return c
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
