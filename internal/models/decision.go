package models

import (
	"time"

	"github.com/google/uuid"
)

// DenialReason: причина отказа в удалении.
type DenialReason string

// ReasonQuotaExhausted: бесплатная квота на сегодня исчерпана.
const ReasonQuotaExhausted DenialReason = "quota_exhausted"

// Decision: решение авторизатора: Allowed(Count) или Denied(Reason).
type Decision struct {
	Allowed bool         `json:"allowed"`
	Count   int          `json:"count"`
	Reason  DenialReason `json:"reason,omitempty"`
}

// Allow создаёт разрешающее решение.
func Allow(count int) Decision {
	return Decision{Allowed: true, Count: count}
}

// Deny создаёт запрещающее решение.
func Deny(reason DenialReason) Decision {
	return Decision{Reason: reason}
}

// Partial сообщает, разрешено ли меньше запрошенного.
func (d Decision) Partial(requested int) bool {
	return d.Allowed && d.Count < requested
}

// Err возвращает ErrQuotaExhausted для отказа и nil для разрешения.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return ErrQuotaExhausted
}

// DeletionBatch: авторизованный пакет удаления, ожидающий отчёта о выполнении.
type DeletionBatch struct {
	ID        uuid.UUID   `json:"id"`
	Items     []PhotoItem `json:"items"`
	GroupIDs  []uuid.UUID `json:"group_ids"`
	Requested int         `json:"requested"`
	Decision  Decision    `json:"decision"`
	Truncated bool        `json:"truncated"`
	Category  string      `json:"category"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// DeletionOutcome: итог запроса на удаление для UI.
type DeletionOutcome struct {
	Batch          *DeletionBatch `json:"batch,omitempty"`
	Decision       Decision       `json:"decision"`
	Requested      int            `json:"requested"`
	UpsellRequired bool           `json:"upsell_required"`
}
