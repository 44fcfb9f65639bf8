// Package quota ведёт дневной счётчик бесплатных удалений.
package quota

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// Tracker сбрасывает и увеличивает счётчик удалений профиля.
// Граница дня определяется по часовому поясу loc.
type Tracker struct {
	now func() time.Time
	loc *time.Location
}

// NewTracker создает Tracker. Если loc равен nil, используется time.Local.
func NewTracker(now func() time.Time, loc *time.Location) *Tracker {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Tracker{now: now, loc: loc}
}

// Now возвращает текущее время по часам трекера.
func (t *Tracker) Now() time.Time {
	return t.now()
}

// Remaining возвращает остаток бесплатных удалений без учёта смены дня.
func (t *Tracker) Remaining(p models.UserProfile) int {
	return p.RemainingFreeFiles()
}

// ResetIfNewDay обнуляет счётчик, если последняя очистка была не сегодня
// или её не было вовсе. LastCleanupDate не меняется, поэтому повторный вызов
// в тот же день ничего не делает.
func (t *Tracker) ResetIfNewDay(p models.UserProfile) (models.UserProfile, bool) {
	if p.LastCleanupDate != nil && t.sameDay(*p.LastCleanupDate, t.now()) {
		return p, false
	}
	if p.FilesDeletedToday == 0 {
		return p, false
	}
	p.FilesDeletedToday = 0
	return p, true
}

// RecordDeletions учитывает count удалённых файлов и отмечает время очистки.
// Перед учётом выполняется сброс при смене дня.
func (t *Tracker) RecordDeletions(p models.UserProfile, count int) (models.UserProfile, error) {
	const op = "quota.RecordDeletions"
	if count < 0 {
		return p, fmt.Errorf("%s: %w", op, models.ErrNegativeCount)
	}

	p, _ = t.ResetIfNewDay(p)
	now := t.now()
	p.FilesDeletedToday += count
	p.LastCleanupDate = &now
	return p, nil
}

func (t *Tracker) sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(t.loc).Date()
	by, bm, bd := b.In(t.loc).Date()
	return ay == by && am == bm && ad == bd
}
