package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// DeletionRequest: запрос на удаление дубликатов из групп GroupIDs
// (всех загруженных групп, если список пуст).
type DeletionRequest struct {
	GroupIDs     []uuid.UUID
	AllowPartial bool
	Category     string
}

// Completion: итог завершённого пакета удаления.
type Completion struct {
	BatchID   uuid.UUID             `json:"batch_id"`
	Deleted   int                   `json:"deleted"`
	SizeFreed int64                 `json:"size_freed"`
	Profile   models.UserProfile    `json:"profile"`
	Record    *models.CleanupRecord `json:"record,omitempty"`
}

// Report: итог RunDeletion.
type Report struct {
	Outcome    models.DeletionOutcome `json:"outcome"`
	Completion *Completion            `json:"completion,omitempty"`
}

// FileDeleter описывает контракт внешнего удаления файлов. Возвращает ID
// фактически удалённых элементов, даже если удаление прервалось с ошибкой.
type FileDeleter interface {
	Delete(ctx context.Context, items []models.PhotoItem) ([]string, error)
}

// BeginDeletion планирует удаление, авторизует его с учётом незавершённых
// пакетов и резервирует выданную квоту под новым пакетом. Если разрешено
// меньше запрошенного, а частичное удаление не допускается, пакет не создаётся
// и в итоге выставляется UpsellRequired. Квоту удерживают только пакеты
// бесплатного уровня.
func (e *Engine) BeginDeletion(ctx context.Context, req DeletionRequest) (models.DeletionOutcome, error) {
	const op = "engine.BeginDeletion"
	log := e.log.With(slog.String("op", op))

	if req.Category == "" {
		req.Category = models.CategoryDuplicatePhotos
	}

	var (
		out     models.DeletionOutcome
		planErr error
		saveErr error
	)
	if err := e.do(ctx, func(runCtx context.Context) {
		plan, err := e.deps.Selector.Plan(req.GroupIDs...)
		if err != nil {
			planErr = err
			return
		}
		saveErr = e.touch(runCtx)

		requested := plan.TotalCount
		d := e.authorize(requested)
		out = models.DeletionOutcome{Decision: d, Requested: requested}

		switch {
		case requested == 0:
			return
		case !d.Allowed:
			out.UpsellRequired = true
			return
		case d.Partial(requested) && !req.AllowPartial:
			out.UpsellRequired = true
			return
		}

		granted := plan.Truncate(d.Count)
		batch := models.DeletionBatch{
			ID:        uuid.New(),
			Items:     granted.Items(),
			GroupIDs:  granted.GroupIDs(),
			Requested: requested,
			Decision:  d,
			Truncated: d.Partial(requested),
			Category:  req.Category,
			ExpiresAt: e.deps.Tracker.Now().Add(e.cfg.ReservationTTL),
		}
		items := make(map[string]models.PhotoItem, len(batch.Items))
		for _, it := range batch.Items {
			items[it.ID] = it
		}
		e.reservations[batch.ID] = &reservation{
			batch:   batch,
			items:   items,
			counted: !e.profile.SubscriptionStatus.Unlimited(),
		}
		out.Batch = &batch
	}); err != nil {
		return models.DeletionOutcome{}, fmt.Errorf("%s: %w", op, err)
	}
	if planErr != nil {
		return models.DeletionOutcome{}, fmt.Errorf("%s: %w", op, planErr)
	}

	if out.Batch != nil {
		log.Info("deletion batch reserved",
			slog.String("batch_id", out.Batch.ID.String()),
			slog.Int("requested", out.Requested),
			slog.Int("granted", len(out.Batch.Items)))
	} else if out.UpsellRequired {
		log.Info("deletion requires upgrade",
			slog.Int("requested", out.Requested),
			slog.Int("allowed", out.Decision.Count))
	}

	if saveErr != nil {
		return out, fmt.Errorf("%s: %w", op, saveErr)
	}
	return out, nil
}

// CompleteDeletion учитывает фактически удалённые элементы пакета, снимает
// резерв, обновляет группы и добавляет запись в историю очистки.
// ID, не входящие в пакет или ставшие сохраняемыми, игнорируются.
func (e *Engine) CompleteDeletion(ctx context.Context, batchID uuid.UUID, deletedIDs []string) (Completion, error) {
	const op = "engine.CompleteDeletion"
	log := e.log.With(slog.String("op", op), slog.String("batch_id", batchID.String()))

	var (
		c        Completion
		category string
		runErr   error
		found    bool
	)
	if err := e.do(ctx, func(runCtx context.Context) {
		e.pruneReservations()
		r, ok := e.reservations[batchID]
		if !ok {
			return
		}
		found = true
		delete(e.reservations, batchID)
		category = r.batch.Category

		keepers := e.deps.Selector.Keepers()
		ids := make([]string, 0, len(deletedIDs))
		seen := make(map[string]struct{}, len(deletedIDs))
		for _, id := range deletedIDs {
			it, ok := r.items[id]
			if !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if _, keep := keepers[id]; keep {
				log.Warn("reported photo is a keeper, not counting it", slog.String("photo_id", id))
				continue
			}
			ids = append(ids, id)
			c.SizeFreed += it.FileSize
		}
		c.Deleted = len(ids)

		runErr = e.touch(runCtx)
		if c.Deleted > 0 {
			runErr = errors.Join(runErr, e.record(runCtx, c.Deleted))
			e.deps.Selector.ApplyDeleted(ids)
		}
		c.Profile = e.profile.Clone()
	}); err != nil {
		return Completion{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return Completion{}, fmt.Errorf("%s: %w", op, models.ErrUnknownBatch)
	}
	c.BatchID = batchID

	if c.Deleted > 0 {
		rec := models.CleanupRecord{
			ID:           uuid.New(),
			Date:         e.deps.Tracker.Now(),
			Category:     category,
			ItemsDeleted: c.Deleted,
			SizeFreed:    c.SizeFreed,
		}
		if err := e.deps.Profiles.AppendHistory(ctx, rec); err != nil {
			log.Error("failed to append cleanup history", sl.Err(err))
			runErr = errors.Join(runErr, err)
		}
		c.Record = &rec
	}

	log.Info("deletion batch completed", slog.Int("deleted", c.Deleted), slog.Int64("size_freed", c.SizeFreed))
	if runErr != nil {
		return c, fmt.Errorf("%s: %w", op, runErr)
	}
	return c, nil
}

// RunDeletion выполняет полный цикл: резервирование, удаление через deleter
// и учёт фактически удалённых элементов, даже если deleter вернул ошибку.
func (e *Engine) RunDeletion(ctx context.Context, req DeletionRequest, deleter FileDeleter) (Report, error) {
	const op = "engine.RunDeletion"

	out, err := e.BeginDeletion(ctx, req)
	rep := Report{Outcome: out}
	if err != nil && out.Batch == nil {
		return rep, fmt.Errorf("%s: %w", op, err)
	}
	if out.Batch == nil {
		return rep, nil
	}

	deleted, delErr := deleter.Delete(ctx, out.Batch.Items)
	if delErr != nil {
		e.log.Warn("file deletion interrupted",
			slog.String("op", op),
			slog.Int("deleted", len(deleted)),
			slog.Int("planned", len(out.Batch.Items)),
			sl.Err(delErr))
	}

	c, compErr := e.CompleteDeletion(context.WithoutCancel(ctx), out.Batch.ID, deleted)
	if compErr == nil || !errors.Is(compErr, models.ErrUnknownBatch) {
		rep.Completion = &c
	}

	if joined := errors.Join(err, delErr, compErr); joined != nil {
		return rep, fmt.Errorf("%s: %w", op, joined)
	}
	return rep, nil
}

// CancelDeletion снимает резерв пакета без учёта удалений.
func (e *Engine) CancelDeletion(ctx context.Context, batchID uuid.UUID) error {
	const op = "engine.CancelDeletion"
	var found bool
	if err := e.do(ctx, func(context.Context) {
		_, found = e.reservations[batchID]
		delete(e.reservations, batchID)
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return fmt.Errorf("%s: %w", op, models.ErrUnknownBatch)
	}
	return nil
}

// pruneReservations удаляет истёкшие резервы. Выполняется в горутине владельца.
func (e *Engine) pruneReservations() {
	now := e.deps.Tracker.Now()
	for id, r := range e.reservations {
		if !now.Before(r.batch.ExpiresAt) {
			delete(e.reservations, id)
			e.log.Warn("deletion reservation expired",
				slog.String("op", "engine.pruneReservations"),
				slog.String("batch_id", id.String()))
		}
	}
}

// reserved возвращает число файлов в незавершённых пакетах, удерживающих квоту.
func (e *Engine) reserved() int {
	n := 0
	for _, r := range e.reservations {
		if r.counted {
			n += len(r.batch.Items)
		}
	}
	return n
}

// inBatch сообщает, входит ли фото в какой-либо незавершённый пакет.
func (e *Engine) inBatch(photoID string) bool {
	for _, r := range e.reservations {
		if _, ok := r.items[photoID]; ok {
			return true
		}
	}
	return false
}
