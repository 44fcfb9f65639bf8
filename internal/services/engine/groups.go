package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// LoadGroups заменяет набор групп дубликатов. Пока открыт хотя бы один пакет
// удаления, набор не меняется и возвращается models.ErrDeletionInProgress.
func (e *Engine) LoadGroups(ctx context.Context, groups []models.DuplicateGroup) ([]models.DuplicateGroup, error) {
	const op = "engine.LoadGroups"

	var (
		loaded []models.DuplicateGroup
		open   int
	)
	if err := e.do(ctx, func(context.Context) {
		e.pruneReservations()
		if open = len(e.reservations); open > 0 {
			return
		}
		loaded = e.deps.Selector.Load(groups)
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if open > 0 {
		e.log.Warn("refusing to replace groups", slog.String("op", op), slog.Int("open_batches", open))
		return nil, fmt.Errorf("%s: %w: %d open batches", op, models.ErrDeletionInProgress, open)
	}
	return loaded, nil
}

// SetKeeper назначает сохраняемый элемент группы. Элемент, входящий в
// незавершённый пакет удаления, назначить нельзя.
func (e *Engine) SetKeeper(ctx context.Context, id uuid.UUID, index int) (models.DuplicateGroup, error) {
	const op = "engine.SetKeeper"

	var (
		g      models.DuplicateGroup
		runErr error
	)
	if err := e.do(ctx, func(context.Context) {
		e.pruneReservations()
		g, runErr = e.deps.Selector.Group(id)
		if runErr != nil {
			return
		}
		if g.ValidIndex(index) && e.inBatch(g.Members[index].ID) {
			runErr = fmt.Errorf("%w: photo %s", models.ErrDeletionInProgress, g.Members[index].ID)
			return
		}
		g, runErr = e.deps.Selector.SetKeeper(id, index)
	}); err != nil {
		return models.DuplicateGroup{}, fmt.Errorf("%s: %w", op, err)
	}
	if runErr != nil {
		return g, fmt.Errorf("%s: %w", op, runErr)
	}
	return g, nil
}
