package duplicates

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// Selector хранит группы дубликатов текущей сессии.
type Selector struct {
	mu     sync.RWMutex
	order  []uuid.UUID
	groups map[uuid.UUID]models.DuplicateGroup
	log    *slog.Logger
}

// NewSelector создает пустой Selector.
func NewSelector(log *slog.Logger) *Selector {
	return &Selector{
		groups: make(map[uuid.UUID]models.DuplicateGroup),
		log:    log,
	}
}

// Load заменяет набор групп. Группам без ID присваивается новый идентификатор,
// некорректный KeepIndex заменяется на DefaultKeepIndex, группы меньше чем
// из двух элементов отбрасываются.
//
// Фото принадлежит не более чем одной группе: повторы внутри группы и элементы,
// уже попавшие в одну из предыдущих групп, отбрасываются. Если при этом
// выбывает сохраняемый элемент, он выбирается заново.
func (s *Selector) Load(groups []models.DuplicateGroup) []models.DuplicateGroup {
	const op = "duplicates.Load"
	log := s.log.With(slog.String("op", op))

	order := make([]uuid.UUID, 0, len(groups))
	byID := make(map[uuid.UUID]models.DuplicateGroup, len(groups))
	claimed := make(map[string]struct{})
	for _, g := range groups {
		if len(g.Members) < 2 {
			log.Debug("skipping group with fewer than two members", slog.Int("members", len(g.Members)))
			continue
		}
		g = g.Clone()
		if g.ID == uuid.Nil {
			g.ID = uuid.New()
		}
		if _, dup := byID[g.ID]; dup {
			log.Warn("duplicate group id, skipping", slog.String("group_id", g.ID.String()))
			continue
		}

		keeperID := ""
		if g.ValidIndex(g.KeepIndex) {
			keeperID = g.Keeper().ID
		}
		members := make([]models.PhotoItem, 0, len(g.Members))
		seen := make(map[string]struct{}, len(g.Members))
		for _, m := range g.Members {
			if _, ok := seen[m.ID]; ok {
				continue
			}
			seen[m.ID] = struct{}{}
			if _, ok := claimed[m.ID]; ok {
				log.Warn("photo already belongs to another group, skipping",
					slog.String("group_id", g.ID.String()), slog.String("photo_id", m.ID))
				continue
			}
			members = append(members, m)
		}
		if len(members) < 2 {
			log.Debug("skipping group with fewer than two unique members", slog.String("group_id", g.ID.String()))
			continue
		}

		g.Members = members
		g.KeepIndex = -1
		for i, m := range members {
			if m.ID == keeperID {
				g.KeepIndex = i
				break
			}
		}
		if g.KeepIndex < 0 {
			g.KeepIndex = DefaultKeepIndex(members)
		}
		for _, m := range members {
			claimed[m.ID] = struct{}{}
		}
		order = append(order, g.ID)
		byID[g.ID] = g
	}

	s.mu.Lock()
	s.order = order
	s.groups = byID
	s.mu.Unlock()

	log.Info("duplicate groups loaded", slog.Int("groups", len(order)))
	return s.Groups()
}

// Groups возвращает копии всех групп в порядке загрузки.
func (s *Selector) Groups() []models.DuplicateGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DuplicateGroup, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.groups[id].Clone())
	}
	return out
}

// Keepers возвращает ID сохраняемых элементов всех групп.
func (s *Selector) Keepers() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.groups))
	for _, g := range s.groups {
		if g.ValidIndex(g.KeepIndex) {
			out[g.Keeper().ID] = struct{}{}
		}
	}
	return out
}

// Group возвращает копию группы по идентификатору.
func (s *Selector) Group(id uuid.UUID) (models.DuplicateGroup, error) {
	const op = "duplicates.Group"
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return models.DuplicateGroup{}, fmt.Errorf("%s: %w", op, models.ErrUnknownGroup)
	}
	return g.Clone(), nil
}

// SetKeeper назначает сохраняемый элемент группы id.
func (s *Selector) SetKeeper(id uuid.UUID, index int) (models.DuplicateGroup, error) {
	const op = "duplicates.Selector.SetKeeper"
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return models.DuplicateGroup{}, fmt.Errorf("%s: %w", op, models.ErrUnknownGroup)
	}
	if err := SetKeeper(&g, index); err != nil {
		return g.Clone(), fmt.Errorf("%s: %w", op, err)
	}
	s.groups[id] = g
	return g.Clone(), nil
}

// Plan строит план удаления по указанным группам или по всем, если ids пуст.
func (s *Selector) Plan(ids ...uuid.UUID) (Plan, error) {
	const op = "duplicates.Selector.Plan"
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(ids) == 0 {
		ids = s.order
	}
	groups := make([]models.DuplicateGroup, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		g, ok := s.groups[id]
		if !ok {
			return Plan{}, fmt.Errorf("%s: %w: %s", op, models.ErrUnknownGroup, id)
		}
		groups = append(groups, g)
	}
	return PlanBulkDeletion(groups), nil
}

// ApplyDeleted удаляет из групп элементы с указанными ID. Сохраняемый элемент
// никогда не удаляется. Группы, в которых остался только сохраняемый элемент,
// отбрасываются. Возвращает число удалённых из групп элементов.
func (s *Selector) ApplyDeleted(ids []string) int {
	if len(ids) == 0 {
		return 0
	}
	deleted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		deleted[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	order := s.order[:0]
	for _, gid := range s.order {
		g := s.groups[gid]
		members := make([]models.PhotoItem, 0, len(g.Members))
		keep := 0
		for i, m := range g.Members {
			if _, ok := deleted[m.ID]; ok && i != g.KeepIndex {
				removed++
				continue
			}
			if i == g.KeepIndex {
				keep = len(members)
			}
			members = append(members, m)
		}
		if len(members) < 2 {
			delete(s.groups, gid)
			continue
		}
		g.Members = members
		g.KeepIndex = keep
		s.groups[gid] = g
		order = append(order, gid)
	}
	s.order = order
	return removed
}
