// Package duplicates управляет группами похожих фото: выбором сохраняемого
// элемента, вычислением удаляемого набора и планом массового удаления.
package duplicates

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// SetKeeper назначает сохраняемым элемент с индексом index.
// При выходе за границы группа не меняется и возвращается models.ErrInvalidIndex.
func SetKeeper(g *models.DuplicateGroup, index int) error {
	const op = "duplicates.SetKeeper"
	if !g.ValidIndex(index) {
		return fmt.Errorf("%s: %w: %d not in [0, %d)", op, models.ErrInvalidIndex, index, len(g.Members))
	}
	g.KeepIndex = index
	return nil
}

// DeletableItems возвращает все элементы группы, кроме сохраняемого, в исходном порядке.
func DeletableItems(g models.DuplicateGroup) []models.PhotoItem {
	if len(g.Members) == 0 {
		return []models.PhotoItem{}
	}
	out := make([]models.PhotoItem, 0, len(g.Members)-1)
	for i, m := range g.Members {
		if i == g.KeepIndex {
			continue
		}
		out = append(out, m)
	}
	return out
}

// DefaultKeepIndex выбирает сохраняемый элемент для новой группы: самый новый
// по дате создания, затем с большей площадью, затем с большим размером файла,
// затем с меньшим индексом. Элементы без даты считаются старше датированных.
func DefaultKeepIndex(members []models.PhotoItem) int {
	best := 0
	for i := 1; i < len(members); i++ {
		if better(members[i], members[best]) {
			best = i
		}
	}
	return best
}

func better(a, b models.PhotoItem) bool {
	switch {
	case a.CreationDate != nil && b.CreationDate == nil:
		return true
	case a.CreationDate == nil && b.CreationDate != nil:
		return false
	case a.CreationDate != nil && !a.CreationDate.Equal(*b.CreationDate):
		return a.CreationDate.After(*b.CreationDate)
	}
	if a.PixelArea() != b.PixelArea() {
		return a.PixelArea() > b.PixelArea()
	}
	return a.FileSize > b.FileSize
}

// GroupPlan: часть плана удаления для одной группы.
type GroupPlan struct {
	GroupID uuid.UUID          `json:"group_id"`
	Keeper  models.PhotoItem   `json:"keeper"`
	Items   []models.PhotoItem `json:"items"`
	Size    int64              `json:"size"`
}

// Plan: план массового удаления по нескольким группам.
type Plan struct {
	TotalCount int         `json:"total_count"`
	TotalSize  int64       `json:"total_size"`
	Groups     []GroupPlan `json:"groups"`
}

// PlanBulkDeletion собирает план удаления по группам. Группы не изменяются.
// Элемент, сохраняемый хотя бы в одной из групп, в план не попадает, а элемент,
// встречающийся в нескольких группах, планируется один раз. Группы без
// удаляемых элементов в план не входят.
func PlanBulkDeletion(groups []models.DuplicateGroup) Plan {
	keepers := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if g.ValidIndex(g.KeepIndex) {
			keepers[g.Keeper().ID] = struct{}{}
		}
	}

	plan := Plan{Groups: make([]GroupPlan, 0, len(groups))}
	planned := make(map[string]struct{})
	for _, g := range groups {
		if !g.ValidIndex(g.KeepIndex) {
			continue
		}
		deletable := DeletableItems(g)
		gp := GroupPlan{GroupID: g.ID, Keeper: g.Keeper(), Items: make([]models.PhotoItem, 0, len(deletable))}
		for _, it := range deletable {
			if _, ok := keepers[it.ID]; ok {
				continue
			}
			if _, ok := planned[it.ID]; ok {
				continue
			}
			planned[it.ID] = struct{}{}
			gp.Items = append(gp.Items, it)
			gp.Size += it.FileSize
		}
		if len(gp.Items) == 0 {
			continue
		}
		plan.Groups = append(plan.Groups, gp)
		plan.TotalCount += len(gp.Items)
		plan.TotalSize += gp.Size
	}
	return plan
}

// Items возвращает все удаляемые элементы плана в порядке групп.
func (p Plan) Items() []models.PhotoItem {
	out := make([]models.PhotoItem, 0, p.TotalCount)
	for _, g := range p.Groups {
		out = append(out, g.Items...)
	}
	return out
}

// GroupIDs возвращает идентификаторы групп плана.
func (p Plan) GroupIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(p.Groups))
	for _, g := range p.Groups {
		out = append(out, g.GroupID)
	}
	return out
}

// Truncate оставляет в плане первые n элементов в порядке групп и порядке
// элементов внутри группы. Группы, в которых не осталось элементов, отбрасываются.
func (p Plan) Truncate(n int) Plan {
	if n >= p.TotalCount {
		return p
	}
	n = max(n, 0)
	out := Plan{Groups: make([]GroupPlan, 0, len(p.Groups))}
	for _, g := range p.Groups {
		if n == 0 {
			break
		}
		take := min(n, len(g.Items))
		if take == 0 {
			continue
		}
		gp := GroupPlan{GroupID: g.GroupID, Keeper: g.Keeper, Items: append([]models.PhotoItem(nil), g.Items[:take]...)}
		for _, it := range gp.Items {
			gp.Size += it.FileSize
		}
		out.Groups = append(out.Groups, gp)
		out.TotalCount += take
		out.TotalSize += gp.Size
		n -= take
	}
	return out
}
