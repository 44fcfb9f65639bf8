package models

import (
	"time"

	"github.com/google/uuid"
)

// PhotoItem: элемент группы дубликатов. Идентичность определяется только полем ID.
type PhotoItem struct {
	ID           string     `json:"id" validate:"required"`
	FileSize     int64      `json:"file_size" validate:"gte=0"`
	CreationDate *time.Time `json:"creation_date,omitempty"`
	PixelWidth   int        `json:"pixel_width,omitempty"`
	PixelHeight  int        `json:"pixel_height,omitempty"`
	IsSelected   bool       `json:"is_selected"`
}

// Equal сравнивает элементы по идентификатору.
func (p PhotoItem) Equal(o PhotoItem) bool {
	return p.ID == o.ID
}

// PixelArea возвращает площадь изображения в пикселях.
func (p PhotoItem) PixelArea() int64 {
	return int64(p.PixelWidth) * int64(p.PixelHeight)
}

// DuplicateGroup: группа похожих фото, в которой ровно один элемент сохраняется.
type DuplicateGroup struct {
	ID        uuid.UUID   `json:"id"`
	Members   []PhotoItem `json:"members"`
	KeepIndex int         `json:"keep_index"`
}

// Keeper возвращает сохраняемый элемент группы.
func (g DuplicateGroup) Keeper() PhotoItem {
	return g.Members[g.KeepIndex]
}

// ValidIndex сообщает, указывает ли индекс на элемент группы.
func (g DuplicateGroup) ValidIndex(i int) bool {
	return i >= 0 && i < len(g.Members)
}

// TotalSize возвращает суммарный размер всех элементов.
func (g DuplicateGroup) TotalSize() int64 {
	var total int64
	for _, m := range g.Members {
		total += m.FileSize
	}
	return total
}

// DeletableSize возвращает суммарный размер всех элементов, кроме сохраняемого.
func (g DuplicateGroup) DeletableSize() int64 {
	var total int64
	for i, m := range g.Members {
		if i != g.KeepIndex {
			total += m.FileSize
		}
	}
	return total
}

// Clone возвращает копию группы с собственным срезом элементов.
func (g DuplicateGroup) Clone() DuplicateGroup {
	c := g
	c.Members = append([]PhotoItem(nil), g.Members...)
	return c
}
