package models

import (
	"time"

	"github.com/google/uuid"
)

// HistoryKey: ключ истории очистки в key/value хранилище.
const HistoryKey = "cleanupHistory"

// HistoryLimit: максимальное число хранимых записей истории.
const HistoryLimit = 100

// CategoryDuplicatePhotos: категория очистки для групп дубликатов.
const CategoryDuplicatePhotos = "Duplicate Photos"

// CleanupRecord: запись в истории очистки.
type CleanupRecord struct {
	ID           uuid.UUID `json:"id"`
	Date         time.Time `json:"date"`
	Category     string    `json:"category"`
	ItemsDeleted int       `json:"itemsDeleted"`
	SizeFreed    int64     `json:"sizeFreed"`
}
