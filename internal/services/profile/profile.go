// Package profile отвечает за хранение профиля пользователя и истории очистки
// в key/value хранилище. Профиль записывается целиком одним блобом.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// KV описывает контракт key/value хранилища блобов.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store читает и записывает профиль и историю очистки.
type Store struct {
	mu  sync.Mutex
	kv  KV
	log *slog.Logger
}

// NewStore создает новый экземпляр Store.
func NewStore(kv KV, log *slog.Logger) *Store {
	return &Store{
		kv:  kv,
		log: log,
	}
}

// Load возвращает сохранённый профиль. Если профиля нет, блоб повреждён
// или хранилище недоступно, возвращается профиль по умолчанию.
func (s *Store) Load(ctx context.Context) models.UserProfile {
	const op = "profile.Load"
	log := s.log.With(slog.String("op", op))

	data, found, err := s.kv.Get(ctx, models.ProfileKey)
	if err != nil {
		log.Error("failed to read profile, using defaults", sl.Err(err))
		return models.DefaultProfile()
	}
	if !found {
		log.Info("no stored profile, using defaults")
		return models.DefaultProfile()
	}

	var p models.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error("failed to decode profile, using defaults", sl.Err(err))
		return models.DefaultProfile()
	}
	if !p.SubscriptionStatus.Valid() {
		log.Warn("stored profile has unknown status, using defaults",
			slog.String("status", string(p.SubscriptionStatus)))
		return models.DefaultProfile()
	}
	if p.FilesDeletedToday < 0 {
		p.FilesDeletedToday = 0
	}
	return p
}

// Save записывает профиль целиком под ключом models.ProfileKey.
// Ошибка записи оборачивает models.ErrPersistence.
func (s *Store) Save(ctx context.Context, p models.UserProfile) error {
	const op = "profile.Save"

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, models.ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(ctx, models.ProfileKey, data); err != nil {
		return fmt.Errorf("%s: %w: %w", op, models.ErrPersistence, err)
	}
	return nil
}

// History возвращает историю очистки, новые записи первыми.
// Ошибки чтения логируются, результатом будет пустая история.
func (s *Store) History(ctx context.Context) []models.CleanupRecord {
	const op = "profile.History"

	records, err := s.readHistory(ctx)
	if err != nil {
		s.log.Error("failed to read cleanup history", slog.String("op", op), sl.Err(err))
		return []models.CleanupRecord{}
	}
	return records
}

// AppendHistory добавляет запись в начало истории и обрезает её до models.HistoryLimit.
func (s *Store) AppendHistory(ctx context.Context, rec models.CleanupRecord) error {
	const op = "profile.AppendHistory"

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readHistory(ctx)
	if err != nil {
		s.log.Warn("discarding unreadable cleanup history", slog.String("op", op), sl.Err(err))
		records = nil
	}

	records = append([]models.CleanupRecord{rec}, records...)
	if len(records) > models.HistoryLimit {
		records = records[:models.HistoryLimit]
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, models.ErrPersistence, err)
	}
	if err := s.kv.Set(ctx, models.HistoryKey, data); err != nil {
		return fmt.Errorf("%s: %w: %w", op, models.ErrPersistence, err)
	}
	return nil
}

func (s *Store) readHistory(ctx context.Context) ([]models.CleanupRecord, error) {
	data, found, err := s.kv.Get(ctx, models.HistoryKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return []models.CleanupRecord{}, nil
	}
	var records []models.CleanupRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
