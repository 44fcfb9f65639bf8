package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// TransactionSource описывает контракт источника истории транзакций.
type TransactionSource interface {
	Transactions(ctx context.Context) ([]string, error)
}

// Recorder описывает контракт учёта метрик пересчёта прав.
type Recorder interface {
	VerificationFailed()
	Scan(err error)
}

// Service пересчитывает текущие права пользователя.
type Service struct {
	source   TransactionSource
	verifier *Verifier
	timeout  time.Duration
	now      func() time.Time
	metrics  Recorder
	log      *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(source TransactionSource, verifier *Verifier, timeout time.Duration, now func() time.Time, metrics Recorder, log *slog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		source:   source,
		verifier: verifier,
		timeout:  timeout,
		now:      now,
		metrics:  metrics,
		log:      log,
	}
}

// CurrentEntitlements заново просматривает историю транзакций и возвращает
// действующие подтверждённые права, по одному на продукт, отсортированные по ID продукта.
// Отозванные, истёкшие и неподтверждённые транзакции пропускаются.
func (s *Service) CurrentEntitlements(ctx context.Context) ([]models.Entitlement, error) {
	const op = "entitlement.CurrentEntitlements"
	log := s.log.With(slog.String("op", op))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	signed, err := s.source.Transactions(ctx)
	s.metrics.Scan(err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	latest := make(map[string]models.Transaction, len(signed))
	for _, raw := range signed {
		res := s.verifier.Verify(raw)
		if !res.IsVerified() {
			s.metrics.VerificationFailed()
			log.Warn("skipping unverified transaction", slog.String("reason", res.Reason))
			continue
		}
		tx := res.Transaction
		if !tx.ActiveAt(now) {
			log.Debug("skipping inactive transaction",
				slog.String("transaction_id", tx.TransactionID),
				slog.Bool("revoked", tx.Revoked()))
			continue
		}
		if cur, ok := latest[tx.ProductID]; !ok || tx.PurchaseDate > cur.PurchaseDate {
			latest[tx.ProductID] = tx
		}
	}

	out := make([]models.Entitlement, 0, len(latest))
	for _, tx := range latest {
		out = append(out, models.Entitlement{
			ProductID:     tx.ProductID,
			TransactionID: tx.TransactionID,
			PurchaseDate:  tx.PurchasedAt(),
			ExpiresDate:   tx.ExpiresAt(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })

	log.Debug("entitlements resolved", slog.Int("scanned", len(signed)), slog.Int("active", len(out)))
	return out, nil
}
