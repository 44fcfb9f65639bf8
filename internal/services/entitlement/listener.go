package entitlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/subscription"
	"github.com/magabrotheeeer/phone-cleaner/internal/storekit"
)

// Refresher описывает контракт пересчёта и применения прав к профилю.
type Refresher interface {
	Refresh(ctx context.Context, trigger subscription.Trigger) (models.UserProfile, error)
}

// Finisher описывает контракт подтверждения транзакции магазину.
type Finisher interface {
	Finish(ctx context.Context, transactionID string) error
}

// Listener обрабатывает поток обновлений транзакций.
type Listener struct {
	verifier  *Verifier
	refresher Refresher
	finisher  Finisher
	timeout   time.Duration
	metrics   Recorder
	log       *slog.Logger
}

// NewListener создает новый экземпляр Listener.
func NewListener(verifier *Verifier, refresher Refresher, finisher Finisher, timeout time.Duration, metrics Recorder, log *slog.Logger) *Listener {
	return &Listener{
		verifier:  verifier,
		refresher: refresher,
		finisher:  finisher,
		timeout:   timeout,
		metrics:   metrics,
		log:       log,
	}
}

// Run обрабатывает обновления до закрытия канала или отмены ctx.
// Подтверждённое обновление применяется к профилю, затем транзакция
// завершается в магазине и сообщение подтверждается. При ошибке сообщение
// возвращается в очередь и будет обработано повторно.
func (l *Listener) Run(ctx context.Context, updates <-chan storekit.Update) {
	const op = "entitlement.Listener.Run"
	log := l.log.With(slog.String("op", op))
	log.Info("transaction listener started")
	defer log.Info("transaction listener stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			l.handle(ctx, u)
		}
	}
}

func (l *Listener) handle(ctx context.Context, u storekit.Update) {
	log := l.log.With(slog.String("op", "entitlement.Listener.handle"))

	res := l.verifier.Verify(u.Signed)
	if !res.IsVerified() {
		l.metrics.VerificationFailed()
		log.Warn("ignoring unverified transaction update", slog.String("reason", res.Reason))
		if err := u.Ack(); err != nil {
			log.Error("failed to ack update", sl.Err(err))
		}
		return
	}
	log = log.With(
		slog.String("transaction_id", res.Transaction.TransactionID),
		slog.String("product_id", res.Transaction.ProductID),
	)

	if _, err := l.refresher.Refresh(ctx, subscription.TriggerTransactionUpdate); err != nil {
		log.Error("failed to apply transaction update, requeueing", sl.Err(err))
		l.nack(u, log)
		return
	}

	finishCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		finishCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	if err := l.finisher.Finish(finishCtx, res.Transaction.TransactionID); err != nil {
		log.Error("failed to finish transaction, requeueing", sl.Err(err))
		l.nack(u, log)
		return
	}

	if err := u.Ack(); err != nil {
		log.Error("failed to ack update", sl.Err(err))
		return
	}
	log.Info("transaction update applied")
}

func (l *Listener) nack(u storekit.Update, log *slog.Logger) {
	if err := u.Nack(true); err != nil {
		log.Error("failed to nack update", sl.Err(err))
	}
}
