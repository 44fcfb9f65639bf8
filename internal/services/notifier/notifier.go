// Package notifier публикует события профиля в RabbitMQ.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/engine"
)

// Notifier публикует engine.Event в обменник exchange с ключом key.
type Notifier struct {
	ch       rabbitmq.Publisher
	exchange string
	key      string
	log      *slog.Logger
}

// New создает Notifier поверх открытого AMQP-канала.
func New(ch rabbitmq.Publisher, exchange, key string, log *slog.Logger) *Notifier {
	return &Notifier{
		ch:       ch,
		exchange: exchange,
		key:      key,
		log:      log,
	}
}

// Notify публикует событие. Отменённый контекст прерывает публикацию до отправки.
func (n *Notifier) Notify(ctx context.Context, ev engine.Event) error {
	const op = "notifier.Notify"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := rabbitmq.PublishMessage(n.ch, n.exchange, n.key, ev); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n.log.Debug("profile event published",
		slog.String("op", op),
		slog.String("type", ev.Type),
		slog.String("status", string(ev.Profile.SubscriptionStatus)))
	return nil
}
