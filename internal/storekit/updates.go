package storekit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
)

// Update: обновление транзакции из очереди. Получатель обязан вызвать
// ровно одно из Ack или Nack.
type Update struct {
	Signed string
	Ack    func() error
	Nack   func(requeue bool) error
}

// FromDelivery разбирает доставку AMQP в Update.
func FromDelivery(d amqp.Delivery) (Update, error) {
	const op = "storekit.FromDelivery"
	var msg UpdateMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return Update{}, fmt.Errorf("%s: %w", op, err)
	}
	if msg.SignedTransaction == "" {
		return Update{}, fmt.Errorf("%s: %w", op, errors.New("empty signed_transaction"))
	}
	return Update{
		Signed: msg.SignedTransaction,
		Ack:    func() error { return d.Ack(false) },
		Nack:   func(requeue bool) error { return d.Nack(false, requeue) },
	}, nil
}

// Updates подписывается на очередь обновлений транзакций. Некорректные
// сообщения отклоняются без возврата в очередь. Канал закрывается при отмене ctx.
func Updates(ctx context.Context, ch *amqp.Channel, queue string, log *slog.Logger) (<-chan Update, error) {
	const op = "storekit.Updates"

	deliveries, err := rabbitmq.Consume(ctx, ch, queue)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make(chan Update)
	go forward(ctx, deliveries, out, log)
	return out, nil
}

// forward переводит доставки в Update до закрытия deliveries или отмены ctx
// и закрывает out.
func forward(ctx context.Context, deliveries <-chan amqp.Delivery, out chan<- Update, log *slog.Logger) {
	const op = "storekit.forward"
	defer close(out)
	for d := range deliveries {
		u, err := FromDelivery(d)
		if err != nil {
			log.Warn("dropping malformed transaction update", slog.String("op", op), sl.Err(err))
			if rejErr := d.Reject(false); rejErr != nil {
				log.Error("failed to reject transaction update", slog.String("op", op), sl.Err(rejErr))
			}
			continue
		}
		select {
		case out <- u:
		case <-ctx.Done():
			if nackErr := u.Nack(true); nackErr != nil {
				log.Error("failed to requeue transaction update", slog.String("op", op), sl.Err(nackErr))
			}
			return
		}
	}
}
