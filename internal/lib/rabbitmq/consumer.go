package rabbitmq

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"
)

// Consume подписывается на очередь с ручным подтверждением и возвращает канал доставок.
// Канал закрывается при отмене ctx или закрытии AMQP-канала. Подтверждать (Ack/Nack)
// каждую доставку обязан вызывающий.
func Consume(ctx context.Context, ch *amqp.Channel, queueName string) (<-chan amqp.Delivery, error) {
	const op = "rabbitmq.Consume"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make(chan amqp.Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				select {
				case out <- d:
				case <-ctx.Done():
					// не доставлено обработчику: вернётся в очередь
					_ = d.Nack(false, true)
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
