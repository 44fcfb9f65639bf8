package storekit

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
)

type AcknowledgerMock struct {
	mock.Mock
}

func (m *AcknowledgerMock) Ack(tag uint64, multiple bool) error {
	return m.Called(tag, multiple).Error(0)
}

func (m *AcknowledgerMock) Nack(tag uint64, multiple, requeue bool) error {
	return m.Called(tag, multiple, requeue).Error(0)
}

func (m *AcknowledgerMock) Reject(tag uint64, requeue bool) error {
	return m.Called(tag, requeue).Error(0)
}

func TestFromDelivery(t *testing.T) {
	u, err := FromDelivery(amqp.Delivery{Body: []byte(`{"signed_transaction":"h.p.s"}`)})
	require.NoError(t, err)
	assert.Equal(t, "h.p.s", u.Signed)
	assert.NotNil(t, u.Ack)
	assert.NotNil(t, u.Nack)

	_, err = FromDelivery(amqp.Delivery{Body: []byte(`not json`)})
	assert.Error(t, err)

	_, err = FromDelivery(amqp.Delivery{Body: []byte(`{}`)})
	assert.Error(t, err)
}

func TestForward_LogsRejectError(t *testing.T) {
	ack := new(AcknowledgerMock)
	ack.On("Reject", uint64(7), false).Return(errors.New("channel closed"))

	var buf bytes.Buffer
	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, Body: []byte(`not json`)}
	close(deliveries)

	out := make(chan Update)
	forward(context.Background(), deliveries, out, sl.SetupWriter(sl.EnvProd, &buf))

	_, open := <-out
	assert.False(t, open)
	assert.Contains(t, buf.String(), "failed to reject transaction update")
	assert.Contains(t, buf.String(), "channel closed")
	ack.AssertExpectations(t)
}

func TestForward_RequeuesOnCancel(t *testing.T) {
	ack := new(AcknowledgerMock)
	ack.On("Nack", uint64(3), false, true).Return(errors.New("connection reset"))

	var buf bytes.Buffer
	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, Body: []byte(`{"signed_transaction":"h.p.s"}`)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan Update)
	forward(ctx, deliveries, out, sl.SetupWriter(sl.EnvProd, &buf))

	assert.Contains(t, buf.String(), "failed to requeue transaction update")
	assert.Contains(t, buf.String(), "connection reset")
	ack.AssertExpectations(t)
}
