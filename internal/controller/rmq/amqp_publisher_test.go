package rmq

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"png_compression/config"
	"png_compression/entity"
	"png_compression/pkg/logger"
)

type fakeChannel struct {
	exchanges  []string
	queues     []string
	bindings   [][3]string
	published  []amqp.Publishing
	keys       []string
	publishErr error
	closed     bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	c.exchanges = append(c.exchanges, name+":"+kind)
	return nil
}

func (c *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.queues = append(c.queues, name)
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	c.bindings = append(c.bindings, [3]string{name, key, exchange})
	return nil
}

func (c *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.keys = append(c.keys, exchange+"/"+key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func testRMQConfig() config.RMQ {
	return config.RMQ{Exchange: "png_compression", RoutingKey: "compression.completed"}
}

func testLogger() logger.Interface {
	return logger.NewWithWriter("error", io.Discard)
}

func TestSetupExchangeOnly(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, testRMQConfig(), testLogger())

	require.NoError(t, p.SetupExchangeAndQueue("png_compression", "", "compression.completed"))
	assert.Equal(t, []string{"png_compression:topic"}, ch.exchanges)
	assert.Empty(t, ch.queues)
}

func TestSetupExchangeAndQueue(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, testRMQConfig(), testLogger())

	require.NoError(t, p.SetupExchangeAndQueue("png_compression", "compressions", "compression.completed"))
	assert.Equal(t, []string{"compressions"}, ch.queues)
	assert.Equal(t, [][3]string{{"compressions", "compression.completed", "png_compression"}}, ch.bindings)
}

func TestPublishCompressed(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, testRMQConfig(), testLogger())

	ev := entity.CompressionEvent{
		ObjectID:          "abc",
		URL:               "http://localhost:3000/files/abc",
		SuggestedFilename: "image.png",
		SourceURL:         "https://example.com/a.png",
		Expiry:            time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SourceBytes:       100,
		OutputBytes:       80,
	}
	require.NoError(t, p.PublishCompressed(context.Background(), ev))

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, []string{"png_compression/compression.completed"}, ch.keys)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.NotEmpty(t, msg.MessageId)

	var got entity.CompressionEvent
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, ev.ObjectID, got.ObjectID)
	assert.Equal(t, ev.URL, got.URL)
	assert.True(t, ev.Expiry.Equal(got.Expiry))
}

func TestPublishError(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel/connection is not open")}
	p := newPublisher(ch, testRMQConfig(), testLogger())

	err := p.PublishCompressed(context.Background(), entity.CompressionEvent{ObjectID: "abc"})
	assert.ErrorContains(t, err, "ch.Publish")
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, testRMQConfig(), testLogger())

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
