package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProducerFlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 8, discardLogger())
	p.Start()

	env, err := NewEnvelope(TypeOrderPaid, "order-1", OrderPaidPayload{OrderID: "order-1", Amount: 1500})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), env))

	p.Close()
	p.WaitClosed()

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order-1", string(w.msgs[0].Key))
	assert.True(t, w.closed)

	var got Envelope
	require.NoError(t, UnmarshalEnvelope(w.msgs[0].Value, &got))
	assert.Equal(t, TypeOrderPaid, got.EventType)
	payload, err := UnwrapPayload[OrderPaidPayload](got.Payload)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), payload.Amount)
}

func TestProducerRejectsAfterClose(t *testing.T) {
	p := newProducer(&fakeWriter{}, 1, discardLogger())
	p.Start()
	p.Close()
	p.Close()
	p.WaitClosed()

	env, err := NewEnvelope(TypeBookingStatusChanged, "b-1", BookingStatusChangedPayload{BookingID: "b-1"})
	require.NoError(t, err)
	assert.ErrorIs(t, p.Publish(context.Background(), env), ErrProducerClosed)
}

func TestProducerBufferFull(t *testing.T) {
	// not started: nothing drains the inbox
	p := newProducer(&fakeWriter{}, 1, discardLogger())

	env, err := NewEnvelope(TypeOrderPaid, "o", OrderPaidPayload{})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), env))
	assert.ErrorIs(t, p.Publish(context.Background(), env), ErrBufferFull)
}

func TestWriteErrorsAreLoggedNotFatal(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newProducer(w, 4, discardLogger())
	p.Start()

	env, err := NewEnvelope(TypeOrderPaid, "o", OrderPaidPayload{})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), env))
	require.NoError(t, p.Publish(context.Background(), env))
	p.Close()
	p.WaitClosed()

	assert.Len(t, w.msgs, 2)
}

func TestCarrier(t *testing.T) {
	msg := &kafka.Message{}
	c := NewMessageCarrier(msg)
	c.Set("traceparent", "a")
	c.Set("traceparent", "b")
	assert.Equal(t, "b", c.Get("traceparent"))
	assert.Equal(t, []string{"traceparent"}, c.Keys())
	assert.Empty(t, c.Get("missing"))
}
