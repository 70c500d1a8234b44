// Package bus decouples chat channels from the extraction pipeline.
package bus

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrBusClosed is returned when publishing to a closed MessageBus.
var ErrBusClosed = errors.New("message bus closed")

// DefaultBufferSize is the capacity of each direction's queue.
const DefaultBufferSize = 100

type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
	done     chan struct{}
	closed   atomic.Bool
}

func NewMessageBus() *MessageBus {
	return NewMessageBusSize(DefaultBufferSize)
}

// NewMessageBusSize creates a bus whose queues hold size messages each.
func NewMessageBusSize(size int) *MessageBus {
	if size < 0 {
		size = 0
	}
	return &MessageBus{
		inbound:  make(chan InboundMessage, size),
		outbound: make(chan OutboundMessage, size),
		done:     make(chan struct{}),
	}
}

func (mb *MessageBus) PublishInbound(ctx context.Context, msg InboundMessage) error {
	return publish(ctx, mb, mb.inbound, msg)
}

func (mb *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	return consume(ctx, mb, mb.inbound)
}

func (mb *MessageBus) PublishOutbound(ctx context.Context, msg OutboundMessage) error {
	return publish(ctx, mb, mb.outbound, msg)
}

func (mb *MessageBus) SubscribeOutbound(ctx context.Context) (OutboundMessage, bool) {
	return consume(ctx, mb, mb.outbound)
}

func (mb *MessageBus) Close() {
	if mb.closed.CompareAndSwap(false, true) {
		close(mb.done)
	}
}

func publish[T any](ctx context.Context, mb *MessageBus, ch chan<- T, msg T) error {
	if mb.closed.Load() {
		return ErrBusClosed
	}
	select {
	case ch <- msg:
		return nil
	case <-mb.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func consume[T any](ctx context.Context, mb *MessageBus, ch <-chan T) (T, bool) {
	var zero T
	select {
	case msg, ok := <-ch:
		return msg, ok
	case <-mb.done:
		return zero, false
	case <-ctx.Done():
		return zero, false
	}
}
