package mq

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
)

const memorySubscriberBuffer = 16

// MemoryBackend delivers messages to in-process subscribers. Messages
// published while a channel has no subscriber, or whose subscriber buffer is
// full, are dropped.
type MemoryBackend struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[string][]chan Message
	closed      bool
	done        chan struct{}
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		subscribers: make(map[string][]chan Message),
		done:        make(chan struct{}),
	}
}

// Publish fans the message out to every subscriber of channel without
// blocking.
func (b *MemoryBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("memory channel is required")
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return "", errors.New("memory backend closed")
	}
	b.nextID++
	msg := Message{
		ID:         strconv.Itoa(b.nextID),
		Data:       append([]byte(nil), data...),
		Attributes: copyAttributes(attrs),
	}
	subs := append([]chan Message(nil), b.subscribers[channel]...)
	b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, sub := range subs {
		select {
		case sub <- msg:
		default:
			// Subscriber buffer full or already gone.
		}
	}
	return msg.ID, nil
}

// Subscribe blocks, handing each message to handler, until ctx is done or the
// backend is closed.
func (b *MemoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("memory channel is required")
	}

	sub := make(chan Message, memorySubscriberBuffer)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.New("memory backend closed")
	}
	b.subscribers[channel] = append(b.subscribers[channel], sub)
	b.mu.Unlock()
	defer b.unsubscribe(channel, sub)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return nil
		case msg := <-sub:
			_ = handler(ctx, msg)
		}
	}
}

// Subscribers returns the number of active subscribers on channel.
func (b *MemoryBackend) Subscribers(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[channel])
}

func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	return nil
}

func (b *MemoryBackend) unsubscribe(channel string, sub chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[channel]
	for i := range subs {
		if subs[i] == sub {
			b.subscribers[channel] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

func copyAttributes(attrs map[string]string) map[string]string {
	if attrs == nil {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
