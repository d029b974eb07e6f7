package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// LocalBroker delivers messages to in-process subscribers and logs every
// publish. It is used when no external broker is configured.
type LocalBroker struct {
	logger zerolog.Logger

	mu     sync.RWMutex
	subs   map[string][]chan []byte
	closed bool
}

func NewLocalBroker(logger zerolog.Logger) *LocalBroker {
	return &LocalBroker{
		logger: logger,
		subs:   make(map[string][]chan []byte),
	}
}

// Publish never blocks: a subscriber whose buffer is full misses the message.
func (b *LocalBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("broker closed")
	}

	b.logger.Info().
		Str("channel", channel).
		RawJSON("message", payload).
		Msg("event published")

	for _, ch := range b.subs[channel] {
		select {
		case ch <- payload:
		default:
			b.logger.Warn().Str("channel", channel).Msg("subscriber buffer full, message dropped")
		}
	}
	return nil
}

// Subscribe returns a channel that is closed when ctx ends or the broker closes.
func (b *LocalBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("broker closed")
	}

	ch := make(chan []byte, 100)
	b.subs[channel] = append(b.subs[channel], ch)

	go func() {
		<-ctx.Done()
		b.unsubscribe(channel, ch)
	}()
	return ch, nil
}

func (b *LocalBroker) unsubscribe(channel string, ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[channel]
	for i, c := range subs {
		if c == ch {
			b.subs[channel] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

func (b *LocalBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for channel, subs := range b.subs {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subs, channel)
	}
	return nil
}
