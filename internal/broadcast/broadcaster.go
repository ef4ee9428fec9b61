// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package broadcast fans out resource-change notifications to connected
// live-update subscribers. Delivery is at-most-once and best-effort: there
// is no replay buffer, no acknowledgment, and a failed or slow subscriber
// never stalls delivery to the others.
package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Event names pushed to subscribers. Public pages re-fetch the named
// resource when one arrives.
const (
	EventProjectsUpdated = "projects.updated"
	EventSettingsUpdated = "settings.updated"
)

// subscriberBuffer is the per-subscriber send queue size. A subscriber
// that falls this many messages behind is dropped.
const subscriberBuffer = 16

// Message is the wire envelope serialized into each push frame.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Subscriber is a live handle for one open push channel. It exists only
// for the lifetime of the underlying connection and is never persisted.
type Subscriber struct {
	ch chan []byte
}

// C returns the channel the subscriber reads serialized frames from.
// The channel is closed when the subscriber is removed from the registry.
func (s *Subscriber) C() <-chan []byte {
	return s.ch
}

// Broadcaster owns the registry of open push channels.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	logger *slog.Logger
}

// New creates an empty broadcaster.
func New(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subs:   make(map[*Subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers a new push channel. The caller must arrange for
// Unsubscribe to run when the underlying connection closes.
func (b *Broadcaster) Subscribe() *Subscriber {
	sub := &Subscriber{ch: make(chan []byte, subscriberBuffer)}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	total := len(b.subs)
	b.mu.Unlock()

	b.logger.Debug("subscriber connected", "total_subscribers", total)
	return sub
}

// Unsubscribe removes a channel from the registry and closes it.
// Safe to call more than once for the same subscriber.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
	total := len(b.subs)
	b.mu.Unlock()

	b.logger.Debug("subscriber disconnected", "total_subscribers", total)
}

// SubscriberCount returns the number of currently open channels.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Broadcast serializes the event once and writes it to every registered
// channel. A subscriber whose queue is full is dropped from the registry
// and its channel closed; the failure never aborts delivery to the rest.
// Serialization errors are logged and swallowed: fan-out is a convenience
// layer, the mutation that triggered it has already committed.
func (b *Broadcaster) Broadcast(event string, data any) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		b.logger.Error("failed to marshal broadcast payload", "event", event, "error", err)
		return
	}

	b.mu.Lock()
	var dropped []*Subscriber
	for sub := range b.subs {
		select {
		case sub.ch <- payload:
		default:
			// Consumer is not draining its queue; drop it rather than block.
			dropped = append(dropped, sub)
		}
	}
	for _, sub := range dropped {
		delete(b.subs, sub)
		close(sub.ch)
	}
	delivered := len(b.subs)
	b.mu.Unlock()

	if len(dropped) > 0 {
		b.logger.Warn("dropped slow subscribers during broadcast",
			"event", event, "dropped", len(dropped))
	}
	b.logger.Debug("event broadcast", "event", event, "subscribers", delivered)
}

// Timestamped wraps a payload with the update time, used for
// settings.updated events.
type Timestamped struct {
	UpdatedAt time.Time `json:"updatedAt"`
}
