// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package broadcast

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func recv(t *testing.T, sub *Subscriber) Message {
	t.Helper()
	select {
	case raw, ok := <-sub.C():
		if !ok {
			t.Fatal("subscriber channel closed unexpectedly")
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("invalid frame %q: %v", raw, err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
	return Message{}
}

func TestBroadcast_DeliversToAllSubscribers(t *testing.T) {
	b := New(nil)
	a := b.Subscribe()
	c := b.Subscribe()

	b.Broadcast(EventProjectsUpdated, nil)

	for _, sub := range []*Subscriber{a, c} {
		msg := recv(t, sub)
		if msg.Event != EventProjectsUpdated {
			t.Errorf("event = %q, want %q", msg.Event, EventProjectsUpdated)
		}
	}
}

func TestBroadcast_PayloadRoundTrips(t *testing.T) {
	b := New(nil)
	sub := b.Subscribe()

	now := time.Now().UTC().Truncate(time.Second)
	b.Broadcast(EventSettingsUpdated, Timestamped{UpdatedAt: now})

	msg := recv(t, sub)
	if msg.Event != EventSettingsUpdated {
		t.Fatalf("event = %q, want %q", msg.Event, EventSettingsUpdated)
	}
	data, ok := msg.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %T, want object", msg.Data)
	}
	if _, ok := data["updatedAt"]; !ok {
		t.Error("settings.updated payload missing updatedAt")
	}
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	b := New(nil)
	sub := b.Subscribe()
	b.Unsubscribe(sub)

	b.Broadcast(EventProjectsUpdated, nil)

	if _, ok := <-sub.C(); ok {
		t.Error("unsubscribed channel received an event")
	}
	if n := b.SubscriberCount(); n != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", n)
	}
}

func TestUnsubscribe_Twice(t *testing.T) {
	b := New(nil)
	sub := b.Subscribe()
	b.Unsubscribe(sub)
	b.Unsubscribe(sub) // must not panic on double close
}

func TestBroadcast_NoReplayForLateSubscriber(t *testing.T) {
	b := New(nil)
	b.Broadcast(EventProjectsUpdated, nil)

	late := b.Subscribe()
	select {
	case raw := <-late.C():
		t.Errorf("late subscriber received replayed event: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcast_DropsDeadSubscriberKeepsLive(t *testing.T) {
	b := New(nil)

	// Dead subscriber: never drained, fill its queue.
	dead := b.Subscribe()
	for i := 0; i < subscriberBuffer; i++ {
		b.Broadcast(EventProjectsUpdated, nil)
	}

	live := b.Subscribe()
	b.Broadcast(EventSettingsUpdated, nil)

	// Live subscriber still gets the event.
	msg := recv(t, live)
	if msg.Event != EventSettingsUpdated {
		t.Errorf("event = %q, want %q", msg.Event, EventSettingsUpdated)
	}

	// Dead subscriber was dropped and its channel closed after draining.
	if n := b.SubscriberCount(); n != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", n)
	}
	drained := 0
	for range dead.C() {
		drained++
	}
	if drained != subscriberBuffer {
		t.Errorf("dead subscriber drained %d frames, want %d", drained, subscriberBuffer)
	}
}

func TestBroadcast_ConcurrentSubscribeAndBroadcast(t *testing.T) {
	b := New(nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := b.Subscribe()
			b.Unsubscribe(sub)
		}()
		go func() {
			defer wg.Done()
			b.Broadcast(EventProjectsUpdated, nil)
		}()
	}
	wg.Wait()
}
