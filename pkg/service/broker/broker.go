// MoonPrint
// Copyright (c) 2026 The MoonPrint Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of MoonPrint.
//
// MoonPrint is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// MoonPrint is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with MoonPrint.  If not, see <http://www.gnu.org/licenses/>.

// Package broker fans printer notifications out to every interested consumer
// (console, logs) without letting any of them hold up the protocol worker.
package broker

import (
	"context"

	"github.com/LiBa001/moonprint/pkg/helpers/syncutil"
	"github.com/LiBa001/moonprint/pkg/notifications"
	"github.com/rs/zerolog/log"
)

// Broker reads a single notification source and copies each event to all
// subscribers. Sends to subscribers are non-blocking.
type Broker struct {
	ctx         context.Context
	source      <-chan notifications.Notification
	subscribers map[int]chan notifications.Notification
	done        chan struct{}
	mu          syncutil.RWMutex
	nextID      int
}

func NewBroker(ctx context.Context, source <-chan notifications.Notification) *Broker {
	return &Broker{
		ctx:         ctx,
		source:      source,
		subscribers: make(map[int]chan notifications.Notification),
		done:        make(chan struct{}),
	}
}

// Start runs the broadcast loop until the source is closed or the context is
// cancelled. Events already queued when the context is cancelled are still
// delivered, then all subscriber channels are closed.
func (b *Broker) Start() {
	go func() {
		defer close(b.done)
		defer b.closeAllSubscribers()
		for {
			select {
			case n, ok := <-b.source:
				if !ok {
					log.Debug().Msg("broker: source channel closed")
					return
				}
				b.broadcast(n)
			case <-b.ctx.Done():
				log.Debug().Msg("broker: context cancelled")
				b.flush()
				return
			}
		}
	}()
}

// flush broadcasts whatever is already queued on the source.
func (b *Broker) flush() {
	for {
		select {
		case n, ok := <-b.source:
			if !ok {
				return
			}
			b.broadcast(n)
		default:
			return
		}
	}
}

// Done is closed once the broadcast loop has exited.
func (b *Broker) Done() <-chan struct{} {
	return b.done
}

func (b *Broker) broadcast(n notifications.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- n:
		default:
			log.Warn().
				Int("subscriber_id", id).
				Str("method", n.Method).
				Msg("subscriber channel full, dropping notification")
		}
	}
}

// Subscribe registers a consumer with room for bufferSize pending events.
func (b *Broker) Subscribe(bufferSize int) (notifChan <-chan notifications.Notification, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id = b.nextID
	b.nextID++

	ch := make(chan notifications.Notification, bufferSize)
	b.subscribers[id] = ch

	log.Debug().Int("subscriber_id", id).Int("buffer_size", bufferSize).Msg("new subscriber registered")

	return ch, id
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are
// ignored.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

func (b *Broker) closeAllSubscribers() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
