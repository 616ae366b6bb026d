// Package events is the admission hook mechanism of the linker.
//
// Before a chunk or a list item is committed, its handler publishes a mutable
// event on a topic named after the handler type. Listeners run in
// subscription order, each one completing before the next starts, and may set
// MustSkip to drop the item without error.
package events

import (
	"context"
	"fmt"
	"sync"
)

const (
	// TopicNewChunk prefixes the topic published before a chunk is registered.
	TopicNewChunk = "@jopi.linker.onNewChunk."
	// TopicNewListItem prefixes the topic published before a list item is accepted.
	TopicNewListItem = "@jopi.linker.onNewListItem."
)

// ChunkTopic returns the chunk admission topic of a type.
func ChunkTopic(typeName string) string {
	return TopicNewChunk + typeName
}

// ListItemTopic returns the list item admission topic of a type.
func ListItemTopic(typeName string) string {
	return TopicNewListItem + typeName
}

// Listener receives a published payload. Payloads are pointers the listener
// may mutate in place.
type Listener func(ctx context.Context, payload any) error

// Vetoable is implemented by payloads a listener can drop.
type Vetoable interface {
	Skip()
	Skipped() bool
}

// ChunkEvent is published before a chunk is registered.
type ChunkEvent struct {
	Key      string
	ItemPath string
	// Chunk is the item about to be registered.
	Chunk    any
	MustSkip bool
}

func (e *ChunkEvent) Skip()         { e.MustSkip = true }
func (e *ChunkEvent) Skipped() bool { return e.MustSkip }

// ListItemEvent is published before an item joins its list.
type ListItemEvent struct {
	ItemPath string
	Item     any
	// List points to the items already accepted from the same list
	// directory, a *[]*arobase.ListItem for list handlers.
	List     any
	MustSkip bool
}

func (e *ListItemEvent) Skip()         { e.MustSkip = true }
func (e *ListItemEvent) Skipped() bool { return e.MustSkip }

// Bus dispatches events to listeners keyed by topic.
type Bus struct {
	listeners map[string][]Listener
	mutex     sync.RWMutex
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[string][]Listener),
	}
}

// Subscribe registers a listener for topic.
func (b *Bus) Subscribe(topic string, listener Listener) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.listeners[topic] = append(b.listeners[topic], listener)
}

// Publish runs every listener of topic in order. The first listener error
// stops the dispatch and is returned.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	b.mutex.RLock()
	listeners := make([]Listener, len(b.listeners[topic]))
	copy(listeners, b.listeners[topic])
	b.mutex.RUnlock()

	for i, listener := range listeners {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := listener(ctx, payload); err != nil {
			return fmt.Errorf("listener %d of %s: %w", i, topic, err)
		}
	}

	return nil
}

// HasListeners reports whether anything is subscribed to topic.
func (b *Bus) HasListeners(topic string) bool {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.listeners[topic]) > 0
}
