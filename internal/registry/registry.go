// Package registry holds the declared items of one generation run.
//
// Items are keyed "<typeName>!<itemName>". The registry is created at the
// start of a run, filled by the type handlers while modules are scanned, and
// read back when code is generated. Nothing is persisted across runs.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/conneroisu/jopilink/internal/errors"
	"github.com/conneroisu/jopilink/internal/types"
)

// KeySeparator separates the type name from the item name in a key.
const KeySeparator = "!"

// Handler is the minimal capability of a declaration type handler.
type Handler interface {
	TypeName() string
}

// Item is implemented by every registered value.
type Item interface {
	Handler() Handler
	ItemPath() string
	Priority() types.PriorityLevel
}

// Merger is implemented by handlers defining what happens when the same key is
// registered twice. The returned item replaces the existing one.
type Merger interface {
	MergeItem(key string, existing, incoming Item) (Item, error)
}

// Entry is a key and its item.
type Entry struct {
	Key  string
	Item Item
}

// Registry manages all declared items
type Registry struct {
	items map[string]Item
	mutex sync.RWMutex
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		items: make(map[string]Item),
	}
}

// Key builds a registry key.
func Key(typeName, itemName string) string {
	return typeName + KeySeparator + itemName
}

// SplitKey returns the type and item parts of a key.
func SplitKey(key string) (typeName, itemName string, ok bool) {
	return strings.Cut(key, KeySeparator)
}

// ItemName returns the part of the key after the separator.
func ItemName(key string) string {
	_, name, ok := SplitKey(key)
	if !ok {
		return key
	}

	return name
}

// AddItem inserts item under key. When the key already exists, items from
// another handler are a type mismatch, handlers implementing Merger merge, and
// anything else is a duplicate declaration. The merge runs under the registry
// lock.
func (r *Registry) AddItem(key string, item Item) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, exists := r.items[key]
	if !exists {
		r.items[key] = item
		return nil
	}

	if existing.Handler() != item.Handler() {
		return errors.ErrTypeMismatch(
			fmt.Sprintf("%s is already declared by type %s", key, existing.Handler().TypeName()),
			item.ItemPath(), existing.ItemPath())
	}

	merger, ok := item.Handler().(Merger)
	if !ok {
		return errors.ErrDuplicate(key, item.ItemPath(), existing.ItemPath())
	}

	merged, err := merger.MergeItem(key, existing, item)
	if err != nil {
		return err
	}

	r.items[key] = merged

	return nil
}

// GetItem returns the item registered under key.
func (r *Registry) GetItem(key string) (Item, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	item, ok := r.items[key]
	return item, ok
}

// RequireItem returns the item registered under key or a NotFound declaration
// error attributed to fromPath.
func (r *Registry) RequireItem(key, fromPath string) (Item, error) {
	item, ok := r.GetItem(key)
	if !ok {
		return nil, errors.ErrNotFound(key, fromPath)
	}

	return item, nil
}

// Keys returns all keys, sorted.
func (r *Registry) Keys() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	keys := make([]string, 0, len(r.items))
	for key := range r.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

// ItemsOf returns the entries owned by handler, sorted by key.
func (r *Registry) ItemsOf(handler Handler) []Entry {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var entries []Entry
	for key, item := range r.items {
		if item.Handler() == handler {
			entries = append(entries, Entry{Key: key, Item: item})
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	return entries
}

// Count returns the number of registered items
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.items)
}
