package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/jopilink/internal/errors"
	"github.com/conneroisu/jopilink/internal/types"
)

type testHandler struct{ name string }

func (h *testHandler) TypeName() string { return h.name }

type mergingHandler struct{ testHandler }

func (h *mergingHandler) MergeItem(_ string, existing, incoming Item) (Item, error) {
	if incoming.Priority() > existing.Priority() {
		return incoming, nil
	}
	return existing, nil
}

type testItem struct {
	handler  Handler
	path     string
	priority types.PriorityLevel
}

func (i *testItem) Handler() Handler              { return i.handler }
func (i *testItem) ItemPath() string              { return i.path }
func (i *testItem) Priority() types.PriorityLevel { return i.priority }

func TestKeyHelpers(t *testing.T) {
	key := Key("uiComponents", "button")
	assert.Equal(t, "uiComponents!button", key)

	typeName, name, ok := SplitKey(key)
	assert.True(t, ok)
	assert.Equal(t, "uiComponents", typeName)
	assert.Equal(t, "button", name)

	assert.Equal(t, "button", ItemName(key))
	assert.Equal(t, "plain", ItemName("plain"))
}

func TestRegistry_AddAndGet(t *testing.T) {
	reg := New()
	handler := &testHandler{name: "uiComponents"}
	item := &testItem{handler: handler, path: "src/mod_a/@alias/uiComponents/button"}

	require.NoError(t, reg.AddItem("uiComponents!button", item))

	got, ok := reg.GetItem("uiComponents!button")
	assert.True(t, ok)
	assert.Same(t, item, got)
	assert.Equal(t, 1, reg.Count())

	_, ok = reg.GetItem("uiComponents!missing")
	assert.False(t, ok)
}

func TestRegistry_RequireItem(t *testing.T) {
	reg := New()

	_, err := reg.RequireItem("uiComponents!missing", "src/mod_a/@alias/uiComposites/menu/item")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	assert.Contains(t, err.Error(), "src/mod_a/@alias/uiComposites/menu/item")
}

func TestRegistry_DuplicateWithoutMerger(t *testing.T) {
	reg := New()
	handler := &testHandler{name: "schemes"}

	require.NoError(t, reg.AddItem("schemes!user", &testItem{handler: handler, path: "a"}))
	err := reg.AddItem("schemes!user", &testItem{handler: handler, path: "b"})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDuplicate))
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b:")
}

func TestRegistry_TypeMismatch(t *testing.T) {
	reg := New()
	first := &testHandler{name: "uiComponents"}
	second := &mergingHandler{testHandler{name: "uiComponents"}}

	require.NoError(t, reg.AddItem("uiComponents!button", &testItem{handler: first, path: "a"}))
	err := reg.AddItem("uiComponents!button", &testItem{handler: second, path: "b"})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTypeMismatch))
}

func TestRegistry_Merge(t *testing.T) {
	reg := New()
	handler := &mergingHandler{testHandler{name: "shadCN"}}

	low := &testItem{handler: handler, path: "low"}
	high := &testItem{handler: handler, path: "high", priority: types.PriorityHigh}

	require.NoError(t, reg.AddItem("shadCN!shadUI/button", low))
	require.NoError(t, reg.AddItem("shadCN!shadUI/button", high))

	got, _ := reg.GetItem("shadCN!shadUI/button")
	assert.Same(t, high, got)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistry_KeysAndItemsOf(t *testing.T) {
	reg := New()
	a := &testHandler{name: "a"}
	b := &testHandler{name: "b"}

	require.NoError(t, reg.AddItem("b!2", &testItem{handler: b}))
	require.NoError(t, reg.AddItem("a!2", &testItem{handler: a}))
	require.NoError(t, reg.AddItem("a!1", &testItem{handler: a}))

	assert.Equal(t, []string{"a!1", "a!2", "b!2"}, reg.Keys())

	entries := reg.ItemsOf(a)
	require.Len(t, entries, 2)
	assert.Equal(t, "a!1", entries[0].Key)
	assert.Equal(t, "a!2", entries[1].Key)
}

func TestRegistry_ConcurrentAdd(t *testing.T) {
	reg := New()
	handler := &testHandler{name: "uiComponents"}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = reg.AddItem(fmt.Sprintf("uiComponents!c%d", i), &testItem{handler: handler})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, reg.Count())
}
