package service

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"sync"
	"testing"

	"todolist/internal/todo/model"
	"todolist/internal/todo/repository"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHub struct {
	mu     sync.Mutex
	events []model.ListEvent
}

func (h *recordingHub) Publish(event model.ListEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *recordingHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, e := range h.events {
		out = append(out, e.Type+":"+e.ListName)
	}
	return out
}

// brokenStore fails every write, like a dropped database connection.
type brokenStore struct {
	*repository.MemoryRepository
}

func (brokenStore) AppendItemToList(context.Context, string, model.Item) error {
	return &model.StorageError{Op: "append item", Err: driver.ErrBadConn}
}

func (brokenStore) FindListByName(context.Context, string) (*model.List, error) {
	return nil, &model.StorageError{Op: "find list", Err: driver.ErrBadConn}
}

func newService() (*TodoService, *repository.MemoryRepository, *recordingHub) {
	repo := repository.NewMemoryRepository()
	hub := &recordingHub{}
	return NewTodoService(repo, hub), repo, hub
}

var ignoreIDs = cmpopts.IgnoreFields(model.Item{}, "ID")

func defaultItemsWithoutIDs() []model.Item {
	var items []model.Item
	for _, name := range model.DefaultItemNames {
		items = append(items, model.Item{Name: name})
	}
	return items
}

func TestNormalizeListName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"home", "Home"},
		{"Home", "Home"},
		{"hOME", "HOME"},
		{"  groceries ", "Groceries"},
		{"école", "École"},
		{"2024 goals", "2024 goals"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeListName(tt.raw))
		})
	}
}

func TestPartialNormalizationKeepsCaseOfTail(t *testing.T) {
	assert.Equal(t, NormalizeListName("home"), NormalizeListName("Home"))
	assert.NotEqual(t, NormalizeListName("hOME"), NormalizeListName("Home"))
}

func TestListPath(t *testing.T) {
	assert.Equal(t, "/", ListPath("List"))
	assert.Equal(t, "/", ListPath("list"))
	assert.Equal(t, "/Work", ListPath("work"))
	assert.Equal(t, "/Weekend%20plans", ListPath("weekend plans"))
}

func TestDefaultItemsHaveFreshIDs(t *testing.T) {
	a, b := DefaultItems(), DefaultItems()
	require.Len(t, a, 3)
	for i := range a {
		assert.NotEqual(t, a[i].ID, b[i].ID)
		_, err := uuid.Parse(a[i].ID)
		assert.NoError(t, err)
	}
	if diff := cmp.Diff(defaultItemsWithoutIDs(), a, ignoreIDs); diff != "" {
		t.Errorf("default items mismatch (-want +got):\n%s", diff)
	}
}

func TestGetDefaultListSeedsOnce(t *testing.T) {
	svc, _, hub := newService()
	ctx := context.Background()

	items, created, err := svc.GetDefaultList(ctx)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, items)

	items, created, err = svc.GetDefaultList(ctx)
	require.NoError(t, err)
	assert.False(t, created)
	if diff := cmp.Diff(defaultItemsWithoutIDs(), items, ignoreIDs); diff != "" {
		t.Errorf("default list mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"LIST_CREATED:List"}, hub.types())
}

func TestDefaultListIsNotReseededAfterEmptying(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, _, err := svc.GetDefaultList(ctx)
	require.NoError(t, err)
	items, _, err := svc.GetDefaultList(ctx)
	require.NoError(t, err)

	for _, item := range items {
		require.NoError(t, svc.DeleteItem(ctx, model.DeleteItemRequest{ListName: "List", ItemID: item.ID}))
	}

	items, created, err := svc.GetDefaultList(ctx)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, items)
}

func TestGetOrCreateListIsIdempotent(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()

	list, created, err := svc.GetOrCreateList(ctx, "groceries")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, list)
	assert.Equal(t, 1, repo.Len())

	first, created, err := svc.GetOrCreateList(ctx, "Groceries")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Groceries", first.Name)
	assert.Len(t, first.Items, 3)

	second, created, err := svc.GetOrCreateList(ctx, "groceries")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, 1, repo.Len())
}

func TestGetOrCreateListRejectsReservedAndBlank(t *testing.T) {
	svc, repo, _ := newService()

	_, _, err := svc.GetOrCreateList(context.Background(), "list")
	assert.ErrorIs(t, err, model.ErrValidationFailed)

	_, _, err = svc.GetOrCreateList(context.Background(), "   ")
	assert.ErrorIs(t, err, model.ErrValidationFailed)
	assert.Zero(t, repo.Len())
}

func TestAddItemToNamedList(t *testing.T) {
	svc, _, hub := newService()
	ctx := context.Background()

	_, _, err := svc.GetOrCreateList(ctx, "Work")
	require.NoError(t, err)

	item, err := svc.AddItem(ctx, model.AddItemRequest{ListName: "Work", ItemName: "  Ship it "})
	require.NoError(t, err)
	assert.Equal(t, "Ship it", item.Name)

	list, _, err := svc.GetOrCreateList(ctx, "Work")
	require.NoError(t, err)
	require.Len(t, list.Items, 4)
	assert.Equal(t, item, list.Items[3])

	hub.mu.Lock()
	last := hub.events[len(hub.events)-1]
	hub.mu.Unlock()
	assert.Equal(t, model.ItemAddedType, last.Type)
	var payload model.Item
	require.NoError(t, json.Unmarshal(last.Payload, &payload))
	assert.Equal(t, item, payload)
}

func TestAddItemToDefaultListSeedsFirst(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, model.AddItemRequest{ListName: "List", ItemName: "Buy milk"})
	require.NoError(t, err)

	items, created, err := svc.GetDefaultList(ctx)
	require.NoError(t, err)
	assert.False(t, created)
	require.Len(t, items, 4)
	assert.Equal(t, "Buy milk", items[3].Name)
}

func TestAddItemValidation(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, model.AddItemRequest{ListName: "Work", ItemName: "   "})
	assert.ErrorIs(t, err, model.ErrValidationFailed)

	_, err = svc.AddItem(ctx, model.AddItemRequest{ListName: "", ItemName: "x"})
	assert.ErrorIs(t, err, model.ErrValidationFailed)

	_, err = svc.AddItem(ctx, model.AddItemRequest{ListName: "Ghost", ItemName: "x"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAddItemStorageFailure(t *testing.T) {
	svc := NewTodoService(brokenStore{repository.NewMemoryRepository()}, nil)

	_, err := svc.AddItem(context.Background(), model.AddItemRequest{ListName: "Work", ItemName: "x"})
	assert.ErrorIs(t, err, model.ErrStorageUnavailable)

	_, _, err = svc.GetOrCreateList(context.Background(), "Work")
	assert.ErrorIs(t, err, model.ErrStorageUnavailable)
}

func TestDeleteUnknownItemIsNoop(t *testing.T) {
	svc, _, hub := newService()
	ctx := context.Background()

	_, _, err := svc.GetOrCreateList(ctx, "Work")
	require.NoError(t, err)
	before, _, err := svc.GetOrCreateList(ctx, "Work")
	require.NoError(t, err)
	eventsBefore := len(hub.types())

	err = svc.DeleteItem(ctx, model.DeleteItemRequest{ListName: "Work", ItemID: uuid.NewString()})
	require.NoError(t, err)

	after, _, err := svc.GetOrCreateList(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, before.Items, after.Items)
	assert.Len(t, hub.types(), eventsBefore)
}

func TestDeleteItemFromNamedList(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, _, err := svc.GetOrCreateList(ctx, "Work")
	require.NoError(t, err)
	list, _, err := svc.GetOrCreateList(ctx, "Work")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(ctx, model.DeleteItemRequest{ListName: "work", ItemID: list.Items[1].ID}))

	after, _, err := svc.GetOrCreateList(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, []model.Item{list.Items[0], list.Items[2]}, after.Items)
}

func TestDeleteItemValidation(t *testing.T) {
	svc, _, _ := newService()

	err := svc.DeleteItem(context.Background(), model.DeleteItemRequest{ListName: "Work"})
	assert.ErrorIs(t, err, model.ErrValidationFailed)

	err = svc.DeleteItem(context.Background(), model.DeleteItemRequest{ListName: "Work", ItemID: "not-a-uuid"})
	assert.ErrorIs(t, err, model.ErrValidationFailed)
}

func TestRejectsTextTheDatabaseCannotStore(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()

	_, _, err := svc.GetOrCreateList(ctx, "Work")
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, model.AddItemRequest{ListName: "Work", ItemName: "milk\x00"})
	assert.ErrorIs(t, err, model.ErrValidationFailed)

	_, err = svc.AddItem(ctx, model.AddItemRequest{ListName: "Work", ItemName: "milk\xff"})
	assert.ErrorIs(t, err, model.ErrValidationFailed)

	_, _, err = svc.GetOrCreateList(ctx, "Wo\x00rk")
	assert.ErrorIs(t, err, model.ErrValidationFailed)
	assert.Equal(t, 1, repo.Len())

	err = svc.DeleteItem(ctx, model.DeleteItemRequest{ListName: "Wo\x00rk", ItemID: uuid.NewString()})
	assert.ErrorIs(t, err, model.ErrValidationFailed)

	list, _, err := svc.GetOrCreateList(ctx, "Work")
	require.NoError(t, err)
	assert.Len(t, list.Items, 3)
}
