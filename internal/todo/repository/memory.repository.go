package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"todolist/internal/todo/model"
)

// MemoryRepository keeps lists in process memory. It backs `serve
// --in-memory` and the handler tests; state is lost on restart.
type MemoryRepository struct {
	mu    sync.Mutex
	lists map[string]*model.List
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		lists: make(map[string]*model.List),
		now:   time.Now,
	}
}

func (r *MemoryRepository) Ping(ctx context.Context) error { return live(ctx, "ping") }

// live reports a cancelled or expired context the same way the SQL
// repository reports a failed driver call.
func live(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return &model.StorageError{Op: op, Err: err}
	}
	return nil
}

func (r *MemoryRepository) FindListByName(ctx context.Context, name string) (*model.List, error) {
	if err := live(ctx, "find list"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.lists[name]
	if !ok {
		return nil, model.ErrNotFound
	}
	return cloneList(list), nil
}

func (r *MemoryRepository) CreateList(ctx context.Context, id, name string, items []model.Item) (bool, error) {
	if err := live(ctx, "create list"); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lists[name]; ok {
		return false, nil
	}
	now := r.now()
	r.lists[name] = &model.List{
		ID:        id,
		Name:      name,
		Items:     append([]model.Item{}, items...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return true, nil
}

func (r *MemoryRepository) AppendItemToList(ctx context.Context, name string, item model.Item) error {
	if err := live(ctx, "append item"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.lists[name]
	if !ok {
		return model.ErrNotFound
	}
	list.Items = append(list.Items, item)
	list.UpdatedAt = r.now()
	return nil
}

func (r *MemoryRepository) DeleteItemFromList(ctx context.Context, name, itemID string) (bool, error) {
	if err := live(ctx, "delete item"); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.lists[name]
	if !ok {
		return false, nil
	}
	for i, item := range list.Items {
		if item.ID == itemID {
			list.Items = append(list.Items[:i:i], list.Items[i+1:]...)
			list.UpdatedAt = r.now()
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) FindAllDefaultItems(ctx context.Context) ([]model.Item, error) {
	list, err := r.FindListByName(ctx, model.DefaultListName)
	if errors.Is(err, model.ErrNotFound) {
		return []model.Item{}, nil
	}
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

func (r *MemoryRepository) InsertDefaultItems(ctx context.Context, id string, items []model.Item) (bool, error) {
	return r.CreateList(ctx, id, model.DefaultListName, items)
}

func (r *MemoryRepository) DeleteDefaultItem(ctx context.Context, itemID string) (bool, error) {
	return r.DeleteItemFromList(ctx, model.DefaultListName, itemID)
}

// Len is the number of stored lists.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lists)
}

func cloneList(l *model.List) *model.List {
	c := *l
	c.Items = append([]model.Item{}, l.Items...)
	return &c
}
