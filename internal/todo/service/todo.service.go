package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"todolist/internal/todo/model"
	"todolist/pkg/logger"

	"github.com/google/uuid"
)

// Store is the persistence gateway the service runs against.
type Store interface {
	FindAllDefaultItems(ctx context.Context) ([]model.Item, error)
	InsertDefaultItems(ctx context.Context, id string, items []model.Item) (bool, error)
	FindListByName(ctx context.Context, name string) (*model.List, error)
	CreateList(ctx context.Context, id, name string, items []model.Item) (bool, error)
	AppendItemToList(ctx context.Context, name string, item model.Item) error
	DeleteDefaultItem(ctx context.Context, itemID string) (bool, error)
	DeleteItemFromList(ctx context.Context, name, itemID string) (bool, error)
	Ping(ctx context.Context) error
}

// Publisher receives list change events. The websocket hub implements it.
type Publisher interface {
	Publish(event model.ListEvent)
}

type TodoService struct {
	Repo Store
	Hub  Publisher
}

func NewTodoService(repo Store, hub Publisher) *TodoService {
	return &TodoService{Repo: repo, Hub: hub}
}

// NormalizeListName upper-cases the first character and leaves the rest
// untouched: "home" and "Home" are one list, "hOME" is another.
func NormalizeListName(raw string) string {
	name := strings.TrimSpace(raw)
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// checkText rejects values the database cannot store as text.
func checkText(field, value string) error {
	if strings.ContainsRune(value, 0) {
		return model.Invalid("%s must not contain NUL characters", field)
	}
	if !utf8.ValidString(value) {
		return model.Invalid("%s must be valid UTF-8", field)
	}
	return nil
}

// IsDefaultList reports whether name refers to the list served at "/".
func IsDefaultList(name string) bool {
	return NormalizeListName(name) == model.DefaultListName
}

// ListPath is the URL a list is viewed at.
func ListPath(name string) string {
	if IsDefaultList(name) {
		return "/"
	}
	return "/" + url.PathEscape(NormalizeListName(name))
}

// DefaultItems builds a fresh copy of the seed items with new ids.
func DefaultItems() []model.Item {
	items := make([]model.Item, len(model.DefaultItemNames))
	for i, name := range model.DefaultItemNames {
		items[i] = model.Item{ID: uuid.NewString(), Name: name}
	}
	return items
}

// EnsureDefaultList seeds the default list if it does not exist yet and
// reports whether this call created it. Once it exists it is never re-seeded,
// even after every item has been deleted.
func (s *TodoService) EnsureDefaultList(ctx context.Context) (bool, error) {
	created, err := s.Repo.InsertDefaultItems(ctx, uuid.NewString(), DefaultItems())
	if err != nil {
		return false, fmt.Errorf("seed default list: %w", err)
	}
	if created {
		logger.Sugar.Infof("Successfully inserted default items into %s", model.DefaultListName)
		s.publish(model.ListCreatedType, model.DefaultListName, nil)
	}
	return created, nil
}

// GetDefaultList returns the default list's items, seeding it first if
// needed. created is true when this call did the seeding.
func (s *TodoService) GetDefaultList(ctx context.Context) (items []model.Item, created bool, err error) {
	created, err = s.EnsureDefaultList(ctx)
	if err != nil || created {
		return nil, created, err
	}
	items, err = s.Repo.FindAllDefaultItems(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("find default items: %w", err)
	}
	return items, false, nil
}

// GetOrCreateList looks the normalized name up and, if absent, creates it
// with the default items. created is true when this call created it; list is
// nil in that case.
func (s *TodoService) GetOrCreateList(ctx context.Context, rawName string) (list *model.List, created bool, err error) {
	name := NormalizeListName(rawName)
	if name == "" {
		return nil, false, model.Invalid("list name is required")
	}
	if name == model.DefaultListName {
		return nil, false, model.Invalid("%q is reserved for the default list", name)
	}
	if err := checkText("list name", name); err != nil {
		return nil, false, err
	}

	list, err = s.Repo.FindListByName(ctx, name)
	if err == nil {
		return list, false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, false, fmt.Errorf("find list %s: %w", name, err)
	}

	created, err = s.Repo.CreateList(ctx, uuid.NewString(), name, DefaultItems())
	if err != nil {
		return nil, false, fmt.Errorf("create list %s: %w", name, err)
	}
	if created {
		logger.Sugar.Infof("Successfully created new list: %s", name)
		s.publish(model.ListCreatedType, name, nil)
		return nil, true, nil
	}

	// Lost a creation race to a concurrent request; the list is there now.
	list, err = s.Repo.FindListByName(ctx, name)
	if err != nil {
		return nil, false, fmt.Errorf("find list %s: %w", name, err)
	}
	return list, false, nil
}

// AddItem appends a new item to the target list and returns it.
func (s *TodoService) AddItem(ctx context.Context, req model.AddItemRequest) (model.Item, error) {
	itemName := strings.TrimSpace(req.ItemName)
	if itemName == "" {
		return model.Item{}, model.Invalid("item name is required")
	}
	if err := checkText("item name", itemName); err != nil {
		return model.Item{}, err
	}
	listName := NormalizeListName(req.ListName)
	if listName == "" {
		return model.Item{}, model.Invalid("list name is required")
	}
	if err := checkText("list name", listName); err != nil {
		return model.Item{}, err
	}

	item := model.Item{ID: uuid.NewString(), Name: itemName}

	if listName == model.DefaultListName {
		if _, err := s.EnsureDefaultList(ctx); err != nil {
			return model.Item{}, err
		}
	}
	if err := s.Repo.AppendItemToList(ctx, listName, item); err != nil {
		return model.Item{}, fmt.Errorf("add item to %s: %w", listName, err)
	}

	logger.Sugar.Infof("Successfully inserted item %s into list %s", item.ID, listName)
	s.publish(model.ItemAddedType, listName, item)
	return item, nil
}

// DeleteItem pulls an item from the target list. Unknown ids and lists are a
// silent no-op.
func (s *TodoService) DeleteItem(ctx context.Context, req model.DeleteItemRequest) error {
	itemID := strings.TrimSpace(req.ItemID)
	if itemID == "" {
		return model.Invalid("item id is required")
	}
	if _, err := uuid.Parse(itemID); err != nil {
		return model.Invalid("item id %q is malformed", itemID)
	}
	listName := NormalizeListName(req.ListName)
	if listName == "" {
		return model.Invalid("list name is required")
	}
	if err := checkText("list name", listName); err != nil {
		return err
	}

	var (
		deleted bool
		err     error
	)
	if listName == model.DefaultListName {
		deleted, err = s.Repo.DeleteDefaultItem(ctx, itemID)
	} else {
		deleted, err = s.Repo.DeleteItemFromList(ctx, listName, itemID)
	}
	if err != nil {
		return fmt.Errorf("delete item from %s: %w", listName, err)
	}

	if deleted {
		logger.Sugar.Infof("Successfully deleted item %s from list %s", itemID, listName)
		s.publish(model.ItemDeletedType, listName, model.Item{ID: itemID})
	}
	return nil
}

// Healthy pings the store.
func (s *TodoService) Healthy(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}

func (s *TodoService) publish(eventType, listName string, payload any) {
	if s.Hub == nil {
		return
	}
	event := model.ListEvent{Type: eventType, ListName: listName}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			logger.Sugar.Errorf("Error marshalling %s event: %v", eventType, err)
			return
		}
		event.Payload = raw
	}
	s.Hub.Publish(event)
}
