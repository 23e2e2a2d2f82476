package model

import "time"

// DefaultListName is the reserved name of the list served at "/". It cannot
// be created through the named-list route.
const DefaultListName = "List"

type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type List struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultItemNames seed every newly created list, in this order.
var DefaultItemNames = []string{
	"Welcome to your to do list!",
	"Hit the + button to add a new item.",
	"<-- Hit this to delete an item.",
}

// ListPage is everything the list template needs.
type ListPage struct {
	DayLabel string
	ListName string
	Items    []Item
}

type AddItemRequest struct {
	ListName string
	ItemName string
}

type DeleteItemRequest struct {
	ListName string
	ItemID   string
}
