package model

import "encoding/json"

const (
	SnapshotType    = "SNAPSHOT"     // Full list state, sent on join
	ItemAddedType   = "ITEM_ADDED"   // An item was appended
	ItemDeletedType = "ITEM_DELETED" // An item was pulled
	ListCreatedType = "LIST_CREATED" // A list was created with the default items
)

// ListEvent is the message pushed to browsers viewing a list.
type ListEvent struct {
	Type     string          `json:"type"`
	ListName string          `json:"list_name"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}
