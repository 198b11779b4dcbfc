package entity

import (
	"time"

	"github.com/google/uuid"
)

type ActivityEntry struct {
	Id         int64     `json:"id" db:"id"`
	EntityType string    `json:"entityType" db:"entity_type"`
	EntityId   uuid.UUID `json:"entityId" db:"entity_id"`
	Action     string    `json:"action" db:"action"`
	Actor      string    `json:"actor" db:"actor"`
	Detail     string    `json:"detail" db:"detail"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type ActivityOutputModel struct {
	Action    string `json:"action"`
	Actor     string `json:"actor"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"createdAt"`
}
