package entity

import (
	"time"

	"github.com/google/uuid"
)

type Client struct {
	Id        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Company   string    `json:"company" db:"company"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Inquiry struct {
	Id        uuid.UUID `json:"id" db:"id"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Employee struct {
	Id       uuid.UUID `json:"id" db:"id"`
	Username string    `json:"username" db:"username"`
	Role     string    `json:"role" db:"role"`
}
