package entity

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	Id        uuid.UUID
	Message   string
	Signature string
	CreatedAt time.Time
	UpdatedAt time.Time
}
