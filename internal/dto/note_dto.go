package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateNoteRequest struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// UpdateNoteRequest carries optional fields; nil means "keep the stored value".
type UpdateNoteRequest struct {
	Id        uuid.UUID `json:"-"`
	Message   *string   `json:"message,omitempty"`
	Signature *string   `json:"signature,omitempty"`
}

type NoteResponse struct {
	Id        uuid.UUID `json:"_id"`
	Message   string    `json:"message"`
	Signature string    `json:"signature"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type DownloadNoteResponse struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ArchiveLinkResponse struct {
	Url string `json:"url"`
	Key string `json:"key"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
