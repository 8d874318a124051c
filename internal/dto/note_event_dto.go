package dto

import "github.com/google/uuid"

type PublishNoteChangedMessage struct {
	NoteId uuid.UUID `json:"note_id"`
	Action string    `json:"action"`
}
