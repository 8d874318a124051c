package constant

import "time"

const (
	NoteActionCreated = "created"
	NoteActionUpdated = "updated"
	NoteActionDeleted = "deleted"

	DefaultNoteEventsTopicName = "note.changed"

	ArchiveObjectKey         = "exports/notes.json"
	ArchiveContentType       = "application/json"
	ArchivePresignExpiration = 15 * time.Minute

	NotesCacheKey = "notes:all"
)
