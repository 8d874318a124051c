package serverutils

import "birthday-notes-be/internal/dto"

const (
	MessageNoteNotFound       = "Note not found."
	MessageDuplicateNote      = "Note cannot be updated as a note with these details already exists."
	MessageArchiveUnavailable = "Notes archive is not available."
	MessageInvalidBody        = "Invalid request body."
	MessageInternal           = "Something went wrong on our end, please try again later."
	MessageNoteDeleted        = "Note deleted successfully."
)

func ErrorResponse(message string) dto.MessageResponse {
	return dto.MessageResponse{Message: message}
}

func MessageResponse(message string) dto.MessageResponse {
	return dto.MessageResponse{Message: message}
}
