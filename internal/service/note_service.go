package service

import (
	"birthday-notes-be/internal/constant"
	"birthday-notes-be/internal/dto"
	"birthday-notes-be/internal/entity"
	"birthday-notes-be/internal/pkg/serverutils"
	"birthday-notes-be/internal/repository"
	"birthday-notes-be/internal/validation"
	"birthday-notes-be/pkg/database"
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

type INoteService interface {
	Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.NoteResponse, error)
	GetAll(ctx context.Context) ([]*dto.NoteResponse, error)
	Download(ctx context.Context) ([]*dto.DownloadNoteResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.NoteResponse, error)
	Update(ctx context.Context, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type noteService struct {
	noteRepository   repository.INoteRepository
	publisherService IPublisherService
	db               database.TxBeginner
	now              func() time.Time
}

// NewNoteService wires the service. db may be nil when the store has no
// transactions (the in-memory repository).
func NewNoteService(
	noteRepository repository.INoteRepository,
	publisherService IPublisherService,
	db database.TxBeginner,
) INoteService {
	return &noteService{
		noteRepository:   noteRepository,
		publisherService: publisherService,
		db:               db,
		now:              defaultNow,
	}
}

// Postgres keeps microseconds, so timestamps are truncated to match.
func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (c *noteService) Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.NoteResponse, error) {
	fields, err := validation.ValidateCreate(req.Message, req.Signature)
	if err != nil {
		return nil, err
	}

	now := c.now()
	note := entity.Note{
		Id:        uuid.New(),
		Message:   fields.Message,
		Signature: fields.Signature,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = c.noteRepository.Create(ctx, &note)
	if err != nil {
		return nil, serverutils.WrapStoreError("create note", "Failed to create note.", err)
	}

	c.publish(ctx, note.Id, constant.NoteActionCreated)

	return toNoteResponse(&note), nil
}

func (c *noteService) GetAll(ctx context.Context) ([]*dto.NoteResponse, error) {
	notes, err := c.noteRepository.GetAll(ctx)
	if err != nil {
		return nil, serverutils.WrapStoreError("get notes", "Failed to fetch notes.", err)
	}

	res := make([]*dto.NoteResponse, 0, len(notes))
	for _, note := range notes {
		res = append(res, toNoteResponse(note))
	}

	return res, nil
}

func (c *noteService) Download(ctx context.Context) ([]*dto.DownloadNoteResponse, error) {
	notes, err := c.noteRepository.GetAll(ctx)
	if err != nil {
		return nil, serverutils.WrapStoreError("download notes", "Failed to fetch notes.", err)
	}

	return toDownloadResponse(notes), nil
}

func (c *noteService) Show(ctx context.Context, id uuid.UUID) (*dto.NoteResponse, error) {
	note, err := c.noteRepository.GetById(ctx, id)
	if err != nil {
		return nil, serverutils.WrapStoreError("get note", "Failed to fetch note.", err)
	}

	return toNoteResponse(note), nil
}

// Update applies the supplied fields. The server does not enforce the
// client's edit window.
func (c *noteService) Update(ctx context.Context, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error) {
	if err := validation.RequireUpdateFields(req.Message, req.Signature); err != nil {
		return nil, err
	}

	note, err := c.noteRepository.GetById(ctx, req.Id)
	if err != nil {
		return nil, serverutils.WrapStoreError("get note", "Failed to update note.", err)
	}

	update, err := validation.ValidateUpdate(req.Message, req.Signature)
	if err != nil {
		return nil, err
	}

	if update.Message != nil {
		note.Message = *update.Message
	}
	if update.Signature != nil {
		note.Signature = *update.Signature
	}
	note.UpdatedAt = c.now()

	// check-then-write: two notes converging on the same pair concurrently can both pass
	err = c.withinTx(ctx, func(noteRepository repository.INoteRepository) error {
		exists, err := noteRepository.ExistsByContent(ctx, note.Message, note.Signature, note.Id)
		if err != nil {
			return err
		}
		if exists {
			return serverutils.ErrDuplicateNote
		}

		return noteRepository.Update(ctx, note)
	})
	if err != nil {
		return nil, serverutils.WrapStoreError("update note", "Failed to update note.", err)
	}

	c.publish(ctx, note.Id, constant.NoteActionUpdated)

	return toNoteResponse(note), nil
}

func (c *noteService) Delete(ctx context.Context, id uuid.UUID) error {
	err := c.noteRepository.DeleteById(ctx, id)
	if err != nil {
		return serverutils.WrapStoreError("delete note", "Failed to delete note.", err)
	}

	c.publish(ctx, id, constant.NoteActionDeleted)

	return nil
}

func (c *noteService) withinTx(ctx context.Context, fn func(noteRepository repository.INoteRepository) error) error {
	if c.db == nil {
		return fn(c.noteRepository)
	}

	tx, err := c.db.Begin(ctx)
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(c.noteRepository.UsingTx(ctx, tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// publish never fails the request: the write has already happened.
func (c *noteService) publish(ctx context.Context, id uuid.UUID, action string) {
	payload, err := json.Marshal(dto.PublishNoteChangedMessage{
		NoteId: id,
		Action: action,
	})
	if err != nil {
		log.Errorf("[Publisher] failed to encode %s event for note %s: %v", action, id, err)
		return
	}

	if err := c.publisherService.Publish(ctx, payload); err != nil {
		log.Errorf("[Publisher] failed to publish %s event for note %s: %v", action, id, err)
	}
}

func toNoteResponse(note *entity.Note) *dto.NoteResponse {
	return &dto.NoteResponse{
		Id:        note.Id,
		Message:   note.Message,
		Signature: note.Signature,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

func toDownloadResponse(notes []*entity.Note) []*dto.DownloadNoteResponse {
	res := make([]*dto.DownloadNoteResponse, 0, len(notes))
	for _, note := range notes {
		res = append(res, &dto.DownloadNoteResponse{
			Message:   note.Message,
			Signature: note.Signature,
		})
	}
	return res
}
