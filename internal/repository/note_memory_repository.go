package repository

import (
	"birthday-notes-be/internal/entity"
	"birthday-notes-be/internal/pkg/serverutils"
	"birthday-notes-be/pkg/database"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// noteMemoryRepository keeps notes in process memory. It is used when no
// database is configured and as the store behind service tests.
type noteMemoryRepository struct {
	mu    sync.RWMutex
	notes map[uuid.UUID]entity.Note
}

func NewNoteMemoryRepository() INoteRepository {
	return &noteMemoryRepository{notes: make(map[uuid.UUID]entity.Note)}
}

// UsingTx returns the same repository; every call already runs under the mutex.
func (r *noteMemoryRepository) UsingTx(ctx context.Context, tx database.DatabaseQueryer) INoteRepository {
	return r
}

func (r *noteMemoryRepository) Create(ctx context.Context, note *entity.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[note.Id] = *note
	return nil
}

func (r *noteMemoryRepository) GetAll(ctx context.Context) ([]*entity.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	res := make([]*entity.Note, 0, len(r.notes))
	for _, note := range r.notes {
		n := note
		res = append(res, &n)
	}
	r.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.Before(res[j].CreatedAt)
		}
		return res[i].Id.String() < res[j].Id.String()
	})

	return res, nil
}

func (r *noteMemoryRepository) GetById(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	note, ok := r.notes[id]
	if !ok {
		return nil, serverutils.ErrNotFound
	}
	return &note, nil
}

func (r *noteMemoryRepository) ExistsByContent(ctx context.Context, message, signature string, excludeId uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, note := range r.notes {
		if id != excludeId && note.Message == message && note.Signature == signature {
			return true, nil
		}
	}
	return false, nil
}

func (r *noteMemoryRepository) Update(ctx context.Context, note *entity.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.notes[note.Id]
	if !ok {
		return serverutils.ErrNotFound
	}

	existing.Message = note.Message
	existing.Signature = note.Signature
	existing.UpdatedAt = note.UpdatedAt
	r.notes[note.Id] = existing
	return nil
}

func (r *noteMemoryRepository) DeleteById(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notes[id]; !ok {
		return serverutils.ErrNotFound
	}
	delete(r.notes, id)
	return nil
}

func (r *noteMemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
