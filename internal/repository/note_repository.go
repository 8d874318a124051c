package repository

import (
	"birthday-notes-be/internal/entity"
	"birthday-notes-be/internal/pkg/serverutils"
	"birthday-notes-be/pkg/database"
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type INoteRepository interface {
	UsingTx(ctx context.Context, tx database.DatabaseQueryer) INoteRepository
	Create(ctx context.Context, note *entity.Note) error
	GetAll(ctx context.Context) ([]*entity.Note, error)
	GetById(ctx context.Context, id uuid.UUID) (*entity.Note, error)
	ExistsByContent(ctx context.Context, message, signature string, excludeId uuid.UUID) (bool, error)
	Update(ctx context.Context, note *entity.Note) error
	DeleteById(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}

type noteRepository struct {
	db database.DatabaseQueryer
}

func NewNoteRepository(db database.DatabaseQueryer) INoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) UsingTx(ctx context.Context, tx database.DatabaseQueryer) INoteRepository {
	return &noteRepository{db: tx}
}

func (r *noteRepository) Create(ctx context.Context, note *entity.Note) error {
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO note (id, message, signature, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		note.Id,
		note.Message,
		note.Signature,
		note.CreatedAt,
		note.UpdatedAt,
	)
	return err
}

func (r *noteRepository) GetAll(ctx context.Context) ([]*entity.Note, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, message, signature, created_at, updated_at FROM note ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]*entity.Note, 0)
	for rows.Next() {
		var note entity.Note
		err = rows.Scan(
			&note.Id,
			&note.Message,
			&note.Signature,
			&note.CreatedAt,
			&note.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		res = append(res, &note)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return res, nil
}

func (r *noteRepository) GetById(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	row := r.db.QueryRow(
		ctx,
		`SELECT id, message, signature, created_at, updated_at FROM note WHERE id = $1`,
		id,
	)

	var note entity.Note
	err := row.Scan(
		&note.Id,
		&note.Message,
		&note.Signature,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serverutils.ErrNotFound
		}
		return nil, err
	}

	return &note, nil
}

func (r *noteRepository) ExistsByContent(ctx context.Context, message, signature string, excludeId uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM note WHERE message = $1 AND signature = $2 AND id <> $3)`,
		message,
		signature,
		excludeId,
	).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *noteRepository) Update(ctx context.Context, note *entity.Note) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE note SET message = $1, signature = $2, updated_at = $3 WHERE id = $4`,
		note.Message,
		note.Signature,
		note.UpdatedAt,
		note.Id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return serverutils.ErrNotFound
	}

	return nil
}

func (r *noteRepository) DeleteById(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM note WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return serverutils.ErrNotFound
	}

	return nil
}

func (r *noteRepository) Ping(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `SELECT 1`)
	return err
}
