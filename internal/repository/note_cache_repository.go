package repository

import (
	"birthday-notes-be/internal/constant"
	"birthday-notes-be/internal/entity"
	"birthday-notes-be/pkg/database"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// noteCacheRepository serves GetAll from Redis and evicts the cached list
// on every write. Redis failures fall back to the wrapped repository.
type noteCacheRepository struct {
	INoteRepository
	redis *redis.Client
	ttl   time.Duration
}

func NewNoteCacheRepository(base INoteRepository, client *redis.Client, ttl time.Duration) INoteRepository {
	if base == nil {
		panic("repository.NewNoteCacheRepository: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	return &noteCacheRepository{
		INoteRepository: base,
		redis:           client,
		ttl:             ttl,
	}
}

func (r *noteCacheRepository) UsingTx(ctx context.Context, tx database.DatabaseQueryer) INoteRepository {
	return &noteCacheRepository{
		INoteRepository: r.INoteRepository.UsingTx(ctx, tx),
		redis:           r.redis,
		ttl:             r.ttl,
	}
}

func (r *noteCacheRepository) GetAll(ctx context.Context) ([]*entity.Note, error) {
	if notes, ok := r.loadFromCache(ctx); ok {
		return notes, nil
	}

	notes, err := r.INoteRepository.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	r.store(ctx, notes)
	return notes, nil
}

func (r *noteCacheRepository) Create(ctx context.Context, note *entity.Note) error {
	if err := r.INoteRepository.Create(ctx, note); err != nil {
		return err
	}

	r.evict(ctx)
	return nil
}

func (r *noteCacheRepository) Update(ctx context.Context, note *entity.Note) error {
	if err := r.INoteRepository.Update(ctx, note); err != nil {
		return err
	}

	r.evict(ctx)
	return nil
}

func (r *noteCacheRepository) DeleteById(ctx context.Context, id uuid.UUID) error {
	if err := r.INoteRepository.DeleteById(ctx, id); err != nil {
		return err
	}

	r.evict(ctx)
	return nil
}

func (r *noteCacheRepository) loadFromCache(ctx context.Context) ([]*entity.Note, bool) {
	if r.redis == nil {
		return nil, false
	}

	data, err := r.redis.Get(ctx, constant.NotesCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warnf("[Cache] failed to read notes: %v", err)
			_ = r.redis.Del(ctx, constant.NotesCacheKey).Err()
		}
		return nil, false
	}

	var notes []*entity.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		_ = r.redis.Del(ctx, constant.NotesCacheKey).Err()
		return nil, false
	}
	return notes, true
}

func (r *noteCacheRepository) store(ctx context.Context, notes []*entity.Note) {
	if r.redis == nil || r.ttl == 0 {
		return
	}

	data, err := json.Marshal(notes)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, constant.NotesCacheKey, data, r.ttl).Err(); err != nil {
		log.Warnf("[Cache] failed to store notes: %v", err)
	}
}

func (r *noteCacheRepository) evict(ctx context.Context) {
	if r.redis == nil {
		return
	}
	if err := r.redis.Del(ctx, constant.NotesCacheKey).Err(); err != nil {
		log.Warnf("[Cache] failed to evict notes: %v", err)
	}
}
