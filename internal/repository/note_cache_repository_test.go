package repository

import (
	"birthday-notes-be/internal/constant"
	"birthday-notes-be/internal/entity"
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRepository counts GetAll calls that reach the backing store.
type countingRepository struct {
	INoteRepository
	getAllCalls int
	getAllErr   error
}

func (r *countingRepository) GetAll(ctx context.Context) ([]*entity.Note, error) {
	r.getAllCalls++
	if r.getAllErr != nil {
		return nil, r.getAllErr
	}
	return r.INoteRepository.GetAll(ctx)
}

func newCacheFixture(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *countingRepository, INoteRepository) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	base := &countingRepository{INoteRepository: NewNoteMemoryRepository()}
	return mr, base, NewNoteCacheRepository(base, client, ttl)
}

func TestNoteCacheRepository_GetAllMissThenHit(t *testing.T) {
	ctx := context.Background()
	mr, base, cache := newCacheFixture(t, time.Minute)

	note := newNote("Happy birthday", "Bob", 0)
	require.NoError(t, cache.Create(ctx, note))

	first, err := cache.GetAll(ctx)
	require.NoError(t, err)
	second, err := cache.GetAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, base.getAllCalls)
	assert.Equal(t, first, second)
	require.Len(t, second, 1)
	assert.Equal(t, note.Id, second[0].Id)

	ttl := mr.TTL(constant.NotesCacheKey)
	assert.True(t, ttl > 0 && ttl <= time.Minute, "unexpected TTL %v", ttl)
}

func TestNoteCacheRepository_WritesEvict(t *testing.T) {
	ctx := context.Background()
	mr, base, cache := newCacheFixture(t, time.Minute)

	note := newNote("Happy birthday", "Bob", 0)
	require.NoError(t, cache.Create(ctx, note))
	_, err := cache.GetAll(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists(constant.NotesCacheKey))

	note.Signature = "Bobby"
	require.NoError(t, cache.Update(ctx, note))
	assert.False(t, mr.Exists(constant.NotesCacheKey), "update must evict")

	notes, err := cache.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bobby", notes[0].Signature)

	require.NoError(t, cache.DeleteById(ctx, note.Id))
	assert.False(t, mr.Exists(constant.NotesCacheKey), "delete must evict")

	notes, err = cache.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Equal(t, 3, base.getAllCalls)
}

func TestNoteCacheRepository_FailedWriteKeepsCache(t *testing.T) {
	ctx := context.Background()
	mr, _, cache := newCacheFixture(t, time.Minute)

	_, err := cache.GetAll(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists(constant.NotesCacheKey))

	err = cache.DeleteById(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, mr.Exists(constant.NotesCacheKey))
}

func TestNoteCacheRepository_CorruptEntryFallsBack(t *testing.T) {
	ctx := context.Background()
	mr, base, cache := newCacheFixture(t, time.Minute)

	require.NoError(t, mr.Set(constant.NotesCacheKey, "{not json"))

	notes, err := cache.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Equal(t, 1, base.getAllCalls)
}

func TestNoteCacheRepository_RedisDownFallsBack(t *testing.T) {
	ctx := context.Background()
	mr, base, cache := newCacheFixture(t, time.Minute)
	mr.Close()

	require.NoError(t, cache.Create(ctx, newNote("Hello there", "Ann", 0)))

	notes, err := cache.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
	assert.Equal(t, 1, base.getAllCalls)
}

func TestNoteCacheRepository_BackendErrorNotCached(t *testing.T) {
	ctx := context.Background()
	mr, base, cache := newCacheFixture(t, time.Minute)
	base.getAllErr = errors.New("connection reset")

	_, err := cache.GetAll(ctx)
	require.Error(t, err)
	assert.False(t, mr.Exists(constant.NotesCacheKey))
}
