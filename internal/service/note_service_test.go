package service

import (
	"birthday-notes-be/internal/constant"
	"birthday-notes-be/internal/dto"
	"birthday-notes-be/internal/entity"
	"birthday-notes-be/internal/pkg/serverutils"
	"birthday-notes-be/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) events(t *testing.T) []dto.PublishNoteChangedMessage {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()

	res := make([]dto.PublishNoteChangedMessage, 0, len(p.payloads))
	for _, payload := range p.payloads {
		var msg dto.PublishNoteChangedMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		res = append(res, msg)
	}
	return res
}

// steppingClock hands out times one second apart.
type steppingClock struct {
	mu   sync.Mutex
	next time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(time.Second)
	return now
}

func newTestNoteService(repo repository.INoteRepository) (*noteService, *fakePublisher) {
	publisher := &fakePublisher{}
	clock := &steppingClock{next: time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)}
	svc := NewNoteService(repo, publisher, nil).(*noteService)
	svc.now = clock.Now
	return svc, publisher
}

func strPtr(s string) *string {
	return &s
}

func mustCreate(t *testing.T, svc INoteService, message, signature string) *dto.NoteResponse {
	t.Helper()
	note, err := svc.Create(context.Background(), &dto.CreateNoteRequest{Message: message, Signature: signature})
	require.NoError(t, err)
	return note
}

func TestNoteService_CreateTrimsAndPersists(t *testing.T) {
	ctx := context.Background()
	svc, publisher := newTestNoteService(repository.NewNoteMemoryRepository())

	created := mustCreate(t, svc, "  Happy birthday!  ", "\tBob ")
	assert.NotEqual(t, uuid.Nil, created.Id)
	assert.Equal(t, "Happy birthday!", created.Message)
	assert.Equal(t, "Bob", created.Signature)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := svc.Show(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	events := publisher.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, dto.PublishNoteChangedMessage{NoteId: created.Id, Action: constant.NoteActionCreated}, events[0])
}

func TestNoteService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, publisher := newTestNoteService(repository.NewNoteMemoryRepository())

	cases := []struct {
		name      string
		message   string
		signature string
	}{
		{"blank message", "", "Alice"},
		{"blank signature", "Hi", ""},
		{"short message", "H", "Alice"},
		{"short signature", "Happy birthday", "A"},
		{"long message", strings.Repeat("x", 301), "Alice"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, &dto.CreateNoteRequest{Message: tc.message, Signature: tc.signature})
			var ve *serverutils.ValidationError
			assert.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
		})
	}

	notes, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Empty(t, publisher.events(t))
}

func TestNoteService_CreateMessageAtLimit(t *testing.T) {
	svc, _ := newTestNoteService(repository.NewNoteMemoryRepository())

	note := mustCreate(t, svc, strings.Repeat("x", 300), "Alice")
	assert.Len(t, note.Message, 300)
}

func TestNoteService_CreateAllowsDuplicates(t *testing.T) {
	svc, _ := newTestNoteService(repository.NewNoteMemoryRepository())

	a := mustCreate(t, svc, "Happy birthday", "Bob")
	b := mustCreate(t, svc, "Happy birthday", "Bob")
	assert.NotEqual(t, a.Id, b.Id)
}

func TestNoteService_UpdateDuplicateDetection(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestNoteService(repository.NewNoteMemoryRepository())

	a := mustCreate(t, svc, "Happy birthday", "Bob")
	b := mustCreate(t, svc, "Congrats", "Carol")

	_, err := svc.Update(ctx, &dto.UpdateNoteRequest{Id: b.Id, Message: strPtr("Happy birthday"), Signature: strPtr("Bob")})
	assert.ErrorIs(t, err, serverutils.ErrDuplicateNote)

	unchanged, err := svc.Show(ctx, b.Id)
	require.NoError(t, err)
	assert.Equal(t, b, unchanged)

	updated, err := svc.Update(ctx, &dto.UpdateNoteRequest{Id: a.Id, Signature: strPtr("Bobby")})
	require.NoError(t, err)
	assert.Equal(t, "Happy birthday", updated.Message)
	assert.Equal(t, "Bobby", updated.Signature)
}

func TestNoteService_UpdateEffectivePairUsesStoredValues(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestNoteService(repository.NewNoteMemoryRepository())

	mustCreate(t, svc, "Happy birthday", "Bob")
	b := mustCreate(t, svc, "Congrats", "Bob")

	// only the message is supplied; the stored signature completes the pair
	_, err := svc.Update(ctx, &dto.UpdateNoteRequest{Id: b.Id, Message: strPtr("  Happy birthday ")})
	assert.ErrorIs(t, err, serverutils.ErrDuplicateNote)
}

func TestNoteService_UpdateSameValuesDoesNotConflictWithItself(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestNoteService(repository.NewNoteMemoryRepository())

	a := mustCreate(t, svc, "Happy birthday", "Bob")
	updated, err := svc.Update(ctx, &dto.UpdateNoteRequest{Id: a.Id, Message: strPtr("Happy birthday"), Signature: strPtr("Bob")})
	require.NoError(t, err)
	assert.Equal(t, a.Id, updated.Id)
}

func TestNoteService_UpdateRefreshesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	svc, publisher := newTestNoteService(repository.NewNoteMemoryRepository())

	a := mustCreate(t, svc, "Happy birthday", "Bob")
	updated, err := svc.Update(ctx, &dto.UpdateNoteRequest{Id: a.Id, Message: strPtr("Happy birthday, friend")})
	require.NoError(t, err)

	assert.Equal(t, a.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(a.UpdatedAt))

	stored, err := svc.Show(ctx, a.Id)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)

	events := publisher.events(t)
	require.Len(t, events, 2)
	assert.Equal(t, constant.NoteActionUpdated, events[1].Action)
}

func TestNoteService_UpdateErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestNoteService(repository.NewNoteMemoryRepository())
	a := mustCreate(t, svc, "Happy birthday", "Bob")

	t.Run("no fields", func(t *testing.T) {
		_, err := svc.Update(ctx, &dto.UpdateNoteRequest{Id: a.Id})
		var ve *serverutils.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "No update fields provided.", ve.Message)
	})

	t.Run("no fields is reported before a missing note", func(t *testing.T) {
		_, err := svc.Update(ctx, &dto.UpdateNoteRequest{Id: uuid.New(), Message: strPtr(" ")})
		var ve *serverutils.ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("missing note", func(t *testing.T) {
		_, err := svc.Update(ctx, &dto.UpdateNoteRequest{Id: uuid.New(), Message: strPtr("x")})
		assert.ErrorIs(t, err, serverutils.ErrNotFound)
	})

	t.Run("invalid field", func(t *testing.T) {
		_, err := svc.Update(ctx, &dto.UpdateNoteRequest{Id: a.Id, Signature: strPtr(strings.Repeat("s", 51))})
		var ve *serverutils.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "signature", ve.Field)
	})
}

func TestNoteService_DeleteThenShow(t *testing.T) {
	ctx := context.Background()
	svc, publisher := newTestNoteService(repository.NewNoteMemoryRepository())
	a := mustCreate(t, svc, "Happy birthday", "Bob")

	require.NoError(t, svc.Delete(ctx, a.Id))

	_, err := svc.Show(ctx, a.Id)
	assert.ErrorIs(t, err, serverutils.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, a.Id), serverutils.ErrNotFound)

	events := publisher.events(t)
	require.Len(t, events, 2)
	assert.Equal(t, constant.NoteActionDeleted, events[1].Action)
}

func TestNoteService_ShowIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestNoteService(repository.NewNoteMemoryRepository())
	a := mustCreate(t, svc, "Happy birthday", "Bob")

	first, err := svc.Show(ctx, a.Id)
	require.NoError(t, err)
	second, err := svc.Show(ctx, a.Id)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNoteService_GetAllAndDownloadInCreationOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestNoteService(repository.NewNoteMemoryRepository())

	mustCreate(t, svc, "First wish", "Ann")
	mustCreate(t, svc, "Second wish", "Ben")
	mustCreate(t, svc, "Third wish", "Cat")

	notes, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "First wish", notes[0].Message)
	assert.Equal(t, "Third wish", notes[2].Message)

	download, err := svc.Download(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*dto.DownloadNoteResponse{
		{Message: "First wish", Signature: "Ann"},
		{Message: "Second wish", Signature: "Ben"},
		{Message: "Third wish", Signature: "Cat"},
	}, download)
}

func TestNoteService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	svc, publisher := newTestNoteService(repository.NewNoteMemoryRepository())
	publisher.err = errors.New("pubsub closed")

	note := mustCreate(t, svc, "Happy birthday", "Bob")
	_, err := svc.Show(ctx, note.Id)
	assert.NoError(t, err)
}

// failingRepository fails every call with a storage error.
type failingRepository struct {
	repository.INoteRepository
	err error
}

func (r *failingRepository) Create(ctx context.Context, note *entity.Note) error { return r.err }
func (r *failingRepository) GetAll(ctx context.Context) ([]*entity.Note, error) {
	return nil, r.err
}
func (r *failingRepository) GetById(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	return nil, r.err
}
func (r *failingRepository) DeleteById(ctx context.Context, id uuid.UUID) error { return r.err }

func TestNoteService_StoreErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connection refused")
	svc, _ := newTestNoteService(&failingRepository{INoteRepository: repository.NewNoteMemoryRepository(), err: cause})

	assertStoreError := func(t *testing.T, err error, message string) {
		t.Helper()
		var se *serverutils.StoreError
		require.True(t, errors.As(err, &se), "expected *StoreError, got %v", err)
		assert.Equal(t, message, se.Message)
		assert.ErrorIs(t, err, cause)
	}

	_, err := svc.Create(ctx, &dto.CreateNoteRequest{Message: "Hello", Signature: "Ann"})
	assertStoreError(t, err, "Failed to create note.")

	_, err = svc.GetAll(ctx)
	assertStoreError(t, err, "Failed to fetch notes.")

	_, err = svc.Download(ctx)
	assertStoreError(t, err, "Failed to fetch notes.")

	_, err = svc.Show(ctx, uuid.New())
	assertStoreError(t, err, "Failed to fetch note.")

	_, err = svc.Update(ctx, &dto.UpdateNoteRequest{Id: uuid.New(), Message: strPtr("Hello")})
	assertStoreError(t, err, "Failed to update note.")

	assertStoreError(t, svc.Delete(ctx, uuid.New()), "Failed to delete note.")
}

func testNoteService_CreateShowRoundTrip(t *rapid.T) {
	runes := rapid.RuneFrom([]rune("abcdefghijklmnopqrstuvwxyz ABCDEFG!?,.🎂"))
	message := rapid.StringOfN(runes, 2, 300, -1).Filter(func(s string) bool {
		return len([]rune(strings.TrimSpace(s))) >= 2
	}).Draw(t, "message")
	signature := rapid.StringOfN(runes, 2, 50, -1).Filter(func(s string) bool {
		return len([]rune(strings.TrimSpace(s))) >= 2
	}).Draw(t, "signature")

	svc, _ := newTestNoteService(repository.NewNoteMemoryRepository())
	ctx := context.Background()

	created, err := svc.Create(ctx, &dto.CreateNoteRequest{Message: message, Signature: signature})
	if err != nil {
		t.Fatalf("create(%q, %q) failed: %v", message, signature, err)
	}

	got, err := svc.Show(ctx, created.Id)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if got.Message != strings.TrimSpace(message) || got.Signature != strings.TrimSpace(signature) {
		t.Fatalf("expected trimmed %q / %q, got %q / %q", message, signature, got.Message, got.Signature)
	}
}

func TestNoteService_CreateShowRoundTrip(t *testing.T) {
	rapid.Check(t, testNoteService_CreateShowRoundTrip)
}
