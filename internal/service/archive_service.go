package service

import (
	"birthday-notes-be/internal/constant"
	"birthday-notes-be/internal/dto"
	"birthday-notes-be/internal/pkg/serverutils"
	"birthday-notes-be/internal/repository"
	"birthday-notes-be/pkg/objectstorage"
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
)

// IArchiveService keeps a JSON export of every note in object storage.
type IArchiveService interface {
	Enabled() bool
	Refresh(ctx context.Context) error
	Link(ctx context.Context) (*dto.ArchiveLinkResponse, error)
}

type archiveService struct {
	noteRepository repository.INoteRepository
	storage        *objectstorage.Client
	bucket         string
}

// NewArchiveService returns a disabled archive when storage is nil.
func NewArchiveService(noteRepository repository.INoteRepository, storage *objectstorage.Client, bucket string) IArchiveService {
	return &archiveService{
		noteRepository: noteRepository,
		storage:        storage,
		bucket:         bucket,
	}
}

func (s *archiveService) Enabled() bool {
	return s.storage != nil && s.bucket != ""
}

func (s *archiveService) Refresh(ctx context.Context) error {
	if !s.Enabled() {
		log.Debug("[Archive] storage not configured, skipping export")
		return nil
	}

	notes, err := s.noteRepository.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load notes for export: %w", err)
	}

	payload, err := json.Marshal(toDownloadResponse(notes))
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	err = s.storage.Put(ctx, s.bucket, constant.ArchiveObjectKey, bytes.NewReader(payload), constant.ArchiveContentType)
	if err != nil {
		return err
	}

	log.Infof("[Archive] exported %d notes to %s/%s", len(notes), s.bucket, constant.ArchiveObjectKey)
	return nil
}

func (s *archiveService) Link(ctx context.Context) (*dto.ArchiveLinkResponse, error) {
	if !s.Enabled() {
		return nil, serverutils.ErrArchiveUnavailable
	}

	exists, err := s.storage.FileExists(ctx, s.bucket, constant.ArchiveObjectKey)
	if err != nil {
		return nil, serverutils.WrapStoreError("check archive", "Failed to fetch notes archive.", err)
	}
	if !exists {
		return nil, serverutils.ErrArchiveUnavailable
	}

	url, err := s.storage.GetPresignedURL(ctx, s.bucket, constant.ArchiveObjectKey, constant.ArchivePresignExpiration)
	if err != nil {
		return nil, serverutils.WrapStoreError("presign archive", "Failed to fetch notes archive.", err)
	}

	return &dto.ArchiveLinkResponse{
		Url: url,
		Key: constant.ArchiveObjectKey,
	}, nil
}
