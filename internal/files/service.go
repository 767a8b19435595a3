package files

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"filedepot/internal/apperror"
	"filedepot/internal/queue"
	"filedepot/internal/storage"
)

// FileService defines the business operations on files and folders.
type FileService interface {
	// Upload validates the request, persists content for non-folders, then
	// records metadata. Image uploads also enqueue a thumbnail job.
	Upload(ctx context.Context, userID string, req *UploadRequest) (*File, error)

	// Show returns one file's metadata, scoped to the owner.
	Show(ctx context.Context, userID, fileID string) (*File, error)

	// List returns one page of the owner's files, optionally filtered to
	// the children of one parent.
	List(ctx context.Context, userID string, parentID *string, page int) ([]File, error)

	// SetVisibility flips the public flag and returns the updated record.
	SetVisibility(ctx context.Context, userID, fileID string, isPublic bool) (*File, error)

	// Content returns a file's bytes and content type. size selects a
	// pre-generated image variant; empty means the original.
	Content(ctx context.Context, userID, fileID, size string) ([]byte, string, error)
}

type fileService struct {
	repo       FileRepository
	store      storage.Store
	dispatcher queue.Dispatcher
	logger     *slog.Logger
}

// NewFileService creates a new file service.
func NewFileService(repo FileRepository, store storage.Store, dispatcher queue.Dispatcher, logger *slog.Logger) FileService {
	return &fileService{
		repo:       repo,
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Upload runs the fixed validation order (name, type, data, parent), writes
// content to the store before any metadata exists, then inserts the record.
// A failed content write leaves no metadata behind; a metadata row therefore
// always points at bytes that were written.
func (s *fileService) Upload(ctx context.Context, userID string, req *UploadRequest) (*File, error) {
	if req.Name == "" {
		return nil, apperror.NewBadRequest("Missing name")
	}
	if req.Type != TypeFolder && req.Type != TypeFile && req.Type != TypeImage {
		return nil, apperror.NewBadRequest("Missing type")
	}
	if req.Data == "" && req.Type != TypeFolder {
		return nil, apperror.NewBadRequest("Missing data")
	}

	parentID := string(req.ParentID)
	if parentID == "" {
		parentID = RootParentID
	}
	if parentID != RootParentID {
		parent, err := s.repo.FindByID(ctx, parentID)
		if err != nil {
			// A missing row is the client's problem; a store failure
			// is ours and must never read as a validation error.
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Code == 404 {
				return nil, apperror.NewBadRequest("Parent not found")
			}
			return nil, apperror.NewInternal(fmt.Errorf("resolving parent: %w", err))
		}
		if !parent.IsFolder() {
			return nil, apperror.NewBadRequest("Parent is not a folder")
		}
	}

	file := &File{
		UserID:   userID,
		Name:     req.Name,
		Type:     req.Type,
		IsPublic: req.IsPublic,
		ParentID: parentID,
	}

	if req.Type != TypeFolder {
		data, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			return nil, apperror.NewBadRequest("Missing data")
		}

		key := uuid.NewString()
		if err := s.store.Save(key, data); err != nil {
			return nil, fmt.Errorf("persisting file content: %w", err)
		}
		file.LocalPath = key
	}

	if err := s.repo.Create(ctx, file); err != nil {
		return nil, err
	}

	if file.Type == TypeImage {
		job := queue.ThumbnailJob{UserID: file.UserID, FileID: file.ID}
		if err := s.dispatcher.Enqueue(ctx, job); err != nil {
			// The upload itself succeeded; variants can be regenerated
			// later, so log and carry on.
			s.logger.Warn("failed to enqueue thumbnail job",
				"file_id", file.ID,
				"error", err,
			)
		}
	}

	return file, nil
}

// Show returns one file's metadata, owner-scoped.
func (s *fileService) Show(ctx context.Context, userID, fileID string) (*File, error) {
	return s.repo.FindByIDAndOwner(ctx, fileID, userID)
}

// List returns one page of the owner's files.
func (s *fileService) List(ctx context.Context, userID string, parentID *string, page int) ([]File, error) {
	if page < 0 {
		page = 0
	}
	return s.repo.ListByOwner(ctx, userID, parentID, page)
}

// SetVisibility flips the public flag. The update is idempotent: setting the
// current value is not an error. The response is built from a fresh fetch
// after the update, never from the pre-update record.
func (s *fileService) SetVisibility(ctx context.Context, userID, fileID string, isPublic bool) (*File, error) {
	file, err := s.repo.FindByIDAndOwner(ctx, fileID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetPublic(ctx, file.ID, isPublic); err != nil {
		return nil, err
	}

	return s.repo.FindByIDAndOwner(ctx, file.ID, userID)
}

// Content returns the raw bytes for a file. Private files are visible only
// to their owner; public files to anyone, authenticated or not. Metadata
// without bytes on disk reports not found, same as a missing record.
func (s *fileService) Content(ctx context.Context, userID, fileID, size string) ([]byte, string, error) {
	file, err := s.repo.FindByID(ctx, fileID)
	if err != nil {
		return nil, "", err
	}

	// The folder check precedes the visibility check: a folder never has
	// content no matter who asks.
	if file.IsFolder() {
		return nil, "", apperror.NewBadRequest("A folder doesn't have content")
	}

	if !file.IsPublic && file.UserID != userID {
		return nil, "", apperror.NewNotFound("Not found")
	}

	key := file.LocalPath
	if size != "" {
		if !SizeVariants[size] {
			return nil, "", apperror.NewBadRequest("Invalid size")
		}
		key = storage.VariantKey(key, size)
	}

	data, err := s.store.Read(key)
	if err != nil {
		return nil, "", apperror.NewNotFound("Not found")
	}

	return data, file.MimeType(), nil
}
