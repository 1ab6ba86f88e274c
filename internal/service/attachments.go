package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/classwork-labs/classwork-api/internal/models"
	"github.com/classwork-labs/classwork-api/internal/observability"
	"github.com/classwork-labs/classwork-api/internal/storage"
)

var (
	// ErrFileTypeNotAllowed indicates the file's extension or detected content is outside the allow-list.
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	// ErrFileTooLarge indicates the file exceeds the resolved size ceiling.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrNoFilesProvided indicates a create arrived without any file.
	ErrNoFilesProvided = errors.New("at least one file is required")
)

// submissionBlobPrefix keeps submission attachments disjoint from any other
// asset category sharing the same store.
const submissionBlobPrefix = "submissions"

// AttachmentManager validates, stores and removes the files bound to a
// submission. Stored blobs and submission records are reconciled by the
// orchestrator: the manager never touches the record store.
type AttachmentManager struct {
	store  storage.BlobStore
	logger zerolog.Logger
}

// NewAttachmentManager constructs an attachment manager.
func NewAttachmentManager(store storage.BlobStore, logger zerolog.Logger) *AttachmentManager {
	return &AttachmentManager{
		store:  store,
		logger: logger.With().Str("component", "attachment_manager").Logger(),
	}
}

// Validate rejects any file whose extension is outside the policy allow-list,
// whose size exceeds the policy ceiling, or whose sniffed content does not
// correspond to an allowed format. The filename is a claim; the content is
// checked independently so a renamed binary cannot pass an allow-list. The
// returned error names the offending file and wraps the reason sentinel.
func (m *AttachmentManager) Validate(files []*multipart.FileHeader, policy models.UploadPolicy) error {
	if len(files) == 0 {
		return ErrNoFilesProvided
	}

	allowed := make(map[string]struct{}, len(policy.AllowedFormats))
	for _, format := range policy.AllowedFormats {
		allowed[strings.ToLower(strings.TrimPrefix(format, "."))] = struct{}{}
	}

	for _, file := range files {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
		if _, ok := allowed[ext]; !ok {
			observability.UploadRejected().WithLabelValues("type").Inc()
			return fmt.Errorf("file %q: %w", file.Filename, ErrFileTypeNotAllowed)
		}

		if policy.MaxSizeBytes > 0 && file.Size > policy.MaxSizeBytes {
			observability.UploadRejected().WithLabelValues("size").Inc()
			return fmt.Errorf("file %q: %w", file.Filename, ErrFileTooLarge)
		}

		if err := m.validateContent(file, allowed); err != nil {
			return err
		}
	}

	return nil
}

// validateContent sniffs the file and accepts it only when the detected type
// (or one of its ancestors, so text subtypes still count as text) maps onto
// an allowed format.
func (m *AttachmentManager) validateContent(file *multipart.FileHeader, allowed map[string]struct{}) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file %q: %w", file.Filename, err)
	}
	defer src.Close()

	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return fmt.Errorf("failed to detect file type of %q: %w", file.Filename, err)
	}

	for candidate := detected; candidate != nil; candidate = candidate.Parent() {
		ext := strings.ToLower(strings.TrimPrefix(candidate.Extension(), "."))
		if ext == "" {
			continue
		}
		if _, ok := allowed[ext]; ok {
			return nil
		}
	}

	observability.UploadRejected().WithLabelValues("content").Inc()
	m.logger.Warn().Str("file_name", file.Filename).Str("detected_mime", detected.String()).Msg("upload content does not match its claimed type")
	return fmt.Errorf("file %q detected as %s: %w", file.Filename, detected.String(), ErrFileTypeNotAllowed)
}

// Store persists every file under a collision-resistant name and returns the
// attachment descriptors in input order. If any write fails, already-stored
// blobs are removed again so a failed call never leaks storage.
func (m *AttachmentManager) Store(ctx context.Context, files []*multipart.FileHeader) ([]models.Attachment, error) {
	stored := make([]models.Attachment, 0, len(files))

	for _, file := range files {
		attachment, err := m.storeOne(ctx, file)
		if err != nil {
			m.Remove(ctx, stored)
			return nil, err
		}
		stored = append(stored, attachment)
	}

	return stored, nil
}

func (m *AttachmentManager) storeOne(ctx context.Context, file *multipart.FileHeader) (models.Attachment, error) {
	src, err := file.Open()
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to open file %q: %w", file.Filename, err)
	}
	defer src.Close()

	mime, err := mimetype.DetectReader(src)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to detect file type of %q: %w", file.Filename, err)
	}

	if _, err := src.Seek(0, 0); err != nil {
		return models.Attachment{}, fmt.Errorf("failed to rewind file %q: %w", file.Filename, err)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	storedName := path.Join(submissionBlobPrefix, uuid.NewString()+ext)

	size, err := m.store.Save(ctx, storedName, src)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to store file %q: %w", file.Filename, err)
	}

	return models.Attachment{
		FileName:   filepath.Base(file.Filename),
		StoredName: storedName,
		MimeType:   mime.String(),
		Size:       size,
	}, nil
}

// Open returns a reader over the attachment's backing blob.
func (m *AttachmentManager) Open(ctx context.Context, attachment models.Attachment) (io.ReadCloser, error) {
	return m.store.Open(ctx, attachment.StoredName)
}

// Remove deletes the backing blob of each attachment. An already-absent blob
// is treated as success; absences and delete failures are both logged as
// anomalies so cleanup never fails the enclosing operation.
func (m *AttachmentManager) Remove(ctx context.Context, attachments []models.Attachment) {
	for _, attachment := range attachments {
		err := m.store.Delete(ctx, attachment.StoredName)
		if err == nil {
			continue
		}

		observability.CleanupAnomalies().Inc()
		if errors.Is(err, storage.ErrNotExist) {
			m.logger.Warn().Str("stored_name", attachment.StoredName).Msg("attachment blob already absent during cleanup")
			continue
		}
		m.logger.Error().Err(err).Str("stored_name", attachment.StoredName).Msg("failed to delete attachment blob")
	}
}
