package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/classwork-labs/classwork-api/internal/storage"
)

const promptBlobPrefix = "prompts"

// LocalPromptUploader stores prompt files in the local blob store and returns
// a relative URL. Used when no Cloudinary credentials are configured.
type LocalPromptUploader struct {
	store   storage.BlobStore
	baseURL string
	logger  zerolog.Logger
}

// NewLocalPromptUploader constructs a disk-backed FileUploader.
func NewLocalPromptUploader(store storage.BlobStore, baseURL string, logger zerolog.Logger) *LocalPromptUploader {
	return &LocalPromptUploader{
		store:   store,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger.With().Str("component", "prompt_uploader").Logger(),
	}
}

// Upload writes the prompt file to the blob store under the prompts prefix.
func (u *LocalPromptUploader) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	stored := path.Join(promptBlobPrefix, uuid.NewString()+strings.ToLower(filepath.Ext(name)))

	if _, err := u.store.Save(ctx, stored, reader); err != nil {
		return "", fmt.Errorf("failed to store prompt file: %w", err)
	}

	u.logger.Info().Str("stored_name", stored).Msg("prompt file stored locally")

	return fmt.Sprintf("%s/%s", u.baseURL, stored), nil
}
