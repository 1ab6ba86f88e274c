package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/classwork-labs/classwork-api/internal/models"
	"github.com/classwork-labs/classwork-api/internal/storage"
)

func makeFileHeaders(t *testing.T, files map[string]string) []*multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["files"]
}

func newTestAttachmentManager(t *testing.T) *AttachmentManager {
	t.Helper()

	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	return NewAttachmentManager(store, zerolog.New(io.Discard))
}

func TestAttachmentManagerValidate(t *testing.T) {
	manager := newTestAttachmentManager(t)
	policy := models.UploadPolicy{AllowedFormats: []string{"pdf", "txt"}, MaxSizeBytes: 16}

	require.ErrorIs(t, manager.Validate(nil, policy), ErrNoFilesProvided)

	ok := makeFileHeaders(t, map[string]string{"essay.pdf": "short"})
	require.NoError(t, manager.Validate(ok, policy))

	badType := makeFileHeaders(t, map[string]string{"script.exe": "x"})
	require.ErrorIs(t, manager.Validate(badType, policy), ErrFileTypeNotAllowed)

	tooLarge := makeFileHeaders(t, map[string]string{"essay.pdf": strings.Repeat("a", 32)})
	require.ErrorIs(t, manager.Validate(tooLarge, policy), ErrFileTooLarge)
}

func TestAttachmentManagerValidateRejectsMismatchedContent(t *testing.T) {
	manager := newTestAttachmentManager(t)
	policy := models.UploadPolicy{AllowedFormats: []string{"pdf"}, MaxSizeBytes: 1 << 20}

	// An executable renamed to carry an allowed extension must still be
	// rejected once its content is sniffed.
	elf := "\x7fELF\x02\x01\x01\x00" + strings.Repeat("\x00", 8) + "binary payload"
	disguised := makeFileHeaders(t, map[string]string{"paper.pdf": elf})
	require.ErrorIs(t, manager.Validate(disguised, policy), ErrFileTypeNotAllowed)

	// Plain text under a pdf-only policy is a mismatch even though the
	// extension passes the allow-list.
	textual := makeFileHeaders(t, map[string]string{"paper.pdf": "just some prose"})
	require.ErrorIs(t, manager.Validate(textual, policy), ErrFileTypeNotAllowed)

	genuine := makeFileHeaders(t, map[string]string{"paper.pdf": "%PDF-1.4\n1 0 obj\nendobj"})
	require.NoError(t, manager.Validate(genuine, policy))
}

func TestAttachmentManagerStoreAndOpen(t *testing.T) {
	manager := newTestAttachmentManager(t)
	ctx := context.Background()

	files := makeFileHeaders(t, map[string]string{"essay.pdf": "%PDF-1.4 content"})
	attachments, err := manager.Store(ctx, files)
	require.NoError(t, err)
	require.Len(t, attachments, 1)

	attachment := attachments[0]
	require.Equal(t, "essay.pdf", attachment.FileName)
	require.True(t, strings.HasPrefix(attachment.StoredName, "submissions/"))
	require.NotEqual(t, attachment.FileName, attachment.StoredName)
	require.Equal(t, int64(len("%PDF-1.4 content")), attachment.Size)

	reader, err := manager.Open(ctx, attachment)
	require.NoError(t, err)
	content, err := io.ReadAll(reader)
	require.NoError(t, reader.Close())
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 content", string(content))
}

func TestAttachmentManagerStoredNamesAreUnique(t *testing.T) {
	manager := newTestAttachmentManager(t)
	ctx := context.Background()

	first, err := manager.Store(ctx, makeFileHeaders(t, map[string]string{"essay.pdf": "one"}))
	require.NoError(t, err)
	second, err := manager.Store(ctx, makeFileHeaders(t, map[string]string{"essay.pdf": "two"}))
	require.NoError(t, err)

	require.NotEqual(t, first[0].StoredName, second[0].StoredName)
}

func TestAttachmentManagerRemoveToleratesMissingBlobs(t *testing.T) {
	manager := newTestAttachmentManager(t)
	ctx := context.Background()

	attachments, err := manager.Store(ctx, makeFileHeaders(t, map[string]string{"essay.pdf": "content"}))
	require.NoError(t, err)

	manager.Remove(ctx, attachments)
	manager.Remove(ctx, attachments)

	_, err = manager.Open(ctx, attachments[0])
	require.ErrorIs(t, err, storage.ErrNotExist)
}
