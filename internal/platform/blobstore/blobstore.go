// Package blobstore stores uploaded documents (profile images, identity
// documents, insurance cards, medical files). It defines the Store
// interface, an in-memory implementation for testing and development, and
// helpers for validating multipart uploads against the platform's file
// rules.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrUnknownField       = errors.New("unknown upload field")
	ErrTooManyFiles       = errors.New("too many files in upload")
	ErrTooManyFields      = errors.New("too many form fields in upload")
	ErrFieldsTooLarge     = errors.New("form fields exceed maximum total size")
)

// MaxFileSize is the per-file upload ceiling (15 MB).
const MaxFileSize = 15 * 1024 * 1024

// MaxFilesPerUpload caps the number of files in one multipart request.
const MaxFilesPerUpload = 15

// MaxFormFields caps the number of multipart parts (text values and files
// combined) in one request.
const MaxFormFields = 50

// MaxTotalFieldSize caps the combined size of the non-file text fields
// (10 MB).
const MaxTotalFieldSize = 10 * 1024 * 1024

// AllowedContentTypes lists the accepted upload MIME types.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// UploadFields maps accepted multipart field names to document categories.
// medicalFiles is the only field that may repeat.
var UploadFields = map[string]string{
	"profileImage":   "profile-image",
	"idDocument":     "id-document",
	"insuranceFront": "insurance-front",
	"insuranceBack":  "insurance-back",
	"medicalFiles":   "medical-file",
}

// BlobMetadata describes a stored document.
type BlobMetadata struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Category    string    `json:"category"`
	OwnerType   string    `json:"owner_type"` // patient, doctor, hospital, pharmacy
	OwnerID     uuid.UUID `json:"owner_id"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the contract for document storage backends.
type Store interface {
	Save(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error)
	Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *BlobMetadata, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) ([]*BlobMetadata, error)
}

// DetectContentType sniffs the MIME type from the first bytes of content,
// ignoring the client-declared header. Returns the type and a reader that
// replays the sniffed bytes.
func DetectContentType(content io.Reader) (string, io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(content, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}
	head = head[:n]
	ct := http.DetectContentType(head)
	return ct, io.MultiReader(bytes.NewReader(head), content), nil
}

// ValidateFile checks one multipart file header against the platform
// upload rules: field name must be known, declared size within the limit.
// The content type is verified again at Save time from actual bytes.
func ValidateFile(field string, fh *multipart.FileHeader) (category string, err error) {
	category, ok := UploadFields[field]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if fh.Size > MaxFileSize {
		return "", fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, fh.Filename, fh.Size)
	}
	return category, nil
}

// CollectFiles walks a parsed multipart form and validates every file
// against the upload rules. Files keep form order within each field.
type UploadFile struct {
	Field    string
	Category string
	Header   *multipart.FileHeader
}

func CollectFiles(form *multipart.Form) ([]UploadFile, error) {
	fields := 0
	textBytes := 0
	for _, values := range form.Value {
		fields += len(values)
		for _, v := range values {
			textBytes += len(v)
		}
	}
	if textBytes > MaxTotalFieldSize {
		return nil, ErrFieldsTooLarge
	}
	for _, headers := range form.File {
		fields += len(headers)
	}
	if fields > MaxFormFields {
		return nil, ErrTooManyFields
	}

	var files []UploadFile
	total := 0
	for field, headers := range form.File {
		category, ok := UploadFields[field]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		if field != "medicalFiles" && len(headers) > 1 {
			return nil, fmt.Errorf("field %s accepts a single file", field)
		}
		for _, fh := range headers {
			total++
			if total > MaxFilesPerUpload {
				return nil, ErrTooManyFiles
			}
			if fh.Size > MaxFileSize {
				return nil, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, fh.Filename, fh.Size)
			}
			files = append(files, UploadFile{Field: field, Category: category, Header: fh})
		}
	}
	return files, nil
}

type storedBlob struct {
	metadata BlobMetadata
	content  []byte
}

// MemoryStore is a thread-safe in-memory Store for testing and development.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[uuid.UUID]*storedBlob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[uuid.UUID]*storedBlob)}
}

// Save reads the content, sniffs and enforces the content type, computes a
// SHA-256 hash, and stores the blob.
func (s *MemoryStore) Save(_ context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	ct, body, err := DetectContentType(content)
	if err != nil {
		return nil, fmt.Errorf("sniff content type: %w", err)
	}
	if !AllowedContentTypes[ct] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContentType, ct)
	}

	data, err := io.ReadAll(io.LimitReader(body, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	h := sha256.Sum256(data)
	meta.ID = uuid.New()
	meta.ContentType = ct
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", h)
	meta.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.blobs[meta.ID] = &storedBlob{metadata: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

func (s *MemoryStore) Open(_ context.Context, id uuid.UUID) (io.ReadCloser, *BlobMetadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrBlobNotFound
	}
	meta := blob.metadata
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, id)
	return nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, ownerType string, ownerID uuid.UUID) ([]*BlobMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*BlobMetadata
	for _, b := range s.blobs {
		if b.metadata.OwnerType != ownerType || b.metadata.OwnerID != ownerID {
			continue
		}
		m := b.metadata
		out = append(out, &m)
	}
	return out, nil
}
