package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// pngBytes is a minimal valid PNG header, enough for MIME sniffing.
var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

var pdfBytes = []byte("%PDF-1.4\n%rest of document")

func TestSaveAndOpen(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	owner := uuid.New()

	meta, err := store.Save(ctx, BlobMetadata{
		FileName:  "id-card.png",
		Category:  "id-document",
		OwnerType: "patient",
		OwnerID:   owner,
	}, bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if meta.ContentType != "image/png" {
		t.Errorf("sniffed content type = %q, want image/png", meta.ContentType)
	}
	if meta.Size != int64(len(pngBytes)) {
		t.Errorf("size = %d, want %d", meta.Size, len(pngBytes))
	}
	if meta.Hash == "" {
		t.Error("hash not set")
	}

	rc, got, err := store.Open(ctx, meta.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if !bytes.Equal(data, pngBytes) {
		t.Error("content round-trip mismatch")
	}
	if got.FileName != "id-card.png" {
		t.Errorf("file name = %q", got.FileName)
	}
}

func TestSaveRejectsDisallowedType(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Save(context.Background(), BlobMetadata{FileName: "notes.txt"},
		strings.NewReader("plain text content"))
	if !errors.Is(err, ErrInvalidContentType) {
		t.Fatalf("err = %v, want ErrInvalidContentType", err)
	}
}

func TestSaveRejectsOversize(t *testing.T) {
	store := NewMemoryStore()
	big := make([]byte, MaxFileSize+1)
	copy(big, pdfBytes)
	_, err := store.Save(context.Background(), BlobMetadata{FileName: "scan.pdf"},
		bytes.NewReader(big))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestSaveIgnoresDeclaredContentType(t *testing.T) {
	// A PDF claiming to be a PNG is stored as a PDF.
	store := NewMemoryStore()
	meta, err := store.Save(context.Background(), BlobMetadata{
		FileName:    "claims-to-be.png",
		ContentType: "image/png",
	}, bytes.NewReader(pdfBytes))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if meta.ContentType != "application/pdf" {
		t.Fatalf("content type = %q, want application/pdf", meta.ContentType)
	}
}

func TestDeleteAndListByOwner(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()

	m1, _ := store.Save(ctx, BlobMetadata{FileName: "a.png", OwnerType: "patient", OwnerID: owner}, bytes.NewReader(pngBytes))
	store.Save(ctx, BlobMetadata{FileName: "b.pdf", OwnerType: "patient", OwnerID: owner}, bytes.NewReader(pdfBytes))
	store.Save(ctx, BlobMetadata{FileName: "c.pdf", OwnerType: "patient", OwnerID: other}, bytes.NewReader(pdfBytes))

	items, err := store.ListByOwner(ctx, "patient", owner)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	if err := store.Delete(ctx, m1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, m1.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("second delete err = %v, want ErrBlobNotFound", err)
	}
	if _, _, err := store.Open(ctx, m1.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("open after delete err = %v, want ErrBlobNotFound", err)
	}
}

func buildForm(t *testing.T, files map[string][]string) *multipart.Form {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, names := range files {
		for _, name := range names {
			fw, err := w.CreateFormFile(field, name)
			if err != nil {
				t.Fatalf("CreateFormFile: %v", err)
			}
			fw.Write(pngBytes)
		}
	}
	w.Close()

	r := multipart.NewReader(&buf, w.Boundary())
	form, err := r.ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form
}

func TestCollectFiles(t *testing.T) {
	form := buildForm(t, map[string][]string{
		"profileImage": {"me.png"},
		"medicalFiles": {"scan1.png", "scan2.png"},
	})

	files, err := CollectFiles(form)
	if err != nil {
		t.Fatalf("CollectFiles: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3", len(files))
	}
	categories := map[string]string{}
	for _, f := range files {
		categories[f.Header.Filename] = f.Category
	}
	if categories["me.png"] != "profile-image" {
		t.Errorf("me.png category = %q", categories["me.png"])
	}
	if categories["scan1.png"] != "medical-file" {
		t.Errorf("scan1.png category = %q", categories["scan1.png"])
	}
}

func TestCollectFilesRejectsUnknownField(t *testing.T) {
	form := buildForm(t, map[string][]string{"avatar": {"me.png"}})
	if _, err := CollectFiles(form); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}
}

func TestCollectFilesRejectsRepeatedSingleField(t *testing.T) {
	form := buildForm(t, map[string][]string{"profileImage": {"a.png", "b.png"}})
	if _, err := CollectFiles(form); err == nil {
		t.Fatal("expected error for repeated profileImage")
	}
}

func TestCollectFilesRejectsTooMany(t *testing.T) {
	names := make([]string, MaxFilesPerUpload+1)
	for i := range names {
		names[i] = "f.png"
	}
	form := buildForm(t, map[string][]string{"medicalFiles": names})
	if _, err := CollectFiles(form); !errors.Is(err, ErrTooManyFiles) {
		t.Fatalf("err = %v, want ErrTooManyFiles", err)
	}
}

func buildValueForm(t *testing.T, fieldCount, fieldSize int) *multipart.Form {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("profileImage", "me.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write(pngBytes)
	for i := 0; i < fieldCount; i++ {
		if err := w.WriteField("note", strings.Repeat("x", fieldSize)); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	w.Close()

	r := multipart.NewReader(&buf, w.Boundary())
	form, err := r.ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form
}

func TestCollectFilesRejectsTooManyFields(t *testing.T) {
	// MaxFormFields counts text and file parts together.
	form := buildValueForm(t, MaxFormFields, 1)
	if _, err := CollectFiles(form); !errors.Is(err, ErrTooManyFields) {
		t.Fatalf("err = %v, want ErrTooManyFields", err)
	}

	form = buildValueForm(t, MaxFormFields-1, 1)
	if _, err := CollectFiles(form); err != nil {
		t.Fatalf("at the limit: %v", err)
	}
}

func TestCollectFilesRejectsOversizedFields(t *testing.T) {
	form := buildValueForm(t, 4, MaxTotalFieldSize/4+1)
	if _, err := CollectFiles(form); !errors.Is(err, ErrFieldsTooLarge) {
		t.Fatalf("err = %v, want ErrFieldsTooLarge", err)
	}
}
