package patient

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"testing"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/blobstore"
	"github.com/carelink/carelink/internal/platform/scope"
)

// jpeg magic bytes so the store's sniffer accepts the file.
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}

func buildForm(t *testing.T, field, filename string, content []byte) *multipart.Form {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	w.Close()

	r := multipart.NewReader(&buf, w.Boundary())
	form, err := r.ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	return form
}

func newDocFixture() (*DocumentService, *scope.MemoryDirectory, *blobstore.MemoryStore) {
	store := blobstore.NewMemoryStore()
	dir := scope.NewMemoryDirectory()
	return NewDocumentService(store, scope.NewResolver(dir)), dir, store
}

func TestUploadStoresDocument(t *testing.T) {
	svc, dir, store := newDocFixture()
	ctx := context.Background()

	patientUser, patientID := uuid.New(), uuid.New()
	dir.AddPatient(patientUser, patientID)
	me := scope.Caller{UserID: patientUser, Role: scope.RolePatient}

	form := buildForm(t, "profileImage", "me.jpg", jpegHeader)
	defer form.RemoveAll()

	stored, err := svc.Upload(ctx, me, patientID, form)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored %d documents", len(stored))
	}
	if stored[0].Category != "profile-image" {
		t.Errorf("category = %q", stored[0].Category)
	}
	if stored[0].ContentType != "image/jpeg" {
		t.Errorf("content type = %q, want sniffed image/jpeg", stored[0].ContentType)
	}

	content, meta, err := store.Open(ctx, stored[0].ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer content.Close()
	got, _ := io.ReadAll(content)
	if !bytes.Equal(got, jpegHeader) {
		t.Error("stored content differs from upload")
	}
	if meta.OwnerID != patientID {
		t.Errorf("owner = %s", meta.OwnerID)
	}
}

func TestUploadRejectsUnknownField(t *testing.T) {
	svc, dir, _ := newDocFixture()

	patientUser, patientID := uuid.New(), uuid.New()
	dir.AddPatient(patientUser, patientID)
	me := scope.Caller{UserID: patientUser, Role: scope.RolePatient}

	form := buildForm(t, "avatar", "me.jpg", jpegHeader)
	defer form.RemoveAll()

	if _, err := svc.Upload(context.Background(), me, patientID, form); err == nil {
		t.Fatal("expected unknown-field rejection")
	}
}

func TestUploadForbiddenForStranger(t *testing.T) {
	svc, dir, _ := newDocFixture()

	_, patientID := uuid.New(), uuid.New()
	dir.AddPatient(uuid.New(), patientID)

	strangerUser := uuid.New()
	dir.AddPatient(strangerUser, uuid.New())
	stranger := scope.Caller{UserID: strangerUser, Role: scope.RolePatient}

	form := buildForm(t, "idDocument", "id.jpg", jpegHeader)
	defer form.RemoveAll()

	if _, err := svc.Upload(context.Background(), stranger, patientID, form); err != ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestListScopedByPatientAccess(t *testing.T) {
	svc, dir, _ := newDocFixture()
	ctx := context.Background()

	patientUser, patientID := uuid.New(), uuid.New()
	dir.AddPatient(patientUser, patientID)
	me := scope.Caller{UserID: patientUser, Role: scope.RolePatient}

	form := buildForm(t, "medicalFiles", "scan.jpg", jpegHeader)
	defer form.RemoveAll()
	if _, err := svc.Upload(ctx, me, patientID, form); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	docs, err := svc.List(ctx, me, patientID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("listed %d documents", len(docs))
	}

	admin := scope.Caller{UserID: uuid.New(), Role: scope.RoleAdmin}
	if _, err := svc.List(ctx, admin, patientID); err != nil {
		t.Errorf("admin list: %v", err)
	}
}
