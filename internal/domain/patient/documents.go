package patient

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/blobstore"
	"github.com/carelink/carelink/internal/platform/scope"
	"github.com/carelink/carelink/pkg/envelope"
)

const documentOwnerType = "patient"

// DocumentService stores patient identity and medical documents. Access
// follows the same patient scope rules as the profile itself.
type DocumentService struct {
	store    blobstore.Store
	resolver *scope.Resolver
}

func NewDocumentService(store blobstore.Store, resolver *scope.Resolver) *DocumentService {
	return &DocumentService{store: store, resolver: resolver}
}

// Upload validates and stores every file in the multipart form. Any
// rejected file fails the whole request; blobs stored before the failing
// file are not rolled back.
func (s *DocumentService) Upload(ctx context.Context, caller scope.Caller, patientID uuid.UUID, form *multipart.Form) ([]*blobstore.BlobMetadata, error) {
	ok, err := s.resolver.CanAccessPatient(ctx, caller, patientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	files, err := blobstore.CollectFiles(form)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files in upload")
	}

	var stored []*blobstore.BlobMetadata
	for _, f := range files {
		src, err := f.Header.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Header.Filename, err)
		}
		meta, err := s.store.Save(ctx, blobstore.BlobMetadata{
			FileName:    f.Header.Filename,
			Category:    f.Category,
			OwnerType:   documentOwnerType,
			OwnerID:     patientID,
			ContentType: f.Header.Header.Get("Content-Type"),
		}, src)
		src.Close()
		if err != nil {
			return nil, err
		}
		stored = append(stored, meta)
	}
	return stored, nil
}

func (s *DocumentService) List(ctx context.Context, caller scope.Caller, patientID uuid.UUID) ([]*blobstore.BlobMetadata, error) {
	ok, err := s.resolver.CanAccessPatient(ctx, caller, patientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.store.ListByOwner(ctx, documentOwnerType, patientID)
}

// DocumentHandler serves the document routes under /patients/:id.
type DocumentHandler struct {
	svc *DocumentService
}

func NewDocumentHandler(svc *DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

func (h *DocumentHandler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/patients/:id/documents")
	g.POST("", h.Upload)
	g.GET("", h.List)
	g.GET("/:docID", h.Download)
}

func (h *DocumentHandler) Upload(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid id")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "expected multipart form data")
	}

	stored, err := h.svc.Upload(c.Request().Context(), caller(c), patientID, form)
	if err != nil {
		switch {
		case errors.Is(err, ErrForbidden):
			return envelope.Fail(c, http.StatusForbidden, "access denied")
		case errors.Is(err, blobstore.ErrFileTooLarge):
			return envelope.Fail(c, http.StatusRequestEntityTooLarge, err.Error())
		default:
			return envelope.Fail(c, http.StatusBadRequest, err.Error())
		}
	}
	return envelope.OK(c, http.StatusCreated, "documents uploaded", stored)
}

func (h *DocumentHandler) List(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid id")
	}
	docs, err := h.svc.List(c.Request().Context(), caller(c), patientID)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.Fail(c, http.StatusForbidden, "access denied")
		}
		return envelope.Fail(c, http.StatusInternalServerError, "could not list documents")
	}
	return envelope.OK(c, http.StatusOK, "", docs)
}

func (h *DocumentHandler) Download(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid id")
	}
	docID, err := uuid.Parse(c.Param("docID"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid document id")
	}

	ctx := c.Request().Context()
	ok, err := h.svc.resolver.CanAccessPatient(ctx, caller(c), patientID)
	if err != nil {
		return envelope.Fail(c, http.StatusInternalServerError, "could not resolve access")
	}
	if !ok {
		return envelope.Fail(c, http.StatusForbidden, "access denied")
	}

	content, meta, err := h.svc.store.Open(ctx, docID)
	if err != nil || meta.OwnerType != documentOwnerType || meta.OwnerID != patientID {
		return envelope.Fail(c, http.StatusNotFound, "document not found")
	}
	defer content.Close()
	return c.Stream(http.StatusOK, meta.ContentType, content)
}
