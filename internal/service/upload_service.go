package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"freight-insure/internal/intake"
	"freight-insure/internal/models"
	"freight-insure/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrFileTooLarge       = errors.New("file exceeds maximum size")
	ErrUnsupportedType    = errors.New("unsupported file type")
	ErrEmptyFile          = errors.New("file is empty")
	allowedContentTypes   = []string{"image/jpeg", "image/png", "image/bmp", "image/gif", "image/webp", "application/pdf"}
	defaultMaxUploadBytes = int64(10 << 20)
)

// documentRecords is the part of the document repository used for uploads.
type documentRecords interface {
	Create(ctx context.Context, doc *models.Document) error
	UpdateExtraction(ctx context.Context, id int64, status models.OCRStatus, extracted []byte, ocrErr string) error
}

// UploadService stores operator files and keeps a record of each upload
// and its recognition outcome.
type UploadService struct {
	docRepo documentRecords
	store   storage.Store
	maxSize int64
	logger  *zap.Logger
}

func NewUploadService(docRepo documentRecords, store storage.Store, maxSize int64, logger *zap.Logger) *UploadService {
	if maxSize <= 0 {
		maxSize = defaultMaxUploadBytes
	}
	return &UploadService{
		docRepo: docRepo,
		store:   store,
		maxSize: maxSize,
		logger:  logger,
	}
}

// Upload implements intake.Uploader.
func (s *UploadService) Upload(ctx context.Context, kind intake.DocumentKind, src intake.FileSource) (intake.UploadedFile, error) {
	if src.Size > s.maxSize {
		return intake.UploadedFile{}, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, src.Size)
	}

	data, err := io.ReadAll(io.LimitReader(src.Body, s.maxSize+1))
	if err != nil {
		return intake.UploadedFile{}, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return intake.UploadedFile{}, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, s.maxSize)
	}
	if len(data) == 0 {
		return intake.UploadedFile{}, ErrEmptyFile
	}

	detected := mimetype.Detect(data)
	contentType := detected.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	if !mimetype.EqualsAny(contentType, allowedContentTypes...) {
		return intake.UploadedFile{}, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	ext := strings.ToLower(filepath.Ext(src.Name))
	if !sameImageExt(ext, detected.Extension()) {
		ext = detected.Extension()
	}
	key := fmt.Sprintf("%s/%s%s", kind, uuid.New().String(), ext)

	obj, err := s.store.Put(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		return intake.UploadedFile{}, fmt.Errorf("failed to store file: %w", err)
	}

	now := time.Now()
	doc := &models.Document{
		SessionID:   sessionIDFrom(ctx),
		Kind:        string(kind),
		FileName:    sanitizeUTF8(src.Name),
		ContentType: contentType,
		FileSize:    int64(len(data)),
		StorageKey:  obj.Key,
		URL:         obj.URL,
		OCRStatus:   models.OCRStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		if delErr := s.store.Delete(ctx, obj.Key); delErr != nil {
			s.logger.Warn("Failed to remove orphaned file", zap.String("key", obj.Key), zap.Error(delErr))
		}
		return intake.UploadedFile{}, fmt.Errorf("failed to create document record: %w", err)
	}

	s.logger.Info("Document uploaded",
		zap.String("kind", string(kind)),
		zap.Int64("upload_id", doc.ID),
		zap.String("content_type", contentType),
		zap.Int64("size", doc.FileSize),
	)

	return intake.UploadedFile{
		UploadID:    doc.ID,
		Name:        doc.FileName,
		URL:         obj.URL,
		ContentType: contentType,
		Key:         obj.Key,
	}, nil
}

// sameImageExt treats .jpeg and .jpg as the same extension.
func sameImageExt(a, b string) bool {
	norm := func(e string) string {
		if e == ".jpeg" {
			return ".jpg"
		}
		return e
	}
	return norm(a) == norm(b)
}

// RecordOutcome stores the recognition result with its upload record. It
// is the dispatcher's outcome hook, so failures are only logged.
func (s *UploadService) RecordOutcome(ctx context.Context, o intake.Outcome) {
	if o.File.UploadID == 0 {
		return
	}

	status := models.OCRStatusFailed
	var extracted []byte
	var ocrErr string
	switch {
	case o.Stale:
		status = models.OCRStatusDiscarded
	case o.Status == intake.StatusSucceeded:
		status = models.OCRStatusSucceeded
	}
	if o.Result != nil {
		var err error
		if extracted, err = json.Marshal(o.Result); err != nil {
			s.logger.Warn("Failed to encode extraction", zap.Error(err))
		}
	}
	if o.Err != nil {
		ocrErr = sanitizeUTF8(o.Err.Error())
	}

	if err := s.docRepo.UpdateExtraction(ctx, o.File.UploadID, status, extracted, ocrErr); err != nil {
		s.logger.Warn("Failed to record recognition outcome",
			zap.Int64("upload_id", o.File.UploadID),
			zap.Error(err),
		)
	}
}

type sessionIDKey struct{}

func withSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

func sessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}
