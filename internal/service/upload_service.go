package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/cohort-lms-api/internal/observability"
)

// Accepted upload kinds.
var (
	PDFOnly = []string{"application/pdf"}

	SubmissionTypes = []string{
		"application/pdf",
		"application/zip",
		"image",
		"text/plain",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = newError(KindInvalidInput, "File exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the detected type is not permitted.
	ErrUploadTypeNotAllowed = newError(KindInvalidInput, "File type not allowed")
)

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// StoredFile describes a file accepted by the upload service.
type StoredFile struct {
	URL       string
	FileName  string
	MimeType  string
	SizeBytes int64
}

// UploadService validates multipart files and hands them to the configured FileStorage.
type UploadService interface {
	Store(ctx context.Context, file *multipart.FileHeader, allowed []string) (StoredFile, error)
}

type uploadService struct {
	storage FileStorage
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
	now     func() time.Time
}

// NewUploadService constructs an upload service.
func NewUploadService(storage FileStorage, maxSizeMB int, logger zerolog.Logger) UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &uploadService{
		storage: storage,
		logger:  logger.With().Str("component", "upload_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/cohort-lms-api/internal/service/upload"),
		now:     time.Now,
	}
}

func (s *uploadService) Store(ctx context.Context, file *multipart.FileHeader, allowed []string) (StoredFile, error) {
	ctx, span := s.tracer.Start(ctx, "upload.store")
	defer span.End()

	if file == nil {
		span.SetStatus(codes.Error, "file missing")
		return StoredFile{}, ErrFileRequired
	}
	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		observability.UploadsRejected().WithLabelValues("size").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return StoredFile{}, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		return StoredFile{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		return StoredFile{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		observability.UploadsRejected().WithLabelValues("size").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return StoredFile{}, ErrUploadTooLarge
	}

	fileType := normalizeMime(mimetype.Detect(buf.Bytes()).String())
	span.SetAttributes(attribute.String("upload.detected_mime", fileType))
	if !mimeAllowed(fileType, allowed) {
		observability.UploadsRejected().WithLabelValues("type").Inc()
		span.SetStatus(codes.Error, "type not allowed")
		return StoredFile{}, ErrUploadTypeNotAllowed
	}

	name := sanitizeFileName(file.Filename, s.now())
	url, err := s.storage.Upload(ctx, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.UploadsRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return StoredFile{}, fmt.Errorf("store upload: %w", err)
	}

	observability.UploadsStored().WithLabelValues(fileType).Inc()
	span.SetStatus(codes.Ok, "stored")
	s.logger.Debug().Str("file_name", name).Str("mime", fileType).Msg("upload stored")

	return StoredFile{URL: url, FileName: name, MimeType: fileType, SizeBytes: int64(buf.Len())}, nil
}

func sanitizeFileName(name string, ref time.Time) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = "upload"
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("%s-%d%s", base, ref.UnixNano(), ext)
}

func normalizeMime(m string) string {
	lower := strings.ToLower(strings.TrimSpace(m))
	if idx := strings.Index(lower, ";"); idx >= 0 {
		lower = strings.TrimSpace(lower[:idx])
	}
	if strings.HasPrefix(lower, "image/") {
		return "image"
	}
	if lower == "application/x-zip-compressed" {
		return "application/zip"
	}
	return lower
}

func mimeAllowed(m string, allowed []string) bool {
	for _, candidate := range allowed {
		if m == candidate {
			return true
		}
	}
	return false
}
