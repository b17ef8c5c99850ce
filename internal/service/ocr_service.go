package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"freight-insure/internal/intake"
	"freight-insure/pkg/config"

	"go.uber.org/zap"
)

// Recognizer extracts the fields of one document kind from a stored file.
type Recognizer interface {
	Recognize(ctx context.Context, kind intake.DocumentKind, file intake.UploadedFile) (intake.Extraction, error)
}

// OCRService runs the configured recognition provider and normalizes its
// output before it reaches the wizard.
type OCRService struct {
	provider Recognizer
	method   string
	logger   *zap.Logger
}

func NewOCRService(provider Recognizer, method string, logger *zap.Logger) *OCRService {
	return &OCRService{
		provider: provider,
		method:   method,
		logger:   logger,
	}
}

// Extract implements intake.Extractor.
func (s *OCRService) Extract(ctx context.Context, kind intake.DocumentKind, file intake.UploadedFile) (intake.Extraction, error) {
	s.logger.Info("Recognizing document",
		zap.String("kind", string(kind)),
		zap.String("method", s.method),
		zap.Int64("upload_id", file.UploadID),
	)
	start := time.Now()

	res, err := s.provider.Recognize(ctx, kind, file)
	if err != nil {
		s.logger.Warn("Document recognition failed",
			zap.String("kind", string(kind)),
			zap.String("method", s.method),
			zap.Error(err),
		)
		return intake.Extraction{}, fmt.Errorf("failed to recognize %s: %w", kind, err)
	}

	res = normalizeExtraction(kind, res)
	if !hasFields(kind, res) {
		s.logger.Warn("No fields recognized", zap.String("kind", string(kind)))
		return intake.Extraction{}, fmt.Errorf("no fields recognized on %s", kind)
	}

	s.logger.Info("Document recognized",
		zap.String("kind", string(kind)),
		zap.String("method", s.method),
		zap.Int64("id", res.ID),
		zap.Duration("took", time.Since(start)),
	)
	return res, nil
}

// normalizeExtraction trims values and keeps only the fields fed by kind.
func normalizeExtraction(kind intake.DocumentKind, r intake.Extraction) intake.Extraction {
	clean := func(v string) string {
		return strings.TrimSpace(sanitizeUTF8(v))
	}
	out := intake.Extraction{ID: r.ID}
	switch kind {
	case intake.KindIDCard, intake.KindBusiness:
		out.Name = clean(r.Name)
		out.Number = clean(r.Number)
		out.Address = clean(r.Address)
	case intake.KindDriving:
		out.Plate = strings.ToUpper(clean(r.Plate))
		out.VehicleType = clean(r.VehicleType)
		out.Engine = clean(r.Engine)
		out.Frame = strings.ToUpper(clean(r.Frame))
	case intake.KindCertificate:
		out.Engine = clean(r.Engine)
		out.Frame = strings.ToUpper(clean(r.Frame))
	}
	return out
}

func hasFields(kind intake.DocumentKind, r intake.Extraction) bool {
	switch kind {
	case intake.KindIDCard, intake.KindBusiness:
		return r.Name != "" || r.Number != "" || r.Address != ""
	case intake.KindDriving:
		return r.Plate != "" || r.VehicleType != "" || r.Engine != "" || r.Frame != ""
	case intake.KindCertificate:
		return r.Engine != "" || r.Frame != ""
	}
	return false
}

// RemoteOCR calls the freight OCR endpoints with the stored file URL.
type RemoteOCR struct {
	client *remoteClient
	logger *zap.Logger
}

func NewRemoteOCR(cfg *config.OCRConfig, serviceToken string, logger *zap.Logger) *RemoteOCR {
	return &RemoteOCR{
		client: newRemoteClient(cfg.BaseURL, serviceToken, cfg.Timeout, logger),
		logger: logger,
	}
}

type ocrRequest struct {
	URL string `json:"url"`
}

func (r *RemoteOCR) Recognize(ctx context.Context, kind intake.DocumentKind, file intake.UploadedFile) (intake.Extraction, error) {
	var res intake.Extraction
	if err := r.client.post(ctx, "/ocr/"+string(kind), ocrRequest{URL: file.URL}, &res); err != nil {
		return intake.Extraction{}, err
	}
	return res, nil
}
