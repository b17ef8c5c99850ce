package service

import (
	"context"
	"errors"
	"testing"

	"freight-insure/internal/intake"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRecognizer struct {
	res intake.Extraction
	err error
}

func (s stubRecognizer) Recognize(context.Context, intake.DocumentKind, intake.UploadedFile) (intake.Extraction, error) {
	return s.res, s.err
}

func TestOCRServiceNormalizes(t *testing.T) {
	svc := NewOCRService(stubRecognizer{res: intake.Extraction{
		ID:      5,
		Name:    " 张三 ",
		Number:  "110101199001011234\n",
		Address: "北京",
		Plate:   "should be dropped",
	}}, "stub", zap.NewNop())

	res, err := svc.Extract(context.Background(), intake.KindIDCard, intake.UploadedFile{})
	require.NoError(t, err)
	require.Equal(t, intake.Extraction{ID: 5, Name: "张三", Number: "110101199001011234", Address: "北京"}, res)
}

func TestOCRServiceUppercasesVehicleCodes(t *testing.T) {
	svc := NewOCRService(stubRecognizer{res: intake.Extraction{
		Plate: "苏a12345", VehicleType: "重型厢式货车", Engine: "e1", Frame: "lfv123",
	}}, "stub", zap.NewNop())

	res, err := svc.Extract(context.Background(), intake.KindDriving, intake.UploadedFile{})
	require.NoError(t, err)
	require.Equal(t, "苏A12345", res.Plate)
	require.Equal(t, "LFV123", res.Frame)
	require.Equal(t, "e1", res.Engine)
}

func TestOCRServiceEmptyResultFails(t *testing.T) {
	svc := NewOCRService(stubRecognizer{res: intake.Extraction{ID: 3, Name: "ignored"}}, "stub", zap.NewNop())

	_, err := svc.Extract(context.Background(), intake.KindCertificate, intake.UploadedFile{})
	require.EqualError(t, err, "no fields recognized on certificate")
}

func TestOCRServiceWrapsProviderError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewOCRService(stubRecognizer{err: boom}, "stub", zap.NewNop())

	_, err := svc.Extract(context.Background(), intake.KindBusiness, intake.UploadedFile{})
	require.ErrorIs(t, err, boom)
}

func TestSanitizeUTF8(t *testing.T) {
	require.Equal(t, "苏A", sanitizeUTF8("苏\xffA"))
	require.Equal(t, "ok", sanitizeUTF8("ok"))
}
