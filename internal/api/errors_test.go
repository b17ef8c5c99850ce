package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"freight-insure/internal/dto"
	"freight-insure/internal/intake"
	"freight-insure/internal/service"

	"github.com/stretchr/testify/require"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		key    ErrorKey
		notice string
	}{
		{
			name:   "validation",
			err:    &intake.ValidationError{Step: intake.StepVehicle, Fields: map[string]string{"plate": intake.PlateRejection}},
			status: http.StatusUnprocessableEntity,
			key:    ErrorValidation,
		},
		{
			name:   "rejected token inside submission failure",
			err:    &intake.Error{Kind: intake.SubmissionFailure, Op: "create order", Err: service.ErrUnauthorized},
			status: http.StatusUnauthorized,
			key:    ErrorUnauthorized,
			notice: intake.NoticeOrderFailed,
		},
		{
			name:   "order service down",
			err:    &intake.Error{Kind: intake.SubmissionFailure, Op: "create order", Err: errors.New("connection refused")},
			status: http.StatusBadGateway,
			key:    ErrorSubmissionFailed,
			notice: intake.NoticeOrderFailed,
		},
		{
			name:   "ocr failure",
			err:    &intake.Error{Kind: intake.ExtractionFailure, Op: "recognize idCard", Err: errors.New("timeout")},
			status: http.StatusBadGateway,
			key:    ErrorExtractionFailed,
			notice: intake.NoticeRecognitionFailed,
		},
		{
			name:   "file too large",
			err:    &intake.Error{Kind: intake.UploadFailure, Op: "upload idCard", Err: service.ErrFileTooLarge},
			status: http.StatusRequestEntityTooLarge,
			key:    ErrorFileTooLarge,
			notice: intake.NoticeRecognitionFailed,
		},
		{
			name:   "busy slot",
			err:    intake.ErrSlotBusy,
			status: http.StatusConflict,
			key:    ErrorDocumentBusy,
		},
		{
			name:   "other slot recognizing",
			err:    intake.ErrSessionBusy,
			status: http.StatusConflict,
			key:    ErrorDocumentBusy,
		},
		{
			name:   "wrapped not found",
			err:    fmt.Errorf("lookup: %w", service.ErrSessionNotFound),
			status: http.StatusNotFound,
			key:    ErrorSessionNotFound,
		},
		{
			name:   "unexpected",
			err:    errors.New("nil map"),
			status: http.StatusInternalServerError,
			key:    ErrorInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToAppError(tt.err)
			require.Equal(t, tt.status, got.HTTPStatus)
			require.Equal(t, tt.key, got.Key)
			require.Equal(t, tt.notice, got.Notice)
			require.ErrorIs(t, got, tt.err)
		})
	}
}

func TestToAppErrorKeepsSession(t *testing.T) {
	view := dto.NewSessionView(intake.NewSession("s-1"))
	err := &dto.SessionError{Session: view, Err: intake.ErrSubmissionInFlight}

	got := ToAppError(err)
	require.Equal(t, http.StatusConflict, got.HTTPStatus)
	require.NotNil(t, got.Session)
	require.Equal(t, "s-1", got.Session.ID)
	require.Equal(t, "internal server error", ToAppError(errors.New("x")).Message)
}
