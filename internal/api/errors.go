package api

import (
	"errors"
	"net/http"

	"freight-insure/internal/dto"
	"freight-insure/internal/intake"
	"freight-insure/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ErrorKey string

type ErrorCategory string

const (
	CategoryUser         ErrorCategory = "user"
	CategoryNotFound     ErrorCategory = "notFound"
	CategoryConflict     ErrorCategory = "conflict"
	CategoryUnauthorized ErrorCategory = "unauthorized"
	CategoryRemote       ErrorCategory = "remote"
	CategoryInternal     ErrorCategory = "internal"
)

const (
	ErrorInvalidRequest      ErrorKey = "ErrorInvalidRequest"
	ErrorValidation          ErrorKey = "ErrorValidation"
	ErrorSessionNotFound     ErrorKey = "ErrorSessionNotFound"
	ErrorSessionFinished     ErrorKey = "ErrorSessionFinished"
	ErrorSubmissionInFlight  ErrorKey = "ErrorSubmissionInFlight"
	ErrorDocumentBusy        ErrorKey = "ErrorDocumentBusy"
	ErrorInactiveBranch      ErrorKey = "ErrorInactiveBranch"
	ErrorStaleDispatch       ErrorKey = "ErrorStaleDispatch"
	ErrorUnauthorized        ErrorKey = "ErrorUnauthorized"
	ErrorFileTooLarge        ErrorKey = "ErrorFileTooLarge"
	ErrorUnsupportedFileType ErrorKey = "ErrorUnsupportedFileType"
	ErrorUploadFailed        ErrorKey = "ErrorUploadFailed"
	ErrorExtractionFailed    ErrorKey = "ErrorExtractionFailed"
	ErrorSubmissionFailed    ErrorKey = "ErrorSubmissionFailed"
	ErrorInternal            ErrorKey = "ErrorInternal"
)

// AppError is the JSON body of every failed API call.
type AppError struct {
	Err error `json:"-"`

	Key        ErrorKey      `json:"key"`
	Category   ErrorCategory `json:"-"`
	HTTPStatus int           `json:"status"`
	Message    string        `json:"message"`

	// Notice is the short operator message for recognition and order
	// failures.
	Notice string `json:"notice,omitempty"`

	// Fields carries per-field messages for validation failures.
	Fields map[string]string `json:"fields,omitempty"`

	// Session is the state after the failed action, when there is one.
	Session *dto.SessionView `json:"session,omitempty"`
}

func (a *AppError) Error() string {
	if a.Err == nil {
		return a.Message
	}
	return a.Err.Error()
}

func (a *AppError) Unwrap() error {
	return a.Err
}

func NewAppError(err error, key ErrorKey, category ErrorCategory) *AppError {
	return &AppError{
		Err:      err,
		Key:      key,
		Category: category,
		Message:  messageOf(err),
	}
}

func messageOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// setHTTPStatusFromCategory assigns the status for the category unless one
// is already set.
func (a *AppError) setHTTPStatusFromCategory() {
	if a.HTTPStatus != 0 {
		return
	}
	switch a.Category {
	case CategoryNotFound:
		a.HTTPStatus = http.StatusNotFound
	case CategoryConflict:
		a.HTTPStatus = http.StatusConflict
	case CategoryUnauthorized:
		a.HTTPStatus = http.StatusUnauthorized
	case CategoryRemote:
		a.HTTPStatus = http.StatusBadGateway
	case CategoryInternal:
		a.HTTPStatus = http.StatusInternalServerError
	default:
		a.HTTPStatus = http.StatusBadRequest
	}
}

// ToAppError classifies err for the operator. Order matters: a validation
// error or an auth rejection can sit inside an intake.Error.
func ToAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		appErr.setHTTPStatusFromCategory()
		return appErr
	}

	a := classify(err)
	var se *dto.SessionError
	if errors.As(err, &se) {
		a.Session = &se.Session
	}
	return a
}

func classify(err error) *AppError {
	var a *AppError
	var verr *intake.ValidationError
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &verr):
		a = NewAppError(err, ErrorValidation, CategoryUser)
		a.HTTPStatus = http.StatusUnprocessableEntity
		a.Fields = verr.Fields
	case errors.Is(err, service.ErrUnauthorized):
		a = NewAppError(err, ErrorUnauthorized, CategoryUnauthorized)
	case errors.Is(err, service.ErrSessionNotFound):
		a = NewAppError(err, ErrorSessionNotFound, CategoryNotFound)
	case errors.Is(err, intake.ErrSessionFinished):
		a = NewAppError(err, ErrorSessionFinished, CategoryConflict)
	case errors.Is(err, intake.ErrSubmissionInFlight):
		a = NewAppError(err, ErrorSubmissionInFlight, CategoryConflict)
	case errors.Is(err, intake.ErrSlotBusy), errors.Is(err, intake.ErrSessionBusy):
		a = NewAppError(err, ErrorDocumentBusy, CategoryConflict)
	case errors.Is(err, intake.ErrInactiveBranch):
		a = NewAppError(err, ErrorInactiveBranch, CategoryConflict)
	case errors.Is(err, intake.ErrStaleDispatch):
		a = NewAppError(err, ErrorStaleDispatch, CategoryConflict)
	case errors.Is(err, intake.ErrInvalidStep),
		errors.Is(err, intake.ErrUnknownKind),
		errors.Is(err, intake.ErrUnknownBranch),
		errors.Is(err, intake.ErrStepMismatch):
		a = NewAppError(err, ErrorInvalidRequest, CategoryUser)
	case errors.Is(err, service.ErrFileTooLarge):
		a = NewAppError(err, ErrorFileTooLarge, CategoryUser)
		a.HTTPStatus = http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrUnsupportedType), errors.Is(err, service.ErrEmptyFile):
		a = NewAppError(err, ErrorUnsupportedFileType, CategoryUser)
		a.HTTPStatus = http.StatusUnsupportedMediaType
	case intake.KindOf(err) == intake.UploadFailure:
		a = NewAppError(err, ErrorUploadFailed, CategoryRemote)
	case intake.KindOf(err) == intake.ExtractionFailure:
		a = NewAppError(err, ErrorExtractionFailed, CategoryRemote)
	case intake.KindOf(err) == intake.SubmissionFailure:
		a = NewAppError(err, ErrorSubmissionFailed, CategoryRemote)
	case errors.As(err, &fiberErr):
		a = NewAppError(err, ErrorInvalidRequest, CategoryUser)
		a.HTTPStatus = fiberErr.Code
	default:
		a = NewAppError(err, ErrorInternal, CategoryInternal)
		a.Message = "internal server error"
	}

	a.Notice = intake.KindOf(err).Notice()
	a.setHTTPStatusFromCategory()
	return a
}

// ErrorHandler renders every error returned by a handler as an AppError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	a := ToAppError(err)
	return c.Status(a.HTTPStatus).JSON(a)
}
