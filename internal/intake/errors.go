package intake

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownKind         = errors.New("unknown document kind")
	ErrUnknownBranch       = errors.New("unknown branch")
	ErrInactiveBranch      = errors.New("document kind is not part of the active branch")
	ErrSlotBusy            = errors.New("document is still being recognized")
	ErrSessionBusy         = errors.New("another document is still being recognized")
	ErrInvalidStep         = errors.New("step index out of range")
	ErrSessionFinished     = errors.New("intake session already finished")
	ErrSubmissionInFlight  = errors.New("order submission already in progress")
	ErrDocumentNotVerified = errors.New("document not verified")
	ErrStaleDispatch       = errors.New("recognition result discarded: document slot was reset")
	ErrStepMismatch        = errors.New("submitted data does not belong to the current step")
)

// ErrorKind classifies failures the operator can recover from by re-acting.
type ErrorKind int

const (
	UploadFailure ErrorKind = iota + 1
	ExtractionFailure
	ValidationFailure
	SubmissionFailure
)

func (k ErrorKind) String() string {
	switch k {
	case UploadFailure:
		return "UploadFailure"
	case ExtractionFailure:
		return "ExtractionFailure"
	case ValidationFailure:
		return "ValidationFailure"
	case SubmissionFailure:
		return "SubmissionFailure"
	}
	return "UnknownFailure"
}

// Operator notices shown after a dispatch or an order submission.
const (
	NoticeRecognized        = "识别成功"
	NoticeRecognitionFailed = "识别失败"
	NoticeOrderFailed       = "订单创建失败"
)

// Notice is the operator notice for a failure of kind k, or "" when the
// failure is shown by its fields instead.
func (k ErrorKind) Notice() string {
	switch k {
	case UploadFailure, ExtractionFailure:
		return NoticeRecognitionFailed
	case SubmissionFailure:
		return NoticeOrderFailed
	}
	return ""
}

// Error wraps a collaborator failure with its kind and the operation that
// produced it.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the ErrorKind carried by err, or 0 when there is none.
func KindOf(err error) ErrorKind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ValidationFailure
	}
	return 0
}

// ValidationError holds field scoped messages keyed by JSON field name.
type ValidationError struct {
	Step   Step
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("validation failed on %s step: %s", e.Step, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is(err, ErrDocumentNotVerified) match lock failures.
func (e *ValidationError) Unwrap() error {
	for _, msg := range e.Fields {
		if msg == ErrDocumentNotVerified.Error() {
			return ErrDocumentNotVerified
		}
	}
	return nil
}

func newLockError(step Step, fields []string) *ValidationError {
	ve := &ValidationError{Step: step, Fields: make(map[string]string, len(fields))}
	for _, f := range fields {
		ve.Fields[f] = ErrDocumentNotVerified.Error()
	}
	return ve
}
