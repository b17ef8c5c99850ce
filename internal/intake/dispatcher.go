package intake

import (
	"context"
	"fmt"
	"io"
)

// FileSource is a raw file handed in by the operator.
type FileSource struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploader stores a raw file and returns a URL the extractor can reach.
type Uploader interface {
	Upload(ctx context.Context, kind DocumentKind, src FileSource) (UploadedFile, error)
}

// Extractor runs recognition for kind on an uploaded file.
type Extractor interface {
	Extract(ctx context.Context, kind DocumentKind, file UploadedFile) (Extraction, error)
}

// Outcome describes how one dispatch ended.
type Outcome struct {
	Kind   DocumentKind
	File   UploadedFile
	Status OCRStatus
	Result *Extraction
	Stale  bool
	Err    error
}

type DispatcherOption func(*Dispatcher)

// WithOutcomeHook is called after every dispatch that reached the upload
// surface, e.g. to record the recognition result with the stored file.
func WithOutcomeHook(fn func(context.Context, Outcome)) DispatcherOption {
	return func(d *Dispatcher) {
		d.onOutcome = fn
	}
}

// Dispatcher runs upload and recognition for a slot and folds the outcome
// back into the wizard. Only one dispatch per session is in flight: a second
// upload into the pending slot fails with ErrSlotBusy, into any other slot
// with ErrSessionBusy.
type Dispatcher struct {
	uploader  Uploader
	extractor Extractor
	onOutcome func(context.Context, Outcome)
}

func NewDispatcher(uploader Uploader, extractor Extractor, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{uploader: uploader, extractor: extractor}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch blocks until the recognition outcome is known. A result that
// arrives after the slot was reset is dropped and ErrStaleDispatch returned.
func (d *Dispatcher) Dispatch(ctx context.Context, w *Wizard, kind DocumentKind, src FileSource) (Session, error) {
	gen, err := w.beginUpload(kind, UploadedFile{Name: src.Name, ContentType: src.ContentType})
	if err != nil {
		return w.Snapshot(), err
	}

	file, err := d.uploader.Upload(ctx, kind, src)
	if err != nil {
		s, _ := w.settle(kind, gen, UploadFailed{Kind: kind, Generation: gen})
		return s, &Error{Kind: UploadFailure, Op: fmt.Sprintf("upload %s", kind), Err: err}
	}
	if s, ok := w.settle(kind, gen, UploadStored{Kind: kind, Generation: gen, File: file}); !ok {
		d.report(ctx, Outcome{Kind: kind, File: file, Status: StatusIdle, Stale: true})
		return s, ErrStaleDispatch
	}

	res, err := d.extractor.Extract(ctx, kind, file)
	if err != nil {
		s, applied := w.settle(kind, gen, UploadFailed{Kind: kind, Generation: gen})
		d.report(ctx, Outcome{Kind: kind, File: file, Status: StatusFailed, Stale: !applied, Err: err})
		return s, &Error{Kind: ExtractionFailure, Op: fmt.Sprintf("recognize %s", kind), Err: err}
	}
	if res.ID == 0 {
		res.ID = file.UploadID
	}

	s, applied := w.settle(kind, gen, UploadCompleted{Kind: kind, Generation: gen, Result: res})
	d.report(ctx, Outcome{Kind: kind, File: file, Status: StatusSucceeded, Result: &res, Stale: !applied})
	if !applied {
		return s, ErrStaleDispatch
	}
	return s, nil
}

func (d *Dispatcher) report(ctx context.Context, o Outcome) {
	if d.onOutcome != nil {
		d.onOutcome(ctx, o)
	}
}
