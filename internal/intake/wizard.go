package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// OrderConfirmation is what the order service answers on success.
type OrderConfirmation struct {
	OrderID string          `json:"orderId,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// OrderCreator hands an assembled payload to the order service.
type OrderCreator interface {
	CreateOrder(ctx context.Context, p Payload) (*OrderConfirmation, error)
}

// CompletionFunc is called once, after the session finished.
type CompletionFunc func(Session, *OrderConfirmation)

type WizardOption func(*Wizard)

// WithCompletion registers the callback used by the hosting surface to
// redirect or discard the session.
func WithCompletion(fn CompletionFunc) WizardOption {
	return func(w *Wizard) {
		w.onComplete = fn
	}
}

// Wizard is the step controller of one session. All state changes go
// through Apply under the wizard lock; remote calls run outside of it.
type Wizard struct {
	mu         sync.Mutex
	state      Session
	orders     OrderCreator
	onComplete CompletionFunc
	submitting bool
}

func NewWizard(s Session, orders OrderCreator, opts ...WizardOption) *Wizard {
	w := &Wizard{state: s.clone(), orders: orders}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Snapshot returns a copy of the current session.
func (w *Wizard) Snapshot() Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.clone()
}

func (w *Wizard) apply(e Event) (Session, error) {
	return w.update(func(Session) Event { return e })
}

// update applies the event built from the state held under the lock.
func (w *Wizard) update(build func(Session) Event) (Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return w.state.clone(), ErrSubmissionInFlight
	}
	next, err := Apply(w.state, build(w.state.clone()))
	w.state = next
	return w.state.clone(), err
}

func (w *Wizard) GoTo(index int) (Session, error) {
	return w.apply(StepNavigated{Index: index})
}

func (w *Wizard) SetIdentityBranch(b IdentityBranch) (Session, error) {
	return w.apply(IdentityBranchSelected{Branch: b})
}

func (w *Wizard) SetVehicleBranch(b VehicleBranch) (Session, error) {
	return w.apply(VehicleBranchSelected{Branch: b})
}

func (w *Wizard) EditIdentity(f IdentityFields) (Session, error) {
	return w.apply(IdentityEdited{Fields: f})
}

func (w *Wizard) EditVehicle(f VehicleFields) (Session, error) {
	return w.apply(VehicleEdited{Fields: f})
}

// PatchIdentity edits the identity fields with fn applied to their current
// value.
func (w *Wizard) PatchIdentity(fn func(IdentityFields) IdentityFields) (Session, error) {
	return w.update(func(s Session) Event {
		return IdentityEdited{Fields: fn(s.Identity)}
	})
}

func (w *Wizard) PatchVehicle(fn func(VehicleFields) VehicleFields) (Session, error) {
	return w.update(func(s Session) Event {
		return VehicleEdited{Fields: fn(s.Vehicle)}
	})
}

func (w *Wizard) RemoveFile(kind DocumentKind) (Session, error) {
	return w.apply(FileRemoved{Kind: kind})
}

// beginUpload marks kind pending and returns the dispatch generation.
func (w *Wizard) beginUpload(kind DocumentKind, file UploadedFile) (uint64, error) {
	s, err := w.apply(UploadStarted{Kind: kind, File: file})
	if err != nil {
		return 0, err
	}
	return s.Slot(kind).Generation, nil
}

// settle applies a dispatch outcome and reports whether it was still current.
func (w *Wizard) settle(kind DocumentKind, gen uint64, e Event) (Session, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := current(w.state, kind, gen); !ok {
		return w.state.clone(), false
	}
	next, err := Apply(w.state, e)
	if err != nil {
		return w.state.clone(), false
	}
	w.state = next
	return w.state.clone(), true
}

// Submit validates and merges the current step. On the last step it
// assembles the payload and creates the order; a failed creation leaves
// every entered value in place so the operator can resubmit.
func (w *Wizard) Submit(ctx context.Context, data StepData) (Session, *OrderConfirmation, error) {
	return w.SubmitWith(ctx, func(Session) (StepData, error) { return data, nil })
}

// SubmitWith is Submit with the step data built from the locked session.
// An error from build is returned unchanged and nothing is applied.
func (w *Wizard) SubmitWith(ctx context.Context, build func(Session) (StepData, error)) (Session, *OrderConfirmation, error) {
	w.mu.Lock()
	if w.submitting {
		s := w.state.clone()
		w.mu.Unlock()
		return s, nil, ErrSubmissionInFlight
	}
	data, err := build(w.state.clone())
	if err != nil {
		s := w.state.clone()
		w.mu.Unlock()
		return s, nil, err
	}
	last := w.state.CurrentStep == LastStep
	next, err := Apply(w.state, StepConfirmed{Data: data})
	if err != nil {
		s := w.state.clone()
		w.mu.Unlock()
		return s, nil, err
	}
	w.state = next
	if !last {
		s := w.state.clone()
		w.mu.Unlock()
		return s, nil, nil
	}

	payload, err := Assemble(w.state)
	if err != nil {
		s := w.state.clone()
		w.mu.Unlock()
		return s, nil, &Error{Kind: SubmissionFailure, Op: "assemble order", Err: err}
	}
	w.submitting = true
	w.mu.Unlock()

	conf, err := w.orders.CreateOrder(ctx, payload)

	w.mu.Lock()
	w.submitting = false
	if err != nil {
		s := w.state.clone()
		w.mu.Unlock()
		return s, nil, &Error{Kind: SubmissionFailure, Op: "create order", Err: err}
	}
	done, err := Apply(w.state, OrderCreated{})
	if err != nil {
		s := w.state.clone()
		w.mu.Unlock()
		return s, nil, fmt.Errorf("finish session: %w", err)
	}
	w.state = done
	s := w.state.clone()
	cb := w.onComplete
	w.mu.Unlock()

	if cb != nil {
		cb(s, conf)
	}
	return s, conf, nil
}
