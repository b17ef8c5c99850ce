package service

import (
	"context"

	"freight-insure/internal/intake"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IntakeService hosts intake sessions for the HTTP surface. Each session
// owns a Wizard; uploads run through the shared Dispatcher.
type IntakeService struct {
	sessions   *SessionStore
	dispatcher *intake.Dispatcher
	orders     intake.OrderCreator
	logger     *zap.Logger
}

func NewIntakeService(sessions *SessionStore, dispatcher *intake.Dispatcher, orders intake.OrderCreator, logger *zap.Logger) *IntakeService {
	return &IntakeService{
		sessions:   sessions,
		dispatcher: dispatcher,
		orders:     orders,
		logger:     logger,
	}
}

// Create starts a session with the form defaults.
func (s *IntakeService) Create(ctx context.Context) intake.Session {
	id := uuid.New().String()
	w := intake.NewWizard(intake.NewSession(id), s.orders, intake.WithCompletion(s.complete))
	s.sessions.Put(id, w)

	s.logger.Info("Intake session created", zap.String("session_id", id))
	return w.Snapshot()
}

// complete discards a finished session; its result was already returned
// to the operator with the submit response.
func (s *IntakeService) complete(session intake.Session, conf *intake.OrderConfirmation) {
	s.sessions.Delete(session.ID)

	orderID := ""
	if conf != nil {
		orderID = conf.OrderID
	}
	s.logger.Info("Intake session finished",
		zap.String("session_id", session.ID),
		zap.String("order_id", orderID),
	)
}

func (s *IntakeService) Get(id string) (intake.Session, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return intake.Session{}, err
	}
	return w.Snapshot(), nil
}

// Discard drops a session, e.g. when the operator navigates away.
func (s *IntakeService) Discard(id string) error {
	if !s.sessions.Delete(id) {
		return ErrSessionNotFound
	}
	s.logger.Info("Intake session discarded", zap.String("session_id", id))
	return nil
}

func (s *IntakeService) GoTo(id string, index int) (intake.Session, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return intake.Session{}, err
	}
	return w.GoTo(index)
}

func (s *IntakeService) SelectIdentityBranch(id string, b intake.IdentityBranch) (intake.Session, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return intake.Session{}, err
	}
	return w.SetIdentityBranch(b)
}

func (s *IntakeService) SelectVehicleBranch(id string, b intake.VehicleBranch) (intake.Session, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return intake.Session{}, err
	}
	return w.SetVehicleBranch(b)
}

// UploadDocument stores the file and runs recognition for kind. It returns
// once the outcome is known.
func (s *IntakeService) UploadDocument(ctx context.Context, id string, kind intake.DocumentKind, src intake.FileSource) (intake.Session, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return intake.Session{}, err
	}

	session, err := s.dispatcher.Dispatch(withSessionID(ctx, id), w, kind, src)
	if err != nil {
		s.logger.Warn("Document dispatch failed",
			zap.String("session_id", id),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
	return session, err
}

func (s *IntakeService) RemoveDocument(id string, kind intake.DocumentKind) (intake.Session, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return intake.Session{}, err
	}
	return w.RemoveFile(kind)
}

// EditIdentity replaces the identity fields with merge(current).
func (s *IntakeService) EditIdentity(id string, merge func(intake.IdentityFields) intake.IdentityFields) (intake.Session, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return intake.Session{}, err
	}
	return w.PatchIdentity(merge)
}

func (s *IntakeService) EditVehicle(id string, merge func(intake.VehicleFields) intake.VehicleFields) (intake.Session, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return intake.Session{}, err
	}
	return w.PatchVehicle(merge)
}

// Submit confirms the current step; on the last step it creates the order.
func (s *IntakeService) Submit(ctx context.Context, id string, data intake.StepData) (intake.Session, *intake.OrderConfirmation, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return intake.Session{}, nil, err
	}
	return w.Submit(ctx, data)
}

// SubmitWith confirms the current step with data built from the session
// state at confirmation time.
func (s *IntakeService) SubmitWith(ctx context.Context, id string, build func(intake.Session) (intake.StepData, error)) (intake.Session, *intake.OrderConfirmation, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return intake.Session{}, nil, err
	}
	return w.SubmitWith(ctx, build)
}
