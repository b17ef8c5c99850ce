package dto

import (
	"fmt"
	"strings"
	"time"

	"freight-insure/internal/intake"

	"github.com/go-playground/validator/v10"
)

var requestValidate = validator.New()

// Validate checks request binding tags and returns one readable error.
func Validate(req any) error {
	err := requestValidate.Struct(req)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
}

type StepRequest struct {
	Index *int `json:"index" validate:"required"`
}

type BranchRequest struct {
	Branch string `json:"branch" validate:"required"`
}

type BasicsRequest struct {
	InsuranceType string `json:"insuranceType" validate:"required,oneof=newCar oldCar"`
	StartDate     string `json:"startDate" validate:"required,datetime=2006-01-02"`
}

// IdentityRequest is a partial edit; nil members keep their current value.
type IdentityRequest struct {
	Name    *string `json:"name"`
	Number  *string `json:"number"`
	Address *string `json:"address"`
}

type VehicleRequest struct {
	Plate       *string `json:"plate"`
	VehicleType *string `json:"vehicleType"`
	Engine      *string `json:"engine"`
	Frame       *string `json:"frame"`
}

// SubmitRequest confirms the current step. Omitted identity or vehicle data
// means "confirm the fields as they are".
type SubmitRequest struct {
	Basics   *BasicsRequest   `json:"basics"`
	Identity *IdentityRequest `json:"identity"`
	Vehicle  *VehicleRequest  `json:"vehicle"`
}

func (r BasicsRequest) ToBasics() (intake.Basics, error) {
	start, err := time.Parse(intake.DateFormat, r.StartDate)
	if err != nil {
		return intake.Basics{}, fmt.Errorf("invalid startDate: %w", err)
	}
	return intake.Basics{
		InsuranceType: intake.InsuranceType(r.InsuranceType),
		StartDate:     start,
	}, nil
}

// Merge applies the set members over current.
func (r IdentityRequest) Merge(current intake.IdentityFields) intake.IdentityFields {
	if r.Name != nil {
		current.Name = *r.Name
	}
	if r.Number != nil {
		current.Number = *r.Number
	}
	if r.Address != nil {
		current.Address = *r.Address
	}
	return current
}

func (r VehicleRequest) Merge(current intake.VehicleFields) intake.VehicleFields {
	if r.Plate != nil {
		current.Plate = r.Plate
	}
	if r.VehicleType != nil {
		current.VehicleType = r.VehicleType
	}
	if r.Engine != nil {
		current.Engine = *r.Engine
	}
	if r.Frame != nil {
		current.Frame = *r.Frame
	}
	return current
}

// ToStepData builds the data for the session's current step.
func (r SubmitRequest) ToStepData(s intake.Session) (intake.StepData, error) {
	switch s.CurrentStep {
	case intake.StepBasics:
		if r.Basics == nil {
			return intake.StepData{}, fmt.Errorf("basics are required on the basics step")
		}
		if err := Validate(r.Basics); err != nil {
			return intake.StepData{}, err
		}
		b, err := r.Basics.ToBasics()
		if err != nil {
			return intake.StepData{}, err
		}
		return intake.StepData{Basics: &b}, nil
	case intake.StepIdentity:
		f := s.Identity
		if r.Identity != nil {
			f = r.Identity.Merge(f)
		}
		return intake.StepData{Identity: &f}, nil
	case intake.StepVehicle:
		f := s.Vehicle
		if r.Vehicle != nil {
			f = r.Vehicle.Merge(f)
		}
		return intake.StepData{Vehicle: &f}, nil
	}
	return intake.StepData{}, intake.ErrSessionFinished
}

type FileView struct {
	UploadID    int64  `json:"uploadId"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
}

type SlotView struct {
	Kind   string    `json:"kind"`
	Active bool      `json:"active"`
	Status string    `json:"status"`
	FileID *int64    `json:"fileId"`
	File   *FileView `json:"file,omitempty"`
}

type FieldView struct {
	Value  string `json:"value"`
	Locked bool   `json:"locked"`
}

// SessionView is the operator-facing state of one intake session.
type SessionView struct {
	ID             string               `json:"id"`
	CurrentStep    int                  `json:"currentStep"`
	StepName       string               `json:"stepName"`
	Finished       bool                 `json:"finished"`
	Busy           bool                 `json:"busy"`
	InsuranceType  string               `json:"insuranceType"`
	StartDate      string               `json:"startDate,omitempty"`
	IdentityBranch string               `json:"identityBranch"`
	VehicleBranch  string               `json:"vehicleBranch"`
	Slots          []SlotView           `json:"slots"`
	Fields         map[string]FieldView `json:"fields"`
	// Notice is set on the response to a successful recognition.
	Notice string `json:"notice,omitempty"`
}

type SubmitResponse struct {
	Session SessionView `json:"session"`
	OrderID string      `json:"orderId,omitempty"`
}

func NewSessionView(s intake.Session) SessionView {
	v := SessionView{
		ID:             s.ID,
		CurrentStep:    int(s.CurrentStep),
		StepName:       s.CurrentStep.String(),
		Finished:       s.Finished,
		Busy:           s.Busy(),
		InsuranceType:  string(s.Basics.InsuranceType),
		IdentityBranch: string(s.IdentityBranch),
		VehicleBranch:  string(s.VehicleBranch),
		Slots:          make([]SlotView, 0, len(intake.AllKinds)),
	}
	if !s.Basics.StartDate.IsZero() {
		v.StartDate = s.Basics.StartDate.Format(intake.DateFormat)
	}

	for _, kind := range intake.AllKinds {
		slot := s.Slot(kind)
		sv := SlotView{
			Kind:   string(kind),
			Active: s.ActiveKind(kind.Group()) == kind,
			Status: string(slot.Status),
			FileID: slot.FileID,
		}
		if slot.File != nil {
			sv.File = &FileView{
				UploadID:    slot.File.UploadID,
				Name:        slot.File.Name,
				URL:         slot.File.URL,
				ContentType: slot.File.ContentType,
			}
		}
		v.Slots = append(v.Slots, sv)
	}

	values := map[string]string{
		"name":    s.Identity.Name,
		"number":  s.Identity.Number,
		"address": s.Identity.Address,
		"engine":  s.Vehicle.Engine,
		"frame":   s.Vehicle.Frame,
	}
	if s.Vehicle.Plate != nil {
		values["plate"] = *s.Vehicle.Plate
	}
	if s.Vehicle.VehicleType != nil {
		values["vehicleType"] = *s.Vehicle.VehicleType
	}

	locks := s.Locks()
	v.Fields = make(map[string]FieldView, len(locks))
	for name, locked := range locks {
		v.Fields[name] = FieldView{Value: values[name], Locked: locked}
	}
	return v
}

// SessionError carries the session state alongside a failed action so the
// operator sees what changed, e.g. a slot that went to failed.
type SessionError struct {
	Session SessionView
	Err     error
}

func (e *SessionError) Error() string {
	return e.Err.Error()
}

func (e *SessionError) Unwrap() error {
	return e.Err
}
