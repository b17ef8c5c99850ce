package intake

// Extraction is the normalized output of a recognition call. Only the
// fields fed by the dispatched kind are meaningful.
type Extraction struct {
	ID          int64  `json:"id"`
	Name        string `json:"name,omitempty"`
	Number      string `json:"number,omitempty"`
	Address     string `json:"address,omitempty"`
	Plate       string `json:"plate,omitempty"`
	VehicleType string `json:"type,omitempty"`
	Engine      string `json:"engine,omitempty"`
	Frame       string `json:"frame,omitempty"`
}

// Event is a state transition applied by Apply.
type Event interface {
	apply(Session) (Session, error)
}

// Apply runs e against s and returns the resulting session. s is never
// modified; on error the returned session equals s.
func Apply(s Session, e Event) (Session, error) {
	if s.Finished {
		return s, ErrSessionFinished
	}
	next, err := e.apply(s.clone())
	if err != nil {
		return s, err
	}
	return next, nil
}

type UploadStarted struct {
	Kind DocumentKind
	File UploadedFile
}

func (e UploadStarted) apply(s Session) (Session, error) {
	if s.ActiveKind(e.Kind.Group()) != e.Kind {
		return s, ErrInactiveBranch
	}
	slot := s.Slot(e.Kind)
	if slot.Status == StatusPending {
		return s, ErrSlotBusy
	}
	if s.Busy() {
		return s, ErrSessionBusy
	}
	file := e.File
	s.Slots[e.Kind] = Slot{
		Kind:       e.Kind,
		Status:     StatusPending,
		Generation: slot.Generation + 1,
		File:       &file,
	}
	return s, nil
}

// UploadStored records the stored file on a pending slot once the upload
// surface answered. Stale generations are ignored.
type UploadStored struct {
	Kind       DocumentKind
	Generation uint64
	File       UploadedFile
}

func (e UploadStored) apply(s Session) (Session, error) {
	slot, ok := current(s, e.Kind, e.Generation)
	if !ok {
		return s, nil
	}
	file := e.File
	slot.File = &file
	s.Slots[e.Kind] = slot
	return s, nil
}

type UploadCompleted struct {
	Kind       DocumentKind
	Generation uint64
	Result     Extraction
}

func (e UploadCompleted) apply(s Session) (Session, error) {
	slot, ok := current(s, e.Kind, e.Generation)
	if !ok {
		return s, nil
	}
	id := e.Result.ID
	slot.FileID = &id
	slot.Status = StatusSucceeded
	s.Slots[e.Kind] = slot

	r := e.Result
	switch e.Kind {
	case KindIDCard, KindBusiness:
		s.Identity = IdentityFields{Name: r.Name, Number: r.Number, Address: r.Address}
	case KindDriving:
		s.Vehicle = VehicleFields{
			Plate:       strPtr(r.Plate),
			VehicleType: strPtr(r.VehicleType),
			Engine:      r.Engine,
			Frame:       r.Frame,
		}
	case KindCertificate:
		s.Vehicle.Engine = r.Engine
		s.Vehicle.Frame = r.Frame
	}
	return s, nil
}

type UploadFailed struct {
	Kind       DocumentKind
	Generation uint64
}

func (e UploadFailed) apply(s Session) (Session, error) {
	slot, ok := current(s, e.Kind, e.Generation)
	if !ok {
		return s, nil
	}
	slot.Status = StatusFailed
	slot.FileID = nil
	slot.File = nil
	s.Slots[e.Kind] = slot
	return s, nil
}

// current returns the slot for kind when it is still waiting on the
// dispatch identified by gen.
func current(s Session, kind DocumentKind, gen uint64) (Slot, bool) {
	slot, ok := s.Slots[kind]
	if !ok || slot.Status != StatusPending || slot.Generation != gen {
		return Slot{}, false
	}
	return slot, true
}

type FileRemoved struct {
	Kind DocumentKind
}

func (e FileRemoved) apply(s Session) (Session, error) {
	if s.ActiveKind(e.Kind.Group()) != e.Kind {
		return s, ErrInactiveBranch
	}
	s.Slots[e.Kind] = s.Slot(e.Kind).reset()
	clearFields(&s, e.Kind.Group())
	return s, nil
}

type IdentityBranchSelected struct {
	Branch IdentityBranch
}

func (e IdentityBranchSelected) apply(s Session) (Session, error) {
	if e.Branch == s.IdentityBranch {
		return s, nil
	}
	s = ResetBranch(s, GroupIdentity)
	s.IdentityBranch = e.Branch
	return s, nil
}

type VehicleBranchSelected struct {
	Branch VehicleBranch
}

func (e VehicleBranchSelected) apply(s Session) (Session, error) {
	if e.Branch == s.VehicleBranch {
		return s, nil
	}
	s = ResetBranch(s, GroupVehicle)
	s.VehicleBranch = e.Branch
	clearFields(&s, GroupVehicle)
	return s, nil
}

// ResetBranch returns every slot of g to idle, bumps their generations so
// in-flight recognition results are dropped, and empties the fields of g.
func ResetBranch(s Session, g BranchGroup) Session {
	s = s.clone()
	for _, kind := range g.Kinds() {
		if slot, ok := s.Slots[kind]; ok {
			s.Slots[kind] = slot.reset()
		}
	}
	clearFields(&s, g)
	return s
}

func clearFields(s *Session, g BranchGroup) {
	if g == GroupIdentity {
		s.Identity = IdentityFields{}
		return
	}
	s.Vehicle = VehicleFields{}
	if s.VehicleBranch == VehicleDriving {
		s.Vehicle.Plate = strPtr("")
		s.Vehicle.VehicleType = strPtr("")
	}
}

type IdentityEdited struct {
	Fields IdentityFields
}

func (e IdentityEdited) apply(s Session) (Session, error) {
	if !s.Editable(s.ActiveKind(GroupIdentity)) {
		return s, newLockError(StepIdentity, identityFieldNames)
	}
	s.Identity = e.Fields
	return s, nil
}

type VehicleEdited struct {
	Fields VehicleFields
}

func (e VehicleEdited) apply(s Session) (Session, error) {
	if !s.Editable(s.ActiveKind(GroupVehicle)) {
		return s, newLockError(StepVehicle, vehicleFieldNames(s.VehicleBranch))
	}
	s.Vehicle = shapeVehicle(e.Fields, s.VehicleBranch)
	return s, nil
}

// shapeVehicle keeps plate and vehicle type only for the driving branch.
func shapeVehicle(f VehicleFields, b VehicleBranch) VehicleFields {
	out := VehicleFields{Engine: f.Engine, Frame: f.Frame}
	if b == VehicleDriving {
		out.Plate = strPtr(deref(f.Plate))
		out.VehicleType = strPtr(deref(f.VehicleType))
	}
	return out
}

type StepNavigated struct {
	Index int
}

func (e StepNavigated) apply(s Session) (Session, error) {
	if e.Index < int(StepBasics) || e.Index > int(LastStep) {
		return s, ErrInvalidStep
	}
	s.CurrentStep = Step(e.Index)
	return s, nil
}

// StepConfirmed merges validated data into the current step. Confirming
// the last step does not advance; OrderCreated finishes the session.
type StepConfirmed struct {
	Data StepData
}

func (e StepConfirmed) apply(s Session) (Session, error) {
	if err := ValidateStep(s, e.Data); err != nil {
		return s, err
	}
	switch s.CurrentStep {
	case StepBasics:
		s.Basics = *e.Data.Basics
	case StepIdentity:
		s.Identity = *e.Data.Identity
	case StepVehicle:
		s.Vehicle = shapeVehicle(*e.Data.Vehicle, s.VehicleBranch)
	}
	if s.CurrentStep < LastStep {
		s.CurrentStep++
	}
	return s, nil
}

type OrderCreated struct{}

func (OrderCreated) apply(s Session) (Session, error) {
	s.Finished = true
	s.CurrentStep = StepDone
	return s, nil
}
