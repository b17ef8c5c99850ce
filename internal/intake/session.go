package intake

import "time"

// UploadedFile is what the upload surface returns for a stored document.
type UploadedFile struct {
	UploadID    int64  `json:"uploadId"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
	// Key locates the file in the document store.
	Key string `json:"-"`
}

// Slot tracks the upload and recognition lifecycle of one document kind.
// Generation increases on every dispatch and every reset; a recognition
// result only lands when it carries the current generation.
type Slot struct {
	Kind       DocumentKind  `json:"kind"`
	FileID     *int64        `json:"fileId"`
	Status     OCRStatus     `json:"status"`
	Generation uint64        `json:"generation"`
	File       *UploadedFile `json:"file,omitempty"`
}

// reset returns the slot to idle and invalidates any dispatch in flight.
func (s Slot) reset() Slot {
	return Slot{
		Kind:       s.Kind,
		Status:     StatusIdle,
		Generation: s.Generation + 1,
	}
}

type Basics struct {
	InsuranceType InsuranceType `json:"insuranceType" validate:"required,insuranceType"`
	StartDate     time.Time     `json:"startDate" validate:"required"`
}

type IdentityFields struct {
	Name    string `json:"name"`
	Number  string `json:"number"`
	Address string `json:"address"`
}

// VehicleFields carries Plate and VehicleType only for the driving branch.
type VehicleFields struct {
	Plate       *string `json:"plate,omitempty"`
	VehicleType *string `json:"vehicleType,omitempty"`
	Engine      string  `json:"engine"`
	Frame       string  `json:"frame"`
}

// Session is the whole wizard state. It is a value: Apply returns a new
// Session and never mutates its input.
type Session struct {
	ID             string                `json:"id"`
	CurrentStep    Step                  `json:"currentStep"`
	Finished       bool                  `json:"finished"`
	Basics         Basics                `json:"basics"`
	IdentityBranch IdentityBranch        `json:"identityBranch"`
	VehicleBranch  VehicleBranch         `json:"vehicleBranch"`
	Slots          map[DocumentKind]Slot `json:"slots"`
	Identity       IdentityFields        `json:"identity"`
	Vehicle        VehicleFields         `json:"vehicle"`
}

// NewSession seeds a session with the form defaults used by the order page.
func NewSession(id string) Session {
	return Session{
		ID:          id,
		CurrentStep: StepBasics,
		Basics: Basics{
			InsuranceType: InsuranceNewCar,
		},
		IdentityBranch: IdentityIDCard,
		VehicleBranch:  VehicleDriving,
		Slots:          make(map[DocumentKind]Slot),
		Vehicle:        VehicleFields{Plate: strPtr(""), VehicleType: strPtr("")},
	}
}

// Slot returns the slot for kind, creating an idle one lazily.
func (s Session) Slot(kind DocumentKind) Slot {
	if slot, ok := s.Slots[kind]; ok {
		return slot
	}
	return Slot{Kind: kind, Status: StatusIdle}
}

// ActiveKind returns the document kind currently selected in a group.
func (s Session) ActiveKind(g BranchGroup) DocumentKind {
	if g == GroupVehicle {
		return s.VehicleBranch.Kind()
	}
	return s.IdentityBranch.Kind()
}

// Editable reports whether the fields fed by kind may be edited.
func (s Session) Editable(kind DocumentKind) bool {
	if s.ActiveKind(kind.Group()) != kind {
		return false
	}
	return s.Slot(kind).Status == StatusSucceeded
}

// Busy is true while any recognition is pending.
func (s Session) Busy() bool {
	for _, slot := range s.Slots {
		if slot.Status == StatusPending {
			return true
		}
	}
	return false
}

// Locks maps every visible field name to its lock state.
func (s Session) Locks() map[string]bool {
	identityLocked := !s.Editable(s.ActiveKind(GroupIdentity))
	vehicleLocked := !s.Editable(s.ActiveKind(GroupVehicle))

	locks := make(map[string]bool, 7)
	for _, f := range identityFieldNames {
		locks[f] = identityLocked
	}
	for _, f := range vehicleFieldNames(s.VehicleBranch) {
		locks[f] = vehicleLocked
	}
	return locks
}

// clone copies the slot map so a transition never aliases its input.
func (s Session) clone() Session {
	out := s
	out.Slots = make(map[DocumentKind]Slot, len(s.Slots))
	for k, v := range s.Slots {
		if v.FileID != nil {
			id := *v.FileID
			v.FileID = &id
		}
		if v.File != nil {
			f := *v.File
			v.File = &f
		}
		out.Slots[k] = v
	}
	out.Vehicle.Plate = copyStr(s.Vehicle.Plate)
	out.Vehicle.VehicleType = copyStr(s.Vehicle.VehicleType)
	return out
}

var identityFieldNames = []string{"name", "number", "address"}

func vehicleFieldNames(b VehicleBranch) []string {
	if b == VehicleDriving {
		return []string{"plate", "vehicleType", "engine", "frame"}
	}
	return []string{"engine", "frame"}
}

func strPtr(s string) *string { return &s }

func copyStr(p *string) *string {
	if p == nil {
		return nil
	}
	return strPtr(*p)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
