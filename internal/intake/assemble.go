package intake

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateFormat is the wire format of the policy start date.
const DateFormat = "2006-01-02"

// IdentityDoc is either an IDCardDoc or a BusinessLicenseDoc.
type IdentityDoc interface {
	identityKey() string
}

// VehicleDoc is either a DrivingLicenseDoc or a CertificateDoc.
type VehicleDoc interface {
	vehicleKey() string
}

type IDCardDoc struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Number  string `json:"number"`
	Address string `json:"address"`
}

func (IDCardDoc) identityKey() string { return "idCard" }

type BusinessLicenseDoc struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Number  string `json:"number"`
	Address string `json:"address"`
}

func (BusinessLicenseDoc) identityKey() string { return "businessLicense" }

type DrivingLicenseDoc struct {
	ID     int64  `json:"id"`
	Plate  string `json:"plate"`
	Frame  string `json:"frame"`
	Engine string `json:"engine"`
	Type   string `json:"type"`
}

func (DrivingLicenseDoc) vehicleKey() string { return "drivingLicense" }

type CertificateDoc struct {
	ID     int64  `json:"id"`
	Frame  string `json:"frame"`
	Engine string `json:"engine"`
}

func (CertificateDoc) vehicleKey() string { return "certificate" }

// Payload is the order creation request. The identity and vehicle members
// are unions, so exactly one document of each pair is ever encoded.
type Payload struct {
	StartTime time.Time
	Identity  IdentityDoc
	Vehicle   VehicleDoc
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if p.Identity == nil || p.Vehicle == nil {
		return nil, fmt.Errorf("incomplete order payload")
	}
	out := map[string]any{
		"startTime":              p.StartTime.Format(DateFormat),
		p.Identity.identityKey(): p.Identity,
		p.Vehicle.vehicleKey():   p.Vehicle,
	}
	return json.Marshal(out)
}

// Assemble builds the submission payload from the branch-active slots and
// fields of s.
func Assemble(s Session) (Payload, error) {
	idSlot := s.Slot(s.ActiveKind(GroupIdentity))
	vSlot := s.Slot(s.ActiveKind(GroupVehicle))
	if idSlot.Status != StatusSucceeded || idSlot.FileID == nil {
		return Payload{}, fmt.Errorf("assemble %s: %w", idSlot.Kind, ErrDocumentNotVerified)
	}
	if vSlot.Status != StatusSucceeded || vSlot.FileID == nil {
		return Payload{}, fmt.Errorf("assemble %s: %w", vSlot.Kind, ErrDocumentNotVerified)
	}

	p := Payload{StartTime: s.Basics.StartDate}

	id := s.Identity
	if s.IdentityBranch == IdentityIDCard {
		p.Identity = IDCardDoc{ID: *idSlot.FileID, Name: id.Name, Number: id.Number, Address: id.Address}
	} else {
		p.Identity = BusinessLicenseDoc{ID: *idSlot.FileID, Name: id.Name, Number: id.Number, Address: id.Address}
	}

	v := s.Vehicle
	if s.VehicleBranch == VehicleDriving {
		p.Vehicle = DrivingLicenseDoc{
			ID:     *vSlot.FileID,
			Plate:  deref(v.Plate),
			Frame:  v.Frame,
			Engine: v.Engine,
			Type:   deref(v.VehicleType),
		}
	} else {
		p.Vehicle = CertificateDoc{ID: *vSlot.FileID, Frame: v.Frame, Engine: v.Engine}
	}
	return p, nil
}
