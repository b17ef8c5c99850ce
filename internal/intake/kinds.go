package intake

import "fmt"

type DocumentKind string

const (
	KindIDCard      DocumentKind = "idCard"
	KindBusiness    DocumentKind = "business"
	KindDriving     DocumentKind = "driving"
	KindCertificate DocumentKind = "certificate"
)

// AllKinds lists every document kind in wizard order.
var AllKinds = []DocumentKind{KindIDCard, KindBusiness, KindDriving, KindCertificate}

// ParseDocumentKind validates a kind coming from a URL or form value.
func ParseDocumentKind(s string) (DocumentKind, error) {
	switch k := DocumentKind(s); k {
	case KindIDCard, KindBusiness, KindDriving, KindCertificate:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Group returns the branch group the kind belongs to.
func (k DocumentKind) Group() BranchGroup {
	if k == KindDriving || k == KindCertificate {
		return GroupVehicle
	}
	return GroupIdentity
}

type BranchGroup int

const (
	GroupIdentity BranchGroup = iota
	GroupVehicle
)

func (g BranchGroup) String() string {
	if g == GroupVehicle {
		return "vehicle"
	}
	return "identity"
}

// Kinds returns both slots owned by the group.
func (g BranchGroup) Kinds() []DocumentKind {
	if g == GroupVehicle {
		return []DocumentKind{KindDriving, KindCertificate}
	}
	return []DocumentKind{KindIDCard, KindBusiness}
}

type IdentityBranch string

const (
	IdentityIDCard   IdentityBranch = "idCard"
	IdentityBusiness IdentityBranch = "business"
)

func ParseIdentityBranch(s string) (IdentityBranch, error) {
	switch b := IdentityBranch(s); b {
	case IdentityIDCard, IdentityBusiness:
		return b, nil
	}
	return "", fmt.Errorf("%w: identity %q", ErrUnknownBranch, s)
}

func (b IdentityBranch) Kind() DocumentKind {
	if b == IdentityBusiness {
		return KindBusiness
	}
	return KindIDCard
}

type VehicleBranch string

const (
	VehicleDriving     VehicleBranch = "driving"
	VehicleCertificate VehicleBranch = "certificate"
)

func ParseVehicleBranch(s string) (VehicleBranch, error) {
	switch b := VehicleBranch(s); b {
	case VehicleDriving, VehicleCertificate:
		return b, nil
	}
	return "", fmt.Errorf("%w: vehicle %q", ErrUnknownBranch, s)
}

func (b VehicleBranch) Kind() DocumentKind {
	if b == VehicleCertificate {
		return KindCertificate
	}
	return KindDriving
}

type InsuranceType string

const (
	InsuranceNewCar InsuranceType = "newCar"
	InsuranceOldCar InsuranceType = "oldCar"
)

type OCRStatus string

const (
	StatusIdle      OCRStatus = "idle"
	StatusPending   OCRStatus = "pending"
	StatusSucceeded OCRStatus = "succeeded"
	StatusFailed    OCRStatus = "failed"
)

// Step is the wizard position. StepDone is terminal and only reachable
// through a successful order submission.
type Step int

const (
	StepBasics Step = iota
	StepIdentity
	StepVehicle
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepBasics:
		return "basics"
	case StepIdentity:
		return "identity"
	case StepVehicle:
		return "vehicle"
	case StepDone:
		return "done"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// LastStep is the step whose confirmation submits the order.
const LastStep = StepVehicle
