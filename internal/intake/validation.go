package intake

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PlateRejection is shown when a plate falls outside the served regions.
const PlateRejection = "仅限“苏浙沪皖粤湘鄂渝”与“冀F”地区车辆"

// Served regions: single-character provincial prefixes, plus the 冀F city
// code alone within 冀. Other 冀 cities are intentionally excluded.
var (
	provincePlateRx = regexp.MustCompile(`^[苏浙沪皖粤湘鄂渝]`)
	cityPlateRx     = regexp.MustCompile(`^冀F`)
)

// PlateAllowed reports whether plate belongs to a served region.
func PlateAllowed(plate string) bool {
	return provincePlateRx.MatchString(plate) || cityPlateRx.MatchString(plate)
}

// StepData is what the operator confirms for the current step. Exactly the
// member matching the current step must be set.
type StepData struct {
	Basics   *Basics         `json:"basics,omitempty"`
	Identity *IdentityFields `json:"identity,omitempty"`
	Vehicle  *VehicleFields  `json:"vehicle,omitempty"`
}

var stepValidate *validator.Validate

var fieldValidators = map[string]func(validator.FieldLevel) bool{
	"insuranceType": validateInsuranceType,
	"plate":         validatePlate,
}

var requiredMessages = map[string]string{
	"insuranceType": "请选择投保类型",
	"startDate":     "请选择起保日期",
	"name":          "请输入名称",
	"number":        "请输入证件号码",
	"address":       "请输入地址",
	"plate":         "请输入车牌号码",
	"vehicleType":   "请输入车辆类型",
	"engine":        "请输入发动机号",
	"frame":         "请输入车架号",
}

func init() {
	stepValidate = validator.New()
	stepValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	for tag, fn := range fieldValidators {
		if err := stepValidate.RegisterValidation(tag, fn); err != nil {
			panic("failed to register validation " + tag + ": " + err.Error())
		}
	}
}

func validateInsuranceType(field validator.FieldLevel) bool {
	if value, ok := field.Field().Interface().(InsuranceType); ok {
		return value == InsuranceNewCar || value == InsuranceOldCar
	}
	return false
}

func validatePlate(field validator.FieldLevel) bool {
	return PlateAllowed(field.Field().String())
}

type identityInput struct {
	Name    string `json:"name" validate:"required"`
	Number  string `json:"number" validate:"required"`
	Address string `json:"address" validate:"required"`
}

type drivingInput struct {
	Plate       string `json:"plate" validate:"required,plate"`
	VehicleType string `json:"vehicleType" validate:"required"`
	Engine      string `json:"engine" validate:"required"`
	Frame       string `json:"frame" validate:"required"`
}

type certificateInput struct {
	Engine string `json:"engine" validate:"required"`
	Frame  string `json:"frame" validate:"required"`
}

// ValidateStep checks data against the rules of the session's current
// step. Fields fed by a document that has not been recognized fail with
// ErrDocumentNotVerified instead of a required-field message.
func ValidateStep(s Session, data StepData) error {
	switch s.CurrentStep {
	case StepBasics:
		if data.Basics == nil {
			return ErrStepMismatch
		}
		return structErrors(StepBasics, stepValidate.Struct(data.Basics))

	case StepIdentity:
		if data.Identity == nil {
			return ErrStepMismatch
		}
		if !s.Editable(s.ActiveKind(GroupIdentity)) {
			return newLockError(StepIdentity, identityFieldNames)
		}
		in := identityInput(*data.Identity)
		return structErrors(StepIdentity, stepValidate.Struct(in))

	case StepVehicle:
		if data.Vehicle == nil {
			return ErrStepMismatch
		}
		if !s.Editable(s.ActiveKind(GroupVehicle)) {
			return newLockError(StepVehicle, vehicleFieldNames(s.VehicleBranch))
		}
		v := data.Vehicle
		if s.VehicleBranch == VehicleDriving {
			in := drivingInput{Plate: deref(v.Plate), VehicleType: deref(v.VehicleType), Engine: v.Engine, Frame: v.Frame}
			return structErrors(StepVehicle, stepValidate.Struct(in))
		}
		in := certificateInput{Engine: v.Engine, Frame: v.Frame}
		return structErrors(StepVehicle, stepValidate.Struct(in))
	}
	return ErrSessionFinished
}

func structErrors(step Step, err error) error {
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}
	ve := &ValidationError{Step: step, Fields: make(map[string]string, len(vErrs))}
	for _, fe := range vErrs {
		ve.Fields[fe.Field()] = messageFor(fe)
	}
	return ve
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "plate":
		return PlateRejection
	case "insuranceType":
		return requiredMessages["insuranceType"]
	}
	if msg, ok := requiredMessages[fe.Field()]; ok {
		return msg
	}
	return fe.Error()
}
