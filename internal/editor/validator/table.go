package validator

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"tablebook/pkg/logger"
	"tablebook/pkg/model"
)

// SeatOptions are the table sizes the editor can place.
var SeatOptions = []int{2, 4, 6, 8}

// RotationStep is the rotation increment of the editor, in degrees.
const RotationStep = 45

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type TableValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTableValidator(log *logger.Logger) *TableValidator {
	v := validator.New()

	if err := v.RegisterValidation("zone", validateZone); err != nil {
		log.Fatal("Failed to register 'zone' validator", "error", err)
	}
	if err := v.RegisterValidation("rotation_step", validateRotationStep); err != nil {
		log.Fatal("Failed to register 'rotation_step' validator", "error", err)
	}
	if err := v.RegisterValidation("editor_seats", validateSeats); err != nil {
		log.Fatal("Failed to register 'editor_seats' validator", "error", err)
	}

	log.Info("Table validator initialized successfully")

	return &TableValidator{
		validate: v,
		logger:   log,
	}
}

func validateZone(fl validator.FieldLevel) bool {
	return model.Zone(fl.Field().String()).Valid()
}

func validateRotationStep(fl validator.FieldLevel) bool {
	r := fl.Field().Float()
	return r >= 0 && r < 360 && math.Mod(r, RotationStep) == 0
}

func validateSeats(fl validator.FieldLevel) bool {
	return ValidSeats(int(fl.Field().Int()))
}

func ValidSeats(n int) bool {
	return slices.Contains(SeatOptions, n)
}

// ValidateCreate checks a new table before it is sent to the backend.
func (v *TableValidator) ValidateCreate(t *model.TableCreate) error {
	if err := v.validate.Struct(t); err != nil {
		return v.translate(err)
	}
	if err := v.validate.Var(t.Seats, "editor_seats"); err != nil {
		return ValidationErrors{{
			Field:   "seats",
			Message: fmt.Sprintf("seats must be one of %v", SeatOptions),
		}}
	}
	return nil
}

// ValidateTable checks a full table shape before an update.
func (v *TableValidator) ValidateTable(t *model.Table) error {
	if err := v.validate.Struct(t); err != nil {
		return v.translate(err)
	}
	return nil
}

func (v *TableValidator) translate(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	var out ValidationErrors
	for _, fe := range validationErrs {
		field := jsonName(fe.Field())
		message := fe.Error()

		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", field, fe.Param())
		case "gte":
			message = fmt.Sprintf("%s must not be negative", field)
		case "zone":
			message = fmt.Sprintf("%s must be one of %v", field, model.Zones)
		case "rotation_step":
			message = fmt.Sprintf("%s must be a multiple of %d below 360", field, RotationStep)
		}

		out = append(out, ValidationError{Field: field, Message: message})
	}
	return out
}

var fieldNames = map[string]string{
	"TableNumber": "table_number",
	"IsActive":    "is_active",
}

func jsonName(field string) string {
	if name, ok := fieldNames[field]; ok {
		return name
	}
	return strings.ToLower(field)
}
