package validator

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"tablebook/pkg/logger"
	"tablebook/pkg/model"
	"tablebook/pkg/sanitizer"
)

// GuestOptions are the party sizes a guest can pick.
var GuestOptions = []int{2, 3, 4, 5, 6, 8, 10, 12}

const DefaultGuests = 2

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

// Fields lists the fields that failed, in order.
func (v ValidationErrors) Fields() []string {
	fields := make([]string, len(v))
	for i, err := range v {
		fields[i] = err.Field
	}
	return fields
}

type DraftValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewDraftValidator(log *logger.Logger) *DraftValidator {
	v := validator.New()

	if err := v.RegisterValidation("masked_phone", validateMaskedPhone); err != nil {
		log.Fatal("Failed to register 'masked_phone' validator",
			"error", err,
		)
	}

	log.Debug("Draft validator initialized successfully")

	return &DraftValidator{
		validate: v,
		logger:   log,
	}
}

func validateMaskedPhone(fl validator.FieldLevel) bool {
	return sanitizer.IsMaskedPhone(fl.Field().String())
}

// ValidGuests reports whether n is one of the offered party sizes.
func ValidGuests(n int) bool {
	return slices.Contains(GuestOptions, n)
}

// Validate checks that a draft is complete enough to submit.
func (v *DraftValidator) Validate(draft *model.BookingDraft) error {
	normalized := *draft
	normalized.Name = sanitizer.NormalizeName(draft.Name)

	if err := v.validate.Struct(&normalized); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if !ValidGuests(draft.Guests) {
		return ValidationErrors{
			ValidationError{
				Field:   "guests",
				Message: fmt.Sprintf("guests must be one of %v", GuestOptions),
			},
		}
	}

	return nil
}

// ValidPhone is the final phone check used to enable submission.
func (v *DraftValidator) ValidPhone(phone string) bool {
	return v.validate.Var(phone, "required,masked_phone") == nil
}

func (v *DraftValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		field := jsonName(err.Field())
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
		case "masked_phone":
			message = fmt.Sprintf("%s must match %s", field, sanitizer.PhoneMask)
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   field,
			Message: message,
		})
	}

	return validationErrors
}

var fieldNames = map[string]string{
	"Date":    "date",
	"Time":    "time",
	"Guests":  "guests",
	"TableID": "table_id",
	"Name":    "name",
	"Phone":   "phone",
	"Comment": "comment",
}

func jsonName(field string) string {
	if name, ok := fieldNames[field]; ok {
		return name
	}
	return strings.ToLower(field)
}
