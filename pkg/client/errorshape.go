package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FallbackMessage is shown when a backend error carries nothing readable.
const FallbackMessage = "Неизвестная ошибка бронирования"

// ValidationFallbackMessage is shown for a validation list whose first item
// has no message.
const ValidationFallbackMessage = "Ошибка валидации данных"

type ShapeKind string

const (
	ShapeString         ShapeKind = "string"
	ShapeValidationList ShapeKind = "validation_list"
	ShapeSingleField    ShapeKind = "single_field"
	ShapeUnknown        ShapeKind = "unknown"
)

// ErrorShape is one of the payload forms the backend uses for errors:
// a plain string, a list of validation items, or a single {msg} object.
type ErrorShape interface {
	Kind() ShapeKind
	Message() string
	sealed()
}

type StringError struct {
	Detail string
}

func (StringError) Kind() ShapeKind   { return ShapeString }
func (e StringError) Message() string { return strings.TrimSpace(e.Detail) }
func (StringError) sealed()           {}

type ValidationItem struct {
	Loc  []any  `json:"loc,omitempty"`
	Msg  string `json:"msg"`
	Type string `json:"type,omitempty"`
}

type ValidationListError struct {
	Items []ValidationItem
}

func (ValidationListError) Kind() ShapeKind { return ShapeValidationList }

// Message is the first item's message. An empty list has none.
func (e ValidationListError) Message() string {
	if len(e.Items) == 0 {
		return ""
	}
	if msg := strings.TrimSpace(e.Items[0].Msg); msg != "" {
		return msg
	}
	return ValidationFallbackMessage
}
func (ValidationListError) sealed() {}

type SingleFieldError struct {
	Msg   string
	Field string
}

func (SingleFieldError) Kind() ShapeKind   { return ShapeSingleField }
func (e SingleFieldError) Message() string { return strings.TrimSpace(e.Msg) }
func (SingleFieldError) sealed()           {}

// UnknownError keeps the raw body for logs. It is never shown to a guest.
type UnknownError struct {
	Raw []byte
}

func (UnknownError) Kind() ShapeKind { return ShapeUnknown }
func (UnknownError) Message() string { return "" }
func (UnknownError) sealed()         {}

// APIError is a non-2xx backend answer, normalised to one display message.
type APIError struct {
	Status  int
	Shape   ErrorShape
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

func (e *APIError) IsConflict() bool {
	return e.Status == http.StatusConflict
}

func (e *APIError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

func ParseAPIError(status int, body []byte) *APIError {
	shape := ParseErrorShape(body)
	msg := shape.Message()
	if msg == "" {
		msg = FallbackMessage
	}
	return &APIError{
		Status:  status,
		Shape:   shape,
		Message: msg,
	}
}

// ParseErrorShape classifies an error body. A {"detail": ...} envelope is
// unwrapped first; the same three shapes are also accepted without it.
func ParseErrorShape(body []byte) ErrorShape {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return UnknownError{}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err == nil {
		if detail, ok := envelope["detail"]; ok {
			return classify(detail, body)
		}
	}
	return classify(body, body)
}

func classify(raw json.RawMessage, original []byte) ErrorShape {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return StringError{Detail: s}
	}

	var items []ValidationItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return ValidationListError{Items: items}
	}

	var obj struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
		Error   string `json:"error"`
		Field   string `json:"field"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		switch {
		case obj.Msg != "":
			return SingleFieldError{Msg: obj.Msg, Field: obj.Field}
		case obj.Message != "":
			return SingleFieldError{Msg: obj.Message, Field: obj.Field}
		case obj.Error != "":
			return SingleFieldError{Msg: obj.Error, Field: obj.Field}
		}
	}

	return UnknownError{Raw: original}
}

// Normalize reduces any error to the message shown to a guest.
func Normalize(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Message
	}
	return FallbackMessage
}
