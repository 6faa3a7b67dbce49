package client

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestParseErrorShape(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind ShapeKind
		wantMsg  string
	}{
		{
			name:     "detail string",
			body:     `{"detail": "Стол уже забронирован"}`,
			wantKind: ShapeString,
			wantMsg:  "Стол уже забронирован",
		},
		{
			name:     "detail validation list",
			body:     `{"detail": [{"loc": ["body", "table_id"], "msg": "Table already booked", "type": "value_error"}]}`,
			wantKind: ShapeValidationList,
			wantMsg:  "Table already booked",
		},
		{
			name:     "validation list without a first message",
			body:     `{"detail": [{"msg": ""}, {"msg": "second"}]}`,
			wantKind: ShapeValidationList,
			wantMsg:  ValidationFallbackMessage,
		},
		{
			name:     "validation item missing msg",
			body:     `{"detail": [{"loc": ["body", "user_phone"], "type": "value_error"}]}`,
			wantKind: ShapeValidationList,
			wantMsg:  ValidationFallbackMessage,
		},
		{
			name:     "detail single object",
			body:     `{"detail": {"msg": "Table is inactive"}}`,
			wantKind: ShapeSingleField,
			wantMsg:  "Table is inactive",
		},
		{
			name:     "bare string",
			body:     `"Service closed"`,
			wantKind: ShapeString,
			wantMsg:  "Service closed",
		},
		{
			name:     "bare list",
			body:     `[{"msg": "bad phone"}]`,
			wantKind: ShapeValidationList,
			wantMsg:  "bad phone",
		},
		{
			name:     "bare object with message",
			body:     `{"message": "Not allowed"}`,
			wantKind: ShapeSingleField,
			wantMsg:  "Not allowed",
		},
		{
			name:     "html body",
			body:     `<html>502 Bad Gateway</html>`,
			wantKind: ShapeUnknown,
			wantMsg:  "",
		},
		{
			name:     "empty body",
			body:     ``,
			wantKind: ShapeUnknown,
			wantMsg:  "",
		},
		{
			name:     "detail number",
			body:     `{"detail": 42}`,
			wantKind: ShapeUnknown,
			wantMsg:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape := ParseErrorShape([]byte(tt.body))
			if shape.Kind() != tt.wantKind {
				t.Errorf("Kind() = %s, want %s", shape.Kind(), tt.wantKind)
			}
			if shape.Message() != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", shape.Message(), tt.wantMsg)
			}
		})
	}
}

func TestParseAPIError_FallsBack(t *testing.T) {
	apiErr := ParseAPIError(http.StatusInternalServerError, []byte(`{"detail": []}`))

	if apiErr.Message != FallbackMessage {
		t.Errorf("Message = %q, want fallback", apiErr.Message)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d", apiErr.Status)
	}
}

func TestParseAPIError_UnknownBodyUsesFallback(t *testing.T) {
	apiErr := ParseAPIError(http.StatusBadGateway, []byte(`Bad Gateway`))

	if apiErr.Message != FallbackMessage {
		t.Errorf("Message = %q, want fallback", apiErr.Message)
	}
	if apiErr.Shape.Kind() != ShapeUnknown {
		t.Errorf("Kind() = %s, want unknown", apiErr.Shape.Kind())
	}
}

func TestNormalize(t *testing.T) {
	apiErr := ParseAPIError(http.StatusConflict, []byte(`{"detail": [{"msg": "Table already booked"}]}`))

	if got := Normalize(fmt.Errorf("submit: %w", apiErr)); got != "Table already booked" {
		t.Errorf("Normalize(wrapped) = %q", got)
	}
	if got := Normalize(errors.New("dial tcp: connection refused")); got != FallbackMessage {
		t.Errorf("Normalize(transport) = %q", got)
	}
	if got := Normalize(nil); got != "" {
		t.Errorf("Normalize(nil) = %q", got)
	}
	if !apiErr.IsConflict() {
		t.Errorf("IsConflict() should be true for 409")
	}
}
