package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tablebook/pkg/model"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc) *HttpClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHttpClient(srv.URL, time.Second)
}

func TestTablesClient_List(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/tables" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 201, "table_number": "201", "zone": "HALL_2", "seats": 4, "x": 200, "y": 200, "rotation": 0, "is_active": true},
			{"id": 203, "table_number": "203", "zone": "HALL_2", "seats": 8, "x": 400, "y": 300, "rotation": 0, "is_active": true}
		]`))
	})

	tables, err := NewTablesClient(backend).List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	if tables[1].Seats != 8 || tables[1].Zone != model.ZoneHall2 {
		t.Errorf("unexpected table %+v", tables[1])
	}
}

func TestTablesClient_UpdateForwardsBearer(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/tables/105" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer admin-token" {
			t.Errorf("Authorization = %q", got)
		}
		var body model.Table
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.X != 780 {
			t.Errorf("x = %v, want 780", body.X)
		}
		_ = json.NewEncoder(w).Encode(body)
	})

	ctx := WithBearer(context.Background(), "admin-token")
	updated, err := NewTablesClient(backend).Update(ctx, model.Table{ID: 105, TableNumber: "105", Zone: model.ZoneHall1, Seats: 6, X: 780, Y: 500})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.X != 780 {
		t.Errorf("updated x = %v", updated.X)
	}
}

func TestTablesClient_DeleteError(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "Table not found"}`))
	})

	err := NewTablesClient(backend).Delete(context.Background(), 999)
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if !apiErr.IsNotFound() || apiErr.Message != "Table not found" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestBookingsClient_Availability(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bookings/availability/2025-06-01" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("guest_count"); got != "4" {
			t.Errorf("guest_count = %s", got)
		}
		_, _ = w.Write([]byte(`{"time_slots": [
			{"time": "19:00:00", "is_available": true, "occupied_table_ids": [203]},
			{"time": "20:00:00", "is_available": false, "occupied_table_ids": [201, 202, 203]}
		], "min_advance_hours": 3}`))
	})

	availability, err := NewBookingsClient(backend).Availability(context.Background(), "2025-06-01", 4)
	if err != nil {
		t.Fatalf("Availability() error = %v", err)
	}
	if availability.Date != "2025-06-01" {
		t.Errorf("Date = %q", availability.Date)
	}
	if availability.MinAdvanceHours != 3 {
		t.Errorf("MinAdvanceHours = %d", availability.MinAdvanceHours)
	}
	slot, ok := availability.FindSlot("19:00")
	if !ok || len(slot.OccupiedTableIDs) != 1 || slot.OccupiedTableIDs[0] != 203 {
		t.Errorf("unexpected slot %+v", slot)
	}
}

func TestBookingsClient_CreateConflict(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": [{"msg": "Table already booked"}]}`))
	})

	_, err := NewBookingsClient(backend).Create(context.Background(), model.BookingRequest{TableID: 203})
	if got := Normalize(err); got != "Table already booked" {
		t.Errorf("Normalize() = %q", got)
	}
}

func TestBookingsClient_Webhook(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bookings/42/webhook" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body model.PaymentWebhook
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.BookingID != 42 || body.PaymentStatus != model.PaymentSuccess {
			t.Errorf("unexpected body %+v", body)
		}
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	})

	if err := NewBookingsClient(backend).Webhook(context.Background(), 42, model.PaymentSuccess); err != nil {
		t.Fatalf("Webhook() error = %v", err)
	}
}
