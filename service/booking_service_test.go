package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/careline/chatbot-be/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingHealthyCachesProbe(t *testing.T) {
	var probes atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			probes.Add(1)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	booking := NewBookingService(config.BookingConfig{ServiceURL: server.URL})
	ctx := context.Background()

	assert.True(t, booking.Healthy(ctx))
	assert.True(t, booking.Healthy(ctx))
	assert.Equal(t, int32(1), probes.Load())
}

func TestBookingUnconfiguredIsUnhealthy(t *testing.T) {
	booking := NewBookingService(config.BookingConfig{})
	assert.False(t, booking.Healthy(context.Background()))
}

func TestCheckAvailability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/availability", r.URL.Path)
		require.Equal(t, "2026-09-01", r.URL.Query().Get("date"))
		json.NewEncoder(w).Encode(AvailabilityData{
			Date:  "2026-09-01",
			Slots: []AvailabilitySlot{{Start: "09:00", End: "10:00"}},
		})
	}))
	defer server.Close()

	booking := NewBookingService(config.BookingConfig{ServiceURL: server.URL})
	data, err := booking.CheckAvailability(context.Background(), "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-01", data.Date)
	require.Len(t, data.Slots, 1)
	assert.Equal(t, "09:00", data.Slots[0].Start)
}

func TestBookPostsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/bookings", r.URL.Path)

		var req BookingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "u1", req.UserID)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(BookingResult{BookingID: "b-1", Confirmed: true})
	}))
	defer server.Close()

	booking := NewBookingService(config.BookingConfig{ServiceURL: server.URL})
	result, err := booking.Book(context.Background(), BookingRequest{
		UserID:  "u1",
		Date:    "2026-09-01",
		Start:   "09:00",
		Service: "cleaning",
	})
	require.NoError(t, err)
	assert.Equal(t, "b-1", result.BookingID)
	assert.True(t, result.Confirmed)
}

func TestExtractTime(t *testing.T) {
	assert.Equal(t, "09:30", extractTime("can I come at 9:30 please"))
	assert.Equal(t, "14:00", extractTime("book me 2026-09-01 at 14:00"))
	assert.Empty(t, extractTime("I want an appointment tomorrow"))
	assert.Empty(t, extractTime("whitening takes 60 minutes"))
}

func TestSlotMinutes(t *testing.T) {
	assert.Equal(t, 60, slotMinutes(AvailabilitySlot{Start: "10:00", End: "11:00"}))
	assert.Equal(t, 30, slotMinutes(AvailabilitySlot{Start: "09:00", End: "09:30"}))
	assert.Zero(t, slotMinutes(AvailabilitySlot{Start: "bad", End: "09:30"}))
}
