package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/careline/chatbot-be/config"
)

const healthCacheTTL = 30 * time.Second

// BookingService is a thin client for the external scheduling system. The
// chat core only needs availability lookups, booking creation and a
// cheap health probe; anything richer lives in the scheduling system
// itself.
type BookingService struct {
	baseURL    string
	httpClient *http.Client

	mu           sync.Mutex
	healthy      bool
	healthyUntil time.Time
}

type AvailabilitySlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailabilityData struct {
	Date  string             `json:"date"`
	Slots []AvailabilitySlot `json:"slots"`
}

type BookingRequest struct {
	UserID  string `json:"user_id"`
	Date    string `json:"date"`
	Start   string `json:"start"`
	Service string `json:"service"`
}

type BookingResult struct {
	BookingID string `json:"booking_id"`
	Confirmed bool   `json:"confirmed"`
}

func NewBookingService(cfg config.BookingConfig) *BookingService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BookingService{
		baseURL: cfg.ServiceURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Healthy probes the scheduling system, caching the result briefly so
// every chat turn does not cost a round trip.
func (s *BookingService) Healthy(ctx context.Context) bool {
	if s.baseURL == "" {
		return false
	}
	s.mu.Lock()
	if time.Now().Before(s.healthyUntil) {
		healthy := s.healthy
		s.mu.Unlock()
		return healthy
	}
	s.mu.Unlock()

	healthy := false
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err == nil {
		resp, err := s.httpClient.Do(req)
		if err == nil {
			resp.Body.Close()
			healthy = resp.StatusCode == http.StatusOK
		}
	}

	s.mu.Lock()
	s.healthy = healthy
	s.healthyUntil = time.Now().Add(healthCacheTTL)
	s.mu.Unlock()
	return healthy
}

func (s *BookingService) CheckAvailability(ctx context.Context, date string) (*AvailabilityData, error) {
	endpoint := fmt.Sprintf("%s/api/v1/availability?date=%s", s.baseURL, url.QueryEscape(date))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("availability request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("availability request returned %d", resp.StatusCode)
	}

	var data AvailabilityData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode availability: %w", err)
	}
	return &data, nil
}

func (s *BookingService) Book(ctx context.Context, booking BookingRequest) (*BookingResult, error) {
	body, err := json.Marshal(booking)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/bookings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("booking request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("booking request returned %d", resp.StatusCode)
	}

	var result BookingResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode booking result: %w", err)
	}
	return &result, nil
}
