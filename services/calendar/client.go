package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lumident/models"

	"go.uber.org/zap"
)

// HTTPCalendarService implements Service against the calendar provider's API.
type HTTPCalendarService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPCalendarService(baseURL, apiKey string, logger *zap.Logger) *HTTPCalendarService {
	return &HTTPCalendarService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type reserveRequest struct {
	ServiceID       string    `json:"serviceId"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"durationMinutes"`
}

type reserveResponse struct {
	ReservationID string `json:"reservationId"`
}

// Reserve books the slot in the clinic calendar. A 409 maps to ErrSlotTaken;
// any other failure maps to *AdapterError.
func (s *HTTPCalendarService) Reserve(ctx context.Context, serviceID string, slot models.Slot) (string, error) {
	body, err := json.Marshal(reserveRequest{
		ServiceID:       serviceID,
		Start:           slot.Start,
		DurationMinutes: slot.DurationMinutes,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal reservation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/reservations", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build reservation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &AdapterError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		s.logger.Info("Calendar slot conflict",
			zap.String("serviceId", serviceID),
			zap.Time("start", slot.Start),
		)
		return "", ErrSlotTaken
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", &AdapterError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var out reserveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &AdapterError{Err: fmt.Errorf("malformed response: %w", err)}
	}
	if out.ReservationID == "" {
		return "", &AdapterError{Err: fmt.Errorf("empty reservation id")}
	}
	return out.ReservationID, nil
}
