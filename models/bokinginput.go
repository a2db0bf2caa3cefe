package models

import "time"

// BookingInput is the client-submitted booking intent.
type BookingInput struct {
	Name            string    `json:"name" binding:"required"`
	Email           string    `json:"email" binding:"required,email"`
	Phone           string    `json:"phone" binding:"required"`
	ServiceID       string    `json:"serviceId" binding:"required"`
	Start           time.Time `json:"start" binding:"required"`
	DurationMinutes int       `json:"durationMinutes" binding:"required,min=15,max=240"`
	Amount          int64     `json:"amount" binding:"required,gt=0"` // minor currency units
}

// IntentResponse is returned after a booking intent has been accepted and a
// payment session created. The client is redirected to RedirectURL.
type IntentResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirectUrl"`
}
