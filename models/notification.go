package models

import "time"

// Notification kinds dispatched on booking state transitions.
const (
	NotifyConfirmation = "confirmation"
	NotifyFailure      = "failure"
	NotifyExpiry       = "expiry"
	NotifyReminder     = "reminder"
)

// ReminderPayload is the asynq task payload for appointment reminders.
type ReminderPayload struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ServiceID string    `json:"serviceId"`
	Start     time.Time `json:"start"`
}
